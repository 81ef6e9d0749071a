package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"google.golang.org/api/iterator"

	"github.com/kalad-store/api/internal/handlers"
	"github.com/kalad-store/api/internal/platform/config"
	pfirestore "github.com/kalad-store/api/internal/platform/firestore"
	"github.com/kalad-store/api/internal/platform/observability"
	platformstorage "github.com/kalad-store/api/internal/platform/storage"
	firestoreRepo "github.com/kalad-store/api/internal/repositories/firestore"
	"github.com/kalad-store/api/internal/repositories/local"
	"github.com/kalad-store/api/internal/services"
)

func main() {
	ctx := context.Background()
	startedAt := time.Now().UTC()

	baseLogger, err := observability.NewLogger()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialise logger: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = baseLogger.Sync()
	}()

	logger := baseLogger.Named("api")
	ctx = observability.WithLogger(ctx, logger)

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("failed to load configuration", zap.Error(err))
	}

	firestoreProvider := pfirestore.NewProvider(cfg.Firestore)
	if _, err := firestoreProvider.Client(ctx); err != nil {
		logger.Fatal("failed to initialise firestore client", zap.Error(err))
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := firestoreProvider.Close(closeCtx); err != nil {
			logger.Warn("firestore close error", zap.Error(err))
		}
	}()

	storageProvider := platformstorage.NewProvider(cfg.Firebase, cfg.Storage)
	uploader, err := platformstorage.NewUploader(storageProvider)
	if err != nil {
		logger.Fatal("failed to initialise storage uploader", zap.Error(err))
	}

	productRepo, err := firestoreRepo.NewProductRepository(firestoreProvider)
	if err != nil {
		logger.Fatal("failed to initialise product repository", zap.Error(err))
	}
	cartRecords, err := local.NewCartRecordStore(cfg.Cart.FilePath)
	if err != nil {
		logger.Fatal("failed to initialise cart record store", zap.Error(err))
	}

	catalogService, err := services.NewCatalogService(services.CatalogServiceDeps{
		Repository: productRepo,
		Logger:     newEventLogger(logger.Named("catalog")),
	})
	if err != nil {
		logger.Fatal("failed to initialise catalog service", zap.Error(err))
	}

	inventoryService, err := services.NewInventoryService(services.InventoryServiceDeps{
		Repository: productRepo,
		Logger:     newEventLogger(logger.Named("inventory")),
	})
	if err != nil {
		logger.Fatal("failed to initialise inventory service", zap.Error(err))
	}

	imageService, err := services.NewImageService(services.ImageServiceDeps{
		Uploader: uploader,
		Logger:   newEventLogger(logger.Named("images")),
	})
	if err != nil {
		logger.Fatal("failed to initialise image service", zap.Error(err))
	}

	cartStore, err := services.NewCartStore(ctx, services.CartStoreDeps{
		Records: cartRecords,
		Logger:  newEventLogger(logger.Named("cart")),
	})
	if err != nil {
		logger.Fatal("failed to initialise cart store", zap.Error(err))
	}

	productEditor, err := services.NewProductEditor(services.ProductEditorDeps{
		Catalog: catalogService,
		Images:  imageService,
		Logger:  newEventLogger(logger.Named("editor")),
	})
	if err != nil {
		logger.Fatal("failed to initialise product editor", zap.Error(err))
	}

	catalogHandlers := handlers.NewCatalogHandlers(catalogService)
	cartHandlers := handlers.NewCartHandlers(cartStore, catalogService, inventoryService)
	adminHandlers := handlers.NewAdminProductHandlers(productEditor, catalogService, inventoryService)

	healthHandlers := handlers.NewHealthHandlers(
		handlers.WithHealthStartedAt(startedAt),
		handlers.WithHealthReadinessCheck("firestore", firestoreReadinessCheck(firestoreProvider)),
	)

	middlewares := []func(http.Handler) http.Handler{
		observability.InjectLoggerMiddleware(logger.Named("http")),
		observability.RecoveryMiddleware(logger.Named("http")),
		observability.RequestLoggerMiddleware(),
	}

	router := handlers.NewRouter(
		handlers.WithMiddlewares(middlewares...),
		handlers.WithHealthHandlers(healthHandlers),
		handlers.WithCatalogRoutes(catalogHandlers.Routes),
		handlers.WithCartRoutes(cartHandlers.Routes),
		handlers.WithAdminRoutes(adminHandlers.Routes),
	)

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	serverLogger := logger.Named("http").With(zap.String("addr", server.Addr))
	go func() {
		serverLogger.Info("kalad store api listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverLogger.Fatal("http server error", zap.Error(err))
		}
	}()

	<-shutdown
	logger.Info("shutdown signal received; draining requests")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	}
}

// newEventLogger bridges the services' structured event callbacks onto zap.
func newEventLogger(logger *zap.Logger) func(context.Context, string, map[string]any) {
	return func(_ context.Context, event string, fields map[string]any) {
		zFields := make([]zap.Field, 0, len(fields)+1)
		zFields = append(zFields, zap.String("event", event))
		for k, v := range fields {
			zFields = append(zFields, zap.Any(k, v))
		}
		logger.Debug("service log", zFields...)
	}
}

func firestoreReadinessCheck(provider *pfirestore.Provider) handlers.ReadinessCheck {
	return func(ctx context.Context) error {
		client, err := provider.Client(ctx)
		if err != nil {
			return err
		}
		iter := client.Collections(ctx)
		if _, err := iter.Next(); err != nil && !errors.Is(err, iterator.Done) {
			return err
		}
		return nil
	}
}

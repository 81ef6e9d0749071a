package services

import (
	"context"
	"errors"
	"strings"

	"github.com/kalad-store/api/internal/repositories"
)

var errInventoryRepositoryRequired = errors.New("inventory service: repository is required")

// ErrInventoryInvalidInput indicates the caller supplied invalid input.
var ErrInventoryInvalidInput = errors.New("inventory service: invalid input")

// ErrInventoryUnavailable indicates the inventory backend cannot fulfil the request.
var ErrInventoryUnavailable = errors.New("inventory service: unavailable")

// ErrInventoryNotFound indicates the product has no stock record.
var ErrInventoryNotFound = errors.New("inventory service: not found")

// ErrInventoryInsufficientStock indicates the requested quantity exceeds availability.
var ErrInventoryInsufficientStock = errors.New("inventory service: insufficient stock")

// InventoryServiceDeps wires the repository dependencies for stock operations.
type InventoryServiceDeps struct {
	Repository repositories.ProductRepository
	Logger     func(context.Context, string, map[string]any)
}

type inventoryService struct {
	repo   repositories.ProductRepository
	logger func(context.Context, string, map[string]any)
}

// NewInventoryService constructs an InventoryService enforcing dependency validation.
func NewInventoryService(deps InventoryServiceDeps) (InventoryService, error) {
	if deps.Repository == nil {
		return nil, errInventoryRepositoryRequired
	}

	logger := deps.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}

	return &inventoryService{repo: deps.Repository, logger: logger}, nil
}

// ReduceStock decrements the product's stock by quantity. The decrement is
// atomic: concurrent purchases of the last units fail rather than oversell.
func (s *inventoryService) ReduceStock(ctx context.Context, productID string, quantity int) error {
	if s == nil || s.repo == nil {
		return ErrInventoryUnavailable
	}
	id := strings.TrimSpace(productID)
	if id == "" {
		return ErrInventoryInvalidInput
	}
	if quantity <= 0 {
		return ErrInventoryInvalidInput
	}

	if err := s.repo.ReduceStock(ctx, id, quantity); err != nil {
		var stockErr *repositories.StockError
		if errors.As(err, &stockErr) {
			switch stockErr.Code {
			case repositories.StockErrorInsufficient:
				s.logger(ctx, "inventory.reduce.insufficient", map[string]any{"product_id": id, "quantity": quantity})
				return ErrInventoryInsufficientStock
			case repositories.StockErrorProductNotFound:
				return ErrInventoryNotFound
			default:
				return ErrInventoryInvalidInput
			}
		}
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}
		s.logger(ctx, "inventory.reduce.failed", map[string]any{"product_id": id, "error": err.Error()})
		return ErrInventoryUnavailable
	}

	s.logger(ctx, "inventory.reduce.succeeded", map[string]any{"product_id": id, "quantity": quantity})
	return nil
}

// SetStock replaces the product's stock with an absolute value. Last write
// wins; the admin form shows the stored value before editing.
func (s *inventoryService) SetStock(ctx context.Context, productID string, stock int) error {
	if s == nil || s.repo == nil {
		return ErrInventoryUnavailable
	}
	id := strings.TrimSpace(productID)
	if id == "" {
		return ErrInventoryInvalidInput
	}
	if stock < 0 {
		return ErrInventoryInvalidInput
	}

	if err := s.repo.SetStock(ctx, id, stock); err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}
		if isRepoNotFound(err) {
			return ErrInventoryNotFound
		}
		s.logger(ctx, "inventory.set.failed", map[string]any{"product_id": id, "error": err.Error()})
		return ErrInventoryUnavailable
	}

	s.logger(ctx, "inventory.set.succeeded", map[string]any{"product_id": id, "stock": stock})
	return nil
}

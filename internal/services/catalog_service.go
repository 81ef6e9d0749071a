package services

import (
	"context"
	"errors"
	"strings"

	domain "github.com/kalad-store/api/internal/domain"
	"github.com/kalad-store/api/internal/platform/textutil"
	"github.com/kalad-store/api/internal/repositories"
)

var errCatalogRepositoryRequired = errors.New("catalog service: repository is required")

// ErrCatalogInvalidInput indicates the caller supplied invalid input.
var ErrCatalogInvalidInput = errors.New("catalog service: invalid input")

// ErrCatalogUnavailable indicates the catalog cannot fulfil the request due to missing dependencies or backend issues.
var ErrCatalogUnavailable = errors.New("catalog service: unavailable")

// ErrCatalogNotFound indicates the requested product does not exist.
var ErrCatalogNotFound = errors.New("catalog service: not found")

// CatalogServiceDeps wires the repository dependencies for catalog operations.
type CatalogServiceDeps struct {
	Repository repositories.ProductRepository
	Logger     func(context.Context, string, map[string]any)
}

type catalogService struct {
	repo   repositories.ProductRepository
	logger func(context.Context, string, map[string]any)
}

// NewCatalogService constructs a CatalogService enforcing dependency validation.
func NewCatalogService(deps CatalogServiceDeps) (CatalogService, error) {
	if deps.Repository == nil {
		return nil, errCatalogRepositoryRequired
	}

	logger := deps.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}

	return &catalogService{repo: deps.Repository, logger: logger}, nil
}

func (s *catalogService) ListProducts(ctx context.Context) ([]Product, error) {
	if s == nil || s.repo == nil {
		return nil, ErrCatalogUnavailable
	}
	products, err := s.repo.List(ctx)
	if err != nil {
		s.logger(ctx, "catalog.list.failed", map[string]any{"error": err.Error()})
		return nil, wrapCatalogError(err)
	}
	return products, nil
}

func (s *catalogService) GetProduct(ctx context.Context, productID string) (Product, error) {
	if s == nil || s.repo == nil {
		return Product{}, ErrCatalogUnavailable
	}
	id := strings.TrimSpace(productID)
	if id == "" {
		return Product{}, ErrCatalogInvalidInput
	}
	product, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return Product{}, wrapCatalogError(err)
	}
	return product, nil
}

// GetFeatured returns badge-carrying products in catalog order. Filtering
// happens over the full listing because badges live on a legacy field that
// cannot be queried uniformly. A non-positive limit returns every featured
// product.
func (s *catalogService) GetFeatured(ctx context.Context, limit int) ([]Product, error) {
	products, err := s.ListProducts(ctx)
	if err != nil {
		return nil, err
	}
	featured := make([]Product, 0, len(products))
	for _, product := range products {
		if product.Badge == nil {
			continue
		}
		featured = append(featured, product)
		if limit > 0 && len(featured) == limit {
			break
		}
	}
	return featured, nil
}

// GetByCategory delegates selection and alphabetical ordering to the backing
// query; results are surfaced without re-sorting.
func (s *catalogService) GetByCategory(ctx context.Context, category string) ([]Product, error) {
	if s == nil || s.repo == nil {
		return nil, ErrCatalogUnavailable
	}
	term := strings.TrimSpace(category)
	if term == "" {
		return nil, ErrCatalogInvalidInput
	}
	products, err := s.repo.ListByCategory(ctx, term)
	if err != nil {
		s.logger(ctx, "catalog.by_category.failed", map[string]any{"categoria": term, "error": err.Error()})
		return nil, wrapCatalogError(err)
	}
	return products, nil
}

func (s *catalogService) GetByCollection(ctx context.Context, collection string) ([]Product, error) {
	if s == nil || s.repo == nil {
		return nil, ErrCatalogUnavailable
	}
	term := strings.TrimSpace(collection)
	if term == "" {
		return nil, ErrCatalogInvalidInput
	}
	products, err := s.repo.ListByCollection(ctx, term)
	if err != nil {
		s.logger(ctx, "catalog.by_collection.failed", map[string]any{"coleccion": term, "error": err.Error()})
		return nil, wrapCatalogError(err)
	}
	return products, nil
}

func (s *catalogService) GetInStock(ctx context.Context) ([]Product, error) {
	if s == nil || s.repo == nil {
		return nil, ErrCatalogUnavailable
	}
	products, err := s.repo.ListInStock(ctx)
	if err != nil {
		s.logger(ctx, "catalog.in_stock.failed", map[string]any{"error": err.Error()})
		return nil, wrapCatalogError(err)
	}
	return products, nil
}

func (s *catalogService) FilterProducts(ctx context.Context, filter ProductFilter) ([]Product, error) {
	products, err := s.ListProducts(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]Product, 0, len(products))
	for _, product := range products {
		if !matchesFilter(product, filter) {
			continue
		}
		out = append(out, product)
	}
	return out, nil
}

func (s *catalogService) CreateProduct(ctx context.Context, input ProductInput) (string, error) {
	if s == nil || s.repo == nil {
		return "", ErrCatalogUnavailable
	}
	if err := validateProductInput(input, true); err != nil {
		return "", err
	}
	id, err := s.repo.Insert(ctx, input)
	if err != nil {
		s.logger(ctx, "catalog.create.failed", map[string]any{"error": err.Error()})
		return "", wrapCatalogError(err)
	}
	s.logger(ctx, "catalog.create.succeeded", map[string]any{"product_id": id})
	return id, nil
}

func (s *catalogService) UpdateProduct(ctx context.Context, productID string, input ProductInput) error {
	if s == nil || s.repo == nil {
		return ErrCatalogUnavailable
	}
	id := strings.TrimSpace(productID)
	if id == "" {
		return ErrCatalogInvalidInput
	}
	if err := validateProductInput(input, false); err != nil {
		return err
	}
	if err := s.repo.Update(ctx, id, input); err != nil {
		s.logger(ctx, "catalog.update.failed", map[string]any{"product_id": id, "error": err.Error()})
		return wrapCatalogError(err)
	}
	s.logger(ctx, "catalog.update.succeeded", map[string]any{"product_id": id})
	return nil
}

func (s *catalogService) DeleteProduct(ctx context.Context, productID string) error {
	if s == nil || s.repo == nil {
		return ErrCatalogUnavailable
	}
	id := strings.TrimSpace(productID)
	if id == "" {
		return ErrCatalogInvalidInput
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		s.logger(ctx, "catalog.delete.failed", map[string]any{"product_id": id, "error": err.Error()})
		return wrapCatalogError(err)
	}
	s.logger(ctx, "catalog.delete.succeeded", map[string]any{"product_id": id})
	return nil
}

// validateProductInput checks only the fields the caller submitted; absent
// fields keep their stored values on update. Creation additionally requires a
// name.
func validateProductInput(input ProductInput, creating bool) error {
	if input.Nombre != nil && strings.TrimSpace(*input.Nombre) == "" {
		return ErrCatalogInvalidInput
	}
	if creating && input.Nombre == nil {
		return ErrCatalogInvalidInput
	}
	if input.Precio != nil && *input.Precio < 0 {
		return ErrCatalogInvalidInput
	}
	if input.Stock != nil && *input.Stock < 0 {
		return ErrCatalogInvalidInput
	}
	return nil
}

func matchesFilter(product domain.Product, filter ProductFilter) bool {
	if filter.OnlyInStock && product.Stock <= 0 {
		return false
	}
	if categoria := strings.TrimSpace(filter.Categoria); categoria != "" && !textutil.EqualFold(product.Categoria, categoria) {
		return false
	}
	if coleccion := strings.TrimSpace(filter.Coleccion); coleccion != "" && !textutil.EqualFold(product.Coleccion, coleccion) {
		return false
	}
	if badge := strings.TrimSpace(filter.Badge); badge != "" {
		if product.Badge == nil || !textutil.EqualFold(string(*product.Badge), badge) {
			return false
		}
	}
	if query := strings.TrimSpace(filter.Query); query != "" {
		if !textutil.ContainsFold(product.Nombre, query) &&
			!textutil.ContainsFold(product.Descripcion, query) &&
			!textutil.ContainsFold(product.SKU, query) {
			return false
		}
	}
	return true
}

func wrapCatalogError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	if isRepoNotFound(err) {
		return ErrCatalogNotFound
	}
	return ErrCatalogUnavailable
}

func isRepoNotFound(err error) bool {
	var repoErr repositories.RepositoryError
	if errors.As(err, &repoErr) {
		return repoErr.IsNotFound()
	}
	return false
}

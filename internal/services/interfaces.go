package services

import (
	"context"

	domain "github.com/kalad-store/api/internal/domain"
)

// Type aliases expose domain models to the services package without reversing dependency direction.
type (
	Product      = domain.Product
	ProductInput = domain.ProductInput
	Badge        = domain.Badge
	Dimensions   = domain.Dimensions
	CartItem     = domain.CartItem
)

// CatalogService exposes read and write access to the normalized product catalog.
type CatalogService interface {
	ListProducts(ctx context.Context) ([]Product, error)
	GetProduct(ctx context.Context, productID string) (Product, error)
	GetFeatured(ctx context.Context, limit int) ([]Product, error)
	GetByCategory(ctx context.Context, category string) ([]Product, error)
	GetByCollection(ctx context.Context, collection string) ([]Product, error)
	GetInStock(ctx context.Context) ([]Product, error)
	FilterProducts(ctx context.Context, filter ProductFilter) ([]Product, error)

	CreateProduct(ctx context.Context, input ProductInput) (string, error)
	UpdateProduct(ctx context.Context, productID string, input ProductInput) error
	DeleteProduct(ctx context.Context, productID string) error
}

// ProductFilter narrows admin product listings. All criteria are optional
// and combine with AND semantics; text matching is accent-insensitive.
type ProductFilter struct {
	Query       string
	Categoria   string
	Coleccion   string
	Badge       string
	OnlyInStock bool
}

// InventoryService adjusts product stock levels.
type InventoryService interface {
	ReduceStock(ctx context.Context, productID string, quantity int) error
	SetStock(ctx context.Context, productID string, stock int) error
}

// ImageUploader persists an encoded image and returns its public URL.
type ImageUploader interface {
	Upload(ctx context.Context, object string, data []byte, contentType string) (string, error)
}

// ImageService validates, compresses, and uploads product imagery.
type ImageService interface {
	Validate(name string, data []byte) (ImageInfo, error)
	UploadProductImage(ctx context.Context, file ImageFile) (string, error)
	UploadGallery(ctx context.Context, files []ImageFile) ([]string, error)
}

// ImageFile couples an upload's original file name with its raw bytes.
type ImageFile struct {
	Name string
	Data []byte
}

// ImageInfo describes a validated image.
type ImageInfo struct {
	Format string
	Width  int
	Height int
	Size   int
}

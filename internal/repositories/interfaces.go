package repositories

import (
	"context"

	domain "github.com/kalad-store/api/internal/domain"
)

// ProductRepository persists catalog products. Read operations return
// normalized products; raw stored shapes never cross this boundary.
type ProductRepository interface {
	List(ctx context.Context) ([]domain.Product, error)

	// The filtered listings push selection and ordering into the backing
	// query; callers surface the results in query order.
	ListByCategory(ctx context.Context, category string) ([]domain.Product, error)
	ListByCollection(ctx context.Context, collection string) ([]domain.Product, error)
	ListInStock(ctx context.Context) ([]domain.Product, error)

	FindByID(ctx context.Context, productID string) (domain.Product, error)
	Insert(ctx context.Context, input domain.ProductInput) (string, error)
	Update(ctx context.Context, productID string, input domain.ProductInput) error
	Delete(ctx context.Context, productID string) error

	// ReduceStock atomically decrements stock by quantity inside a
	// transaction, failing when the remaining stock is insufficient.
	ReduceStock(ctx context.Context, productID string, quantity int) error

	// SetStock overwrites the stock field with an absolute value,
	// last-write-wins.
	SetStock(ctx context.Context, productID string, stock int) error
}

// CartRecordStore persists the cart snapshot between sessions. Load returns
// an empty cart when no record exists or the stored record is corrupt.
type CartRecordStore interface {
	Load(ctx context.Context) ([]domain.CartItem, error)
	Save(ctx context.Context, items []domain.CartItem) error
}

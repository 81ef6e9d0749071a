package firestore

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	domain "github.com/kalad-store/api/internal/domain"
	pfirestore "github.com/kalad-store/api/internal/platform/firestore"
	"github.com/kalad-store/api/internal/repositories"
)

const (
	productsCollection = "productos"

	galleryLimit = 4
)

// ProductRepository stores catalog products in the productos collection.
// Documents are written and read as maps because historical records carry
// legacy field aliases and loosely typed values that a struct decode would
// reject.
type ProductRepository struct {
	provider *pfirestore.Provider
	products *pfirestore.BaseRepository[map[string]any]
}

// NewProductRepository constructs a ProductRepository backed by Firestore.
func NewProductRepository(provider *pfirestore.Provider) (*ProductRepository, error) {
	if provider == nil {
		return nil, errors.New("product repository requires firestore provider")
	}
	products := pfirestore.NewBaseRepository[map[string]any](provider, productsCollection, pfirestore.MapEncoder[map[string]any](), pfirestore.MapDecoder())
	return &ProductRepository{provider: provider, products: products}, nil
}

// List returns every product in the catalog, normalized.
func (r *ProductRepository) List(ctx context.Context) ([]domain.Product, error) {
	return r.list(ctx, nil)
}

// ListByCategory returns the products of one category, alphabetical by name.
// Ordering is part of the query; results are surfaced as Firestore returns
// them.
func (r *ProductRepository) ListByCategory(ctx context.Context, category string) ([]domain.Product, error) {
	return r.list(ctx, func(q firestore.Query) firestore.Query {
		return q.Where("categoria", "==", category).OrderBy("nombre", firestore.Asc)
	})
}

// ListByCollection returns the products of one collection, alphabetical by
// name.
func (r *ProductRepository) ListByCollection(ctx context.Context, collection string) ([]domain.Product, error) {
	return r.list(ctx, func(q firestore.Query) firestore.Query {
		return q.Where("coleccion", "==", collection).OrderBy("nombre", firestore.Asc)
	})
}

// ListInStock returns the products with remaining stock, highest stock first.
func (r *ProductRepository) ListInStock(ctx context.Context) ([]domain.Product, error) {
	return r.list(ctx, func(q firestore.Query) firestore.Query {
		return q.Where("stock", ">", 0).OrderBy("stock", firestore.Desc)
	})
}

func (r *ProductRepository) list(ctx context.Context, build pfirestore.QueryBuilder) ([]domain.Product, error) {
	if r == nil || r.products == nil {
		return nil, errors.New("product repository not initialised")
	}
	docs, err := r.products.Query(ctx, build)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Product, 0, len(docs))
	for _, doc := range docs {
		out = append(out, normalizeProduct(doc.ID, doc.Data))
	}
	return out, nil
}

// FindByID fetches and normalizes a single product.
func (r *ProductRepository) FindByID(ctx context.Context, productID string) (domain.Product, error) {
	if r == nil || r.products == nil {
		return domain.Product{}, errors.New("product repository not initialised")
	}
	doc, err := r.products.Get(ctx, productID)
	if err != nil {
		return domain.Product{}, err
	}
	return normalizeProduct(doc.ID, doc.Data), nil
}

// Insert persists a new product under a store-assigned ID.
func (r *ProductRepository) Insert(ctx context.Context, input domain.ProductInput) (string, error) {
	if r == nil || r.products == nil {
		return "", errors.New("product repository not initialised")
	}
	id, _, err := r.products.Create(ctx, productWritePayload(input))
	if err != nil {
		return "", err
	}
	return id, nil
}

// Update merges the sanitized payload onto the existing document. Fields
// absent from the payload keep their stored values.
func (r *ProductRepository) Update(ctx context.Context, productID string, input domain.ProductInput) error {
	if r == nil || r.products == nil {
		return errors.New("product repository not initialised")
	}
	_, err := r.products.Merge(ctx, productID, productWritePayload(input))
	return err
}

// Delete removes the product document.
func (r *ProductRepository) Delete(ctx context.Context, productID string) error {
	if r == nil || r.products == nil {
		return errors.New("product repository not initialised")
	}
	return r.products.Delete(ctx, productID)
}

// ReduceStock decrements stock by quantity inside a transaction. The read
// guards against overselling; the write uses a server-side increment so the
// decrement composes with concurrent transactions.
func (r *ProductRepository) ReduceStock(ctx context.Context, productID string, quantity int) error {
	if r == nil || r.provider == nil {
		return errors.New("product repository not initialised")
	}
	if strings.TrimSpace(productID) == "" {
		return repositories.NewStockError(repositories.StockErrorProductNotFound, "reduce stock: product id is required", nil)
	}
	if quantity <= 0 {
		return repositories.NewStockError(repositories.StockErrorUnknown, fmt.Sprintf("reduce stock: quantity %d must be > 0", quantity), nil)
	}

	return r.provider.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		ref, err := r.products.DocumentRef(ctx, productID)
		if err != nil {
			return err
		}
		snap, err := tx.Get(ref)
		if err != nil {
			if status.Code(err) == codes.NotFound {
				return repositories.NewStockError(repositories.StockErrorProductNotFound, fmt.Sprintf("product %s not found", productID), err)
			}
			return err
		}
		current := intValue(snap.Data()["stock"])
		if current < quantity {
			return repositories.NewStockError(repositories.StockErrorInsufficient, fmt.Sprintf("insufficient stock for %s", productID), nil)
		}
		return tx.Update(ref, []firestore.Update{
			{Path: "stock", Value: firestore.Increment(-quantity)},
		})
	})
}

// SetStock overwrites the stock field, last-write-wins. Unlike ReduceStock it
// runs no transaction: the admin form replaces the value outright.
func (r *ProductRepository) SetStock(ctx context.Context, productID string, stock int) error {
	if r == nil || r.products == nil {
		return errors.New("product repository not initialised")
	}
	_, err := r.products.Update(ctx, productID, []firestore.Update{
		{Path: "stock", Value: stock},
	})
	return err
}

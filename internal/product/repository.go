package product

import (
	"context"
	"errors"

	"github.com/vasiliy-maslov/catalog-api/internal/pagination"
)

var ErrNotFound = errors.New("product not found")

// Repository is the document store contract for products. Unknown or
// malformed ids are reported as ErrNotFound.
type Repository interface {
	// Create stores p and assigns p.ID.
	Create(ctx context.Context, p *Product) error
	GetByID(ctx context.Context, id string) (*Product, error)
	// List returns one page of products matching f, newest first, and the
	// total number of matching products.
	List(ctx context.Context, f Filter, p pagination.Params) ([]Product, int64, error)
	Count(ctx context.Context, f Filter) (int64, error)
	Update(ctx context.Context, id string, p Patch) (*Product, error)
}

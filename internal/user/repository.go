package user

import (
	"context"
	"errors"

	"github.com/vasiliy-maslov/catalog-api/internal/pagination"
)

var (
	ErrNotFound    = errors.New("user not found")
	ErrEmailExists = errors.New("email already exists")
)

// Repository is the document store contract for users. Implementations
// report unknown or malformed ids as ErrNotFound and unique email
// violations as ErrEmailExists.
type Repository interface {
	// Create stores u and assigns u.ID.
	Create(ctx context.Context, u *User) error
	GetByID(ctx context.Context, id string) (*User, error)
	// List returns one page of users matching f, newest first, and the
	// total number of matching users.
	List(ctx context.Context, f Filter, p pagination.Params) ([]User, int64, error)
	Count(ctx context.Context, f Filter) (int64, error)
	// Update merges p into the stored user and returns the result. It never
	// inserts.
	Update(ctx context.Context, id string, p Patch) (*User, error)
}

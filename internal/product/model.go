package product

import (
	"time"

	"github.com/vasiliy-maslov/catalog-api/internal/validation"
)

type Product struct {
	ID             string         `json:"id"`
	Name           string         `json:"name"`
	Description    string         `json:"description,omitempty"`
	Price          float64        `json:"price"`
	Category       string         `json:"category,omitempty"`
	Stock          int            `json:"stock"`
	Active         bool           `json:"active"`
	CreatedAt      time.Time      `json:"createdAt"`
	Specifications map[string]any `json:"specifications,omitempty"`
}

// Draft is the caller-supplied part of a new product. Price is a pointer so
// that a missing price can be told apart from a zero price.
type Draft struct {
	Name           string         `json:"name" validate:"required"`
	Description    string         `json:"description"`
	Price          *float64       `json:"price" validate:"required"`
	Category       string         `json:"category"`
	Stock          *int           `json:"stock"`
	Active         *bool          `json:"active"`
	Specifications map[string]any `json:"specifications"`
}

func (d Draft) Validate() error {
	return validation.Struct(d)
}

// Patch lists the fields of a partial update. Nil fields are left untouched.
type Patch struct {
	Name           *string
	Description    *string
	Price          *float64
	Category       *string
	Stock          *int
	Active         *bool
	Specifications map[string]any
}

func (p Patch) Validate() error {
	if p.Name != nil && *p.Name == "" {
		return validation.Errorf("Field 'name' cannot be empty")
	}
	return nil
}

// Filter narrows list and count queries. Category is matched as a
// case-insensitive substring.
type Filter struct {
	Active   *bool
	Category string
}

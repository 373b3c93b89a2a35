package user

import (
	"time"

	"github.com/vasiliy-maslov/catalog-api/internal/validation"
)

// DefaultCountry is stored when an address is supplied without a country.
const DefaultCountry = "Colombia"

type Address struct {
	Street     string `json:"street,omitempty"`
	City       string `json:"city,omitempty"`
	PostalCode string `json:"postalCode,omitempty"`
	Country    string `json:"country"`
}

// User is a registered user. Users are never removed; deactivation clears Active.
type User struct {
	ID        string         `json:"id"`
	Name      string         `json:"name"`
	Email     string         `json:"email"`
	Age       *int           `json:"age,omitempty"`
	Phone     string         `json:"phone,omitempty"`
	Active    bool           `json:"active"`
	CreatedAt time.Time      `json:"createdAt"`
	Address   *Address       `json:"address,omitempty"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

// Draft is the caller-supplied part of a new user.
type Draft struct {
	Name     string         `json:"name" validate:"required"`
	Email    string         `json:"email" validate:"required"`
	Age      *int           `json:"age"`
	Phone    string         `json:"phone"`
	Active   *bool          `json:"active"`
	Address  *Address       `json:"address"`
	Metadata map[string]any `json:"metadata"`
}

func (d Draft) Validate() error {
	return validation.Struct(d)
}

// Patch lists the fields of a partial update. Nil fields are left untouched.
type Patch struct {
	Name     *string
	Email    *string
	Age      *int
	Phone    *string
	Active   *bool
	Address  *Address
	Metadata map[string]any
}

func (p Patch) Validate() error {
	var details []string
	if p.Name != nil && *p.Name == "" {
		details = append(details, "Field 'name' cannot be empty")
	}
	if p.Email != nil && *p.Email == "" {
		details = append(details, "Field 'email' cannot be empty")
	}
	if len(details) > 0 {
		return &validation.Error{Details: details}
	}
	return nil
}

// Filter narrows list and count queries. Zero values mean "no constraint".
type Filter struct {
	Active       *bool
	CreatedSince time.Time
}

func withDefaultCountry(a *Address) *Address {
	if a == nil {
		return nil
	}
	out := *a
	if out.Country == "" {
		out.Country = DefaultCountry
	}
	return &out
}

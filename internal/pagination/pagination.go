// Package pagination parses page/limit query parameters and builds the
// pagination block returned by list endpoints.
package pagination

import (
	"math"
	"net/url"
	"strconv"

	"github.com/vasiliy-maslov/catalog-api/internal/validation"
)

const (
	DefaultPage  = 1
	DefaultLimit = 50
	MaxLimit     = 1000
)

// Params is a 1-indexed page request.
type Params struct {
	Page  int
	Limit int
}

// Skip returns the number of records preceding the requested page.
func (p Params) Skip() int {
	return (p.Page - 1) * p.Limit
}

// Pagination is the metadata block attached to list responses.
type Pagination struct {
	Total      int64 `json:"total"`
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	TotalPages int64 `json:"totalPages"`
}

// New computes the pagination block for a page of a result set of total records.
func New(p Params, total int64) Pagination {
	return Pagination{
		Total:      total,
		Page:       p.Page,
		Limit:      p.Limit,
		TotalPages: TotalPages(total, p.Limit),
	}
}

// TotalPages returns ceil(total / limit).
func TotalPages(total int64, limit int) int64 {
	if limit <= 0 || total <= 0 {
		return 0
	}
	l := int64(limit)
	return (total + l - 1) / l
}

// FromQuery reads page and limit from q, falling back to the defaults when
// they are absent. Values that are not positive integers are rejected, as are
// limits above MaxLimit and pages whose offset does not fit in an int.
func FromQuery(q url.Values) (Params, error) {
	page, err := positiveInt(q, "page", DefaultPage)
	if err != nil {
		return Params{}, err
	}

	limit, err := positiveInt(q, "limit", DefaultLimit)
	if err != nil {
		return Params{}, err
	}
	if limit > MaxLimit {
		return Params{}, validation.Errorf("Query parameter 'limit' must not exceed %d", MaxLimit)
	}
	if page-1 > math.MaxInt/limit {
		return Params{}, validation.Errorf("Query parameter 'page' is out of range")
	}

	return Params{Page: page, Limit: limit}, nil
}

func positiveInt(q url.Values, key string, defaultVal int) (int, error) {
	raw := q.Get(key)
	if raw == "" {
		return defaultVal, nil
	}

	v, err := strconv.Atoi(raw)
	if err != nil || v < 1 {
		return 0, validation.Errorf("Query parameter '%s' must be a positive integer", key)
	}

	return v, nil
}

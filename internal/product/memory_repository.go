package product

import (
	"context"
	"fmt"
	"maps"
	"sort"
	"strings"
	"sync"

	"github.com/gofrs/uuid"
	"github.com/vasiliy-maslov/catalog-api/internal/pagination"
)

type memoryRepository struct {
	mu       sync.RWMutex
	products map[string]*Product
	order    []string
}

// NewMemoryRepository returns a Repository held entirely in process memory.
func NewMemoryRepository() Repository {
	return &memoryRepository{products: make(map[string]*Product)}
}

func (r *memoryRepository) Create(ctx context.Context, p *Product) error {
	id, err := uuid.NewV4()
	if err != nil {
		return fmt.Errorf("repository: failed to generate product ID: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	p.ID = id.String()
	r.products[p.ID] = cloneProduct(p)
	r.order = append(r.order, p.ID)

	return nil
}

func (r *memoryRepository) GetByID(ctx context.Context, id string) (*Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.products[id]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneProduct(p), nil
}

func (r *memoryRepository) List(ctx context.Context, f Filter, pp pagination.Params) ([]Product, int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	matched := r.match(f)

	start := min(max(pp.Skip(), 0), len(matched))
	end := start + min(pp.Limit, len(matched)-start)

	page := make([]Product, 0, end-start)
	for _, p := range matched[start:end] {
		page = append(page, *cloneProduct(p))
	}

	return page, int64(len(matched)), nil
}

func (r *memoryRepository) Count(ctx context.Context, f Filter) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return int64(len(r.match(f))), nil
}

func (r *memoryRepository) Update(ctx context.Context, id string, patch Patch) (*Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.products[id]
	if !ok {
		return nil, ErrNotFound
	}

	updated := cloneProduct(p)
	applyPatch(updated, patch)
	r.products[id] = updated

	return cloneProduct(updated), nil
}

func (r *memoryRepository) match(f Filter) []*Product {
	category := strings.ToLower(f.Category)

	matched := make([]*Product, 0, len(r.order))
	for i := len(r.order) - 1; i >= 0; i-- {
		p := r.products[r.order[i]]
		if f.Active != nil && p.Active != *f.Active {
			continue
		}
		if category != "" && !strings.Contains(strings.ToLower(p.Category), category) {
			continue
		}
		matched = append(matched, p)
	}

	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	return matched
}

func applyPatch(p *Product, patch Patch) {
	if patch.Name != nil {
		p.Name = *patch.Name
	}
	if patch.Description != nil {
		p.Description = *patch.Description
	}
	if patch.Price != nil {
		p.Price = *patch.Price
	}
	if patch.Category != nil {
		p.Category = *patch.Category
	}
	if patch.Stock != nil {
		p.Stock = *patch.Stock
	}
	if patch.Active != nil {
		p.Active = *patch.Active
	}
	if patch.Specifications != nil {
		p.Specifications = maps.Clone(patch.Specifications)
	}
}

func cloneProduct(p *Product) *Product {
	out := *p
	out.Specifications = maps.Clone(p.Specifications)
	return &out
}

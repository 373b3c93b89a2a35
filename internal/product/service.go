package product

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/vasiliy-maslov/catalog-api/internal/pagination"
)

// ListQuery selects a page of active products, optionally narrowed by
// category.
type ListQuery struct {
	Category string
	Page     pagination.Params
}

type Service interface {
	ListProducts(ctx context.Context, q ListQuery) ([]Product, pagination.Pagination, error)
	CreateProduct(ctx context.Context, d Draft) (*Product, error)
	UpdateProduct(ctx context.Context, id string, p Patch) (*Product, error)
}

type Option func(*service)

func WithClock(now func() time.Time) Option {
	return func(s *service) {
		s.now = now
	}
}

type service struct {
	repo Repository
	now  func() time.Time
}

func NewService(repo Repository, opts ...Option) Service {
	s := &service{repo: repo, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *service) ListProducts(ctx context.Context, q ListQuery) ([]Product, pagination.Pagination, error) {
	active := true
	filter := Filter{Active: &active, Category: q.Category}

	products, total, err := s.repo.List(ctx, filter, q.Page)
	if err != nil {
		log.Error().Err(err).Str("category", q.Category).Msg("service: failed to list products in repository")
		return nil, pagination.Pagination{}, fmt.Errorf("service: failed to list products: %w", err)
	}

	return products, pagination.New(q.Page, total), nil
}

func (s *service) CreateProduct(ctx context.Context, d Draft) (*Product, error) {
	if err := d.Validate(); err != nil {
		log.Warn().Err(err).Msg("service: rejected invalid product")
		return nil, err
	}

	p := &Product{
		Name:           d.Name,
		Description:    d.Description,
		Price:          *d.Price,
		Category:       d.Category,
		Active:         true,
		CreatedAt:      s.now().UTC().Truncate(time.Millisecond),
		Specifications: d.Specifications,
	}
	if d.Stock != nil {
		p.Stock = *d.Stock
	}
	if d.Active != nil {
		p.Active = *d.Active
	}

	if err := s.repo.Create(ctx, p); err != nil {
		log.Error().Err(err).Msg("service: failed to create product in repository")
		return nil, fmt.Errorf("service: failed to save product: %w", err)
	}

	log.Info().Str("product_id", p.ID).Msg("service: product created")
	return p, nil
}

func (s *service) UpdateProduct(ctx context.Context, id string, patch Patch) (*Product, error) {
	if err := patch.Validate(); err != nil {
		log.Warn().Err(err).Str("product_id", id).Msg("service: rejected invalid product update")
		return nil, err
	}

	p, err := s.repo.Update(ctx, id, patch)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			log.Warn().Str("product_id", id).Msg("service: product not found for update")
			return nil, ErrNotFound
		}

		log.Error().Err(err).Str("product_id", id).Msg("service: failed to update product")
		return nil, fmt.Errorf("service: failed to update product by id '%s': %w", id, err)
	}

	log.Info().Str("product_id", id).Msg("service: product updated")
	return p, nil
}

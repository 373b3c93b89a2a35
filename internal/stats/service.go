// Package stats computes the aggregate counters served by the statistics
// endpoint. Nothing is cached: every call goes to the store.
package stats

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/vasiliy-maslov/catalog-api/internal/product"
	"github.com/vasiliy-maslov/catalog-api/internal/user"
)

// RecentWindow is the look-back period for recently registered users.
const RecentWindow = 7 * 24 * time.Hour

type UserCounter interface {
	Count(ctx context.Context, f user.Filter) (int64, error)
}

type ProductCounter interface {
	Count(ctx context.Context, f product.Filter) (int64, error)
}

type UserStats struct {
	Total      int64 `json:"total"`
	Inactive   int64 `json:"inactivos"`
	Registered int64 `json:"registrados"`
	LastWeek   int64 `json:"ultimos7Dias"`
}

type ProductStats struct {
	Total int64 `json:"total"`
}

type Stats struct {
	Users     UserStats    `json:"usuarios"`
	Products  ProductStats `json:"productos"`
	QueriedAt time.Time    `json:"fechaConsulta"`
}

type Service interface {
	GetStats(ctx context.Context) (*Stats, error)
}

type service struct {
	users    UserCounter
	products ProductCounter
	now      func() time.Time
}

func NewService(users UserCounter, products ProductCounter) Service {
	return &service{users: users, products: products, now: time.Now}
}

// NewServiceWithClock is NewService with a fixed time source, for tests.
func NewServiceWithClock(users UserCounter, products ProductCounter, now func() time.Time) Service {
	return &service{users: users, products: products, now: now}
}

func (s *service) GetStats(ctx context.Context) (*Stats, error) {
	now := s.now().UTC()
	active, inactive := true, false

	var (
		out Stats
		err error
	)

	if out.Users.Total, err = s.users.Count(ctx, user.Filter{Active: &active}); err != nil {
		return nil, s.fail(err, "active users")
	}
	if out.Users.Inactive, err = s.users.Count(ctx, user.Filter{Active: &inactive}); err != nil {
		return nil, s.fail(err, "inactive users")
	}
	if out.Users.LastWeek, err = s.users.Count(ctx, user.Filter{CreatedSince: now.Add(-RecentWindow)}); err != nil {
		return nil, s.fail(err, "recent users")
	}
	if out.Products.Total, err = s.products.Count(ctx, product.Filter{Active: &active}); err != nil {
		return nil, s.fail(err, "active products")
	}

	out.Users.Registered = out.Users.Total + out.Users.Inactive
	out.QueriedAt = now

	return &out, nil
}

func (s *service) fail(err error, what string) error {
	log.Error().Err(err).Str("counter", what).Msg("service: failed to compute statistics")
	return fmt.Errorf("service: failed to count %s: %w", what, err)
}

package user

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/vasiliy-maslov/catalog-api/internal/pagination"
)

// ListQuery selects a page of users. A nil Active falls back to the
// service's default active filter.
type ListQuery struct {
	Active *bool
	Page   pagination.Params
}

type Service interface {
	ListUsers(ctx context.Context, q ListQuery) ([]User, pagination.Pagination, error)
	GetUserByID(ctx context.Context, id string) (*User, error)
	CreateUser(ctx context.Context, d Draft) (*User, error)
	UpdateUser(ctx context.Context, id string, p Patch) (*User, error)
	DeactivateUser(ctx context.Context, id string) (*User, error)
}

type Option func(*service)

// WithActiveByDefault controls the listing filter used when the caller does
// not ask for a specific active state: true lists only active users, false
// lists everyone.
func WithActiveByDefault(activeOnly bool) Option {
	return func(s *service) {
		s.activeByDefault = activeOnly
	}
}

// WithClock replaces the time source used for createdAt.
func WithClock(now func() time.Time) Option {
	return func(s *service) {
		s.now = now
	}
}

type service struct {
	repo            Repository
	activeByDefault bool
	now             func() time.Time
}

func NewService(repo Repository, opts ...Option) Service {
	s := &service{
		repo:            repo,
		activeByDefault: true,
		now:             time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *service) ListUsers(ctx context.Context, q ListQuery) ([]User, pagination.Pagination, error) {
	filter := Filter{Active: q.Active}
	if filter.Active == nil && s.activeByDefault {
		active := true
		filter.Active = &active
	}

	users, total, err := s.repo.List(ctx, filter, q.Page)
	if err != nil {
		log.Error().Err(err).Msg("service: failed to list users in repository")
		return nil, pagination.Pagination{}, fmt.Errorf("service: failed to list users: %w", err)
	}

	return users, pagination.New(q.Page, total), nil
}

func (s *service) GetUserByID(ctx context.Context, id string) (*User, error) {
	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			log.Warn().Str("user_id", id).Msg("service: user not found by id")
			return nil, ErrNotFound
		}

		log.Error().Err(err).Str("user_id", id).Msg("service: failed to get user by id in repository")
		return nil, fmt.Errorf("service: failed to get user by id '%s': %w", id, err)
	}

	return u, nil
}

func (s *service) CreateUser(ctx context.Context, d Draft) (*User, error) {
	if err := d.Validate(); err != nil {
		log.Warn().Err(err).Msg("service: rejected invalid user")
		return nil, err
	}

	u := &User{
		Name:      d.Name,
		Email:     d.Email,
		Age:       d.Age,
		Phone:     d.Phone,
		Active:    true,
		CreatedAt: s.now().UTC().Truncate(time.Millisecond),
		Address:   withDefaultCountry(d.Address),
		Metadata:  d.Metadata,
	}
	if d.Active != nil {
		u.Active = *d.Active
	}

	if err := s.repo.Create(ctx, u); err != nil {
		if errors.Is(err, ErrEmailExists) {
			log.Warn().Str("email", d.Email).Msg("service: email already registered")
			return nil, ErrEmailExists
		}

		log.Error().Err(err).Msg("service: failed to create user in repository")
		return nil, fmt.Errorf("service: failed to save user: %w", err)
	}

	log.Info().Str("user_id", u.ID).Msg("service: user created")
	return u, nil
}

func (s *service) UpdateUser(ctx context.Context, id string, p Patch) (*User, error) {
	if err := p.Validate(); err != nil {
		log.Warn().Err(err).Str("user_id", id).Msg("service: rejected invalid user update")
		return nil, err
	}

	p.Address = withDefaultCountry(p.Address)

	u, err := s.repo.Update(ctx, id, p)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			log.Warn().Str("user_id", id).Msg("service: user not found for update")
			return nil, ErrNotFound
		case errors.Is(err, ErrEmailExists):
			log.Warn().Str("user_id", id).Msg("service: email already registered")
			return nil, ErrEmailExists
		}

		log.Error().Err(err).Str("user_id", id).Msg("service: failed to update user")
		return nil, fmt.Errorf("service: failed to update user by id '%s': %w", id, err)
	}

	log.Info().Str("user_id", id).Msg("service: user updated")
	return u, nil
}

func (s *service) DeactivateUser(ctx context.Context, id string) (*User, error) {
	inactive := false

	u, err := s.repo.Update(ctx, id, Patch{Active: &inactive})
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			log.Warn().Str("user_id", id).Msg("service: user not found for deactivation")
			return nil, ErrNotFound
		}

		log.Error().Err(err).Str("user_id", id).Msg("service: failed to deactivate user")
		return nil, fmt.Errorf("service: failed to deactivate user by id '%s': %w", id, err)
	}

	log.Info().Str("user_id", id).Msg("service: user deactivated")
	return u, nil
}

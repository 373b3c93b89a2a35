package user

import (
	"context"
	"fmt"
	"maps"
	"sort"
	"sync"

	"github.com/gofrs/uuid"
	"github.com/vasiliy-maslov/catalog-api/internal/pagination"
)

type memoryRepository struct {
	mu    sync.RWMutex
	users map[string]*User
	// insertion order, used to keep equal timestamps in a stable order
	order []string
}

// NewMemoryRepository returns a Repository held entirely in process memory.
func NewMemoryRepository() Repository {
	return &memoryRepository{users: make(map[string]*User)}
}

func (r *memoryRepository) Create(ctx context.Context, u *User) error {
	id, err := uuid.NewV4()
	if err != nil {
		return fmt.Errorf("repository: failed to generate user ID: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.emailTaken(u.Email, "") {
		return ErrEmailExists
	}

	u.ID = id.String()
	stored := cloneUser(u)
	r.users[u.ID] = stored
	r.order = append(r.order, u.ID)

	return nil
}

func (r *memoryRepository) GetByID(ctx context.Context, id string) (*User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.users[id]
	if !ok {
		return nil, ErrNotFound
	}

	return cloneUser(u), nil
}

func (r *memoryRepository) List(ctx context.Context, f Filter, p pagination.Params) ([]User, int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	matched := r.match(f)
	total := int64(len(matched))

	start := min(max(p.Skip(), 0), len(matched))
	end := start + min(p.Limit, len(matched)-start)

	page := make([]User, 0, end-start)
	for _, u := range matched[start:end] {
		page = append(page, *cloneUser(u))
	}

	return page, total, nil
}

func (r *memoryRepository) Count(ctx context.Context, f Filter) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return int64(len(r.match(f))), nil
}

func (r *memoryRepository) Update(ctx context.Context, id string, p Patch) (*User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[id]
	if !ok {
		return nil, ErrNotFound
	}

	if p.Email != nil && r.emailTaken(*p.Email, id) {
		return nil, ErrEmailExists
	}

	updated := cloneUser(u)
	applyPatch(updated, p)
	r.users[id] = updated

	return cloneUser(updated), nil
}

// match returns the users accepted by f, newest first.
func (r *memoryRepository) match(f Filter) []*User {
	matched := make([]*User, 0, len(r.order))
	for i := len(r.order) - 1; i >= 0; i-- {
		u := r.users[r.order[i]]
		if f.Active != nil && u.Active != *f.Active {
			continue
		}
		if !f.CreatedSince.IsZero() && u.CreatedAt.Before(f.CreatedSince) {
			continue
		}
		matched = append(matched, u)
	}

	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	return matched
}

func (r *memoryRepository) emailTaken(email, exceptID string) bool {
	for id, u := range r.users {
		if id != exceptID && u.Email == email {
			return true
		}
	}
	return false
}

func applyPatch(u *User, p Patch) {
	if p.Name != nil {
		u.Name = *p.Name
	}
	if p.Email != nil {
		u.Email = *p.Email
	}
	if p.Age != nil {
		age := *p.Age
		u.Age = &age
	}
	if p.Phone != nil {
		u.Phone = *p.Phone
	}
	if p.Active != nil {
		u.Active = *p.Active
	}
	if p.Address != nil {
		addr := *p.Address
		u.Address = &addr
	}
	if p.Metadata != nil {
		u.Metadata = maps.Clone(p.Metadata)
	}
}

func cloneUser(u *User) *User {
	out := *u
	if u.Age != nil {
		age := *u.Age
		out.Age = &age
	}
	if u.Address != nil {
		addr := *u.Address
		out.Address = &addr
	}
	out.Metadata = maps.Clone(u.Metadata)
	return &out
}

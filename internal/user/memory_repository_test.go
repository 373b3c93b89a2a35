package user_test

import (
	"context"
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vasiliy-maslov/catalog-api/internal/pagination"
	"github.com/vasiliy-maslov/catalog-api/internal/user"
)

// steppingClock returns base, base+1m, base+2m, ...
func steppingClock(base time.Time) func() time.Time {
	n := 0
	return func() time.Time {
		t := base.Add(time.Duration(n) * time.Minute)
		n++
		return t
	}
}

func seedUsers(t *testing.T, svc user.Service, n int) []*user.User {
	t.Helper()
	users := make([]*user.User, 0, n)
	for i := 1; i <= n; i++ {
		u, err := svc.CreateUser(context.Background(), user.Draft{
			Name:  fmt.Sprintf("User %d", i),
			Email: fmt.Sprintf("user%d@example.com", i),
		})
		require.NoError(t, err)
		users = append(users, u)
	}
	return users
}

func TestMemoryRepository_CreateAssignsIDAndTimestamp(t *testing.T) {
	svc := user.NewService(user.NewMemoryRepository())

	before := time.Now().Add(-time.Second)
	created, err := svc.CreateUser(context.Background(), user.Draft{Name: "A", Email: "a@x.com"})
	require.NoError(t, err)

	assert.NotEmpty(t, created.ID)
	assert.True(t, created.Active)
	assert.WithinDuration(t, time.Now(), created.CreatedAt, time.Since(before)+time.Second)

	fetched, err := svc.GetUserByID(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, fetched.ID)
}

func TestMemoryRepository_DuplicateEmailRegardlessOfActiveState(t *testing.T) {
	svc := user.NewService(user.NewMemoryRepository())
	ctx := context.Background()

	first, err := svc.CreateUser(ctx, user.Draft{Name: "A", Email: "a@x.com"})
	require.NoError(t, err)

	_, err = svc.CreateUser(ctx, user.Draft{Name: "A", Email: "a@x.com"})
	require.ErrorIs(t, err, user.ErrEmailExists)

	_, err = svc.DeactivateUser(ctx, first.ID)
	require.NoError(t, err)

	_, err = svc.CreateUser(ctx, user.Draft{Name: "A again", Email: "a@x.com"})
	require.ErrorIs(t, err, user.ErrEmailExists)

	second, err := svc.CreateUser(ctx, user.Draft{Name: "B", Email: "b@x.com"})
	require.NoError(t, err)
	email := "a@x.com"
	_, err = svc.UpdateUser(ctx, second.ID, user.Patch{Email: &email})
	require.ErrorIs(t, err, user.ErrEmailExists)
}

func TestMemoryRepository_UnknownID(t *testing.T) {
	svc := user.NewService(user.NewMemoryRepository())

	_, err := svc.GetUserByID(context.Background(), "6f1c9a8e-1111-4a4a-9b9b-000000000000")
	require.ErrorIs(t, err, user.ErrNotFound)

	_, err = svc.GetUserByID(context.Background(), "not-an-id")
	require.ErrorIs(t, err, user.ErrNotFound)

	_, err = svc.DeactivateUser(context.Background(), "not-an-id")
	require.ErrorIs(t, err, user.ErrNotFound)
}

func TestMemoryRepository_PaginationNewestFirst(t *testing.T) {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	svc := user.NewService(user.NewMemoryRepository(), user.WithClock(steppingClock(base)))

	seeded := seedUsers(t, svc, 5)

	users, pg, err := svc.ListUsers(context.Background(), user.ListQuery{Page: pagination.Params{Page: 2, Limit: 2}})
	require.NoError(t, err)

	require.Len(t, users, 2)
	// newest first: 5,4 | 3,2 | 1
	assert.Equal(t, seeded[2].ID, users[0].ID)
	assert.Equal(t, seeded[1].ID, users[1].ID)
	assert.Equal(t, pagination.Pagination{Total: 5, Page: 2, Limit: 2, TotalPages: 3}, pg)

	users, _, err = svc.ListUsers(context.Background(), user.ListQuery{Page: pagination.Params{Page: 4, Limit: 2}})
	require.NoError(t, err)
	assert.NotNil(t, users)
	assert.Empty(t, users)
}

func TestMemoryRepository_ListOutOfRangePage(t *testing.T) {
	repo := user.NewMemoryRepository()
	svc := user.NewService(repo)
	seedUsers(t, svc, 3)

	tests := []pagination.Params{
		{Page: math.MaxInt, Limit: 2},
		{Page: 2, Limit: math.MaxInt},
	}
	for _, p := range tests {
		users, total, err := repo.List(context.Background(), user.Filter{}, p)
		require.NoError(t, err)
		assert.Empty(t, users)
		assert.Equal(t, int64(3), total)
	}
}

func TestMemoryRepository_DeactivatedUserLeavesDefaultListing(t *testing.T) {
	svc := user.NewService(user.NewMemoryRepository())
	ctx := context.Background()
	page := pagination.Params{Page: 1, Limit: 50}

	seeded := seedUsers(t, svc, 3)

	deactivated, err := svc.DeactivateUser(ctx, seeded[0].ID)
	require.NoError(t, err)
	assert.False(t, deactivated.Active)
	assert.Equal(t, seeded[0].Email, deactivated.Email)

	users, pg, err := svc.ListUsers(ctx, user.ListQuery{Page: page})
	require.NoError(t, err)
	assert.Equal(t, int64(2), pg.Total)
	for _, u := range users {
		assert.NotEqual(t, seeded[0].ID, u.ID)
	}

	inactive := false
	users, _, err = svc.ListUsers(ctx, user.ListQuery{Active: &inactive, Page: page})
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, seeded[0].ID, users[0].ID)

	fetched, err := svc.GetUserByID(ctx, seeded[0].ID)
	require.NoError(t, err)
	assert.False(t, fetched.Active)
}

func TestMemoryRepository_UpdateMerges(t *testing.T) {
	svc := user.NewService(user.NewMemoryRepository())
	ctx := context.Background()

	age := 30
	created, err := svc.CreateUser(ctx, user.Draft{
		Name:     "Ana",
		Email:    "ana@example.com",
		Age:      &age,
		Metadata: map[string]any{"tier": "gold"},
	})
	require.NoError(t, err)

	phone := "555-0100"
	updated, err := svc.UpdateUser(ctx, created.ID, user.Patch{Phone: &phone})
	require.NoError(t, err)

	assert.Equal(t, "Ana", updated.Name)
	assert.Equal(t, "ana@example.com", updated.Email)
	assert.Equal(t, 30, *updated.Age)
	assert.Equal(t, phone, updated.Phone)
	assert.Equal(t, "gold", updated.Metadata["tier"])
	assert.True(t, updated.CreatedAt.Equal(created.CreatedAt))
}

func TestMemoryRepository_CountCreatedSince(t *testing.T) {
	repo := user.NewMemoryRepository()
	ctx := context.Background()
	now := time.Now().UTC()

	for i, created := range []time.Time{now.Add(-8 * 24 * time.Hour), now.Add(-7 * 24 * time.Hour), now.Add(-time.Hour)} {
		u := &user.User{Name: "u", Email: fmt.Sprintf("u%d@example.com", i), Active: true, CreatedAt: created}
		require.NoError(t, repo.Create(ctx, u))
	}

	n, err := repo.Count(ctx, user.Filter{CreatedSince: now.Add(-7 * 24 * time.Hour)})
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
}

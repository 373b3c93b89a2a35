package user_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vasiliy-maslov/catalog-api/internal/config"
	"github.com/vasiliy-maslov/catalog-api/internal/db"
	"github.com/vasiliy-maslov/catalog-api/internal/pagination"
	"github.com/vasiliy-maslov/catalog-api/internal/user"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func newMongoUserRepo(t *testing.T) *user.MongoRepository {
	t.Helper()

	repo := newUnindexedMongoUserRepo(t)
	require.NoError(t, repo.EnsureIndexes(context.Background()))
	return repo
}

func newUnindexedMongoUserRepo(t *testing.T) *user.MongoRepository {
	t.Helper()

	uri := os.Getenv("MONGODB_URI_TEST")
	if uri == "" {
		t.Skip("MONGODB_URI_TEST is not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	mdb, err := db.NewMongo(ctx, config.MongoConfig{URI: uri, Database: "catalog_test_" + primitive.NewObjectID().Hex()}, 5*time.Second)
	require.NoError(t, err)
	require.NoError(t, mdb.Ping(ctx))

	t.Cleanup(func() {
		_ = mdb.DB.Drop(context.Background())
		mdb.Close(context.Background())
	})

	return user.NewMongoRepository(mdb.DB)
}

func TestMongoRepository_CreateBuildsEmailIndex(t *testing.T) {
	repo := newUnindexedMongoUserRepo(t)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Millisecond)

	first := &user.User{Name: "Ana", Email: "ana@example.com", Active: true, CreatedAt: now}
	require.NoError(t, repo.Create(ctx, first))

	second := &user.User{Name: "Ana B", Email: "ana@example.com", Active: true, CreatedAt: now}
	require.ErrorIs(t, repo.Create(ctx, second), user.ErrEmailExists)
}

func TestMongoRepository_Contract(t *testing.T) {
	repo := newMongoUserRepo(t)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Millisecond)

	u := &user.User{
		Name:      "Ana",
		Email:     "ana@example.com",
		Active:    true,
		CreatedAt: now,
		Address:   &user.Address{City: "Cali", Country: "Colombia"},
		Metadata:  map[string]any{"tier": "gold", "tags": map[string]any{"vip": true}},
	}
	require.NoError(t, repo.Create(ctx, u))
	require.NotEmpty(t, u.ID)

	dup := &user.User{Name: "Ana 2", Email: "ana@example.com", Active: false, CreatedAt: now}
	require.ErrorIs(t, repo.Create(ctx, dup), user.ErrEmailExists)

	found, err := repo.GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "Cali", found.Address.City)
	assert.Equal(t, "gold", found.Metadata["tier"])
	assert.True(t, found.CreatedAt.Equal(now))

	_, err = repo.GetByID(ctx, primitive.NewObjectID().Hex())
	require.ErrorIs(t, err, user.ErrNotFound)
	_, err = repo.GetByID(ctx, "not-an-object-id")
	require.ErrorIs(t, err, user.ErrNotFound)

	inactive := false
	updated, err := repo.Update(ctx, u.ID, user.Patch{Active: &inactive})
	require.NoError(t, err)
	assert.False(t, updated.Active)
	assert.Equal(t, "Ana", updated.Name)

	active := true
	users, total, err := repo.List(ctx, user.Filter{Active: &active}, pagination.Params{Page: 1, Limit: 10})
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Empty(t, users)

	n, err := repo.Count(ctx, user.Filter{Active: &inactive, CreatedSince: now.Add(-time.Hour)})
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

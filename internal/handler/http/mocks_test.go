package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	handler "github.com/vasiliy-maslov/catalog-api/internal/handler/http"
	"github.com/vasiliy-maslov/catalog-api/internal/pagination"
	"github.com/vasiliy-maslov/catalog-api/internal/product"
	"github.com/vasiliy-maslov/catalog-api/internal/stats"
	"github.com/vasiliy-maslov/catalog-api/internal/user"
)

type MockUserService struct {
	mock.Mock
}

func (m *MockUserService) ListUsers(ctx context.Context, q user.ListQuery) ([]user.User, pagination.Pagination, error) {
	args := m.Called(ctx, q)
	if args.Get(0) == nil {
		return nil, args.Get(1).(pagination.Pagination), args.Error(2)
	}
	return args.Get(0).([]user.User), args.Get(1).(pagination.Pagination), args.Error(2)
}

func (m *MockUserService) GetUserByID(ctx context.Context, id string) (*user.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*user.User), args.Error(1)
}

func (m *MockUserService) CreateUser(ctx context.Context, d user.Draft) (*user.User, error) {
	args := m.Called(ctx, d)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*user.User), args.Error(1)
}

func (m *MockUserService) UpdateUser(ctx context.Context, id string, p user.Patch) (*user.User, error) {
	args := m.Called(ctx, id, p)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*user.User), args.Error(1)
}

func (m *MockUserService) DeactivateUser(ctx context.Context, id string) (*user.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*user.User), args.Error(1)
}

type MockProductService struct {
	mock.Mock
}

func (m *MockProductService) ListProducts(ctx context.Context, q product.ListQuery) ([]product.Product, pagination.Pagination, error) {
	args := m.Called(ctx, q)
	if args.Get(0) == nil {
		return nil, args.Get(1).(pagination.Pagination), args.Error(2)
	}
	return args.Get(0).([]product.Product), args.Get(1).(pagination.Pagination), args.Error(2)
}

func (m *MockProductService) CreateProduct(ctx context.Context, d product.Draft) (*product.Product, error) {
	args := m.Called(ctx, d)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*product.Product), args.Error(1)
}

func (m *MockProductService) UpdateProduct(ctx context.Context, id string, p product.Patch) (*product.Product, error) {
	args := m.Called(ctx, id, p)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*product.Product), args.Error(1)
}

type MockStatsService struct {
	mock.Mock
}

func (m *MockStatsService) GetStats(ctx context.Context) (*stats.Stats, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*stats.Stats), args.Error(1)
}

type testServer struct {
	users    *MockUserService
	products *MockProductService
	stats    *MockStatsService
	pingErr  error
	router   http.Handler
}

func newTestServer() *testServer {
	ts := &testServer{
		users:    new(MockUserService),
		products: new(MockProductService),
		stats:    new(MockStatsService),
	}
	ts.router = handler.NewRouter(handler.Handlers{
		Meta: handler.NewMetaHandler("catalog-api", "test", "memory", handler.PingFunc(func(context.Context) error {
			return ts.pingErr
		})),
		Users:    handler.NewUserHandler(ts.users),
		Products: handler.NewProductHandler(ts.products),
		Stats:    handler.NewStatsHandler(ts.stats),
	})
	return ts
}

type envelope struct {
	Success    bool                   `json:"success"`
	Data       json.RawMessage        `json:"data"`
	Message    string                 `json:"message"`
	Error      string                 `json:"error"`
	Pagination *pagination.Pagination `json:"pagination"`
}

func serve(t *testing.T, h http.Handler, method, target string, body any) (*httptest.ResponseRecorder, envelope) {
	t.Helper()

	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, target, reader)
	req.Header.Set("Content-Type", "application/json")

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	var env envelope
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&env), "Failed to decode response body")
	return rr, env
}

func decodeData(t *testing.T, env envelope, dst any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(env.Data, dst), "Failed to decode data block")
}

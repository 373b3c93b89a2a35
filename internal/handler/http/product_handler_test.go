package http_test

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/vasiliy-maslov/catalog-api/internal/pagination"
	"github.com/vasiliy-maslov/catalog-api/internal/product"
	"github.com/vasiliy-maslov/catalog-api/internal/validation"
)

func TestProductHandler_handleListProducts(t *testing.T) {
	ts := newTestServer()

	page := pagination.Params{Page: 1, Limit: 10}
	ts.products.On("ListProducts", mock.Anything, product.ListQuery{Category: "hogar", Page: page}).
		Return([]product.Product{{ID: "p1", Name: "Lamp", Price: 35, Category: "Hogar", Active: true}}, pagination.New(page, 1), nil).
		Once()

	rr, env := serve(t, ts.router, http.MethodGet, "/api/productos?category=hogar&limit=10", nil)
	require.Equal(t, http.StatusOK, rr.Code)

	var products []product.Product
	decodeData(t, env, &products)
	require.Len(t, products, 1)
	assert.Equal(t, "Lamp", products[0].Name)
	assert.Equal(t, int64(1), env.Pagination.TotalPages)
	ts.products.AssertExpectations(t)
}

func TestProductHandler_handleListProducts_StoreError(t *testing.T) {
	ts := newTestServer()

	ts.products.On("ListProducts", mock.Anything, mock.Anything).
		Return(nil, pagination.Pagination{}, errors.New("connection reset by peer")).
		Once()

	rr, env := serve(t, ts.router, http.MethodGet, "/api/productos", nil)
	require.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.Equal(t, "connection reset by peer", env.Error)
}

func TestProductHandler_handleCreateProduct(t *testing.T) {
	ts := newTestServer()

	ts.products.On("CreateProduct", mock.Anything, mock.MatchedBy(func(d product.Draft) bool {
		return d.Name == "Desk" && d.Price != nil && *d.Price == 120.5 && d.Stock == nil &&
			d.Specifications["material"] == "oak"
	})).Return(&product.Product{ID: "p1", Name: "Desk", Price: 120.5, Active: true}, nil).Once()

	body := `{"name":"Desk","price":120.5,"specifications":{"material":"oak"}}`
	rr, env := serve(t, ts.router, http.MethodPost, "/api/productos", body)
	require.Equal(t, http.StatusCreated, rr.Code)
	assert.True(t, env.Success)

	var created product.Product
	decodeData(t, env, &created)
	assert.Equal(t, 0, created.Stock)
	assert.JSONEq(t, `{"id":"p1","name":"Desk","price":120.5,"stock":0,"active":true,"createdAt":"0001-01-01T00:00:00Z"}`, string(env.Data))
	ts.products.AssertExpectations(t)
}

func TestProductHandler_handleCreateProduct_ValidationError(t *testing.T) {
	ts := newTestServer()

	ts.products.On("CreateProduct", mock.Anything, mock.Anything).
		Return(nil, &validation.Error{Details: []string{"Field 'price' is required"}}).
		Once()

	rr, env := serve(t, ts.router, http.MethodPost, "/api/productos", `{"name":"Desk"}`)
	require.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, env.Error, "Field 'price' is required")
}

func TestProductHandler_handleCreateProduct_WrongFieldType(t *testing.T) {
	ts := newTestServer()

	tests := []struct {
		body    string
		wantMsg string
	}{
		{body: `{"name":"Desk","price":"cheap"}`, wantMsg: "Field 'price' must be a number"},
		{body: `{"name":"Desk","price":10,"stock":2.5}`, wantMsg: "Field 'stock' must be an integer"},
		{body: `{"name":"Desk","price":10,"active":"yes"}`, wantMsg: "Field 'active' must be a boolean"},
	}
	for _, tt := range tests {
		rr, env := serve(t, ts.router, http.MethodPost, "/api/productos", tt.body)
		require.Equal(t, http.StatusBadRequest, rr.Code, tt.body)
		assert.False(t, env.Success)
		assert.Contains(t, env.Error, tt.wantMsg)
	}
	ts.products.AssertNotCalled(t, "CreateProduct", mock.Anything, mock.Anything)
}

func TestProductHandler_NoProductUpdateRoute(t *testing.T) {
	ts := newTestServer()

	rr, env := serve(t, ts.router, http.MethodPut, "/api/productos/p1", `{"stock":3}`)
	require.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, "route not found", env.Error)
	ts.products.AssertNotCalled(t, "UpdateProduct", mock.Anything, mock.Anything, mock.Anything)
}

package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
	"github.com/vasiliy-maslov/catalog-api/internal/pagination"
	"github.com/vasiliy-maslov/catalog-api/internal/product"
)

const msgProductNotFound = "Product not found"

type CreateProductRequest struct {
	Name           string         `json:"name"`
	Description    string         `json:"description,omitempty"`
	Price          *float64       `json:"price"`
	Category       string         `json:"category,omitempty"`
	Stock          *int           `json:"stock,omitempty"`
	Active         *bool          `json:"active,omitempty"`
	Specifications map[string]any `json:"specifications,omitempty"`
}

func (req CreateProductRequest) toDraft() product.Draft {
	return product.Draft{
		Name:           req.Name,
		Description:    req.Description,
		Price:          req.Price,
		Category:       req.Category,
		Stock:          req.Stock,
		Active:         req.Active,
		Specifications: req.Specifications,
	}
}

type ProductHandler struct {
	service product.Service
}

func NewProductHandler(service product.Service) *ProductHandler {
	return &ProductHandler{service: service}
}

func (h *ProductHandler) RegisterRoutes(router chi.Router) {
	router.Get("/api/productos", h.handleListProducts)
	router.Post("/api/productos", h.handleCreateProduct)
}

func (h *ProductHandler) handleListProducts(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	page, err := pagination.FromQuery(query)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to parse pagination query parameters")
		respondWithServiceError(w, err, msgProductNotFound)
		return
	}

	products, pg, err := h.service.ListProducts(r.Context(), product.ListQuery{
		Category: query.Get("category"),
		Page:     page,
	})
	if err != nil {
		log.Error().Err(err).Msg("Failed to list products via service")
		respondWithServiceError(w, err, msgProductNotFound)
		return
	}

	if products == nil {
		products = []product.Product{}
	}

	respondWithJSON(w, http.StatusOK, Response{Success: true, Data: products, Pagination: &pg})
}

func (h *ProductHandler) handleCreateProduct(w http.ResponseWriter, r *http.Request) {
	var requestPayload CreateProductRequest
	if err := decodeJSON(r, &requestPayload); err != nil {
		log.Error().Err(err).Msg("Failed to decode request body")
		respondWithDecodeError(w, err)
		return
	}

	created, err := h.service.CreateProduct(r.Context(), requestPayload.toDraft())
	if err != nil {
		log.Error().Err(err).Msg("Failed to create product via service")
		respondWithServiceError(w, err, msgProductNotFound)
		return
	}

	respondWithJSON(w, http.StatusCreated, Response{
		Success: true,
		Message: "Product created successfully",
		Data:    created,
	})
}

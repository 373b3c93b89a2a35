package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/handlers"
)

type Handlers struct {
	Meta     *MetaHandler
	Users    *UserHandler
	Products *ProductHandler
	Stats    *StatsHandler
}

// NewRouter mounts every handler on a chi router. Unmatched method and path
// combinations go to the not-found handler. CORS allows any origin.
func NewRouter(h Handlers) http.Handler {
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(RequestLogger)
	router.Use(middleware.Recoverer)

	router.NotFound(h.Meta.handleNotFound)
	router.MethodNotAllowed(h.Meta.handleNotFound)

	h.Meta.RegisterRoutes(router)
	h.Users.RegisterRoutes(router)
	h.Products.RegisterRoutes(router)
	h.Stats.RegisterRoutes(router)

	cors := handlers.CORS(
		handlers.AllowedOrigins([]string{"*"}),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions}),
		handlers.AllowedHeaders([]string{"Content-Type", "Authorization", "X-Request-Id"}),
	)

	return cors(router)
}

package http

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
)

// Route describes one endpoint in the API index.
type Route struct {
	Method      string `json:"method"`
	Path        string `json:"path"`
	Description string `json:"description"`
}

// Routes is the public route table advertised by the index and the
// not-found payload.
var Routes = []Route{
	{http.MethodGet, "/", "API metadata and route listing"},
	{http.MethodGet, "/api/test", "Liveness and store connectivity probe"},
	{http.MethodGet, "/api/usuarios", "List users"},
	{http.MethodGet, "/api/usuarios/{id}", "Get a user"},
	{http.MethodPost, "/api/usuarios", "Create a user"},
	{http.MethodPut, "/api/usuarios/{id}", "Update a user"},
	{http.MethodDelete, "/api/usuarios/{id}", "Deactivate a user"},
	{http.MethodGet, "/api/productos", "List products"},
	{http.MethodPost, "/api/productos", "Create a product"},
	{http.MethodGet, "/api/estadisticas", "Aggregate statistics"},
}

// Pinger reports whether the backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// PingFunc adapts an ordinary function to Pinger.
type PingFunc func(ctx context.Context) error

func (f PingFunc) Ping(ctx context.Context) error { return f(ctx) }

type IndexResponse struct {
	Name      string    `json:"name"`
	Version   string    `json:"version"`
	Endpoints []Route   `json:"endpoints"`
	Timestamp time.Time `json:"timestamp"`
}

type HealthResponse struct {
	Database  string    `json:"database"`
	Driver    string    `json:"driver"`
	Timestamp time.Time `json:"timestamp"`
}

type NotFoundResponse struct {
	Method string   `json:"method"`
	Path   string   `json:"path"`
	Routes []string `json:"routes"`
}

type MetaHandler struct {
	name        string
	version     string
	driver      string
	store       Pinger
	pingTimeout time.Duration
}

func NewMetaHandler(name, version, driver string, store Pinger) *MetaHandler {
	return &MetaHandler{
		name:        name,
		version:     version,
		driver:      driver,
		store:       store,
		pingTimeout: 2 * time.Second,
	}
}

func (h *MetaHandler) RegisterRoutes(router chi.Router) {
	router.Get("/", h.handleIndex)
	router.Get("/api/test", h.handleHealth)
}

func (h *MetaHandler) handleIndex(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, Response{
		Success: true,
		Message: h.name + " is running",
		Data: IndexResponse{
			Name:      h.name,
			Version:   h.version,
			Endpoints: Routes,
			Timestamp: time.Now().UTC(),
		},
	})
}

// handleHealth always answers 200 while the process is up; the store state
// is reported in the payload.
func (h *MetaHandler) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.pingTimeout)
	defer cancel()

	status, message := "connected", "API is working, store is reachable"
	if err := h.store.Ping(ctx); err != nil {
		log.Warn().Err(err).Str("driver", h.driver).Msg("Store ping failed")
		status, message = "unreachable", "API is working, store is unreachable"
	}

	respondWithJSON(w, http.StatusOK, Response{
		Success: true,
		Message: message,
		Data: HealthResponse{
			Database:  status,
			Driver:    h.driver,
			Timestamp: time.Now().UTC(),
		},
	})
}

func (h *MetaHandler) handleNotFound(w http.ResponseWriter, r *http.Request) {
	routes := make([]string, 0, len(Routes))
	for _, route := range Routes {
		routes = append(routes, route.Method+" "+route.Path)
	}

	respondWithJSON(w, http.StatusNotFound, Response{
		Success: false,
		Error:   "route not found",
		Message: "See GET / for the list of available routes",
		Data: NotFoundResponse{
			Method: r.Method,
			Path:   r.URL.Path,
			Routes: routes,
		},
	})
}

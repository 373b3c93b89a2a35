package http

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
	"github.com/vasiliy-maslov/catalog-api/internal/pagination"
	"github.com/vasiliy-maslov/catalog-api/internal/user"
	"github.com/vasiliy-maslov/catalog-api/internal/validation"
)

const msgUserNotFound = "User not found"

type CreateUserRequest struct {
	Name     string         `json:"name"`
	Email    string         `json:"email"`
	Age      *int           `json:"age,omitempty"`
	Phone    string         `json:"phone,omitempty"`
	Active   *bool          `json:"active,omitempty"`
	Address  *user.Address  `json:"address,omitempty"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

func (req CreateUserRequest) toDraft() user.Draft {
	return user.Draft{
		Name:     req.Name,
		Email:    req.Email,
		Age:      req.Age,
		Phone:    req.Phone,
		Active:   req.Active,
		Address:  req.Address,
		Metadata: req.Metadata,
	}
}

// UpdateUserRequest carries a partial update. Absent fields keep their
// stored values.
type UpdateUserRequest struct {
	Name     *string        `json:"name,omitempty"`
	Email    *string        `json:"email,omitempty"`
	Age      *int           `json:"age,omitempty"`
	Phone    *string        `json:"phone,omitempty"`
	Active   *bool          `json:"active,omitempty"`
	Address  *user.Address  `json:"address,omitempty"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

func (req UpdateUserRequest) toPatch() user.Patch {
	return user.Patch{
		Name:     req.Name,
		Email:    req.Email,
		Age:      req.Age,
		Phone:    req.Phone,
		Active:   req.Active,
		Address:  req.Address,
		Metadata: req.Metadata,
	}
}

type DeactivateUserResponse struct {
	ID     string `json:"id"`
	Active bool   `json:"active"`
}

type UserHandler struct {
	service user.Service
}

func NewUserHandler(service user.Service) *UserHandler {
	return &UserHandler{service: service}
}

func (h *UserHandler) RegisterRoutes(router chi.Router) {
	router.Get("/api/usuarios", h.handleListUsers)
	router.Post("/api/usuarios", h.handleCreateUser)
	router.Get("/api/usuarios/{id}", h.handleGetUserByID)
	router.Put("/api/usuarios/{id}", h.handleUpdateUser)
	router.Delete("/api/usuarios/{id}", h.handleDeactivateUser)
}

func (h *UserHandler) handleListUsers(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	var active *bool
	if raw := query.Get("active"); raw != "" {
		parsed, err := strconv.ParseBool(raw)
		if err != nil {
			log.Warn().Str("active", raw).Msg("Failed to parse active query parameter")
			respondWithServiceError(w, validation.Errorf("Query parameter 'active' must be a boolean"), msgUserNotFound)
			return
		}
		active = &parsed
	}

	page, err := pagination.FromQuery(query)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to parse pagination query parameters")
		respondWithServiceError(w, err, msgUserNotFound)
		return
	}

	users, pg, err := h.service.ListUsers(r.Context(), user.ListQuery{Active: active, Page: page})
	if err != nil {
		log.Error().Err(err).Msg("Failed to list users via service")
		respondWithServiceError(w, err, msgUserNotFound)
		return
	}

	if users == nil {
		users = []user.User{}
	}

	respondWithJSON(w, http.StatusOK, Response{Success: true, Data: users, Pagination: &pg})
}

func (h *UserHandler) handleGetUserByID(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	found, err := h.service.GetUserByID(r.Context(), id)
	if err != nil {
		log.Error().Err(err).Str("user_id", id).Msg("Failed to get user by id via service")
		respondWithServiceError(w, err, msgUserNotFound)
		return
	}

	respondWithJSON(w, http.StatusOK, Response{Success: true, Data: found})
}

func (h *UserHandler) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	var requestPayload CreateUserRequest
	if err := decodeJSON(r, &requestPayload); err != nil {
		log.Error().Err(err).Msg("Failed to decode request body")
		respondWithDecodeError(w, err)
		return
	}

	created, err := h.service.CreateUser(r.Context(), requestPayload.toDraft())
	if err != nil {
		log.Error().Err(err).Msg("Failed to create user via service")
		respondWithServiceError(w, err, msgUserNotFound)
		return
	}

	respondWithJSON(w, http.StatusCreated, Response{
		Success: true,
		Message: "User created successfully",
		Data:    created,
	})
}

func (h *UserHandler) handleUpdateUser(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var requestPayload UpdateUserRequest
	if err := decodeJSON(r, &requestPayload); err != nil {
		log.Error().Err(err).Str("user_id", id).Msg("Failed to decode user")
		respondWithDecodeError(w, err)
		return
	}

	updated, err := h.service.UpdateUser(r.Context(), id, requestPayload.toPatch())
	if err != nil {
		log.Error().Err(err).Str("user_id", id).Msg("Failed to update user via service")
		respondWithServiceError(w, err, msgUserNotFound)
		return
	}

	respondWithJSON(w, http.StatusOK, Response{
		Success: true,
		Message: "User updated successfully",
		Data:    updated,
	})
}

func (h *UserHandler) handleDeactivateUser(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	deactivated, err := h.service.DeactivateUser(r.Context(), id)
	if err != nil {
		log.Error().Err(err).Str("user_id", id).Msg("Failed to deactivate user via service")
		respondWithServiceError(w, err, msgUserNotFound)
		return
	}

	respondWithJSON(w, http.StatusOK, Response{
		Success: true,
		Message: "User deactivated successfully",
		Data:    DeactivateUserResponse{ID: deactivated.ID, Active: deactivated.Active},
	})
}

package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"reflect"

	"github.com/rs/zerolog/log"
	"github.com/vasiliy-maslov/catalog-api/internal/pagination"
	"github.com/vasiliy-maslov/catalog-api/internal/product"
	"github.com/vasiliy-maslov/catalog-api/internal/user"
	"github.com/vasiliy-maslov/catalog-api/internal/validation"
)

// Response is the envelope wrapped around every payload.
type Response struct {
	Success    bool                   `json:"success"`
	Data       any                    `json:"data,omitempty"`
	Message    string                 `json:"message,omitempty"`
	Error      string                 `json:"error,omitempty"`
	Pagination *pagination.Pagination `json:"pagination,omitempty"`
}

const (
	msgInvalidPayload = "Invalid request payload"
	msgEmailExists    = "email already exists"
)

func respondWithError(w http.ResponseWriter, code int, message string) {
	respondWithJSON(w, code, Response{Success: false, Error: message})
}

func respondWithJSON(w http.ResponseWriter, code int, payload any) {
	response, err := json.Marshal(payload)
	if err != nil {
		log.Error().Err(err).Msg("Failed to marshal JSON response")
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"success":false,"error":"Failed to marshal JSON response"}`))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if _, err := w.Write(response); err != nil {
		log.Error().Err(err).Msg("Failed to write JSON response")
	}
}

// respondWithServiceError translates a service failure into the error
// envelope. notFound is the message used for a missing resource.
func respondWithServiceError(w http.ResponseWriter, err error, notFound string) {
	code := mapErrorToStatusCode(err)

	var message string
	switch code {
	case http.StatusNotFound:
		message = notFound
	case http.StatusBadRequest:
		if errors.Is(err, user.ErrEmailExists) {
			message = msgEmailExists
		} else {
			message = err.Error()
		}
	default:
		message = err.Error()
	}

	respondWithError(w, code, message)
}

func mapErrorToStatusCode(err error) int {
	switch {
	case validation.IsValidationError(err):
		return http.StatusBadRequest
	case errors.Is(err, user.ErrEmailExists):
		return http.StatusBadRequest
	case errors.Is(err, user.ErrNotFound), errors.Is(err, product.ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// decodeJSON reads the request body into dst. Unknown fields are ignored. A
// value of the wrong type for a known field is reported as a validation error
// naming the field.
func decodeJSON(r *http.Request, dst any) error {
	err := json.NewDecoder(r.Body).Decode(dst)

	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) && typeErr.Field != "" {
		return validation.Errorf("Field '%s' must be %s", typeErr.Field, describeKind(typeErr.Type))
	}
	return err
}

// respondWithDecodeError answers a body that could not be decoded.
func respondWithDecodeError(w http.ResponseWriter, err error) {
	if validation.IsValidationError(err) {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	respondWithError(w, http.StatusBadRequest, msgInvalidPayload)
}

func describeKind(t reflect.Type) string {
	if t == nil {
		return "a valid value"
	}
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	switch t.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return "an integer"
	case reflect.Float32, reflect.Float64:
		return "a number"
	case reflect.String:
		return "a string"
	case reflect.Bool:
		return "a boolean"
	case reflect.Map, reflect.Struct:
		return "an object"
	case reflect.Slice, reflect.Array:
		return "an array"
	default:
		return "a valid " + t.String()
	}
}

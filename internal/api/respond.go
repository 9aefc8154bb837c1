package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"shareit/internal/domain"
	"shareit/internal/models"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"
)

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, r *http.Request, statusCode int, payload any) {
	render.Status(r, statusCode)
	render.JSON(w, r, payload)
}

func writeStatusError(w http.ResponseWriter, r *http.Request, statusCode int, message string) {
	writeJSON(w, r, statusCode, errorResponse{Error: message})
}

// writeError maps a domain error kind to its HTTP status.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	writeStatusError(w, r, statusCode(err), domain.Message(err))
}

func statusCode(err error) int {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrInvalidArgument):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrConflict):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

var validate = validator.New()

// decodeBody reads a JSON body into dst and validates its tags.
func decodeBody(r *http.Request, dst any) error {
	if err := render.DecodeJSON(r.Body, dst); err != nil {
		return domain.InvalidArgumentf("invalid JSON body: %v", err)
	}

	if err := validate.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			return domain.InvalidArgumentf("%s", validationMessage(verrs))
		}
		return domain.InvalidArgumentf("invalid request: %v", err)
	}
	return nil
}

func validationMessage(verrs validator.ValidationErrors) string {
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		switch fe.Tag() {
		case "required":
			msgs = append(msgs, fmt.Sprintf("field %s is required", fe.Field()))
		case "email":
			msgs = append(msgs, fmt.Sprintf("field %s is not a valid email", fe.Field()))
		default:
			msgs = append(msgs, fmt.Sprintf("field %s is not valid", fe.Field()))
		}
	}
	return strings.Join(msgs, ", ")
}

// actorID reads the acting user from the X-Sharer-User-Id header.
func actorID(r *http.Request) (int64, error) {
	raw := strings.TrimSpace(r.Header.Get(models.HeaderUserID))
	if raw == "" {
		return 0, domain.InvalidArgumentf("missing required header %s", models.HeaderUserID)
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, domain.InvalidArgumentf("header %s must be a numeric user id, got %q", models.HeaderUserID, raw)
	}
	return id, nil
}

func pathID(r *http.Request, name string) (int64, error) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, domain.InvalidArgumentf("invalid %s id %q", name, raw)
	}
	return id, nil
}

// queryInt returns nil when the parameter is absent.
func queryInt(r *http.Request, name string) (*int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return nil, domain.InvalidArgumentf("%s must be an integer, got %q", name, raw)
	}
	return &v, nil
}

func queryPage(r *http.Request) (from, size *int, err error) {
	if from, err = queryInt(r, "from"); err != nil {
		return nil, nil, err
	}
	if size, err = queryInt(r, "size"); err != nil {
		return nil, nil, err
	}
	return from, size, nil
}

package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rampforge/rampforge/internal/common"
)

type errorResponse struct {
	Error string `json:"error"`
}

type messageResponse struct {
	Message string `json:"message"`
}

type createdResponse struct {
	ID      string `json:"id"`
	Message string `json:"message"`
}

func (s *Server) writeJSON(ctx context.Context, w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if v == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error(ctx, "write response failed", "error", err)
	}
}

// writeError maps the shared sentinel errors onto HTTP status codes. Unknown
// errors become opaque 500s so internals never leak to the client.
func (s *Server) writeError(ctx context.Context, w http.ResponseWriter, err error) {
	var code int
	switch {
	case errors.Is(err, common.ErrorValidation):
		code = http.StatusBadRequest
	case errors.Is(err, common.ErrorUnauthorized),
		errors.Is(err, common.ErrInvalidToken),
		errors.Is(err, common.ErrTokenExpired):
		code = http.StatusUnauthorized
	case errors.Is(err, common.ErrorForbidden):
		code = http.StatusForbidden
	case errors.Is(err, common.ErrorNotFound):
		code = http.StatusNotFound
	case errors.Is(err, common.ErrorAlreadyExists):
		code = http.StatusConflict
	default:
		s.logger.Error(ctx, "request failed", "error", err)
		s.writeJSON(ctx, w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
		return
	}
	s.writeJSON(ctx, w, code, errorResponse{Error: err.Error()})
}

func decodeJSON(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return common.ErrorValidation
	}
	return nil
}

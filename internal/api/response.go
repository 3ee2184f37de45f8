package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/aleister1102/keywatch/internal/common"
)

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// statusFor maps service errors to HTTP status codes.
func statusFor(err error) int {
	var validationErr *common.ValidationError
	switch {
	case errors.As(err, &validationErr),
		errors.Is(err, common.ErrInvalidInput),
		errors.Is(err, common.ErrInvalidConfiguration):
		return http.StatusBadRequest
	case errors.Is(err, common.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, common.ErrTickInFlight):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return common.WrapError(common.ErrInvalidInput, err.Error())
	}
	return nil
}

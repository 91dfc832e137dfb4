// Package response writes JSON bodies and maps domain errors to HTTP statuses.
package response

import (
	"encoding/json"
	"io"
	"net/http"

	"finsight/pkg/errors"
	"finsight/pkg/logger"
)

// maxBodyBytes bounds request bodies read by DecodeJSON.
const maxBodyBytes = 1 << 20

// ErrorBody is the JSON shape of every error response.
type ErrorBody struct {
	Error string `json:"error"`
}

// JSON writes v with the given status.
func JSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Get().Warnw("Failed to encode response", "error", err)
	}
}

// Error writes err with the status matching its kind. Internal errors are logged and hidden.
func Error(w http.ResponseWriter, log *logger.Logger, err error) {
	status := StatusFor(err)
	message := err.Error()
	if status == http.StatusInternalServerError {
		log.Errorw("Request failed", "error", err)
		message = "internal server error"
	}
	JSON(w, status, ErrorBody{Error: message})
}

// StatusFor maps the error taxonomy to HTTP statuses.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, errors.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, errors.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, errors.ErrUnavailable), errors.Is(err, errors.ErrTimeout):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// DecodeJSON reads a JSON body into v. Malformed bodies are errors.ErrInvalidInput.
func DecodeJSON(r *http.Request, v interface{}) error {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		return errors.Wrap(errors.ErrInvalidInput, "read body")
	}
	if err := json.Unmarshal(body, v); err != nil {
		return errors.Wrapf(errors.ErrInvalidInput, "malformed JSON: %v", err)
	}
	return nil
}

package api

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"

	"github.com/promoraffle/promoraffle/internal/model"
)

// errorResponse is the body of every failed request.
type errorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
}

// jsonResponse writes a JSON response with the given status code.
func jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			slog.Error("encoding response", "error", err)
		}
	}
}

// jsonError writes a JSON error response. Missing records and server faults
// carry their kind; authentication failures carry none.
func jsonError(w http.ResponseWriter, status int, message string) {
	body := errorResponse{Error: message}
	switch status {
	case http.StatusNotFound:
		body.Kind = model.KindNotFound
	case http.StatusInternalServerError:
		body.Kind = model.KindInternal
	}
	jsonResponse(w, status, body)
}

// kindStatus maps error kinds to HTTP status codes.
var kindStatus = map[string]int{
	model.KindValidation:      http.StatusBadRequest,
	model.KindModelMismatch:   http.StatusBadRequest,
	model.KindNotFound:        http.StatusNotFound,
	model.KindNoTickets:       http.StatusNotFound,
	model.KindSerialUsed:      http.StatusConflict,
	model.KindDuplicateSerial: http.StatusConflict,
	model.KindExists:          http.StatusConflict,
	model.KindConflict:        http.StatusServiceUnavailable,
}

// conflictMessage is shown instead of the driver's lock error.
const conflictMessage = "the server is busy, please retry"

// domainError writes err with its kind. Internal errors and lock conflicts are
// logged and replaced by a fixed message.
func domainError(w http.ResponseWriter, action string, err error) {
	status, body := errorBody(action, err)
	writeError(w, status, body)
}

// errorBody maps err to a status and response body.
func errorBody(action string, err error) (int, errorResponse) {
	kind := model.Kind(err)
	status, ok := kindStatus[kind]
	switch {
	case !ok:
		slog.Error(action+" failed", "error", err)
		return http.StatusInternalServerError, errorResponse{Error: "internal error", Kind: model.KindInternal}
	case kind == model.KindConflict:
		slog.Warn(action+" conflicted", "error", err)
		return status, errorResponse{Error: conflictMessage, Kind: kind}
	}
	return status, errorResponse{Error: err.Error(), Kind: kind}
}

// writeError writes an error body, adding Retry-After for conflicts.
func writeError(w http.ResponseWriter, status int, body any) {
	if status == http.StatusServiceUnavailable {
		w.Header().Set("Retry-After", "1")
	}
	jsonResponse(w, status, body)
}

// badRequest writes a 400 carrying the validation kind.
func badRequest(w http.ResponseWriter, message string) {
	jsonResponse(w, http.StatusBadRequest, errorResponse{Error: message, Kind: model.KindValidation})
}

// maxJSONBody bounds JSON bodies; inventory imports are the largest.
const maxJSONBody = 32 << 20

// decodeJSON decodes a JSON request body into the given target.
func decodeJSON(r *http.Request, target any) error {
	defer r.Body.Close()
	return json.NewDecoder(io.LimitReader(r.Body, maxJSONBody)).Decode(target)
}

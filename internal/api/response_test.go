package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/promoraffle/promoraffle/internal/model"
)

func TestDomainError(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		status  int
		kind    string
		message string
	}{
		{
			name:    "conflict hides driver detail",
			err:     fmt.Errorf("%w: beginning transaction: database is locked (5) (SQLITE_BUSY)", model.ErrConflict),
			status:  http.StatusServiceUnavailable,
			kind:    model.KindConflict,
			message: conflictMessage,
		},
		{
			name:    "internal is opaque",
			err:     errors.New("disk I/O error"),
			status:  http.StatusInternalServerError,
			kind:    model.KindInternal,
			message: "internal error",
		},
		{
			name:    "serial used",
			err:     fmt.Errorf("serial A1: %w", model.ErrSerialUsed),
			status:  http.StatusConflict,
			kind:    model.KindSerialUsed,
			message: "serial A1: serial already used",
		},
		{
			name:    "mismatch",
			err:     fmt.Errorf("serial A1: %w", model.ErrModelMismatch),
			status:  http.StatusBadRequest,
			kind:    model.KindModelMismatch,
			message: "serial A1: product model does not match serial",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			domainError(rec, "test", tt.err)

			if rec.Code != tt.status {
				t.Errorf("expected status %d, got %d", tt.status, rec.Code)
			}
			var body errorResponse
			json.NewDecoder(rec.Body).Decode(&body)
			if body.Kind != tt.kind || body.Error != tt.message {
				t.Errorf("unexpected body: %+v", body)
			}
			if strings.Contains(body.Error, "SQLITE") {
				t.Errorf("driver error leaked: %q", body.Error)
			}
		})
	}
}

func TestDomainErrorConflictRetryAfter(t *testing.T) {
	rec := httptest.NewRecorder()
	domainError(rec, "register", model.ErrConflict)

	if rec.Header().Get("Retry-After") != "1" {
		t.Errorf("expected Retry-After on conflict, got %q", rec.Header().Get("Retry-After"))
	}
}

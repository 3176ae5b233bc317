package http

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/MKhiriev/go-facility-sync/internal/service"
	"github.com/MKhiriev/go-facility-sync/internal/store"
	"github.com/stretchr/testify/assert"
)

func TestStatusFromError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"validation", fmt.Errorf("%w: deviceId", service.ErrValidation), http.StatusBadRequest},
		{"invalid collection", service.ErrInvalidCollection, http.StatusBadRequest},
		{"not found", service.ErrNotFound, http.StatusNotFound},
		{"access denied", service.ErrAccessDenied, http.StatusForbidden},
		{"unauthenticated", service.ErrUnauthenticated, http.StatusUnauthorized},
		{"rate limited", &service.RateLimitError{RetryAfter: time.Second}, http.StatusTooManyRequests},
		{"collection sync", fmt.Errorf("%w: %w", service.ErrCollectionSync, store.ErrStoreUnavailable), http.StatusInternalServerError},
		{"unknown", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, statusFromError(tt.err))
		})
	}
}

func TestWriteServiceError_RateLimitSetsRetryAfter(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/sync", nil)

	writeServiceError(rec, req, "test", &service.RateLimitError{RetryAfter: 2500 * time.Millisecond})

	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "3", rec.Header().Get("Retry-After"))

	body := decodeErrorBody(t, rec)
	assert.False(t, body.Success)
	assert.Equal(t, string(service.CodeRateLimited), body.Code)
	assert.Equal(t, 3, body.RetryAfter)
}

func TestWriteServiceError_SystemErrorIsGeneric(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/sync", nil)

	writeServiceError(rec, req, "test", errors.New("dial tcp 10.0.0.5:5432: connection refused"))

	body := decodeErrorBody(t, rec)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, string(service.CodeSystem), body.Code)
	assert.NotContains(t, body.Error, "10.0.0.5")
}

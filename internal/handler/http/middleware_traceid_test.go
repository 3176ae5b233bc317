package http

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/MKhiriev/go-facility-sync/internal/logger"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runTraceID(t *testing.T, header string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()

	var buf bytes.Buffer
	h := &Handler{logger: &logger.Logger{Logger: zerolog.New(&buf)}}

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logger.FromRequest(r).Info().Msg("inside")
	})

	req := httptest.NewRequest(http.MethodGet, "/api/version", nil)
	if header != "" {
		req.Header.Set(traceIDHeader, header)
	}
	rec := httptest.NewRecorder()
	h.withTraceID(next).ServeHTTP(rec, req)

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	return rec, line
}

func TestWithTraceID_ReusesDeviceTraceID(t *testing.T) {
	rec, line := runTraceID(t, "device-retry-7")

	assert.Equal(t, "device-retry-7", rec.Header().Get(traceIDHeader))
	assert.Equal(t, "device-retry-7", line["trace_id"])
}

func TestWithTraceID_GeneratesUUID(t *testing.T) {
	rec, line := runTraceID(t, "")

	traceID := rec.Header().Get(traceIDHeader)
	_, err := uuid.Parse(traceID)
	require.NoError(t, err)
	assert.Equal(t, traceID, line["trace_id"])
}

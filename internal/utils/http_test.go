package utils

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteJSON_Success(t *testing.T) {
	rr := httptest.NewRecorder()

	n, err := WriteJSON(rr, map[string]string{"status": "ok"}, http.StatusCreated)

	require.NoError(t, err)
	assert.Equal(t, len(rr.Body.Bytes()), n)
	assert.Equal(t, http.StatusCreated, rr.Code)
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"status":"ok"}`, rr.Body.String())
}

func TestWriteJSON_InvalidData(t *testing.T) {
	rr := httptest.NewRecorder()

	_, err := WriteJSON(rr, make(chan int), http.StatusOK)

	require.Error(t, err)
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
}

func TestWriteError(t *testing.T) {
	rr := httptest.NewRecorder()

	WriteError(rr, "deviceId is required", "VALIDATION_ERROR", http.StatusBadRequest)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	var body ErrorBody
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.False(t, body.Success)
	assert.Equal(t, "deviceId is required", body.Error)
	assert.Equal(t, "VALIDATION_ERROR", body.Code)
}

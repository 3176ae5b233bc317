// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package http

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResponseWriter_RecordsFirstStatusOnly(t *testing.T) {
	rec := httptest.NewRecorder()
	w := &responseWriter{ResponseWriter: rec}

	w.WriteHeader(http.StatusTooManyRequests)
	w.WriteHeader(http.StatusOK)

	assert.Equal(t, http.StatusTooManyRequests, w.status)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
}

func TestResponseWriter_WriteImpliesOK(t *testing.T) {
	rec := httptest.NewRecorder()
	w := &responseWriter{ResponseWriter: rec}

	n1, _ := w.Write([]byte("hello "))
	n2, _ := w.Write([]byte("world"))

	assert.Equal(t, http.StatusOK, w.status)
	assert.Equal(t, n1+n2, w.size)
	assert.Equal(t, "hello world", rec.Body.String())
}

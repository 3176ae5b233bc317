package service

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"

	"github.com/MKhiriev/go-facility-sync/models"
	"github.com/klauspost/compress/gzip"
)

// compressResults encodes results as base64(gzip(json)).
func compressResults(results map[string]models.CollectionResult) (string, error) {
	raw, err := json.Marshal(results)
	if err != nil {
		return "", fmt.Errorf("failed to marshal results: %w", err)
	}

	var buf bytes.Buffer
	zw, err := gzip.NewWriterLevel(&buf, gzip.BestSpeed)
	if err != nil {
		return "", fmt.Errorf("failed to create gzip writer: %w", err)
	}
	if _, err = zw.Write(raw); err != nil {
		return "", fmt.Errorf("failed to compress results: %w", err)
	}
	if err = zw.Close(); err != nil {
		return "", fmt.Errorf("failed to flush compressed results: %w", err)
	}

	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

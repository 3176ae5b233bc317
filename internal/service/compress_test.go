package service

import (
	"encoding/json"
	"testing"

	"github.com/MKhiriev/go-facility-sync/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompressResults_DecodesToSameJSON(t *testing.T) {
	results := map[string]models.CollectionResult{
		"patients": {Success: true, Updated: []models.ChangeRecord{{DocumentID: "a", Operation: models.OperationUpdate, UpdatedAt: t1}}},
		"invoices": {Success: false, Error: "invalid collection", Code: string(CodeInvalidColl)},
	}

	payload, err := compressResults(results)
	require.NoError(t, err)

	want, err := json.Marshal(results)
	require.NoError(t, err)

	got := decompress(t, payload)
	var wantMap map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(want, &wantMap))

	assert.Equal(t, len(wantMap), len(got))
	for k := range wantMap {
		assert.JSONEq(t, string(wantMap[k]), string(got[k]))
	}
}

func TestCompressResults_Empty(t *testing.T) {
	payload, err := compressResults(map[string]models.CollectionResult{})

	require.NoError(t, err)
	assert.Empty(t, decompress(t, payload))
}

// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writePolicy(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "policy.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadSyncPolicy_EmptyPathReturnsDefaults(t *testing.T) {
	policy, err := LoadSyncPolicy("")
	require.NoError(t, err)
	assert.Equal(t, DefaultSyncPolicy(), policy)
}

func TestLoadSyncPolicy_OverridesDefaults(t *testing.T) {
	path := writePolicy(t, `
default_strategy = "client_wins"
audit_timeout = "500ms"

[strategies]
vaccines = "merge_with_server_priority"

[collections.vaccines]
deleted_limit = 42

[rate_limit]
requests = 5
window = "10s"

[tables]
conflicts = "conflict_audit"
`)

	policy, err := LoadSyncPolicy(path)
	require.NoError(t, err)

	assert.Equal(t, "client_wins", policy.DefaultStrategy)
	assert.Equal(t, 500*time.Millisecond, policy.AuditTimeout)
	assert.Equal(t, "merge_with_server_priority", policy.Strategies["vaccines"])
	// entries not named in the file keep their defaults
	assert.Equal(t, "field_level_merge", policy.Strategies["patients"])
	assert.Equal(t, 42, policy.Collections["vaccines"].DeletedLimit)
	assert.Equal(t, RateLimit{Requests: 5, Window: 10 * time.Second}, policy.RateLimit)
	assert.Equal(t, "conflict_audit", policy.Tables.Conflicts)
	assert.Equal(t, "sync_sessions", policy.Tables.Sessions)
}

func TestLoadSyncPolicy_Invalid(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "malformed toml", body: `default_strategy = `},
		{name: "unknown default collection", body: `default_collections = ["ghosts"]`},
		{name: "empty default strategy", body: `default_strategy = ""`},
		{name: "zero rate limit", body: "[rate_limit]\nrequests = 0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadSyncPolicy(writePolicy(t, tt.body))
			require.Error(t, err)
		})
	}
}

func TestLoadSyncPolicy_EmptyDefaultCollections(t *testing.T) {
	_, err := LoadSyncPolicy(writePolicy(t, `default_collections = []`))

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidSyncPolicy)
}

func TestSyncPolicy_LimitsFor(t *testing.T) {
	policy := DefaultSyncPolicy()
	policy.Collections["appointments"] = CollectionLimits{MaxPages: 3}

	assert.Equal(t, CollectionLimits{DeletedLimit: 500, MaxPages: 10}, policy.LimitsFor("patients"))
	assert.Equal(t, policy.DefaultLimits, policy.LimitsFor("vaccines"))
	assert.Equal(t, CollectionLimits{DeletedLimit: 100, MaxPages: 3}, policy.LimitsFor("appointments"))
}

func TestSyncPolicy_IsKnownCollection(t *testing.T) {
	policy := DefaultSyncPolicy()
	assert.True(t, policy.IsKnownCollection("patients"))
	assert.False(t, policy.IsKnownCollection("users"))
}

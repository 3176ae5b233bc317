// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package service

import (
	"errors"
	"testing"

	"github.com/MKhiriev/go-facility-sync/internal/config"
	"github.com/MKhiriev/go-facility-sync/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strategyInputs() (server, client models.Fields) {
	server = models.Fields{
		"$id":         "1",
		"$createdAt":  "c",
		"$updatedAt":  "u",
		"facility_id": "F1",
		"name":        "server",
		"dose":        1,
		"only_server": "s",
	}
	client = models.Fields{
		"$id":         "X",
		"$updatedAt":  "cu",
		"facility_id": "F2",
		"name":        "client",
		"dose":        1,
		"only_client": "c",
	}
	return server, client
}

// ─────────────────────────────────────────────
// Strategies
// ─────────────────────────────────────────────

func TestStrategyServerWins_ReturnsServerData(t *testing.T) {
	server, client := strategyInputs()

	got := StrategyServerWins.Resolve(server, client, ResolveContext{Collection: "vaccines"})

	assert.Equal(t, server, got)
}

func TestStrategyClientWins_KeepsServerIdentity(t *testing.T) {
	server, client := strategyInputs()

	got := StrategyClientWins.Resolve(server, client, ResolveContext{})

	assert.Equal(t, models.Fields{
		"$id":         "1",
		"$createdAt":  "c",
		"$updatedAt":  "u",
		"facility_id": "F2",
		"name":        "client",
		"dose":        1,
		"only_client": "c",
	}, got)
}

func TestStrategyMergeWithServerPriority(t *testing.T) {
	server, client := strategyInputs()

	got := StrategyMergeWithServerPriority.Resolve(server, client, ResolveContext{})

	assert.Equal(t, models.Fields{
		"$id":         "1",
		"$createdAt":  "c",
		"$updatedAt":  "u",
		"facility_id": "F1",
		"name":        "server",
		"dose":        1,
		"only_client": "c",
	}, got)
}

func TestStrategyMergeWithServerPriority_CriticalFieldAbsentOnClient(t *testing.T) {
	server := models.Fields{"$id": "1", "facility_id": "F1"}
	client := models.Fields{"notes": "n"}

	got := StrategyMergeWithServerPriority.Resolve(server, client, ResolveContext{})

	assert.Equal(t, models.Fields{"$id": "1", "facility_id": "F1", "notes": "n"}, got)
}

func TestStrategyMergeWithClientPriority(t *testing.T) {
	server, client := strategyInputs()

	got := StrategyMergeWithClientPriority.Resolve(server, client, ResolveContext{})

	assert.Equal(t, models.Fields{
		"$id":         "1",
		"$createdAt":  "c",
		"$updatedAt":  "u",
		"facility_id": "F2",
		"name":        "client",
		"dose":        1,
		"only_server": "s",
		"only_client": "c",
	}, got)
}

func TestStrategyFieldLevelMerge_PatientOwnership(t *testing.T) {
	server := models.Fields{
		"$id":                   "p1",
		"facility_id":           "F1",
		"contact_phone":         "555-0",
		"medical_record_number": "MRN-1",
		"full_name":             "Server Name",
	}
	client := models.Fields{
		"contact_phone":         "555-1",
		"facility_id":           "F2",
		"medical_record_number": "MRN-X",
		"full_name":             "Client Name",
	}

	got := StrategyFieldLevelMerge.Resolve(server, client, ResolveContext{Collection: "patients"})

	assert.Equal(t, "555-1", got["contact_phone"])
	assert.Equal(t, "F1", got["facility_id"])
	assert.Equal(t, "MRN-1", got["medical_record_number"])
	assert.Equal(t, "Server Name", got["full_name"], "unlisted fields keep the server value")
	assert.Equal(t, "p1", got["$id"])
}

func TestStrategyFieldLevelMerge_VaccinationRecordOwnership(t *testing.T) {
	server := models.Fields{"facility_id": "F1", "dose_number": 1, "notes": ""}
	client := models.Fields{"facility_id": "F1", "dose_number": 2, "notes": "fever"}

	got := StrategyFieldLevelMerge.Resolve(server, client, ResolveContext{Collection: "vaccination_records"})

	assert.Equal(t, models.Fields{"facility_id": "F1", "dose_number": 1, "notes": "fever"}, got)
}

func TestStrategyFieldLevelMerge_UnknownCollectionFallsBackToServerWins(t *testing.T) {
	server, client := strategyInputs()

	got := StrategyFieldLevelMerge.Resolve(server, client, ResolveContext{Collection: "vaccines"})

	assert.Equal(t, server, got)
}

func TestStrategies_DoNotModifyInputs(t *testing.T) {
	all := []Strategy{
		StrategyServerWins,
		StrategyClientWins,
		StrategyMergeWithServerPriority,
		StrategyMergeWithClientPriority,
		StrategyFieldLevelMerge,
	}

	for _, s := range all {
		t.Run(s.Name(), func(t *testing.T) {
			server, client := strategyInputs()
			wantServer, wantClient := strategyInputs()

			got := s.Resolve(server, client, ResolveContext{Collection: "patients"})
			got["mutated"] = true

			assert.Equal(t, wantServer, server)
			assert.Equal(t, wantClient, client)
		})
	}
}

func TestStrategies_AreDeterministic(t *testing.T) {
	for _, name := range []string{"server_wins", "client_wins", "merge_with_server_priority", "merge_with_client_priority", "field_level_merge"} {
		t.Run(name, func(t *testing.T) {
			s, err := ParseStrategy(name)
			require.NoError(t, err)

			server, client := strategyInputs()
			first := s.Resolve(server, client, ResolveContext{Collection: "patients"})
			second := s.Resolve(server, client, ResolveContext{Collection: "patients"})

			assert.Equal(t, first, second)
		})
	}
}

// ─────────────────────────────────────────────
// ParseStrategy / StrategyTable
// ─────────────────────────────────────────────

func TestParseStrategy_Unknown(t *testing.T) {
	_, err := ParseStrategy("last_write_wins")

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnknownStrategy))
}

func TestNewStrategyTable_DefaultPolicy(t *testing.T) {
	table, err := NewStrategyTable(testPolicy())
	require.NoError(t, err)

	assert.Equal(t, "field_level_merge", table.For("patients").Name())
	assert.Equal(t, "merge_with_server_priority", table.For("vaccination_records").Name())
	assert.Equal(t, "server_wins", table.For("not_configured").Name())
	assert.Equal(t, "merge_with_client_priority", table.Names()["appointments"])
}

func TestNewStrategyTable_UnknownCollectionStrategy(t *testing.T) {
	policy := testPolicy()
	policy.Strategies = map[string]string{"patients": "newest_wins"}

	table, err := NewStrategyTable(policy)

	assert.Nil(t, table)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnknownStrategy))
}

func TestNewStrategyTable_UnknownDefault(t *testing.T) {
	table, err := NewStrategyTable(config.SyncPolicy{DefaultStrategy: ""})

	assert.Nil(t, table)
	assert.True(t, errors.Is(err, ErrUnknownStrategy))
}

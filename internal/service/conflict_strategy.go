// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package service

import (
	"fmt"
	"reflect"

	"github.com/MKhiriev/go-facility-sync/internal/config"
	"github.com/MKhiriev/go-facility-sync/models"
)

// ResolveContext is what a strategy may know about the write besides the two
// versions of the document.
type ResolveContext struct {
	Collection string
	DeviceID   string
	UserID     string
}

// Strategy is one of the five conflict resolution strategies. The set is
// closed: the only values are the exported Strategy* variables, and the zero
// Strategy is never handed out by [ParseStrategy] or a [StrategyTable].
//
// Every strategy is a pure function of its inputs.
type Strategy struct {
	name    string
	resolve func(server, client models.Fields, rc ResolveContext) models.Fields
}

var (
	StrategyServerWins              = Strategy{name: "server_wins", resolve: resolveServerWins}
	StrategyClientWins              = Strategy{name: "client_wins", resolve: resolveClientWins}
	StrategyMergeWithServerPriority = Strategy{name: "merge_with_server_priority", resolve: resolveMergeServerPriority}
	StrategyMergeWithClientPriority = Strategy{name: "merge_with_client_priority", resolve: resolveMergeClientPriority}
	StrategyFieldLevelMerge         = Strategy{name: "field_level_merge", resolve: resolveFieldLevelMerge}
)

var strategies = map[string]Strategy{
	StrategyServerWins.name:              StrategyServerWins,
	StrategyClientWins.name:              StrategyClientWins,
	StrategyMergeWithServerPriority.name: StrategyMergeWithServerPriority,
	StrategyMergeWithClientPriority.name: StrategyMergeWithClientPriority,
	StrategyFieldLevelMerge.name:         StrategyFieldLevelMerge,
}

// ParseStrategy returns the strategy called name.
func ParseStrategy(name string) (Strategy, error) {
	s, ok := strategies[name]
	if !ok {
		return Strategy{}, fmt.Errorf("%w: %q", ErrUnknownStrategy, name)
	}
	return s, nil
}

func (s Strategy) Name() string {
	return s.name
}

// Resolve merges the server and client field views into the document to
// store. Neither input is modified.
func (s Strategy) Resolve(server, client models.Fields, rc ResolveContext) models.Fields {
	return s.resolve(server, client, rc)
}

// identityFields are reinstated from the server by every strategy that
// starts from the client copy.
var identityFields = []string{models.FieldID, models.FieldCreatedAt, models.FieldUpdatedAt}

// criticalFields are always taken from the server when merging with server
// priority.
var criticalFields = []string{models.FieldID, models.FieldCreatedAt, models.FieldUpdatedAt, models.FieldFacilityID}

func resolveServerWins(server, _ models.Fields, _ ResolveContext) models.Fields {
	return server.Clone()
}

func resolveClientWins(server, client models.Fields, _ ResolveContext) models.Fields {
	out := client.Clone()
	takeFromServer(out, server, identityFields)
	return out
}

func resolveMergeServerPriority(server, client models.Fields, _ ResolveContext) models.Fields {
	out := client.Clone()
	for k, sv := range server {
		if cv, ok := client[k]; ok && !reflect.DeepEqual(sv, cv) {
			out[k] = sv
		}
	}
	takeFromServer(out, server, criticalFields)
	return out
}

func resolveMergeClientPriority(server, client models.Fields, _ ResolveContext) models.Fields {
	out := server.Clone()
	for k, cv := range client {
		if models.IsSystemField(k) {
			continue
		}
		out[k] = cv
	}
	return out
}

func resolveFieldLevelMerge(server, client models.Fields, rc ResolveContext) models.Fields {
	rules, ok := fieldOwnership[rc.Collection]
	if !ok {
		return resolveServerWins(server, client, rc)
	}

	out := server.Clone()
	for _, field := range rules.clientOwned {
		if cv, ok := client[field]; ok {
			out[field] = cv
		}
	}
	takeFromServer(out, server, rules.serverOwned)
	takeFromServer(out, server, criticalFields)
	return out
}

// takeFromServer copies fields from server into out, removing the ones the
// server does not have.
func takeFromServer(out, server models.Fields, fields []string) {
	for _, f := range fields {
		if v, ok := server[f]; ok {
			out[f] = v
		} else {
			delete(out, f)
		}
	}
}

// ownership splits the fields of a collection between the device and the
// server for field_level_merge. Fields in neither list keep the server value.
type ownership struct {
	clientOwned []string
	serverOwned []string
}

var fieldOwnership = map[string]ownership{
	"patients": {
		clientOwned: []string{
			"contact_phone",
			"contact_email",
			"address",
			"emergency_contact_name",
			"emergency_contact_phone",
			"preferred_language",
		},
		serverOwned: []string{
			"facility_id",
			"medical_record_number",
			"national_id",
			"date_of_birth",
			"blood_type",
			"allergies",
			"chronic_conditions",
		},
	},
	"vaccination_records": {
		clientOwned: []string{
			"notes",
			"side_effects_reported",
			"follow_up_date",
		},
		serverOwned: []string{
			"facility_id",
			"patient_id",
			"vaccine_id",
			"dose_number",
			"batch_number",
			"administered_at",
			"administered_by",
		},
	},
}

// StrategyTable maps every collection to exactly one strategy. It is built
// once from the policy and never modified.
type StrategyTable struct {
	byCollection map[string]Strategy
	fallback     Strategy
}

// NewStrategyTable resolves every strategy name of policy, failing on the
// first unknown one.
func NewStrategyTable(policy config.SyncPolicy) (*StrategyTable, error) {
	fallback, err := ParseStrategy(policy.DefaultStrategy)
	if err != nil {
		return nil, fmt.Errorf("default strategy: %w", err)
	}

	byCollection := make(map[string]Strategy, len(policy.Strategies))
	for collection, name := range policy.Strategies {
		s, err := ParseStrategy(name)
		if err != nil {
			return nil, fmt.Errorf("strategy of %q: %w", collection, err)
		}
		byCollection[collection] = s
	}

	return &StrategyTable{byCollection: byCollection, fallback: fallback}, nil
}

// For returns the strategy of collection, or the default one.
func (t *StrategyTable) For(collection string) Strategy {
	if s, ok := t.byCollection[collection]; ok {
		return s
	}
	return t.fallback
}

// Names returns the configured collection → strategy name mapping.
func (t *StrategyTable) Names() map[string]string {
	out := make(map[string]string, len(t.byCollection))
	for c, s := range t.byCollection {
		out[c] = s.name
	}
	return out
}

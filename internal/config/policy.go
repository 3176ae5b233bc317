// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package config

import (
	"fmt"
	"os"
	"slices"
	"time"

	"github.com/BurntSushi/toml"
)

// SyncPolicy is the sync engine configuration: which conflict strategy each
// collection uses, how much a single pull may return, what each role is
// allowed to do, and where audit entries are written.
//
// It is loaded once at start-up and only read afterwards.
type SyncPolicy struct {
	// DefaultStrategy applies to every collection without an entry in
	// Strategies.
	DefaultStrategy string `toml:"default_strategy"`

	// Strategies maps a collection name to a conflict strategy name.
	Strategies map[string]string `toml:"strategies"`

	// KnownCollections is the allow-list of syncable collections.
	KnownCollections []string `toml:"known_collections"`

	// DefaultCollections are synced when a request names none.
	DefaultCollections []string `toml:"default_collections"`

	// Collections holds per-collection batch limits.
	Collections map[string]CollectionLimits `toml:"collections"`

	// DefaultLimits applies to collections without an entry in Collections.
	DefaultLimits CollectionLimits `toml:"default_limits"`

	// Roles holds per-role ceilings and permissions.
	Roles map[string]RolePolicy `toml:"roles"`

	// RateLimit bounds sessions per (user, device).
	RateLimit RateLimit `toml:"rate_limit"`

	// Tables overrides the names of the audit and log tables.
	Tables LogTables `toml:"tables"`

	// AuditTimeout bounds each best-effort audit write.
	AuditTimeout time.Duration `toml:"audit_timeout"`

	// ActiveSessionWindow is how recent a heartbeat must be for a session
	// to count as active.
	ActiveSessionWindow time.Duration `toml:"active_session_window"`
}

// CollectionLimits bounds what one pull of a collection may return.
type CollectionLimits struct {
	DeletedLimit int `toml:"deleted_limit"`
	MaxPages     int `toml:"max_pages"`
}

// RolePolicy holds the ceilings and permissions of one role.
type RolePolicy struct {
	MaxPageLimit     int      `toml:"max_page_limit"`
	MaxPages         int      `toml:"max_pages"`
	NextSyncSeconds  int      `toml:"next_sync_seconds"`
	AllowCompression bool     `toml:"allow_compression"`
	AllFacilities    bool     `toml:"all_facilities"`
	Collections      []string `toml:"collections"`
}

// RateLimit is a fixed-window quota of sessions.
type RateLimit struct {
	Requests int           `toml:"requests"`
	Window   time.Duration `toml:"window"`
}

// LogTables are the table names the audit trail writes to and the status
// aggregator reads from.
type LogTables struct {
	Conflicts     string `toml:"conflicts"`
	Sessions      string `toml:"sessions"`
	Queue         string `toml:"queue"`
	Notifications string `toml:"notifications"`
	Deletions     string `toml:"deletions"`
}

// DefaultSyncPolicy returns the policy used when no policy file is given.
func DefaultSyncPolicy() SyncPolicy {
	collections := []string{
		"patients",
		"vaccination_records",
		"vaccines",
		"facilities",
		"appointments",
	}

	return SyncPolicy{
		DefaultStrategy: "server_wins",
		Strategies: map[string]string{
			"patients":            "field_level_merge",
			"vaccination_records": "merge_with_server_priority",
			"appointments":        "merge_with_client_priority",
			"vaccines":            "server_wins",
			"facilities":          "server_wins",
		},
		KnownCollections:   collections,
		DefaultCollections: slices.Clone(collections),
		Collections: map[string]CollectionLimits{
			"patients":            {DeletedLimit: 500, MaxPages: 10},
			"vaccination_records": {DeletedLimit: 1000, MaxPages: 20},
		},
		DefaultLimits: CollectionLimits{DeletedLimit: 100, MaxPages: 5},
		Roles: map[string]RolePolicy{
			"administrator": {
				MaxPageLimit:     500,
				MaxPages:         20,
				NextSyncSeconds:  300,
				AllowCompression: true,
				AllFacilities:    true,
			},
			"facility_manager": {
				MaxPageLimit:     250,
				MaxPages:         10,
				NextSyncSeconds:  600,
				AllowCompression: true,
			},
			"health_worker": {
				MaxPageLimit:    100,
				MaxPages:        5,
				NextSyncSeconds: 900,
				Collections:     []string{"patients", "vaccination_records", "vaccines", "appointments"},
			},
		},
		RateLimit: RateLimit{Requests: 30, Window: time.Minute},
		Tables: LogTables{
			Conflicts:     "sync_conflicts",
			Sessions:      "sync_sessions",
			Queue:         "sync_queue_log",
			Notifications: "notification_log",
			Deletions:     "deletion_ledger",
		},
		AuditTimeout:        2 * time.Second,
		ActiveSessionWindow: 300 * time.Second,
	}
}

// LoadSyncPolicy decodes the TOML policy file at path over the defaults.
// An empty path yields [DefaultSyncPolicy].
func LoadSyncPolicy(path string) (SyncPolicy, error) {
	policy := DefaultSyncPolicy()
	if path == "" {
		return policy, nil
	}

	if _, err := os.Stat(path); err != nil {
		return SyncPolicy{}, fmt.Errorf("%w: %w", ErrPolicyFileNotFound, err)
	}

	if _, err := toml.DecodeFile(path, &policy); err != nil {
		return SyncPolicy{}, fmt.Errorf("failed to parse sync policy file: %w", err)
	}

	return policy, policy.validate()
}

// LimitsFor returns the batch limits of collection.
func (p SyncPolicy) LimitsFor(collection string) CollectionLimits {
	limits, ok := p.Collections[collection]
	if !ok {
		return p.DefaultLimits
	}
	if limits.DeletedLimit == 0 {
		limits.DeletedLimit = p.DefaultLimits.DeletedLimit
	}
	if limits.MaxPages == 0 {
		limits.MaxPages = p.DefaultLimits.MaxPages
	}
	return limits
}

// IsKnownCollection reports whether collection is in the allow-list.
func (p SyncPolicy) IsKnownCollection(collection string) bool {
	return slices.Contains(p.KnownCollections, collection)
}

func (p SyncPolicy) validate() error {
	if p.DefaultStrategy == "" {
		return fmt.Errorf("%w: default strategy is empty", ErrInvalidSyncPolicy)
	}
	if len(p.KnownCollections) == 0 {
		return fmt.Errorf("%w: no known collections", ErrInvalidSyncPolicy)
	}
	// sessions that name no collections sync the defaults
	if len(p.DefaultCollections) == 0 {
		return fmt.Errorf("%w: no default collections", ErrInvalidSyncPolicy)
	}
	for _, c := range p.DefaultCollections {
		if !p.IsKnownCollection(c) {
			return fmt.Errorf("%w: default collection %q is not known", ErrInvalidSyncPolicy, c)
		}
	}
	if len(p.Roles) == 0 {
		return fmt.Errorf("%w: no roles", ErrInvalidSyncPolicy)
	}
	if p.RateLimit.Requests <= 0 || p.RateLimit.Window <= 0 {
		return fmt.Errorf("%w: rate limit must be positive", ErrInvalidSyncPolicy)
	}
	return nil
}

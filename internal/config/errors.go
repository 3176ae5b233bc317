package config

import "errors"

// Validation errors returned while building the configuration.
var (
	// ErrInvalidStorageConfigs indicates invalid storage settings
	// (for example, an empty DSN or Redis URL).
	ErrInvalidStorageConfigs = errors.New("invalid storage configuration")
	// ErrInvalidServerConfigs indicates invalid transport settings
	// (for example, a missing HTTP address).
	ErrInvalidServerConfigs = errors.New("invalid server configuration")
	// ErrInvalidAppConfigs indicates invalid application-level settings
	// (for example, a missing token sign key).
	ErrInvalidAppConfigs = errors.New("invalid app configuration")
	// ErrInvalidSyncPolicy indicates a sync policy that cannot be used.
	ErrInvalidSyncPolicy = errors.New("invalid sync policy")
	// ErrPolicyFileNotFound indicates that the policy file does not exist.
	ErrPolicyFileNotFound = errors.New("sync policy file not found")
)

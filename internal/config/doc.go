// Package config loads the facility-sync server configuration.
//
// Scalar settings (addresses, DSNs, token keys) come from environment
// variables, command-line flags and an optional JSON file, merged in that
// order. The sync policy (conflict strategies, paging ceilings, role
// permissions, rate limit, log table names) is decoded from a TOML file over
// built-in defaults.
package config

// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

// Package validators checks the shape of inbound sync requests before the
// services act on them.
//
// Validators only look at the request itself. Rules that need the sync
// policy or the caller (known collections, role permissions, facility
// scope) stay in the service layer.
//
// Callers may pass field names to Validate to check a subset of a value.
// With no field names every rule for the type is applied.
package validators

import "context"

// Validator validates an arbitrary input value, optionally restricted to
// the named fields.
type Validator interface {
	Validate(context.Context, any, ...string) error
}

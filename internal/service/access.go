// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package service

import (
	"fmt"
	"slices"

	"github.com/MKhiriev/go-facility-sync/internal/config"
	"github.com/MKhiriev/go-facility-sync/models"
)

// AccessPolicy answers what a caller may sync, derived from the role
// section of the sync policy. It is built once and only read afterwards.
type AccessPolicy struct {
	roles  map[models.Role]config.RolePolicy
	policy config.SyncPolicy
}

func NewAccessPolicy(policy config.SyncPolicy) *AccessPolicy {
	roles := make(map[models.Role]config.RolePolicy, len(policy.Roles))
	for name, role := range policy.Roles {
		roles[models.Role(name)] = role
	}
	return &AccessPolicy{roles: roles, policy: policy}
}

// RoleOf returns the policy of the caller's role.
func (a *AccessPolicy) RoleOf(caller models.Caller) (config.RolePolicy, error) {
	if caller.UserID == "" {
		return config.RolePolicy{}, ErrUnauthenticated
	}
	role, ok := a.roles[caller.Role]
	if !ok {
		return config.RolePolicy{}, fmt.Errorf("%w: unknown role %q", ErrAccessDenied, caller.Role)
	}
	if !role.AllFacilities && caller.FacilityID == "" {
		return config.RolePolicy{}, fmt.Errorf("%w: role %q requires a facility", ErrAccessDenied, caller.Role)
	}
	return role, nil
}

// ScopeOf returns the facility scope of the caller.
func (a *AccessPolicy) ScopeOf(caller models.Caller, role config.RolePolicy) models.FacilityScope {
	return models.FacilityScope{All: role.AllFacilities, FacilityID: caller.FacilityID}
}

// CheckCollection fails with [ErrInvalidCollection] for collections outside
// the allow-list and with [ErrAccessDenied] for collections the role may
// not sync. An empty role collection list allows every known collection.
func (a *AccessPolicy) CheckCollection(role config.RolePolicy, collection string) error {
	if !a.policy.IsKnownCollection(collection) {
		return fmt.Errorf("%w: %q", ErrInvalidCollection, collection)
	}
	if len(role.Collections) > 0 && !slices.Contains(role.Collections, collection) {
		return fmt.Errorf("%w: role may not sync %q", ErrAccessDenied, collection)
	}
	return nil
}

// Clamp bounds the requested page size and page count by the role ceiling.
// Zero or negative requests take the ceiling.
func (a *AccessPolicy) Clamp(role config.RolePolicy, pageLimit, maxPages int) (int, int) {
	return clamp(pageLimit, role.MaxPageLimit), clamp(maxPages, role.MaxPages)
}

func clamp(requested, ceiling int) int {
	ceiling = max(ceiling, 1)
	if requested <= 0 || requested > ceiling {
		return ceiling
	}
	return requested
}

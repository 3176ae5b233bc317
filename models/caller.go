// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package models

// Role is the facility role of an authenticated caller.
type Role string

const (
	RoleAdministrator   Role = "administrator"
	RoleFacilityManager Role = "facility_manager"
	RoleHealthWorker    Role = "health_worker"
)

// Caller is the authenticated identity attached to a request by the auth
// middleware.
type Caller struct {
	UserID     string `json:"user_id"`
	Role       Role   `json:"role"`
	FacilityID string `json:"facility_id"`
}

// FacilityScope restricts which documents a caller may read or write.
// The zero value matches nothing outside the empty facility.
type FacilityScope struct {
	// All is set for roles that see every facility.
	All bool

	// FacilityID is the only facility visible when All is false.
	FacilityID string
}

// Allows reports whether a document owned by facilityID is inside the scope.
func (s FacilityScope) Allows(facilityID string) bool {
	return s.All || s.FacilityID == facilityID
}

// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package models

import "time"

// ReconcileOperation is the outcome of reconciling one client write.
type ReconcileOperation string

const (
	ReconcileCreated          ReconcileOperation = "created"
	ReconcileUpdated          ReconcileOperation = "updated"
	ReconcileConflictResolved ReconcileOperation = "conflict_resolved"
)

// ConflictRecord is the audit entry written for every detected conflict.
// Records are append-only.
type ConflictRecord struct {
	ID           string    `json:"id"`
	Collection   string    `json:"collection"`
	DocumentID   string    `json:"documentId"`
	ServerData   Fields    `json:"serverData"`
	ClientData   Fields    `json:"clientData"`
	ResolvedData Fields    `json:"resolvedData"`
	Strategy     string    `json:"strategy"`
	DeviceID     string    `json:"deviceId"`
	UserID       string    `json:"userId"`
	FacilityID   string    `json:"facilityId,omitempty"`
	Timestamp    time.Time `json:"timestamp"`
}

// ReconcileRequest is a single client write submitted for reconciliation.
type ReconcileRequest struct {
	Collection      string     `json:"collection"`
	DocumentID      string     `json:"documentId"`
	ClientData      Fields     `json:"clientData"`
	ClientTimestamp *time.Time `json:"clientTimestamp,omitempty"`
	DeviceID        string     `json:"deviceId"`
	UserID          string     `json:"userId"`
}

// ReconcileResult is what the resolver hands back to its caller.
type ReconcileResult struct {
	Operation        ReconcileOperation
	ResolvedDocument Document
	StrategyUsed     string
	ServerVersion    *Document
	ClientVersion    Fields
}

// ReconcileResponse is the wire form of a [ReconcileResult].
type ReconcileResponse struct {
	Success          bool               `json:"success"`
	Operation        ReconcileOperation `json:"operation"`
	ConflictResolved bool               `json:"conflictResolved"`
	Strategy         string             `json:"strategy,omitempty"`
	ResolvedDocument Fields             `json:"resolvedDocument"`
	ServerVersion    Fields             `json:"serverVersion,omitempty"`
	ClientVersion    Fields             `json:"clientVersion,omitempty"`
}

// NewReconcileResponse converts a result into its wire form.
func NewReconcileResponse(result ReconcileResult) ReconcileResponse {
	resp := ReconcileResponse{
		Success:          true,
		Operation:        result.Operation,
		ConflictResolved: result.Operation == ReconcileConflictResolved,
		Strategy:         result.StrategyUsed,
		ResolvedDocument: result.ResolvedDocument.AsFields(),
		ClientVersion:    result.ClientVersion,
	}
	if result.ServerVersion != nil {
		resp.ServerVersion = result.ServerVersion.AsFields()
	}
	return resp
}

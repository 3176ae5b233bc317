// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package models

import (
	"encoding/json"
	"time"
)

// SyncRequest is sent by a device to run one sync session.
type SyncRequest struct {
	// DeviceID identifies the device. Required.
	DeviceID string `json:"deviceId"`

	// LastSyncTimestamp is the device watermark. Absent means a full pull.
	LastSyncTimestamp *time.Time `json:"lastSyncTimestamp,omitempty"`

	// Collections narrows the session. Empty means the configured defaults.
	Collections []string `json:"collections,omitempty"`

	// PageLimit and MaxPages are clamped to the caller role's ceiling.
	PageLimit int `json:"pageLimit,omitempty"`
	MaxPages  int `json:"maxPages,omitempty"`

	// PageCursor is a token returned as nextCursor by a previous session.
	PageCursor string `json:"pageCursor,omitempty"`

	// Compress asks for gzip-compressed results when the role permits it.
	Compress bool `json:"compress,omitempty"`

	// Changes are local edits pushed before the pull.
	Changes []ClientChange `json:"changes,omitempty"`
}

// ClientChange is one locally edited document pushed within a session.
type ClientChange struct {
	Collection      string     `json:"collection"`
	DocumentID      string     `json:"documentId"`
	ClientData      Fields     `json:"clientData"`
	ClientTimestamp *time.Time `json:"clientTimestamp,omitempty"`
}

// SyncResponse is returned for a completed session.
type SyncResponse struct {
	Success             bool                        `json:"success"`
	SyncTimestamp       time.Time                   `json:"syncTimestamp"`
	Results             map[string]CollectionResult `json:"results,omitempty"`
	CompressedResults   string                      `json:"compressedResults,omitempty"`
	PushResults         []PushResult                `json:"pushResults,omitempty"`
	NextSyncRecommended int                         `json:"nextSyncRecommended"`
	Security            SecurityInfo                `json:"security"`
}

// SecurityInfo describes the access envelope the session ran under.
type SecurityInfo struct {
	FacilityScoped     bool  `json:"facilityScoped"`
	ExecutionTime      int64 `json:"executionTime"`
	RateLimitRemaining int   `json:"rateLimitRemaining"`
}

// CollectionResult is the per-collection outcome of a session. Success and
// failure are rendered as two distinct JSON shapes.
type CollectionResult struct {
	Success      bool           `json:"success"`
	Updated      []ChangeRecord `json:"updated"`
	Deleted      []ChangeRecord `json:"deleted"`
	HasMore      bool           `json:"hasMore"`
	NextCursor   *string        `json:"nextCursor"`
	PagesFetched int            `json:"pagesFetched"`
	Error        string         `json:"error,omitempty"`
	Code         string         `json:"code,omitempty"`
}

// MarshalJSON renders failed results as {success, error, code} only.
func (r CollectionResult) MarshalJSON() ([]byte, error) {
	if !r.Success {
		return json.Marshal(struct {
			Success bool   `json:"success"`
			Error   string `json:"error"`
			Code    string `json:"code"`
		}{r.Success, r.Error, r.Code})
	}

	type plain CollectionResult
	out := plain(r)
	if out.Updated == nil {
		out.Updated = []ChangeRecord{}
	}
	if out.Deleted == nil {
		out.Deleted = []ChangeRecord{}
	}
	return json.Marshal(out)
}

// PushResult is the outcome of one pushed [ClientChange].
type PushResult struct {
	Collection       string             `json:"collection"`
	DocumentID       string             `json:"documentId"`
	Success          bool               `json:"success"`
	Operation        ReconcileOperation `json:"operation,omitempty"`
	ConflictResolved bool               `json:"conflictResolved"`
	Strategy         string             `json:"strategy,omitempty"`
	ResolvedDocument Fields             `json:"resolvedDocument,omitempty"`
	Error            string             `json:"error,omitempty"`
	Code             string             `json:"code,omitempty"`
}

// SessionStatus is the terminal state of a sync session.
type SessionStatus string

const (
	SessionCompleted SessionStatus = "completed"
	SessionPartial   SessionStatus = "partial"
)

// SyncSessionLog is the audit entry written once per session.
type SyncSessionLog struct {
	ID                string        `json:"id"`
	DeviceID          string        `json:"deviceId"`
	UserID            string        `json:"userId"`
	FacilityID        string        `json:"facilityId"`
	Role              Role          `json:"role"`
	SyncTimestamp     time.Time     `json:"syncTimestamp"`
	LastSyncTimestamp *time.Time    `json:"lastSyncTimestamp,omitempty"`
	Collections       []string      `json:"collections"`
	Status            SessionStatus `json:"status"`
	ExecutionTimeMs   int64         `json:"executionTimeMs"`
}

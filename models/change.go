// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package models

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// Operation is the kind of change carried by a [ChangeRecord].
type Operation string

const (
	OperationUpdate Operation = "update"
	OperationDelete Operation = "delete"
)

// ChangeRecord is one entry of a change set returned to a device.
// It is built by the puller and never stored.
type ChangeRecord struct {
	Collection string    `json:"collection"`
	DocumentID string    `json:"documentId"`
	Data       Fields    `json:"data,omitempty"`
	UpdatedAt  time.Time `json:"updatedAt"`
	Operation  Operation `json:"operation"`
}

// DeletionEntry is a row of the deletion ledger.
type DeletionEntry struct {
	Collection string    `json:"collection"`
	DocumentID string    `json:"documentId"`
	FacilityID string    `json:"facilityId,omitempty"`
	DeletedAt  time.Time `json:"deletedAt"`
}

// ErrMalformedCursor is returned by [DecodeSyncCursor] for tokens that are not
// valid base64url-encoded cursors.
var ErrMalformedCursor = errors.New("malformed sync cursor")

// SyncCursor is the resumable position of a paginated pull. The device owns
// it: the server receives it with the request and hands back the next one.
type SyncCursor struct {
	Collection     string  `json:"collection"`
	LastDocumentID *string `json:"lastDocumentId"`
	Page           int     `json:"page"`
	HasMore        bool    `json:"hasMore"`
}

// Encode serializes the cursor into an opaque URL-safe token.
func (c SyncCursor) Encode() string {
	raw, _ := json.Marshal(c)
	return base64.RawURLEncoding.EncodeToString(raw)
}

// DecodeSyncCursor parses a token produced by [SyncCursor.Encode].
func DecodeSyncCursor(token string) (SyncCursor, error) {
	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return SyncCursor{}, fmt.Errorf("%w: %w", ErrMalformedCursor, err)
	}

	var cursor SyncCursor
	if err := json.Unmarshal(raw, &cursor); err != nil {
		return SyncCursor{}, fmt.Errorf("%w: %w", ErrMalformedCursor, err)
	}

	return cursor, nil
}

// PullRequest carries the inputs of one collection pull.
type PullRequest struct {
	Collection        string
	LastSyncTimestamp time.Time
	Scope             FacilityScope
	Cursor            *SyncCursor
	PageLimit         int
	MaxPages          int
}

// PullResult is the bounded change set produced for one collection.
type PullResult struct {
	Updated      []ChangeRecord `json:"updated"`
	Deleted      []ChangeRecord `json:"deleted"`
	HasMore      bool           `json:"hasMore"`
	NextCursor   *SyncCursor    `json:"-"`
	PagesFetched int            `json:"pagesFetched"`
}

// DocumentQuery selects a page of documents for the puller.
type DocumentQuery struct {
	Collection   string
	UpdatedAfter time.Time
	Scope        FacilityScope
	AfterID      *string
	Limit        int
}

// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package models

import (
	"strings"
	"time"
)

// System fields exposed in the field view of a [Document]. They are assigned
// by the server and are never persisted inside the document payload.
const (
	FieldID        = "$id"
	FieldCreatedAt = "$createdAt"
	FieldUpdatedAt = "$updatedAt"

	// FieldFacilityID is the owning-facility reference. It is part of the
	// payload and mirrored into an indexed column for facility scoping.
	FieldFacilityID = "facility_id"

	// FieldClientUpdatedAt is the payload field some clients use to carry the
	// time they last edited the record.
	FieldClientUpdatedAt = "updatedAt"
)

// Fields is the flat key/value view of a document as exchanged with devices.
type Fields map[string]any

// Document is a single record of a synchronized collection.
type Document struct {
	// ID is the document identifier, unique within its collection.
	ID string `json:"id"`

	// Collection is the name of the collection the document belongs to.
	Collection string `json:"collection"`

	// FacilityID is the owning facility, copied from Data["facility_id"].
	FacilityID string `json:"facility_id,omitempty"`

	// Data is the JSON payload without system fields.
	Data Fields `json:"data"`

	// CreatedAt is assigned by the store on creation.
	CreatedAt time.Time `json:"created_at"`

	// UpdatedAt is the authoritative modification time, assigned by the store
	// on every write.
	UpdatedAt time.Time `json:"updated_at"`
}

// DocumentKey addresses one document.
type DocumentKey struct {
	Collection string
	DocumentID string
}

// AsFields returns the field view of the document: a copy of Data with the
// system fields set from the store columns.
func (d Document) AsFields() Fields {
	out := d.Data.Clone()
	out[FieldID] = d.ID
	out[FieldCreatedAt] = d.CreatedAt.UTC().Format(time.RFC3339Nano)
	out[FieldUpdatedAt] = d.UpdatedAt.UTC().Format(time.RFC3339Nano)
	return out
}

// Clone returns a shallow copy of f. A nil receiver yields an empty map.
func (f Fields) Clone() Fields {
	out := make(Fields, len(f)+3)
	for k, v := range f {
		out[k] = v
	}
	return out
}

// WithoutSystemFields returns a copy of f with every "$"-prefixed key removed.
func (f Fields) WithoutSystemFields() Fields {
	out := make(Fields, len(f))
	for k, v := range f {
		if IsSystemField(k) {
			continue
		}
		out[k] = v
	}
	return out
}

// String returns the value of key when it holds a string.
func (f Fields) String(key string) (string, bool) {
	v, ok := f[key].(string)
	return v, ok
}

// Time parses the value of key as an RFC 3339 timestamp.
func (f Fields) Time(key string) (time.Time, bool) {
	switch v := f[key].(type) {
	case string:
		t, err := time.Parse(time.RFC3339Nano, v)
		if err != nil {
			return time.Time{}, false
		}
		return t, true
	case time.Time:
		return v, true
	default:
		return time.Time{}, false
	}
}

// IsSystemField reports whether key is a server-assigned field.
func IsSystemField(key string) bool {
	return strings.HasPrefix(key, "$")
}

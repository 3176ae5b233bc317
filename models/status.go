// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package models

import "time"

// Health is the overall classification of sync activity.
type Health string

const (
	HealthHealthy  Health = "healthy"
	HealthWarning  Health = "warning"
	HealthDegraded Health = "degraded"
)

// StatusFilter narrows the status summary. Empty fields do not filter.
type StatusFilter struct {
	DeviceID   string `json:"deviceId,omitempty"`
	UserID     string `json:"userId,omitempty"`
	FacilityID string `json:"facilityId,omitempty"`
}

// StatusQuery is a status request as received from the caller.
// SinceMinutes of zero selects the default window.
type StatusQuery struct {
	SinceMinutes int
	StatusFilter
}

// StatusWindow is the time range a summary is computed over.
type StatusWindow struct {
	From time.Time
	To   time.Time
	StatusFilter
}

// SyncHealthSummary is the response of the status aggregator.
type SyncHealthSummary struct {
	Health      Health        `json:"health"`
	GeneratedAt time.Time     `json:"generatedAt"`
	WindowFrom  time.Time     `json:"windowFrom"`
	Metrics     StatusMetrics `json:"metrics"`
	Details     StatusDetails `json:"details"`
}

// StatusMetrics are the counters computed over the window.
type StatusMetrics struct {
	TotalSyncs      int                `json:"totalSyncs"`
	CollectionSyncs map[string]int     `json:"collectionSyncs"`
	QueueSucceeded  int                `json:"queueSucceeded"`
	QueueFailed     int                `json:"queueFailed"`
	FailureRate     float64            `json:"failureRate"`
	Conflicts       int                `json:"conflicts"`
	ActiveSessions  int                `json:"activeSessions"`
	Notifications   NotificationCounts `json:"notifications"`
	Deletions       int                `json:"deletions"`
}

// QueueCounts are the outcomes of queued background sync jobs.
type QueueCounts struct {
	Succeeded int
	Failed    int
}

// NotificationCounts are the delivery states of sync notifications.
type NotificationCounts struct {
	Pending     int `json:"pending"`
	Delivered   int `json:"delivered"`
	Undelivered int `json:"undelivered"`
}

// StatusDetails lists the most recent activity inside the window.
type StatusDetails struct {
	RecentSyncs     []SyncSessionLog `json:"recentSyncs"`
	RecentConflicts []ConflictRecord `json:"recentConflicts"`
	ActiveSessions  []Presence       `json:"activeSessions"`
}

// Presence is the last heartbeat of a syncing device.
type Presence struct {
	DeviceID   string    `json:"deviceId"`
	UserID     string    `json:"userId"`
	FacilityID string    `json:"facilityId"`
	LastSeen   time.Time `json:"lastSeen"`
}

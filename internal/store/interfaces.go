package store

//go:generate mockgen -source=interfaces.go -destination=../mock/store_mock.go -package=mock

import (
	"context"
	"time"

	"github.com/MKhiriev/go-facility-sync/models"
)

// DocumentStore persists the documents of every synchronized collection.
// UpdatedAt is always assigned by the store.
type DocumentStore interface {
	// GetDocument returns [ErrDocumentNotFound] when no such document exists.
	GetDocument(ctx context.Context, collection, documentID string) (models.Document, error)
	// CreateDocument is idempotent: creating an existing (collection, id)
	// returns the stored document unchanged.
	CreateDocument(ctx context.Context, doc models.Document) (models.Document, error)
	// UpdateDocument replaces the payload and returns [ErrDocumentNotFound]
	// when the document does not exist.
	UpdateDocument(ctx context.Context, doc models.Document) (models.Document, error)
	// DeleteDocument removes the document and appends a ledger entry in the
	// same transaction.
	DeleteDocument(ctx context.Context, collection, documentID string) (models.DeletionEntry, error)
	// ListDocuments returns at most q.Limit documents ordered by id.
	ListDocuments(ctx context.Context, q models.DocumentQuery) ([]models.Document, error)
	// CountDocuments counts every document matching q after AfterID,
	// ignoring Limit.
	CountDocuments(ctx context.Context, q models.DocumentQuery) (int, error)
}

// DeletionLedger is the read side of the append-only deletion log.
type DeletionLedger interface {
	ListDeletions(ctx context.Context, collection string, since time.Time, scope models.FacilityScope, limit int) ([]models.DeletionEntry, error)
}

// AuditRepository appends conflict and session records.
type AuditRepository interface {
	SaveConflict(ctx context.Context, record models.ConflictRecord) error
	SaveSession(ctx context.Context, session models.SyncSessionLog) error
}

// StatusRepository answers the aggregate queries of the status endpoint.
type StatusRepository interface {
	CountSessions(ctx context.Context, window models.StatusWindow) (int, error)
	CountSessionsByCollection(ctx context.Context, window models.StatusWindow) (map[string]int, error)
	RecentSessions(ctx context.Context, window models.StatusWindow, limit int) ([]models.SyncSessionLog, error)
	CountConflicts(ctx context.Context, window models.StatusWindow) (int, error)
	RecentConflicts(ctx context.Context, window models.StatusWindow, limit int) ([]models.ConflictRecord, error)
	CountQueue(ctx context.Context, window models.StatusWindow) (models.QueueCounts, error)
	CountNotifications(ctx context.Context, window models.StatusWindow) (models.NotificationCounts, error)
	CountDeletions(ctx context.Context, window models.StatusWindow) (int, error)
}

// RateLimiter counts sync sessions per (user, device).
type RateLimiter interface {
	Allow(ctx context.Context, userID, deviceID string) (RateLimitDecision, error)
}

// PresenceTracker records device heartbeats and lists the recent ones.
type PresenceTracker interface {
	Heartbeat(ctx context.Context, presence models.Presence) error
	ListActive(ctx context.Context, since time.Time, filter models.StatusFilter) ([]models.Presence, error)
}

// Clock reads the database clock. Sync watermarks are compared against
// updated_at values the database assigns, so they come from the same clock.
type Clock interface {
	Now(ctx context.Context) (time.Time, error)
}

// RateLimitDecision is the outcome of one [RateLimiter.Allow] call.
type RateLimitDecision struct {
	Allowed    bool
	Remaining  int
	RetryAfter time.Duration
}

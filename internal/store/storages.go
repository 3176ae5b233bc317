package store

import (
	"github.com/MKhiriev/go-facility-sync/internal/config"
	"github.com/redis/go-redis/v9"
)

// Storages bundles every repository the service layer depends on.
type Storages struct {
	DocumentStore    DocumentStore
	DeletionLedger   DeletionLedger
	AuditRepository  AuditRepository
	StatusRepository StatusRepository
	RateLimiter      RateLimiter
	PresenceTracker  PresenceTracker
	Clock            Clock
}

// NewStorages wires the PostgreSQL repositories and the Redis-backed rate
// limiter and presence tracker.
func NewStorages(db *DB, redisClient redis.Cmdable, policy config.SyncPolicy) *Storages {
	return &Storages{
		DocumentStore:    NewDocumentRepository(db, policy.Tables),
		DeletionLedger:   NewDeletionLedger(db, policy.Tables),
		AuditRepository:  NewAuditRepository(db, policy.Tables),
		StatusRepository: NewStatusRepository(db, policy.Tables),
		RateLimiter:      NewRedisRateLimiter(redisClient, policy.RateLimit),
		PresenceTracker:  NewRedisPresenceTracker(redisClient, policy.ActiveSessionWindow),
		Clock:            NewDBClock(db),
	}
}

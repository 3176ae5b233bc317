package service

import (
	"context"
	"time"

	"github.com/MKhiriev/go-facility-sync/internal/logger"
	"github.com/MKhiriev/go-facility-sync/internal/store"
	"github.com/MKhiriev/go-facility-sync/internal/utils"
	"github.com/MKhiriev/go-facility-sync/models"
)

// AuditTrail persists conflict and session records. Failures come back as
// an [AuditResult] and never as an error.
type AuditTrail interface {
	RecordConflict(ctx context.Context, record models.ConflictRecord) AuditResult
	RecordSession(ctx context.Context, session models.SyncSessionLog) AuditResult
}

// AuditResult is the outcome of one best-effort audit write.
type AuditResult struct {
	Kind     string
	ID       string
	Err      error
	Duration time.Duration
}

// OK reports whether the record was written.
func (r AuditResult) OK() bool {
	return r.Err == nil
}

// Log writes the result to log: a debug line on success, a warning otherwise.
func (r AuditResult) Log(log *logger.Logger) {
	if r.Err != nil {
		log.Warn().Err(r.Err).
			Str("func", "AuditResult.Log").
			Str("kind", r.Kind).
			Str("id", r.ID).
			Dur("duration", r.Duration).
			Msg("audit record was not written")
		return
	}
	log.Debug().
		Str("func", "AuditResult.Log").
		Str("kind", r.Kind).
		Str("id", r.ID).
		Dur("duration", r.Duration).
		Msg("audit record written")
}

type auditService struct {
	repo    store.AuditRepository
	ids     utils.IDGenerator
	timeout time.Duration
	now     func() time.Time
}

const defaultAuditTimeout = 2 * time.Second

func NewAuditService(repo store.AuditRepository, ids utils.IDGenerator, timeout time.Duration) AuditTrail {
	if timeout <= 0 {
		timeout = defaultAuditTimeout
	}
	return &auditService{
		repo:    repo,
		ids:     ids,
		timeout: timeout,
		now:     time.Now,
	}
}

// RecordConflict appends record, assigning its id and timestamp when unset.
func (a *auditService) RecordConflict(ctx context.Context, record models.ConflictRecord) AuditResult {
	if record.ID == "" {
		record.ID = a.ids.Generate()
	}
	if record.Timestamp.IsZero() {
		record.Timestamp = a.now().UTC()
	}

	return a.write(ctx, "conflict", record.ID, func(ctx context.Context) error {
		return a.repo.SaveConflict(ctx, record)
	})
}

// RecordSession appends session, assigning its id when unset.
func (a *auditService) RecordSession(ctx context.Context, session models.SyncSessionLog) AuditResult {
	if session.ID == "" {
		session.ID = a.ids.Generate()
	}

	return a.write(ctx, "session", session.ID, func(ctx context.Context) error {
		return a.repo.SaveSession(ctx, session)
	})
}

// write runs fn detached from the caller's cancellation but bounded by the
// audit timeout, so an aborted request still leaves its trace.
func (a *auditService) write(ctx context.Context, kind, id string, fn func(context.Context) error) AuditResult {
	started := a.now()

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), a.timeout)
	defer cancel()

	err := fn(ctx)

	return AuditResult{
		Kind:     kind,
		ID:       id,
		Err:      err,
		Duration: a.now().Sub(started),
	}
}

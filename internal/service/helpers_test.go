package service

import (
	"context"
	"time"

	"github.com/MKhiriev/go-facility-sync/internal/config"
	"github.com/MKhiriev/go-facility-sync/models"
)

// ─────────────────────────────────────────────
// Fixtures
// ─────────────────────────────────────────────

var (
	t0 = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	t1 = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	adminCaller = models.Caller{UserID: "u-admin", Role: models.RoleAdministrator}
	workerF1    = models.Caller{UserID: "u-worker", Role: models.RoleHealthWorker, FacilityID: "F1"}
	managerF1   = models.Caller{UserID: "u-manager", Role: models.RoleFacilityManager, FacilityID: "F1"}
)

func testPolicy() config.SyncPolicy {
	return config.DefaultSyncPolicy()
}

func timePtr(t time.Time) *time.Time {
	return &t
}

func strPtr(s string) *string {
	return &s
}

// ─────────────────────────────────────────────
// Fake: AuditTrail
// ─────────────────────────────────────────────

type fakeAuditTrail struct {
	conflicts []models.ConflictRecord
	sessions  []models.SyncSessionLog
	err       error
}

func (f *fakeAuditTrail) RecordConflict(_ context.Context, record models.ConflictRecord) AuditResult {
	f.conflicts = append(f.conflicts, record)
	return AuditResult{Kind: "conflict", ID: record.ID, Err: f.err}
}

func (f *fakeAuditTrail) RecordSession(_ context.Context, session models.SyncSessionLog) AuditResult {
	f.sessions = append(f.sessions, session)
	return AuditResult{Kind: "session", ID: session.ID, Err: f.err}
}

// ─────────────────────────────────────────────
// Fake: utils.IDGenerator
// ─────────────────────────────────────────────

type sequenceIDs struct {
	ids []string
	n   int
}

func (s *sequenceIDs) Generate() string {
	id := s.ids[s.n%len(s.ids)]
	s.n++
	return id
}

package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/MKhiriev/go-facility-sync/internal/mock"
	"github.com/MKhiriev/go-facility-sync/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func newTestAuditService(t *testing.T, timeout time.Duration) (*auditService, *mock.MockAuditRepository) {
	t.Helper()

	repo := mock.NewMockAuditRepository(gomock.NewController(t))
	svc := NewAuditService(repo, &sequenceIDs{ids: []string{"id-1", "id-2"}}, timeout).(*auditService)
	svc.now = func() time.Time { return t1 }

	return svc, repo
}

func TestRecordConflict_AssignsIDAndTimestamp(t *testing.T) {
	svc, repo := newTestAuditService(t, time.Second)

	repo.EXPECT().SaveConflict(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, r models.ConflictRecord) error {
		assert.Equal(t, "id-1", r.ID)
		assert.Equal(t, t1, r.Timestamp)
		assert.Equal(t, "patients", r.Collection)
		return nil
	})

	res := svc.RecordConflict(context.Background(), models.ConflictRecord{Collection: "patients", DocumentID: "p1"})

	assert.True(t, res.OK())
	assert.Equal(t, "conflict", res.Kind)
	assert.Equal(t, "id-1", res.ID)
}

func TestRecordSession_KeepsGivenID(t *testing.T) {
	svc, repo := newTestAuditService(t, time.Second)

	repo.EXPECT().SaveSession(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, s models.SyncSessionLog) error {
		assert.Equal(t, "given", s.ID)
		return nil
	})

	res := svc.RecordSession(context.Background(), models.SyncSessionLog{ID: "given"})

	assert.True(t, res.OK())
	assert.Equal(t, "given", res.ID)
}

func TestRecord_FailureIsReturnedNotRaised(t *testing.T) {
	svc, repo := newTestAuditService(t, time.Second)
	writeErr := errors.New("relation \"sync_sessions\" does not exist")

	repo.EXPECT().SaveSession(gomock.Any(), gomock.Any()).Return(writeErr)

	res := svc.RecordSession(context.Background(), models.SyncSessionLog{})

	assert.False(t, res.OK())
	assert.ErrorIs(t, res.Err, writeErr)
	assert.Equal(t, "id-1", res.ID)
}

func TestRecord_SurvivesCallerCancellation(t *testing.T) {
	svc, repo := newTestAuditService(t, time.Second)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	repo.EXPECT().SaveConflict(gomock.Any(), gomock.Any()).DoAndReturn(func(ctx context.Context, _ models.ConflictRecord) error {
		require.NoError(t, ctx.Err())
		deadline, ok := ctx.Deadline()
		require.True(t, ok)
		assert.WithinDuration(t, time.Now().Add(time.Second), deadline, time.Second)
		return nil
	})

	res := svc.RecordConflict(ctx, models.ConflictRecord{})

	assert.True(t, res.OK())
}

func TestNewAuditService_DefaultTimeout(t *testing.T) {
	svc, _ := newTestAuditService(t, 0)

	assert.Equal(t, defaultAuditTimeout, svc.timeout)
}

package store

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/MKhiriev/go-facility-sync/internal/config"
	"github.com/MKhiriev/go-facility-sync/models"
	"github.com/jackc/pgerrcode"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestAuditRepo(t *testing.T) (AuditRepository, sqlmock.Sqlmock) {
	db, mock := newTestDB(t)
	return NewAuditRepository(db, config.DefaultSyncPolicy().Tables), mock
}

func TestSaveConflict(t *testing.T) {
	repo, mock := newTestAuditRepo(t)
	ts := time.Date(2026, 5, 1, 8, 0, 0, 0, time.UTC)

	record := models.ConflictRecord{
		ID:           "c1",
		Collection:   "patients",
		DocumentID:   "p1",
		ServerData:   models.Fields{"name": "Server"},
		ClientData:   models.Fields{"name": "Client"},
		ResolvedData: models.Fields{"name": "Server"},
		Strategy:     "server_wins",
		DeviceID:     "d1",
		UserID:       "u1",
		FacilityID:   "f1",
		Timestamp:    ts,
	}

	mock.ExpectExec("INSERT INTO sync_conflicts").
		WithArgs(
			"c1", "patients", "p1",
			[]byte(`{"name":"Server"}`),
			[]byte(`{"name":"Client"}`),
			[]byte(`{"name":"Server"}`),
			"server_wins", "d1", "u1", "f1", ts,
		).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.SaveConflict(context.Background(), record))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSaveConflict_MissingTable(t *testing.T) {
	repo, mock := newTestAuditRepo(t)

	mock.ExpectExec("INSERT INTO sync_conflicts").
		WillReturnError(pgError(pgerrcode.UndefinedTable))

	err := repo.SaveConflict(context.Background(), models.ConflictRecord{ID: "c1"})
	assert.ErrorIs(t, err, ErrExecutingStatement)
}

func TestSaveSession(t *testing.T) {
	repo, mock := newTestAuditRepo(t)
	ts := time.Date(2026, 5, 1, 8, 0, 0, 0, time.UTC)

	mock.ExpectExec("INSERT INTO sync_sessions").
		WithArgs(
			"s1", "d1", "u1", "f1", "health_worker", ts,
			nil,
			[]byte(`["patients","vaccines"]`),
			"completed", int64(42),
		).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.SaveSession(context.Background(), models.SyncSessionLog{
		ID:              "s1",
		DeviceID:        "d1",
		UserID:          "u1",
		FacilityID:      "f1",
		Role:            models.RoleHealthWorker,
		SyncTimestamp:   ts,
		Collections:     []string{"patients", "vaccines"},
		Status:          models.SessionCompleted,
		ExecutionTimeMs: 42,
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSaveSession_NilCollectionsStoredAsEmptyArray(t *testing.T) {
	repo, mock := newTestAuditRepo(t)
	ts := time.Date(2026, 5, 1, 8, 0, 0, 0, time.UTC)

	mock.ExpectExec("INSERT INTO sync_sessions").
		WithArgs(
			"s1", "d1", "u1", nil, "administrator", ts,
			nil,
			[]byte(`[]`),
			"completed", int64(3),
		).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.SaveSession(context.Background(), models.SyncSessionLog{
		ID:              "s1",
		DeviceID:        "d1",
		UserID:          "u1",
		Role:            models.RoleAdministrator,
		SyncTimestamp:   ts,
		Status:          models.SessionCompleted,
		ExecutionTimeMs: 3,
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSaveSession_TransientError(t *testing.T) {
	repo, mock := newTestAuditRepo(t)

	mock.ExpectExec("INSERT INTO sync_sessions").
		WillReturnError(pgError(pgerrcode.ConnectionFailure))

	err := repo.SaveSession(context.Background(), models.SyncSessionLog{ID: "s1"})
	assert.ErrorIs(t, err, ErrStoreUnavailable)
}

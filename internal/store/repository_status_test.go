package store

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/MKhiriev/go-facility-sync/internal/config"
	"github.com/MKhiriev/go-facility-sync/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStatusRepo(t *testing.T) (StatusRepository, sqlmock.Sqlmock) {
	db, mock := newTestDB(t)
	return NewStatusRepository(db, config.DefaultSyncPolicy().Tables), mock
}

var testWindowFrom = time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)

func TestCountSessions_FiltersByFacility(t *testing.T) {
	repo, mock := newTestStatusRepo(t)

	mock.ExpectQuery(regexp.QuoteMeta(
		"SELECT count(*) FROM sync_sessions WHERE sync_timestamp >= $1 AND facility_id = $2")).
		WithArgs(testWindowFrom, "f1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(12))

	n, err := repo.CountSessions(context.Background(), models.StatusWindow{
		From:         testWindowFrom,
		StatusFilter: models.StatusFilter{FacilityID: "f1"},
	})
	require.NoError(t, err)
	assert.Equal(t, 12, n)
}

func TestCountDeletions_IgnoresDeviceFilter(t *testing.T) {
	repo, mock := newTestStatusRepo(t)

	mock.ExpectQuery(regexp.QuoteMeta(
		"SELECT count(*) FROM deletion_ledger WHERE deleted_at >= $1")).
		WithArgs(testWindowFrom).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))

	n, err := repo.CountDeletions(context.Background(), models.StatusWindow{
		From:         testWindowFrom,
		StatusFilter: models.StatusFilter{DeviceID: "d1"},
	})
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func TestCountSessionsByCollection(t *testing.T) {
	repo, mock := newTestStatusRepo(t)

	mock.ExpectQuery("jsonb_array_elements_text").
		WithArgs(testWindowFrom).
		WillReturnRows(sqlmock.NewRows([]string{"collection", "count"}).
			AddRow("patients", 4).
			AddRow("vaccines", 2))

	counts, err := repo.CountSessionsByCollection(context.Background(), models.StatusWindow{From: testWindowFrom})
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"patients": 4, "vaccines": 2}, counts)
}

func TestCountQueue(t *testing.T) {
	repo, mock := newTestStatusRepo(t)

	mock.ExpectQuery(regexp.QuoteMeta("FROM sync_queue_log WHERE created_at >= $1")).
		WillReturnRows(sqlmock.NewRows([]string{"success", "failed"}).AddRow(95, 5))

	counts, err := repo.CountQueue(context.Background(), models.StatusWindow{From: testWindowFrom})
	require.NoError(t, err)
	assert.Equal(t, models.QueueCounts{Succeeded: 95, Failed: 5}, counts)
}

func TestCountNotifications(t *testing.T) {
	repo, mock := newTestStatusRepo(t)

	mock.ExpectQuery("FROM notification_log").
		WillReturnRows(sqlmock.NewRows([]string{"pending", "delivered", "undelivered"}).AddRow(1, 2, 3))

	counts, err := repo.CountNotifications(context.Background(), models.StatusWindow{From: testWindowFrom})
	require.NoError(t, err)
	assert.Equal(t, models.NotificationCounts{Pending: 1, Delivered: 2, Undelivered: 3}, counts)
}

func TestRecentSessions(t *testing.T) {
	repo, mock := newTestStatusRepo(t)
	ts := testWindowFrom.Add(time.Hour)
	last := testWindowFrom

	mock.ExpectQuery(regexp.QuoteMeta("ORDER BY sync_timestamp DESC LIMIT 10")).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "device_id", "user_id", "facility_id", "role", "sync_timestamp",
			"last_sync_timestamp", "collections", "status", "execution_time_ms",
		}).
			AddRow("s1", "d1", "u1", "f1", "health_worker", ts, last, []byte(`["patients"]`), "partial", 120).
			AddRow("s2", "d2", "u2", nil, "administrator", ts, nil, []byte(`[]`), "completed", 30))

	sessions, err := repo.RecentSessions(context.Background(), models.StatusWindow{From: testWindowFrom}, 10)
	require.NoError(t, err)
	require.Len(t, sessions, 2)

	assert.Equal(t, models.SessionPartial, sessions[0].Status)
	assert.Equal(t, []string{"patients"}, sessions[0].Collections)
	require.NotNil(t, sessions[0].LastSyncTimestamp)
	assert.Equal(t, last, *sessions[0].LastSyncTimestamp)

	assert.Nil(t, sessions[1].LastSyncTimestamp)
	assert.Empty(t, sessions[1].FacilityID)
	assert.Equal(t, models.RoleAdministrator, sessions[1].Role)
}

func TestRecentConflicts(t *testing.T) {
	repo, mock := newTestStatusRepo(t)
	ts := testWindowFrom.Add(time.Minute)

	mock.ExpectQuery(regexp.QuoteMeta("FROM sync_conflicts WHERE created_at >= $1 AND user_id = $2 ORDER BY created_at DESC LIMIT 5")).
		WithArgs(testWindowFrom, "u1").
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "collection", "document_id", "server_data", "client_data", "resolved_data",
			"strategy", "device_id", "user_id", "facility_id", "created_at",
		}).AddRow("c1", "patients", "p1", []byte(`{"a":1}`), []byte(`{"a":2}`), []byte(`{"a":1}`),
			"server_wins", "d1", "u1", "f1", ts))

	records, err := repo.RecentConflicts(context.Background(), models.StatusWindow{
		From:         testWindowFrom,
		StatusFilter: models.StatusFilter{UserID: "u1"},
	}, 5)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, float64(2), records[0].ClientData["a"])
	assert.Equal(t, "server_wins", records[0].Strategy)
	assert.Equal(t, ts, records[0].Timestamp)
}

// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/MKhiriev/go-facility-sync/internal/mock"
	"github.com/MKhiriev/go-facility-sync/internal/store"
	"github.com/MKhiriev/go-facility-sync/internal/validators"
	"github.com/MKhiriev/go-facility-sync/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

type statusCounts struct {
	sessions      int
	byCollection  map[string]int
	queue         models.QueueCounts
	conflicts     int
	notifications models.NotificationCounts
	deletions     int
}

func newTestStatusService(t *testing.T) (*statusService, *mock.MockStatusRepository, *mock.MockPresenceTracker) {
	t.Helper()

	ctrl := gomock.NewController(t)
	repo := mock.NewMockStatusRepository(ctrl)
	presence := mock.NewMockPresenceTracker(ctrl)

	svc := NewStatusService(repo, presence, testPolicy()).(*statusService)
	svc.now = func() time.Time { return t1 }

	return svc, repo, presence
}

func expectCounts(repo *mock.MockStatusRepository, c statusCounts) {
	repo.EXPECT().CountSessions(gomock.Any(), gomock.Any()).Return(c.sessions, nil)
	repo.EXPECT().CountSessionsByCollection(gomock.Any(), gomock.Any()).Return(c.byCollection, nil)
	repo.EXPECT().CountQueue(gomock.Any(), gomock.Any()).Return(c.queue, nil)
	repo.EXPECT().CountConflicts(gomock.Any(), gomock.Any()).Return(c.conflicts, nil)
	repo.EXPECT().CountNotifications(gomock.Any(), gomock.Any()).Return(c.notifications, nil)
	repo.EXPECT().CountDeletions(gomock.Any(), gomock.Any()).Return(c.deletions, nil)
	repo.EXPECT().RecentSessions(gomock.Any(), gomock.Any(), recentDetailsLimit).Return([]models.SyncSessionLog{}, nil)
	repo.EXPECT().RecentConflicts(gomock.Any(), gomock.Any(), recentDetailsLimit).Return([]models.ConflictRecord{}, nil)
}

// ─────────────────────────────────────────────
// Summarize
// ─────────────────────────────────────────────

func TestSummarize_HighFailureRateAndConflicts_IsDegraded(t *testing.T) {
	svc, repo, presence := newTestStatusService(t)
	expectCounts(repo, statusCounts{
		sessions:     40,
		byCollection: map[string]int{"patients": 40, "vaccines": 12},
		queue:        models.QueueCounts{Succeeded: 88, Failed: 12},
		conflicts:    30,
		notifications: models.NotificationCounts{
			Pending:   2,
			Delivered: 10,
		},
		deletions: 3,
	})
	presence.EXPECT().ListActive(gomock.Any(), t1.Add(-300*time.Second), models.StatusFilter{}).
		Return([]models.Presence{{DeviceID: "dev-1"}, {DeviceID: "dev-2"}}, nil)

	summary, err := svc.Summarize(context.Background(), 0, models.StatusFilter{})

	require.NoError(t, err)
	assert.Equal(t, models.HealthDegraded, summary.Health)
	assert.Equal(t, 12.0, summary.Metrics.FailureRate)
	assert.Equal(t, 30, summary.Metrics.Conflicts)
	assert.Equal(t, 40, summary.Metrics.TotalSyncs)
	assert.Equal(t, 12, summary.Metrics.CollectionSyncs["vaccines"])
	assert.Equal(t, 2, summary.Metrics.ActiveSessions)
	assert.Equal(t, 3, summary.Metrics.Deletions)
	assert.Equal(t, 2, summary.Metrics.Notifications.Pending)
	assert.Equal(t, t1, summary.GeneratedAt)
	assert.Equal(t, t1.Add(-time.Hour), summary.WindowFrom)
}

func TestSummarize_WindowAndFilterReachTheRepository(t *testing.T) {
	svc, repo, presence := newTestStatusService(t)
	filter := models.StatusFilter{DeviceID: "dev-1", FacilityID: "F1"}

	repo.EXPECT().CountSessions(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, w models.StatusWindow) (int, error) {
		assert.Equal(t, t1.Add(-15*time.Minute), w.From)
		assert.Equal(t, t1, w.To)
		assert.Equal(t, filter, w.StatusFilter)
		return 0, nil
	})
	repo.EXPECT().CountSessionsByCollection(gomock.Any(), gomock.Any()).Return(map[string]int{}, nil)
	repo.EXPECT().CountQueue(gomock.Any(), gomock.Any()).Return(models.QueueCounts{}, nil)
	repo.EXPECT().CountConflicts(gomock.Any(), gomock.Any()).Return(0, nil)
	repo.EXPECT().CountNotifications(gomock.Any(), gomock.Any()).Return(models.NotificationCounts{}, nil)
	repo.EXPECT().CountDeletions(gomock.Any(), gomock.Any()).Return(0, nil)
	repo.EXPECT().RecentSessions(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, nil)
	repo.EXPECT().RecentConflicts(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, nil)
	presence.EXPECT().ListActive(gomock.Any(), gomock.Any(), filter).Return(nil, nil)

	summary, err := svc.Summarize(context.Background(), 15, filter)

	require.NoError(t, err)
	assert.Equal(t, models.HealthHealthy, summary.Health)
	assert.Equal(t, 0.0, summary.Metrics.FailureRate)
}

func TestSummarize_PresenceOutageIsTolerated(t *testing.T) {
	svc, repo, presence := newTestStatusService(t)
	expectCounts(repo, statusCounts{queue: models.QueueCounts{Succeeded: 97, Failed: 3}})
	presence.EXPECT().ListActive(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, store.ErrPresenceUnavailable)

	summary, err := svc.Summarize(context.Background(), 60, models.StatusFilter{})

	require.NoError(t, err)
	assert.Equal(t, models.HealthWarning, summary.Health)
	assert.Equal(t, 0, summary.Metrics.ActiveSessions)
	assert.NotNil(t, summary.Details.ActiveSessions)
}

func TestSummarize_InvalidWindow(t *testing.T) {
	for _, mins := range []int{-1, validators.MaxStatusWindowMinutes + 1} {
		svc, _, _ := newTestStatusService(t)

		_, err := svc.Summarize(context.Background(), mins, models.StatusFilter{})

		assert.True(t, errors.Is(err, ErrValidation), "sinceMinutes=%d", mins)
	}
}

func TestSummarize_RepositoryFailure_IsSystemError(t *testing.T) {
	svc, repo, _ := newTestStatusService(t)
	repo.EXPECT().CountSessions(gomock.Any(), gomock.Any()).Return(0, store.ErrStoreUnavailable)

	_, err := svc.Summarize(context.Background(), 5, models.StatusFilter{})

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrSystem))
	assert.Equal(t, CodeSystem, CodeOf(err))
}

// ─────────────────────────────────────────────
// FailureRate / Classify
// ─────────────────────────────────────────────

func TestFailureRate(t *testing.T) {
	tests := []struct {
		name string
		q    models.QueueCounts
		want float64
	}{
		{"empty queue", models.QueueCounts{}, 0},
		{"all good", models.QueueCounts{Succeeded: 10}, 0},
		{"twelve percent", models.QueueCounts{Succeeded: 88, Failed: 12}, 12},
		{"rounded to two decimals", models.QueueCounts{Succeeded: 2, Failed: 1}, 33.33},
		{"all failed", models.QueueCounts{Failed: 4}, 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FailureRate(tt.q))
		})
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name        string
		failureRate float64
		conflicts   int
		want        models.Health
	}{
		{"quiet", 0, 0, models.HealthHealthy},
		{"at warning thresholds", 2, 5, models.HealthHealthy},
		{"failure rate warning", 2.01, 0, models.HealthWarning},
		{"conflict warning", 0, 6, models.HealthWarning},
		{"at degraded thresholds", 10, 25, models.HealthWarning},
		{"failure rate degraded", 10.5, 0, models.HealthDegraded},
		{"conflicts degraded", 0, 26, models.HealthDegraded},
		{"both degraded", 12, 30, models.HealthDegraded},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.failureRate, tt.conflicts))
		})
	}
}

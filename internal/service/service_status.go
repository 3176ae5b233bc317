package service

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/MKhiriev/go-facility-sync/internal/config"
	"github.com/MKhiriev/go-facility-sync/internal/logger"
	"github.com/MKhiriev/go-facility-sync/internal/store"
	"github.com/MKhiriev/go-facility-sync/internal/validators"
	"github.com/MKhiriev/go-facility-sync/models"
)

const (
	defaultSummaryWindowMinutes = 60
	recentDetailsLimit          = 10
)

// Health thresholds, checked from the worst state down.
const (
	degradedFailureRate = 10.0
	degradedConflicts   = 25
	warningFailureRate  = 2.0
	warningConflicts    = 5
)

type statusService struct {
	repo     store.StatusRepository
	presence store.PresenceTracker

	activeWindow time.Duration
	now          func() time.Time
	validator    validators.Validator
}

func NewStatusService(repo store.StatusRepository, presence store.PresenceTracker, policy config.SyncPolicy) StatusService {
	return &statusService{
		repo:         repo,
		presence:     presence,
		activeWindow: policy.ActiveSessionWindow,
		now:          time.Now,
		validator:    validators.NewSyncValidator(),
	}
}

// Summarize computes sync health over the last sinceMinutes minutes.
// Zero selects the default window of one hour.
func (s *statusService) Summarize(ctx context.Context, sinceMinutes int, filter models.StatusFilter) (models.SyncHealthSummary, error) {
	log := logger.FromContext(ctx)

	if err := s.validator.Validate(ctx, models.StatusQuery{SinceMinutes: sinceMinutes, StatusFilter: filter}); err != nil {
		return models.SyncHealthSummary{}, fmt.Errorf("%w: %w", ErrValidation, err)
	}
	if sinceMinutes == 0 {
		sinceMinutes = defaultSummaryWindowMinutes
	}

	now := s.now().UTC()
	window := models.StatusWindow{
		From:         now.Add(-time.Duration(sinceMinutes) * time.Minute),
		To:           now,
		StatusFilter: filter,
	}

	var (
		m       models.StatusMetrics
		details models.StatusDetails
		err     error
	)

	if m.TotalSyncs, err = s.repo.CountSessions(ctx, window); err != nil {
		return models.SyncHealthSummary{}, s.fail(log, "count sessions", err)
	}
	if m.CollectionSyncs, err = s.repo.CountSessionsByCollection(ctx, window); err != nil {
		return models.SyncHealthSummary{}, s.fail(log, "count sessions by collection", err)
	}

	queue, err := s.repo.CountQueue(ctx, window)
	if err != nil {
		return models.SyncHealthSummary{}, s.fail(log, "count queue", err)
	}
	m.QueueSucceeded = queue.Succeeded
	m.QueueFailed = queue.Failed
	m.FailureRate = FailureRate(queue)

	if m.Conflicts, err = s.repo.CountConflicts(ctx, window); err != nil {
		return models.SyncHealthSummary{}, s.fail(log, "count conflicts", err)
	}
	if m.Notifications, err = s.repo.CountNotifications(ctx, window); err != nil {
		return models.SyncHealthSummary{}, s.fail(log, "count notifications", err)
	}
	if m.Deletions, err = s.repo.CountDeletions(ctx, window); err != nil {
		return models.SyncHealthSummary{}, s.fail(log, "count deletions", err)
	}

	if details.RecentSyncs, err = s.repo.RecentSessions(ctx, window, recentDetailsLimit); err != nil {
		return models.SyncHealthSummary{}, s.fail(log, "recent sessions", err)
	}
	if details.RecentConflicts, err = s.repo.RecentConflicts(ctx, window, recentDetailsLimit); err != nil {
		return models.SyncHealthSummary{}, s.fail(log, "recent conflicts", err)
	}

	// presence is advisory: an outage reports no active sessions
	details.ActiveSessions, err = s.presence.ListActive(ctx, now.Add(-s.activeWindow), filter)
	if err != nil {
		log.Warn().Err(err).Str("func", "statusService.Summarize").Msg("failed to list active sessions")
		details.ActiveSessions = []models.Presence{}
	}
	m.ActiveSessions = len(details.ActiveSessions)

	return models.SyncHealthSummary{
		Health:      Classify(m.FailureRate, m.Conflicts),
		GeneratedAt: now,
		WindowFrom:  window.From,
		Metrics:     m,
		Details:     details,
	}, nil
}

func (s *statusService) fail(log *logger.Logger, step string, err error) error {
	log.Err(err).Str("func", "statusService.Summarize").Str("step", step).Msg("failed to summarize sync status")
	return fmt.Errorf("%w: %s: %w", ErrSystem, step, err)
}

// FailureRate is the percentage of failed queue jobs, rounded to two
// decimals. An empty queue has a failure rate of zero.
func FailureRate(q models.QueueCounts) float64 {
	total := q.Succeeded + q.Failed
	if total == 0 {
		return 0
	}
	return math.Round(float64(q.Failed)/float64(total)*10000) / 100
}

// Classify applies the health ladder. Degraded is checked first, so a
// window that qualifies for both reports degraded.
func Classify(failureRate float64, conflicts int) models.Health {
	switch {
	case failureRate > degradedFailureRate || conflicts > degradedConflicts:
		return models.HealthDegraded
	case failureRate > warningFailureRate || conflicts > warningConflicts:
		return models.HealthWarning
	default:
		return models.HealthHealthy
	}
}

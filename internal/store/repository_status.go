package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/MKhiriev/go-facility-sync/internal/config"
	"github.com/MKhiriev/go-facility-sync/internal/logger"
	"github.com/MKhiriev/go-facility-sync/models"
)

// Status values of the queue and notification log tables.
const (
	queueStatusSuccess = "success"
	queueStatusFailed  = "failed"

	notificationPending     = "pending"
	notificationDelivered   = "delivered"
	notificationUndelivered = "undelivered"
)

// statusRepository runs the read-only aggregate queries behind the status
// summary.
type statusRepository struct {
	*DB
	tables config.LogTables
}

func NewStatusRepository(db *DB, tables config.LogTables) StatusRepository {
	return &statusRepository{DB: db, tables: tables}
}

func (s *statusRepository) count(ctx context.Context, fn, table, timeColumn string, w models.StatusWindow, cols filterColumns) (int, error) {
	query, args, err := buildCountQuery(table, timeColumn, w, cols)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	var n int
	if err = s.DB.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		logger.FromContext(ctx).Err(err).
			Str("func", fn).
			Str("table", table).
			Msg("failed to execute count query")
		return 0, s.queryError(ErrExecutingQuery, err)
	}
	return n, nil
}

func (s *statusRepository) CountSessions(ctx context.Context, w models.StatusWindow) (int, error) {
	return s.count(ctx, "statusRepository.CountSessions", s.tables.Sessions, "sync_timestamp", w, sessionFilter)
}

func (s *statusRepository) CountConflicts(ctx context.Context, w models.StatusWindow) (int, error) {
	return s.count(ctx, "statusRepository.CountConflicts", s.tables.Conflicts, "created_at", w, sessionFilter)
}

// CountDeletions only honours the facility filter: ledger entries are not
// attributed to a device or user.
func (s *statusRepository) CountDeletions(ctx context.Context, w models.StatusWindow) (int, error) {
	return s.count(ctx, "statusRepository.CountDeletions", s.tables.Deletions, "deleted_at", w, deletionFilter)
}

// CountSessionsByCollection returns how many sessions in the window
// included each collection.
func (s *statusRepository) CountSessionsByCollection(ctx context.Context, w models.StatusWindow) (map[string]int, error) {
	log := logger.FromContext(ctx)

	query, args, err := buildCountSessionsByCollectionQuery(s.tables.Sessions, w)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	rows, err := s.DB.QueryContext(ctx, query, args...)
	if err != nil {
		log.Err(err).Str("func", "statusRepository.CountSessionsByCollection").Msg("failed to execute query")
		return nil, s.queryError(ErrExecutingQuery, err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var (
			collection string
			n          int
		)
		if err = rows.Scan(&collection, &n); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrScanningRow, err)
		}
		counts[collection] = n
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrScanningRows, err)
	}

	return counts, nil
}

// RecentSessions returns the newest sessions of the window, newest first.
func (s *statusRepository) RecentSessions(ctx context.Context, w models.StatusWindow, limit int) ([]models.SyncSessionLog, error) {
	log := logger.FromContext(ctx)

	query, args, err := buildRecentSessionsQuery(s.tables.Sessions, w, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	rows, err := s.DB.QueryContext(ctx, query, args...)
	if err != nil {
		log.Err(err).Str("func", "statusRepository.RecentSessions").Msg("failed to execute query")
		return nil, s.queryError(ErrExecutingQuery, err)
	}
	defer rows.Close()

	sessions := make([]models.SyncSessionLog, 0, limit)
	for rows.Next() {
		var (
			session     models.SyncSessionLog
			facilityID  sql.NullString
			lastSync    sql.NullTime
			collections []byte
			role        string
			status      string
		)
		err = rows.Scan(
			&session.ID,
			&session.DeviceID,
			&session.UserID,
			&facilityID,
			&role,
			&session.SyncTimestamp,
			&lastSync,
			&collections,
			&status,
			&session.ExecutionTimeMs,
		)
		if err != nil {
			log.Err(err).Str("func", "statusRepository.RecentSessions").Msg("failed to scan session row")
			return nil, fmt.Errorf("%w: %w", ErrScanningRow, err)
		}

		session.FacilityID = facilityID.String
		session.Role = models.Role(role)
		session.Status = models.SessionStatus(status)
		if lastSync.Valid {
			t := lastSync.Time
			session.LastSyncTimestamp = &t
		}
		if err = json.Unmarshal(collections, &session.Collections); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrMarshallingPayload, err)
		}

		sessions = append(sessions, session)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrScanningRows, err)
	}

	return sessions, nil
}

// RecentConflicts returns the newest conflict records of the window.
func (s *statusRepository) RecentConflicts(ctx context.Context, w models.StatusWindow, limit int) ([]models.ConflictRecord, error) {
	log := logger.FromContext(ctx)

	query, args, err := buildRecentConflictsQuery(s.tables.Conflicts, w, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	rows, err := s.DB.QueryContext(ctx, query, args...)
	if err != nil {
		log.Err(err).Str("func", "statusRepository.RecentConflicts").Msg("failed to execute query")
		return nil, s.queryError(ErrExecutingQuery, err)
	}
	defer rows.Close()

	records := make([]models.ConflictRecord, 0, limit)
	for rows.Next() {
		var (
			record                   models.ConflictRecord
			server, client, resolved []byte
			facilityID               sql.NullString
		)
		err = rows.Scan(
			&record.ID,
			&record.Collection,
			&record.DocumentID,
			&server,
			&client,
			&resolved,
			&record.Strategy,
			&record.DeviceID,
			&record.UserID,
			&facilityID,
			&record.Timestamp,
		)
		if err != nil {
			log.Err(err).Str("func", "statusRepository.RecentConflicts").Msg("failed to scan conflict row")
			return nil, fmt.Errorf("%w: %w", ErrScanningRow, err)
		}
		record.FacilityID = facilityID.String

		for _, field := range []struct {
			raw []byte
			dst *models.Fields
		}{{server, &record.ServerData}, {client, &record.ClientData}, {resolved, &record.ResolvedData}} {
			if err = json.Unmarshal(field.raw, field.dst); err != nil {
				return nil, fmt.Errorf("%w: %w", ErrMarshallingPayload, err)
			}
		}

		records = append(records, record)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrScanningRows, err)
	}

	return records, nil
}

// CountQueue returns the success and failure counts of background sync jobs.
func (s *statusRepository) CountQueue(ctx context.Context, w models.StatusWindow) (models.QueueCounts, error) {
	query, args, err := buildStatusBreakdownQuery(s.tables.Queue, w, queueStatusSuccess, queueStatusFailed)
	if err != nil {
		return models.QueueCounts{}, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	var counts models.QueueCounts
	if err = s.DB.QueryRowContext(ctx, query, args...).Scan(&counts.Succeeded, &counts.Failed); err != nil {
		logger.FromContext(ctx).Err(err).Str("func", "statusRepository.CountQueue").Msg("failed to count queue log")
		return models.QueueCounts{}, s.queryError(ErrExecutingQuery, err)
	}

	return counts, nil
}

// CountNotifications returns the delivery-state breakdown of notifications.
func (s *statusRepository) CountNotifications(ctx context.Context, w models.StatusWindow) (models.NotificationCounts, error) {
	query, args, err := buildStatusBreakdownQuery(s.tables.Notifications, w,
		notificationPending, notificationDelivered, notificationUndelivered)
	if err != nil {
		return models.NotificationCounts{}, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	var counts models.NotificationCounts
	err = s.DB.QueryRowContext(ctx, query, args...).Scan(&counts.Pending, &counts.Delivered, &counts.Undelivered)
	if err != nil {
		logger.FromContext(ctx).Err(err).Str("func", "statusRepository.CountNotifications").Msg("failed to count notification log")
		return models.NotificationCounts{}, s.queryError(ErrExecutingQuery, err)
	}

	return counts, nil
}

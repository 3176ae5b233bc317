package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/MKhiriev/go-facility-sync/internal/config"
	"github.com/MKhiriev/go-facility-sync/internal/logger"
	"github.com/MKhiriev/go-facility-sync/models"
	"github.com/jackc/pgerrcode"
)

// auditRepository appends conflict and session records to the configured
// log tables. Rows are never updated or deleted.
type auditRepository struct {
	*DB
	tables config.LogTables
}

func NewAuditRepository(db *DB, tables config.LogTables) AuditRepository {
	return &auditRepository{DB: db, tables: tables}
}

// SaveConflict appends one conflict record.
func (a *auditRepository) SaveConflict(ctx context.Context, record models.ConflictRecord) error {
	log := logger.FromContext(ctx)

	server, err := json.Marshal(record.ServerData)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrMarshallingPayload, err)
	}
	client, err := json.Marshal(record.ClientData)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrMarshallingPayload, err)
	}
	resolved, err := json.Marshal(record.ResolvedData)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrMarshallingPayload, err)
	}

	query, args, err := buildInsertConflictQuery(a.tables.Conflicts, record, server, client, resolved)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	if _, err = a.DB.ExecContext(ctx, query, args...); err != nil {
		event := log.Err(err).
			Str("func", "auditRepository.SaveConflict").
			Str("collection", record.Collection).
			Str("document_id", record.DocumentID)
		if postgresError(err) == pgerrcode.UndefinedTable {
			event = event.Str("table", a.tables.Conflicts)
		}
		event.Msg("failed to save conflict record")
		return a.queryError(ErrExecutingStatement, err)
	}

	return nil
}

// SaveSession appends one sync session record.
func (a *auditRepository) SaveSession(ctx context.Context, session models.SyncSessionLog) error {
	log := logger.FromContext(ctx)

	// collections is read back with jsonb_array_elements_text, so it must
	// always be an array
	names := session.Collections
	if names == nil {
		names = []string{}
	}
	collections, err := json.Marshal(names)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrMarshallingPayload, err)
	}

	query, args, err := buildInsertSessionQuery(a.tables.Sessions, session, collections)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	if _, err = a.DB.ExecContext(ctx, query, args...); err != nil {
		event := log.Err(err).
			Str("func", "auditRepository.SaveSession").
			Str("session_id", session.ID)
		if postgresError(err) == pgerrcode.UndefinedTable {
			event = event.Str("table", a.tables.Sessions)
		}
		event.Msg("failed to save sync session")
		return a.queryError(ErrExecutingStatement, err)
	}

	return nil
}

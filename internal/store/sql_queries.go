package store

import (
	"time"

	"github.com/MKhiriev/go-facility-sync/models"
	sq "github.com/Masterminds/squirrel"
)

const (
	documentColumns = `id, collection, facility_id, data, created_at, updated_at`

	getDocument = `SELECT ` + documentColumns + `
		FROM documents
		WHERE collection = $1 AND id = $2;`

	createDocument = `INSERT INTO documents (collection, id, facility_id, data)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (collection, id) DO NOTHING
		RETURNING ` + documentColumns + `;`

	// updated_at uses clock_timestamp() so that two writes inside one
	// transaction still get distinct timestamps.
	updateDocument = `UPDATE documents
		SET facility_id = $3, data = $4, updated_at = clock_timestamp()
		WHERE collection = $1 AND id = $2
		RETURNING ` + documentColumns + `;`

	currentTime = `SELECT clock_timestamp();`

	deleteDocument = `DELETE FROM documents
		WHERE collection = $1 AND id = $2
		RETURNING facility_id;`
)

// buildListDocumentsQuery selects one page of documents changed after
// q.UpdatedAfter, ordered by id so that AfterID can resume the scan.
func buildListDocumentsQuery(q models.DocumentQuery) (string, []any, error) {
	b := psql.Select(documentColumns).
		From("documents").
		Where(sq.Eq{"collection": q.Collection}).
		Where(sq.Gt{"updated_at": q.UpdatedAfter})

	b = withFacilityScope(b, "facility_id", q.Scope)

	if q.AfterID != nil {
		b = b.Where(sq.Gt{"id": *q.AfterID})
	}

	b = b.OrderBy("id ASC")
	if q.Limit > 0 {
		b = b.Limit(uint64(q.Limit))
	}

	return b.ToSql()
}

func buildCountDocumentsQuery(q models.DocumentQuery) (string, []any, error) {
	b := psql.Select("count(*)").
		From("documents").
		Where(sq.Eq{"collection": q.Collection}).
		Where(sq.Gt{"updated_at": q.UpdatedAfter})

	b = withFacilityScope(b, "facility_id", q.Scope)
	if q.AfterID != nil {
		b = b.Where(sq.Gt{"id": *q.AfterID})
	}

	return b.ToSql()
}

func buildListDeletionsQuery(table, collection string, since time.Time, scope models.FacilityScope, limit int) (string, []any, error) {
	b := psql.Select("collection", "document_id", "facility_id", "deleted_at").
		From(table).
		Where(sq.Eq{"collection": collection}).
		Where(sq.Gt{"deleted_at": since})

	b = withFacilityScope(b, "facility_id", scope).OrderBy("deleted_at ASC", "document_id ASC")
	if limit > 0 {
		b = b.Limit(uint64(limit))
	}

	return b.ToSql()
}

func buildInsertDeletionQuery(table string, entry models.DeletionEntry) (string, []any, error) {
	return psql.Insert(table).
		Columns("collection", "document_id", "facility_id").
		Values(entry.Collection, entry.DocumentID, nullString(entry.FacilityID)).
		Suffix("RETURNING deleted_at").
		ToSql()
}

func buildInsertConflictQuery(table string, record models.ConflictRecord, server, client, resolved []byte) (string, []any, error) {
	return psql.Insert(table).
		Columns(
			"id",
			"collection",
			"document_id",
			"server_data",
			"client_data",
			"resolved_data",
			"strategy",
			"device_id",
			"user_id",
			"facility_id",
			"created_at",
		).
		Values(
			record.ID,
			record.Collection,
			record.DocumentID,
			server,
			client,
			resolved,
			record.Strategy,
			record.DeviceID,
			record.UserID,
			nullString(record.FacilityID),
			record.Timestamp,
		).
		ToSql()
}

func buildInsertSessionQuery(table string, session models.SyncSessionLog, collections []byte) (string, []any, error) {
	return psql.Insert(table).
		Columns(
			"id",
			"device_id",
			"user_id",
			"facility_id",
			"role",
			"sync_timestamp",
			"last_sync_timestamp",
			"collections",
			"status",
			"execution_time_ms",
		).
		Values(
			session.ID,
			session.DeviceID,
			session.UserID,
			nullString(session.FacilityID),
			string(session.Role),
			session.SyncTimestamp,
			session.LastSyncTimestamp,
			collections,
			string(session.Status),
			session.ExecutionTimeMs,
		).
		ToSql()
}

// filterColumns names the columns a status window filter applies to.
// An empty name disables that filter for the table.
type filterColumns struct {
	device   string
	user     string
	facility string
}

var (
	sessionFilter  = filterColumns{device: "device_id", user: "user_id", facility: "facility_id"}
	deletionFilter = filterColumns{facility: "facility_id"}
)

func withWindow(b sq.SelectBuilder, timeColumn string, w models.StatusWindow, cols filterColumns) sq.SelectBuilder {
	b = b.Where(sq.GtOrEq{timeColumn: w.From})
	if !w.To.IsZero() {
		b = b.Where(sq.LtOrEq{timeColumn: w.To})
	}
	if w.DeviceID != "" && cols.device != "" {
		b = b.Where(sq.Eq{cols.device: w.DeviceID})
	}
	if w.UserID != "" && cols.user != "" {
		b = b.Where(sq.Eq{cols.user: w.UserID})
	}
	if w.FacilityID != "" && cols.facility != "" {
		b = b.Where(sq.Eq{cols.facility: w.FacilityID})
	}
	return b
}

func withFacilityScope(b sq.SelectBuilder, column string, scope models.FacilityScope) sq.SelectBuilder {
	if scope.All {
		return b
	}
	return b.Where(sq.Eq{column: scope.FacilityID})
}

func buildCountQuery(table, timeColumn string, w models.StatusWindow, cols filterColumns) (string, []any, error) {
	return withWindow(psql.Select("count(*)").From(table), timeColumn, w, cols).ToSql()
}

func buildCountSessionsByCollectionQuery(table string, w models.StatusWindow) (string, []any, error) {
	b := psql.Select("c.collection", "count(*)").
		From(table + " s").
		JoinClause("CROSS JOIN LATERAL jsonb_array_elements_text(s.collections) AS c(collection)")

	cols := filterColumns{device: "s.device_id", user: "s.user_id", facility: "s.facility_id"}
	return withWindow(b, "s.sync_timestamp", w, cols).GroupBy("c.collection").ToSql()
}

func buildRecentSessionsQuery(table string, w models.StatusWindow, limit int) (string, []any, error) {
	b := psql.Select(
		"id",
		"device_id",
		"user_id",
		"facility_id",
		"role",
		"sync_timestamp",
		"last_sync_timestamp",
		"collections",
		"status",
		"execution_time_ms",
	).From(table)

	return withWindow(b, "sync_timestamp", w, sessionFilter).
		OrderBy("sync_timestamp DESC").
		Limit(uint64(limit)).
		ToSql()
}

func buildRecentConflictsQuery(table string, w models.StatusWindow, limit int) (string, []any, error) {
	b := psql.Select(
		"id",
		"collection",
		"document_id",
		"server_data",
		"client_data",
		"resolved_data",
		"strategy",
		"device_id",
		"user_id",
		"facility_id",
		"created_at",
	).From(table)

	return withWindow(b, "created_at", w, sessionFilter).
		OrderBy("created_at DESC").
		Limit(uint64(limit)).
		ToSql()
}

// buildStatusBreakdownQuery counts rows per status value in one pass.
func buildStatusBreakdownQuery(table string, w models.StatusWindow, statuses ...string) (string, []any, error) {
	columns := make([]string, 0, len(statuses))
	for _, status := range statuses {
		// statuses are compile-time constants, never user input
		columns = append(columns, "count(*) FILTER (WHERE status = '"+status+"')")
	}

	return withWindow(psql.Select(columns...).From(table), "created_at", w, sessionFilter).ToSql()
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

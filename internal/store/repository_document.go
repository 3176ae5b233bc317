package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/MKhiriev/go-facility-sync/internal/config"
	"github.com/MKhiriev/go-facility-sync/internal/logger"
	"github.com/MKhiriev/go-facility-sync/models"
)

// documentRepository is the PostgreSQL-backed implementation of
// [DocumentStore] and [DeletionLedger]. Documents live in a single
// "documents" table keyed by (collection, id) with the payload in a jsonb
// column; deletions are appended to the configured ledger table.
type documentRepository struct {
	*DB
	ledgerTable string
}

// NewDocumentRepository constructs a [DocumentStore] whose deletions are
// appended to tables.Deletions.
func NewDocumentRepository(db *DB, tables config.LogTables) DocumentStore {
	return &documentRepository{
		DB:          db,
		ledgerTable: tables.Deletions,
	}
}

// NewDeletionLedger constructs the read side of the deletion ledger.
func NewDeletionLedger(db *DB, tables config.LogTables) DeletionLedger {
	return &documentRepository{
		DB:          db,
		ledgerTable: tables.Deletions,
	}
}

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanDocument(row rowScanner) (models.Document, error) {
	var (
		doc        models.Document
		facilityID sql.NullString
		payload    []byte
	)

	if err := row.Scan(&doc.ID, &doc.Collection, &facilityID, &payload, &doc.CreatedAt, &doc.UpdatedAt); err != nil {
		return models.Document{}, err
	}

	doc.FacilityID = facilityID.String
	if err := json.Unmarshal(payload, &doc.Data); err != nil {
		return models.Document{}, fmt.Errorf("%w: %w", ErrMarshallingPayload, err)
	}
	if doc.Data == nil {
		doc.Data = models.Fields{}
	}

	return doc, nil
}

// GetDocument returns the document stored under (collection, documentID).
func (r *documentRepository) GetDocument(ctx context.Context, collection, documentID string) (models.Document, error) {
	log := logger.FromContext(ctx)

	doc, err := scanDocument(r.DB.QueryRowContext(ctx, getDocument, collection, documentID))
	if errors.Is(err, sql.ErrNoRows) {
		return models.Document{}, ErrDocumentNotFound
	}
	if err != nil {
		log.Err(err).
			Str("func", "documentRepository.GetDocument").
			Str("collection", collection).
			Str("document_id", documentID).
			Msg("failed to get document")
		return models.Document{}, r.queryError(ErrExecutingQuery, err)
	}

	return doc, nil
}

// CreateDocument inserts doc. If a document with the same key already
// exists the insert is skipped and the stored document is returned, so a
// replayed create never fails.
func (r *documentRepository) CreateDocument(ctx context.Context, doc models.Document) (models.Document, error) {
	log := logger.FromContext(ctx)

	payload, err := json.Marshal(doc.Data.WithoutSystemFields())
	if err != nil {
		return models.Document{}, fmt.Errorf("%w: %w", ErrMarshallingPayload, err)
	}

	created, err := scanDocument(r.DB.QueryRowContext(ctx, createDocument,
		doc.Collection, doc.ID, nullString(doc.FacilityID), payload))
	if errors.Is(err, sql.ErrNoRows) {
		log.Debug().
			Str("func", "documentRepository.CreateDocument").
			Str("collection", doc.Collection).
			Str("document_id", doc.ID).
			Msg("document already exists, returning stored version")
		return r.GetDocument(ctx, doc.Collection, doc.ID)
	}
	if err != nil {
		log.Err(err).
			Str("func", "documentRepository.CreateDocument").
			Str("collection", doc.Collection).
			Str("document_id", doc.ID).
			Msg("failed to insert document")
		return models.Document{}, r.queryError(ErrExecutingStatement, err)
	}

	log.Info().
		Str("func", "documentRepository.CreateDocument").
		Str("collection", created.Collection).
		Str("document_id", created.ID).
		Msg("document created")

	return created, nil
}

// UpdateDocument replaces the payload of an existing document and bumps its
// updated_at.
func (r *documentRepository) UpdateDocument(ctx context.Context, doc models.Document) (models.Document, error) {
	log := logger.FromContext(ctx)

	payload, err := json.Marshal(doc.Data.WithoutSystemFields())
	if err != nil {
		return models.Document{}, fmt.Errorf("%w: %w", ErrMarshallingPayload, err)
	}

	updated, err := scanDocument(r.DB.QueryRowContext(ctx, updateDocument,
		doc.Collection, doc.ID, nullString(doc.FacilityID), payload))
	if errors.Is(err, sql.ErrNoRows) {
		log.Warn().
			Str("func", "documentRepository.UpdateDocument").
			Str("collection", doc.Collection).
			Str("document_id", doc.ID).
			Msg("document not found")
		return models.Document{}, ErrDocumentNotFound
	}
	if err != nil {
		log.Err(err).
			Str("func", "documentRepository.UpdateDocument").
			Str("collection", doc.Collection).
			Str("document_id", doc.ID).
			Msg("failed to update document")
		return models.Document{}, r.queryError(ErrExecutingStatement, err)
	}

	return updated, nil
}

// DeleteDocument removes the document and records the deletion in the
// ledger inside one transaction, so a pull never sees the document gone
// without a matching ledger entry.
func (r *documentRepository) DeleteDocument(ctx context.Context, collection, documentID string) (models.DeletionEntry, error) {
	log := logger.FromContext(ctx)

	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		log.Err(err).Str("func", "documentRepository.DeleteDocument").Msg("failed to begin transaction")
		return models.DeletionEntry{}, r.queryError(ErrBeginningTransaction, err)
	}
	defer tx.Rollback()

	var facilityID sql.NullString
	err = tx.QueryRowContext(ctx, deleteDocument, collection, documentID).Scan(&facilityID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.DeletionEntry{}, ErrDocumentNotFound
	}
	if err != nil {
		log.Err(err).
			Str("func", "documentRepository.DeleteDocument").
			Str("collection", collection).
			Str("document_id", documentID).
			Msg("failed to delete document")
		return models.DeletionEntry{}, r.queryError(ErrExecutingStatement, err)
	}

	entry := models.DeletionEntry{
		Collection: collection,
		DocumentID: documentID,
		FacilityID: facilityID.String,
	}

	query, args, err := buildInsertDeletionQuery(r.ledgerTable, entry)
	if err != nil {
		return models.DeletionEntry{}, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}
	if err = tx.QueryRowContext(ctx, query, args...).Scan(&entry.DeletedAt); err != nil {
		log.Err(err).
			Str("func", "documentRepository.DeleteDocument").
			Str("collection", collection).
			Str("document_id", documentID).
			Msg("failed to append deletion ledger entry")
		return models.DeletionEntry{}, r.queryError(ErrExecutingStatement, err)
	}

	if err = tx.Commit(); err != nil {
		log.Err(err).Str("func", "documentRepository.DeleteDocument").Msg("failed to commit transaction")
		return models.DeletionEntry{}, r.queryError(ErrCommitingTransaction, err)
	}

	log.Info().
		Str("func", "documentRepository.DeleteDocument").
		Str("collection", collection).
		Str("document_id", documentID).
		Msg("document deleted")

	return entry, nil
}

// ListDocuments returns one page of documents matching q.
func (r *documentRepository) ListDocuments(ctx context.Context, q models.DocumentQuery) ([]models.Document, error) {
	log := logger.FromContext(ctx)

	query, args, err := buildListDocumentsQuery(q)
	if err != nil {
		log.Err(err).Str("func", "documentRepository.ListDocuments").Msg("failed to create query")
		return nil, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		log.Err(err).
			Str("func", "documentRepository.ListDocuments").
			Str("collection", q.Collection).
			Msg("failed to execute query for listing documents")
		return nil, r.queryError(ErrExecutingQuery, err)
	}
	defer rows.Close()

	docs := make([]models.Document, 0, q.Limit)
	for rows.Next() {
		doc, scanErr := scanDocument(rows)
		if scanErr != nil {
			log.Err(scanErr).
				Str("func", "documentRepository.ListDocuments").
				Str("collection", q.Collection).
				Msg("failed to scan document row")
			return nil, fmt.Errorf("%w: %w", ErrScanningRow, scanErr)
		}
		docs = append(docs, doc)
	}
	if err = rows.Err(); err != nil {
		log.Err(err).Str("func", "documentRepository.ListDocuments").Msg("error iterating document rows")
		return nil, fmt.Errorf("%w: %w", ErrScanningRows, err)
	}

	return docs, nil
}

// CountDocuments counts documents matching q that are still ahead of the
// cursor, regardless of Limit.
func (r *documentRepository) CountDocuments(ctx context.Context, q models.DocumentQuery) (int, error) {
	query, args, err := buildCountDocumentsQuery(q)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	var total int
	if err = r.DB.QueryRowContext(ctx, query, args...).Scan(&total); err != nil {
		logger.FromContext(ctx).Err(err).
			Str("func", "documentRepository.CountDocuments").
			Str("collection", q.Collection).
			Msg("failed to count documents")
		return 0, r.queryError(ErrExecutingQuery, err)
	}

	return total, nil
}

// ListDeletions returns ledger entries of collection newer than since,
// oldest first, capped at limit.
func (r *documentRepository) ListDeletions(ctx context.Context, collection string, since time.Time, scope models.FacilityScope, limit int) ([]models.DeletionEntry, error) {
	log := logger.FromContext(ctx)

	query, args, err := buildListDeletionsQuery(r.ledgerTable, collection, since, scope, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		log.Err(err).
			Str("func", "documentRepository.ListDeletions").
			Str("collection", collection).
			Msg("failed to execute query for listing deletions")
		return nil, r.queryError(ErrExecutingQuery, err)
	}
	defer rows.Close()

	entries := make([]models.DeletionEntry, 0)
	for rows.Next() {
		var (
			entry      models.DeletionEntry
			facilityID sql.NullString
		)
		if scanErr := rows.Scan(&entry.Collection, &entry.DocumentID, &facilityID, &entry.DeletedAt); scanErr != nil {
			log.Err(scanErr).Str("func", "documentRepository.ListDeletions").Msg("failed to scan deletion row")
			return nil, fmt.Errorf("%w: %w", ErrScanningRow, scanErr)
		}
		entry.FacilityID = facilityID.String
		entries = append(entries, entry)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrScanningRows, err)
	}

	return entries, nil
}

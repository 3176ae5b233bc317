// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package service

import (
	"context"
	"fmt"

	"github.com/MKhiriev/go-facility-sync/internal/config"
	"github.com/MKhiriev/go-facility-sync/internal/logger"
	"github.com/MKhiriev/go-facility-sync/internal/store"
	"github.com/MKhiriev/go-facility-sync/models"
)

// pullService builds change sets from the document store and the deletion
// ledger. It keeps no state between calls: the position of a paginated
// pull travels in the [models.SyncCursor].
type pullService struct {
	documents store.DocumentStore
	ledger    store.DeletionLedger
	policy    config.SyncPolicy
}

func NewPullService(documents store.DocumentStore, ledger store.DeletionLedger, policy config.SyncPolicy) PullService {
	return &pullService{
		documents: documents,
		ledger:    ledger,
		policy:    policy,
	}
}

// Pull returns the documents of req.Collection changed after the watermark,
// in id order, starting after the cursor. Pages are fetched until one comes
// back short, req.MaxPages is reached, or everything still ahead of the
// cursor has been returned.
//
// Deletions are read only when there is no cursor, so resuming a pull does
// not replay them.
func (p *pullService) Pull(ctx context.Context, req models.PullRequest) (models.PullResult, error) {
	log := logger.FromContext(ctx)

	if !p.policy.IsKnownCollection(req.Collection) {
		return models.PullResult{}, fmt.Errorf("%w: %q", ErrInvalidCollection, req.Collection)
	}
	if req.Cursor != nil && req.Cursor.Collection != req.Collection {
		return models.PullResult{}, fmt.Errorf("%w: cursor belongs to %q", ErrValidation, req.Cursor.Collection)
	}

	limits := p.policy.LimitsFor(req.Collection)
	pageLimit := max(req.PageLimit, 1)
	maxPages := max(min(req.MaxPages, limits.MaxPages), 1)

	query := models.DocumentQuery{
		Collection:   req.Collection,
		UpdatedAfter: req.LastSyncTimestamp,
		Scope:        req.Scope,
		Limit:        pageLimit,
	}

	startPage := 0
	if req.Cursor != nil {
		query.AfterID = req.Cursor.LastDocumentID
		startPage = req.Cursor.Page
	}

	remaining, err := p.documents.CountDocuments(ctx, query)
	if err != nil {
		return models.PullResult{}, fmt.Errorf("%w: %w", ErrCollectionSync, err)
	}

	result := models.PullResult{
		Updated: make([]models.ChangeRecord, 0, min(remaining, pageLimit*maxPages)),
		Deleted: make([]models.ChangeRecord, 0),
	}

	for remaining > 0 && result.PagesFetched < maxPages {
		docs, err := p.documents.ListDocuments(ctx, query)
		if err != nil {
			return models.PullResult{}, fmt.Errorf("%w: %w", ErrCollectionSync, err)
		}
		result.PagesFetched++

		for _, doc := range docs {
			result.Updated = append(result.Updated, models.ChangeRecord{
				Collection: doc.Collection,
				DocumentID: doc.ID,
				Data:       doc.AsFields(),
				UpdatedAt:  doc.UpdatedAt,
				Operation:  models.OperationUpdate,
			})
		}
		if len(docs) > 0 {
			last := docs[len(docs)-1].ID
			query.AfterID = &last
		}

		if len(docs) < pageLimit || len(result.Updated) >= remaining {
			result.HasMore = false
			break
		}
		result.HasMore = true
	}

	if result.HasMore {
		result.NextCursor = &models.SyncCursor{
			Collection:     req.Collection,
			LastDocumentID: query.AfterID,
			Page:           startPage + result.PagesFetched,
			HasMore:        true,
		}
	}

	if req.Cursor == nil {
		deletions, err := p.ledger.ListDeletions(ctx, req.Collection, req.LastSyncTimestamp, req.Scope, limits.DeletedLimit)
		if err != nil {
			return models.PullResult{}, fmt.Errorf("%w: %w", ErrCollectionSync, err)
		}
		for _, d := range deletions {
			result.Deleted = append(result.Deleted, models.ChangeRecord{
				Collection: d.Collection,
				DocumentID: d.DocumentID,
				UpdatedAt:  d.DeletedAt,
				Operation:  models.OperationDelete,
			})
		}
	}

	log.Debug().
		Str("func", "pullService.Pull").
		Str("collection", req.Collection).
		Int("updated", len(result.Updated)).
		Int("deleted", len(result.Deleted)).
		Int("pages", result.PagesFetched).
		Bool("has_more", result.HasMore).
		Msg("pulled change set")

	return result, nil
}

package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/MKhiriev/go-facility-sync/internal/logger"
	"github.com/MKhiriev/go-facility-sync/internal/store"
	"github.com/MKhiriev/go-facility-sync/internal/validators"
	"github.com/MKhiriev/go-facility-sync/models"
)

type documentService struct {
	documents store.DocumentStore
	access    *AccessPolicy
	validator validators.Validator
}

func NewDocumentService(documents store.DocumentStore, access *AccessPolicy) DocumentService {
	return &documentService{
		documents: documents,
		access:    access,
		validator: validators.NewSyncValidator(),
	}
}

// DeleteDocument removes a document the caller may see. The store appends
// the deletion to the ledger so devices learn about it on their next pull.
func (d *documentService) DeleteDocument(ctx context.Context, caller models.Caller, collection, documentID string) (models.DeletionEntry, error) {
	role, err := d.access.RoleOf(caller)
	if err != nil {
		return models.DeletionEntry{}, err
	}
	if err = d.access.CheckCollection(role, collection); err != nil {
		return models.DeletionEntry{}, err
	}
	key := models.DocumentKey{Collection: collection, DocumentID: documentID}
	if err = d.validator.Validate(ctx, key); err != nil {
		return models.DeletionEntry{}, fmt.Errorf("%w: %w", ErrValidation, err)
	}

	doc, err := d.documents.GetDocument(ctx, collection, documentID)
	if errors.Is(err, store.ErrDocumentNotFound) {
		return models.DeletionEntry{}, fmt.Errorf("%w: %q", ErrNotFound, documentID)
	}
	if err != nil {
		return models.DeletionEntry{}, fmt.Errorf("%w: %w", ErrCollectionSync, err)
	}
	if !d.access.ScopeOf(caller, role).Allows(doc.FacilityID) {
		return models.DeletionEntry{}, fmt.Errorf("%w: document belongs to another facility", ErrAccessDenied)
	}

	entry, err := d.documents.DeleteDocument(ctx, collection, documentID)
	if errors.Is(err, store.ErrDocumentNotFound) {
		return models.DeletionEntry{}, fmt.Errorf("%w: %q", ErrNotFound, documentID)
	}
	if err != nil {
		return models.DeletionEntry{}, fmt.Errorf("%w: %w", ErrCollectionSync, err)
	}

	logger.FromContext(ctx).Info().
		Str("func", "documentService.DeleteDocument").
		Str("collection", collection).
		Str("document_id", documentID).
		Str("user_id", caller.UserID).
		Msg("document deleted")

	return entry, nil
}

// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package service

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"time"

	"github.com/MKhiriev/go-facility-sync/internal/logger"
	"github.com/MKhiriev/go-facility-sync/internal/store"
	"github.com/MKhiriev/go-facility-sync/internal/validators"
	"github.com/MKhiriev/go-facility-sync/models"
)

// reconcileService applies client writes with optimistic, timestamp based
// concurrency: nothing is locked, and a write made against a stale copy is
// resolved by the strategy of its collection.
type reconcileService struct {
	documents  store.DocumentStore
	strategies *StrategyTable
	access     *AccessPolicy
	audit      AuditTrail
	validator  validators.Validator
}

func NewReconcileService(documents store.DocumentStore, strategies *StrategyTable, access *AccessPolicy, audit AuditTrail) ReconcileService {
	return &reconcileService{
		documents:  documents,
		strategies: strategies,
		access:     access,
		audit:      audit,
		validator:  validators.NewSyncValidator(),
	}
}

// Reconcile creates the document when it does not exist, overwrites it when
// the client copy is at least as new as the server copy, and otherwise
// resolves the conflict. A detected conflict is a successful outcome; only
// store failures are returned as errors.
func (r *reconcileService) Reconcile(ctx context.Context, caller models.Caller, req models.ReconcileRequest) (models.ReconcileResult, error) {
	log := logger.FromContext(ctx)

	role, err := r.access.RoleOf(caller)
	if err != nil {
		return models.ReconcileResult{}, err
	}
	if err = r.access.CheckCollection(role, req.Collection); err != nil {
		return models.ReconcileResult{}, err
	}
	if err = r.validator.Validate(ctx, req); err != nil {
		return models.ReconcileResult{}, fmt.Errorf("%w: %w", ErrValidation, err)
	}
	// the token, not the body, names the author of the write
	req.UserID = caller.UserID

	scope := r.access.ScopeOf(caller, role)

	server, err := r.documents.GetDocument(ctx, req.Collection, req.DocumentID)
	if errors.Is(err, store.ErrDocumentNotFound) {
		return r.create(ctx, caller, scope, req)
	}
	if err != nil {
		return models.ReconcileResult{}, fmt.Errorf("%w: %w", ErrCollectionSync, err)
	}

	if !scope.Allows(server.FacilityID) {
		return models.ReconcileResult{}, fmt.Errorf("%w: document belongs to another facility", ErrAccessDenied)
	}

	clientTimestamp, ok := ClientTimestamp(req)
	if !ok {
		log.Warn().
			Str("func", "reconcileService.Reconcile").
			Str("collection", req.Collection).
			Str("document_id", req.DocumentID).
			Msg("client write carries no timestamp, server copy will be treated as newer")
	}

	if !server.UpdatedAt.After(clientTimestamp) {
		return r.update(ctx, scope, server, req)
	}

	return r.resolve(ctx, scope, server, req)
}

// ClientTimestamp returns the time the client copy was edited from:
// the explicit clientTimestamp, else clientData.updatedAt, else
// clientData.$updatedAt. When none is present it returns the zero time and
// false, which makes any existing server copy newer.
func ClientTimestamp(req models.ReconcileRequest) (time.Time, bool) {
	if req.ClientTimestamp != nil {
		return *req.ClientTimestamp, true
	}
	if t, ok := req.ClientData.Time(models.FieldClientUpdatedAt); ok {
		return t, true
	}
	if t, ok := req.ClientData.Time(models.FieldUpdatedAt); ok {
		return t, true
	}
	return time.Time{}, false
}

func (r *reconcileService) create(ctx context.Context, caller models.Caller, scope models.FacilityScope, req models.ReconcileRequest) (models.ReconcileResult, error) {
	data := req.ClientData.WithoutSystemFields()

	facilityID, _ := data.String(models.FieldFacilityID)
	if facilityID == "" && !scope.All {
		facilityID = caller.FacilityID
		data[models.FieldFacilityID] = facilityID
	}
	if !scope.Allows(facilityID) {
		return models.ReconcileResult{}, fmt.Errorf("%w: cannot create a document for another facility", ErrAccessDenied)
	}

	created, err := r.documents.CreateDocument(ctx, models.Document{
		ID:         req.DocumentID,
		Collection: req.Collection,
		FacilityID: facilityID,
		Data:       data,
	})
	if err != nil {
		return models.ReconcileResult{}, fmt.Errorf("%w: %w", ErrCollectionSync, err)
	}
	// a concurrent create may have won the race with another facility's copy
	if !scope.Allows(created.FacilityID) {
		return models.ReconcileResult{}, fmt.Errorf("%w: document belongs to another facility", ErrAccessDenied)
	}

	return models.ReconcileResult{
		Operation:        models.ReconcileCreated,
		ResolvedDocument: created,
		ClientVersion:    req.ClientData,
	}, nil
}

// update is the plain overwrite taken when the client copy is not stale.
func (r *reconcileService) update(ctx context.Context, scope models.FacilityScope, server models.Document, req models.ReconcileRequest) (models.ReconcileResult, error) {
	data := keepFacility(req.ClientData.WithoutSystemFields(), server)

	updated, err := r.write(ctx, scope, server, data)
	if err != nil {
		return models.ReconcileResult{}, err
	}

	return models.ReconcileResult{
		Operation:        models.ReconcileUpdated,
		ResolvedDocument: updated,
		ClientVersion:    req.ClientData,
	}, nil
}

func (r *reconcileService) resolve(ctx context.Context, scope models.FacilityScope, server models.Document, req models.ReconcileRequest) (models.ReconcileResult, error) {
	strategy := r.strategies.For(req.Collection)
	serverFields := server.AsFields()

	resolved := strategy.Resolve(serverFields, req.ClientData, ResolveContext{
		Collection: req.Collection,
		DeviceID:   req.DeviceID,
		UserID:     req.UserID,
	})

	resolved = keepFacility(resolved, server)
	data := resolved.WithoutSystemFields()
	if facilityID, _ := data.String(models.FieldFacilityID); !scope.Allows(facilityID) {
		return models.ReconcileResult{}, fmt.Errorf("%w: resolution would move the document to another facility", ErrAccessDenied)
	}

	r.audit.RecordConflict(ctx, models.ConflictRecord{
		Collection:   req.Collection,
		DocumentID:   req.DocumentID,
		ServerData:   serverFields,
		ClientData:   req.ClientData,
		ResolvedData: resolved,
		Strategy:     strategy.Name(),
		DeviceID:     req.DeviceID,
		UserID:       req.UserID,
		FacilityID:   server.FacilityID,
	}).Log(logger.FromContext(ctx))

	stored := server
	if !reflect.DeepEqual(map[string]any(data), map[string]any(server.Data.WithoutSystemFields())) {
		var err error
		if stored, err = r.write(ctx, scope, server, data); err != nil {
			return models.ReconcileResult{}, err
		}
	}

	return models.ReconcileResult{
		Operation:        models.ReconcileConflictResolved,
		ResolvedDocument: stored,
		StrategyUsed:     strategy.Name(),
		ServerVersion:    &server,
		ClientVersion:    req.ClientData,
	}, nil
}

// keepFacility fills in the server's facility_id when data has none, so a
// write that omits the field never detaches the document from its facility.
func keepFacility(data models.Fields, server models.Document) models.Fields {
	if server.FacilityID == "" {
		return data
	}
	if facilityID, _ := data.String(models.FieldFacilityID); facilityID == "" {
		data[models.FieldFacilityID] = server.FacilityID
	}
	return data
}

func (r *reconcileService) write(ctx context.Context, scope models.FacilityScope, server models.Document, data models.Fields) (models.Document, error) {
	facilityID, _ := data.String(models.FieldFacilityID)
	if !scope.Allows(facilityID) {
		return models.Document{}, fmt.Errorf("%w: cannot move the document to another facility", ErrAccessDenied)
	}

	updated, err := r.documents.UpdateDocument(ctx, models.Document{
		ID:         server.ID,
		Collection: server.Collection,
		FacilityID: facilityID,
		Data:       data,
	})
	if err != nil {
		return models.Document{}, fmt.Errorf("%w: %w", ErrCollectionSync, err)
	}
	return updated, nil
}

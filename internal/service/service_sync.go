// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/MKhiriev/go-facility-sync/internal/config"
	"github.com/MKhiriev/go-facility-sync/internal/logger"
	"github.com/MKhiriev/go-facility-sync/internal/store"
	"github.com/MKhiriev/go-facility-sync/internal/validators"
	"github.com/MKhiriev/go-facility-sync/models"
)

// syncPhase is the state of a session inside [syncService.Sync].
type syncPhase string

const (
	phaseAuthorizing  syncPhase = "authorizing"
	phaseValidating   syncPhase = "validating"
	phaseRateLimiting syncPhase = "rate_limiting"
	phasePushing      syncPhase = "pushing"
	phasePulling      syncPhase = "pulling"
	phaseLogging      syncPhase = "logging"
	phaseResponding   syncPhase = "responding"
)

// syncService is the sync coordinator. It owns the session state machine:
//
//	authorizing → validating → rate limiting → pushing → pulling (per collection) → logging → responding
//
// Only the first three phases can reject a session. From pushing onwards
// every failure is confined to the change or collection it belongs to.
type syncService struct {
	puller     PullService
	reconciler ReconcileService
	access     *AccessPolicy
	limiter    store.RateLimiter
	presence   store.PresenceTracker
	clock      store.Clock
	audit      AuditTrail
	policy     config.SyncPolicy
	validator  validators.Validator

	now      func() time.Time
	compress func(map[string]models.CollectionResult) (string, error)
}

func NewSyncService(
	puller PullService,
	reconciler ReconcileService,
	access *AccessPolicy,
	limiter store.RateLimiter,
	presence store.PresenceTracker,
	clock store.Clock,
	audit AuditTrail,
	policy config.SyncPolicy,
) SyncService {
	return &syncService{
		puller:     puller,
		reconciler: reconciler,
		access:     access,
		limiter:    limiter,
		presence:   presence,
		clock:      clock,
		audit:      audit,
		policy:     policy,
		validator:  validators.NewSyncValidator(),
		now:        time.Now,
		compress:   compressResults,
	}
}

// Sync runs one session. The returned error is non-nil only for rejected
// sessions; a session in which some collections failed still succeeds.
func (s *syncService) Sync(ctx context.Context, caller models.Caller, req models.SyncRequest) (models.SyncResponse, error) {
	started := s.now()
	log := logger.FromContext(ctx).WithSession(req.DeviceID, caller.UserID)
	ctx = log.WithContext(ctx)

	enter := func(phase syncPhase) {
		log.Debug().Str("func", "syncService.Sync").Str("phase", string(phase)).Msg("sync phase")
	}
	reject := func(phase syncPhase, err error) (models.SyncResponse, error) {
		log.Warn().Err(err).
			Str("func", "syncService.Sync").
			Str("phase", string(phase)).
			Msg("sync session rejected")
		return models.SyncResponse{}, err
	}

	enter(phaseAuthorizing)
	role, err := s.access.RoleOf(caller)
	if err != nil {
		return reject(phaseAuthorizing, err)
	}
	scope := s.access.ScopeOf(caller, role)

	enter(phaseValidating)
	if err = s.validator.Validate(ctx, req); err != nil {
		return reject(phaseValidating, fmt.Errorf("%w: %w", ErrValidation, err))
	}
	collections, unknown, err := s.selectCollections(req.Collections)
	if err != nil {
		return reject(phaseValidating, err)
	}
	cursor, err := decodeCursor(req.PageCursor, collections)
	if err != nil {
		return reject(phaseValidating, err)
	}

	enter(phaseRateLimiting)
	remaining, err := s.checkRateLimit(ctx, caller.UserID, req.DeviceID)
	if err != nil {
		return reject(phaseRateLimiting, err)
	}

	// taken before any write so that nothing this session stores or misses
	// is older than the watermark handed back to the device
	syncTimestamp := s.syncTimestamp(ctx, started)

	enter(phasePushing)
	pushResults := s.push(ctx, caller, req)

	enter(phasePulling)
	var watermark time.Time
	if req.LastSyncTimestamp != nil {
		watermark = *req.LastSyncTimestamp
	}

	results := make(map[string]models.CollectionResult, len(collections)+len(unknown))
	for _, c := range unknown {
		results[c] = failedResult(fmt.Errorf("%w: %q", ErrInvalidCollection, c))
	}

	status := models.SessionCompleted
	if len(unknown) > 0 {
		status = models.SessionPartial
	}
	for _, c := range collections {
		result := s.pullCollection(ctx, role, scope, c, watermark, cursor, req)
		if !result.Success {
			status = models.SessionPartial
		}
		results[c] = result
	}

	enter(phaseLogging)
	elapsed := s.now().Sub(started)
	s.audit.RecordSession(ctx, models.SyncSessionLog{
		DeviceID:          req.DeviceID,
		UserID:            caller.UserID,
		FacilityID:        caller.FacilityID,
		Role:              caller.Role,
		SyncTimestamp:     syncTimestamp,
		LastSyncTimestamp: req.LastSyncTimestamp,
		Collections:       collections,
		Status:            status,
		ExecutionTimeMs:   elapsed.Milliseconds(),
	}).Log(log)
	s.heartbeat(ctx, caller, req.DeviceID)

	enter(phaseResponding)
	resp := models.SyncResponse{
		Success:             true,
		SyncTimestamp:       syncTimestamp,
		Results:             results,
		PushResults:         pushResults,
		NextSyncRecommended: role.NextSyncSeconds,
		Security: models.SecurityInfo{
			FacilityScoped:     !scope.All,
			ExecutionTime:      s.now().Sub(started).Milliseconds(),
			RateLimitRemaining: remaining,
		},
	}

	if req.Compress && role.AllowCompression {
		compressed, err := s.compress(results)
		if err != nil {
			log.Warn().Err(err).Str("func", "syncService.Sync").Msg("compression failed, sending plain results")
		} else {
			resp.CompressedResults = compressed
			resp.Results = nil
		}
	}

	log.Info().
		Str("func", "syncService.Sync").
		Str("status", string(status)).
		Int("collections", len(results)).
		Int("pushed", len(pushResults)).
		Int64("execution_ms", resp.Security.ExecutionTime).
		Msg("sync session completed")

	return resp, nil
}

// selectCollections de-duplicates the requested collections and splits them
// into known and unknown ones. An empty request selects the defaults; a
// request naming only unknown collections is rejected.
func (s *syncService) selectCollections(requested []string) (known, unknown []string, err error) {
	if len(requested) == 0 {
		return append([]string(nil), s.policy.DefaultCollections...), nil, nil
	}

	seen := make(map[string]struct{}, len(requested))
	for _, c := range requested {
		c = strings.TrimSpace(c)
		if _, dup := seen[c]; dup || c == "" {
			continue
		}
		seen[c] = struct{}{}

		if s.policy.IsKnownCollection(c) {
			known = append(known, c)
		} else {
			unknown = append(unknown, c)
		}
	}

	if len(known) == 0 {
		return nil, nil, fmt.Errorf("%w: none of %v is syncable", ErrInvalidCollection, requested)
	}
	return known, unknown, nil
}

func decodeCursor(token string, collections []string) (*models.SyncCursor, error) {
	if token == "" {
		return nil, nil
	}

	cursor, err := models.DecodeSyncCursor(token)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrValidation, err)
	}
	for _, c := range collections {
		if c == cursor.Collection {
			return &cursor, nil
		}
	}
	return nil, fmt.Errorf("%w: pageCursor is for %q which is not being synced", ErrValidation, cursor.Collection)
}

// syncTimestamp reads the watermark from the database clock, the clock
// that stamps updated_at. If it cannot be read the application clock is
// used instead.
func (s *syncService) syncTimestamp(ctx context.Context, started time.Time) time.Time {
	now, err := s.clock.Now(ctx)
	if err != nil {
		logger.FromContext(ctx).Warn().Err(err).
			Str("func", "syncService.syncTimestamp").
			Msg("database clock unavailable, using application clock for the sync timestamp")
		return started.UTC()
	}
	return now
}

// checkRateLimit returns the sessions left in the window. An unavailable
// limiter lets the session through.
func (s *syncService) checkRateLimit(ctx context.Context, userID, deviceID string) (int, error) {
	decision, err := s.limiter.Allow(ctx, userID, deviceID)
	if err != nil {
		logger.FromContext(ctx).Warn().Err(err).
			Str("func", "syncService.checkRateLimit").
			Msg("rate limiter unavailable, allowing session")
		return 0, nil
	}
	if !decision.Allowed {
		return 0, &RateLimitError{RetryAfter: decision.RetryAfter}
	}
	return decision.Remaining, nil
}

func (s *syncService) push(ctx context.Context, caller models.Caller, req models.SyncRequest) []models.PushResult {
	if len(req.Changes) == 0 {
		return nil
	}

	results := make([]models.PushResult, 0, len(req.Changes))
	for _, change := range req.Changes {
		out := models.PushResult{Collection: change.Collection, DocumentID: change.DocumentID}

		res, err := s.reconciler.Reconcile(ctx, caller, models.ReconcileRequest{
			Collection:      change.Collection,
			DocumentID:      change.DocumentID,
			ClientData:      change.ClientData,
			ClientTimestamp: change.ClientTimestamp,
			DeviceID:        req.DeviceID,
			UserID:          caller.UserID,
		})
		if err != nil {
			logger.FromContext(ctx).Err(err).
				Str("func", "syncService.push").
				Str("collection", change.Collection).
				Str("document_id", change.DocumentID).
				Msg("failed to reconcile pushed change")
			out.Error = PublicMessage(err)
			out.Code = string(CodeOf(err))
			results = append(results, out)
			continue
		}

		out.Success = true
		out.Operation = res.Operation
		out.ConflictResolved = res.Operation == models.ReconcileConflictResolved
		out.Strategy = res.StrategyUsed
		out.ResolvedDocument = res.ResolvedDocument.AsFields()
		results = append(results, out)
	}

	return results
}

func (s *syncService) pullCollection(
	ctx context.Context,
	role config.RolePolicy,
	scope models.FacilityScope,
	collection string,
	watermark time.Time,
	cursor *models.SyncCursor,
	req models.SyncRequest,
) models.CollectionResult {
	if err := s.access.CheckCollection(role, collection); err != nil {
		return failedResult(err)
	}

	pageLimit, maxPages := s.access.Clamp(role, req.PageLimit, req.MaxPages)
	if cursor != nil && cursor.Collection != collection {
		cursor = nil
	}

	pulled, err := s.puller.Pull(ctx, models.PullRequest{
		Collection:        collection,
		LastSyncTimestamp: watermark,
		Scope:             scope,
		Cursor:            cursor,
		PageLimit:         pageLimit,
		MaxPages:          maxPages,
	})
	if err != nil {
		logger.FromContext(ctx).Err(err).
			Str("func", "syncService.pullCollection").
			Str("collection", collection).
			Msg("failed to pull collection")
		return failedResult(err)
	}

	result := models.CollectionResult{
		Success:      true,
		Updated:      pulled.Updated,
		Deleted:      pulled.Deleted,
		HasMore:      pulled.HasMore,
		PagesFetched: pulled.PagesFetched,
	}
	if pulled.NextCursor != nil {
		token := pulled.NextCursor.Encode()
		result.NextCursor = &token
	}
	return result
}

// heartbeat records the device as active. Like audit writes it is bounded
// and never fails the session.
func (s *syncService) heartbeat(ctx context.Context, caller models.Caller, deviceID string) {
	timeout := s.policy.AuditTimeout
	if timeout <= 0 {
		timeout = defaultAuditTimeout
	}
	hbCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeout)
	defer cancel()

	err := s.presence.Heartbeat(hbCtx, models.Presence{
		DeviceID:   deviceID,
		UserID:     caller.UserID,
		FacilityID: caller.FacilityID,
		LastSeen:   s.now().UTC(),
	})
	if err != nil {
		logger.FromContext(ctx).Warn().Err(err).
			Str("func", "syncService.heartbeat").
			Msg("failed to record presence")
	}
}

// failedResult renders err as an isolated collection failure. Errors
// outside the taxonomy are reported as store failures of that collection.
func failedResult(err error) models.CollectionResult {
	code := CodeOf(err)
	if code == CodeSystem {
		code = CodeCollectionSync
		err = fmt.Errorf("%w: %w", ErrCollectionSync, err)
	}
	return models.CollectionResult{
		Success: false,
		Error:   PublicMessage(err),
		Code:    string(code),
	}
}

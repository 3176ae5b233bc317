package service

//go:generate mockgen -source=interfaces.go -destination=../mock/service_mock.go -package=mock

import (
	"context"

	"github.com/MKhiriev/go-facility-sync/models"
)

// SyncService runs one device sync session end to end.
type SyncService interface {
	Sync(ctx context.Context, caller models.Caller, req models.SyncRequest) (models.SyncResponse, error)
}

// PullService produces the bounded change set of one collection.
type PullService interface {
	Pull(ctx context.Context, req models.PullRequest) (models.PullResult, error)
}

// ReconcileService applies one client write, resolving a conflict with the
// server copy when there is one.
type ReconcileService interface {
	Reconcile(ctx context.Context, caller models.Caller, req models.ReconcileRequest) (models.ReconcileResult, error)
}

// DocumentService exposes the document operations that are not part of a
// sync session.
type DocumentService interface {
	DeleteDocument(ctx context.Context, caller models.Caller, collection, documentID string) (models.DeletionEntry, error)
}

// StatusService computes the sync health summary.
type StatusService interface {
	Summarize(ctx context.Context, sinceMinutes int, filter models.StatusFilter) (models.SyncHealthSummary, error)
}

type AppInfoService interface {
	GetAppVersion(ctx context.Context) string
	GetBuildInfo(ctx context.Context) models.AppBuildInfo
}

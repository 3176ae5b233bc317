package service

import (
	"fmt"

	"github.com/MKhiriev/go-facility-sync/internal/config"
	"github.com/MKhiriev/go-facility-sync/internal/logger"
	"github.com/MKhiriev/go-facility-sync/internal/store"
	"github.com/MKhiriev/go-facility-sync/internal/utils"
	"github.com/MKhiriev/go-facility-sync/models"
)

type Services struct {
	SyncService      SyncService
	PullService      PullService
	ReconcileService ReconcileService
	DocumentService  DocumentService
	StatusService    StatusService
	AppInfoService   AppInfoService
}

// NewServices resolves the strategy table and wires every service on top of
// storages. It fails when the policy names an unknown strategy or the app
// version is missing.
func NewServices(storages *store.Storages, cfg *config.StructuredConfig, build models.AppBuildInfo, logger *logger.Logger) (*Services, error) {
	strategies, err := NewStrategyTable(cfg.Sync)
	if err != nil {
		return nil, fmt.Errorf("failed to build strategy table: %w", err)
	}
	logger.Info().
		Str("func", "NewServices").
		Interface("strategies", strategies.Names()).
		Str("default_strategy", cfg.Sync.DefaultStrategy).
		Msg("conflict strategies resolved")

	appInfo, err := NewAppInfoService(cfg.App, build, logger)
	if err != nil {
		return nil, err
	}

	access := NewAccessPolicy(cfg.Sync)
	audit := NewAuditService(storages.AuditRepository, utils.NewUUIDGenerator(), cfg.Sync.AuditTimeout)
	puller := NewPullService(storages.DocumentStore, storages.DeletionLedger, cfg.Sync)
	reconciler := NewReconcileService(storages.DocumentStore, strategies, access, audit)

	return &Services{
		SyncService: NewSyncService(
			puller,
			reconciler,
			access,
			storages.RateLimiter,
			storages.PresenceTracker,
			storages.Clock,
			audit,
			cfg.Sync,
		),
		PullService:      puller,
		ReconcileService: reconciler,
		DocumentService:  NewDocumentService(storages.DocumentStore, access),
		StatusService:    NewStatusService(storages.StatusRepository, storages.PresenceTracker, cfg.Sync),
		AppInfoService:   appInfo,
	}, nil
}

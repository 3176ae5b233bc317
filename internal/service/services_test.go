package service

import (
	"errors"
	"testing"

	"github.com/MKhiriev/go-facility-sync/internal/config"
	"github.com/MKhiriev/go-facility-sync/internal/logger"
	"github.com/MKhiriev/go-facility-sync/internal/mock"
	"github.com/MKhiriev/go-facility-sync/internal/store"
	"github.com/MKhiriev/go-facility-sync/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func testStorages(t *testing.T) *store.Storages {
	t.Helper()

	ctrl := gomock.NewController(t)
	return &store.Storages{
		DocumentStore:    mock.NewMockDocumentStore(ctrl),
		DeletionLedger:   mock.NewMockDeletionLedger(ctrl),
		AuditRepository:  mock.NewMockAuditRepository(ctrl),
		StatusRepository: mock.NewMockStatusRepository(ctrl),
		RateLimiter:      mock.NewMockRateLimiter(ctrl),
		PresenceTracker:  mock.NewMockPresenceTracker(ctrl),
		Clock:            mock.NewMockClock(ctrl),
	}
}

func TestNewServices_WiresEveryService(t *testing.T) {
	cfg := &config.StructuredConfig{App: config.App{Version: "1.0.0"}, Sync: testPolicy()}

	services, err := NewServices(testStorages(t), cfg, models.NewAppBuildInfo("", "", ""), logger.Nop())

	require.NoError(t, err)
	assert.NotNil(t, services.SyncService)
	assert.NotNil(t, services.PullService)
	assert.NotNil(t, services.ReconcileService)
	assert.NotNil(t, services.DocumentService)
	assert.NotNil(t, services.StatusService)
	assert.NotNil(t, services.AppInfoService)
}

func TestNewServices_UnknownStrategy(t *testing.T) {
	policy := testPolicy()
	policy.Strategies["vaccines"] = "coin_flip"
	cfg := &config.StructuredConfig{App: config.App{Version: "1.0.0"}, Sync: policy}

	services, err := NewServices(testStorages(t), cfg, models.NewAppBuildInfo("", "", ""), logger.Nop())

	assert.Nil(t, services)
	assert.True(t, errors.Is(err, ErrUnknownStrategy))
}

func TestNewServices_MissingVersion(t *testing.T) {
	cfg := &config.StructuredConfig{Sync: testPolicy()}

	services, err := NewServices(testStorages(t), cfg, models.NewAppBuildInfo("", "", ""), logger.Nop())

	assert.Nil(t, services)
	assert.True(t, errors.Is(err, ErrVersionIsNotSpecified))
}

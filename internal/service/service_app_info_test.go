package service

import (
	"context"
	"errors"
	"testing"

	"github.com/MKhiriev/go-facility-sync/internal/config"
	"github.com/MKhiriev/go-facility-sync/internal/logger"
	"github.com/MKhiriev/go-facility-sync/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewAppInfoService(t *testing.T) {
	tests := []struct {
		name    string
		version string
		wantErr error
	}{
		{"release", "1.4.0", nil},
		{"pre-release with build metadata", "v1.2.3-beta+build.42", nil},
		{"empty", "", ErrVersionIsNotSpecified},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, err := NewAppInfoService(config.App{Version: tt.version}, models.NewAppBuildInfo("b1", "2026-10-01", "abc"), logger.Nop())

			if tt.wantErr != nil {
				assert.Nil(t, svc)
				assert.True(t, errors.Is(err, tt.wantErr))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.version, svc.GetAppVersion(context.Background()))

			build := svc.GetBuildInfo(context.Background())
			assert.Equal(t, tt.version, build.Version)
			assert.Equal(t, "abc", build.BuildCommit)
		})
	}
}

package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/MKhiriev/go-facility-sync/internal/logger"
	"github.com/MKhiriev/go-facility-sync/models"
	"github.com/redis/go-redis/v9"
)

const (
	presenceKeyPrefix = "sync:presence:"
	presenceScanBatch = 200
)

// redisPresenceTracker keeps the last heartbeat of every device under its
// own key. Keys expire after ttl, so a scan only ever sees recent devices.
type redisPresenceTracker struct {
	client redis.Cmdable
	ttl    time.Duration
}

func NewRedisPresenceTracker(client redis.Cmdable, ttl time.Duration) PresenceTracker {
	return &redisPresenceTracker{client: client, ttl: ttl}
}

// Heartbeat stores presence, stamping LastSeen when it is unset.
func (r *redisPresenceTracker) Heartbeat(ctx context.Context, presence models.Presence) error {
	if presence.LastSeen.IsZero() {
		presence.LastSeen = time.Now().UTC()
	}

	data, err := json.Marshal(presence)
	if err != nil {
		return fmt.Errorf("failed to marshal presence: %w", err)
	}

	if err = r.client.Set(ctx, presenceKey(presence.DeviceID), data, r.ttl).Err(); err != nil {
		logger.FromContext(ctx).Err(err).
			Str("func", "redisPresenceTracker.Heartbeat").
			Str("device_id", presence.DeviceID).
			Msg("failed to set presence")
		return fmt.Errorf("%w: %w", ErrPresenceUnavailable, err)
	}

	return nil
}

// ListActive returns devices seen at or after since that match filter.
func (r *redisPresenceTracker) ListActive(ctx context.Context, since time.Time, filter models.StatusFilter) ([]models.Presence, error) {
	log := logger.FromContext(ctx)

	if filter.DeviceID != "" {
		return r.collect(ctx, []string{presenceKey(filter.DeviceID)}, since, filter)
	}

	var (
		cursor uint64
		keys   []string
	)
	for {
		batch, next, err := r.client.Scan(ctx, cursor, presenceKeyPrefix+"*", presenceScanBatch).Result()
		if err != nil {
			log.Err(err).Str("func", "redisPresenceTracker.ListActive").Msg("failed to scan presence keys")
			return nil, fmt.Errorf("%w: %w", ErrPresenceUnavailable, err)
		}
		keys = append(keys, batch...)
		if next == 0 {
			break
		}
		cursor = next
	}

	return r.collect(ctx, keys, since, filter)
}

func (r *redisPresenceTracker) collect(ctx context.Context, keys []string, since time.Time, filter models.StatusFilter) ([]models.Presence, error) {
	active := make([]models.Presence, 0, len(keys))
	if len(keys) == 0 {
		return active, nil
	}

	// MGet retrieves every key in one round trip
	values, err := r.client.MGet(ctx, keys...).Result()
	if err != nil {
		logger.FromContext(ctx).Err(err).Str("func", "redisPresenceTracker.collect").Msg("failed to get presence")
		return nil, fmt.Errorf("%w: %w", ErrPresenceUnavailable, err)
	}

	for _, value := range values {
		data, ok := value.(string)
		if !ok {
			// expired between SCAN and MGET
			continue
		}

		var presence models.Presence
		if err = json.Unmarshal([]byte(data), &presence); err != nil {
			continue
		}
		if presence.LastSeen.Before(since) || !matchesFilter(presence, filter) {
			continue
		}
		active = append(active, presence)
	}

	return active, nil
}

func matchesFilter(p models.Presence, f models.StatusFilter) bool {
	if f.DeviceID != "" && p.DeviceID != f.DeviceID {
		return false
	}
	if f.UserID != "" && p.UserID != f.UserID {
		return false
	}
	if f.FacilityID != "" && p.FacilityID != f.FacilityID {
		return false
	}
	return true
}

func presenceKey(deviceID string) string {
	return presenceKeyPrefix + deviceID
}

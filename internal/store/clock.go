package store

import (
	"context"
	"time"

	"github.com/MKhiriev/go-facility-sync/internal/logger"
)

type dbClock struct {
	*DB
}

func NewDBClock(db *DB) Clock {
	return &dbClock{DB: db}
}

// Now returns the current time of the database server in UTC.
func (c *dbClock) Now(ctx context.Context) (time.Time, error) {
	var now time.Time
	if err := c.DB.QueryRowContext(ctx, currentTime).Scan(&now); err != nil {
		logger.FromContext(ctx).Err(err).Str("func", "dbClock.Now").Msg("failed to read database clock")
		return time.Time{}, c.queryError(ErrExecutingQuery, err)
	}
	return now.UTC(), nil
}

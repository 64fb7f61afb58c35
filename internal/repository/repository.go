// FilePath: internal/repository/repository.go
package repository

import (
	"context"
	"time"

	"github.com/pondworks/pondgate/internal/models"
)

// Pinger verifies a dependency round-trip. The health endpoint pings
// each sink through this.
type Pinger interface {
	Ping(ctx context.Context) error
}

// StatusCache is the latest-status sink: a single expiring entry
// representing the most recent known station state.
type StatusCache interface {
	Pinger
	SetLatestStatus(ctx context.Context, status *models.LatestStatus) error
	Close() error
}

// StatusReader is the read side of the cache, used by the API layer.
type StatusReader interface {
	GetLatestStatus(ctx context.Context) (*models.LatestStatus, bool, error)
}

// MetricsStore is the append-only time-series sink. InsertRecord writes
// station_metrics unconditionally and pond_metrics only when the record
// carries pond telemetry, in a single transaction.
type MetricsStore interface {
	Pinger
	InsertRecord(ctx context.Context, record *models.CanonicalRecord) error
	Close() error
}

// MetricsReader queries the two relations for the read-only API.
type MetricsReader interface {
	GetStationMetrics(ctx context.Context, start, end time.Time, limit int) ([]models.StationMetric, error)
	GetPondMetrics(ctx context.Context, start, end time.Time, limit int) ([]models.PondMetric, error)
}

// FilePath: internal/repository/timescale/timescale.metrics.go
package timescale

import (
	"context"
	"time"

	"github.com/pondworks/pondgate/internal/database"
	"github.com/pondworks/pondgate/internal/errors"
	"github.com/pondworks/pondgate/internal/models"
	nuts "github.com/vaudience/go-nuts"
)

// MetricsRepo persists canonical records into the two append-only
// relations. The relations are provisioned externally and verified by
// the schema gate at startup; this repository never creates or alters
// them.
type MetricsRepo struct {
	TimeScaleBaseRepo
}

func NewMetricsRepository(db database.DB) *MetricsRepo {
	return &MetricsRepo{TimeScaleBaseRepo{db: db}}
}

// InsertRecord writes one station_metrics row and, when pond telemetry
// is present, one pond_metrics row, in a single transaction. The two
// relations stay correlated by timestamp only; there is no shared
// record id.
func (r *MetricsRepo) InsertRecord(ctx context.Context, record *models.CanonicalRecord) error {
	tx, err := r.BeginTx(ctx)
	if err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO station_metrics (timestamp, temperature_c, battery_v, solar_v, signal_dbm, station_id)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		record.ObservedAt, record.TemperatureC, record.BatteryV,
		record.SolarV, record.SignalDBm, record.StationID,
	)
	if err != nil {
		r.rollback(tx)
		return errors.NewTimeseriesWriteError("failed to insert station metrics", err)
	}

	if record.HasPondMetrics() {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO pond_metrics (timestamp, level_cm, outflow_lps)
			VALUES ($1, $2, $3)`,
			record.ObservedAt, record.LevelCm, record.OutflowLps,
		)
		if err != nil {
			r.rollback(tx)
			return errors.NewTimeseriesWriteError("failed to insert pond metrics", err)
		}
	}

	if err := tx.Commit(); err != nil {
		r.rollback(tx)
		return errors.NewTimeseriesWriteError("failed to commit metrics transaction", err)
	}
	return nil
}

// rollback is best-effort: a failed rollback is logged, never escalated.
func (r *MetricsRepo) rollback(tx database.Transaction) {
	if err := tx.Rollback(); err != nil {
		nuts.L.Warnf("[TimescaleDB] Rollback failed: %v", err)
	}
}

func (r *MetricsRepo) GetStationMetrics(ctx context.Context, start, end time.Time, limit int) ([]models.StationMetric, error) {
	metrics := []models.StationMetric{}
	query := `
		SELECT timestamp, temperature_c, battery_v, solar_v, signal_dbm, station_id
		FROM station_metrics
		WHERE timestamp BETWEEN $1 AND $2
		ORDER BY timestamp DESC
		LIMIT $3`

	err := r.db.GetDB().SelectContext(ctx, &metrics, query, start, end, limit)
	if err != nil {
		return nil, errors.NewInternalError("failed to get station metrics", err)
	}
	return metrics, nil
}

func (r *MetricsRepo) GetPondMetrics(ctx context.Context, start, end time.Time, limit int) ([]models.PondMetric, error) {
	metrics := []models.PondMetric{}
	query := `
		SELECT timestamp, level_cm, outflow_lps
		FROM pond_metrics
		WHERE timestamp BETWEEN $1 AND $2
		ORDER BY timestamp DESC
		LIMIT $3`

	err := r.db.GetDB().SelectContext(ctx, &metrics, query, start, end, limit)
	if err != nil {
		return nil, errors.NewInternalError("failed to get pond metrics", err)
	}
	return metrics, nil
}

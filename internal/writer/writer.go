// FilePath: internal/writer/writer.go
package writer

import (
	"context"

	"github.com/pondworks/pondgate/internal/models"
	"github.com/pondworks/pondgate/internal/monitoring"
	"github.com/pondworks/pondgate/internal/repository"
	nuts "github.com/vaudience/go-nuts"
)

// WriteOutcome reports per-sink success for one record.
type WriteOutcome struct {
	CacheOK      bool
	TimeseriesOK bool
}

// Failed reports whether both sinks rejected the record. Observability
// only; the ingestion loop never terminates on a failed cycle.
func (o WriteOutcome) Failed() bool {
	return !o.CacheOK && !o.TimeseriesOK
}

// DualSinkWriter commits a canonical record to the latest-status cache
// and the time-series store. The two writes are independent: a failure
// in one never prevents the attempt on the other, and nothing is rolled
// back across sinks.
type DualSinkWriter struct {
	cache           repository.StatusCache
	store           repository.MetricsStore
	metrics         *monitoring.Service
	deviceID        string
	firmwareVersion string
}

func New(cache repository.StatusCache, store repository.MetricsStore, metrics *monitoring.Service, deviceID, firmwareVersion string) *DualSinkWriter {
	return &DualSinkWriter{
		cache:           cache,
		store:           store,
		metrics:         metrics,
		deviceID:        deviceID,
		firmwareVersion: firmwareVersion,
	}
}

// Write attempts both sinks and reports the outcome. Errors are logged
// and counted here; they never propagate past this boundary.
func (w *DualSinkWriter) Write(ctx context.Context, record *models.CanonicalRecord) WriteOutcome {
	outcome := WriteOutcome{CacheOK: true, TimeseriesOK: true}

	status := models.NewLatestStatus(record, w.deviceID, w.firmwareVersion)
	if err := w.cache.SetLatestStatus(ctx, status); err != nil {
		outcome.CacheOK = false
		w.metrics.RecordEvent(monitoring.EventCacheWriteFailure)
		nuts.L.Errorf("[Writer] Cache write failed: %v", err)
	}

	if err := w.store.InsertRecord(ctx, record); err != nil {
		outcome.TimeseriesOK = false
		w.metrics.RecordEvent(monitoring.EventTimeseriesWriteFailure)
		nuts.L.Errorf("[Writer] Time-series write failed: %v", err)
	}

	switch {
	case outcome.CacheOK && outcome.TimeseriesOK:
		w.metrics.RecordEvent(monitoring.EventRecordIngested)
	case outcome.Failed():
		w.metrics.RecordEvent(monitoring.EventRecordFailed)
	default:
		w.metrics.RecordEvent(monitoring.EventRecordPartial)
	}

	return outcome
}

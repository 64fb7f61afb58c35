package monitoring

import (
	"sync/atomic"

	nuts "github.com/vaudience/go-nuts"
)

// Event names recorded by the ingestion loop.
const (
	EventRecordIngested         = "record_ingested"
	EventRecordPartial          = "record_partial"
	EventRecordFailed           = "record_failed"
	EventDecodeError            = "decode_error"
	EventValidationError        = "validation_error"
	EventCacheWriteFailure      = "cache_write_failure"
	EventTimeseriesWriteFailure = "timeseries_write_failure"
	EventReconnect              = "reconnect"
	EventIterationError         = "iteration_error"
)

// Service counts ingestion events. Counters are atomic so the read-only
// API can snapshot them while the loop is running.
type Service struct {
	ingested         atomic.Int64
	partial          atomic.Int64
	failed           atomic.Int64
	decodeErrors     atomic.Int64
	validationErrors atomic.Int64
	cacheFailures    atomic.Int64
	tsFailures       atomic.Int64
	reconnects       atomic.Int64
	iterationErrors  atomic.Int64
}

// NewService creates a new monitoring service
func NewService() *Service {
	return &Service{}
}

// RecordEvent increments the counter for a named event.
func (s *Service) RecordEvent(eventName string) {
	switch eventName {
	case EventRecordIngested:
		s.ingested.Add(1)
	case EventRecordPartial:
		s.partial.Add(1)
	case EventRecordFailed:
		s.failed.Add(1)
	case EventDecodeError:
		s.decodeErrors.Add(1)
	case EventValidationError:
		s.validationErrors.Add(1)
	case EventCacheWriteFailure:
		s.cacheFailures.Add(1)
	case EventTimeseriesWriteFailure:
		s.tsFailures.Add(1)
	case EventReconnect:
		s.reconnects.Add(1)
	case EventIterationError:
		s.iterationErrors.Add(1)
	default:
		nuts.L.Warnf("[Monitoring] Unknown event %q", eventName)
	}
}

// Stats is a point-in-time snapshot of the counters.
type Stats struct {
	RecordsIngested         int64 `json:"records_ingested"`
	RecordsPartial          int64 `json:"records_partial"`
	RecordsFailed           int64 `json:"records_failed"`
	DecodeErrors            int64 `json:"decode_errors"`
	ValidationErrors        int64 `json:"validation_errors"`
	CacheWriteFailures      int64 `json:"cache_write_failures"`
	TimeseriesWriteFailures int64 `json:"timeseries_write_failures"`
	Reconnects              int64 `json:"reconnects"`
	IterationErrors         int64 `json:"iteration_errors"`
}

// Snapshot returns the current counter values.
func (s *Service) Snapshot() Stats {
	return Stats{
		RecordsIngested:         s.ingested.Load(),
		RecordsPartial:          s.partial.Load(),
		RecordsFailed:           s.failed.Load(),
		DecodeErrors:            s.decodeErrors.Load(),
		ValidationErrors:        s.validationErrors.Load(),
		CacheWriteFailures:      s.cacheFailures.Load(),
		TimeseriesWriteFailures: s.tsFailures.Load(),
		Reconnects:              s.reconnects.Load(),
		IterationErrors:         s.iterationErrors.Load(),
	}
}

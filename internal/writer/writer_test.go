package writer

import (
	"context"
	"testing"
	"time"

	"github.com/pondworks/pondgate/internal/errors"
	"github.com/pondworks/pondgate/internal/models"
	"github.com/pondworks/pondgate/internal/monitoring"
)

type fakeCache struct {
	fail   bool
	writes []*models.LatestStatus
}

func (f *fakeCache) SetLatestStatus(ctx context.Context, status *models.LatestStatus) error {
	if f.fail {
		return errors.NewCacheWriteError("cache down", nil)
	}
	f.writes = append(f.writes, status)
	return nil
}
func (f *fakeCache) Ping(ctx context.Context) error { return nil }
func (f *fakeCache) Close() error                   { return nil }

type fakeStore struct {
	fail    bool
	records []*models.CanonicalRecord
}

func (f *fakeStore) InsertRecord(ctx context.Context, record *models.CanonicalRecord) error {
	if f.fail {
		return errors.NewTimeseriesWriteError("store down", nil)
	}
	f.records = append(f.records, record)
	return nil
}
func (f *fakeStore) Ping(ctx context.Context) error { return nil }
func (f *fakeStore) Close() error                   { return nil }

func testRecord() *models.CanonicalRecord {
	return &models.CanonicalRecord{
		TemperatureC: 22.5,
		BatteryV:     12.1,
		SolarV:       14.0,
		SignalDBm:    -80,
		StationID:    "default",
		ObservedAt:   time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC),
		Connected:    true,
		OnSolar:      true,
	}
}

func TestWriteBothSinksSucceed(t *testing.T) {
	cache := &fakeCache{}
	store := &fakeStore{}
	metrics := monitoring.NewService()
	w := New(cache, store, metrics, "POND-001", "1.0.0")

	outcome := w.Write(context.Background(), testRecord())
	if !outcome.CacheOK || !outcome.TimeseriesOK {
		t.Fatalf("expected full success, got %+v", outcome)
	}
	if len(cache.writes) != 1 || len(store.records) != 1 {
		t.Fatalf("expected one write per sink, got cache=%d store=%d", len(cache.writes), len(store.records))
	}
	if got := metrics.Snapshot().RecordsIngested; got != 1 {
		t.Errorf("ingested counter: got %d want 1", got)
	}

	status := cache.writes[0]
	if status.DeviceID != "POND-001" || status.FirmwareVersion != "1.0.0" {
		t.Errorf("station identity not projected: %+v", status)
	}
	if status.LastHeartbeat == "" {
		t.Errorf("heartbeat missing from cache projection")
	}
}

func TestWriteCacheFailureDoesNotBlockTimeseries(t *testing.T) {
	cache := &fakeCache{fail: true}
	store := &fakeStore{}
	metrics := monitoring.NewService()
	w := New(cache, store, metrics, "POND-001", "1.0.0")

	outcome := w.Write(context.Background(), testRecord())
	if outcome.CacheOK {
		t.Errorf("cache_ok should be false")
	}
	if !outcome.TimeseriesOK {
		t.Errorf("timeseries_ok should be true")
	}
	if len(store.records) != 1 {
		t.Fatalf("time-series write should still happen, got %d", len(store.records))
	}
	snap := metrics.Snapshot()
	if snap.CacheWriteFailures != 1 || snap.RecordsPartial != 1 {
		t.Errorf("counters wrong: %+v", snap)
	}
}

func TestWriteTimeseriesFailureDoesNotBlockCache(t *testing.T) {
	cache := &fakeCache{}
	store := &fakeStore{fail: true}
	metrics := monitoring.NewService()
	w := New(cache, store, metrics, "POND-001", "1.0.0")

	outcome := w.Write(context.Background(), testRecord())
	if !outcome.CacheOK {
		t.Errorf("cache_ok should be true")
	}
	if outcome.TimeseriesOK {
		t.Errorf("timeseries_ok should be false")
	}
	if len(cache.writes) != 1 {
		t.Fatalf("cache write should still happen, got %d", len(cache.writes))
	}
	if got := metrics.Snapshot().TimeseriesWriteFailures; got != 1 {
		t.Errorf("timeseries failure counter: got %d want 1", got)
	}
}

func TestWriteBothSinksFail(t *testing.T) {
	metrics := monitoring.NewService()
	w := New(&fakeCache{fail: true}, &fakeStore{fail: true}, metrics, "POND-001", "1.0.0")

	outcome := w.Write(context.Background(), testRecord())
	if !outcome.Failed() {
		t.Fatalf("expected failed outcome, got %+v", outcome)
	}
	if got := metrics.Snapshot().RecordsFailed; got != 1 {
		t.Errorf("failed counter: got %d want 1", got)
	}
}

func TestWriteRecoversIndependentlyAcrossRecords(t *testing.T) {
	cache := &fakeCache{}
	store := &fakeStore{fail: true}
	metrics := monitoring.NewService()
	w := New(cache, store, metrics, "POND-001", "1.0.0")

	first := w.Write(context.Background(), testRecord())
	if first.TimeseriesOK {
		t.Fatalf("first write should miss the store")
	}

	// store comes back; the next record needs no retry queue
	store.fail = false
	second := w.Write(context.Background(), testRecord())
	if !second.CacheOK || !second.TimeseriesOK {
		t.Fatalf("second write should fully succeed, got %+v", second)
	}
	if len(store.records) != 1 {
		t.Fatalf("only the second record should reach the store, got %d", len(store.records))
	}
}

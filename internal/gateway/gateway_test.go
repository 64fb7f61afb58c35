package gateway

import (
	"context"
	"testing"
	"time"

	"github.com/pondworks/pondgate/internal/config"
	"github.com/pondworks/pondgate/internal/connect"
	"github.com/pondworks/pondgate/internal/decoder"
	"github.com/pondworks/pondgate/internal/errors"
	"github.com/pondworks/pondgate/internal/models"
	"github.com/pondworks/pondgate/internal/monitoring"
	"github.com/pondworks/pondgate/internal/writer"
)

type scriptedLink struct {
	deadFor int // IsAlive returns false this many times
	lines   []string
	opens   int
	closed  bool
}

func (l *scriptedLink) Open() error {
	l.opens++
	return nil
}

func (l *scriptedLink) ReadLine() (string, error) {
	if len(l.lines) == 0 {
		return "", nil
	}
	line := l.lines[0]
	l.lines = l.lines[1:]
	return line, nil
}

func (l *scriptedLink) IsAlive() bool {
	if l.deadFor > 0 {
		l.deadFor--
		return false
	}
	return true
}

func (l *scriptedLink) Close() error {
	l.closed = true
	return nil
}

type memCache struct {
	fail   bool
	writes int
}

func (c *memCache) SetLatestStatus(ctx context.Context, status *models.LatestStatus) error {
	if err := ctx.Err(); err != nil {
		return errors.NewCacheWriteError("failed to cache latest status", err)
	}
	if c.fail {
		return errors.NewCacheWriteError("down", nil)
	}
	c.writes++
	return nil
}
func (c *memCache) Ping(ctx context.Context) error { return nil }
func (c *memCache) Close() error                   { return nil }

type memStore struct {
	fail    bool
	closed  bool
	records []*models.CanonicalRecord
}

func (s *memStore) InsertRecord(ctx context.Context, record *models.CanonicalRecord) error {
	if err := ctx.Err(); err != nil {
		return errors.NewTimeseriesWriteError("failed to begin transaction", err)
	}
	if s.fail {
		return errors.NewTimeseriesWriteError("down", nil)
	}
	s.records = append(s.records, record)
	return nil
}
func (s *memStore) Ping(ctx context.Context) error { return nil }
func (s *memStore) Close() error {
	s.closed = true
	return nil
}

func testGateway(link *scriptedLink, cacheSink *memCache, store *memStore, simulate bool) *Gateway {
	cfg := &config.Config{
		Gateway: config.GatewayConfig{
			MaxRetries:       3,
			RetryDelay:       5 * time.Second,
			SimulateData:     simulate,
			SimulateInterval: 30 * time.Second,
			CacheTTL:         300 * time.Second,
			DeviceID:         "POND-001",
			FirmwareVersion:  "1.0.0",
		},
	}
	metrics := monitoring.NewService()
	g := &Gateway{
		cfg:     cfg,
		conn:    connect.NewManagerWithSleep(3, 5*time.Second, func(time.Duration) {}),
		metrics: metrics,
		dec:     decoder.New(nil),
		sim:     NewSimulator(nil),
		link:    link,
		cache:   cacheSink,
		store:   store,
		sink:    writer.New(cacheSink, store, metrics, "POND-001", "1.0.0"),
		sleep:   func(context.Context, time.Duration) {},
	}
	return g
}

func TestIterationIngestsValidLine(t *testing.T) {
	link := &scriptedLink{lines: []string{`{"temperature_c": 22.5, "battery_v": 12.1, "solar_v": 14.0}`}}
	cacheSink := &memCache{}
	store := &memStore{}
	g := testGateway(link, cacheSink, store, false)

	g.runIteration(context.Background())

	if cacheSink.writes != 1 || len(store.records) != 1 {
		t.Fatalf("expected one write per sink, got cache=%d store=%d", cacheSink.writes, len(store.records))
	}
	if store.records[0].TemperatureC != 22.5 {
		t.Errorf("record content wrong: %+v", store.records[0])
	}
}

func TestIterationSkipsBadRecords(t *testing.T) {
	link := &scriptedLink{lines: []string{
		`not json at all`,
		`{"temperature_c": 150, "battery_v": 12.1, "solar_v": 14.0}`,
		`{"temperature_c": 22.5, "battery_v": 12.1, "solar_v": 14.0}`,
	}}
	cacheSink := &memCache{}
	store := &memStore{}
	g := testGateway(link, cacheSink, store, false)

	for i := 0; i < 3; i++ {
		g.runIteration(context.Background())
	}

	if len(store.records) != 1 {
		t.Fatalf("only the valid line should persist, got %d records", len(store.records))
	}
	snap := g.metrics.Snapshot()
	if snap.DecodeErrors != 1 {
		t.Errorf("decode error counter: got %d want 1", snap.DecodeErrors)
	}
	if snap.ValidationErrors != 1 {
		t.Errorf("validation error counter: got %d want 1", snap.ValidationErrors)
	}
}

func TestIterationEmptyReadIsNotAnError(t *testing.T) {
	link := &scriptedLink{}
	g := testGateway(link, &memCache{}, &memStore{}, false)

	g.runIteration(context.Background())

	snap := g.metrics.Snapshot()
	if snap.IterationErrors != 0 || snap.DecodeErrors != 0 {
		t.Fatalf("empty read must not count as an error: %+v", snap)
	}
}

func TestReconnectResumesIngestion(t *testing.T) {
	link := &scriptedLink{
		deadFor: 2,
		lines: []string{
			`{"temperature_c": 22.5, "battery_v": 12.1, "solar_v": 14.0}`,
			`{"temperature_c": 23.0, "battery_v": 12.0, "solar_v": 13.5}`,
		},
	}
	store := &memStore{}
	g := testGateway(link, &memCache{}, store, false)

	// two iterations hit a dead link and reconnect, then ingestion resumes
	for i := 0; i < 4; i++ {
		g.runIteration(context.Background())
	}

	if link.opens != 2 {
		t.Errorf("expected 2 reconnect opens, got %d", link.opens)
	}
	if len(store.records) != 2 {
		t.Fatalf("ingestion should resume after reconnect, got %d records", len(store.records))
	}
	if got := g.metrics.Snapshot().Reconnects; got != 2 {
		t.Errorf("reconnect counter: got %d want 2", got)
	}
}

func TestSimulatedIterationWritesRecord(t *testing.T) {
	store := &memStore{}
	g := testGateway(&scriptedLink{}, &memCache{}, store, true)

	g.runIteration(context.Background())

	if len(store.records) != 1 {
		t.Fatalf("simulated iteration should persist one record, got %d", len(store.records))
	}
	record := store.records[0]
	if record.StationID != SimStationID {
		t.Errorf("simulated record should carry the testing station id, got %q", record.StationID)
	}
	if err := decoder.Revalidate(record); err != nil {
		t.Errorf("simulated record failed validation: %v", err)
	}
	if record.LevelCm == nil || record.OutflowLps == nil {
		t.Errorf("simulated record should carry pond telemetry: %+v", record)
	}
}

func TestShutdownCommitsInFlightRecord(t *testing.T) {
	link := &scriptedLink{lines: []string{`{"temperature_c": 22.5, "battery_v": 12.1, "solar_v": 14.0}`}}
	cacheSink := &memCache{}
	store := &memStore{}
	g := testGateway(link, cacheSink, store, false)

	// the signal arrives while a record is mid-iteration; both sinks
	// must still commit before the loop drains
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	g.runIteration(ctx)

	if cacheSink.writes != 1 {
		t.Errorf("cache write aborted by shutdown signal, writes=%d", cacheSink.writes)
	}
	if len(store.records) != 1 {
		t.Errorf("time-series write aborted by shutdown signal, records=%d", len(store.records))
	}
	snap := g.metrics.Snapshot()
	if snap.RecordsIngested != 1 || snap.RecordsPartial != 0 || snap.RecordsFailed != 0 {
		t.Errorf("outcome counters wrong after shutdown-time commit: %+v", snap)
	}
}

func TestRunDrainsAndReleasesResources(t *testing.T) {
	link := &scriptedLink{}
	store := &memStore{}
	g := testGateway(link, &memCache{}, store, false)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := g.Run(ctx); err != nil {
		t.Fatalf("run error: %v", err)
	}
	if g.State() != StateStopped {
		t.Errorf("expected STOPPED, got %s", g.State())
	}
	if !link.closed {
		t.Errorf("transport not released on drain")
	}
	if !store.closed {
		t.Errorf("store not released on drain")
	}
}

func TestIterationSurvivesPanic(t *testing.T) {
	g := testGateway(&scriptedLink{}, &memCache{}, &memStore{}, false)
	g.link = nil // forces a nil dereference inside the iteration

	g.runIteration(context.Background())

	if got := g.metrics.Snapshot().IterationErrors; got != 1 {
		t.Fatalf("panic should be contained and counted, got %d", got)
	}
}

func TestSimulatorOutputAlwaysValidates(t *testing.T) {
	dec := decoder.New(nil)
	sim := NewSimulator(nil)
	for i := 0; i < 200; i++ {
		reading := sim.Generate()
		if _, err := dec.FromReading(reading); err != nil {
			t.Fatalf("simulated reading rejected: %v (%+v)", err, reading)
		}
	}
}

func TestSimulatorBatteryDrawsDownFromBase(t *testing.T) {
	sim := NewSimulator(nil)
	for i := 0; i < 200; i++ {
		battery, ok := sim.Generate()["battery_v"].(float64)
		if !ok {
			t.Fatal("battery_v missing from simulated reading")
		}
		// jitter subtracts up to 5V from the 5V base
		if battery < 0 || battery > 5 {
			t.Fatalf("battery_v outside [0, 5]: %v", battery)
		}
	}
}

func TestSimulatorClockCycles(t *testing.T) {
	noon := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	midnight := time.Date(2026, 8, 30, 0, 0, 0, 0, time.UTC)

	noonSolar, _ := NewSimulator(func() time.Time { return noon }).Generate()["solar_v"].(float64)
	nightSolar, _ := NewSimulator(func() time.Time { return midnight }).Generate()["solar_v"].(float64)

	// jitter is ±2V; midday solar baseline is 0, midnight is 18
	if nightSolar < noonSolar-4 {
		t.Errorf("solar curve inverted: noon=%v midnight=%v", noonSolar, nightSolar)
	}
}

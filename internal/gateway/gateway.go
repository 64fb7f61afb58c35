// FilePath: internal/gateway/gateway.go
package gateway

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/pondworks/pondgate/internal/cache"
	"github.com/pondworks/pondgate/internal/config"
	"github.com/pondworks/pondgate/internal/connect"
	"github.com/pondworks/pondgate/internal/database"
	"github.com/pondworks/pondgate/internal/decoder"
	"github.com/pondworks/pondgate/internal/errors"
	"github.com/pondworks/pondgate/internal/models"
	"github.com/pondworks/pondgate/internal/monitoring"
	"github.com/pondworks/pondgate/internal/repository"
	"github.com/pondworks/pondgate/internal/repository/timescale"
	"github.com/pondworks/pondgate/internal/transport"
	"github.com/pondworks/pondgate/internal/writer"
	nuts "github.com/vaudience/go-nuts"
)

// State is the ingestion loop lifecycle state.
type State int32

const (
	StateStarting State = iota
	StateRunning
	StateDraining
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateStarting:
		return "STARTING"
	case StateRunning:
		return "RUNNING"
	case StateDraining:
		return "DRAINING"
	case StateStopped:
		return "STOPPED"
	}
	return "UNKNOWN"
}

// iterationPause bounds how long the loop sleeps after an unexpected
// per-iteration error before trying again.
const iterationPause = time.Second

// Gateway owns the three external resources for its lifetime and runs
// the sequential ingest loop: read, decode, dual-sink write. There is
// exactly one writer per resource, so the core needs no locking.
type Gateway struct {
	cfg     *config.Config
	conn    *connect.Manager
	metrics *monitoring.Service
	dec     *decoder.Decoder
	sim     *Simulator

	link  transport.Transport
	cache repository.StatusCache
	store repository.MetricsStore
	sink  *writer.DualSinkWriter

	reader        repository.StatusReader
	metricsReader repository.MetricsReader

	state atomic.Int32
	sleep func(context.Context, time.Duration)
}

// New creates a gateway that dials its own resources during Startup.
func New(cfg *config.Config, conn *connect.Manager, metrics *monitoring.Service) *Gateway {
	g := &Gateway{
		cfg:     cfg,
		conn:    conn,
		metrics: metrics,
		dec:     decoder.New(nil),
		sim:     NewSimulator(nil),
		sleep:   pause,
	}
	g.state.Store(int32(StateStarting))
	return g
}

// State returns the current lifecycle state.
func (g *Gateway) State() State {
	return State(g.state.Load())
}

// StatusReader exposes the cache read side to the API layer. Valid only
// after a successful Startup.
func (g *Gateway) StatusReader() repository.StatusReader {
	return g.reader
}

// MetricsReader exposes the time-series read side to the API layer.
func (g *Gateway) MetricsReader() repository.MetricsReader {
	return g.metricsReader
}

// Dependencies names the backing sinks for the health endpoint. Valid
// only after a successful Startup.
func (g *Gateway) Dependencies() map[string]repository.Pinger {
	return map[string]repository.Pinger{
		"cache":      g.cache,
		"timeseries": g.store,
	}
}

// Startup establishes transport, cache, and time-series store with the
// connection manager's retry budget, verifies the schema gate, and
// builds the dual-sink writer. All-or-nothing: any exhausted budget or
// schema failure aborts startup and the caller exits non-zero.
func (g *Gateway) Startup(ctx context.Context) error {
	if g.cfg.Gateway.TestingMode {
		nuts.L.Infof("[Gateway] TESTING MODE enabled, no physical hardware required")
	}
	if g.cfg.Gateway.SimulateData {
		nuts.L.Infof("[Gateway] DATA SIMULATION enabled, generating synthetic readings")
	}

	err := g.conn.Establish(ctx, connect.ResourceCache, func(ctx context.Context) error {
		client, err := cache.New(ctx, g.cfg.Redis, g.cfg.Gateway.CacheTTL)
		if err != nil {
			return err
		}
		g.cache = client
		g.reader = client
		return nil
	})
	if err != nil {
		return err
	}

	err = g.conn.Establish(ctx, connect.ResourceTimeseries, func(ctx context.Context) error {
		db, err := database.NewTimescaleDB(ctx, g.cfg.Database.TimescaleDB)
		if err != nil {
			return err
		}
		if err := database.VerifySchema(ctx, db); err != nil {
			_ = db.Close()
			return err
		}
		repo := timescale.NewMetricsRepository(db)
		g.store = repo
		g.metricsReader = repo
		return nil
	})
	if err != nil {
		g.releaseResources()
		return err
	}

	g.link = g.newTransport()
	err = g.conn.Establish(ctx, connect.ResourceTransport, func(ctx context.Context) error {
		if err := g.link.Open(); err != nil {
			return err
		}
		if !g.link.IsAlive() {
			_ = g.link.Close()
			return errors.NewTransportError("transport opened but link is not alive", nil)
		}
		return nil
	})
	if err != nil {
		g.releaseResources()
		return err
	}

	g.sink = writer.New(g.cache, g.store, g.metrics,
		g.cfg.Gateway.DeviceID, g.cfg.FirmwareVersion())

	nuts.L.Infof("[Gateway] All connections established")
	return nil
}

func (g *Gateway) newTransport() transport.Transport {
	if g.cfg.Gateway.TestingMode {
		return transport.NewNullTransport(g.cfg.Serial.ReadTimeout)
	}
	return transport.NewSerialTransport(g.cfg.Serial)
}

// Run drives the ingest loop until ctx is canceled. The current
// iteration always finishes before the loop drains; cancellation is
// cooperative and checked only between iterations.
func (g *Gateway) Run(ctx context.Context) error {
	if g.sink == nil {
		return errors.NewInternalError("gateway not started", nil)
	}

	g.state.Store(int32(StateRunning))
	nuts.L.Infof("[Gateway] Entering main loop (state %s)", g.State())

	for ctx.Err() == nil {
		g.runIteration(ctx)
	}

	g.state.Store(int32(StateDraining))
	nuts.L.Infof("[Gateway] Shutdown signal received, draining (state %s)", g.State())
	g.releaseResources()
	g.state.Store(int32(StateStopped))
	nuts.L.Infof("[Gateway] Stopped")
	return nil
}

// runIteration performs exactly one read-decode-write cycle. A panic or
// unexpected error inside an iteration is contained here: logged,
// counted, followed by a short pause. The loop itself only ends on an
// explicit shutdown signal.
func (g *Gateway) runIteration(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			g.metrics.RecordEvent(monitoring.EventIterationError)
			nuts.L.Errorf("[Gateway] Unexpected error in iteration: %v", r)
			g.sleep(ctx, iterationPause)
		}
	}()

	if g.cfg.Gateway.SimulateData {
		g.simulateIteration(ctx)
		return
	}

	if !g.link.IsAlive() {
		nuts.L.Warnf("[Gateway] Transport link lost, attempting reconnect")
		g.metrics.RecordEvent(monitoring.EventReconnect)
		err := g.conn.Establish(ctx, connect.ResourceTransport, func(ctx context.Context) error {
			return g.link.Open()
		})
		if err != nil {
			// A single failed reconnect never terminates the process.
			nuts.L.Errorf("[Gateway] Reconnect failed: %v", err)
			g.sleep(ctx, g.conn.RetryDelay())
			return
		}
	}

	line, err := g.link.ReadLine()
	if err != nil {
		nuts.L.Warnf("[Gateway] Transport read failed: %v", err)
		return
	}
	if line == "" {
		return
	}

	record, err := g.dec.Decode(line)
	if err != nil {
		g.countRecordError(err)
		nuts.L.Warnf("[Gateway] Skipping record: %v", err)
		return
	}

	// The shutdown signal must not abort a record already read and
	// validated; cancellation takes effect between iterations only.
	outcome := g.sink.Write(context.WithoutCancel(ctx), record)
	g.logOutcome(record, outcome)
}

// simulateIteration synthesizes one reading and writes it through the
// normal validation and sink path, then idles for the simulation cadence.
// Synthetic readings bypass line decoding entirely.
func (g *Gateway) simulateIteration(ctx context.Context) {
	reading := g.sim.Generate()
	record, err := g.dec.FromReading(reading)
	if err != nil {
		g.countRecordError(err)
		nuts.L.Warnf("[Gateway] Simulated reading rejected: %v", err)
	} else {
		outcome := g.sink.Write(context.WithoutCancel(ctx), record)
		g.logOutcome(record, outcome)
	}
	g.sleep(ctx, g.cfg.Gateway.SimulateInterval)
}

func (g *Gateway) countRecordError(err error) {
	if !errors.IsRecoverable(err) {
		g.metrics.RecordEvent(monitoring.EventIterationError)
		return
	}
	if errors.IsDecode(err) {
		g.metrics.RecordEvent(monitoring.EventDecodeError)
	} else {
		g.metrics.RecordEvent(monitoring.EventValidationError)
	}
}

func (g *Gateway) logOutcome(record *models.CanonicalRecord, outcome writer.WriteOutcome) {
	switch {
	case outcome.CacheOK && outcome.TimeseriesOK:
		level := "n/a"
		if record.LevelCm != nil {
			level = fmt.Sprintf("%.1fcm", *record.LevelCm)
		}
		nuts.L.Infof("[Gateway] Record saved: T=%.1f°C B=%.2fV S=%.2fV level=%s",
			record.TemperatureC, record.BatteryV, record.SolarV, level)
	case outcome.Failed():
		nuts.L.Errorf("[Gateway] Record lost: both sinks failed")
	default:
		nuts.L.Warnf("[Gateway] Partial save: cache_ok=%v timeseries_ok=%v",
			outcome.CacheOK, outcome.TimeseriesOK)
	}
}

// releaseResources closes whatever Startup acquired, in reverse order.
// Safe to call with partially-initialized state; runs on every exit path
// out of RUNNING.
func (g *Gateway) releaseResources() {
	if g.link != nil {
		if err := g.link.Close(); err != nil {
			nuts.L.Warnf("[Gateway] Transport close failed: %v", err)
		}
		g.link = nil
	}
	if g.store != nil {
		if err := g.store.Close(); err != nil {
			nuts.L.Warnf("[Gateway] Time-series store close failed: %v", err)
		}
		g.store = nil
	}
	if g.cache != nil {
		if err := g.cache.Close(); err != nil {
			nuts.L.Warnf("[Gateway] Cache close failed: %v", err)
		}
		g.cache = nil
	}
	nuts.L.Infof("[Gateway] Resources released")
}

// pause sleeps for d but returns early when ctx is canceled, keeping
// drain latency bounded by one interval at most.
func pause(ctx context.Context, d time.Duration) {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}

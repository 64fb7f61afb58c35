// FilePath: internal/connect/connect.go
package connect

import (
	"context"
	"fmt"
	"time"

	"github.com/pondworks/pondgate/internal/errors"
	nuts "github.com/vaudience/go-nuts"
)

// Resource kinds the manager supervises.
const (
	ResourceTransport  = "transport"
	ResourceCache      = "cache"
	ResourceTimeseries = "timeseries"
)

// Dial attempts one connection and must only return nil once the
// resource reports healthy (a ping or equivalent round-trip), not merely
// once a socket is open.
type Dial func(ctx context.Context) error

// Manager owns the retry policy for the gateway's three long-lived
// external dependencies. Attempts are fixed in number with a fixed
// inter-attempt delay; these are startup dependencies, not a high-churn
// pool, so no backoff curve is warranted.
type Manager struct {
	maxRetries int
	retryDelay time.Duration
	sleep      func(time.Duration)
}

func NewManager(maxRetries int, retryDelay time.Duration) *Manager {
	return &Manager{
		maxRetries: maxRetries,
		retryDelay: retryDelay,
		sleep:      time.Sleep,
	}
}

// NewManagerWithSleep lets tests substitute the inter-attempt delay.
func NewManagerWithSleep(maxRetries int, retryDelay time.Duration, sleep func(time.Duration)) *Manager {
	m := NewManager(maxRetries, retryDelay)
	m.sleep = sleep
	return m
}

// Establish runs the dial func until it succeeds or the retry budget is
// exhausted. Each resource kind is established independently; callers
// must not proceed to dependent steps until Establish returns nil.
func (m *Manager) Establish(ctx context.Context, resource string, dial Dial) error {
	var lastErr error
	for attempt := 1; attempt <= m.maxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return errors.NewConnExhaustedError(
				fmt.Sprintf("establishing %s canceled", resource), err)
		}

		err := dial(ctx)
		if err == nil {
			nuts.L.Infof("[Connect] %s connection established (attempt %d/%d)",
				resource, attempt, m.maxRetries)
			return nil
		}

		// Schema failures indicate missing provisioning, not a transient
		// condition; retrying cannot help.
		if errors.IsSchema(err) {
			return err
		}

		lastErr = err
		nuts.L.Warnf("[Connect] %s connection attempt %d/%d failed: %v",
			resource, attempt, m.maxRetries, err)
		if attempt < m.maxRetries {
			m.sleep(m.retryDelay)
		}
	}

	return errors.NewConnExhaustedError(
		fmt.Sprintf("failed to connect to %s after %d attempts", resource, m.maxRetries),
		lastErr,
	)
}

// RetryDelay exposes the configured delay for the ingestion loop's
// mid-run reconnect pacing.
func (m *Manager) RetryDelay() time.Duration {
	return m.retryDelay
}

package coordinator

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/nerrad567/mygren-bridge/internal/mygren"
)

// Fetcher is the heat pump API surface the coordinator needs.
// Satisfied by *mygren.Client.
type Fetcher interface {
	Telemetry(ctx context.Context) (mygren.Telemetry, error)
	Login(ctx context.Context) error
}

// Listener receives poll outcomes.
//
// Callbacks are invoked from the poll goroutine, in registration order,
// synchronously within a poll. A slow listener delays the snapshot for
// listeners after it, but never overlaps with another poll.
type Listener interface {
	// OnTelemetry is called with each successful snapshot.
	OnTelemetry(tel mygren.Telemetry)

	// OnUpdateFailed is called when a poll fails after the retry.
	OnUpdateFailed(err error)
}

// Logger interface for optional logging support.
// Compatible with logging.Logger and slog.Logger.
type Logger interface {
	Debug(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// Stats is a point-in-time snapshot of the coordinator's counters,
// exposed via the API's metrics endpoint.
type Stats struct {
	Polls       uint64    `json:"polls"`
	Failures    uint64    `json:"failures"`
	LastSuccess time.Time `json:"last_success"`
	LastError   string    `json:"last_error,omitempty"`
}

// Coordinator owns the telemetry poll loop.
//
// Thread Safety:
//   - All exported methods are safe for concurrent use.
//   - Polling itself is single-goroutine; there is no fetch concurrency.
type Coordinator struct {
	fetcher  Fetcher
	interval time.Duration

	listeners []Listener
	listMu    sync.RWMutex

	// refreshCh requests an immediate out-of-band poll. Buffered at 1:
	// coalescing concurrent refresh requests into one poll is fine.
	refreshCh chan struct{}

	// last poll outcome
	telemetry   mygren.Telemetry
	lastErr     error
	lastSuccess time.Time
	polls       uint64
	failures    uint64
	stateMu     sync.RWMutex

	started bool
	startMu sync.Mutex

	logger   Logger
	loggerMu sync.RWMutex
}

// New creates a coordinator polling the fetcher at the given interval.
func New(fetcher Fetcher, interval time.Duration) *Coordinator {
	return &Coordinator{
		fetcher:   fetcher,
		interval:  interval,
		refreshCh: make(chan struct{}, 1),
	}
}

// SetLogger sets a logger for poll outcome logging.
func (c *Coordinator) SetLogger(logger Logger) {
	c.loggerMu.Lock()
	c.logger = logger
	c.loggerMu.Unlock()
}

func (c *Coordinator) getLogger() Logger {
	c.loggerMu.RLock()
	defer c.loggerMu.RUnlock()
	return c.logger
}

// AddListener registers a listener for poll outcomes.
//
// Listeners added after Start see snapshots from the next poll onward.
func (c *Coordinator) AddListener(listener Listener) {
	c.listMu.Lock()
	c.listeners = append(c.listeners, listener)
	c.listMu.Unlock()
}

// Start performs a blocking first poll and then launches the poll loop.
//
// The first poll's error is returned directly so startup fails fast on
// bad credentials or an unreachable heat pump. The loop runs until ctx
// is cancelled.
//
// Parameters:
//   - ctx: Context governing the loop's lifetime
//
// Returns:
//   - error: If already started, or if the first poll fails
func (c *Coordinator) Start(ctx context.Context) error {
	c.startMu.Lock()
	if c.started {
		c.startMu.Unlock()
		return ErrAlreadyStarted
	}
	c.started = true
	c.startMu.Unlock()

	if err := c.poll(ctx); err != nil {
		return fmt.Errorf("coordinator: initial poll: %w", err)
	}

	go c.run(ctx)
	return nil
}

// run is the poll loop. Ticker polls keep their cadence; refresh requests
// trigger extra polls in between without resetting the ticker.
func (c *Coordinator) run(ctx context.Context) {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			if logger := c.getLogger(); logger != nil {
				logger.Debug("poll loop stopped", "reason", ctx.Err())
			}
			return
		case <-ticker.C:
			c.poll(ctx) //nolint:errcheck // outcome recorded internally
		case <-c.refreshCh:
			c.poll(ctx) //nolint:errcheck // outcome recorded internally
		}
	}
}

// RequestRefresh asks for an immediate out-of-band poll.
//
// Non-blocking: if a refresh is already pending the request coalesces
// into it. Called by entities after a successful command so optimistic
// state is confirmed quickly.
func (c *Coordinator) RequestRefresh() {
	select {
	case c.refreshCh <- struct{}{}:
	default:
	}
}

// poll fetches telemetry, applying the single re-auth retry, records the
// outcome, and fans it out to listeners.
func (c *Coordinator) poll(ctx context.Context) error {
	tel, err := c.fetch(ctx)

	c.stateMu.Lock()
	c.polls++
	if err != nil {
		c.failures++
		c.lastErr = err
	} else {
		c.telemetry = tel
		c.lastErr = nil
		c.lastSuccess = time.Now()
	}
	c.stateMu.Unlock()

	c.listMu.RLock()
	listeners := make([]Listener, len(c.listeners))
	copy(listeners, c.listeners)
	c.listMu.RUnlock()

	if err != nil {
		if logger := c.getLogger(); logger != nil {
			logger.Warn("telemetry poll failed", "error", err)
		}
		for _, listener := range listeners {
			listener.OnUpdateFailed(err)
		}
		return err
	}

	for _, listener := range listeners {
		listener.OnTelemetry(tel)
	}
	return nil
}

// fetch performs one telemetry fetch with the auth-retry semantics:
// on ErrAuth, re-authenticate once and retry the fetch once.
func (c *Coordinator) fetch(ctx context.Context) (mygren.Telemetry, error) {
	tel, err := c.fetcher.Telemetry(ctx)
	if err == nil {
		return tel, nil
	}
	if !errors.Is(err, mygren.ErrAuth) {
		return nil, err
	}

	if logger := c.getLogger(); logger != nil {
		logger.Debug("auth error during poll, re-authenticating", "error", err)
	}
	if loginErr := c.fetcher.Login(ctx); loginErr != nil {
		return nil, fmt.Errorf("%w (re-auth after %v)", loginErr, err)
	}
	return c.fetcher.Telemetry(ctx)
}

// =============================================================================
// Accessors
// =============================================================================

// Telemetry returns the most recent successful snapshot.
// ok is false before the first successful poll.
func (c *Coordinator) Telemetry() (tel mygren.Telemetry, ok bool) {
	c.stateMu.RLock()
	defer c.stateMu.RUnlock()
	return c.telemetry, c.telemetry != nil
}

// LastSuccess returns the time of the most recent successful poll
// (zero before the first success).
func (c *Coordinator) LastSuccess() time.Time {
	c.stateMu.RLock()
	defer c.stateMu.RUnlock()
	return c.lastSuccess
}

// LastError returns the most recent poll error, or nil if the last poll
// succeeded.
func (c *Coordinator) LastError() error {
	c.stateMu.RLock()
	defer c.stateMu.RUnlock()
	return c.lastErr
}

// Healthy reports whether the last poll succeeded.
func (c *Coordinator) Healthy() bool {
	c.stateMu.RLock()
	defer c.stateMu.RUnlock()
	return c.telemetry != nil && c.lastErr == nil
}

// Stats returns a snapshot of poll counters for metrics reporting.
func (c *Coordinator) Stats() Stats {
	c.stateMu.RLock()
	defer c.stateMu.RUnlock()

	stats := Stats{
		Polls:       c.polls,
		Failures:    c.failures,
		LastSuccess: c.lastSuccess,
	}
	if c.lastErr != nil {
		stats.LastError = c.lastErr.Error()
	}
	return stats
}

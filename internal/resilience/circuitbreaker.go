// Package resilience keeps the voice pipeline answering when a provider
// backend misbehaves. A [CircuitBreaker] stops hammering a backend that keeps
// failing, and the fallback groups route each call to the next configured
// provider once the primary's breaker trips, so one flapping API never stalls
// every utterance.
package resilience

import (
	"errors"
	"log/slog"
	"sync"
	"time"
)

// ErrCircuitOpen is returned by [CircuitBreaker.Execute] while the breaker is
// open and its cool-off has not elapsed.
var ErrCircuitOpen = errors.New("circuit breaker is open")

// Breaker defaults tuned for per-utterance provider calls: trip fast and
// retry within a conversation's natural pause.
const (
	defaultTripAfter   = 3
	defaultCooloff     = 20 * time.Second
	defaultProbeBudget = 2
)

// State is a breaker's operating mode.
type State int

const (
	// StateClosed forwards every call.
	StateClosed State = iota

	// StateOpen rejects calls with [ErrCircuitOpen] until the cool-off
	// elapses.
	StateOpen

	// StateHalfOpen lets a bounded number of probe calls through; their
	// outcome decides whether the breaker closes again or re-opens.
	StateHalfOpen
)

// String returns the human-readable name of the state.
func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// CircuitBreakerConfig holds the tuning knobs for a [CircuitBreaker]. Zero
// fields select the package defaults.
type CircuitBreakerConfig struct {
	// Name labels the breaker in log output.
	Name string

	// MaxFailures is the consecutive-failure run that trips the breaker.
	// Default: 3.
	MaxFailures int

	// ResetTimeout is how long a tripped breaker rejects calls before
	// probing the backend again. Default: 20s.
	ResetTimeout time.Duration

	// HalfOpenMax is the probe budget in the half-open state. Default: 2.
	HalfOpenMax int
}

// CircuitBreaker is a three-state breaker: closed, open, half-open. Safe for
// concurrent use.
type CircuitBreaker struct {
	name    string
	trip    int
	cooloff time.Duration
	probes  int

	mu         sync.Mutex
	state      State
	failures   int
	openedAt   time.Time
	probeCalls int
	probeFails int
}

// NewCircuitBreaker builds a breaker from cfg, filling zero fields with the
// package defaults.
func NewCircuitBreaker(cfg CircuitBreakerConfig) *CircuitBreaker {
	cb := &CircuitBreaker{
		name:    cfg.Name,
		trip:    cfg.MaxFailures,
		cooloff: cfg.ResetTimeout,
		probes:  cfg.HalfOpenMax,
		state:   StateClosed,
	}
	if cb.trip <= 0 {
		cb.trip = defaultTripAfter
	}
	if cb.cooloff <= 0 {
		cb.cooloff = defaultCooloff
	}
	if cb.probes <= 0 {
		cb.probes = defaultProbeBudget
	}
	return cb
}

// Execute runs fn if the breaker admits the call. Open breakers reject with
// [ErrCircuitOpen]; half-open breakers admit calls only within the probe
// budget.
func (cb *CircuitBreaker) Execute(fn func() error) error {
	probing, err := cb.admit()
	if err != nil {
		return err
	}
	err = fn()
	cb.settle(err, probing)
	return err
}

// admit decides whether a call may proceed and reports whether it counts
// against the half-open probe budget.
func (cb *CircuitBreaker) admit() (bool, error) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case StateOpen:
		if time.Since(cb.openedAt) < cb.cooloff {
			return false, ErrCircuitOpen
		}
		cb.state = StateHalfOpen
		cb.probeCalls = 0
		cb.probeFails = 0
		slog.Info("circuit half-open, probing backend", "name", cb.name)
	case StateHalfOpen:
		if cb.probeCalls >= cb.probes {
			return false, ErrCircuitOpen
		}
	}

	if cb.state == StateHalfOpen {
		cb.probeCalls++
		return true, nil
	}
	return false, nil
}

// settle records the call outcome.
func (cb *CircuitBreaker) settle(err error, probing bool) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if err == nil {
		if !probing {
			cb.failures = 0
			return
		}
		if cb.probeCalls-cb.probeFails >= cb.probes {
			cb.state = StateClosed
			cb.failures = 0
			slog.Info("circuit closed after successful probes", "name", cb.name)
		}
		return
	}

	if probing {
		// One failed probe re-opens the breaker for a full cool-off.
		cb.probeFails++
		cb.state = StateOpen
		cb.openedAt = time.Now()
		slog.Warn("circuit re-opened by failed probe", "name", cb.name)
		return
	}

	cb.failures++
	if cb.failures >= cb.trip {
		cb.state = StateOpen
		cb.openedAt = time.Now()
		slog.Warn("circuit opened", "name", cb.name, "failures", cb.failures)
	}
}

// State returns the breaker's current mode. An open breaker whose cool-off
// has elapsed reports [StateHalfOpen]; the stored transition happens on the
// next [CircuitBreaker.Execute].
func (cb *CircuitBreaker) State() State {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if cb.state == StateOpen && time.Since(cb.openedAt) >= cb.cooloff {
		return StateHalfOpen
	}
	return cb.state
}

// Reset forces the breaker back to closed and clears all counters.
func (cb *CircuitBreaker) Reset() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.state = StateClosed
	cb.failures = 0
	cb.probeCalls = 0
	cb.probeFails = 0
	slog.Info("circuit manually reset", "name", cb.name)
}

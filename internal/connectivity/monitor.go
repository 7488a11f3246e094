// Package connectivity bridges network-availability signals into the
// upload queue and the sync engine. It models reachability as an explicit
// two-state machine {Offline, Online}; every transition runs through one
// handler that receives the previous state.
package connectivity

import (
	"context"
	"sync"
	"time"

	"github.com/dmitrijs2005/auditflow/internal/logging"
)

// State is the connectivity state.
type State string

const (
	Offline State = "offline"
	Online  State = "online"
)

// settleDelay is how long to wait after regaining connectivity before
// kicking off re-drains, letting flaky links stabilize first.
const settleDelay = 2 * time.Second

// Monitor tracks the current connectivity state and notifies subscribers
// on transitions to Online. Other components read Monitor.Online to
// short-circuit network attempts early.
type Monitor struct {
	probe    func(ctx context.Context) error
	log      logging.Logger
	onOnline []func(ctx context.Context)

	mu    sync.Mutex
	state State

	// sleep is a seam for tests.
	sleep func(time.Duration)
}

// New constructs a Monitor starting in the given state. The probe is used
// by Watch to detect reachability; it may be nil when transitions are
// driven purely by Set.
func New(initial State, probe func(ctx context.Context) error, log logging.Logger) *Monitor {
	return &Monitor{
		probe: probe,
		log:   log,
		state: initial,
		sleep: time.Sleep,
	}
}

// OnOnline registers a callback invoked (in registration order) after an
// Offline -> Online transition settles. Typical wiring: first the upload
// queue's re-enqueue sweep, then the sync engine's batch driver.
func (m *Monitor) OnOnline(fn func(ctx context.Context)) {
	m.onOnline = append(m.onOnline, fn)
}

// Online reports whether the device currently appears connected.
func (m *Monitor) Online() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state == Online
}

// Set feeds an external connectivity signal into the state machine.
func (m *Monitor) Set(ctx context.Context, next State) {
	m.mu.Lock()
	prev := m.state
	m.state = next
	m.mu.Unlock()

	m.transition(ctx, prev, next)
}

// transition is the single handler for state changes. Going offline needs
// no action: in-flight attempts fail naturally into the retry paths.
func (m *Monitor) transition(ctx context.Context, prev, next State) {
	if prev == next {
		return
	}
	m.log.Info(ctx, "connectivity changed", "from", string(prev), "to", string(next))

	if prev == Offline && next == Online {
		m.sleep(settleDelay)
		for _, fn := range m.onOnline {
			fn(ctx)
		}
	}
}

// Watch polls the probe at the given interval and feeds the result into
// the state machine until ctx is canceled.
func (m *Monitor) Watch(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			probeCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
			err := m.probe(probeCtx)
			cancel()

			if err != nil {
				m.Set(ctx, Offline)
			} else {
				m.Set(ctx, Online)
			}

		case <-ctx.Done():
			return
		}
	}
}

package connectivity

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dmitrijs2005/auditflow/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() logging.Logger {
	return logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func newTestMonitor(initial State) (*Monitor, *[]time.Duration) {
	m := New(initial, nil, testLogger())
	var slept []time.Duration
	m.sleep = func(d time.Duration) { slept = append(slept, d) }
	return m, &slept
}

func TestMonitor_OfflineToOnlineRunsCallbacksInOrder(t *testing.T) {
	m, slept := newTestMonitor(Offline)

	var calls []string
	m.OnOnline(func(context.Context) { calls = append(calls, "queue") })
	m.OnOnline(func(context.Context) { calls = append(calls, "syncer") })

	m.Set(context.Background(), Online)

	assert.True(t, m.Online())
	assert.Equal(t, []string{"queue", "syncer"}, calls)
	// The settle delay runs before any callback fires.
	assert.Equal(t, []time.Duration{settleDelay}, *slept)
}

func TestMonitor_SameStateIsNoOp(t *testing.T) {
	m, _ := newTestMonitor(Online)

	calls := 0
	m.OnOnline(func(context.Context) { calls++ })

	m.Set(context.Background(), Online)
	m.Set(context.Background(), Online)

	assert.True(t, m.Online())
	assert.Equal(t, 0, calls)
}

func TestMonitor_OnlineToOfflineRunsNoCallbacks(t *testing.T) {
	m, _ := newTestMonitor(Online)

	calls := 0
	m.OnOnline(func(context.Context) { calls++ })

	m.Set(context.Background(), Offline)

	assert.False(t, m.Online())
	assert.Equal(t, 0, calls)
}

func TestMonitor_CallbacksFireOncePerTransition(t *testing.T) {
	m, _ := newTestMonitor(Offline)

	calls := 0
	m.OnOnline(func(context.Context) { calls++ })

	ctx := context.Background()
	m.Set(ctx, Online)
	m.Set(ctx, Offline)
	m.Set(ctx, Online)

	assert.Equal(t, 2, calls)
}

func TestMonitor_WatchFeedsProbeResults(t *testing.T) {
	var failing atomic.Bool
	failing.Store(true)

	probe := func(context.Context) error {
		if failing.Load() {
			return errors.New("unreachable")
		}
		return nil
	}

	m := New(Offline, probe, testLogger())
	m.sleep = func(time.Duration) {}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go m.Watch(ctx, 5*time.Millisecond)

	time.Sleep(25 * time.Millisecond)
	assert.False(t, m.Online())

	failing.Store(false)
	require.Eventually(t, m.Online, 2*time.Second, 5*time.Millisecond)
}

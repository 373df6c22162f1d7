package payments

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// scriptedChecker returns a fixed sequence of statuses and keeps
// returning the last one once the script runs out
type scriptedChecker struct {
	script []PaymentStatus
	err    error
	calls  atomic.Int64
}

func (c *scriptedChecker) GetPaymentStatus(_ context.Context, _ string) (PaymentStatus, error) {
	n := int(c.calls.Add(1)) - 1
	if c.err != nil {
		return "", c.err
	}
	if n >= len(c.script) {
		n = len(c.script) - 1
	}
	return c.script[n], nil
}

func testMonitor(checker StatusChecker, maxTime time.Duration) *Monitor {
	return NewMonitor(checker, MonitorConfig{
		Interval:          5 * time.Millisecond,
		MaxMonitoringTime: maxTime,
	}, zap.NewNop())
}

func awaitOutcome(t *testing.T, results <-chan Outcome) Outcome {
	t.Helper()
	select {
	case outcome, ok := <-results:
		require.True(t, ok, "channel closed without an outcome")
		return outcome
	case <-time.After(2 * time.Second):
		t.Fatal("no outcome before test deadline")
		return Outcome{}
	}
}

func TestWatchDeliversSingleConfirmedOutcome(t *testing.T) {
	checker := &scriptedChecker{script: []PaymentStatus{
		StatusPending, StatusPending, StatusPending, StatusConfirmed,
	}}
	m := testMonitor(checker, time.Minute)

	results := m.Watch(context.Background(), "pay_1")
	outcome := awaitOutcome(t, results)

	assert.Equal(t, StateConfirmed, outcome.State)
	assert.Equal(t, StatusConfirmed, outcome.Status)
	assert.Equal(t, "pay_1", outcome.PaymentID)
	assert.EqualValues(t, 4, checker.calls.Load())

	// channel closes after the single outcome, and polling stops
	_, ok := <-results
	assert.False(t, ok)
	time.Sleep(30 * time.Millisecond)
	assert.EqualValues(t, 4, checker.calls.Load())
}

func TestWatchStopsOnFailure(t *testing.T) {
	checker := &scriptedChecker{script: []PaymentStatus{StatusPending, StatusFailed}}
	m := testMonitor(checker, time.Minute)

	outcome := awaitOutcome(t, m.Watch(context.Background(), "pay_2"))
	assert.Equal(t, StateFailed, outcome.State)
	assert.Equal(t, StatusFailed, outcome.Status)
	assert.NoError(t, outcome.Err)
}

func TestWatchTimesOutWhilePending(t *testing.T) {
	checker := &scriptedChecker{script: []PaymentStatus{StatusPending}}
	m := testMonitor(checker, 30*time.Millisecond)

	outcome := awaitOutcome(t, m.Watch(context.Background(), "pay_3"))
	assert.Equal(t, StateTimedOut, outcome.State)
	assert.Equal(t, StatusPending, outcome.Status)
	assert.GreaterOrEqual(t, outcome.Elapsed, 30*time.Millisecond)

	// no further checks once the window closed
	after := checker.calls.Load()
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, after, checker.calls.Load())
}

func TestWatchTransportErrorIsFatal(t *testing.T) {
	checker := &scriptedChecker{err: errors.New("connection refused")}
	m := testMonitor(checker, time.Minute)

	outcome := awaitOutcome(t, m.Watch(context.Background(), "pay_4"))
	assert.Equal(t, StateFailed, outcome.State)
	assert.Error(t, outcome.Err)
	assert.EqualValues(t, 1, checker.calls.Load())
}

func TestWatchCancellationDeliversNothing(t *testing.T) {
	checker := &scriptedChecker{script: []PaymentStatus{StatusPending}}
	m := testMonitor(checker, time.Minute)

	ctx, cancel := context.WithCancel(context.Background())
	results := m.Watch(ctx, "pay_5")
	time.Sleep(12 * time.Millisecond)
	cancel()

	select {
	case outcome, ok := <-results:
		assert.False(t, ok, "expected closed channel, got outcome %+v", outcome)
	case <-time.After(time.Second):
		t.Fatal("channel never closed after cancellation")
	}
}

func TestWatchTreatsUnknownStatusAsPending(t *testing.T) {
	checker := &scriptedChecker{script: []PaymentStatus{
		PaymentStatus("PROCESSING"), StatusConfirmed,
	}}
	m := testMonitor(checker, time.Minute)

	outcome := awaitOutcome(t, m.Watch(context.Background(), "pay_6"))
	assert.Equal(t, StateConfirmed, outcome.State)
	assert.EqualValues(t, 2, checker.calls.Load())
}

func TestValidTransition(t *testing.T) {
	m := testMonitor(&scriptedChecker{}, time.Minute)

	assert.True(t, m.ValidTransition(StatusPending, StatusConfirmed))
	assert.True(t, m.ValidTransition(StatusPending, StatusFailed))
	assert.True(t, m.ValidTransition(StatusPending, StatusPending))
	assert.False(t, m.ValidTransition(StatusConfirmed, StatusFailed))
	assert.False(t, m.ValidTransition(StatusFailed, StatusConfirmed))
}

func TestStateFor(t *testing.T) {
	m := testMonitor(&scriptedChecker{}, time.Minute)

	assert.Equal(t, StateConfirmed, m.StateFor(StatusConfirmed))
	assert.Equal(t, StateFailed, m.StateFor(StatusFailed))
	assert.Equal(t, StateMonitoring, m.StateFor(StatusPending))
}

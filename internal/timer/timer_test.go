package timer

import (
	"sync"
	"testing"
	"time"

	"github.com/claude/liftplan/internal/training"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

// TestMain fails the package if any timer goroutine outlives its test.
func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// newManual returns a timer whose real ticker never fires during a test, so
// ticks are driven by calling step.
func newManual(t *testing.T, seconds int) *RestTimer {
	t.Helper()
	rt := New(seconds, WithInterval(time.Hour))
	t.Cleanup(rt.Close)
	return rt
}

func step(rt *RestTimer) {
	rt.deliver(rt.tick())
}

func TestNew(t *testing.T) {
	rt := newManual(t, 180)
	assert.Equal(t, Snapshot{State: StateIdle, Remaining: 180, Duration: 180}, rt.Snapshot())
	assert.Equal(t, "03:00", rt.Snapshot().String())

	clamped := newManual(t, 0)
	assert.Equal(t, 1, clamped.Duration())
}

func TestExpiresExactlyOnce(t *testing.T) {
	rt := newManual(t, 180)

	var ticks, expirations int
	var last Snapshot
	rt.OnTick(func(s Snapshot) {
		ticks++
		last = s
	})
	rt.OnExpired(func(Snapshot) { expirations++ })

	require.True(t, rt.Start())
	for i := 0; i < 180; i++ {
		step(rt)
	}

	assert.Equal(t, 180, ticks)
	assert.Equal(t, 1, expirations)
	assert.Equal(t, Snapshot{State: StateExpired, Remaining: 0, Duration: 180}, last)

	// Further ticks are ignored: no negative remaining, no second expiration.
	for i := 0; i < 5; i++ {
		step(rt)
	}
	assert.Equal(t, 180, ticks)
	assert.Equal(t, 1, expirations)
	assert.Equal(t, 0, rt.Snapshot().Remaining)
}

func TestPauseKeepsRemaining(t *testing.T) {
	rt := newManual(t, 60)
	rt.Start()
	step(rt)
	step(rt)

	require.True(t, rt.Pause())
	step(rt)
	assert.Equal(t, Snapshot{State: StatePaused, Remaining: 58, Duration: 60}, rt.Snapshot())

	require.True(t, rt.Start())
	step(rt)
	assert.Equal(t, 57, rt.Snapshot().Remaining)
}

func TestInvalidTransitions(t *testing.T) {
	rt := newManual(t, 2)
	assert.False(t, rt.Pause(), "pause while idle")

	rt.Start()
	assert.False(t, rt.Start(), "start while running")

	step(rt)
	step(rt)
	require.Equal(t, StateExpired, rt.Snapshot().State)
	assert.False(t, rt.Start(), "start while expired")
	assert.False(t, rt.Pause(), "pause while expired")
}

// TestResetFromEveryState verifies reset always yields idle with the full duration.
func TestResetFromEveryState(t *testing.T) {
	setups := map[State]func(rt *RestTimer){
		StateIdle: func(rt *RestTimer) {},
		StateRunning: func(rt *RestTimer) {
			rt.Start()
			step(rt)
		},
		StatePaused: func(rt *RestTimer) {
			rt.Start()
			step(rt)
			rt.Pause()
		},
		StateExpired: func(rt *RestTimer) {
			rt.Start()
			for i := 0; i < 3; i++ {
				step(rt)
			}
		},
	}
	for state, setup := range setups {
		t.Run(string(state), func(t *testing.T) {
			rt := newManual(t, 3)
			setup(rt)
			require.Equal(t, state, rt.Snapshot().State)

			assert.True(t, rt.Reset())
			assert.Equal(t, Snapshot{State: StateIdle, Remaining: 3, Duration: 3}, rt.Snapshot())
		})
	}
}

func TestUnsubscribe(t *testing.T) {
	rt := newManual(t, 10)
	calls := 0
	unsubscribe := rt.OnTick(func(Snapshot) { calls++ })
	rt.Start()
	step(rt)
	unsubscribe()
	step(rt)
	assert.Equal(t, 1, calls)
}

func TestCloseIsIdempotent(t *testing.T) {
	rt := New(5, WithInterval(time.Millisecond))
	rt.Start()
	rt.Close()
	rt.Close()

	assert.False(t, rt.Start())
	assert.False(t, rt.Reset())
}

// TestRunsOnTicker exercises the real loop goroutine with a short interval.
func TestRunsOnTicker(t *testing.T) {
	rt := New(3, WithInterval(5*time.Millisecond))
	defer rt.Close()

	done := make(chan Snapshot, 1)
	rt.OnExpired(func(s Snapshot) { done <- s })

	var mu sync.Mutex
	var seen []int
	rt.OnTick(func(s Snapshot) {
		mu.Lock()
		seen = append(seen, s.Remaining)
		mu.Unlock()
	})

	require.True(t, rt.Start())
	select {
	case s := <-done:
		assert.Equal(t, StateExpired, s.State)
	case <-time.After(5 * time.Second):
		t.Fatal("timer did not expire")
	}

	mu.Lock()
	assert.Equal(t, []int{2, 1, 0}, seen)
	mu.Unlock()
}

func TestForPhase(t *testing.T) {
	rt, err := ForPhase(training.LowVolume, WithInterval(time.Hour))
	require.NoError(t, err)
	defer rt.Close()
	assert.Equal(t, 240, rt.Duration())
	assert.Equal(t, "04:00", rt.Snapshot().String())

	_, err = ForPhase("deload")
	assert.ErrorIs(t, err, training.ErrInvalidArgument)
}

func TestFormatRemaining(t *testing.T) {
	tests := []struct {
		in   int
		want string
	}{
		{0, "00:00"},
		{9, "00:09"},
		{60, "01:00"},
		{179, "02:59"},
		{240, "04:00"},
		{-5, "00:00"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatRemaining(tt.in), "FormatRemaining(%d)", tt.in)
	}
}

// Package timer implements the rest-interval countdown shown between sets.
package timer

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/claude/liftplan/internal/events"
	"github.com/claude/liftplan/internal/training"
)

// State is the countdown state.
type State string

const (
	StateIdle    State = "idle"
	StateRunning State = "running"
	StatePaused  State = "paused"
	StateExpired State = "expired"
)

// Snapshot is a consistent view of the timer.
type Snapshot struct {
	State     State `json:"state"`
	Remaining int   `json:"remaining"`
	Duration  int   `json:"duration"`
}

// String renders the remaining time as mm:ss.
func (s Snapshot) String() string {
	return FormatRemaining(s.Remaining)
}

// FormatRemaining renders seconds as mm:ss. Negative input renders as 00:00.
func FormatRemaining(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%02d:%02d", seconds/60, seconds%60)
}

// Option configures a RestTimer.
type Option func(*RestTimer)

// WithInterval sets the tick period. Defaults to one second.
func WithInterval(d time.Duration) Option {
	return func(t *RestTimer) {
		if d > 0 {
			t.interval = d
		}
	}
}

// WithLogger sets the logger used for state transitions.
func WithLogger(log *slog.Logger) Option {
	return func(t *RestTimer) {
		if log != nil {
			t.log = log
		}
	}
}

// RestTimer counts down a rest interval, one unit per tick while running.
// It owns a single goroutine and ticker for its whole lifetime; the ticker
// only runs while the state is running. Close releases both.
type RestTimer struct {
	log      *slog.Logger
	interval time.Duration
	duration int

	mu        sync.Mutex
	state     State
	remaining int
	closed    bool

	ticked  *events.Event[Snapshot]
	expired *events.Event[Snapshot]

	wake      chan struct{}
	done      chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// New creates an idle timer for restSeconds. Non-positive durations are
// clamped to one second.
func New(restSeconds int, opts ...Option) *RestTimer {
	if restSeconds < 1 {
		restSeconds = 1
	}
	t := &RestTimer{
		log:       slog.New(slog.DiscardHandler),
		interval:  time.Second,
		duration:  restSeconds,
		state:     StateIdle,
		remaining: restSeconds,
		ticked:    events.New[Snapshot](),
		expired:   events.New[Snapshot](),
		wake:      make(chan struct{}, 1),
		done:      make(chan struct{}),
	}
	for _, opt := range opts {
		opt(t)
	}

	t.wg.Add(1)
	go t.run()
	return t
}

// ForPhase creates a timer with the phase's configured rest duration.
func ForPhase(phase training.Phase, opts ...Option) (*RestTimer, error) {
	cfg, ok := training.Config(phase)
	if !ok {
		return nil, fmt.Errorf("rest timer for phase %q: %w", phase, training.ErrInvalidArgument)
	}
	return New(cfg.RestSeconds, opts...), nil
}

// Duration returns the configured rest duration in seconds.
func (t *RestTimer) Duration() int {
	return t.duration
}

// Snapshot returns the current state and remaining seconds.
func (t *RestTimer) Snapshot() Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.snapshot()
}

// snapshot must be called with mu held.
func (t *RestTimer) snapshot() Snapshot {
	return Snapshot{State: t.state, Remaining: t.remaining, Duration: t.duration}
}

// OnTick subscribes fn to every decrement. The returned func unsubscribes.
func (t *RestTimer) OnTick(fn func(Snapshot)) func() {
	return t.ticked.Subscribe(fn)
}

// OnExpired subscribes fn to expiration. The returned func unsubscribes.
func (t *RestTimer) OnExpired(fn func(Snapshot)) func() {
	return t.expired.Subscribe(fn)
}

// Start moves an idle or paused timer to running. It reports whether the
// state changed.
func (t *RestTimer) Start() bool {
	return t.transition(func() bool {
		if t.state != StateIdle && t.state != StatePaused {
			return false
		}
		t.state = StateRunning
		return true
	})
}

// Pause stops a running timer, keeping the remaining time.
func (t *RestTimer) Pause() bool {
	return t.transition(func() bool {
		if t.state != StateRunning {
			return false
		}
		t.state = StatePaused
		return true
	})
}

// Reset returns the timer to idle with the full rest duration, from any state.
func (t *RestTimer) Reset() bool {
	return t.transition(func() bool {
		t.state = StateIdle
		t.remaining = t.duration
		return true
	})
}

func (t *RestTimer) transition(apply func() bool) bool {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return false
	}
	from := t.state
	changed := apply()
	snap := t.snapshot()
	t.mu.Unlock()

	if !changed {
		return false
	}
	t.log.Debug("rest timer", "from", from, "to", snap.State, "remaining", snap.Remaining)
	t.notifyLoop()
	return true
}

// notifyLoop asks the loop goroutine to bring its ticker in line with the
// current state. Pending wakeups coalesce.
func (t *RestTimer) notifyLoop() {
	select {
	case t.wake <- struct{}{}:
	default:
	}
}

// Close stops the ticker and waits for the loop goroutine to exit. Safe to
// call more than once. A closed timer ignores Start, Pause and Reset.
func (t *RestTimer) Close() {
	t.closeOnce.Do(func() {
		t.mu.Lock()
		t.closed = true
		t.mu.Unlock()
		close(t.done)
		t.wg.Wait()
	})
}

// tickResult describes what a single tick did.
type tickResult struct {
	snap    Snapshot
	skip    bool
	expired bool
}

// tick decrements the remaining time once if running.
func (t *RestTimer) tick() tickResult {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.state != StateRunning || t.remaining <= 0 {
		return tickResult{skip: true}
	}
	t.remaining--
	if t.remaining == 0 {
		t.state = StateExpired
		return tickResult{snap: t.snapshot(), expired: true}
	}
	return tickResult{snap: t.snapshot()}
}

// deliver publishes a tick result to subscribers.
func (t *RestTimer) deliver(r tickResult) {
	if r.skip {
		return
	}
	t.ticked.Publish(r.snap)
	if r.expired {
		t.log.Info("rest finished", "duration", t.duration)
		t.expired.Publish(r.snap)
	}
}

func (t *RestTimer) running() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state == StateRunning
}

func (t *RestTimer) run() {
	defer t.wg.Done()

	ticker := time.NewTicker(t.interval)
	ticker.Stop()

	for {
		select {
		case <-t.done:
			ticker.Stop()
			return

		case <-t.wake:
			if t.running() {
				// A fresh period on every start drops any partial tick.
				ticker.Reset(t.interval)
			} else {
				ticker.Stop()
			}

		case <-ticker.C:
			r := t.tick()
			if r.skip || r.expired {
				ticker.Stop()
			}
			t.deliver(r)
		}
	}
}

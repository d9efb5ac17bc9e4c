package app

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/bft-labs/icmprog/internal/domain"
	"github.com/bft-labs/icmprog/internal/ports"
)

// ShutdownTimeout bounds Stop. A write is never cancelled once the unit has
// been scanned, so this covers a full exchange plus the result publish.
const ShutdownTimeout = 30 * time.Second

// RunState is whether the station loop is accepting input.
type RunState int

const (
	RunStopped RunState = iota
	RunStarting
	RunRunning
	RunStopping
	RunCrashed
)

// String returns a human-readable representation of the state.
func (s RunState) String() string {
	switch s {
	case RunStopped:
		return "Stopped"
	case RunStarting:
		return "Starting"
	case RunRunning:
		return "Running"
	case RunStopping:
		return "Stopping"
	case RunCrashed:
		return "Crashed"
	default:
		return "Unknown"
	}
}

// runTransitions lists where each run state may go next. A crashed station
// can be started again; a start that fails half way may go straight to Stopping.
var runTransitions = map[RunState][]RunState{
	RunStopped:  {RunStarting},
	RunStarting: {RunRunning, RunStopping, RunCrashed},
	RunRunning:  {RunStopping, RunCrashed},
	RunStopping: {RunStopped, RunCrashed},
	RunCrashed:  {RunStarting},
}

// Lifecycle tracks the station run state and every goroutine the station
// spawns: the event loop, the exchange worker and result publishes.
type Lifecycle struct {
	mu     sync.RWMutex
	state  RunState
	cancel context.CancelFunc
	wg     sync.WaitGroup
	logger ports.Logger
}

// NewLifecycle returns a lifecycle in RunStopped.
func NewLifecycle(logger ports.Logger) *Lifecycle {
	return &Lifecycle{state: RunStopped, logger: logger}
}

// State returns the current run state.
func (l *Lifecycle) State() RunState {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.state
}

// TransitionTo moves to next if runTransitions allows it. A refused move
// out of Stopped or Crashed reports ErrNotRunning; any other refusal
// reports ErrAlreadyRunning.
func (l *Lifecycle) TransitionTo(next RunState, reason string) error {
	l.mu.Lock()
	prev := l.state
	if !slices.Contains(runTransitions[prev], next) {
		l.mu.Unlock()
		if prev == RunStopped || prev == RunCrashed {
			return domain.ErrNotRunning
		}
		return domain.ErrAlreadyRunning
	}
	l.state = next
	l.mu.Unlock()

	l.logger.Debug("station run state",
		ports.String("from", prev.String()),
		ports.String("to", next.String()),
		ports.String("reason", reason),
	)
	return nil
}

// CanStart reports whether the station loop may be started.
func (l *Lifecycle) CanStart() bool {
	return slices.Contains(runTransitions[l.State()], RunStarting)
}

// CanStop reports whether there is a loop to stop.
func (l *Lifecycle) CanStop() bool {
	s := l.State()
	return s == RunStarting || s == RunRunning
}

// SetCancel stores the function that ends the loop's context.
func (l *Lifecycle) SetCancel(cancel context.CancelFunc) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.cancel = cancel
}

// Cancel ends the loop's context, if one was set.
func (l *Lifecycle) Cancel() {
	l.mu.RLock()
	cancel := l.cancel
	l.mu.RUnlock()
	if cancel != nil {
		cancel()
	}
}

// Go runs fn on a tracked goroutine. Drain waits for it.
func (l *Lifecycle) Go(fn func()) {
	l.wg.Add(1)
	go func() {
		defer l.wg.Done()
		fn()
	}()
}

// Drain waits for every goroutine started with Go. It gives up after
// timeout and returns ErrShutdownTimeout.
func (l *Lifecycle) Drain(timeout time.Duration) error {
	done := make(chan struct{})
	go func() {
		l.wg.Wait()
		close(done)
	}()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-done:
		return nil
	case <-timer.C:
		l.logger.Warn("station goroutines still running at shutdown", ports.Duration("timeout", timeout))
		return domain.ErrShutdownTimeout
	}
}

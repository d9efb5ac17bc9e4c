package app

import (
	"context"
	"sync"
	"time"

	"github.com/bft-labs/icmprog/internal/catalog"
	"github.com/bft-labs/icmprog/internal/domain"
	"github.com/bft-labs/icmprog/internal/ports"
)

// DefaultQueueSize is the capacity of the station event queue.
const DefaultQueueSize = 64

// publishTimeout bounds one result publish.
const publishTimeout = 5 * time.Second

// StoreFactory opens the audit record store for a catalog's output directory.
type StoreFactory func(outputDir string) ports.RecordStore

// Observer receives a snapshot after every applied event. It is called from
// the station loop and must not block.
type Observer interface {
	OnSnapshot(Snapshot)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(Snapshot)

// OnSnapshot calls f.
func (f ObserverFunc) OnSnapshot(s Snapshot) { f(s) }

// Snapshot is a read-only view of the station for display.
type Snapshot struct {
	State      WorkflowState
	Profile    domain.Profile
	HasProfile bool
	UnitID     string
	Notice     Notice

	// Seq increases with every applied event
	Seq uint64

	// Catalog summary
	CatalogSource string
	Models        []string
	Deferred      bool
}

// StationConfig contains configuration for the station.
type StationConfig struct {
	QueueSize int
}

// Station owns the workflow and is the single consumer of its events.
// Scans, arm presses, catalog swaps and exchange results are all queued and
// applied in order on one goroutine.
type Station struct {
	config     StationConfig
	programmer Programmer
	stores     StoreFactory
	logger     ports.Logger
	observer   Observer
	publisher  ports.ResultPublisher
	lifecycle  *Lifecycle
	events     chan Event

	// Owned by the loop goroutine. writeGuard is the guard that was live
	// when the write in flight was started.
	guard      *Guard
	writeGuard *Guard
	writing    int
	halted     chan struct{}

	mu       sync.RWMutex
	wf       Workflow
	snapshot Snapshot
}

// StationOption configures optional behavior of a Station.
type StationOption func(*Station)

// WithObserver registers the snapshot observer.
func WithObserver(o Observer) StationOption {
	return func(s *Station) {
		s.observer = o
	}
}

// WithPublisher sets where finished attempts are published.
// If not provided, results are only logged.
func WithPublisher(p ports.ResultPublisher) StationOption {
	return func(s *Station) {
		s.publisher = p
	}
}

// NewStation creates a station over the initial catalog.
func NewStation(
	config StationConfig,
	initial *catalog.Catalog,
	programmer Programmer,
	stores StoreFactory,
	logger ports.Logger,
	opts ...StationOption,
) *Station {
	if config.QueueSize <= 0 {
		config.QueueSize = DefaultQueueSize
	}

	s := &Station{
		config:     config,
		programmer: programmer,
		stores:     stores,
		logger:     logger,
		publisher:  nopPublisher{},
		lifecycle:  NewLifecycle(logger),
		events:     make(chan Event, config.QueueSize),
		wf:         NewWorkflow(initial),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.guard = s.newGuard(initial)
	s.writeGuard = s.guard
	s.snapshot = s.buildSnapshot(s.wf, Notice{Level: LevelInfo, Status: StatusIdle, Message: msgScanModel}, 0)
	return s
}

// Start launches the event loop.
func (s *Station) Start(ctx context.Context) error {
	if !s.lifecycle.CanStart() {
		return domain.ErrAlreadyRunning
	}
	if err := s.lifecycle.TransitionTo(RunStarting, "start requested"); err != nil {
		return err
	}

	runCtx, cancel := context.WithCancel(ctx)
	s.lifecycle.SetCancel(cancel)

	halted := make(chan struct{})
	s.halted = halted
	s.writing = 0
	s.lifecycle.Go(func() {
		defer close(halted)
		s.loop(runCtx)
	})

	return s.lifecycle.TransitionTo(RunRunning, "event loop started")
}

// Stop stops taking input. A write in flight runs to completion and its
// result is applied, recorded and published before Stop returns.
func (s *Station) Stop() error {
	if !s.lifecycle.CanStop() {
		return domain.ErrNotRunning
	}
	if err := s.lifecycle.TransitionTo(RunStopping, "stop requested"); err != nil {
		return err
	}

	s.lifecycle.Cancel()
	err := s.lifecycle.Drain(ShutdownTimeout)

	if terr := s.lifecycle.TransitionTo(RunStopped, "stopped"); terr != nil {
		s.logger.Error("lifecycle transition failed", ports.Err(terr))
	}
	return err
}

// Status returns the lifecycle state.
func (s *Station) Status() RunState {
	return s.lifecycle.State()
}

// Submit classifies a terminated scan and queues it. Unrecognized scans are
// dropped and reported as false.
func (s *Station) Submit(scan string) bool {
	c := domain.Classify(scan)
	switch c.Kind {
	case domain.ScanUnitSerial:
		return s.enqueue(UnitScanned{ID: c.Value})
	case domain.ScanModelSelect:
		return s.enqueue(ModelScanned{Key: c.Value})
	default:
		s.logger.Debug("unrecognized scan dropped", ports.String("scan", scan))
		return false
	}
}

// SelectModel queues a profile selection by catalog key, as if its model
// barcode had been scanned.
func (s *Station) SelectModel(key string) bool {
	return s.enqueue(ModelScanned{Key: key})
}

// Arm queues an arm press.
func (s *Station) Arm() bool {
	return s.enqueue(ArmPressed{})
}

// ReplaceCatalog queues a catalog swap.
func (s *Station) ReplaceCatalog(c *catalog.Catalog) bool {
	if c == nil {
		return false
	}
	return s.enqueue(CatalogReplaced{Catalog: c})
}

// Snapshot returns the latest snapshot.
func (s *Station) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshot
}

func (s *Station) enqueue(ev Event) bool {
	select {
	case s.events <- ev:
		return true
	default:
		s.logger.Warn("event queue full, input dropped", ports.Any("event", ev))
		return false
	}
}

func (s *Station) loop(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("station loop panicked", ports.Any("panic", r))
			_ = s.lifecycle.TransitionTo(RunCrashed, "panic")
		}
	}()

	done := ctx.Done()
	for {
		select {
		case <-done:
			if s.writing == 0 {
				return
			}
			// Keep draining until the write in flight has been applied.
			s.logger.Info("stop requested, finishing the write in flight", ports.String("unit", s.Snapshot().UnitID))
			done = nil

		case ev := <-s.events:
			if done == nil {
				if _, ok := ev.(ExchangeCompleted); !ok {
					s.logger.Debug("input dropped while stopping", ports.Any("event", ev))
					continue
				}
			}
			s.dispatch(ctx, ev)
			if done == nil && s.writing == 0 {
				return
			}
		}
	}
}

func (s *Station) dispatch(ctx context.Context, ev Event) {
	s.mu.RLock()
	current := s.wf
	seq := s.snapshot.Seq
	notice := s.snapshot.Notice
	s.mu.RUnlock()
	prevStatus := notice.Status

	if u, ok := ev.(UnitScanned); ok && current.State == StateArmed {
		u.AlreadyProgrammed = s.guard.IsAlreadyProgrammed(ctx, u.ID)
		ev = u
	}

	completed, isCompletion := ev.(ExchangeCompleted)
	if isCompletion {
		s.writing--
	}

	next, effects := current.Apply(ev)

	if next.State != current.State {
		s.logger.Info("state transition",
			ports.String("from", current.State.String()),
			ports.String("to", next.State.String()),
			ports.String("unit", next.UnitID),
		)
	}

	s.mu.Lock()
	s.wf = next
	s.mu.Unlock()

	// Effects outlive a stop request: a finished write is always recorded.
	effCtx := context.WithoutCancel(ctx)

	recordFailed := false
	for _, eff := range effects {
		switch eff := eff.(type) {
		case ProgramUnit:
			s.startExchange(effCtx, eff)
		case RecordUnit:
			if err := s.writeGuard.RecordSuccess(effCtx, eff.UnitID, eff.Profile); err != nil {
				s.logger.Error("audit record not written", ports.String("unit", eff.UnitID), ports.Err(err))
				recordFailed = true
			}
		case Notify:
			notice = eff.Notice
			if notice.Status == "" {
				notice.Status = prevStatus
			}
		}
	}

	if recordFailed {
		notice.Level = LevelWarn
		notice.Message += " The audit record could not be written."
	}

	// The guard follows the catalog only after the finished write has been
	// recorded with the guard it was started under.
	if next.Catalog != current.Catalog {
		s.guard = s.newGuard(next.Catalog)
	}

	if isCompletion && current.State == StateWriting && completed.UnitID == current.UnitID {
		s.publishAsync(effCtx, domain.Result{
			UnitID:   completed.UnitID,
			Model:    current.Profile.Model,
			Outcome:  completed.Outcome.Kind.String(),
			Detail:   completed.Outcome.Detail,
			Summary:  current.Profile.Summary(),
			Started:  completed.Started,
			Duration: completed.Duration,
			Recorded: completed.Outcome.Success() && !recordFailed,
		})
	}

	snap := s.buildSnapshot(next, notice, seq+1)
	s.mu.Lock()
	s.snapshot = snap
	s.mu.Unlock()

	if s.observer != nil {
		s.observer.OnSnapshot(snap)
	}
}

// startExchange runs the write on its own goroutine. The exchange is never
// cancelled once started; its result always comes back to the loop as an
// ExchangeCompleted, which the loop waits for before it exits.
func (s *Station) startExchange(ctx context.Context, eff ProgramUnit) {
	s.writing++
	s.writeGuard = s.guard
	halted := s.halted

	s.lifecycle.Go(func() {
		started := time.Now()
		var outcome domain.Outcome
		frame, err := domain.Encode(eff.Profile)
		if err != nil {
			outcome = domain.CommFailed(err)
		} else {
			outcome = s.programmer.Program(ctx, frame)
		}
		elapsed := time.Since(started)

		s.logger.Info("exchange finished",
			ports.String("unit", eff.UnitID),
			ports.String("model", eff.Profile.Model),
			ports.String("outcome", outcome.Kind.String()),
			ports.String("detail", outcome.Detail),
			ports.Duration("duration", elapsed),
		)

		select {
		case s.events <- ExchangeCompleted{UnitID: eff.UnitID, Outcome: outcome, Started: started, Duration: elapsed}:
		case <-halted:
			s.logger.Error("station loop gone, exchange result lost", ports.String("unit", eff.UnitID))
		}
	})
}

// publishAsync sends a result to monitoring off the loop so a slow broker
// never holds up the operator.
func (s *Station) publishAsync(ctx context.Context, r domain.Result) {
	s.lifecycle.Go(func() {
		pubCtx, cancel := context.WithTimeout(ctx, publishTimeout)
		defer cancel()
		if err := s.publisher.Publish(pubCtx, r); err != nil {
			s.logger.Warn("result not published", ports.String("unit", r.UnitID), ports.Err(err))
		}
	})
}

func (s *Station) newGuard(c *catalog.Catalog) *Guard {
	if c == nil || s.stores == nil {
		return NewGuard(nil, false, s.logger)
	}
	return NewGuard(s.stores(c.OutputDirectory), c.CheckBarcode, s.logger)
}

func (s *Station) buildSnapshot(w Workflow, n Notice, seq uint64) Snapshot {
	return Snapshot{
		State:         w.State,
		Profile:       w.Profile,
		HasProfile:    w.State != StateIdle,
		UnitID:        w.UnitID,
		Notice:        n,
		Seq:           seq,
		CatalogSource: w.Catalog.Source(),
		Models:        w.Catalog.Models(),
		Deferred:      w.PendingCatalog != nil,
	}
}

type nopPublisher struct{}

func (nopPublisher) Publish(context.Context, domain.Result) error { return nil }

// Package aggregate drives availability probes across a set of restaurants, one at a
// time, and streams the accumulated results as they change.
package aggregate

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"rwscout/internal/metrics"
	"rwscout/internal/model"
	"rwscout/internal/probe"
)

// DefaultDelay keeps the probe rate under roughly 17 requests per second.
const DefaultDelay = 60 * time.Millisecond

// Prober checks one restaurant. A non-nil error means the probe was abandoned
// because ctx ended, and its outcome must not be recorded.
type Prober interface {
	Probe(ctx context.Context, r model.Restaurant, date string, partySize int) (model.ProbeOutcome, error)
}

// Event is one step of a run. Results is a private snapshot; the receiver owns it.
type Event struct {
	Seq      int
	RunID    string
	State    model.RunState
	Progress model.Progress
	Results  model.Results
}

// Orchestrator runs at most one probe loop at a time.
type Orchestrator struct {
	prober  Prober
	delay   time.Duration
	logger  *zap.Logger
	metrics *metrics.Metrics

	mu     sync.Mutex
	seq    int
	active *Run
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithDelay sets the pause after each completed probe.
func WithDelay(d time.Duration) Option {
	return func(o *Orchestrator) { o.delay = d }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(o *Orchestrator) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithMetrics enables probe and run instrumentation.
func WithMetrics(m *metrics.Metrics) Option {
	return func(o *Orchestrator) { o.metrics = m }
}

// New creates an orchestrator.
func New(p Prober, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		prober: p,
		delay:  DefaultDelay,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Eligible returns the restaurants with a usable platform integration, in order.
func Eligible(restaurants []model.Restaurant) []model.Restaurant {
	out := make([]model.Restaurant, 0, len(restaurants))
	for _, r := range restaurants {
		if r.Reservation.Eligible() {
			out = append(out, r)
		}
	}
	return out
}

// Start begins a run over the eligible subset of restaurants. A run already in
// progress is cancelled and waited for before the new one issues its first probe.
//
// Every event carries a full copy of the results so far, and the event buffer
// holds 2n+2 events so the loop never blocks on a slow reader. A reader that
// lags the whole run therefore holds O(n²) outcomes in memory, which is fine at
// catalog scale but not for very large restaurant lists.
func (o *Orchestrator) Start(ctx context.Context, restaurants []model.Restaurant, date string, partySize int) (*Run, error) {
	if err := probe.ValidateQuery(date, partySize); err != nil {
		return nil, err
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	if o.active != nil {
		o.active.Cancel()
		o.active.Wait()
		o.active = nil
	}

	eligible := Eligible(restaurants)
	o.seq++
	runCtx, cancel := context.WithCancel(ctx)
	run := &Run{
		Seq:    o.seq,
		ID:     uuid.NewString(),
		Total:  len(eligible),
		events: make(chan Event, 2*len(eligible)+2),
		cancel: cancel,
		done:   make(chan struct{}),
		state:  model.RunRunning,
	}
	o.active = run

	o.logger.Info("availability run started",
		zap.String("run_id", run.ID),
		zap.Int("seq", run.Seq),
		zap.Int("eligible", len(eligible)),
		zap.Int("skipped", len(restaurants)-len(eligible)),
		zap.String("date", date),
		zap.Int("party_size", partySize),
	)

	go o.loop(runCtx, run, eligible, date, partySize)
	return run, nil
}

// Cancel stops the active run at its next safe point. It does not wait.
func (o *Orchestrator) Cancel() {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.active != nil {
		o.active.Cancel()
	}
}

func (o *Orchestrator) loop(ctx context.Context, run *Run, eligible []model.Restaurant, date string, partySize int) {
	started := time.Now()
	results := model.Results{}
	progress := model.Progress{Total: len(eligible)}

	emit := func(state model.RunState) {
		// Capacity covers every event of the run, so this never blocks.
		run.events <- Event{
			Seq:      run.Seq,
			RunID:    run.ID,
			State:    state,
			Progress: progress,
			Results:  results.Clone(),
		}
	}

	emit(model.RunRunning)

	final := model.RunCompleted
	for i, r := range eligible {
		if ctx.Err() != nil {
			final = model.RunCancelled
			break
		}

		results[r.ID] = model.Pending()
		emit(model.RunRunning)

		probeStart := time.Now()
		outcome, err := o.prober.Probe(ctx, r, date, partySize)
		if err != nil {
			delete(results, r.ID)
			final = model.RunCancelled
			break
		}
		o.metrics.ObserveProbe(r.Reservation.Platform(), outcome, time.Since(probeStart))

		results[r.ID] = outcome
		progress.Completed++
		switch {
		case outcome.HasSlots():
			progress.WithSlots++
		case outcome.Status == model.ProbeFailed:
			progress.Failed++
		}
		emit(model.RunRunning)

		if i < len(eligible)-1 && !pause(ctx, o.delay) {
			final = model.RunCancelled
			break
		}
	}

	o.metrics.ObserveRun(final)
	run.finish(final)
	emit(final)
	close(run.events)
	close(run.done)

	o.logger.Info("availability run finished",
		zap.String("run_id", run.ID),
		zap.String("state", final.String()),
		zap.Int("completed", progress.Completed),
		zap.Int("total", progress.Total),
		zap.Int("with_slots", progress.WithSlots),
		zap.Int("failed", progress.Failed),
		zap.Duration("took", time.Since(started)),
	)
}

// pause waits d unless ctx ends first. It reports whether the loop may continue.
func pause(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

// Run is one pass over a restaurant set.
type Run struct {
	Seq   int
	ID    string
	Total int

	events chan Event
	cancel context.CancelFunc
	done   chan struct{}

	mu    sync.Mutex
	state model.RunState
}

// Events yields the run's snapshots in order. The channel is closed after the
// terminal event.
func (r *Run) Events() <-chan Event { return r.events }

// Done is closed once the run reaches a terminal state.
func (r *Run) Done() <-chan struct{} { return r.done }

// Cancel asks the run to stop at its next safe point.
func (r *Run) Cancel() { r.cancel() }

// Wait blocks until the run is terminal and returns its final state.
func (r *Run) Wait() model.RunState {
	<-r.done
	return r.State()
}

// State returns the current lifecycle state.
func (r *Run) State() model.RunState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

func (r *Run) finish(s model.RunState) {
	r.mu.Lock()
	r.state = s
	r.mu.Unlock()
	r.cancel()
}

// Package session owns the mutable browsing state: base criteria, availability
// toggles, the accumulated probe results and the active run's identity.
//
// A Controller is not safe for concurrent use. The TUI drives it from its update
// loop and the headless command drives it from a single goroutine.
package session

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"rwscout/internal/aggregate"
	"rwscout/internal/filter"
	"rwscout/internal/model"
	"rwscout/internal/probe"
)

// DefaultPartySize is used until the user picks another.
const DefaultPartySize = 2

// Runner starts and cancels aggregation runs.
type Runner interface {
	Start(ctx context.Context, restaurants []model.Restaurant, date string, partySize int) (*aggregate.Run, error)
	Cancel()
}

// Controller recomputes the visible restaurant list as inputs change.
type Controller struct {
	runner Runner
	logger *zap.Logger

	catalog  []model.Restaurant
	criteria model.FilterCriteria
	base     []model.Restaurant
	avail    model.AvailabilityFilterState

	date      string
	partySize int

	results  model.Results
	progress model.Progress
	state    model.RunState
	runSeq   int
	runID    string
}

// Option configures a Controller.
type Option func(*Controller)

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *Controller) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithDate sets the initial probe date.
func WithDate(date string) Option {
	return func(c *Controller) { c.date = date }
}

// WithPartySize sets the initial party size.
func WithPartySize(n int) Option {
	return func(c *Controller) {
		if n > 0 {
			c.partySize = n
		}
	}
}

// New creates a controller over catalog with empty criteria.
func New(catalog []model.Restaurant, runner Runner, policy model.FailedPolicy, opts ...Option) *Controller {
	c := &Controller{
		runner:    runner,
		logger:    zap.NewNop(),
		catalog:   catalog,
		criteria:  model.NewFilterCriteria(),
		avail:     model.NewAvailabilityFilterState(policy),
		date:      time.Now().Format("2006-01-02"),
		partySize: DefaultPartySize,
		results:   model.Results{},
		state:     model.RunIdle,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.base = filter.Catalog(c.catalog, c.criteria)
	return c
}

// Criteria returns a copy of the current base criteria.
func (c *Controller) Criteria() model.FilterCriteria { return c.criteria.Clone() }

// Base returns the base-filtered set.
func (c *Controller) Base() []model.Restaurant { return c.base }

// Catalog returns every restaurant.
func (c *Controller) Catalog() []model.Restaurant { return c.catalog }

// Visible returns the base set narrowed by the availability toggles.
func (c *Controller) Visible() []model.Restaurant {
	return filter.Availability(c.base, c.results, c.avail)
}

// Results returns the accumulated results. Callers must not modify it.
func (c *Controller) Results() model.Results { return c.results }

// Outcome returns the latest outcome for id.
func (c *Controller) Outcome(id model.RestaurantID) (model.ProbeOutcome, bool) {
	o, ok := c.results[id]
	return o, ok
}

// Bucket classifies id against the current results.
func (c *Controller) Bucket(id model.RestaurantID) filter.Bucket {
	return filter.Classify(c.results, id)
}

// Progress returns the latest progress counters.
func (c *Controller) Progress() model.Progress { return c.progress }

// RunState returns the lifecycle state of the tracked run.
func (c *Controller) RunState() model.RunState { return c.state }

// RunID returns the tracked run's id, or "" before the first check.
func (c *Controller) RunID() string { return c.runID }

// Availability returns the toggles and window.
func (c *Controller) Availability() model.AvailabilityFilterState { return c.avail }

// Date returns the probe date.
func (c *Controller) Date() string { return c.date }

// PartySize returns the probe party size.
func (c *Controller) PartySize() int { return c.partySize }

// SetCriteria replaces the base criteria. When the base set's membership or
// order changes, results and toggles are cleared and any active run is
// cancelled. It reports whether that happened.
func (c *Controller) SetCriteria(criteria model.FilterCriteria) bool {
	c.criteria = criteria.Clone()
	next := filter.Catalog(c.catalog, c.criteria)
	changed := !filter.SameIDs(filter.IDs(c.base), filter.IDs(next))
	c.base = next
	if changed {
		c.invalidate()
	}
	return changed
}

func (c *Controller) invalidate() {
	if c.state == model.RunRunning && c.runner != nil {
		c.runner.Cancel()
	}
	hadResults := len(c.results) > 0
	c.results = model.Results{}
	c.progress = model.Progress{}
	c.state = model.RunIdle
	c.runSeq = 0
	c.avail.ResetToggles()
	if hadResults {
		c.logger.Debug("base set changed, availability results cleared",
			zap.Int("base", len(c.base)),
		)
	}
}

// SetDate changes the probe date. Existing results stay until the next check.
func (c *Controller) SetDate(date string) error {
	if err := probe.ValidateQuery(date, c.partySize); err != nil {
		return err
	}
	c.date = date
	return nil
}

// SetPartySize changes the probe party size.
func (c *Controller) SetPartySize(n int) error {
	if err := probe.ValidateQuery(c.date, n); err != nil {
		return err
	}
	c.partySize = n
	return nil
}

// SetWindow sets the inclusive HH:MM window for the available toggle.
// Empty bounds fall back to the whole day.
func (c *Controller) SetWindow(from, to string) error {
	if from == "" {
		from = model.DefaultTimeFrom
	}
	if to == "" {
		to = model.DefaultTimeTo
	}
	for _, v := range []string{from, to} {
		if _, err := time.Parse("15:04", v); err != nil || len(v) != 5 {
			return fmt.Errorf("%w: time %q is not HH:MM", model.ErrInvalidQuery, v)
		}
	}
	if from > to {
		return fmt.Errorf("%w: window start %s is after end %s", model.ErrInvalidQuery, from, to)
	}
	c.avail.TimeFrom = from
	c.avail.TimeTo = to
	return nil
}

// ToggleAvailable flips the available toggle.
func (c *Controller) ToggleAvailable() { c.avail.Available = !c.avail.Available }

// ToggleNotAvailable flips the not-available toggle.
func (c *Controller) ToggleNotAvailable() { c.avail.NotAvailable = !c.avail.NotAvailable }

// ToggleUnchecked flips the unchecked toggle.
func (c *Controller) ToggleUnchecked() { c.avail.Unchecked = !c.avail.Unchecked }

// ToggleErrored flips the errored toggle. It has no effect unless failed probes
// are kept in their own bucket.
func (c *Controller) ToggleErrored() bool {
	if c.avail.Policy != model.FailedSeparate {
		return false
	}
	c.avail.Errored = !c.avail.Errored
	return true
}

// ClearToggles switches every availability toggle off.
func (c *Controller) ClearToggles() { c.avail.ResetToggles() }

// StartCheck begins probing the base set, superseding any active run.
// Results from earlier runs are discarded.
func (c *Controller) StartCheck(ctx context.Context) (*aggregate.Run, error) {
	if c.runner == nil {
		return nil, fmt.Errorf("no availability runner configured")
	}
	run, err := c.runner.Start(ctx, c.base, c.date, c.partySize)
	if err != nil {
		return nil, err
	}
	c.results = model.Results{}
	c.progress = model.Progress{Total: run.Total}
	c.state = model.RunRunning
	c.runSeq = run.Seq
	c.runID = run.ID
	return run, nil
}

// CancelCheck asks the active run to stop. Its terminal event still arrives
// through Apply.
func (c *Controller) CancelCheck() {
	if c.state != model.RunRunning || c.runner == nil {
		return
	}
	c.runner.Cancel()
}

// Apply folds a run event into the session. Events from runs other than the
// tracked one are dropped; it reports whether ev was applied.
func (c *Controller) Apply(ev aggregate.Event) bool {
	if !c.Tracks(ev.Seq) {
		return false
	}
	c.results = ev.Results
	c.progress = ev.Progress
	c.state = ev.State
	return true
}

// Tracks reports whether events of the run with seq are still accepted.
func (c *Controller) Tracks(seq int) bool {
	return c.runSeq != 0 && c.runSeq == seq
}

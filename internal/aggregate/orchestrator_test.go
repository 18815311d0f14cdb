package aggregate

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rwscout/internal/metrics"
	"rwscout/internal/model"
)

const testDate = "2026-01-20"

type call struct {
	name string
	at   time.Time
}

// fakeProber answers from a table and can block on a per-restaurant gate.
type fakeProber struct {
	mu       sync.Mutex
	outcomes map[string]model.ProbeOutcome
	gates    map[string]chan struct{}
	started  chan string
	calls    []call
}

func newFakeProber(outcomes map[string]model.ProbeOutcome) *fakeProber {
	return &fakeProber{
		outcomes: outcomes,
		gates:    map[string]chan struct{}{},
		started:  make(chan string, 64),
	}
}

func (f *fakeProber) gate(name string) chan struct{} {
	f.mu.Lock()
	defer f.mu.Unlock()
	ch := make(chan struct{})
	f.gates[name] = ch
	return ch
}

func (f *fakeProber) Probe(ctx context.Context, r model.Restaurant, _ string, _ int) (model.ProbeOutcome, error) {
	f.mu.Lock()
	f.calls = append(f.calls, call{name: r.Name, at: time.Now()})
	gate := f.gates[r.Name]
	outcome, ok := f.outcomes[r.Name]
	f.mu.Unlock()

	f.started <- r.Name

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return model.ProbeOutcome{}, ctx.Err()
		}
	}
	if !ok {
		outcome = model.Succeeded(nil)
	}
	return outcome, nil
}

func (f *fakeProber) names() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.calls))
	for _, c := range f.calls {
		out = append(out, c.name)
	}
	return out
}

func openTable(id model.RestaurantID, name, otID string) model.Restaurant {
	return model.Restaurant{ID: id, Name: name, Reservation: model.ReservationOption{Kind: model.ReservationOpenTableID, Value: otID}}
}

func platformURL(id model.RestaurantID, name, u string) model.Restaurant {
	return model.Restaurant{ID: id, Name: name, Reservation: model.ReservationOption{Kind: model.ReservationPlatformURL, Value: u}}
}

func noIntegration(id model.RestaurantID, name string) model.Restaurant {
	return model.Restaurant{ID: id, Name: name}
}

func sampleCatalog() []model.Restaurant {
	return []model.Restaurant{
		openTable(0, "A", "1"),
		noIntegration(1, "B"),
		platformURL(2, "C", "https://resy.com/cities/ny/c"),
	}
}

func drain(t *testing.T, run *Run) []Event {
	t.Helper()
	var events []Event
	timeout := time.After(5 * time.Second)
	for {
		select {
		case ev, ok := <-run.Events():
			if !ok {
				return events
			}
			events = append(events, ev)
		case <-timeout:
			t.Fatal("run did not finish")
		}
	}
}

func waitStarted(t *testing.T, f *fakeProber, name string) {
	t.Helper()
	select {
	case got := <-f.started:
		require.Equal(t, name, got)
	case <-time.After(5 * time.Second):
		t.Fatalf("probe for %s never started", name)
	}
}

func TestEligible(t *testing.T) {
	catalog := append(sampleCatalog(),
		platformURL(3, "D", "https://example.com/book"),
		model.Restaurant{ID: 4, Name: "E", Reservation: model.ReservationOption{Kind: model.ReservationWebsite, Value: "https://e.com"}},
		platformURL(5, "F", "https://www.opentable.com/r/f"),
	)

	var names []string
	for _, r := range Eligible(catalog) {
		names = append(names, r.Name)
	}
	assert.Equal(t, []string{"A", "C", "F"}, names)
}

func TestRunCompletesInOrder(t *testing.T) {
	f := newFakeProber(map[string]model.ProbeOutcome{
		"A": model.Succeeded([]model.Slot{{Time: "18:00", SeatingType: "Dining Room"}}),
		"C": model.Failed("closed"),
	})
	o := New(f, WithDelay(0))

	run, err := o.Start(context.Background(), sampleCatalog(), testDate, 2)
	require.NoError(t, err)
	assert.Equal(t, 2, run.Total)

	events := drain(t, run)
	require.NotEmpty(t, events)

	last := events[len(events)-1]
	assert.Equal(t, model.RunCompleted, last.State)
	assert.Equal(t, model.Progress{Completed: 2, Total: 2, WithSlots: 1, Failed: 1}, last.Progress)
	assert.Len(t, last.Results, 2)
	assert.True(t, last.Results[0].HasSlots())
	assert.Equal(t, model.Failed("closed"), last.Results[2])

	_, hasB := last.Results[1]
	assert.False(t, hasB)
	for _, ev := range events {
		_, hasB := ev.Results[1]
		assert.False(t, hasB)
		assert.Equal(t, run.Seq, ev.Seq)
		assert.Equal(t, run.ID, ev.RunID)
	}

	assert.Equal(t, []string{"A", "C"}, f.names())
	assert.Equal(t, model.RunCompleted, run.Wait())
}

func TestRunWritesPendingBeforeEachProbe(t *testing.T) {
	f := newFakeProber(nil)
	o := New(f, WithDelay(0))

	run, err := o.Start(context.Background(), sampleCatalog(), testDate, 2)
	require.NoError(t, err)
	events := drain(t, run)

	// start, A pending, A done, C pending, C done, terminal
	require.Len(t, events, 6)
	assert.Empty(t, events[0].Results)
	assert.Equal(t, model.ProbePending, events[1].Results[0].Status)
	assert.Equal(t, model.ProbeSucceeded, events[2].Results[0].Status)
	assert.Equal(t, model.ProbePending, events[3].Results[2].Status)
	assert.Equal(t, model.ProbeSucceeded, events[3].Results[0].Status)
	assert.Equal(t, model.ProbeSucceeded, events[4].Results[2].Status)

	completed := -1
	for _, ev := range events {
		assert.GreaterOrEqual(t, ev.Progress.Completed, completed)
		completed = ev.Progress.Completed
	}
}

func TestSnapshotsAreIndependent(t *testing.T) {
	f := newFakeProber(nil)
	o := New(f, WithDelay(0))

	run, err := o.Start(context.Background(), sampleCatalog(), testDate, 2)
	require.NoError(t, err)
	events := drain(t, run)

	events[1].Results[99] = model.Failed("mutated")
	for _, ev := range events[2:] {
		_, ok := ev.Results[99]
		assert.False(t, ok)
	}
}

func TestEmptyEligibleSetCompletes(t *testing.T) {
	o := New(newFakeProber(nil), WithDelay(0))

	run, err := o.Start(context.Background(), []model.Restaurant{noIntegration(0, "B")}, testDate, 2)
	require.NoError(t, err)
	events := drain(t, run)

	require.Len(t, events, 2)
	assert.Equal(t, model.RunCompleted, events[1].State)
	assert.Equal(t, 0, events[1].Progress.Total)
	assert.Empty(t, events[1].Results)
}

func TestStartRejectsInvalidQuery(t *testing.T) {
	o := New(newFakeProber(nil))

	_, err := o.Start(context.Background(), sampleCatalog(), "20-01-2026", 2)
	assert.ErrorIs(t, err, model.ErrInvalidQuery)

	_, err = o.Start(context.Background(), sampleCatalog(), testDate, 0)
	assert.ErrorIs(t, err, model.ErrInvalidQuery)

	// Rejected queries never consume a sequence number.
	run, err := o.Start(context.Background(), nil, testDate, 2)
	require.NoError(t, err)
	assert.Equal(t, 1, run.Seq)
	drain(t, run)
}

func TestCancelMidRunKeepsRecordedEntries(t *testing.T) {
	catalog := []model.Restaurant{
		openTable(0, "A", "1"),
		openTable(1, "B", "2"),
		openTable(2, "C", "3"),
	}
	f := newFakeProber(nil)
	gateB := f.gate("B")
	defer close(gateB)
	o := New(f, WithDelay(0))

	run, err := o.Start(context.Background(), catalog, testDate, 2)
	require.NoError(t, err)

	waitStarted(t, f, "A")
	waitStarted(t, f, "B")
	o.Cancel()

	events := drain(t, run)
	last := events[len(events)-1]
	assert.Equal(t, model.RunCancelled, last.State)
	assert.Equal(t, model.RunCancelled, run.Wait())

	assert.Equal(t, model.ProbeSucceeded, last.Results[0].Status)
	_, hasB := last.Results[1]
	assert.False(t, hasB, "abandoned probe must not be recorded")
	_, hasC := last.Results[2]
	assert.False(t, hasC)
	assert.Equal(t, 1, last.Progress.Completed)
	assert.Equal(t, []string{"A", "B"}, f.names())
}

func TestCancelDuringDelayStopsRun(t *testing.T) {
	f := newFakeProber(nil)
	o := New(f, WithDelay(time.Hour))

	run, err := o.Start(context.Background(), sampleCatalog(), testDate, 2)
	require.NoError(t, err)

	waitStarted(t, f, "A")
	// Let A resolve and the loop enter its delay.
	require.Eventually(t, func() bool {
		return len(run.Events()) >= 3
	}, 5*time.Second, time.Millisecond)
	run.Cancel()

	events := drain(t, run)
	last := events[len(events)-1]
	assert.Equal(t, model.RunCancelled, last.State)
	assert.Len(t, last.Results, 1)
	assert.Equal(t, []string{"A"}, f.names())
}

func TestDelayBetweenProbesSkippedAfterLast(t *testing.T) {
	catalog := []model.Restaurant{openTable(0, "A", "1"), openTable(1, "B", "2")}
	f := newFakeProber(nil)
	delay := 200 * time.Millisecond
	o := New(f, WithDelay(delay))

	run, err := o.Start(context.Background(), catalog, testDate, 2)
	require.NoError(t, err)
	drain(t, run)
	finished := time.Now()

	f.mu.Lock()
	calls := append([]call(nil), f.calls...)
	f.mu.Unlock()

	require.Len(t, calls, 2)
	assert.GreaterOrEqual(t, calls[1].at.Sub(calls[0].at), delay)
	assert.Less(t, finished.Sub(calls[1].at), delay)
}

func TestStartSupersedesActiveRun(t *testing.T) {
	first := []model.Restaurant{openTable(0, "A", "1"), openTable(1, "B", "2")}
	second := []model.Restaurant{openTable(0, "A", "1"), openTable(2, "C", "3")}

	f := newFakeProber(nil)
	gateA := f.gate("A")
	o := New(f, WithDelay(0))

	runA, err := o.Start(context.Background(), first, testDate, 2)
	require.NoError(t, err)
	waitStarted(t, f, "A")

	// Release A only for the second run; the first is cancelled while blocked.
	go func() {
		<-runA.Done()
		close(gateA)
	}()

	runB, err := o.Start(context.Background(), second, testDate, 2)
	require.NoError(t, err)

	select {
	case <-runA.Done():
	default:
		t.Fatal("previous run must be terminal before the next starts")
	}
	assert.Equal(t, model.RunCancelled, runA.State())
	assert.Greater(t, runB.Seq, runA.Seq)
	assert.NotEqual(t, runA.ID, runB.ID)

	eventsB := drain(t, runB)
	last := eventsB[len(eventsB)-1]
	assert.Equal(t, model.RunCompleted, last.State)
	assert.Len(t, last.Results, 2)

	// B from the first run is never probed.
	assert.Equal(t, []string{"A", "A", "C"}, f.names())

	eventsA := drain(t, runA)
	for _, ev := range eventsA {
		assert.Equal(t, runA.Seq, ev.Seq)
	}
}

func TestParentContextCancelsRun(t *testing.T) {
	f := newFakeProber(nil)
	gate := f.gate("A")
	defer close(gate)
	o := New(f, WithDelay(0))

	ctx, cancel := context.WithCancel(context.Background())
	run, err := o.Start(ctx, sampleCatalog(), testDate, 2)
	require.NoError(t, err)
	waitStarted(t, f, "A")
	cancel()

	assert.Equal(t, model.RunCancelled, run.Wait())
}

func TestRunRecordsMetrics(t *testing.T) {
	m := metrics.New()
	f := newFakeProber(map[string]model.ProbeOutcome{
		"A": model.Succeeded([]model.Slot{{Time: "18:00"}}),
		"C": model.Failed("closed"),
	})
	o := New(f, WithDelay(0), WithMetrics(m))

	run, err := o.Start(context.Background(), sampleCatalog(), testDate, 2)
	require.NoError(t, err)
	drain(t, run)
	run.Wait()

	assert.Equal(t, 1.0, testutil.ToFloat64(m.ProbesTotal.WithLabelValues("opentable", "succeeded")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ProbesTotal.WithLabelValues("resy", "failed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RunsTotal.WithLabelValues("completed")))
}

func TestPause(t *testing.T) {
	assert.True(t, pause(context.Background(), 0))
	assert.True(t, pause(context.Background(), time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.False(t, pause(ctx, 0))
	assert.False(t, pause(ctx, time.Hour))
	assert.True(t, errors.Is(ctx.Err(), context.Canceled))
}

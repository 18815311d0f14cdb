package probe

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"rwscout/internal/catalog"
	"rwscout/internal/model"
)

const testDate = "2026-11-20"

// fakeLookup records queries and answers with a fixed response.
type fakeLookup struct {
	resp    catalog.AvailabilityResponse
	err     error
	queries []catalog.AvailabilityQuery
	onCall  func()
}

func (f *fakeLookup) Availability(_ context.Context, q catalog.AvailabilityQuery) (catalog.AvailabilityResponse, error) {
	f.queries = append(f.queries, q)
	if f.onCall != nil {
		f.onCall()
	}
	return f.resp, f.err
}

var (
	openTable = model.Restaurant{Name: "Altro Paradiso", Reservation: model.ReservationOption{Kind: model.ReservationOpenTableID, Value: "1001"}}
	resy      = model.Restaurant{Name: "Cote", Reservation: model.ReservationOption{Kind: model.ReservationPlatformURL, Value: "https://resy.com/cities/ny/cote"}}
	website   = model.Restaurant{Name: "Bar Pisellino", Reservation: model.ReservationOption{Kind: model.ReservationWebsite, Value: "https://barpisellino.com"}}
)

func TestValidateQuery(t *testing.T) {
	assert.NoError(t, ValidateQuery(testDate, 2))
	assert.ErrorIs(t, ValidateQuery("11/20/2026", 2), model.ErrInvalidQuery)
	assert.ErrorIs(t, ValidateQuery(testDate, 0), model.ErrInvalidQuery)
}

func TestBuildQuery(t *testing.T) {
	q, ok := BuildQuery(openTable, testDate, 4)
	require.True(t, ok)
	assert.Equal(t, catalog.AvailabilityQuery{Date: testDate, PartySize: 4, OpenTableID: "1001"}, q)

	q, ok = BuildQuery(resy, testDate, 4)
	require.True(t, ok)
	assert.Equal(t, "https://resy.com/cities/ny/cote", q.PlatformURL)
	assert.Empty(t, q.OpenTableID)

	_, ok = BuildQuery(website, testDate, 4)
	assert.False(t, ok)
}

func TestProbeSucceeded(t *testing.T) {
	lookup := &fakeLookup{resp: catalog.AvailabilityResponse{Slots: []model.Slot{{Time: "18:30"}}}}
	o, err := New(lookup, nil).Probe(context.Background(), openTable, testDate, 2)
	require.NoError(t, err)
	assert.Equal(t, model.Succeeded([]model.Slot{{Time: "18:30"}}), o)
	require.Len(t, lookup.queries, 1)
	assert.Equal(t, 2, lookup.queries[0].PartySize)

	lookup = &fakeLookup{}
	o, err = New(lookup, nil).Probe(context.Background(), resy, testDate, 2)
	require.NoError(t, err)
	assert.Equal(t, model.ProbeSucceeded, o.Status)
	assert.Empty(t, o.Slots)
}

func TestProbeNoIntegrationSkipsLookup(t *testing.T) {
	lookup := &fakeLookup{}
	o, err := New(lookup, nil).Probe(context.Background(), website, testDate, 2)
	require.NoError(t, err)
	assert.Equal(t, model.Failed(model.ErrNoIntegration.Error()), o)
	assert.Empty(t, lookup.queries)
}

func TestProbeFailures(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	log := zap.New(core)

	o, err := New(&fakeLookup{err: errors.New("dial tcp: connection refused")}, log).
		Probe(context.Background(), openTable, testDate, 2)
	require.NoError(t, err)
	assert.Equal(t, model.Failed(model.ErrProbeFailed.Error()), o)

	o, err = New(&fakeLookup{resp: catalog.AvailabilityResponse{Error: "venue closed", HasError: true}}, log).
		Probe(context.Background(), resy, testDate, 2)
	require.NoError(t, err)
	assert.Equal(t, model.Failed("venue closed"), o)

	require.Equal(t, 2, logs.Len())
	assert.Equal(t, "availability probe failed", logs.All()[0].Message)
	assert.Equal(t, "Cote", logs.All()[1].ContextMap()["restaurant"])
}

func TestProbeCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	lookup := &fakeLookup{}
	_, err := New(lookup, nil).Probe(ctx, openTable, testDate, 2)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, lookup.queries)

	// A result arriving after cancellation is discarded.
	ctx, cancel = context.WithCancel(context.Background())
	lookup = &fakeLookup{resp: catalog.AvailabilityResponse{Slots: []model.Slot{{Time: "18:30"}}}, onCall: cancel}
	_, err = New(lookup, nil).Probe(ctx, openTable, testDate, 2)
	assert.ErrorIs(t, err, context.Canceled)
}

package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDetectPlatform(t *testing.T) {
	tests := []struct {
		in   string
		want Platform
	}{
		{"", PlatformNone},
		{"   ", PlatformNone},
		{"https://resy.com/cities/ny/venues/cote", PlatformResy},
		{"https://WWW.Resy.com/cities/ny", PlatformResy},
		{"https://www.opentable.com/r/altro-paradiso", PlatformOpenTable},
		{"https://notresy.com/venue", PlatformUnknown},
		{"https://resy.com.example.org/venue", PlatformUnknown},
		{"https://barpisellino.com", PlatformUnknown},
		{"not a url", PlatformUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, DetectPlatform(tt.in))
		})
	}
}

func TestReservationOptionEligible(t *testing.T) {
	assert.True(t, ReservationOption{Kind: ReservationOpenTableID, Value: "1001"}.Eligible())
	assert.False(t, ReservationOption{Kind: ReservationOpenTableID, Value: " "}.Eligible())
	assert.True(t, ReservationOption{Kind: ReservationPlatformURL, Value: "https://resy.com/x"}.Eligible())
	assert.False(t, ReservationOption{Kind: ReservationPlatformURL, Value: "https://tock.com/x"}.Eligible())
	assert.False(t, ReservationOption{Kind: ReservationWebsite, Value: "https://resy.com/x"}.Eligible())
	assert.False(t, ReservationOption{}.Eligible())
}

func TestStringSet(t *testing.T) {
	s := NewStringSet("Italian", "Korean")
	assert.True(t, s.Has("Italian"))
	assert.True(t, s.Intersects([]string{"Seafood", "Korean"}))
	assert.False(t, s.Intersects(nil))

	s.Toggle("Italian")
	s.Toggle("Seafood")
	assert.Equal(t, []string{"Korean", "Seafood"}, s.Sorted())

	c := s.Clone()
	c.Toggle("Korean")
	assert.True(t, s.Has("Korean"), "clone must not alias")

	var empty StringSet
	assert.True(t, empty.Equal(StringSet{}))
	assert.False(t, s.Equal(c))
}

func TestFilterCriteria(t *testing.T) {
	c := NewFilterCriteria()
	assert.Equal(t, 0, c.Active())
	assert.True(t, c.Equal(FilterCriteria{}))

	c.Search = " cote "
	c.Cuisines.Toggle("Korean")
	assert.Equal(t, 2, c.Active())

	clone := c.Clone()
	assert.True(t, clone.Equal(c))
	clone.Cuisines.Toggle("Italian")
	assert.False(t, clone.Equal(c))
	assert.False(t, c.Cuisines.Has("Italian"))
}

func TestProbeOutcome(t *testing.T) {
	o := Succeeded(nil)
	assert.NotNil(t, o.Slots)
	assert.False(t, o.HasSlots())

	assert.True(t, Succeeded([]Slot{{Time: "18:00"}}).HasSlots())
	assert.False(t, Failed("x").HasSlots())
	assert.Equal(t, ProbePending, Pending().Status)
	assert.Equal(t, "failed", ProbeFailed.String())
}

func TestParseFailedPolicy(t *testing.T) {
	p, ok := ParseFailedPolicy("")
	assert.True(t, ok)
	assert.Equal(t, FailedAsUnchecked, p)

	p, ok = ParseFailedPolicy(" Separate ")
	assert.True(t, ok)
	assert.Equal(t, FailedSeparate, p)

	_, ok = ParseFailedPolicy("hide")
	assert.False(t, ok)
}

func TestAvailabilityFilterState(t *testing.T) {
	s := NewAvailabilityFilterState(FailedAsUnchecked)
	assert.Equal(t, DefaultTimeFrom, s.TimeFrom)
	assert.Equal(t, DefaultTimeTo, s.TimeTo)
	assert.False(t, s.AnyActive())

	s.Errored = true
	assert.False(t, s.AnyActive(), "errored needs the separate policy")
	s.Policy = FailedSeparate
	assert.True(t, s.AnyActive())

	s.TimeFrom = "18:00"
	s.Available = true
	s.ResetToggles()
	assert.False(t, s.AnyActive())
	assert.Equal(t, "18:00", s.TimeFrom)
}

func TestProgressFraction(t *testing.T) {
	assert.Equal(t, 0.0, Progress{}.Fraction())
	assert.Equal(t, 0.25, Progress{Completed: 1, Total: 4}.Fraction())
	assert.True(t, RunCancelled.Terminal())
	assert.False(t, RunRunning.Terminal())
}

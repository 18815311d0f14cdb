package filter

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"rwscout/internal/model"
)

func testCatalog() []model.Restaurant {
	return []model.Restaurant{
		{ID: 0, Name: "Altro Paradiso", Neighborhood: "SoHo", Borough: "Manhattan", Tags: []string{"Italian"}, MealTypes: []string{"Dinner"}},
		{ID: 1, Name: "Bar Pisellino", Neighborhood: "West Village", Borough: "Manhattan", Tags: []string{"Italian", "Seafood"}, MealTypes: []string{"Lunch"}},
		{ID: 2, Name: "Cote", Neighborhood: "Flatiron", Borough: "Manhattan", Tags: []string{"Korean"}, MealTypes: []string{"Dinner"}},
		{ID: 3, Name: "Lilia", Neighborhood: "Williamsburg", Borough: "Brooklyn", Tags: []string{"Italian"}, MealTypes: []string{"Dinner", "Lunch"}},
	}
}

func names(rs []model.Restaurant) []string {
	out := make([]string, 0, len(rs))
	for _, r := range rs {
		out = append(out, r.Name)
	}
	return out
}

func TestCatalog(t *testing.T) {
	tests := []struct {
		name     string
		criteria model.FilterCriteria
		want     []string
	}{
		{
			name:     "empty criteria keeps everything",
			criteria: model.NewFilterCriteria(),
			want:     []string{"Altro Paradiso", "Bar Pisellino", "Cote", "Lilia"},
		},
		{
			name:     "search is case-insensitive substring",
			criteria: model.FilterCriteria{Search: "  PISELL "},
			want:     []string{"Bar Pisellino"},
		},
		{
			name:     "cuisine matches any tag",
			criteria: model.FilterCriteria{Cuisines: model.NewStringSet("Seafood", "Korean")},
			want:     []string{"Bar Pisellino", "Cote"},
		},
		{
			name: "dimensions combine with AND",
			criteria: model.FilterCriteria{
				Cuisines:  model.NewStringSet("Italian"),
				MealTypes: model.NewStringSet("Dinner"),
				Boroughs:  model.NewStringSet("Manhattan"),
			},
			want: []string{"Altro Paradiso"},
		},
		{
			name:     "neighborhood is exact",
			criteria: model.FilterCriteria{Neighborhoods: model.NewStringSet("Soho")},
			want:     []string{},
		},
		{
			name:     "unknown value matches nothing",
			criteria: model.FilterCriteria{MealTypes: model.NewStringSet("Brunch")},
			want:     []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, names(Catalog(testCatalog(), tt.criteria)))
		})
	}
}

func TestCatalogIsSubsetInOrderAndDoesNotMutate(t *testing.T) {
	catalog := testCatalog()
	before := testCatalog()
	c := model.FilterCriteria{Cuisines: model.NewStringSet("Italian")}

	got := Catalog(catalog, c)
	assert.Equal(t, []model.RestaurantID{0, 1, 3}, IDs(got))
	assert.Equal(t, before, catalog)

	// Adding a constraint never grows the result.
	c.Boroughs = model.NewStringSet("Brooklyn")
	assert.Equal(t, []model.RestaurantID{3}, IDs(Catalog(catalog, c)))
}

func TestSameIDs(t *testing.T) {
	assert.True(t, SameIDs(nil, []model.RestaurantID{}))
	assert.True(t, SameIDs([]model.RestaurantID{1, 2}, []model.RestaurantID{1, 2}))
	assert.False(t, SameIDs([]model.RestaurantID{1, 2}, []model.RestaurantID{2, 1}))
	assert.False(t, SameIDs([]model.RestaurantID{1}, []model.RestaurantID{1, 2}))
}

func testResults() model.Results {
	return model.Results{
		0: model.Succeeded([]model.Slot{{Time: "17:30"}, {Time: "21:00"}}),
		1: model.Succeeded(nil),
		2: model.Failed("venue closed"),
		// 3 has not been checked
	}
}

func TestClassify(t *testing.T) {
	results := testResults()
	results[4] = model.Pending()

	assert.Equal(t, BucketAvailable, Classify(results, 0))
	assert.Equal(t, BucketNotAvailable, Classify(results, 1))
	assert.Equal(t, BucketErrored, Classify(results, 2))
	assert.Equal(t, BucketUnchecked, Classify(results, 3))
	assert.Equal(t, BucketChecking, Classify(results, 4))
	assert.Equal(t, "not available", BucketNotAvailable.String())
}

func TestAvailability(t *testing.T) {
	state := func(mut func(*model.AvailabilityFilterState), policy model.FailedPolicy) model.AvailabilityFilterState {
		s := model.NewAvailabilityFilterState(policy)
		mut(&s)
		return s
	}

	tests := []struct {
		name  string
		state model.AvailabilityFilterState
		want  []string
	}{
		{
			name:  "no toggle is identity",
			state: model.NewAvailabilityFilterState(model.FailedAsUnchecked),
			want:  []string{"Altro Paradiso", "Bar Pisellino", "Cote", "Lilia"},
		},
		{
			name:  "available",
			state: state(func(s *model.AvailabilityFilterState) { s.Available = true }, model.FailedAsUnchecked),
			want:  []string{"Altro Paradiso"},
		},
		{
			name:  "not available",
			state: state(func(s *model.AvailabilityFilterState) { s.NotAvailable = true }, model.FailedAsUnchecked),
			want:  []string{"Bar Pisellino"},
		},
		{
			name:  "unchecked includes failed by default",
			state: state(func(s *model.AvailabilityFilterState) { s.Unchecked = true }, model.FailedAsUnchecked),
			want:  []string{"Cote", "Lilia"},
		},
		{
			name:  "unchecked excludes failed when separate",
			state: state(func(s *model.AvailabilityFilterState) { s.Unchecked = true }, model.FailedSeparate),
			want:  []string{"Lilia"},
		},
		{
			name:  "errored when separate",
			state: state(func(s *model.AvailabilityFilterState) { s.Errored = true }, model.FailedSeparate),
			want:  []string{"Cote"},
		},
		{
			name:  "errored ignored by default",
			state: state(func(s *model.AvailabilityFilterState) { s.Errored = true }, model.FailedAsUnchecked),
			want:  []string{"Altro Paradiso", "Bar Pisellino", "Cote", "Lilia"},
		},
		{
			name: "toggles combine with OR",
			state: state(func(s *model.AvailabilityFilterState) {
				s.Available = true
				s.NotAvailable = true
			}, model.FailedAsUnchecked),
			want: []string{"Altro Paradiso", "Bar Pisellino"},
		},
		{
			name: "window outside every slot",
			state: state(func(s *model.AvailabilityFilterState) {
				s.Available = true
				s.TimeFrom, s.TimeTo = "18:00", "20:00"
			}, model.FailedAsUnchecked),
			want: []string{},
		},
		{
			name: "window bounds are inclusive",
			state: state(func(s *model.AvailabilityFilterState) {
				s.Available = true
				s.TimeFrom, s.TimeTo = "21:00", "21:00"
			}, model.FailedAsUnchecked),
			want: []string{"Altro Paradiso"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, names(Availability(testCatalog(), testResults(), tt.state)))
		})
	}
}

func TestAvailabilityWithoutResultsIsIdentity(t *testing.T) {
	s := model.NewAvailabilityFilterState(model.FailedAsUnchecked)
	s.Available = true
	base := testCatalog()
	assert.Equal(t, base, Availability(base, model.Results{}, s))
}

func TestAvailabilityPendingCountsAsUnchecked(t *testing.T) {
	s := model.NewAvailabilityFilterState(model.FailedAsUnchecked)
	s.Unchecked = true
	results := model.Results{0: model.Pending(), 1: model.Succeeded(nil)}
	assert.Equal(t, []string{"Altro Paradiso", "Cote", "Lilia"}, names(Availability(testCatalog(), results, s)))
}

func TestSlotsInWindow(t *testing.T) {
	slots := []model.Slot{{Time: "11:45"}, {Time: "18:00"}, {Time: "22:15"}}
	assert.Equal(t, []model.Slot{{Time: "18:00"}}, SlotsInWindow(slots, "12:00", "22:00"))
	assert.Equal(t, slots, SlotsInWindow(slots, "", ""))
	assert.Empty(t, SlotsInWindow(slots, "23:00", "23:59"))
}

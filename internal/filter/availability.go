package filter

import "rwscout/internal/model"

// Bucket is the availability classification of one restaurant.
type Bucket int

const (
	BucketUnchecked Bucket = iota
	BucketAvailable
	BucketNotAvailable
	BucketErrored
	BucketChecking
)

func (b Bucket) String() string {
	switch b {
	case BucketUnchecked:
		return "unchecked"
	case BucketAvailable:
		return "available"
	case BucketNotAvailable:
		return "not available"
	case BucketErrored:
		return "error"
	case BucketChecking:
		return "checking"
	default:
		return "unknown"
	}
}

// Classify buckets a restaurant by its entry in results. Available means at least
// one slot, regardless of the time window.
func Classify(results model.Results, id model.RestaurantID) Bucket {
	o, ok := results[id]
	if !ok {
		return BucketUnchecked
	}
	switch o.Status {
	case model.ProbePending:
		return BucketChecking
	case model.ProbeFailed:
		return BucketErrored
	case model.ProbeSucceeded:
		if len(o.Slots) == 0 {
			return BucketNotAvailable
		}
		return BucketAvailable
	default:
		return BucketUnchecked
	}
}

// Availability narrows base to the restaurants matching any active toggle, in base order.
// With no toggle active or no results it returns base unchanged.
func Availability(base []model.Restaurant, results model.Results, state model.AvailabilityFilterState) []model.Restaurant {
	if !state.AnyActive() || len(results) == 0 {
		return base
	}

	out := make([]model.Restaurant, 0, len(base))
	for _, r := range base {
		if matches(results, r.ID, state) {
			out = append(out, r)
		}
	}
	return out
}

func matches(results model.Results, id model.RestaurantID, state model.AvailabilityFilterState) bool {
	o, ok := results[id]
	if !ok || o.Status == model.ProbePending {
		return state.Unchecked
	}

	switch o.Status {
	case model.ProbeFailed:
		if state.Policy == model.FailedSeparate {
			return state.Errored
		}
		return state.Unchecked
	case model.ProbeSucceeded:
		if len(o.Slots) == 0 {
			return state.NotAvailable
		}
		return state.Available && hasSlotInWindow(o.Slots, state.TimeFrom, state.TimeTo)
	}
	return false
}

// SlotsInWindow returns the slots whose time lies in [from, to]. HH:MM strings
// compare correctly as plain strings.
func SlotsInWindow(slots []model.Slot, from, to string) []model.Slot {
	var out []model.Slot
	for _, s := range slots {
		if inWindow(s.Time, from, to) {
			out = append(out, s)
		}
	}
	return out
}

func hasSlotInWindow(slots []model.Slot, from, to string) bool {
	for _, s := range slots {
		if inWindow(s.Time, from, to) {
			return true
		}
	}
	return false
}

func inWindow(t, from, to string) bool {
	if from == "" {
		from = model.DefaultTimeFrom
	}
	if to == "" {
		to = model.DefaultTimeTo
	}
	return t >= from && t <= to
}

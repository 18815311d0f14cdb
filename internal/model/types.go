package model

import (
	"net/url"
	"sort"
	"strings"
)

// RestaurantID identifies a restaurant by its position in the catalog as loaded.
// It never changes for the lifetime of a session.
type RestaurantID int

// Restaurant represents a participating restaurant. Immutable after load.
type Restaurant struct {
	ID           RestaurantID
	Name         string
	Neighborhood string
	Borough      string
	Tags         []string // cuisines
	MealTypes    []string
	Website      string
	Reservation  ReservationOption
}

// ReservationKind describes how a restaurant can be reached on a reservation platform.
type ReservationKind int

const (
	ReservationNone ReservationKind = iota
	ReservationOpenTableID
	ReservationPlatformURL
	ReservationWebsite
)

// Platform is a reservation platform the collaborator knows how to query.
type Platform string

const (
	PlatformNone      Platform = ""
	PlatformResy      Platform = "resy"
	PlatformOpenTable Platform = "opentable"
	PlatformUnknown   Platform = "unknown"
)

// ReservationOption is the restaurant's route to a reservation platform.
type ReservationOption struct {
	Kind  ReservationKind
	Value string // OpenTable id, platform URL or website URL depending on Kind
}

// Platform classifies the option. Platform URLs are matched by host suffix.
func (o ReservationOption) Platform() Platform {
	switch o.Kind {
	case ReservationOpenTableID:
		if strings.TrimSpace(o.Value) == "" {
			return PlatformNone
		}
		return PlatformOpenTable
	case ReservationPlatformURL:
		return DetectPlatform(o.Value)
	default:
		return PlatformNone
	}
}

// Eligible reports whether the restaurant can be probed for availability.
func (o ReservationOption) Eligible() bool {
	p := o.Platform()
	return p == PlatformResy || p == PlatformOpenTable
}

// DetectPlatform maps a reservation URL onto a known platform.
func DetectPlatform(raw string) Platform {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return PlatformNone
	}
	u, err := url.Parse(raw)
	if err != nil || u.Hostname() == "" {
		return PlatformUnknown
	}
	host := strings.ToLower(u.Hostname())
	switch {
	case hostMatches(host, "resy.com"):
		return PlatformResy
	case hostMatches(host, "opentable.com"):
		return PlatformOpenTable
	default:
		return PlatformUnknown
	}
}

func hostMatches(host, domain string) bool {
	return host == domain || strings.HasSuffix(host, "."+domain)
}

// FilterVocabulary lists the selectable values per filter dimension.
type FilterVocabulary struct {
	Neighborhoods []string
	Boroughs      []string
	Tags          []string
	MealTypes     []string
}

// StringSet is a set of accepted values for one filter dimension.
type StringSet map[string]struct{}

// NewStringSet builds a set from the given values.
func NewStringSet(values ...string) StringSet {
	s := make(StringSet, len(values))
	for _, v := range values {
		s[v] = struct{}{}
	}
	return s
}

// Has reports membership.
func (s StringSet) Has(v string) bool {
	_, ok := s[v]
	return ok
}

// Toggle adds v if absent and removes it otherwise.
func (s StringSet) Toggle(v string) {
	if s.Has(v) {
		delete(s, v)
		return
	}
	s[v] = struct{}{}
}

// Intersects reports whether any of values is in the set.
func (s StringSet) Intersects(values []string) bool {
	for _, v := range values {
		if s.Has(v) {
			return true
		}
	}
	return false
}

// Sorted returns the members in lexical order.
func (s StringSet) Sorted() []string {
	out := make([]string, 0, len(s))
	for v := range s {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

// Clone returns an independent copy.
func (s StringSet) Clone() StringSet {
	out := make(StringSet, len(s))
	for v := range s {
		out[v] = struct{}{}
	}
	return out
}

// Equal reports whether both sets hold the same members. A nil set equals an empty one.
func (s StringSet) Equal(other StringSet) bool {
	if len(s) != len(other) {
		return false
	}
	for v := range s {
		if !other.Has(v) {
			return false
		}
	}
	return true
}

// FilterCriteria is the user's base filter selection.
type FilterCriteria struct {
	Search        string
	Neighborhoods StringSet
	Boroughs      StringSet
	Cuisines      StringSet
	MealTypes     StringSet
}

// NewFilterCriteria returns criteria that match the whole catalog.
func NewFilterCriteria() FilterCriteria {
	return FilterCriteria{
		Neighborhoods: StringSet{},
		Boroughs:      StringSet{},
		Cuisines:      StringSet{},
		MealTypes:     StringSet{},
	}
}

// Clone returns a deep copy so callers can edit without aliasing.
func (c FilterCriteria) Clone() FilterCriteria {
	return FilterCriteria{
		Search:        c.Search,
		Neighborhoods: c.Neighborhoods.Clone(),
		Boroughs:      c.Boroughs.Clone(),
		Cuisines:      c.Cuisines.Clone(),
		MealTypes:     c.MealTypes.Clone(),
	}
}

// Equal compares criteria semantically.
func (c FilterCriteria) Equal(other FilterCriteria) bool {
	return c.Search == other.Search &&
		c.Neighborhoods.Equal(other.Neighborhoods) &&
		c.Boroughs.Equal(other.Boroughs) &&
		c.Cuisines.Equal(other.Cuisines) &&
		c.MealTypes.Equal(other.MealTypes)
}

// Active counts the dimensions that constrain the catalog.
func (c FilterCriteria) Active() int {
	n := 0
	if strings.TrimSpace(c.Search) != "" {
		n++
	}
	for _, s := range []StringSet{c.Neighborhoods, c.Boroughs, c.Cuisines, c.MealTypes} {
		if len(s) > 0 {
			n++
		}
	}
	return n
}

// Slot is one open reservation time.
type Slot struct {
	Time        string // HH:MM
	SeatingType string
}

// ProbeStatus tags a ProbeOutcome.
type ProbeStatus int

const (
	ProbePending ProbeStatus = iota
	ProbeSucceeded
	ProbeFailed
)

func (s ProbeStatus) String() string {
	switch s {
	case ProbePending:
		return "pending"
	case ProbeSucceeded:
		return "succeeded"
	case ProbeFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// ProbeOutcome is the result of one availability probe.
type ProbeOutcome struct {
	Status  ProbeStatus
	Slots   []Slot // Succeeded only; empty means no availability
	Message string // Failed only
}

// Pending returns an in-flight outcome.
func Pending() ProbeOutcome { return ProbeOutcome{Status: ProbePending} }

// Succeeded returns a successful outcome. A nil slot list is normalized to empty.
func Succeeded(slots []Slot) ProbeOutcome {
	if slots == nil {
		slots = []Slot{}
	}
	return ProbeOutcome{Status: ProbeSucceeded, Slots: slots}
}

// Failed returns a failed outcome carrying message.
func Failed(message string) ProbeOutcome {
	return ProbeOutcome{Status: ProbeFailed, Message: message}
}

// HasSlots reports a successful outcome with at least one slot.
func (o ProbeOutcome) HasSlots() bool {
	return o.Status == ProbeSucceeded && len(o.Slots) > 0
}

// Results maps restaurants to their latest probe outcome. A missing key means
// the restaurant has not been checked.
type Results map[RestaurantID]ProbeOutcome

// Clone returns a snapshot safe to hand to readers.
func (r Results) Clone() Results {
	out := make(Results, len(r))
	for id, o := range r {
		out[id] = o
	}
	return out
}

// FailedPolicy decides where failed probes are grouped by the availability filter.
type FailedPolicy int

const (
	// FailedAsUnchecked groups failed probes with unchecked restaurants.
	FailedAsUnchecked FailedPolicy = iota
	// FailedSeparate puts failed probes in their own bucket behind the Errored toggle.
	FailedSeparate
)

// ParseFailedPolicy maps a config value onto a policy.
func ParseFailedPolicy(s string) (FailedPolicy, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "unchecked":
		return FailedAsUnchecked, true
	case "separate":
		return FailedSeparate, true
	default:
		return FailedAsUnchecked, false
	}
}

// AvailabilityFilterState holds the availability toggles and time window.
type AvailabilityFilterState struct {
	Available    bool
	NotAvailable bool
	Unchecked    bool
	Errored      bool // honored only with FailedSeparate

	TimeFrom string // HH:MM, inclusive
	TimeTo   string // HH:MM, inclusive

	Policy FailedPolicy
}

// Default time window covers the whole day.
const (
	DefaultTimeFrom = "00:00"
	DefaultTimeTo   = "23:59"
)

// NewAvailabilityFilterState returns all toggles off with a full-day window.
func NewAvailabilityFilterState(policy FailedPolicy) AvailabilityFilterState {
	return AvailabilityFilterState{
		TimeFrom: DefaultTimeFrom,
		TimeTo:   DefaultTimeTo,
		Policy:   policy,
	}
}

// AnyActive reports whether at least one toggle is on.
func (s AvailabilityFilterState) AnyActive() bool {
	return s.Available || s.NotAvailable || s.Unchecked || (s.Errored && s.Policy == FailedSeparate)
}

// ResetToggles switches every toggle off, keeping window and policy.
func (s *AvailabilityFilterState) ResetToggles() {
	s.Available = false
	s.NotAvailable = false
	s.Unchecked = false
	s.Errored = false
}

// RunState is the lifecycle of one aggregation run.
type RunState int

const (
	RunIdle RunState = iota
	RunRunning
	RunCompleted
	RunCancelled
)

func (s RunState) String() string {
	switch s {
	case RunIdle:
		return "idle"
	case RunRunning:
		return "running"
	case RunCompleted:
		return "completed"
	case RunCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Terminal reports whether no further events follow.
func (s RunState) Terminal() bool {
	return s == RunCompleted || s == RunCancelled
}

// Progress counts a run's work.
type Progress struct {
	Completed int
	Total     int
	WithSlots int
	Failed    int
}

// Fraction returns completion in [0, 1].
func (p Progress) Fraction() float64 {
	if p.Total == 0 {
		return 0
	}
	return float64(p.Completed) / float64(p.Total)
}

package model

// Bubble Tea message types

// ErrorMsg represents an error message.
type ErrorMsg struct {
	Err error
}

// CatalogLoadedMsg is sent when the startup fetches complete.
type CatalogLoadedMsg struct {
	Restaurants []Restaurant
	Vocabulary  FilterVocabulary
}

// CatalogFailedMsg is sent when either startup fetch fails.
type CatalogFailedMsg struct {
	Err error
}

// FormCancelledMsg is sent when a form is cancelled.
type FormCancelledMsg struct{}

// CriteriaSubmittedMsg is sent when the filter picker is closed with changes.
type CriteriaSubmittedMsg struct {
	Criteria FilterCriteria
}

// CheckSubmittedMsg is sent when the check form is saved.
type CheckSubmittedMsg struct {
	Date      string
	PartySize int
	TimeFrom  string
	TimeTo    string
	Start     bool
}

// Screen represents different app screens.
type Screen int

const (
	ScreenRestaurants Screen = iota
	ScreenRestaurantDetail
	ScreenFilters
	ScreenCheckForm
)

// Mode represents the current interaction mode.
type Mode int

const (
	ModeNav Mode = iota
	ModeInsert
)

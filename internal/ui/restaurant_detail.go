package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"rwscout/internal/filter"
	"rwscout/internal/model"
	"rwscout/internal/util"
)

// RestaurantDetailModel represents the restaurant detail screen.
type RestaurantDetailModel struct {
	restaurant model.Restaurant
	outcome    model.ProbeOutcome
	checked    bool
	date       string
	partySize  int
	timeFrom   string
	timeTo     string
}

// NewRestaurantDetailModel creates a new restaurant detail model.
func NewRestaurantDetailModel(r model.Restaurant) *RestaurantDetailModel {
	return &RestaurantDetailModel{
		restaurant: r,
		timeFrom:   model.DefaultTimeFrom,
		timeTo:     model.DefaultTimeTo,
	}
}

// SetOutcome updates the probe state shown for the restaurant.
func (m *RestaurantDetailModel) SetOutcome(o model.ProbeOutcome, checked bool, date string, partySize int, from, to string) {
	m.outcome = o
	m.checked = checked
	m.date = date
	m.partySize = partySize
	m.timeFrom = from
	m.timeTo = to
}

// View renders the restaurant detail.
func (m *RestaurantDetailModel) View(width, height int) string {
	r := m.restaurant

	shortcuts := HelpDescStyle.Render("r check all  h back")
	header := lipgloss.NewStyle().
		Width(width - 4).
		Align(lipgloss.Right).
		Render(shortcuts)

	var sections []string

	var fields []string
	fields = append(fields, renderField("Name", r.Name))
	fields = append(fields, renderField("Neighborhood", r.Neighborhood))
	if r.Borough != "" {
		fields = append(fields, renderField("Borough", r.Borough))
	}
	fields = append(fields, renderField("Cuisine", strings.Join(r.Tags, ", ")))
	fields = append(fields, renderField("Meals", strings.Join(r.MealTypes, ", ")))
	fields = append(fields, renderField("Reservations", reservationText(r.Reservation)))
	if r.Website != "" {
		fields = append(fields, renderField("Website", r.Website))
	}
	sections = append(sections, strings.Join(fields, "\n"))

	divider := lipgloss.NewStyle().
		Foreground(ColorMuted).
		Render(strings.Repeat("─", max(0, width-8)))
	sections = append(sections, divider)

	sections = append(sections, m.renderAvailability(width))

	info := PanelStyle.
		Width(width - 4).
		Render(strings.Join(sections, "\n\n"))

	return lipgloss.JoinVertical(lipgloss.Left, header, info)
}

func reservationText(o model.ReservationOption) string {
	switch o.Kind {
	case model.ReservationOpenTableID:
		return fmt.Sprintf("OpenTable #%s", o.Value)
	case model.ReservationPlatformURL:
		label := platformLabel(o)
		if !o.Eligible() {
			return fmt.Sprintf("%s (not supported)", o.Value)
		}
		return fmt.Sprintf("%s  %s", label, o.Value)
	case model.ReservationWebsite:
		return "website only"
	default:
		return "no reservations"
	}
}

func (m *RestaurantDetailModel) renderAvailability(width int) string {
	r := m.restaurant
	if !r.Reservation.Eligible() {
		return HelpDescStyle.Render("Availability can't be checked for this restaurant.")
	}
	if !m.checked {
		return HelpDescStyle.Render("Not checked yet. Press 'r' to check the current list.")
	}

	title := LabelStyle.Render(fmt.Sprintf("Availability for %s, party of %d:", util.FormatDate(m.date), m.partySize))

	switch m.outcome.Status {
	case model.ProbePending:
		return title + "\n" + CheckingStyle.Render("Checking…")
	case model.ProbeFailed:
		return title + "\n" + ErroredStyle.Render("Could not check: "+m.outcome.Message)
	}
	if len(m.outcome.Slots) == 0 {
		return title + "\n" + NotAvailableStyle.Render("No open tables.")
	}

	inWindow := filter.SlotsInWindow(m.outcome.Slots, m.timeFrom, m.timeTo)
	summary := fmt.Sprintf("%d open, %d between %s and %s", len(m.outcome.Slots), len(inWindow), m.timeFrom, m.timeTo)
	return lipgloss.JoinVertical(lipgloss.Left,
		title,
		AvailableStyle.Render(summary),
		"",
		m.renderSlotsTable(),
	)
}

func (m *RestaurantDetailModel) renderSlotsTable() string {
	timeWidth := 10
	seatingWidth := 24
	windowWidth := 10
	widths := []int{timeWidth, seatingWidth, windowWidth}

	headerStyle := TableHeaderStyle.Bold(true)
	header := renderTableRow(
		[]string{formatHeaderLabel("time"), formatHeaderLabel("seating"), formatHeaderLabel("window")},
		widths,
		headerStyle,
	)
	divider := renderTableDivider(widths)

	var rows []string
	for _, s := range m.outcome.Slots {
		window := NotAvailableStyle.Render("outside")
		if s.Time >= m.timeFrom && s.Time <= m.timeTo {
			window = AvailableStyle.Render("✓")
		}
		seating := s.SeatingType
		if seating == "" {
			seating = "—"
		}
		cells := []string{util.FormatSlotTime(s.Time), util.TruncateString(seating, seatingWidth), window}
		rows = append(rows, renderTableRow(cells, widths, NormalRowStyle))
	}

	return lipgloss.JoinVertical(
		lipgloss.Left,
		header,
		divider,
		strings.Join(rows, "\n"),
	)
}

package ui

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"rwscout/internal/filter"
	"rwscout/internal/model"
	"rwscout/internal/util"
)

type restaurantColumn struct {
	key    string
	label  string
	width  int
	hidden bool
}

// RestaurantsModel represents the restaurants list screen.
type RestaurantsModel struct {
	allRows []model.Restaurant
	rows    []model.Restaurant
	cursor  int
	offset  int

	viewportHeight int

	results  model.Results
	timeFrom string
	timeTo   string
	spinner  string

	columns      []restaurantColumn
	activeColumn int
	sortKey      string
	sortDesc     bool
	filterKey    string
	filterValue  string
}

// NewRestaurantsModel creates a new restaurants model.
func NewRestaurantsModel(rows []model.Restaurant) *RestaurantsModel {
	return &RestaurantsModel{
		allRows:  append([]model.Restaurant(nil), rows...),
		rows:     append([]model.Restaurant(nil), rows...),
		results:  model.Results{},
		timeFrom: model.DefaultTimeFrom,
		timeTo:   model.DefaultTimeTo,
		columns: []restaurantColumn{
			{key: "name", label: "name", width: 26},
			{key: "area", label: "area", width: 18},
			{key: "borough", label: "borough", width: 12},
			{key: "cuisine", label: "cuisine", width: 18},
			{key: "meals", label: "meals", width: 14},
			{key: "platform", label: "platform", width: 10},
			{key: "status", label: "status", width: 16},
			{key: "slots", label: "slots", width: 22},
		},
	}
}

func (m *RestaurantsModel) ApplyPrefs(prefs TablePrefs) {
	if prefs.SortKey != "" {
		m.sortKey = prefs.SortKey
		m.sortDesc = prefs.SortDesc
	}
	hidden := make(map[string]bool, len(prefs.HiddenColumns))
	for _, c := range prefs.HiddenColumns {
		hidden[c] = true
	}
	for i := range m.columns {
		m.columns[i].hidden = hidden[m.columns[i].key]
	}
	if prefs.ActiveColumn != "" {
		for i, c := range m.columns {
			if c.key == prefs.ActiveColumn {
				m.activeColumn = i
				break
			}
		}
	}
	m.ensureVisibleActiveColumn()
	m.rebuild()
}

func (m *RestaurantsModel) Prefs() TablePrefs {
	var hidden []string
	for _, c := range m.columns {
		if c.hidden {
			hidden = append(hidden, c.key)
		}
	}
	return TablePrefs{
		SortKey:       m.sortKey,
		SortDesc:      m.sortDesc,
		HiddenColumns: hidden,
		ActiveColumn:  m.columns[m.activeColumn].key,
	}
}

// SetRows replaces the listed restaurants, keeping the cursor on the same
// restaurant when it is still present.
func (m *RestaurantsModel) SetRows(rows []model.Restaurant) {
	selected, hadSelection := m.Selected()
	m.allRows = append([]model.Restaurant(nil), rows...)
	m.rebuild()
	if !hadSelection {
		return
	}
	for i, r := range m.rows {
		if r.ID == selected.ID {
			m.cursor = i
			m.clampCursor()
			return
		}
	}
}

// SetResults updates the availability annotations.
func (m *RestaurantsModel) SetResults(results model.Results, from, to string) {
	m.results = results
	m.timeFrom = from
	m.timeTo = to
	if m.sortKey == "status" || m.sortKey == "slots" {
		m.rebuild()
	}
}

// SetSpinner sets the frame shown next to restaurants being checked.
func (m *RestaurantsModel) SetSpinner(frame string) {
	m.spinner = frame
}

// Selected returns the restaurant under the cursor.
func (m *RestaurantsModel) Selected() (model.Restaurant, bool) {
	if len(m.rows) == 0 || m.cursor >= len(m.rows) {
		return model.Restaurant{}, false
	}
	return m.rows[m.cursor], true
}

func (m *RestaurantsModel) rebuild() {
	rows := append([]model.Restaurant(nil), m.allRows...)

	if m.filterKey != "" && m.filterValue != "" {
		filtered := make([]model.Restaurant, 0, len(rows))
		target := strings.ToLower(strings.TrimSpace(m.filterValue))
		for _, r := range rows {
			if strings.EqualFold(strings.TrimSpace(m.getValue(r, m.filterKey)), target) {
				filtered = append(filtered, r)
			}
		}
		rows = filtered
	}

	if m.sortKey != "" {
		sort.SliceStable(rows, func(i, j int) bool {
			left := strings.ToLower(m.getValue(rows[i], m.sortKey))
			right := strings.ToLower(m.getValue(rows[j], m.sortKey))
			if left == right {
				return rows[i].ID < rows[j].ID
			}
			if m.sortDesc {
				return left > right
			}
			return left < right
		})
	}

	m.rows = rows
	m.clampCursor()
}

func (m *RestaurantsModel) clampCursor() {
	if len(m.rows) == 0 {
		m.cursor = 0
		m.offset = 0
		return
	}
	if m.cursor >= len(m.rows) {
		m.cursor = len(m.rows) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
	if m.offset > m.cursor {
		m.offset = m.cursor
	}
	vh := m.viewportHeight
	if vh > 0 && m.cursor >= m.offset+vh {
		m.offset = m.cursor - vh + 1
	}
}

// statusRank orders buckets for sorting: available first.
func statusRank(b filter.Bucket) int {
	switch b {
	case filter.BucketAvailable:
		return 0
	case filter.BucketNotAvailable:
		return 1
	case filter.BucketChecking:
		return 2
	case filter.BucketErrored:
		return 3
	default:
		return 4
	}
}

func (m *RestaurantsModel) getValue(row model.Restaurant, key string) string {
	switch key {
	case "name":
		return row.Name
	case "area":
		return row.Neighborhood
	case "borough":
		return row.Borough
	case "cuisine":
		return strings.Join(row.Tags, ", ")
	case "meals":
		return strings.Join(row.MealTypes, ", ")
	case "platform":
		return platformLabel(row.Reservation)
	case "status":
		return strconv.Itoa(statusRank(filter.Classify(m.results, row.ID)))
	case "slots":
		o := m.results[row.ID]
		if !o.HasSlots() {
			return ""
		}
		return o.Slots[0].Time
	default:
		return ""
	}
}

func platformLabel(o model.ReservationOption) string {
	switch o.Platform() {
	case model.PlatformResy:
		return "Resy"
	case model.PlatformOpenTable:
		return "OpenTable"
	case model.PlatformUnknown:
		return "other"
	default:
		if o.Kind == model.ReservationWebsite {
			return "website"
		}
		return ""
	}
}

// statusCell renders the availability column for one restaurant.
func (m *RestaurantsModel) statusCell(r model.Restaurant) string {
	if !r.Reservation.Eligible() {
		return UncheckedStyle.Render("no integration")
	}
	o, ok := m.results[r.ID]
	if !ok {
		return UncheckedStyle.Render("·")
	}
	switch o.Status {
	case model.ProbePending:
		return CheckingStyle.Render(strings.TrimSpace(m.spinner + " checking"))
	case model.ProbeFailed:
		return ErroredStyle.Render("! " + o.Message)
	}
	if len(o.Slots) == 0 {
		return NotAvailableStyle.Render("✗ none")
	}
	inWindow := filter.SlotsInWindow(o.Slots, m.timeFrom, m.timeTo)
	if len(inWindow) == 0 {
		return NotAvailableStyle.Render(fmt.Sprintf("✗ %d outside", len(o.Slots)))
	}
	return AvailableStyle.Render(fmt.Sprintf("✓ %d open", len(inWindow)))
}

func (m *RestaurantsModel) slotsCell(r model.Restaurant, width int) string {
	o, ok := m.results[r.ID]
	if !ok || !o.HasSlots() {
		return "—"
	}
	return util.TruncateString(util.FormatSlots(filter.SlotsInWindow(o.Slots, m.timeFrom, m.timeTo), 4), width)
}

func (m *RestaurantsModel) visibleColumnIndexes() []int {
	var idxs []int
	for i, c := range m.columns {
		if !c.hidden {
			idxs = append(idxs, i)
		}
	}
	return idxs
}

func (m *RestaurantsModel) ensureVisibleActiveColumn() {
	if !m.columns[m.activeColumn].hidden {
		return
	}
	for i := range m.columns {
		if !m.columns[i].hidden {
			m.activeColumn = i
			return
		}
	}
	m.columns[0].hidden = false
	m.activeColumn = 0
}

func (m *RestaurantsModel) NextColumn() {
	start := m.activeColumn
	for {
		m.activeColumn = (m.activeColumn + 1) % len(m.columns)
		if !m.columns[m.activeColumn].hidden || m.activeColumn == start {
			return
		}
	}
}

func (m *RestaurantsModel) PrevColumn() {
	start := m.activeColumn
	for {
		m.activeColumn--
		if m.activeColumn < 0 {
			m.activeColumn = len(m.columns) - 1
		}
		if !m.columns[m.activeColumn].hidden || m.activeColumn == start {
			return
		}
	}
}

func (m *RestaurantsModel) JumpToColumn(number int) bool {
	if number < 1 || number > len(m.columns) {
		return false
	}
	idx := number - 1
	if m.columns[idx].hidden {
		return false
	}
	m.activeColumn = idx
	return true
}

func (m *RestaurantsModel) SortActiveColumn(desc bool) {
	m.sortKey = m.columns[m.activeColumn].key
	m.sortDesc = desc
	m.rebuild()
}

func (m *RestaurantsModel) HideActiveColumn() bool {
	if len(m.visibleColumnIndexes()) <= 1 {
		return false
	}
	m.columns[m.activeColumn].hidden = true
	m.ensureVisibleActiveColumn()
	return true
}

func (m *RestaurantsModel) ShowAllColumns() {
	for i := range m.columns {
		m.columns[i].hidden = false
	}
}

func (m *RestaurantsModel) FilterBySelectedValue() bool {
	if len(m.rows) == 0 {
		return false
	}
	key := m.columns[m.activeColumn].key
	if key == "status" || key == "slots" {
		return false
	}
	value := strings.TrimSpace(m.getValue(m.rows[m.cursor], key))
	if value == "" {
		return false
	}
	m.filterKey = key
	m.filterValue = value
	m.rebuild()
	return true
}

func (m *RestaurantsModel) ClearFilter() bool {
	if m.filterKey == "" {
		return false
	}
	m.filterKey = ""
	m.filterValue = ""
	m.rebuild()
	return true
}

func (m *RestaurantsModel) TableMeta() string {
	col := strings.ToUpper(m.columns[m.activeColumn].label)
	parts := []string{fmt.Sprintf("col %s", col)}
	if m.sortKey != "" {
		order := "asc"
		if m.sortDesc {
			order = "desc"
		}
		parts = append(parts, fmt.Sprintf("sort %s %s", strings.ToUpper(m.sortKey), order))
	}
	if m.filterKey != "" {
		parts = append(parts, fmt.Sprintf("value %s=%q", strings.ToUpper(m.filterKey), m.filterValue))
	}
	return strings.Join(parts, "  ·  ")
}

// View renders the restaurants list. summary is shown at the left of the status bar.
func (m *RestaurantsModel) View(width, height int, summary string) string {
	if len(m.rows) == 0 {
		emptyMsg := `    No restaurants match.
    Press  f  to change filters or  0  to show every availability state.`
		return EmptyStateStyle.
			Width(width).
			Height(height).
			Render(emptyMsg)
	}

	visible := m.visibleColumnIndexes()
	if len(visible) == 0 {
		return EmptyStateStyle.Width(width).Height(height).Render("No visible columns. Press C to show all columns.")
	}

	widths := make([]int, 0, len(visible))
	headers := make([]string, 0, len(visible))
	totalFixed := 0
	for _, idx := range visible {
		col := m.columns[idx]
		label := formatHeaderLabel(col.label)
		if idx == m.activeColumn {
			label = renderActiveHeaderLabel(label)
		}
		if m.sortKey == col.key {
			if m.sortDesc {
				label += " ↓"
			} else {
				label += " ↑"
			}
		}
		cellWidth := max(col.width+2, lipgloss.Width(label)+4)
		totalFixed += cellWidth
		widths = append(widths, cellWidth)
		headers = append(headers, label)
	}
	if len(widths) > 0 {
		sepTotal := (len(widths) - 1) * tableSeparatorWidth()
		extra := width - totalFixed - sepTotal - 2
		if extra > 0 {
			widths[len(widths)-1] += extra
		}
	}

	headerStyle := TableHeaderStyle.Bold(true)
	header := renderTableRow(headers, widths, headerStyle)
	divider := renderTableDivider(widths)

	visibleHeight := height - 3
	m.viewportHeight = visibleHeight
	var rows []string

	for i := m.offset; i < len(m.rows) && i < m.offset+visibleHeight; i++ {
		row := m.rows[i]
		style := NormalRowStyle
		if i == m.cursor {
			style = SelectedRowStyle
		}

		cells := make([]string, 0, len(visible))
		for _, idx := range visible {
			col := m.columns[idx]
			switch col.key {
			case "name":
				cells = append(cells, util.TruncateString(row.Name, col.width))
			case "area":
				cells = append(cells, util.TruncateString(row.Neighborhood, col.width))
			case "borough":
				cells = append(cells, util.TruncateString(row.Borough, col.width))
			case "cuisine":
				cells = append(cells, util.TruncateString(util.JoinOrDash(row.Tags), col.width))
			case "meals":
				cells = append(cells, util.TruncateString(util.JoinOrDash(row.MealTypes), col.width))
			case "platform":
				p := platformLabel(row.Reservation)
				if p == "" {
					p = "—"
				}
				cells = append(cells, p)
			case "status":
				cells = append(cells, m.statusCell(row))
			case "slots":
				cells = append(cells, m.slotsCell(row, col.width))
			}
		}
		rows = append(rows, renderTableRow(cells, widths, style))
	}

	valueInfo := ""
	if m.filterKey != "" {
		valueInfo = fmt.Sprintf("  ·  %d/%d by value", len(m.rows), len(m.allRows))
	}
	meta := m.TableMeta()
	if meta != "" {
		meta = "  ·  " + meta
	}
	rowPos := ""
	if len(m.rows) > 0 {
		rowPos = fmt.Sprintf("  ·  row %d/%d", m.cursor+1, len(m.rows))
	}
	status := StatusBarStyle.Render(fmt.Sprintf("%s%s%s%s", summary, rowPos, valueInfo, meta))

	content := lipgloss.JoinVertical(
		lipgloss.Left,
		header,
		divider,
		strings.Join(rows, "\n"),
	)
	statusHeight := lipgloss.Height(status)
	contentHeight := lipgloss.Height(content)
	spacerHeight := max(0, height-contentHeight-statusHeight)
	spacer := lipgloss.NewStyle().Height(spacerHeight).Render("")

	return lipgloss.JoinVertical(
		lipgloss.Left,
		content,
		spacer,
		status,
	)
}

// MoveDown moves the cursor down.
func (m *RestaurantsModel) MoveDown() {
	if m.cursor < len(m.rows)-1 {
		m.cursor++
		vh := m.viewportHeight
		if vh == 0 {
			vh = 10
		}
		if m.cursor >= m.offset+vh {
			m.offset++
		}
	}
}

// MoveUp moves the cursor up.
func (m *RestaurantsModel) MoveUp() {
	if m.cursor > 0 {
		m.cursor--
		if m.cursor < m.offset {
			m.offset--
		}
	}
}

// JumpToTop jumps to the first item.
func (m *RestaurantsModel) JumpToTop() {
	m.cursor = 0
	m.offset = 0
}

// JumpToBottom jumps to the last item.
func (m *RestaurantsModel) JumpToBottom() {
	if len(m.rows) > 0 {
		m.cursor = len(m.rows) - 1
		vh := m.viewportHeight
		if vh == 0 {
			vh = 10
		}
		if m.cursor >= vh {
			m.offset = m.cursor - vh + 1
		}
	}
}

// HalfPageDown moves down half a page.
func (m *RestaurantsModel) HalfPageDown(pageSize int) {
	if len(m.rows) == 0 {
		return
	}
	m.cursor += pageSize / 2
	if m.cursor >= len(m.rows) {
		m.cursor = len(m.rows) - 1
	}
	vh := m.viewportHeight
	if vh == 0 {
		vh = 10
	}
	if m.cursor >= m.offset+vh {
		m.offset = m.cursor - vh + 1
	}
}

// HalfPageUp moves up half a page.
func (m *RestaurantsModel) HalfPageUp(pageSize int) {
	m.cursor -= pageSize / 2
	if m.cursor < 0 {
		m.cursor = 0
	}
	if m.cursor < m.offset {
		m.offset = m.cursor
	}
}

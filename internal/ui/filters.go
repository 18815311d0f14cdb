package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"rwscout/internal/filter"
	"rwscout/internal/model"
	"rwscout/internal/util"
)

// focusSearch is the search box; list sections follow it.
const focusSearch = 0

type filterList struct {
	title    string
	options  []string
	selected model.StringSet
	cursor   int
	offset   int
}

func (l *filterList) moveDown() {
	if l.cursor < len(l.options)-1 {
		l.cursor++
	}
}

func (l *filterList) moveUp() {
	if l.cursor > 0 {
		l.cursor--
	}
}

func (l *filterList) toggle() {
	if len(l.options) == 0 {
		return
	}
	l.selected.Toggle(l.options[l.cursor])
}

// FiltersModel is the base filter picker: a name search plus one multi-select
// list per dimension.
type FiltersModel struct {
	keys    FormKeyMap
	catalog []model.Restaurant
	search  textinput.Model
	lists   []*filterList
	focus   int
}

// NewFiltersModel creates a picker over vocab, preselecting criteria.
func NewFiltersModel(catalog []model.Restaurant, vocab model.FilterVocabulary, criteria model.FilterCriteria) *FiltersModel {
	search := textinput.New()
	search.Placeholder = "Restaurant name..."
	search.CharLimit = 100
	search.SetValue(criteria.Search)
	search.Focus()

	c := criteria.Clone()
	return &FiltersModel{
		keys:    DefaultFormKeyMap(),
		catalog: catalog,
		search:  search,
		lists: []*filterList{
			{title: "Neighborhoods", options: withSelected(vocab.Neighborhoods, c.Neighborhoods), selected: c.Neighborhoods},
			{title: "Boroughs", options: withSelected(vocab.Boroughs, c.Boroughs), selected: c.Boroughs},
			{title: "Cuisines", options: withSelected(vocab.Tags, c.Cuisines), selected: c.Cuisines},
			{title: "Meal types", options: withSelected(vocab.MealTypes, c.MealTypes), selected: c.MealTypes},
		},
	}
}

// withSelected keeps selected values visible even if the vocabulary lacks them.
func withSelected(options []string, selected model.StringSet) []string {
	out := append([]string(nil), options...)
	known := model.NewStringSet(options...)
	for _, v := range selected.Sorted() {
		if !known.Has(v) {
			out = append(out, v)
		}
	}
	return out
}

// Criteria returns the criteria currently selected in the picker.
func (m *FiltersModel) Criteria() model.FilterCriteria {
	return model.FilterCriteria{
		Search:        strings.TrimSpace(m.search.Value()),
		Neighborhoods: m.lists[0].selected.Clone(),
		Boroughs:      m.lists[1].selected.Clone(),
		Cuisines:      m.lists[2].selected.Clone(),
		MealTypes:     m.lists[3].selected.Clone(),
	}
}

// Update handles input.
func (m FiltersModel) Update(msg tea.KeyMsg) (FiltersModel, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Cancel):
		return m, func() tea.Msg {
			return model.FormCancelledMsg{}
		}
	case key.Matches(msg, m.keys.Save):
		criteria := m.Criteria()
		return m, func() tea.Msg {
			return model.CriteriaSubmittedMsg{Criteria: criteria}
		}
	case key.Matches(msg, m.keys.Clear):
		m.search.SetValue("")
		for _, l := range m.lists {
			l.selected = model.StringSet{}
		}
		return m, nil
	case key.Matches(msg, m.keys.NextField):
		m.cycleFocus(1)
		return m, nil
	case key.Matches(msg, m.keys.PrevField):
		m.cycleFocus(-1)
		return m, nil
	}

	if m.focus == focusSearch {
		var cmd tea.Cmd
		m.search, cmd = m.search.Update(msg)
		return m, cmd
	}

	l := m.lists[m.focus-1]
	switch msg.String() {
	case "j", "down":
		l.moveDown()
	case "k", "up":
		l.moveUp()
	case "g":
		l.cursor = 0
	case "G":
		l.cursor = max(0, len(l.options)-1)
	default:
		if key.Matches(msg, m.keys.Toggle) {
			l.toggle()
		}
	}
	return m, nil
}

func (m *FiltersModel) cycleFocus(step int) {
	sections := len(m.lists) + 1
	for i := 0; i < sections; i++ {
		m.focus = (m.focus + step + sections) % sections
		if m.focus == focusSearch || len(m.lists[m.focus-1].options) > 0 {
			break
		}
	}
	if m.focus == focusSearch {
		m.search.Focus()
	} else {
		m.search.Blur()
	}
}

// View renders the picker.
func (m *FiltersModel) View(width, height int) string {
	search := renderFormField("Search", m.search, m.focus == focusSearch)

	criteria := m.Criteria()
	matches := len(filter.Catalog(m.catalog, criteria))
	summary := HelpDescStyle.Render(fmt.Sprintf("%d of %d restaurants match  ·  space toggle  ·  ctrl+s apply  ·  ctrl+x clear", matches, len(m.catalog)))

	listHeight := max(3, height-lipgloss.Height(search)-lipgloss.Height(summary)-4)
	colWidth := max(16, (width-4)/len(m.lists)-2)

	cols := make([]string, 0, len(m.lists))
	for i, l := range m.lists {
		cols = append(cols, m.renderList(l, m.focus == i+1, colWidth, listHeight))
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		search,
		lipgloss.JoinHorizontal(lipgloss.Top, cols...),
		summary,
	)
}

func (m *FiltersModel) renderList(l *filterList, focused bool, width, height int) string {
	style := BorderStyle.Padding(0, 1)
	if focused {
		style = ActiveBorderStyle.Padding(0, 1)
	}

	title := l.title
	if n := len(l.selected); n > 0 {
		title = fmt.Sprintf("%s (%d)", title, n)
	}
	lines := []string{LabelStyle.Render(title)}

	rowsHeight := max(1, height-3)
	if l.cursor < l.offset {
		l.offset = l.cursor
	}
	if l.cursor >= l.offset+rowsHeight {
		l.offset = l.cursor - rowsHeight + 1
	}

	if len(l.options) == 0 {
		lines = append(lines, HelpDescStyle.Render("(none)"))
	}
	for i := l.offset; i < len(l.options) && i < l.offset+rowsHeight; i++ {
		v := l.options[i]
		mark := "[ ]"
		if l.selected.Has(v) {
			mark = "[x]"
		}
		line := fmt.Sprintf("%s %s", mark, util.TruncateString(v, max(1, width-6)))
		rowStyle := NormalRowStyle
		if focused && i == l.cursor {
			rowStyle = SelectedRowStyle
		}
		lines = append(lines, rowStyle.Render(line))
	}

	return style.Width(width).Height(height).Render(strings.Join(lines, "\n"))
}

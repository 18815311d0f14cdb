package ui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"rwscout/internal/model"
	"rwscout/internal/util"
)

const (
	checkFieldDate = iota
	checkFieldParty
	checkFieldFrom
	checkFieldTo
)

// CheckFormModel edits the probe date, party size and time window.
type CheckFormModel struct {
	keys         FormKeyMap
	focusedField int
	inputs       []textinput.Model
}

// NewCheckFormModel creates a form prefilled with the current settings.
func NewCheckFormModel(date string, partySize int, from, to string) *CheckFormModel {
	inputs := make([]textinput.Model, 4)

	inputs[checkFieldDate] = textinput.New()
	inputs[checkFieldDate].Placeholder = "2026-02-14, Feb 14, 2026 or tomorrow"
	inputs[checkFieldDate].CharLimit = 32
	inputs[checkFieldDate].SetValue(date)
	inputs[checkFieldDate].Focus()

	inputs[checkFieldParty] = textinput.New()
	inputs[checkFieldParty].Placeholder = "2"
	inputs[checkFieldParty].CharLimit = 2
	inputs[checkFieldParty].SetValue(strconv.Itoa(partySize))

	inputs[checkFieldFrom] = textinput.New()
	inputs[checkFieldFrom].Placeholder = model.DefaultTimeFrom
	inputs[checkFieldFrom].CharLimit = 8
	if from != model.DefaultTimeFrom {
		inputs[checkFieldFrom].SetValue(from)
	}

	inputs[checkFieldTo] = textinput.New()
	inputs[checkFieldTo].Placeholder = model.DefaultTimeTo
	inputs[checkFieldTo].CharLimit = 8
	if to != model.DefaultTimeTo {
		inputs[checkFieldTo].SetValue(to)
	}

	return &CheckFormModel{
		keys:   DefaultFormKeyMap(),
		inputs: inputs,
	}
}

// Update handles input.
func (m CheckFormModel) Update(msg tea.KeyMsg) (CheckFormModel, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Cancel):
		return m, func() tea.Msg {
			return model.FormCancelledMsg{}
		}
	case key.Matches(msg, m.keys.Save):
		return m, m.save(false)
	case key.Matches(msg, m.keys.SaveRun):
		return m, m.save(true)
	case key.Matches(msg, m.keys.NextField):
		m.nextField()
		return m, nil
	case key.Matches(msg, m.keys.PrevField):
		m.prevField()
		return m, nil
	}

	var cmd tea.Cmd
	m.inputs[m.focusedField], cmd = m.inputs[m.focusedField].Update(msg)
	return m, cmd
}

// View renders the form.
func (m *CheckFormModel) View(width, height int) string {
	var fields []string

	fields = append(fields, renderFormField("Date *", m.inputs[checkFieldDate], m.focusedField == checkFieldDate))
	fields = append(fields, renderFormField("Party size *", m.inputs[checkFieldParty], m.focusedField == checkFieldParty))
	fields = append(fields, renderFormField("Earliest time (HH:MM)", m.inputs[checkFieldFrom], m.focusedField == checkFieldFrom))
	fields = append(fields, renderFormField("Latest time (HH:MM)", m.inputs[checkFieldTo], m.focusedField == checkFieldTo))
	fields = append(fields, HelpDescStyle.Render("The time window only narrows the 'available' filter. ctrl+r saves and starts a check."))

	formContent := strings.Join(fields, "\n\n")

	return PanelStyle.
		Width(width - 4).
		Height(max(0, height-4)).
		Render(formContent)
}

func (m *CheckFormModel) nextField() {
	m.inputs[m.focusedField].Blur()
	m.focusedField = (m.focusedField + 1) % len(m.inputs)
	m.inputs[m.focusedField].Focus()
}

func (m *CheckFormModel) prevField() {
	m.inputs[m.focusedField].Blur()
	m.focusedField--
	if m.focusedField < 0 {
		m.focusedField = len(m.inputs) - 1
	}
	m.inputs[m.focusedField].Focus()
}

func (m *CheckFormModel) save(start bool) tea.Cmd {
	dateInput := m.inputs[checkFieldDate].Value()
	partyInput := m.inputs[checkFieldParty].Value()
	fromInput := m.inputs[checkFieldFrom].Value()
	toInput := m.inputs[checkFieldTo].Value()

	return func() tea.Msg {
		date, err := util.ParseDateInput(dateInput)
		if err != nil {
			return model.ErrorMsg{Err: fmt.Errorf("invalid date (e.g. 2026-02-14 or Feb 14, 2026)")}
		}
		partySize, err := util.ParsePartySize(partyInput)
		if err != nil {
			return model.ErrorMsg{Err: err}
		}
		from, err := util.ParseTimeInput(fromInput)
		if err != nil {
			return model.ErrorMsg{Err: err}
		}
		to, err := util.ParseTimeInput(toInput)
		if err != nil {
			return model.ErrorMsg{Err: err}
		}
		return model.CheckSubmittedMsg{
			Date:      date,
			PartySize: partySize,
			TimeFrom:  from,
			TimeTo:    to,
			Start:     start,
		}
	}
}

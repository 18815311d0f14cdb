package cmd

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"rwscout/internal/ui"
)

// shouldRunOnboarding reports whether to ask for a catalog source: none is
// configured and stdin is a terminal.
func shouldRunOnboarding(cfg *Config) bool {
	if cfg.HasSource() {
		return false
	}
	fi, err := os.Stdin.Stat()
	if err != nil {
		return false
	}
	return (fi.Mode() & os.ModeCharDevice) != 0
}

type onboardingStep int

const (
	stepSource onboardingStep = iota
	stepValue
	stepDone
)

type onboardingModel struct {
	step      onboardingStep
	useFile   bool
	input     textinput.Model
	apiURL    string
	file      string
	cancelled bool
	status    string
	width     int
	height    int
}

var (
	obTabInactive = lipgloss.NewStyle().
			Foreground(ui.ColorMuted).
			Padding(0, 2)

	obTabActive = lipgloss.NewStyle().
			Foreground(ui.ColorText).
			Bold(true).
			Underline(true).
			Padding(0, 2)

	obInputStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.NormalBorder()).
			BorderForeground(ui.ColorAccent).
			Padding(0, 1)
)

func newOnboardingModel() onboardingModel {
	in := textinput.New()
	in.CharLimit = 300
	in.TextStyle = lipgloss.NewStyle().Foreground(ui.ColorText)
	in.PlaceholderStyle = lipgloss.NewStyle().Foreground(ui.ColorMuted)
	in.Cursor.Style = lipgloss.NewStyle().Foreground(ui.ColorText).Background(ui.ColorAccent)
	in.Focus()

	return onboardingModel{step: stepSource, input: in}
}

func (m onboardingModel) Init() tea.Cmd { return nil }

func (m onboardingModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil
	case tea.KeyMsg:
		switch m.step {
		case stepSource:
			switch msg.String() {
			case "up", "k", "left", "h", "b":
				m.useFile = false
				return m, nil
			case "down", "j", "right", "l", "f":
				m.useFile = true
				return m, nil
			case "enter":
				return m.nextStep()
			case "ctrl+c", "q", "esc":
				m.cancelled = true
				m.status = "Setup canceled. Pass --api-url or --catalog-file to get started."
				m.step = stepDone
				return m, tea.Quit
			default:
				return m, nil
			}
		case stepValue:
			switch msg.String() {
			case "enter":
				value := strings.TrimSpace(m.input.Value())
				if value == "" {
					m.status = "A value is required."
					return m, nil
				}
				if m.useFile {
					m.file = value
				} else {
					m.apiURL = strings.TrimRight(value, "/")
				}
				m.status = "Saved."
				m.step = stepDone
				return m, tea.Quit
			case "esc":
				m.step = stepSource
				m.status = ""
				return m, nil
			case "ctrl+c":
				m.cancelled = true
				m.status = "Setup canceled."
				m.step = stepDone
				return m, tea.Quit
			}
			var cmd tea.Cmd
			m.input, cmd = m.input.Update(msg)
			return m, cmd
		}
	}
	return m, nil
}

func (m onboardingModel) nextStep() (tea.Model, tea.Cmd) {
	m.input.SetValue("")
	if m.useFile {
		m.input.Placeholder = "/path/to/restaurants.json"
		m.input.Prompt = "file> "
	} else {
		m.input.Placeholder = "http://localhost:5001/api"
		m.input.Prompt = "url> "
	}
	m.step = stepValue
	return m, nil
}

func (m onboardingModel) View() string {
	width := m.width
	height := m.height
	if width <= 0 {
		width = 100
	}
	if height <= 0 {
		height = 28
	}

	header := m.renderHeader(width)
	tabs := m.renderTabs(width)
	footer := m.renderFooter(width)

	contentHeight := max(8, height-6)
	content := m.renderContent(width, contentHeight)
	view := lipgloss.JoinVertical(lipgloss.Left, header, tabs, content, footer)

	return lipgloss.NewStyle().
		Foreground(ui.ColorText).
		Width(width).
		Height(height).
		Render(view)
}

func (m onboardingModel) renderHeader(width int) string {
	left := "  " + ui.HeaderStyle.Render("rwscout") + " " + ui.BreadcrumbStyle.Render("› Setup")
	right := ui.BreadcrumbStyle.Render(time.Now().Format("Mon 02 Jan")) + "  "
	padding := max(0, width-lipgloss.Width(left)-lipgloss.Width(right))
	return ui.TitleStyle.Width(width).Render(left + strings.Repeat(" ", padding) + right)
}

func (m onboardingModel) renderTabs(width int) string {
	sourceTab := obTabInactive.Render("Source")
	valueTab := obTabInactive.Render("Location")
	if m.step == stepSource {
		sourceTab = obTabActive.Render("Source")
	}
	if m.step == stepValue {
		valueTab = obTabActive.Render("Location")
	}
	return ui.TitleStyle.Width(width).Render(lipgloss.JoinHorizontal(lipgloss.Left, "  ", sourceTab, valueTab))
}

func (m onboardingModel) renderFooter(width int) string {
	switch m.step {
	case stepSource:
		return ui.FooterStyle.Width(width).Render("↑↓/jk to choose  enter to confirm  q cancel")
	case stepValue:
		return ui.FooterStyle.Width(width).Render("enter save  esc back  ctrl+c cancel")
	default:
		return ui.FooterStyle.Width(width).Render("Setup complete")
	}
}

func (m onboardingModel) renderContent(width, height int) string {
	cardWidth := min(92, width-6)
	if cardWidth < 40 {
		cardWidth = width - 2
	}

	option := func(label string, selected bool) string {
		if selected {
			return "  " + ui.LabelStyle.Render("→ "+label)
		}
		return "    " + ui.NormalRowStyle.Render(label)
	}

	var body string
	switch m.step {
	case stepSource:
		body = lipgloss.JoinVertical(
			lipgloss.Left,
			ui.LabelStyle.Render("Where should rwscout load restaurants from?"),
			"",
			option("Restaurant week backend (needed for availability checks)", !m.useFile),
			option("Local catalog file (JSON list of restaurants)", m.useFile),
			"",
			ui.HelpDescStyle.Render("Use arrow keys or j/k to choose, Enter to confirm"),
			ui.HelpDescStyle.Render("You can change this later in ~/.rwscout/config.yaml"),
		)
	case stepValue:
		label := "Backend base URL"
		if m.useFile {
			label = "Catalog file path"
		}
		input := obInputStyle.Width(max(30, cardWidth-14)).Render(m.input.View())
		lines := []string{ui.LabelStyle.Render(label), input}
		if m.status != "" {
			lines = append(lines, "", ui.ErrorStyle.Render(m.status))
		}
		lines = append(lines, "", ui.HelpDescStyle.Render("Press Enter to save, Esc to go back."))
		body = lipgloss.JoinVertical(lipgloss.Left, lines...)
	default:
		msg := ui.SuccessStyle.Render(m.status)
		if m.cancelled {
			msg = ui.ErrorStyle.Render(m.status)
		}
		body = lipgloss.JoinVertical(lipgloss.Left, ui.LabelStyle.Render("Setup"), "", msg)
	}

	card := ui.PanelStyle.Width(cardWidth).Render(body)
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Top, card)
}

// runOnboarding asks for a catalog source and saves it to configDir/config.yaml.
// It returns the path written, or "" when the user cancelled.
func runOnboarding(configDir string) (string, error) {
	prog := tea.NewProgram(newOnboardingModel(), tea.WithAltScreen())
	finalModel, err := prog.Run()
	if err != nil {
		return "", fmt.Errorf("onboarding tui failed: %w", err)
	}
	m, ok := finalModel.(onboardingModel)
	if !ok {
		return "", fmt.Errorf("unexpected onboarding model type")
	}
	return m.save(configDir)
}

func (m onboardingModel) save(configDir string) (string, error) {
	if m.cancelled || (m.apiURL == "" && m.file == "") {
		return "", nil
	}
	return writeConfigFile(configDir, m.apiURL, m.file)
}

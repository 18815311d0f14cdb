package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"rwscout/internal/model"
)

// RenderHelp renders context-sensitive help footer.
func RenderHelp(screen model.Screen, mode model.Mode, running bool, width int) string {
	if mode == model.ModeInsert {
		switch screen {
		case model.ScreenFilters:
			return renderFiltersHelp(width)
		default:
			return renderFormHelp(width)
		}
	}

	switch screen {
	case model.ScreenRestaurants:
		return renderRestaurantsHelp(running, width)
	case model.ScreenRestaurantDetail:
		return renderRestaurantDetailHelp(width)
	default:
		return renderDefaultHelp(width)
	}
}

func renderRestaurantsHelp(running bool, width int) string {
	check := helpKey("r", "check availability")
	if running {
		check = helpKey("x", "stop check")
	}
	keys := []string{
		helpKey("j/k", "navigate"),
		helpKey("f", "filters"),
		helpKey("d", "date/party"),
		check,
		helpKey("1-4", "availability"),
		helpKey("0", "all"),
		helpKey("enter", "details"),
		helpKey("?", "help"),
	}
	return renderHelpLine(keys, width)
}

func renderRestaurantDetailHelp(width int) string {
	keys := []string{
		helpKey("h/esc", "back"),
		helpKey("r", "check list"),
		helpKey("x", "stop check"),
	}
	return renderHelpLine(keys, width)
}

func renderFiltersHelp(width int) string {
	keys := []string{
		helpKey("tab", "next list"),
		helpKey("j/k", "move"),
		helpKey("space", "toggle"),
		helpKey("ctrl+x", "clear"),
		helpKey("ctrl+s", "apply"),
		helpKey("esc", "cancel"),
	}
	return renderHelpLine(keys, width)
}

func renderFormHelp(width int) string {
	keys := []string{
		helpKey("tab", "next field"),
		helpKey("shift+tab", "prev field"),
		helpKey("ctrl+s", "save"),
		helpKey("ctrl+r", "save & check"),
		helpKey("esc", "cancel"),
	}
	return renderHelpLine(keys, width)
}

func renderDefaultHelp(width int) string {
	keys := []string{
		helpKey("j/k", "navigate"),
		helpKey("h/l", "back/select"),
		helpKey("q", "quit"),
	}
	return renderHelpLine(keys, width)
}

func helpKey(key, desc string) string {
	return HelpKeyStyle.Render(key) + " " + HelpDescStyle.Render(desc)
}

func renderHelpLine(keys []string, width int) string {
	line := strings.Join(keys, "  ")
	return FooterStyle.Width(width).Render(line)
}

// RenderFullHelp renders the full help screen.
func RenderFullHelp(width, height int, policy model.FailedPolicy) string {
	content := lipgloss.NewStyle().
		Width(width-4).
		Height(height-6).
		Padding(1, 2)

	errored := "Errored: failed checks are grouped with unchecked"
	if policy == model.FailedSeparate {
		errored = "Toggle 'errored' (failed checks)"
	}

	sections := []string{
		titleSection("Navigation"),
		helpSection([]helpItem{
			{"j / ↓", "Move down"},
			{"k / ↑", "Move up"},
			{"h / ← / b", "Go back"},
			{"l / enter", "Open restaurant detail"},
			{"tab / shift+tab", "Cycle active column"},
			{"/ then 1-8", "Jump to column"},
			{"s / S", "Sort active column asc/desc"},
			{"c / C", "Hide active column / show all"},
			{"n / N", "Show only rows matching the selected cell / clear"},
			{"gg", "Jump to top"},
			{"G", "Jump to bottom"},
			{"ctrl+d / ctrl+u", "Half page down / up"},
			{"q", "Quit"},
			{"?", "Toggle help"},
		}),
		titleSection("Filters"),
		helpSection([]helpItem{
			{"f", "Open filter picker (name, neighborhood, borough, cuisine, meal)"},
			{"F", "Clear all filters"},
			{"", "Changing the list clears availability results"},
		}),
		titleSection("Availability"),
		helpSection([]helpItem{
			{"d", "Set date, party size and time window"},
			{"r", "Check every listed restaurant, one at a time"},
			{"x / esc", "Stop the running check (results so far are kept)"},
			{"1", "Toggle 'available' (slot inside the time window)"},
			{"2", "Toggle 'not available' (no open tables)"},
			{"3", "Toggle 'unchecked'"},
			{"4", errored},
			{"0", "Show all availability states"},
		}),
		titleSection("Forms"),
		helpSection([]helpItem{
			{"tab", "Next field"},
			{"shift+tab", "Previous field"},
			{"ctrl+s", "Save"},
			{"esc", "Cancel"},
		}),
	}

	helpText := content.Render(strings.Join(sections, "\n\n"))

	return lipgloss.JoinVertical(
		lipgloss.Left,
		TitleStyle.Width(width).Render("Help"),
		helpText,
		FooterStyle.Width(width).Render(HelpKeyStyle.Render("esc")+" "+HelpDescStyle.Render("close help")),
	)
}

type helpItem struct {
	key  string
	desc string
}

func titleSection(title string) string {
	return LabelStyle.Render(title)
}

func helpSection(items []helpItem) string {
	var lines []string
	for _, item := range items {
		if item.key == "" {
			lines = append(lines, "  "+HelpDescStyle.Render(item.desc))
			continue
		}
		lines = append(lines, "  "+HelpKeyStyle.Render(item.key)+" - "+HelpDescStyle.Render(item.desc))
	}
	return strings.Join(lines, "\n")
}

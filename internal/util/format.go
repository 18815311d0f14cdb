package util

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"rwscout/internal/model"
)

// FormatDate formats a date string (YYYY-MM-DD) for display.
func FormatDate(date string) string {
	date = strings.TrimSpace(date)
	if date == "" {
		return "Unknown"
	}
	t, err := time.Parse("2006-01-02", date)
	if err != nil {
		return date
	}
	return t.Format("Mon Jan 02, 2006")
}

// FormatDateHuman formats a probe date relative to today.
// "Today", "Tomorrow", "in 3d", "Jan 15", "Jan 15 '27"
func FormatDateHuman(date string) string {
	date = strings.TrimSpace(date)
	if date == "" {
		return "Unknown"
	}
	t, err := time.Parse("2006-01-02", date)
	if err != nil {
		return date
	}

	now := time.Now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	dateDay := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	days := int(dateDay.Sub(today).Hours() / 24)

	switch {
	case days == 0:
		return "Today"
	case days == 1:
		return "Tomorrow"
	case days > 1 && days < 7:
		return fmt.Sprintf("in %dd", days)
	case t.Year() == now.Year():
		return t.Format("Jan 02")
	default:
		return t.Format("Jan 02 '06")
	}
}

// TodayISO returns today's date in ISO 8601 format (YYYY-MM-DD).
func TodayISO() string {
	return time.Now().Format("2006-01-02")
}

// ParseDateInput parses flexible user input and normalizes to ISO (YYYY-MM-DD).
// Empty input means today.
func ParseDateInput(input string) (string, error) {
	s := strings.TrimSpace(input)
	if s == "" {
		return TodayISO(), nil
	}
	switch strings.ToLower(s) {
	case "today":
		return TodayISO(), nil
	case "tomorrow":
		return time.Now().AddDate(0, 0, 1).Format("2006-01-02"), nil
	}

	layouts := []string{
		"2006-01-02",
		"January 2, 2006",
		"Jan 2, 2006",
		"1/2/2006",
		"01/02/2006",
	}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format("2006-01-02"), nil
		}
	}

	return "", fmt.Errorf("invalid date format")
}

// ParseTimeInput normalizes a time of day to HH:MM.
// Accepts "18:30", "1830", "6pm", "6:30 pm". Empty input returns "".
func ParseTimeInput(input string) (string, error) {
	s := strings.ToLower(strings.ReplaceAll(strings.TrimSpace(input), " ", ""))
	if s == "" {
		return "", nil
	}

	layouts := []string{"15:04", "1504", "3pm", "3:04pm", "15"}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format("15:04"), nil
		}
	}
	return "", fmt.Errorf("invalid time %q (use HH:MM)", input)
}

// ParsePartySize parses a party size between 1 and 20.
func ParsePartySize(input string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(input))
	if err != nil || n < 1 || n > 20 {
		return 0, fmt.Errorf("party size must be a number between 1 and 20")
	}
	return n, nil
}

// FormatSlotTime renders "18:30" as "6:30 PM". Unparseable input is returned unchanged.
func FormatSlotTime(hhmm string) string {
	t, err := time.Parse("15:04", hhmm)
	if err != nil {
		return hhmm
	}
	return t.Format("3:04 PM")
}

// FormatSlots lists up to limit slot times and summarizes the rest.
func FormatSlots(slots []model.Slot, limit int) string {
	if len(slots) == 0 {
		return "—"
	}
	if limit <= 0 || limit > len(slots) {
		limit = len(slots)
	}
	times := make([]string, 0, limit)
	for _, s := range slots[:limit] {
		times = append(times, s.Time)
	}
	out := strings.Join(times, " ")
	if rest := len(slots) - limit; rest > 0 {
		out += fmt.Sprintf(" +%d", rest)
	}
	return out
}

// JoinOrDash joins values for display, or returns a dash when there are none.
func JoinOrDash(values []string) string {
	if len(values) == 0 {
		return "—"
	}
	return strings.Join(values, ", ")
}

// TruncateString truncates a string to maxLen and adds "..." if needed.
func TruncateString(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	if maxLen < 3 {
		return string(runes[:maxLen])
	}
	return string(runes[:maxLen-3]) + "..."
}

package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/huh"

	"github.com/julianstephens/growthtrack/internal/constants"
	"github.com/julianstephens/growthtrack/internal/validation"
)

// HabitFormModel holds the values collected by NewHabitForm
type HabitFormModel struct {
	Name            string
	Description     string
	Frequency       constants.Frequency
	ReminderEnabled bool
	ReminderTime    string
}

// Body returns the habit create request for the collected values
func (fm *HabitFormModel) Body() map[string]any {
	body := map[string]any{
		"name":             strings.TrimSpace(fm.Name),
		"frequency":        fm.Frequency,
		"reminder_enabled": fm.ReminderEnabled,
	}
	if d := strings.TrimSpace(fm.Description); d != "" {
		body["description"] = d
	}
	if t := strings.TrimSpace(fm.ReminderTime); t != "" {
		body["reminder_time"] = t
	}
	return body
}

// NewHabitForm creates the interactive form for adding a habit
func NewHabitForm(fm *HabitFormModel) *huh.Form {
	if fm.Frequency == "" {
		fm.Frequency = constants.FrequencyDaily
	}
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Habit Name").
				Value(&fm.Name).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return fmt.Errorf("habit name cannot be empty")
					}
					return validation.Name("name", strings.TrimSpace(s))
				}),
			huh.NewInput().
				Title("Description").
				Value(&fm.Description),
			huh.NewSelect[constants.Frequency]().
				Title("Frequency").
				Options(
					huh.NewOption("Daily", constants.FrequencyDaily),
					huh.NewOption("Weekdays", constants.FrequencyWeekdays),
					huh.NewOption("Weekly (Mondays)", constants.FrequencyWeekly),
				).
				Value(&fm.Frequency),
			huh.NewConfirm().
				Title("Send reminders").
				Value(&fm.ReminderEnabled),
			huh.NewInput().
				Title("Reminder time (HH:MM)").
				Description("Optional").
				Value(&fm.ReminderTime).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return nil
					}
					return validation.ClockTime("reminder_time", strings.TrimSpace(s))
				}),
		),
	).WithTheme(huh.ThemeDracula())
}

// NewConfirmForm asks a yes/no question, storing the answer in ok
func NewConfirmForm(prompt string, ok *bool) *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(prompt).
				Affirmative("Yes").
				Negative("No").
				Value(ok),
		),
	).WithTheme(huh.ThemeDracula())
}

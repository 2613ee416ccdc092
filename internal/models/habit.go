package models

import (
	"encoding/json"
	"time"

	"github.com/julianstephens/growthtrack/internal/constants"
	"github.com/julianstephens/growthtrack/internal/validation"
)

// Habit represents a recurring practice to track
type Habit struct {
	HabitID         string              `json:"habit_id"`
	UserID          string              `json:"user_id"`
	Name            string              `json:"name"`
	Description     *string             `json:"description,omitempty"`
	Frequency       constants.Frequency `json:"frequency"`
	ReminderTime    *string             `json:"reminder_time,omitempty"` // HH:MM format
	ReminderEnabled bool                `json:"reminder_enabled"`
	Color           string              `json:"color"`
	IsActive        bool                `json:"is_active"`
	CreatedAt       time.Time           `json:"created_at"`
	UpdatedAt       time.Time           `json:"updated_at"`
}

// NewHabit returns a habit carrying the defaults applied on create
func NewHabit() *Habit {
	return &Habit{
		Frequency: constants.FrequencyDaily,
		Color:     constants.DefaultHabitColor,
		IsActive:  true,
	}
}

// UnmarshalJSON starts from the create defaults, so stored records that lack
// frequency or is_active read as daily and active
func (h *Habit) UnmarshalJSON(data []byte) error {
	type plain Habit
	v := plain(*NewHabit())
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*h = Habit(v)
	return nil
}

// Validate checks the user-editable fields
func (h *Habit) Validate() error {
	var reminder error
	if h.ReminderTime != nil && *h.ReminderTime != "" {
		reminder = validation.ClockTime("reminder_time", *h.ReminderTime)
	}
	return validation.First(
		validation.Name("name", h.Name),
		validation.OneOf("frequency", string(h.Frequency),
			string(constants.FrequencyDaily), string(constants.FrequencyWeekdays), string(constants.FrequencyWeekly)),
		reminder,
		validation.Color("color", h.Color),
	)
}

// Label is the text used for fuzzy search
func (h *Habit) Label() string { return h.Name }

// HabitLog is one day's completion record for a habit, keyed by (habit_id, date)
type HabitLog struct {
	HabitID     string     `json:"habit_id"`
	UserID      string     `json:"user_id"`
	Date        string     `json:"date"` // YYYY-MM-DD format
	Completed   bool       `json:"completed"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	Note        *string    `json:"note,omitempty"`
}

// HabitLogInput is the request body for recording a log
type HabitLogInput struct {
	Date      string  `json:"date"`
	Completed *bool   `json:"completed,omitempty"`
	Note      *string `json:"note,omitempty"`
}

// Validate checks the input date
func (in *HabitLogInput) Validate() error {
	return validation.Date("date", in.Date)
}

// ToLog builds the stored log. CompletedAt is set only for completed logs.
func (in *HabitLogInput) ToLog(habitID, userID string, now time.Time) HabitLog {
	completed := true
	if in.Completed != nil {
		completed = *in.Completed
	}
	log := HabitLog{
		HabitID:   habitID,
		UserID:    userID,
		Date:      in.Date,
		Completed: completed,
		Note:      in.Note,
	}
	if completed {
		at := now.UTC()
		log.CompletedAt = &at
	}
	return log
}

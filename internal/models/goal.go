package models

import (
	"time"

	"github.com/julianstephens/growthtrack/internal/constants"
	"github.com/julianstephens/growthtrack/internal/validation"
)

// Goal is a long-term objective owned by a user
type Goal struct {
	GoalID      string    `json:"goal_id"`
	UserID      string    `json:"user_id"`
	Title       string    `json:"title"`
	Description *string   `json:"description,omitempty"`
	TargetDate  *string   `json:"target_date,omitempty"` // YYYY-MM-DD format
	Status      string    `json:"status"`
	Priority    int       `json:"priority"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func NewGoal() *Goal {
	return &Goal{Status: constants.GoalNotStarted}
}

func (g *Goal) Validate() error {
	return validation.First(
		validation.Name("title", g.Title),
		validation.OptionalDate("target_date", g.TargetDate),
		validation.OneOf("status", g.Status,
			constants.GoalNotStarted, constants.GoalInProgress, constants.GoalCompleted, constants.GoalOnHold),
		validation.Range("priority", g.Priority, 0, 10),
	)
}

func (g *Goal) Label() string { return g.Title }

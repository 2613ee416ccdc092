package models

import (
	"time"

	"github.com/julianstephens/growthtrack/internal/constants"
	"github.com/julianstephens/growthtrack/internal/validation"
)

// Milestone is one step of a goal's roadmap, partitioned by goal rather than user
type Milestone struct {
	MilestoneID string    `json:"milestone_id"`
	GoalID      string    `json:"goal_id"`
	Title       string    `json:"title"`
	Description *string   `json:"description,omitempty"`
	TargetDate  *string   `json:"target_date,omitempty"`
	Status      string    `json:"status"`
	Order       int       `json:"order"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func NewMilestone() *Milestone {
	return &Milestone{Status: constants.MilestoneNotStarted}
}

func (m *Milestone) Validate() error {
	return validation.First(
		validation.Name("title", m.Title),
		validation.OptionalDate("target_date", m.TargetDate),
		validation.OneOf("status", m.Status,
			constants.MilestoneNotStarted, constants.MilestoneInProgress, constants.MilestoneCompleted, constants.MilestoneBlocked),
		validation.Min("order", m.Order, 0),
	)
}

func (m *Milestone) Label() string { return m.Title }

// Package scheduler decides which habits need a reminder today and dispatches it.
package scheduler

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/julianstephens/growthtrack/internal/constants"
	apperrors "github.com/julianstephens/growthtrack/internal/errors"
	"github.com/julianstephens/growthtrack/internal/logger"
	"github.com/julianstephens/growthtrack/internal/models"
	"github.com/julianstephens/growthtrack/internal/notifier"
)

const (
	MsgNoActiveHabits = "No active habits found"
	MsgNothingDue     = "No habits due today"
	MsgAllCompleted   = "All habits with reminders are completed"
)

// Result is the outcome of a reminder run
type Result struct {
	Success         bool   `json:"success"`
	Message         string `json:"message"`
	IncompleteCount int    `json:"incomplete_count"`
	TotalCount      int    `json:"total_count"`
}

// Plan is what Build decided for today
type Plan struct {
	Today          time.Time
	Due            []models.Habit
	Incomplete     []models.Habit
	CompletedCount int
	// Skip holds the result to return without dispatching, nil when a message should be sent
	Skip *Result
}

// IsDueToday reports whether h is scheduled on today's weekday.
// Weekly habits fall on Monday. Unknown frequencies are never due.
func IsDueToday(h models.Habit, today time.Time) bool {
	switch h.Frequency {
	case constants.FrequencyDaily:
		return true
	case constants.FrequencyWeekdays:
		wd := today.Weekday()
		return wd >= time.Monday && wd <= time.Friday
	case constants.FrequencyWeekly:
		return today.Weekday() == time.Monday
	default:
		return false
	}
}

// Build selects the due habits and the subset still needing a reminder.
// activeHabits is expected to hold only active habits and todayLogs only logs dated today.
func Build(activeHabits []models.Habit, todayLogs []models.HabitLog, today time.Time) Plan {
	plan := Plan{Today: today}

	if len(activeHabits) == 0 {
		plan.Skip = &Result{Success: true, Message: MsgNoActiveHabits}
		return plan
	}

	completed := make(map[string]struct{}, len(todayLogs))
	for _, log := range todayLogs {
		if log.Completed {
			completed[log.HabitID] = struct{}{}
		}
	}

	for _, h := range activeHabits {
		if !IsDueToday(h, today) {
			continue
		}
		plan.Due = append(plan.Due, h)

		if _, done := completed[h.HabitID]; done {
			plan.CompletedCount++
		} else if h.ReminderEnabled {
			plan.Incomplete = append(plan.Incomplete, h)
		}
	}

	switch {
	case len(plan.Due) == 0:
		plan.Skip = &Result{Success: true, Message: MsgNothingDue}
	case len(plan.Incomplete) == 0:
		plan.Skip = &Result{Success: true, Message: MsgAllCompleted, TotalCount: len(plan.Due)}
	}
	return plan
}

// FormatMessage renders the reminder text for the incomplete habits
func FormatMessage(incomplete []models.Habit, dueCount, completedCount int, today time.Time) string {
	var b strings.Builder
	fmt.Fprintf(&b, ":bell: *Habit reminder* (%s)\n\n", today.Format(constants.DateFormat))
	fmt.Fprintf(&b, "Today's progress: %d/%d done\n\n", completedCount, dueCount)
	b.WriteString("*Still to do:*\n")
	for _, h := range incomplete {
		if h.ReminderTime != nil && *h.ReminderTime != "" {
			fmt.Fprintf(&b, "• %s (planned: %s)\n", h.Name, *h.ReminderTime)
		} else {
			fmt.Fprintf(&b, "• %s\n", h.Name)
		}
	}
	b.WriteString("\nKeep going today! :muscle:")
	return b.String()
}

// Scheduler sends reminders through a notifier
type Scheduler struct {
	sender  notifier.Sender
	webhook string
}

func New(sender notifier.Sender, webhookURL string) *Scheduler {
	return &Scheduler{sender: sender, webhook: webhookURL}
}

// Configured reports whether a webhook destination is set
func (s *Scheduler) Configured() bool {
	return s.webhook != ""
}

// Remind builds today's plan and dispatches one message when something is incomplete.
// A failed dispatch returns an error wrapping ErrDeliveryFailed. There is no retry.
func (s *Scheduler) Remind(ctx context.Context, activeHabits []models.Habit, todayLogs []models.HabitLog, today time.Time) (Result, error) {
	plan := Build(activeHabits, todayLogs, today)
	if plan.Skip != nil {
		logger.Debug("No reminder sent", "reason", plan.Skip.Message)
		return *plan.Skip, nil
	}
	return s.Dispatch(ctx, plan)
}

// Dispatch sends the message for a plan that has incomplete habits
func (s *Scheduler) Dispatch(ctx context.Context, plan Plan) (Result, error) {
	if !s.Configured() {
		return Result{}, fmt.Errorf("%w: Slack webhook URL is not configured", apperrors.ErrNotConfigured)
	}

	msg := FormatMessage(plan.Incomplete, len(plan.Due), plan.CompletedCount, plan.Today)
	if err := s.sender.Send(ctx, s.webhook, msg); err != nil {
		logger.Error("Failed to send reminder", "error", err)
		return Result{}, fmt.Errorf("%w: Failed to send Slack notification", apperrors.ErrDeliveryFailed)
	}

	logger.Info("Reminder sent", "incomplete", len(plan.Incomplete), "due", len(plan.Due))
	return Result{
		Success:         true,
		Message:         fmt.Sprintf("Reminder sent for %d incomplete habits", len(plan.Incomplete)),
		IncompleteCount: len(plan.Incomplete),
		TotalCount:      len(plan.Due),
	}, nil
}

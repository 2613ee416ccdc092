package scheduler

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/julianstephens/growthtrack/internal/constants"
	apperrors "github.com/julianstephens/growthtrack/internal/errors"
	"github.com/julianstephens/growthtrack/internal/models"
)

type fakeSender struct {
	calls       int
	destination string
	text        string
	err         error
}

func (f *fakeSender) Send(ctx context.Context, destination, text string) error {
	f.calls++
	f.destination = destination
	f.text = text
	return f.err
}

var (
	monday   = time.Date(2024, 3, 4, 20, 0, 0, 0, time.UTC)
	tuesday  = time.Date(2024, 3, 5, 20, 0, 0, 0, time.UTC)
	saturday = time.Date(2024, 3, 9, 20, 0, 0, 0, time.UTC)
	sunday   = time.Date(2024, 3, 10, 20, 0, 0, 0, time.UTC)
)

func habit(id string, freq constants.Frequency, reminder bool) models.Habit {
	return models.Habit{HabitID: id, Name: "habit " + id, Frequency: freq, ReminderEnabled: reminder, IsActive: true}
}

func TestIsDueToday(t *testing.T) {
	tests := []struct {
		name     string
		freq     constants.Frequency
		day      time.Time
		expected bool
	}{
		{"daily monday", constants.FrequencyDaily, monday, true},
		{"daily sunday", constants.FrequencyDaily, sunday, true},
		{"weekdays monday", constants.FrequencyWeekdays, monday, true},
		{"weekdays friday", constants.FrequencyWeekdays, time.Date(2024, 3, 8, 0, 0, 0, 0, time.UTC), true},
		{"weekdays saturday", constants.FrequencyWeekdays, saturday, false},
		{"weekdays sunday", constants.FrequencyWeekdays, sunday, false},
		{"weekly monday", constants.FrequencyWeekly, monday, true},
		{"weekly tuesday", constants.FrequencyWeekly, tuesday, false},
		{"unknown", "monthly", monday, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsDueToday(habit("a", tt.freq, false), tt.day); got != tt.expected {
				t.Errorf("IsDueToday(%s, %s) = %v, want %v", tt.freq, tt.day.Weekday(), got, tt.expected)
			}
		})
	}
}

func TestRemindNoActiveHabits(t *testing.T) {
	sender := &fakeSender{}
	result, err := New(sender, "http://hook").Remind(context.Background(), nil, nil, monday)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.Success || result.Message != MsgNoActiveHabits || result.TotalCount != 0 || result.IncompleteCount != 0 {
		t.Errorf("unexpected result: %+v", result)
	}
	if sender.calls != 0 {
		t.Errorf("expected no dispatch, got %d", sender.calls)
	}
}

func TestRemindNothingDue(t *testing.T) {
	sender := &fakeSender{}
	habits := []models.Habit{habit("a", constants.FrequencyWeekly, true)}
	result, err := New(sender, "http://hook").Remind(context.Background(), habits, nil, tuesday)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Message != MsgNothingDue || result.TotalCount != 0 || result.IncompleteCount != 0 {
		t.Errorf("unexpected result: %+v", result)
	}
	if sender.calls != 0 {
		t.Errorf("expected no dispatch, got %d", sender.calls)
	}
}

func TestRemindAllCompleted(t *testing.T) {
	sender := &fakeSender{}
	habits := []models.Habit{
		habit("a", constants.FrequencyDaily, true),
		habit("b", constants.FrequencyDaily, false),
	}
	logs := []models.HabitLog{{HabitID: "a", Date: "2024-03-04", Completed: true}}

	result, err := New(sender, "http://hook").Remind(context.Background(), habits, logs, monday)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Message != MsgAllCompleted {
		t.Errorf("expected %q, got %q", MsgAllCompleted, result.Message)
	}
	if result.IncompleteCount != 0 || result.TotalCount != 2 {
		t.Errorf("expected 0/2, got %d/%d", result.IncompleteCount, result.TotalCount)
	}
	if sender.calls != 0 {
		t.Errorf("expected no dispatch, got %d", sender.calls)
	}
}

func TestRemindSends(t *testing.T) {
	sender := &fakeSender{}
	at := "21:00"
	read := habit("read", constants.FrequencyDaily, true)
	read.Name = "Read"
	read.ReminderTime = &at
	stretch := habit("stretch", constants.FrequencyWeekdays, true)
	stretch.Name = "Stretch"
	habits := []models.Habit{
		read,
		stretch,
		habit("run", constants.FrequencyDaily, true),
		habit("weekly", constants.FrequencyWeekly, true),
	}
	logs := []models.HabitLog{
		{HabitID: "run", Completed: true},
		{HabitID: "read", Completed: false},
	}

	result, err := New(sender, "http://hook").Remind(context.Background(), habits, logs, tuesday)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Message != "Reminder sent for 2 incomplete habits" {
		t.Errorf("unexpected message %q", result.Message)
	}
	if result.IncompleteCount != 2 || result.TotalCount != 3 {
		t.Errorf("expected 2/3, got %d/%d", result.IncompleteCount, result.TotalCount)
	}
	if sender.calls != 1 || sender.destination != "http://hook" {
		t.Fatalf("expected one dispatch to the webhook, got %d to %q", sender.calls, sender.destination)
	}
	for _, want := range []string{"2024-03-05", "1/3", "• Read (planned: 21:00)", "• Stretch\n"} {
		if !strings.Contains(sender.text, want) {
			t.Errorf("message missing %q:\n%s", want, sender.text)
		}
	}
	if strings.Contains(sender.text, "habit run") {
		t.Errorf("completed habit listed in message:\n%s", sender.text)
	}
}

func TestRemindSkipsReminderDisabled(t *testing.T) {
	sender := &fakeSender{}
	habits := []models.Habit{
		habit("quiet", constants.FrequencyDaily, false),
		habit("loud", constants.FrequencyDaily, true),
	}

	result, err := New(sender, "http://hook").Remind(context.Background(), habits, nil, monday)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.IncompleteCount != 1 || result.TotalCount != 2 {
		t.Errorf("expected 1/2, got %d/%d", result.IncompleteCount, result.TotalCount)
	}
	if strings.Contains(sender.text, "habit quiet") {
		t.Errorf("reminder-disabled habit listed:\n%s", sender.text)
	}
}

func TestRemindDeliveryFailure(t *testing.T) {
	sender := &fakeSender{err: errors.New("status 500")}
	habits := []models.Habit{habit("a", constants.FrequencyDaily, true)}

	_, err := New(sender, "http://hook").Remind(context.Background(), habits, nil, monday)
	if !errors.Is(err, apperrors.ErrDeliveryFailed) {
		t.Fatalf("expected ErrDeliveryFailed, got %v", err)
	}
	if sender.calls != 1 {
		t.Errorf("expected exactly one attempt, got %d", sender.calls)
	}
}

func TestRemindNotConfigured(t *testing.T) {
	sender := &fakeSender{}
	s := New(sender, "")
	if s.Configured() {
		t.Error("expected scheduler without webhook to be unconfigured")
	}
	habits := []models.Habit{habit("a", constants.FrequencyDaily, true)}
	_, err := s.Remind(context.Background(), habits, nil, monday)
	if !errors.Is(err, apperrors.ErrNotConfigured) {
		t.Fatalf("expected ErrNotConfigured, got %v", err)
	}
	if sender.calls != 0 {
		t.Errorf("expected no dispatch, got %d", sender.calls)
	}
}

func TestBuildCountsCompletedOverDueOnly(t *testing.T) {
	habits := []models.Habit{
		habit("daily", constants.FrequencyDaily, true),
		habit("weekly", constants.FrequencyWeekly, true),
	}
	logs := []models.HabitLog{
		{HabitID: "weekly", Completed: true},
		{HabitID: "daily", Completed: true},
	}

	plan := Build(habits, logs, tuesday)
	if len(plan.Due) != 1 || plan.CompletedCount != 1 {
		t.Errorf("expected 1 due and 1 completed, got %d and %d", len(plan.Due), plan.CompletedCount)
	}
}

func TestFormatMessageWithoutTime(t *testing.T) {
	msg := FormatMessage([]models.Habit{{Name: "Journal"}}, 2, 1, monday)
	if !strings.Contains(msg, "• Journal\n") {
		t.Errorf("expected plain bullet, got:\n%s", msg)
	}
	if strings.Contains(msg, "planned") {
		t.Errorf("unexpected planned time:\n%s", msg)
	}
}

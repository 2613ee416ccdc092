package models

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/julianstephens/growthtrack/internal/constants"
)

func strPtr(s string) *string { return &s }

func TestNewHabitDefaults(t *testing.T) {
	h := NewHabit()
	if h.Frequency != constants.FrequencyDaily {
		t.Errorf("expected daily, got %s", h.Frequency)
	}
	if h.Color != "#22c55e" {
		t.Errorf("expected default color, got %s", h.Color)
	}
	if !h.IsActive {
		t.Error("expected new habit to be active")
	}
	if h.ReminderEnabled {
		t.Error("expected reminders disabled by default")
	}
}

func TestHabitUnmarshalDefaults(t *testing.T) {
	tests := []struct {
		name       string
		data       string
		wantActive bool
		wantFreq   constants.Frequency
	}{
		{"missing attributes", `{"habit_id":"h1","name":"Walk"}`, true, constants.FrequencyDaily},
		{"explicit values", `{"habit_id":"h1","name":"Walk","is_active":false,"frequency":"weekly"}`, false, constants.FrequencyWeekly},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var h Habit
			if err := json.Unmarshal([]byte(tt.data), &h); err != nil {
				t.Fatalf("Unmarshal failed: %v", err)
			}
			if h.IsActive != tt.wantActive || h.Frequency != tt.wantFreq {
				t.Errorf("got active=%v frequency=%s, want active=%v frequency=%s",
					h.IsActive, h.Frequency, tt.wantActive, tt.wantFreq)
			}
			if h.Name != "Walk" {
				t.Errorf("expected name to be decoded, got %q", h.Name)
			}
		})
	}
}

func TestHabitValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(h *Habit)
		wantErr bool
	}{
		{"valid", func(h *Habit) {}, false},
		{"missing name", func(h *Habit) { h.Name = "" }, true},
		{"long name", func(h *Habit) { h.Name = strings.Repeat("x", 256) }, true},
		{"bad frequency", func(h *Habit) { h.Frequency = "monthly" }, true},
		{"weekdays", func(h *Habit) { h.Frequency = constants.FrequencyWeekdays }, false},
		{"reminder time", func(h *Habit) { h.ReminderTime = strPtr("21:00") }, false},
		{"bad reminder time", func(h *Habit) { h.ReminderTime = strPtr("24:00") }, true},
		{"bad color", func(h *Habit) { h.Color = "green" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHabit()
			h.Name = "Read"
			tt.mutate(h)
			err := h.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestGoalValidate(t *testing.T) {
	g := NewGoal()
	g.Title = "Run a marathon"
	if err := g.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	g.Priority = 11
	if err := g.Validate(); err == nil {
		t.Error("expected priority out of range error")
	}

	g.Priority = 5
	g.Status = "blocked"
	if err := g.Validate(); err == nil {
		t.Error("blocked is not a goal status")
	}

	g.Status = constants.GoalOnHold
	g.TargetDate = strPtr("2025-13-01")
	if err := g.Validate(); err == nil {
		t.Error("expected invalid target date error")
	}
}

func TestMilestoneValidate(t *testing.T) {
	m := NewMilestone()
	m.Title = "Run 10k"
	m.Status = constants.MilestoneBlocked
	if err := m.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	m.Order = -1
	if err := m.Validate(); err == nil {
		t.Error("expected negative order error")
	}
}

func TestSkillValidate(t *testing.T) {
	s := NewSkill()
	s.Name = "Go"
	if s.Level != 1 {
		t.Errorf("expected default level 1, got %d", s.Level)
	}
	if err := s.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	s.Level = 0
	if err := s.Validate(); err == nil {
		t.Error("expected level out of range error")
	}
}

func TestHabitLogInputToLog(t *testing.T) {
	now := time.Date(2024, 3, 4, 9, 30, 0, 0, time.UTC)

	in := HabitLogInput{Date: "2024-03-04"}
	log := in.ToLog("h1", "u1", now)
	if !log.Completed {
		t.Error("expected completed to default to true")
	}
	if log.CompletedAt == nil || !log.CompletedAt.Equal(now) {
		t.Errorf("expected completed_at %v, got %v", now, log.CompletedAt)
	}

	no := false
	in = HabitLogInput{Date: "2024-03-04", Completed: &no, Note: strPtr("sick")}
	log = in.ToLog("h1", "u1", now)
	if log.Completed {
		t.Error("expected completed false")
	}
	if log.CompletedAt != nil {
		t.Error("completed_at must be unset for incomplete logs")
	}
	if log.Note == nil || *log.Note != "sick" {
		t.Errorf("expected note to be kept, got %v", log.Note)
	}
}

func TestHabitLogInputValidate(t *testing.T) {
	in := HabitLogInput{Date: "2024/03/04"}
	if err := in.Validate(); err == nil {
		t.Error("expected date format error")
	}
}

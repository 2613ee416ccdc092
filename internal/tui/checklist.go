// Package tui holds the terminal views: today's habit checklist, the habit form and the contribution heat map.
package tui

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/julianstephens/growthtrack/internal/constants"
	"github.com/julianstephens/growthtrack/internal/models"
	"github.com/julianstephens/growthtrack/internal/scheduler"
)

// Tracker is the subset of the habits service the checklist drives
type Tracker interface {
	TodayState(ctx context.Context, userID string) ([]models.Habit, []models.HabitLog, error)
	RecordLog(ctx context.Context, userID, habitID string, in models.HabitLogInput) (*models.HabitLog, error)
	DeleteLog(ctx context.Context, userID, habitID, date string) error
}

type loadedMsg struct {
	habits []models.Habit
	logs   []models.HabitLog
}

type toggledMsg struct {
	habitID string
	done    bool
}

type errMsg struct{ err error }

type Item struct {
	Habit models.Habit
	Done  bool
	Due   bool
}

func (i Item) Title() string {
	if i.Done {
		return "✓ " + i.Habit.Name
	}
	return "○ " + i.Habit.Name
}

func (i Item) Description() string {
	status := "not done today"
	switch {
	case i.Done:
		status = "done today"
	case !i.Due:
		status = "not due today"
	}
	desc := fmt.Sprintf("%s · %s", i.Habit.Frequency, status)
	if i.Habit.ReminderTime != nil && *i.Habit.ReminderTime != "" {
		desc += " · " + *i.Habit.ReminderTime
	}
	return desc
}

func (i Item) FilterValue() string { return i.Habit.Name }

// Checklist lists today's active habits and toggles their completion
type Checklist struct {
	tracker Tracker
	userID  string
	today   time.Time
	list    list.Model
	keys    KeyMap
	help    help.Model
	err     error
}

func NewChecklist(tracker Tracker, userID string, today time.Time) Checklist {
	l := list.New(nil, list.NewDefaultDelegate(), 0, 0)
	l.SetShowTitle(false)
	l.SetShowHelp(false)

	return Checklist{
		tracker: tracker,
		userID:  userID,
		today:   today,
		list:    l,
		keys:    DefaultKeyMap(),
		help:    help.New(),
	}
}

func (m Checklist) Init() tea.Cmd {
	return m.load
}

func (m Checklist) load() tea.Msg {
	habits, logs, err := m.tracker.TodayState(context.Background(), m.userID)
	if err != nil {
		return errMsg{err}
	}
	return loadedMsg{habits: habits, logs: logs}
}

func (m Checklist) toggle(item Item) tea.Cmd {
	date := m.today.Format(constants.DateFormat)
	return func() tea.Msg {
		ctx := context.Background()
		if item.Done {
			if err := m.tracker.DeleteLog(ctx, m.userID, item.Habit.HabitID, date); err != nil {
				return errMsg{err}
			}
			return toggledMsg{habitID: item.Habit.HabitID, done: false}
		}

		done := true
		if _, err := m.tracker.RecordLog(ctx, m.userID, item.Habit.HabitID, models.HabitLogInput{Date: date, Completed: &done}); err != nil {
			return errMsg{err}
		}
		return toggledMsg{habitID: item.Habit.HabitID, done: true}
	}
}

// Items builds the list rows, due habits first
func Items(habits []models.Habit, logs []models.HabitLog, today time.Time) []list.Item {
	done := make(map[string]bool, len(logs))
	for _, log := range logs {
		if log.Completed {
			done[log.HabitID] = true
		}
	}

	var due, rest []list.Item
	for _, h := range habits {
		item := Item{Habit: h, Done: done[h.HabitID], Due: scheduler.IsDueToday(h, today)}
		if item.Due {
			due = append(due, item)
		} else {
			rest = append(rest, item)
		}
	}
	return append(due, rest...)
}

func (m Checklist) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.list.SetSize(msg.Width, msg.Height-4)
		m.help.Width = msg.Width
		return m, nil

	case loadedMsg:
		m.err = nil
		cmd := m.list.SetItems(Items(msg.habits, msg.logs, m.today))
		return m, cmd

	case toggledMsg:
		m.err = nil
		for i, li := range m.list.Items() {
			if item, ok := li.(Item); ok && item.Habit.HabitID == msg.habitID {
				item.Done = msg.done
				return m, m.list.SetItem(i, item)
			}
		}
		return m, nil

	case errMsg:
		m.err = msg.err
		return m, nil

	case tea.KeyMsg:
		if m.list.FilterState() == list.Filtering {
			break
		}
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.Help):
			m.help.ShowAll = !m.help.ShowAll
			return m, nil
		case key.Matches(msg, m.keys.Refresh):
			return m, m.load
		case key.Matches(msg, m.keys.Toggle):
			if item, ok := m.list.SelectedItem().(Item); ok {
				return m, m.toggle(item)
			}
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m Checklist) View() string {
	header := titleStyle.Render("Today · " + m.today.Format(constants.DateFormat))

	body := m.list.View()
	if len(m.list.Items()) == 0 && m.list.FilterState() != list.Filtering {
		body = mutedStyle.Render("\n  No active habits.\n  Add one with 'growth habit add'.")
	}

	footer := m.help.View(m.keys)
	if m.err != nil {
		footer = errorStyle.Render("Error: "+m.err.Error()) + "\n" + footer
	}
	return header + "\n" + body + "\n" + footer
}

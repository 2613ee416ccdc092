package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/julianstephens/growthtrack/internal/constants"
	"github.com/julianstephens/growthtrack/internal/models"
	"github.com/julianstephens/growthtrack/internal/tui"
)

type HabitCmd struct {
	Add    HabitAddCmd    `cmd:"" help:"Add a new habit."`
	List   HabitListCmd   `cmd:"" help:"List habits."`
	Log    HabitLogCmd    `cmd:"" help:"Record a habit for a day."`
	Unlog  HabitUnlogCmd  `cmd:"" help:"Remove a habit's record for a day."`
	Delete HabitDeleteCmd `cmd:"" help:"Delete a habit and its history."`
}

type HabitAddCmd struct {
	Name         string `arg:"" optional:"" help:"Habit name. Opens a form when omitted."`
	Description  string `help:"Optional description."`
	Frequency    string `help:"daily, weekdays or weekly." default:"daily" enum:"daily,weekdays,weekly"`
	Remind       bool   `help:"Include the habit in reminders."`
	ReminderTime string `help:"Planned time in HH:MM shown in reminders."`
}

// runForm is replaced in tests
var runForm = func(fm *tui.HabitFormModel) error {
	return tui.NewHabitForm(fm).Run()
}

func (c *HabitAddCmd) Run(ctx *Context) error {
	fm := &tui.HabitFormModel{
		Name:            c.Name,
		Description:     c.Description,
		Frequency:       models.NewHabit().Frequency,
		ReminderEnabled: c.Remind,
		ReminderTime:    c.ReminderTime,
	}
	if c.Frequency != "" {
		fm.Frequency = constants.Frequency(c.Frequency)
	}
	if strings.TrimSpace(c.Name) == "" {
		if err := runForm(fm); err != nil {
			return err
		}
	}

	body, err := json.Marshal(fm.Body())
	if err != nil {
		return err
	}
	habit, err := ctx.Core.Services.Habits.Create(ctx.background(), ctx.UserID, body)
	if err != nil {
		return err
	}

	ctx.printf("Added habit: %s (%s)\n", habit.Name, habit.HabitID)
	return nil
}

type HabitListCmd struct {
	All   bool   `help:"Include inactive habits."`
	Query string `short:"q" help:"Fuzzy filter on the habit name."`
}

func (c *HabitListCmd) Run(ctx *Context) error {
	habits, err := ctx.Core.Services.Habits.List(ctx.background(), ctx.UserID, c.Query)
	if err != nil {
		return err
	}

	shown := 0
	for _, h := range habits {
		if !h.IsActive && !c.All {
			continue
		}
		status := ""
		if !h.IsActive {
			status = " [INACTIVE]"
		}
		reminder := ""
		if h.ReminderEnabled {
			reminder = " 🔔"
			if h.ReminderTime != nil && *h.ReminderTime != "" {
				reminder += " " + *h.ReminderTime
			}
		}
		ctx.printf("%s  %s (%s)%s%s\n", h.HabitID[:min(8, len(h.HabitID))], h.Name, h.Frequency, reminder, status)
		shown++
	}

	if shown == 0 {
		ctx.println("No habits found.")
	}
	return nil
}

type HabitLogCmd struct {
	Name   string `arg:"" help:"Habit name or id."`
	Date   string `help:"Date in YYYY-MM-DD format (default: today)."`
	Note   string `help:"Optional note for this entry."`
	Missed bool   `help:"Record the day as not completed."`
}

func (c *HabitLogCmd) Run(ctx *Context) error {
	habit, err := ctx.resolveHabit(c.Name, false)
	if err != nil {
		return err
	}

	completed := !c.Missed
	in := models.HabitLogInput{Date: ctx.today(c.Date), Completed: &completed}
	if c.Note != "" {
		in.Note = &c.Note
	}
	log, err := ctx.Core.Services.Habits.RecordLog(ctx.background(), ctx.UserID, habit.HabitID, in)
	if err != nil {
		return err
	}

	verb := "Marked"
	if !log.Completed {
		verb = "Recorded miss for"
	}
	ctx.printf("%s habit %q for %s\n", verb, habit.Name, log.Date)
	return nil
}

type HabitUnlogCmd struct {
	Name string `arg:"" help:"Habit name or id."`
	Date string `help:"Date in YYYY-MM-DD format (default: today)."`
}

func (c *HabitUnlogCmd) Run(ctx *Context) error {
	habit, err := ctx.resolveHabit(c.Name, true)
	if err != nil {
		return err
	}

	date := ctx.today(c.Date)
	if err := ctx.Core.Services.Habits.DeleteLog(ctx.background(), ctx.UserID, habit.HabitID, date); err != nil {
		return err
	}
	ctx.printf("Unmarked habit %q for %s\n", habit.Name, date)
	return nil
}

type HabitDeleteCmd struct {
	Name string `arg:"" help:"Habit name or id."`
	Yes  bool   `short:"y" help:"Do not ask for confirmation."`
}

// confirm is replaced in tests
var confirm = func(prompt string) (bool, error) {
	var ok bool
	err := tui.NewConfirmForm(prompt, &ok).Run()
	return ok, err
}

func (c *HabitDeleteCmd) Run(ctx *Context) error {
	habit, err := ctx.resolveHabit(c.Name, true)
	if err != nil {
		return err
	}

	if !c.Yes {
		ok, err := confirm(fmt.Sprintf("Delete %q and all of its logs?", habit.Name))
		if err != nil {
			return err
		}
		if !ok {
			ctx.println("Cancelled.")
			return nil
		}
	}

	if err := ctx.Core.Services.Habits.Delete(ctx.background(), ctx.UserID, habit.HabitID); err != nil {
		return err
	}
	ctx.printf("Deleted habit: %s\n", habit.Name)
	return nil
}

package cli

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/julianstephens/growthtrack/internal/tui"
)

type TodayCmd struct{}

func (c *TodayCmd) Run(ctx *Context) error {
	m := tui.NewChecklist(ctx.Core.Services.Habits, ctx.UserID, ctx.Now())
	p := tea.NewProgram(m, tea.WithAltScreen())
	_, err := p.Run()
	return err
}

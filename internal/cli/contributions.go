package cli

import (
	"github.com/julianstephens/growthtrack/internal/tui"
)

type ContributionsCmd struct {
	Year int `help:"Calendar year (default: current year)."`
}

func (c *ContributionsCmd) Run(ctx *Context) error {
	year := c.Year
	if year == 0 {
		year = ctx.Now().Year()
	}

	result, err := ctx.Core.Services.Habits.Contributions(ctx.background(), ctx.UserID, year)
	if err != nil {
		return err
	}
	ctx.println(tui.RenderHeatmap(result))
	return nil
}

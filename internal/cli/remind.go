package cli

import (
	"github.com/julianstephens/growthtrack/internal/scheduler"
)

type RemindCmd struct {
	DryRun bool `help:"Show the reminder without sending it."`
}

func (c *RemindCmd) Run(ctx *Context) error {
	svc := ctx.Core.Services.Habits

	if c.DryRun {
		plan, err := svc.Plan(ctx.background(), ctx.UserID)
		if err != nil {
			return err
		}
		if plan.Skip != nil {
			ctx.println(plan.Skip.Message)
			return nil
		}
		ctx.println(scheduler.FormatMessage(plan.Incomplete, len(plan.Due), plan.CompletedCount, plan.Today))
		return nil
	}

	result, err := svc.Remind(ctx.background(), ctx.UserID)
	if err != nil {
		return err
	}
	ctx.printf("%s (%d incomplete of %d due)\n", result.Message, result.IncompleteCount, result.TotalCount)
	return nil
}

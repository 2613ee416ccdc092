// Command growth-reminder sends the daily habit reminder from a scheduled Lambda.
package main

import (
	"context"

	"github.com/aws/aws-lambda-go/lambda"

	"github.com/julianstephens/growthtrack/internal/bootstrap"
	apperrors "github.com/julianstephens/growthtrack/internal/errors"
	"github.com/julianstephens/growthtrack/internal/reminder"
)

func main() {
	core, err := bootstrap.StartLambda(context.Background())
	if err != nil {
		apperrors.Fatal(err)
	}

	cfg := core.Config.Reminder
	runner := reminder.NewRunner(core.Services.Habits, cfg.UserIDs, cfg.Concurrency)
	lambda.Start(runner.Handle)
}

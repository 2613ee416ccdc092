// Package reminder runs the scheduled habit reminder for one or many users.
package reminder

import (
	"context"
	"encoding/json"

	"golang.org/x/sync/errgroup"

	apperrors "github.com/julianstephens/growthtrack/internal/errors"
	"github.com/julianstephens/growthtrack/internal/logger"
	"github.com/julianstephens/growthtrack/internal/scheduler"
)

// Event is the scheduled trigger payload. UserID is optional.
type Event struct {
	UserID string `json:"user_id"`
}

// Response mirrors an API Gateway style result: Body is the JSON encoded
// reminder result on success and {"detail": ...} on failure.
type Response struct {
	StatusCode int `json:"statusCode"`
	Body       any `json:"body"`
}

// UserResponse is one user's outcome when a run covers several users
type UserResponse struct {
	UserID string `json:"user_id"`
	Response
}

// Reminder is the part of the habits service a run needs
type Reminder interface {
	Remind(ctx context.Context, userID string) (scheduler.Result, error)
}

type Runner struct {
	svc         Reminder
	userIDs     []string
	concurrency int
}

// NewRunner returns a runner that fans out over userIDs when the event names no user
func NewRunner(svc Reminder, userIDs []string, concurrency int) *Runner {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Runner{svc: svc, userIDs: userIDs, concurrency: concurrency}
}

// Handle runs the reminder for the event's user, or for every configured user.
// Failures are reported in the response, never as an error.
func (r *Runner) Handle(ctx context.Context, ev Event) (Response, error) {
	if ev.UserID != "" {
		return r.run(ctx, ev.UserID), nil
	}

	users := r.userIDs
	if len(users) == 1 {
		return r.run(ctx, users[0]), nil
	}

	results := make([]UserResponse, len(users))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.concurrency)
	for i, userID := range users {
		g.Go(func() error {
			results[i] = UserResponse{UserID: userID, Response: r.run(gctx, userID)}
			return nil
		})
	}
	_ = g.Wait()

	status := 200
	for _, res := range results {
		status = max(status, res.StatusCode)
	}
	return Response{StatusCode: status, Body: results}, nil
}

func (r *Runner) run(ctx context.Context, userID string) Response {
	result, err := r.svc.Remind(ctx, userID)
	if err != nil {
		logger.Error("Reminder handler error", "user_id", userID, "error", err)
		return Response{
			StatusCode: apperrors.HTTPStatus(err),
			Body:       map[string]string{"detail": apperrors.Detail(err)},
		}
	}

	body, err := json.Marshal(result)
	if err != nil {
		return Response{StatusCode: 500, Body: map[string]string{"detail": err.Error()}}
	}
	logger.Info("Reminder run", "user_id", userID, "message", result.Message)
	return Response{StatusCode: 200, Body: string(body)}
}

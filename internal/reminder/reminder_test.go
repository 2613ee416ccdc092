package reminder

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"

	apperrors "github.com/julianstephens/growthtrack/internal/errors"
	"github.com/julianstephens/growthtrack/internal/scheduler"
)

type fakeReminder struct {
	mu    sync.Mutex
	users []string
	errs  map[string]error
}

func (f *fakeReminder) Remind(ctx context.Context, userID string) (scheduler.Result, error) {
	f.mu.Lock()
	f.users = append(f.users, userID)
	f.mu.Unlock()
	if err := f.errs[userID]; err != nil {
		return scheduler.Result{}, err
	}
	return scheduler.Result{Success: true, Message: scheduler.MsgNothingDue}, nil
}

func TestHandleEventUser(t *testing.T) {
	fake := &fakeReminder{}
	resp, err := NewRunner(fake, []string{"default"}, 2).Handle(context.Background(), Event{UserID: "alice"})
	if err != nil {
		t.Fatalf("Handle failed: %v", err)
	}
	if resp.StatusCode != 200 {
		t.Errorf("expected 200, got %d", resp.StatusCode)
	}
	body, ok := resp.Body.(string)
	if !ok || !strings.Contains(body, `"message":"No habits due today"`) {
		t.Errorf("expected encoded result body, got %#v", resp.Body)
	}
	if len(fake.users) != 1 || fake.users[0] != "alice" {
		t.Errorf("expected only alice, got %v", fake.users)
	}
}

func TestHandleDefaultUser(t *testing.T) {
	fake := &fakeReminder{}
	if _, err := NewRunner(fake, []string{"default"}, 1).Handle(context.Background(), Event{}); err != nil {
		t.Fatalf("Handle failed: %v", err)
	}
	if len(fake.users) != 1 || fake.users[0] != "default" {
		t.Errorf("expected default user, got %v", fake.users)
	}
}

func TestHandleErrors(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantDetail string
	}{
		{"not configured", fmt.Errorf("%w: Slack webhook URL is not configured", apperrors.ErrNotConfigured), 503, "Slack webhook URL is not configured"},
		{"delivery", fmt.Errorf("%w: Failed to send Slack notification", apperrors.ErrDeliveryFailed), 500, "Failed to send Slack notification"},
		{"unexpected", fmt.Errorf("table missing"), 500, "table missing"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := &fakeReminder{errs: map[string]error{"u1": tt.err}}
			resp, _ := NewRunner(fake, nil, 1).Handle(context.Background(), Event{UserID: "u1"})
			if resp.StatusCode != tt.wantStatus {
				t.Errorf("expected %d, got %d", tt.wantStatus, resp.StatusCode)
			}
			body, ok := resp.Body.(map[string]string)
			if !ok || body["detail"] != tt.wantDetail {
				t.Errorf("expected detail %q, got %#v", tt.wantDetail, resp.Body)
			}
		})
	}
}

func TestHandleFanOut(t *testing.T) {
	fake := &fakeReminder{errs: map[string]error{
		"bob": fmt.Errorf("%w: Slack webhook URL is not configured", apperrors.ErrNotConfigured),
	}}
	resp, err := NewRunner(fake, []string{"alice", "bob", "carol"}, 2).Handle(context.Background(), Event{})
	if err != nil {
		t.Fatalf("Handle failed: %v", err)
	}
	if resp.StatusCode != 503 {
		t.Errorf("expected worst status 503, got %d", resp.StatusCode)
	}
	results, ok := resp.Body.([]UserResponse)
	if !ok || len(results) != 3 {
		t.Fatalf("expected 3 user results, got %#v", resp.Body)
	}
	for i, want := range []string{"alice", "bob", "carol"} {
		if results[i].UserID != want {
			t.Errorf("expected results in configured order, got %s at %d", results[i].UserID, i)
		}
	}
	if results[1].StatusCode != 503 || results[0].StatusCode != 200 {
		t.Errorf("unexpected per-user status %+v", results)
	}
	if len(fake.users) != 3 {
		t.Errorf("expected 3 runs, got %d", len(fake.users))
	}
}

package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/julianstephens/growthtrack/internal/constants"
	"github.com/julianstephens/growthtrack/internal/logger"
)

// ErrNoDestination is returned when no webhook URL is given
var ErrNoDestination = errors.New("webhook URL is not set")

// Sender delivers a text message to a destination
type Sender interface {
	Send(ctx context.Context, destination, text string) error
}

type WebhookPayload struct {
	Text string `json:"text"`
}

// Webhook posts messages as JSON to a Slack-compatible incoming webhook
type Webhook struct {
	client *http.Client
}

// New returns a Webhook whose requests are bounded by timeout.
// A non-positive timeout uses the default of 10 seconds.
func New(timeout time.Duration) *Webhook {
	if timeout <= 0 {
		timeout = constants.NotifyTimeout
	}
	return &Webhook{client: &http.Client{Timeout: timeout}}
}

// Send posts {"text": text} to destination. Any 2xx response is success.
func (w *Webhook) Send(ctx context.Context, destination, text string) error {
	if destination == "" {
		return ErrNoDestination
	}

	jsonData, err := json.Marshal(WebhookPayload{Text: text})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, destination, bytes.NewBuffer(jsonData))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := w.client.Do(req)
	if err != nil {
		logger.Warn("Webhook request failed", "error", err)
		return err
	}
	defer res.Body.Close()

	if res.StatusCode >= 200 && res.StatusCode < 300 {
		return nil
	}

	body, _ := io.ReadAll(io.LimitReader(res.Body, 1024))
	return fmt.Errorf("notification failed with status %d: %s", res.StatusCode, string(body))
}

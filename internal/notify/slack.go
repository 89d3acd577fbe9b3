package notify

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/slack-go/slack"
)

// SlackNotifier sends notifications to Slack via an incoming webhook.
type SlackNotifier struct {
	WebhookURL string
	Username   string
	Client     *http.Client
}

// NewSlackNotifier creates a new SlackNotifier.
func NewSlackNotifier(webhookURL string) *SlackNotifier {
	return &SlackNotifier{
		WebhookURL: webhookURL,
		Username:   "secscan",
		Client:     &http.Client{Timeout: 10 * time.Second},
	}
}

// Notify posts message to the configured webhook.
func (s *SlackNotifier) Notify(ctx context.Context, message string) error {
	if s.WebhookURL == "" {
		return errors.New("slack webhook URL is not configured")
	}

	client := s.Client
	if client == nil {
		client = http.DefaultClient
	}

	msg := &slack.WebhookMessage{
		Username: s.Username,
		Text:     message,
	}
	if err := slack.PostWebhookCustomHTTPContext(ctx, s.WebhookURL, client, msg); err != nil {
		return fmt.Errorf("failed to send slack notification: %w", err)
	}
	return nil
}

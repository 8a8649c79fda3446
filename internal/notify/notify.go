package notify

import (
	"context"
	"log/slog"
	"time"

	"github.com/go-resty/resty/v2"
)

// Notifier delivers a human readable message to an operator channel. Delivery
// is best effort: implementations never report failures to the caller.
type Notifier interface {
	Notify(ctx context.Context, message string)
}

// LogNotifier writes messages to the process log. It is used when no
// operator channel is configured.
type LogNotifier struct{}

var _ Notifier = LogNotifier{}

func (LogNotifier) Notify(ctx context.Context, message string) {
	slog.WarnContext(ctx, "operator notification", "message", message)
}

type webhookMessage struct {
	Text string `json:"text"`
}

// WebhookNotifier posts {"text": message} to a Slack style incoming webhook.
type WebhookNotifier struct {
	client  *resty.Client
	url     string
	timeout time.Duration
}

var _ Notifier = (*WebhookNotifier)(nil)

func NewWebhookNotifier(url string, timeout time.Duration) *WebhookNotifier {
	return &WebhookNotifier{
		client:  resty.New(),
		url:     url,
		timeout: timeout,
	}
}

func (n *WebhookNotifier) Notify(ctx context.Context, message string) {
	ctx, cancel := context.WithTimeout(ctx, n.timeout)
	defer cancel()

	res, err := n.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(webhookMessage{Text: message}).
		Post(n.url)
	if err != nil {
		slog.Warn("unable to deliver webhook notification", "error", err)
		return
	}

	if !res.IsSuccess() {
		slog.Warn("webhook returned error", "status_code", res.StatusCode(), "body", res.String())
		return
	}

	slog.Info("webhook notification sent", "message", message)
}

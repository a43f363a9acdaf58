// Package notify posts best-effort chat notifications. Failures are logged, never returned.
package notify

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/slack-go/slack"

	"outreach.app/courier/core/config"
)

type Channel string

const (
	ChannelErrors       Channel = "errors"
	ChannelInternalTest Channel = "internal-test"
	ChannelOutreach     Channel = "outreach"
)

// Notifier delivers a titled message to a logical channel.
type Notifier interface {
	Notify(ctx context.Context, title, text string, channel Channel)
}

type route struct {
	channel     string
	iconEmoji   string
	unfurlLinks bool
}

type slackNotifier struct {
	webhookURL string
	httpClient *http.Client
	routes     map[Channel]route
	timeout    time.Duration
	logger     *slog.Logger
}

// NewSlackNotifier posts through an incoming webhook. When the webhook URL is empty it
// returns a notifier that only logs.
func NewSlackNotifier(cfg config.SlackConfig, timeout time.Duration, logger *slog.Logger) Notifier {
	if logger == nil {
		logger = slog.Default()
	}
	if !cfg.Enabled() {
		return &logNotifier{logger: logger}
	}
	return &slackNotifier{
		webhookURL: cfg.WebhookURL,
		httpClient: &http.Client{Timeout: timeout},
		routes: map[Channel]route{
			ChannelErrors:       {channel: cfg.ErrorsChannel, iconEmoji: ":telephone_receiver:", unfurlLinks: true},
			ChannelInternalTest: {channel: cfg.InternalTestChannel, iconEmoji: ":telephone_receiver:"},
			ChannelOutreach:     {channel: cfg.OutreachChannel, iconEmoji: ":speech_balloon:"},
		},
		timeout: timeout,
		logger:  logger,
	}
}

func (n *slackNotifier) Notify(ctx context.Context, title, text string, channel Channel) {
	r, ok := n.routes[channel]
	if !ok {
		n.logger.ErrorContext(ctx, "unknown notification channel", "channel", channel, "title", title)
		return
	}

	if n.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, n.timeout)
		defer cancel()
	}

	msg := &slack.WebhookMessage{
		Username:    title,
		IconEmoji:   r.iconEmoji,
		Channel:     r.channel,
		Text:        text,
		UnfurlLinks: r.unfurlLinks,
	}
	if err := slack.PostWebhookCustomHTTPContext(ctx, n.webhookURL, n.httpClient, msg); err != nil {
		n.logger.ErrorContext(ctx, "slack notification failed",
			"error", err,
			"channel", channel,
			"title", title)
		return
	}
	n.logger.DebugContext(ctx, "slack notification sent", "channel", channel, "title", title)
}

type logNotifier struct {
	logger *slog.Logger
}

func (n *logNotifier) Notify(ctx context.Context, title, text string, channel Channel) {
	n.logger.InfoContext(ctx, "notification (slack disabled)", "channel", channel, "title", title, "text", text)
}

package email

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/resend/resend-go/v2"
)

// Notifier delivers a magic-link URL to a user. Delivery failure must
// surface to the caller so the whole request can fail.
type Notifier interface {
	SendLoginLink(ctx context.Context, to, name, url string) error
}

// LogNotifier logs links instead of sending them — used in ENV=local.
type LogNotifier struct {
	logger *slog.Logger
}

func (n *LogNotifier) SendLoginLink(_ context.Context, to, name, url string) error {
	n.logger.Info("magic link (local dev)", "to", to, "name", name, "url", url)
	return nil
}

// ResendNotifier sends links via the Resend API — used in staging/production.
type ResendNotifier struct {
	client *resend.Client
	from   string
}

func (n *ResendNotifier) SendLoginLink(ctx context.Context, to, name, url string) error {
	greeting := "Hi"
	if name != "" {
		greeting = "Hi " + name
	}
	params := &resend.SendEmailRequest{
		From:    n.from,
		To:      []string{to},
		Subject: "Your sign-in link",
		Html: fmt.Sprintf(
			`<p>%s,</p><p>Click the link below to sign in (expires in 15 minutes):</p><p><a href="%s">%s</a></p>`,
			greeting, url, url,
		),
	}
	if _, err := n.client.Emails.SendWithContext(ctx, params); err != nil {
		return fmt.Errorf("send login link: %w", err)
	}
	return nil
}

// NewNotifier returns a LogNotifier for ENV=local, ResendNotifier otherwise.
func NewNotifier(env, apiKey, from string, logger *slog.Logger) Notifier {
	if env == "local" {
		return &LogNotifier{logger: logger}
	}
	return &ResendNotifier{
		client: resend.NewClient(apiKey),
		from:   from,
	}
}

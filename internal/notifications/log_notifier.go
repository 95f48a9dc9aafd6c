package notifications

import (
	"context"
	"log/slog"
)

// LogNotifier is the stand-in for an outbound mailer: it writes the
// delivery to the log instead of sending it. Good enough for dev and for
// deployments that read tokens off the response body.
type LogNotifier struct {
	log *slog.Logger
}

func NewLogNotifier(log *slog.Logger) *LogNotifier {
	return &LogNotifier{log: log}
}

func (n *LogNotifier) SendEmailToken(ctx context.Context, in EmailTokenInput) error {
	n.log.InfoContext(ctx, "email token issued",
		"kind", string(in.Kind),
		"email", in.Email,
		"username", in.Username,
		"token", in.Token,
	)
	return nil
}

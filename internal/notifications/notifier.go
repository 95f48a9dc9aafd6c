package notifications

import "context"

type EmailTokenKind string

const (
	KindVerification  EmailTokenKind = "verification"
	KindPasswordReset EmailTokenKind = "password_reset"
)

type EmailTokenInput struct {
	Kind     EmailTokenKind
	Email    string
	Username string
	Token    string
}

// Notifier delivers single-use email tokens to users. Delivery is
// best-effort: callers log failures but never fail the request on them.
type Notifier interface {
	SendEmailToken(ctx context.Context, input EmailTokenInput) error
}

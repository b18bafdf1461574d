package identity

import (
	"context"

	"github.com/meridianlegal/identity/internal/flows"
)

// ChangePassword rotates the password for an authenticated account. The
// current password must verify, the new one must pass policy and differ
// from the current one, and every session is revoked on success.
func (e *Engine) ChangePassword(ctx context.Context, accountID, current, next string) error {
	return flows.RunChangePassword(ctx, accountID, current, next, e.deps.Password)
}

// RequestPasswordReset issues a reset ticket and mails its token. Unknown
// emails return nil so the caller cannot probe for registered addresses.
func (e *Engine) RequestPasswordReset(ctx context.Context, email string) error {
	err := flows.RunRequestPasswordReset(ctx, email, e.deps.Password)
	if err == nil {
		e.metrics.RecordPasswordReset("requested")
	}
	return err
}

// ResetPassword consumes a reset ticket, sets the new password, and revokes
// every session. Unknown and expired tickets fail with [ErrTicketInvalid].
func (e *Engine) ResetPassword(ctx context.Context, ticket, next string) error {
	err := flows.RunResetPassword(ctx, ticket, next, e.deps.Password)
	if err == nil {
		e.metrics.RecordPasswordReset("completed")
	}
	return err
}

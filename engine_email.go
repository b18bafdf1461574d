package identity

import (
	"context"

	"github.com/meridianlegal/identity/internal/flows"
)

// InitiateEmailChange re-authenticates the caller with their password and
// mails a verification token to the proposed address. The current email
// stays authoritative until [Engine.VerifyEmailChange] succeeds.
func (e *Engine) InitiateEmailChange(ctx context.Context, accountID, newEmail, currentPassword string) error {
	return flows.RunInitiateEmailChange(ctx, accountID, newEmail, currentPassword, e.deps.EmailChange)
}

// VerifyEmailChange applies a pending email change. The address is marked
// verified and the ticket cleared in one store update; a concurrent
// registration of the same address surfaces as [ErrEmailTaken].
func (e *Engine) VerifyEmailChange(ctx context.Context, accountID, ticket string) error {
	return flows.RunVerifyEmailChange(ctx, accountID, ticket, e.deps.EmailChange)
}

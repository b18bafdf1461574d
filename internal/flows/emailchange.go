package flows

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// EmailChangeErrors holds the sentinels the email-change flows classify into.
type EmailChangeErrors struct {
	Validation         error
	InvalidCredentials error
	EmailTaken         error
	TicketInvalid      error
	NotFound           error
}

// EmailChangeDeps wires the two-step email change.
type EmailChangeDeps struct {
	NormalizeEmail       func(string) string
	AccountByID          func(context.Context, string) (Account, error)
	AccountByEmail       func(context.Context, string) (Account, error)
	IsNotFound           func(error) bool
	VerifyPassword       func(password, hash string) error
	IsMismatch           func(error) bool
	NewTicket            func() (token string, hash [32]byte, err error)
	HashTicket           func(string) [32]byte
	HashesEqual          func(a, b [32]byte) bool
	ChangeTTL            time.Duration
	Now                  func() time.Time
	SetEmailChangeTicket func(ctx context.Context, accountID, pendingEmail string, hash [32]byte, expires time.Time) error
	// EmailChangeTicketFor reports the pending ticket, if any.
	EmailChangeTicketFor func(ctx context.Context, accountID string) (pendingEmail string, hash [32]byte, expires time.Time, ok bool, err error)
	// ApplyEmailChange atomically sets the new address, marks it verified
	// and clears the ticket.
	ApplyEmailChange func(ctx context.Context, accountID, newEmail string) error
	SendVerification func(ctx context.Context, newEmail, token string) error
	Info             func(msg string, args ...any)

	Errors EmailChangeErrors
}

// RunInitiateEmailChange re-authenticates the caller, reserves nothing, and
// mails a verification token to the proposed address. The uniqueness check
// here is advisory; the apply step re-checks under the store's constraint.
func RunInitiateEmailChange(ctx context.Context, accountID, newEmail, currentPassword string, deps EmailChangeDeps) error {
	newEmail = deps.NormalizeEmail(newEmail)
	if newEmail == "" || !strings.Contains(newEmail, "@") {
		return fmt.Errorf("%w: malformed email address", deps.Errors.Validation)
	}

	acct, err := deps.AccountByID(ctx, accountID)
	if err != nil {
		if deps.IsNotFound(err) {
			return fmt.Errorf("%w: account %s", deps.Errors.NotFound, accountID)
		}
		return fmt.Errorf("load account: %w", err)
	}

	if err := deps.VerifyPassword(currentPassword, acct.PasswordHash); err != nil {
		if deps.IsMismatch(err) {
			return fmt.Errorf("%w: current password", deps.Errors.InvalidCredentials)
		}
		return fmt.Errorf("verify password: %w", err)
	}

	existing, err := deps.AccountByEmail(ctx, newEmail)
	switch {
	case err == nil:
		if existing.ID != accountID {
			return fmt.Errorf("%w: %s", deps.Errors.EmailTaken, newEmail)
		}
	case !deps.IsNotFound(err):
		return fmt.Errorf("check email: %w", err)
	}

	token, hash, err := deps.NewTicket()
	if err != nil {
		return fmt.Errorf("mint change ticket: %w", err)
	}
	expires := deps.Now().Add(deps.ChangeTTL)
	if err := deps.SetEmailChangeTicket(ctx, accountID, newEmail, hash, expires); err != nil {
		return fmt.Errorf("store change ticket: %w", err)
	}
	if err := deps.SendVerification(ctx, newEmail, token); err != nil {
		return fmt.Errorf("send verification mail: %w", err)
	}
	deps.Info("email change initiated", "account_id", accountID)
	return nil
}

// RunVerifyEmailChange finishes the change started by RunInitiateEmailChange.
func RunVerifyEmailChange(ctx context.Context, accountID, token string, deps EmailChangeDeps) error {
	pending, hash, expires, ok, err := deps.EmailChangeTicketFor(ctx, accountID)
	if err != nil {
		return fmt.Errorf("load change ticket: %w", err)
	}
	if !ok {
		return fmt.Errorf("%w: no pending change", deps.Errors.TicketInvalid)
	}
	if !deps.HashesEqual(hash, deps.HashTicket(token)) {
		return fmt.Errorf("%w: token mismatch", deps.Errors.TicketInvalid)
	}
	if deps.Now().After(expires) {
		return fmt.Errorf("%w: ticket expired", deps.Errors.TicketInvalid)
	}

	if err := deps.ApplyEmailChange(ctx, accountID, pending); err != nil {
		return err
	}
	deps.Info("email change applied", "account_id", accountID)
	return nil
}

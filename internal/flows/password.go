package flows

import (
	"context"
	"fmt"
	"time"
)

// PasswordErrors holds the sentinels the password flows classify into.
type PasswordErrors struct {
	InvalidCredentials error
	SamePassword       error
	Validation         error
	TicketInvalid      error
	NotFound           error
}

// PasswordDeps wires the change / forgot / reset password flows.
type PasswordDeps struct {
	NormalizeEmail     func(string) string
	AccountByID        func(context.Context, string) (Account, error)
	AccountByEmail     func(context.Context, string) (Account, error)
	AccountByResetHash func(ctx context.Context, hash [32]byte) (acct Account, expires time.Time, err error)
	IsNotFound         func(error) bool
	VerifyPassword     func(password, hash string) error
	IsMismatch         func(error) bool
	ValidatePassword   func(string) error
	HashPassword       func(string) (string, error)
	UpdatePasswordHash func(ctx context.Context, accountID, hash string) error
	SetResetTicket     func(ctx context.Context, accountID string, hash [32]byte, expires time.Time) error
	ClearResetTicket   func(ctx context.Context, accountID string) error
	NewTicket          func() (token string, hash [32]byte, err error)
	HashTicket         func(string) [32]byte
	ResetTTL           time.Duration
	Now                func() time.Time
	RevokeAll          func(ctx context.Context, accountID string) (int, error)
	SendResetMail      func(ctx context.Context, email, token string) error
	Info               func(msg string, args ...any)

	Errors PasswordErrors
}

// RunChangePassword rotates a known password. The new password must verify
// differently from the old one, and every session dies afterwards.
func RunChangePassword(ctx context.Context, accountID, current, next string, deps PasswordDeps) error {
	acct, err := deps.AccountByID(ctx, accountID)
	if err != nil {
		if deps.IsNotFound(err) {
			return fmt.Errorf("%w: account %s", deps.Errors.NotFound, accountID)
		}
		return fmt.Errorf("load account: %w", err)
	}

	if err := deps.VerifyPassword(current, acct.PasswordHash); err != nil {
		if deps.IsMismatch(err) {
			return fmt.Errorf("%w: current password", deps.Errors.InvalidCredentials)
		}
		return fmt.Errorf("verify password: %w", err)
	}
	if deps.VerifyPassword(next, acct.PasswordHash) == nil {
		return deps.Errors.SamePassword
	}
	if err := deps.ValidatePassword(next); err != nil {
		return fmt.Errorf("%w: %v", deps.Errors.Validation, err)
	}

	hash, err := deps.HashPassword(next)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if err := deps.UpdatePasswordHash(ctx, accountID, hash); err != nil {
		return fmt.Errorf("update password: %w", err)
	}

	n, err := deps.RevokeAll(ctx, accountID)
	if err != nil {
		return fmt.Errorf("revoke sessions: %w", err)
	}
	deps.Info("password changed", "account_id", accountID, "sessions_revoked", n)
	return nil
}

// RunRequestPasswordReset mints a reset ticket and mails its raw token.
// Unknown emails succeed silently so the endpoint does not leak which
// addresses have accounts.
func RunRequestPasswordReset(ctx context.Context, email string, deps PasswordDeps) error {
	email = deps.NormalizeEmail(email)

	acct, err := deps.AccountByEmail(ctx, email)
	if err != nil {
		if deps.IsNotFound(err) {
			deps.Info("password reset requested for unknown email")
			return nil
		}
		return fmt.Errorf("lookup account: %w", err)
	}

	token, hash, err := deps.NewTicket()
	if err != nil {
		return fmt.Errorf("mint reset ticket: %w", err)
	}
	expires := deps.Now().Add(deps.ResetTTL)
	if err := deps.SetResetTicket(ctx, acct.ID, hash, expires); err != nil {
		return fmt.Errorf("store reset ticket: %w", err)
	}
	if err := deps.SendResetMail(ctx, acct.Email, token); err != nil {
		return fmt.Errorf("send reset mail: %w", err)
	}
	deps.Info("password reset ticket issued", "account_id", acct.ID)
	return nil
}

// RunResetPassword consumes a reset ticket and sets a new password. The
// ticket is cleared before the hash is written so a half-failed reset can
// never be replayed. All sessions die afterwards.
func RunResetPassword(ctx context.Context, token, next string, deps PasswordDeps) error {
	acct, expires, err := deps.AccountByResetHash(ctx, deps.HashTicket(token))
	if err != nil {
		if deps.IsNotFound(err) {
			return fmt.Errorf("%w: no matching ticket", deps.Errors.TicketInvalid)
		}
		return fmt.Errorf("lookup ticket: %w", err)
	}
	if deps.Now().After(expires) {
		return fmt.Errorf("%w: ticket expired", deps.Errors.TicketInvalid)
	}
	if err := deps.ValidatePassword(next); err != nil {
		return fmt.Errorf("%w: %v", deps.Errors.Validation, err)
	}

	hash, err := deps.HashPassword(next)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if err := deps.ClearResetTicket(ctx, acct.ID); err != nil {
		return fmt.Errorf("consume ticket: %w", err)
	}
	if err := deps.UpdatePasswordHash(ctx, acct.ID, hash); err != nil {
		return fmt.Errorf("update password: %w", err)
	}

	n, err := deps.RevokeAll(ctx, acct.ID)
	if err != nil {
		return fmt.Errorf("revoke sessions: %w", err)
	}
	deps.Info("password reset", "account_id", acct.ID, "sessions_revoked", n)
	return nil
}

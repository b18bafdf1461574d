package flows

import (
	"context"
	"fmt"
)

// LoginErrors holds the sentinels the login flow classifies into.
type LoginErrors struct {
	RateLimited        error
	InvalidCredentials error
	AccountInactive    error
}

// LoginDeps wires the login flow.
type LoginDeps struct {
	NormalizeEmail func(string) string
	Allow          func(key string) bool
	AccountByEmail func(context.Context, string) (Account, error)
	IsNotFound     func(error) bool
	VerifyPassword func(password, hash string) error
	IsMismatch     func(error) bool
	// EqualizeTiming burns a hash comparison so unknown emails take as
	// long as wrong passwords.
	EqualizeTiming func(password string)
	StartSession   func(ctx context.Context, accountID string) (Pair, error)
	Warn           func(msg string, args ...any)

	Errors LoginErrors
}

// RunLogin authenticates a credential pair and opens a new session.
// Unknown emails and wrong passwords are indistinguishable to the caller.
func RunLogin(ctx context.Context, email, password string, deps LoginDeps) (Account, Pair, error) {
	email = deps.NormalizeEmail(email)
	if !deps.Allow(email) {
		deps.Warn("login throttled", "email", email)
		return Account{}, Pair{}, fmt.Errorf("%w: too many attempts", deps.Errors.RateLimited)
	}

	acct, err := deps.AccountByEmail(ctx, email)
	if err != nil {
		if deps.IsNotFound(err) {
			deps.EqualizeTiming(password)
			return Account{}, Pair{}, deps.Errors.InvalidCredentials
		}
		return Account{}, Pair{}, fmt.Errorf("lookup account: %w", err)
	}

	if err := deps.VerifyPassword(password, acct.PasswordHash); err != nil {
		if deps.IsMismatch(err) {
			return Account{}, Pair{}, deps.Errors.InvalidCredentials
		}
		return Account{}, Pair{}, fmt.Errorf("verify password: %w", err)
	}

	if !acct.Active {
		return Account{}, Pair{}, fmt.Errorf("%w: account deactivated", deps.Errors.AccountInactive)
	}

	pair, err := deps.StartSession(ctx, acct.ID)
	if err != nil {
		return Account{}, Pair{}, fmt.Errorf("start session: %w", err)
	}
	return acct, pair, nil
}

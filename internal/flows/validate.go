package flows

import (
	"context"
	"fmt"
)

// ValidateErrors holds the sentinels the authenticate flow classifies into.
type ValidateErrors struct {
	Unauthenticated error
}

// ValidateDeps wires bearer-token authentication.
type ValidateDeps struct {
	ParseAccess func(token string) (accountID, sessionID string, err error)
	IsActive    func(ctx context.Context, accountID, sessionID string) (bool, error)
	AccountByID func(context.Context, string) (Account, error)
	IsNotFound  func(error) bool

	Errors ValidateErrors
}

// RunAuthenticate verifies an access token against both its signature and
// the live session registry. Every rejection collapses to the same
// unauthenticated sentinel so callers cannot probe which check failed.
func RunAuthenticate(ctx context.Context, token string, deps ValidateDeps) (Claim, error) {
	accountID, sessionID, err := deps.ParseAccess(token)
	if err != nil {
		return Claim{}, fmt.Errorf("%w: %v", deps.Errors.Unauthenticated, err)
	}

	active, err := deps.IsActive(ctx, accountID, sessionID)
	if err != nil {
		return Claim{}, fmt.Errorf("check session: %w", err)
	}
	if !active {
		return Claim{}, fmt.Errorf("%w: session revoked", deps.Errors.Unauthenticated)
	}

	acct, err := deps.AccountByID(ctx, accountID)
	if err != nil {
		if deps.IsNotFound(err) {
			return Claim{}, fmt.Errorf("%w: account gone", deps.Errors.Unauthenticated)
		}
		return Claim{}, fmt.Errorf("load account: %w", err)
	}
	if !acct.Active {
		return Claim{}, fmt.Errorf("%w: account deactivated", deps.Errors.Unauthenticated)
	}

	return Claim{AccountID: acct.ID, SessionID: sessionID, Role: acct.Role}, nil
}

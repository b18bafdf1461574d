package flows

import (
	"context"
	"fmt"
)

// RefreshErrors holds the sentinels the refresh flow classifies into.
type RefreshErrors struct {
	Unauthenticated error
	AccountInactive error
}

// RefreshDeps wires access-token reissue.
type RefreshDeps struct {
	ParseRefresh      func(token string) (accountID, sessionID string, err error)
	RefreshHash       func(ctx context.Context, accountID, sessionID string) ([32]byte, error)
	IsSessionNotFound func(error) bool
	HashToken         func(string) [32]byte
	HashesEqual       func(a, b [32]byte) bool
	AccountByID       func(context.Context, string) (Account, error)
	IsNotFound        func(error) bool
	IssueAccess       func(accountID, sessionID string) (string, error)

	Errors RefreshErrors
}

// RunReissueAccess exchanges a refresh token for a fresh access token bound
// to the same session. The presented token must match the hash stored when
// the session was registered; the refresh token itself is not rotated.
func RunReissueAccess(ctx context.Context, token string, deps RefreshDeps) (string, error) {
	accountID, sessionID, err := deps.ParseRefresh(token)
	if err != nil {
		return "", fmt.Errorf("%w: %v", deps.Errors.Unauthenticated, err)
	}

	stored, err := deps.RefreshHash(ctx, accountID, sessionID)
	if err != nil {
		if deps.IsSessionNotFound(err) {
			return "", fmt.Errorf("%w: session revoked", deps.Errors.Unauthenticated)
		}
		return "", fmt.Errorf("load refresh hash: %w", err)
	}
	if !deps.HashesEqual(stored, deps.HashToken(token)) {
		return "", fmt.Errorf("%w: token mismatch", deps.Errors.Unauthenticated)
	}

	acct, err := deps.AccountByID(ctx, accountID)
	if err != nil {
		if deps.IsNotFound(err) {
			return "", fmt.Errorf("%w: account gone", deps.Errors.Unauthenticated)
		}
		return "", fmt.Errorf("load account: %w", err)
	}
	if !acct.Active {
		return "", fmt.Errorf("%w: account deactivated", deps.Errors.AccountInactive)
	}

	access, err := deps.IssueAccess(accountID, sessionID)
	if err != nil {
		return "", fmt.Errorf("issue access token: %w", err)
	}
	return access, nil
}

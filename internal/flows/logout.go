package flows

import (
	"context"
	"fmt"
)

// LogoutDeps wires session revocation.
type LogoutDeps struct {
	Revoke    func(ctx context.Context, accountID, sessionID string) error
	RevokeAll func(ctx context.Context, accountID string) (int, error)
	Info      func(msg string, args ...any)
}

// RunLogout revokes a single session. Revoking an already-dead session is
// a no-op, not an error.
func RunLogout(ctx context.Context, accountID, sessionID string, deps LogoutDeps) error {
	if err := deps.Revoke(ctx, accountID, sessionID); err != nil {
		return fmt.Errorf("revoke session: %w", err)
	}
	deps.Info("session revoked", "account_id", accountID, "session_id", sessionID)
	return nil
}

// RunLogoutAll revokes every live session for the account and reports how
// many were still alive.
func RunLogoutAll(ctx context.Context, accountID string, deps LogoutDeps) (int, error) {
	n, err := deps.RevokeAll(ctx, accountID)
	if err != nil {
		return 0, fmt.Errorf("revoke all sessions: %w", err)
	}
	deps.Info("all sessions revoked", "account_id", accountID, "sessions", n)
	return n, nil
}

package identity

import (
	"context"
	"fmt"

	"github.com/meridianlegal/identity/internal/flows"
	"github.com/meridianlegal/identity/permission"
)

// Login verifies a credential pair and opens a new session. Every
// credential failure surfaces as [ErrInvalidCredentials]; repeated attempts
// per email are throttled with [ErrRateLimited].
func (e *Engine) Login(ctx context.Context, email, password string) (Account, TokenPair, error) {
	acct, pair, err := flows.RunLogin(ctx, email, password, e.deps.Login)
	e.metrics.RecordLogin(err == nil)
	if err != nil {
		return Account{}, TokenPair{}, err
	}
	return fromFlowAccount(acct), TokenPair{AccessToken: pair.Access, RefreshToken: pair.Refresh}, nil
}

// ReissueAccess exchanges a live refresh token for a new access token bound
// to the same session.
func (e *Engine) ReissueAccess(ctx context.Context, refreshToken string) (string, error) {
	access, err := flows.RunReissueAccess(ctx, refreshToken, e.deps.Refresh)
	e.metrics.RecordRefresh(err == nil)
	return access, err
}

// Authenticate resolves a bearer access token to a [Claim]. Expired,
// malformed, and revoked tokens all fail with [ErrUnauthenticated].
func (e *Engine) Authenticate(ctx context.Context, accessToken string) (Claim, error) {
	c, err := flows.RunAuthenticate(ctx, accessToken, e.deps.Validate)
	if err != nil {
		return Claim{}, err
	}
	role, err := permission.ParseRole(c.Role)
	if err != nil {
		return Claim{}, fmt.Errorf("%w: unknown role", ErrUnauthenticated)
	}
	return Claim{AccountID: c.AccountID, SessionID: c.SessionID, Role: role}, nil
}

// Authorize checks that the claim holds one of the given roles.
func (e *Engine) Authorize(claim Claim, roles ...permission.Role) error {
	for _, r := range roles {
		if claim.Role == r {
			return nil
		}
	}
	return fmt.Errorf("%w: role %s", ErrForbidden, claim.Role)
}

// RequirePermission checks that the claim's role grants p.
func (e *Engine) RequirePermission(claim Claim, p permission.Permission) error {
	if !permission.Allowed(claim.Role, p) {
		return fmt.Errorf("%w: %s", ErrForbidden, p)
	}
	return nil
}

// Logout revokes the claim's session. Revoking an already-dead session
// succeeds.
func (e *Engine) Logout(ctx context.Context, claim Claim) error {
	return flows.RunLogout(ctx, claim.AccountID, claim.SessionID, e.deps.Logout)
}

// LogoutAll revokes every live session for the claim's account and reports
// how many were revoked.
func (e *Engine) LogoutAll(ctx context.Context, claim Claim) (int, error) {
	return flows.RunLogoutAll(ctx, claim.AccountID, e.deps.Logout)
}

// ActiveSessions lists the live session IDs for an account.
func (e *Engine) ActiveSessions(ctx context.Context, accountID string) ([]string, error) {
	return e.sessions.ActiveSessionIDs(ctx, accountID)
}

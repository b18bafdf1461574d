// Package flows implements the credential lifecycle state machines without
// depending on the root package. The engine wires each flow's Deps once at
// construction; sentinel errors are injected so failures classify into the
// caller-facing taxonomy.
package flows

import "time"

// Account is the flow-local account projection handed in by the engine.
type Account struct {
	ID            string
	Email         string
	FirstName     string
	LastName      string
	Role          string
	Active        bool
	EmailVerified bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
	PasswordHash  string
}

// Pair is an issued access/refresh token pair.
type Pair struct {
	Access  string
	Refresh string
}

// Claim is the verified identity produced by the authenticate flow.
type Claim struct {
	AccountID string
	SessionID string
	Role      string
}

// Deps groups flow dependency sets. The engine builds this once and
// delegates each operation to the matching flow.
type Deps struct {
	Register    RegisterDeps
	Login       LoginDeps
	Validate    ValidateDeps
	Refresh     RefreshDeps
	Logout      LogoutDeps
	Password    PasswordDeps
	EmailChange EmailChangeDeps
}

// Package identity is the account and session management layer behind the
// Meridian Legal web product: registration, credential verification, JWT
// access/refresh token issuance, explicit session revocation, password and
// email lifecycle flows, and role-based authorization.
//
// The package is designed for concurrent server workloads: [Engine] methods
// are safe to call from multiple goroutines after construction through [New].
// Persistence is pluggable via [AccountStore]; session liveness is tracked in
// Redis so that logout and password changes invalidate tokens that are not
// yet expired by time alone.
package identity

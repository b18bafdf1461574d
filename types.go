package identity

import (
	"context"
	"time"

	"github.com/meridianlegal/identity/permission"
)

// Account is the sanitized account representation returned by Engine
// operations. It never carries the password hash.
type Account struct {
	ID            string          `json:"id"`
	Email         string          `json:"email"`
	FirstName     string          `json:"firstName"`
	LastName      string          `json:"lastName"`
	Role          permission.Role `json:"role"`
	Active        bool            `json:"active"`
	EmailVerified bool            `json:"emailVerified"`
	CreatedAt     time.Time       `json:"createdAt"`
	UpdatedAt     time.Time       `json:"updatedAt"`
}

// ResetTicket is a pending password-reset challenge stored on an account.
// Only the SHA-256 of the issued token is kept; the raw token travels to the
// account holder via the [Mailer] and is never persisted.
type ResetTicket struct {
	SecretHash [32]byte
	ExpiresAt  time.Time
}

// EmailChangeTicket is a pending email change stored on an account. The old
// email remains authoritative until the ticket is verified.
type EmailChangeTicket struct {
	PendingEmail string
	SecretHash   [32]byte
	ExpiresAt    time.Time
}

// AccountRecord is the full account record exchanged with an [AccountStore].
// It carries the password hash and pending tickets and must not leave the
// lifecycle flows.
type AccountRecord struct {
	Account
	PasswordHash string
	Reset        *ResetTicket
	EmailChange  *EmailChangeTicket
}

// NewAccount is the input for [AccountStore.Create]. The email is already
// normalized and the password already hashed by the engine.
type NewAccount struct {
	ID           string
	Email        string
	PasswordHash string
	FirstName    string
	LastName     string
	Role         permission.Role
}

// ProfileUpdate carries the mutable profile fields. Nil pointers leave the
// stored value untouched.
type ProfileUpdate struct {
	FirstName *string
	LastName  *string
}

// AccountStore is the credential store collaborator. Implementations must
// enforce a unique, case-normalized email ([ErrEmailTaken] on violation),
// return [ErrNotFound] for missing rows, and apply each update atomically at
// the single-record level.
type AccountStore interface {
	Create(ctx context.Context, input NewAccount) (AccountRecord, error)
	ByID(ctx context.Context, id string) (AccountRecord, error)
	ByEmail(ctx context.Context, email string) (AccountRecord, error)
	// ByResetHash finds the account whose pending reset ticket carries the
	// given token hash, regardless of ticket expiry.
	ByResetHash(ctx context.Context, hash [32]byte) (AccountRecord, error)
	UpdateProfile(ctx context.Context, id string, upd ProfileUpdate) (AccountRecord, error)
	UpdatePasswordHash(ctx context.Context, id, hash string) error
	// SetResetTicket replaces the pending reset ticket; nil clears it.
	SetResetTicket(ctx context.Context, id string, ticket *ResetTicket) error
	// SetEmailChangeTicket replaces the pending email change; nil clears it.
	SetEmailChangeTicket(ctx context.Context, id string, ticket *EmailChangeTicket) error
	// ApplyEmailChange sets the account email to newEmail, marks it
	// verified, and clears the pending ticket in one atomic update.
	ApplyEmailChange(ctx context.Context, id, newEmail string) error
}

// Mailer dispatches lifecycle emails. It receives the raw one-time token;
// transport mechanics are outside this package.
type Mailer interface {
	SendPasswordReset(ctx context.Context, email, token string) error
	SendEmailChangeVerification(ctx context.Context, newEmail, token string) error
}

// TokenPair is the access/refresh pair issued at login and registration.
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// Claim is the verified identity attached to a request after
// [Engine.Authenticate]. It is derived from the access token and the loaded
// account and is never persisted.
type Claim struct {
	AccountID string
	SessionID string
	Role      permission.Role
}

// RegisterInput is the input for [Engine.Register].
type RegisterInput struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
}

// MetricsRecorder receives operational counters from the engine. The
// metrics package provides a Prometheus-backed implementation.
type MetricsRecorder interface {
	RecordLogin(success bool)
	RecordRegistration(success bool)
	RecordRefresh(success bool)
	RecordRevocation(sessions int)
	RecordPasswordReset(stage string)
}

type nopMetrics struct{}

func (nopMetrics) RecordLogin(bool)           {}
func (nopMetrics) RecordRegistration(bool)    {}
func (nopMetrics) RecordRefresh(bool)         {}
func (nopMetrics) RecordRevocation(int)       {}
func (nopMetrics) RecordPasswordReset(string) {}

// NopMailer discards all lifecycle emails. Useful in tests and for
// deployments that wire delivery elsewhere.
type NopMailer struct{}

func (NopMailer) SendPasswordReset(context.Context, string, string) error { return nil }

func (NopMailer) SendEmailChangeVerification(context.Context, string, string) error { return nil }

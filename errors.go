package identity

import "errors"

var (
	// ErrValidation reports malformed or policy-violating input.
	ErrValidation = errors.New("invalid input")
	// ErrEmailTaken is returned when an email is already registered.
	ErrEmailTaken = errors.New("email already registered")
	// ErrInvalidCredentials is the single generic login failure. It never
	// distinguishes an unknown email from a wrong password.
	ErrInvalidCredentials = errors.New("invalid email or password")
	// ErrAccountInactive is returned when credentials are valid but the
	// account has been deactivated.
	ErrAccountInactive = errors.New("account is deactivated")
	// ErrUnauthenticated covers missing, expired, malformed, and revoked
	// tokens.
	ErrUnauthenticated = errors.New("authentication required")
	// ErrForbidden is returned when an authenticated account lacks the
	// required role or permission.
	ErrForbidden = errors.New("insufficient permissions")
	// ErrTicketInvalid is returned for reset or verification tokens that do
	// not match or have expired.
	ErrTicketInvalid = errors.New("invalid or expired token")
	// ErrSamePassword is returned when a new password verifies against the
	// current hash.
	ErrSamePassword = errors.New("new password must be different from current password")
	// ErrNotFound is returned for account lookups that match nothing.
	ErrNotFound = errors.New("account not found")
	// ErrRateLimited is returned when login attempts for an email exceed the
	// configured throttle.
	ErrRateLimited = errors.New("too many attempts")
)

// Kind classifies an error into the taxonomy surfaced to callers. Storage
// failures that do not map to a known kind classify as KindInternal.
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindConflict
	KindInvalidCredentials
	KindAccountInactive
	KindUnauthenticated
	KindForbidden
	KindTicketInvalid
	KindSamePassword
	KindNotFound
	KindRateLimited
)

// KindOf resolves the taxonomy kind for err. Wrapped errors are unwrapped
// via errors.Is.
func KindOf(err error) Kind {
	switch {
	case errors.Is(err, ErrValidation):
		return KindValidation
	case errors.Is(err, ErrEmailTaken):
		return KindConflict
	case errors.Is(err, ErrInvalidCredentials):
		return KindInvalidCredentials
	case errors.Is(err, ErrAccountInactive):
		return KindAccountInactive
	case errors.Is(err, ErrUnauthenticated):
		return KindUnauthenticated
	case errors.Is(err, ErrForbidden):
		return KindForbidden
	case errors.Is(err, ErrTicketInvalid):
		return KindTicketInvalid
	case errors.Is(err, ErrSamePassword):
		return KindSamePassword
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	case errors.Is(err, ErrRateLimited):
		return KindRateLimited
	default:
		return KindInternal
	}
}

package flows

import (
	"context"
	"fmt"
	"strings"
)

// RegisterInput carries the raw signup fields.
type RegisterInput struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
}

// NewAccountInput is what the flow asks the store to persist.
type NewAccountInput struct {
	ID           string
	Email        string
	PasswordHash string
	FirstName    string
	LastName     string
	Role         string
}

// RegisterErrors holds the sentinels the register flow classifies into.
type RegisterErrors struct {
	Validation error
}

// RegisterDeps wires the register flow.
type RegisterDeps struct {
	DefaultRole      string
	NormalizeEmail   func(string) string
	ValidatePassword func(string) error
	HashPassword     func(string) (string, error)
	NewID            func() string
	CreateAccount    func(context.Context, NewAccountInput) (Account, error)
	StartSession     func(ctx context.Context, accountID string) (Pair, error)
	Info             func(msg string, args ...any)

	Errors RegisterErrors
}

// RunRegister creates an account and opens its first session. Email
// uniqueness is enforced by the store; its conflict error propagates
// unchanged.
func RunRegister(ctx context.Context, in RegisterInput, deps RegisterDeps) (Account, Pair, error) {
	email := deps.NormalizeEmail(in.Email)
	if email == "" || !strings.Contains(email, "@") {
		return Account{}, Pair{}, fmt.Errorf("%w: malformed email address", deps.Errors.Validation)
	}
	if err := deps.ValidatePassword(in.Password); err != nil {
		return Account{}, Pair{}, fmt.Errorf("%w: %v", deps.Errors.Validation, err)
	}

	hash, err := deps.HashPassword(in.Password)
	if err != nil {
		return Account{}, Pair{}, fmt.Errorf("hash password: %w", err)
	}

	acct, err := deps.CreateAccount(ctx, NewAccountInput{
		ID:           deps.NewID(),
		Email:        email,
		PasswordHash: hash,
		FirstName:    strings.TrimSpace(in.FirstName),
		LastName:     strings.TrimSpace(in.LastName),
		Role:         deps.DefaultRole,
	})
	if err != nil {
		return Account{}, Pair{}, err
	}

	pair, err := deps.StartSession(ctx, acct.ID)
	if err != nil {
		return Account{}, Pair{}, fmt.Errorf("start session: %w", err)
	}

	deps.Info("account registered", "account_id", acct.ID)
	return acct, pair, nil
}

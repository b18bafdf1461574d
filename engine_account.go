package identity

import (
	"context"
	"fmt"
	"strings"

	"github.com/meridianlegal/identity/internal/flows"
)

// Register creates an account with the default role and opens its first
// session. Fails with [ErrValidation] for policy violations and
// [ErrEmailTaken] for duplicate addresses.
func (e *Engine) Register(ctx context.Context, in RegisterInput) (Account, TokenPair, error) {
	acct, pair, err := flows.RunRegister(ctx, flows.RegisterInput{
		Email:     in.Email,
		Password:  in.Password,
		FirstName: in.FirstName,
		LastName:  in.LastName,
	}, e.deps.Register)
	e.metrics.RecordRegistration(err == nil)
	if err != nil {
		return Account{}, TokenPair{}, err
	}
	return fromFlowAccount(acct), TokenPair{AccessToken: pair.Access, RefreshToken: pair.Refresh}, nil
}

// Profile returns the sanitized account for id.
func (e *Engine) Profile(ctx context.Context, id string) (Account, error) {
	rec, err := e.store.ByID(ctx, id)
	if err != nil {
		return Account{}, err
	}
	return rec.Account, nil
}

// UpdateProfile applies the non-nil fields of upd. Set fields must be
// non-blank after trimming.
func (e *Engine) UpdateProfile(ctx context.Context, id string, upd ProfileUpdate) (Account, error) {
	for _, f := range []*string{upd.FirstName, upd.LastName} {
		if f == nil {
			continue
		}
		trimmed := strings.TrimSpace(*f)
		if trimmed == "" {
			return Account{}, fmt.Errorf("%w: name fields must not be blank", ErrValidation)
		}
		*f = trimmed
	}
	rec, err := e.store.UpdateProfile(ctx, id, upd)
	if err != nil {
		return Account{}, err
	}
	e.log.Info("profile updated", "account_id", id)
	return rec.Account, nil
}

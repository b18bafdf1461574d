package memory

import (
	"context"
	"crypto/sha256"
	"errors"
	"testing"
	"time"

	"github.com/meridianlegal/identity"
	"github.com/meridianlegal/identity/permission"
)

func create(t *testing.T, s *Store, id, email string) identity.AccountRecord {
	t.Helper()
	rec, err := s.Create(context.Background(), identity.NewAccount{
		ID:           id,
		Email:        email,
		PasswordHash: "hash",
		Role:         permission.RoleUser,
	})
	if err != nil {
		t.Fatalf("create %s: %v", email, err)
	}
	return rec
}

func TestCreateEnforcesUniqueEmail(t *testing.T) {
	s := New()
	create(t, s, "1", "a@x.com")

	_, err := s.Create(context.Background(), identity.NewAccount{ID: "2", Email: "a@x.com"})
	if !errors.Is(err, identity.ErrEmailTaken) {
		t.Fatalf("want ErrEmailTaken, got %v", err)
	}
}

func TestByResetHash(t *testing.T) {
	s := New()
	ctx := context.Background()
	rec := create(t, s, "1", "a@x.com")

	hash := sha256.Sum256([]byte("ticket"))
	err := s.SetResetTicket(ctx, rec.ID, &identity.ResetTicket{
		SecretHash: hash,
		ExpiresAt:  time.Now().Add(time.Hour),
	})
	if err != nil {
		t.Fatalf("set ticket: %v", err)
	}

	found, err := s.ByResetHash(ctx, hash)
	if err != nil || found.ID != rec.ID {
		t.Fatalf("lookup by hash: %v", err)
	}

	if err := s.SetResetTicket(ctx, rec.ID, nil); err != nil {
		t.Fatalf("clear ticket: %v", err)
	}
	if _, err := s.ByResetHash(ctx, hash); !errors.Is(err, identity.ErrNotFound) {
		t.Fatalf("cleared ticket should not match, got %v", err)
	}
}

func TestApplyEmailChange(t *testing.T) {
	s := New()
	ctx := context.Background()
	rec := create(t, s, "1", "a@x.com")
	create(t, s, "2", "taken@x.com")

	if err := s.ApplyEmailChange(ctx, rec.ID, "taken@x.com"); !errors.Is(err, identity.ErrEmailTaken) {
		t.Fatalf("want ErrEmailTaken, got %v", err)
	}

	hash := sha256.Sum256([]byte("ticket"))
	if err := s.SetEmailChangeTicket(ctx, rec.ID, &identity.EmailChangeTicket{
		PendingEmail: "new@x.com",
		SecretHash:   hash,
		ExpiresAt:    time.Now().Add(time.Hour),
	}); err != nil {
		t.Fatalf("set ticket: %v", err)
	}
	if err := s.ApplyEmailChange(ctx, rec.ID, "new@x.com"); err != nil {
		t.Fatalf("apply: %v", err)
	}

	got, err := s.ByID(ctx, rec.ID)
	if err != nil {
		t.Fatalf("by id: %v", err)
	}
	if got.Email != "new@x.com" || !got.EmailVerified || got.EmailChange != nil {
		t.Fatalf("change not applied atomically: %+v", got)
	}
}

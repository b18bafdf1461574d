// Package memory provides a process-local AccountStore. It backs tests and
// single-node development setups; production deployments use store/postgres.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/meridianlegal/identity"
)

// Store is an in-memory identity.AccountStore. Safe for concurrent use.
type Store struct {
	mu      sync.Mutex
	records map[string]*identity.AccountRecord
}

// New returns an empty Store.
func New() *Store {
	return &Store{records: make(map[string]*identity.AccountRecord)}
}

func clone(rec *identity.AccountRecord) identity.AccountRecord {
	out := *rec
	if rec.Reset != nil {
		r := *rec.Reset
		out.Reset = &r
	}
	if rec.EmailChange != nil {
		c := *rec.EmailChange
		out.EmailChange = &c
	}
	return out
}

func (s *Store) Create(_ context.Context, in identity.NewAccount) (identity.AccountRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, rec := range s.records {
		if rec.Email == in.Email {
			return identity.AccountRecord{}, identity.ErrEmailTaken
		}
	}
	now := time.Now()
	rec := &identity.AccountRecord{
		Account: identity.Account{
			ID:        in.ID,
			Email:     in.Email,
			FirstName: in.FirstName,
			LastName:  in.LastName,
			Role:      in.Role,
			Active:    true,
			CreatedAt: now,
			UpdatedAt: now,
		},
		PasswordHash: in.PasswordHash,
	}
	s.records[in.ID] = rec
	return clone(rec), nil
}

func (s *Store) ByID(_ context.Context, id string) (identity.AccountRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[id]
	if !ok {
		return identity.AccountRecord{}, identity.ErrNotFound
	}
	return clone(rec), nil
}

func (s *Store) ByEmail(_ context.Context, email string) (identity.AccountRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, rec := range s.records {
		if rec.Email == email {
			return clone(rec), nil
		}
	}
	return identity.AccountRecord{}, identity.ErrNotFound
}

func (s *Store) ByResetHash(_ context.Context, hash [32]byte) (identity.AccountRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, rec := range s.records {
		if rec.Reset != nil && rec.Reset.SecretHash == hash {
			return clone(rec), nil
		}
	}
	return identity.AccountRecord{}, identity.ErrNotFound
}

func (s *Store) UpdateProfile(_ context.Context, id string, upd identity.ProfileUpdate) (identity.AccountRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[id]
	if !ok {
		return identity.AccountRecord{}, identity.ErrNotFound
	}
	if upd.FirstName != nil {
		rec.FirstName = *upd.FirstName
	}
	if upd.LastName != nil {
		rec.LastName = *upd.LastName
	}
	rec.UpdatedAt = time.Now()
	return clone(rec), nil
}

func (s *Store) UpdatePasswordHash(_ context.Context, id, hash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[id]
	if !ok {
		return identity.ErrNotFound
	}
	rec.PasswordHash = hash
	rec.UpdatedAt = time.Now()
	return nil
}

func (s *Store) SetResetTicket(_ context.Context, id string, ticket *identity.ResetTicket) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[id]
	if !ok {
		return identity.ErrNotFound
	}
	if ticket != nil {
		t := *ticket
		rec.Reset = &t
	} else {
		rec.Reset = nil
	}
	return nil
}

func (s *Store) SetEmailChangeTicket(_ context.Context, id string, ticket *identity.EmailChangeTicket) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[id]
	if !ok {
		return identity.ErrNotFound
	}
	if ticket != nil {
		t := *ticket
		rec.EmailChange = &t
	} else {
		rec.EmailChange = nil
	}
	return nil
}

func (s *Store) ApplyEmailChange(_ context.Context, id, newEmail string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[id]
	if !ok {
		return identity.ErrNotFound
	}
	for otherID, other := range s.records {
		if otherID != id && other.Email == newEmail {
			return identity.ErrEmailTaken
		}
	}
	rec.Email = newEmail
	rec.EmailVerified = true
	rec.EmailChange = nil
	rec.UpdatedAt = time.Now()
	return nil
}

// Package postgres implements identity.AccountStore on PostgreSQL via
// database/sql and lib/pq. The email uniqueness invariant lives in the
// accounts_email_key index; unique violations map to identity.ErrEmailTaken.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/meridianlegal/identity"
	"github.com/meridianlegal/identity/permission"
)

const uniqueViolation = "23505"

// Store is a PostgreSQL-backed identity.AccountStore.
type Store struct {
	db *sql.DB
}

// New wraps an open database handle. The caller owns the handle's
// lifecycle.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// Open connects, verifies the connection, and returns a Store together
// with the underlying handle for lifecycle management.
func Open(ctx context.Context, databaseURL string) (*Store, *sql.DB, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, nil, fmt.Errorf("open postgres: %w", err)
	}
	db.SetMaxOpenConns(20)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("ping postgres: %w", err)
	}
	return New(db), db, nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}

const accountColumns = `id, email, password_hash, first_name, last_name, role,
	active, email_verified,
	reset_token_hash, reset_expires_at,
	pending_email, email_token_hash, email_expires_at,
	created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (identity.AccountRecord, error) {
	var (
		rec       identity.AccountRecord
		role      string
		resetHash []byte
		resetExp  sql.NullTime
		pending   sql.NullString
		emailHash []byte
		emailExp  sql.NullTime
	)
	err := row.Scan(
		&rec.ID, &rec.Email, &rec.PasswordHash, &rec.FirstName, &rec.LastName, &role,
		&rec.Active, &rec.EmailVerified,
		&resetHash, &resetExp,
		&pending, &emailHash, &emailExp,
		&rec.CreatedAt, &rec.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return identity.AccountRecord{}, identity.ErrNotFound
		}
		return identity.AccountRecord{}, fmt.Errorf("scan account: %w", err)
	}

	rec.Role, err = permission.ParseRole(role)
	if err != nil {
		return identity.AccountRecord{}, fmt.Errorf("account %s: %w", rec.ID, err)
	}
	if len(resetHash) == 32 && resetExp.Valid {
		ticket := identity.ResetTicket{ExpiresAt: resetExp.Time}
		copy(ticket.SecretHash[:], resetHash)
		rec.Reset = &ticket
	}
	if pending.Valid && len(emailHash) == 32 && emailExp.Valid {
		ticket := identity.EmailChangeTicket{PendingEmail: pending.String, ExpiresAt: emailExp.Time}
		copy(ticket.SecretHash[:], emailHash)
		rec.EmailChange = &ticket
	}
	return rec, nil
}

func (s *Store) Create(ctx context.Context, in identity.NewAccount) (identity.AccountRecord, error) {
	row := s.db.QueryRowContext(ctx, `
		INSERT INTO accounts (id, email, password_hash, first_name, last_name, role)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING `+accountColumns,
		in.ID, in.Email, in.PasswordHash, in.FirstName, in.LastName, in.Role.String(),
	)
	rec, err := scanRecord(row)
	if err != nil {
		if isUniqueViolation(err) {
			return identity.AccountRecord{}, identity.ErrEmailTaken
		}
		return identity.AccountRecord{}, fmt.Errorf("insert account: %w", err)
	}
	return rec, nil
}

func (s *Store) ByID(ctx context.Context, id string) (identity.AccountRecord, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE id = $1`, id)
	return scanRecord(row)
}

func (s *Store) ByEmail(ctx context.Context, email string) (identity.AccountRecord, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE email = $1`, email)
	return scanRecord(row)
}

func (s *Store) ByResetHash(ctx context.Context, hash [32]byte) (identity.AccountRecord, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE reset_token_hash = $1`, hash[:])
	return scanRecord(row)
}

func (s *Store) UpdateProfile(ctx context.Context, id string, upd identity.ProfileUpdate) (identity.AccountRecord, error) {
	row := s.db.QueryRowContext(ctx, `
		UPDATE accounts
		SET first_name = COALESCE($2, first_name),
		    last_name  = COALESCE($3, last_name),
		    updated_at = NOW()
		WHERE id = $1
		RETURNING `+accountColumns,
		id, upd.FirstName, upd.LastName,
	)
	return scanRecord(row)
}

func (s *Store) UpdatePasswordHash(ctx context.Context, id, hash string) error {
	return s.execOne(ctx, `
		UPDATE accounts SET password_hash = $2, updated_at = NOW()
		WHERE id = $1`, id, hash)
}

func (s *Store) SetResetTicket(ctx context.Context, id string, ticket *identity.ResetTicket) error {
	var (
		hash []byte
		exp  *time.Time
	)
	if ticket != nil {
		hash = ticket.SecretHash[:]
		exp = &ticket.ExpiresAt
	}
	return s.execOne(ctx, `
		UPDATE accounts SET reset_token_hash = $2, reset_expires_at = $3
		WHERE id = $1`, id, hash, exp)
}

func (s *Store) SetEmailChangeTicket(ctx context.Context, id string, ticket *identity.EmailChangeTicket) error {
	var (
		pending *string
		hash    []byte
		exp     *time.Time
	)
	if ticket != nil {
		pending = &ticket.PendingEmail
		hash = ticket.SecretHash[:]
		exp = &ticket.ExpiresAt
	}
	return s.execOne(ctx, `
		UPDATE accounts
		SET pending_email = $2, email_token_hash = $3, email_expires_at = $4
		WHERE id = $1`, id, pending, hash, exp)
}

func (s *Store) ApplyEmailChange(ctx context.Context, id, newEmail string) error {
	err := s.execOne(ctx, `
		UPDATE accounts
		SET email = $2,
		    email_verified = TRUE,
		    pending_email = NULL,
		    email_token_hash = NULL,
		    email_expires_at = NULL,
		    updated_at = NOW()
		WHERE id = $1`, id, newEmail)
	if isUniqueViolation(err) {
		return identity.ErrEmailTaken
	}
	return err
}

// execOne runs a statement that must affect exactly one row; zero rows
// means the account does not exist.
func (s *Store) execOne(ctx context.Context, query string, args ...any) error {
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		if isUniqueViolation(err) {
			return err
		}
		return fmt.Errorf("exec: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return identity.ErrNotFound
	}
	return nil
}

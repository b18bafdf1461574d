package identity

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/meridianlegal/identity/internal"
	"github.com/meridianlegal/identity/internal/flows"
	"github.com/meridianlegal/identity/internal/limiter"
	"github.com/meridianlegal/identity/password"
	"github.com/meridianlegal/identity/permission"
	"github.com/meridianlegal/identity/session"
	"github.com/meridianlegal/identity/token"
)

// Engine is the façade over the credential lifecycle flows. Construct it
// once with [New]; all methods are safe for concurrent use.
type Engine struct {
	cfg      Config
	store    AccountStore
	sessions *session.Store
	tokens   *token.Manager
	hasher   *password.Hasher
	throttle *limiter.Limiter
	mailer   Mailer
	metrics  MetricsRecorder
	log      *slog.Logger

	// dummyHash absorbs a bcrypt comparison for unknown emails so login
	// latency does not reveal whether an address exists.
	dummyHash string

	deps flows.Deps
}

// Option customizes an Engine beyond its Config.
type Option func(*Engine)

// WithMailer wires lifecycle email delivery. Without it, reset and
// verification mails are silently dropped.
func WithMailer(m Mailer) Option {
	return func(e *Engine) { e.mailer = m }
}

// WithLogger replaces the default slog logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.log = l }
}

// WithMetrics wires an operational metrics sink.
func WithMetrics(m MetricsRecorder) Option {
	return func(e *Engine) { e.metrics = m }
}

// New builds an Engine from its collaborators. The Redis client backs the
// session registry; the account store backs everything else.
func New(cfg Config, store AccountStore, redisClient redis.UniversalClient, opts ...Option) (*Engine, error) {
	cfg.normalize()
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	tokens, err := token.NewManager(token.Config{
		AccessSecret:  cfg.Token.AccessSecret,
		RefreshSecret: cfg.Token.RefreshSecret,
		AccessTTL:     cfg.Token.AccessTTL,
		RefreshTTL:    cfg.Token.RefreshTTL,
		Issuer:        cfg.Token.Issuer,
	})
	if err != nil {
		return nil, fmt.Errorf("identity: token manager: %w", err)
	}
	hasher, err := password.NewHasher(cfg.Password.Cost)
	if err != nil {
		return nil, fmt.Errorf("identity: password hasher: %w", err)
	}
	dummyHash, err := hasher.Hash(uuid.NewString())
	if err != nil {
		return nil, fmt.Errorf("identity: dummy hash: %w", err)
	}

	e := &Engine{
		cfg:       cfg,
		store:     store,
		sessions:  session.NewStore(redisClient, cfg.Sessions.Prefix),
		tokens:    tokens,
		hasher:    hasher,
		throttle:  limiter.New(cfg.LoginThrottle.Attempts, cfg.LoginThrottle.Window),
		mailer:    NopMailer{},
		metrics:   nopMetrics{},
		log:       slog.Default(),
		dummyHash: dummyHash,
	}
	for _, opt := range opts {
		opt(e)
	}
	e.deps = e.buildDeps()
	return e, nil
}

func normalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func toFlowAccount(rec AccountRecord) flows.Account {
	return flows.Account{
		ID:            rec.ID,
		Email:         rec.Email,
		FirstName:     rec.FirstName,
		LastName:      rec.LastName,
		Role:          rec.Role.String(),
		Active:        rec.Active,
		EmailVerified: rec.EmailVerified,
		CreatedAt:     rec.CreatedAt,
		UpdatedAt:     rec.UpdatedAt,
		PasswordHash:  rec.PasswordHash,
	}
}

func fromFlowAccount(a flows.Account) Account {
	role, err := permission.ParseRole(a.Role)
	if err != nil {
		role = permission.RoleUser
	}
	return Account{
		ID:            a.ID,
		Email:         a.Email,
		FirstName:     a.FirstName,
		LastName:      a.LastName,
		Role:          role,
		Active:        a.Active,
		EmailVerified: a.EmailVerified,
		CreatedAt:     a.CreatedAt,
		UpdatedAt:     a.UpdatedAt,
	}
}

// startSession mints a session ID, issues the token pair bound to it, and
// registers the refresh hash with the session registry.
func (e *Engine) startSession(ctx context.Context, accountID string) (flows.Pair, error) {
	sid := uuid.NewString()
	pair, err := e.tokens.IssuePair(accountID, sid)
	if err != nil {
		return flows.Pair{}, fmt.Errorf("issue token pair: %w", err)
	}
	err = e.sessions.Register(ctx, accountID, sid, internal.HashTicket(pair.Refresh), e.tokens.RefreshTTL())
	if err != nil {
		return flows.Pair{}, fmt.Errorf("register session: %w", err)
	}
	return flows.Pair{Access: pair.Access, Refresh: pair.Refresh}, nil
}

func (e *Engine) accountByID(ctx context.Context, id string) (flows.Account, error) {
	rec, err := e.store.ByID(ctx, id)
	if err != nil {
		return flows.Account{}, err
	}
	return toFlowAccount(rec), nil
}

func (e *Engine) accountByEmail(ctx context.Context, email string) (flows.Account, error) {
	rec, err := e.store.ByEmail(ctx, email)
	if err != nil {
		return flows.Account{}, err
	}
	return toFlowAccount(rec), nil
}

func (e *Engine) revokeAll(ctx context.Context, accountID string) (int, error) {
	n, err := e.sessions.RevokeAll(ctx, accountID)
	if err != nil {
		return 0, err
	}
	e.metrics.RecordRevocation(n)
	return n, nil
}

func isStoreNotFound(err error) bool { return errors.Is(err, ErrNotFound) }

func isMismatch(err error) bool { return errors.Is(err, password.ErrMismatch) }

func (e *Engine) buildDeps() flows.Deps {
	info := func(msg string, args ...any) { e.log.Info(msg, args...) }
	warn := func(msg string, args ...any) { e.log.Warn(msg, args...) }
	verify := e.hasher.Verify

	return flows.Deps{
		Register: flows.RegisterDeps{
			DefaultRole:      permission.RoleUser.String(),
			NormalizeEmail:   normalizeEmail,
			ValidatePassword: password.ValidatePolicy,
			HashPassword:     e.hasher.Hash,
			NewID:            uuid.NewString,
			CreateAccount: func(ctx context.Context, in flows.NewAccountInput) (flows.Account, error) {
				role, err := permission.ParseRole(in.Role)
				if err != nil {
					return flows.Account{}, fmt.Errorf("parse role: %w", err)
				}
				rec, err := e.store.Create(ctx, NewAccount{
					ID:           in.ID,
					Email:        in.Email,
					PasswordHash: in.PasswordHash,
					FirstName:    in.FirstName,
					LastName:     in.LastName,
					Role:         role,
				})
				if err != nil {
					return flows.Account{}, err
				}
				return toFlowAccount(rec), nil
			},
			StartSession: e.startSession,
			Info:         info,
			Errors:       flows.RegisterErrors{Validation: ErrValidation},
		},
		Login: flows.LoginDeps{
			NormalizeEmail: normalizeEmail,
			Allow:          e.throttle.Allow,
			AccountByEmail: e.accountByEmail,
			IsNotFound:     isStoreNotFound,
			VerifyPassword: verify,
			IsMismatch:     isMismatch,
			EqualizeTiming: func(pw string) { _ = verify(pw, e.dummyHash) },
			StartSession:   e.startSession,
			Warn:           warn,
			Errors: flows.LoginErrors{
				RateLimited:        ErrRateLimited,
				InvalidCredentials: ErrInvalidCredentials,
				AccountInactive:    ErrAccountInactive,
			},
		},
		Validate: flows.ValidateDeps{
			ParseAccess: func(tok string) (string, string, error) {
				c, err := e.tokens.VerifyAccess(tok)
				if err != nil {
					return "", "", err
				}
				return c.AccountID, c.SessionID, nil
			},
			IsActive:    e.sessions.IsActive,
			AccountByID: e.accountByID,
			IsNotFound:  isStoreNotFound,
			Errors:      flows.ValidateErrors{Unauthenticated: ErrUnauthenticated},
		},
		Refresh: flows.RefreshDeps{
			ParseRefresh: func(tok string) (string, string, error) {
				c, err := e.tokens.VerifyRefresh(tok)
				if err != nil {
					return "", "", err
				}
				return c.AccountID, c.SessionID, nil
			},
			RefreshHash:       e.sessions.RefreshHash,
			IsSessionNotFound: func(err error) bool { return errors.Is(err, session.ErrNotFound) },
			HashToken:         internal.HashTicket,
			HashesEqual:       internal.HashesEqual,
			AccountByID:       e.accountByID,
			IsNotFound:        isStoreNotFound,
			IssueAccess:       e.tokens.IssueAccess,
			Errors: flows.RefreshErrors{
				Unauthenticated: ErrUnauthenticated,
				AccountInactive: ErrAccountInactive,
			},
		},
		Logout: flows.LogoutDeps{
			Revoke:    e.sessions.Revoke,
			RevokeAll: e.revokeAll,
			Info:      info,
		},
		Password: flows.PasswordDeps{
			NormalizeEmail: normalizeEmail,
			AccountByID:    e.accountByID,
			AccountByEmail: e.accountByEmail,
			AccountByResetHash: func(ctx context.Context, hash [32]byte) (flows.Account, time.Time, error) {
				rec, err := e.store.ByResetHash(ctx, hash)
				if err != nil {
					return flows.Account{}, time.Time{}, err
				}
				if rec.Reset == nil {
					return flows.Account{}, time.Time{}, ErrNotFound
				}
				return toFlowAccount(rec), rec.Reset.ExpiresAt, nil
			},
			IsNotFound:         isStoreNotFound,
			VerifyPassword:     verify,
			IsMismatch:         isMismatch,
			ValidatePassword:   password.ValidatePolicy,
			HashPassword:       e.hasher.Hash,
			UpdatePasswordHash: e.store.UpdatePasswordHash,
			SetResetTicket: func(ctx context.Context, id string, hash [32]byte, expires time.Time) error {
				return e.store.SetResetTicket(ctx, id, &ResetTicket{SecretHash: hash, ExpiresAt: expires})
			},
			ClearResetTicket: func(ctx context.Context, id string) error {
				return e.store.SetResetTicket(ctx, id, nil)
			},
			NewTicket:     internal.NewTicket,
			HashTicket:    internal.HashTicket,
			ResetTTL:      e.cfg.Reset.TTL,
			Now:           time.Now,
			RevokeAll:     e.revokeAll,
			SendResetMail: func(ctx context.Context, email, tok string) error { return e.mailer.SendPasswordReset(ctx, email, tok) },
			Info:          info,
			Errors: flows.PasswordErrors{
				InvalidCredentials: ErrInvalidCredentials,
				SamePassword:       ErrSamePassword,
				Validation:         ErrValidation,
				TicketInvalid:      ErrTicketInvalid,
				NotFound:           ErrNotFound,
			},
		},
		EmailChange: flows.EmailChangeDeps{
			NormalizeEmail: normalizeEmail,
			AccountByID:    e.accountByID,
			AccountByEmail: e.accountByEmail,
			IsNotFound:     isStoreNotFound,
			VerifyPassword: verify,
			IsMismatch:     isMismatch,
			NewTicket:      internal.NewTicket,
			HashTicket:     internal.HashTicket,
			HashesEqual:    internal.HashesEqual,
			ChangeTTL:      e.cfg.EmailChange.TTL,
			Now:            time.Now,
			SetEmailChangeTicket: func(ctx context.Context, id, pending string, hash [32]byte, expires time.Time) error {
				return e.store.SetEmailChangeTicket(ctx, id, &EmailChangeTicket{
					PendingEmail: pending,
					SecretHash:   hash,
					ExpiresAt:    expires,
				})
			},
			EmailChangeTicketFor: func(ctx context.Context, id string) (string, [32]byte, time.Time, bool, error) {
				rec, err := e.store.ByID(ctx, id)
				if err != nil {
					return "", [32]byte{}, time.Time{}, false, err
				}
				if rec.EmailChange == nil {
					return "", [32]byte{}, time.Time{}, false, nil
				}
				t := rec.EmailChange
				return t.PendingEmail, t.SecretHash, t.ExpiresAt, true, nil
			},
			ApplyEmailChange: e.store.ApplyEmailChange,
			SendVerification: func(ctx context.Context, email, tok string) error {
				return e.mailer.SendEmailChangeVerification(ctx, email, tok)
			},
			Info: info,
			Errors: flows.EmailChangeErrors{
				Validation:         ErrValidation,
				InvalidCredentials: ErrInvalidCredentials,
				EmailTaken:         ErrEmailTaken,
				TicketInvalid:      ErrTicketInvalid,
				NotFound:           ErrNotFound,
			},
		},
	}
}

// Ping reports session registry reachability and round-trip latency.
func (e *Engine) Ping(ctx context.Context) (time.Duration, error) {
	return e.sessions.Ping(ctx)
}

// Package token mints and verifies the signed access and refresh tokens.
// Both token kinds are JWTs signed with HS256 under distinct secrets, so
// compromise of one secret cannot forge the other kind. A shared session id
// claim binds each access token to the session its refresh token belongs to,
// which is what lets the authorization guard check session liveness without
// seeing the refresh token.
package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrExpired is returned for tokens whose expiry has passed.
	ErrExpired = errors.New("token expired")
	// ErrMalformed is returned for tokens that fail parsing or signature
	// verification, or that were signed for the other token kind.
	ErrMalformed = errors.New("token malformed")
)

const minSecretLen = 32

// Config holds signing secrets and expiry policy. Instances are treated as
// immutable after NewManager.
type Config struct {
	AccessSecret  []byte
	RefreshSecret []byte
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
	Issuer        string
	Leeway        time.Duration
}

// Claims is the claim set carried by both token kinds.
type Claims struct {
	AccountID string `json:"uid"`
	SessionID string `json:"sid"`
	jwt.RegisteredClaims
}

// Manager mints and verifies token pairs. Safe for concurrent use.
type Manager struct {
	config Config
}

// NewManager validates the config and returns a Manager. Secrets must be at
// least 32 bytes and must differ from each other.
func NewManager(cfg Config) (*Manager, error) {
	if len(cfg.AccessSecret) < minSecretLen {
		return nil, fmt.Errorf("access secret shorter than %d bytes", minSecretLen)
	}
	if len(cfg.RefreshSecret) < minSecretLen {
		return nil, fmt.Errorf("refresh secret shorter than %d bytes", minSecretLen)
	}
	if string(cfg.AccessSecret) == string(cfg.RefreshSecret) {
		return nil, errors.New("access and refresh secrets must differ")
	}
	if cfg.AccessTTL <= 0 || cfg.RefreshTTL <= 0 {
		return nil, errors.New("invalid TTL configuration")
	}
	if cfg.Leeway < 0 || cfg.Leeway > 2*time.Minute {
		return nil, errors.New("invalid leeway configuration")
	}
	return &Manager{config: cfg}, nil
}

// Pair is an issued access/refresh token pair bound to one session.
type Pair struct {
	Access  string
	Refresh string
}

// IssuePair mints an access and a refresh token for the account, both
// carrying sessionID.
func (m *Manager) IssuePair(accountID, sessionID string) (Pair, error) {
	access, err := m.IssueAccess(accountID, sessionID)
	if err != nil {
		return Pair{}, err
	}

	refresh, err := m.sign(accountID, sessionID, m.config.RefreshSecret, m.config.RefreshTTL)
	if err != nil {
		return Pair{}, err
	}

	return Pair{Access: access, Refresh: refresh}, nil
}

// IssueAccess mints a fresh access token for an existing session.
func (m *Manager) IssueAccess(accountID, sessionID string) (string, error) {
	return m.sign(accountID, sessionID, m.config.AccessSecret, m.config.AccessTTL)
}

// VerifyAccess parses and verifies an access token.
func (m *Manager) VerifyAccess(tokenStr string) (*Claims, error) {
	return m.verify(tokenStr, m.config.AccessSecret)
}

// VerifyRefresh parses and verifies a refresh token. Registry membership is
// a separate check owned by the session store.
func (m *Manager) VerifyRefresh(tokenStr string) (*Claims, error) {
	return m.verify(tokenStr, m.config.RefreshSecret)
}

// RefreshTTL exposes the refresh expiry window so the session registry can
// align key TTLs with token lifetime.
func (m *Manager) RefreshTTL() time.Duration {
	return m.config.RefreshTTL
}

func (m *Manager) sign(accountID, sessionID string, secret []byte, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		AccountID: accountID,
		SessionID: sessionID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    m.config.Issuer,
		},
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

func (m *Manager) verify(tokenStr string, secret []byte) (*Claims, error) {
	options := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
	}
	if m.config.Leeway > 0 {
		options = append(options, jwt.WithLeeway(m.config.Leeway))
	}
	if m.config.Issuer != "" {
		options = append(options, jwt.WithIssuer(m.config.Issuer))
	}

	parser := jwt.NewParser(options...)
	token, err := parser.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		return secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, fmt.Errorf("%w: %v", ErrExpired, err)
		}
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrMalformed
	}
	if claims.AccountID == "" || claims.SessionID == "" {
		return nil, ErrMalformed
	}

	return claims, nil
}

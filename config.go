package identity

import (
	"errors"
	"time"

	"github.com/meridianlegal/identity/password"
)

// Defaults applied by Config.normalize for zero-valued fields.
const (
	DefaultAccessTTL      = 24 * time.Hour
	DefaultRefreshTTL     = 7 * 24 * time.Hour
	DefaultResetTTL       = time.Hour
	DefaultEmailChangeTTL = 24 * time.Hour
	DefaultIssuer         = "identity"

	DefaultLoginAttempts = 5
	DefaultLoginWindow   = 15 * time.Minute
)

// Config configures an Engine. Zero values fall back to the defaults above;
// only the token secrets are mandatory.
type Config struct {
	Token         TokenConfig
	Password      PasswordConfig
	Reset         ResetConfig
	EmailChange   EmailChangeConfig
	Sessions      SessionConfig
	LoginThrottle ThrottleConfig
}

// TokenConfig configures JWT issuance.
type TokenConfig struct {
	// AccessSecret and RefreshSecret sign the two token families. Both are
	// required, must differ, and must be at least 32 bytes.
	AccessSecret  []byte
	RefreshSecret []byte
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
	Issuer        string
}

// PasswordConfig configures hashing.
type PasswordConfig struct {
	// Cost is the bcrypt cost. Zero means password.DefaultCost.
	Cost int
}

// ResetConfig configures password-reset tickets.
type ResetConfig struct {
	TTL time.Duration
}

// EmailChangeConfig configures email-change tickets.
type EmailChangeConfig struct {
	TTL time.Duration
}

// SessionConfig configures the Redis session registry.
type SessionConfig struct {
	// Prefix namespaces all session keys. Empty means the session
	// package default.
	Prefix string
}

// ThrottleConfig configures per-email login throttling.
type ThrottleConfig struct {
	// Attempts per Window before logins are rejected.
	Attempts int
	Window   time.Duration
}

func (c *Config) normalize() {
	if c.Token.AccessTTL <= 0 {
		c.Token.AccessTTL = DefaultAccessTTL
	}
	if c.Token.RefreshTTL <= 0 {
		c.Token.RefreshTTL = DefaultRefreshTTL
	}
	if c.Token.Issuer == "" {
		c.Token.Issuer = DefaultIssuer
	}
	if c.Password.Cost == 0 {
		c.Password.Cost = password.DefaultCost
	}
	if c.Reset.TTL <= 0 {
		c.Reset.TTL = DefaultResetTTL
	}
	if c.EmailChange.TTL <= 0 {
		c.EmailChange.TTL = DefaultEmailChangeTTL
	}
	if c.LoginThrottle.Attempts <= 0 {
		c.LoginThrottle.Attempts = DefaultLoginAttempts
	}
	if c.LoginThrottle.Window <= 0 {
		c.LoginThrottle.Window = DefaultLoginWindow
	}
}

func (c *Config) validate() error {
	if len(c.Token.AccessSecret) == 0 || len(c.Token.RefreshSecret) == 0 {
		return errors.New("identity: both token secrets are required")
	}
	if c.Token.AccessTTL >= c.Token.RefreshTTL {
		return errors.New("identity: access TTL must be shorter than refresh TTL")
	}
	return nil
}

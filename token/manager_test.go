package token

import (
	"bytes"
	"errors"
	"testing"
	"time"
)

func testConfig() Config {
	return Config{
		AccessSecret:  bytes.Repeat([]byte("a"), 32),
		RefreshSecret: bytes.Repeat([]byte("r"), 32),
		AccessTTL:     time.Hour,
		RefreshTTL:    7 * 24 * time.Hour,
		Issuer:        "identity-test",
	}
}

func TestNewManagerRejectsBadConfig(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"short access secret", func(c *Config) { c.AccessSecret = []byte("short") }},
		{"short refresh secret", func(c *Config) { c.RefreshSecret = []byte("short") }},
		{"equal secrets", func(c *Config) { c.RefreshSecret = c.AccessSecret }},
		{"zero access ttl", func(c *Config) { c.AccessTTL = 0 }},
		{"zero refresh ttl", func(c *Config) { c.RefreshTTL = 0 }},
		{"negative leeway", func(c *Config) { c.Leeway = -time.Second }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig()
			tt.mutate(&cfg)
			if _, err := NewManager(cfg); err == nil {
				t.Error("expected config validation error")
			}
		})
	}
}

func TestIssuePairRoundTrip(t *testing.T) {
	m, err := NewManager(testConfig())
	if err != nil {
		t.Fatal(err)
	}

	pair, err := m.IssuePair("acct-1", "sess-1")
	if err != nil {
		t.Fatalf("issue failed: %v", err)
	}

	access, err := m.VerifyAccess(pair.Access)
	if err != nil {
		t.Fatalf("verify access failed: %v", err)
	}
	if access.AccountID != "acct-1" || access.SessionID != "sess-1" {
		t.Errorf("access claims = %q/%q", access.AccountID, access.SessionID)
	}

	refresh, err := m.VerifyRefresh(pair.Refresh)
	if err != nil {
		t.Fatalf("verify refresh failed: %v", err)
	}
	if refresh.AccountID != "acct-1" || refresh.SessionID != "sess-1" {
		t.Errorf("refresh claims = %q/%q", refresh.AccountID, refresh.SessionID)
	}
}

func TestTokenKindsAreNotInterchangeable(t *testing.T) {
	m, err := NewManager(testConfig())
	if err != nil {
		t.Fatal(err)
	}

	pair, err := m.IssuePair("acct-1", "sess-1")
	if err != nil {
		t.Fatal(err)
	}

	if _, err := m.VerifyAccess(pair.Refresh); !errors.Is(err, ErrMalformed) {
		t.Errorf("refresh token accepted as access: %v", err)
	}
	if _, err := m.VerifyRefresh(pair.Access); !errors.Is(err, ErrMalformed) {
		t.Errorf("access token accepted as refresh: %v", err)
	}
}

func TestVerifyExpired(t *testing.T) {
	cfg := testConfig()
	cfg.AccessTTL = time.Nanosecond
	m, err := NewManager(cfg)
	if err != nil {
		t.Fatal(err)
	}

	tok, err := m.IssueAccess("acct-1", "sess-1")
	if err != nil {
		t.Fatal(err)
	}

	time.Sleep(10 * time.Millisecond)
	if _, err := m.VerifyAccess(tok); !errors.Is(err, ErrExpired) {
		t.Errorf("got %v, want ErrExpired", err)
	}
}

func TestVerifyGarbage(t *testing.T) {
	m, err := NewManager(testConfig())
	if err != nil {
		t.Fatal(err)
	}

	for _, tok := range []string{"", "garbage", "a.b.c"} {
		if _, err := m.VerifyAccess(tok); !errors.Is(err, ErrMalformed) {
			t.Errorf("VerifyAccess(%q) = %v, want ErrMalformed", tok, err)
		}
	}
}

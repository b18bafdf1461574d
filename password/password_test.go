package password

import (
	"errors"
	"strings"
	"testing"
)

func TestNewHasherCostBounds(t *testing.T) {
	if _, err := NewHasher(DefaultCost - 1); err == nil {
		t.Error("expected error for cost below minimum")
	}
	if _, err := NewHasher(DefaultCost); err != nil {
		t.Errorf("unexpected error for default cost: %v", err)
	}
}

func TestHashAndVerify(t *testing.T) {
	h, err := NewHasher(DefaultCost)
	if err != nil {
		t.Fatal(err)
	}

	hash, err := h.Hash("Abcdef1!")
	if err != nil {
		t.Fatalf("hash failed: %v", err)
	}
	if hash == "Abcdef1!" {
		t.Fatal("hash equals plaintext")
	}

	if err := h.Verify("Abcdef1!", hash); err != nil {
		t.Errorf("verify of correct password failed: %v", err)
	}
	if err := h.Verify("wrong-pass", hash); !errors.Is(err, ErrMismatch) {
		t.Errorf("got %v, want ErrMismatch", err)
	}
}

func TestHashEmptyPassword(t *testing.T) {
	h, _ := NewHasher(DefaultCost)
	if _, err := h.Hash(""); err == nil {
		t.Error("expected error for empty password")
	}
}

func TestValidatePolicy(t *testing.T) {
	tests := []struct {
		name     string
		password string
		wantErr  bool
	}{
		{"valid", "Abcdef1!", false},
		{"too short", "Ab1!", true},
		{"too long", strings.Repeat("Aa1!", 20), true},
		{"no upper", "abcdef1!", true},
		{"no lower", "ABCDEF1!", true},
		{"no digit", "Abcdefg!", true},
		{"no special", "Abcdefg1", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePolicy(tt.password)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidatePolicy(%q) = %v, wantErr %v", tt.password, err, tt.wantErr)
			}
		})
	}
}

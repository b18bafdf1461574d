package limiter

import (
	"testing"
	"time"
)

func TestAllowUpToBurst(t *testing.T) {
	l := New(3, time.Hour)

	for i := 0; i < 3; i++ {
		if !l.Allow("a@x.com") {
			t.Fatalf("attempt %d denied within burst", i+1)
		}
	}
	if l.Allow("a@x.com") {
		t.Error("attempt beyond burst allowed")
	}
}

func TestKeysAreIndependent(t *testing.T) {
	l := New(1, time.Hour)

	if !l.Allow("a@x.com") {
		t.Fatal("first attempt denied")
	}
	if l.Allow("a@x.com") {
		t.Error("second attempt for same key allowed")
	}
	if !l.Allow("b@x.com") {
		t.Error("attempt for different key denied")
	}
}

func TestIdleEntriesPruned(t *testing.T) {
	l := New(1, 10 * time.Millisecond)

	l.Allow("a@x.com")
	if l.Len() != 1 {
		t.Fatalf("tracked %d keys, want 1", l.Len())
	}

	time.Sleep(30 * time.Millisecond)
	l.Allow("b@x.com")
	if l.Len() != 1 {
		t.Errorf("tracked %d keys after prune, want 1", l.Len())
	}
}

func TestDegenerateConfig(t *testing.T) {
	l := New(0, 0)
	if !l.Allow("a") {
		t.Error("first attempt denied under clamped config")
	}
}

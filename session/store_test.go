package session

import (
	"context"
	"crypto/sha256"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestStore(t *testing.T) (*Store, *miniredis.Miniredis) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis run failed: %v", err)
	}
	t.Cleanup(mr.Close)

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	return NewStore(rdb, "ids"), mr
}

func hashOf(token string) [32]byte {
	return sha256.Sum256([]byte(token))
}

func TestRegisterAndIsActive(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	if err := store.Register(ctx, "acct-1", "sess-1", hashOf("rt-1"), time.Hour); err != nil {
		t.Fatalf("register failed: %v", err)
	}

	active, err := store.IsActive(ctx, "acct-1", "sess-1")
	if err != nil {
		t.Fatal(err)
	}
	if !active {
		t.Error("registered session reported inactive")
	}

	active, err = store.IsActive(ctx, "acct-1", "sess-unknown")
	if err != nil {
		t.Fatal(err)
	}
	if active {
		t.Error("unknown session reported active")
	}

	active, err = store.IsActive(ctx, "acct-2", "sess-1")
	if err != nil {
		t.Fatal(err)
	}
	if active {
		t.Error("session reported active for wrong account")
	}
}

func TestRegisterRejectsNonPositiveTTL(t *testing.T) {
	store, _ := newTestStore(t)
	if err := store.Register(context.Background(), "acct-1", "sess-1", hashOf("rt"), 0); err == nil {
		t.Error("expected error for zero ttl")
	}
}

func TestRevokeIsIdempotent(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	if err := store.Register(ctx, "acct-1", "sess-1", hashOf("rt-1"), time.Hour); err != nil {
		t.Fatal(err)
	}

	if err := store.Revoke(ctx, "acct-1", "sess-1"); err != nil {
		t.Fatalf("revoke failed: %v", err)
	}
	if err := store.Revoke(ctx, "acct-1", "sess-1"); err != nil {
		t.Fatalf("second revoke failed: %v", err)
	}

	active, err := store.IsActive(ctx, "acct-1", "sess-1")
	if err != nil {
		t.Fatal(err)
	}
	if active {
		t.Error("revoked session reported active")
	}
}

func TestRevokeLeavesOtherSessions(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	for _, sid := range []string{"sess-1", "sess-2"} {
		if err := store.Register(ctx, "acct-1", sid, hashOf(sid), time.Hour); err != nil {
			t.Fatal(err)
		}
	}

	if err := store.Revoke(ctx, "acct-1", "sess-1"); err != nil {
		t.Fatal(err)
	}

	active, err := store.IsActive(ctx, "acct-1", "sess-2")
	if err != nil {
		t.Fatal(err)
	}
	if !active {
		t.Error("unrelated session was revoked")
	}
}

func TestRevokeAll(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	for _, sid := range []string{"sess-1", "sess-2", "sess-3"} {
		if err := store.Register(ctx, "acct-1", sid, hashOf(sid), time.Hour); err != nil {
			t.Fatal(err)
		}
	}
	if err := store.Register(ctx, "acct-2", "other", hashOf("other"), time.Hour); err != nil {
		t.Fatal(err)
	}

	n, err := store.RevokeAll(ctx, "acct-1")
	if err != nil {
		t.Fatalf("revoke all failed: %v", err)
	}
	if n != 3 {
		t.Errorf("revoked %d sessions, want 3", n)
	}

	for _, sid := range []string{"sess-1", "sess-2", "sess-3"} {
		active, err := store.IsActive(ctx, "acct-1", sid)
		if err != nil {
			t.Fatal(err)
		}
		if active {
			t.Errorf("session %s survived revoke all", sid)
		}
	}

	active, err := store.IsActive(ctx, "acct-2", "other")
	if err != nil {
		t.Fatal(err)
	}
	if !active {
		t.Error("other account's session was revoked")
	}
}

func TestRevokeAllEmpty(t *testing.T) {
	store, _ := newTestStore(t)
	n, err := store.RevokeAll(context.Background(), "acct-none")
	if err != nil {
		t.Fatal(err)
	}
	if n != 0 {
		t.Errorf("revoked %d sessions for empty account", n)
	}
}

func TestExpiredSessionPrunedOnRead(t *testing.T) {
	store, mr := newTestStore(t)
	ctx := context.Background()

	if err := store.Register(ctx, "acct-1", "sess-1", hashOf("rt-1"), time.Minute); err != nil {
		t.Fatal(err)
	}

	mr.FastForward(2 * time.Minute)

	active, err := store.IsActive(ctx, "acct-1", "sess-1")
	if err != nil {
		t.Fatal(err)
	}
	if active {
		t.Error("expired session reported active")
	}

	// The index entry must be gone after the pruning read.
	if mr.Exists("ids:a:acct-1") {
		member, err := mr.SIsMember("ids:a:acct-1", "sess-1")
		if err != nil {
			t.Fatal(err)
		}
		if member {
			t.Error("stale index entry not pruned")
		}
	}
}

func TestRefreshHash(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	want := hashOf("rt-1")
	if err := store.Register(ctx, "acct-1", "sess-1", want, time.Hour); err != nil {
		t.Fatal(err)
	}

	got, err := store.RefreshHash(ctx, "acct-1", "sess-1")
	if err != nil {
		t.Fatalf("refresh hash failed: %v", err)
	}
	if got != want {
		t.Error("stored hash does not match registered hash")
	}

	if _, err := store.RefreshHash(ctx, "acct-1", "sess-gone"); !errors.Is(err, ErrNotFound) {
		t.Errorf("got %v, want ErrNotFound", err)
	}
}

func TestActiveSessionIDsPrunes(t *testing.T) {
	store, mr := newTestStore(t)
	ctx := context.Background()

	if err := store.Register(ctx, "acct-1", "short", hashOf("short"), time.Minute); err != nil {
		t.Fatal(err)
	}
	if err := store.Register(ctx, "acct-1", "long", hashOf("long"), time.Hour); err != nil {
		t.Fatal(err)
	}

	mr.FastForward(2 * time.Minute)

	ids, err := store.ActiveSessionIDs(ctx, "acct-1")
	if err != nil {
		t.Fatal(err)
	}
	if len(ids) != 1 || ids[0] != "long" {
		t.Errorf("got %v, want [long]", ids)
	}
}

func TestConcurrentRegisterNoLostUpdates(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	const sessions = 16
	var wg sync.WaitGroup
	errs := make(chan error, sessions)

	for i := 0; i < sessions; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			sid := string(rune('a' + i))
			errs <- store.Register(ctx, "acct-1", sid, hashOf(sid), time.Hour)
		}(i)
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		if err != nil {
			t.Fatalf("concurrent register failed: %v", err)
		}
	}

	ids, err := store.ActiveSessionIDs(ctx, "acct-1")
	if err != nil {
		t.Fatal(err)
	}
	if len(ids) != sessions {
		t.Errorf("got %d live sessions, want %d", len(ids), sessions)
	}
}

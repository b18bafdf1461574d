// Package session tracks which refresh-token sessions are currently valid
// per account. A refresh token absent from the registry is rejected even if
// cryptographically valid and unexpired; this is what makes logout,
// logout-all, and password changes effective immediately.
package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrNotFound is returned when a session is absent from the registry.
var ErrNotFound = errors.New("session not found")

// ErrUnavailable wraps Redis transport failures.
var ErrUnavailable = errors.New("session store unavailable")

const refreshHashSize = 32

// Store is the Redis-backed session registry. Each session is a key holding
// the SHA-256 of its registered refresh token, expiring with the token; the
// per-account index is a Redis SET so concurrent logins append without lost
// updates.
type Store struct {
	redis  redis.UniversalClient
	prefix string
}

// NewStore creates a registry backed by the given Redis client. prefix sets
// the key namespace.
func NewStore(redisClient redis.UniversalClient, prefix string) *Store {
	if prefix == "" {
		prefix = "ids"
	}
	return &Store{redis: redisClient, prefix: prefix}
}

func (s *Store) sessionKey(sessionID string) string {
	return s.prefix + ":s:" + sessionID
}

func (s *Store) accountKey(accountID string) string {
	return s.prefix + ":a:" + accountID
}

// Register records a new session: the refresh-token hash keyed by session id
// with the refresh TTL, plus set membership in the account index. SADD makes
// concurrent registrations for one account commutative.
func (s *Store) Register(ctx context.Context, accountID, sessionID string, refreshHash [32]byte, ttl time.Duration) error {
	if ttl <= 0 {
		return errors.New("non-positive session ttl")
	}

	accountKey := s.accountKey(accountID)
	_, err := s.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, s.sessionKey(sessionID), refreshHash[:], ttl)
		pipe.SAdd(ctx, accountKey, sessionID)
		// The index must outlive its youngest session.
		pipe.Expire(ctx, accountKey, ttl)
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	return nil
}

// Revoke removes a single session. Revoking an absent session is not an
// error.
func (s *Store) Revoke(ctx context.Context, accountID, sessionID string) error {
	_, err := s.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, s.sessionKey(sessionID))
		pipe.SRem(ctx, s.accountKey(accountID), sessionID)
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	return nil
}

// RevokeAll clears every session for the account and returns how many were
// still live. A session registered concurrently with this call may survive;
// it expires naturally or falls to the next RevokeAll.
func (s *Store) RevokeAll(ctx context.Context, accountID string) (int, error) {
	accountKey := s.accountKey(accountID)

	sessionIDs, err := s.redis.SMembers(ctx, accountKey).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, nil
		}
		return 0, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	sessionKeys := make([]string, 0, len(sessionIDs))
	for _, sid := range sessionIDs {
		sessionKeys = append(sessionKeys, s.sessionKey(sid))
	}

	var live int64
	if len(sessionKeys) > 0 {
		live, err = s.redis.Exists(ctx, sessionKeys...).Result()
		if err != nil {
			return 0, fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
	}

	_, err = s.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		if len(sessionKeys) > 0 {
			pipe.Del(ctx, sessionKeys...)
		}
		pipe.Del(ctx, accountKey)
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	return int(live), nil
}

// IsActive reports whether the session is registered and unexpired. Stale
// index entries whose session key already expired are pruned on read.
func (s *Store) IsActive(ctx context.Context, accountID, sessionID string) (bool, error) {
	member, err := s.redis.SIsMember(ctx, s.accountKey(accountID), sessionID).Result()
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if !member {
		return false, nil
	}

	exists, err := s.redis.Exists(ctx, s.sessionKey(sessionID)).Result()
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if exists == 0 {
		if err := s.redis.SRem(ctx, s.accountKey(accountID), sessionID).Err(); err != nil {
			return false, fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
		return false, nil
	}

	return true, nil
}

// RefreshHash returns the registered refresh-token hash for the session.
// Returns ErrNotFound when the session is absent or expired.
func (s *Store) RefreshHash(ctx context.Context, accountID, sessionID string) ([32]byte, error) {
	var hash [32]byte

	active, err := s.IsActive(ctx, accountID, sessionID)
	if err != nil {
		return hash, err
	}
	if !active {
		return hash, ErrNotFound
	}

	data, err := s.redis.Get(ctx, s.sessionKey(sessionID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return hash, ErrNotFound
		}
		return hash, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if len(data) != refreshHashSize {
		return hash, fmt.Errorf("%w: corrupt session record", ErrUnavailable)
	}

	copy(hash[:], data)
	return hash, nil
}

// ActiveSessionIDs returns the live session ids for an account, pruning any
// index entries whose sessions have expired.
func (s *Store) ActiveSessionIDs(ctx context.Context, accountID string) ([]string, error) {
	accountKey := s.accountKey(accountID)

	sessionIDs, err := s.redis.SMembers(ctx, accountKey).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if len(sessionIDs) == 0 {
		return []string{}, nil
	}

	pipe := s.redis.Pipeline()
	existsCmds := make([]*redis.IntCmd, len(sessionIDs))
	for i, sid := range sessionIDs {
		existsCmds[i] = pipe.Exists(ctx, s.sessionKey(sid))
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	live := make([]string, 0, len(sessionIDs))
	var stale []interface{}
	for i, cmd := range existsCmds {
		n, cmdErr := cmd.Result()
		if cmdErr != nil {
			return nil, fmt.Errorf("%w: %v", ErrUnavailable, cmdErr)
		}
		if n > 0 {
			live = append(live, sessionIDs[i])
		} else {
			stale = append(stale, sessionIDs[i])
		}
	}

	if len(stale) > 0 {
		if err := s.redis.SRem(ctx, accountKey, stale...).Err(); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
	}

	return live, nil
}

// Ping reports Redis availability and round-trip latency.
func (s *Store) Ping(ctx context.Context) (time.Duration, error) {
	start := time.Now()
	if err := s.redis.Ping(ctx).Err(); err != nil {
		return time.Since(start), fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return time.Since(start), nil
}

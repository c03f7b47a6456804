// Package distlock guards work that must not run twice at once across server
// instances, such as the same upload being processed by two requests.
package distlock

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"hash/fnv"
	"time"

	"github.com/redis/go-redis/v9"
)

// DistLock is a single lock. Acquire and Release must be called from the same
// goroutine; use one instance per critical section.
type DistLock interface {
	// Acquire tries once and reports whether the lock is now held.
	Acquire(ctx context.Context) (bool, error)
	// Release drops the lock if it is still ours.
	Release(ctx context.Context) error
}

// Locker hands out locks on the best available backend: Redis when a client
// is configured, else Postgres advisory locks.
type Locker struct {
	redis *redis.Client
	db    *sql.DB
	ttl   time.Duration
}

// NewLocker returns nil when neither backend is configured; callers treat a
// nil Locker as "no locking".
func NewLocker(redisClient *redis.Client, db *sql.DB, ttl time.Duration) *Locker {
	if redisClient == nil && db == nil {
		return nil
	}
	return &Locker{redis: redisClient, db: db, ttl: ttl}
}

// Backend names the lock backend for health output.
func (l *Locker) Backend() string {
	switch {
	case l == nil:
		return "none"
	case l.redis != nil:
		return "redis"
	default:
		return "postgres"
	}
}

// For returns a lock on key.
func (l *Locker) For(key string) DistLock {
	if l.redis != nil {
		return NewRedisLock(l.redis, key, l.ttl)
	}
	return NewPGAdvisoryLock(l.db, key)
}

// PayloadKey derives a lock key from request content so identical uploads
// contend for the same lock.
func PayloadKey(scope string, payload []byte) string {
	sum := sha256.Sum256(payload)
	return scope + ":" + hex.EncodeToString(sum[:])
}

// PGAdvisoryLock uses pg_try_advisory_lock, which is session scoped: the lock
// goes away if the connection drops.
type PGAdvisoryLock struct {
	db     *sql.DB
	lockID int64
}

// NewPGAdvisoryLock derives a stable lock ID from key.
func NewPGAdvisoryLock(db *sql.DB, key string) *PGAdvisoryLock {
	h := fnv.New64a()
	h.Write([]byte(key))
	return &PGAdvisoryLock{
		db:     db,
		lockID: int64(h.Sum64()),
	}
}

func (l *PGAdvisoryLock) Acquire(ctx context.Context) (bool, error) {
	var acquired bool
	err := l.db.QueryRowContext(ctx, "SELECT pg_try_advisory_lock($1)", l.lockID).Scan(&acquired)
	return acquired, err
}

func (l *PGAdvisoryLock) Release(ctx context.Context) error {
	_, err := l.db.ExecContext(ctx, "SELECT pg_advisory_unlock($1)", l.lockID)
	return err
}

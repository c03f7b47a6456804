package distlock

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return mr, client
}

func TestRedisLockExclusive(t *testing.T) {
	mr, client := newRedis(t)
	ctx := context.Background()
	locker := NewLocker(client, nil, time.Minute)
	assert.Equal(t, "redis", locker.Backend())

	first := locker.For("report:abc")
	second := locker.For("report:abc")

	ok, err := first.Acquire(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, time.Minute, mr.TTL("lock:report:abc"))

	ok, err = second.Acquire(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	// a non-owner release leaves the lock in place
	require.NoError(t, second.Release(ctx))
	assert.True(t, mr.Exists("lock:report:abc"))

	require.NoError(t, first.Release(ctx))
	assert.False(t, mr.Exists("lock:report:abc"))

	ok, err = second.Acquire(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRedisLockExpires(t *testing.T) {
	mr, client := newRedis(t)
	ctx := context.Background()
	lock := NewRedisLock(client, "k", time.Second)

	ok, err := lock.Acquire(ctx)
	require.NoError(t, err)
	require.True(t, ok)

	mr.FastForward(2 * time.Second)
	ok, err = NewRedisLock(client, "k", time.Second).Acquire(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRedisUnavailable(t *testing.T) {
	mr, client := newRedis(t)
	mr.Close()
	_, err := NewRedisLock(client, "k", time.Second).Acquire(context.Background())
	assert.Error(t, err)
}

func TestPGAdvisoryFallback(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	locker := NewLocker(nil, db, time.Minute)
	assert.Equal(t, "postgres", locker.Backend())
	lock := locker.For("report:abc").(*PGAdvisoryLock)

	mock.ExpectQuery("SELECT pg_try_advisory_lock").WithArgs(lock.lockID).
		WillReturnRows(sqlmock.NewRows([]string{"pg_try_advisory_lock"}).AddRow(true))
	mock.ExpectExec("SELECT pg_advisory_unlock").WithArgs(lock.lockID).
		WillReturnResult(sqlmock.NewResult(0, 0))

	ok, err := lock.Acquire(context.Background())
	require.NoError(t, err)
	assert.True(t, ok)
	require.NoError(t, lock.Release(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNilLocker(t *testing.T) {
	l := NewLocker(nil, nil, time.Minute)
	assert.Nil(t, l)
	assert.Equal(t, "none", l.Backend())
}

func TestPayloadKey(t *testing.T) {
	a := PayloadKey("report", []byte("a,b\n1,2\n"))
	assert.Equal(t, a, PayloadKey("report", []byte("a,b\n1,2\n")))
	assert.NotEqual(t, a, PayloadKey("report", []byte("a,b\n1,3\n")))
	assert.Contains(t, a, "report:")
}

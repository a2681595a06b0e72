package sessionlock

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestUnlock_OnlyReleasesOwnedLocks(t *testing.T) {
	t.Parallel()

	// A locker that never acquired the lock must not touch the key:
	// after a TTL expiry another worker may own it. With no recorded
	// token Unlock is a no-op and never reaches Redis.
	locker := NewRedisLocker(nil, time.Minute)
	require.NoError(t, locker.Unlock(context.Background(), "+51999888777"))
}

func TestNewRedisLocker_DefaultTTLCoversDelayNodes(t *testing.T) {
	t.Parallel()

	// delay nodes may sleep up to 300s per hop; the fallback TTL has
	// to outlive a pass that hits one.
	locker := NewRedisLocker(nil, 0)
	require.Greater(t, locker.ttl, 5*time.Minute)
}

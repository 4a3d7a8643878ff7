package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOwnerLocks_ForgetsOwnerAfterUnlock(t *testing.T) {
	locks := newOwnerLocks()

	for _, owner := range []string{"a", "b", "c"} {
		unlock, err := locks.lock(context.Background(), owner)
		require.NoError(t, err)
		assert.Equal(t, 1, locks.size())
		unlock()
	}

	assert.Zero(t, locks.size())
}

func TestOwnerLocks_CancelledWaitReleasesSlot(t *testing.T) {
	locks := newOwnerLocks()

	unlock, err := locks.lock(context.Background(), "a")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = locks.lock(ctx, "a")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, 1, locks.size())

	unlock()
	assert.Zero(t, locks.size())
}

func TestOwnerLocks_WaiterKeepsSlotUntilDone(t *testing.T) {
	locks := newOwnerLocks()

	unlock, err := locks.lock(context.Background(), "a")
	require.NoError(t, err)

	acquired := make(chan func())
	go func() {
		next, err := locks.lock(context.Background(), "a")
		if err == nil {
			acquired <- next
		}
	}()

	require.Eventually(t, func() bool {
		locks.mu.Lock()
		defer locks.mu.Unlock()
		return locks.slots["a"] != nil && locks.slots["a"].refs == 2
	}, time.Second, time.Millisecond)

	unlock()
	next := <-acquired
	assert.Equal(t, 1, locks.size())

	next()
	assert.Zero(t, locks.size())
}

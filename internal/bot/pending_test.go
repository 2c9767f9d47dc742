package bot

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPendingTakeResolvesOnce(t *testing.T) {
	store := newPendingStore(time.Minute)

	token, err := store.Put(pendingAction{Kind: pendingAdd, User: "Builderman", ActorID: "d1"}, nil)
	require.NoError(t, err)
	require.Len(t, token, 32)

	action, ok := store.Take(token)
	require.True(t, ok)
	assert.Equal(t, pendingAdd, action.Kind)
	assert.Equal(t, "Builderman", action.User)

	_, ok = store.Take(token)
	assert.False(t, ok, "a token must not resolve twice")
	assert.Zero(t, store.Len())
}

func TestPendingUnknownTokenMisses(t *testing.T) {
	store := newPendingStore(time.Minute)

	_, ok := store.Take("deadbeefdeadbeefdeadbeefdeadbeef")
	assert.False(t, ok)
}

func TestPendingExpiresExactlyOnce(t *testing.T) {
	store := newPendingStore(20 * time.Millisecond)

	var expired atomic.Int32
	_, err := store.Put(pendingAction{Kind: pendingRemove, User: "Builderman"}, func(string) {
		expired.Add(1)
	})
	require.NoError(t, err)

	assert.Eventually(t, func() bool { return expired.Load() == 1 }, time.Second, 5*time.Millisecond)
	assert.Zero(t, store.Len())

	// expiry already consumed the token
	time.Sleep(50 * time.Millisecond)
	assert.EqualValues(t, 1, expired.Load())
}

func TestPendingTakeBeatsExpiry(t *testing.T) {
	store := newPendingStore(30 * time.Millisecond)

	var expired atomic.Int32
	token, err := store.Put(pendingAction{Kind: pendingAdd, User: "Builderman"}, func(string) {
		expired.Add(1)
	})
	require.NoError(t, err)

	_, ok := store.Take(token)
	require.True(t, ok)

	time.Sleep(80 * time.Millisecond)
	assert.Zero(t, expired.Load(), "a confirmed action must not also expire")
}

func TestPendingTokensAreDistinct(t *testing.T) {
	store := newPendingStore(time.Minute)

	first, err := store.Put(pendingAction{Kind: pendingAdd}, nil)
	require.NoError(t, err)
	second, err := store.Put(pendingAction{Kind: pendingAdd}, nil)
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
	assert.Equal(t, 2, store.Len())
}

func TestPendingPeekDoesNotConsume(t *testing.T) {
	store := newPendingStore(time.Minute)

	token, err := store.Put(pendingAction{Kind: pendingRemove, User: "Builderman", ActorID: "d1"}, nil)
	require.NoError(t, err)

	// a stranger inspecting the action leaves it pending for the invoker
	peeked, ok := store.Peek(token)
	require.True(t, ok)
	assert.Equal(t, "d1", peeked.ActorID)
	assert.Equal(t, 1, store.Len())

	action, ok := store.Take(token)
	require.True(t, ok)
	assert.Equal(t, "Builderman", action.User)

	_, ok = store.Peek(token)
	assert.False(t, ok, "a consumed token must not peek")
}

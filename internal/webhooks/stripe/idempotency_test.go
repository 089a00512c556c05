package stripewebhook

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memEntry struct {
	value string
	ttl   time.Duration
}

type memStore struct {
	keys   map[string]memEntry
	setErr error
	getErr error
}

func newMemStore() *memStore {
	return &memStore{keys: map[string]memEntry{}}
}

func (m *memStore) Get(_ context.Context, key string) (string, error) {
	if m.getErr != nil {
		return "", m.getErr
	}
	entry, ok := m.keys[key]
	if !ok {
		return "", goredis.Nil
	}
	return entry.value, nil
}

func (m *memStore) Set(_ context.Context, key string, value any, ttl time.Duration) error {
	if m.setErr != nil {
		return m.setErr
	}
	m.keys[key] = memEntry{value: fmt.Sprint(value), ttl: ttl}
	return nil
}

func (m *memStore) SetNX(_ context.Context, key string, value any, ttl time.Duration) (bool, error) {
	if m.setErr != nil {
		return false, m.setErr
	}
	if _, ok := m.keys[key]; ok {
		return false, nil
	}
	m.keys[key] = memEntry{value: fmt.Sprint(value), ttl: ttl}
	return true, nil
}

func (m *memStore) IdempotencyKey(scope, id string) string {
	return "test:idempotency:" + scope + ":" + id
}

func (m *memStore) Del(_ context.Context, keys ...string) error {
	for _, k := range keys {
		delete(m.keys, k)
	}
	return nil
}

const evt1Key = "test:idempotency:stripe_event:evt_1"

func TestEventGuardClaimLifecycle(t *testing.T) {
	store := newMemStore()
	guard, err := NewEventGuard(store, time.Minute, 72*time.Hour)
	require.NoError(t, err)
	ctx := context.Background()

	state, err := guard.Claim(ctx, "evt_1")
	require.NoError(t, err)
	assert.Equal(t, ClaimAcquired, state)
	assert.Equal(t, memEntry{value: "processing", ttl: time.Minute}, store.keys[evt1Key])

	state, err = guard.Claim(ctx, "evt_1")
	require.NoError(t, err)
	assert.Equal(t, ClaimInFlight, state)

	require.NoError(t, guard.Complete(ctx, "evt_1"))
	assert.Equal(t, memEntry{value: "done", ttl: 72 * time.Hour}, store.keys[evt1Key])

	state, err = guard.Claim(ctx, "evt_1")
	require.NoError(t, err)
	assert.Equal(t, ClaimDone, state)

	state, err = guard.Claim(ctx, "evt_2")
	require.NoError(t, err)
	assert.Equal(t, ClaimAcquired, state)
}

func TestEventGuardReleaseAllowsRetry(t *testing.T) {
	guard, err := NewEventGuard(newMemStore(), time.Minute, time.Hour)
	require.NoError(t, err)
	ctx := context.Background()

	_, err = guard.Claim(ctx, "evt_1")
	require.NoError(t, err)
	require.NoError(t, guard.Release(ctx, "evt_1"))

	state, err := guard.Claim(ctx, "evt_1")
	require.NoError(t, err)
	assert.Equal(t, ClaimAcquired, state)
}

func TestEventGuardErrors(t *testing.T) {
	_, err := NewEventGuard(nil, time.Minute, time.Hour)
	assert.Error(t, err)
	_, err = NewEventGuard(newMemStore(), 0, time.Hour)
	assert.Error(t, err)
	_, err = NewEventGuard(newMemStore(), time.Minute, 0)
	assert.Error(t, err)

	store := newMemStore()
	store.setErr = errors.New("connection refused")
	guard, err := NewEventGuard(store, time.Minute, time.Hour)
	require.NoError(t, err)

	_, err = guard.Claim(context.Background(), "evt_1")
	assert.ErrorContains(t, err, "connection refused")
	assert.ErrorContains(t, guard.Complete(context.Background(), "evt_1"), "connection refused")
	_, err = guard.Claim(context.Background(), "")
	assert.Error(t, err)
	assert.Error(t, guard.Complete(context.Background(), ""))
	assert.Error(t, guard.Release(context.Background(), ""))
}

func TestEventGuardClaimReadFailure(t *testing.T) {
	store := newMemStore()
	guard, err := NewEventGuard(store, time.Minute, time.Hour)
	require.NoError(t, err)
	ctx := context.Background()

	_, err = guard.Claim(ctx, "evt_1")
	require.NoError(t, err)

	store.getErr = errors.New("i/o timeout")
	_, err = guard.Claim(ctx, "evt_1")
	assert.ErrorContains(t, err, "i/o timeout")
}

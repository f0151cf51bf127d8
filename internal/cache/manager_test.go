package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testManager(t *testing.T) (*Manager, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)

	cfg := DefaultConfig()
	cfg.Addr = mr.Addr()
	cfg.HealthCheckInterval = 0

	m, err := NewManager(cfg, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = m.Close() })
	return m, mr
}

func TestNewManager_UnreachableRedis(t *testing.T) {
	t.Parallel()
	cfg := DefaultConfig()
	cfg.Addr = "127.0.0.1:1"
	cfg.MaxRetries = 0

	_, err := NewManager(cfg, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to connect to redis")
}

func TestManager_SetGet(t *testing.T) {
	t.Parallel()
	m, _ := testManager(t)
	ctx := context.Background()

	require.NoError(t, m.Set(ctx, "k", "v", time.Minute))
	val, err := m.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "v", val)
}

func TestManager_GetMiss(t *testing.T) {
	t.Parallel()
	m, _ := testManager(t)

	_, err := m.Get(context.Background(), "absent")
	assert.ErrorIs(t, err, ErrCacheMiss)
	assert.True(t, IsCacheMiss(err))
}

func TestManager_ZeroTTLUsesDefault(t *testing.T) {
	t.Parallel()
	m, mr := testManager(t)
	ctx := context.Background()

	require.NoError(t, m.Set(ctx, "k", "v", 0))
	assert.Equal(t, DefaultConfig().DefaultTTL, mr.TTL("k"))
}

func TestManager_ExpiryHonored(t *testing.T) {
	t.Parallel()
	m, mr := testManager(t)
	ctx := context.Background()

	require.NoError(t, m.Set(ctx, "k", "v", time.Minute))
	mr.FastForward(2 * time.Minute)

	_, err := m.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestManager_JSONRoundTrip(t *testing.T) {
	t.Parallel()
	m, _ := testManager(t)
	ctx := context.Background()

	type payload struct {
		Name  string  `json:"name"`
		Score float64 `json:"score"`
	}
	in := payload{Name: "consensus", Score: 0.83}
	require.NoError(t, m.SetJSON(ctx, "k", in, time.Minute))

	var out payload
	require.NoError(t, m.GetJSON(ctx, "k", &out))
	assert.Equal(t, in, out)
}

func TestManager_GetJSONCorruptValue(t *testing.T) {
	t.Parallel()
	m, mr := testManager(t)
	require.NoError(t, mr.Set("k", "{not json"))

	var out map[string]any
	err := m.GetJSON(context.Background(), "k", &out)
	require.Error(t, err)
	assert.False(t, IsCacheMiss(err))
}

func TestManager_DeleteAndExists(t *testing.T) {
	t.Parallel()
	m, _ := testManager(t)
	ctx := context.Background()

	require.NoError(t, m.Set(ctx, "k1", "v", time.Minute))
	require.NoError(t, m.Set(ctx, "k2", "v", time.Minute))

	count, err := m.Exists(ctx, "k1", "k2", "k3")
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	require.NoError(t, m.Delete(ctx, "k1", "k2"))
	count, err = m.Exists(ctx, "k1", "k2")
	require.NoError(t, err)
	assert.Zero(t, count)

	// Deleting nothing is a no-op.
	assert.NoError(t, m.Delete(ctx))
}

func TestManager_ClosedRejectsOperations(t *testing.T) {
	t.Parallel()
	m, _ := testManager(t)
	require.NoError(t, m.Close())
	// Close twice is fine.
	require.NoError(t, m.Close())

	ctx := context.Background()
	_, err := m.Get(ctx, "k")
	assert.ErrorContains(t, err, "closed")
	assert.ErrorContains(t, m.Set(ctx, "k", "v", 0), "closed")
	assert.ErrorContains(t, m.Ping(ctx), "closed")
}

func TestManager_Ping(t *testing.T) {
	t.Parallel()
	m, _ := testManager(t)
	assert.NoError(t, m.Ping(context.Background()))
}

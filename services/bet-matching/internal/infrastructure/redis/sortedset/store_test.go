package sortedset

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/muhammadchandra19/bet-exchange/pkg/errors"
	"github.com/muhammadchandra19/bet-exchange/pkg/logger"
	"github.com/muhammadchandra19/bet-exchange/pkg/redis"
	exchangev1 "github.com/muhammadchandra19/bet-exchange/services/bet-matching/internal/domain/exchange/v1"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupStore(t *testing.T) (*Store, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	cfg := redis.DefaultConfig()
	cfg.Addrs = []string{mr.Addr()}
	cfg.MaxRetries = 0

	client := redis.NewClient(logger.NewNop(), cfg)
	require.NoError(t, client.Connect(context.Background()))
	t.Cleanup(func() { _ = client.Disconnect(context.Background()) })

	return NewStore(client), mr
}

func TestStore_PopOrder(t *testing.T) {
	store, _ := setupStore(t)
	ctx := context.Background()
	key := "pq:e1:KAN"

	require.NoError(t, store.Put(ctx, key, 130, "b"))
	require.NoError(t, store.Put(ctx, key, -110, "a"))
	require.NoError(t, store.Put(ctx, key, 250, "c"))

	low, found, err := store.PopMin(ctx, key)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, exchangev1.Member{Value: "a", Score: -110}, low)

	high, found, err := store.PopMax(ctx, key)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, exchangev1.Member{Value: "c", Score: 250}, high)

	_, _, err = store.PopMin(ctx, key)
	require.NoError(t, err)

	_, found, err = store.PopMax(ctx, key)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestStore_Count(t *testing.T) {
	store, _ := setupStore(t)
	ctx := context.Background()
	key := "pq:e1:DEN"

	n, err := store.Count(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)

	require.NoError(t, store.Put(ctx, key, -150, "a"))
	require.NoError(t, store.Put(ctx, key, -150, "b"))
	require.NoError(t, store.Put(ctx, key, -150, "a"))

	n, err = store.Count(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
}

func TestStore_RangeAndRemove(t *testing.T) {
	store, _ := setupStore(t)
	ctx := context.Background()
	key := "pq:e1:DEN"

	require.NoError(t, store.Put(ctx, key, -150, "x"))
	require.NoError(t, store.Put(ctx, key, -150, "y"))
	require.NoError(t, store.Put(ctx, key, 120, "z"))

	members, err := store.RangeByScore(ctx, key, -150, -150)
	require.NoError(t, err)
	assert.Equal(t, []exchangev1.Member{{Value: "x", Score: -150}, {Value: "y", Score: -150}}, members)

	require.NoError(t, store.Remove(ctx, key, "x"))
	require.NoError(t, store.Remove(ctx, key, "missing"))
	require.NoError(t, store.Remove(ctx, key))

	members, err = store.RangeByScore(ctx, key, -1000, 1000)
	require.NoError(t, err)
	assert.Equal(t, []exchangev1.Member{{Value: "y", Score: -150}, {Value: "z", Score: 120}}, members)
}

func TestStore_GetSet(t *testing.T) {
	store, _ := setupStore(t)
	ctx := context.Background()

	_, found, err := store.Get(ctx, "event:e1")
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, store.Set(ctx, "event:e1", `{"status":"ACTIVE"}`))

	value, found, err := store.Get(ctx, "event:e1")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, `{"status":"ACTIVE"}`, value)
}

func TestStore_Failure(t *testing.T) {
	store, mr := setupStore(t)
	ctx := context.Background()

	mr.SetError("ERR injected failure")

	testCases := []struct {
		name         string
		call         func() error
		expectedCode errors.ErrorCode
	}{
		{
			name:         "put",
			call:         func() error { return store.Put(ctx, "pq:e1:DEN", 1, "m") },
			expectedCode: errors.RedisZAddError,
		},
		{
			name: "pop min",
			call: func() error {
				_, _, err := store.PopMin(ctx, "pq:e1:DEN")
				return err
			},
			expectedCode: errors.RedisZPopError,
		},
		{
			name: "range",
			call: func() error {
				_, err := store.RangeByScore(ctx, "pq:e1:DEN", 1, 1)
				return err
			},
			expectedCode: errors.RedisZRangeError,
		},
		{
			name:         "remove",
			call:         func() error { return store.Remove(ctx, "pq:e1:DEN", "m") },
			expectedCode: errors.RedisZRemError,
		},
		{
			name:         "set",
			call:         func() error { return store.Set(ctx, "event:e1", "{}") },
			expectedCode: errors.RedisSetError,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.call()
			require.Error(t, err)
			assert.True(t, errors.HasCode(err, tc.expectedCode))
		})
	}
}

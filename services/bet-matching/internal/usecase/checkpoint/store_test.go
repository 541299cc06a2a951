package checkpoint

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/muhammadchandra19/bet-exchange/pkg/errors"
	"github.com/muhammadchandra19/bet-exchange/pkg/logger"
	"github.com/muhammadchandra19/bet-exchange/pkg/redis"
	checkpointv1 "github.com/muhammadchandra19/bet-exchange/services/bet-matching/internal/domain/checkpoint/v1"
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

	return NewCheckpointStore(client, "bet-actions", 2, logger.NewNop()), mr
}

func TestStore_RoundTrip(t *testing.T) {
	store, mr := setupStore(t)
	ctx := context.Background()

	loaded, err := store.LoadStore(ctx)
	require.NoError(t, err)
	assert.Nil(t, loaded)

	checkpoint := &checkpointv1.Checkpoint{
		Topic:     "bet-actions",
		Partition: 2,
		Offset:    41,
		UpdatedAt: time.Date(2020, 12, 6, 18, 0, 0, 0, time.UTC),
	}
	require.NoError(t, store.Store(ctx, checkpoint))
	assert.True(t, mr.Exists("checkpoint:bet-actions:2"))

	loaded, err = store.LoadStore(ctx)
	require.NoError(t, err)
	assert.Equal(t, checkpoint, loaded)
}

func TestStore_Failures(t *testing.T) {
	t.Run("corrupt checkpoint", func(t *testing.T) {
		store, mr := setupStore(t)
		require.NoError(t, mr.Set(Key("bet-actions", 2), "{"))

		_, err := store.LoadStore(context.Background())
		assert.True(t, errors.HasCode(err, errors.CheckpointError))
	})

	t.Run("redis failure", func(t *testing.T) {
		store, mr := setupStore(t)
		mr.SetError("ERR injected failure")

		_, err := store.LoadStore(context.Background())
		assert.True(t, errors.HasCode(err, errors.CheckpointError))

		err = store.Store(context.Background(), &checkpointv1.Checkpoint{Offset: 1})
		assert.True(t, errors.HasCode(err, errors.CheckpointError))
	})
}

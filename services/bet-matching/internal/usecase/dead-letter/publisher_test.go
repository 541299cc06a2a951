package deadletter

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"testing"
	"time"

	"github.com/muhammadchandra19/bet-exchange/pkg/errors"
	"github.com/muhammadchandra19/bet-exchange/pkg/logger"
	betv1 "github.com/muhammadchandra19/bet-exchange/services/bet-matching/internal/domain/bet/v1"
	deadletterv1 "github.com/muhammadchandra19/bet-exchange/services/bet-matching/internal/domain/dead-letter/v1"
	"github.com/oklog/ulid/v2"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeWriter struct {
	messages []kafka.Message
	err      error
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.messages = append(w.messages, msgs...)
	return nil
}

func (w *fakeWriter) Close() error { return nil }

func TestNewEntry(t *testing.T) {
	failedAt := time.Date(2020, 12, 6, 18, 0, 0, 0, time.UTC)
	msg := kafka.Message{
		Topic:     "bet-actions",
		Partition: 1,
		Offset:    12,
		Key:       []byte("e1"),
		Value:     []byte(`{"action":"NEW_LIMIT_BET","value":{"odds":0}}`),
	}

	t.Run("classified error", func(t *testing.T) {
		_, decodeErr := betv1.DecodeAction(msg.Value)
		require.Error(t, decodeErr)

		entry := NewEntry(msg, decodeErr, failedAt)

		_, err := ulid.ParseStrict(entry.ID)
		assert.NoError(t, err)
		assert.Equal(t, "bet-actions", entry.Topic)
		assert.Equal(t, 1, entry.Partition)
		assert.Equal(t, int64(12), entry.Offset)
		assert.Equal(t, "e1", entry.Key)
		assert.Equal(t, string(errors.InvalidActionPayload), entry.Code)
		assert.Equal(t, "event_id", entry.Field)
		assert.Equal(t, string(msg.Value), entry.Payload)
		assert.Equal(t, failedAt, entry.FailedAt)
	})

	t.Run("unclassified error", func(t *testing.T) {
		entry := NewEntry(msg, stderrors.New("boom"), failedAt)
		assert.Equal(t, string(errors.GeneralInternalServerError), entry.Code)
		assert.Empty(t, entry.Field)
		assert.Equal(t, "boom", entry.Error)
	})

	t.Run("ids are unique", func(t *testing.T) {
		assert.NotEqual(t, NewEntry(msg, stderrors.New("a"), failedAt).ID, NewEntry(msg, stderrors.New("a"), failedAt).ID)
	})
}

func TestPublisher_Publish(t *testing.T) {
	writer := &fakeWriter{}
	publisher := NewPublisherWithWriter(writer, logger.NewNop())

	entry := &deadletterv1.Entry{ID: ulid.Make().String(), Key: "e1", Offset: 3, Code: string(errors.InvalidActionPayload), Payload: "{"}
	require.NoError(t, publisher.Publish(context.Background(), entry))

	require.Len(t, writer.messages, 1)
	assert.Equal(t, []byte("e1"), writer.messages[0].Key)

	var decoded deadletterv1.Entry
	require.NoError(t, json.Unmarshal(writer.messages[0].Value, &decoded))
	assert.Equal(t, entry.ID, decoded.ID)
	assert.Equal(t, "{", decoded.Payload)

	writer.err = stderrors.New("broker down")
	err := publisher.Publish(context.Background(), entry)
	assert.True(t, errors.HasCode(err, errors.DeadLetterPublishError))
}

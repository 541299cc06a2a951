package engine

import (
	"context"
	stderrors "errors"
	"sync"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/muhammadchandra19/bet-exchange/pkg/errors"
	"github.com/muhammadchandra19/bet-exchange/pkg/logger"
	actionreadermock "github.com/muhammadchandra19/bet-exchange/services/bet-matching/internal/domain/action-reader/v1/mock"
	betv1 "github.com/muhammadchandra19/bet-exchange/services/bet-matching/internal/domain/bet/v1"
	checkpointv1 "github.com/muhammadchandra19/bet-exchange/services/bet-matching/internal/domain/checkpoint/v1"
	checkpointmock "github.com/muhammadchandra19/bet-exchange/services/bet-matching/internal/domain/checkpoint/v1/mock"
	deadletterv1 "github.com/muhammadchandra19/bet-exchange/services/bet-matching/internal/domain/dead-letter/v1"
	deadlettermock "github.com/muhammadchandra19/bet-exchange/services/bet-matching/internal/domain/dead-letter/v1/mock"
	publishermock "github.com/muhammadchandra19/bet-exchange/services/bet-matching/internal/domain/execution-publisher/v1/mock"
	"github.com/muhammadchandra19/bet-exchange/services/bet-matching/internal/metrics"
	"github.com/muhammadchandra19/bet-exchange/services/bet-matching/internal/usecase/matcher"
	"github.com/muhammadchandra19/bet-exchange/services/bet-matching/pkg/config"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2020, 12, 6, 18, 0, 0, 0, time.UTC)

const validLimitBet = `{"action":"NEW_LIMIT_BET","value":{"event_id":"e1","sport":"NFL","bet_id":1,` +
	`"brokerage_id":2,"user_id":3,"amount":100,"odds":-110,"order_type":"LIMIT","on_team_abbrev":"DEN"}}`

type handleFunc func(call int, action betv1.Action) (matcher.Result, error)

type fakeHandler struct {
	mu      sync.Mutex
	actions []betv1.Action
	handle  handleFunc
}

func (h *fakeHandler) Handle(_ context.Context, action betv1.Action) (matcher.Result, error) {
	h.mu.Lock()
	h.actions = append(h.actions, action)
	call := len(h.actions)
	h.mu.Unlock()

	if h.handle == nil {
		return matcher.Result{Action: action.Kind(), Outcome: matcher.OutcomeRested}, nil
	}
	return h.handle(call, action)
}

func (h *fakeHandler) calls() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.actions)
}

type testFixture struct {
	ctrl                *gomock.Controller
	mockActionReader    *actionreadermock.MockActionReader
	mockCheckpointStore *checkpointmock.MockStore
	mockDeadLetter      *deadlettermock.MockPublisher
	mockPublisher       *publishermock.MockPublisher
	handler             *fakeHandler
	config              config.ActionKafkaConfig
	options             *Options
}

func setupTestFixture(t *testing.T) *testFixture {
	ctrl := gomock.NewController(t)

	options := DefaultEngineOptions()
	options.CheckpointInterval = time.Hour
	options.RetryInitialInterval = time.Millisecond
	options.RetryMaxInterval = 5 * time.Millisecond
	options.Clock = func() time.Time { return fixedNow }

	return &testFixture{
		ctrl:                ctrl,
		mockActionReader:    actionreadermock.NewMockActionReader(ctrl),
		mockCheckpointStore: checkpointmock.NewMockStore(ctrl),
		mockDeadLetter:      deadlettermock.NewMockPublisher(ctrl),
		mockPublisher:       publishermock.NewMockPublisher(ctrl),
		handler:             &fakeHandler{},
		config:              config.ActionKafkaConfig{Topic: "bet-actions", Partition: 3},
		options:             options,
	}
}

func (f *testFixture) teardown() {
	f.ctrl.Finish()
}

func createTestEngine(t *testing.T, f *testFixture) *Engine {
	t.Helper()

	f.mockCheckpointStore.EXPECT().LoadStore(gomock.Any()).Return(nil, nil)

	engine, err := NewEngineWithOptions(
		f.handler,
		f.mockActionReader,
		f.mockCheckpointStore,
		f.mockDeadLetter,
		f.mockPublisher,
		metrics.New(),
		logger.NewNop(),
		f.config,
		f.options,
	)
	require.NoError(t, err)
	return engine
}

func TestNewEngine(t *testing.T) {
	testCases := []struct {
		name           string
		checkpoint     *checkpointv1.Checkpoint
		loadErr        error
		expectedOffset int64
		expectedError  bool
	}{
		{
			name:           "no checkpoint",
			expectedOffset: -1,
		},
		{
			name:           "existing checkpoint",
			checkpoint:     &checkpointv1.Checkpoint{Topic: "bet-actions", Partition: 3, Offset: 41},
			expectedOffset: 41,
		},
		{
			name:          "checkpoint load failure",
			loadErr:       errors.NewErrorDetails("failed to load checkpoint", string(errors.CheckpointError), "checkpoint:bet-actions:3"),
			expectedError: true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			f := setupTestFixture(t)
			defer f.teardown()

			f.mockCheckpointStore.EXPECT().LoadStore(gomock.Any()).Return(tc.checkpoint, tc.loadErr)

			engine, err := NewEngine(f.handler, f.mockActionReader, f.mockCheckpointStore, f.mockDeadLetter,
				f.mockPublisher, metrics.New(), logger.NewNop(), f.config)
			if tc.expectedError {
				require.Error(t, err)
				assert.True(t, errors.HasCode(err, errors.CheckpointError))
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tc.expectedOffset, engine.GetActionOffset())
			assert.Equal(t, tc.expectedOffset, engine.GetLastCheckpointOffset())
		})
	}
}

func TestEngine_StartStop(t *testing.T) {
	testCases := []struct {
		name          string
		checkpoint    *checkpointv1.Checkpoint
		startOffset   int64
		setOffsetErr  error
		expectedError bool
	}{
		{
			name:        "start from the beginning",
			startOffset: kafka.FirstOffset,
		},
		{
			name:        "resume after checkpoint",
			checkpoint:  &checkpointv1.Checkpoint{Offset: 41},
			startOffset: 42,
		},
		{
			name:          "set offset failure",
			startOffset:   kafka.FirstOffset,
			setOffsetErr:  stderrors.New("not connected"),
			expectedError: true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			f := setupTestFixture(t)
			defer f.teardown()

			f.mockCheckpointStore.EXPECT().LoadStore(gomock.Any()).Return(tc.checkpoint, nil)
			engine, err := NewEngineWithOptions(f.handler, f.mockActionReader, f.mockCheckpointStore, f.mockDeadLetter,
				f.mockPublisher, metrics.New(), logger.NewNop(), f.config, f.options)
			require.NoError(t, err)

			f.mockActionReader.EXPECT().SetOffset(tc.startOffset).Return(tc.setOffsetErr)

			if tc.expectedError {
				assert.Error(t, engine.Start(context.Background()))
				return
			}

			f.mockActionReader.EXPECT().
				ReadMessage(gomock.Any()).
				DoAndReturn(func(ctx context.Context) (kafka.Message, error) {
					<-ctx.Done()
					return kafka.Message{}, ctx.Err()
				})
			f.mockActionReader.EXPECT().Close().Return(nil)

			require.NoError(t, engine.Start(context.Background()))

			stopCtx, cancel := context.WithTimeout(context.Background(), time.Second)
			defer cancel()
			require.NoError(t, engine.Stop(stopCtx))
		})
	}
}

func TestEngine_ProcessMessage(t *testing.T) {
	transient := errors.Trace("limit_bet_take_error", stderrors.New("connection reset"))
	corrupt := errors.NewErrorDetails("event status is not decodable", string(errors.CorruptBookEntry), "event:e1")

	testCases := []struct {
		name            string
		payload         string
		handle          handleFunc
		setupMocks      func(f *testFixture, entries *[]*deadletterv1.Entry)
		expectedCalls   int
		expectedEntries int
		expectedCode    string
	}{
		{
			name:          "handles valid action",
			payload:       validLimitBet,
			setupMocks:    func(*testFixture, *[]*deadletterv1.Entry) {},
			expectedCalls: 1,
		},
		{
			name:    "parks undecodable record",
			payload: `{"action":"NEW_LIMIT_BET","value":{"event_id":"e1"}}`,
			setupMocks: func(f *testFixture, entries *[]*deadletterv1.Entry) {
				f.mockDeadLetter.EXPECT().
					Publish(gomock.Any(), gomock.Any()).
					DoAndReturn(func(_ context.Context, entry *deadletterv1.Entry) error {
						*entries = append(*entries, entry)
						return nil
					})
			},
			expectedEntries: 1,
			expectedCode:    string(errors.InvalidActionPayload),
		},
		{
			name:    "retries transient failure",
			payload: validLimitBet,
			handle: func(call int, action betv1.Action) (matcher.Result, error) {
				if call < 3 {
					return matcher.Result{}, transient
				}
				return matcher.Result{Action: action.Kind(), Outcome: matcher.OutcomeMatched}, nil
			},
			setupMocks:    func(*testFixture, *[]*deadletterv1.Entry) {},
			expectedCalls: 3,
		},
		{
			name:    "parks action failing permanently",
			payload: validLimitBet,
			handle: func(int, betv1.Action) (matcher.Result, error) {
				return matcher.Result{}, errors.Trace("limit_bet_status_error", corrupt)
			},
			setupMocks: func(f *testFixture, entries *[]*deadletterv1.Entry) {
				f.mockDeadLetter.EXPECT().
					Publish(gomock.Any(), gomock.Any()).
					DoAndReturn(func(_ context.Context, entry *deadletterv1.Entry) error {
						*entries = append(*entries, entry)
						return nil
					})
			},
			expectedCalls:   1,
			expectedEntries: 1,
			expectedCode:    string(errors.CorruptBookEntry),
		},
		{
			name:    "retries dead-letter publish",
			payload: `not json`,
			setupMocks: func(f *testFixture, entries *[]*deadletterv1.Entry) {
				gomock.InOrder(
					f.mockDeadLetter.EXPECT().
						Publish(gomock.Any(), gomock.Any()).
						Return(errors.NewErrorDetails("failed to publish dead-letter entry", string(errors.DeadLetterPublishError), "")),
					f.mockDeadLetter.EXPECT().
						Publish(gomock.Any(), gomock.Any()).
						DoAndReturn(func(_ context.Context, entry *deadletterv1.Entry) error {
							*entries = append(*entries, entry)
							return nil
						}),
				)
			},
			expectedEntries: 1,
			expectedCode:    string(errors.InvalidActionPayload),
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			f := setupTestFixture(t)
			defer f.teardown()

			f.handler.handle = tc.handle
			var entries []*deadletterv1.Entry
			tc.setupMocks(f, &entries)

			engine := createTestEngine(t, f)
			msg := kafka.Message{Topic: "bet-actions", Partition: 3, Offset: 7, Key: []byte("e1"), Value: []byte(tc.payload)}

			require.NoError(t, engine.processMessage(msg))

			assert.Equal(t, tc.expectedCalls, f.handler.calls())
			require.Len(t, entries, tc.expectedEntries)
			if tc.expectedEntries > 0 {
				assert.Equal(t, tc.expectedCode, entries[0].Code)
				assert.Equal(t, int64(7), entries[0].Offset)
				assert.Equal(t, tc.payload, entries[0].Payload)
				assert.Equal(t, fixedNow, entries[0].FailedAt)
			}
		})
	}
}

func TestEngine_ProcessMessageInterrupted(t *testing.T) {
	at := fixedNow
	matched := betv1.NewMatchBatch(at,
		betv1.Order{EventID: "e1", BetID: 3, Side: "DEN", Price: -110},
		76.92,
		betv1.Order{EventID: "e1", BetID: 1, Side: "KAN", Price: 130},
		100,
		false,
	)
	cancelled := betv1.NewSingleBatch(at, betv1.Order{EventID: "e1", BetID: 1, Amount: 23.08, Side: "DEN", Price: -110}, betv1.StatusCancelled)
	publishErr := errors.Trace("execution_emit_error", stderrors.New("broker unavailable"))
	lost := betv1.Order{EventID: "e1", BetID: 9, Amount: 35, Side: "KAN", Price: 130}

	testCases := []struct {
		name            string
		handle          handleFunc
		publishFailures int
		expectedCalls   int
		expectedEmitted []betv1.ExecutionBatch
		expectedEntries int
	}{
		{
			name: "emits pending batches without handling again",
			handle: func(int, betv1.Action) (matcher.Result, error) {
				return matcher.Result{}, &matcher.IncompleteError{
					Action:  betv1.ActionNewLimitBet,
					Pending: []betv1.ExecutionBatch{matched},
					Cause:   publishErr,
				}
			},
			publishFailures: 1,
			expectedCalls:   1,
			expectedEmitted: []betv1.ExecutionBatch{matched},
		},
		{
			name: "handles the rest of the action after the pending batches",
			handle: func(call int, action betv1.Action) (matcher.Result, error) {
				if call == 1 {
					remaining := betv1.Order{EventID: "e1", Sport: "NFL", BetID: 1, BrokerageID: 2, UserID: 3, Amount: 23.08, Price: -110, Side: "DEN"}
					return matcher.Result{}, &matcher.IncompleteError{
						Action:  action.Kind(),
						Pending: []betv1.ExecutionBatch{matched},
						Resume:  betv1.NewLimitBet(remaining),
						Cause:   errors.Trace("limit_bet_take_error", stderrors.New("connection reset")),
					}
				}
				return matcher.Result{Action: action.Kind(), Outcome: matcher.OutcomeCancelled, Batches: []betv1.ExecutionBatch{cancelled}}, nil
			},
			expectedCalls:   2,
			expectedEmitted: []betv1.ExecutionBatch{matched},
		},
		{
			name: "parks the record when orders were lost",
			handle: func(int, betv1.Action) (matcher.Result, error) {
				return matcher.Result{}, &matcher.IncompleteError{
					Action:  betv1.ActionNewLimitBet,
					Pending: []betv1.ExecutionBatch{matched},
					Lost:    []betv1.Order{lost},
					Cause:   errors.Trace("limit_bet_reinsert_error", stderrors.New("connection reset")),
				}
			},
			expectedCalls:   1,
			expectedEmitted: []betv1.ExecutionBatch{matched},
			expectedEntries: 1,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			f := setupTestFixture(t)
			defer f.teardown()

			f.handler.handle = tc.handle

			var emitted []betv1.ExecutionBatch
			failures := tc.publishFailures
			f.mockPublisher.EXPECT().
				Emit(gomock.Any(), "e1", gomock.Any()).
				DoAndReturn(func(_ context.Context, _ string, batch betv1.ExecutionBatch) error {
					if failures > 0 {
						failures--
						return publishErr
					}
					emitted = append(emitted, batch)
					return nil
				}).
				AnyTimes()

			var entries []*deadletterv1.Entry
			f.mockDeadLetter.EXPECT().
				Publish(gomock.Any(), gomock.Any()).
				DoAndReturn(func(_ context.Context, entry *deadletterv1.Entry) error {
					entries = append(entries, entry)
					return nil
				}).
				Times(tc.expectedEntries)

			engine := createTestEngine(t, f)
			msg := kafka.Message{Topic: "bet-actions", Partition: 3, Offset: 7, Key: []byte("e1"), Value: []byte(validLimitBet)}

			require.NoError(t, engine.processMessage(msg))

			assert.Equal(t, tc.expectedCalls, f.handler.calls())
			assert.Equal(t, tc.expectedEmitted, emitted)
			require.Len(t, entries, tc.expectedEntries)
			if tc.expectedEntries > 0 {
				assert.Contains(t, entries[0].Error, "lost bet 9")
			}
		})
	}
}

func TestEngine_ProcessMessageCancelled(t *testing.T) {
	f := setupTestFixture(t)
	defer f.teardown()

	engine := createTestEngine(t, f)
	ctx, cancel := context.WithCancel(context.Background())
	engine.ctx = ctx

	f.handler.handle = func(int, betv1.Action) (matcher.Result, error) {
		cancel()
		return matcher.Result{}, errors.Trace("limit_bet_take_error", stderrors.New("connection reset"))
	}

	err := engine.processMessage(kafka.Message{Offset: 7, Value: []byte(validLimitBet)})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, f.handler.calls())
}

func TestEngine_Checkpoint(t *testing.T) {
	testCases := []struct {
		name                 string
		delta                int64
		actionOffset         int64
		lastCheckpointOffset int64
		storeErr             error
		expectStore          bool
		expectedLast         int64
	}{
		{
			name:                 "nothing handled yet",
			delta:                1,
			actionOffset:         -1,
			lastCheckpointOffset: -1,
			expectedLast:         -1,
		},
		{
			name:                 "first record handled",
			delta:                1,
			actionOffset:         0,
			lastCheckpointOffset: -1,
			expectStore:          true,
			expectedLast:         0,
		},
		{
			name:                 "delta not reached",
			delta:                10,
			actionOffset:         15,
			lastCheckpointOffset: 10,
			expectStore:          false,
			expectedLast:         10,
		},
		{
			name:                 "delta reached",
			delta:                5,
			actionOffset:         15,
			lastCheckpointOffset: 10,
			expectStore:          true,
			expectedLast:         15,
		},
		{
			name:                 "store failure keeps last checkpoint",
			delta:                1,
			actionOffset:         15,
			lastCheckpointOffset: 10,
			storeErr:             errors.NewErrorDetails("failed to store checkpoint", string(errors.CheckpointError), ""),
			expectStore:          true,
			expectedLast:         10,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			f := setupTestFixture(t)
			defer f.teardown()

			f.options.CheckpointOffsetDelta = tc.delta
			engine := createTestEngine(t, f)
			engine.actionOffset = tc.actionOffset
			engine.lastCheckpointOffset = tc.lastCheckpointOffset

			require.Equal(t, tc.expectStore, engine.shouldCheckpoint())
			if tc.expectStore {
				f.mockCheckpointStore.EXPECT().
					Store(gomock.Any(), &checkpointv1.Checkpoint{
						Topic:     "bet-actions",
						Partition: 3,
						Offset:    tc.actionOffset,
						UpdatedAt: fixedNow,
					}).
					Return(tc.storeErr)
				engine.storeCheckpoint(context.Background())
			}

			assert.Equal(t, tc.expectedLast, engine.GetLastCheckpointOffset())
		})
	}
}

func TestEngine_StoreCheckpointSkipsUnchangedOffset(t *testing.T) {
	f := setupTestFixture(t)
	defer f.teardown()

	engine := createTestEngine(t, f)
	engine.actionOffset = 12
	engine.lastCheckpointOffset = 12

	engine.storeCheckpoint(context.Background())
	assert.Equal(t, int64(12), engine.GetLastCheckpointOffset())
}

func TestEngine_RunActionProcessor(t *testing.T) {
	f := setupTestFixture(t)
	defer f.teardown()

	engine := createTestEngine(t, f)

	messages := []kafka.Message{
		{Topic: "bet-actions", Partition: 3, Offset: 0, Key: []byte("e1"), Value: []byte(validLimitBet)},
		{Topic: "bet-actions", Partition: 3, Offset: 1, Key: []byte("e1"), Value: []byte(`{"value":{}}`)},
	}

	f.mockActionReader.EXPECT().SetOffset(kafka.FirstOffset).Return(nil)

	var reads int
	f.mockActionReader.EXPECT().
		ReadMessage(gomock.Any()).
		DoAndReturn(func(ctx context.Context) (kafka.Message, error) {
			if reads < len(messages) {
				msg := messages[reads]
				reads++
				return msg, nil
			}
			<-ctx.Done()
			return kafka.Message{}, ctx.Err()
		}).
		Times(len(messages) + 1)
	f.mockActionReader.EXPECT().Close().Return(nil)

	var (
		mu      sync.Mutex
		stored  []int64
		entries []*deadletterv1.Entry
	)
	f.mockCheckpointStore.EXPECT().
		Store(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, checkpoint *checkpointv1.Checkpoint) error {
			mu.Lock()
			defer mu.Unlock()
			stored = append(stored, checkpoint.Offset)
			return nil
		}).
		Times(2)
	f.mockDeadLetter.EXPECT().
		Publish(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, entry *deadletterv1.Entry) error {
			mu.Lock()
			defer mu.Unlock()
			entries = append(entries, entry)
			return nil
		})

	require.NoError(t, engine.Start(context.Background()))
	require.Eventually(t, func() bool {
		return engine.GetLastCheckpointOffset() == 1
	}, time.Second, 5*time.Millisecond)

	stopCtx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, engine.Stop(stopCtx))

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []int64{0, 1}, stored)
	require.Len(t, entries, 1)
	assert.Equal(t, "action", entries[0].Field)
	assert.Equal(t, 1, f.handler.calls())
	assert.Equal(t, int64(1), engine.GetActionOffset())
}

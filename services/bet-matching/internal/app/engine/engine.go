package engine

import (
	"context"
	stderrors "errors"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/muhammadchandra19/bet-exchange/pkg/errors"
	"github.com/muhammadchandra19/bet-exchange/pkg/logger"
	"github.com/muhammadchandra19/bet-exchange/pkg/util"
	actionreaderv1 "github.com/muhammadchandra19/bet-exchange/services/bet-matching/internal/domain/action-reader/v1"
	betv1 "github.com/muhammadchandra19/bet-exchange/services/bet-matching/internal/domain/bet/v1"
	checkpointv1 "github.com/muhammadchandra19/bet-exchange/services/bet-matching/internal/domain/checkpoint/v1"
	deadletterv1 "github.com/muhammadchandra19/bet-exchange/services/bet-matching/internal/domain/dead-letter/v1"
	executionpublisherv1 "github.com/muhammadchandra19/bet-exchange/services/bet-matching/internal/domain/execution-publisher/v1"
	"github.com/muhammadchandra19/bet-exchange/services/bet-matching/internal/metrics"
	deadletter "github.com/muhammadchandra19/bet-exchange/services/bet-matching/internal/usecase/dead-letter"
	"github.com/muhammadchandra19/bet-exchange/services/bet-matching/internal/usecase/matcher"
	"github.com/muhammadchandra19/bet-exchange/services/bet-matching/pkg/config"
	"github.com/segmentio/kafka-go"
)

// ActionHandler applies one decoded action to the books.
type ActionHandler interface {
	Handle(ctx context.Context, action betv1.Action) (matcher.Result, error)
}

// Engine consumes one partition of the action topic, one record at a time.
//
// A record is checkpointed only once it has been fully handled or parked on
// the dead-letter topic. A record whose handling fails before it changed the
// books is handled again until it succeeds, so the partition never skips
// ahead. One interrupted after it changed the books is finished from where it
// stopped instead.
type Engine struct {
	handler         ActionHandler
	actionReader    actionreaderv1.ActionReader
	checkpointStore checkpointv1.Store
	deadLetter      deadletterv1.Publisher
	publisher       executionpublisherv1.Publisher
	metrics         *metrics.Metrics
	logger          logger.Interface
	config          config.ActionKafkaConfig
	options         *Options

	mu                   sync.RWMutex
	actionOffset         int64
	lastCheckpointOffset int64
	checkpointMu         sync.Mutex

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewEngine creates a new instance of Engine with the provided dependencies.
func NewEngine(
	handler ActionHandler,
	actionReader actionreaderv1.ActionReader,
	checkpointStore checkpointv1.Store,
	deadLetter deadletterv1.Publisher,
	publisher executionpublisherv1.Publisher,
	metrics *metrics.Metrics,
	logger logger.Interface,
	config config.ActionKafkaConfig,
) (*Engine, error) {
	return NewEngineWithOptions(handler, actionReader, checkpointStore, deadLetter, publisher, metrics, logger, config, DefaultEngineOptions())
}

// NewEngineWithOptions creates a new engine with custom options. The stored
// checkpoint is loaded before it returns.
func NewEngineWithOptions(
	handler ActionHandler,
	actionReader actionreaderv1.ActionReader,
	checkpointStore checkpointv1.Store,
	deadLetter deadletterv1.Publisher,
	publisher executionpublisherv1.Publisher,
	metrics *metrics.Metrics,
	logger logger.Interface,
	config config.ActionKafkaConfig,
	options *Options,
) (*Engine, error) {
	e := &Engine{
		handler:         handler,
		actionReader:    actionReader,
		checkpointStore: checkpointStore,
		deadLetter:      deadLetter,
		publisher:       publisher,
		metrics:         metrics,
		logger:          logger,
		config:          config,
		options:         options,

		actionOffset:         -1,
		lastCheckpointOffset: -1,
		ctx:                  context.Background(),
	}

	if err := e.loadCheckpoint(context.Background()); err != nil {
		return nil, errors.Trace("engine_checkpoint_load_error", err)
	}

	return e, nil
}

// Start positions the reader after the last checkpointed record and starts
// the processing routines.
func (e *Engine) Start(ctx context.Context) error {
	startOffset := kafka.FirstOffset
	if offset := e.getActionOffset(); offset >= 0 {
		startOffset = offset + 1
	}

	if err := e.actionReader.SetOffset(startOffset); err != nil {
		return errors.Trace("engine_set_offset_error", err)
	}

	e.ctx, e.cancel = context.WithCancel(ctx)

	e.wg.Add(2)
	go e.runActionProcessor()
	go e.runCheckpointManager()

	e.logger.Info("Engine started",
		logger.Field{Key: "topic", Value: e.config.Topic},
		logger.Field{Key: "partition", Value: e.config.Partition},
		logger.Field{Key: "startOffset", Value: startOffset},
	)

	return nil
}

// Stop gracefully shuts down the engine and flushes the checkpoint.
func (e *Engine) Stop(ctx context.Context) error {
	if e.cancel != nil {
		e.cancel()
	}

	done := make(chan struct{})
	go func() {
		e.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		e.storeCheckpoint(ctx)
		e.logger.Info("Engine stopped gracefully", logger.Field{Key: "offset", Value: e.getActionOffset()})
		return nil
	case <-ctx.Done():
		e.logger.Warn("Engine stop timeout exceeded")
		return ctx.Err()
	}
}

func (e *Engine) runActionProcessor() {
	defer e.wg.Done()

	e.logger.Info("Starting action processor")

	for {
		msg, err := e.actionReader.ReadMessage(e.ctx)
		if err != nil {
			if e.ctx.Err() != nil {
				e.logger.Info("Action processor shutting down")
				if err := e.actionReader.Close(); err != nil {
					e.logger.Error(err, logger.Field{Key: "action", Value: "close_action_reader"})
				}
				return
			}

			e.logger.ErrorContext(e.ctx, err, logger.Field{Key: "action", Value: "read_action_message"})
			select {
			case <-e.ctx.Done():
			case <-time.After(e.options.RetryInitialInterval):
			}
			continue
		}

		if err := e.processMessage(msg); err != nil {
			// Only cancellation stops a record; it is read again on restart.
			continue
		}

		e.setActionOffset(msg.Offset)
		if e.shouldCheckpoint() {
			e.storeCheckpoint(e.ctx)
		}
	}
}

func (e *Engine) runCheckpointManager() {
	defer e.wg.Done()

	ticker := time.NewTicker(e.options.CheckpointInterval)
	defer ticker.Stop()

	e.logger.Info("Starting checkpoint manager")

	for {
		select {
		case <-e.ctx.Done():
			e.logger.Info("Checkpoint manager shutting down")
			return
		case <-ticker.C:
			e.storeCheckpoint(e.ctx)
		}
	}
}

// processMessage decodes and handles one record. It returns an error only
// when the engine is stopping before the record was dealt with.
func (e *Engine) processMessage(msg kafka.Message) error {
	ctx := util.WithRequestID(e.ctx, "")

	e.logger.DebugContext(ctx, "Processing action",
		logger.Field{Key: "offset", Value: msg.Offset},
		logger.Field{Key: "key", Value: string(msg.Key)},
	)

	action, err := betv1.DecodeAction(msg.Value)
	if err != nil {
		return e.park(ctx, msg, err)
	}

	result, err := e.handleAction(ctx, action)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return e.park(ctx, msg, err)
	}

	e.logger.DebugContext(ctx, "Action handled",
		logger.Field{Key: "action", Value: result.Action},
		logger.Field{Key: "outcome", Value: result.Outcome},
		logger.Field{Key: "batches", Value: len(result.Batches)},
	)
	return nil
}

// handleAction handles action, handling it again for as long as it fails
// without having changed the books.
func (e *Engine) handleAction(ctx context.Context, action betv1.Action) (matcher.Result, error) {
	var (
		result     matcher.Result
		incomplete *matcher.IncompleteError
	)
	operation := func() error {
		start := time.Now()
		res, err := e.handler.Handle(ctx, action)
		if stderrors.As(err, &incomplete) {
			e.metrics.ObserveAction(action.Kind(), metrics.OutcomeIncomplete, time.Since(start))
			return nil
		}
		if err != nil {
			e.metrics.ObserveAction(action.Kind(), metrics.OutcomeFailed, time.Since(start))
			if isPermanent(err) {
				return backoff.Permanent(err)
			}
			return err
		}

		e.metrics.ObserveAction(action.Kind(), string(res.Outcome), time.Since(start))
		result = res
		return nil
	}

	if err := e.retry(ctx, operation, "handle_action"); err != nil {
		return matcher.Result{}, err
	}
	if incomplete != nil {
		return e.complete(ctx, incomplete)
	}

	e.metrics.ObserveBatches(result.Batches)
	return result, nil
}

// complete finishes an action interrupted after it changed the books. Its
// pending batches are emitted and the rest of it is handled. Orders it could
// not put back are returned as an error so the record gets parked.
func (e *Engine) complete(ctx context.Context, incomplete *matcher.IncompleteError) (matcher.Result, error) {
	e.logger.WarnContext(ctx, "Action interrupted after changing the books",
		logger.Field{Key: "action", Value: incomplete.Action},
		logger.Field{Key: "pending", Value: len(incomplete.Pending)},
		logger.Field{Key: "resume", Value: incomplete.Resume != nil},
		logger.Field{Key: "lost", Value: len(incomplete.Lost)},
		logger.Field{Key: "error", Value: incomplete.Cause.Error()},
	)

	if err := e.flush(ctx, incomplete.Pending); err != nil {
		return matcher.Result{}, err
	}

	result := matcher.Result{Action: incomplete.Action}
	result.Batches = append(result.Batches, incomplete.Emitted...)
	result.Batches = append(result.Batches, incomplete.Pending...)
	e.metrics.ObserveBatches(result.Batches)

	if incomplete.Resume != nil {
		rest, err := e.handleAction(ctx, incomplete.Resume)
		if err != nil {
			return matcher.Result{}, err
		}
		result.Outcome = rest.Outcome
		result.Batches = append(result.Batches, rest.Batches...)
	}

	if len(incomplete.Lost) > 0 {
		return result, incomplete
	}
	return result, nil
}

// flush emits batches in order, retrying each until it is published.
func (e *Engine) flush(ctx context.Context, batches []betv1.ExecutionBatch) error {
	for _, batch := range batches {
		batch := batch
		err := e.retry(ctx, func() error {
			return e.publisher.Emit(ctx, batch.EventID, batch)
		}, "emit_pending_batch")
		if err != nil {
			return err
		}
	}
	return nil
}

// park publishes msg to the dead-letter topic so the partition can move on.
func (e *Engine) park(ctx context.Context, msg kafka.Message, cause error) error {
	entry := deadletter.NewEntry(msg, cause, e.options.Clock())

	err := e.retry(ctx, func() error {
		return e.deadLetter.Publish(ctx, entry)
	}, "publish_dead_letter")
	if err != nil {
		return err
	}

	e.metrics.DeadLetter()
	return nil
}

// retry runs operation until it succeeds, fails permanently or ctx is done.
func (e *Engine) retry(ctx context.Context, operation backoff.Operation, action string) error {
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = e.options.RetryInitialInterval
	policy.MaxInterval = e.options.RetryMaxInterval
	policy.MaxElapsedTime = 0

	attempt := 0
	return backoff.RetryNotify(func() error {
		attempt++
		return operation()
	}, backoff.WithContext(policy, ctx), func(err error, delay time.Duration) {
		e.logger.ErrorContext(ctx, err,
			logger.Field{Key: "action", Value: action},
			logger.Field{Key: "attempt", Value: attempt},
			logger.Field{Key: "delay", Value: delay},
		)
	})
}

// isPermanent reports errors that no amount of retrying will fix.
func isPermanent(err error) bool {
	return errors.HasCode(err, errors.CorruptBookEntry) ||
		errors.HasCode(err, errors.InvalidOrderAmount) ||
		errors.HasCode(err, errors.InvalidActionPayload)
}

func (e *Engine) shouldCheckpoint() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()

	if e.actionOffset < 0 {
		return false
	}
	return e.actionOffset-e.lastCheckpointOffset >= e.options.CheckpointOffsetDelta
}

// storeCheckpoint stores the current offset if it moved since the last
// checkpoint. Calls are serialized so checkpoints never go backwards.
func (e *Engine) storeCheckpoint(ctx context.Context) {
	e.checkpointMu.Lock()
	defer e.checkpointMu.Unlock()

	offset := e.getActionOffset()
	if offset <= e.getLastCheckpointOffset() {
		return
	}

	checkpoint := &checkpointv1.Checkpoint{
		Topic:     e.config.Topic,
		Partition: e.config.Partition,
		Offset:    offset,
		UpdatedAt: e.options.Clock(),
	}

	if err := e.checkpointStore.Store(ctx, checkpoint); err != nil {
		e.logger.ErrorContext(ctx, err, logger.Field{Key: "action", Value: "store_checkpoint"})
		return
	}

	e.setLastCheckpointOffset(offset)
	e.logger.Debug("Checkpoint stored", logger.Field{Key: "offset", Value: offset})
}

func (e *Engine) loadCheckpoint(ctx context.Context) error {
	checkpoint, err := e.checkpointStore.LoadStore(ctx)
	if err != nil {
		return err
	}

	if checkpoint != nil {
		e.mu.Lock()
		e.actionOffset = checkpoint.Offset
		e.lastCheckpointOffset = checkpoint.Offset
		e.mu.Unlock()

		e.logger.Info("Resuming from checkpoint", logger.Field{Key: "offset", Value: checkpoint.Offset})
	}

	return nil
}

func (e *Engine) getActionOffset() int64 {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.actionOffset
}

func (e *Engine) setActionOffset(offset int64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.actionOffset = offset
}

func (e *Engine) getLastCheckpointOffset() int64 {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.lastCheckpointOffset
}

func (e *Engine) setLastCheckpointOffset(offset int64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.lastCheckpointOffset = offset
}

// GetActionOffset returns the offset of the last handled record.
func (e *Engine) GetActionOffset() int64 {
	return e.getActionOffset()
}

// GetLastCheckpointOffset returns the last checkpointed offset.
func (e *Engine) GetLastCheckpointOffset() int64 {
	return e.getLastCheckpointOffset()
}

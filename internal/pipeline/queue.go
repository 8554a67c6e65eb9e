package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/memohai/converse/internal/metrics"
)

// ErrQueueFull is returned by Enqueue when no slot is free.
var ErrQueueFull = errors.New("pipeline queue full")

// ErrQueueStopped is returned by Enqueue after Stop.
var ErrQueueStopped = errors.New("pipeline queue stopped")

// Processor handles one event.
type Processor interface {
	Process(ctx context.Context, ev Event) error
}

// Queue runs events on a fixed pool of workers so webhook handlers can
// acknowledge immediately.
type Queue struct {
	processor Processor
	tasks     chan Event
	workers   int
	timeout   time.Duration
	metrics   *metrics.Metrics
	logger    *slog.Logger

	once   sync.Once
	mu     sync.RWMutex
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	// events taken off the channel by a worker after cancellation
	abandoned atomic.Int64
}

func NewQueue(log *slog.Logger, processor Processor, workers, size int, timeout time.Duration, m *metrics.Metrics) *Queue {
	if workers <= 0 {
		workers = 1
	}
	if size <= 0 {
		size = 1
	}
	return &Queue{
		processor: processor,
		tasks:     make(chan Event, size),
		workers:   workers,
		timeout:   timeout,
		metrics:   m,
		logger:    log.With(slog.String("component", "pipeline_queue")),
	}
}

// Start launches the workers once. They stop when ctx is done or Stop is called.
func (q *Queue) Start(ctx context.Context) {
	q.once.Do(func() {
		if ctx == nil {
			ctx = context.Background()
		}
		q.mu.Lock()
		q.ctx, q.cancel = context.WithCancel(ctx)
		q.mu.Unlock()
		for i := 0; i < q.workers; i++ {
			q.wg.Add(1)
			go q.run(q.ctx)
		}
	})
}

// Stop cancels the workers and waits for in-flight events. Events still
// buffered are discarded and counted as dropped.
func (q *Queue) Stop() {
	q.mu.RLock()
	cancel := q.cancel
	q.mu.RUnlock()
	if cancel != nil {
		cancel()
	}
	q.wg.Wait()

	dropped := int(q.abandoned.Swap(0))
drain:
	for {
		select {
		case ev := <-q.tasks:
			q.metrics.Event(string(ev.Kind), metrics.OutcomeDropped)
			dropped++
		default:
			break drain
		}
	}
	q.metrics.SetQueueDepth(0)
	if dropped > 0 {
		q.logger.Warn("pending events dropped on stop", slog.Int("dropped", dropped))
	}
}

// Enqueue hands ev to a worker without blocking.
func (q *Queue) Enqueue(ev Event) error {
	q.mu.RLock()
	ctx := q.ctx
	q.mu.RUnlock()
	if ctx != nil && ctx.Err() != nil {
		return ErrQueueStopped
	}
	select {
	case q.tasks <- ev:
		q.metrics.SetQueueDepth(len(q.tasks))
		return nil
	default:
		q.metrics.Event(string(ev.Kind), metrics.OutcomeRejected)
		return ErrQueueFull
	}
}

func (q *Queue) run(ctx context.Context) {
	defer q.wg.Done()
	for {
		if ctx.Err() != nil {
			return
		}
		select {
		case <-ctx.Done():
			return
		case ev := <-q.tasks:
			if ctx.Err() != nil {
				q.metrics.Event(string(ev.Kind), metrics.OutcomeDropped)
				q.abandoned.Add(1)
				return
			}
			q.metrics.SetQueueDepth(len(q.tasks))
			q.handle(ctx, ev)
		}
	}
}

func (q *Queue) handle(ctx context.Context, ev Event) {
	taskCtx := context.WithoutCancel(ctx)
	if q.timeout > 0 {
		var cancel context.CancelFunc
		taskCtx, cancel = context.WithTimeout(taskCtx, q.timeout)
		defer cancel()
	}
	defer func() {
		if r := recover(); r != nil {
			q.logger.Error("event processing panicked",
				slog.String("team_id", ev.TeamID),
				slog.String("user_id", ev.UserID),
				slog.Any("panic", r),
			)
		}
	}()
	if err := q.processor.Process(taskCtx, ev); err != nil {
		q.logger.Error("event processing failed",
			slog.String("team_id", ev.TeamID),
			slog.String("user_id", ev.UserID),
			slog.String("kind", string(ev.Kind)),
			slog.Any("error", err),
		)
	}
}

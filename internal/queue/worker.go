package queue

import (
	"context"
	"encoding/json"
	"time"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"

	"github.com/LeventeLantos/relief-admin/internal/metrics"
)

type Dequeuer interface {
	Dequeue(ctx context.Context, queue string) (Task, error)
}

type Handler func(ctx context.Context, payload json.RawMessage) error

// Handle adapts a typed function to a Handler that decodes the payload first.
func Handle[T any](fn func(ctx context.Context, p T) error) Handler {
	return func(ctx context.Context, payload json.RawMessage) error {
		var p T
		if err := json.Unmarshal(payload, &p); err != nil {
			return errors.Wrap(err, "decode payload")
		}
		return fn(ctx, p)
	}
}

// Worker drains registered queues in order, running each task synchronously.
// Failed tasks are logged and dropped.
type Worker struct {
	src       Dequeuer
	batchSize int
	queues    []string
	handlers  map[string]Handler
	log       *zap.Logger
}

func NewWorker(src Dequeuer, batchSize int, log *zap.Logger) *Worker {
	return &Worker{
		src:       src,
		batchSize: batchSize,
		handlers:  map[string]Handler{},
		log:       log.Named("worker"),
	}
}

// Register binds a task type on a queue to its handler.
func (w *Worker) Register(queue, taskType string, h Handler) {
	key := queue + "/" + taskType
	if _, dup := w.handlers[key]; dup {
		panic("queue: duplicate handler for " + key)
	}
	w.handlers[key] = h

	for _, q := range w.queues {
		if q == queue {
			return
		}
	}
	w.queues = append(w.queues, queue)
}

// Drain runs up to batchSize tasks from each queue and returns how many ran.
func (w *Worker) Drain(ctx context.Context) int {
	ran := 0
	for _, q := range w.queues {
		for i := 0; i < w.batchSize; i++ {
			if ctx.Err() != nil {
				return ran
			}
			t, err := w.src.Dequeue(ctx, q)
			if errors.Is(err, ErrEmpty) {
				break
			}
			if err != nil {
				w.log.Error("dequeue failed", zap.String("queue", q), zap.Error(err))
				break
			}
			w.run(ctx, t)
			ran++
		}
	}
	return ran
}

func (w *Worker) run(ctx context.Context, t Task) {
	log := w.log.With(zap.String("task_id", t.ID), zap.String("queue", t.Queue), zap.String("type", t.Type))

	h, ok := w.handlers[t.Queue+"/"+t.Type]
	if !ok {
		log.Error("no handler for task")
		metrics.Tasks.WithLabelValues(t.Queue, t.Type, "unhandled").Inc()
		return
	}

	start := time.Now()
	if err := h(ctx, t.Payload); err != nil {
		log.Error("task failed", zap.Error(err), zap.Int64("duration_ms", time.Since(start).Milliseconds()))
		metrics.Tasks.WithLabelValues(t.Queue, t.Type, "error").Inc()
		return
	}
	log.Info("task completed", zap.Int64("duration_ms", time.Since(start).Milliseconds()))
	metrics.Tasks.WithLabelValues(t.Queue, t.Type, "ok").Inc()
}

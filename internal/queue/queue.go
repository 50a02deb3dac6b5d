package queue

import (
	"context"
	"encoding/json"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Queue names.
const (
	SMS            = "sms"
	BulkCSVUpload  = "bulk_csv_upload"
	VolunteerGroup = "volunteer_group"
)

// Task types.
const (
	TaskDispatchSMS   = "dispatch_sms"
	TaskImportInmates = "import_inmates"
	TaskAssignGroup   = "assign_group"
)

var ErrEmpty = errors.New("queue empty")

type Task struct {
	ID         string          `json:"id"`
	Queue      string          `json:"queue"`
	Type       string          `json:"type"`
	Payload    json.RawMessage `json:"payload"`
	EnqueuedAt time.Time       `json:"enqueuedAt"`
}

type Enqueuer interface {
	Enqueue(ctx context.Context, queue, taskType string, payload any) (string, error)
}

// RedisQueue keeps one Redis list per queue: LPUSH to enqueue, RPOP to take the
// oldest task. Delivery is at least once from the producer's side; a task popped
// by a worker that then dies is lost.
type RedisQueue struct {
	rdb    *redis.Client
	prefix string
	now    func() time.Time
}

func NewRedisQueue(rdb *redis.Client) *RedisQueue {
	return &RedisQueue{rdb: rdb, prefix: "queue:", now: time.Now}
}

func (q *RedisQueue) key(name string) string {
	return q.prefix + name
}

func (q *RedisQueue) Enqueue(ctx context.Context, queue, taskType string, payload any) (string, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return "", errors.Wrapf(err, "encode %s payload", taskType)
	}

	t := Task{
		ID:         uuid.NewString(),
		Queue:      queue,
		Type:       taskType,
		Payload:    raw,
		EnqueuedAt: q.now().UTC(),
	}
	b, err := json.Marshal(t)
	if err != nil {
		return "", err
	}

	if err := q.rdb.LPush(ctx, q.key(queue), b).Err(); err != nil {
		return "", errors.Wrapf(err, "enqueue %s on %s", taskType, queue)
	}
	return t.ID, nil
}

// Dequeue pops the oldest task, or returns ErrEmpty.
func (q *RedisQueue) Dequeue(ctx context.Context, queue string) (Task, error) {
	b, err := q.rdb.RPop(ctx, q.key(queue)).Bytes()
	if errors.Is(err, redis.Nil) {
		return Task{}, ErrEmpty
	}
	if err != nil {
		return Task{}, errors.Wrapf(err, "dequeue from %s", queue)
	}

	var t Task
	if err := json.Unmarshal(b, &t); err != nil {
		return Task{}, errors.Wrapf(err, "decode task from %s", queue)
	}
	return t, nil
}

func (q *RedisQueue) Len(ctx context.Context, queue string) (int64, error) {
	return q.rdb.LLen(ctx, q.key(queue)).Result()
}

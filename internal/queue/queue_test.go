package queue

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newQueue(t *testing.T) (*miniredis.Miniredis, *RedisQueue) {
	t.Helper()

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	q := NewRedisQueue(rdb)
	q.now = func() time.Time { return time.Date(2018, 8, 20, 12, 0, 0, 0, time.UTC) }
	return mr, q
}

type smsPayload struct {
	JobID int64 `json:"jobId"`
}

func TestRedisQueue_EnqueueDequeueFIFO(t *testing.T) {
	t.Parallel()

	mr, q := newQueue(t)
	ctx := context.Background()

	id1, err := q.Enqueue(ctx, SMS, "dispatch", smsPayload{JobID: 1})
	require.NoError(t, err)
	id2, err := q.Enqueue(ctx, SMS, "dispatch", smsPayload{JobID: 2})
	require.NoError(t, err)

	_, err = uuid.Parse(id1)
	require.NoError(t, err)
	assert.NotEqual(t, id1, id2)
	assert.True(t, mr.Exists("queue:sms"))

	n, err := q.Len(ctx, SMS)
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)

	first, err := q.Dequeue(ctx, SMS)
	require.NoError(t, err)
	assert.Equal(t, id1, first.ID)
	assert.Equal(t, SMS, first.Queue)
	assert.Equal(t, "dispatch", first.Type)
	assert.JSONEq(t, `{"jobId":1}`, string(first.Payload))
	assert.True(t, first.EnqueuedAt.Equal(time.Date(2018, 8, 20, 12, 0, 0, 0, time.UTC)))

	second, err := q.Dequeue(ctx, SMS)
	require.NoError(t, err)
	assert.Equal(t, id2, second.ID)

	_, err = q.Dequeue(ctx, SMS)
	assert.True(t, errors.Is(err, ErrEmpty))
}

func TestRedisQueue_QueuesAreIndependent(t *testing.T) {
	t.Parallel()

	_, q := newQueue(t)
	ctx := context.Background()

	_, err := q.Enqueue(ctx, VolunteerGroup, "assign", map[string]any{"groupId": 3})
	require.NoError(t, err)

	_, err = q.Dequeue(ctx, SMS)
	assert.True(t, errors.Is(err, ErrEmpty))

	task, err := q.Dequeue(ctx, VolunteerGroup)
	require.NoError(t, err)
	assert.Equal(t, "assign", task.Type)
}

func TestRedisQueue_EnqueueRejectsUnencodablePayload(t *testing.T) {
	t.Parallel()

	_, q := newQueue(t)
	_, err := q.Enqueue(context.Background(), SMS, "dispatch", make(chan int))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "encode dispatch payload")
}

func TestRedisQueue_DequeueCorruptEntry(t *testing.T) {
	t.Parallel()

	mr, q := newQueue(t)
	_, err := mr.Lpush("queue:sms", "not json")
	require.NoError(t, err)

	_, err = q.Dequeue(context.Background(), SMS)
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrEmpty))
}

func TestRedisQueue_RedisDown(t *testing.T) {
	t.Parallel()

	mr, q := newQueue(t)
	mr.Close()

	_, err := q.Enqueue(context.Background(), SMS, "dispatch", smsPayload{JobID: 1})
	require.Error(t, err)

	_, err = q.Dequeue(context.Background(), SMS)
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrEmpty))
}

func TestWorker_DrainRunsHandlersPerQueue(t *testing.T) {
	t.Parallel()

	_, q := newQueue(t)
	ctx := context.Background()

	for i := int64(1); i <= 3; i++ {
		_, err := q.Enqueue(ctx, SMS, "dispatch", smsPayload{JobID: i})
		require.NoError(t, err)
	}
	_, err := q.Enqueue(ctx, BulkCSVUpload, "import", smsPayload{JobID: 9})
	require.NoError(t, err)

	var got []int64
	var imported int
	w := NewWorker(q, 2, zap.NewNop())
	w.Register(SMS, "dispatch", Handle(func(_ context.Context, p smsPayload) error {
		got = append(got, p.JobID)
		return nil
	}))
	w.Register(BulkCSVUpload, "import", func(context.Context, json.RawMessage) error {
		imported++
		return nil
	})

	assert.Equal(t, 3, w.Drain(ctx))
	assert.Equal(t, []int64{1, 2}, got)
	assert.Equal(t, 1, imported)

	assert.Equal(t, 1, w.Drain(ctx))
	assert.Equal(t, []int64{1, 2, 3}, got)

	assert.Equal(t, 0, w.Drain(ctx))
}

func TestWorker_FailedTaskIsDropped(t *testing.T) {
	t.Parallel()

	_, q := newQueue(t)
	ctx := context.Background()

	_, err := q.Enqueue(ctx, SMS, "dispatch", smsPayload{JobID: 1})
	require.NoError(t, err)
	_, err = q.Enqueue(ctx, SMS, "unknown", smsPayload{JobID: 2})
	require.NoError(t, err)
	_, err = q.Enqueue(ctx, SMS, "dispatch", smsPayload{JobID: 3})
	require.NoError(t, err)

	var calls int
	w := NewWorker(q, 10, zap.NewNop())
	w.Register(SMS, "dispatch", Handle(func(_ context.Context, p smsPayload) error {
		calls++
		if p.JobID == 1 {
			return errors.New("gateway down")
		}
		return nil
	}))

	assert.Equal(t, 3, w.Drain(ctx))
	assert.Equal(t, 2, calls)

	n, err := q.Len(ctx, SMS)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestWorker_HandleRejectsBadPayload(t *testing.T) {
	h := Handle(func(context.Context, smsPayload) error { return nil })
	err := h(context.Background(), json.RawMessage(`{"jobId":"x"}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode payload")
}

func TestWorker_DrainStopsOnCancelledContext(t *testing.T) {
	t.Parallel()

	_, q := newQueue(t)
	_, err := q.Enqueue(context.Background(), SMS, "dispatch", smsPayload{JobID: 1})
	require.NoError(t, err)

	w := NewWorker(q, 10, zap.NewNop())
	w.Register(SMS, "dispatch", func(context.Context, json.RawMessage) error { return nil })

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.Equal(t, 0, w.Drain(ctx))
}

func TestWorker_RegisterDuplicatePanics(t *testing.T) {
	w := NewWorker(nil, 1, zap.NewNop())
	w.Register(SMS, "dispatch", func(context.Context, json.RawMessage) error { return nil })
	assert.Panics(t, func() {
		w.Register(SMS, "dispatch", func(context.Context, json.RawMessage) error { return nil })
	})
}

package queue

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestQueue(t *testing.T) (*Queue, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	q, err := NewQueue("redis://"+mr.Addr(), "store_jobs")
	require.NoError(t, err)
	t.Cleanup(func() { q.Close() })
	return q, mr
}

func enqueueAndDequeue(t *testing.T, q *Queue) *Job {
	t.Helper()
	ctx := context.Background()

	err := q.Enqueue(ctx, JobTypeOrderConfirmation, map[string]interface{}{
		"email":         "cliente@example.com",
		"nombre":        "Lucía",
		"numero_pedido": "PED-20260830120000-ABCD1234",
		"total":         "49.97",
	})
	require.NoError(t, err)

	job, err := q.Dequeue(ctx, time.Second)
	require.NoError(t, err)
	require.NotNil(t, job)
	return job
}

func TestEnqueueDequeue(t *testing.T) {
	q, _ := newTestQueue(t)

	job := enqueueAndDequeue(t, q)
	assert.Equal(t, JobTypeOrderConfirmation, job.Type)
	assert.Equal(t, "cliente@example.com", job.Data["email"])
	assert.NotEmpty(t, job.ID)

	// El job dequeued queda aparcado en la lista processing.
	processing, err := q.client.LLen(context.Background(), q.processing).Result()
	require.NoError(t, err)
	assert.Equal(t, int64(1), processing)
}

func TestEnqueueGeneratesUniqueIDs(t *testing.T) {
	q, _ := newTestQueue(t)
	ctx := context.Background()

	seen := make(map[string]bool)
	for i := 0; i < 20; i++ {
		require.NoError(t, q.Enqueue(ctx, JobTypeOrderStatusEmail, map[string]interface{}{}))
	}
	for i := 0; i < 20; i++ {
		job, err := q.Dequeue(ctx, time.Second)
		require.NoError(t, err)
		require.NotNil(t, job)
		assert.False(t, seen[job.ID], "id repetido: %s", job.ID)
		seen[job.ID] = true
	}
}

func TestCompleteJobRemovesProcessingEntry(t *testing.T) {
	q, _ := newTestQueue(t)
	ctx := context.Background()

	job := enqueueAndDequeue(t, q)
	require.NoError(t, q.CompleteJob(ctx, job))

	processing, err := q.client.LLen(ctx, q.processing).Result()
	require.NoError(t, err)
	assert.Equal(t, int64(0), processing)
}

func TestFailJobRemovesProcessingEntry(t *testing.T) {
	q, _ := newTestQueue(t)
	ctx := context.Background()

	job := enqueueAndDequeue(t, q)
	require.NoError(t, q.FailJob(ctx, job, errors.New("smtp down")))

	// El reintento va a la cola delayed y la copia en processing desaparece:
	// si quedara ahí, cada fallo filtraría una entrada para siempre.
	processing, err := q.client.LLen(ctx, q.processing).Result()
	require.NoError(t, err)
	assert.Equal(t, int64(0), processing)

	delayed, err := q.client.ZCard(ctx, q.queueName+":delayed").Result()
	require.NoError(t, err)
	assert.Equal(t, int64(1), delayed)
	assert.Equal(t, 1, job.RetryCount)
}

func TestFailJobExhaustsToFailedQueue(t *testing.T) {
	q, _ := newTestQueue(t)
	ctx := context.Background()

	job := enqueueAndDequeue(t, q)
	job.RetryCount = 5

	require.NoError(t, q.FailJob(ctx, job, errors.New("smtp down")))

	processing, err := q.client.LLen(ctx, q.processing).Result()
	require.NoError(t, err)
	assert.Equal(t, int64(0), processing)

	failed, err := q.client.LLen(ctx, q.failed).Result()
	require.NoError(t, err)
	assert.Equal(t, int64(1), failed)
}

func TestProcessDelayedJobsMovesDueJobs(t *testing.T) {
	q, _ := newTestQueue(t)
	ctx := context.Background()

	job := enqueueAndDequeue(t, q)
	require.NoError(t, q.FailJob(ctx, job, errors.New("smtp down")))

	// Aún no ha vencido el backoff de 15s.
	require.NoError(t, q.ProcessDelayedJobs(ctx))
	length, err := q.client.LLen(ctx, q.queueName).Result()
	require.NoError(t, err)
	assert.Equal(t, int64(0), length)

	// Adelantamos el vencimiento reescribiendo el score del miembro.
	delayedQueue := q.queueName + ":delayed"
	members, err := q.client.ZRange(ctx, delayedQueue, 0, -1).Result()
	require.NoError(t, err)
	require.Len(t, members, 1)
	due := float64(time.Now().Add(-time.Second).Unix())
	require.NoError(t, q.client.ZAdd(ctx, delayedQueue, &redis.Z{Score: due, Member: members[0]}).Err())

	require.NoError(t, q.ProcessDelayedJobs(ctx))
	length, err = q.client.LLen(ctx, q.queueName).Result()
	require.NoError(t, err)
	assert.Equal(t, int64(1), length)

	retried, err := q.Dequeue(ctx, time.Second)
	require.NoError(t, err)
	require.NotNil(t, retried)
	assert.Equal(t, job.ID, retried.ID)
	assert.Equal(t, 1, retried.RetryCount)
}

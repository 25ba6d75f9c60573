package payment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"sync"

	"github.com/redis/go-redis/v9"
)

const (
	cleanupQueueKey      = "settlement:cleanup:pending"
	cleanupProcessingKey = "settlement:cleanup:processing"
)

// CleanupQueue holds cart removals that failed after a durable payment.
//
// Pop hands a task out without forgetting it: the task stays parked until
// Ack, and Recover returns parked tasks to the queue after a crash. Cart
// removal is idempotent, so handling a task twice is harmless.
type CleanupQueue interface {
	Push(ctx context.Context, task CleanupTask) error
	Pop(ctx context.Context) (CleanupTask, bool, error)
	Ack(ctx context.Context, task CleanupTask) error
	Recover(ctx context.Context) (int64, error)
	Len(ctx context.Context) (int64, error)
}

// RedisCleanupQueue is a FIFO list in Redis shared by every instance, with
// a processing list holding popped but unacknowledged tasks.
type RedisCleanupQueue struct {
	client     *redis.Client
	key        string
	processing string
}

// NewRedisCleanupQueue builds a queue on the given client.
func NewRedisCleanupQueue(client *redis.Client) *RedisCleanupQueue {
	return &RedisCleanupQueue{client: client, key: cleanupQueueKey, processing: cleanupProcessingKey}
}

func (q *RedisCleanupQueue) Push(ctx context.Context, task CleanupTask) error {
	raw, err := json.Marshal(task)
	if err != nil {
		return fmt.Errorf("encode cleanup task: %w", err)
	}
	return q.client.LPush(ctx, q.key, raw).Err()
}

// Pop atomically moves the oldest task onto the processing list.
func (q *RedisCleanupQueue) Pop(ctx context.Context) (CleanupTask, bool, error) {
	raw, err := q.client.LMove(ctx, q.key, q.processing, "RIGHT", "LEFT").Result()
	if errors.Is(err, redis.Nil) {
		return CleanupTask{}, false, nil
	}
	if err != nil {
		return CleanupTask{}, false, err
	}
	var task CleanupTask
	if err := json.Unmarshal([]byte(raw), &task); err != nil {
		// Drop undecodable entries so they cannot wedge the queue.
		q.client.LRem(ctx, q.processing, 1, raw)
		return CleanupTask{}, false, fmt.Errorf("decode cleanup task: %w", err)
	}
	task.receipt = raw
	return task, true, nil
}

// Ack removes a popped task from the processing list.
func (q *RedisCleanupQueue) Ack(ctx context.Context, task CleanupTask) error {
	if task.receipt == "" {
		return nil
	}
	return q.client.LRem(ctx, q.processing, 1, task.receipt).Err()
}

// Recover puts every unacknowledged task back at the head of the queue.
func (q *RedisCleanupQueue) Recover(ctx context.Context) (int64, error) {
	var n int64
	for {
		err := q.client.LMove(ctx, q.processing, q.key, "RIGHT", "RIGHT").Err()
		if errors.Is(err, redis.Nil) {
			return n, nil
		}
		if err != nil {
			return n, err
		}
		n++
	}
}

func (q *RedisCleanupQueue) Len(ctx context.Context) (int64, error) {
	return q.client.LLen(ctx, q.key).Result()
}

// MemoryCleanupQueue is a process-local queue for dev and tests.
type MemoryCleanupQueue struct {
	mu       sync.Mutex
	tasks    []CleanupTask
	inflight map[string]CleanupTask
	seq      int
}

// NewMemoryCleanupQueue returns an empty queue.
func NewMemoryCleanupQueue() *MemoryCleanupQueue {
	return &MemoryCleanupQueue{inflight: make(map[string]CleanupTask)}
}

func (q *MemoryCleanupQueue) Push(_ context.Context, task CleanupTask) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	task.receipt = ""
	q.tasks = append(q.tasks, task)
	return nil
}

func (q *MemoryCleanupQueue) Pop(_ context.Context) (CleanupTask, bool, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.tasks) == 0 {
		return CleanupTask{}, false, nil
	}
	task := q.tasks[0]
	q.tasks = q.tasks[1:]
	q.seq++
	task.receipt = strconv.Itoa(q.seq)
	q.inflight[task.receipt] = task
	return task, true, nil
}

func (q *MemoryCleanupQueue) Ack(_ context.Context, task CleanupTask) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	delete(q.inflight, task.receipt)
	return nil
}

func (q *MemoryCleanupQueue) Recover(_ context.Context) (int64, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	recovered := make([]CleanupTask, 0, len(q.inflight)+len(q.tasks))
	for receipt, task := range q.inflight {
		task.receipt = ""
		recovered = append(recovered, task)
		delete(q.inflight, receipt)
	}
	n := int64(len(recovered))
	q.tasks = append(recovered, q.tasks...)
	return n, nil
}

func (q *MemoryCleanupQueue) Len(_ context.Context) (int64, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	return int64(len(q.tasks)), nil
}

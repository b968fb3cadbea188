// Package queue runs catalog imports in the background.
//
// A job is any type with a Handle method. Register every job type at boot so
// workers can rebuild it from its serialized form, then Dispatch:
//
//	queue.Register("*jobs.ImportFeedJob", func() queue.Job { return &jobs.ImportFeedJob{} })
//	queue.Dispatch(&jobs.ImportFeedJob{Path: "feeds/acme.csv", Profile: "default"})
//
// The default driver keeps jobs in process memory. Swap in Redis when a
// dispatched import must survive the dispatching process:
//
//	queue.SetDriver(queue.NewRedisDriver(cache.RDB))
//	queue.StartWorkers(ctx, 4)
package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/shashiranjanraj/vastra/pkg/logger"
	"github.com/shashiranjanraj/vastra/pkg/metrics"
)

// Job is a unit of background work.
type Job interface {
	Handle() error
}

// Driver is the queue transport. Push enqueues a serialized job; Pop blocks
// until one is available or ctx is cancelled. A nil payload with a nil error
// means "nothing yet, poll again".
type Driver interface {
	Push(payload []byte) error
	Pop(ctx context.Context) ([]byte, error)
}

var (
	mu       sync.RWMutex
	driver   Driver = NewMemoryDriver()
	registry        = map[string]func() Job{}
	maxRetry        = 3
)

// SetDriver swaps the queue transport. Call before StartWorkers.
func SetDriver(d Driver) {
	mu.Lock()
	driver = d
	mu.Unlock()
}

// SetMaxRetry sets how many attempts a job gets before it is parked in the
// failed jobs table.
func SetMaxRetry(n int) {
	mu.Lock()
	maxRetry = n
	mu.Unlock()
}

// Register maps a serialized type name to a constructor. Workers drop jobs
// whose type was never registered.
func Register(name string, factory func() Job) {
	mu.Lock()
	registry[name] = factory
	mu.Unlock()
}

type envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// Dispatch serializes job and pushes it onto the queue.
func Dispatch(job Job) error {
	name := fmt.Sprintf("%T", job)
	payload, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("queue: marshal %s: %w", name, err)
	}
	raw, err := json.Marshal(envelope{Type: name, Payload: payload})
	if err != nil {
		return fmt.Errorf("queue: marshal envelope: %w", err)
	}

	mu.RLock()
	d := driver
	mu.RUnlock()
	return d.Push(raw)
}

// StartWorkers launches n workers that pop and run jobs until ctx is
// cancelled.
func StartWorkers(ctx context.Context, n int) {
	for i := 0; i < n; i++ {
		go work(ctx)
	}
	logger.Info("queue: workers started", "count", n)
}

func work(ctx context.Context) {
	for ctx.Err() == nil {
		mu.RLock()
		d := driver
		mu.RUnlock()

		raw, err := d.Pop(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			time.Sleep(500 * time.Millisecond)
			continue
		}
		if raw == nil {
			continue
		}
		run(raw)
	}
}

func run(raw []byte) {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		logger.Error("queue: bad envelope", "error", err)
		return
	}

	mu.RLock()
	factory, ok := registry[env.Type]
	retries := maxRetry
	mu.RUnlock()
	if !ok {
		logger.Warn("queue: unregistered job type", "type", env.Type)
		return
	}

	job := factory()
	if err := json.Unmarshal(env.Payload, job); err != nil {
		logger.Error("queue: unmarshal payload", "type", env.Type, "error", err)
		return
	}

	var lastErr error
	for attempt := 1; attempt <= retries; attempt++ {
		if lastErr = job.Handle(); lastErr == nil {
			metrics.QueueJobsProcessed.WithLabelValues("success").Inc()
			logger.Info("queue: job processed", "type", env.Type)
			return
		}
		logger.Warn("queue: job failed",
			"type", env.Type, "attempt", attempt, "error", lastErr)
		if attempt < retries {
			time.Sleep(time.Duration(attempt) * time.Second)
		}
	}

	metrics.QueueJobsProcessed.WithLabelValues("failed").Inc()
	parkFailed(job, env.Type, lastErr, retries)
	logger.Error("queue: job exhausted retries", "type", env.Type, "error", lastErr)
}

// Package schedule runs recurring tasks such as the feed directory watcher.
//
// Usage:
//
//	schedule.EveryMinute().Name("feed-watch").WithoutOverlapping().Run(watcher.Scan)
//	schedule.Cron("0 3 * * *").Name("nightly-import").Run(runNightly)
//
//	// Start the loop once at boot:
//	schedule.Start(ctx)
package schedule

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/shashiranjanraj/vastra/pkg/logger"
)

// Task is a scheduled function. Long scans pair with WithoutOverlapping so a
// slow pass never stacks on top of itself.
type Task func()

type job struct {
	id        string
	every     time.Duration
	cronExpr  string // set only via Cron()
	task      Task
	lastRun   time.Time
	running   bool
	noOverlap bool
	mu        sync.Mutex
}

// Schedule builds a single job before Run registers it.
type Schedule struct {
	j *job
}

var (
	regMu sync.Mutex
	jobs  []*job
)

// EveryMinute schedules the task to run every 60 seconds.
func EveryMinute() *Schedule { return Every(1).Minutes() }

// Hourly schedules the task to run every hour.
func Hourly() *Schedule { return Every(1).Hours() }

// Daily schedules the task to run every 24 hours.
func Daily() *Schedule { return Every(24).Hours() }

// Every starts a fluent builder with n units.
func Every(n int) *freqBuilder { return &freqBuilder{n: n} }

type freqBuilder struct{ n int }

func (f *freqBuilder) Seconds() *Schedule {
	return &Schedule{j: &job{every: time.Duration(f.n) * time.Second}}
}

func (f *freqBuilder) Minutes() *Schedule {
	return &Schedule{j: &job{every: time.Duration(f.n) * time.Minute}}
}

func (f *freqBuilder) Hours() *Schedule {
	return &Schedule{j: &job{every: time.Duration(f.n) * time.Hour}}
}

// Cron schedules with a 5-field expression (min hour dom mon dow).
func Cron(expr string) *Schedule {
	return &Schedule{j: &job{cronExpr: expr}}
}

// WithoutOverlapping skips a tick while the previous run is still executing.
func (s *Schedule) WithoutOverlapping() *Schedule {
	s.j.noOverlap = true
	return s
}

// Name sets the identifier used in logs.
func (s *Schedule) Name(id string) *Schedule {
	s.j.id = id
	return s
}

// Run registers the task. Start must be called for anything to fire.
func (s *Schedule) Run(fn Task) {
	s.j.task = fn
	regMu.Lock()
	if s.j.id == "" {
		s.j.id = fmt.Sprintf("task-%d", len(jobs)+1)
	}
	jobs = append(jobs, s.j)
	regMu.Unlock()
}

// Start begins the dispatch loop in the background. The loop ticks every
// second; interval jobs fire immediately on the first tick, cron jobs wait
// for a matching minute.
func Start(ctx context.Context) {
	go loop(ctx)
	logger.Info("schedule: started")
}

func loop(ctx context.Context) {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("schedule: stopped")
			return
		case now := <-ticker.C:
			regMu.Lock()
			due := make([]*job, len(jobs))
			copy(due, jobs)
			regMu.Unlock()

			for _, j := range due {
				if j.due(now) {
					j.fire()
				}
			}
		}
	}
}

func (j *job) due(now time.Time) bool {
	if j.cronExpr != "" {
		return matchCron(j.cronExpr, now)
	}
	if j.lastRun.IsZero() {
		return true
	}
	return now.Sub(j.lastRun) >= j.every
}

func (j *job) fire() {
	j.mu.Lock()
	if j.noOverlap && j.running {
		j.mu.Unlock()
		logger.Warn("schedule: run still in progress, skipping", "id", j.id)
		return
	}
	j.running = true
	j.lastRun = time.Now()
	j.mu.Unlock()

	go func() {
		defer func() {
			j.mu.Lock()
			j.running = false
			j.mu.Unlock()
			if r := recover(); r != nil {
				logger.Error("schedule: task panicked", "id", j.id, "panic", r)
			}
		}()

		logger.Info("schedule: running", "id", j.id)
		j.task()
	}()
}

// Cron matching supports: * | n | */step | a-b per field.

func matchCron(expr string, t time.Time) bool {
	fields := strings.Fields(expr)
	if len(fields) != 5 {
		return false
	}
	vals := []int{t.Minute(), t.Hour(), t.Day(), int(t.Month()), int(t.Weekday())}
	for i, f := range fields {
		if !matchField(f, vals[i]) {
			return false
		}
	}
	return true
}

func matchField(field string, val int) bool {
	if field == "*" {
		return true
	}
	if strings.HasPrefix(field, "*/") {
		var step int
		fmt.Sscanf(field[2:], "%d", &step)
		return step > 0 && val%step == 0
	}
	if strings.Contains(field, "-") {
		var lo, hi int
		fmt.Sscanf(field, "%d-%d", &lo, &hi)
		return val >= lo && val <= hi
	}
	var n int
	fmt.Sscanf(field, "%d", &n)
	return n == val
}

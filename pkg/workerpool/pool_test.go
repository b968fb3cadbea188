package workerpool_test

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shashiranjanraj/vastra/pkg/workerpool"
)

func TestRunsEverySubmittedTask(t *testing.T) {
	pool := workerpool.New(4)
	defer pool.Shutdown()

	const n = 100
	var ran atomic.Int64
	var wg sync.WaitGroup
	wg.Add(n)

	for i := 0; i < n; i++ {
		require.NoError(t, pool.SubmitWait(func() {
			defer wg.Done()
			ran.Add(1)
		}))
	}
	wg.Wait()

	assert.Equal(t, int64(n), ran.Load())
}

func TestSubmitRejectsWhenFull(t *testing.T) {
	pool := workerpool.New(1)
	defer pool.Shutdown()

	release := make(chan struct{})
	busy := make(chan struct{})
	require.NoError(t, pool.SubmitWait(func() {
		close(busy)
		<-release
	}))
	<-busy

	// Worker count 1 means a queue of two slots.
	require.NoError(t, pool.Submit(func() {}))
	require.NoError(t, pool.Submit(func() {}))

	assert.ErrorIs(t, pool.Submit(func() {}), workerpool.ErrPoolFull)
	close(release)
}

func TestSubmitWaitPausesProducer(t *testing.T) {
	pool := workerpool.NewWithQueue(1, 1)
	defer pool.Shutdown()

	release := make(chan struct{})
	busy := make(chan struct{})
	require.NoError(t, pool.SubmitWait(func() {
		close(busy)
		<-release
	}))
	<-busy
	require.NoError(t, pool.SubmitWait(func() {})) // fills the queue

	unblocked := make(chan struct{})
	go func() {
		_ = pool.SubmitWait(func() {})
		close(unblocked)
	}()

	select {
	case <-unblocked:
		t.Fatal("SubmitWait returned while the queue was full")
	case <-time.After(50 * time.Millisecond):
	}

	close(release)
	select {
	case <-unblocked:
	case <-time.After(2 * time.Second):
		t.Fatal("SubmitWait never unblocked after the queue drained")
	}
}

func TestSubmitAfterShutdown(t *testing.T) {
	pool := workerpool.New(2)
	pool.Shutdown()

	assert.ErrorIs(t, pool.Submit(func() {}), workerpool.ErrPoolClosed)
	assert.ErrorIs(t, pool.SubmitWait(func() {}), workerpool.ErrPoolClosed)
}

func TestWorkerSurvivesPanic(t *testing.T) {
	pool := workerpool.New(1)
	defer pool.Shutdown()

	var wg sync.WaitGroup
	wg.Add(1)
	require.NoError(t, pool.SubmitWait(func() {
		defer wg.Done()
		panic("bad unit")
	}))
	wg.Wait()

	// The single worker must still be alive to run this.
	done := make(chan struct{})
	require.NoError(t, pool.SubmitWait(func() { close(done) }))
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("worker never ran a task after a panic")
	}
}

func TestShutdownDrainsQueuedTasks(t *testing.T) {
	pool := workerpool.NewWithQueue(2, 20)

	var ran atomic.Int64
	for i := 0; i < 20; i++ {
		require.NoError(t, pool.SubmitWait(func() {
			time.Sleep(time.Millisecond)
			ran.Add(1)
		}))
	}
	pool.Shutdown()

	assert.Equal(t, int64(20), ran.Load())
}

package application_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ericfisherdev/cursorswitch/internal/application"
)

func waitCtx(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)
	return ctx
}

func TestRunner_SubmitReturnsResult(t *testing.T) {
	runner := application.NewRunner(2, nil)

	op := runner.Submit(context.Background(), "refresh_all", func(context.Context) (any, error) {
		return 42, nil
	})
	require.NotEmpty(t, op.ID())
	assert.Equal(t, "refresh_all", op.Kind())

	result, err := op.Wait(waitCtx(t))
	require.NoError(t, err)
	assert.Equal(t, 42, result)

	snap := op.Snapshot()
	assert.Equal(t, application.OperationSucceeded, snap.Status)
	assert.NotNil(t, snap.StartedAt)
	assert.NotNil(t, snap.FinishedAt)
	assert.Empty(t, snap.Error)
}

func TestRunner_FailureIsRecorded(t *testing.T) {
	runner := application.NewRunner(2, nil)
	boom := errors.New("boom")

	op := runner.Submit(context.Background(), "save", func(context.Context) (any, error) {
		return nil, boom
	})

	_, err := op.Wait(waitCtx(t))
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, application.OperationFailed, op.Snapshot().Status)
	assert.Equal(t, "boom", op.Snapshot().Error)
}

func TestRunner_PanicBecomesError(t *testing.T) {
	runner := application.NewRunner(2, nil)

	op := runner.Submit(context.Background(), "logout", func(context.Context) (any, error) {
		panic("unexpected nil")
	})

	_, err := op.Wait(waitCtx(t))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unexpected nil")
}

func TestRunner_WorkSurvivesSubmitterCancellation(t *testing.T) {
	runner := application.NewRunner(2, nil)
	ctx, cancel := context.WithCancel(context.Background())
	release := make(chan struct{})

	op := runner.Submit(ctx, "restore", func(workCtx context.Context) (any, error) {
		<-release
		return nil, workCtx.Err()
	})
	cancel()
	close(release)

	_, err := op.Wait(waitCtx(t))
	assert.NoError(t, err)
}

func TestRunner_BoundsConcurrency(t *testing.T) {
	const workers = 3
	runner := application.NewRunner(workers, nil)

	var running, peak atomic.Int32
	release := make(chan struct{})

	ops := make([]*application.Operation, 10)
	for i := range ops {
		ops[i] = runner.Submit(context.Background(), "refresh_all", func(context.Context) (any, error) {
			n := running.Add(1)
			for {
				p := peak.Load()
				if n <= p || peak.CompareAndSwap(p, n) {
					break
				}
			}
			<-release
			running.Add(-1)
			return nil, nil
		})
	}

	require.Eventually(t, func() bool { return running.Load() == workers }, 2*time.Second, 10*time.Millisecond)
	close(release)
	runner.Wait()

	assert.Equal(t, int32(workers), peak.Load())
	for _, op := range ops {
		assert.Equal(t, application.OperationSucceeded, op.Snapshot().Status)
	}
}

func TestRunner_MinimumPoolSize(t *testing.T) {
	runner := application.NewRunner(0, nil)

	var running atomic.Int32
	release := make(chan struct{})
	for i := 0; i < 2; i++ {
		runner.Submit(context.Background(), "save", func(context.Context) (any, error) {
			running.Add(1)
			<-release
			return nil, nil
		})
	}

	assert.Eventually(t, func() bool { return running.Load() == 2 }, 2*time.Second, 10*time.Millisecond)
	close(release)
	runner.Wait()
}

func TestRunner_GetAndRetention(t *testing.T) {
	runner := application.NewRunner(4, nil)

	_, ok := runner.Get("does-not-exist")
	assert.False(t, ok)

	first := runner.Submit(context.Background(), "save", func(context.Context) (any, error) { return nil, nil })
	got, ok := runner.Get(first.ID())
	require.True(t, ok)
	assert.Same(t, first, got)
	runner.Wait()

	for i := 0; i < 100; i++ {
		runner.Submit(context.Background(), "save", func(context.Context) (any, error) { return nil, nil })
	}
	runner.Wait()

	_, ok = runner.Get(first.ID())
	assert.False(t, ok, "oldest finished operation is evicted past the retention limit")
}

func TestRunner_PublishesLifecycleEvents(t *testing.T) {
	bus := application.NewEventBus()
	events, unsubscribe := bus.Subscribe(8)
	defer unsubscribe()

	runner := application.NewRunner(2, bus)
	op := runner.Submit(context.Background(), "export", func(context.Context) (any, error) { return "ok", nil })
	_, err := op.Wait(waitCtx(t))
	require.NoError(t, err)

	var got []application.EventType
	timeout := time.After(2 * time.Second)
	for len(got) < 2 {
		select {
		case e := <-events:
			require.NotNil(t, e.Operation)
			assert.Equal(t, op.ID(), e.Operation.ID)
			got = append(got, e.Type)
		case <-timeout:
			t.Fatalf("received %d of 2 events", len(got))
		}
	}
	assert.Equal(t, []application.EventType{
		application.EventOperationStarted,
		application.EventOperationFinished,
	}, got)
}

func TestOperation_WaitHonorsContext(t *testing.T) {
	runner := application.NewRunner(2, nil)
	release := make(chan struct{})
	defer close(release)

	op := runner.Submit(context.Background(), "refresh_all", func(context.Context) (any, error) {
		<-release
		return nil, nil
	})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := op.Wait(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

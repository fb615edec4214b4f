package future

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestFutureCompleteThenWait(t *testing.T) {
	f, c := New[int]()
	c.Complete(42)

	v, err := f.Wait(context.Background())
	require.NoError(t, err)
	require.Equal(t, 42, v)
	require.True(t, c.IsCompleted())
}

func TestFutureWaitThenComplete(t *testing.T) {
	f, c := New[string]()
	done := make(chan struct{})
	go func() {
		defer close(done)
		v, err := f.Wait(context.Background())
		require.NoError(t, err)
		require.Equal(t, "hello", v)
	}()

	time.Sleep(10 * time.Millisecond)
	c.Complete("hello")
	<-done
}

func TestFutureDoubleCompletePanics(t *testing.T) {
	_, c := New[int]()
	c.Complete(1)
	require.Panics(t, func() { c.Complete(2) })
}

func TestFutureCancelThenComplete(t *testing.T) {
	f, c := New[int]()
	c.Cancel()

	_, err := f.Wait(context.Background())
	require.ErrorIs(t, err, ErrCancelled)
	require.Panics(t, func() { c.Complete(1) })
}

func TestFutureCancelIsIdempotent(t *testing.T) {
	_, c := New[int]()
	c.Cancel()
	require.NotPanics(t, func() { c.Cancel() })
}

func TestFutureWaitRespectsContext(t *testing.T) {
	f, _ := New[int]()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Millisecond)
	defer cancel()

	_, err := f.Wait(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestFutureMultipleWaitersObserveSameValue(t *testing.T) {
	f, c := New[int]()
	c.Complete(7)

	v1, err1 := f.Wait(context.Background())
	v2, err2 := f.Wait(context.Background())
	require.NoError(t, err1)
	require.NoError(t, err2)
	require.Equal(t, 7, v1)
	require.Equal(t, 7, v2)
}

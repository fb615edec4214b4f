package future

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestStreamPushOrderPreserved(t *testing.T) {
	s, p := NewStream[int]()
	for i := 0; i < 100; i++ {
		p.Push(i)
	}
	p.Close()

	for i := 0; i < 100; i++ {
		v, err := s.Next(context.Background())
		require.NoError(t, err)
		require.Equal(t, i, v)
	}
	_, err := s.Next(context.Background())
	require.ErrorIs(t, err, io.EOF)
}

func TestStreamCloseWithoutItemsYieldsEOF(t *testing.T) {
	s, p := NewStream[string]()
	p.Close()

	_, err := s.Next(context.Background())
	require.ErrorIs(t, err, io.EOF)
}

func TestStreamCloseIsIdempotent(t *testing.T) {
	_, p := NewStream[int]()
	require.NotPanics(t, func() {
		p.Close()
		p.Close()
	})
}

func TestStreamPushAfterCloseIsNoOp(t *testing.T) {
	s, p := NewStream[int]()
	p.Close()
	p.Push(1)

	_, err := s.Next(context.Background())
	require.ErrorIs(t, err, io.EOF)
}

func TestStreamNextBlocksUntilPush(t *testing.T) {
	s, p := NewStream[int]()
	go func() {
		time.Sleep(10 * time.Millisecond)
		p.Push(99)
	}()

	v, err := s.Next(context.Background())
	require.NoError(t, err)
	require.Equal(t, 99, v)
}

func TestStreamNextRespectsContext(t *testing.T) {
	s, _ := NewStream[int]()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Millisecond)
	defer cancel()

	_, err := s.Next(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

package result

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestFlowOrdering(t *testing.T) {
	defer goleak.VerifyNone(t)

	got := Collect(Flow(context.Background(), func(_ context.Context, emit Emitter[int]) {
		emit(Success(7))
	}))

	require.Len(t, got, 3)
	assert.Equal(t, Loading[int](true), got[0])
	assert.Equal(t, Success(7), got[1])
	assert.Equal(t, Loading[int](false), got[2])
}

func TestFlowRecoversPanic(t *testing.T) {
	defer goleak.VerifyNone(t)

	got := Collect(Flow(context.Background(), func(_ context.Context, _ Emitter[string]) {
		panic("boom")
	}))

	require.Len(t, got, 3)
	assert.Equal(t, KindError, got[1].Kind)
	assert.Contains(t, got[1].Message, "boom")
	assert.Equal(t, Loading[string](false), got[2])
}

func TestFlowCancelledConsumer(t *testing.T) {
	defer goleak.VerifyNone(t)

	ctx, cancel := context.WithCancel(context.Background())
	release := make(chan struct{})
	s := Flow(ctx, func(ctx context.Context, emit Emitter[int]) {
		<-release
		emit(Success(1))
	})

	first := <-s
	assert.Equal(t, Loading[int](true), first)
	cancel()
	close(release)

	for r := range s {
		t.Errorf("unexpected emission after cancel: %v", r)
	}
}

func TestOutcome(t *testing.T) {
	rs := []Result[int]{Loading[int](true), ErrorWith("bad", 3), Loading[int](false)}
	r, ok := Outcome(rs)
	require.True(t, ok)
	assert.Equal(t, "bad", r.Message)
	assert.True(t, r.HasData)
	assert.Equal(t, 3, r.Data)

	_, ok = Outcome([]Result[int]{Loading[int](true)})
	assert.False(t, ok)
}

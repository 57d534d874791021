package publish

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestSleepOrInterruptedReturnsFalseOnNaturalTimeout(t *testing.T) {
	in := NewInterrupter()
	cut := in.SleepOrInterrupted(context.Background(), 10*time.Millisecond)
	require.False(t, cut)
}

func TestSleepOrInterruptedReturnsTrueOnInterrupt(t *testing.T) {
	in := NewInterrupter()

	done := make(chan bool, 1)
	go func() {
		done <- in.SleepOrInterrupted(context.Background(), time.Minute)
	}()

	time.Sleep(10 * time.Millisecond)
	in.Interrupt()

	select {
	case cut := <-done:
		require.True(t, cut)
	case <-time.After(time.Second):
		t.Fatal("SleepOrInterrupted did not wake on Interrupt")
	}
}

func TestSleepOrInterruptedReturnsTrueOnContextCancel(t *testing.T) {
	in := NewInterrupter()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	cut := in.SleepOrInterrupted(ctx, time.Minute)
	require.True(t, cut)
}

func TestInterruptIsIdempotent(t *testing.T) {
	in := NewInterrupter()
	in.Interrupt()
	require.NotPanics(t, in.Interrupt)
	require.True(t, in.IsSet())
}

func TestClearRearmsAfterInterrupt(t *testing.T) {
	in := NewInterrupter()
	in.Interrupt()
	require.True(t, in.IsSet())

	in.Clear()
	require.False(t, in.IsSet())

	cut := in.SleepOrInterrupted(context.Background(), 10*time.Millisecond)
	require.False(t, cut)
}

func TestClearBeforeInterruptIsNoop(t *testing.T) {
	in := NewInterrupter()
	require.NotPanics(t, in.Clear)
	require.False(t, in.IsSet())
}

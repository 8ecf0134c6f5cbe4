package actor

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"
)

func TestFuture_CompleteSettlesWait(t *testing.T) {
	registry := NewProcessRegistry(LocalAddress, NewEventStream(), NoopMetricsSink)
	f := newFuture(registry, 0, NoopMetricsSink)

	go registry.Get(f.PID()).SendUserMessage(f.PID(), "pong")

	result, err := f.Wait(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, "pong", result)

	assert.Same(t, registry.DeadLetter(), registry.Get(f.PID()))
}

func TestFuture_TimesOutWhenNoReplyArrives(t *testing.T) {
	registry := NewProcessRegistry(LocalAddress, NewEventStream(), NoopMetricsSink)
	f := newFuture(registry, 20*time.Millisecond, NoopMetricsSink)

	_, err := f.Wait(context.Background())
	assert.ErrorIs(t, err, ErrTimeout)
}

func TestFuture_RequestToUnknownPIDFailsWithDeadLetterInsteadOfTimeout(t *testing.T) {
	engine := NewEngine(DefaultConfig())
	defer engine.Shutdown(context.Background())

	unknown := NewPID(LocalAddress, "$does-not-exist")
	// A timeout long enough that the test would hang (or fail slowly) if
	// DeadLetter routing didn't fail the future immediately.
	future := engine.Root().RequestFuture(unknown, "hello", 5*time.Second)

	_, err := future.Wait(context.Background())
	assert.ErrorIs(t, err, ErrDeadLetter)
	assert.NotErrorIs(t, err, ErrTimeout)
}

func TestFuture_OnlyFirstCompletionWins(t *testing.T) {
	registry := NewProcessRegistry(LocalAddress, NewEventStream(), NoopMetricsSink)
	f := newFuture(registry, 0, NoopMetricsSink)

	f.Complete("first")
	f.Complete("second")
	f.Fail(assert.AnError)

	result, err := f.Wait(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, "first", result)
}

func TestFuture_PipeToForwardsResult(t *testing.T) {
	registry := NewProcessRegistry(LocalAddress, NewEventStream(), NoopMetricsSink)
	f := newFuture(registry, 0, NoopMetricsSink)

	invoker := &recordingInvoker{}
	mailbox := NewUnboundedMailbox()
	mailbox.RegisterHandlers(invoker, NewDefaultDispatcher(10))
	mailbox.Start()
	targetProcess := newActorProcess(mailbox)
	targetPID, _ := registry.Add(targetProcess, "$target")

	f.PipeTo(targetPID)
	f.Complete("piped")

	waitForCondition(t, time.Second, func() bool { return len(invoker.userMessages()) == 1 })
	assert.Equal(t, "piped", invoker.userMessages()[0])
}

func TestFuture_SingleCompletionProperty(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		registry := NewProcessRegistry(LocalAddress, NewEventStream(), NoopMetricsSink)
		f := newFuture(registry, 0, NoopMetricsSink)

		attempts := rapid.IntRange(1, 10).Draw(rt, "attempts")
		for i := 0; i < attempts; i++ {
			if i%2 == 0 {
				f.Complete(i)
			} else {
				f.Fail(assert.AnError)
			}
		}

		result, err := f.Wait(context.Background())
		if err != nil {
			if err != assert.AnError {
				rt.Fatalf("unexpected error: %v", err)
			}
			return
		}
		if result != 0 {
			rt.Fatalf("expected the first completion (0), got %v", result)
		}
	})
}

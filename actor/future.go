package actor

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// Future is a one-shot process: it registers itself in a ProcessRegistry
// under a synthetic name, can be sent exactly one completing message (or
// failed), and is removed from the registry the moment it settles.
type Future struct {
	pid     *PID
	process *futureProcess
}

// newFuture builds and registers a Future. A non-positive timeout means the
// future never times out on its own; it still settles when Complete, Fail,
// or a Terminated notification for its target arrives.
func newFuture(registry *ProcessRegistry, timeout time.Duration, metrics MetricsSink) *Future {
	if metrics == nil {
		metrics = NoopMetricsSink
	}
	fp := &futureProcess{
		registry: registry,
		metrics:  metrics,
		done:     make(chan struct{}),
	}
	name := registry.NextID() + "-future-" + uuid.NewString()
	pid, _ := registry.Add(fp, name)
	fp.pid = pid

	if timeout > 0 {
		fp.timer = time.AfterFunc(timeout, func() {
			fp.fail(ErrTimeout)
		})
	}

	metrics.IncCounter("futures_started", nil)
	return &Future{pid: pid, process: fp}
}

// PID is the synthetic address other actors reply to in order to complete
// this future.
func (f *Future) PID() *PID { return f.pid }

// Wait blocks until the future settles or ctx is done, whichever comes
// first.
func (f *Future) Wait(ctx context.Context) (interface{}, error) {
	select {
	case <-f.process.done:
		return f.process.result, f.process.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Complete settles the future successfully with result. A second call, or a
// call after Fail, is a no-op.
func (f *Future) Complete(result interface{}) { f.process.complete(result) }

// Fail settles the future with err. A second call, or a call after
// Complete, is a no-op.
func (f *Future) Fail(err error) { f.process.fail(err) }

// PipeTo forwards this future's eventual result (or failure, wrapped in a
// FutureError) as a user message to target, without the caller having to
// block on Wait itself.
func (f *Future) PipeTo(target *PID) {
	go func() {
		result, err := f.Wait(context.Background())
		process := f.process.registry.Get(target)
		if err != nil {
			process.SendUserMessage(target, NewFutureError(f.pid, err))
			return
		}
		process.SendUserMessage(target, result)
	}()
}

// ContinueWith registers fn to run, on a new goroutine, once the future
// settles.
func (f *Future) ContinueWith(fn func(result interface{}, err error)) {
	go func() {
		result, err := f.Wait(context.Background())
		fn(result, err)
	}()
}

// futureProcess is the Process implementation backing a Future: its
// SendUserMessage completes it, and it only reacts to system messages that
// isLifecycleAck recognizes (see messages.go) rather than settling on every
// system message a busy registry might route to it.
type futureProcess struct {
	pid      *PID
	registry *ProcessRegistry
	metrics  MetricsSink

	mu        sync.Mutex
	completed bool
	done      chan struct{}
	result    interface{}
	err       error
	timer     *time.Timer

	dead atomic.Bool
}

// SendUserMessage completes the future with payload, unless payload is a
// DeadLetterResponse (the request never reached a live process), in which
// case the future fails with ErrDeadLetter instead.
func (fp *futureProcess) SendUserMessage(_ *PID, message interface{}) {
	payload, _ := UnwrapEnvelope(message)
	if dl, ok := payload.(*DeadLetterResponse); ok {
		fp.fail(fmt.Errorf("request to %s: %w", dl.PID, ErrDeadLetter))
		return
	}
	fp.complete(payload)
}

func (fp *futureProcess) SendSystemMessage(_ *PID, message interface{}) {
	if !isLifecycleAck(message) {
		return
	}
	if terminated, ok := message.(*Terminated); ok {
		fp.fail(fmt.Errorf("target %s terminated before completing the future: %w", terminated.Who, ErrTimeout))
	}
}

func (fp *futureProcess) Stop(_ *PID) {
	fp.fail(errors.New("actor: future stopped before completing"))
}

func (fp *futureProcess) SetDead()     { fp.dead.Store(true) }
func (fp *futureProcess) IsDead() bool { return fp.dead.Load() }

func (fp *futureProcess) settle(result interface{}, err error) {
	fp.mu.Lock()
	if fp.completed {
		fp.mu.Unlock()
		return
	}
	fp.completed = true
	fp.result = result
	fp.err = err
	if fp.timer != nil {
		fp.timer.Stop()
	}
	fp.SetDead()
	fp.registry.Remove(fp.pid)
	close(fp.done)
	fp.mu.Unlock()

	if err != nil {
		if errors.Is(err, ErrTimeout) {
			fp.metrics.IncCounter("futures_timed_out", nil)
		} else {
			fp.metrics.IncCounter("futures_failed", nil)
		}
	} else {
		fp.metrics.IncCounter("futures_completed", nil)
	}
}

func (fp *futureProcess) complete(result interface{}) { fp.settle(result, nil) }
func (fp *futureProcess) fail(err error)              { fp.settle(nil, err) }

package actor

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"
)

// recordingInvoker captures every message handed to it, in arrival order,
// guarded by a mutex since the mailbox may schedule turns on different
// goroutines across time even though only one runs at once.
type recordingInvoker struct {
	mu       sync.Mutex
	system   []interface{}
	user     []interface{}
	order    []string
	failNext bool
}

func (r *recordingInvoker) InvokeSystemMessage(message interface{}) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.system = append(r.system, message)
	r.order = append(r.order, "system")
}

func (r *recordingInvoker) InvokeUserMessage(message interface{}) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.user = append(r.user, message)
	r.order = append(r.order, "user")
	if r.failNext {
		r.failNext = false
		return assert.AnError
	}
	return nil
}

func (r *recordingInvoker) EscalateFailure(reason error, message interface{}) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.system = append(r.system, &Failure{Reason: reason, Message: message})
}

func (r *recordingInvoker) userMessages() []interface{} {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]interface{}, len(r.user))
	copy(out, r.user)
	return out
}

func waitForCondition(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(time.Millisecond)
	}
	assert.Fail(t, "condition not met before timeout")
}

func TestMailbox_DeliversUserMessagesInFIFOOrder(t *testing.T) {
	mailbox := NewUnboundedMailbox()
	invoker := &recordingInvoker{}
	mailbox.RegisterHandlers(invoker, NewDefaultDispatcher(10))
	mailbox.Start()

	for i := 0; i < 20; i++ {
		mailbox.PostUserMessage(i)
	}

	waitForCondition(t, time.Second, func() bool { return len(invoker.userMessages()) == 20 })

	for i, msg := range invoker.userMessages() {
		assert.Equal(t, i, msg)
	}
}

func TestMailbox_SystemMessagesDrainBeforeUserMessages(t *testing.T) {
	mailbox := NewUnboundedMailbox()
	invoker := &recordingInvoker{}
	mailbox.RegisterHandlers(invoker, NewDefaultDispatcher(1))

	mailbox.PostUserMessage("user")
	mailbox.PostSystemMessage(startMessageInstance)
	mailbox.Start()

	waitForCondition(t, time.Second, func() bool {
		invoker.mu.Lock()
		defer invoker.mu.Unlock()
		return len(invoker.system) == 1 && len(invoker.user) == 1
	})

	invoker.mu.Lock()
	defer invoker.mu.Unlock()
	assert.Equal(t, []string{"system", "user"}, invoker.order)
}

func TestMailbox_SuspendStopsUserDeliveryUntilResumed(t *testing.T) {
	mailbox := NewUnboundedMailbox()
	invoker := &recordingInvoker{}
	mailbox.RegisterHandlers(invoker, NewDefaultDispatcher(10))
	mailbox.Start()

	mailbox.PostSystemMessage(suspendMailboxInstance)
	mailbox.PostUserMessage("queued while suspended")

	time.Sleep(20 * time.Millisecond)
	assert.Empty(t, invoker.userMessages())

	mailbox.PostSystemMessage(resumeMailboxInstance)
	waitForCondition(t, time.Second, func() bool { return len(invoker.userMessages()) == 1 })
}

func TestMailbox_FailureEscalatesOncePerFailure(t *testing.T) {
	mailbox := NewUnboundedMailbox()
	invoker := &recordingInvoker{failNext: true}
	mailbox.RegisterHandlers(invoker, NewDefaultDispatcher(10))
	mailbox.Start()

	mailbox.PostUserMessage("boom")
	mailbox.PostUserMessage("after")

	waitForCondition(t, time.Second, func() bool {
		invoker.mu.Lock()
		defer invoker.mu.Unlock()
		for _, m := range invoker.system {
			if _, ok := m.(*Failure); ok {
				return true
			}
		}
		return false
	})

	// actorContext.EscalateFailure (actor_context.go) is what actually
	// posts a suspend system message to the mailbox; a bare
	// recordingInvoker doesn't, so "after" is free
	// to be delivered once the turn loops back. This test only pins down
	// that a failing delivery is reported to EscalateFailure exactly once
	// per failure.
	invoker.mu.Lock()
	failures := 0
	for _, m := range invoker.system {
		if _, ok := m.(*Failure); ok {
			failures++
		}
	}
	invoker.mu.Unlock()
	assert.Equal(t, 1, failures)
}

func TestMailbox_FIFOOrderingProperty(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		n := rapid.IntRange(0, 200).Draw(rt, "n")

		mailbox := NewUnboundedMailbox()
		invoker := &recordingInvoker{}
		mailbox.RegisterHandlers(invoker, NewDefaultDispatcher(7))
		mailbox.Start()

		for i := 0; i < n; i++ {
			mailbox.PostUserMessage(i)
		}

		deadline := time.Now().Add(2 * time.Second)
		for time.Now().Before(deadline) && len(invoker.userMessages()) < n {
			time.Sleep(time.Millisecond)
		}

		got := invoker.userMessages()
		if len(got) != n {
			rt.Fatalf("expected %d messages, got %d", n, len(got))
		}
		for i, msg := range got {
			if msg.(int) != i {
				rt.Fatalf("message %d out of order: got %v", i, msg)
			}
		}
	})
}

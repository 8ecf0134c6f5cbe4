package actor

import (
	"sync"
	"sync/atomic"

	"github.com/emirpasic/gods/queues/linkedlistqueue"
)

// Mailbox is the message sink every actor process owns: two FIFO queues
// (system and user), a dispatch latch that guarantees at most one goroutine
// ever drains them at a time, and a throughput bound on how many user
// messages a single scheduled turn delivers.
type Mailbox interface {
	PostUserMessage(message interface{})
	PostSystemMessage(message interface{})

	// RegisterHandlers wires the invoker and dispatcher this mailbox
	// delivers into and schedules through. It must be called exactly
	// once, before Start.
	RegisterHandlers(invoker MessageInvoker, dispatcher Dispatcher)

	// Start marks the mailbox ready to schedule; PostUserMessage and
	// PostSystemMessage calls made before Start are queued but not
	// delivered until this is called (spec 4.5 step 7: mailbox.start()
	// happens only after Start has been posted as a system message).
	Start()

	UserMessageCount() int
}

// MailboxMiddleware observes mailbox activity without participating in
// delivery; used for metrics/logging collaborators.
type MailboxMiddleware interface {
	MailboxStarted()
	MessagePosted(message interface{})
	MessageReceived(message interface{})
	MailboxEmpty()
}

// MailboxProducer builds a fresh Mailbox; Props carries one so a spawn can
// select unbounded, bounded-dropping, or bounded-blocking semantics per
// actor.
type MailboxProducer func() Mailbox

const (
	latchIdle int32 = iota
	latchScheduled
	latchProcessing
)

// defaultMailbox is the Mailbox used unless Props overrides the producer.
// Its user queue may be unbounded (capacity <= 0), bounded-dropping, or
// bounded-blocking; the system queue is always unbounded, since system
// messages must never be dropped.
type defaultMailbox struct {
	systemMu sync.Mutex
	system   *linkedlistqueue.Queue

	userMu   sync.Mutex
	user     *linkedlistqueue.Queue
	userCond *sync.Cond

	userCount atomic.Int64

	capacity int
	blocking bool

	latch     atomic.Int32
	suspended atomic.Bool
	started   atomic.Bool

	invoker    MessageInvoker
	dispatcher Dispatcher
	middleware []MailboxMiddleware
	metrics    MetricsSink
}

// NewUnboundedMailbox builds a Mailbox whose user queue never rejects a
// post, the default used when Props sets no MailboxProducer.
func NewUnboundedMailbox(middleware ...MailboxMiddleware) Mailbox {
	return newDefaultMailbox(0, false, middleware)
}

// NewBoundedMailbox builds a Mailbox whose user queue holds at most
// capacity messages. When blocking is true, PostUserMessage waits for room;
// when false, a post past capacity is dropped silently: PostUserMessage
// returns without enqueueing it, and nothing is published as a dead letter.
func NewBoundedMailbox(capacity int, blocking bool, middleware ...MailboxMiddleware) Mailbox {
	return newDefaultMailbox(capacity, blocking, middleware)
}

func newDefaultMailbox(capacity int, blocking bool, middleware []MailboxMiddleware) *defaultMailbox {
	m := &defaultMailbox{
		system:     linkedlistqueue.New(),
		user:       linkedlistqueue.New(),
		capacity:   capacity,
		blocking:   blocking,
		middleware: middleware,
		metrics:    NoopMetricsSink,
	}
	m.userCond = sync.NewCond(&m.userMu)
	return m
}

func (m *defaultMailbox) RegisterHandlers(invoker MessageInvoker, dispatcher Dispatcher) {
	m.invoker = invoker
	m.dispatcher = dispatcher
}

// setMetrics wires a MetricsSink into the mailbox's per-turn length gauge.
// Not part of the Mailbox interface: a custom MailboxProducer that returns
// something other than *defaultMailbox simply won't report this gauge.
func (m *defaultMailbox) setMetrics(metrics MetricsSink) {
	if metrics != nil {
		m.metrics = metrics
	}
}

func (m *defaultMailbox) Start() {
	m.started.Store(true)
	for _, mw := range m.middleware {
		mw.MailboxStarted()
	}
	m.scheduleIfIdle()
}

func (m *defaultMailbox) UserMessageCount() int {
	return int(m.userCount.Load())
}

func (m *defaultMailbox) PostSystemMessage(message interface{}) {
	m.systemMu.Lock()
	m.system.Enqueue(message)
	m.systemMu.Unlock()

	for _, mw := range m.middleware {
		mw.MessagePosted(message)
	}
	m.scheduleIfIdle()
}

func (m *defaultMailbox) PostUserMessage(message interface{}) {
	m.userMu.Lock()
	if m.capacity > 0 {
		for int(m.userCount.Load()) >= m.capacity {
			if !m.blocking {
				m.userMu.Unlock()
				return
			}
			m.userCond.Wait()
		}
	}
	m.user.Enqueue(message)
	m.userCount.Add(1)
	m.userMu.Unlock()

	for _, mw := range m.middleware {
		mw.MessagePosted(message)
	}
	m.scheduleIfIdle()
}

func (m *defaultMailbox) popSystem() (interface{}, bool) {
	m.systemMu.Lock()
	defer m.systemMu.Unlock()
	return m.system.Dequeue()
}

func (m *defaultMailbox) popUser() (interface{}, bool) {
	m.userMu.Lock()
	value, ok := m.user.Dequeue()
	if ok {
		m.userCount.Add(-1)
		if m.capacity > 0 && m.blocking {
			m.userCond.Signal()
		}
	}
	m.userMu.Unlock()
	return value, ok
}

func (m *defaultMailbox) systemEmpty() bool {
	m.systemMu.Lock()
	defer m.systemMu.Unlock()
	return m.system.Empty()
}

func (m *defaultMailbox) userEmpty() bool {
	return m.userCount.Load() == 0
}

// scheduleIfIdle transitions idle -> scheduled and hands run to the
// dispatcher. Any other latch state means a turn is already scheduled or in
// flight, and that turn will notice the newly posted message itself.
func (m *defaultMailbox) scheduleIfIdle() {
	if !m.started.Load() {
		return
	}
	if m.latch.CompareAndSwap(latchIdle, latchScheduled) {
		m.dispatcher.Schedule(m.run)
	}
}

// run is one dispatcher turn: drain every system message, then (unless the
// mailbox is suspended) deliver up to the dispatcher's throughput worth of
// user messages. A failed user invocation escalates to the invoker, which is
// expected to post a suspend system message to this very mailbox; the loop
// re-drains system messages so that suspend takes effect before any further
// user delivery in this turn.
func (m *defaultMailbox) run() {
	m.latch.Store(latchProcessing)

	for {
		m.drainSystemMessages()

		if m.suspended.Load() {
			break
		}

		failed := m.deliverUserMessages()
		// Read the length here, inside the turn, rather than capturing a
		// snapshot before delivery: a snapshot taken up front under-reports
		// once this turn has already drained part of the backlog.
		m.metrics.ObserveGauge("actor_mailbox_length", float64(m.UserMessageCount()), nil)
		if failed {
			continue
		}
		break
	}

	for _, mw := range m.middleware {
		if m.systemEmpty() && m.userEmpty() {
			mw.MailboxEmpty()
		}
	}

	m.latch.Store(latchIdle)

	if !m.systemEmpty() || !m.userEmpty() {
		m.scheduleIfIdle()
	}
}

func (m *defaultMailbox) drainSystemMessages() {
	if m.invoker == nil {
		return
	}
	for {
		message, ok := m.popSystem()
		if !ok {
			return
		}
		for _, mw := range m.middleware {
			mw.MessageReceived(message)
		}
		switch message.(type) {
		case *suspendMailbox:
			m.suspended.Store(true)
		case *resumeMailbox:
			m.suspended.Store(false)
		default:
			m.invoker.InvokeSystemMessage(message)
		}
	}
}

// deliverUserMessages delivers up to the dispatcher's throughput worth of
// user messages, stopping early (and reporting failed=true) the moment one
// panics or returns an error, so the caller can re-drain system messages
// before resuming.
func (m *defaultMailbox) deliverUserMessages() (failed bool) {
	if m.invoker == nil {
		return false
	}
	throughput := m.dispatcher.Throughput()
	for i := 0; i < throughput; i++ {
		message, ok := m.popUser()
		if !ok {
			return false
		}
		for _, mw := range m.middleware {
			mw.MessageReceived(message)
		}
		if err := m.safeInvokeUser(message); err != nil {
			m.invoker.EscalateFailure(err, message)
			return true
		}
	}
	return false
}

func (m *defaultMailbox) safeInvokeUser(message interface{}) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = recoverAsError(r)
		}
	}()
	return m.invoker.InvokeUserMessage(message)
}

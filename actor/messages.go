package actor

// System messages. These travel on a mailbox's system queue, are always
// drained ahead of user messages, and are handled by MessageInvoker's
// InvokeSystemMessage rather than by the actor's Receive.
type (
	startMessage    struct{}
	stopMessage     struct{}
	restartMessage  struct{}
	suspendMailbox  struct{}
	resumeMailbox   struct{}

	// forceStopMessage fires once a Props' cleanup timeout elapses without
	// every child reaching Terminated, forcing the stop to finish rather
	// than waiting on a child that may itself be stuck.
	forceStopMessage struct{}
)

// Watch requests that watcher be notified with a Terminated message once the
// receiving process reaches Stopped.
type Watch struct{ Watcher *PID }

// Unwatch cancels a prior Watch.
type Unwatch struct{ Watcher *PID }

// Failure is escalated from a child to its parent when the child's Receive
// panics or returns an error, carrying enough context for a
// SupervisorStrategy to decide a Directive.
type Failure struct {
	Who          *PID
	Reason       error
	RestartStats *RestartStatistics
	Message      interface{}
}

var (
	startMessageInstance     = &startMessage{}
	stopMessageInstance      = &stopMessage{}
	restartMessageInstance   = &restartMessage{}
	suspendMailboxInstance   = &suspendMailbox{}
	resumeMailboxInstance    = &resumeMailbox{}
	forceStopMessageInstance = &forceStopMessage{}
)

// Auto-receive messages: intercepted by ActorContext before the underlying
// Actor ever sees them via Receive, except where the actor's Receive method
// is itself how these lifecycle hooks are observed (PreStart, PostStart, ...
// arrive through the normal Receive(ctx) call, just ahead of any user
// traffic and outside the actor's control to suppress).
type (
	// PreStart is delivered once, before the actor processes its first
	// user message.
	PreStart struct{}

	// PostStart is delivered to each fresh incarnation created by a
	// restart, after PreRestart went to the old one. It is not delivered
	// at the initial spawn, where PreStart is the only startup message.
	PostStart struct{}

	// PreRestart is delivered to the old incarnation before it is
	// discarded and a fresh one takes its place.
	PreRestart struct{}

	// PostRestart is defined for completeness with the auto-receive set
	// but is not sent in the restart path: restart delivers PostStart
	// to the new incarnation instead, the way protoactor-go's Restarting
	// handling does. Kept as a distinct type in case a future supervisor
	// strategy needs to distinguish "started fresh" from "restarted".
	PostRestart struct{}

	// PreStop is delivered before an actor's children are asked to stop.
	PreStop struct{}

	// PostStop is delivered once every child has reached Stopped and
	// right before the actor itself is marked dead and deregistered.
	PostStop struct{}
)

// DeadLetterResponse is sent back to a message's Sender (if any) when that
// message is routed to the dead-letter process instead of a live target. A
// Future receiving this fails itself with ErrDeadLetter rather than waiting
// out its timeout.
type DeadLetterResponse struct {
	PID     *PID
	Message interface{}
}

// Terminated notifies a watcher (or a parent, which watches its children
// implicitly) that Who has reached Stopped.
type Terminated struct {
	Who    *PID
	Reason interface{}
}

// PoisonPill is a user message that, once delivered, causes the receiving
// actor to stop as though Stop had been requested. Unlike Stop it travels
// the user queue, so it is processed only after messages already queued
// ahead of it.
type PoisonPill struct{}

// ReceiveTimeout is delivered when no user message arrives within the
// duration configured by Context.SetReceiveTimeout. Its own delivery re-arms
// the timer, so it keeps arriving once per duration of inactivity until the
// actor calls SetReceiveTimeout(0).
type ReceiveTimeout struct{}

// NotInfluenceReceiveTimeout is implemented by messages that should not
// reset the receive-timeout timer when delivered (typically internal
// bookkeeping messages a middleware injects).
type NotInfluenceReceiveTimeout interface {
	notInfluenceReceiveTimeout()
}

// ReadonlyMessageHeader exposes envelope metadata without permitting
// mutation, matching the spec's MessageEnvelope shape.
type ReadonlyMessageHeader interface {
	Get(key string) (string, bool)
	Keys() []string
}

// MessageHeader is a small string-keyed map implementing
// ReadonlyMessageHeader, used to carry cross-cutting metadata (trace ids,
// deadlines expressed as strings) alongside a message without changing its
// Go type.
type MessageHeader map[string]string

func (h MessageHeader) Get(key string) (string, bool) { v, ok := h[key]; return v, ok }

func (h MessageHeader) Keys() []string {
	keys := make([]string, 0, len(h))
	for k := range h {
		keys = append(keys, k)
	}
	return keys
}

// MessageEnvelope pairs a message with an optional header and an optional
// sender PID, used by middleware that needs metadata the bare message type
// cannot carry. Producing an envelope from a plain message is idempotent:
// wrapping an already-wrapped value returns it unchanged rather than
// nesting.
type MessageEnvelope struct {
	Header  ReadonlyMessageHeader
	Message interface{}
	Sender  *PID
}

// WrapEnvelope lifts message into a MessageEnvelope with the given sender.
// If message is already a *MessageEnvelope, its Sender is overwritten only
// when sender is non-nil and the envelope is returned as-is otherwise,
// keeping the operation idempotent.
func WrapEnvelope(message interface{}, sender *PID) *MessageEnvelope {
	if env, ok := message.(*MessageEnvelope); ok {
		if sender != nil {
			env.Sender = sender
		}
		return env
	}
	return &MessageEnvelope{Message: message, Sender: sender}
}

// UnwrapEnvelope returns the underlying message and sender, whether or not
// message was wrapped. This lets Context.Message/Context.Sender stay
// envelope-agnostic.
func UnwrapEnvelope(message interface{}) (payload interface{}, sender *PID) {
	if env, ok := message.(*MessageEnvelope); ok {
		return env.Message, env.Sender
	}
	return message, nil
}

// isLifecycleAck reports whether a system message represents an
// acknowledgement a Future's SendSystemMessage path should treat as
// completion, rather than every system message completing the future. See
// DESIGN.md for why this is gated rather than unconditional.
func isLifecycleAck(message interface{}) bool {
	switch message.(type) {
	case *Terminated:
		return true
	default:
		return false
	}
}

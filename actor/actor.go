package actor

import "time"

// MessageInvoker is the mailbox's counterpart: whatever drains a mailbox's
// queues calls into one of these for every message, letting the mailbox stay
// ignorant of actor lifecycle semantics entirely.
type MessageInvoker interface {
	InvokeSystemMessage(message interface{})
	InvokeUserMessage(message interface{}) error
	EscalateFailure(reason error, message interface{})
}

// Actor is the unit of behavior a Props spawns. Receive is invoked for every
// user message (including the auto-receive lifecycle messages defined in
// messages.go), except PoisonPill, which the context handles itself by
// stopping the actor without calling Receive. Returning an error, or panicking, is
// equivalent: both are recovered by the mailbox and escalated to the
// SupervisorStrategy as a Failure.
type Actor interface {
	Receive(ctx Context) error
}

// ActorFunc adapts a plain function to the Actor interface, mirroring the
// teacher's functional actor convention for small leaf behaviors that don't
// need their own named type.
type ActorFunc func(ctx Context) error

func (f ActorFunc) Receive(ctx Context) error { return f(ctx) }

// Context is the interface an Actor's Receive method uses to interact with
// the runtime: inspect the current message, reply to its sender, spawn
// children, watch other actors, and manage its own lifecycle.
type Context interface {
	// Self is the PID of the actor this context belongs to.
	Self() *PID

	// Parent is the PID of the actor that spawned this one, or nil for a
	// guardian.
	Parent() *PID

	// Sender is the PID that sent the message currently being processed,
	// or nil if it was sent without one (e.g. RootContext.Send).
	Sender() *PID

	// Message returns the payload currently being processed, unwrapped
	// from any MessageEnvelope.
	Message() interface{}

	// Children lists the PIDs of every child this actor has spawned and
	// not yet seen Terminated for.
	Children() []*PID

	// Send delivers message to target's user queue with no sender
	// attached.
	Send(target *PID, message interface{})

	// Request delivers message to target's user queue with Self as
	// sender, so target can Respond.
	Request(target *PID, message interface{})

	// RequestFuture delivers message to target and returns a Future that
	// completes with target's reply, or fails after timeout.
	RequestFuture(target *PID, message interface{}, timeout time.Duration) *Future

	// Respond delivers message to Sender() with Self as sender. It is a
	// no-op if the current message has no sender.
	Respond(message interface{})

	// Spawn starts a child actor from props and returns its PID. The
	// child's id is minted by the registry.
	Spawn(props *Props) *PID

	// SpawnNamed starts a child actor from props under an explicit name,
	// returning ErrNameTaken via SpawnError if name collides.
	SpawnNamed(props *Props, name string) (*PID, error)

	// SpawnPrefix starts a child actor from props under a registry-minted
	// name that begins with prefix.
	SpawnPrefix(props *Props, prefix string) *PID

	// Watch registers interest in pid's Terminated notification.
	Watch(pid *PID)

	// Unwatch cancels a prior Watch.
	Unwatch(pid *PID)

	// Stash defers the current message until after the next restart,
	// replaying every stashed message ahead of new traffic in LIFO order
	// (most recently stashed first).
	Stash()

	// SetReceiveTimeout arms (or, with 0, disarms) a timer that delivers
	// ReceiveTimeout after duration has elapsed with no user message
	// processed.
	SetReceiveTimeout(duration time.Duration)

	// Stop requests pid stop. Calling it with Self() is how an actor
	// stops itself.
	Stop(pid *PID)

	// Poison requests pid stop via PoisonPill, i.e. after messages
	// already queued ahead of it.
	Poison(pid *PID)
}

package actor

import (
	"time"

	"github.com/lightningnetwork/lnd/fn/v2"
)

// Producer constructs a fresh Actor incarnation. Spawn calls it once; a
// restart calls it again to discard the failing incarnation's state.
type Producer func() Actor

// OnInitFunc runs once during Spawn, after self_pid is set on the context but
// before PreStart is invoked (spec 4.5 step 4). Unlike PreStart it is not
// part of the actor's own Receive and is never re-run on restart.
type OnInitFunc func(ctx Context)

// Props describes how to spawn an actor: what Producer builds it, which
// Mailbox it gets, which SupervisorStrategy watches over its children, and
// which middleware wraps message delivery, sending, and spawning itself.
type Props struct {
	producer Producer

	mailboxProducer    MailboxProducer
	dispatcher         Dispatcher
	supervisorStrategy SupervisorStrategy

	receiverMiddleware []ReceiverMiddleware
	senderMiddleware   []SenderMiddleware
	spawnMiddleware    []SpawnMiddleware
	contextDecorators  []ContextDecorator
	onInit             []OnInitFunc

	receiveTimeout fn.Option[time.Duration]
	cleanupTimeout time.Duration
}

// PropsOption configures a Props being built by NewProps.
type PropsOption func(*Props)

// NewProps builds a Props around producer, applying every option in order.
func NewProps(producer Producer, options ...PropsOption) *Props {
	p := &Props{
		producer:           producer,
		mailboxProducer:    func() Mailbox { return NewUnboundedMailbox() },
		supervisorStrategy: NewOneForOneStrategy(10, time.Minute, DefaultDecider),
		receiveTimeout:     fn.None[time.Duration](),
		cleanupTimeout:     5 * time.Second,
	}
	for _, opt := range options {
		opt(p)
	}
	return p
}

// WithMailbox overrides the default unbounded mailbox.
func WithMailbox(producer MailboxProducer) PropsOption {
	return func(p *Props) { p.mailboxProducer = producer }
}

// WithDispatcher overrides the engine's default dispatcher for this actor.
func WithDispatcher(d Dispatcher) PropsOption {
	return func(p *Props) { p.dispatcher = d }
}

// WithSupervisor overrides the default OneForOneStrategy used to react to
// this actor's children's failures.
func WithSupervisor(strategy SupervisorStrategy) PropsOption {
	return func(p *Props) { p.supervisorStrategy = strategy }
}

// WithReceiverMiddleware appends to the chain wrapping every delivered
// message before it reaches the actor's Receive.
func WithReceiverMiddleware(mw ...ReceiverMiddleware) PropsOption {
	return func(p *Props) { p.receiverMiddleware = append(p.receiverMiddleware, mw...) }
}

// WithSenderMiddleware appends to the chain wrapping every outbound Send
// from this actor's context.
func WithSenderMiddleware(mw ...SenderMiddleware) PropsOption {
	return func(p *Props) { p.senderMiddleware = append(p.senderMiddleware, mw...) }
}

// WithSpawnMiddleware appends to the chain wrapping every spawn made from
// this Props. It does not wrap the spawns of this actor's own children,
// which use their own Props' chain.
func WithSpawnMiddleware(mw ...SpawnMiddleware) PropsOption {
	return func(p *Props) { p.spawnMiddleware = append(p.spawnMiddleware, mw...) }
}

// WithContextDecorator appends a decorator applied, in order, to the
// Context handed to this actor's Receive.
func WithContextDecorator(decorators ...ContextDecorator) PropsOption {
	return func(p *Props) { p.contextDecorators = append(p.contextDecorators, decorators...) }
}

// WithReceiveTimeout arms a default receive timeout for every incarnation of
// this actor, equivalent to it calling ctx.SetReceiveTimeout(d) from
// PreStart.
func WithReceiveTimeout(d time.Duration) PropsOption {
	return func(p *Props) { p.receiveTimeout = fn.Some(d) }
}

// WithCleanupTimeout bounds how long Stop waits for this actor's children to
// reach Terminated before forcing the stop to complete anyway.
func WithCleanupTimeout(d time.Duration) PropsOption {
	return func(p *Props) { p.cleanupTimeout = d }
}

// WithOnInit appends hooks run once during Spawn, after self_pid is set but
// before PreStart fires, in the order passed.
func WithOnInit(hooks ...OnInitFunc) PropsOption {
	return func(p *Props) { p.onInit = append(p.onInit, hooks...) }
}

package actor

import (
	"context"
	"time"

	"github.com/emirpasic/gods/stacks/linkedliststack"
)

type contextState int

const (
	stateAlive contextState = iota
	stateRestarting
	stateStopping
	stateStopped
)

// actorContext is the MessageInvoker and Context for one actor incarnation
// slot. Every field below is owned by exactly one goroutine at a time,
// guaranteed by the mailbox's dispatch latch (spec 5): no actorContext field
// needs its own lock.
type actorContext struct {
	engine *Engine
	props  *Props

	self    *PID
	parent  *PID
	mailbox Mailbox

	actor Actor
	state contextState

	message interface{}
	sender  *PID

	children map[string]*PID
	watchers map[string]*PID

	stash *linkedliststack.Stack

	restartStats   *RestartStatistics
	awaitingSettle bool

	receiveTimeout      time.Duration
	receiveTimeoutTimer *time.Timer

	cleanupTimer *time.Timer

	receiverChain ReceiverFunc
	senderChain   SenderFunc
}

func newActorContext(engine *Engine, self, parent *PID, props *Props) *actorContext {
	ctx := &actorContext{
		engine:       engine,
		props:        props,
		self:         self,
		parent:       parent,
		children:     make(map[string]*PID),
		watchers:     make(map[string]*PID),
		stash:        linkedliststack.New(),
		restartStats: NewRestartStatistics(),
	}

	ctx.receiveTimeout = props.receiveTimeout.UnwrapOr(engine.config.ReceiveTimeout.UnwrapOr(0))

	baseReceiver := ReceiverFunc(func(c Context, _ *MessageEnvelope) error {
		return ctx.actor.Receive(c)
	})
	ctx.receiverChain = composeReceiver(baseReceiver, props.receiverMiddleware)

	baseSender := SenderFunc(func(_ Context, target *PID, env *MessageEnvelope) {
		if env.Sender != nil {
			ctx.sendUserMessage(target, &MessageEnvelope{Message: env.Message, Sender: env.Sender})
			return
		}
		ctx.sendUserMessage(target, env.Message)
	})
	ctx.senderChain = composeSender(baseSender, props.senderMiddleware)

	return ctx
}

func (ctx *actorContext) asContext() Context {
	return decorateContext(Context(ctx), ctx.props.contextDecorators)
}

// runOnInit runs every Props.WithOnInit hook, in order, once self_pid is set
// but before PreStart fires (spec 4.5 step 4).
func (ctx *actorContext) runOnInit() {
	for _, hook := range ctx.props.onInit {
		hook(ctx.asContext())
	}
}

// --- MessageInvoker ---------------------------------------------------

func (ctx *actorContext) InvokeSystemMessage(message interface{}) {
	switch msg := message.(type) {
	case *startMessage:
		// PreStart already ran synchronously in baseSpawn (spec 4.5 step 6);
		// this message only marks where ordinary system-message drainage
		// begins for the mailbox.
	case *stopMessage:
		ctx.handleStop()
	case *restartMessage:
		ctx.handleRestart()
	case *Watch:
		ctx.handleWatch(msg)
	case *Unwatch:
		ctx.handleUnwatch(msg)
	case *Failure:
		ctx.handleFailure(msg)
	case *Terminated:
		ctx.handleTerminated(msg)
	case *forceStopMessage:
		ctx.handleForceStop()
	default:
		log.WarnS(context.Background(), "unhandled system message", nil, "self", ctx.self, "type", message)
	}
}

func (ctx *actorContext) InvokeUserMessage(message interface{}) error {
	if ctx.state != stateAlive {
		return nil
	}
	return ctx.deliver(message)
}

func (ctx *actorContext) EscalateFailure(reason error, message interface{}) {
	ctx.mailbox.PostSystemMessage(suspendMailboxInstance)
	actorErr := NewActorError(ctx.self, message, reason)

	if ctx.parent == nil {
		ctx.applyGuardianDirective(DefaultDecider(reason))
		return
	}
	ctx.sendSystemMessage(ctx.parent, &Failure{
		Who: ctx.self, Reason: actorErr, RestartStats: ctx.restartStats, Message: message,
	})
}

func (ctx *actorContext) applyGuardianDirective(directive Directive) {
	switch directive {
	case DirectiveResume:
		ctx.mailbox.PostSystemMessage(resumeMailboxInstance)
	case DirectiveRestart:
		ctx.mailbox.PostSystemMessage(restartMessageInstance)
	default:
		ctx.mailbox.PostSystemMessage(stopMessageInstance)
	}
}

// escalateFailure re-raises a failure one more level up, used by
// DirectiveEscalate.
func (ctx *actorContext) escalateFailure(reason error, message interface{}) {
	if ctx.parent == nil {
		ctx.mailbox.PostSystemMessage(stopMessageInstance)
		return
	}
	ctx.sendSystemMessage(ctx.parent, &Failure{
		Who: ctx.self, Reason: reason, RestartStats: ctx.restartStats, Message: message,
	})
}

// --- delivery -----------------------------------------------------------

func (ctx *actorContext) deliver(message interface{}) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = recoverAsError(r)
		}
	}()

	payload, sender := UnwrapEnvelope(message)
	ctx.message = payload
	ctx.sender = sender

	if _, ok := payload.(*PoisonPill); ok {
		ctx.handleStop()
		return nil
	}
	if _, influence := payload.(NotInfluenceReceiveTimeout); !influence {
		ctx.resetReceiveTimeout()
	}

	err = ctx.receiverChain(ctx.asContext(), &MessageEnvelope{Message: payload, Sender: sender})
	if err == nil && ctx.awaitingSettle {
		ctx.restartStats.Reset()
		ctx.awaitingSettle = false
	}
	return err
}

func (ctx *actorContext) invokeAutoReceive(message interface{}) {
	if err := ctx.deliver(message); err != nil {
		ctx.EscalateFailure(err, message)
	}
}

// --- lifecycle handlers ---------------------------------------------------

// runSyncPreStart delivers PreStart synchronously, called directly from
// baseSpawn before the mailbox is started (spec 4.5 step 6) so a failing
// PreStart can be reported as a SpawnError instead of escalated to a
// supervisor the half-created actor doesn't have a chance to fail towards.
func (ctx *actorContext) runSyncPreStart() error {
	ctx.state = stateAlive
	return ctx.deliver(&PreStart{})
}

func (ctx *actorContext) handleStop() {
	if ctx.state == stateStopping || ctx.state == stateStopped {
		return
	}
	ctx.state = stateStopping
	ctx.invokeAutoReceive(&PreStop{})
	ctx.stopAllChildren()
}

func (ctx *actorContext) handleRestart() {
	ctx.state = stateRestarting
	ctx.invokeAutoReceive(&PreRestart{})
	ctx.stopAllChildren()
}

func (ctx *actorContext) stopAllChildren() {
	if len(ctx.children) == 0 {
		ctx.tryRestartOrTerminate()
		return
	}
	ctx.armCleanupTimer()
	for _, child := range ctx.children {
		ctx.sendSystemMessage(child, stopMessageInstance)
	}
}

// armCleanupTimer bounds how long this actor waits on its children to reach
// Terminated before forcing the restart or stop to complete anyway, per
// Props.WithCleanupTimeout.
func (ctx *actorContext) armCleanupTimer() {
	mailbox := ctx.mailbox
	ctx.cleanupTimer = time.AfterFunc(ctx.props.cleanupTimeout, func() {
		mailbox.PostSystemMessage(forceStopMessageInstance)
	})
}

func (ctx *actorContext) disarmCleanupTimer() {
	if ctx.cleanupTimer != nil {
		ctx.cleanupTimer.Stop()
		ctx.cleanupTimer = nil
	}
}

// handleForceStop fires once the cleanup timer elapses: any children still
// outstanding are dropped from bookkeeping (they remain free to finish
// stopping on their own time; this actor just stops waiting on them) and the
// pending restart or stop proceeds immediately.
func (ctx *actorContext) handleForceStop() {
	if len(ctx.children) == 0 {
		return
	}
	ctx.children = make(map[string]*PID)
	ctx.tryRestartOrTerminate()
}

func (ctx *actorContext) tryRestartOrTerminate() {
	if len(ctx.children) > 0 {
		return
	}
	ctx.disarmCleanupTimer()
	switch ctx.state {
	case stateRestarting:
		ctx.restart()
	case stateStopping:
		ctx.finalizeStop()
	}
}

func (ctx *actorContext) restart() {
	ctx.actor = ctx.props.producer()
	ctx.mailbox.PostSystemMessage(resumeMailboxInstance)
	ctx.replayStash()
	ctx.state = stateAlive
	// The restart path delivers PostStart rather than PostRestart,
	// matching the observed lifecycle table: PostRestart is reserved for
	// a future strategy that needs to tell the two apart.
	ctx.invokeAutoReceive(&PostStart{})
	// Armed after PostStart so that only a later message handled without
	// failing counts as the restart having settled.
	ctx.awaitingSettle = true
}

// replayStash pops every deferred message and redelivers it before any new
// traffic. The underlying store is a stack, so replay order is LIFO
// (most-recently-stashed first), matching the library this is grounded on.
func (ctx *actorContext) replayStash() {
	for !ctx.stash.Empty() {
		value, ok := ctx.stash.Pop()
		if !ok {
			return
		}
		if err := ctx.deliver(value); err != nil {
			ctx.EscalateFailure(err, value)
		}
	}
}

func (ctx *actorContext) finalizeStop() {
	ctx.invokeAutoReceive(&PostStop{})
	ctx.stopReceiveTimeout()

	process := ctx.engine.registry.Get(ctx.self)
	process.SetDead()
	ctx.engine.registry.Remove(ctx.self)
	ctx.state = stateStopped

	for _, watcher := range ctx.watchers {
		ctx.sendSystemMessage(watcher, &Terminated{Who: ctx.self})
	}
	if ctx.parent != nil {
		ctx.sendSystemMessage(ctx.parent, &Terminated{Who: ctx.self})
	}
	ctx.engine.actorStopped()
}

func (ctx *actorContext) handleWatch(msg *Watch) {
	if ctx.state == stateStopping || ctx.state == stateStopped {
		ctx.sendSystemMessage(msg.Watcher, &Terminated{Who: ctx.self})
		return
	}
	ctx.watchers[msg.Watcher.ID] = msg.Watcher
}

func (ctx *actorContext) handleUnwatch(msg *Unwatch) {
	delete(ctx.watchers, msg.Watcher.ID)
}

func (ctx *actorContext) handleFailure(msg *Failure) {
	ctx.props.supervisorStrategy.HandleFailure(ctx, msg.Who, msg.RestartStats, msg.Reason, msg.Message)
}

func (ctx *actorContext) handleTerminated(msg *Terminated) {
	_, wasChild := ctx.children[msg.Who.ID]
	if wasChild {
		delete(ctx.children, msg.Who.ID)
	}
	ctx.invokeAutoReceive(&Terminated{Who: msg.Who, Reason: msg.Reason})
	if wasChild {
		ctx.tryRestartOrTerminate()
	}
}

// --- internal sends -------------------------------------------------------

func (ctx *actorContext) sendSystemMessage(pid *PID, message interface{}) {
	ctx.engine.registry.Get(pid).SendSystemMessage(pid, message)
}

func (ctx *actorContext) sendUserMessage(pid *PID, message interface{}) {
	ctx.engine.registry.Get(pid).SendUserMessage(pid, message)
}

func (ctx *actorContext) childPIDs() []*PID {
	pids := make([]*PID, 0, len(ctx.children))
	for _, pid := range ctx.children {
		pids = append(pids, pid)
	}
	return pids
}

func (ctx *actorContext) resetReceiveTimeout() {
	if ctx.receiveTimeout <= 0 {
		return
	}
	ctx.stopReceiveTimeout()
	mailbox := ctx.mailbox
	ctx.receiveTimeoutTimer = time.AfterFunc(ctx.receiveTimeout, func() {
		mailbox.PostUserMessage(&ReceiveTimeout{})
	})
}

func (ctx *actorContext) stopReceiveTimeout() {
	if ctx.receiveTimeoutTimer != nil {
		ctx.receiveTimeoutTimer.Stop()
		ctx.receiveTimeoutTimer = nil
	}
}

// --- Context ---------------------------------------------------------

func (ctx *actorContext) Self() *PID           { return ctx.self }
func (ctx *actorContext) Parent() *PID         { return ctx.parent }
func (ctx *actorContext) Sender() *PID         { return ctx.sender }
func (ctx *actorContext) Message() interface{} { return ctx.message }
func (ctx *actorContext) Children() []*PID     { return ctx.childPIDs() }

func (ctx *actorContext) Send(target *PID, message interface{}) {
	ctx.senderChain(ctx.asContext(), target, &MessageEnvelope{Message: message})
}

func (ctx *actorContext) Request(target *PID, message interface{}) {
	ctx.senderChain(ctx.asContext(), target, &MessageEnvelope{Message: message, Sender: ctx.self})
}

func (ctx *actorContext) Respond(message interface{}) {
	if ctx.sender == nil {
		return
	}
	ctx.Request(ctx.sender, message)
}

func (ctx *actorContext) RequestFuture(target *PID, message interface{}, timeout time.Duration) *Future {
	f := newFuture(ctx.engine.registry, timeout, ctx.engine.config.Metrics)
	ctx.senderChain(ctx.asContext(), target, &MessageEnvelope{Message: message, Sender: f.PID()})
	return f
}

func (ctx *actorContext) Spawn(props *Props) *PID {
	pid, _ := ctx.SpawnNamed(props, ctx.engine.registry.NextID())
	return pid
}

func (ctx *actorContext) SpawnPrefix(props *Props, prefix string) *PID {
	pid, _ := ctx.SpawnNamed(props, prefix+ctx.engine.registry.NextID())
	return pid
}

func (ctx *actorContext) SpawnNamed(props *Props, name string) (*PID, error) {
	pid, err := ctx.engine.spawn(props, name, ctx.self)
	if err != nil {
		return nil, err
	}
	ctx.children[pid.ID] = pid
	return pid, nil
}

func (ctx *actorContext) Watch(pid *PID) {
	ctx.sendSystemMessage(pid, &Watch{Watcher: ctx.self})
}

func (ctx *actorContext) Unwatch(pid *PID) {
	ctx.sendSystemMessage(pid, &Unwatch{Watcher: ctx.self})
}

func (ctx *actorContext) Stash() {
	ctx.stash.Push(&MessageEnvelope{Message: ctx.message, Sender: ctx.sender})
}

func (ctx *actorContext) SetReceiveTimeout(duration time.Duration) {
	ctx.receiveTimeout = duration
	if duration <= 0 {
		ctx.stopReceiveTimeout()
		return
	}
	ctx.resetReceiveTimeout()
}

func (ctx *actorContext) Stop(pid *PID) {
	ctx.sendSystemMessage(pid, stopMessageInstance)
}

func (ctx *actorContext) Poison(pid *PID) {
	ctx.sendUserMessage(pid, &PoisonPill{})
}

package actor

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// Engine owns one ProcessRegistry, one default Dispatcher, one EventStream,
// and a guardian actor per top-level spawn. It is the unit of lifetime:
// every PID it mints becomes meaningless once Shutdown completes.
type Engine struct {
	config     EngineConfig
	registry   *ProcessRegistry
	dispatcher Dispatcher
	events     *EventStream

	root *RootContext

	wg       sync.WaitGroup
	stopping atomic.Bool
}

// NewEngine builds an Engine from config, wiring its registry's dead-letter
// sink to config.Metrics and its default dispatcher to config.DefaultThroughput.
func NewEngine(config EngineConfig) *Engine {
	if config.Address == "" {
		config.Address = LocalAddress
	}
	if config.Metrics == nil {
		config.Metrics = NoopMetricsSink
	}

	events := NewEventStream()
	engine := &Engine{
		config:     config,
		registry:   NewProcessRegistry(config.Address, events, config.Metrics),
		dispatcher: NewDefaultDispatcher(config.DefaultThroughput),
		events:     events,
	}
	engine.root = &RootContext{engine: engine}
	return engine
}

// Root returns the RootContext used to spawn and message top-level
// guardians.
func (e *Engine) Root() *RootContext { return e.root }

// EventStream returns the engine's in-process pub/sub hub.
func (e *Engine) EventStream() *EventStream { return e.events }

// Registry exposes the engine's ProcessRegistry, mainly for tests and for
// wiring a RemoteResolver after construction.
func (e *Engine) Registry() *ProcessRegistry { return e.registry }

func (e *Engine) actorStopped() {
	e.wg.Done()
}

// spawn runs props through its own spawn middleware chain and performs the
// eight-step pipeline: build the mailbox, wrap it in a process, insert it
// into the registry (insert-if-absent), construct the actor context, run
// on-init hooks, bind the invoker and dispatcher into the mailbox,
// synchronously invoke PreStart, post the Start system message, and start
// the mailbox.
func (e *Engine) spawn(props *Props, name string, parent *PID) (*PID, error) {
	if e.stopping.Load() {
		return nil, NewSpawnError(name, ErrEngineStopped)
	}
	chain := composeSpawn(e.baseSpawn, props.spawnMiddleware)
	return chain(e, props, name, parent)
}

func (e *Engine) baseSpawn(engine *Engine, props *Props, name string, parent *PID) (*PID, error) {
	mailbox := props.mailboxProducer()
	if dm, ok := mailbox.(*defaultMailbox); ok {
		dm.setMetrics(engine.config.Metrics)
	}
	process := newActorProcess(mailbox)

	pid, inserted := engine.registry.Add(process, name)
	if !inserted {
		return nil, NewSpawnError(name, ErrNameTaken)
	}

	ctx := newActorContext(engine, pid, parent, props)
	ctx.actor = props.producer()
	ctx.mailbox = mailbox

	ctx.runOnInit()

	dispatcher := props.dispatcher
	if dispatcher == nil {
		dispatcher = engine.dispatcher
	}
	mailbox.RegisterHandlers(ctx, dispatcher)

	if err := ctx.runSyncPreStart(); err != nil {
		ctx.stopReceiveTimeout()
		process.SetDead()
		engine.registry.Remove(pid)
		return nil, NewPreStartFailedSpawnError(name, err)
	}

	engine.wg.Add(1)
	mailbox.PostSystemMessage(startMessageInstance)
	mailbox.Start()

	return pid, nil
}

// Shutdown stops every actor spawned from this engine's root guardians and
// waits, up to config.ShutdownTimeout (or ctx, whichever elapses first), for
// them to finish stopping.
func (e *Engine) Shutdown(ctx context.Context) error {
	e.stopping.Store(true)

	deadline := time.NewTimer(e.config.ShutdownTimeout)
	defer deadline.Stop()

	for _, pid := range e.root.topLevel() {
		e.root.Stop(pid)
	}

	done := make(chan struct{})
	go func() {
		e.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-deadline.C:
		return ErrEngineStopped
	}
}

// RootContext is the entry point a host process uses to spawn and message
// top-level actors: it behaves like an actorContext with no parent and no
// Receive of its own, matching the "guardian" role in a supervision tree.
type RootContext struct {
	engine *Engine

	mu        sync.Mutex
	children  map[string]*PID
}

func (r *RootContext) topLevel() []*PID {
	r.mu.Lock()
	defer r.mu.Unlock()
	pids := make([]*PID, 0, len(r.children))
	for _, pid := range r.children {
		pids = append(pids, pid)
	}
	return pids
}

func (r *RootContext) track(pid *PID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.children == nil {
		r.children = make(map[string]*PID)
	}
	r.children[pid.ID] = pid
}

// Spawn starts a top-level actor from props under a registry-minted name.
func (r *RootContext) Spawn(props *Props) *PID {
	pid, _ := r.SpawnNamed(props, r.engine.registry.NextID())
	return pid
}

// SpawnPrefix starts a top-level actor under a registry-minted name that
// begins with prefix.
func (r *RootContext) SpawnPrefix(props *Props, prefix string) *PID {
	pid, _ := r.SpawnNamed(props, prefix+r.engine.registry.NextID())
	return pid
}

// SpawnNamed starts a top-level actor under an explicit name.
func (r *RootContext) SpawnNamed(props *Props, name string) (*PID, error) {
	pid, err := r.engine.spawn(props, name, nil)
	if err != nil {
		return nil, err
	}
	r.track(pid)
	return pid, nil
}

// Send delivers message to target with no sender attached.
func (r *RootContext) Send(target *PID, message interface{}) {
	r.engine.registry.Get(target).SendUserMessage(target, message)
}

// RequestFuture delivers message to target and returns a Future completed
// by target's reply.
func (r *RootContext) RequestFuture(target *PID, message interface{}, timeout time.Duration) *Future {
	f := newFuture(r.engine.registry, timeout, r.engine.config.Metrics)
	r.engine.registry.Get(target).SendUserMessage(target, &MessageEnvelope{Message: message, Sender: f.PID()})
	return f
}

// Stop requests pid stop immediately (ahead of any queued user messages).
func (r *RootContext) Stop(pid *PID) {
	r.engine.registry.Get(pid).Stop(pid)
}

// Poison requests pid stop once every message already queued ahead of the
// PoisonPill has been processed.
func (r *RootContext) Poison(pid *PID) {
	r.engine.registry.Get(pid).SendUserMessage(pid, &PoisonPill{})
}

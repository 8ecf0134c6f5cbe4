package actor

// ReceiverFunc delivers env to whatever sits at the end of a receiver
// middleware chain, ultimately the actor's own Receive.
type ReceiverFunc func(ctx Context, env *MessageEnvelope) error

// ReceiverMiddleware wraps a ReceiverFunc with cross-cutting behavior
// (logging, metrics, recovery) before handing control to next.
type ReceiverMiddleware func(next ReceiverFunc) ReceiverFunc

// SenderFunc delivers a message to target as seen from ctx, ultimately
// posting it onto target's mailbox.
type SenderFunc func(ctx Context, target *PID, env *MessageEnvelope)

// SenderMiddleware wraps a SenderFunc, letting a host intercept every
// outbound message a context sends.
type SenderMiddleware func(next SenderFunc) SenderFunc

// SpawnFunc performs the actual registry insertion and actor incarnation
// for a spawn request.
type SpawnFunc func(engine *Engine, props *Props, name string, parent *PID) (*PID, error)

// SpawnMiddleware wraps a SpawnFunc, letting a host intercept or rewrite
// every spawn (e.g. to inject tracing context or enforce naming policy).
type SpawnMiddleware func(next SpawnFunc) SpawnFunc

// ContextDecorator wraps a Context with one that overrides a subset of its
// methods, composed in the order Props received them (the first decorator
// passed to WithContextDecorator is the outermost wrapper).
type ContextDecorator func(Context) Context

func composeReceiver(base ReceiverFunc, chain []ReceiverMiddleware) ReceiverFunc {
	for i := len(chain) - 1; i >= 0; i-- {
		base = chain[i](base)
	}
	return base
}

func composeSender(base SenderFunc, chain []SenderMiddleware) SenderFunc {
	for i := len(chain) - 1; i >= 0; i-- {
		base = chain[i](base)
	}
	return base
}

func composeSpawn(base SpawnFunc, chain []SpawnMiddleware) SpawnFunc {
	for i := len(chain) - 1; i >= 0; i-- {
		base = chain[i](base)
	}
	return base
}

func decorateContext(ctx Context, decorators []ContextDecorator) Context {
	for i := len(decorators) - 1; i >= 0; i-- {
		ctx = decorators[i](ctx)
	}
	return ctx
}

package actor

import (
	"time"

	"github.com/lightningnetwork/lnd/fn/v2"
)

// EngineConfig carries the knobs an Engine is built with. It mirrors the
// teacher's utils.Config/DefaultConfig shape: a plain struct with a
// constructor, not a flag or YAML loader (loaders stay out of scope).
type EngineConfig struct {
	// Address is the local address every PID minted by this engine's
	// registry carries. "nonhost" matches the convention used throughout
	// the retrieved pack for a process registry with no remoting peer.
	Address string

	// DefaultMailboxCapacity is carried in the configuration but not read
	// by the engine: the default MailboxProducer of NewProps always builds
	// an unbounded mailbox, whatever this field holds.
	DefaultMailboxCapacity int

	// DefaultThroughput bounds how many user messages a dispatcher turn
	// delivers before yielding the goroutine back to the pool.
	DefaultThroughput int

	// ShutdownTimeout bounds how long Engine.Shutdown waits for
	// in-flight actors to finish stopping before returning.
	ShutdownTimeout time.Duration

	// ReceiveTimeout, when present, is the default SetReceiveTimeout
	// applied to actors whose Props does not set one explicitly.
	ReceiveTimeout fn.Option[time.Duration]

	Metrics MetricsSink
}

// DefaultConfig returns the configuration used when NewEngine is called with
// no overrides: an unbounded mailbox, a throughput of 300 messages per
// dispatcher turn (protoactor-go's long-standing default), a five second
// shutdown grace period, and no default receive timeout.
func DefaultConfig() EngineConfig {
	return EngineConfig{
		Address:                LocalAddress,
		DefaultMailboxCapacity: 0,
		DefaultThroughput:      300,
		ShutdownTimeout:        5 * time.Second,
		ReceiveTimeout:         fn.None[time.Duration](),
		Metrics:                NoopMetricsSink,
	}
}

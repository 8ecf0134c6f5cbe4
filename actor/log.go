package actor

import (
	"github.com/btcsuite/btclog/v2"
)

// log is the package-wide structured logger. It defaults to a disabled sink
// so importing this package has no logging side effects until a host
// process opts in with UseLogger.
var log btclog.Logger = btclog.Disabled

// UseLogger wires a logger into the actor package. Call this once, early, in
// the host process (mirroring how the actor subsystem is wired in a daemon's
// main package) before spawning any actors.
func UseLogger(logger btclog.Logger) {
	log = logger
}

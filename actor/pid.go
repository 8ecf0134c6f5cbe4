package actor

import "sync"

// LocalAddress is the address every PID minted by a registry with no
// remoting peer carries, matching the convention used throughout the
// retrieved pack for a standalone process registry.
const LocalAddress = "nonhost"

// PID addresses a process by (address, id). It is a plain comparable value
// type, safe to use as a map key and to copy freely; it carries no cache of
// its own so equality stays simple.
type PID struct {
	Address string
	ID      string
}

// NewPID builds a PID for the given address/id pair. Most callers get a PID
// back from ProcessRegistry.Add or RootContext.Spawn instead of calling this
// directly; it exists mainly for constructing PIDs that reference a remote
// address.
func NewPID(address, id string) *PID {
	return &PID{Address: address, ID: id}
}

// String renders a PID as "address/id", used in logs and error messages.
func (p *PID) String() string {
	if p == nil {
		return "<nil>"
	}
	return p.Address + "/" + p.ID
}

// Equal reports whether two PIDs address the same process.
func (p *PID) Equal(other *PID) bool {
	if p == nil || other == nil {
		return p == other
	}
	return p.Address == other.Address && p.ID == other.ID
}

// ExtendedPid wraps a PID with a cached, lazily-resolved Process handle so a
// sender that repeatedly targets the same PID avoids a registry lookup on
// every send. It is obtained from ProcessRegistry.Ref and is safe for
// concurrent use.
type ExtendedPid struct {
	*PID

	registry *ProcessRegistry

	mu      sync.Mutex
	process Process
}

// ref returns the cached Process, re-resolving through the registry whenever
// the cached handle is missing or has been marked dead (e.g. the actor
// stopped and the registry entry was reused or removed).
func (e *ExtendedPid) ref() Process {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.process != nil && !e.process.IsDead() {
		return e.process
	}
	e.process = e.registry.Get(e.PID)
	return e.process
}

// SendUserMessage delivers message to the cached process's user queue.
func (e *ExtendedPid) SendUserMessage(message interface{}) {
	e.ref().SendUserMessage(e.PID, message)
}

// SendSystemMessage delivers message to the cached process's system queue.
func (e *ExtendedPid) SendSystemMessage(message interface{}) {
	e.ref().SendSystemMessage(e.PID, message)
}

// Stop requests an orderly shutdown of the addressed process.
func (e *ExtendedPid) Stop() {
	e.ref().Stop(e.PID)
}

package actor

import (
	"fmt"
	"sync"
	"sync/atomic"
)

// ProcessRegistry owns the mapping from PID.ID to a live Process for one
// address. Exactly one exists per Engine; it is created in NewEngine and
// torn down on Shutdown, never as package-level global state.
type ProcessRegistry struct {
	address string

	mu        sync.RWMutex
	processes map[string]Process
	extended  sync.Map // id (string) -> *ExtendedPid

	counter uint64

	remoteResolver atomic.Pointer[RemoteResolver]

	deadLetter Process
	events     *EventStream
	metrics    MetricsSink
}

// NewProcessRegistry builds a registry for the given local address, wiring
// its dead-letter fallback to publish onto events.
func NewProcessRegistry(address string, events *EventStream, metrics MetricsSink) *ProcessRegistry {
	if metrics == nil {
		metrics = NoopMetricsSink
	}
	r := &ProcessRegistry{
		address:   address,
		processes: make(map[string]Process),
		events:    events,
		metrics:   metrics,
	}
	r.deadLetter = newDeadLetterProcess(r, events, metrics)
	return r
}

// SetRemoteResolver installs (or clears, with nil) the fallback used to
// resolve PIDs whose Address differs from this registry's own.
func (r *ProcessRegistry) SetRemoteResolver(resolver RemoteResolver) {
	if resolver == nil {
		r.remoteResolver.Store(nil)
		return
	}
	r.remoteResolver.Store(&resolver)
}

// NextID mints a unique, process-local id suitable for an anonymous spawn,
// in the "$<n>" shape used throughout the pack's actor implementations.
func (r *ProcessRegistry) NextID() string {
	n := atomic.AddUint64(&r.counter, 1)
	return fmt.Sprintf("$%d", n)
}

// Add inserts process under name if, and only if, no process is already
// registered under that name. It reports whether the insert happened; on a
// collision the existing PID is still returned so callers can decide how to
// react (spec 4.1: insert-if-absent).
func (r *ProcessRegistry) Add(process Process, name string) (pid *PID, inserted bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.processes[name]; exists {
		return &PID{Address: r.address, ID: name}, false
	}
	r.processes[name] = process
	return &PID{Address: r.address, ID: name}, true
}

// Get resolves pid to a Process. A pid with a foreign Address is handed to
// the configured RemoteResolver, falling back to the dead-letter process
// when none is configured or the resolver can't place it. A pid with no
// entry in the local map also resolves to the dead-letter process.
func (r *ProcessRegistry) Get(pid *PID) Process {
	if pid == nil {
		return r.deadLetter
	}
	if pid.Address != "" && pid.Address != r.address {
		if resolverPtr := r.remoteResolver.Load(); resolverPtr != nil {
			if process, ok := (*resolverPtr).ResolveRemote(pid.Address, pid.ID); ok {
				return process
			}
		}
		return r.deadLetter
	}

	r.mu.RLock()
	process, ok := r.processes[pid.ID]
	r.mu.RUnlock()
	if !ok {
		return r.deadLetter
	}
	return process
}

// Ref returns a cached ExtendedPid for pid, minting one on first use. The
// same *ExtendedPid is returned for repeated calls with the same pid.ID.
func (r *ProcessRegistry) Ref(pid *PID) *ExtendedPid {
	if v, ok := r.extended.Load(pid.ID); ok {
		return v.(*ExtendedPid)
	}
	ext := &ExtendedPid{PID: pid, registry: r}
	actual, _ := r.extended.LoadOrStore(pid.ID, ext)
	return actual.(*ExtendedPid)
}

// Remove deregisters name, after which Get(pid) for that id routes to the
// dead-letter process. The caller is expected to have already called
// SetDead on the process being removed.
func (r *ProcessRegistry) Remove(pid *PID) {
	r.mu.Lock()
	delete(r.processes, pid.ID)
	r.mu.Unlock()
	r.extended.Delete(pid.ID)
}

// DeadLetter exposes the registry's dead-letter sink, mainly so tests can
// assert on it directly without going through a missing PID.
func (r *ProcessRegistry) DeadLetter() Process { return r.deadLetter }

// Address returns the local address this registry mints PIDs under.
func (r *ProcessRegistry) Address() string { return r.address }

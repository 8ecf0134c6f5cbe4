package actor

// RemoteResolver resolves a PID whose Address does not match the local
// engine's address into a Process handle, typically a stub that forwards
// over the wire. The core never implements a transport itself; it only
// calls out to whatever resolver the host process registers.
type RemoteResolver interface {
	ResolveRemote(address, id string) (Process, bool)
}

// MetricsSink receives counters and gauges emitted by the mailbox and Future
// machinery. A nil sink is replaced by noopMetricsSink, so callers never
// need to nil-check.
type MetricsSink interface {
	IncCounter(name string, dims map[string]string)
	ObserveGauge(name string, value float64, dims map[string]string)
}

type noopMetricsSink struct{}

func (noopMetricsSink) IncCounter(string, map[string]string)         {}
func (noopMetricsSink) ObserveGauge(string, float64, map[string]string) {}

// NoopMetricsSink is the default MetricsSink used when an Engine is built
// without one configured.
var NoopMetricsSink MetricsSink = noopMetricsSink{}

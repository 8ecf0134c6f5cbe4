package actor

import "sync/atomic"

// Process is the narrow interface the registry and every PID operate
// against: something that can accept user and system messages, be stopped,
// and be marked dead once it has fully stopped.
type Process interface {
	SendUserMessage(pid *PID, message interface{})
	SendSystemMessage(pid *PID, message interface{})
	Stop(pid *PID)
	SetDead()
	IsDead() bool
}

// actorProcess is the Process implementation backing a live actor: it does
// nothing but forward into the actor's Mailbox. All lifecycle logic lives in
// the MessageInvoker (actorContext) the mailbox was registered with.
type actorProcess struct {
	mailbox Mailbox
	dead    atomic.Bool
}

func newActorProcess(mailbox Mailbox) *actorProcess {
	return &actorProcess{mailbox: mailbox}
}

func (p *actorProcess) SendUserMessage(_ *PID, message interface{}) {
	p.mailbox.PostUserMessage(message)
}

func (p *actorProcess) SendSystemMessage(_ *PID, message interface{}) {
	p.mailbox.PostSystemMessage(message)
}

func (p *actorProcess) Stop(pid *PID) {
	p.SendSystemMessage(pid, stopMessageInstance)
}

func (p *actorProcess) SetDead() { p.dead.Store(true) }
func (p *actorProcess) IsDead() bool { return p.dead.Load() }

// deadLetterProcess is the Process every unresolved PID routes to: sending
// to it publishes a DeadLetterEvent instead of delivering anywhere. SetDead
// is a no-op and IsDead always reports true, so an ExtendedPid caching it
// re-resolves through the registry on every send.
type deadLetterProcess struct {
	registry *ProcessRegistry
	events   *EventStream
	metrics  MetricsSink
}

func newDeadLetterProcess(registry *ProcessRegistry, events *EventStream, metrics MetricsSink) *deadLetterProcess {
	return &deadLetterProcess{registry: registry, events: events, metrics: metrics}
}

func (d *deadLetterProcess) publish(pid *PID, message interface{}) {
	d.metrics.IncCounter("dead_letters", map[string]string{"target": pid.String()})
	d.events.Publish(DeadLetterTopic, &DeadLetterEvent{PID: pid, Message: message})
}

// SendUserMessage publishes a DeadLetterEvent and, when the message carried
// a Sender (as a RequestFuture's does), replies with a DeadLetterResponse so
// that sender can fail immediately instead of waiting out a timeout.
func (d *deadLetterProcess) SendUserMessage(pid *PID, message interface{}) {
	payload, sender := UnwrapEnvelope(message)
	d.metrics.IncCounter("dead_letters", map[string]string{"target": pid.String()})
	d.events.Publish(DeadLetterTopic, &DeadLetterEvent{PID: pid, Sender: sender, Message: payload})

	if sender != nil {
		d.registry.Get(sender).SendUserMessage(sender, &DeadLetterResponse{PID: pid, Message: payload})
	}
}

func (d *deadLetterProcess) SendSystemMessage(pid *PID, message interface{}) {
	d.publish(pid, message)
}

func (d *deadLetterProcess) Stop(_ *PID)      {}
func (d *deadLetterProcess) SetDead()         {}
func (d *deadLetterProcess) IsDead() bool     { return true }

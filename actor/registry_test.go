package actor

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestProcessRegistry_AddIsInsertIfAbsent(t *testing.T) {
	registry := NewProcessRegistry(LocalAddress, NewEventStream(), NoopMetricsSink)

	mailbox := NewUnboundedMailbox()
	first := newActorProcess(mailbox)
	pid, inserted := registry.Add(first, "$taken")
	assert.True(t, inserted)
	assert.Equal(t, "$taken", pid.ID)

	second := newActorProcess(NewUnboundedMailbox())
	_, insertedAgain := registry.Add(second, "$taken")
	assert.False(t, insertedAgain)

	assert.Same(t, first, registry.Get(pid))
}

func TestProcessRegistry_GetFallsBackToDeadLetter(t *testing.T) {
	registry := NewProcessRegistry(LocalAddress, NewEventStream(), NoopMetricsSink)

	missing := NewPID(LocalAddress, "$nobody")
	assert.Same(t, registry.DeadLetter(), registry.Get(missing))
}

type stubResolver struct {
	process Process
}

func (s stubResolver) ResolveRemote(address, id string) (Process, bool) {
	return s.process, true
}

func TestProcessRegistry_RemoteResolverFallback(t *testing.T) {
	registry := NewProcessRegistry(LocalAddress, NewEventStream(), NoopMetricsSink)
	remoteProcess := newActorProcess(NewUnboundedMailbox())
	registry.SetRemoteResolver(stubResolver{process: remoteProcess})

	remotePID := NewPID("other-host", "$1")
	assert.Same(t, remoteProcess, registry.Get(remotePID))
}

func TestProcessRegistry_NextIDIsUnique(t *testing.T) {
	registry := NewProcessRegistry(LocalAddress, NewEventStream(), NoopMetricsSink)
	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		id := registry.NextID()
		assert.False(t, seen[id], "id %q minted twice", id)
		seen[id] = true
	}
}

func TestProcessRegistry_RemoveRoutesToDeadLetter(t *testing.T) {
	registry := NewProcessRegistry(LocalAddress, NewEventStream(), NoopMetricsSink)
	process := newActorProcess(NewUnboundedMailbox())
	pid, _ := registry.Add(process, "$gone")

	registry.Remove(pid)

	assert.Same(t, registry.DeadLetter(), registry.Get(pid))
}

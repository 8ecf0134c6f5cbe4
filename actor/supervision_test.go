package actor

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRestartStatistics_FailureCountWithinWindow(t *testing.T) {
	stats := NewRestartStatistics()
	base := time.Now()

	stats.Fail(base)
	stats.Fail(base.Add(time.Second))
	stats.Fail(base.Add(10 * time.Second))

	assert.Equal(t, 3, stats.FailureCount(base.Add(10*time.Second), 0))
	assert.Equal(t, 1, stats.FailureCount(base.Add(10*time.Second), 5*time.Second))
	assert.Equal(t, 1, stats.FailureCount(base.Add(10*time.Second), 1*time.Millisecond))
}

func TestRestartStatistics_Reset(t *testing.T) {
	stats := NewRestartStatistics()
	stats.Fail(time.Now())
	stats.Reset()
	assert.Equal(t, 0, stats.FailureCount(time.Now(), 0))
}

func TestOneForOneStrategy_DefaultDeciderRestarts(t *testing.T) {
	assert.Equal(t, DirectiveRestart, DefaultDecider(errors.New("anything")))
}

// crashOnString is a child actor whose Receive fails on every string
// message and records each PreStart it observes, letting a test count
// restarts end to end through a real Engine.
type crashOnString struct {
	mu     sync.Mutex
	starts int
}

func (a *crashOnString) Receive(ctx Context) error {
	switch ctx.Message().(type) {
	case *PreStart:
		a.mu.Lock()
		a.starts++
		a.mu.Unlock()
	case string:
		return errors.New("boom")
	}
	return nil
}

func (a *crashOnString) startCount() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.starts
}

type parentOf struct {
	childProps *Props
	child      *PID
}

func (p *parentOf) Receive(ctx Context) error {
	switch ctx.Message().(type) {
	case *PreStart:
		p.child = ctx.Spawn(p.childProps)
	}
	return nil
}

func TestSupervision_RestartsChildUpToMaxRetriesThenStops(t *testing.T) {
	engine := NewEngine(DefaultConfig())
	defer engine.Shutdown(context.Background())

	crasher := &crashOnString{}
	childProps := NewProps(func() Actor { return crasher })

	strategy := NewOneForOneStrategy(2, time.Minute, DefaultDecider)
	parent := &parentOf{childProps: childProps}
	parentProps := NewProps(func() Actor { return parent }, WithSupervisor(strategy))

	engine.Root().Spawn(parentProps)
	waitForCondition(t, time.Second, func() bool { return parent.child != nil })

	for i := 0; i < 5; i++ {
		engine.Root().Send(parent.child, "trigger")
		time.Sleep(20 * time.Millisecond)
	}

	waitForCondition(t, time.Second, func() bool { return crasher.startCount() >= 3 })
	assert.GreaterOrEqual(t, crasher.startCount(), 3, "expected PreStart once at spawn plus at least two restarts")

	child := parent.child
	waitForCondition(t, time.Second, func() bool {
		return engine.Registry().Get(child) == engine.Registry().DeadLetter()
	})
}

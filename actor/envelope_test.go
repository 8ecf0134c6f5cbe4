package actor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"
)

func TestWrapEnvelope_IsIdempotent(t *testing.T) {
	sender := NewPID(LocalAddress, "$sender")
	once := WrapEnvelope("payload", sender)
	twice := WrapEnvelope(once, sender)

	assert.Same(t, once, twice)
	assert.Equal(t, "payload", twice.Message)
}

func TestUnwrapEnvelope_RoundTripsPlainMessages(t *testing.T) {
	payload, sender := UnwrapEnvelope("plain")
	assert.Equal(t, "plain", payload)
	assert.Nil(t, sender)
}

func TestEnvelope_WrapUnwrapIdempotenceProperty(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		payload := rapid.String().Draw(rt, "payload")
		hasSender := rapid.Bool().Draw(rt, "hasSender")

		var sender *PID
		if hasSender {
			sender = NewPID(LocalAddress, rapid.String().Draw(rt, "senderID"))
		}

		wrapped := WrapEnvelope(payload, sender)
		rewrapped := WrapEnvelope(wrapped, sender)

		if wrapped != rewrapped {
			rt.Fatalf("wrapping an already-wrapped envelope should return the same value")
		}

		gotPayload, gotSender := UnwrapEnvelope(wrapped)
		if gotPayload != payload {
			rt.Fatalf("payload mismatch: got %v want %v", gotPayload, payload)
		}
		if hasSender && (gotSender == nil || !gotSender.Equal(sender)) {
			rt.Fatalf("sender mismatch: got %v want %v", gotSender, sender)
		}
	})
}

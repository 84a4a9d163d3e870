package message

import (
	midilib "gitlab.com/gomidi/midi/v2"
)

// ToLibMessage converts a Message to gitlab.com/gomidi/midi/v2's wire-level
// Message type (itself just a []byte), so a midirt Bus can hand an event to
// any drivers.Out from that ecosystem. The time stamp is not representable
// in the library's type and is dropped; callers that need it should track
// it alongside.
func (m Message) ToLibMessage() midilib.Message {
	b := make([]byte, len(m.Data))
	copy(b, m.Data)
	return midilib.Message(b)
}

// FromLibMessage builds a Message from a gitlab.com/gomidi/midi/v2 Message,
// stamping it with seconds. It does not re-validate the byte layout; callers
// that need strict validation should round-trip through SetMidiEvent-style
// classification first.
func FromLibMessage(lm midilib.Message, seconds float64) Message {
	b := make([]byte, len(lm))
	copy(b, lm)
	return Message{Data: b, Seconds: seconds, Ticks: NullPulse}
}

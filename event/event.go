// Package event implements the timestamped Event record built on top of
// message.Message: input-bus tagging, selection/marked flags, note-pair
// linking, and the rank-based tie-break ordering used when two events
// share a tick.
package event

import (
	"github.com/midirt/midirt/message"
)

// Link is a lightweight, non-owning handle to a paired event (typically
// the Note-Off that closes a Note-On), modeled as an index into whatever
// ordered collection the caller is tracking rather than a shared pointer.
type Link struct {
	Valid bool
	Index int
}

// Event is a Message plus application-level attributes: input bus
// tagging, selection state, an optional link to a paired event, and a
// "painted" flag used by a renderer above this layer.
type Event struct {
	Msg message.Message

	InputBus uint8 // message.BusNone if not tagged to an input bus
	Marked   bool
	Selected bool
	Painted  bool
	Link     Link
}

// New constructs an Event from a timestamp, status, and up to two data
// bytes.
func New(seconds float64, status message.Status, d0, d1 byte) Event {
	return Event{
		Msg:      message.New(seconds, status, d0, d1),
		InputBus: message.BusNone,
	}
}

// Empty returns the default-constructed Event: a Note-Off with zero data,
// matching message.Empty().
func Empty() Event {
	return Event{Msg: message.Empty(), InputBus: message.BusNone}
}

// NewTempo forms a Tempo Meta event (FF 51 03 tt tt tt) from a BPM value.
func NewTempo(seconds float64, bpm float64) Event {
	us := message.TempoUsFromBPM(bpm)
	payload := message.TempoUsToBytes(us)
	data := []byte{message.MetaOrReset, 0x51, 0x03, payload[0], payload[1], payload[2]}
	return Event{
		Msg:      message.Message{Data: data, Seconds: seconds, Ticks: message.NullPulse},
		InputBus: message.BusNone,
	}
}

// NoteKind distinguishes Note-On from Note-Off for NewNote.
type NoteKind int

const (
	KindNoteOn NoteKind = iota
	KindNoteOff
)

// NewNote builds a channel-voice Note event. A channel of message.ChannelNone
// is stored as channel 0; the Event keeps no record that the channel was
// unassigned.
func NewNote(seconds float64, kind NoteKind, channel message.Channel, note, velocity byte) Event {
	status := message.NoteOn
	if kind == KindNoteOff {
		status = message.NoteOff
	}
	ch := channel
	if ch == message.ChannelNone {
		ch = 0
	}
	status = (status & 0xF0) | (ch & 0x0F)
	return Event{
		Msg:      message.New(seconds, status, note, velocity),
		InputBus: message.BusNone,
	}
}

// Status returns the event's status byte.
func (e *Event) Status() message.Status { return e.Msg.Status() }

// SetStatus replaces the status byte in place, preserving data bytes.
func (e *Event) SetStatus(status message.Status) {
	if len(e.Msg.Data) == 0 {
		e.Msg.Data = []byte{status}
		return
	}
	e.Msg.Data[0] = status
}

// SetChannel rewrites the channel nibble of a channel status, leaving the
// message class nibble untouched.
func (e *Event) SetChannel(channel message.Channel) {
	if len(e.Msg.Data) == 0 {
		return
	}
	e.Msg.Data[0] = (e.Msg.Data[0] & 0xF0) | (channel & 0x0F)
}

// SetChannelStatus sets both the message class and channel in one call.
func (e *Event) SetChannelStatus(class message.Status, channel message.Channel) {
	if len(e.Msg.Data) == 0 {
		e.Msg.Data = []byte{0}
	}
	e.Msg.Data[0] = (class & 0xF0) | (channel & 0x0F)
}

// SetMetaStatus marks the event as a Meta event with the given meta type,
// rebuilding Data as FF tt 00 (empty payload); callers append bytes (or
// call SetText) afterward.
func (e *Event) SetMetaStatus(metaType byte) {
	e.Msg.Data = []byte{message.MetaOrReset, metaType, 0x00}
}

// SetStatusKeepChannel replaces the message class but keeps whatever
// channel nibble is already present — used while live recording, where
// the incoming channel must survive until matched to a track.
func (e *Event) SetStatusKeepChannel(class message.Status) {
	if len(e.Msg.Data) == 0 {
		e.Msg.Data = []byte{class}
		return
	}
	e.Msg.Data[0] = (class & 0xF0) | (e.Msg.Data[0] & 0x0F)
}

// SetMidiEvent classifies and stores count raw wire bytes into the event,
// applying the Note-On-velocity-0-is-Note-Off rewrite for 3-byte channel
// messages. It returns false (and leaves the Event unchanged) on a
// malformed or unrecognized byte stream — constructors and setters never
// panic across this boundary.
func (e *Event) SetMidiEvent(seconds float64, bytes []byte, count int) bool {
	if count <= 0 || len(bytes) < count {
		return false
	}
	status := bytes[0]

	switch count {
	case 1:
		if message.StatusSize(status) != 1 {
			return false
		}
		e.Msg = message.Message{Data: append([]byte(nil), bytes[:1]...), Seconds: seconds, Ticks: message.NullPulse}
	case 2:
		if !message.IsOneByteChannelMsg(status) && message.StatusSize(status) != 2 {
			return false
		}
		e.Msg = message.Message{Data: append([]byte(nil), bytes[:2]...), Seconds: seconds, Ticks: message.NullPulse}
	case 3:
		if !message.IsTwoByteChannelMsg(status) && message.StatusSize(status) != 3 {
			return false
		}
		d0, d1 := bytes[1], bytes[2]
		if message.IsNoteOffVelocity(status, d1) {
			status = (status & 0x0F) | message.NoteOff
		}
		e.Msg = message.Message{Data: []byte{status, d0, d1}, Seconds: seconds, Ticks: message.NullPulse}
	default:
		if message.IsSysExMsg(status) {
			e.Msg = message.Message{Data: append([]byte(nil), bytes[:count]...), Seconds: seconds, Ticks: message.NullPulse}
		} else {
			return false
		}
	}
	e.InputBus = message.BusNone
	return true
}

// AppendSysex appends a SysEx continuation byte to the event's buffer. It
// returns false when b is the 0xF7 terminator (end of SysEx) and at least
// one byte has already been appended; the caller should stop feeding bytes
// once AppendSysex returns false.
func (e *Event) AppendSysex(b byte) bool {
	if len(e.Msg.Data) == 0 || e.Msg.Data[0] != message.SysExStart {
		e.Msg.Data = []byte{message.SysExStart}
		if b == message.SysExStart {
			return true
		}
	}
	e.Msg.Data = append(e.Msg.Data, b)
	if message.IsSysExEndMsg(b) {
		return false
	}
	return true
}

// GetText returns the meta text payload, if the event is a well-formed
// meta-text event.
func (e *Event) GetText() (string, bool) {
	return message.GetMetaEventText(e.Msg.Data)
}

// SetText rebuilds the event's data as a meta-text buffer with the given
// meta type and text, preserving the meta type byte.
func (e *Event) SetText(metaType byte, text string) {
	e.Msg.Data = message.SetMetaEventText(metaType, text)
}

// GetRank returns the tie-break ordering weight for events sharing a
// timestamp. Operator< sorts ascending on this value, so the priority
// order SysEx > Meta > Note-Off > Note-On > other channel events > any
// other status is encoded as SysEx getting the smallest rank and non-channel
// statuses (system common, real-time) the largest. Channel events fold the
// channel into the low bits so that same-class events on different channels
// still compare deterministically.
//
// This ensures Note-Off sorts before Note-On on the same tick, so a
// retriggered note releases before it re-attacks.
func (e *Event) GetRank() int {
	status := e.Status()
	switch {
	case message.IsSysExMsg(status):
		return 0x000
	case message.IsMetaMsg(status):
		return 0x100
	case message.IsNoteOffMsg(status):
		return 0x200 | int(message.MaskChannel(status))
	case message.IsNoteOnMsg(status):
		return 0x300 | int(message.MaskChannel(status))
	case message.IsChannelMsg(status):
		return 0x400 | int(message.MaskChannel(status))
	default:
		return 0x500 | int(status)
	}
}

// Less orders events lexicographically on (Ticks or
// Seconds, GetRank()). Ticks is authoritative when both events carry a
// resolved tick (not message.NullPulse); otherwise Seconds is compared.
func (e *Event) Less(other *Event) bool {
	et, ot := e.Msg.Ticks, other.Msg.Ticks
	if et != message.NullPulse && ot != message.NullPulse {
		if et != ot {
			return et < ot
		}
	} else if e.Msg.Seconds != other.Msg.Seconds {
		return e.Msg.Seconds < other.Msg.Seconds
	}
	return e.GetRank() < other.GetRank()
}

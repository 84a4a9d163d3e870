// Package message implements the MIDI byte/message model: status-byte
// semantics, channel/system/meta classification, and the Message type
// itself. Nothing here touches a backend or a clock; it is pure byte
// plumbing, the foundation every other package builds on.
package message

// Status is a MIDI status byte. A valid Status always has its high bit set.
type Status = byte

// Channel is a 4-bit MIDI channel (0..15). ChannelNone is the sentinel
// value used when a message has not yet been assigned to a channel.
type Channel = byte

// ChannelNone is the sentinel "no channel" value.
const ChannelNone Channel = 0x80

// BusNone is the sentinel "no bus" value for an 8-bit bus index.
const BusNone uint8 = 0xFF

// Channel voice status nibbles.
const (
	NoteOff         Status = 0x80
	NoteOn          Status = 0x90
	PolyAftertouch  Status = 0xA0
	ControlChange   Status = 0xB0
	ProgramChange   Status = 0xC0
	ChannelPressure Status = 0xD0
	PitchWheel      Status = 0xE0
)

// System common / real-time statuses.
const (
	SysExStart      Status = 0xF0
	MTCQuarterFrame Status = 0xF1
	SongPosition    Status = 0xF2
	SongSelect      Status = 0xF3
	TuneRequest     Status = 0xF6
	SysExEnd        Status = 0xF7
	TimingClock     Status = 0xF8
	Start           Status = 0xFA
	Continue        Status = 0xFB
	Stop            Status = 0xFC
	ActiveSensing   Status = 0xFE
	MetaOrReset     Status = 0xFF // Meta in file context, Reset on the wire.
)

// Message is an ordered sequence of bytes with an associated time stamp.
//
// Invariants:
//   - Data[0] is a status byte (high bit set), or Data is empty mid-build.
//   - For channel messages, Data[0]'s low nibble is the channel.
//   - Size matches StatusSize(Data[0]) except for SysEx/Meta, which are
//     variable length.
type Message struct {
	Data    []byte
	Seconds float64 // time stamp, seconds since some origin
	Ticks   int64   // -1 means "null pulse"
}

// NullPulse is the sentinel tick value meaning "no tick assigned".
const NullPulse int64 = -1

// New builds a Message with status, d0, d1. For 1-byte statuses d0/d1 are
// not stored; for 2-byte statuses d1 is not stored.
func New(seconds float64, status Status, d0, d1 byte) Message {
	n := StatusSize(status)
	switch n {
	case 1:
		return Message{Data: []byte{status}, Seconds: seconds, Ticks: NullPulse}
	case 2:
		return Message{Data: []byte{status, d0 & 0x7F}, Seconds: seconds, Ticks: NullPulse}
	default:
		return Message{Data: []byte{status, d0 & 0x7F, d1 & 0x7F}, Seconds: seconds, Ticks: NullPulse}
	}
}

// Empty returns the default-constructed Message: a Note-Off with zero
// velocity.
func Empty() Message {
	return New(0, NoteOff, 0, 0)
}

// Status returns the message's status byte, or 0 if Data is empty.
func (m Message) Status() Status {
	if len(m.Data) == 0 {
		return 0
	}
	return m.Data[0]
}

// D0 returns the first data byte, or 0 if absent.
func (m Message) D0() byte {
	if len(m.Data) < 2 {
		return 0
	}
	return m.Data[1]
}

// D1 returns the second data byte, or 0 if absent.
func (m Message) D1() byte {
	if len(m.Data) < 3 {
		return 0
	}
	return m.Data[2]
}

// StatusSize returns the expected total size of a status message, 1, 2 or
// 3, or -1 for SysEx (variable length). Unknown statuses return -1 too;
// callers that need a hard failure should check IsSysExMsg separately.
func StatusSize(s Status) int {
	switch MaskStatus(s) {
	case NoteOff, NoteOn, PolyAftertouch, ControlChange, PitchWheel:
		return 3
	case ProgramChange, ChannelPressure:
		return 2
	}
	switch s {
	case TimingClock, Start, Continue, Stop, ActiveSensing, MetaOrReset:
		return 1
	case SysExStart:
		return -1
	case SongPosition:
		return 3
	case MTCQuarterFrame, SongSelect:
		return 2
	case TuneRequest:
		return 1
	}
	return -1
}

// MetaSize returns the expected total size of a Meta message given its meta
// type byte (the byte following 0xFF), for the fixed-size meta types; -1
// for variable-length ones (e.g. text, SysEx-shaped metas).
func MetaSize(metaType byte) int {
	switch metaType {
	case 0x00: // Sequence number
		return 5
	case 0x20: // Channel prefix
		return 4
	case 0x21: // MIDI port
		return 4
	case 0x2F: // End of track
		return 3
	case 0x51: // Tempo
		return 6
	case 0x54: // SMPTE offset
		return 8
	case 0x58: // Time signature
		return 7
	case 0x59: // Key signature
		return 5
	default:
		return -1
	}
}

// MaskChannel extracts the 4-bit channel from a channel status byte.
func MaskChannel(s Status) Channel {
	return s & 0x0F
}

// MaskStatus extracts the high nibble (message class) from a status byte.
func MaskStatus(s Status) Status {
	return s & 0xF0
}

// IsChannelMsg reports whether s is a channel voice status (0x80..0xEF).
func IsChannelMsg(s Status) bool {
	return s >= 0x80 && s < 0xF0
}

// IsOneByteChannelMsg reports whether s is a channel status whose message
// carries one data byte after the status, i.e. Program Change or Channel
// Pressure.
func IsOneByteChannelMsg(s Status) bool {
	m := MaskStatus(s)
	return m == ProgramChange || m == ChannelPressure
}

// IsTwoByteChannelMsg reports whether s is a channel status carrying two
// data bytes: Note On/Off, Aftertouch, Control Change, Pitch Wheel.
func IsTwoByteChannelMsg(s Status) bool {
	return IsChannelMsg(s) && !IsOneByteChannelMsg(s)
}

// IsSystemMsg reports whether s is a system common status (0xF0..0xF7).
func IsSystemMsg(s Status) bool {
	return s >= 0xF0 && s < 0xF8
}

// IsRealtimeMsg reports whether s is a system real-time status (0xF8..0xFF).
func IsRealtimeMsg(s Status) bool {
	return s >= 0xF8
}

// IsSysExMsg reports whether s starts a System Exclusive message.
func IsSysExMsg(s Status) bool {
	return s == SysExStart
}

// IsSysExEndMsg reports whether b is the SysEx terminator byte.
func IsSysExEndMsg(b byte) bool {
	return b == SysExEnd
}

// IsSenseOrResetMsg reports whether s is Active Sensing or Reset (0xFF on
// the wire, distinct from Meta which only exists in file context).
func IsSenseOrResetMsg(s Status) bool {
	return s == ActiveSensing || s == MetaOrReset
}

// IsMetaMsg reports whether s is the Meta event marker. Callers must know
// their own context: 0xFF means Meta when reading a file and Reset when
// receiving from a live stream.
func IsMetaMsg(s Status) bool {
	return s == MetaOrReset
}

// IsNoteMsg reports whether s is Note On or Note Off.
func IsNoteMsg(s Status) bool {
	m := MaskStatus(s)
	return m == NoteOn || m == NoteOff
}

// IsNoteOnMsg reports whether s is Note On (velocity is not inspected).
func IsNoteOnMsg(s Status) bool {
	return MaskStatus(s) == NoteOn
}

// IsNoteOffMsg reports whether s is Note Off (velocity is not inspected).
func IsNoteOffMsg(s Status) bool {
	return MaskStatus(s) == NoteOff
}

// IsNoteOffVelocity reports whether a Note-On status with velocity vel is
// semantically a Note-Off (velocity 0).
func IsNoteOffVelocity(s Status, vel byte) bool {
	return IsNoteOnMsg(s) && vel == 0
}

// IsControllerMsg reports whether s is a Control Change message.
func IsControllerMsg(s Status) bool {
	return MaskStatus(s) == ControlChange
}

// IsContinuousEventMsg reports whether s carries a continuously-varying
// value: Aftertouch, Control Change, or Pitch Wheel.
func IsContinuousEventMsg(s Status) bool {
	m := MaskStatus(s)
	return m == PolyAftertouch || m == ControlChange || m == PitchWheel
}

// IsProgramChangeMsg reports whether s is a Program Change message.
func IsProgramChangeMsg(s Status) bool {
	return MaskStatus(s) == ProgramChange
}

// IsMetaTextMsg reports whether metaType identifies one of the text meta
// event subtypes (0x01..0x0F per the General MIDI file convention).
func IsMetaTextMsg(metaType byte) bool {
	return metaType >= 0x01 && metaType <= 0x0F
}

// IsTempoMsg reports whether metaType is the Set Tempo meta event (0x51).
func IsTempoMsg(metaType byte) bool {
	return metaType == 0x51
}

// IsTimeSignatureMsg reports whether metaType is the Time Signature meta
// event (0x58).
func IsTimeSignatureMsg(metaType byte) bool {
	return metaType == 0x58
}

// IsKeySignatureMsg reports whether metaType is the Key Signature meta
// event (0x59).
func IsKeySignatureMsg(metaType byte) bool {
	return metaType == 0x59
}

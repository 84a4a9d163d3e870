package event

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/midirt/midirt/message"
)

func TestEmptyIsNoteOffZero(t *testing.T) {
	e := Empty()
	if e.Status() != message.NoteOff {
		t.Fatalf("Empty().Status() = %#x, want NoteOff", e.Status())
	}
	if e.Msg.D0() != 0 || e.Msg.D1() != 0 {
		t.Fatal("Empty() data bytes should be zero")
	}
}

// A wire Note On with velocity 0 must classify as a Note Off.
func TestSetMidiEventNoteOnVelocityZero(t *testing.T) {
	e := Empty()
	ok := e.SetMidiEvent(0, []byte{0x90, 60, 0}, 3)
	if !ok {
		t.Fatal("SetMidiEvent returned false for a well-formed Note On")
	}
	if e.Status() != 0x80 {
		t.Fatalf("Status() = %#x, want 0x80", e.Status())
	}
	if e.Msg.D0() != 60 || e.Msg.D1() != 0 {
		t.Fatalf("D0/D1 = %d/%d, want 60/0", e.Msg.D0(), e.Msg.D1())
	}
	if !message.IsNoteOffMsg(e.Status()) {
		t.Fatal("expected a Note-Off after the velocity-0 rewrite")
	}
}

func TestSetMidiEventMalformedLeavesEventUnchanged(t *testing.T) {
	e := New(1.0, message.NoteOn, 10, 20)
	ok := e.SetMidiEvent(2.0, []byte{0x90, 10}, 3) // too few bytes for count=3
	if ok {
		t.Fatal("expected SetMidiEvent to reject truncated input")
	}
	if e.Status() != message.NoteOn || e.Msg.D0() != 10 || e.Msg.D1() != 20 || e.Msg.Seconds != 1.0 {
		t.Fatal("Event must be left unchanged on malformed input")
	}
}

// SysEx reassembly across two reads.
func TestSysexReassemblyAcrossReads(t *testing.T) {
	e := Empty()
	part1 := []byte{0xF0, 0x7E, 0x7F, 0x06, 0x01}
	for _, b := range part1 {
		if !e.AppendSysex(b) {
			t.Fatalf("unexpected early termination on byte %#x", b)
		}
	}
	if e.AppendSysex(0xF7) {
		t.Fatal("AppendSysex(0xF7) should return false")
	}
	want := append(append([]byte{}, part1...), 0xF7)
	if len(e.Msg.Data) != len(want) {
		t.Fatalf("got %d bytes, want %d", len(e.Msg.Data), len(want))
	}
	for i := range want {
		if e.Msg.Data[i] != want[i] {
			t.Fatalf("byte %d = %#x, want %#x", i, e.Msg.Data[i], want[i])
		}
	}
}

// On a tied tick, Note-Off must sort before Note-On so a retriggered
// note releases before it re-attacks.
func TestNoteOffSortsBeforeNoteOnOnTiedTick(t *testing.T) {
	off := New(0, message.NoteOff, 60, 0)
	on := New(0, message.NoteOn, 60, 100)
	off.Msg.Ticks, on.Msg.Ticks = 10, 10

	if !off.Less(&on) {
		t.Fatal("expected Note-Off to sort before Note-On on the same tick")
	}
	if on.Less(&off) {
		t.Fatal("Note-On must not sort before Note-Off on the same tick")
	}
}

func TestAppendSysexFirstByteForcesSysexStart(t *testing.T) {
	e := Empty()
	// AppendSysex always resets to a SysEx buffer even if Empty() started
	// as a Note-Off.
	e.AppendSysex(0x7E)
	if e.Msg.Data[0] != message.SysExStart {
		t.Fatalf("expected buffer to begin with SysExStart, got %#x", e.Msg.Data[0])
	}
}

func TestGetSetTextRoundTrip(t *testing.T) {
	e := Empty()
	e.SetText(0x03, "Verse 1")
	got, ok := e.GetText()
	if !ok || got != "Verse 1" {
		t.Fatalf("GetText() = %q, %v, want %q, true", got, ok, "Verse 1")
	}
}

// Universal invariant: ordering by (tick, rank) is stable and
// consistent with Less.
func TestPropertyEventOrderingConsistentWithRank(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 300
	properties := gopter.NewProperties(parameters)

	properties.Property("equal-tick events order by rank", prop.ForAll(
		func(tick int64, s1, s2 byte, ch1, ch2 byte) bool {
			e1 := Empty()
			e1.Msg.Ticks = tick
			e1.SetChannelStatus(pickClass(s1), ch1&0x0F)

			e2 := Empty()
			e2.Msg.Ticks = tick
			e2.SetChannelStatus(pickClass(s2), ch2&0x0F)

			return e1.Less(&e2) == (e1.GetRank() < e2.GetRank())
		},
		gen.Int64Range(0, 1_000_000),
		gen.UInt8(),
		gen.UInt8(),
		gen.UInt8(),
		gen.UInt8(),
	))

	properties.TestingRun(t)
}

// pickClass maps an arbitrary byte onto one of the channel-voice message
// classes, so the generated status bytes stay within the domain GetRank
// classifies.
func pickClass(b byte) message.Status {
	classes := []message.Status{
		message.NoteOff, message.NoteOn, message.PolyAftertouch,
		message.ControlChange, message.ProgramChange,
		message.ChannelPressure, message.PitchWheel,
	}
	return classes[int(b)%len(classes)]
}

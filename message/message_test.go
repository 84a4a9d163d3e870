package message

import "testing"

func TestIsOneByteChannelMsg(t *testing.T) {
	for s := Status(0x80); s < 0xF0; s++ {
		want := MaskStatus(s) == ProgramChange || MaskStatus(s) == ChannelPressure
		if got := IsOneByteChannelMsg(s); got != want {
			t.Errorf("IsOneByteChannelMsg(%#x) = %v, want %v", s, got, want)
		}
	}
}

func TestStatusSizeBoundaries(t *testing.T) {
	cases := []struct {
		s    Status
		want int
	}{
		{TimingClock, 1},
		{Start, 1},
		{Continue, 1},
		{Stop, 1},
		{ActiveSensing, 1},
		{MetaOrReset, 1},
		{ProgramChange, 2},
		{ChannelPressure, 2},
		{NoteOn, 3},
		{NoteOff, 3},
		{PolyAftertouch, 3},
		{ControlChange, 3},
		{PitchWheel, 3},
		{SongPosition, 3},
		{SysExStart, -1},
	}
	for _, c := range cases {
		if got := StatusSize(c.s); got != c.want {
			t.Errorf("StatusSize(%#x) = %d, want %d", c.s, got, c.want)
		}
	}
}

func TestIsNoteOffVelocity(t *testing.T) {
	if !IsNoteOffVelocity(NoteOn, 0) {
		t.Fatal("Note On with velocity 0 should be a Note-Off")
	}
	if IsNoteOffVelocity(NoteOn, 64) {
		t.Fatal("Note On with velocity 64 is not a Note-Off")
	}
	if IsNoteOffVelocity(NoteOff, 0) {
		t.Fatal("Note Off status itself is not classified via IsNoteOffVelocity")
	}
}

// Note-On velocity 0 classifies as Note-Off once the
// re-encoded status byte is inspected.
func TestNoteOnVelocityZeroBecomesNoteOff(t *testing.T) {
	status := NoteOn
	d0, d1 := byte(60), byte(0)
	if IsNoteOffVelocity(status, d1) {
		status = NoteOff
	}
	m := New(0, status, d0, d1)
	if m.Status() != NoteOff {
		t.Fatalf("Status() = %#x, want NoteOff", m.Status())
	}
	if m.D0() != 60 || m.D1() != 0 {
		t.Fatalf("D0/D1 = %d/%d, want 60/0", m.D0(), m.D1())
	}
	if !IsNoteOffMsg(m.Status()) {
		t.Fatal("expected IsNoteOffMsg true")
	}
}

func TestMetaTextRoundTrip(t *testing.T) {
	texts := []string{"", "a", "Track 1", "日本語のトラック名"}
	for _, text := range texts {
		buf := SetMetaEventText(0x03, text)
		got, ok := GetMetaEventText(buf)
		if !ok {
			t.Fatalf("GetMetaEventText(%q) failed to parse", text)
		}
		if got != text {
			t.Fatalf("round trip = %q, want %q", got, text)
		}
	}
}

func TestGetMetaEventTextRejectsMalformed(t *testing.T) {
	if _, ok := GetMetaEventText([]byte{0x90, 0x01}); ok {
		t.Fatal("non-meta status should not parse")
	}
	if _, ok := GetMetaEventText([]byte{MetaOrReset, 0x03, 0x05, 'h', 'i'}); ok {
		t.Fatal("declared length longer than buffer should fail")
	}
}

func TestInteropRoundTrip(t *testing.T) {
	m := New(1.5, NoteOn, 60, 100)
	lib := m.ToLibMessage()
	back := FromLibMessage(lib, m.Seconds)
	if len(back.Data) != len(m.Data) {
		t.Fatalf("length mismatch after round trip")
	}
	for i := range m.Data {
		if back.Data[i] != m.Data[i] {
			t.Fatalf("byte %d mismatch: %#x != %#x", i, back.Data[i], m.Data[i])
		}
	}
}

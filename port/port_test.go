package port

import "testing"

func TestSetEqualIgnoresNamesButNotIDs(t *testing.T) {
	a := NewSet()
	a.Add(Descriptor{ClientID: 1, PortID: 0, PortName: "Foo"})
	a.Add(Descriptor{ClientID: 1, PortID: 1, PortName: "Bar"})

	b := NewSet()
	b.Add(Descriptor{ClientID: 1, PortID: 0, PortName: "Renamed"})
	b.Add(Descriptor{ClientID: 1, PortID: 1, PortName: "Still Bar"})

	if !a.Equal(b) {
		t.Fatal("sets with identical (ClientID, PortID) pairs should be equal")
	}

	c := NewSet()
	c.Add(Descriptor{ClientID: 2, PortID: 0, PortName: "Foo"})
	if a.Equal(c) {
		t.Fatal("sets with differing ClientID should not be equal")
	}
}

// JACK alias normalization is exercised in the jack
// backend package directly; here we confirm the descriptor carries the
// alias through the Set unchanged once populated.
func TestSetAliasRoundTrip(t *testing.T) {
	s := NewSet()
	s.Add(Descriptor{ClientID: 0, PortID: 0, PortName: "system:midi_playback_2", Alias: "Launchpad Mini"})
	if got := s.Alias(0); got != "Launchpad Mini" {
		t.Fatalf("Alias(0) = %q, want %q", got, "Launchpad Mini")
	}
}

func TestSetClearThenEnumerate(t *testing.T) {
	s := NewSet()
	s.Add(Descriptor{ClientID: 1, PortID: 0})
	s.Clear()
	if s.Len() != 0 {
		t.Fatalf("Len() after Clear() = %d, want 0", s.Len())
	}
	s.Add(Descriptor{ClientID: 5, PortID: 9})
	if s.Len() != 1 {
		t.Fatalf("Len() after re-add = %d, want 1", s.Len())
	}
}

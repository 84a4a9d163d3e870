package message

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// A literal VLQ round trip.
func TestVarinumLiteralRoundTrip(t *testing.T) {
	const v = 0x200000
	enc := VarinumToBytes(v)
	want := []byte{0x81, 0x80, 0x80, 0x00}
	if len(enc) != len(want) {
		t.Fatalf("VarinumToBytes(%#x) = %v, want %v", v, enc, want)
	}
	for i := range want {
		if enc[i] != want[i] {
			t.Fatalf("VarinumToBytes(%#x) = %v, want %v", v, enc, want)
		}
	}
	if got := BytesToVarinum(want, 0); got != v {
		t.Fatalf("BytesToVarinum(%v, 0) = %#x, want %#x", want, got, v)
	}
}

// Universal invariant: VarinumSize(VarinumToBytes(v)) equals the
// number of bytes produced, for every v in [0, MaxVarinum].
func TestPropertyVarinumSizeMatchesEncodedLength(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 500
	properties := gopter.NewProperties(parameters)

	properties.Property("VarinumSize matches len(VarinumToBytes(v))", prop.ForAll(
		func(v uint32) bool {
			v %= MaxVarinum + 1
			enc := VarinumToBytes(v)
			return VarinumSize(v) == len(enc)
		},
		gen.UInt32Range(0, MaxVarinum),
	))

	properties.TestingRun(t)
}

// Universal invariant: bytes_to_varinum(varinum_to_bytes(v), 0) == v.
func TestPropertyVarinumRoundTrip(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 500
	properties := gopter.NewProperties(parameters)

	properties.Property("decode(encode(v)) == v", prop.ForAll(
		func(v uint32) bool {
			v %= MaxVarinum + 1
			return BytesToVarinum(VarinumToBytes(v), 0) == v
		},
		gen.UInt32Range(0, MaxVarinum),
	))

	properties.TestingRun(t)
}

func TestVarinumSizeUnsupportedAboveMax(t *testing.T) {
	if got := VarinumSize(MaxVarinum + 1); got != 0 {
		t.Fatalf("VarinumSize(MaxVarinum+1) = %d, want 0", got)
	}
}

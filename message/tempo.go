package message

import (
	"fmt"
	"strconv"
	"strings"
)

// Tempo and time conversions between pulses, seconds, measures, and the
// MIDI-file encoding of microseconds per quarter note.

// BpmFromBytes decodes a 3-byte big-endian "microseconds per quarter note"
// Tempo meta payload into microseconds.
func BpmFromBytes(t2, t1, t0 byte) uint32 {
	return uint32(t2)<<16 | uint32(t1)<<8 | uint32(t0)
}

// TempoUsToBytes encodes a microseconds-per-quarter-note value as 3
// big-endian bytes, the Tempo meta event payload format.
func TempoUsToBytes(us uint32) [3]byte {
	return [3]byte{
		byte(us >> 16),
		byte(us >> 8),
		byte(us),
	}
}

// TempoUsFromBPM converts a BPM value to microseconds per quarter note.
func TempoUsFromBPM(bpm float64) uint32 {
	if bpm <= 0 {
		return 0
	}
	return uint32(60_000_000.0 / bpm)
}

// BPMFromTempoUs converts microseconds per quarter note back to BPM.
func BPMFromTempoUs(us uint32) float64 {
	if us == 0 {
		return 0
	}
	return 60_000_000.0 / float64(us)
}

// PulsesToSeconds converts a pulse count to seconds given BPM and PPQN.
func PulsesToSeconds(pulses int64, bpm float64, ppqn int) float64 {
	if bpm <= 0 || ppqn <= 0 {
		return 0
	}
	return 60.0 * float64(pulses) / (bpm * float64(ppqn))
}

// PulsesToMeasures converts a pulse count to a fractional measure count,
// given PPQN, beats-per-measure, and beat width (denominator).
func PulsesToMeasures(pulses int64, ppqn, beatsPerMeasure, beatWidth int) float64 {
	if ppqn <= 0 || beatsPerMeasure <= 0 || beatWidth <= 0 {
		return 0
	}
	pulsesPerMeasure := float64(ppqn) * 4.0 * float64(beatsPerMeasure) / float64(beatWidth)
	return float64(pulses) / pulsesPerMeasure
}

// PulsesPerBeat returns the pulse count of a single beat at the given PPQN
// and beat width (a quarter-note beat is ppqn pulses; other beat widths
// scale accordingly).
func PulsesPerBeat(ppqn, beatWidth int) int64 {
	if beatWidth <= 0 {
		return int64(ppqn)
	}
	return int64(ppqn) * 4 / int64(beatWidth)
}

// PulsesToMeasureString converts a pulse count into "M:B:T" form: M and B
// are 1-based measure and beat numbers, T is the remaining pulse count
// within the beat.
func PulsesToMeasureString(pulses int64, ppqn, beatsPerMeasure, beatWidth int) string {
	ppb := PulsesPerBeat(ppqn, beatWidth)
	if ppb <= 0 || beatsPerMeasure <= 0 {
		return "1:1:0"
	}
	pulsesPerMeasure := ppb * int64(beatsPerMeasure)
	measure := pulses/pulsesPerMeasure + 1
	rem := pulses % pulsesPerMeasure
	beat := rem/ppb + 1
	tick := rem % ppb
	return fmt.Sprintf("%d:%d:%d", measure, beat, tick)
}

// MeasureStringToPulses is the inverse of PulsesToMeasureString, up to
// truncation of sub-pulse remainders (there are none; the format is
// integral). It returns (0, false) if s is malformed.
func MeasureStringToPulses(s string, ppqn, beatsPerMeasure, beatWidth int) (int64, bool) {
	parts := strings.Split(s, ":")
	if len(parts) != 3 {
		return 0, false
	}
	measure, err1 := strconv.ParseInt(parts[0], 10, 64)
	beat, err2 := strconv.ParseInt(parts[1], 10, 64)
	tick, err3 := strconv.ParseInt(parts[2], 10, 64)
	if err1 != nil || err2 != nil || err3 != nil {
		return 0, false
	}
	if measure < 1 || beat < 1 {
		return 0, false
	}
	ppb := PulsesPerBeat(ppqn, beatWidth)
	pulsesPerMeasure := ppb * int64(beatsPerMeasure)
	return (measure-1)*pulsesPerMeasure + (beat-1)*ppb + tick, true
}

package midiapi

import "sync"

// ID names one of the host MIDI backend families.
// It is a distinct type from a client-supplied display string so a typo
// in a config file can't silently resolve to "no API selected."
type ID string

// Unspecified means "let the runtime pick".
const Unspecified ID = ""

const (
	PipeWire ID = "pipewire"
	JACK     ID = "jack"
	ALSA     ID = "alsa"
	CoreMIDI ID = "coremidi"
	WinMM    ID = "winmm"
	WebMIDI  ID = "webmidi"
	Dummy    ID = "dummy"
)

// DetectionOrder is the fixed probe order on systems with multiple
// backends: PipeWire (if built), JACK, ALSA, Core, WinMM, WebMIDI, with
// Dummy last and unconditional.
var DetectionOrder = []ID{PipeWire, JACK, ALSA, CoreMIDI, WinMM, WebMIDI, Dummy}

// Prober reports whether an API is usable right now: compiled into this
// binary and, where cheaply checkable, able to open a client session.
// Concrete backend packages register their own Prober from a
// build-tag-gated init(), so this package never imports a concrete
// backend and "compiled in" stays distinct from "detected".
type Prober func() bool

var (
	registryMu sync.Mutex
	registry   = map[ID]Prober{}
)

// RegisterProbe installs (or replaces) the Prober for id. Passing a nil
// probe clears id's registration, so it is reported as not detected.
func RegisterProbe(id ID, probe Prober) {
	registryMu.Lock()
	defer registryMu.Unlock()
	if probe == nil {
		delete(registry, id)
		return
	}
	registry[id] = probe
}

// IsDetected reports whether id has a registered Prober and that Prober
// currently returns true. An API with no registered Prober — i.e. not
// compiled into this binary — is never detected.
func IsDetected(id ID) bool {
	registryMu.Lock()
	p := registry[id]
	registryMu.Unlock()
	if p == nil {
		return false
	}
	return p()
}

// DetectedAPIs returns every currently-detected API, in DetectionOrder.
func DetectedAPIs() []ID {
	var out []ID
	for _, id := range DetectionOrder {
		if IsDetected(id) {
			out = append(out, id)
		}
	}
	return out
}

// FallbackAPI returns the first detected API in DetectionOrder, or
// Unspecified if nothing is detected (this should not happen once
// backend/dummy is linked in, since its Prober always returns true) —
// the analogue of rtmidi::fallback_api().
func FallbackAPI() ID {
	for _, id := range DetectionOrder {
		if IsDetected(id) {
			return id
		}
	}
	return Unspecified
}

// SelectAPI picks a backend by enumerated API id, or lets the runtime
// pick: if desired is Unspecified, or desired is not currently
// detected, the runtime falls
// back to the first detected API in DetectionOrder; otherwise desired
// wins outright.
func SelectAPI(desired ID) ID {
	if desired != Unspecified && IsDetected(desired) {
		return desired
	}
	return FallbackAPI()
}

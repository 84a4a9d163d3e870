//go:build linux || darwin || freebsd

package jack

/*
#include <jack/jack.h>
#include <jack/midiport.h>
*/
import "C"

import (
	"sync"
	"time"
	"unsafe"

	"github.com/midirt/midirt/internal/rtlog"
	"github.com/midirt/midirt/message"
	"github.com/midirt/midirt/port"
)

// rtRecorder buffers log lines from the process callback so the hot path
// never calls into slog directly. A single package-level recorder is
// enough: JACK serializes calls to the process callback across all
// instances registered against the same client.
var rtRecorder = rtlog.NewRTRecorder(256)

// rtRecorderDrainOnce starts rtRecorder's non-RT drain goroutine the first
// time any Backend in this process connects. The recorder is shared across
// every registered Backend (see above), so its drain loop outlives any one
// Backend's EngineConnect/EngineDisconnect cycle rather than being torn
// down with the Backend that happened to start it.
var rtRecorderDrainOnce sync.Once

func ensureRTRecorderDraining() {
	rtRecorderDrainOnce.Do(func() {
		rtRecorder.StartDraining(200 * time.Millisecond)
	})
}

//export midirtProcessCallback
func midirtProcessCallback(nframes C.jack_nframes_t, arg unsafe.Pointer) C.int {
	regID := uint64(uintptr(arg))
	registryMu.Lock()
	b := registry[regID]
	registryMu.Unlock()
	if b == nil {
		return 0
	}

	b.mu.Lock()
	jp := b.jackPort
	dir := b.Direction
	portOpen := b.portOpen
	b.mu.Unlock()
	if !portOpen || jp == nil {
		return 0
	}

	switch dir {
	case port.DirectionInput:
		b.processInput(jp, nframes)
	case port.DirectionOutput:
		b.processOutput(jp, nframes)
	default: // duplex / engine: walk both sides
		b.processInput(jp, nframes)
		b.processOutput(jp, nframes)
	}
	return 0
}

// processInput runs on the JACK RT thread: decode every MIDI event in
// this cycle's input buffer, apply the ignore filter, reassemble SysEx
// across callback boundaries, and deliver.
func (b *Backend) processInput(jp *C.jack_port_t, nframes C.jack_nframes_t) {
	buf := C.jack_port_get_buffer(jp, nframes)
	count := C.jack_midi_get_event_count(buf)

	for i := C.uint32_t(0); i < count; i++ {
		var ev C.jack_midi_event_t
		if C.jack_midi_event_get(&ev, buf, i) != 0 {
			continue
		}
		data := unsafe.Slice((*byte)(unsafe.Pointer(ev.buffer)), int(ev.size))

		if len(data) == 0 {
			continue
		}
		status := data[0]

		if status == message.TimingClock || status == message.MTCQuarterFrame {
			if !b.allowTime {
				continue
			}
		}
		if status == message.ActiveSensing {
			if !b.allowSense {
				continue
			}
		}
		if status == message.SysExStart || len(b.sysexBuf) > 0 {
			if !b.allowSysex {
				b.sysexBuf = nil
				continue
			}
			b.sysexBuf = append(b.sysexBuf, data...)
			if data[len(data)-1] != message.SysExEnd {
				continue // reassembly continues on a later callback
			}
			full := b.sysexBuf
			b.sysexBuf = nil
			b.deliverRT(full)
			continue
		}

		cp := make([]byte, len(data))
		copy(cp, data)
		b.deliverRT(cp)
	}
}

// deliverRT computes the jack_get_time()-based delta and pushes into the
// queue or direct callback. First message after open has delta 0.
func (b *Backend) deliverRT(data []byte) {
	now := C.jack_get_time()
	var delta float64
	if b.lastTimeSet {
		delta = float64(now-b.lastTime) / 1e6
	}
	b.lastTime = now
	b.lastTimeSet = true

	msg := message.Message{Data: data, Seconds: delta, Ticks: message.NullPulse}
	before := b.Queue.Len()
	b.Queue.Push(delta, msg)
	if !b.Queue.HasCallback() && b.Queue.Len() == before {
		rtRecorder.Record(4 /* slog.LevelWarn */, "jack input queue full", int64(b.Queue.DroppedCount()))
	}
}

// processOutput runs on the JACK RT thread: clear this cycle's output
// buffer, then drain the ring with jack_midi_event_write, stopping (and
// leaving the remainder for next cycle) the moment a write fails so no
// message is silently dropped.
func (b *Backend) processOutput(jp *C.jack_port_t, nframes C.jack_nframes_t) {
	buf := C.jack_port_get_buffer(jp, nframes)
	C.jack_midi_clear_buffer(buf)

	if b.ring == nil {
		return
	}
	// Hold the close semaphore for the duration of the drain; ClosePort
	// acquires it to wait out an in-flight cycle before unregistering.
	if sem := b.closeSem; sem != nil {
		if !sem.TryAcquire(1) {
			return
		}
		defer sem.Release(1)
	}
	for {
		entry, ok := b.ring.peek()
		if !ok {
			break
		}
		if len(entry.data) == 0 {
			b.ring.advance()
			continue
		}
		rc := C.jack_midi_event_write(buf, 0, (*C.jack_midi_data_t)(unsafe.Pointer(&entry.data[0])), C.size_t(len(entry.data)))
		if rc != 0 {
			// Buffer full or out-of-order offset: stop for this cycle,
			// leave the rest in the ring for the next one.
			break
		}
		b.ring.advance()
	}
}

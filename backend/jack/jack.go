//go:build linux || darwin || freebsd

// Package jack implements the Backend API realization over JACK MIDI:
// one JACK client per instance, input/output processing done
// inside the JACK process callback (a host-owned real-time thread), and a
// bounded SPSC ring of Messages decoupling the application thread from
// that RT thread on the output path.
//
// We bind directly against jack/jack.h, jack/midiport.h and
// jack/ringbuffer.h rather than going through a higher-level driver
// library, because the Backend API contract (clock_continue(tick, beats),
// ignore-flag filtering before enqueue) doesn't match those libraries'
// In/Out port shapes.
package jack

/*
#cgo LDFLAGS: -ljack
#include <errno.h>
#include <jack/jack.h>
#include <jack/midiport.h>
#include <jack/ringbuffer.h>
#include <stdlib.h>
#include <string.h>

extern int midirtProcessCallback(jack_nframes_t nframes, void *arg);

static int processShim(jack_nframes_t nframes, void *arg) {
    return midirtProcessCallback(nframes, arg);
}

static int registerProcessCallback(jack_client_t *client, void *arg) {
    return jack_set_process_callback(client, processShim, arg);
}
*/
import "C"

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
	"unsafe"

	"github.com/midirt/midirt/errs"
	"github.com/midirt/midirt/internal/rtlog"
	"github.com/midirt/midirt/message"
	"github.com/midirt/midirt/midiapi"
	"github.com/midirt/midirt/port"
	"golang.org/x/sync/semaphore"
)

// ringCapacity is the build-tunable output ring size.
const ringCapacity = 2048

// ringEntry is one slot of the output ring handed from the application
// thread to the RT process callback.
type ringEntry struct {
	data    []byte
	seconds float64
}

// outputRing is a bounded SPSC ring: the application thread is the sole
// producer (push, from SendMessage under b.mu), the JACK process callback
// the sole consumer (peek/advance, from the RT thread, never under
// b.mu). head/tail/maxOcc/dropped are therefore atomic, the same
// discipline queue.Queue uses for its own SPSC ring.
type outputRing struct {
	buf     []ringEntry
	cap     uint32
	head    atomic.Uint32
	tail    atomic.Uint32
	maxOcc  atomic.Uint32
	dropped atomic.Uint64
}

func newOutputRing(capacity int) *outputRing {
	return &outputRing{buf: make([]ringEntry, capacity), cap: uint32(capacity)}
}

func (r *outputRing) push(data []byte, seconds float64) bool {
	tail := r.tail.Load()
	head := r.head.Load()
	if tail-head >= r.cap {
		r.dropped.Add(1)
		return false
	}
	r.buf[tail%r.cap] = ringEntry{data: data, seconds: seconds}
	newTail := tail + 1
	r.tail.Store(newTail)
	if occ := newTail - head; occ > r.maxOcc.Load() {
		r.maxOcc.Store(occ)
	}
	return true
}

func (r *outputRing) peek() (ringEntry, bool) {
	head := r.head.Load()
	tail := r.tail.Load()
	if head == tail {
		return ringEntry{}, false
	}
	return r.buf[head%r.cap], true
}

func (r *outputRing) advance() {
	r.head.Add(1)
}

// stats returns the ring's dropped-push count and high-water mark, for
// the teardown warning in ClosePort. Safe to call from either side of
// the SPSC discipline.
func (r *outputRing) stats() (dropped uint64, maxOcc uint32) {
	return r.dropped.Load(), r.maxOcc.Load()
}

// Backend realizes midiapi.API against one JACK client and port.
// Registered in the process-global callback table (registry below) so the
// C process-callback shim can find the Go receiver for its jack_client_t*
// opaque userdata.
type Backend struct {
	midiapi.Base

	mu sync.Mutex

	client     *C.jack_client_t
	jackPort   *C.jack_port_t
	clientName string
	portOpen   bool
	portIsVirt bool
	portName   string
	active     bool

	ring *outputRing

	lastTime    C.jack_time_t
	lastTimeSet bool
	allowSysex  bool
	allowTime   bool
	allowSense  bool
	sysexBuf    []byte

	closeSem *semaphore.Weighted

	regID uint64
}

// registry maps a small integer id (passed as the process callback's
// void *arg) back to the owning Backend, since cgo callbacks can't close
// over Go state directly.
var (
	registryMu sync.Mutex
	registry   = map[uint64]*Backend{}
	nextRegID  uint64
)

// New returns a Backend for the given direction.
func New(direction midiapi.Direction) *Backend {
	return &Backend{
		Base:       midiapi.NewBase(direction, 1024),
		allowSysex: true,
		allowTime:  true,
		allowSense: true,
	}
}

func (b *Backend) report(op string, kind errs.Kind, err error) {
	if err != nil {
		b.Report(errs.Wrap(op, kind, err))
	} else {
		b.Report(errs.New(op, kind))
	}
}

// init registers this backend's detection Prober. JACK is detected only
// if a server is already running; jack_client_open with JackNoStartServer
// returns null otherwise.
func init() {
	midiapi.RegisterProbe(midiapi.JACK, probeJACK)
}

func probeJACK() bool {
	cName := C.CString("midirt-detect")
	defer C.free(unsafe.Pointer(cName))
	var status C.jack_status_t
	client := C.jack_client_open(cName, C.JackNoStartServer, &status)
	if client == nil {
		return false
	}
	C.jack_client_close(client)
	return true
}

// EngineConnect opens a JACK client under clientName without starting the
// server if one isn't already running, registers the process callback
// appropriate to this backend's direction, and allocates the output ring
// for output/duplex backends.
func (b *Backend) EngineConnect(clientName string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.client != nil {
		return true
	}
	cName := C.CString(clientName)
	defer C.free(unsafe.Pointer(cName))

	var status C.jack_status_t
	client := C.jack_client_open(cName, C.JackNoStartServer, &status)
	if client == nil {
		b.report("jack.EngineConnect", errs.NoDeviceFound, nil)
		return false
	}
	b.client = client
	b.clientName = clientName

	ensureRTRecorderDraining()

	registryMu.Lock()
	nextRegID++
	b.regID = nextRegID
	registry[b.regID] = b
	registryMu.Unlock()

	C.registerProcessCallback(client, unsafe.Pointer(uintptr(b.regID)))

	if b.Direction == port.DirectionOutput || b.Direction == port.DirectionDuplex || b.Direction == port.DirectionEngine {
		b.ring = newOutputRing(ringCapacity)
		b.closeSem = semaphore.NewWeighted(1)
	}

	b.SetConnected(true)
	return true
}

// EngineDisconnect releases the client session. Idempotent.
func (b *Backend) EngineDisconnect() {
	b.ClosePort()
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.client != nil {
		C.jack_client_close(b.client)
		b.client = nil
		registryMu.Lock()
		delete(registry, b.regID)
		registryMu.Unlock()
	}
	b.SetConnected(false)
}

// EngineActivate attaches the client to the JACK processing graph.
func (b *Backend) EngineActivate() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.client == nil {
		return false
	}
	if b.active {
		return true
	}
	ok := C.jack_activate(b.client) == 0
	b.active = ok
	return ok
}

// EngineDeactivate detaches the client from the processing graph.
func (b *Backend) EngineDeactivate() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.client == nil || !b.active {
		return true
	}
	ok := C.jack_deactivate(b.client) == 0
	b.active = false
	return ok
}

// Initialize connects the client and activates it; JACK has no separate
// post-connect setup step beyond what EngineConnect/EngineActivate do.
func (b *Backend) Initialize(clientName string) bool {
	if !b.EngineConnect(clientName) {
		return false
	}
	return b.EngineActivate()
}

// OpenPort registers a local port of the opposite direction and connects
// it to the number-th matching system port.
func (b *Backend) OpenPort(number int, name string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.portOpen {
		return true
	}
	if b.client == nil {
		b.report("jack.OpenPort", errs.InvalidUse, nil)
		return false
	}

	jp, ok := b.registerLocalPort(name)
	if !ok {
		return false
	}

	names := enumeratePortNames(jackDirFlag(b.Direction))
	if number < 0 || number >= len(names) {
		C.jack_port_unregister(b.client, jp)
		b.report("jack.OpenPort", errs.InvalidDevice, nil)
		return false
	}

	local := C.CString(C.GoString(C.jack_port_name(jp)))
	remote := C.CString(names[number])
	defer C.free(unsafe.Pointer(local))
	defer C.free(unsafe.Pointer(remote))

	var rc C.int
	if b.Direction == port.DirectionOutput {
		rc = C.jack_connect(b.client, local, remote)
	} else {
		rc = C.jack_connect(b.client, remote, local)
	}
	if rc != 0 && rc != C.EEXIST {
		b.report("jack.OpenPort", errs.DriverError, nil)
	}

	b.jackPort = jp
	b.portOpen = true
	b.portIsVirt = false
	b.portName = name
	return true
}

// OpenVirtualPort registers only the local port.
func (b *Backend) OpenVirtualPort(name string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.portOpen {
		return true
	}
	if b.client == nil {
		b.report("jack.OpenVirtualPort", errs.InvalidUse, nil)
		return false
	}
	jp, ok := b.registerLocalPort(name)
	if !ok {
		return false
	}
	b.jackPort = jp
	b.portOpen = true
	b.portIsVirt = true
	b.portName = name
	return true
}

func (b *Backend) registerLocalPort(name string) (*C.jack_port_t, bool) {
	cName := C.CString(name)
	defer C.free(unsafe.Pointer(cName))
	typeName := C.CString(C.JACK_DEFAULT_MIDI_TYPE)
	defer C.free(unsafe.Pointer(typeName))

	flags := C.JackPortIsOutput
	if b.Direction == port.DirectionInput {
		flags = C.JackPortIsInput
	}
	jp := C.jack_port_register(b.client, cName, typeName, C.ulong(flags), 0)
	if jp == nil {
		b.report("jack.registerLocalPort", errs.DriverError, nil)
		return nil, false
	}
	return jp, true
}

// ClosePort optionally waits on the close semaphore for one process cycle
// so the ring has been drained before unregistering.
func (b *Backend) ClosePort() {
	b.mu.Lock()
	sem := b.closeSem
	client := b.client
	jp := b.jackPort
	open := b.portOpen
	b.mu.Unlock()

	if sem != nil && client != nil && open {
		// The process callback holds the semaphore while draining the
		// ring; acquiring it here waits out the in-flight cycle so no
		// message is truncated mid-write. Bounded, so a stalled server
		// can't wedge shutdown.
		ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
		if sem.Acquire(ctx, 1) == nil {
			sem.Release(1)
		}
		cancel()
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.portOpen && b.client != nil && jp != nil {
		C.jack_port_unregister(b.client, jp)
	}
	if b.portOpen && b.ring != nil {
		if dropped, maxOcc := b.ring.stats(); dropped > 0 || maxOcc > b.ring.cap/2 {
			rtlog.Warn("jack output ring pressure", "dropped", dropped, "maxOccupancy", maxOcc, "capacity", b.ring.cap)
		}
	}
	b.jackPort = nil
	b.portOpen = false
	b.portIsVirt = false
	b.portName = ""
}

func (b *Backend) IsPortOpen() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.portOpen
}

// GetPortCount enumerates JACK MIDI ports matching this backend's
// direction.
func (b *Backend) GetPortCount() int {
	return len(enumeratePortNames(jackDirFlag(b.Direction)))
}

func (b *Backend) GetPortName(index int) (string, bool) {
	names := enumeratePortNames(jackDirFlag(b.Direction))
	if index < 0 || index >= len(names) {
		return "", false
	}
	return names[index], true
}

// GetPortAlias looks up name's aliases via jack_port_by_name +
// jack_port_get_aliases and, for "system:" ports, derives a friendly
// device-model alias with hyphens normalized to spaces.
func (b *Backend) GetPortAlias(name string) (string, bool) {
	b.mu.Lock()
	client := b.client
	b.mu.Unlock()
	if client == nil {
		return "", false
	}
	cName := C.CString(name)
	defer C.free(unsafe.Pointer(cName))
	jp := C.jack_port_by_name(client, cName)
	if jp == nil {
		return "", false
	}
	return friendlyAlias(jp), true
}

// friendlyAlias recovers the alias list via jack_port_get_aliases and
// normalizes the last (most specific) entry.
func friendlyAlias(jp *C.jack_port_t) string {
	aliases := make([]*C.char, 2)
	cAliases := (**C.char)(unsafe.Pointer(&aliases[0]))
	for i := range aliases {
		aliases[i] = (*C.char)(C.malloc(C.size_t(C.jack_port_name_size())))
	}
	defer func() {
		for _, a := range aliases {
			C.free(unsafe.Pointer(a))
		}
	}()
	n := C.jack_port_get_aliases(jp, cAliases)
	if n <= 0 {
		return ""
	}
	return normalizeAlias(C.GoString(aliases[n-1]))
}

// normalizeAlias is the pure string half of friendlyAlias: given a raw
// alias such as "Launchpad-Mini:midi/playback_1", strip everything from
// the first ':' onward and translate hyphens to spaces, yielding
// "Launchpad Mini". Split out so it can be unit-tested without a live
// JACK client.
func normalizeAlias(raw string) string {
	idx := -1
	for i := 0; i < len(raw); i++ {
		if raw[i] == ':' {
			idx = i
			break
		}
	}
	label := raw
	if idx >= 0 {
		label = raw[:idx]
	}
	out := make([]byte, len(label))
	for i := 0; i < len(label); i++ {
		if label[i] == '-' {
			out[i] = ' '
		} else {
			out[i] = label[i]
		}
	}
	return string(out)
}

// GetIOPortInfo bulk-enumerates matching ports, populating aliases for
// "system:" ports.
func (b *Backend) GetIOPortInfo(ports *port.Set, preclear bool) int {
	b.mu.Lock()
	client := b.client
	b.mu.Unlock()
	if client == nil {
		return -1
	}
	if preclear {
		ports.Clear()
	}
	names := enumeratePortNames(jackDirFlag(b.Direction))
	for i, name := range names {
		alias, _ := b.GetPortAlias(name)
		ports.Add(port.Descriptor{
			ClientID:   0,
			ClientName: b.clientName,
			PortID:     i,
			PortName:   name,
			Direction:  b.Direction,
			Kind:       port.KindNormal,
			Alias:      alias,
		})
	}
	return len(names)
}

// SetClientName: JACK only supports setting the client name at open time,
// so this is a no-op that reports it did nothing.
func (b *Backend) SetClientName(name string) bool { return false }

// SetPortName renames the currently open local port, when the installed
// libjack supports jack_port_rename.
func (b *Backend) SetPortName(name string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.client == nil || !b.portOpen || b.jackPort == nil {
		return false
	}
	cName := C.CString(name)
	defer C.free(unsafe.Pointer(cName))
	if C.jack_port_rename(b.client, b.jackPort, cName) != 0 {
		return false
	}
	b.portName = name
	return true
}

// SendMessage pushes data onto the output ring; the process callback
// drains it on its next cycle, so this can complete before the message
// reaches the wire.
func (b *Backend) SendMessage(data []byte) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.ring == nil || !b.portOpen {
		return false
	}
	cp := append([]byte(nil), data...)
	ok := b.ring.push(cp, nowSeconds())
	if !ok {
		rtlog.Warn("jack output ring full, message dropped")
	}
	return ok
}

func (b *Backend) SendMessageT(msg message.Message) bool {
	return b.SendMessage(msg.Data)
}

// FlushPort has no meaning beyond "the ring will drain on the next
// process cycle"; JACK gives no synchronous flush primitive.
func (b *Backend) FlushPort() bool { return true }

func (b *Backend) IgnoreMidiTypes(sysex, timeCode, sense bool) {
	b.mu.Lock()
	b.allowSysex, b.allowTime, b.allowSense = !sysex, !timeCode, !sense
	b.mu.Unlock()
	b.Base.IgnoreMidiTypes(sysex, timeCode, sense)
}

func (b *Backend) ClockStart() bool          { return b.SendMessage([]byte{message.Start}) }
func (b *Backend) ClockSend(tick int64) bool { return b.SendMessage([]byte{message.TimingClock}) }
func (b *Backend) ClockStop() bool           { return b.SendMessage([]byte{message.Stop}) }

// ClockContinue repositions the receiver with a Song Position (one MIDI
// beat = 6 clocks) before sending Continue, the same sequence the ALSA
// side emits. beats is unused here, as with the other backends.
func (b *Backend) ClockContinue(tick int64, beats int) bool {
	pos := tick / 6
	if !b.SendMessage([]byte{message.SongPosition, byte(pos & 0x7F), byte((pos >> 7) & 0x7F)}) {
		return false
	}
	return b.SendMessage([]byte{message.Continue})
}

func (b *Backend) SendByte(v byte) bool { return b.SendMessage([]byte{v}) }

func (b *Backend) SendEvent(data []byte, channel message.Channel) bool {
	if len(data) == 0 {
		return false
	}
	out := append([]byte(nil), data...)
	if message.IsChannelMsg(out[0]) {
		out[0] = (out[0] & 0xF0) | (channel & 0x0F)
	}
	return b.SendMessage(out)
}

func (b *Backend) SendSysex(data []byte) bool {
	return b.SendMessage(data)
}

var _ midiapi.API = (*Backend)(nil)

func jackDirFlag(dir midiapi.Direction) C.ulong {
	if dir == port.DirectionOutput {
		return C.ulong(C.JackPortIsInput)
	}
	return C.ulong(C.JackPortIsOutput)
}

// enumeratePortNames calls jack_get_ports for MIDI-typed ports matching
// flag, against a short-lived client of its own so enumeration works
// before any Backend has connected. If no server is running it returns
// an empty list.
func enumeratePortNames(flag C.ulong) []string {
	cName := C.CString("midirt-probe")
	defer C.free(unsafe.Pointer(cName))
	var status C.jack_status_t
	client := C.jack_client_open(cName, C.JackNoStartServer, &status)
	if client == nil {
		return nil
	}
	defer C.jack_client_close(client)

	typeName := C.CString(C.JACK_DEFAULT_MIDI_TYPE)
	defer C.free(unsafe.Pointer(typeName))
	cPorts := C.jack_get_ports(client, nil, typeName, flag)
	if cPorts == nil {
		return nil
	}
	defer C.jack_free(unsafe.Pointer(cPorts))

	// jack_get_ports returns a NULL-terminated char** array of unknown
	// length; walk it as a large slice and stop at the first NULL entry.
	const maxPorts = 4096
	raw := unsafe.Slice(cPorts, maxPorts)
	var names []string
	for i := 0; i < maxPorts && raw[i] != nil; i++ {
		names = append(names, C.GoString(raw[i]))
	}
	return names
}

func nowSeconds() float64 {
	return float64(C.jack_get_time()) / 1e6
}

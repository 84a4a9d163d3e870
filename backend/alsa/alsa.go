//go:build linux

// Package alsa implements the Backend API realization over the Linux ALSA
// sequencer: one duplex sequencer client, a dedicated reader
// thread per input instance driven by poll() against a self-pipe plus
// ALSA's own pollfds, and a timestamped queue for real-time clock output.
package alsa

/*
#cgo LDFLAGS: -lasound
#include <alsa/asoundlib.h>
#include <poll.h>
#include <stdlib.h>

static int xrun_errno(int err) { return err == -EAGAIN ? 0 : err; }

// The snd_seq_ev_* helpers are macros, unreachable from cgo; wrap the
// shared direct-delivery setup once here.
static void ev_prepare(snd_seq_event_t *ev, unsigned char port) {
    snd_seq_ev_clear(ev);
    snd_seq_ev_set_source(ev, port);
    snd_seq_ev_set_subs(ev);
    snd_seq_ev_set_direct(ev);
}
*/
import "C"

import (
	"sync"
	"unsafe"

	"github.com/midirt/midirt/errs"
	"github.com/midirt/midirt/internal/rtlog"
	"github.com/midirt/midirt/message"
	"github.com/midirt/midirt/midiapi"
	"github.com/midirt/midirt/port"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sys/unix"
)

// announceClient is ALSA's system timer/announce client; enumeration
// always skips it.
const announceClient = 0

// enableAnnouncePort gates whether client 0's announce port is itself
// eligible for enumeration. Off by default; flip it to iterate client 0.
const enableAnnouncePort = false

// Backend realizes midiapi.API against one ALSA sequencer port of a given
// direction. Input backends additionally own a reader goroutine and the
// self-pipe used to cancel it.
type Backend struct {
	midiapi.Base

	mu sync.Mutex

	seq        *C.snd_seq_t
	localPort  C.int
	queueID    C.int
	hasQueue   bool
	clientName string
	portOpen   bool
	portIsVirt bool
	portIsSys  bool
	portName   string

	lastTimeSet bool
	lastTime    C.snd_seq_real_time_t

	decodeBuf   []byte // grows on demand to fit SysEx reassembly
	midiDecoder *C.snd_midi_event_t

	// Reader thread plumbing (input direction only).
	triggerRead  int
	triggerWrite int
	group        *errgroup.Group
	allowSysex   bool
	allowTime    bool
	allowSense   bool
}

// New returns a Backend for the given direction. The sequencer client
// itself is not opened until EngineConnect.
func New(direction midiapi.Direction) *Backend {
	return &Backend{
		Base:       midiapi.NewBase(direction, 1024),
		allowSysex: true,
		allowTime:  true,
		allowSense: true,
	}
}

// init registers this backend's detection Prober. Being compiled for
// Linux is necessary but not sufficient — ALSA's sequencer
// device may not exist in a container or a kernel built without it — so
// the Prober actually opens and immediately closes a throwaway sequencer
// client rather than just reporting "compiled in."
func init() {
	midiapi.RegisterProbe(midiapi.ALSA, probeALSA)
}

func probeALSA() bool {
	var seq *C.snd_seq_t
	cName := C.CString("default")
	defer C.free(unsafe.Pointer(cName))
	rc := C.snd_seq_open(&seq, cName, C.SND_SEQ_OPEN_DUPLEX, 0)
	if rc < 0 {
		return false
	}
	C.snd_seq_close(seq)
	return true
}

func (b *Backend) report(op string, kind errs.Kind, err error) {
	if err != nil {
		b.Report(errs.Wrap(op, kind, err))
	} else {
		b.Report(errs.New(op, kind))
	}
}

// EngineConnect opens an ALSA sequencer client in duplex mode under
// clientName. It does not activate or create any port.
func (b *Backend) EngineConnect(clientName string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.seq != nil {
		return true
	}
	cName := C.CString(clientName)
	defer C.free(unsafe.Pointer(cName))
	cDefault := C.CString("default")
	defer C.free(unsafe.Pointer(cDefault))

	var seq *C.snd_seq_t
	rc := C.snd_seq_open(&seq, cDefault, C.SND_SEQ_OPEN_DUPLEX, 0)
	if rc < 0 {
		b.report("alsa.EngineConnect", errs.DriverError, nil)
		return false
	}
	C.snd_seq_set_client_name(seq, cName)
	b.seq = seq
	b.clientName = clientName
	b.SetConnected(true)
	return true
}

// EngineDisconnect closes the sequencer client. Idempotent.
func (b *Backend) EngineDisconnect() {
	b.ClosePort()
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.midiDecoder != nil {
		C.snd_midi_event_free(b.midiDecoder)
		b.midiDecoder = nil
	}
	if b.seq != nil {
		C.snd_seq_close(b.seq)
		b.seq = nil
	}
	b.SetConnected(false)
}

// EngineActivate/EngineDeactivate: ALSA has no separate graph-activation
// step distinct from opening the client, so both are no-op successes.
func (b *Backend) EngineActivate() bool   { return true }
func (b *Backend) EngineDeactivate() bool { return true }

// Initialize allocates a timestamped queue (for every direction, once per
// backend) and, for input and duplex backends, starts the reader goroutine
// and its self-pipe.
func (b *Backend) Initialize(clientName string) bool {
	if !b.EngineConnect(clientName) {
		return false
	}
	b.mu.Lock()
	if b.seq != nil && !b.hasQueue {
		cQueue := C.CString("midirt")
		qid := C.snd_seq_alloc_named_queue(b.seq, cQueue)
		C.free(unsafe.Pointer(cQueue))
		if qid >= 0 {
			b.queueID = qid
			b.hasQueue = true
		}
	}
	needsReader := b.Direction == port.DirectionInput || b.Direction == port.DirectionDuplex
	b.mu.Unlock()

	if needsReader {
		return b.startReader()
	}
	return true
}

func (b *Backend) startReader() bool {
	fds := make([]int, 2)
	if err := unix.Pipe2(fds, unix.O_NONBLOCK); err != nil {
		b.report("alsa.Initialize", errs.SystemError, err)
		return false
	}
	b.mu.Lock()
	b.triggerRead, b.triggerWrite = fds[0], fds[1]
	b.group = new(errgroup.Group)
	b.group.Go(b.readLoop)
	b.mu.Unlock()
	return true
}

// readLoop runs on its own goroutine. It is not real-time: it blocks in
// poll() between messages and decodes events on this same goroutine.
func (b *Backend) readLoop() error {
	for {
		woken, err := b.pollOnce()
		if err != nil {
			rtlog.Warn("alsa reader poll failed", "err", err)
			return nil
		}
		if woken == pollTrigger {
			return nil
		}
		b.drainEvents()
	}
}

type pollResult int

const (
	pollNone pollResult = iota
	pollALSA
	pollTrigger
)

// pollOnce blocks on {trigger-fd, ALSA pollfds}, using the ALSA-provided
// pollfd count/descriptors so ALSA's own poll() remains the single wait
// point of the reader.
func (b *Backend) pollOnce() (pollResult, error) {
	b.mu.Lock()
	seq := b.seq
	triggerFD := b.triggerRead
	b.mu.Unlock()
	if seq == nil {
		return pollNone, nil
	}

	n := C.snd_seq_poll_descriptors_count(seq, C.POLLIN)
	pfds := make([]C.struct_pollfd, n+1)
	C.snd_seq_poll_descriptors(seq, &pfds[1], C.uint(n), C.POLLIN)
	pfds[0].fd = C.int(triggerFD)
	pfds[0].events = C.POLLIN

	rc := C.poll(&pfds[0], C.nfds_t(n+1), -1)
	if rc < 0 {
		return pollNone, nil
	}
	if pfds[0].revents&C.POLLIN != 0 {
		var scratch [1]byte
		unix.Read(triggerFD, scratch[:])
		return pollTrigger, nil
	}
	return pollALSA, nil
}

// drainEvents reads every pending sequencer event and converts it to a
// Message, delivering each to the callback or the input queue.
func (b *Backend) drainEvents() {
	for {
		b.mu.Lock()
		seq := b.seq
		b.mu.Unlock()
		if seq == nil {
			return
		}
		var ev *C.snd_seq_event_t
		rc := C.snd_seq_event_input(seq, &ev)
		if rc == -C.ENOSPC {
			rtlog.Warn("MIDI input overrun")
			continue
		}
		if rc < 0 {
			return
		}
		if !b.handleEvent(ev) {
			continue
		}
	}
}

// handleEvent classifies and decodes one snd_seq_event_t. It returns true
// on every path, including filtered and undecodable events; it never
// signals an error through the return value.
func (b *Backend) handleEvent(ev *C.snd_seq_event_t) bool {
	switch ev._type {
	case C.SND_SEQ_EVENT_PORT_SUBSCRIBED, C.SND_SEQ_EVENT_PORT_UNSUBSCRIBED:
		rtlog.Debug("alsa port (un)subscribed event", "type", int(ev._type))
		return true
	case C.SND_SEQ_EVENT_QFRAME, C.SND_SEQ_EVENT_TICK, C.SND_SEQ_EVENT_CLOCK:
		if !b.allowTime {
			return true
		}
	case C.SND_SEQ_EVENT_SENSING:
		if !b.allowSense {
			return true
		}
	}

	delta := b.deltaSince(*(*C.snd_seq_real_time_t)(unsafe.Pointer(&ev.time)))

	if ev._type == C.SND_SEQ_EVENT_SYSEX {
		if !b.allowSysex {
			return true
		}
		b.appendSysexBytes(ev)
		return true
	}

	decoder := b.decoder()
	if decoder == nil {
		return true
	}
	buf := make([]byte, 16)
	n := C.snd_midi_event_decode(decoder, (*C.uchar)(unsafe.Pointer(&buf[0])), C.long(len(buf)), ev)
	if n <= 0 {
		return true
	}
	b.deliver(delta, buf[:n])
	return true
}

// decoder lazily allocates the reader's shared event decoder, so the
// drain loop never allocates one per event.
func (b *Backend) decoder() *C.snd_midi_event_t {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.midiDecoder == nil {
		if C.snd_midi_event_new(16, &b.midiDecoder) < 0 {
			return nil
		}
	}
	return b.midiDecoder
}

// appendSysexBytes grows decodeBuf on demand to fit ev's payload and
// reassembles across events until a trailing 0xF7.
func (b *Backend) appendSysexBytes(ev *C.snd_seq_event_t) {
	ext := (*C.snd_seq_ev_ext_t)(unsafe.Pointer(&ev.data))
	extLen := int(ext.len)
	if extLen == 0 {
		return
	}
	chunk := C.GoBytes(ext.ptr, C.int(extLen))
	b.mu.Lock()
	b.decodeBuf = append(b.decodeBuf, chunk...)
	b.mu.Unlock()

	if chunk[len(chunk)-1] == message.SysExEnd {
		b.mu.Lock()
		full := b.decodeBuf
		b.decodeBuf = nil
		b.mu.Unlock()
		delta := b.deltaSince(*(*C.snd_seq_real_time_t)(unsafe.Pointer(&ev.time)))
		b.deliver(delta, full)
	}
}

// deltaSince computes the seconds elapsed since the previously observed
// event time, recording t as the new baseline. The first message after
// open has delta 0.
func (b *Backend) deltaSince(t C.snd_seq_real_time_t) float64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.lastTimeSet {
		b.lastTimeSet = true
		b.lastTime = t
		return 0
	}
	delta := (float64(t.tv_sec) - float64(b.lastTime.tv_sec)) + (float64(t.tv_nsec)-float64(b.lastTime.tv_nsec))/1e9
	b.lastTime = t
	if delta < 0 {
		delta = 0
	}
	return delta
}

func (b *Backend) deliver(delta float64, data []byte) {
	msg := message.Message{Data: append([]byte(nil), data...), Seconds: delta, Ticks: message.NullPulse}
	before := b.Queue.Len()
	b.Queue.Push(delta, msg)
	if !b.Queue.HasCallback() && b.Queue.Len() == before {
		rtlog.Warn("message queue limit reached")
	}
}

// OpenPort registers a local port with the opposite capability set,
// locates the number-th remote port matching this backend's direction,
// and subscribes sender->receiver.
func (b *Backend) OpenPort(number int, name string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.portOpen {
		return true
	}
	if b.seq == nil {
		b.report("alsa.OpenPort", errs.InvalidUse, nil)
		return false
	}

	cName := C.CString(name)
	defer C.free(unsafe.Pointer(cName))
	caps := localCaps(b.Direction)
	lp := C.snd_seq_create_simple_port(b.seq, cName, caps, C.SND_SEQ_PORT_TYPE_MIDI_GENERIC|C.SND_SEQ_PORT_TYPE_APPLICATION)
	if lp < 0 {
		b.report("alsa.OpenPort", errs.DriverError, nil)
		return false
	}

	remote, ok := b.findRemotePort(number)
	if !ok {
		C.snd_seq_delete_simple_port(b.seq, lp)
		b.report("alsa.OpenPort", errs.InvalidDevice, nil)
		return false
	}

	var rc C.int
	if b.Direction == port.DirectionOutput {
		rc = C.snd_seq_connect_to(b.seq, lp, C.int(remote.client), C.int(remote.port))
	} else {
		rc = C.snd_seq_connect_from(b.seq, lp, C.int(remote.client), C.int(remote.port))
	}
	if rc < 0 {
		C.snd_seq_delete_simple_port(b.seq, lp)
		b.report("alsa.OpenPort", errs.DriverError, nil)
		return false
	}

	b.localPort = lp
	b.portOpen = true
	b.portIsVirt = false
	b.portName = name
	return true
}

// OpenVirtualPort registers only the local port, connectable by others.
// For an input virtual port with an allocated queue it enlarges the
// client's input pool; it does not enable timestamping or set any
// real-time/queue flags on the port.
func (b *Backend) OpenVirtualPort(name string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.portOpen {
		return true
	}
	if b.seq == nil {
		b.report("alsa.OpenVirtualPort", errs.InvalidUse, nil)
		return false
	}
	cName := C.CString(name)
	defer C.free(unsafe.Pointer(cName))
	caps := localCaps(b.Direction)
	lp := C.snd_seq_create_simple_port(b.seq, cName, caps, C.SND_SEQ_PORT_TYPE_MIDI_GENERIC|C.SND_SEQ_PORT_TYPE_APPLICATION)
	if lp < 0 {
		b.report("alsa.OpenVirtualPort", errs.DriverError, nil)
		return false
	}
	if b.Direction == port.DirectionInput && b.hasQueue {
		C.snd_seq_set_client_pool_input(b.seq, 1024)
	}
	b.localPort = lp
	b.portOpen = true
	b.portIsVirt = true
	b.portName = name
	return true
}

// ClosePort stops the queue (if timestamped), signals and joins the
// reader (if any), removes the subscription, and deletes the port. Safe
// to call multiple times.
func (b *Backend) ClosePort() {
	b.mu.Lock()
	triggerWrite := b.triggerWrite
	triggerRead := b.triggerRead
	group := b.group
	b.triggerWrite, b.triggerRead, b.group = 0, 0, nil
	b.mu.Unlock()

	if triggerWrite != 0 {
		unix.Write(triggerWrite, []byte{0})
	}
	if group != nil {
		_ = group.Wait()
	}
	if triggerRead != 0 {
		unix.Close(triggerRead)
	}
	if triggerWrite != 0 {
		unix.Close(triggerWrite)
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.hasQueue {
		if b.seq != nil {
			C.snd_seq_stop_queue(b.seq, b.queueID, nil)
		}
		b.hasQueue = false
	}
	if b.portOpen && b.seq != nil {
		C.snd_seq_delete_simple_port(b.seq, b.localPort)
	}
	b.portOpen = false
	b.portIsVirt = false
	b.portName = ""
}

func (b *Backend) IsPortOpen() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.portOpen
}

// eachEligiblePort walks every remote client:port eligible for this
// backend's direction, calling fn per port until fn returns false. The
// client/port info records are opaque to cgo and heap-allocated through
// ALSA's own malloc/free pair. Caller holds b.mu.
func (b *Backend) eachEligiblePort(fn func(clientInfo *C.snd_seq_client_info_t, portInfo *C.snd_seq_port_info_t) bool) {
	var clientInfo *C.snd_seq_client_info_t
	var portInfo *C.snd_seq_port_info_t
	if C.snd_seq_client_info_malloc(&clientInfo) < 0 {
		return
	}
	defer C.snd_seq_client_info_free(clientInfo)
	if C.snd_seq_port_info_malloc(&portInfo) < 0 {
		return
	}
	defer C.snd_seq_port_info_free(portInfo)

	C.snd_seq_client_info_set_client(clientInfo, -1)
	for C.snd_seq_query_next_client(b.seq, clientInfo) >= 0 {
		client := C.snd_seq_client_info_get_client(clientInfo)
		if client == announceClient && !enableAnnouncePort {
			continue
		}
		C.snd_seq_port_info_set_client(portInfo, client)
		C.snd_seq_port_info_set_port(portInfo, -1)
		for C.snd_seq_query_next_port(b.seq, portInfo) >= 0 {
			if !portEligible(portInfo, b.Direction) {
				continue
			}
			if !fn(clientInfo, portInfo) {
				return
			}
		}
	}
}

// findRemotePort locates the number-th remote client:port eligible for
// this backend's direction. Caller holds b.mu.
func (b *Backend) findRemotePort(number int) (C.snd_seq_addr_t, bool) {
	var addr C.snd_seq_addr_t
	found := false
	count := 0
	b.eachEligiblePort(func(_ *C.snd_seq_client_info_t, portInfo *C.snd_seq_port_info_t) bool {
		if count == number {
			addr = *C.snd_seq_port_info_get_addr(portInfo)
			found = true
			return false
		}
		count++
		return true
	})
	return addr, found
}

// GetPortCount enumerates remote ports matching this backend's direction
// without caching them.
func (b *Backend) GetPortCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.seq == nil {
		return 0
	}
	n := 0
	b.eachEligiblePort(func(_ *C.snd_seq_client_info_t, _ *C.snd_seq_port_info_t) bool {
		n++
		return true
	})
	return n
}

// GetPortName returns the name of the index-th eligible remote port.
func (b *Backend) GetPortName(index int) (string, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.seq == nil {
		return "", false
	}
	name := ""
	found := false
	count := 0
	b.eachEligiblePort(func(_ *C.snd_seq_client_info_t, portInfo *C.snd_seq_port_info_t) bool {
		if count == index {
			name = C.GoString(C.snd_seq_port_info_get_name(portInfo))
			found = true
			return false
		}
		count++
		return true
	})
	return name, found
}

// GetPortAlias has no ALSA analogue distinct from the port name itself;
// ALSA ports don't carry a separate alias list the way JACK's do.
func (b *Backend) GetPortAlias(name string) (string, bool) {
	return "", false
}

// GetIOPortInfo bulk-enumerates remote ports into ports, matching
// findRemotePort's eligibility rule.
func (b *Backend) GetIOPortInfo(ports *port.Set, preclear bool) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.seq == nil {
		return -1
	}
	if preclear {
		ports.Clear()
	}
	n := 0
	b.eachEligiblePort(func(clientInfo *C.snd_seq_client_info_t, portInfo *C.snd_seq_port_info_t) bool {
		addr := C.snd_seq_port_info_get_addr(portInfo)
		ports.Add(port.Descriptor{
			ClientID:   int(addr.client),
			ClientName: C.GoString(C.snd_seq_client_info_get_name(clientInfo)),
			PortID:     int(addr.port),
			PortName:   C.GoString(C.snd_seq_port_info_get_name(portInfo)),
			Direction:  b.Direction,
			Kind:       port.KindNormal,
		})
		n++
		return true
	})
	return n
}

// SetClientName renames the sequencer client.
func (b *Backend) SetClientName(name string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.seq == nil {
		return false
	}
	cName := C.CString(name)
	defer C.free(unsafe.Pointer(cName))
	C.snd_seq_set_client_name(b.seq, cName)
	b.clientName = name
	return true
}

// SetPortName renames the currently open local port.
func (b *Backend) SetPortName(name string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.seq == nil || !b.portOpen {
		return false
	}
	var info *C.snd_seq_port_info_t
	if C.snd_seq_port_info_malloc(&info) < 0 {
		return false
	}
	defer C.snd_seq_port_info_free(info)
	if C.snd_seq_get_port_info(b.seq, b.localPort, info) < 0 {
		return false
	}
	cName := C.CString(name)
	defer C.free(unsafe.Pointer(cName))
	C.snd_seq_port_info_set_name(info, cName)
	if C.snd_seq_set_port_info(b.seq, b.localPort, info) < 0 {
		return false
	}
	b.portName = name
	return true
}

// SendMessage delivers a complete MIDI message via snd_midi_event_encode,
// then drains the output pool.
func (b *Backend) SendMessage(data []byte) bool {
	if len(data) == 0 {
		return false
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.seq == nil || !b.portOpen {
		return false
	}

	var ev C.snd_seq_event_t
	C.ev_prepare(&ev, C.uchar(b.localPort))

	var encoder *C.snd_midi_event_t
	C.snd_midi_event_new(C.size_t(len(data)), &encoder)
	defer C.snd_midi_event_free(encoder)
	n := C.snd_midi_event_encode(encoder, (*C.uchar)(unsafe.Pointer(&data[0])), C.long(len(data)), &ev)
	if n < 0 {
		return false
	}
	if C.snd_seq_event_output(b.seq, &ev) < 0 {
		return false
	}
	C.snd_seq_drain_output(b.seq)
	return true
}

func (b *Backend) SendMessageT(msg message.Message) bool {
	return b.SendMessage(msg.Data)
}

// FlushPort drains any buffered but unsent events.
func (b *Backend) FlushPort() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.seq == nil {
		return true
	}
	return C.snd_seq_drain_output(b.seq) >= 0
}

// IgnoreMidiTypes installs the reader's pre-delivery filter.
func (b *Backend) IgnoreMidiTypes(sysex, timeCode, sense bool) {
	b.mu.Lock()
	b.allowSysex, b.allowTime, b.allowSense = !sysex, !timeCode, !sense
	b.mu.Unlock()
	b.Base.IgnoreMidiTypes(sysex, timeCode, sense)
}

// clockEvent builds a direct, subs-destined real-time snd_seq_event_t and
// drains it.
func (b *Backend) clockEvent(etype C.snd_seq_event_type_t) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.seq == nil || !b.portOpen {
		return false
	}
	var ev C.snd_seq_event_t
	C.ev_prepare(&ev, C.uchar(b.localPort))
	ev._type = etype
	if C.snd_seq_event_output(b.seq, &ev) < 0 {
		return false
	}
	C.snd_seq_drain_output(b.seq)
	return true
}

func (b *Backend) ClockStart() bool { return b.clockEvent(C.SND_SEQ_EVENT_START) }
func (b *Backend) ClockStop() bool  { return b.clockEvent(C.SND_SEQ_EVENT_STOP) }

// ClockSend issues one MIDI Clock tick. ALSA's queue-driven clock event
// carries the tick in its data; we send a plain Clock byte event since
// the queue's own tempo (set via SetPPQNBPM) governs pacing.
func (b *Backend) ClockSend(tick int64) bool { return b.clockEvent(C.SND_SEQ_EVENT_CLOCK) }

// ClockContinue issues a Song Position (to tick) followed by Continue.
func (b *Backend) ClockContinue(tick int64, beats int) bool {
	b.mu.Lock()
	seq, lp, open := b.seq, b.localPort, b.portOpen
	b.mu.Unlock()
	if seq == nil || !open {
		return false
	}
	var ev C.snd_seq_event_t
	C.ev_prepare(&ev, C.uchar(lp))
	ev._type = C.SND_SEQ_EVENT_SONGPOS
	ctrl := (*C.snd_seq_ev_ctrl_t)(unsafe.Pointer(&ev.data))
	ctrl.value = C.int(tick / 6)
	b.mu.Lock()
	C.snd_seq_event_output(seq, &ev)
	C.snd_seq_drain_output(seq)
	b.mu.Unlock()
	return b.clockEvent(C.SND_SEQ_EVENT_CONTINUE)
}

func (b *Backend) SendByte(v byte) bool {
	return b.SendMessage([]byte{v})
}

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

// SetTempo updates the queue's tempo from bpm/ppqn, via ALSA queue-tempo
// structures.
func (b *Backend) SetTempo(ppqn int, bpm float64) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.seq == nil || !b.hasQueue {
		return false
	}
	us := message.TempoUsFromBPM(bpm)
	var tempo *C.snd_seq_queue_tempo_t
	C.snd_seq_queue_tempo_malloc(&tempo)
	defer C.snd_seq_queue_tempo_free(tempo)
	C.snd_seq_get_queue_tempo(b.seq, b.queueID, tempo)
	C.snd_seq_queue_tempo_set_tempo(tempo, C.uint(us))
	C.snd_seq_queue_tempo_set_ppq(tempo, C.int(ppqn))
	return C.snd_seq_set_queue_tempo(b.seq, b.queueID, tempo) >= 0
}

// localCaps returns the capability set for our own local port: the
// opposite of what the remote side carries, since a remote writable
// (playback) port is fed by a local readable one and vice versa.
func localCaps(dir midiapi.Direction) C.uint {
	if dir == port.DirectionOutput {
		return C.SND_SEQ_PORT_CAP_READ | C.SND_SEQ_PORT_CAP_SUBS_READ
	}
	return C.SND_SEQ_PORT_CAP_WRITE | C.SND_SEQ_PORT_CAP_SUBS_WRITE
}

// portEligible: MIDI-typed, capability match for the requested
// direction, NO_EXPORT not set.
func portEligible(info *C.snd_seq_port_info_t, dir midiapi.Direction) bool {
	caps := C.snd_seq_port_info_get_capability(info)
	ptype := C.snd_seq_port_info_get_type(info)

	const midiTypes = C.SND_SEQ_PORT_TYPE_MIDI_GENERIC | C.SND_SEQ_PORT_TYPE_SYNTH | C.SND_SEQ_PORT_TYPE_APPLICATION
	if ptype&midiTypes == 0 {
		return false
	}
	if caps&C.SND_SEQ_PORT_CAP_NO_EXPORT != 0 {
		return false
	}
	if dir == port.DirectionOutput {
		const want = C.SND_SEQ_PORT_CAP_WRITE | C.SND_SEQ_PORT_CAP_SUBS_WRITE
		return caps&want == want
	}
	const want = C.SND_SEQ_PORT_CAP_READ | C.SND_SEQ_PORT_CAP_SUBS_READ
	return caps&want == want
}

var _ midiapi.API = (*Backend)(nil)

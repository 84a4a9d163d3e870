// Package midiapi defines the Backend API abstract contract:
// the interface every backend realization (dummy, ALSA, JACK, and by
// extension CoreMIDI/WinMM/Web stubs) must satisfy, plus the Base struct
// that gives each realization its common bookkeeping (io direction, queue,
// connected flag) so a concrete backend need only implement the parts that
// actually differ.
package midiapi

import (
	"github.com/midirt/midirt/errs"
	"github.com/midirt/midirt/message"
	"github.com/midirt/midirt/port"
	"github.com/midirt/midirt/queue"
)

// Direction is an alias of port.Direction (the same type, not a distinct
// one), naming a Backend API's io direction.
type Direction = port.Direction

// API is the contract every backend realizes. Every method follows the
// same propagation policy: no panics across this boundary, boolean success
// where feasible, diagnostics through the error callback installed with
// Base.SetErrorCallback.
type API interface {
	// Connection lifecycle.
	EngineConnect(clientName string) bool
	EngineDisconnect()
	EngineActivate() bool
	EngineDeactivate() bool
	Initialize(clientName string) bool

	// Port lifecycle.
	OpenPort(number int, name string) bool
	OpenVirtualPort(name string) bool
	ClosePort()
	IsPortOpen() bool

	// Enumeration.
	GetPortCount() int
	GetPortName(index int) (string, bool)
	GetPortAlias(name string) (string, bool)
	GetIOPortInfo(ports *port.Set, preclear bool) int

	// Identification.
	SetClientName(name string) bool
	SetPortName(name string) bool

	// Output.
	SendMessage(data []byte) bool
	SendMessageT(msg message.Message) bool
	SetBufferSize(size, count int)
	FlushPort() bool

	// Input.
	IgnoreMidiTypes(sysex, timeCode, sense bool)
	SetInputCallback(fn queue.Callback, userdata any)
	CancelInputCallback()
	PollForMidi() bool
	GetMessage() (delta float64, msg message.Message, ok bool)

	// Real-time control extensions; backends that don't support them
	// return false without side effects.
	ClockStart() bool
	ClockSend(tick int64) bool
	ClockStop() bool
	ClockContinue(tick int64, beats int) bool
	SendByte(b byte) bool
	SendEvent(data []byte, channel message.Channel) bool
	SendSysex(data []byte) bool
}

// Base holds the bookkeeping common to every backend: direction, queue,
// connected flag, and a queue-size hint. Concrete backends embed Base and
// override the methods that need real behavior; Base's own method bodies
// are the sensible "not connected yet" defaults.
type Base struct {
	Direction     Direction
	Queue         *queue.Queue
	QueueSizeHint int
	BufferSize    int
	BufferCount   int
	connected     bool
	errCB         errs.Callback
}

// NewBase constructs a Base for the given direction with a queue of the
// requested size hint (at least 1).
func NewBase(direction Direction, queueSizeHint int) Base {
	if queueSizeHint < 1 {
		queueSizeHint = 1
	}
	return Base{
		Direction:     direction,
		Queue:         queue.New(queueSizeHint),
		QueueSizeHint: queueSizeHint,
		errCB:         errs.NopCallback,
	}
}

// SetErrorCallback installs the error-reporting channel.
func (b *Base) SetErrorCallback(cb errs.Callback) {
	if cb == nil {
		cb = errs.NopCallback
	}
	b.errCB = cb
}

// Report delivers e to the installed error callback.
func (b *Base) Report(e *errs.Error) {
	b.errCB(e)
}

// SetConnected updates the connected flag.
func (b *Base) SetConnected(connected bool) { b.connected = connected }

// IsConnected reports the connected flag (the default IsPortOpen proxy
// for backends that don't distinguish "connected" from "port open").
func (b *Base) IsConnected() bool { return b.connected }

// IgnoreMidiTypes sets the filter the reader consults before delivering a
// message, shared by every backend's Base.
func (b *Base) IgnoreMidiTypes(sysex, timeCode, sense bool) {
	b.Queue.Ignore = queue.IgnoreFlags{SysEx: sysex, TimeCode: timeCode, ActiveSensing: sense}
}

// SetInputCallback installs a direct-delivery callback on the shared queue.
func (b *Base) SetInputCallback(fn queue.Callback, userdata any) {
	b.Queue.SetCallback(fn, userdata)
}

// CancelInputCallback reverts to queue delivery.
func (b *Base) CancelInputCallback() {
	b.Queue.CancelCallback()
}

// SetBufferSize records an advisory output-buffer sizing hint. No backend
// in this module consults it; Base just keeps the numbers.
func (b *Base) SetBufferSize(size, count int) {
	b.BufferSize = size
	b.BufferCount = count
}

// PollForMidi reports whether a message is queued, without consuming it.
func (b *Base) PollForMidi() bool {
	return b.Queue.Len() > 0
}

// GetMessage pops the next queued message.
func (b *Base) GetMessage() (float64, message.Message, bool) {
	return b.Queue.Pop()
}

// Package client holds the per-process Client info shared across buses:
// engine identification, PPQN/BPM, per-direction port sets, and the error
// callback every backend reports through.
//
// Design note: the original design keeps this as a process-wide
// singleton. We keep an explicit *Info handle instead, owned by whoever
// constructs the Master bus and passed in — no package-level global — so
// that multiple independent runtimes can coexist in one process (e.g.
// tests running in parallel).
package client

import (
	"sync"

	"github.com/midirt/midirt/errs"
	"github.com/midirt/midirt/port"
)

// Info is the shared per-client state.
type Info struct {
	mu sync.RWMutex

	APIVersion      string
	ClientName      string
	ApplicationName string
	JackPreference  bool
	VirtualPorts    bool
	AutoConnect     bool

	PPQN int
	BPM  float64

	InputPorts  *port.Set
	OutputPorts *port.Set

	// CurrentInputPort/CurrentOutputPort: -1 means "all".
	CurrentInputPort  int
	CurrentOutputPort int

	Connected bool
	LastError *errs.Error

	onError errs.Callback
}

// New builds an Info with sensible zero-state defaults: no ports yet,
// "all" selected for input/output, PPQN 192 and BPM 120 as a reasonable
// starting tempo, and a no-op error callback.
func New(clientName string) *Info {
	return &Info{
		ClientName:        clientName,
		PPQN:              192,
		BPM:               120,
		InputPorts:        port.NewSet(),
		OutputPorts:       port.NewSet(),
		CurrentInputPort:  -1,
		CurrentOutputPort: -1,
		onError:           errs.NopCallback,
	}
}

// SetErrorCallback installs the callback Report delivers to. Passing nil
// reverts to the no-op callback.
func (c *Info) SetErrorCallback(cb errs.Callback) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if cb == nil {
		cb = errs.NopCallback
	}
	c.onError = cb
}

// Report records e as LastError and forwards it to the installed callback.
// Every backend and bus reports failures through this channel.
func (c *Info) Report(e *errs.Error) {
	c.mu.Lock()
	c.LastError = e
	cb := c.onError
	c.mu.Unlock()
	cb(e)
}

// SetPPQNBPM updates the global tick resolution and tempo.
func (c *Info) SetPPQNBPM(ppqn int, bpm float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.PPQN = ppqn
	c.BPM = bpm
}

// GetPPQNBPM returns the current tick resolution and tempo.
func (c *Info) GetPPQNBPM() (int, float64) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.PPQN, c.BPM
}

// SetConnected updates the connected flag.
func (c *Info) SetConnected(connected bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Connected = connected
}

// IsConnected reports the connected flag.
func (c *Info) IsConnected() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.Connected
}

package spider

import (
	"sync/atomic"
)

// Waker raises the wake signal of the execution context that owns the
// board. Wake is called from interrupt context: it must not block or
// allocate.
type Waker interface {
	Wake()
}

// Signal is a coalescing wake signal. The owner allocates it, hands it to
// Config and selects on it; raising an already raised Signal is a no-op.
type Signal chan struct{}

// NewSignal allocates a Signal.
func NewSignal() Signal { return make(Signal, 1) }

func (s Signal) Wake() {
	select {
	case s <- struct{}{}:
	default:
	}
}

type noWake struct{}

func (noWake) Wake() {}

// InterruptContext is the state shared between the interrupt handler and
// the owning context. Only Handle writes lastFired; only the owner reads it
// after being woken.
type InterruptContext struct {
	port      *Port
	wake      Waker
	lastFired atomic.Uint32
}

// Handle is the interrupt entry point. It captures which pins fired,
// clears the edge latch so it can retrigger, and raises the wake signal.
// It performs three register or memory operations and nothing else: no
// allocation, no logging, no locks.
func (ic *InterruptContext) Handle() {
	ic.lastFired.Store(uint32(ic.port.Read(RegIntFired)))
	ic.port.Write(RegIntFired, 0)
	ic.wake.Wake()
}

// IntServer is the host's interrupt dispatcher.
type IntServer interface {
	AddIntServer(line Line, ic *InterruptContext) error
	RemIntServer(line Line, ic *InterruptContext)
}

// EnableInterrupt arms every pin.
func (d *Device) EnableInterrupt() { d.port.Write(RegIntArmed, ArmAll) }

// DisableInterrupt disarms every pin.
func (d *Device) DisableInterrupt() { d.port.Write(RegIntArmed, ArmNone) }

// ResetInterrupt returns the pin mask captured by the last interrupt and
// clears the latch again, in case an edge arrived after the handler's clear.
func (d *Device) ResetInterrupt() Pin {
	fired := Pin(d.irq.lastFired.Load())
	d.port.Write(RegIntFired, 0)
	return fired
}

// Interrupt returns the context to hand to a platform dispatcher that is not
// reached through Config.IntServer.
func (d *Device) Interrupt() *InterruptContext { return &d.irq }

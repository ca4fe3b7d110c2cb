// Package spider drives the SPIder clockport expansion: an SPI master with
// hardware FIFOs and two edge-latched status pins behind sixteen byte
// registers.
//
// Bring-up is two-phase, as for the other drivers in this tree:
//
//	d := spider.New(mem, cfg) // binds the register file, touches nothing
//	v, err := d.Configure()   // probe, slow clock, arm and hook interrupts
//
// Read and Write are synchronous and poll the board; they must not be
// called from an interrupt handler. They assume a probed, responsive board
// and do not time out unless Config.MaxPolls is set.
package spider

import (
	"golang.org/x/exp/slog"

	"spider-go/errcode"
	"spider-go/x/logx"
	"spider-go/x/timex"
)

// DeselectHoldMs is how long slave select stays asserted after the last
// byte at SpeedSlow.
const DeselectHoldMs = 10

// Config controls the board binding. All fields are optional.
type Config struct {
	// Board defaults to DefaultBoardConfig when Address is zero.
	Board BoardConfig
	// Speed is applied by Configure. Defaults to SpeedSlow.
	Speed Speed
	// MaxPolls bounds consecutive empty polls in Read and Write; FIFO
	// progress restarts the count. The final discard-empty wait of a Write
	// has no progress signal and counts every poll. Zero spins forever.
	MaxPolls uint32
	// Signal is raised by the interrupt handler.
	Signal Waker
	// IntServer hooks the handler into the host; nil leaves that to the
	// caller (see Device.Interrupt).
	IntServer IntServer
	// Ticks paces the slow-mode deselect hold; nil skips it.
	Ticks *timex.TickCounter
	// Logger defaults to the logx driver component.
	Logger *slog.Logger
}

// Device is one board.
type Device struct {
	port     *Port
	line     Line
	speed    Speed
	initial  Speed
	maxPolls uint32
	ticks    *timex.TickCounter
	server   IntServer
	log      *slog.Logger

	irq        InterruptContext
	registered bool
	probed     bool
	version    Version
}

// New binds the register file described by cfg. It does not touch the
// board.
func New(mem Mem, cfg Config) *Device {
	board := cfg.Board
	if board.Address == 0 {
		board.Address = DefaultAddress
	}
	if !board.Interrupt.Valid() {
		board.Interrupt = DefaultLine
	}
	speed := cfg.Speed
	if speed == 0 {
		speed = SpeedSlow
	}
	log := cfg.Logger
	if log == nil {
		log = logx.Logger(logx.ComponentDriver)
	}
	var wake Waker = noWake{}
	if cfg.Signal != nil {
		wake = cfg.Signal
	}
	port := NewPort(mem, board.Address)
	d := &Device{
		port:     port,
		line:     board.Interrupt.Normalize(),
		initial:  speed,
		maxPolls: cfg.MaxPolls,
		ticks:    cfg.Ticks,
		server:   cfg.IntServer,
		log:      log,
	}
	d.irq.port = port
	d.irq.wake = wake
	return d
}

// Configure probes the board and, on success, sets the clock, arms all pin
// interrupts and registers the handler. A failed probe leaves interrupts
// disarmed and the FIFO operations disabled.
func (d *Device) Configure() (Version, error) {
	d.log.Debug("probing", "base", d.port.Base())
	v, err := Probe(d.port)
	if err != nil {
		d.log.Error("probe failed", "base", d.port.Base(), "err", err)
		return v, err
	}
	d.version = v
	d.probed = true
	d.log.Info("firmware", "version", v.String())

	d.SetSpeed(d.initial)

	d.irq.lastFired.Store(0)
	d.EnableInterrupt()
	d.port.Write(RegIntFired, 0)

	if d.server != nil {
		if err := d.server.AddIntServer(d.line, &d.irq); err != nil {
			d.DisableInterrupt()
			d.log.Error("interrupt registration failed", "line", d.line.String(), "err", err)
			return v, err
		}
		d.registered = true
	}
	return v, nil
}

// Shutdown disarms the board and unhooks the handler if it was hooked.
func (d *Device) Shutdown() {
	d.DisableInterrupt()
	d.port.Write(RegIntFired, 0)
	if d.registered {
		d.server.RemIntServer(d.line, &d.irq)
		d.registered = false
	}
	d.probed = false
}

// Version returns the firmware version found by Configure.
func (d *Device) Version() Version { return d.version }

// Probed reports whether Configure found a supported board.
func (d *Device) Probed() bool { return d.probed }

// Line returns the host interrupt line in use.
func (d *Device) Line() Line { return d.line }

// SetSpeed programs the SPI clock.
func (d *Device) SetSpeed(s Speed) {
	d.speed = s
	d.port.Write(RegSPIFreq, uint8(s))
}

// Speed returns the last programmed SPI clock code.
func (d *Device) Speed() Speed { return d.speed }

// Select asserts slave select.
func (d *Device) Select() { d.port.Write(RegSlaveSelect, 1) }

// Deselect releases slave select after the hold time. At SpeedSlow the hold
// is DeselectHoldMs of host ticks; the calibrated 400 ns wait is always
// applied.
func (d *Device) Deselect() {
	if d.speed == SpeedSlow && d.ticks != nil {
		d.ticks.Delay(timex.Millis(DeselectHoldMs))
	}
	timex.Wait400ns()
	d.port.Write(RegSlaveSelect, 0)
}

// PinValue returns 1 when pin reads high and 0 otherwise.
func (d *Device) PinValue(pin Pin) int {
	if Pin(d.port.Read(RegGPIOs))&pin != 0 {
		return 1
	}
	return 0
}

// Diag is a snapshot of the interrupt and pin state.
type Diag struct {
	Fired Pin
	INT   int
	CD    int
}

// Diag reads the pending edge mask and both pin levels.
func (d *Device) Diag() Diag {
	fired := Pin(d.port.Read(RegIntFired))
	pins := Pin(d.port.Read(RegGPIOs))
	dg := Diag{Fired: fired}
	if pins&PinINT != 0 {
		dg.INT = 1
	}
	if pins&PinCD != 0 {
		dg.CD = 1
	}
	d.log.Debug("diag", "fired", uint8(dg.Fired), "int", dg.INT, "cd", dg.CD)
	return dg
}

// requireProbed guards the transfer entry points.
func (d *Device) requireProbed(op string) error {
	if !d.probed {
		return errcode.Wrap(errcode.NotProbed, op, nil)
	}
	return nil
}

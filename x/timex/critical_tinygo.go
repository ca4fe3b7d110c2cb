//go:build tinygo

package timex

import "runtime/interrupt"

// DefaultCritical masks interrupts for the duration of a calibration sample.
var DefaultCritical Critical = &irqMask{}

type irqMask struct {
	state interrupt.State
}

func (m *irqMask) Enter() { m.state = interrupt.Disable() }
func (m *irqMask) Exit()  { interrupt.Restore(m.state) }

// Package timex holds the timing services shared by the drivers: a coarse
// free-running tick counter, a calibrated sub-microsecond busy-wait and a
// deadline timer that can be raced against a wake signal.
package timex

import (
	"spider-go/x/mathx"
)

// TickFreq is the tick counter frequency in Hz.
const TickFreq = 50

// TickMask covers the 24 significant bits of the counter.
const TickMask = 0x00FF_FFFF

// Millis returns the number of ticks in ms milliseconds, rounded up.
func Millis(ms uint32) uint32 { return mathx.CeilDiv(ms*TickFreq, 1000) }

// Seconds returns the number of ticks in s seconds.
func Seconds(s uint32) uint32 { return s * TickFreq }

// ToMillis converts ticks to milliseconds, rounded down.
func ToMillis(ticks uint32) uint32 { return ticks * 1000 / TickFreq }

// ToSeconds converts ticks to seconds, rounded down.
func ToSeconds(ticks uint32) uint32 { return ticks / TickFreq }

// Reg8 is a byte-wide hardware register.
type Reg8 interface {
	Get() uint8
}

// Reg8Func adapts a plain function to Reg8.
type Reg8Func func() uint8

func (f Reg8Func) Get() uint8 { return f() }

// TickCounter reads a 24-bit counter exposed as three latched byte
// registers. Reading Hi latches all three; reading Lo releases the latch.
type TickCounter struct {
	Hi, Mid, Lo Reg8
}

// Ticks returns the current counter value (24 bits).
func (c *TickCounter) Ticks() uint32 {
	h := c.Hi.Get()
	m := c.Mid.Get()
	l := c.Lo.Get()
	return uint32(h)<<16 | uint32(m)<<8 | uint32(l)
}

// Elapsed reports whether now has reached deadline, both taken modulo 2^24.
// The 24-bit difference is sign-extended, so one rollover between the two
// samples is tolerated as long as they are less than 2^23 ticks apart.
func Elapsed(now, deadline uint32) bool {
	return int32((now-deadline)<<8) >= 0
}

// Delay spins until at least ticks have passed. ticks must be below 2^23.
func (c *TickCounter) Delay(ticks uint32) {
	deadline := (c.Ticks() + ticks) & TickMask
	for !Elapsed(c.Ticks(), deadline) {
	}
}

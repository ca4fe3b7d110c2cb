package spider

import "spider-go/x/timex"

// CIA-A time-of-day counter registers.
const (
	CIATODLo  uintptr = 0xBFE801
	CIATODMid uintptr = 0xBFE901
	CIATODHi  uintptr = 0xBFEA01
)

// CIATickCounter returns the host's 24-bit TOD counter read through mem.
func CIATickCounter(mem Mem) *timex.TickCounter {
	reg := func(a uintptr) timex.Reg8 {
		return timex.Reg8Func(func() uint8 { return mem.Load8(a) })
	}
	return &timex.TickCounter{Hi: reg(CIATODHi), Mid: reg(CIATODMid), Lo: reg(CIATODLo)}
}

// Package spidersim models a SPIder board at register level. A Board is a
// spider.Mem for its register window and a spider.IntServer for the host
// interrupt lines, so a real Device can be driven against it unchanged.
//
// The board has no clock of its own: every register access advances the
// hardware by the next entry of Rates bytes, which lets tests reproduce
// slow, bursty or stalled transfers deterministically.
package spidersim

import (
	"fmt"
	"sync"

	"spider-go/drivers/spider"
	"spider-go/x/shmring"
)

const fifoDepth = 255

// Board is a simulated board. The zero value is not usable; call New.
type Board struct {
	mu sync.Mutex

	base  uintptr
	line  spider.Line
	rates []int
	ri    int

	ident    [spider.IdentSize]byte
	identPos int

	rx, tx  *shmring.Ring
	upper   uint8
	feed    int
	discard int
	lag     int // status reads still to report busy
	lagSet  int

	regs  [spider.NumRegs]uint8 // last value written to write-only registers
	gpios uint8
	fired uint8
	armed uint8

	miso []byte
	sent []byte

	statusReads int
	faults      []string

	servers map[spider.Line][]*spider.InterruptContext
}

// New returns a board at base wired to line, identifying as v with its
// identification pointer rotated by rot.
func New(base uint32, line spider.Line, v spider.Version, rot int) *Board {
	b := &Board{
		base:    uintptr(base),
		line:    line.Normalize(),
		rates:   []int{1},
		rx:      shmring.New(256),
		tx:      shmring.New(256),
		servers: map[spider.Line][]*spider.InterruptContext{},
	}
	b.SetIdent(v, rot)
	return b
}

// SetIdent places marker and version in the identification stream starting
// at rotation rot.
func (b *Board) SetIdent(v spider.Version, rot int) {
	seq := [spider.IdentSize]byte{0xFF, 's', 'p', 'd', 'r', v.Major, v.Minor, v.Patch}
	var w [spider.IdentSize]byte
	for i, c := range seq {
		w[(rot+i)%spider.IdentSize] = c
	}
	b.SetIdentWindow(w)
}

// SetIdentWindow replaces the raw identification stream.
func (b *Board) SetIdentWindow(w [spider.IdentSize]byte) {
	b.mu.Lock()
	b.ident = w
	b.identPos = 0
	b.mu.Unlock()
}

// SetRates sets the per-access progress pattern, cycled. A zero entry
// stalls the hardware for that access.
func (b *Board) SetRates(r ...int) {
	b.mu.Lock()
	b.rates = append([]int(nil), r...)
	b.ri = 0
	b.mu.Unlock()
}

// SetDiscardLag keeps the rx-discard-empty bit clear for n extra status
// reads after the discard count reaches zero.
func (b *Board) SetDiscardLag(n int) {
	b.mu.Lock()
	b.lagSet = n
	b.mu.Unlock()
}

// Respond queues bytes the SPI peer returns on subsequent read clocks. Once
// the queue is empty the peer answers 0xFF.
func (b *Board) Respond(p []byte) {
	b.mu.Lock()
	b.miso = append(b.miso, p...)
	b.mu.Unlock()
}

// SetPins sets the GPIO levels.
func (b *Board) SetPins(levels spider.Pin) {
	b.mu.Lock()
	b.gpios = uint8(levels)
	b.mu.Unlock()
}

func (b *Board) reg(addr uintptr) (spider.Reg, bool) {
	off := addr - b.base
	if addr < b.base || off&3 != 0 || off>>2 >= spider.NumRegs {
		return 0, false
	}
	return spider.Reg(off >> 2), true
}

func (b *Board) faultf(format string, args ...any) {
	b.faults = append(b.faults, fmt.Sprintf(format, args...))
}

// step advances the hardware by one entry of the rate pattern.
func (b *Board) step() {
	n := b.rates[b.ri%len(b.rates)]
	b.ri++
	for i := 0; i < n; i++ {
		if c, ok := b.tx.PopByte(); ok {
			b.sent = append(b.sent, c)
			if b.discard > 0 {
				b.discard--
				if b.discard == 0 {
					b.lag = b.lagSet
				}
			} else {
				b.faultf("tx byte %#02x clocked without discard credit", c)
			}
		}
		if b.feed > 0 && b.rx.Available() < fifoDepth {
			out := byte(0xFF)
			if len(b.miso) > 0 {
				out, b.miso = b.miso[0], b.miso[1:]
			}
			b.rx.PushByte(out)
			b.feed--
		}
	}
}

// Load8 implements spider.Mem.
func (b *Board) Load8(addr uintptr) uint8 {
	b.mu.Lock()
	defer b.mu.Unlock()
	r, ok := b.reg(addr)
	if !ok {
		return 0xFF
	}
	b.step()
	switch r {
	case spider.RegStatus:
		b.statusReads++
		var s uint8
		if b.discard == 0 {
			if b.lag > 0 {
				b.lag--
			} else {
				s |= spider.StatusRxDiscardEmpty
			}
		}
		return s
	case spider.RegGPIOs:
		return b.gpios
	case spider.RegRxHead:
		rd, _ := b.rx.Watermarks()
		return uint8(rd)
	case spider.RegRxTail:
		_, wr := b.rx.Watermarks()
		return uint8(wr)
	case spider.RegTxHead:
		rd, _ := b.tx.Watermarks()
		return uint8(rd)
	case spider.RegTxTail:
		_, wr := b.tx.Watermarks()
		return uint8(wr)
	case spider.RegIntFired:
		return b.fired
	case spider.RegFIFO:
		c, ok := b.rx.PopByte()
		if !ok {
			b.faultf("rx underflow")
			return 0xFF
		}
		return c
	case spider.RegIdent:
		c := b.ident[b.identPos]
		b.identPos = (b.identPos + 1) % spider.IdentSize
		return c
	}
	// Write-only and reserved registers float high.
	return 0xFF
}

// Store8 implements spider.Mem.
func (b *Board) Store8(addr uintptr, v uint8) {
	b.mu.Lock()
	defer b.mu.Unlock()
	r, ok := b.reg(addr)
	if !ok {
		return
	}
	b.step()
	b.regs[r] = v
	switch r {
	case spider.RegUpperLength:
		b.upper = v
	case spider.RegRxDiscard:
		b.discard += int(b.upper)<<8 | int(v)
		b.lag = 0
	case spider.RegTxFeed:
		b.feed += int(b.upper)<<8 | int(v)
	case spider.RegIntFired:
		b.fired = 0
	case spider.RegIntArmed:
		b.armed = v
	case spider.RegFIFO:
		if b.tx.Available() >= fifoDepth {
			b.faultf("tx overflow")
			return
		}
		b.tx.PushByte(v)
	}
}

// Latch sets edge bits for the armed pins in mask without dispatching the
// interrupt, as if the host had not serviced it yet.
func (b *Board) Latch(mask spider.Pin) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	m := uint8(mask) & b.armed
	b.fired |= m
	return m != 0
}

// Edge latches mask and, if any armed pin fired, runs every handler
// registered on the board's line.
func (b *Board) Edge(mask spider.Pin) {
	if !b.Latch(mask) {
		return
	}
	b.mu.Lock()
	hs := append([]*spider.InterruptContext(nil), b.servers[b.line]...)
	b.mu.Unlock()
	for _, ic := range hs {
		ic.Handle()
	}
}

// AddIntServer implements spider.IntServer.
func (b *Board) AddIntServer(line spider.Line, ic *spider.InterruptContext) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.servers[line] = append(b.servers[line], ic)
	return nil
}

// RemIntServer implements spider.IntServer.
func (b *Board) RemIntServer(line spider.Line, ic *spider.InterruptContext) {
	b.mu.Lock()
	defer b.mu.Unlock()
	hs := b.servers[line]
	for i, h := range hs {
		if h == ic {
			b.servers[line] = append(hs[:i], hs[i+1:]...)
			return
		}
	}
	b.faultf("RemIntServer on line %d without registration", line)
}

// Registered returns the number of handlers on line.
func (b *Board) Registered(line spider.Line) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.servers[line])
}

// Reg returns the register's current value as the board holds it: the last
// write for write-only registers.
func (b *Board) Reg(r spider.Reg) uint8 {
	b.mu.Lock()
	defer b.mu.Unlock()
	switch r {
	case spider.RegIntFired:
		return b.fired
	case spider.RegIntArmed:
		return b.armed
	}
	return b.regs[r]
}

// Sent returns a copy of every byte clocked out on MOSI.
func (b *Board) Sent() []byte {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]byte(nil), b.sent...)
}

// Pending returns outstanding feed and discard counts and FIFO fill levels.
func (b *Board) Pending() (feed, discard, rxFill, txFill int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.feed, b.discard, b.rx.Available(), b.tx.Available()
}

// StatusReads returns how often the status register was read.
func (b *Board) StatusReads() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.statusReads
}

// Faults returns protocol violations observed so far.
func (b *Board) Faults() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.faults...)
}

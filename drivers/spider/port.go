package spider

// Mem is raw byte access to the physical address space. Every call must
// reach the bus: no caching, merging or reordering. Implementations do not
// report errors; an absent board reads as garbage and is caught by Probe.
type Mem interface {
	Load8(addr uintptr) uint8
	Store8(addr uintptr, v uint8)
}

// Port is the register file of one board bound to its base address.
type Port struct {
	mem  Mem
	base uintptr
}

// NewPort binds the register file at base.
func NewPort(mem Mem, base uint32) *Port {
	return &Port{mem: mem, base: uintptr(base)}
}

// Base returns the bound base address.
func (p *Port) Base() uint32 { return uint32(p.base) }

// Addr returns the bus address of register r.
func (p *Port) Addr(r Reg) uintptr { return p.base + uintptr(r)<<2 }

func (p *Port) Read(r Reg) uint8     { return p.mem.Load8(p.Addr(r)) }
func (p *Port) Write(r Reg, v uint8) { p.mem.Store8(p.Addr(r), v) }

// ReadFIFO pops len(dst) bytes from the rx FIFO. The data register
// advances the hardware head on every read, so the address never changes.
func (p *Port) ReadFIFO(dst []byte) {
	a := p.Addr(RegFIFO)
	for i := range dst {
		dst[i] = p.mem.Load8(a)
	}
}

// WriteFIFO pushes src into the tx FIFO.
func (p *Port) WriteFIFO(src []byte) {
	a := p.Addr(RegFIFO)
	for _, b := range src {
		p.mem.Store8(a, b)
	}
}

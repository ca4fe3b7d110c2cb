package spider

import "testing"

// mapMem is a flat byte map standing in for the bus.
type mapMem struct {
	m      map[uintptr]uint8
	stores []uintptr
}

func newMapMem() *mapMem { return &mapMem{m: map[uintptr]uint8{}} }

func (f *mapMem) Load8(a uintptr) uint8 { return f.m[a] }
func (f *mapMem) Store8(a uintptr, v uint8) {
	f.m[a] = v
	f.stores = append(f.stores, a)
}

func TestPortAddressing(t *testing.T) {
	mem := newMapMem()
	p := NewPort(mem, 0xD80001)
	if got := p.Addr(RegIdent); got != 0xD80001+15*4 {
		t.Fatalf("Addr(RegIdent) = %#x", got)
	}
	p.Write(RegSPIFreq, 0x55)
	if mem.m[0xD80001+40] != 0x55 {
		t.Fatalf("SPIFreq not stored at base+40: %v", mem.m)
	}
	p.WriteFIFO([]byte{1, 2, 3})
	if len(mem.stores) != 4 || mem.stores[1] != p.Addr(RegFIFO) || mem.stores[3] != p.Addr(RegFIFO) {
		t.Fatalf("FIFO writes not at the data register: %#x", mem.stores)
	}
}

func TestSpeedCodes(t *testing.T) {
	if SpeedSlow != 40 || SpeedFast != 144 {
		t.Fatalf("slow=%d fast=%d", SpeedSlow, SpeedFast)
	}
	if SpeedSlow.Hz() != 40_000 || SpeedFast.Hz() != 16_000_000 {
		t.Fatalf("Hz: slow=%d fast=%d", SpeedSlow.Hz(), SpeedFast.Hz())
	}
}

func TestLineNormalize(t *testing.T) {
	cases := []struct {
		in    Line
		want  Line
		valid bool
	}{
		{LinePorts, LinePorts, true},
		{LineVertB, LineVertB, true},
		{LineExter, LineExter, true},
		{0, LineExter, false},
		{5, LineExter, false},
	}
	for _, c := range cases {
		if got := c.in.Normalize(); got != c.want {
			t.Fatalf("Normalize(%d) = %d", c.in, got)
		}
		if c.in.Valid() != c.valid {
			t.Fatalf("Valid(%d) = %v", c.in, !c.valid)
		}
	}
}

func TestPins(t *testing.T) {
	if PinCD != 0x01 || PinINT != 0x02 {
		t.Fatalf("PinCD=%#x PinINT=%#x", PinCD, PinINT)
	}
}

func TestCIATickCounterReadOrder(t *testing.T) {
	var order []uintptr
	mem := &orderMem{order: &order, vals: map[uintptr]uint8{CIATODHi: 0x12, CIATODMid: 0x34, CIATODLo: 0x56}}
	c := CIATickCounter(mem)
	if got := c.Ticks(); got != 0x123456 {
		t.Fatalf("Ticks = %#x", got)
	}
	want := []uintptr{CIATODHi, CIATODMid, CIATODLo}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("read order %#x, want %#x", order, want)
		}
	}
}

type orderMem struct {
	order *[]uintptr
	vals  map[uintptr]uint8
}

func (m *orderMem) Load8(a uintptr) uint8 {
	*m.order = append(*m.order, a)
	return m.vals[a]
}
func (m *orderMem) Store8(uintptr, uint8) {}

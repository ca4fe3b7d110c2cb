package timex

import (
	"testing"
)

// fakeTOD models three latched byte registers over a 24-bit counter that
// advances by step on every full read.
type fakeTOD struct {
	now     uint32
	latched uint32
	step    uint32
	reads   int
}

func (f *fakeTOD) counter() *TickCounter {
	return &TickCounter{
		Hi: Reg8Func(func() uint8 {
			f.latched = f.now
			return uint8(f.latched >> 16)
		}),
		Mid: Reg8Func(func() uint8 { return uint8(f.latched >> 8) }),
		Lo: Reg8Func(func() uint8 {
			v := uint8(f.latched)
			f.now = (f.now + f.step) & TickMask
			f.reads++
			return v
		}),
	}
}

func TestTickHelpers(t *testing.T) {
	cases := []struct {
		name      string
		got, want uint32
	}{
		{"Millis(10)", Millis(10), 1},
		{"Millis(21)", Millis(21), 2},
		{"Millis(1000)", Millis(1000), 50},
		{"Seconds(2)", Seconds(2), 100},
		{"ToMillis(3)", ToMillis(3), 60},
		{"ToSeconds(149)", ToSeconds(149), 2},
	}
	for _, c := range cases {
		if c.got != c.want {
			t.Fatalf("%s = %d, want %d", c.name, c.got, c.want)
		}
	}
}

func TestTicksMonotonicAcrossRollover(t *testing.T) {
	tod := &fakeTOD{now: 0xFFFFF0, step: 3}
	c := tod.counter()
	prev := c.Ticks()
	for i := 0; i < 20; i++ {
		cur := c.Ticks()
		if cur > TickMask {
			t.Fatalf("tick %#x exceeds 24 bits", cur)
		}
		if d := (cur - prev) & TickMask; d != 3 {
			t.Fatalf("step %d: delta %d, want 3 (prev=%#x cur=%#x)", i, d, prev, cur)
		}
		prev = cur
	}
}

func TestElapsed(t *testing.T) {
	cases := []struct {
		now, deadline uint32
		want          bool
	}{
		{10, 10, true},
		{9, 10, false},
		{11, 10, true},
		{0x000002, 0xFFFFFE, true},  // now wrapped past deadline
		{0xFFFFFE, 0x000002, false}, // deadline wrapped, now not yet
	}
	for _, c := range cases {
		if got := Elapsed(c.now, c.deadline); got != c.want {
			t.Fatalf("Elapsed(%#x, %#x) = %v, want %v", c.now, c.deadline, got, c.want)
		}
	}
}

func TestDelayToleratesOneRollover(t *testing.T) {
	for _, start := range []uint32{0, 0x1234, 0xFFFFF8, 0xFFFFFF} {
		tod := &fakeTOD{now: start, step: 1}
		c := tod.counter()
		c.Delay(20)
		elapsed := (tod.now - start) & TickMask
		if elapsed < 20 {
			t.Fatalf("start %#x: returned after %d ticks, want >= 20", start, elapsed)
		}
		if elapsed > 22 {
			t.Fatalf("start %#x: overslept %d ticks", start, elapsed)
		}
	}
}

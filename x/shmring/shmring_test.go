package shmring

import (
	"testing"
)

// fakeIO models partial producer progress (accept up to k bytes).
type fakeIO struct{ k int }

func (f fakeIO) write(p []byte) int {
	if len(p) > f.k {
		return f.k
	}
	return len(p)
}

func TestOrderAcrossWrapWithPartialProgress(t *testing.T) {
	r := New(64)
	prod := fakeIO{k: 7}

	const N = 2000
	src := make([]byte, N)
	for i := range src {
		src[i] = byte(i)
	}

	p := src
	dst := make([]byte, N)
	off := 0

	for off < N {
		if len(p) > 0 {
			if step := prod.write(p); step > 0 {
				step = r.WriteFrom(p[:step])
				p = p[step:]
			}
		}

		var tmp [17]byte
		n := r.ReadInto(tmp[:])
		copy(dst[off:], tmp[:n])
		off += n
	}

	for i := 0; i < N; i++ {
		if dst[i] != src[i] {
			t.Fatalf("mismatch at %d: got=%d want=%d", i, dst[i], src[i])
		}
	}
}

func TestNarrowWatermarksWrap(t *testing.T) {
	r := New(256)
	for i := 0; i < 1000; i++ {
		if !r.PushByte(byte(i)) {
			t.Fatalf("push %d: ring full", i)
		}
		b, ok := r.PopByte()
		if !ok || b != byte(i) {
			t.Fatalf("pop %d = %d,%v", i, b, ok)
		}
		rd, wr := r.Watermarks()
		if uint8(wr)-uint8(rd) != 0 {
			t.Fatalf("8-bit fill level not zero at %d", i)
		}
	}
}

func TestPushFullPopEmpty(t *testing.T) {
	r := New(4)
	for i := 0; i < 4; i++ {
		if !r.PushByte(1) {
			t.Fatalf("push %d rejected", i)
		}
	}
	if r.PushByte(1) {
		t.Fatal("push into full ring accepted")
	}
	if r.Space() != 0 || r.Available() != 4 {
		t.Fatalf("space=%d avail=%d", r.Space(), r.Available())
	}
	r.ReadInto(make([]byte, 4))
	if _, ok := r.PopByte(); ok {
		t.Fatal("pop from empty ring succeeded")
	}
}

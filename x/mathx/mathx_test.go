package mathx

import "testing"

func TestCeilDiv(t *testing.T) {
	cases := []struct{ a, b, want uint32 }{
		{500, 1000, 1},
		{10 * 50, 1000, 1},
		{1000 * 50, 1000, 50},
		{1001, 1000, 2},
		{7, 0, 0},
	}
	for _, c := range cases {
		if got := CeilDiv(c.a, c.b); got != c.want {
			t.Fatalf("CeilDiv(%d,%d) = %d, want %d", c.a, c.b, got, c.want)
		}
	}
}

func TestClampAndMin(t *testing.T) {
	if got := Clamp(300, 0, 255); got != 255 {
		t.Fatalf("Clamp high = %d", got)
	}
	if got := Clamp(-1, 255, 0); got != 0 {
		t.Fatalf("Clamp swapped bounds = %d", got)
	}
	if got := Min[uint8](3, 200); got != 3 {
		t.Fatalf("Min = %d", got)
	}
}

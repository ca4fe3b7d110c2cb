package strconvx

import "testing"

func TestFormatUintBases(t *testing.T) {
	for _, c := range []struct {
		u    uint64
		base int
		want string
	}{
		{0, 16, "0"},
		{5, 2, "101"},
		{0xd80001, 16, "d80001"},
		{255, 10, "255"},
	} {
		if got := FormatUint(c.u, c.base); got != c.want {
			t.Fatalf("FormatUint(%d,%d) = %q, want %q", c.u, c.base, got, c.want)
		}
	}
	if got := Itoa(-15); got != "-15" {
		t.Fatalf("Itoa(-15) = %q", got)
	}
}

func TestParseUintHex(t *testing.T) {
	for _, c := range []struct {
		s    string
		bits int
		want uint64
	}{
		{"D80001", 32, 0xD80001},
		{"d80001", 32, 0xD80001},
		{"6", 8, 6},
		{"FF", 8, 0xFF},
		{"ffffffff", 32, 0xFFFFFFFF},
	} {
		got, err := ParseUint(c.s, 16, c.bits)
		if err != nil {
			t.Fatalf("ParseUint(%q) error: %v", c.s, err)
		}
		if got != c.want {
			t.Fatalf("ParseUint(%q) = %#x, want %#x", c.s, got, c.want)
		}
	}
}

func TestParseUintRejects(t *testing.T) {
	for _, c := range []struct {
		s    string
		bits int
	}{
		{"", 32},
		{"0xD80001", 32},
		{"g", 32},
		{"100", 8},
		{"100000000", 32},
		{"-1", 32},
	} {
		if _, err := ParseUint(c.s, 16, c.bits); err == nil {
			t.Fatalf("ParseUint(%q,16,%d) expected error", c.s, c.bits)
		}
	}
}

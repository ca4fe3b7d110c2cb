package spider

import (
	"errors"
	"testing"

	"spider-go/errcode"
)

func window(rot int, major, minor, patch byte) [IdentSize]byte {
	seq := [IdentSize]byte{0xFF, 's', 'p', 'd', 'r', major, minor, patch}
	var w [IdentSize]byte
	for i, c := range seq {
		w[(rot+i)%IdentSize] = c
	}
	return w
}

func TestParseIdentAllRotations(t *testing.T) {
	for rot := 0; rot < IdentSize; rot++ {
		v, err := ParseIdent(window(rot, 1, 4, 9))
		if err != nil {
			t.Fatalf("rotation %d: %v", rot, err)
		}
		if v != (Version{1, 4, 9}) {
			t.Fatalf("rotation %d: got %v", rot, v)
		}
	}
}

func TestParseIdentMarkerWrapsAtEnd(t *testing.T) {
	w := [IdentSize]byte{'p', 'd', 'r', 1, 2, 7, 0xFF, 's'}
	v, err := ParseIdent(w)
	if err != nil {
		t.Fatalf("ParseIdent: %v", err)
	}
	if v.String() != "1.2.7" {
		t.Fatalf("version = %s", v)
	}
}

func TestParseIdentUnsupportedMajor(t *testing.T) {
	v, err := ParseIdent(window(5, 2, 0, 1))
	if !errors.Is(err, errcode.UnsupportedVersion) {
		t.Fatalf("err = %v, want UnsupportedVersion", err)
	}
	if v.Major != 2 {
		t.Fatalf("decoded version = %v", v)
	}
}

func TestParseIdentNotFound(t *testing.T) {
	cases := map[string][IdentSize]byte{
		"zeros":      {},
		"open bus":   {0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF},
		"truncated":  {0xFF, 's', 'p', 'd', 'x', 1, 0, 0},
		"misordered": {'s', 0xFF, 'p', 'd', 'r', 1, 0, 0},
	}
	for name, w := range cases {
		if _, err := ParseIdent(w); errcode.Of(err) != errcode.ProbeNotFound {
			t.Fatalf("%s: err = %v, want ProbeNotFound", name, err)
		}
	}
}

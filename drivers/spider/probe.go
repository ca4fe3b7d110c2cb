package spider

import (
	"spider-go/errcode"
	"spider-go/x/strconvx"
)

// IdentSize is the length of the circular identification stream.
const IdentSize = 8

// SupportedMajor is the only firmware major version this driver speaks.
const SupportedMajor = 1

var identMarker = [...]byte{0xFF, 's', 'p', 'd', 'r'}

// Version is the board firmware version.
type Version struct {
	Major, Minor, Patch uint8
}

func (v Version) String() string {
	return strconvx.Itoa(int(v.Major)) + "." + strconvx.Itoa(int(v.Minor)) + "." + strconvx.Itoa(int(v.Patch))
}

// ParseIdent looks for the marker at every rotation of the window and
// decodes the three bytes that follow it. The board's read pointer is not
// aligned to the marker, so the match wraps modulo IdentSize.
func ParseIdent(w [IdentSize]byte) (Version, error) {
	for start := 0; start < IdentSize; start++ {
		pos := start
		found := true
		for _, want := range identMarker {
			if w[pos] != want {
				found = false
				break
			}
			pos = (pos + 1) & (IdentSize - 1)
		}
		if !found {
			continue
		}
		v := Version{
			Major: w[pos],
			Minor: w[(pos+1)&(IdentSize-1)],
			Patch: w[(pos+2)&(IdentSize-1)],
		}
		if v.Major != SupportedMajor {
			return v, &errcode.E{C: errcode.UnsupportedVersion, Op: "spider.probe", Msg: "firmware " + v.String()}
		}
		return v, nil
	}
	return Version{}, errcode.Wrap(errcode.ProbeNotFound, "spider.probe", nil)
}

// Probe reads one identification window from the board and parses it.
func Probe(p *Port) (Version, error) {
	var w [IdentSize]byte
	for i := range w {
		w[i] = p.Read(RegIdent)
	}
	return ParseIdent(w)
}

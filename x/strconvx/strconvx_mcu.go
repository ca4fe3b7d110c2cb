//go:build tinygo

package strconvx

// Allocation-light replacements with strconv's signatures. Bases 2..36,
// explicit base only.

func Itoa(i int) string {
	if i < 0 {
		return "-" + formatUint(uint64(-i), 10)
	}
	return formatUint(uint64(i), 10)
}

func FormatUint(u uint64, base int) string {
	if base < 2 || base > 36 {
		base = 10
	}
	return formatUint(u, base)
}

func formatUint(u uint64, base int) string {
	if u == 0 {
		return "0"
	}
	const digits = "0123456789abcdefghijklmnopqrstuvwxyz"
	var buf [64]byte
	i := len(buf)
	b := uint64(base)
	for u > 0 {
		i--
		buf[i] = digits[u%b]
		u /= b
	}
	return string(buf[i:])
}

type numError string

func (e numError) Error() string { return string(e) }

const (
	errSyntax numError = "invalid syntax"
	errRange  numError = "value out of range"
)

// ParseUint rejects values that do not fit bitSize (0 means 64).
func ParseUint(s string, base, bitSize int) (uint64, error) {
	if base < 2 || base > 36 || len(s) == 0 {
		return 0, errSyntax
	}
	if bitSize == 0 || bitSize > 64 {
		bitSize = 64
	}
	limit := uint64(1)<<uint(bitSize) - 1
	if bitSize == 64 {
		limit = ^uint64(0)
	}
	var v uint64
	for i := 0; i < len(s); i++ {
		c := s[i]
		var d byte
		switch {
		case '0' <= c && c <= '9':
			d = c - '0'
		case 'a' <= c && c <= 'z':
			d = c - 'a' + 10
		case 'A' <= c && c <= 'Z':
			d = c - 'A' + 10
		default:
			return 0, errSyntax
		}
		if int(d) >= base {
			return 0, errSyntax
		}
		if v > (limit-uint64(d))/uint64(base) {
			return 0, errRange
		}
		v = v*uint64(base) + uint64(d)
	}
	return v, nil
}

package spider

// Reg is a logical register index. Register i lives at base + i*4.
type Reg uint8

const (
	RegStatus      Reg = 0  // R
	RegReserved    Reg = 1  // -
	RegUpperLength Reg = 2  // W, high byte of transfer length
	RegGPIOs       Reg = 3  // R, pins 20..27
	RegRxHead      Reg = 4  // R
	RegRxTail      Reg = 5  // R
	RegTxHead      Reg = 6  // R
	RegTxTail      Reg = 7  // R
	RegRxDiscard   Reg = 8  // W, low byte of rx bytes to drop
	RegTxFeed      Reg = 9  // W, low byte of dummy bytes to clock
	RegSPIFreq     Reg = 10 // W
	RegSlaveSelect Reg = 11 // W
	RegIntFired    Reg = 12 // R/W, write 0 to clear
	RegIntArmed    Reg = 13 // W
	RegFIFO        Reg = 14 // R pops rx, W pushes tx
	RegIdent       Reg = 15 // R

	NumRegs = 16
)

// Status bits.
const (
	StatusRxDiscardEmpty = 0x01
)

// IntArmed values. Individual pin masks are not used.
const (
	ArmAll  = 0xFF
	ArmNone = 0x00
)

// Pin is a GPIO bit in the RegGPIOs snapshot and the RegIntFired mask.
type Pin uint8

// PinID returns the mask of board GPIO n (20..27).
func PinID(n uint8) Pin { return Pin(1) << (n - 20) }

var (
	PinCD  = PinID(20) // card detect
	PinINT = PinID(21) // external interrupt
)

// Speed is an SPIFreq code. Values below 128 are kHz, 128+n is n MHz.
type Speed uint8

func SpeedKHz(khz uint8) Speed { return Speed(khz) }
func SpeedMHz(mhz uint8) Speed { return Speed(128 + mhz) }

var (
	SpeedSlow = SpeedKHz(40)
	SpeedFast = SpeedMHz(16)
)

// Hz returns the clock rate the code selects.
func (s Speed) Hz() uint32 {
	if s >= 128 {
		return uint32(s-128) * 1_000_000
	}
	return uint32(s) * 1_000
}

// Line selects the host interrupt the board is wired to.
type Line uint8

const (
	LinePorts Line = 2
	LineVertB Line = 3
	LineExter Line = 6
)

// Valid reports whether l is one of the accepted selectors.
func (l Line) Valid() bool {
	return l == LinePorts || l == LineVertB || l == LineExter
}

// Normalize maps anything that is not PORTS or VERTB to EXTER.
func (l Line) Normalize() Line {
	switch l {
	case LinePorts, LineVertB:
		return l
	}
	return LineExter
}

func (l Line) String() string {
	switch l.Normalize() {
	case LinePorts:
		return "ports"
	case LineVertB:
		return "vertb"
	}
	return "exter"
}

// Defaults for a board on the first clockport.
const (
	DefaultAddress uint32 = 0xD80001
	DefaultLine           = LineExter
)

// BoardConfig locates the board.
type BoardConfig struct {
	Address   uint32
	Interrupt Line
}

// DefaultBoardConfig returns the factory address and interrupt line.
func DefaultBoardConfig() BoardConfig {
	return BoardConfig{Address: DefaultAddress, Interrupt: DefaultLine}
}

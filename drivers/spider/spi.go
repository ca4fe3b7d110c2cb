package spider

import (
	"tinygo.org/x/drivers"
)

var _ drivers.SPI = (*Device)(nil)

// Tx implements drivers.SPI. The board cannot exchange bytes: w is sent
// first (incoming bytes discarded), then len(r) bytes are clocked in with
// dummy output.
func (d *Device) Tx(w, r []byte) error {
	if err := d.requireProbed("spider.tx"); err != nil {
		return err
	}
	if len(w) > 0 {
		if err := d.Write(w); err != nil {
			return err
		}
	}
	if len(r) > 0 {
		return d.Read(r)
	}
	return nil
}

// Transfer implements drivers.SPI. 0xFF, the conventional idle byte, is
// treated as a read clock and returns the received byte. Any other value is
// written and 0xFF is returned, since the reply is discarded by the board.
func (d *Device) Transfer(b byte) (byte, error) {
	var one [1]byte
	if b == 0xFF {
		err := d.Read(one[:])
		return one[0], err
	}
	one[0] = b
	return 0xFF, d.Write(one[:])
}

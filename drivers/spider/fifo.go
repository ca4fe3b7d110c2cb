package spider

import (
	"spider-go/errcode"
	"spider-go/x/mathx"
)

// MaxTransfer is the largest length one length-register pair can express.
// Longer buffers are split.
const MaxTransfer = 0xFFFF

// fifoCap is the usable depth of each hardware FIFO; the 8-bit counters
// cannot tell a full 256-byte ring from an empty one.
const fifoCap = 255

// Read fills buf from the SPI bus. The board clocks one dummy byte per
// requested byte and the driver drains whatever the rx counters show as
// available until buf is full.
//
// With Config.MaxPolls == 0 Read never gives up on a stalled board.
func (d *Device) Read(buf []byte) error {
	if err := d.requireProbed("spider.read"); err != nil {
		return err
	}
	for len(buf) > 0 {
		n := mathx.Min(len(buf), MaxTransfer)
		if err := d.read(buf[:n]); err != nil {
			return err
		}
		buf = buf[n:]
	}
	return nil
}

func (d *Device) read(buf []byte) error {
	p := d.port
	size := len(buf)
	p.Write(RegUpperLength, uint8(size>>8))
	p.Write(RegTxFeed, uint8(size))

	head := p.Read(RegRxHead)
	var polls uint32

	if size == 1 {
		for p.Read(RegRxTail) == head {
			if err := d.backoff(&polls, "spider.read"); err != nil {
				return err
			}
		}
		buf[0] = p.mem.Load8(p.Addr(RegFIFO))
		return nil
	}

	for len(buf) > 0 {
		tail := p.Read(RegRxTail)
		n := int(tail - head)
		if n == 0 {
			if err := d.backoff(&polls, "spider.read"); err != nil {
				return err
			}
			continue
		}
		polls = 0
		n = mathx.Min(n, len(buf))
		p.ReadFIFO(buf[:n])
		head += uint8(n)
		buf = buf[n:]
	}
	return nil
}

// Write sends buf on the SPI bus and returns once the board reports that
// the matching rx bytes were discarded, i.e. the transfer has finished on
// the wire rather than merely been queued.
//
// With Config.MaxPolls == 0 Write never gives up on a stalled board.
func (d *Device) Write(buf []byte) error {
	if err := d.requireProbed("spider.write"); err != nil {
		return err
	}
	for len(buf) > 0 {
		n := mathx.Min(len(buf), MaxTransfer)
		if err := d.write(buf[:n]); err != nil {
			return err
		}
		buf = buf[n:]
	}
	return nil
}

func (d *Device) write(buf []byte) error {
	p := d.port
	size := len(buf)
	p.Write(RegUpperLength, uint8(size>>8))
	p.Write(RegRxDiscard, uint8(size))

	tail := p.Read(RegTxTail)
	var polls uint32

	if size == 1 {
		for p.Read(RegTxHead) == tail+1 {
			if err := d.backoff(&polls, "spider.write"); err != nil {
				return err
			}
		}
		p.mem.Store8(p.Addr(RegFIFO), buf[0])
	} else {
		for len(buf) > 0 {
			head := p.Read(RegTxHead)
			free := fifoCap - int(tail-head)
			if free <= 0 {
				if err := d.backoff(&polls, "spider.write"); err != nil {
					return err
				}
				continue
			}
			polls = 0
			free = mathx.Min(free, len(buf))
			p.WriteFIFO(buf[:free])
			tail += uint8(free)
			buf = buf[free:]
		}
	}

	polls = 0
	for p.Read(RegStatus)&StatusRxDiscardEmpty == 0 {
		if err := d.backoff(&polls, "spider.write"); err != nil {
			return err
		}
	}
	return nil
}

// backoff counts one empty poll against Config.MaxPolls.
func (d *Device) backoff(polls *uint32, op string) error {
	if d.maxPolls == 0 {
		return nil
	}
	*polls++
	if *polls >= d.maxPolls {
		d.log.Warn("transfer stalled", "op", op, "polls", *polls)
		return errcode.Wrap(errcode.Timeout, op, nil)
	}
	return nil
}

//go:build rp2040 || rp2350

package logx

import (
	"io"

	uartx "github.com/jangala-dev/tinygo-uartx/uartx"
)

// SerialSink configures UART0 at baud and returns it as a raw character
// sink suitable for SetOutput.
func SerialSink(baud uint32) (io.Writer, error) {
	u := uartx.UART0
	if err := u.Configure(uartx.UARTConfig{BaudRate: baud}); err != nil {
		return nil, err
	}
	return u, nil
}

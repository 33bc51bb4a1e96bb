//go:build rp2040 || rp2350

package platform

import (
	"io"

	uartx "github.com/jangala-dev/tinygo-uartx/uartx"
)

// Console returns the writer demo output goes to. On RP2 targets the CSV
// stream goes out over UART0 so a logger can capture it without USB;
// defaults inside uartx apply for pins when zero.
func Console() io.Writer {
	_ = uartx.UART0.Configure(uartx.UARTConfig{BaudRate: 115200})
	return uartx.UART0
}

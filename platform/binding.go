package platform

import (
	"fmt"
	"io"
	"os"
	"time"

	"tinygo.org/x/drivers"

	"bme690-go/bme69x"
	"bme690-go/errcode"
)

// Options tunes bring-up. The zero value selects SPI (matching the zero
// Intf), so callers normally set at least Intf.
type Options struct {
	Intf bme69x.Intf
	// I2CAddr overrides the device address; defaults to bme69x.I2CAddrLow
	// because bring-up drives SDO low.
	I2CAddr uint8
	// AmbTemp seeds the handle's ambient temperature; defaults to 25.
	AmbTemp int8
	I2CSpeed I2CSpeed
	SPI      SPIConfig
	// Warn receives non-fatal bring-up diagnostics; defaults to stdout.
	Warn io.Writer
}

// Binding couples a populated device handle to the board it was brought
// up on. The handle stays valid until Teardown.
type Binding struct {
	Board Board
	Dev   bme69x.Dev

	// addr is the resolved device/chip-select address for the lifetime
	// of the binding; the read/write adapters capture it.
	addr uint8
}

// Addr returns the resolved device address (I2C) or chip-select
// identifier (SPI).
func (b *Binding) Addr() uint8 { return b.addr }

// Setup opens the board, checks the attached shuttle, sequences power and
// bus configuration, and populates the device handle for the selected
// interface. A board communication failure is returned as an error; every
// other anomaly is reported to opts.Warn and bring-up continues.
func Setup(board Board, opts Options) (*Binding, error) {
	if board == nil {
		return nil, errcode.NullPtr
	}
	warn := opts.Warn
	if warn == nil {
		warn = os.Stdout
	}
	if opts.AmbTemp == 0 {
		opts.AmbTemp = 25
	}

	if err := board.Open(); err != nil {
		fmt.Fprintln(warn, "Unable to connect with Application Board!")
		fmt.Fprintln(warn, " 1. Check if the board is connected and powered on.")
		fmt.Fprintln(warn, " 2. Check if the board is in use by another application.")
		return nil, &errcode.E{C: errcode.BoardNotFound, Op: "open_comm", Err: err}
	}

	if info, err := board.Info(); err == nil && info.ShuttleID != ShuttleIDBME69x {
		fmt.Fprintf(warn,
			"! Warning invalid sensor shuttle : 0x%x (Expected : 0x%x), this application will not support this sensor\n",
			info.ShuttleID, ShuttleIDBME69x)
	}

	// Power the shuttle down while the bus is (re)configured.
	_ = board.SetShuttleVdd(0, 0)
	board.Delay(100 * time.Millisecond)

	b := &Binding{Board: board}
	switch opts.Intf {
	case bme69x.IntfI2C:
		fmt.Fprintln(warn, "I2C Interface")
		b.addr = opts.I2CAddr
		if b.addr == 0 {
			b.addr = bme69x.I2CAddrLow
		}
		// SDO low selects the low address.
		if sdo, ok := board.Pin(PinSDO); ok {
			if err := sdo.ConfigureOutput(false); err == nil {
				sdo.Set(false)
			}
		}
		bus, err := board.ConfigureI2C(opts.I2CSpeed)
		if err != nil {
			return nil, &errcode.E{C: errcode.UnknownBus, Op: "config_i2c", Err: err}
		}
		b.Dev.Read = i2cReadFn(bus, &b.addr)
		b.Dev.Write = i2cWriteFn(bus, &b.addr)

	case bme69x.IntfSPI:
		fmt.Fprintln(warn, "SPI Interface")
		cs, ok := board.Pin(PinCS)
		if !ok {
			return nil, &errcode.E{C: errcode.UnknownPin, Op: "config_spi", Msg: "cs"}
		}
		if err := cs.ConfigureOutput(true); err != nil {
			return nil, &errcode.E{C: errcode.UnknownPin, Op: "config_spi", Err: err}
		}
		cfg := opts.SPI
		if cfg.FreqHz == 0 {
			cfg.FreqHz = 7_500_000
		}
		bus, err := board.ConfigureSPI(cfg)
		if err != nil {
			return nil, &errcode.E{C: errcode.UnknownBus, Op: "config_spi", Err: err}
		}
		b.Dev.Read = spiReadFn(bus, cs)
		b.Dev.Write = spiWriteFn(bus, cs)

	default:
		return nil, &errcode.E{C: errcode.UnknownBus, Op: "setup", Msg: "interface"}
	}

	board.Delay(100 * time.Millisecond)
	_ = board.SetShuttleVdd(3300, 3300)
	board.Delay(100 * time.Millisecond)

	b.Dev.Delay = board.Delay
	b.Dev.Intf = opts.Intf
	b.Dev.AmbTemp = opts.AmbTemp
	return b, nil
}

// Teardown powers the shuttle down, resets the board and closes the
// communication channel. Errors along the way are deliberately ignored;
// there is nothing left to recover for.
func Teardown(b *Binding) {
	if b == nil || b.Board == nil {
		return
	}
	_ = b.Board.SetShuttleVdd(0, 0)
	b.Board.Delay(200 * time.Millisecond)
	_ = b.Board.SoftReset()
	b.Board.Delay(200 * time.Millisecond)
	_ = b.Board.Close()
}

// ---- Bus adapters ----
//
// Four symmetrical forwarding functions. Each translates the driver's
// (register, buffer) call into one transport transaction and returns the
// transport's error unchanged. The driver owns register semantics (SPI
// read masking, memory pages); no translation happens here.

func i2cReadFn(bus drivers.I2C, addr *uint8) bme69x.ReadFn {
	return func(reg uint8, buf []byte) error {
		return bus.Tx(uint16(*addr), []byte{reg}, buf)
	}
}

func i2cWriteFn(bus drivers.I2C, addr *uint8) bme69x.WriteFn {
	return func(reg uint8, buf []byte) error {
		w := make([]byte, 1+len(buf))
		w[0] = reg
		copy(w[1:], buf)
		return bus.Tx(uint16(*addr), w, nil)
	}
}

func spiReadFn(bus drivers.SPI, cs Pin) bme69x.ReadFn {
	return func(reg uint8, buf []byte) error {
		cs.Set(false)
		defer cs.Set(true)
		if err := bus.Tx([]byte{reg}, nil); err != nil {
			return err
		}
		return bus.Tx(nil, buf)
	}
}

func spiWriteFn(bus drivers.SPI, cs Pin) bme69x.WriteFn {
	return func(reg uint8, buf []byte) error {
		cs.Set(false)
		defer cs.Set(true)
		w := make([]byte, 1+len(buf))
		w[0] = reg
		copy(w[1:], buf)
		return bus.Tx(w, nil)
	}
}

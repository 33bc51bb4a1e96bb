//go:build !rp2040 && !rp2350

package platform

import (
	"sync"
	"time"

	"tinygo.org/x/drivers"
)

// HostBoard is the host-side Board: it satisfies the bring-up sequencing
// against inert buses and records every operation so tests can assert
// ordering. Demos run it with real delays; tests without.
type HostBoard struct {
	mu  sync.Mutex
	ops []string

	// Shuttle is what Info reports; defaults to ShuttleIDBME69x.
	Shuttle uint16
	// OpenErr makes Open fail, for exercising the abort path.
	OpenErr error
	// SkipDelays turns Delay into a recorded no-op.
	SkipDelays bool

	I2CBus *HostI2C
	SPIBus *HostSPI

	pins map[PinName]*HostPin
}

// NewBoard returns the default board for this build: a host board with
// real delays.
func NewBoard() *HostBoard {
	return &HostBoard{
		Shuttle: ShuttleIDBME69x,
		I2CBus:  &HostI2C{},
		SPIBus:  &HostSPI{},
		pins: map[PinName]*HostPin{
			PinSDO: {name: PinSDO},
			PinCS:  {name: PinCS},
		},
	}
}

// NewRecordingBoard is NewBoard without delays, for tests.
func NewRecordingBoard() *HostBoard {
	b := NewBoard()
	b.SkipDelays = true
	return b
}

func (b *HostBoard) record(op string) {
	b.mu.Lock()
	b.ops = append(b.ops, op)
	b.mu.Unlock()
}

// Ops returns a copy of the recorded operation log.
func (b *HostBoard) Ops() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.ops...)
}

func (b *HostBoard) Open() error {
	if b.OpenErr != nil {
		return b.OpenErr
	}
	b.record("open")
	return nil
}

func (b *HostBoard) Info() (BoardInfo, error) {
	b.record("info")
	return BoardInfo{ShuttleID: b.Shuttle}, nil
}

func (b *HostBoard) SetShuttleVdd(vddMV, vddioMV uint16) error {
	if vddMV == 0 && vddioMV == 0 {
		b.record("vdd_off")
	} else {
		b.record("vdd_on")
	}
	return nil
}

func (b *HostBoard) ConfigureI2C(speed I2CSpeed) (drivers.I2C, error) {
	b.record("config_i2c")
	return b.I2CBus, nil
}

func (b *HostBoard) ConfigureSPI(cfg SPIConfig) (drivers.SPI, error) {
	b.record("config_spi")
	return b.SPIBus, nil
}

func (b *HostBoard) Pin(name PinName) (Pin, bool) {
	p, ok := b.pins[name]
	return p, ok
}

// HostPinState exposes the underlying pin for test assertions.
func (b *HostBoard) HostPinState(name PinName) (*HostPin, bool) {
	p, ok := b.pins[name]
	return p, ok
}

func (b *HostBoard) Delay(d time.Duration) {
	if !b.SkipDelays {
		time.Sleep(d)
	}
}

func (b *HostBoard) SoftReset() error {
	b.record("soft_reset")
	return nil
}

func (b *HostBoard) Close() error {
	b.record("close")
	return nil
}

// ---- Inert host buses ----

// HostI2C implements drivers.I2C and records the last transaction. An
// optional Err is returned from every Tx, for failure-path tests.
type HostI2C struct {
	mu  sync.Mutex
	Err error

	LastTx struct {
		Addr uint16
		W    []byte
		Rn   int
	}
}

func (h *HostI2C) Tx(addr uint16, w, r []byte) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.LastTx.Addr = addr
	h.LastTx.W = append([]byte(nil), w...)
	h.LastTx.Rn = len(r)
	return h.Err
}

// HostSPI implements drivers.SPI and records transactions in order.
type HostSPI struct {
	mu  sync.Mutex
	Err error

	Txs []struct {
		W  []byte
		Rn int
	}
}

func (h *HostSPI) Tx(w, r []byte) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.Txs = append(h.Txs, struct {
		W  []byte
		Rn int
	}{W: append([]byte(nil), w...), Rn: len(r)})
	return h.Err
}

func (h *HostSPI) Transfer(b byte) (byte, error) {
	if err := h.Tx([]byte{b}, nil); err != nil {
		return 0, err
	}
	return 0, nil
}

// HostPin is a recording output pin.
type HostPin struct {
	mu      sync.Mutex
	name    PinName
	out     bool
	level   bool
	Changes []bool
}

func (p *HostPin) ConfigureOutput(initial bool) error {
	p.mu.Lock()
	p.out = true
	p.level = initial
	p.mu.Unlock()
	return nil
}

func (p *HostPin) Set(level bool) {
	p.mu.Lock()
	p.level = level
	p.Changes = append(p.Changes, level)
	p.mu.Unlock()
}

func (p *HostPin) Get() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.level
}

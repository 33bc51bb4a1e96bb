//go:build rp2040 || rp2350

package platform

import (
	"machine"
	"time"

	"tinygo.org/x/drivers"
)

// RP2Board drives the sensor from a Pico-class board. There is no shuttle
// EEPROM or switchable rail on a bare Pico: Info reports the expected
// shuttle ID and the VDD calls are no-ops against the hard-wired 3V3.
type RP2Board struct {
	// Wiring, editable before Setup. Defaults match Pico conventions:
	// I2C0 on SDA=GP4/SCL=GP5, SPI0 on SCK=GP18/TX=GP19/RX=GP16,
	// CS=GP17, sensor SDO address-select on GP6.
	SDA, SCL     machine.Pin
	SCK, TX, RX  machine.Pin
	CSPin        machine.Pin
	SDOSelectPin machine.Pin
}

// NewBoard returns the default board for this build.
func NewBoard() *RP2Board {
	return &RP2Board{
		SDA:          machine.GP4,
		SCL:          machine.GP5,
		SCK:          machine.GP18,
		TX:           machine.GP19,
		RX:           machine.GP16,
		CSPin:        machine.GP17,
		SDOSelectPin: machine.GP6,
	}
}

func (b *RP2Board) Open() error { return nil }

func (b *RP2Board) Info() (BoardInfo, error) {
	return BoardInfo{ShuttleID: ShuttleIDBME69x}, nil
}

func (b *RP2Board) SetShuttleVdd(vddMV, vddioMV uint16) error { return nil }

func (b *RP2Board) ConfigureI2C(speed I2CSpeed) (drivers.I2C, error) {
	b.SDA.Configure(machine.PinConfig{Mode: machine.PinI2C})
	b.SCL.Configure(machine.PinConfig{Mode: machine.PinI2C})
	if err := machine.I2C0.Configure(machine.I2CConfig{
		SDA:       b.SDA,
		SCL:       b.SCL,
		Frequency: speed.Hz(),
	}); err != nil {
		return nil, err
	}
	return machine.I2C0, nil
}

func (b *RP2Board) ConfigureSPI(cfg SPIConfig) (drivers.SPI, error) {
	if err := machine.SPI0.Configure(machine.SPIConfig{
		Frequency: cfg.FreqHz,
		Mode:      cfg.Mode,
		SCK:       b.SCK,
		SDO:       b.TX,
		SDI:       b.RX,
	}); err != nil {
		return nil, err
	}
	return machine.SPI0, nil
}

func (b *RP2Board) Pin(name PinName) (Pin, bool) {
	switch name {
	case PinSDO:
		return &rp2Pin{p: b.SDOSelectPin}, true
	case PinCS:
		return &rp2Pin{p: b.CSPin}, true
	}
	return nil, false
}

func (b *RP2Board) Delay(d time.Duration) { time.Sleep(d) }

func (b *RP2Board) SoftReset() error { return nil }

func (b *RP2Board) Close() error { return nil }

type rp2Pin struct{ p machine.Pin }

func (p *rp2Pin) ConfigureOutput(initial bool) error {
	p.p.Configure(machine.PinConfig{Mode: machine.PinOutput})
	p.p.Set(initial)
	return nil
}

func (p *rp2Pin) Set(level bool) { p.p.Set(level) }
func (p *rp2Pin) Get() bool      { return p.p.Get() }

// Package platform is the board glue between the abstract bme69x driver
// contract and a concrete bus transport. It owns bring-up and teardown
// sequencing, shuttle identification, and the read/write/delay adapters
// that populate the device handle.
//
// Bus transports are consumed through the tinygo.org/x/drivers interfaces;
// this package never implements a transport itself. Host builds get a
// recording board for tests and demos, RP2 builds a machine-backed one.
package platform

import (
	"time"

	"tinygo.org/x/drivers"
)

// ShuttleIDBME69x identifies the BME69x sensor shuttle. Bring-up warns,
// but does not fail, when the attached board reports something else.
const ShuttleIDBME69x uint16 = 0x93

// BoardInfo is what the application board reports about itself.
type BoardInfo struct {
	ShuttleID  uint16
	HardwareID uint16
	SoftwareID uint16
}

// I2CSpeed selects the I2C bus clock.
type I2CSpeed uint8

const (
	I2CStandardMode I2CSpeed = iota // 100 kHz
	I2CFastMode                     // 400 kHz
)

// Hz returns the clock frequency for the speed setting.
func (s I2CSpeed) Hz() uint32 {
	if s == I2CFastMode {
		return 400_000
	}
	return 100_000
}

// SPIConfig carries the SPI bus parameters used at bring-up.
type SPIConfig struct {
	FreqHz uint32 // default 7.5 MHz
	Mode   uint8  // clock polarity/phase, 0..3
}

// PinName names the shuttle pins the glue code drives.
type PinName string

const (
	PinSDO PinName = "sdo" // I2C address select, driven low for 0x76
	PinCS  PinName = "cs"  // SPI chip select
)

// Pin is the minimal output-pin surface bring-up needs.
type Pin interface {
	ConfigureOutput(initial bool) error
	Set(level bool)
	Get() bool
}

// Board abstracts the application board the sensor shuttle is mounted on:
// communication channel, power rails, pins and bus configuration. It is
// the COINES role reduced to what this repository uses.
type Board interface {
	// Open establishes communication with the board. It is the only
	// call whose failure aborts the demos.
	Open() error
	// Info queries the board identification, including the shuttle ID.
	Info() (BoardInfo, error)
	// SetShuttleVdd drives the VDD and VDDIO rails, in millivolts.
	// Zero powers the shuttle down.
	SetShuttleVdd(vddMV, vddioMV uint16) error
	// ConfigureI2C brings up the primary I2C bus and returns it.
	ConfigureI2C(speed I2CSpeed) (drivers.I2C, error)
	// ConfigureSPI brings up the primary SPI bus and returns it.
	ConfigureSPI(cfg SPIConfig) (drivers.SPI, error)
	// Pin resolves a named shuttle pin.
	Pin(name PinName) (Pin, bool)
	// Delay blocks for the given duration.
	Delay(d time.Duration)
	// SoftReset resets the board firmware state.
	SoftReset() error
	// Close releases the communication channel.
	Close() error
}

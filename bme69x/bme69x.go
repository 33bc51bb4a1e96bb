// Package bme69x defines the contract this repository consumes from the
// vendor driver for the Bosch BME690 environmental sensor: the device
// handle the glue code populates, the configuration and result types, and
// the operation set as a Go interface.
//
// The register-level protocol, calibration readout, and compensation math
// are the vendor driver's business and are deliberately absent here. A
// driver implementation is injected wherever a Driver is accepted; for
// host runs and tests see drivers/bme69xsim.
package bme69x

import (
	"time"

	"bme690-go/errcode"
)

// Intf selects the digital interface the sensor is wired to.
type Intf uint8

const (
	IntfSPI Intf = iota
	IntfI2C
)

func (i Intf) String() string {
	if i == IntfI2C {
		return "i2c"
	}
	return "spi"
}

// I2C addresses, selected by the SDO pin level.
const (
	I2CAddrLow  uint8 = 0x76 // SDO low
	I2CAddrHigh uint8 = 0x77 // SDO high
)

// ChipID reported by the sensor's identity register.
const ChipID uint8 = 0x61

// Mode is the sensor operating mode.
type Mode uint8

const (
	ModeSleep Mode = iota
	ModeForced
	ModeParallel
	ModeSequential
)

func (m Mode) String() string {
	switch m {
	case ModeSleep:
		return "sleep"
	case ModeForced:
		return "forced"
	case ModeParallel:
		return "parallel"
	default:
		return "sequential"
	}
}

// Oversampling for temperature, pressure and humidity measurements.
type Oversampling uint8

const (
	OSNone Oversampling = iota
	OS1X
	OS2X
	OS4X
	OS8X
	OS16X
)

// Cycles returns the number of measurement cycles the setting costs.
func (o Oversampling) Cycles() uint32 {
	switch o {
	case OSNone:
		return 0
	case OS1X:
		return 1
	case OS2X:
		return 2
	case OS4X:
		return 4
	case OS8X:
		return 8
	default:
		return 16
	}
}

// Filter is the IIR filter coefficient applied to temperature and pressure.
type Filter uint8

const (
	FilterOff Filter = iota
	FilterSize1
	FilterSize3
	FilterSize7
	FilterSize15
	FilterSize31
	FilterSize63
	FilterSize127
)

// ODR is the standby time inserted between profile runs. ODRNone disables
// the standby period.
type ODR uint8

const (
	ODR0_59ms ODR = iota
	ODR62_5ms
	ODR125ms
	ODR250ms
	ODR500ms
	ODR1000ms
	ODR10ms
	ODR20ms
	ODRNone
)

// MaxProfileLen is the longest heater profile the sensor supports.
const MaxProfileLen = 10

// Bus access hooks. The platform layer supplies these; the driver calls
// them for every register transaction. Implementations return the bus
// transport's error unchanged.
type (
	ReadFn  func(reg uint8, buf []byte) error
	WriteFn func(reg uint8, buf []byte) error
	DelayFn func(d time.Duration)
)

// Dev is the device handle. It is populated once by platform bring-up and
// then passed by reference into every driver call. All fields must be set
// before first use.
type Dev struct {
	Read  ReadFn
	Write WriteFn
	Delay DelayFn

	// Intf is the negotiated bus type; Addr the resolved device address
	// (I2C) or chip-select identifier (SPI).
	Intf Intf
	Addr uint8

	// AmbTemp is the ambient temperature in degrees Celsius, used by the
	// driver to seed heater resistance calculations.
	AmbTemp int8
}

// Validate reports whether the handle is usable by a driver.
func (d *Dev) Validate() error {
	if d == nil || d.Read == nil || d.Write == nil || d.Delay == nil {
		return errcode.NullPtr
	}
	return nil
}

// Conf holds the TPH measurement configuration.
type Conf struct {
	OSHum  Oversampling
	OSTemp Oversampling
	OSPres Oversampling
	Filter Filter
	ODR    ODR
}

// HeatrConf configures the gas sensing hot plate. Forced mode uses the
// single Temp/Dur pair; sequential and parallel modes step through the
// profile slices, one entry per measurement. Parallel mode additionally
// requires SharedDur, the heating duration shared across the profile.
type HeatrConf struct {
	Enable bool

	Temp uint16 // degrees Celsius
	Dur  time.Duration

	TempProf []uint16
	DurProf  []time.Duration

	SharedDur time.Duration
}

// ProfileLen returns the effective heater profile length.
func (h HeatrConf) ProfileLen() int {
	if len(h.TempProf) < len(h.DurProf) {
		return len(h.TempProf)
	}
	return len(h.DurProf)
}

// Data status bits.
const (
	StatusNewData    uint8 = 0x80
	StatusGasMeasing uint8 = 0x40
	StatusMeasuring  uint8 = 0x20
	StatusGasValid   uint8 = 0x02
	StatusHeatStable uint8 = 0x01
)

// Data is one field set read back from the sensor. Scalar values are
// integer-scaled the way the fixed-point driver reports them; float
// accessors are provided for display.
type Data struct {
	Status    uint8
	GasIndex  uint8 // heater profile index the gas value belongs to
	MeasIndex uint8 // rolling measurement counter

	TempCenti     int32  // degrees Celsius x100
	PressurePa    uint32 // Pascal
	HumidityMilli uint32 // %RH x1000
	GasOhm        uint32 // gas resistance, Ohm
}

func (d Data) NewData() bool      { return d.Status&StatusNewData != 0 }
func (d Data) GasValid() bool     { return d.Status&StatusGasValid != 0 }
func (d Data) HeaterStable() bool { return d.Status&StatusHeatStable != 0 }

func (d Data) Celsius() float32       { return float32(d.TempCenti) / 100 }
func (d Data) Pascal() float32        { return float32(d.PressurePa) }
func (d Data) RelHumidity() float32   { return float32(d.HumidityMilli) / 1000 }
func (d Data) GasResistance() float32 { return float32(d.GasOhm) }

// Driver is the vendor sensor driver surface used by this repository.
// Every method returns an errcode value on failure; NoNewData is a
// warning, not a fault.
type Driver interface {
	// Init probes and resets the sensor. The handle must be fully
	// populated beforehand.
	Init(dev *Dev) error
	GetConf(dev *Dev) (Conf, error)
	SetConf(dev *Dev, c Conf) error
	// SetHeatrConf validates and applies the heater settings for the
	// given target mode.
	SetHeatrConf(dev *Dev, mode Mode, hc HeatrConf) error
	SetOpMode(dev *Dev, mode Mode) error
	// GetData returns the field sets measured since the previous call,
	// newest first. NoNewData is returned when the sensor has not
	// completed a measurement yet.
	GetData(dev *Dev, mode Mode) ([]Data, error)
	SelfTest(dev *Dev) error
}

package bme69x

import (
	"errors"
	"testing"
	"time"

	"bme690-go/errcode"
)

func TestDevValidate(t *testing.T) {
	var nilDev *Dev
	if err := nilDev.Validate(); !errors.Is(err, errcode.NullPtr) {
		t.Fatalf("nil handle: got %v, want null_ptr", err)
	}

	d := &Dev{}
	if err := d.Validate(); !errors.Is(err, errcode.NullPtr) {
		t.Fatalf("empty handle: got %v, want null_ptr", err)
	}

	d.Read = func(reg uint8, buf []byte) error { return nil }
	d.Write = func(reg uint8, buf []byte) error { return nil }
	if err := d.Validate(); !errors.Is(err, errcode.NullPtr) {
		t.Fatalf("missing delay: got %v, want null_ptr", err)
	}

	d.Delay = func(time.Duration) {}
	if err := d.Validate(); err != nil {
		t.Fatalf("populated handle: got %v, want nil", err)
	}
}

func TestMeasDur(t *testing.T) {
	// Demo configuration: hum 16x, temp 2x, pres 1x.
	c := Conf{OSHum: OS16X, OSTemp: OS2X, OSPres: OS1X}

	// 19 cycles * 1963us + 477*4 + 477*5 + 1000us wake-up.
	want := time.Duration(19*1963+477*4+477*5+1000) * time.Microsecond
	if got := MeasDur(ModeSequential, c); got != want {
		t.Fatalf("sequential meas dur = %v, want %v", got, want)
	}

	// Parallel mode has no wake-up cost.
	if got := MeasDur(ModeParallel, c); got != want-time.Millisecond {
		t.Fatalf("parallel meas dur = %v, want %v", got, want-time.Millisecond)
	}

	// Oversampling off still pays the switching overheads.
	min := MeasDur(ModeForced, Conf{})
	if min <= 0 {
		t.Fatalf("zero-config meas dur = %v, want > 0", min)
	}
	if max := MeasDur(ModeForced, Conf{OSHum: OS16X, OSTemp: OS16X, OSPres: OS16X}); max <= min {
		t.Fatalf("meas dur not monotonic in oversampling: min=%v max=%v", min, max)
	}
}

func TestHeatrConfProfileLen(t *testing.T) {
	hc := HeatrConf{
		TempProf: []uint16{200, 240, 280},
		DurProf:  []time.Duration{100 * time.Millisecond, 100 * time.Millisecond},
	}
	if got := hc.ProfileLen(); got != 2 {
		t.Fatalf("profile len = %d, want shorter slice length 2", got)
	}
}

func TestDataStatusBits(t *testing.T) {
	d := Data{Status: StatusNewData | StatusGasValid | StatusHeatStable}
	if !d.NewData() || !d.GasValid() || !d.HeaterStable() {
		t.Fatalf("status accessors disagree with bits: %#x", d.Status)
	}
	d.Status = StatusMeasuring
	if d.NewData() || d.GasValid() || d.HeaterStable() {
		t.Fatalf("status accessors set for measuring-only status: %#x", d.Status)
	}
}

func TestDataFloatAccessors(t *testing.T) {
	d := Data{TempCenti: 2534, PressurePa: 101325, HumidityMilli: 48_250, GasOhm: 123_456}
	if d.Celsius() != 25.34 {
		t.Fatalf("Celsius() = %v", d.Celsius())
	}
	if d.RelHumidity() != 48.25 {
		t.Fatalf("RelHumidity() = %v", d.RelHumidity())
	}
	if d.Pascal() != 101325 {
		t.Fatalf("Pascal() = %v", d.Pascal())
	}
}

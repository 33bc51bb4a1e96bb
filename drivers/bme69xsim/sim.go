// Package bme69xsim is a deterministic, bus-less stand-in for the vendor
// BME69x driver. It implements bme69x.Driver with synthesised readings and
// faithful mode/timing behaviour: measurements become available only after
// the configured measurement duration plus heater dwell, sequential mode
// steps the gas index through the heater profile, forced mode returns to
// sleep after one shot.
//
// It exists so the demos run on a host without hardware and so the glue
// and service layers can be tested; it knows nothing about registers.
package bme69xsim

import (
	"sync"
	"time"

	"bme690-go/bme69x"
	"bme690-go/errcode"
	"bme690-go/x/mathx"
)

// Sim implements bme69x.Driver.
type Sim struct {
	mu  sync.Mutex
	now func() time.Time

	inited    bool
	conf      bme69x.Conf
	heatr     bme69x.HeatrConf
	heatrMode bme69x.Mode
	mode      bme69x.Mode

	cycle     int
	nextReady time.Time

	seed uint32

	// Fault injection for tests.
	InitErr     error
	SelfTestErr error
	// FailAfter makes every driver call past the Nth fail with ComFail.
	FailAfter int
	calls     int
}

// New returns a simulator on the real clock.
func New() *Sim { return &Sim{now: time.Now, seed: 0x2F6A} }

// SetNow injects a clock, for tests.
func (s *Sim) SetNow(now func() time.Time) {
	s.mu.Lock()
	s.now = now
	s.mu.Unlock()
}

func (s *Sim) step(dev *bme69x.Dev) error {
	if err := dev.Validate(); err != nil {
		return err
	}
	s.calls++
	if s.FailAfter > 0 && s.calls > s.FailAfter {
		return errcode.ComFail
	}
	return nil
}

func (s *Sim) Init(dev *bme69x.Dev) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.step(dev); err != nil {
		return err
	}
	if s.InitErr != nil {
		return s.InitErr
	}
	// Reset settle, through the handle's delay hook like the real driver.
	dev.Delay(2 * time.Millisecond)
	s.inited = true
	s.mode = bme69x.ModeSleep
	s.conf = bme69x.Conf{OSTemp: bme69x.OS2X, OSPres: bme69x.OS16X, OSHum: bme69x.OS1X}
	s.heatr = bme69x.HeatrConf{}
	s.cycle = 0
	return nil
}

func (s *Sim) GetConf(dev *bme69x.Dev) (bme69x.Conf, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.step(dev); err != nil {
		return bme69x.Conf{}, err
	}
	if !s.inited {
		return bme69x.Conf{}, errcode.DevNotFound
	}
	return s.conf, nil
}

func (s *Sim) SetConf(dev *bme69x.Dev, c bme69x.Conf) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.step(dev); err != nil {
		return err
	}
	if !s.inited {
		return errcode.DevNotFound
	}
	s.conf = c
	return nil
}

func (s *Sim) SetHeatrConf(dev *bme69x.Dev, mode bme69x.Mode, hc bme69x.HeatrConf) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.step(dev); err != nil {
		return err
	}
	if !s.inited {
		return errcode.DevNotFound
	}
	if hc.Enable {
		switch mode {
		case bme69x.ModeSequential, bme69x.ModeParallel:
			n := hc.ProfileLen()
			if n == 0 || n > bme69x.MaxProfileLen {
				return errcode.InvalidLength
			}
			if mode == bme69x.ModeParallel && hc.SharedDur <= 0 {
				s.heatr, s.heatrMode = hc, mode
				return errcode.DefineShdHeatrDur
			}
		case bme69x.ModeForced:
			if hc.Dur <= 0 {
				return errcode.InvalidLength
			}
		}
	}
	s.heatr, s.heatrMode = hc, mode
	return nil
}

func (s *Sim) SetOpMode(dev *bme69x.Dev, mode bme69x.Mode) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.step(dev); err != nil {
		return err
	}
	if !s.inited {
		return errcode.DevNotFound
	}
	s.mode = mode
	s.cycle = 0
	if mode != bme69x.ModeSleep {
		s.nextReady = s.now().Add(s.cycleDur(0))
	}
	return nil
}

func (s *Sim) GetData(dev *bme69x.Dev, mode bme69x.Mode) ([]bme69x.Data, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.step(dev); err != nil {
		return nil, err
	}
	if !s.inited {
		return nil, errcode.DevNotFound
	}
	if s.mode == bme69x.ModeSleep {
		return nil, errcode.DefineOpMode
	}
	now := s.now()
	if now.Before(s.nextReady) {
		return nil, errcode.NoNewData
	}

	idx := 0
	if n := s.heatr.ProfileLen(); n > 0 && s.mode != bme69x.ModeForced {
		idx = s.cycle % n
	}
	d := s.synth(dev, idx)
	s.cycle++

	switch s.mode {
	case bme69x.ModeForced:
		// One shot, then back to sleep.
		s.mode = bme69x.ModeSleep
	default:
		next := 0
		if n := s.heatr.ProfileLen(); n > 0 {
			next = s.cycle % n
		}
		// Missed polls are skipped, not queued.
		s.nextReady = now.Add(s.cycleDur(next))
	}
	return []bme69x.Data{d}, nil
}

func (s *Sim) SelfTest(dev *bme69x.Dev) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.step(dev); err != nil {
		return err
	}
	if !s.inited {
		return errcode.DevNotFound
	}
	return s.SelfTestErr
}

// cycleDur is the time one measurement at profile index idx takes.
func (s *Sim) cycleDur(idx int) time.Duration {
	d := bme69x.MeasDur(s.mode, s.conf)
	if !s.heatr.Enable {
		return d
	}
	switch s.mode {
	case bme69x.ModeForced:
		return d + s.heatr.Dur
	case bme69x.ModeParallel:
		return d + s.heatr.SharedDur
	default:
		if idx < len(s.heatr.DurProf) {
			return d + s.heatr.DurProf[idx]
		}
		return d
	}
}

// synth produces one plausible field set for profile index idx.
func (s *Sim) synth(dev *bme69x.Dev, idx int) bme69x.Data {
	d := bme69x.Data{
		Status:    bme69x.StatusNewData,
		GasIndex:  uint8(idx),
		MeasIndex: uint8(s.cycle),

		TempCenti:     int32(dev.AmbTemp)*100 + 34 + s.rnd(60) - 30,
		PressurePa:    uint32(101_325 + s.rnd(40) - 20),
		HumidityMilli: uint32(48_000 + s.rnd(2_000) - 1_000),
	}
	if s.heatr.Enable {
		ht := s.heatr.Temp
		if s.mode != bme69x.ModeForced && idx < len(s.heatr.TempProf) {
			ht = s.heatr.TempProf[idx]
		}
		// Heater targets below ambient are pinned to ambient.
		amb := dev.AmbTemp
		if amb < 0 {
			amb = 0
		}
		ht = mathx.Clamp(ht, uint16(amb), 400)
		// Hotter plate, lower resistance.
		d.GasOhm = uint32(500_000 - int32(ht)*1_000 + s.rnd(4_000))
		d.Status |= bme69x.StatusGasValid | bme69x.StatusHeatStable
	}
	return d
}

// rnd is a small LCG; deterministic per Sim instance.
func (s *Sim) rnd(n int32) int32 {
	s.seed = s.seed*1664525 + 1013904223
	return int32(s.seed>>16) % n
}

// Package envmon is a bus-driven service owning one BME690. It applies a
// JSON configuration, runs the sensor in sequential heater-profile mode,
// and publishes readings per kind on the bus.
//
// Topics:
//
//	config/envmon             (in)  Config JSON
//	envmon/control/read_now   (in)  poll immediately
//	envmon/control/set_rate   (in)  {"period_ms": n}
//	envmon/state              (out, retained)
//	envmon/<kind>/value       (out) temperature, pressure, humidity, gas
package envmon

import (
	"context"
	"time"

	"bme690-go/bme69x"
	"bme690-go/bus"
	"bme690-go/errcode"
	"bme690-go/platform"
	"bme690-go/x/mathx"
	"bme690-go/x/timex"
)

// Sampling cadence bounds, milliseconds.
const (
	minPeriodMS = 100
	maxPeriodMS = 3_600_000
)

type service struct {
	conn  *bus.Connection
	drv   bme69x.Driver
	board platform.Board

	bind   *platform.Binding
	conf   bme69x.Conf
	heatr  bme69x.HeatrConf
	period time.Duration

	timer *time.Timer
}

// Run blocks, driving the service until ctx is cancelled. The driver and
// board are injected; on host builds pass the simulator and a HostBoard.
func Run(ctx context.Context, conn *bus.Connection, drv bme69x.Driver, board platform.Board) {
	s := &service{conn: conn, drv: drv, board: board}
	s.loop(ctx)
}

func (s *service) loop(ctx context.Context) {
	cfgSub := s.conn.Subscribe(bus.T("config", "envmon"))
	ctrlSub := s.conn.Subscribe(bus.T("envmon", "control", "+"))
	defer s.conn.Unsubscribe(cfgSub)
	defer s.conn.Unsubscribe(ctrlSub)

	s.publishState("idle", "awaiting_config", nil)

	s.timer = time.NewTimer(time.Hour)
	if !s.timer.Stop() {
		drainTimer(s.timer)
	}

	for {
		select {
		case <-ctx.Done():
			s.shutdown()
			return

		case msg := <-cfgSub.Channel():
			var cfg Config
			if err := decodeJSON(msg.Payload, &cfg); err != nil {
				s.publishState("error", "config_decode_failed", err)
				continue
			}
			if err := s.apply(cfg); err != nil {
				s.publishState("error", "apply_config_failed", err)
				continue
			}
			s.publishState("ready", "configured", nil)
			resetTimer(s.timer, s.period)

		case msg := <-ctrlSub.Channel():
			s.handleControl(msg)

		case <-s.timer.C:
			s.sample()
			s.timer.Reset(s.period)
		}
	}
}

// apply runs the configuration script: bring-up, init, conf, heater
// profile, sequential mode. Driver anomalies are reported and execution
// continues; only board bring-up failure aborts the apply.
func (s *service) apply(cfg Config) error {
	if s.bind != nil {
		platform.Teardown(s.bind)
		s.bind = nil
	}

	opts := platform.Options{Intf: cfg.intf(), I2CAddr: uint8(cfg.Addr)}
	if cfg.AmbTemp != 0 {
		opts.AmbTemp = int8(cfg.AmbTemp)
	}
	bind, err := platform.Setup(s.board, opts)
	if err != nil {
		return err
	}
	s.bind = bind

	errcode.Report("bme69x_init", s.drv.Init(&bind.Dev))

	conf, err := s.drv.GetConf(&bind.Dev)
	errcode.Report("bme69x_get_conf", err)
	want := cfg.conf()
	conf.Filter = want.Filter
	conf.ODR = want.ODR
	conf.OSHum = want.OSHum
	conf.OSPres = want.OSPres
	conf.OSTemp = want.OSTemp
	errcode.Report("bme69x_set_conf", s.drv.SetConf(&bind.Dev, conf))
	s.conf = conf

	s.heatr = cfg.heatrConf()
	errcode.Report("bme69x_set_heatr_conf",
		s.drv.SetHeatrConf(&bind.Dev, bme69x.ModeSequential, s.heatr))

	errcode.Report("bme69x_set_op_mode",
		s.drv.SetOpMode(&bind.Dev, bme69x.ModeSequential))

	s.period = s.derivePeriod(cfg.PeriodMS)
	return nil
}

func (s *service) derivePeriod(overrideMS int) time.Duration {
	if overrideMS > 0 {
		return timex.FromMs(mathx.Clamp(overrideMS, minPeriodMS, maxPeriodMS))
	}
	p := bme69x.MeasDur(bme69x.ModeSequential, s.conf)
	if len(s.heatr.DurProf) > 0 {
		p += s.heatr.DurProf[0]
	}
	return mathx.Max(p, timex.FromMs(minPeriodMS))
}

func (s *service) handleControl(msg *bus.Message) {
	if len(msg.Topic) < 3 {
		return
	}
	switch msg.Topic[2] {
	case "read_now":
		if s.bind == nil {
			s.replyErr(msg, string(errcode.DevNotFound))
			return
		}
		s.sample()
		s.replyOK(msg, nil)
	case "set_rate":
		var p struct {
			PeriodMS int `json:"period_ms"`
		}
		if err := decodeJSON(msg.Payload, &p); err != nil || p.PeriodMS <= 0 {
			s.replyErr(msg, "invalid period")
			return
		}
		s.period = timex.FromMs(mathx.Clamp(p.PeriodMS, minPeriodMS, maxPeriodMS))
		resetTimer(s.timer, s.period)
		s.replyOK(msg, map[string]any{"period_ms": timex.Ms(s.period)})
	default:
		s.replyErr(msg, "unknown control")
	}
}

func (s *service) sample() {
	if s.bind == nil {
		return
	}
	fields, err := s.drv.GetData(&s.bind.Dev, bme69x.ModeSequential)
	if err != nil {
		c := errcode.Of(err)
		if c == errcode.NoNewData {
			// Polled between measurements; nothing to publish.
			return
		}
		errcode.Report("bme69x_get_data", err)
		s.publishState("degraded", string(c), err)
		return
	}
	now := timex.NowMs()
	for _, d := range fields {
		s.publishValue("temperature", map[string]any{"centi_c": d.TempCenti, "ts_ms": now})
		s.publishValue("pressure", map[string]any{"pa": d.PressurePa, "ts_ms": now})
		s.publishValue("humidity", map[string]any{"milli_percent": d.HumidityMilli, "ts_ms": now})
		s.publishValue("gas", map[string]any{
			"ohm":         d.GasOhm,
			"gas_index":   d.GasIndex,
			"meas_index":  d.MeasIndex,
			"gas_valid":   d.GasValid(),
			"heat_stable": d.HeaterStable(),
			"ts_ms":       now,
		})
	}
	s.publishState("ready", "sampling", nil)
}

func (s *service) shutdown() {
	if s.bind != nil {
		errcode.Report("bme69x_set_op_mode",
			s.drv.SetOpMode(&s.bind.Dev, bme69x.ModeSleep))
		platform.Teardown(s.bind)
		s.bind = nil
	}
	s.publishState("stopped", "context_cancelled", nil)
}

func (s *service) publishValue(kind string, payload map[string]any) {
	s.conn.Publish(s.conn.NewMessage(bus.T("envmon", kind, "value"), payload, false))
}

func (s *service) publishState(level, status string, err error) {
	payload := map[string]any{"level": level, "status": status, "ts_ms": timex.NowMs()}
	if err != nil {
		payload["error"] = err.Error()
	}
	s.conn.Publish(s.conn.NewMessage(bus.T("envmon", "state"), payload, true))
}

func (s *service) replyOK(req *bus.Message, extra map[string]any) {
	m := map[string]any{"ok": true}
	for k, v := range extra {
		m[k] = v
	}
	s.conn.Reply(req, m, false)
}

func (s *service) replyErr(req *bus.Message, e string) {
	s.conn.Reply(req, map[string]any{"ok": false, "error": e}, false)
}

// resetTimer safely stops, drains, and resets a timer.
func resetTimer(t *time.Timer, d time.Duration) {
	if !t.Stop() {
		drainTimer(t)
	}
	if d <= 0 {
		d = time.Millisecond
	}
	t.Reset(d)
}

func drainTimer(t *time.Timer) {
	select {
	case <-t.C:
	default:
	}
}

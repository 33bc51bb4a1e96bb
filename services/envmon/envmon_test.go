package envmon

import (
	"context"
	"testing"
	"time"

	"bme690-go/bus"
	"bme690-go/drivers/bme69xsim"
	"bme690-go/platform"
)

func waitState(t *testing.T, sub *bus.Subscription, status string) map[string]any {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case m := <-sub.Channel():
			p, ok := m.Payload.(map[string]any)
			if !ok {
				t.Fatalf("state payload type %T", m.Payload)
			}
			if p["status"] == status {
				return p
			}
		case <-deadline:
			t.Fatalf("timeout waiting for state %q", status)
		}
	}
}

func startService(t *testing.T) (*bus.Bus, *bus.Connection, *bus.Subscription, context.CancelFunc) {
	t.Helper()
	b := bus.NewBus(64)
	svcConn := b.NewConnection("envmon")
	cli := b.NewConnection("cli")

	stateSub := cli.Subscribe(bus.T("envmon", "state"))

	ctx, cancel := context.WithCancel(context.Background())
	go Run(ctx, svcConn, bme69xsim.New(), platform.NewRecordingBoard())

	waitState(t, stateSub, "awaiting_config")
	return b, cli, stateSub, cancel
}

func fastConfig() Config {
	cfg := DefaultConfig()
	// Short dwells so tests sample quickly.
	cfg.HeaterTemps = []int{200, 240, 280}
	cfg.HeaterDursMS = []int{10, 10, 10}
	return cfg
}

func TestConfigureAndSample(t *testing.T) {
	_, cli, stateSub, cancel := startService(t)
	defer cancel()

	valSub := cli.Subscribe(bus.T("envmon", "+", "value"))

	cli.Publish(cli.NewMessage(bus.T("config", "envmon"), fastConfig(), false))
	waitState(t, stateSub, "configured")

	kinds := map[string]bool{}
	deadline := time.After(3 * time.Second)
	for len(kinds) < 4 {
		select {
		case m := <-valSub.Channel():
			if len(m.Topic) == 3 {
				kinds[m.Topic[1]] = true
			}
			p, ok := m.Payload.(map[string]any)
			if !ok || p["ts_ms"] == nil {
				t.Fatalf("value payload: %#v", m.Payload)
			}
		case <-deadline:
			t.Fatalf("timeout; kinds so far: %v", kinds)
		}
	}
	for _, k := range []string{"temperature", "pressure", "humidity", "gas"} {
		if !kinds[k] {
			t.Fatalf("missing kind %q (got %v)", k, kinds)
		}
	}
}

func TestBadConfigReportsError(t *testing.T) {
	_, cli, stateSub, cancel := startService(t)
	defer cancel()

	cli.Publish(cli.NewMessage(bus.T("config", "envmon"), "{not json", false))
	st := waitState(t, stateSub, "config_decode_failed")
	if st["level"] != "error" {
		t.Fatalf("state level = %v", st["level"])
	}
}

func TestReadNowAndSetRate(t *testing.T) {
	_, cli, stateSub, cancel := startService(t)
	defer cancel()

	resp := cli.Subscribe(bus.T("cli", "resp"))

	// read_now before configuration fails.
	cli.Publish(&bus.Message{
		Topic:   bus.T("envmon", "control", "read_now"),
		ReplyTo: bus.T("cli", "resp"),
	})
	select {
	case m := <-resp.Channel():
		p := m.Payload.(map[string]any)
		if p["ok"] != false {
			t.Fatalf("read_now before config: %v", p)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no reply to read_now")
	}

	cli.Publish(cli.NewMessage(bus.T("config", "envmon"), fastConfig(), false))
	waitState(t, stateSub, "configured")

	// set_rate applies a clamped period.
	cli.Publish(&bus.Message{
		Topic:   bus.T("envmon", "control", "set_rate"),
		Payload: map[string]any{"period_ms": 1}, // below the floor
		ReplyTo: bus.T("cli", "resp"),
	})
	select {
	case m := <-resp.Channel():
		p := m.Payload.(map[string]any)
		if p["ok"] != true {
			t.Fatalf("set_rate reply: %v", p)
		}
		if ms, _ := p["period_ms"].(int64); ms != 100 {
			t.Fatalf("period not clamped to floor: %v", p["period_ms"])
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no reply to set_rate")
	}

	// Unknown control is rejected.
	cli.Publish(&bus.Message{
		Topic:   bus.T("envmon", "control", "blink"),
		ReplyTo: bus.T("cli", "resp"),
	})
	select {
	case m := <-resp.Channel():
		p := m.Payload.(map[string]any)
		if p["ok"] != false {
			t.Fatalf("unknown control reply: %v", p)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no reply to unknown control")
	}
}

func TestShutdownTearsDownBoard(t *testing.T) {
	b := bus.NewBus(64)
	svcConn := b.NewConnection("envmon")
	cli := b.NewConnection("cli")
	stateSub := cli.Subscribe(bus.T("envmon", "state"))

	board := platform.NewRecordingBoard()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		Run(ctx, svcConn, bme69xsim.New(), board)
		close(done)
	}()

	waitState(t, stateSub, "awaiting_config")
	cli.Publish(cli.NewMessage(bus.T("config", "envmon"), fastConfig(), false))
	waitState(t, stateSub, "configured")

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("service did not stop")
	}
	waitState(t, stateSub, "context_cancelled")

	ops := board.Ops()
	if len(ops) == 0 || ops[len(ops)-1] != "close" {
		t.Fatalf("board not closed on shutdown: %v", ops)
	}
}

// Package heartbeat publishes a retained liveness message at a fixed
// interval so bus peers can tell the node is up.
package heartbeat

import (
	"context"
	"time"

	"bme690-go/bus"
	"bme690-go/x/timex"
)

const defaultInterval = 5 * time.Second

type Service struct {
	started time.Time
	seq     uint64
}

func (s *Service) serviceLoop(ctx context.Context, conn *bus.Connection) {
	cfgSub := conn.Subscribe(bus.T("config", "heartbeat"))
	defer conn.Unsubscribe(cfgSub)

	s.started = time.Now()
	tick := time.NewTicker(defaultInterval)
	defer tick.Stop()

	s.beat(conn)
	for {
		select {
		case <-ctx.Done():
			return
		case <-tick.C:
			s.beat(conn)
		case msg := <-cfgSub.Channel():
			if m, ok := msg.Payload.(map[string]any); ok {
				if iv, ok := m["interval_ms"].(float64); ok && iv >= 100 {
					tick.Reset(time.Duration(iv) * time.Millisecond)
				}
			}
		}
	}
}

func (s *Service) beat(conn *bus.Connection) {
	s.seq++
	conn.Publish(conn.NewMessage(bus.T("heartbeat"), map[string]any{
		"seq":       s.seq,
		"uptime_ms": timex.Ms(time.Since(s.started)),
	}, true))
}

// Start launches the service loop; it runs until ctx is cancelled.
func (s *Service) Start(ctx context.Context, conn *bus.Connection) error {
	go s.serviceLoop(ctx, conn)
	return nil
}

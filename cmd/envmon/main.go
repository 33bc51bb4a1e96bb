// Command envmon wires the envmon service to the in-process bus, pushes
// the default configuration, and prints every reading the service
// publishes. Ctrl-C (host) stops the service cleanly.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"bme690-go/bus"
	"bme690-go/drivers/bme69xsim"
	"bme690-go/platform"
	"bme690-go/services/envmon"
	"bme690-go/services/heartbeat"
)

func main() {
	out := platform.Console()

	b := bus.NewBus(64)
	svcConn := b.NewConnection("envmon")
	cli := b.NewConnection("main")

	stateSub := cli.Subscribe(bus.T("envmon", "state"))
	valSub := cli.Subscribe(bus.T("envmon", "+", "value"))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	hb := &heartbeat.Service{}
	if err := hb.Start(ctx, b.NewConnection("heartbeat")); err != nil {
		fmt.Fprintf(out, "heartbeat: %v\n", err)
	}

	done := make(chan struct{})
	go func() {
		envmon.Run(ctx, svcConn, bme69xsim.New(), platform.NewBoard())
		close(done)
	}()

	cli.Publish(cli.NewMessage(bus.T("config", "envmon"), envmon.DefaultConfig(), false))

	for {
		select {
		case m := <-stateSub.Channel():
			fmt.Fprintf(out, "state: %v\n", m.Payload)
		case m := <-valSub.Channel():
			fmt.Fprintf(out, "%s: %v\n", m.Topic[1], m.Payload)
		case <-done:
			return
		}
	}
}

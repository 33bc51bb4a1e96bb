// Command sequential drives the BME690 through its heater profile in
// sequential mode and prints one CSV line per field set.
//
// Run on host (simulated sensor):
//
//	go run ./cmd/sequential
//
// Build/flash (TinyGo, output on UART0):
//
//	tinygo flash -target pico ./cmd/sequential
//
// Swap the simulator for the vendor driver where noted to talk to real
// silicon; the bring-up, configuration script and polling loop stay as
// they are.
package main

import (
	"fmt"
	"os"
	"time"

	"bme690-go/bme69x"
	"bme690-go/drivers/bme69xsim"
	"bme690-go/errcode"
	"bme690-go/platform"
	"bme690-go/x/timex"
)

// Count of samples to be displayed.
const sampleCount = 300

func main() {
	out := platform.Console()

	board := platform.NewBoard()
	bind, err := platform.Setup(board, platform.Options{Intf: bme69x.IntfI2C, Warn: out})
	if err != nil {
		errcode.Freport(out, "bme69x_interface_init", err)
		os.Exit(1)
	}
	defer platform.Teardown(bind)

	// The vendor driver slots in here; the simulator keeps the demo
	// runnable without hardware.
	var drv bme69x.Driver = bme69xsim.New()

	errcode.Freport(out, "bme69x_init", drv.Init(&bind.Dev))

	conf, err := drv.GetConf(&bind.Dev)
	errcode.Freport(out, "bme69x_get_conf", err)

	conf.Filter = bme69x.FilterOff
	conf.ODR = bme69x.ODRNone // no standby between profile runs
	conf.OSHum = bme69x.OS16X
	conf.OSPres = bme69x.OS1X
	conf.OSTemp = bme69x.OS2X
	errcode.Freport(out, "bme69x_set_conf", drv.SetConf(&bind.Dev, conf))

	heatr := bme69x.HeatrConf{
		Enable:   true,
		TempProf: []uint16{200, 240, 280, 320, 360, 360, 320, 280, 240, 200},
		DurProf:  flatDurProf(100*time.Millisecond, 10),
	}
	errcode.Freport(out, "bme69x_set_heatr_conf",
		drv.SetHeatrConf(&bind.Dev, bme69x.ModeSequential, heatr))

	errcode.Freport(out, "bme69x_set_op_mode",
		drv.SetOpMode(&bind.Dev, bme69x.ModeSequential))

	fmt.Fprintln(out, "Sample, TimeStamp(ms), Temperature(deg C), Pressure(Pa), Humidity(%), Gas resistance(ohm), Status, Profile index, Measurement index")

	sample := 1
	for sample <= sampleCount {
		// One measurement plus the active heater dwell.
		period := bme69x.MeasDur(bme69x.ModeSequential, conf) + heatr.DurProf[0]
		bind.Dev.Delay(period)

		tms := timex.NowMs()
		fields, err := drv.GetData(&bind.Dev, bme69x.ModeSequential)
		errcode.Freport(out, "bme69x_get_data", err)

		for _, d := range fields {
			fmt.Fprintf(out, "%d,%d,%.2f,%.2f,%.2f,%.2f,0x%x,%d,%d\n",
				sample, tms,
				d.Celsius(), d.Pascal(), d.RelHumidity(), d.GasResistance(),
				d.Status, d.GasIndex, d.MeasIndex)
			sample++
		}
	}
}

func flatDurProf(d time.Duration, n int) []time.Duration {
	prof := make([]time.Duration, n)
	for i := range prof {
		prof[i] = d
	}
	return prof
}

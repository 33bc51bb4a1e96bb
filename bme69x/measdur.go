package bme69x

import "time"

// Per-cycle and overhead costs of a TPH measurement, in microseconds.
// These come from the datasheet's timing section and do not depend on the
// register protocol.
const (
	cycleCostUs     = 1963
	tphSwitchCostUs = 477 * 4 // TPH measurement switching
	gasSwitchCostUs = 477 * 5 // gas measurement switching
	wakeCostUs      = 1000    // wake-up from sleep
)

// MeasDur returns the time one TPH measurement takes under the given
// configuration. Heater dwell time is not included; callers sizing a
// polling delay add the active heater duration themselves. Parallel mode
// skips the wake-up cost because the sensor never re-enters sleep between
// profile steps.
func MeasDur(mode Mode, c Conf) time.Duration {
	cycles := c.OSTemp.Cycles() + c.OSPres.Cycles() + c.OSHum.Cycles()
	us := cycles * cycleCostUs
	us += tphSwitchCostUs + gasSwitchCostUs
	if mode != ModeParallel {
		us += wakeCostUs
	}
	return time.Duration(us) * time.Microsecond
}

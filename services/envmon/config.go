package envmon

import (
	"encoding/json"
	"time"

	"bme690-go/bme69x"
)

// Config arrives as JSON on the "config/envmon" topic.
type Config struct {
	Intf string `json:"intf"`           // "i2c" | "spi"
	Addr int    `json:"addr,omitempty"` // I2C address override

	// Oversampling as plain factors: 0 (off), 1, 2, 4, 8, 16.
	OSTemp int `json:"os_temp,omitempty"`
	OSPres int `json:"os_pres,omitempty"`
	OSHum  int `json:"os_hum,omitempty"`
	// IIR filter length: 0, 1, 3, 7, 15, 31, 63, 127.
	Filter int `json:"filter,omitempty"`

	// Heater profile; both slices must be the same length.
	HeaterTemps  []int `json:"heater_temps,omitempty"`   // degrees Celsius
	HeaterDursMS []int `json:"heater_durs_ms,omitempty"` // milliseconds

	// PeriodMS overrides the sampling cadence; 0 derives it from the
	// measurement duration plus the first heater dwell.
	PeriodMS int `json:"period_ms,omitempty"`

	AmbTemp int `json:"amb_temp,omitempty"`
}

// DefaultConfig mirrors the sequential demo settings.
func DefaultConfig() Config {
	return Config{
		Intf:   "i2c",
		OSTemp: 2, OSPres: 1, OSHum: 16,
		HeaterTemps:  []int{200, 240, 280, 320, 360, 360, 320, 280, 240, 200},
		HeaterDursMS: []int{100, 100, 100, 100, 100, 100, 100, 100, 100, 100},
	}
}

func (c Config) conf() bme69x.Conf {
	return bme69x.Conf{
		OSTemp: osFromFactor(c.OSTemp),
		OSPres: osFromFactor(c.OSPres),
		OSHum:  osFromFactor(c.OSHum),
		Filter: filterFromLen(c.Filter),
		ODR:    bme69x.ODRNone,
	}
}

func (c Config) heatrConf() bme69x.HeatrConf {
	n := len(c.HeaterTemps)
	if len(c.HeaterDursMS) < n {
		n = len(c.HeaterDursMS)
	}
	hc := bme69x.HeatrConf{Enable: n > 0}
	for i := 0; i < n; i++ {
		hc.TempProf = append(hc.TempProf, uint16(c.HeaterTemps[i]))
		hc.DurProf = append(hc.DurProf, time.Duration(c.HeaterDursMS[i])*time.Millisecond)
	}
	return hc
}

func (c Config) intf() bme69x.Intf {
	if c.Intf == "spi" {
		return bme69x.IntfSPI
	}
	return bme69x.IntfI2C
}

func osFromFactor(n int) bme69x.Oversampling {
	switch {
	case n >= 16:
		return bme69x.OS16X
	case n >= 8:
		return bme69x.OS8X
	case n >= 4:
		return bme69x.OS4X
	case n >= 2:
		return bme69x.OS2X
	case n >= 1:
		return bme69x.OS1X
	default:
		return bme69x.OSNone
	}
}

func filterFromLen(n int) bme69x.Filter {
	switch {
	case n >= 127:
		return bme69x.FilterSize127
	case n >= 63:
		return bme69x.FilterSize63
	case n >= 31:
		return bme69x.FilterSize31
	case n >= 15:
		return bme69x.FilterSize15
	case n >= 7:
		return bme69x.FilterSize7
	case n >= 3:
		return bme69x.FilterSize3
	case n >= 1:
		return bme69x.FilterSize1
	default:
		return bme69x.FilterOff
	}
}

// decodeJSON accepts raw bytes, strings, or already-decoded values.
func decodeJSON[T any](src any, dst *T) error {
	switch v := src.(type) {
	case []byte:
		return json.Unmarshal(v, dst)
	case string:
		return json.Unmarshal([]byte(v), dst)
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return err
		}
		return json.Unmarshal(b, dst)
	}
}

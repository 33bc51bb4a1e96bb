package timex

import "time"

// NowMs returns Unix milliseconds as int64.
func NowMs() int64 { return time.Now().UnixMilli() }

// Ms returns d in whole milliseconds.
func Ms(d time.Duration) int64 { return d.Milliseconds() }

// FromMs converts milliseconds to a Duration.
func FromMs(ms int) time.Duration { return time.Duration(ms) * time.Millisecond }

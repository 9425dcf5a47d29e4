// utils.go
// Purpose: Small conversion helpers between time.Duration (config, host loop)
// and float seconds (the clock's native unit).
package common

import (
	"fmt"
	"math"
	"time"
)

// Seconds converts a duration into float seconds.
func Seconds(d time.Duration) float64 {
	return d.Seconds()
}

// Duration converts float seconds into a duration. NaN and negative values map to 0.
func Duration(s float64) time.Duration {
	if math.IsNaN(s) || s <= 0 {
		return 0
	}
	return time.Duration(s * float64(time.Second))
}

// FormatRaceTime renders seconds as m:ss.mmm, the way race clocks are shown.
func FormatRaceTime(s float64) string {
	d := Duration(s).Round(time.Millisecond)
	m := d / time.Minute
	d -= m * time.Minute
	sec := d / time.Second
	d -= sec * time.Second
	return fmt.Sprintf("%d:%02d.%03d", int64(m), int64(sec), int64(d/time.Millisecond))
}

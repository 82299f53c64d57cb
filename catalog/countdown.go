package catalog

import (
	"fmt"
	"time"
)

// TimeLeft formats the remaining auction time as "{d}d {hh}:{mm}:{ss}",
// clamped to "0d 00:00:00" once the deadline has passed. Idempotent for a
// fixed (endsAt, now) pair; callers refresh now on their own tick.
func TimeLeft(endsAt, now time.Time) string {
	diff := endsAt.Sub(now)
	if diff <= 0 {
		return "0d 00:00:00"
	}
	days := int(diff / (24 * time.Hour))
	hours := int(diff/time.Hour) % 24
	minutes := int(diff/time.Minute) % 60
	seconds := int(diff/time.Second) % 60
	return fmt.Sprintf("%dd %02d:%02d:%02d", days, hours, minutes, seconds)
}

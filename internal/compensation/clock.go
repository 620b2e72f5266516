package compensation

import (
	"math"
	"time"

	"github.com/frahmantamala/trail-report/internal/report"
)

const dateLayout = report.DateLayout

// FormatHours renders fractional hours as zero-padded HH:MM with minutes rounded.
func FormatHours(hours float64) string {
	return report.FormatClock(hoursToMinutes(hours))
}

func hoursToMinutes(hours float64) int {
	if hours <= 0 {
		return 0
	}
	return int(math.Round(hours * 60))
}

// dayKey buckets a segment date; missing or unparseable dates fall back to now.
func dayKey(date string, now time.Time) string {
	if t, ok := report.ParseDate(date); ok {
		return t.Format(dateLayout)
	}
	return now.Format(dateLayout)
}

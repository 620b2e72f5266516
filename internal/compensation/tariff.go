package compensation

import (
	"github.com/frahmantamala/trail-report/internal/report"
)

// ResolveTariff returns the first row whose inclusive [From, To] range contains
// the work duration, or nil. Rows are expected not to overlap.
func ResolveTariff(hours float64, rows []report.TariffRow) *report.TariffRow {
	worked := hoursToMinutes(hours)
	for i := range rows {
		from, ok := report.ParseClock(rows[i].From)
		if !ok {
			continue
		}
		to, ok := report.ParseClock(rows[i].To)
		if !ok {
			continue
		}
		if from <= worked && worked <= to {
			return &rows[i]
		}
	}
	return nil
}

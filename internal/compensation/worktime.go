package compensation

import (
	"sort"
	"time"

	"github.com/frahmantamala/trail-report/internal/report"
)

// WorkDay is one calendar day of work for a member.
type WorkDay struct {
	Date  string  `json:"date"`
	Start string  `json:"start"`
	End   string  `json:"end"`
	Hours float64 `json:"hours"`
}

type daySpan struct {
	start int
	end   int
}

// WorkDays derives the per-day working spans of memberID from every group the
// member travels with. A day lasts from its earliest departure to its latest
// arrival, so the waiting time between trips is part of the working day.
func WorkDays(groups []report.TravelGroup, memberID string, now time.Time) []WorkDay {
	spans := make(map[string]*daySpan)

	for _, group := range groups {
		if !group.HasParticipant(memberID) {
			continue
		}
		for _, segment := range group.Segments {
			if !segment.HasTimes() {
				continue
			}
			departure, ok := report.ParseClock(segment.Departure)
			if !ok {
				continue
			}
			arrival, ok := report.ParseClock(segment.Arrival)
			if !ok {
				continue
			}

			day := dayKey(segment.Date, now)
			span, exists := spans[day]
			if !exists {
				spans[day] = &daySpan{start: departure, end: arrival}
				continue
			}
			if departure < span.start {
				span.start = departure
			}
			if arrival > span.end {
				span.end = arrival
			}
		}
	}

	dates := make([]string, 0, len(spans))
	for date := range spans {
		dates = append(dates, date)
	}
	sort.Strings(dates)

	days := make([]WorkDay, 0, len(dates))
	for _, date := range dates {
		span := spans[date]
		minutes := span.end - span.start
		if minutes <= 0 {
			continue
		}
		days = append(days, WorkDay{
			Date:  date,
			Start: report.FormatClock(span.start),
			End:   report.FormatClock(span.end),
			Hours: float64(minutes) / 60,
		})
	}
	return days
}

// TotalHours sums the duration of all work days.
func TotalHours(days []WorkDay) float64 {
	var total float64
	for _, d := range days {
		total += d.Hours
	}
	return total
}

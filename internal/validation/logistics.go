package validation

import (
	"fmt"
	"sort"
	"strings"

	"github.com/frahmantamala/trail-report/internal/report"
)

// MinTripsPerDay is the lowest number of segments a participant may record on
// any day they travel: getting there and getting back.
const MinTripsPerDay = 2

// ValidateLogistics runs every travel, accommodation and expense check and
// collects all findings; it never stops at the first error.
func ValidateLogistics(r *report.Report) Result {
	c := newCollector()
	if r == nil {
		c.errorf("logistics.travel_groups", "", CodeNoTrips, "No trips have been recorded")
		return c.result
	}

	checkTripsPresent(c, r.Logistics.TravelGroups)
	for i := range r.Logistics.TravelGroups {
		checkGroup(c, r, i)
	}
	for i := range r.Logistics.Accommodations {
		checkAccommodation(c, i, &r.Logistics.Accommodations[i])
	}
	for i := range r.Logistics.Expenses {
		checkExpense(c, i, &r.Logistics.Expenses[i])
	}
	checkTripsPerDay(c, r)

	return c.result
}

func checkTripsPresent(c *collector, groups []report.TravelGroup) {
	for i := range groups {
		if len(groups[i].Segments) > 0 {
			return
		}
	}
	c.errorf("logistics.travel_groups", "", CodeNoTrips, "No trips have been recorded")
}

func checkGroup(c *collector, r *report.Report, index int) {
	group := &r.Logistics.TravelGroups[index]
	path := fmt.Sprintf("logistics.travel_groups[%d]", index)

	if group.HasOwnVehicleSegment() {
		c.Field(path+".driver_id", group.ID).
			Required(group.DriverID, CodeVehicleWithoutDriver, "A group travelling by own vehicle needs a driver")
		c.Field(path+".license_plate", group.ID).
			Required(group.LicensePlate, CodeVehicleWithoutPlate, "A group travelling by own vehicle needs a license plate")
	}
	if group.DriverID != "" && !group.HasParticipant(group.DriverID) {
		c.errorf(path+".driver_id", group.ID, CodeDriverNotParticipant,
			"Driver %s is not a participant of the group", memberName(r, group.DriverID))
	}

	for i := range group.Segments {
		checkSegment(c, r, group, fmt.Sprintf("%s.segments[%d]", path, i), &group.Segments[i])
	}
}

func checkSegment(c *collector, r *report.Report, group *report.TravelGroup, path string, segment *report.TravelSegment) {
	if _, ok := report.ParseDate(segment.Date); !ok {
		c.errorf(path+".date", segment.ID, CodeSegmentMissingDate, "Trip date is missing or invalid")
	}
	if strings.TrimSpace(segment.From) == "" || strings.TrimSpace(segment.To) == "" {
		c.errorf(path, segment.ID, CodeSegmentMissingPlaces, "Trip departure and arrival places are required")
	}
	_, depOK := report.ParseClock(segment.Departure)
	_, arrOK := report.ParseClock(segment.Arrival)
	if !depOK || !arrOK {
		c.errorf(path, segment.ID, CodeSegmentMissingTimes, "Trip departure and arrival times are required")
	}
	if !segment.Mode.IsValid() {
		c.errorf(path+".mode", segment.ID, CodeSegmentInvalidMode, "Trip transport mode %q is not recognized", segment.Mode)
		return
	}

	switch {
	case segment.Mode.IsOwnVehicle():
		c.Field(path+".kilometers", segment.ID).
			Positive(segment.Kilometers, CodeInvalidKilometers, "Kilometers driven must be greater than zero")
	case segment.Mode == report.TransportPublic:
		checkPublicTransportCosts(c, r, group, path, segment)
	}
}

func checkPublicTransportCosts(c *collector, r *report.Report, group *report.TravelGroup, path string, segment *report.TravelSegment) {
	var missing, zero []string
	for _, id := range group.Participants {
		cost, ok := segment.CostFor(id)
		switch {
		case !ok:
			missing = append(missing, memberName(r, id))
		case cost.IsZero():
			zero = append(zero, memberName(r, id))
		}
	}
	if len(missing) > 0 {
		c.warnf(path+".costs", segment.ID, CodeTransportCostMissing,
			"No ticket cost recorded for %s", strings.Join(missing, ", "))
	}
	if len(zero) > 0 {
		c.warnf(path+".costs", segment.ID, CodeTransportCostZero,
			"Ticket cost of 0 recorded for %s", strings.Join(zero, ", "))
	}
	if len(segment.Costs) > 0 && len(segment.Attachments) == 0 {
		c.warnf(path+".attachments", segment.ID, CodeTransportReceiptMissing, "Ticket costs have no receipt attached")
	}
}

func checkAccommodation(c *collector, index int, a *report.Accommodation) {
	path := fmt.Sprintf("logistics.accommodations[%d]", index)
	if _, ok := report.ParseDate(a.Date); !ok {
		c.errorf(path+".date", a.ID, CodeMissingDate, "Accommodation date is missing or invalid")
	}
	if strings.TrimSpace(a.Facility) == "" || strings.TrimSpace(a.Place) == "" {
		c.errorf(path, a.ID, CodeMissingDescription, "Accommodation facility and place are required")
	}
	c.Field(path+".amount", a.ID).
		Positive(a.Amount, CodeInvalidAmount, "Accommodation amount must be greater than zero")
	c.Field(path+".attachments", a.ID).
		Recommended(len(a.Attachments) > 0, CodeReceiptMissing, "Accommodation has no receipt attached")
}

func checkExpense(c *collector, index int, e *report.AdditionalExpense) {
	path := fmt.Sprintf("logistics.expenses[%d]", index)
	if _, ok := report.ParseDate(e.Date); !ok {
		c.errorf(path+".date", e.ID, CodeMissingDate, "Expense date is missing or invalid")
	}
	c.Field(path+".description", e.ID).
		Required(e.Description, CodeMissingDescription, "Expense description is required")
	c.Field(path+".amount", e.ID).
		Positive(e.Amount, CodeInvalidAmount, "Expense amount must be greater than zero")
	c.Field(path+".attachments", e.ID).
		Recommended(len(e.Attachments) > 0, CodeReceiptMissing, "Expense has no receipt attached")
}

// checkTripsPerDay counts segments per participant and date. Segments without a
// usable date are already reported and are not counted.
func checkTripsPerDay(c *collector, r *report.Report) {
	counts := map[string]map[string]int{}
	for gi := range r.Logistics.TravelGroups {
		group := &r.Logistics.TravelGroups[gi]
		for si := range group.Segments {
			date, ok := report.ParseDate(group.Segments[si].Date)
			if !ok {
				continue
			}
			day := date.Format(report.DateLayout)
			for _, id := range group.Participants {
				if counts[id] == nil {
					counts[id] = map[string]int{}
				}
				counts[id][day]++
			}
		}
	}

	members := make([]string, 0, len(counts))
	for id := range counts {
		members = append(members, id)
	}
	sort.Strings(members)

	for _, id := range members {
		days := make([]string, 0, len(counts[id]))
		for day := range counts[id] {
			days = append(days, day)
		}
		sort.Strings(days)
		for _, day := range days {
			if n := counts[id][day]; n < MinTripsPerDay {
				c.errorf("logistics.travel_groups", id, CodeTooFewTrips,
					"%s has only %d trip on %s, at least %d are required", memberName(r, id), n, day, MinTripsPerDay)
			}
		}
	}
}

func memberName(r *report.Report, id string) string {
	if m, ok := r.Member(id); ok && m.Name != "" {
		return m.Name
	}
	return id
}

package compensation

import (
	"github.com/shopspring/decimal"

	"github.com/frahmantamala/trail-report/internal/report"
)

// TransportEntry is one priced travel segment for a member.
type TransportEntry struct {
	GroupID    string               `json:"group_id"`
	SegmentID  string               `json:"segment_id"`
	Date       string               `json:"date"`
	From       string               `json:"from"`
	To         string               `json:"to"`
	Mode       report.TransportMode `json:"mode"`
	Kilometers decimal.Decimal      `json:"kilometers"`
	Rate       decimal.Decimal      `json:"rate"`
	Amount     decimal.Decimal      `json:"amount"`
}

// TransportEntries prices every segment of the groups memberID travels with.
// Only the driver of a group is paid for own-vehicle legs; the order-wide
// primary driver gets the subsidized rate on the legs they drive. Amounts are
// not rounded here.
func TransportEntries(r *report.Report, tariff *report.TariffTable, memberID string) []TransportEntry {
	if r == nil || tariff == nil {
		return nil
	}

	rate := tariff.OwnVehicleRate
	if r.IsPrimaryDriver(memberID) {
		rate = tariff.OwnVehicleSubsidizedRate
	}

	var entries []TransportEntry
	for _, group := range r.Logistics.TravelGroups {
		if !group.HasParticipant(memberID) {
			continue
		}
		isDriver := group.DriverID != "" && group.DriverID == memberID

		for _, segment := range group.Segments {
			entry := TransportEntry{
				GroupID:   group.ID,
				SegmentID: segment.ID,
				Date:      segment.Date,
				From:      segment.From,
				To:        segment.To,
				Mode:      segment.Mode,
			}

			switch {
			case segment.Mode.IsOwnVehicle():
				if !isDriver || !segment.Kilometers.IsPositive() {
					continue
				}
				entry.Kilometers = segment.Kilometers
				entry.Rate = rate
				entry.Amount = segment.Kilometers.Mul(rate)
			case segment.Mode == report.TransportPublic:
				cost, _ := segment.CostFor(memberID)
				entry.Amount = cost
			default:
				continue
			}

			entries = append(entries, entry)
		}
	}
	return entries
}

// TransportCost is the unrounded sum of a member's transport entries.
func TransportCost(r *report.Report, tariff *report.TariffTable, memberID string) decimal.Decimal {
	total := decimal.Zero
	for _, e := range TransportEntries(r, tariff, memberID) {
		total = total.Add(e.Amount)
	}
	return total
}

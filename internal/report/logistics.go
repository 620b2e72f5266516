package report

import (
	"github.com/shopspring/decimal"
)

type TransportMode string

const (
	TransportOwnVehicle           TransportMode = "own_vehicle"
	TransportOwnVehicleSubsidized TransportMode = "own_vehicle_subsidized"
	TransportPublic               TransportMode = "public_transport"
	TransportWalking              TransportMode = "walking"
	TransportBicycle              TransportMode = "bicycle"
)

func (m TransportMode) IsOwnVehicle() bool {
	return m == TransportOwnVehicle || m == TransportOwnVehicleSubsidized
}

func (m TransportMode) IsValid() bool {
	switch m {
	case TransportOwnVehicle, TransportOwnVehicleSubsidized, TransportPublic, TransportWalking, TransportBicycle:
		return true
	}
	return false
}

// TravelGroup is a set of members travelling together, optionally in one car.
type TravelGroup struct {
	ID           string          `json:"id"`
	Participants []string        `json:"participants"`
	DriverID     string          `json:"driver_id,omitempty"`
	LicensePlate string          `json:"license_plate,omitempty"`
	Segments     []TravelSegment `json:"segments"`
}

func (g *TravelGroup) HasParticipant(memberID string) bool {
	for _, p := range g.Participants {
		if p == memberID {
			return true
		}
	}
	return false
}

func (g *TravelGroup) HasOwnVehicleSegment() bool {
	for _, s := range g.Segments {
		if s.Mode.IsOwnVehicle() {
			return true
		}
	}
	return false
}

// TravelSegment is a single same-day leg. Date is YYYY-MM-DD, times are zero-padded HH:MM.
type TravelSegment struct {
	ID          string                     `json:"id"`
	Date        string                     `json:"date"`
	Departure   string                     `json:"departure"`
	Arrival     string                     `json:"arrival"`
	From        string                     `json:"from"`
	To          string                     `json:"to"`
	Mode        TransportMode              `json:"mode"`
	Kilometers  decimal.Decimal            `json:"kilometers"`
	Costs       map[string]decimal.Decimal `json:"costs,omitempty"`
	Attachments []string                   `json:"attachments,omitempty"`
}

func (s *TravelSegment) HasTimes() bool {
	return s.Departure != "" && s.Arrival != ""
}

// CostFor returns the recorded public transport cost for a member and whether one exists.
func (s *TravelSegment) CostFor(memberID string) (decimal.Decimal, bool) {
	if s.Costs == nil {
		return decimal.Zero, false
	}
	c, ok := s.Costs[memberID]
	return c, ok
}

type Accommodation struct {
	ID          string          `json:"id"`
	Facility    string          `json:"facility"`
	Place       string          `json:"place"`
	Date        string          `json:"date"`
	Amount      decimal.Decimal `json:"amount"`
	PaidBy      string          `json:"paid_by"`
	Attachments []string        `json:"attachments,omitempty"`
}

type AdditionalExpense struct {
	ID          string          `json:"id"`
	Description string          `json:"description"`
	Date        string          `json:"date"`
	Amount      decimal.Decimal `json:"amount"`
	PaidBy      string          `json:"paid_by"`
	Attachments []string        `json:"attachments,omitempty"`
}

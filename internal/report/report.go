package report

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

type OrderType string

const (
	OrderTypeRenewal      OrderType = "renewal"
	OrderTypeMaintenance  OrderType = "maintenance"
	OrderTypeConstruction OrderType = "construction"
	OrderTypeOther        OrderType = "other"
)

// Report is the form state of a single expense/activity report filed against a work order.
type Report struct {
	ID              string       `json:"id"`
	OrderID         string       `json:"order_id"`
	OrderType       OrderType    `json:"order_type"`
	EffectiveDate   string       `json:"effective_date,omitempty"`
	PrimaryDriverID string       `json:"primary_driver_id,omitempty"`
	TeamMembers     []TeamMember `json:"team_members"`
	Logistics       Logistics    `json:"logistics"`
	WorkOutput      WorkOutput   `json:"work_output"`
	State           State        `json:"state"`
}

// TeamMember is derived from the work order metadata.
type TeamMember struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	IsLeader bool   `json:"is_leader"`
}

type Logistics struct {
	TravelGroups   []TravelGroup       `json:"travel_groups"`
	Accommodations []Accommodation     `json:"accommodations"`
	Expenses       []AdditionalExpense `json:"expenses"`
}

func (r *Report) Member(id string) (TeamMember, bool) {
	for _, m := range r.TeamMembers {
		if m.ID == id {
			return m, true
		}
	}
	return TeamMember{}, false
}

func (r *Report) MemberIDs() []string {
	ids := make([]string, 0, len(r.TeamMembers))
	for _, m := range r.TeamMembers {
		ids = append(ids, m.ID)
	}
	return ids
}

func (r *Report) IsPrimaryDriver(memberID string) bool {
	return r.PrimaryDriverID != "" && r.PrimaryDriverID == memberID
}

// NewID returns a fresh identifier for a report entity.
func NewID() string {
	return uuid.NewString()
}

// Clone returns a deep copy that shares no slices or maps with r.
func (r *Report) Clone() (*Report, error) {
	data, err := json.Marshal(r)
	if err != nil {
		return nil, fmt.Errorf("failed to copy report: %w", err)
	}
	var clone Report
	if err := json.Unmarshal(data, &clone); err != nil {
		return nil, fmt.Errorf("failed to copy report: %w", err)
	}
	return &clone, nil
}

// Fingerprint serializes the form data, ignoring State, so two reports with the
// same content compare equal byte for byte.
func (r *Report) Fingerprint() ([]byte, error) {
	form := *r
	form.State = ""
	return json.Marshal(&form)
}

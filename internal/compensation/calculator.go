package compensation

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/frahmantamala/trail-report/internal/report"
)

// Input is everything the calculator needs; it is never mutated.
type Input struct {
	Report         *report.Report
	Tariff         *report.TariffTable
	Qualifications QualificationSnapshot
	Now            time.Time
}

// ItemEntry is a reimbursed accommodation or expense line.
type ItemEntry struct {
	ID          string          `json:"id"`
	Date        string          `json:"date"`
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
}

// Result is the monetary compensation of one member.
type Result struct {
	MemberID           string           `json:"member_id"`
	Qualified          bool             `json:"qualified"`
	Transport          []TransportEntry `json:"transport"`
	TransportTotal     decimal.Decimal  `json:"transport_total"`
	MealAllowance      decimal.Decimal  `json:"meal_allowance"`
	WorkAllowance      decimal.Decimal  `json:"work_allowance"`
	Accommodations     []ItemEntry      `json:"accommodations"`
	AccommodationTotal decimal.Decimal  `json:"accommodation_total"`
	Expenses           []ItemEntry      `json:"expenses"`
	ExpenseTotal       decimal.Decimal  `json:"expense_total"`
	WorkDays           []WorkDay        `json:"work_days"`
	TotalHours         float64          `json:"total_hours"`
	GrandTotal         decimal.Decimal  `json:"grand_total"`
}

func round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// Calculate computes the compensation of memberID. It returns nil when no
// tariff table is available. Every subtotal is rounded to two decimals on its
// own before it is added to the grand total.
func Calculate(in Input, memberID string) *Result {
	if in.Tariff == nil || in.Report == nil {
		return nil
	}
	now := in.Now
	if now.IsZero() {
		now = time.Now()
	}

	res := &Result{
		MemberID:       memberID,
		Qualified:      NewGate(in.Qualifications).Allows(memberID),
		Transport:      []TransportEntry{},
		Accommodations: []ItemEntry{},
		Expenses:       []ItemEntry{},
	}

	transportTotal := decimal.Zero
	for _, entry := range TransportEntries(in.Report, in.Tariff, memberID) {
		entry.Amount = round2(entry.Amount)
		transportTotal = transportTotal.Add(entry.Amount)
		res.Transport = append(res.Transport, entry)
	}
	res.TransportTotal = round2(transportTotal)

	res.WorkDays = WorkDays(in.Report.Logistics.TravelGroups, memberID, now)
	res.TotalHours = TotalHours(res.WorkDays)

	res.MealAllowance = decimal.Zero
	res.WorkAllowance = decimal.Zero
	if res.Qualified {
		if row := ResolveTariff(res.TotalHours, in.Tariff.MealAllowances); row != nil {
			res.MealAllowance = round2(row.Amount)
		}
		if row := ResolveTariff(res.TotalHours, in.Tariff.WorkAllowances); row != nil {
			res.WorkAllowance = round2(row.Amount)
		}
	}

	accommodationTotal := decimal.Zero
	for _, a := range in.Report.Logistics.Accommodations {
		if a.PaidBy != memberID {
			continue
		}
		amount := round2(a.Amount)
		accommodationTotal = accommodationTotal.Add(amount)
		res.Accommodations = append(res.Accommodations, ItemEntry{
			ID:          a.ID,
			Date:        a.Date,
			Description: a.Facility,
			Amount:      amount,
		})
	}
	res.AccommodationTotal = round2(accommodationTotal)

	expenseTotal := decimal.Zero
	for _, e := range in.Report.Logistics.Expenses {
		if e.PaidBy != memberID {
			continue
		}
		amount := round2(e.Amount)
		expenseTotal = expenseTotal.Add(amount)
		res.Expenses = append(res.Expenses, ItemEntry{
			ID:          e.ID,
			Date:        e.Date,
			Description: e.Description,
			Amount:      amount,
		})
	}
	res.ExpenseTotal = round2(expenseTotal)

	res.GrandTotal = round2(res.TransportTotal.
		Add(res.MealAllowance).
		Add(res.WorkAllowance).
		Add(res.AccommodationTotal).
		Add(res.ExpenseTotal))

	return res
}

// CalculateReport runs Calculate for every team member, indexed by member id.
func CalculateReport(in Input) map[string]*Result {
	if in.Tariff == nil || in.Report == nil {
		return nil
	}
	results := make(map[string]*Result, len(in.Report.TeamMembers))
	for _, member := range in.Report.TeamMembers {
		results[member.ID] = Calculate(in, member.ID)
	}
	return results
}

package compensation_test

import (
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/shopspring/decimal"

	"github.com/frahmantamala/trail-report/internal/compensation"
	"github.com/frahmantamala/trail-report/internal/report"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func testTariff() *report.TariffTable {
	return &report.TariffTable{
		EffectiveFrom:            "2024-01-01",
		OwnVehicleRate:           dec("6.00"),
		OwnVehicleSubsidizedRate: dec("3.00"),
		MealAllowances: []report.TariffRow{
			{From: "00:00", To: "05:59", Amount: dec("0")},
			{From: "06:00", To: "09:59", Amount: dec("80.00")},
			{From: "10:00", To: "23:59", Amount: dec("160.00")},
		},
		WorkAllowances: []report.TariffRow{
			{From: "00:00", To: "03:59", Amount: dec("0")},
			{From: "04:00", To: "07:59", Amount: dec("150.00")},
			{From: "08:00", To: "23:59", Amount: dec("300.00")},
		},
	}
}

func testReport() *report.Report {
	return &report.Report{
		ID:        "report-1",
		OrderID:   "order-1",
		OrderType: report.OrderTypeMaintenance,
		TeamMembers: []report.TeamMember{
			{ID: "anna", Name: "Anna", IsLeader: true},
			{ID: "ben", Name: "Ben"},
		},
		Logistics: report.Logistics{
			TravelGroups: []report.TravelGroup{{
				ID:           "group-1",
				Participants: []string{"anna", "ben"},
				DriverID:     "anna",
				LicensePlate: "AB 123",
				Segments: []report.TravelSegment{
					{ID: "s1", Date: "2025-05-12", Departure: "08:00", Arrival: "11:00", From: "Base", To: "Trail", Mode: report.TransportOwnVehicle, Kilometers: dec("60")},
					{ID: "s2", Date: "2025-05-12", Departure: "14:00", Arrival: "17:00", From: "Trail", To: "Base", Mode: report.TransportOwnVehicle, Kilometers: dec("40")},
				},
			}},
		},
	}
}

var _ = Describe("Calculator", func() {
	var (
		now time.Time
		in  compensation.Input
	)

	BeforeEach(func() {
		now = time.Date(2025, 5, 20, 12, 0, 0, 0, time.UTC)
		in = compensation.Input{
			Report: testReport(),
			Tariff: testTariff(),
			Qualifications: compensation.QualificationSnapshot{
				"anna": {"AB", compensation.TrainedMarkerQualification},
				"ben":  {"AB"},
			},
			Now: now,
		}
	})

	Describe("Calculate", func() {
		It("pays the driver kilometers times the tariff rate", func() {
			res := compensation.Calculate(in, "anna")
			Expect(res).NotTo(BeNil())
			Expect(res.Transport).To(HaveLen(2))
			Expect(res.TransportTotal.StringFixed(2)).To(Equal("600.00"))
		})

		It("pays nothing for own-vehicle legs to passengers", func() {
			res := compensation.Calculate(in, "ben")
			Expect(res.Transport).To(BeEmpty())
			Expect(res.TransportTotal.IsZero()).To(BeTrue())
		})

		It("applies the subsidized rate to the primary driver", func() {
			in.Report.PrimaryDriverID = "anna"
			res := compensation.Calculate(in, "anna")
			Expect(res.TransportTotal.StringFixed(2)).To(Equal("300.00"))
		})

		It("counts the waiting time between trips as working time", func() {
			res := compensation.Calculate(in, "anna")
			Expect(res.WorkDays).To(HaveLen(1))
			Expect(res.WorkDays[0].Start).To(Equal("08:00"))
			Expect(res.WorkDays[0].End).To(Equal("17:00"))
			Expect(res.TotalHours).To(BeNumerically("~", 9.0, 0.001))
		})

		It("grants allowances only to trained markers", func() {
			anna := compensation.Calculate(in, "anna")
			Expect(anna.Qualified).To(BeTrue())
			Expect(anna.MealAllowance.StringFixed(2)).To(Equal("80.00"))
			Expect(anna.WorkAllowance.StringFixed(2)).To(Equal("300.00"))

			ben := compensation.Calculate(in, "ben")
			Expect(ben.Qualified).To(BeFalse())
			Expect(ben.MealAllowance.IsZero()).To(BeTrue())
			Expect(ben.WorkAllowance.IsZero()).To(BeTrue())
		})

		It("includes public transport costs of the member", func() {
			in.Report.Logistics.TravelGroups = append(in.Report.Logistics.TravelGroups, report.TravelGroup{
				ID:           "group-2",
				Participants: []string{"ben"},
				Segments: []report.TravelSegment{{
					ID: "s3", Date: "2025-05-13", Departure: "07:00", Arrival: "08:30",
					Mode:  report.TransportPublic,
					Costs: map[string]decimal.Decimal{"ben": dec("12.345")},
				}},
			})
			res := compensation.Calculate(in, "ben")
			Expect(res.Transport).To(HaveLen(1))
			Expect(res.TransportTotal.StringFixed(2)).To(Equal("12.35"))
		})

		It("pays nothing for walking and bicycle legs", func() {
			group := &in.Report.Logistics.TravelGroups[0]
			group.Segments = append(group.Segments,
				report.TravelSegment{ID: "s3", Date: "2025-05-12", Departure: "11:15", Arrival: "12:00", From: "Trail", To: "Hut", Mode: report.TransportWalking, Kilometers: dec("4")},
				report.TravelSegment{ID: "s4", Date: "2025-05-12", Departure: "12:30", Arrival: "13:30", From: "Hut", To: "Trail", Mode: report.TransportBicycle, Kilometers: dec("15")},
			)

			anna := compensation.Calculate(in, "anna")
			Expect(anna.Transport).To(HaveLen(2))
			for _, entry := range anna.Transport {
				Expect(entry.Mode.IsOwnVehicle()).To(BeTrue())
			}
			Expect(anna.TransportTotal.StringFixed(2)).To(Equal("600.00"))

			ben := compensation.Calculate(in, "ben")
			Expect(ben.Transport).To(BeEmpty())
			Expect(ben.TransportTotal.IsZero()).To(BeTrue())
		})

		It("adds nothing for a public transport leg without a cost entry for the member", func() {
			group := &in.Report.Logistics.TravelGroups[0]
			group.Segments = append(group.Segments, report.TravelSegment{
				ID: "s3", Date: "2025-05-12", Departure: "11:30", Arrival: "12:00", From: "Trail", To: "Village",
				Mode:  report.TransportPublic,
				Costs: map[string]decimal.Decimal{"ben": dec("10.56")},
			})

			anna := compensation.Calculate(in, "anna")
			Expect(anna.TransportTotal.StringFixed(2)).To(Equal("600.00"))
			Expect(compensation.TransportCost(in.Report, in.Tariff, "anna").StringFixed(2)).To(Equal("600.00"))

			ben := compensation.Calculate(in, "ben")
			Expect(ben.TransportTotal.StringFixed(2)).To(Equal("10.56"))
		})

		It("reimburses accommodation and expenses to the member who paid", func() {
			in.Report.Logistics.Accommodations = []report.Accommodation{
				{ID: "a1", Facility: "Hut", Date: "2025-05-12", Amount: dec("45.50"), PaidBy: "ben"},
			}
			in.Report.Logistics.Expenses = []report.AdditionalExpense{
				{ID: "e1", Description: "Paint", Date: "2025-05-12", Amount: dec("19.99"), PaidBy: "ben"},
				{ID: "e2", Description: "Brushes", Date: "2025-05-12", Amount: dec("5.00"), PaidBy: "anna"},
			}

			ben := compensation.Calculate(in, "ben")
			Expect(ben.AccommodationTotal.StringFixed(2)).To(Equal("45.50"))
			Expect(ben.ExpenseTotal.StringFixed(2)).To(Equal("19.99"))
			Expect(ben.GrandTotal.StringFixed(2)).To(Equal("65.49"))
		})

		It("keeps the grand total equal to the sum of its parts", func() {
			in.Report.Logistics.Expenses = []report.AdditionalExpense{
				{ID: "e1", Description: "Paint", Date: "2025-05-12", Amount: dec("10.005"), PaidBy: "anna"},
			}
			res := compensation.Calculate(in, "anna")
			sum := res.TransportTotal.Add(res.MealAllowance).Add(res.WorkAllowance).
				Add(res.AccommodationTotal).Add(res.ExpenseTotal)
			Expect(res.GrandTotal.Equal(sum)).To(BeTrue())
		})

		It("returns nil without a tariff table", func() {
			in.Tariff = nil
			Expect(compensation.Calculate(in, "anna")).To(BeNil())
			Expect(compensation.CalculateReport(in)).To(BeNil())
		})

		It("does not modify the input report", func() {
			before, err := in.Report.Fingerprint()
			Expect(err).NotTo(HaveOccurred())
			compensation.CalculateReport(in)
			after, err := in.Report.Fingerprint()
			Expect(err).NotTo(HaveOccurred())
			Expect(after).To(Equal(before))
		})
	})

	Describe("CalculateReport", func() {
		It("indexes a result for every team member", func() {
			results := compensation.CalculateReport(in)
			Expect(results).To(HaveLen(2))
			Expect(results).To(HaveKey("anna"))
			Expect(results).To(HaveKey("ben"))
		})
	})

	Describe("WorkDays", func() {
		It("skips segments with malformed times", func() {
			groups := []report.TravelGroup{{
				Participants: []string{"anna"},
				Segments: []report.TravelSegment{
					{Date: "2025-05-12", Departure: "8 am", Arrival: "11:00"},
					{Date: "2025-05-12", Departure: "09:00", Arrival: "10:30"},
				},
			}}
			days := compensation.WorkDays(groups, "anna", now)
			Expect(days).To(HaveLen(1))
			Expect(days[0].Hours).To(BeNumerically("~", 1.5, 0.001))
		})

		It("buckets undated segments on the current day and sorts days", func() {
			groups := []report.TravelGroup{{
				Participants: []string{"anna"},
				Segments: []report.TravelSegment{
					{Departure: "09:00", Arrival: "10:00"},
					{Date: "2025-05-01", Departure: "09:00", Arrival: "12:00"},
				},
			}}
			days := compensation.WorkDays(groups, "anna", now)
			Expect(days).To(HaveLen(2))
			Expect(days[0].Date).To(Equal("2025-05-01"))
			Expect(days[1].Date).To(Equal("2025-05-20"))
		})
	})

	Describe("ResolveTariff", func() {
		rows := []report.TariffRow{
			{From: "00:00", To: "05:59", Amount: dec("0")},
			{From: "06:00", To: "09:59", Amount: dec("80")},
		}

		It("matches inclusive bounds", func() {
			Expect(compensation.ResolveTariff(6.0, rows).Amount.String()).To(Equal("80"))
			Expect(compensation.ResolveTariff(9.0+59.0/60, rows).Amount.String()).To(Equal("80"))
		})

		It("returns nil outside every row", func() {
			Expect(compensation.ResolveTariff(12, rows)).To(BeNil())
		})
	})

	Describe("FormatHours", func() {
		It("renders fractional hours as HH:MM", func() {
			Expect(compensation.FormatHours(9.5)).To(Equal("09:30"))
			Expect(compensation.FormatHours(0)).To(Equal("00:00"))
		})
	})
})

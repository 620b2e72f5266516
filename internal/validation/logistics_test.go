package validation_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/shopspring/decimal"

	"github.com/frahmantamala/trail-report/internal/report"
	"github.com/frahmantamala/trail-report/internal/validation"
)

func completeReport() *report.Report {
	return &report.Report{
		ID:        "report-1",
		OrderType: report.OrderTypeMaintenance,
		TeamMembers: []report.TeamMember{
			{ID: "anna", Name: "Anna"},
			{ID: "ben", Name: "Ben"},
		},
		Logistics: report.Logistics{
			TravelGroups: []report.TravelGroup{{
				ID:           "g1",
				Participants: []string{"anna", "ben"},
				DriverID:     "anna",
				LicensePlate: "AB 123",
				Segments: []report.TravelSegment{
					{ID: "s1", Date: "2025-05-12", Departure: "08:00", Arrival: "09:00", From: "Base", To: "Trail", Mode: report.TransportOwnVehicle, Kilometers: decimal.NewFromInt(30)},
					{ID: "s2", Date: "2025-05-12", Departure: "16:00", Arrival: "17:00", From: "Trail", To: "Base", Mode: report.TransportOwnVehicle, Kilometers: decimal.NewFromInt(30)},
				},
			}},
		},
		WorkOutput: report.WorkOutput{
			Description: "Cleared fallen trees along the ridge path",
			Attachments: []string{"photo-1.jpg"},
		},
	}
}

var _ = Describe("ValidateLogistics", func() {
	var r *report.Report

	BeforeEach(func() {
		r = completeReport()
	})

	It("accepts a complete report", func() {
		res := validation.ValidateLogistics(r)
		Expect(res.Errors).To(BeEmpty())
		Expect(res.Warnings).To(BeEmpty())
		Expect(res.CanComplete()).To(BeTrue())
	})

	It("requires at least one trip", func() {
		r.Logistics.TravelGroups = nil
		res := validation.ValidateLogistics(r)
		Expect(codes(res.Errors)).To(ConsistOf(validation.CodeNoTrips))
	})

	It("requires a driver and a plate for own-vehicle groups", func() {
		r.Logistics.TravelGroups[0].DriverID = ""
		r.Logistics.TravelGroups[0].LicensePlate = " "
		res := validation.ValidateLogistics(r)
		Expect(codes(res.Errors)).To(ConsistOf(validation.CodeVehicleWithoutDriver, validation.CodeVehicleWithoutPlate))
		Expect(res.Errors[0].EntityID).To(Equal("g1"))
	})

	It("rejects a driver who does not travel with the group", func() {
		r.Logistics.TravelGroups[0].DriverID = "carl"
		res := validation.ValidateLogistics(r)
		Expect(codes(res.Errors)).To(ContainElement(validation.CodeDriverNotParticipant))
	})

	It("collects every segment problem instead of stopping at the first", func() {
		s := &r.Logistics.TravelGroups[0].Segments[0]
		s.From = ""
		s.Departure = "25h"
		s.Kilometers = decimal.Zero

		res := validation.ValidateLogistics(r)
		Expect(codes(res.Errors)).To(ContainElements(
			validation.CodeSegmentMissingPlaces,
			validation.CodeSegmentMissingTimes,
			validation.CodeInvalidKilometers,
		))
		Expect(res.Errors[0].Field).To(HavePrefix("logistics.travel_groups[0].segments[0]"))
	})

	It("treats an invalid date as missing and does not count the trip", func() {
		r.Logistics.TravelGroups[0].Segments[0].Date = "12.05.2025"
		res := validation.ValidateLogistics(r)
		Expect(codes(res.Errors)).To(ConsistOf(validation.CodeSegmentMissingDate, validation.CodeTooFewTrips, validation.CodeTooFewTrips))
	})

	It("rejects unknown transport modes", func() {
		r.Logistics.TravelGroups[0].Segments[1].Mode = "helicopter"
		res := validation.ValidateLogistics(r)
		Expect(codes(res.Errors)).To(ConsistOf(validation.CodeSegmentInvalidMode))
	})

	It("requires two trips per participant and day", func() {
		r.Logistics.TravelGroups[0].Segments = r.Logistics.TravelGroups[0].Segments[:1]
		res := validation.ValidateLogistics(r)
		Expect(codes(res.Errors)).To(Equal([]validation.Code{validation.CodeTooFewTrips, validation.CodeTooFewTrips}))
		Expect(res.Errors[0].EntityID).To(Equal("anna"))
		Expect(res.Errors[0].Message).To(ContainSubstring("Anna"))
		Expect(res.Errors[1].EntityID).To(Equal("ben"))
	})

	Context("public transport", func() {
		BeforeEach(func() {
			group := &r.Logistics.TravelGroups[0]
			group.DriverID = ""
			group.LicensePlate = ""
			for i := range group.Segments {
				group.Segments[i].Mode = report.TransportPublic
				group.Segments[i].Kilometers = decimal.Zero
			}
		})

		It("warns about members without a ticket cost", func() {
			res := validation.ValidateLogistics(r)
			Expect(res.CanComplete()).To(BeTrue())
			Expect(codes(res.Warnings)).To(ConsistOf(validation.CodeTransportCostMissing, validation.CodeTransportCostMissing))
			Expect(res.Warnings[0].Message).To(ContainSubstring("Anna, Ben"))
		})

		It("warns about zero costs and missing receipts", func() {
			for i := range r.Logistics.TravelGroups[0].Segments {
				r.Logistics.TravelGroups[0].Segments[i].Costs = map[string]decimal.Decimal{
					"anna": decimal.NewFromInt(4),
					"ben":  decimal.Zero,
				}
			}
			r.Logistics.TravelGroups[0].Segments[1].Attachments = []string{"ticket.pdf"}

			res := validation.ValidateLogistics(r)
			Expect(res.Errors).To(BeEmpty())
			Expect(codes(res.Warnings)).To(ConsistOf(
				validation.CodeTransportCostZero,
				validation.CodeTransportReceiptMissing,
				validation.CodeTransportCostZero,
			))
		})
	})

	It("checks accommodation and expense entries", func() {
		r.Logistics.Accommodations = []report.Accommodation{
			{ID: "a1", Facility: "Hut", Place: "", Date: "", Amount: decimal.Zero},
		}
		r.Logistics.Expenses = []report.AdditionalExpense{
			{ID: "e1", Description: "Paint", Date: "2025-05-12", Amount: decimal.NewFromInt(-3), Attachments: []string{"r.pdf"}},
		}

		res := validation.ValidateLogistics(r)
		Expect(codes(res.Errors)).To(ConsistOf(
			validation.CodeMissingDate,
			validation.CodeMissingDescription,
			validation.CodeInvalidAmount,
			validation.CodeInvalidAmount,
		))
		Expect(codes(res.Warnings)).To(ConsistOf(validation.CodeReceiptMissing))
	})
})

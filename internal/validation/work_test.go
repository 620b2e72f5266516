package validation_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/frahmantamala/trail-report/internal/report"
	"github.com/frahmantamala/trail-report/internal/validation"
	"github.com/frahmantamala/trail-report/pkg/logger"
)

var _ = Describe("ValidateWorkOutput", func() {
	var r *report.Report

	BeforeEach(func() {
		r = completeReport()
	})

	Context("maintenance orders", func() {
		It("requires a description", func() {
			r.WorkOutput.Description = "   "
			res := validation.ValidateWorkOutput(r)
			Expect(codes(res.Errors)).To(ConsistOf(validation.CodeWorkDescriptionMissing))
		})

		It("only warns about short descriptions and missing photos", func() {
			r.WorkOutput.Description = "Mowed"
			r.WorkOutput.Attachments = nil
			res := validation.ValidateWorkOutput(r)
			Expect(res.CanComplete()).To(BeTrue())
			Expect(codes(res.Warnings)).To(ConsistOf(validation.CodeWorkDescriptionShort, validation.CodeWorkAttachmentMissing))
		})

		It("counts characters, not bytes", func() {
			r.WorkOutput.Description = "Čistění ok"
			res := validation.ValidateWorkOutput(r)
			Expect(res.Warnings).To(BeEmpty())
		})
	})

	Context("renewal orders", func() {
		BeforeEach(func() {
			r.OrderType = report.OrderTypeRenewal
			r.WorkOutput = report.WorkOutput{}
		})

		It("ignores description and attachments", func() {
			res := validation.ValidateWorkOutput(r)
			Expect(res.Errors).To(BeEmpty())
			Expect(res.Warnings).To(BeEmpty())
		})

		It("requires the condition of every marker", func() {
			r.WorkOutput.Markers = []report.MarkerItem{
				{ID: "m1", InventoryID: "TIM-1", Kind: report.MarkerSign},
				{ID: "m2", InventoryID: "TIM-2", Kind: report.MarkerSign, Condition: report.ConditionGood},
			}
			res := validation.ValidateWorkOutput(r)
			Expect(codes(res.Errors)).To(ConsistOf(validation.CodeMarkerConditionMissing))
			Expect(res.Errors[0].EntityID).To(Equal("m1"))
			Expect(res.Errors[0].Message).To(ContainSubstring("TIM-1"))
		})

		It("requires a manufacture year for replaced markers except sponsor plaques", func() {
			r.WorkOutput.Markers = []report.MarkerItem{
				{ID: "m1", Kind: report.MarkerSign, Condition: report.ConditionDamaged},
				{ID: "m2", Kind: report.MarkerSponsorPlaque, Condition: report.ConditionMissing},
				{ID: "m3", Kind: report.MarkerPost, Condition: report.ConditionMissing, ManufactureYear: 2024},
			}
			res := validation.ValidateWorkOutput(r)
			Expect(codes(res.Errors)).To(ConsistOf(validation.CodeMarkerYearMissing))
			Expect(res.Errors[0].EntityID).To(Equal("m1"))
		})

		It("requires an orientation for replaced arrows", func() {
			r.WorkOutput.Markers = []report.MarkerItem{
				{ID: "m1", Kind: report.MarkerArrow, Condition: report.ConditionDamaged, ManufactureYear: 2025},
				{ID: "m2", Kind: report.MarkerArrow, Condition: report.ConditionGood},
			}
			res := validation.ValidateWorkOutput(r)
			Expect(codes(res.Errors)).To(ConsistOf(validation.CodeMarkerOrientationMissing))
		})
	})
})

var _ = Describe("Validate", func() {
	It("lets warnings through but blocks on errors in either part", func() {
		r := completeReport()
		r.WorkOutput.Attachments = nil

		verdict := validation.Validate(r)
		Expect(verdict.CanComplete).To(BeTrue())
		Expect(verdict.WarningCount()).To(Equal(1))

		r.WorkOutput.Description = ""
		verdict = validation.Validate(r)
		Expect(verdict.CanComplete).To(BeFalse())
		Expect(verdict.ErrorCount()).To(Equal(1))
	})

	It("should serve the verdict over HTTP", func() {
		handler := validation.NewHandler()
		handler.Logger = logger.Discard()

		body, err := json.Marshal(completeReport())
		Expect(err).NotTo(HaveOccurred())
		req := httptest.NewRequest(http.MethodPost, "/api/v1/validation", bytes.NewReader(body))
		w := httptest.NewRecorder()
		handler.Validate(w, req)

		Expect(w.Code).To(Equal(http.StatusOK))
		var verdict validation.Verdict
		Expect(json.NewDecoder(w.Body).Decode(&verdict)).To(Succeed())
		Expect(verdict.CanComplete).To(BeTrue())
	})
})

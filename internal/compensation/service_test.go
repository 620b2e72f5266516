package compensation_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/frahmantamala/trail-report/internal/compensation"
	"github.com/frahmantamala/trail-report/internal/directory"
	"github.com/frahmantamala/trail-report/internal/report"
	"github.com/frahmantamala/trail-report/pkg/logger"
)

type mockTariffDirectory struct {
	tariff    *report.TariffTable
	err       error
	requested time.Time
}

func (m *mockTariffDirectory) TariffFor(_ context.Context, on time.Time) (*report.TariffTable, error) {
	m.requested = on
	if m.err != nil {
		return nil, m.err
	}
	return m.tariff, nil
}

type mockQualificationDirectory struct {
	snapshot map[string][]string
	err      error
}

func (m *mockQualificationDirectory) Snapshot(_ context.Context, memberIDs []string) (map[string][]string, error) {
	if m.err != nil {
		return nil, m.err
	}
	out := make(map[string][]string, len(memberIDs))
	for _, id := range memberIDs {
		out[id] = m.snapshot[id]
	}
	return out, nil
}

var _ = Describe("Service", func() {
	var (
		tariffs        *mockTariffDirectory
		qualifications *mockQualificationDirectory
		service        *compensation.Service
	)

	BeforeEach(func() {
		tariffs = &mockTariffDirectory{tariff: testTariff()}
		qualifications = &mockQualificationDirectory{snapshot: map[string][]string{
			"anna": {compensation.TrainedMarkerQualification},
		}}
		service = compensation.NewService(tariffs, qualifications, logger.Discard())
	})

	It("looks the tariff up on the effective date of the report", func() {
		r := testReport()
		r.EffectiveDate = "2025-03-01"

		results, err := service.CalculateReport(context.Background(), r)
		Expect(err).NotTo(HaveOccurred())
		Expect(results).To(HaveLen(2))
		Expect(tariffs.requested.Format(report.DateLayout)).To(Equal("2025-03-01"))
		Expect(results["anna"].Qualified).To(BeTrue())
	})

	It("returns no result when no tariff is effective", func() {
		tariffs.err = directory.ErrTariffNotFound

		results, err := service.CalculateReport(context.Background(), testReport())
		Expect(err).NotTo(HaveOccurred())
		Expect(results).To(BeNil())
	})

	It("fails when the directory is unreachable", func() {
		qualifications.err = errors.New("connection refused")

		_, err := service.CalculateReport(context.Background(), testReport())
		Expect(err).To(MatchError(ContainSubstring("failed to load qualifications")))
	})
})

var _ = Describe("Handler", func() {
	var (
		tariffs *mockTariffDirectory
		handler *compensation.Handler
	)

	BeforeEach(func() {
		tariffs = &mockTariffDirectory{tariff: testTariff()}
		service := compensation.NewService(tariffs, &mockQualificationDirectory{}, logger.Discard())
		handler = compensation.NewHandler(service)
		handler.Logger = logger.Discard()
	})

	post := func(body []byte) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/compensation", bytes.NewReader(body))
		w := httptest.NewRecorder()
		handler.Calculate(w, req)
		return w
	}

	It("should return per-member results", func() {
		body, err := json.Marshal(testReport())
		Expect(err).NotTo(HaveOccurred())

		w := post(body)
		Expect(w.Code).To(Equal(http.StatusOK))

		var resp compensation.CalculationResponse
		Expect(json.NewDecoder(w.Body).Decode(&resp)).To(Succeed())
		Expect(resp.ReportID).To(Equal("report-1"))
		Expect(resp.Results["anna"].TransportTotal.StringFixed(2)).To(Equal("600.00"))
	})

	It("should answer 404 when no tariff applies", func() {
		tariffs.err = directory.ErrTariffNotFound
		body, _ := json.Marshal(testReport())

		w := post(body)
		Expect(w.Code).To(Equal(http.StatusNotFound))
		Expect(w.Body.String()).To(ContainSubstring("TARIFF_NOT_FOUND"))
	})

	It("should reject malformed bodies", func() {
		w := post([]byte(`{"id": 5`))
		Expect(w.Code).To(Equal(http.StatusBadRequest))
		Expect(w.Body.String()).To(ContainSubstring("MALFORMED_REQUEST"))
	})
})

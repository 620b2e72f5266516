package submission_test

import (
	"context"
	"errors"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/shopspring/decimal"

	"github.com/frahmantamala/trail-report/internal"
	"github.com/frahmantamala/trail-report/internal/backoffice"
	"github.com/frahmantamala/trail-report/internal/metrics"
	"github.com/frahmantamala/trail-report/internal/report"
	"github.com/frahmantamala/trail-report/internal/submission"
	"github.com/frahmantamala/trail-report/pkg/logger"
)

func completeReport() *report.Report {
	return &report.Report{
		ID:          "report-1",
		OrderID:     "order-1",
		OrderType:   report.OrderTypeMaintenance,
		TeamMembers: []report.TeamMember{{ID: "anna", Name: "Anna"}},
		Logistics: report.Logistics{
			TravelGroups: []report.TravelGroup{{
				ID:           "g1",
				Participants: []string{"anna"},
				DriverID:     "anna",
				LicensePlate: "AB 123",
				Segments: []report.TravelSegment{
					{ID: "s1", Date: "2025-05-12", Departure: "08:00", Arrival: "09:00", From: "Base", To: "Trail", Mode: report.TransportOwnVehicle, Kilometers: decimal.NewFromInt(30)},
					{ID: "s2", Date: "2025-05-12", Departure: "16:00", Arrival: "17:00", From: "Trail", To: "Base", Mode: report.TransportOwnVehicle, Kilometers: decimal.NewFromInt(30)},
				},
			}},
		},
		WorkOutput: report.WorkOutput{
			Description: "Repainted the blazes on the ridge path",
			Attachments: []string{"photo.jpg"},
		},
	}
}

var _ = Describe("Lifecycle", func() {
	var (
		office        *fakeBackOffice
		calculator    *fakeCalculator
		notifications *recorder
		config        submission.Config
		lifecycle     *submission.Lifecycle
		ctx           context.Context
	)

	open := func(r *report.Report) *submission.Lifecycle {
		l, err := submission.Open(r, submission.Dependencies{
			BackOffice: office,
			Calculator: calculator,
			Notifier:   notifications,
			Metrics:    metrics.NewRecorder(),
			Logger:     logger.Discard(),
		}, config)
		Expect(err).NotTo(HaveOccurred())
		return l
	}

	BeforeEach(func() {
		ctx = context.Background()
		office = &fakeBackOffice{}
		calculator = &fakeCalculator{}
		notifications = &recorder{}
		config = submission.Config{
			AutosaveDebounce: 30 * time.Millisecond,
			SubmitTimeout:    time.Second,
			Poll: submission.PollConfig{
				Interval:    10 * time.Millisecond,
				MaxAttempts: 20,
				Timeout:     2 * time.Second,
				MaxFailures: 3,
			},
		}
		lifecycle = open(completeReport())
	})

	AfterEach(func() {
		lifecycle.Close()
		lifecycle.Wait()
	})

	Describe("Open", func() {
		It("starts a clean draft without saving", func() {
			view := lifecycle.Snapshot()
			Expect(view.State).To(Equal(report.StateDraft))
			Expect(view.Dirty).To(BeFalse())
			Expect(view.Polling).To(BeFalse())
			Expect(office.savedStates()).To(BeEmpty())
		})

		It("rejects unknown states", func() {
			r := completeReport()
			r.State = "archived"
			_, err := submission.Open(r, submission.Dependencies{BackOffice: office}, config)
			Expect(err).To(HaveOccurred())
		})

		It("resumes polling for a report that is already sent", func() {
			office.setStatuses(report.StateApproved)
			r := completeReport()
			r.ID = "report-2"
			r.State = report.StateSend

			sent := open(r)
			defer sent.Close()
			Eventually(sent.State).Should(Equal(report.StateApproved))
		})

		It("does not share data with the caller", func() {
			r := completeReport()
			r.ID = "report-3"
			l := open(r)
			defer l.Close()

			r.WorkOutput.Description = "changed outside"
			Expect(l.Snapshot().Report.WorkOutput.Description).To(Equal("Repainted the blazes on the ridge path"))
		})
	})

	Describe("autosave", func() {
		It("saves a changed draft once the edits settle", func() {
			for _, text := range []string{"Repainted", "Repainted blazes", "Repainted all blazes"} {
				r := completeReport()
				r.WorkOutput.Description = text
				Expect(lifecycle.Update(r)).To(Succeed())
			}
			Expect(lifecycle.Snapshot().Dirty).To(BeTrue())

			Eventually(office.savedStates).Should(Equal([]report.State{report.StateDraft}))
			Consistently(office.savedStates, 100*time.Millisecond).Should(HaveLen(1))
			Expect(lifecycle.Snapshot().Dirty).To(BeFalse())
			Expect(notifications.last().Code).To(Equal(submission.CodeSaved))
			Expect(notifications.last().Silent).To(BeTrue())
		})

		It("does not save unchanged data", func() {
			Expect(lifecycle.Update(completeReport())).To(Succeed())
			Consistently(office.savedStates, 100*time.Millisecond).Should(BeEmpty())
		})

		It("keeps a failed autosave as the last error", func() {
			office.setSaveErr(backoffice.ErrUnavailable)
			r := completeReport()
			r.WorkOutput.Description = "Repainted every blaze"
			Expect(lifecycle.Update(r)).To(Succeed())

			Eventually(func() *internal.AppError { return lifecycle.Snapshot().LastError }).ShouldNot(BeNil())
			Expect(lifecycle.Snapshot().LastError.Code).To(Equal(internal.ErrCodeBackOfficeUnavailable))
			Expect(notifications.last().Kind).To(Equal(submission.KindError))
			Expect(notifications.last().Silent).To(BeFalse())
		})
	})

	Describe("SaveDraft", func() {
		It("reports when there is nothing to save", func() {
			Expect(lifecycle.SaveDraft(ctx)).To(Succeed())
			Expect(office.savedStates()).To(BeEmpty())
			Expect(notifications.last().Code).To(Equal(submission.CodeNothingToSave))
		})

		It("saves immediately and announces it", func() {
			r := completeReport()
			r.WorkOutput.Description = "Cleared the path of fallen trees"
			Expect(lifecycle.Update(r)).To(Succeed())
			Expect(lifecycle.SaveDraft(ctx)).To(Succeed())

			Expect(office.savedStates()).To(Equal([]report.State{report.StateDraft}))
			Expect(notifications.last().Code).To(Equal(submission.CodeSaved))
			Expect(notifications.last().Silent).To(BeFalse())
			Consistently(office.savedStates, 80*time.Millisecond).Should(HaveLen(1))
		})

		It("fails the save when compensation cannot be calculated", func() {
			calculator.err = errors.New("directory down")
			r := completeReport()
			r.WorkOutput.Description = "Cleared the path of fallen trees"
			Expect(lifecycle.Update(r)).To(Succeed())

			err := lifecycle.SaveDraft(ctx)
			Expect(err).To(HaveOccurred())
			Expect(office.savedStates()).To(BeEmpty())
			Expect(lifecycle.Snapshot().LastError.Code).To(Equal(internal.ErrorCode("INTERNAL_ERROR")))
		})
	})

	Describe("Submit", func() {
		It("refuses an incomplete report without contacting the back office", func() {
			r := completeReport()
			r.WorkOutput.Description = ""
			Expect(lifecycle.Update(r)).To(Succeed())

			err := lifecycle.Submit(ctx)
			Expect(errors.Is(err, internal.ErrReportIncomplete)).To(BeTrue())
			Expect(lifecycle.State()).To(Equal(report.StateDraft))
			Eventually(office.savedStates).Should(Equal([]report.State{report.StateDraft}))
		})

		It("sends the report and follows it to its verdict", func() {
			office.setStatuses(report.StateSend, report.StateSubmitted)

			Expect(lifecycle.Submit(ctx)).To(Succeed())
			Expect(office.savedStates()).To(Equal([]report.State{report.StateSend}))
			Expect(lifecycle.State()).To(Equal(report.StateSend))

			Eventually(lifecycle.State).Should(Equal(report.StateSubmitted))
			Eventually(func() bool { return lifecycle.Snapshot().Polling }).Should(BeFalse())

			codes := notifications.codes()
			Expect(codes).To(ContainElements(submission.CodeSubmitted, submission.CodeStateChanged))
			Expect(notifications.last().Kind).To(Equal(submission.KindSuccess))
		})

		It("announces a rejection with the office's message", func() {
			office.setStatuses(report.StateRejected)
			Expect(lifecycle.Submit(ctx)).To(Succeed())

			Eventually(lifecycle.State).Should(Equal(report.StateRejected))
			Expect(notifications.last().Kind).To(Equal(submission.KindWarning))
			Expect(notifications.last().Message).To(ContainSubstring("Missing receipts"))
		})

		It("rolls back to draft on a conflict and allows another attempt", func() {
			office.setSaveErr(backoffice.ErrAlreadySubmitted)

			err := lifecycle.Submit(ctx)
			Expect(errors.Is(err, backoffice.ErrAlreadySubmitted)).To(BeTrue())
			Expect(lifecycle.State()).To(Equal(report.StateDraft))

			view := lifecycle.Snapshot()
			Expect(view.LastError.Code).To(Equal(internal.ErrCodeAlreadySubmitted))
			Expect(view.Busy).To(BeFalse())
			Expect(notifications.last().Kind).To(Equal(submission.KindInfo))

			office.setSaveErr(nil)
			Expect(lifecycle.Submit(ctx)).To(Succeed())
			Expect(lifecycle.Snapshot().LastError).To(BeNil())
		})

		It("rolls back silently so only the failure is shown", func() {
			office.setSaveErr(backoffice.ErrUnprocessable)
			Expect(lifecycle.Submit(ctx)).NotTo(Succeed())

			visible := notifications.visible()
			Expect(visible).To(HaveLen(1))
			Expect(visible[0].Code).To(Equal(string(internal.ErrCodeUnprocessableReport)))
		})

		It("treats a back office that never answers as a timeout", func() {
			config.SubmitTimeout = 50 * time.Millisecond
			r := completeReport()
			r.ID = "report-slow"
			slow := open(r)
			defer slow.Close()

			office.saveBlock = make(chan struct{})
			defer close(office.saveBlock)

			err := slow.Submit(ctx)
			Expect(errors.Is(err, backoffice.ErrSubmissionTimeout)).To(BeTrue())
			Expect(slow.State()).To(Equal(report.StateDraft))
		})

		It("finishes the submission when the caller goes away", func() {
			office.saveBlock = make(chan struct{})
			callerCtx, cancelCaller := context.WithCancel(ctx)
			done := make(chan error, 1)
			go func() {
				defer GinkgoRecover()
				done <- lifecycle.Submit(callerCtx)
			}()

			Eventually(func() bool { return lifecycle.Snapshot().Busy }).Should(BeTrue())
			cancelCaller()
			Consistently(done, 50*time.Millisecond).ShouldNot(Receive())

			close(office.saveBlock)
			Eventually(done).Should(Receive(BeNil()))
			Expect(office.savedStates()).To(Equal([]report.State{report.StateSend}))
			Expect(lifecycle.State()).To(Equal(report.StateSend))
		})

		It("blocks edits and further submissions while one is in flight", func() {
			office.saveBlock = make(chan struct{})
			done := make(chan error, 1)
			go func() {
				defer GinkgoRecover()
				done <- lifecycle.Submit(ctx)
			}()

			Eventually(func() bool { return lifecycle.Snapshot().Busy }).Should(BeTrue())
			Expect(lifecycle.State()).To(Equal(report.StateSend))
			Expect(errors.Is(lifecycle.Submit(ctx), internal.ErrInProgress)).To(BeTrue())
			Expect(lifecycle.Update(completeReport())).To(MatchError(submission.ErrNotEditable))

			close(office.saveBlock)
			Eventually(done).Should(Receive(BeNil()))
			Expect(lifecycle.Snapshot().Busy).To(BeFalse())
		})

		It("refuses to submit a report that is not a draft", func() {
			office.setStatuses(report.StateSend)
			Expect(lifecycle.Submit(ctx)).To(Succeed())
			Expect(errors.Is(lifecycle.Submit(ctx), internal.ErrInvalidState)).To(BeTrue())
		})
	})

	Describe("polling", func() {
		It("stops on a status it does not recognize", func() {
			office.setStatuses("archived")
			Expect(lifecycle.Submit(ctx)).To(Succeed())

			Eventually(notifications.codes).Should(ContainElement(submission.CodeStatusUnrecognized))
			Eventually(func() bool { return lifecycle.Snapshot().Polling }).Should(BeFalse())
			Expect(lifecycle.State()).To(Equal(report.StateSend))
		})

		It("asks the user to verify after repeated failures", func() {
			Expect(lifecycle.Submit(ctx)).To(Succeed())
			office.mu.Lock()
			office.statusErr = backoffice.ErrUnavailable
			office.mu.Unlock()

			Eventually(notifications.codes).Should(ContainElement(submission.CodeStatusUnverified))
			Expect(office.pollCount()).To(BeNumerically(">=", config.Poll.MaxFailures))
		})

		It("reports a pending decision after the attempt cap", func() {
			config.Poll.MaxAttempts = 3
			r := completeReport()
			r.ID = "report-capped"
			capped := open(r)
			defer capped.Close()

			Expect(capped.Submit(ctx)).To(Succeed())
			capped.Wait()
			Expect(notifications.last().Code).To(Equal(submission.CodeStatusPending))
			Expect(capped.State()).To(Equal(report.StateSend))
		})
	})

	Describe("Reopen", func() {
		It("only reopens rejected reports", func() {
			Expect(lifecycle.Reopen(ctx)).To(MatchError(submission.ErrNotRejected))
		})

		It("returns a rejected report to draft and saves it again", func() {
			office.setStatuses(report.StateRejected)
			Expect(lifecycle.Submit(ctx)).To(Succeed())
			Eventually(lifecycle.State).Should(Equal(report.StateRejected))

			Expect(lifecycle.Reopen(ctx)).To(Succeed())
			Expect(lifecycle.State()).To(Equal(report.StateDraft))
			Expect(notifications.last().Silent).To(BeFalse())

			Eventually(office.savedStates).Should(Equal([]report.State{report.StateSend, report.StateDraft}))
			Expect(lifecycle.Update(completeReport())).To(Succeed())
		})
	})

	Describe("Close", func() {
		It("stops polling and refuses further work", func() {
			Expect(lifecycle.Submit(ctx)).To(Succeed())
			lifecycle.Close()
			lifecycle.Wait()

			Expect(lifecycle.Snapshot().Polling).To(BeFalse())
			Expect(lifecycle.Submit(ctx)).To(MatchError(submission.ErrSessionClosed))
			Expect(lifecycle.Update(completeReport())).To(MatchError(submission.ErrSessionClosed))

			polls := office.pollCount()
			Consistently(office.pollCount, 60*time.Millisecond).Should(Equal(polls))
		})
	})
})

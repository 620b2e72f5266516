package session

import (
	"context"
	"io"
	"log/slog"

	"github.com/frahmantamala/trail-report/internal"
	"github.com/frahmantamala/trail-report/internal/compensation"
	"github.com/frahmantamala/trail-report/internal/report"
	"github.com/frahmantamala/trail-report/internal/submission"
	"github.com/frahmantamala/trail-report/internal/validation"
)

type Calculator interface {
	CalculateReport(ctx context.Context, r *report.Report) (map[string]*compensation.Result, error)
}

type Exporter interface {
	WriteCompensation(w io.Writer, r *report.Report, results map[string]*compensation.Result) error
}

// Projection is everything a client needs to render an open report.
type Projection struct {
	submission.View
	Verdict          validation.Verdict              `json:"verdict"`
	Compensation     map[string]*compensation.Result `json:"compensation"`
	CompensationNote string                          `json:"compensation_note,omitempty"`
	Notifications    []submission.Notification       `json:"notifications"`
}

type Service struct {
	registry   *Registry
	calculator Calculator
	exporter   Exporter
	logger     *slog.Logger
}

func NewService(registry *Registry, calculator Calculator, exporter Exporter, logger *slog.Logger) *Service {
	return &Service{
		registry:   registry,
		calculator: calculator,
		exporter:   exporter,
		logger:     logger,
	}
}

func (s *Service) Open(ctx context.Context, r *report.Report) (*Projection, error) {
	if r.ID == "" {
		r.ID = report.NewID()
	}
	sess, err := s.registry.Open(r)
	if err != nil {
		return nil, err
	}
	return s.project(ctx, sess), nil
}

func (s *Service) Get(ctx context.Context, reportID string) (*Projection, error) {
	sess, err := s.registry.Get(reportID)
	if err != nil {
		return nil, err
	}
	return s.project(ctx, sess), nil
}

func (s *Service) Update(ctx context.Context, reportID string, r *report.Report) (*Projection, error) {
	sess, err := s.registry.Get(reportID)
	if err != nil {
		return nil, err
	}
	if err := sess.Lifecycle.Update(r); err != nil {
		return nil, err
	}
	return s.project(ctx, sess), nil
}

func (s *Service) Save(ctx context.Context, reportID string) (*Projection, error) {
	sess, err := s.registry.Get(reportID)
	if err != nil {
		return nil, err
	}
	if err := sess.Lifecycle.SaveDraft(ctx); err != nil {
		return nil, err
	}
	return s.project(ctx, sess), nil
}

func (s *Service) Submit(ctx context.Context, reportID string) (*Projection, error) {
	sess, err := s.registry.Get(reportID)
	if err != nil {
		return nil, err
	}
	if err := sess.Lifecycle.Submit(ctx); err != nil {
		return nil, err
	}
	return s.project(ctx, sess), nil
}

func (s *Service) Reopen(ctx context.Context, reportID string) (*Projection, error) {
	sess, err := s.registry.Get(reportID)
	if err != nil {
		return nil, err
	}
	if err := sess.Lifecycle.Reopen(ctx); err != nil {
		return nil, err
	}
	return s.project(ctx, sess), nil
}

func (s *Service) Close(_ context.Context, reportID string) error {
	return s.registry.Close(reportID)
}

// Export writes the compensation workbook of an open report.
func (s *Service) Export(ctx context.Context, reportID string, w io.Writer) error {
	sess, err := s.registry.Get(reportID)
	if err != nil {
		return err
	}
	view := sess.Lifecycle.Snapshot()

	results, err := s.calculator.CalculateReport(ctx, view.Report)
	if err != nil {
		return internal.NewInternalError("failed to calculate compensation", err)
	}
	if results == nil {
		return internal.ErrTariffNotFound
	}
	return s.exporter.WriteCompensation(w, view.Report, results)
}

// project derives verdict and compensation from the current form data on every
// read; nothing is cached between calls.
func (s *Service) project(ctx context.Context, sess *Session) *Projection {
	view := sess.Lifecycle.Snapshot()
	p := &Projection{
		View:          view,
		Verdict:       validation.Validate(view.Report),
		Notifications: sess.Feed.Items(),
	}

	results, err := s.calculator.CalculateReport(ctx, view.Report)
	switch {
	case err != nil:
		s.logger.Error("compensation unavailable", "report_id", view.ReportID, "error", err)
		p.CompensationNote = "Compensation could not be calculated right now."
	case results == nil:
		p.CompensationNote = "No tariff table applies to the report date."
	default:
		p.Compensation = results
	}
	return p
}

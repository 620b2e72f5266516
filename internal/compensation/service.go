package compensation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/frahmantamala/trail-report/internal/directory"
	"github.com/frahmantamala/trail-report/internal/report"
)

type TariffDirectory interface {
	TariffFor(ctx context.Context, on time.Time) (*report.TariffTable, error)
}

type QualificationDirectory interface {
	Snapshot(ctx context.Context, memberIDs []string) (map[string][]string, error)
}

// Service loads directory data for a report and runs the calculator on it.
type Service struct {
	tariffs        TariffDirectory
	qualifications QualificationDirectory
	logger         *slog.Logger
	now            func() time.Time
}

func NewService(tariffs TariffDirectory, qualifications QualificationDirectory, logger *slog.Logger) *Service {
	return &Service{
		tariffs:        tariffs,
		qualifications: qualifications,
		logger:         logger,
		now:            time.Now,
	}
}

// Input resolves the tariff and qualification snapshot for r. A missing tariff
// table is not an error; the returned input simply has no tariff.
func (s *Service) Input(ctx context.Context, r *report.Report) (Input, error) {
	now := s.now()
	in := Input{Report: r, Now: now}

	effective := now
	if r.EffectiveDate != "" {
		if t, err := time.Parse(dateLayout, r.EffectiveDate); err == nil {
			effective = t
		}
	}

	tariff, err := s.tariffs.TariffFor(ctx, effective)
	switch {
	case errors.Is(err, directory.ErrTariffNotFound):
		s.logger.Warn("compensation skipped: no tariff table",
			"report_id", r.ID,
			"effective_date", effective.Format(dateLayout))
		return in, nil
	case err != nil:
		return in, fmt.Errorf("failed to resolve tariff: %w", err)
	}
	in.Tariff = tariff

	snapshot, err := s.qualifications.Snapshot(ctx, r.MemberIDs())
	if err != nil {
		return in, fmt.Errorf("failed to load qualifications: %w", err)
	}
	in.Qualifications = snapshot

	return in, nil
}

// CalculateReport returns per-member compensation, or nil when no tariff applies.
func (s *Service) CalculateReport(ctx context.Context, r *report.Report) (map[string]*Result, error) {
	in, err := s.Input(ctx, r)
	if err != nil {
		s.logger.Error("failed to prepare compensation input", "error", err, "report_id", r.ID)
		return nil, err
	}

	results := CalculateReport(in)
	if results != nil {
		s.logger.Debug("compensation calculated", "report_id", r.ID, "members", len(results))
	}
	return results, nil
}

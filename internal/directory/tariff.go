package directory

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"time"

	directoryDatamodel "github.com/frahmantamala/trail-report/internal/core/datamodel/directory"
	"github.com/frahmantamala/trail-report/internal/report"
)

var ErrTariffNotFound = errors.New("no tariff table effective on the requested date")

type TariffRepositoryAPI interface {
	LatestEffective(ctx context.Context, on time.Time) (*directoryDatamodel.Tariff, error)
	Create(ctx context.Context, tariff *directoryDatamodel.Tariff) error
}

type TariffService struct {
	repo   TariffRepositoryAPI
	logger *slog.Logger
}

func NewTariffService(repo TariffRepositoryAPI, logger *slog.Logger) *TariffService {
	return &TariffService{
		repo:   repo,
		logger: logger,
	}
}

// TariffFor returns the newest tariff table whose effective date is not after on.
func (s *TariffService) TariffFor(ctx context.Context, on time.Time) (*report.TariffTable, error) {
	tariff, err := s.repo.LatestEffective(ctx, on)
	if err != nil {
		if errors.Is(err, ErrTariffNotFound) {
			s.logger.Warn("no tariff table for date", "date", on.Format("2006-01-02"))
		} else {
			s.logger.Error("failed to load tariff table", "error", err, "date", on.Format("2006-01-02"))
		}
		return nil, err
	}
	return ToTariffTable(tariff), nil
}

// Publish stores a new tariff table.
func (s *TariffService) Publish(ctx context.Context, table *report.TariffTable) error {
	model, err := FromTariffTable(table)
	if err != nil {
		return err
	}
	if err := s.repo.Create(ctx, model); err != nil {
		s.logger.Error("failed to store tariff table", "error", err, "effective_from", table.EffectiveFrom)
		return err
	}
	s.logger.Info("tariff table published",
		"tariff_id", model.ID,
		"effective_from", table.EffectiveFrom,
		"rows", len(model.Rows))
	return nil
}

func ToTariffTable(t *directoryDatamodel.Tariff) *report.TariffTable {
	rows := make([]directoryDatamodel.TariffRow, len(t.Rows))
	copy(rows, t.Rows)
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].Position < rows[j].Position })

	table := &report.TariffTable{
		EffectiveFrom:            t.EffectiveFrom.Format("2006-01-02"),
		OwnVehicleRate:           t.OwnVehicleRate,
		OwnVehicleSubsidizedRate: t.OwnVehicleSubsidizedRate,
		MealAllowances:           []report.TariffRow{},
		WorkAllowances:           []report.TariffRow{},
	}
	for _, row := range rows {
		r := report.TariffRow{From: row.LowerBound, To: row.UpperBound, Amount: row.Amount}
		switch row.Kind {
		case directoryDatamodel.RowKindMeal:
			table.MealAllowances = append(table.MealAllowances, r)
		case directoryDatamodel.RowKindWork:
			table.WorkAllowances = append(table.WorkAllowances, r)
		}
	}
	return table
}

func FromTariffTable(table *report.TariffTable) (*directoryDatamodel.Tariff, error) {
	effective, err := time.Parse("2006-01-02", table.EffectiveFrom)
	if err != nil {
		return nil, errors.New("effective_from must be a YYYY-MM-DD date")
	}

	model := &directoryDatamodel.Tariff{
		EffectiveFrom:            effective,
		OwnVehicleRate:           table.OwnVehicleRate,
		OwnVehicleSubsidizedRate: table.OwnVehicleSubsidizedRate,
	}
	for i, row := range table.MealAllowances {
		model.Rows = append(model.Rows, directoryDatamodel.TariffRow{
			Kind:       directoryDatamodel.RowKindMeal,
			Position:   i,
			LowerBound: row.From,
			UpperBound: row.To,
			Amount:     row.Amount,
		})
	}
	for i, row := range table.WorkAllowances {
		model.Rows = append(model.Rows, directoryDatamodel.TariffRow{
			Kind:       directoryDatamodel.RowKindWork,
			Position:   i,
			LowerBound: row.From,
			UpperBound: row.To,
			Amount:     row.Amount,
		})
	}
	return model, nil
}

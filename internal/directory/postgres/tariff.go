package postgres

import (
	"context"
	"errors"
	"time"

	directoryDatamodel "github.com/frahmantamala/trail-report/internal/core/datamodel/directory"
	"github.com/frahmantamala/trail-report/internal/directory"
	"gorm.io/gorm"
)

type TariffRepository struct {
	db *gorm.DB
}

func NewTariffRepository(db *gorm.DB) directory.TariffRepositoryAPI {
	return &TariffRepository{db: db}
}

func (r *TariffRepository) LatestEffective(ctx context.Context, on time.Time) (*directoryDatamodel.Tariff, error) {
	var t directoryDatamodel.Tariff
	err := r.db.WithContext(ctx).
		Preload("Rows", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		Where("effective_from <= ?", on).
		Order("effective_from DESC").
		First(&t).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, directory.ErrTariffNotFound
		}
		return nil, err
	}
	return &t, nil
}

func (r *TariffRepository) Create(ctx context.Context, tariff *directoryDatamodel.Tariff) error {
	return r.db.WithContext(ctx).Create(tariff).Error
}

package postgres

import (
	"context"

	directoryDatamodel "github.com/frahmantamala/trail-report/internal/core/datamodel/directory"
	"github.com/frahmantamala/trail-report/internal/directory"
	"gorm.io/gorm"
)

type QualificationRepository struct {
	db *gorm.DB
}

func NewQualificationRepository(db *gorm.DB) directory.QualificationRepositoryAPI {
	return &QualificationRepository{db: db}
}

func (r *QualificationRepository) CodesFor(ctx context.Context, memberID string) ([]string, error) {
	var codes []string
	err := r.db.WithContext(ctx).
		Model(&directoryDatamodel.MemberQualification{}).
		Where("member_id = ?", memberID).
		Order("code ASC").
		Pluck("code", &codes).Error
	return codes, err
}

func (r *QualificationRepository) ForMembers(ctx context.Context, memberIDs []string) ([]*directoryDatamodel.MemberQualification, error) {
	var rows []*directoryDatamodel.MemberQualification
	err := r.db.WithContext(ctx).
		Where("member_id IN ?", memberIDs).
		Order("member_id ASC, code ASC").
		Find(&rows).Error
	return rows, err
}

func (r *QualificationRepository) Grant(ctx context.Context, q *directoryDatamodel.MemberQualification) error {
	return r.db.WithContext(ctx).Create(q).Error
}

package directory

import (
	"context"
	"log/slog"

	directoryDatamodel "github.com/frahmantamala/trail-report/internal/core/datamodel/directory"
)

type QualificationRepositoryAPI interface {
	CodesFor(ctx context.Context, memberID string) ([]string, error)
	ForMembers(ctx context.Context, memberIDs []string) ([]*directoryDatamodel.MemberQualification, error)
	Grant(ctx context.Context, q *directoryDatamodel.MemberQualification) error
}

type QualificationService struct {
	repo   QualificationRepositoryAPI
	logger *slog.Logger
}

func NewQualificationService(repo QualificationRepositoryAPI, logger *slog.Logger) *QualificationService {
	return &QualificationService{
		repo:   repo,
		logger: logger,
	}
}

func (s *QualificationService) Qualifications(ctx context.Context, memberID string) ([]string, error) {
	codes, err := s.repo.CodesFor(ctx, memberID)
	if err != nil {
		s.logger.Error("failed to load qualifications", "error", err, "member_id", memberID)
		return nil, err
	}
	return codes, nil
}

// Snapshot loads the qualification codes of all given members at once. Members
// without any qualification are present with an empty list.
func (s *QualificationService) Snapshot(ctx context.Context, memberIDs []string) (map[string][]string, error) {
	snapshot := make(map[string][]string, len(memberIDs))
	for _, id := range memberIDs {
		snapshot[id] = []string{}
	}
	if len(memberIDs) == 0 {
		return snapshot, nil
	}

	rows, err := s.repo.ForMembers(ctx, memberIDs)
	if err != nil {
		s.logger.Error("failed to load qualification snapshot", "error", err, "members", len(memberIDs))
		return nil, err
	}
	for _, row := range rows {
		snapshot[row.MemberID] = append(snapshot[row.MemberID], row.Code)
	}
	return snapshot, nil
}

func (s *QualificationService) Grant(ctx context.Context, memberID, code string) error {
	if err := s.repo.Grant(ctx, &directoryDatamodel.MemberQualification{MemberID: memberID, Code: code}); err != nil {
		s.logger.Error("failed to grant qualification", "error", err, "member_id", memberID, "code", code)
		return err
	}
	return nil
}

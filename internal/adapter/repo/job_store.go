package repo

import (
	"context"

	"composer/internal/domain"
	"composer/internal/infra"
	"composer/internal/sqlinline"
)

// JobStorePG implements domain.JobStore over the marker-tagged SQL runner.
type JobStorePG struct {
	runner infra.SQLExecutor
}

func NewJobStore(runner infra.SQLExecutor) *JobStorePG {
	return &JobStorePG{runner: runner}
}

func (s *JobStorePG) ClaimQueued(ctx context.Context) (*domain.Job, error) {
	row := s.runner.QueryRow(ctx, sqlinline.QClaimNewestQueuedJob)
	var j domain.Job
	if err := row.Scan(
		&j.ID,
		&j.ProductAssetID,
		&j.SceneAssetID,
		&j.StyleKey,
		&j.Palette,
		&j.Meta,
		&j.CreatedAt,
	); err != nil {
		if infra.IsNoRows(err) {
			return nil, domain.ErrNoJob
		}
		return nil, err
	}
	j.Status = domain.JobStatusProcessing
	return &j, nil
}

func (s *JobStorePG) UpdateStatus(ctx context.Context, jobID string, status domain.JobStatus, errMsg string) error {
	_, err := s.runner.Exec(ctx, sqlinline.QUpdateJobStatus, jobID, string(status), errMsg)
	return err
}

var _ domain.JobStore = (*JobStorePG)(nil)

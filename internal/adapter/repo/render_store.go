package repo

import (
	"context"

	"composer/internal/domain"
	"composer/internal/infra"
	"composer/internal/sqlinline"
)

// RenderStorePG implements domain.RenderStore.
type RenderStorePG struct {
	runner infra.SQLExecutor
}

func NewRenderStore(runner infra.SQLExecutor) *RenderStorePG {
	return &RenderStorePG{runner: runner}
}

func (s *RenderStorePG) Insert(ctx context.Context, render *domain.Render) (string, error) {
	row := s.runner.QueryRow(ctx, sqlinline.QInsertRender,
		render.JobID,
		render.Variant,
		render.RenderAssetID,
		render.Caption,
	)
	var id string
	if err := row.Scan(&id); err != nil {
		return "", err
	}
	return id, nil
}

var _ domain.RenderStore = (*RenderStorePG)(nil)

package repo

import (
	"context"

	"composer/internal/domain"
	"composer/internal/infra"
	"composer/internal/sqlinline"
)

// AssetStorePG implements domain.AssetStore.
type AssetStorePG struct {
	runner infra.SQLExecutor
}

func NewAssetStore(runner infra.SQLExecutor) *AssetStorePG {
	return &AssetStorePG{runner: runner}
}

func (s *AssetStorePG) GetByID(ctx context.Context, id string) (*domain.Asset, error) {
	row := s.runner.QueryRow(ctx, sqlinline.QSelectAssetByID, id)
	var a domain.Asset
	if err := row.Scan(
		&a.ID,
		&a.Kind,
		&a.Bucket,
		&a.Path,
		&a.MIME,
		&a.SizeBytes,
		&a.Width,
		&a.Height,
		&a.CreatedAt,
	); err != nil {
		if infra.IsNoRows(err) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &a, nil
}

func (s *AssetStorePG) Insert(ctx context.Context, asset *domain.Asset) (string, error) {
	row := s.runner.QueryRow(ctx, sqlinline.QInsertRenderAsset,
		asset.Bucket,
		asset.Path,
		asset.MIME,
		asset.SizeBytes,
		asset.Width,
		asset.Height,
	)
	var id string
	if err := row.Scan(&id); err != nil {
		return "", err
	}
	return id, nil
}

var _ domain.AssetStore = (*AssetStorePG)(nil)

package repo

import (
	"context"
	"encoding/json"
	"fmt"

	"composer/internal/domain"
	"composer/internal/infra"
	"composer/internal/sqlinline"
)

// StyleStorePG implements domain.StyleStore.
type StyleStorePG struct {
	runner infra.SQLExecutor
}

func NewStyleStore(runner infra.SQLExecutor) *StyleStorePG {
	return &StyleStorePG{runner: runner}
}

func (s *StyleStorePG) GetByKey(ctx context.Context, key string) (*domain.Style, error) {
	row := s.runner.QueryRow(ctx, sqlinline.QSelectStyleByKey, key)
	var (
		style  domain.Style
		params []byte
	)
	if err := row.Scan(&style.Key, &style.Label, &params); err != nil {
		if infra.IsNoRows(err) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	if len(params) > 0 {
		if err := json.Unmarshal(params, &style.Params); err != nil {
			return nil, fmt.Errorf("decode style %q params: %w", key, err)
		}
	}
	return &style, nil
}

var _ domain.StyleStore = (*StyleStorePG)(nil)

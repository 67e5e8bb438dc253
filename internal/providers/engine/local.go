package engine

import (
	"context"

	"composer/internal/domain"
)

// Local renders variants with the deterministic compositor. It always yields
// exactly two results regardless of the requested count.
type Local struct {
	compositor Fallback
}

func NewLocal(compositor Fallback) *Local {
	return &Local{compositor: compositor}
}

func (l *Local) Generate(ctx context.Context, req Request) ([]domain.RenderResult, error) {
	return l.compositor.Compose(ctx, req.SceneURL, req.ProductURL, req.Palette)
}

var _ Engine = (*Local)(nil)

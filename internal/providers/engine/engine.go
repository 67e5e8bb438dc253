package engine

import (
	"context"

	"composer/internal/domain"
)

// Request carries everything needed to produce a job's variants.
type Request struct {
	Prompt     string
	Negative   string
	ProductURL string
	SceneURL   string
	Palette    []string
	Variants   int
}

// Engine produces rendered variants for a composition request. The returned
// slice always has exactly the requested length (never fewer than the
// product floor of two).
type Engine interface {
	Generate(ctx context.Context, req Request) ([]domain.RenderResult, error)
}

// Fallback fills variant slots locally. The compositor implements it.
type Fallback interface {
	Compose(ctx context.Context, sceneURL, productURL string, palette []string) ([]domain.RenderResult, error)
}

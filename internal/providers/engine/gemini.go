package engine

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"composer/internal/compose"
	"composer/internal/domain"
	"composer/internal/providers/genai"
)

// Some models honor textual size instructions only; the canvas hint rides on
// every request.
const outputHint = "Output for Instagram portrait 1080x1920, no watermarks, no text overlays."

// Gemini adapts the generateContent client to the engine contract. Both
// source images are fetched once and reused across all variant requests;
// each variant is an independent call carrying the same images and
// instruction. A slot whose response contains no image payload is filled by
// the local compositor with an empty palette — the per-slot fallback
// guarantee. Engine errors (unreachable service, bad credential) are fatal,
// not fallback-eligible.
type Gemini struct {
	client   *genai.Client
	fetcher  *compose.Fetcher
	fallback Fallback
	logger   zerolog.Logger
}

func NewGemini(client *genai.Client, fetcher *compose.Fetcher, fallback Fallback, logger zerolog.Logger) *Gemini {
	return &Gemini{client: client, fetcher: fetcher, fallback: fallback, logger: logger}
}

func (g *Gemini) Generate(ctx context.Context, req Request) ([]domain.RenderResult, error) {
	if !g.client.Configured() {
		return nil, genai.ErrNoAPIKey
	}

	count := req.Variants
	if count < domain.MinVariants {
		count = domain.MinVariants
	}

	var productBuf, sceneBuf []byte
	eg, egctx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		var err error
		productBuf, err = g.fetcher.Fetch(egctx, req.ProductURL)
		if err != nil {
			return fmt.Errorf("fetch product image: %w", err)
		}
		return nil
	})
	eg.Go(func() error {
		var err error
		sceneBuf, err = g.fetcher.Fetch(egctx, req.SceneURL)
		if err != nil {
			return fmt.Errorf("fetch scene image: %w", err)
		}
		return nil
	})
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	// Source photos are treated as JPEG unless otherwise known.
	images := []genai.InlineImage{
		{MIMEType: "image/jpeg", Data: productBuf},
		{MIMEType: "image/jpeg", Data: sceneBuf},
	}
	instruction := buildInstruction(req.Prompt, req.Negative)

	out := make([]domain.RenderResult, 0, count)
	for i := 0; i < count; i++ {
		payloads, err := g.client.GenerateImage(ctx, instruction, images)
		if err != nil {
			return nil, fmt.Errorf("variant %d: %w", i+1, err)
		}
		if len(payloads) > 0 {
			// First qualifying image wins; extra parts are ignored.
			p := payloads[0]
			ext := domain.RenderExtJPG
			if strings.Contains(p.MIMEType, "png") {
				ext = domain.RenderExtPNG
			}
			out = append(out, domain.RenderResult{Data: p.Data, Ext: ext})
			continue
		}

		g.logger.Warn().Int("variant", i+1).Msg("engine: no image payload, filling slot with local compositor")
		filled, err := g.fallback.Compose(ctx, req.SceneURL, req.ProductURL, nil)
		if err != nil {
			return nil, fmt.Errorf("fallback for variant %d: %w", i+1, err)
		}
		if len(filled) == 0 {
			return nil, fmt.Errorf("fallback for variant %d produced no output", i+1)
		}
		out = append(out, filled[0])
	}

	return out, nil
}

func buildInstruction(prompt, negative string) string {
	var b strings.Builder
	b.WriteString(prompt)
	b.WriteString("\n")
	if strings.TrimSpace(negative) != "" {
		b.WriteString("Negative: ")
		b.WriteString(negative)
		b.WriteString("\n")
	}
	b.WriteString(outputHint)
	return b.String()
}

var _ Engine = (*Gemini)(nil)

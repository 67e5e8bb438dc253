package compose

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"math"

	"github.com/disintegration/imaging"
	"golang.org/x/sync/errgroup"

	"composer/internal/domain"
)

// Canonical canvas: Instagram portrait.
const (
	CanvasWidth  = 1080
	CanvasHeight = 1920
)

const (
	productScale = 0.82
	sceneBlur    = 0.3
	jpegQuality  = 90
)

// Compositor is the deterministic local renderer. Same inputs always produce
// byte-identical outputs; there is no randomness anywhere in this path.
type Compositor struct {
	fetcher *Fetcher
}

func NewCompositor(fetcher *Fetcher) *Compositor {
	return &Compositor{fetcher: fetcher}
}

// Compose fetches both source images and renders exactly two 1080x1920 JPEG
// variants. The two variants differ only in layer order: variant 1 puts the
// palette tint above the product (overlay blend), variant 2 puts the tint
// under the product (soft-light blend).
func (c *Compositor) Compose(ctx context.Context, sceneURL, productURL string, palette []string) ([]domain.RenderResult, error) {
	var sceneBuf, productBuf []byte
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		sceneBuf, err = c.fetcher.Fetch(gctx, sceneURL)
		return err
	})
	g.Go(func() error {
		var err error
		productBuf, err = c.fetcher.Fetch(gctx, productURL)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	scene, err := imaging.Decode(bytes.NewReader(sceneBuf))
	if err != nil {
		return nil, fmt.Errorf("decode scene image: %w", err)
	}
	product, err := imaging.Decode(bytes.NewReader(productBuf))
	if err != nil {
		return nil, fmt.Errorf("decode product image: %w", err)
	}

	return c.render(scene, product, palette)
}

func (c *Compositor) render(scene, product image.Image, palette []string) ([]domain.RenderResult, error) {
	// Scene fills the frame (cover fit, overflow cropped) with a light blur
	// so the foreground product reads cleanly.
	base := imaging.Blur(imaging.Fill(scene, CanvasWidth, CanvasHeight, imaging.Center, imaging.Lanczos), sceneBlur)

	// Product keeps its aspect inside 82% of each canvas dimension.
	pw := int(math.Round(CanvasWidth * productScale))
	ph := int(math.Round(CanvasHeight * productScale))
	prod := containResize(product, pw, ph)

	top, bottom := PaletteStops(palette)
	grad := Gradient(CanvasWidth, CanvasHeight, top, bottom)

	v1 := blendLayer(imaging.OverlayCenter(base, prod, 1.0), grad, overlay)
	v2 := imaging.OverlayCenter(blendLayer(base, grad, softLight), prod, 1.0)

	out := make([]domain.RenderResult, 0, 2)
	for _, img := range []*image.NRGBA{v1, v2} {
		var buf bytes.Buffer
		if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(jpegQuality)); err != nil {
			return nil, fmt.Errorf("encode variant: %w", err)
		}
		out = append(out, domain.RenderResult{Data: buf.Bytes(), Ext: domain.RenderExtJPG})
	}
	return out, nil
}

// containResize scales img to fit inside w x h preserving aspect. Unlike
// imaging.Fit this also enlarges sources smaller than the box, so a tiny
// product photo still occupies its full share of the canvas.
func containResize(img image.Image, w, h int) *image.NRGBA {
	b := img.Bounds()
	sw, sh := float64(b.Dx()), float64(b.Dy())
	if sw == 0 || sh == 0 {
		return imaging.Clone(img)
	}
	scale := math.Min(float64(w)/sw, float64(h)/sh)
	return imaging.Resize(img, int(math.Round(sw*scale)), int(math.Round(sh*scale)), imaging.Lanczos)
}

// blendLayer composites src over dst with a separable blend mode, honoring
// the source alpha. Both images must share the canvas bounds.
func blendLayer(dst, src *image.NRGBA, blend func(b, s float64) float64) *image.NRGBA {
	out := imaging.Clone(dst)
	bounds := out.Bounds()
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			d := out.NRGBAAt(x, y)
			s := src.NRGBAAt(x, y)
			a := float64(s.A) / 255
			d.R = mixChannel(d.R, s.R, a, blend)
			d.G = mixChannel(d.G, s.G, a, blend)
			d.B = mixChannel(d.B, s.B, a, blend)
			out.SetNRGBA(x, y, d)
		}
	}
	return out
}

func mixChannel(d, s uint8, a float64, blend func(b, s float64) float64) uint8 {
	bf := float64(d) / 255
	sf := float64(s) / 255
	v := (1-a)*bf + a*blend(bf, sf)
	if v < 0 {
		v = 0
	} else if v > 1 {
		v = 1
	}
	return uint8(math.Round(v * 255))
}

func overlay(b, s float64) float64 {
	if b <= 0.5 {
		return 2 * b * s
	}
	return 1 - 2*(1-b)*(1-s)
}

// softLight follows the W3C compositing formula.
func softLight(b, s float64) float64 {
	if s <= 0.5 {
		return b - (1-2*s)*b*(1-b)
	}
	var d float64
	if b <= 0.25 {
		d = ((16*b-12)*b + 4) * b
	} else {
		d = math.Sqrt(b)
	}
	return b + (2*s-1)*(d-b)
}

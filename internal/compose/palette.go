package compose

import (
	"image"
	"image/color"
	"math"
	"strconv"
	"strings"
)

// GradientAlpha is the fixed translucency of the palette tint (~35% opacity)
// so the gradient tints the composition rather than replacing it.
const GradientAlpha = 90

// ParseHexColor decodes a "#rgb" or "#rrggbb" color string. Shorthand digits
// expand by repetition (0xf -> 0xff). Anything unparseable decodes to black,
// matching the palette default.
func ParseHexColor(hex string) color.NRGBA {
	h := strings.TrimPrefix(strings.TrimSpace(hex), "#")
	v, err := strconv.ParseUint(h, 16, 32)
	if err != nil {
		return color.NRGBA{A: 255}
	}
	switch len(h) {
	case 6:
		return color.NRGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 255}
	case 3:
		return color.NRGBA{
			R: uint8((v>>8)&0xf) * 17,
			G: uint8((v>>4)&0xf) * 17,
			B: uint8(v&0xf) * 17,
			A: 255,
		}
	default:
		return color.NRGBA{A: 255}
	}
}

// PaletteStops resolves the gradient endpoints from a 0-2 element palette:
// no colors degenerate to a flat black tint, a single color to a flat tint
// of itself.
func PaletteStops(palette []string) (top, bottom color.NRGBA) {
	top = color.NRGBA{A: 255}
	if len(palette) > 0 {
		top = ParseHexColor(palette[0])
	}
	bottom = top
	if len(palette) > 1 {
		bottom = ParseHexColor(palette[1])
	}
	return top, bottom
}

// Gradient synthesizes a vertical linear gradient raster from top to bottom
// at the fixed tint alpha. Interpolation is linear in row position.
func Gradient(w, h int, top, bottom color.NRGBA) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		t := 0.0
		if h > 1 {
			t = float64(y) / float64(h-1)
		}
		c := color.NRGBA{
			R: lerp(top.R, bottom.R, t),
			G: lerp(top.G, bottom.G, t),
			B: lerp(top.B, bottom.B, t),
			A: GradientAlpha,
		}
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, c)
		}
	}
	return img
}

func lerp(a, b uint8, t float64) uint8 {
	return uint8(math.Round(float64(a)*(1-t) + float64(b)*t))
}

package compose

import (
	"image/color"
	"testing"
)

func TestParseHexColorShorthandExpands(t *testing.T) {
	short := ParseHexColor("#abc")
	long := ParseHexColor("#aabbcc")
	if short != long {
		t.Fatalf("#abc decoded to %v, #aabbcc to %v", short, long)
	}
	if long != (color.NRGBA{R: 0xaa, G: 0xbb, B: 0xcc, A: 255}) {
		t.Fatalf("#aabbcc decoded to %v", long)
	}
}

func TestParseHexColorInvalidFallsBackToBlack(t *testing.T) {
	for _, in := range []string{"", "#", "#12", "#12345", "not-a-color"} {
		if got := ParseHexColor(in); got != (color.NRGBA{A: 255}) {
			t.Fatalf("ParseHexColor(%q) = %v, want opaque black", in, got)
		}
	}
}

func TestPaletteStopsEmptyDegeneratesToFlatBlack(t *testing.T) {
	top, bottom := PaletteStops(nil)
	if top != bottom {
		t.Fatalf("empty palette stops differ: %v vs %v", top, bottom)
	}
	if top != (color.NRGBA{A: 255}) {
		t.Fatalf("empty palette top = %v, want black", top)
	}
}

func TestPaletteStopsSingleColorFlatTint(t *testing.T) {
	top, bottom := PaletteStops([]string{"#112233"})
	if top != bottom {
		t.Fatalf("single-color palette stops differ: %v vs %v", top, bottom)
	}
	if top != (color.NRGBA{R: 0x11, G: 0x22, B: 0x33, A: 255}) {
		t.Fatalf("top = %v", top)
	}
}

func TestGradientEndpointsAndAlpha(t *testing.T) {
	top, bottom := PaletteStops([]string{"#ff0000", "#0000ff"})
	g := Gradient(4, 64, top, bottom)

	first := g.NRGBAAt(0, 0)
	if first.R != 0xff || first.G != 0 || first.B != 0 {
		t.Fatalf("row 0 = %v, want palette[0] rgb", first)
	}
	last := g.NRGBAAt(0, 63)
	if last.R != 0 || last.G != 0 || last.B != 0xff {
		t.Fatalf("row h-1 = %v, want palette[1] rgb", last)
	}
	for _, px := range []color.NRGBA{first, last, g.NRGBAAt(2, 31)} {
		if px.A != GradientAlpha {
			t.Fatalf("alpha = %d, want %d", px.A, GradientAlpha)
		}
	}
}

func TestGradientFlatWhenStopsEqual(t *testing.T) {
	c := ParseHexColor("#336699")
	g := Gradient(2, 16, c, c)
	for y := 0; y < 16; y++ {
		px := g.NRGBAAt(0, y)
		if px.R != c.R || px.G != c.G || px.B != c.B {
			t.Fatalf("row %d = %v, want flat %v", y, px, c)
		}
	}
}

package compose

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/disintegration/imaging"
)

func testScene() image.Image {
	img := imaging.New(600, 900, color.NRGBA{R: 40, G: 80, B: 120, A: 255})
	return imaging.Paste(img, imaging.New(200, 200, color.NRGBA{R: 220, G: 220, B: 220, A: 255}), image.Pt(100, 100))
}

func testProduct() image.Image {
	return imaging.New(300, 400, color.NRGBA{R: 200, G: 50, B: 50, A: 255})
}

func encodeJPEG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(90)); err != nil {
		t.Fatalf("encode fixture: %v", err)
	}
	return buf.Bytes()
}

func imageServer(t *testing.T) *httptest.Server {
	t.Helper()
	scene := encodeJPEG(t, testScene())
	product := encodeJPEG(t, testProduct())
	mux := http.NewServeMux()
	mux.HandleFunc("/scene.jpg", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/jpeg")
		_, _ = w.Write(scene)
	})
	mux.HandleFunc("/product.jpg", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/jpeg")
		_, _ = w.Write(product)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestComposeProducesTwoCanvasJPEGs(t *testing.T) {
	srv := imageServer(t)
	c := NewCompositor(NewFetcher(5 * time.Second))

	results, err := c.Compose(context.Background(), srv.URL+"/scene.jpg", srv.URL+"/product.jpg", []string{"#112233"})
	if err != nil {
		t.Fatalf("Compose: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("got %d results, want 2", len(results))
	}
	for i, r := range results {
		if len(r.Data) == 0 {
			t.Fatalf("variant %d is empty", i+1)
		}
		if r.Ext != "jpg" {
			t.Fatalf("variant %d ext = %q, want jpg", i+1, r.Ext)
		}
		// JPEG SOI marker.
		if r.Data[0] != 0xff || r.Data[1] != 0xd8 {
			t.Fatalf("variant %d does not start with a JPEG SOI marker", i+1)
		}
		img, err := imaging.Decode(bytes.NewReader(r.Data))
		if err != nil {
			t.Fatalf("decode variant %d: %v", i+1, err)
		}
		if b := img.Bounds(); b.Dx() != CanvasWidth || b.Dy() != CanvasHeight {
			t.Fatalf("variant %d canvas = %dx%d, want %dx%d", i+1, b.Dx(), b.Dy(), CanvasWidth, CanvasHeight)
		}
	}
}

func TestComposeUpscalesSmallProduct(t *testing.T) {
	c := NewCompositor(nil)
	small := imaging.New(50, 50, color.NRGBA{R: 200, G: 50, B: 50, A: 255})
	results, err := c.render(testScene(), small, nil)
	if err != nil {
		t.Fatalf("render: %v", err)
	}

	// Variant 2 pastes the product above the tint, so its pixels carry the
	// product color unmodified. A 50x50 source must fill 82% of the canvas
	// width (886px), so a pixel 300px right of center is still product.
	img, err := imaging.Decode(bytes.NewReader(results[1].Data))
	if err != nil {
		t.Fatalf("decode variant 2: %v", err)
	}
	nrgba := imaging.Clone(img)

	inside := nrgba.NRGBAAt(CanvasWidth/2+300, CanvasHeight/2)
	if inside.R < 150 || inside.B > 100 {
		t.Fatalf("pixel inside the upscaled product = %+v, want product red", inside)
	}
	outside := nrgba.NRGBAAt(20, CanvasHeight/2)
	if outside.R > 100 {
		t.Fatalf("pixel outside the product = %+v, want scene-colored", outside)
	}
}

func TestComposeVariantsDifferByLayerOrder(t *testing.T) {
	c := NewCompositor(nil)
	results, err := c.render(testScene(), testProduct(), []string{"#ff8800", "#0044ff"})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if bytes.Equal(results[0].Data, results[1].Data) {
		t.Fatal("variant 1 and variant 2 must differ (tint above vs below the product)")
	}
}

func TestComposeIsDeterministic(t *testing.T) {
	c := NewCompositor(nil)
	first, err := c.render(testScene(), testProduct(), []string{"#112233", "#445566"})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	second, err := c.render(testScene(), testProduct(), []string{"#112233", "#445566"})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	for i := range first {
		if !bytes.Equal(first[i].Data, second[i].Data) {
			t.Fatalf("variant %d not byte-identical across runs", i+1)
		}
	}
}

func TestComposeFailsOnMissingSource(t *testing.T) {
	srv := imageServer(t)
	c := NewCompositor(NewFetcher(5 * time.Second))

	_, err := c.Compose(context.Background(), srv.URL+"/missing.jpg", srv.URL+"/product.jpg", nil)
	if err == nil {
		t.Fatal("Compose should fail when a source image cannot be fetched")
	}
}

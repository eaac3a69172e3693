package imageio

import (
	"image"
	"image/color"
	"path/filepath"
	"testing"
)

func TestSaveThenLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()

	src := image.NewNRGBA(image.Rect(0, 0, 4, 4))
	alpha := image.NewAlpha(image.Rect(0, 0, 4, 4))
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			src.SetNRGBA(x, y, color.NRGBA{R: uint8(x * 10), G: uint8(y * 10), B: 5, A: 255})
			alpha.Pix[alpha.PixOffset(x, y)] = 255
		}
	}

	out := filepath.Join(dir, "out.tif")
	if err := Save(out, src, alpha); err != nil {
		t.Fatalf("Save: %v", err)
	}

	gotImg, gotAlpha, err := Load(out)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if gotImg.Bounds() != src.Bounds() {
		t.Fatalf("round-tripped bounds = %v, want %v", gotImg.Bounds(), src.Bounds())
	}
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			want := src.NRGBAAt(x, y)
			got := gotImg.NRGBAAt(x, y)
			if got.R != want.R || got.G != want.G || got.B != want.B {
				t.Fatalf("pixel (%d,%d) = %v, want %v", x, y, got, want)
			}
			if gotAlpha.AlphaAt(x, y).A != alpha.AlphaAt(x, y).A {
				t.Fatalf("alpha (%d,%d) = %d, want %d", x, y, gotAlpha.AlphaAt(x, y).A, alpha.AlphaAt(x, y).A)
			}
		}
	}
}

func TestRemoveIfExistsIgnoresMissingFile(t *testing.T) {
	RemoveIfExists(filepath.Join(t.TempDir(), "does-not-exist.tif"))
}

func TestCheckCompatibleRejectsMismatchedDimensions(t *testing.T) {
	a := image.NewNRGBA(image.Rect(0, 0, 4, 4))
	b := image.NewNRGBA(image.Rect(0, 0, 8, 8))
	if err := CheckCompatible(a, b); err == nil {
		t.Fatalf("expected CheckCompatible to reject mismatched dimensions")
	}
}

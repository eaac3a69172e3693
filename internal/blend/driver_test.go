package blend

import (
	"bytes"
	"image"
	"image/color"
	"testing"

	"github.com/quietpixel/multiblend/internal/config"
	"github.com/quietpixel/multiblend/internal/diag"
	"github.com/quietpixel/multiblend/internal/tilestore"
)

// newTestComposite wires a Composite to a TileStore scoped to the test's
// temp directory, released automatically at test end.
func newTestComposite(t *testing.T, img *image.NRGBA, alpha *image.Alpha) *Composite {
	t.Helper()
	store := tilestore.NewManager(t.TempDir())
	t.Cleanup(store.Shutdown)
	composite, err := NewComposite(img, alpha, store)
	if err != nil {
		t.Fatalf("NewComposite: %v", err)
	}
	return composite
}

func solid(w, h int, c color.NRGBA, alpha uint8) (*image.NRGBA, *image.Alpha) {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	a := image.NewAlpha(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, c)
			a.Pix[a.PixOffset(x, y)] = alpha
		}
	}
	return img, a
}

func rect(w, h int, c color.NRGBA, sub image.Rectangle) (*image.NRGBA, *image.Alpha) {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	a := image.NewAlpha(image.Rect(0, 0, w, h))
	for y := sub.Min.Y; y < sub.Max.Y; y++ {
		for x := sub.Min.X; x < sub.Max.X; x++ {
			img.SetNRGBA(x, y, c)
			a.Pix[a.PixOffset(x, y)] = 255
		}
	}
	return img, a
}

func silentLog() *diag.Logger {
	return diag.New(&bytes.Buffer{}, 0)
}

// Two images covering complementary, directly-adjacent halves of the
// canvas still present one binary-mask edge at the shared boundary (§4.1's
// transition band is defined on the mask's own 0/MAX values, which do flip
// there), so a thin seam band around that boundary is smoothed; only far
// enough from the boundary is the composite guaranteed to equal the
// unblended input exactly. Genuinely non-adjacent (gapped) alpha supports
// are the case with a provably empty ROI, covered by
// TestStepEmptyOverlaySkipsWithReason's full-transparency variant.
func TestStepDisjointAlphaIsUnionFarFromTheSeam(t *testing.T) {
	red := color.NRGBA{R: 255, A: 255}
	green := color.NRGBA{G: 255, A: 255}
	baseImg, baseAlpha := rect(64, 64, red, image.Rect(0, 0, 32, 64))
	overlayImg, overlayAlpha := rect(64, 64, green, image.Rect(32, 0, 64, 64))

	composite := newTestComposite(t, baseImg, baseAlpha)
	cfg := config.Default()

	if _, err := Step(composite, overlayImg, overlayAlpha, cfg, silentLog()); err != nil {
		t.Fatalf("Step: %v", err)
	}

	if got := composite.Img.NRGBAAt(0, 32); got != red {
		t.Fatalf("pixel far inside the base region (0,32) = %v, want unchanged %v", got, red)
	}
	if got := composite.Img.NRGBAAt(63, 32); got != green {
		t.Fatalf("pixel far inside the overlay region (63,32) = %v, want unchanged %v", got, green)
	}

	for y := 0; y < 64; y++ {
		for x := 0; x < 64; x++ {
			if composite.Alpha.AlphaAt(x, y).A != 255 {
				t.Fatalf("composite alpha at (%d,%d) = %d, want 255 (union of two fully-opaque inputs)", x, y, composite.Alpha.AlphaAt(x, y).A)
			}
		}
	}
}

// TestStepBlendsAcrossTheSeamNotAHardCut is the direct regression test for
// the bug where writeback selected the collapsed pyramid result only for
// mask values strictly between 0 and 255 — a value the binary mask never
// produces, so every pixel fell through to a verbatim per-pixel cut at the
// mask boundary. With the fix, the transition band between the two
// complementary halves must contain pixels that are neither pure red nor
// pure green: a genuine multi-pixel blend, not a single-column jump.
func TestStepBlendsAcrossTheSeamNotAHardCut(t *testing.T) {
	red := color.NRGBA{R: 255, A: 255}
	green := color.NRGBA{G: 255, A: 255}
	baseImg, baseAlpha := rect(64, 64, red, image.Rect(0, 0, 32, 64))
	overlayImg, overlayAlpha := rect(64, 64, green, image.Rect(32, 0, 64, 64))

	composite := newTestComposite(t, baseImg, baseAlpha)
	cfg := config.Default()

	if _, err := Step(composite, overlayImg, overlayAlpha, cfg, silentLog()); err != nil {
		t.Fatalf("Step: %v", err)
	}

	blended := false
	for x := 24; x < 40; x++ {
		c := composite.Img.NRGBAAt(x, 32)
		if c.R > 0 && c.G > 0 {
			blended = true
			break
		}
	}
	if !blended {
		t.Fatalf("no pixel near the seam (x in [24,40), y=32) mixes red and green: writeback is applying a hard cut instead of the collapsed pyramid blend")
	}
}

// TestStepBlueYellowSeamIsSmoothed repeats the seam check on a larger
// canvas with different colors: the base covers the left half of a 96×96
// canvas and the overlay the right half, meeting at one vertical seam at
// x=48. The blended band must contain intermediate pixels, and the
// composite must still match each input exactly far from the seam.
func TestStepBlueYellowSeamIsSmoothed(t *testing.T) {
	blue := color.NRGBA{B: 255, A: 255}
	yellow := color.NRGBA{R: 255, G: 255, A: 255}
	baseImg, baseAlpha := rect(96, 96, blue, image.Rect(0, 0, 48, 96))
	overlayImg, overlayAlpha := rect(96, 96, yellow, image.Rect(48, 0, 96, 96))

	composite := newTestComposite(t, baseImg, baseAlpha)
	cfg := config.Default()

	if _, err := Step(composite, overlayImg, overlayAlpha, cfg, silentLog()); err != nil {
		t.Fatalf("Step: %v", err)
	}

	if got := composite.Img.NRGBAAt(4, 48); got != blue {
		t.Fatalf("pixel far inside the base region = %v, want unchanged %v", got, blue)
	}
	if got := composite.Img.NRGBAAt(91, 48); got != yellow {
		t.Fatalf("pixel far inside the overlay region = %v, want unchanged %v", got, yellow)
	}

	mixed := false
	for x := 40; x < 56; x++ {
		c := composite.Img.NRGBAAt(x, 48)
		if c.B > 0 && c.R > 0 && c.G > 0 {
			mixed = true
			break
		}
	}
	if !mixed {
		t.Fatalf("no pixel near the seam (x in [40,56), y=48) mixes blue and yellow channels: expected a smoothed transition band")
	}
}

func TestStepEmptyOverlaySkipsWithReason(t *testing.T) {
	red := color.NRGBA{R: 255, A: 255}
	baseImg, baseAlpha := solid(8, 8, red, 255)
	overlayImg, overlayAlpha := solid(8, 8, color.NRGBA{}, 0)

	composite := newTestComposite(t, baseImg, baseAlpha)
	cfg := config.Default()

	result, err := Step(composite, overlayImg, overlayAlpha, cfg, silentLog())
	if err != nil {
		t.Fatalf("Step: %v", err)
	}
	if !result.Skipped || result.Reason == nil {
		t.Fatalf("expected a skip with a reason for a fully transparent overlay, got %+v", result)
	}

	if got := composite.Img.NRGBAAt(0, 0); got != red {
		t.Fatalf("composite changed after skipping an empty overlay: got %v, want %v", got, red)
	}
}

func TestStepOverlappingConstantRegionsSkipAndKeepComposite(t *testing.T) {
	red := color.NRGBA{R: 255, A: 255}
	green := color.NRGBA{G: 255, A: 255}
	baseImg, baseAlpha := solid(64, 64, red, 255)
	overlayImg, overlayAlpha := solid(64, 64, green, 255)

	composite := newTestComposite(t, baseImg, baseAlpha)
	cfg := config.Default()

	result, err := Step(composite, overlayImg, overlayAlpha, cfg, silentLog())
	if err != nil {
		t.Fatalf("Step: %v", err)
	}

	// Two fully-opaque, fully-overlapping constant images: every pixel ties
	// the same way (nearest-visible-source distances are equal everywhere),
	// so the mask is a constant 255 with no transition band, the ROI is
	// empty, and the driver skips with nothing to blend, leaving the
	// original composite untouched.
	if !result.Skipped {
		t.Fatalf("fully-overlapping opaque images with a constant mask should skip (empty ROI)")
	}
	if got := composite.Img.NRGBAAt(32, 32); got != red {
		t.Fatalf("fully-overlapping interior pixel = %v, want unchanged %v", got, red)
	}
}

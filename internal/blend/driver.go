// Package blend implements C6, the BlendDriver: the per-overlay state
// machine that ties together geometry (internal/geom), mask construction
// (internal/mask), and the pyramid operators (internal/pyramid) into one
// blend step, following spec.md §4.4 exactly:
//
//	INIT → UBB → MASK → ROI/LEVELS → COPY_OUTSIDE → BUILD_PYRAMIDS →
//	BLEND → COLLAPSE → WRITEBACK → DONE, with a SKIP branch when an
//	overlay is empty or L == 0.
package blend

import (
	"fmt"
	"image"

	"github.com/quietpixel/multiblend/internal/blenderr"
	"github.com/quietpixel/multiblend/internal/config"
	"github.com/quietpixel/multiblend/internal/diag"
	"github.com/quietpixel/multiblend/internal/fixedpoint"
	"github.com/quietpixel/multiblend/internal/geom"
	"github.com/quietpixel/multiblend/internal/mask"
	"github.com/quietpixel/multiblend/internal/pyramid"
	"github.com/quietpixel/multiblend/internal/tilestore"
)

// Composite is the running result the driver accumulates into: it owns the
// whole-canvas image and alpha for the entire run, mirrored into a
// TileStore-backed Handle pair that persists for the whole run (spec.md §3),
// and it hands out the same Manager for the transient, per-step structures
// named in §4.5 (overlay image, mask, mask Gaussian pyramid, overlay
// Laplacian pyramid) to spill and restore through.
type Composite struct {
	Img   *image.NRGBA
	Alpha *image.Alpha

	store      *tilestore.Manager
	imgTiles   *tilestore.Handle
	alphaTiles *tilestore.Handle
}

// NewComposite seeds a composite from the first input image verbatim,
// matching the glossary's "Composite: initially the first input," and
// checkpoints it into store-backed tiles immediately.
func NewComposite(img *image.NRGBA, alpha *image.Alpha, store *tilestore.Manager) (*Composite, error) {
	imgTiles, err := store.Create("multiblend_composite_img_*", 4, img.Stride)
	if err != nil {
		return nil, err
	}
	alphaTiles, err := store.Create("multiblend_composite_alpha_*", 1, alpha.Stride)
	if err != nil {
		return nil, err
	}
	c := &Composite{Img: img, Alpha: alpha, store: store, imgTiles: imgTiles, alphaTiles: alphaTiles}
	if err := c.checkpoint(); err != nil {
		return nil, err
	}
	return c, nil
}

// Store returns the Manager backing this composite, for per-step transient
// structures to spill into.
func (c *Composite) Store() *tilestore.Manager { return c.store }

// checkpoint mirrors the composite's current in-memory state into its
// TileStore handles, row by row, the way the original's temp-file-backed
// mask/pyramid machinery keeps its out-of-core structures current after
// every mutation.
func (c *Composite) checkpoint() error {
	b := c.Img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		off := c.Img.PixOffset(b.Min.X, y)
		if err := c.imgTiles.WriteRow(y-b.Min.Y, c.Img.Pix[off:off+c.Img.Stride]); err != nil {
			return err
		}
		aOff := c.Alpha.PixOffset(b.Min.X, y)
		if err := c.alphaTiles.WriteRow(y-b.Min.Y, c.Alpha.Pix[aOff:aOff+c.Alpha.Stride]); err != nil {
			return err
		}
	}
	return nil
}

// StepResult reports what a single Step call did, for the caller's
// diagnostic channel and for tests asserting on the SKIP branch.
type StepResult struct {
	Skipped bool
	Reason  error // non-nil only when Skipped
	Levels  int
}

// Step blends one overlay into composite in place, per spec.md §4.4.
func Step(composite *Composite, overlayImg *image.NRGBA, overlayAlpha *image.Alpha, cfg config.Config, log *diag.Logger) (StepResult, error) {
	canvas := composite.Alpha.Bounds()
	if overlayAlpha.Bounds() != canvas || overlayImg.Bounds() != canvas {
		return StepResult{}, blenderr.Wrap(blenderr.ErrFormat, "overlay dimensions do not match the composite canvas", nil)
	}

	// 1. UBB.
	ubb, err := geom.UBB(composite.Alpha, overlayAlpha)
	if err != nil {
		if errorsIsEmptyOverlay(err) {
			log.Warn("overlay is redundant, skipping")
			return StepResult{Skipped: true, Reason: err}, nil
		}
		return StepResult{}, err
	}

	// 2. MASK.
	m := mask.Build(composite.Alpha, overlayAlpha, ubb, cfg.DistanceNorm)
	log.MemoryEstimate("mask", ubb.Dx(), ubb.Dy(), 1)

	// 3. ROI/LEVELS. L is derived by trying successively fewer levels
	// until every level's smaller ROI dimension satisfies
	// 2*filterHalfWidth(level)+1, per spec.md §4.1's maxLevels cap.
	roi, l := resolveROIAndLevels(m, ubb, canvas, cfg.LevelCap)
	if l == 0 {
		log.Progress("overlay needs no blending (ROI empty or too small)")
		return StepResult{Skipped: true}, nil
	}
	log.Progress("roi=%v levels=%d", roi, l)

	// 4. COPY_OUTSIDE.
	copyOutside(composite, overlayImg, overlayAlpha, roi)

	// 5. BUILD_PYRAMIDS.
	overlayLevel := cropNRGBA(overlayImg, roi)
	overlayAlphaLevel := cropAlpha(overlayAlpha, roi)
	compositeLevel := cropNRGBA(composite.Img, roi)
	maskROI := maskOverROI(m, ubb, roi)

	// The overlay base level and the mask ROI are the two per-step
	// transients named directly in spec.md §4.5 ("overlay image" and
	// "mask"); round-trip each through a scoped TileStore handle before
	// they feed the pyramid builders.
	baseOverlay := pyramid.FromNRGBA(overlayLevel)
	if err := spillRestoreLevel(composite.Store(), "multiblend_overlay_*", baseOverlay); err != nil {
		return StepResult{}, err
	}
	baseMask := pyramid.FromAlpha(maskROI)
	if err := spillRestoreLevel(composite.Store(), "multiblend_mask_*", baseMask); err != nil {
		return StepResult{}, err
	}
	log.TileFootprint("overlay+mask transients", roi.Dy(), baseOverlay.W*baseOverlay.Channels*4+baseMask.W*baseMask.Channels*4)

	lb := pyramid.LaplacianPyramid(l, cfg.Wraparound, baseOverlay, overlayAlphaLevel)
	gm := pyramid.GaussianPyramid(l, cfg.Wraparound, baseMask, nil)
	lw := pyramid.LaplacianPyramid(l, cfg.Wraparound, pyramid.FromNRGBA(compositeLevel), nil)
	log.Detail("built %d-level pyramids over roi %v", l, roi)

	// The mask's Gaussian pyramid and the overlay's Laplacian pyramid are
	// the other two per-step transients spec.md §4.5 names; every level of
	// each is round-tripped through its own scoped handle.
	if err := spillRestorePyramid(composite.Store(), "multiblend_gm_%d_*", gm); err != nil {
		return StepResult{}, err
	}
	if err := spillRestorePyramid(composite.Store(), "multiblend_lb_%d_*", lb); err != nil {
		return StepResult{}, err
	}

	// 6. BLEND.
	blendLevels(lw, lb, gm)

	// 7. COLLAPSE.
	pyramid.Collapse(cfg.Wraparound, lw)

	// 8. WRITEBACK.
	writeback(composite, overlayAlpha, lw[0], roi)

	if err := composite.checkpoint(); err != nil {
		return StepResult{}, err
	}

	return StepResult{Levels: l}, nil
}

// spillRestoreLevel round-trips lvl through a freshly created, immediately
// released TileStore handle: a single-level analogue of spillRestorePyramid,
// used for the base overlay image and mask before they enter the pyramid
// builders.
func spillRestoreLevel(store *tilestore.Manager, pattern string, lvl *pyramid.Level) error {
	h, err := store.Create(pattern, 4, lvl.W*lvl.Channels*4)
	if err != nil {
		return err
	}
	defer h.Release()
	if err := lvl.SpillTo(h); err != nil {
		return err
	}
	return lvl.RestoreFrom(h)
}

// spillRestorePyramid round-trips every level of a pyramid through its own
// scoped TileStore handle, proving the out-of-core path spec.md §4.5 asks
// for is actually exercised rather than merely available.
func spillRestorePyramid(store *tilestore.Manager, pattern string, levels []*pyramid.Level) error {
	for i, lvl := range levels {
		if err := spillRestoreLevel(store, fmt.Sprintf(pattern, i), lvl); err != nil {
			return err
		}
	}
	return nil
}

func errorsIsEmptyOverlay(err error) bool {
	type isser interface{ Is(error) bool }
	if ie, ok := err.(isser); ok {
		return ie.Is(blenderr.ErrEmptyOverlay)
	}
	return false
}

// resolveROIAndLevels computes the ROI and caps L per spec.md §4.1:
// maxLevels(roi) further capped by cfg.LevelCap (if set, >0) and by the
// requirement that at every level the smaller image dimension remains at
// least 2*filterHalfWidth(level)+1.
func resolveROIAndLevels(m *image.Alpha, ubb, canvas image.Rectangle, levelCap int) (image.Rectangle, int) {
	// ROI's halfWidth depends on L, and L's cap depends on ROI's size —
	// spec.md breaks this circularity by using an ROI dilated by
	// filterHalfWidth(L-1) where L is first estimated as the canvas's own
	// maxLevels (an upper bound for any ROI inside it), then the dilated
	// ROI's own maxLevels is taken as the final L (monotone non-increasing
	// refinement).
	band := geom.TransitionBand(m)
	if band.Empty() {
		return image.Rectangle{}, 0
	}

	provisional := geom.MaxLevels(canvas)
	if levelCap > 0 && levelCap < provisional {
		provisional = levelCap
	}
	if provisional < 1 {
		provisional = 1
	}

	halfWidth := pyramid.FilterHalfWidth(provisional - 1)
	roi := geom.ROI(m, halfWidth, canvas.Sub(ubb.Min)).Add(ubb.Min)
	if roi.Empty() {
		return image.Rectangle{}, 0
	}

	l := geom.MaxLevels(roi)
	if levelCap > 0 && levelCap < l {
		l = levelCap
	}
	for l > 0 {
		small := roi.Dx()
		if roi.Dy() < small {
			small = roi.Dy()
		}
		if small >= 2*pyramid.FilterHalfWidth(l-1)+1 {
			break
		}
		l--
	}
	return roi, l
}

func cropNRGBA(img *image.NRGBA, r image.Rectangle) *image.NRGBA {
	out := image.NewNRGBA(image.Rect(0, 0, r.Dx(), r.Dy()))
	for y := 0; y < r.Dy(); y++ {
		srcOff := img.PixOffset(r.Min.X, r.Min.Y+y)
		copy(out.Pix[y*out.Stride:(y+1)*out.Stride], img.Pix[srcOff:srcOff+r.Dx()*4])
	}
	return out
}

func cropAlpha(a *image.Alpha, r image.Rectangle) *image.Alpha {
	out := image.NewAlpha(image.Rect(0, 0, r.Dx(), r.Dy()))
	for y := 0; y < r.Dy(); y++ {
		srcOff := a.PixOffset(r.Min.X, r.Min.Y+y)
		copy(out.Pix[y*out.Stride:(y+1)*out.Stride], a.Pix[srcOff:srcOff+r.Dx()])
	}
	return out
}

// maskOverROI returns the mask values over roi, local to roi's own origin;
// mask m is defined over ubb local coordinates, and roi may extend beyond
// ubb (per spec.md §4.4.5: "mask outside UBB is 0").
func maskOverROI(m *image.Alpha, ubb, roi image.Rectangle) *image.Alpha {
	out := image.NewAlpha(image.Rect(0, 0, roi.Dx(), roi.Dy()))
	for y := 0; y < roi.Dy(); y++ {
		cy := roi.Min.Y + y
		for x := 0; x < roi.Dx(); x++ {
			cx := roi.Min.X + x
			var v uint8
			if image.Pt(cx, cy).In(ubb) {
				v = m.Pix[m.PixOffset(cx-ubb.Min.X, cy-ubb.Min.Y)]
			}
			out.Pix[out.PixOffset(x, y)] = v
		}
	}
	return out
}

// copyOutside implements spec.md §4.4 step 4: for each pixel where the
// overlay's alpha is set but the composite's is not, and outside roi, copy
// the overlay pixel directly into the composite.
func copyOutside(composite *Composite, overlayImg *image.NRGBA, overlayAlpha *image.Alpha, roi image.Rectangle) {
	b := composite.Alpha.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if image.Pt(x, y).In(roi) {
				continue
			}
			oa := overlayAlpha.AlphaAt(x, y).A
			if oa == 0 {
				continue
			}
			if composite.Alpha.AlphaAt(x, y).A != 0 {
				continue
			}
			ci := composite.Img.PixOffset(x, y)
			oi := overlayImg.PixOffset(x, y)
			copy(composite.Img.Pix[ci:ci+4], overlayImg.Pix[oi:oi+4])
			composite.Alpha.Pix[composite.Alpha.PixOffset(x, y)] = oa
		}
	}
}

// blendLevels implements spec.md §4.4 step 6: per level, per pixel,
// LW[k] ← (GM[k]/MAX)·LW[k] + (1 − GM[k]/MAX)·LB[k], in LPPixel fixed point.
func blendLevels(lw, lb, gm []*pyramid.Level) {
	for k := range lw {
		w := lw[k]
		b := lb[k]
		g := gm[k]
		for i := range w.Pix {
			px := i / w.Channels
			gi := px // g has 1 channel per pixel
			alpha := g.Pix[gi]
			weight := float64(alpha) / float64(255*fixedpoint.One)
			w.Pix[i] = fixedpoint.MulRound(w.Pix[i], weight) +
				fixedpoint.MulRound(b.Pix[i], 1.0-weight)
		}
	}
}

// writeback implements spec.md §4.4 step 8: roi is exactly the band
// copyOutside left untouched, so every pixel inside it takes the collapsed,
// seam-blended pyramid result unconditionally — there is no per-pixel
// fallback keyed on the mask's own (strictly binary at level 0) value, since
// that would just reproduce the hard cut copyOutside already applied outside
// roi. The composite alpha becomes the union of the two input alphas.
func writeback(composite *Composite, overlayAlpha *image.Alpha, collapsed *pyramid.Level, roi image.Rectangle) {
	result := pyramid.ToNRGBA(collapsed, roi.Min)

	for y := 0; y < roi.Dy(); y++ {
		cy := roi.Min.Y + y
		for x := 0; x < roi.Dx(); x++ {
			cx := roi.Min.X + x

			ci := composite.Img.PixOffset(cx, cy)
			ri := result.PixOffset(cx, cy)
			copy(composite.Img.Pix[ci:ci+4], result.Pix[ri:ri+4])

			aIdx := composite.Alpha.PixOffset(cx, cy)
			oa := overlayAlpha.AlphaAt(cx, cy).A
			if oa > composite.Alpha.Pix[aIdx] {
				composite.Alpha.Pix[aIdx] = oa
			}
		}
	}
}

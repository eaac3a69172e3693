package pyramid

import (
	"image"

	"github.com/quietpixel/multiblend/internal/fixedpoint"
)

// GaussianPyramid builds an L-level Gaussian pyramid of src: level 0 is src
// itself, each subsequent level is Reduce of the previous. If alpha is
// non-nil it gates the reduce the way overlay/composite image pyramids must
// (pixels outside the image's own opaque region don't pollute the blur);
// mask pyramids (no natural "transparency" of their own within the ROI)
// pass a nil alpha and use the plain, unmasked Reduce.
func GaussianPyramid(levels int, wraparound bool, src *Level, alpha *image.Alpha) []*Level {
	gp := make([]*Level, 1, levels)
	gp[0] = src

	lastAlpha := alpha
	last := src
	for l := 1; l < levels; l++ {
		var next *Level
		if lastAlpha != nil {
			var nextAlpha *image.Alpha
			next, nextAlpha = ReduceMasked(wraparound, last, lastAlpha)
			lastAlpha = nextAlpha
		} else {
			next = Reduce(wraparound, last)
		}
		gp = append(gp, next)
		last = next
	}
	return gp
}

// LaplacianPyramid builds an L-level Laplacian pyramid: first a Gaussian
// pyramid, then each level but the last is replaced by its band-pass
// residual G[k] - expand(G[k+1]); the smallest level remains the Gaussian
// (DC) term, per spec.md §3's Pyramid invariant.
func LaplacianPyramid(levels int, wraparound bool, src *Level, alpha *image.Alpha) []*Level {
	gp := GaussianPyramid(levels, wraparound, src, alpha)
	for l := 0; l < len(gp)-1; l++ {
		Expand(wraparound, false, gp[l+1], gp[l])
	}
	return gp
}

// Collapse reconstructs an image from its Laplacian pyramid in place,
// working from the smallest level up to level 0, which becomes the output.
func Collapse(wraparound bool, levels []*Level) {
	for l := len(levels) - 2; l >= 0; l-- {
		Expand(wraparound, true, levels[l+1], levels[l])
	}
}

// FilterHalfWidth re-exports fixedpoint.FilterHalfWidth for callers that
// only import package pyramid.
func FilterHalfWidth(level int) int {
	return fixedpoint.FilterHalfWidth(level)
}

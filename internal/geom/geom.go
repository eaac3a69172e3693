// Package geom computes the bounding-box and region-of-interest geometry
// that drives one blend step: the union bounding box of two alpha layers
// and the region of interest a pyramid must actually be built over.
//
// The bounding-box scan is grounded on the teacher's pkg/stdimg.Trim, which
// scans every pixel tracking running min/max X/Y; UBB and the transition
// band scan here follow the same shape, generalized from a color-fuzz test
// to an alpha-nonzero test (UBB) and a 4-neighbour mask-disagreement test
// (transition band).
package geom

import (
	"image"

	"github.com/quietpixel/multiblend/internal/blenderr"
)

// UBB returns the smallest rectangle covering every pixel where alphaA or
// alphaB is non-zero. Both alpha layers must share the same Bounds(); that
// rectangle is also the canvas. Per spec.md §4.1, UBB fails with
// ErrEmptyOverlay if *either* input is entirely transparent — not only when
// their union is empty — since an overlay that is itself fully transparent
// contributes nothing regardless of how opaque the running composite is
// (spec.md §8's "Empty overlay" scenario: composite opaque everywhere,
// overlay fully transparent).
func UBB(alphaA, alphaB *image.Alpha) (image.Rectangle, error) {
	b := alphaA.Bounds()
	if b != alphaB.Bounds() {
		return image.Rectangle{}, blenderr.Wrap(blenderr.ErrFormat, "alpha layers have different bounds", nil)
	}

	minX, minY := b.Max.X, b.Max.Y
	maxX, maxY := b.Min.X-1, b.Min.Y-1
	var hasA, hasB bool

	for y := b.Min.Y; y < b.Max.Y; y++ {
		rowA := alphaA.Pix[(y-alphaA.Rect.Min.Y)*alphaA.Stride:]
		rowB := alphaB.Pix[(y-alphaB.Rect.Min.Y)*alphaB.Stride:]
		for x := b.Min.X; x < b.Max.X; x++ {
			ia := x - alphaA.Rect.Min.X
			ib := x - alphaB.Rect.Min.X
			a := rowA[ia] != 0
			bv := rowB[ib] != 0
			hasA = hasA || a
			hasB = hasB || bv
			if a || bv {
				if x < minX {
					minX = x
				}
				if x > maxX {
					maxX = x
				}
				if y < minY {
					minY = y
				}
				if y > maxY {
					maxY = y
				}
			}
		}
	}

	if !hasA || !hasB {
		return image.Rectangle{}, blenderr.Wrap(blenderr.ErrEmptyOverlay, "overlay adds no pixels to the composite", nil)
	}

	return image.Rect(minX, minY, maxX+1, maxY+1), nil
}

// TransitionBand returns the bounding box of every mask pixel that differs
// from at least one of its 4-connected neighbours, restricted to mask's own
// bounds. A mask with no transitions (e.g. fully saturated) yields an empty
// rectangle with Dx()==0 (the caller treats that as "no blending needed").
func TransitionBand(mask *image.Alpha) image.Rectangle {
	b := mask.Bounds()
	minX, minY := b.Max.X, b.Max.Y
	maxX, maxY := b.Min.X-1, b.Min.Y-1

	at := func(x, y int) uint8 {
		return mask.Pix[(y-mask.Rect.Min.Y)*mask.Stride+(x-mask.Rect.Min.X)]
	}
	// differs reports whether (x, y) lies inside the mask and holds a value
	// other than v; positions outside the mask are not neighbours.
	differs := func(v uint8, x, y int) bool {
		return x >= b.Min.X && x < b.Max.X && y >= b.Min.Y && y < b.Max.Y && at(x, y) != v
	}

	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			v := at(x, y)
			if differs(v, x-1, y) || differs(v, x+1, y) || differs(v, x, y-1) || differs(v, x, y+1) {
				if x < minX {
					minX = x
				}
				if x > maxX {
					maxX = x
				}
				if y < minY {
					minY = y
				}
				if y > maxY {
					maxY = y
				}
			}
		}
	}

	if maxX < minX || maxY < minY {
		return image.Rectangle{}
	}
	return image.Rect(minX, minY, maxX+1, maxY+1)
}

// ROI conservatively approximates the sub-rectangle of uBB over which an
// L-level pyramid must be built: the bounding box of mask's transition band,
// dilated by halfWidth on each side and clipped to canvas.
func ROI(mask *image.Alpha, halfWidth int, canvas image.Rectangle) image.Rectangle {
	band := TransitionBand(mask)
	if band.Empty() {
		return image.Rectangle{}
	}
	r := image.Rect(band.Min.X-halfWidth, band.Min.Y-halfWidth, band.Max.X+halfWidth, band.Max.Y+halfWidth)
	return r.Intersect(canvas)
}

// MaxLevels returns floor(log2(min(w, h))), the maximum pyramid depth that
// still halves at least one dimension down to a single pixel. The caller
// (pyramid.FilterHalfWidth-aware code in package blend) further caps this so
// every level's smaller dimension stays >= 2*halfWidth(level)+1.
func MaxLevels(roi image.Rectangle) int {
	w, h := roi.Dx(), roi.Dy()
	m := w
	if h < m {
		m = h
	}
	if m < 1 {
		return 0
	}
	levels := 0
	for (1 << uint(levels+1)) <= m {
		levels++
	}
	return levels
}

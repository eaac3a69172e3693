// Package mask builds the binary blend mask over the union region of two
// alpha layers, classifying each pixel into {neither, A-only, B-only, both}
// and resolving the overlap/void codes with a nearest-visible-source
// tie-break, grounded on original_source's mask.h (the classification
// codes: 0=neither, 1=white-only, 2=black-only, 3=both) and on openmp.h's
// distance-transform import (the tie-break policy spec.md §4.2/Open
// Questions adopts).
package mask

import "image"

// code classifies a single pixel's contribution.
type code uint8

const (
	codeNeither code = 0
	codeAOnly   code = 1
	codeBOnly   code = 2
	codeBoth    code = 3
)

// Build returns a mask image sized exactly ubb (local coordinates 0..ubb.Dx(),
// 0..ubb.Dy()), with values in {0, 255}: 255 means "take from A" (the
// running composite), 0 means "take from B" (the overlay). alphaA and
// alphaB must share the same Bounds() (the canvas) and ubb must lie within
// that canvas.
func Build(alphaA, alphaB *image.Alpha, ubb image.Rectangle, norm DistanceNorm) *image.Alpha {
	w, h := ubb.Dx(), ubb.Dy()
	codes := make([]code, w*h)

	for y := 0; y < h; y++ {
		cy := ubb.Min.Y + y
		for x := 0; x < w; x++ {
			cx := ubb.Min.X + x
			var c code
			if alphaA.AlphaAt(cx, cy).A != 0 {
				c |= codeAOnly
			}
			if alphaB.AlphaAt(cx, cy).A != 0 {
				c |= codeBOnly
			}
			codes[y*w+x] = c
		}
	}

	out := image.NewAlpha(image.Rect(0, 0, w, h))

	// Fast path: code-0 (void) never needs a distance transform (spec.md
	// §4.2 fixes its output at 0 regardless); only code-3 (overlap) does.
	needsTieBreak := false
	for _, c := range codes {
		if c == codeBoth {
			needsTieBreak = true
			break
		}
	}

	var dtA, dtB []float64
	if needsTieBreak {
		fgA := make([]bool, w*h)
		fgB := make([]bool, w*h)
		for i, c := range codes {
			fgA[i] = c&codeAOnly != 0
			fgB[i] = c&codeBOnly != 0
		}
		dtA = chamferDistanceTransform(fgA, w, h, norm)
		dtB = chamferDistanceTransform(fgB, w, h, norm)
	}

	for i, c := range codes {
		var v uint8
		switch c {
		case codeAOnly:
			v = 255
		case codeBOnly:
			v = 0
		case codeNeither:
			v = 0
		case codeBoth:
			if dtA[i] >= dtB[i] {
				v = 255
			} else {
				v = 0
			}
		}
		out.Pix[out.PixOffset(i%w, i/w)] = v
	}

	return out
}

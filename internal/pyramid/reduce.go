package pyramid

import "image"

// boundedX resolves a source column offset by kx around srcx under the
// configured horizontal boundary mode: wraparound (periodic, for 360°
// panoramas) or clamp (replicate the first/last column). Vertical is always
// clamped, because sphere panoramas only wrap horizontally (spec.md §4.3).
func boundedX(wraparound bool, srcx, kx, w int) int {
	x := srcx + kx
	if wraparound {
		if x < 0 {
			x += w
		} else if x >= w {
			x -= w
		}
		return x
	}
	if x < 0 {
		return 0
	}
	if x >= w {
		return w - 1
	}
	return x
}

func boundedY(srcy, ky, h int) int {
	y := srcy + ky
	if y < 0 {
		return 0
	}
	if y >= h {
		return h - 1
	}
	return y
}

// Reduce downsamples src by 2x with the 5-tap kernel, unmasked: every
// sample contributes, so no renormalization is needed. Output dimensions
// follow ReducedSize.
func Reduce(wraparound bool, src *Level) *Level {
	dw, dh := ReducedSize(src.W, src.H)
	dst := NewLevel(dw, dh, src.Channels)
	ch := src.Channels

	ParallelRows(0, dh, func(dy int) {
		srcy := dy * 2
		for dx := 0; dx < dw; dx++ {
			srcx := dx * 2
			var acc [4]float64
			for kx := -2; kx <= 2; kx++ {
				bx := boundedX(wraparound, srcx, kx, src.W)
				wx := W[kx+2]
				for ky := -2; ky <= 2; ky++ {
					by := boundedY(srcy, ky, src.H)
					wxy := wx * W[ky+2]
					so := src.offset(bx, by)
					for c := 0; c < ch; c++ {
						acc[c] += wxy * float64(src.Pix[so+c])
					}
				}
			}
			do := dst.offset(dx, dy)
			for c := 0; c < ch; c++ {
				dst.Pix[do+c] = int32(round(acc[c]))
			}
		}
	})
	return dst
}

// ReduceMasked downsamples src by 2x the same way as Reduce, but skips
// samples whose corresponding srcAlpha pixel is zero (transparent) and
// renormalizes by the sum of retained kernel-tap weights (tracked in the
// 100-scaled integer domain, W100, to avoid accumulating floating-point
// drift across levels — this matches pyramid.h's noContrib bookkeeping
// exactly). If every one of the 25 samples is masked out, the output pixel
// is left zero and the destination alpha is 0 (transparent); otherwise the
// destination alpha is fully opaque (255) — the per-pixel alpha pyramid
// used here is a binary any-contribution indicator, not a weighted average.
func ReduceMasked(wraparound bool, src *Level, srcAlpha *image.Alpha) (*Level, *image.Alpha) {
	dw, dh := ReducedSize(src.W, src.H)
	dst := NewLevel(dw, dh, src.Channels)
	dstAlpha := image.NewAlpha(image.Rect(0, 0, dw, dh))
	ch := src.Channels

	// srcAlpha is always 0-based and sized exactly (src.W, src.H), matching
	// the Level convention, so no Rect.Min offset is needed here.
	alphaAt := func(x, y int) bool {
		return srcAlpha.Pix[y*srcAlpha.Stride+x] != 0
	}

	ParallelRows(0, dh, func(dy int) {
		srcy := dy * 2
		for dx := 0; dx < dw; dx++ {
			srcx := dx * 2
			var acc [4]float64
			retained := 10000

			for kx := -2; kx <= 2; kx++ {
				bx := boundedX(wraparound, srcx, kx, src.W)
				for ky := -2; ky <= 2; ky++ {
					by := boundedY(srcy, ky, src.H)
					if alphaAt(bx, by) {
						wxy := W[kx+2] * W[ky+2]
						so := src.offset(bx, by)
						for c := 0; c < ch; c++ {
							acc[c] += wxy * float64(src.Pix[so+c])
						}
					} else {
						retained -= W100[kx+2] * W100[ky+2]
					}
				}
			}

			do := dst.offset(dx, dy)
			if retained != 0 {
				scale := float64(retained) / 10000.0
				for c := 0; c < ch; c++ {
					dst.Pix[do+c] = int32(round(acc[c] / scale))
				}
				dstAlpha.Pix[dstAlpha.PixOffset(dx, dy)] = 255
			}
		}
	})
	return dst, dstAlpha
}

func round(v float64) float64 {
	if v >= 0 {
		return float64(int64(v + 0.5))
	}
	return -float64(int64(-v + 0.5))
}

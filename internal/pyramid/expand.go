package pyramid

// parityTaps returns the kernel-tap offsets and their W-index for one axis
// of expand, selected by whether the destination coordinate along that axis
// is odd or even: an odd destination coordinate falls exactly between two
// source samples (a 2-tap subset of W), an even one falls exactly on a
// source sample (a 3-tap subset). This is expand's "odd/even parity select
// a 2-tap or 3-tap subset of W" from spec.md §4.3, translated from
// pyramid.h's destx/desty branches (the Go form doesn't carry the C
// `destx & 1 == 1` precedence trap spec.md's Open Questions calls out,
// since Go has no such operator-precedence hazard: `&` binds tighter than
// `==` is irrelevant here because Go requires explicit boolean operands).
func parityTaps(destOdd bool) (offsets [3]int, widx [3]int, n int) {
	if destOdd {
		return [3]int{0, 1, 0}, [3]int{1, 3, 0}, 2
	}
	return [3]int{-1, 0, 1}, [3]int{0, 2, 4}, 3
}

// Expand upsamples src by 2x with the 5-tap kernel and either adds (add) or
// subtracts (!add) the result into dst, which must already hold dst.W,
// dst.H matching the target (larger) resolution. The retained-weight
// renormalization sum is invariant at 2500/10000 = 0.25 for every
// even/odd parity combination (W100[1]+W100[3] == W100[0]+W100[2]+W100[4]
// == 50 on both axes), so unlike Reduce's per-pixel renormalization, Expand
// renormalizes by a single constant factor of 4.
func Expand(wraparound bool, add bool, src *Level, dst *Level) {
	ch := src.Channels

	ParallelRows(0, dst.H, func(desty int) {
		srcy := desty >> 1
		yOffsets, yIdx, yN := parityTaps(desty&1 == 1)

		for destx := 0; destx < dst.W; destx++ {
			srcx := destx >> 1
			xOffsets, xIdx, xN := parityTaps(destx&1 == 1)

			var acc [4]float64
			for i := 0; i < xN; i++ {
				bx := boundedX(wraparound, srcx, xOffsets[i], src.W)
				wx := W[xIdx[i]]
				for j := 0; j < yN; j++ {
					by := boundedY(srcy, yOffsets[j], src.H)
					wxy := wx * W[yIdx[j]]
					so := src.offset(bx, by)
					for c := 0; c < ch; c++ {
						acc[c] += wxy * float64(src.Pix[so+c])
					}
				}
			}

			do := dst.offset(destx, desty)
			for c := 0; c < ch; c++ {
				p := int32(round(acc[c] / 0.25))
				if add {
					dst.Pix[do+c] += p
				} else {
					dst.Pix[do+c] -= p
				}
			}
		}
	})
}

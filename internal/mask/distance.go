// distance.go implements the distance transforms behind the mask's
// nearest-visible-source tie-break policy (spec.md §4.2). original_source's
// openmp.h imports vigra/distancetransform.hxx, confirming a chamfer-style
// distance transform is the intended mechanism; this is a standard two-pass
// chamfer implementation supporting all three norms spec.md allows the
// implementer to expose as a config knob.
package mask

// DistanceNorm selects which distance metric the mask tie-break uses.
type DistanceNorm int

const (
	// Chebyshev (chessboard) distance: axis and diagonal steps cost 1.
	Chebyshev DistanceNorm = iota
	// Manhattan (city-block) distance: only axis steps, cost 1.
	Manhattan
	// Euclidean distance, approximated by the classic 1/√2-weighted
	// chamfer two-pass (axis steps cost 1, diagonal steps cost √2).
	Euclidean
)

const infDist = 1 << 30

// chamferDistanceTransform returns, for each pixel in a w×h binary image
// (foreground[y*w+x] true), its distance to the nearest background (false)
// pixel. Background pixels have distance 0.
func chamferDistanceTransform(foreground []bool, w, h int, norm DistanceNorm) []float64 {
	dist := make([]float64, w*h)
	for i, fg := range foreground {
		if fg {
			dist[i] = infDist
		}
	}

	axis := 1.0
	var diag float64
	includeDiagonals := norm != Manhattan
	if norm == Euclidean {
		diag = 1.4142135623730951
	} else {
		diag = 1.0
	}

	at := func(x, y int) float64 {
		if x < 0 || x >= w || y < 0 || y >= h {
			return infDist
		}
		return dist[y*w+x]
	}

	// Forward pass: top-to-bottom, left-to-right, looking at already-visited
	// neighbours (up, left, and — for 8-connectivity — the two upper
	// diagonals).
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			i := y*w + x
			if !foreground[i] {
				continue
			}
			d := dist[i]
			if v := at(x-1, y) + axis; v < d {
				d = v
			}
			if v := at(x, y-1) + axis; v < d {
				d = v
			}
			if includeDiagonals {
				if v := at(x-1, y-1) + diag; v < d {
					d = v
				}
				if v := at(x+1, y-1) + diag; v < d {
					d = v
				}
			}
			dist[i] = d
		}
	}

	// Backward pass: bottom-to-top, right-to-left, looking at the
	// complementary (down, right, lower-diagonal) neighbours.
	for y := h - 1; y >= 0; y-- {
		for x := w - 1; x >= 0; x-- {
			i := y*w + x
			if !foreground[i] {
				continue
			}
			d := dist[i]
			if v := at(x+1, y) + axis; v < d {
				d = v
			}
			if v := at(x, y+1) + axis; v < d {
				d = v
			}
			if includeDiagonals {
				if v := at(x+1, y+1) + diag; v < d {
					d = v
				}
				if v := at(x-1, y+1) + diag; v < d {
					d = v
				}
			}
			dist[i] = d
		}
	}

	return dist
}

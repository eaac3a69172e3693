// Package pyramid implements the Gaussian/Laplacian pyramid operators:
// reduce, expand, and the pyramid builders that compose them, plus the
// filter-half-width bound that determines maximum usable pyramid depth.
//
// Boundary handling, the 5-tap kernel, and the renormalization-by-retained-
// weight bookkeeping are translated directly from original_source's
// pyramid.h (enblend's reduce/expand templates); the parallel-rows dispatch
// pattern is grounded on the teacher's pkg/stdimg.SeparableGaussianBlur.
package pyramid

import (
	"image"

	"github.com/quietpixel/multiblend/internal/fixedpoint"
)

// W is the separable 5-tap low-pass kernel, a = 0.4.
var W = [5]float64{0.25 - 0.4/2.0, 0.25, 0.4, 0.25, 0.25 - 0.4/2.0}

// W100 is the 100-scaled integer form of W, used to renormalize partially
// masked filter taps without accumulating floating-point error across many
// pyramid levels.
var W100 = [5]int{25 - 20, 25, 40, 25, 25 - 20}

// Level is one plane of a Gaussian or Laplacian pyramid: a flat,
// channel-interleaved buffer of fixed-point samples (package fixedpoint).
// Channels is 4 for an RGBA image pyramid level and 1 for a mask pyramid
// level — the "small generic over value types" spec.md's Design Notes call
// for, implemented as a channel count rather than a Go generic, since every
// channel of an RGBA pixel is filtered identically and independently (as
// vigra's NumericTraits-based component-wise arithmetic does).
type Level struct {
	Pix      []int32
	W, H     int
	Channels int
}

// NewLevel allocates a zeroed level of the given size.
func NewLevel(w, h, channels int) *Level {
	return &Level{
		Pix:      make([]int32, w*h*channels),
		W:        w,
		H:        h,
		Channels: channels,
	}
}

func (l *Level) offset(x, y int) int {
	return (y*l.W + x) * l.Channels
}

// At returns the raw fixed-point sample for (x, y, channel).
func (l *Level) At(x, y, c int) int32 {
	return l.Pix[l.offset(x, y)+c]
}

// Set writes a raw fixed-point sample for (x, y, channel).
func (l *Level) Set(x, y, c int, v int32) {
	l.Pix[l.offset(x, y)+c] = v
}

// ReducedSize returns the ceil(w/2), ceil(h/2) dimensions of the next
// (smaller) pyramid level, per spec.md §3's Pyramid invariant.
func ReducedSize(w, h int) (int, int) {
	return (w + 1) >> 1, (h + 1) >> 1
}

// FromNRGBA copies an *image.NRGBA into a new 4-channel fixed-point level.
func FromNRGBA(src *image.NRGBA) *Level {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	l := NewLevel(w, h, 4)
	for y := 0; y < h; y++ {
		srcRow := src.Pix[(y)*src.Stride:]
		dstRow := l.Pix[y*w*4:]
		for x := 0; x < w; x++ {
			si := x * 4
			dstRow[x*4+0] = fixedpoint.FromU8(srcRow[si+0])
			dstRow[x*4+1] = fixedpoint.FromU8(srcRow[si+1])
			dstRow[x*4+2] = fixedpoint.FromU8(srcRow[si+2])
			dstRow[x*4+3] = fixedpoint.FromU8(srcRow[si+3])
		}
	}
	return l
}

// ToNRGBA demotes a 4-channel fixed-point level back into an *image.NRGBA
// anchored at min.
func ToNRGBA(l *Level, min image.Point) *image.NRGBA {
	out := image.NewNRGBA(image.Rect(min.X, min.Y, min.X+l.W, min.Y+l.H))
	for y := 0; y < l.H; y++ {
		srcRow := l.Pix[y*l.W*4:]
		dstRow := out.Pix[y*out.Stride:]
		for x := 0; x < l.W; x++ {
			di := x * 4
			dstRow[di+0] = fixedpoint.ToU8(srcRow[x*4+0])
			dstRow[di+1] = fixedpoint.ToU8(srcRow[x*4+1])
			dstRow[di+2] = fixedpoint.ToU8(srcRow[x*4+2])
			dstRow[di+3] = fixedpoint.ToU8(srcRow[x*4+3])
		}
	}
	return out
}

// FromAlpha copies an *image.Alpha into a new 1-channel fixed-point level.
func FromAlpha(src *image.Alpha) *Level {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	l := NewLevel(w, h, 1)
	for y := 0; y < h; y++ {
		srcRow := src.Pix[y*src.Stride:]
		for x := 0; x < w; x++ {
			l.Pix[y*w+x] = fixedpoint.FromU8(srcRow[x])
		}
	}
	return l
}

// ToAlpha demotes a 1-channel fixed-point level back into an *image.Alpha
// anchored at min.
func ToAlpha(l *Level, min image.Point) *image.Alpha {
	out := image.NewAlpha(image.Rect(min.X, min.Y, min.X+l.W, min.Y+l.H))
	for y := 0; y < l.H; y++ {
		dstRow := out.Pix[y*out.Stride:]
		srcRow := l.Pix[y*l.W:]
		for x := 0; x < l.W; x++ {
			dstRow[x] = fixedpoint.ToU8(srcRow[x])
		}
	}
	return out
}

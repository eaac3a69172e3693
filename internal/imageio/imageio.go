// Package imageio is the decode/encode collaborator spec.md §1 names as
// "out of scope" for the core, referenced only through this interface: it
// turns file paths into the (composite-compatible) *image.NRGBA + alpha
// pairs the blend core operates on, and writes the final composite back
// out in the output contract spec.md §6 defines.
package imageio

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/draw"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"

	"golang.org/x/image/tiff"

	"github.com/quietpixel/multiblend/internal/blenderr"
)

// errNoFallback is returned by decodeFallback when no alternate decoder is
// compiled in (the default, !imagick build).
var errNoFallback = errors.New("imageio: no alternate decoder available")

// Load decodes path with the registered image decoders (the stdlib's PNG,
// JPEG and GIF, plus TIFF, which the golang.org/x/image/tiff import
// registers) and returns it as an NRGBA image plus its alpha channel
// split out, matching the pyramid/mask packages' separate-plane convention.
// Build with the imagick tag (see imagick_decode.go) to additionally accept
// formats the stdlib can't decode.
func Load(path string) (*image.NRGBA, *image.Alpha, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, blenderr.Wrap(blenderr.ErrIO, fmt.Sprintf("opening %s", path), err)
	}

	src, format, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		if alt, altErr := decodeFallback(path); altErr == nil {
			src, format = alt, ""
		} else {
			return nil, nil, blenderr.Wrap(blenderr.ErrFormat, fmt.Sprintf("decoding %s", path), err)
		}
	}

	img, alpha, err := split(src)
	if err != nil {
		return nil, nil, err
	}

	// JPEG inputs may carry an EXIF rotation/flip tag; spec.md §6 requires
	// every input normalized to the top-left raster convention before it
	// enters the blend pipeline, since the pyramid and mask packages assume
	// row 0 is the top row with no further reorientation.
	if format == "jpeg" {
		if o := jpegOrientation(raw); o > 1 {
			img = normalizeOrientation(img, o)
			alpha = image.NewAlpha(img.Bounds())
			for y := img.Rect.Min.Y; y < img.Rect.Max.Y; y++ {
				for x := img.Rect.Min.X; x < img.Rect.Max.X; x++ {
					alpha.Pix[alpha.PixOffset(x, y)] = img.Pix[img.PixOffset(x, y)+3]
				}
			}
		}
	}

	return img, alpha, nil
}

func split(src image.Image) (*image.NRGBA, *image.Alpha, error) {
	b := src.Bounds()
	img := image.NewNRGBA(b)
	draw.Draw(img, b, src, b.Min, draw.Src)

	alpha := image.NewAlpha(b)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			alpha.Pix[alpha.PixOffset(x, y)] = img.Pix[img.PixOffset(x, y)+3]
		}
	}
	return img, alpha, nil
}

// CheckCompatible enforces spec.md §6/§7: every input must share input #1's
// (W, H) and 8-bit RGBA channel layout.
func CheckCompatible(first, other *image.NRGBA) error {
	if first.Bounds().Size() != other.Bounds().Size() {
		return blenderr.Wrap(blenderr.ErrFormat, "input dimensions do not match input #1", nil)
	}
	return nil
}

// Save writes composite out in spec.md §6's output contract: width W,
// height H, 4 samples per pixel at 8 bits each, RGB photometric and chunky
// planar configuration (every input is decoded into NRGBA, so the output is
// RGB whatever input #1's own photometric interpretation was), an
// extra-samples tag marking channel 4 as associated alpha, orientation top-left (the default coordinate
// convention of image.NRGBA and golang.org/x/image/tiff's encoder). TIFF is
// the chosen output raster format: golang.org/x/image/tiff is the only
// format-capable dependency the corpus supplies beyond the stdlib codecs,
// and only it exposes the extra-samples/associated-alpha tag spec.md §6
// requires.
func Save(path string, composite *image.NRGBA, alpha *image.Alpha) error {
	b := composite.Bounds()
	out := image.NewNRGBA(b)
	copy(out.Pix, composite.Pix)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			out.Pix[out.PixOffset(x, y)+3] = alpha.Pix[alpha.PixOffset(x, y)]
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return blenderr.Wrap(blenderr.ErrIO, fmt.Sprintf("creating %s", path), err)
	}
	defer f.Close()

	// The TIFF encoder tags *image.RGBA's fourth sample as associated alpha
	// (and *image.NRGBA's as unassociated), so encode premultiplied samples.
	premul := image.NewRGBA(b)
	draw.Draw(premul, b, out, b.Min, draw.Src)
	if err := tiff.Encode(f, premul, &tiff.Options{Compression: tiff.Deflate, Predictor: true}); err != nil {
		return blenderr.Wrap(blenderr.ErrIO, fmt.Sprintf("encoding %s", path), err)
	}
	return nil
}

// RemoveIfExists removes path, ignoring a not-exist error; used to honour
// spec.md §7's "on fatal error, the output file, if already opened, is
// removed."
func RemoveIfExists(path string) {
	if path == "" {
		return
	}
	_ = os.Remove(path)
}

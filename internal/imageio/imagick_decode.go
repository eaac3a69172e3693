//go:build imagick

package imageio

import (
	"image"

	"gopkg.in/gographics/imagick.v3/imagick"
)

// decodeFallback decodes path with ImageMagick, for input formats the
// stdlib image package can't read (exotic panorama TIFF photometric
// layouts in particular). The teacher's go.mod already declares this
// dependency without ever importing it; this build-tagged file is the
// component that actually exercises it, mirroring the teacher's own split
// between a pure-Go engine (pkg/stdimg) and an ImageMagick-backed one.
func decodeFallback(path string) (image.Image, error) {
	imagick.Initialize()
	defer imagick.Terminate()

	mw := imagick.NewMagickWand()
	defer mw.Destroy()

	if err := mw.ReadImage(path); err != nil {
		return nil, err
	}

	w := int(mw.GetImageWidth())
	h := int(mw.GetImageHeight())
	out := image.NewNRGBA(image.Rect(0, 0, w, h))

	pixels, err := mw.ExportImagePixels(0, 0, uint(w), uint(h), "RGBA", imagick.PIXEL_CHAR)
	if err != nil {
		return nil, err
	}
	bytes, ok := pixels.([]byte)
	if !ok {
		return nil, errNoFallback
	}
	copy(out.Pix, bytes)

	return out, nil
}

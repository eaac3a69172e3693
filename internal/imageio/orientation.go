package imageio

import (
	"encoding/binary"
	"errors"
	"image"
)

// jpegOrientation reads the EXIF orientation tag (IFD0, tag 0x0112) out of a
// JPEG byte stream, returning 0 if the file carries no Exif APP1 segment or
// no orientation tag. It walks only as far as IFD0 - enough for orientation,
// which every camera and stitching tool writes there - unlike the teacher's
// pkg/cli EXIF reader this drops the ExifIFD/GPS IFD traversal and the
// rational/ASCII tag decoding, since spec.md's pipeline has no use for
// exposure or GPS metadata.
//
// Grounded on the teacher's pkg/cli/utils.go (parseTIFFStartFromJPEG,
// readEXIFTags, extractJPEGOrientation) and pkg/cli/exif.go, narrowed to the
// one tag this pipeline's normalize-to-top-left step needs.
func jpegOrientation(data []byte) int {
	tiffStart, err := jpegTIFFStart(data)
	if err != nil {
		return 0
	}
	if tiffStart+8 > len(data) {
		return 0
	}

	var order binary.ByteOrder
	switch {
	case data[tiffStart] == 'M' && data[tiffStart+1] == 'M':
		order = binary.BigEndian
	case data[tiffStart] == 'I' && data[tiffStart+1] == 'I':
		order = binary.LittleEndian
	default:
		return 0
	}
	if order.Uint16(data[tiffStart+2:tiffStart+4]) != 0x002A {
		return 0
	}

	ifd0 := tiffStart + int(order.Uint32(data[tiffStart+4:tiffStart+8]))
	if ifd0 <= tiffStart || ifd0+2 > len(data) {
		return 0
	}
	n := int(order.Uint16(data[ifd0 : ifd0+2]))
	base := ifd0 + 2
	for i := 0; i < n; i++ {
		ent := base + i*12
		if ent+12 > len(data) {
			break
		}
		tag := order.Uint16(data[ent : ent+2])
		if tag != 0x0112 {
			continue
		}
		typ := order.Uint16(data[ent+2 : ent+4])
		if typ != 3 { // SHORT
			return 0
		}
		v := int(order.Uint16(data[ent+8 : ent+10]))
		if v < 1 || v > 8 {
			return 0
		}
		return v
	}
	return 0
}

var errNoExifSegment = errors.New("imageio: no exif segment")

// jpegTIFFStart scans JPEG markers for an APP1 "Exif\0\0" segment and returns
// the byte offset where the embedded TIFF header begins.
func jpegTIFFStart(data []byte) (int, error) {
	if len(data) < 4 || data[0] != 0xFF || data[1] != 0xD8 {
		return 0, errNoExifSegment
	}
	i := 2
	for i+4 < len(data) {
		if data[i] != 0xFF {
			i++
			continue
		}
		marker := data[i+1]
		if marker == 0xDA {
			break
		}
		segLen := int(data[i+2])<<8 | int(data[i+3])
		if marker == 0xE1 && segLen >= 8 && i+10 <= len(data) && string(data[i+4:i+10]) == "Exif\x00\x00" {
			return i + 10, nil
		}
		if segLen <= 2 {
			i += 2
		} else {
			i += 2 + segLen
		}
	}
	return 0, errNoExifSegment
}

// normalizeOrientation applies an EXIF orientation value (1..8) to img,
// returning img unchanged for the identity case (1) or an unrecognized
// value. Transform shapes are grounded on the teacher's
// pkg/stdimg/auto_orient.go; spec.md §6 requires every input normalized to
// the top-left raster convention image.NRGBA already assumes, so a
// stitched-from-cameras overlay carrying a rotation tag lines up with the
// running composite instead of silently blending sideways.
func normalizeOrientation(img *image.NRGBA, orientation int) *image.NRGBA {
	switch orientation {
	case 2:
		return flopNRGBA(img)
	case 3:
		return rotate180NRGBA(img)
	case 4:
		return flipNRGBA(img)
	case 5:
		return flopNRGBA(rotate90CWNRGBA(img))
	case 6:
		return rotate90CWNRGBA(img)
	case 7:
		return flopNRGBA(rotate90CCWNRGBA(img))
	case 8:
		return rotate90CCWNRGBA(img)
	default:
		return img
	}
}

func flipNRGBA(src *image.NRGBA) *image.NRGBA {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	out := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			si := src.PixOffset(b.Min.X+x, b.Min.Y+y)
			di := out.PixOffset(x, h-1-y)
			copy(out.Pix[di:di+4], src.Pix[si:si+4])
		}
	}
	return out
}

func flopNRGBA(src *image.NRGBA) *image.NRGBA {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	out := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			si := src.PixOffset(b.Min.X+x, b.Min.Y+y)
			di := out.PixOffset(w-1-x, y)
			copy(out.Pix[di:di+4], src.Pix[si:si+4])
		}
	}
	return out
}

func rotate180NRGBA(src *image.NRGBA) *image.NRGBA {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	out := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			si := src.PixOffset(b.Min.X+x, b.Min.Y+y)
			di := out.PixOffset(w-1-x, h-1-y)
			copy(out.Pix[di:di+4], src.Pix[si:si+4])
		}
	}
	return out
}

func rotate90CWNRGBA(src *image.NRGBA) *image.NRGBA {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	out := image.NewNRGBA(image.Rect(0, 0, h, w))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			si := src.PixOffset(b.Min.X+x, b.Min.Y+y)
			di := out.PixOffset(h-1-y, x)
			copy(out.Pix[di:di+4], src.Pix[si:si+4])
		}
	}
	return out
}

func rotate90CCWNRGBA(src *image.NRGBA) *image.NRGBA {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	out := image.NewNRGBA(image.Rect(0, 0, h, w))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			si := src.PixOffset(b.Min.X+x, b.Min.Y+y)
			di := out.PixOffset(y, w-1-x)
			copy(out.Pix[di:di+4], src.Pix[si:si+4])
		}
	}
	return out
}

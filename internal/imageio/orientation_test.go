package imageio

import (
	"bytes"
	"encoding/binary"
	"image"
	"image/color"
	"testing"
)

// buildJPEGWithOrientation builds a minimal JPEG APP1/Exif segment carrying
// only the IFD0 orientation tag, little-endian TIFF byte order.
func buildJPEGWithOrientation(orientation uint16) []byte {
	var tiff bytes.Buffer
	tiff.Write([]byte{'I', 'I'})
	binary.Write(&tiff, binary.LittleEndian, uint16(0x2A))
	binary.Write(&tiff, binary.LittleEndian, uint32(8))
	binary.Write(&tiff, binary.LittleEndian, uint16(1)) // one IFD0 entry
	binary.Write(&tiff, binary.LittleEndian, uint16(0x0112))
	binary.Write(&tiff, binary.LittleEndian, uint16(3)) // SHORT
	binary.Write(&tiff, binary.LittleEndian, uint32(1))
	binary.Write(&tiff, binary.LittleEndian, orientation)
	binary.Write(&tiff, binary.LittleEndian, uint16(0)) // pad inline value to 4 bytes
	binary.Write(&tiff, binary.LittleEndian, uint32(0)) // next IFD offset

	var out bytes.Buffer
	out.Write([]byte{0xFF, 0xD8, 0xFF, 0xE1})
	binary.Write(&out, binary.BigEndian, uint16(2+6+tiff.Len()))
	out.Write([]byte("Exif\x00\x00"))
	out.Write(tiff.Bytes())
	out.Write([]byte{0xFF, 0xD9})
	return out.Bytes()
}

func TestJPEGOrientationReadsIFD0Tag(t *testing.T) {
	data := buildJPEGWithOrientation(6)
	if got := jpegOrientation(data); got != 6 {
		t.Fatalf("jpegOrientation = %d, want 6", got)
	}
}

func TestJPEGOrientationNoExifSegmentIsZero(t *testing.T) {
	if got := jpegOrientation([]byte{0xFF, 0xD8, 0xFF, 0xD9}); got != 0 {
		t.Fatalf("jpegOrientation with no APP1 = %d, want 0", got)
	}
}

func TestJPEGOrientationMalformedOffsetDoesNotPanic(t *testing.T) {
	data := []byte{0xFF, 0xD8, 0xFF, 0xE1, 0x00, 0x0A}
	data = append(data, []byte("Exif\x00\x00")...)
	data = append(data, 'I', 'I', 0x2A, 0x00, 0xFF, 0xFF, 0xFF, 0x7F)
	if got := jpegOrientation(data); got != 0 {
		t.Fatalf("jpegOrientation with a bogus IFD0 offset = %d, want 0", got)
	}
}

// asymmetric builds a W!=H NRGBA where every pixel is distinct, so a
// transform that confuses rows/columns or mirrors the wrong axis shows up.
func asymmetric(w, h int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, color.NRGBA{R: uint8(x), G: uint8(y), B: 0, A: 255})
		}
	}
	return img
}

func TestNormalizeOrientationIdentityForOneAndUnknown(t *testing.T) {
	src := asymmetric(3, 2)
	if got := normalizeOrientation(src, 1); got != src {
		t.Fatalf("orientation 1 should return the image unchanged")
	}
	if got := normalizeOrientation(src, 0); got != src {
		t.Fatalf("unrecognized orientation should return the image unchanged")
	}
}

func TestNormalizeOrientation6Is90DegreesClockwise(t *testing.T) {
	src := asymmetric(3, 2) // 3 wide, 2 tall
	got := normalizeOrientation(src, 6)
	b := got.Bounds()
	if b.Dx() != 2 || b.Dy() != 3 {
		t.Fatalf("rotated bounds = %v, want 2x3", b)
	}
	// top-left of the rotated image is the bottom-left of the source.
	want := src.NRGBAAt(0, 1)
	got0 := got.NRGBAAt(0, 0)
	if got0 != want {
		t.Fatalf("rotate90CW(0,0) = %v, want %v", got0, want)
	}
}

func TestNormalizeOrientation3Is180Degrees(t *testing.T) {
	src := asymmetric(4, 3)
	got := normalizeOrientation(src, 3)
	b := src.Bounds()
	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			want := src.NRGBAAt(x, y)
			gv := got.NRGBAAt(b.Dx()-1-x, b.Dy()-1-y)
			if gv != want {
				t.Fatalf("rotate180 mismatch at (%d,%d): got %v want %v", x, y, gv, want)
			}
		}
	}
}

package pyramid

import (
	"encoding/binary"

	"github.com/quietpixel/multiblend/internal/tilestore"
)

// SpillTo durably writes every row of l's fixed-point samples to h, one
// little-endian int32 per sample. h must have been created with a row width
// of l.W*l.Channels*4 bytes — spec.md §4.5's out-of-core contract for the
// per-step transient pyramid levels built over a blend step's ROI.
func (l *Level) SpillTo(h *tilestore.Handle) error {
	rowLen := l.W * l.Channels
	buf := make([]byte, rowLen*4)
	for y := 0; y < l.H; y++ {
		row := l.Pix[y*rowLen : (y+1)*rowLen]
		for i, v := range row {
			binary.LittleEndian.PutUint32(buf[i*4:i*4+4], uint32(v))
		}
		if err := h.WriteRow(y, buf); err != nil {
			return err
		}
	}
	return nil
}

// RestoreFrom overwrites l's samples by reading every row back from h, the
// read half of the SpillTo round trip.
func (l *Level) RestoreFrom(h *tilestore.Handle) error {
	rowLen := l.W * l.Channels
	buf := make([]byte, rowLen*4)
	for y := 0; y < l.H; y++ {
		if err := h.ReadRow(y, buf); err != nil {
			return err
		}
		row := l.Pix[y*rowLen : (y+1)*rowLen]
		for i := range row {
			row[i] = int32(binary.LittleEndian.Uint32(buf[i*4 : i*4+4]))
		}
	}
	return nil
}

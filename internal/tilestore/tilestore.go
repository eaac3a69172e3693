// Package tilestore implements the out-of-core, row-oriented backing store
// that lets pyramids and masks exceed available memory (spec.md §4.5). It
// follows the temporary-file naming convention from original_source's
// mask.h (".enblend_mask_XXXXXX", created with mkstemp) — translated to
// os.CreateTemp with a "multiblend_" prefix — and the scoped-lifetime
// discipline spec.md §9 Design Notes calls for: every Handle is released on
// all exit paths, and any handle still open when the process exits is
// cleaned up by a shutdown hook.
package tilestore

import (
	"fmt"
	"io"
	"os"

	"github.com/quietpixel/multiblend/internal/blenderr"
)

// Handle is a unique-ownership, positionally-addressable byte sequence
// backed by a temporary file. Its element size and row width are fixed at
// creation; total length grows as rows are written.
type Handle struct {
	f         *os.File
	path      string
	elemSize  int
	rowWidth  int // bytes per row = elemSize * pixels-per-row
	released  bool
	manager   *Manager
}

// Manager tracks every Handle created through it, so a shutdown hook can
// release any handle a blend step leaked (spec.md §4.5: "Any unreleased
// handle at program exit must be released by the shutdown path").
type Manager struct {
	dir     string
	handles map[*Handle]struct{}
}

// NewManager returns a Manager that creates its temporary files under dir
// (the process's temp directory when dir is "").
func NewManager(dir string) *Manager {
	return &Manager{dir: dir, handles: make(map[*Handle]struct{})}
}

// Create allocates a new Handle backed by a freshly created temporary file
// named from pattern (an os.CreateTemp-style pattern containing exactly one
// "*", e.g. "multiblend_mask_*").
func (m *Manager) Create(pattern string, elemSize, rowWidth int) (*Handle, error) {
	f, err := os.CreateTemp(m.dir, pattern)
	if err != nil {
		return nil, blenderr.Wrap(blenderr.ErrIO, fmt.Sprintf("creating tile store %q", pattern), err)
	}
	h := &Handle{f: f, path: f.Name(), elemSize: elemSize, rowWidth: rowWidth, manager: m}
	m.handles[h] = struct{}{}
	return h, nil
}

// Shutdown releases every handle this manager still tracks. It is meant to
// run from a deferred cleanup hook at program exit, covering blend steps
// that aborted without releasing their transient stores.
func (m *Manager) Shutdown() {
	for h := range m.handles {
		_ = h.Release()
	}
}

// Path returns the backing file's path (for diagnostics only).
func (h *Handle) Path() string { return h.path }

// WriteRow writes exactly rowWidth bytes at row y.
func (h *Handle) WriteRow(y int, data []byte) error {
	if len(data) != h.rowWidth {
		return blenderr.Wrap(blenderr.ErrIO, fmt.Sprintf("tile store %s: row %d: expected %d bytes, got %d", h.path, y, h.rowWidth, len(data)), nil)
	}
	return h.WriteAt(int64(y)*int64(h.rowWidth), data)
}

// ReadRow reads exactly rowWidth bytes from row y into buf.
func (h *Handle) ReadRow(y int, buf []byte) error {
	if len(buf) != h.rowWidth {
		return blenderr.Wrap(blenderr.ErrIO, fmt.Sprintf("tile store %s: row %d: buffer is %d bytes, want %d", h.path, y, len(buf), h.rowWidth), nil)
	}
	return h.ReadAt(int64(y)*int64(h.rowWidth), buf)
}

// WriteAt writes data at the given byte offset.
func (h *Handle) WriteAt(offset int64, data []byte) error {
	if _, err := h.f.WriteAt(data, offset); err != nil {
		return blenderr.Wrap(blenderr.ErrIO, fmt.Sprintf("tile store %s: write at %d", h.path, offset), err)
	}
	return nil
}

// ReadAt reads into buf starting at the given byte offset.
func (h *Handle) ReadAt(offset int64, buf []byte) error {
	if _, err := h.f.ReadAt(buf, offset); err != nil && err != io.EOF {
		return blenderr.Wrap(blenderr.ErrIO, fmt.Sprintf("tile store %s: read at %d", h.path, offset), err)
	}
	return nil
}

// Release closes and deletes the backing file. It is safe to call more than
// once.
func (h *Handle) Release() error {
	if h.released {
		return nil
	}
	h.released = true
	delete(h.manager.handles, h)
	closeErr := h.f.Close()
	removeErr := os.Remove(h.path)
	if closeErr != nil {
		return blenderr.Wrap(blenderr.ErrIO, fmt.Sprintf("closing tile store %s", h.path), closeErr)
	}
	if removeErr != nil && !os.IsNotExist(removeErr) {
		return blenderr.Wrap(blenderr.ErrIO, fmt.Sprintf("removing tile store %s", h.path), removeErr)
	}
	return nil
}

// RowWidth returns the configured row width in bytes.
func (h *Handle) RowWidth() int { return h.rowWidth }

// ElemSize returns the configured element size in bytes.
func (h *Handle) ElemSize() int { return h.elemSize }

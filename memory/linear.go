// Package memory implements the growable, bounds-checked linear memory
// region a module instance operates on.
package memory

import (
	"encoding/binary"
	"fmt"
	"math"

	wasmerrors "wasmguard/errors"
)

// PageSize is the fixed size, in bytes, of one linear-memory page.
const PageSize = 65536

// MaxPages is the absolute ceiling on page count, regardless of a memory's
// own declared maximum.
const MaxPages = 65536

// LinearMemory is a contiguous byte buffer whose length is always an exact
// multiple of PageSize. It is owned exclusively by one instance and mutable
// only through its own methods.
type LinearMemory struct {
	data []byte
	min  uint32
	max  *uint32
}

// New allocates a LinearMemory of min pages, zeroed, with an optional max.
func New(min uint32, max *uint32) (*LinearMemory, error) {
	if max != nil && *max > MaxPages {
		return nil, wasmerrors.ErrInvalidMemoryBounds
	}
	if max != nil && min > *max {
		return nil, wasmerrors.ErrInvalidMemoryBounds
	}
	if min > MaxPages {
		return nil, wasmerrors.ErrInvalidMemoryBounds
	}
	return &LinearMemory{
		data: make([]byte, uint64(min)*PageSize),
		min:  min,
		max:  max,
	}, nil
}

// Size returns the current page count.
func (m *LinearMemory) Size() uint32 {
	return uint32(len(m.data) / PageSize)
}

// MinPages returns the memory's declared minimum page count.
func (m *LinearMemory) MinPages() uint32 {
	return m.min
}

// MaxPages returns the memory's declared maximum page count, if any.
func (m *LinearMemory) MaxPages() *uint32 {
	return m.max
}

// Grow extends the memory by delta pages, returning the previous page
// count on success. New pages are zero-filled. Fails without mutating the
// memory if the new size would exceed the declared max or the absolute
// ceiling.
func (m *LinearMemory) Grow(delta uint32) (uint32, error) {
	prev := m.Size()
	newSize := prev + delta
	if newSize < prev { // overflow
		return 0, wasmerrors.ErrMemoryGrowLimit
	}
	if newSize > MaxPages {
		return 0, wasmerrors.ErrMemoryGrowLimit
	}
	if m.max != nil && newSize > *m.max {
		return 0, wasmerrors.ErrMemoryGrowLimit
	}

	m.data = append(m.data, make([]byte, uint64(delta)*PageSize)...)
	return prev, nil
}

func (m *LinearMemory) checkBounds(addr, size uint32) error {
	end := uint64(addr) + uint64(size)
	if end > uint64(len(m.data)) {
		return wasmerrors.WrapWithDetail(nil, wasmerrors.ErrMemoryOutOfBounds, "bounds check",
			fmt.Sprintf("address %d, size %d", addr, size))
	}
	return nil
}

// ReadBytes returns a copy of length bytes starting at addr.
func (m *LinearMemory) ReadBytes(addr, length uint32) ([]byte, error) {
	if err := m.checkBounds(addr, length); err != nil {
		return nil, err
	}
	out := make([]byte, length)
	copy(out, m.data[addr:uint64(addr)+uint64(length)])
	return out, nil
}

// WriteBytes writes b at addr. All-or-nothing: on a bounds failure, no
// bytes are written.
func (m *LinearMemory) WriteBytes(addr uint32, b []byte) error {
	if err := m.checkBounds(addr, uint32(len(b))); err != nil {
		return err
	}
	copy(m.data[addr:], b)
	return nil
}

// ReadU8 reads a single byte at addr.
func (m *LinearMemory) ReadU8(addr uint32) (uint8, error) {
	if err := m.checkBounds(addr, 1); err != nil {
		return 0, err
	}
	return m.data[addr], nil
}

// WriteU8 writes a single byte at addr.
func (m *LinearMemory) WriteU8(addr uint32, v uint8) error {
	if err := m.checkBounds(addr, 1); err != nil {
		return err
	}
	m.data[addr] = v
	return nil
}

// ReadU16 reads a little-endian uint16 at addr.
func (m *LinearMemory) ReadU16(addr uint32) (uint16, error) {
	if err := m.checkBounds(addr, 2); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(m.data[addr:]), nil
}

// WriteU16 writes a little-endian uint16 at addr.
func (m *LinearMemory) WriteU16(addr uint32, v uint16) error {
	if err := m.checkBounds(addr, 2); err != nil {
		return err
	}
	binary.LittleEndian.PutUint16(m.data[addr:], v)
	return nil
}

// ReadU32 reads a little-endian uint32 at addr.
func (m *LinearMemory) ReadU32(addr uint32) (uint32, error) {
	if err := m.checkBounds(addr, 4); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(m.data[addr:]), nil
}

// WriteU32 writes a little-endian uint32 at addr.
func (m *LinearMemory) WriteU32(addr uint32, v uint32) error {
	if err := m.checkBounds(addr, 4); err != nil {
		return err
	}
	binary.LittleEndian.PutUint32(m.data[addr:], v)
	return nil
}

// ReadU64 reads a little-endian uint64 at addr.
func (m *LinearMemory) ReadU64(addr uint32) (uint64, error) {
	if err := m.checkBounds(addr, 8); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(m.data[addr:]), nil
}

// WriteU64 writes a little-endian uint64 at addr.
func (m *LinearMemory) WriteU64(addr uint32, v uint64) error {
	if err := m.checkBounds(addr, 8); err != nil {
		return err
	}
	binary.LittleEndian.PutUint64(m.data[addr:], v)
	return nil
}

// ReadF32 reads an IEEE-754 single-precision float via bit-pattern pass-through.
func (m *LinearMemory) ReadF32(addr uint32) (float32, error) {
	bits, err := m.ReadU32(addr)
	if err != nil {
		return 0, err
	}
	return math.Float32frombits(bits), nil
}

// WriteF32 writes an IEEE-754 single-precision float via bit-pattern pass-through.
func (m *LinearMemory) WriteF32(addr uint32, v float32) error {
	return m.WriteU32(addr, math.Float32bits(v))
}

// ReadF64 reads an IEEE-754 double-precision float via bit-pattern pass-through.
func (m *LinearMemory) ReadF64(addr uint32) (float64, error) {
	bits, err := m.ReadU64(addr)
	if err != nil {
		return 0, err
	}
	return math.Float64frombits(bits), nil
}

// WriteF64 writes an IEEE-754 double-precision float via bit-pattern pass-through.
func (m *LinearMemory) WriteF64(addr uint32, v float64) error {
	return m.WriteU64(addr, math.Float64bits(v))
}

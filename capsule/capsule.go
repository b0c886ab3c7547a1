// Package capsule abstracts ownership of the raw genotype and position storage
// behind a variant matrix. An owned capsule holds a slice it may shrink; a
// borrowed capsule wraps memory that belongs to the caller and can never be
// resized.
package capsule

import (
	"errors"
	"unsafe"
)

// ErrNotResizable is returned when a borrowed capsule is asked to change size.
var ErrNotResizable = errors.New("capsule: storage is not resizable")

// GenotypeCapsule is storage for a flat, row-major genotype buffer.
type GenotypeCapsule interface {
	// Genotypes returns the backing slice without copying.
	Genotypes() []int8
	Len() int
	Resizable() bool
	// Truncate shrinks the visible storage to the first n elements.
	Truncate(n int) error
}

// PositionCapsule is storage for per-site positions.
type PositionCapsule interface {
	Positions() []float64
	NSites() int
	Resizable() bool
	Truncate(n int) error
}

// VectorGenotypeCapsule owns its data.
type VectorGenotypeCapsule struct {
	data []int8
}

// NewVectorGenotypeCapsule takes ownership of data. The caller must not keep
// using the slice afterwards.
func NewVectorGenotypeCapsule(data []int8) *VectorGenotypeCapsule {
	return &VectorGenotypeCapsule{data: data}
}

func (c *VectorGenotypeCapsule) Genotypes() []int8 { return c.data }
func (c *VectorGenotypeCapsule) Len() int          { return len(c.data) }
func (c *VectorGenotypeCapsule) Resizable() bool   { return true }

func (c *VectorGenotypeCapsule) Truncate(n int) error {
	if n < 0 || n > len(c.data) {
		return errors.New("capsule: truncate length out of range")
	}
	c.data = c.data[:n:n]
	return nil
}

// BufferGenotypeCapsule wraps caller owned memory. The buffer must outlive
// every matrix built on top of it.
type BufferGenotypeCapsule struct {
	data []int8
}

func NewBufferGenotypeCapsule(data []int8) *BufferGenotypeCapsule {
	return &BufferGenotypeCapsule{data: data}
}

// NewBufferGenotypeCapsuleFromBytes reinterprets a raw byte buffer (for
// example a memory-mapped file) as signed 8-bit genotype codes without copying.
func NewBufferGenotypeCapsuleFromBytes(b []byte) *BufferGenotypeCapsule {
	if len(b) == 0 {
		return &BufferGenotypeCapsule{}
	}
	return &BufferGenotypeCapsule{data: unsafe.Slice((*int8)(unsafe.Pointer(&b[0])), len(b))}
}

func (c *BufferGenotypeCapsule) Genotypes() []int8  { return c.data }
func (c *BufferGenotypeCapsule) Len() int           { return len(c.data) }
func (c *BufferGenotypeCapsule) Resizable() bool    { return false }
func (c *BufferGenotypeCapsule) Truncate(int) error { return ErrNotResizable }

// VectorPositionCapsule owns its positions.
type VectorPositionCapsule struct {
	pos []float64
}

func NewVectorPositionCapsule(pos []float64) *VectorPositionCapsule {
	return &VectorPositionCapsule{pos: pos}
}

func (c *VectorPositionCapsule) Positions() []float64 { return c.pos }
func (c *VectorPositionCapsule) NSites() int          { return len(c.pos) }
func (c *VectorPositionCapsule) Resizable() bool      { return true }

func (c *VectorPositionCapsule) Truncate(n int) error {
	if n < 0 || n > len(c.pos) {
		return errors.New("capsule: truncate length out of range")
	}
	c.pos = c.pos[:n:n]
	return nil
}

// BufferPositionCapsule wraps caller owned positions.
type BufferPositionCapsule struct {
	pos []float64
}

func NewBufferPositionCapsule(pos []float64) *BufferPositionCapsule {
	return &BufferPositionCapsule{pos: pos}
}

func (c *BufferPositionCapsule) Positions() []float64 { return c.pos }
func (c *BufferPositionCapsule) NSites() int          { return len(c.pos) }
func (c *BufferPositionCapsule) Resizable() bool      { return false }
func (c *BufferPositionCapsule) Truncate(int) error   { return ErrNotResizable }

// Own returns owned copies of whatever the two capsules hold. Owned capsules
// are still copied so the result never aliases the input.
func Own(g GenotypeCapsule, p PositionCapsule) (*VectorGenotypeCapsule, *VectorPositionCapsule) {
	gd := make([]int8, g.Len())
	copy(gd, g.Genotypes())
	pd := make([]float64, p.NSites())
	copy(pd, p.Positions())
	return NewVectorGenotypeCapsule(gd), NewVectorPositionCapsule(pd)
}

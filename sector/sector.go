// Package sector implements the addressing model of a boot medium: a fixed
// size byte space split into equally sized sectors.
package sector

import (
	"errors"
	"fmt"
)

const (
	// Size is the size of one sector in bytes.
	Size = 512

	// MediumSize is the size of the boot medium in bytes (64 KiB).
	MediumSize = 64 * 1024

	// Count is the number of sectors on the boot medium.
	Count = MediumSize / Size
)

// ErrOutOfRange is matched (via errors.Is) by every *OutOfRangeError.
var ErrOutOfRange = errors.New("out of range")

// OutOfRangeError reports an address or sector index outside the medium.
type OutOfRangeError struct {
	What  string // e.g. "sector", "offset"
	Value int64
	Limit int64 // exclusive upper bound
}

func (e *OutOfRangeError) Error() string {
	return fmt.Sprintf("%s %d out of range [0, %d)", e.What, e.Value, e.Limit)
}

func (e *OutOfRangeError) Is(target error) bool { return target == ErrOutOfRange }

// Range is a half-open byte range [Start, End).
type Range struct {
	Start int64
	End   int64
}

func (r Range) Len() int64 { return r.End - r.Start }

func (r Range) Contains(offset int64) bool {
	return offset >= r.Start && offset < r.End
}

// Overlaps reports whether r and o share at least one byte.
func (r Range) Overlaps(o Range) bool {
	return r.Start < o.End && o.Start < r.End
}

func (r Range) String() string {
	return fmt.Sprintf("[%#04x, %#04x)", r.Start, r.End)
}

// Geometry describes a medium of MediumSize bytes made of SectorSize byte
// sectors.
type Geometry struct {
	SectorSize int64
	MediumSize int64
}

// Default is the geometry of the boot medium: 128 sectors of 512 bytes.
var Default = Geometry{SectorSize: Size, MediumSize: MediumSize}

// Count returns the number of whole sectors on the medium.
func (g Geometry) Count() int {
	if g.SectorSize <= 0 {
		return 0
	}
	return int(g.MediumSize / g.SectorSize)
}

// SectorOf returns the index of the sector containing offset.
func (g Geometry) SectorOf(offset int64) (int, error) {
	if offset < 0 || offset >= g.MediumSize {
		return 0, &OutOfRangeError{What: "offset", Value: offset, Limit: g.MediumSize}
	}
	return int(offset / g.SectorSize), nil
}

// Range returns the byte range covered by sector index.
func (g Geometry) Range(index int) (Range, error) {
	if index < 0 || index >= g.Count() {
		return Range{}, &OutOfRangeError{What: "sector", Value: int64(index), Limit: int64(g.Count())}
	}
	start := int64(index) * g.SectorSize
	return Range{Start: start, End: start + g.SectorSize}, nil
}

// SectorOf returns the sector containing offset on the default medium.
func SectorOf(offset int64) (int, error) { return Default.SectorOf(offset) }

// RangeOf returns the byte range of sector index on the default medium.
func RangeOf(index int) (Range, error) { return Default.Range(index) }

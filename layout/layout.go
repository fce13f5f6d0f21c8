// Package layout defines how a boot medium is partitioned into a reserved
// boot partition and a free partition, and where the sector allocation bitmap
// is stored.
package layout

import (
	"errors"
	"fmt"

	"github.com/tpu-emu/bootdrive/sector"
)

// BootCodeSector is the sector the device loads boot code from.
const BootCodeSector = 0

// ErrInconsistent is matched (via errors.Is) by every *InconsistentError.
var ErrInconsistent = errors.New("layout inconsistent")

// InconsistentError reports partition arithmetic that does not describe the
// medium.
type InconsistentError struct {
	Slug    string
	Field   string
	Message string
}

func (e *InconsistentError) Error() string {
	return fmt.Sprintf("layout %q: %s: %s", e.Slug, e.Field, e.Message)
}

func (e *InconsistentError) Is(target error) bool { return target == ErrInconsistent }

// Layout partitions a medium. A Layout returned by New or ForSlug has been
// validated and must not be modified.
type Layout struct {
	// Slug is a unique, short string used on the command line to refer to
	// this layout.
	Slug string

	sector.Geometry

	// BootSize is the size of the boot partition in bytes, starting at
	// offset 0. Its first sector holds boot code.
	BootSize int64

	// FreeSize is the size of the free partition in bytes, which follows
	// the boot partition up to the end of the medium.
	FreeSize int64

	// BitmapSector is the index of the sector holding the allocation
	// bitmap. It must lie inside the boot partition.
	BitmapSector int
}

// New validates l and returns a copy of it.
func New(l Layout) (*Layout, error) {
	if err := l.validate(); err != nil {
		return nil, err
	}
	return &l, nil
}

func (l *Layout) inconsistent(field, format string, args ...interface{}) error {
	return &InconsistentError{
		Slug:    l.Slug,
		Field:   field,
		Message: fmt.Sprintf(format, args...),
	}
}

func (l *Layout) validate() error {
	if l.SectorSize <= 0 {
		return l.inconsistent("SectorSize", "must be positive, got %d", l.SectorSize)
	}
	if l.MediumSize <= 0 || l.MediumSize%l.SectorSize != 0 {
		return l.inconsistent("MediumSize", "%d is not a positive multiple of the sector size %d", l.MediumSize, l.SectorSize)
	}
	if l.BootSize <= 0 || l.BootSize%l.SectorSize != 0 {
		return l.inconsistent("BootSize", "%d is not a positive multiple of the sector size %d", l.BootSize, l.SectorSize)
	}
	if l.FreeSize < 0 || l.FreeSize%l.SectorSize != 0 {
		return l.inconsistent("FreeSize", "%d is not a multiple of the sector size %d", l.FreeSize, l.SectorSize)
	}
	if got := l.BootSize + l.FreeSize; got != l.MediumSize {
		return l.inconsistent("FreeSize", "boot (%d) + free (%d) = %d, want medium size %d", l.BootSize, l.FreeSize, got, l.MediumSize)
	}
	if l.BitmapSector < 0 || int64(l.BitmapSector) >= l.BootSize/l.SectorSize {
		return l.inconsistent("BitmapSector", "sector %d is outside the boot partition", l.BitmapSector)
	}
	// one bit per sector, all of it inside the bitmap sector
	if bits := l.SectorSize * 8; int64(l.Count()) > bits {
		return l.inconsistent("MediumSize", "%d sectors do not fit a %d bit bitmap", l.Count(), bits)
	}
	return nil
}

// BootPartition returns the byte range of the boot partition.
func (l *Layout) BootPartition() sector.Range {
	return sector.Range{Start: 0, End: l.BootSize}
}

// FreePartition returns the byte range of the free partition.
func (l *Layout) FreePartition() sector.Range {
	return sector.Range{Start: l.BootSize, End: l.BootSize + l.FreeSize}
}

// BitmapOffset returns the byte offset at which the allocation bitmap is
// stored.
func (l *Layout) BitmapOffset() int64 {
	return int64(l.BitmapSector) * l.SectorSize
}

// BitmapLen returns the number of bytes the encoded bitmap occupies.
func (l *Layout) BitmapLen() int64 {
	return int64((l.Count() + 7) / 8)
}

// BitmapRegion returns the byte range holding the encoded bitmap. The rest of
// the bitmap sector is reserved.
func (l *Layout) BitmapRegion() sector.Range {
	off := l.BitmapOffset()
	return sector.Range{Start: off, End: off + l.BitmapLen()}
}

// ReservedSectors returns the sectors that are always in use: every sector of
// the boot partition, which includes the bitmap sector.
func (l *Layout) ReservedSectors() []int {
	n := int(l.BootSize / l.SectorSize)
	reserved := make([]int, n)
	for i := range reserved {
		reserved[i] = i
	}
	return reserved
}

// FirstFreeSector returns the index of the first sector of the free
// partition.
func (l *Layout) FirstFreeSector() int {
	return int(l.BootSize / l.SectorSize)
}

// IsFree reports whether sector index lies in the free partition.
func (l *Layout) IsFree(index int) bool {
	return index >= l.FirstFreeSector() && index < l.Count()
}

func (l *Layout) String() string {
	return fmt.Sprintf("%s (boot %v, free %v, bitmap at %#04x)",
		l.Slug, l.BootPartition(), l.FreePartition(), l.BitmapOffset())
}

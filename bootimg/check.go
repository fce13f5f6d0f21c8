package bootimg

import (
	"encoding/hex"
	"fmt"
	"io"
	"os"

	"github.com/pkg/errors"
	"golang.org/x/crypto/blake2b"

	"github.com/tpu-emu/bootdrive/bitmap"
	"github.com/tpu-emu/bootdrive/layout"
)

// Report is the result of checking an image against a layout.
type Report struct {
	Layout string
	Size   int64

	// InUse lists the sectors marked in the allocation bitmap.
	InUse []int

	// Free is the number of unallocated sectors in the free partition.
	Free int

	// Digest is the hex-encoded BLAKE2b-256 hash of the image contents.
	Digest string

	Problems []error
}

// OK reports whether no problems were found.
func (r *Report) OK() bool { return len(r.Problems) == 0 }

func (r *Report) problem(field, format string, args ...interface{}) {
	r.Problems = append(r.Problems, &ValidationError{
		Field:   field,
		Message: fmt.Sprintf(format, args...),
	})
}

// Check validates the image of the given size readable from r against l:
//
//   - the image has the size of the medium
//   - the bitmap addresses only existing sectors
//   - every reserved sector is marked in use
//   - the reserved remainder of the bitmap sector is zero
//   - no unallocated sector contains data
//
// An inconsistent layout is reported as the only problem, matching
// layout.ErrInconsistent.
func Check(r io.ReaderAt, size int64, l *layout.Layout) *Report {
	if l == nil {
		l = layout.Default()
	}
	rep := &Report{
		Layout: l.Slug,
		Size:   size,
	}
	l, err := layout.New(*l)
	if err != nil {
		rep.Problems = append(rep.Problems, err)
		return rep
	}
	if size != l.MediumSize {
		rep.problem("Size", "image is %d bytes, want %d", size, l.MediumSize)
		return rep
	}
	buf := make([]byte, size)
	if n, err := r.ReadAt(buf, 0); n < len(buf) {
		if err == nil {
			err = io.ErrUnexpectedEOF
		}
		rep.problem("Size", "reading image: %v", err)
		return rep
	}
	sum := blake2b.Sum256(buf)
	rep.Digest = hex.EncodeToString(sum[:])

	region := l.BitmapRegion()
	bm, err := bitmap.FromBytes(buf[region.Start:region.End], l.Count())
	if err != nil {
		rep.problem("Bitmap", "%v", err)
		return rep
	}
	rep.InUse = bm.InUse()

	for _, s := range l.ReservedSectors() {
		if used, _ := bm.Used(s); !used {
			rep.problem("Bitmap", "reserved sector %d is not marked in use", s)
		}
	}

	// With the bitmap sharing the boot code sector, the remainder is boot
	// code rather than reserved space.
	if l.BitmapSector != layout.BootCodeSector {
		sectorEnd := l.BitmapOffset() + l.SectorSize
		for off := region.End; off < sectorEnd; off++ {
			if buf[off] != 0 {
				rep.problem("Bitmap", "reserved byte at %#04x is %#02x, want 0", off, buf[off])
				break
			}
		}
	}

	for s := l.FirstFreeSector(); s < l.Count(); s++ {
		used, _ := bm.Used(s)
		if used {
			continue
		}
		rep.Free++
		rng, _ := l.Range(s)
		for _, b := range buf[rng.Start:rng.End] {
			if b != 0 {
				rep.problem("FreePartition", "unallocated sector %d contains data", s)
				break
			}
		}
	}
	return rep
}

// Inspect checks the image file at path against l. An inconsistent layout
// fails with layout.ErrInconsistent.
func Inspect(path string, l *layout.Layout) (*Report, error) {
	if l == nil {
		l = layout.Default()
	}
	if _, err := layout.New(*l); err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	st, err := f.Stat()
	if err != nil {
		return nil, err
	}
	if !st.Mode().IsRegular() {
		return nil, errors.Errorf("%s is not a regular file", path)
	}
	return Check(f, st.Size(), l), nil
}

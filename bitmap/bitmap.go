// Package bitmap implements the sector allocation bitmap of a boot medium.
//
// The bitmap holds one bit per sector. Bit k of byte b (counting from the
// least significant bit) is set if and only if sector 8*b+k is in use. For
// example, a bitmap whose first byte is 0x03 marks sectors 0 and 1 in use.
// Readers of an image depend on this order, so it must not change.
package bitmap

import (
	"fmt"

	"github.com/tpu-emu/bootdrive/sector"
)

// bytesFor returns the number of bytes needed to hold n bits.
func bytesFor(n int) int {
	return (n + 7) / 8
}

func outOfRange(i, limit int) error {
	return &sector.OutOfRangeError{What: "sector", Value: int64(i), Limit: int64(limit)}
}

// Encode packs the set of in-use sector indexes into the minimum number of
// bytes covering the highest index. Indexes outside the medium fail with
// sector.ErrOutOfRange. Duplicates are ignored.
func Encode(inUse []int) ([]byte, error) {
	highest := -1
	for _, i := range inUse {
		if i < 0 || i >= sector.Count {
			return nil, outOfRange(i, sector.Count)
		}
		if i > highest {
			highest = i
		}
	}
	return EncodeSpan(inUse, highest+1)
}

// EncodeSpan packs inUse into a fixed length region covering sectors
// [0, sectors).
func EncodeSpan(inUse []int, sectors int) ([]byte, error) {
	b := make([]byte, bytesFor(sectors))
	for _, i := range inUse {
		if i < 0 || i >= sectors {
			return nil, outOfRange(i, sectors)
		}
		b[i/8] |= 1 << uint(i%8)
	}
	return b, nil
}

// Decode returns the in-use sector indexes recorded in b, in ascending order.
func Decode(b []byte) []int {
	var inUse []int
	for idx, v := range b {
		for k := 0; k < 8; k++ {
			if v&(1<<uint(k)) != 0 {
				inUse = append(inUse, idx*8+k)
			}
		}
	}
	return inUse
}

// Bitmap is an allocation bitmap addressing a fixed number of sectors.
type Bitmap struct {
	n    int
	bits []byte
}

// New returns an empty bitmap addressing sectors [0, sectors).
func New(sectors int) *Bitmap {
	return &Bitmap{
		n:    sectors,
		bits: make([]byte, bytesFor(sectors)),
	}
}

// FromBytes returns a bitmap addressing sectors [0, sectors), initialized
// from the packed representation b. Bits past the addressable span must be
// clear.
func FromBytes(b []byte, sectors int) (*Bitmap, error) {
	if len(b) < bytesFor(sectors) {
		return nil, fmt.Errorf("bitmap: %d bytes cannot address %d sectors", len(b), sectors)
	}
	bm := New(sectors)
	copy(bm.bits, b)
	for _, i := range Decode(b) {
		if i >= sectors {
			return nil, fmt.Errorf("bitmap: %w", outOfRange(i, sectors))
		}
	}
	return bm, nil
}

// Len returns the number of addressable sectors.
func (bm *Bitmap) Len() int { return bm.n }

// Bytes returns a copy of the packed representation.
func (bm *Bitmap) Bytes() []byte {
	return append([]byte(nil), bm.bits...)
}

func (bm *Bitmap) check(i int) error {
	if i < 0 || i >= bm.n {
		return outOfRange(i, bm.n)
	}
	return nil
}

// MarkUsed marks sector i in use.
func (bm *Bitmap) MarkUsed(i int) error {
	if err := bm.check(i); err != nil {
		return err
	}
	bm.bits[i/8] |= 1 << uint(i%8)
	return nil
}

// MarkFree marks sector i unallocated.
func (bm *Bitmap) MarkFree(i int) error {
	if err := bm.check(i); err != nil {
		return err
	}
	bm.bits[i/8] &^= 1 << uint(i%8)
	return nil
}

// Used reports whether sector i is in use.
func (bm *Bitmap) Used(i int) (bool, error) {
	if err := bm.check(i); err != nil {
		return false, err
	}
	return bm.bits[i/8]&(1<<uint(i%8)) != 0, nil
}

// InUse returns the in-use sector indexes in ascending order.
func (bm *Bitmap) InUse() []int {
	return Decode(bm.bits)
}

func (bm *Bitmap) UsedCount() int {
	return len(bm.InUse())
}

func (bm *Bitmap) FreeCount() int {
	return bm.n - bm.UsedCount()
}

// FindFree returns the first index i >= start such that sectors
// [i, i+count) are all unallocated.
func (bm *Bitmap) FindFree(start, count int) (int, error) {
	if count <= 0 {
		return 0, fmt.Errorf("bitmap: invalid sector count %d", count)
	}
	if err := bm.check(start); err != nil {
		return 0, err
	}
	run := 0
	for i := start; i < bm.n; i++ {
		if bm.bits[i/8]&(1<<uint(i%8)) != 0 {
			run = 0
			continue
		}
		run++
		if run == count {
			return i - count + 1, nil
		}
	}
	return 0, fmt.Errorf("bitmap: no run of %d free sectors at or after sector %d", count, start)
}

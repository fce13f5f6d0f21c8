package bootimg

import (
	"io"
	"os"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/tpu-emu/bootdrive/bitmap"
	"github.com/tpu-emu/bootdrive/layout"
)

// Image is an open boot drive image whose allocation bitmap can be updated.
// The caller owns the image exclusively until Close; an Image is not safe for
// concurrent use.
type Image struct {
	f   *os.File
	l   *layout.Layout
	bm  *bitmap.Bitmap
	log logrus.FieldLogger
}

// Open opens the image at path for updating. The file must have the size of
// the medium and mark every reserved sector in use. An inconsistent layout
// fails with layout.ErrInconsistent before the file is opened.
func Open(path string, opts *Options) (*Image, error) {
	opts = opts.withDefaults()
	l, err := layout.New(*opts.Layout)
	if err != nil {
		return nil, err
	}
	f, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		return nil, err
	}
	im, err := open(f, l)
	if err != nil {
		f.Close()
		return nil, errors.Wrapf(err, "opening %s", path)
	}
	im.log = opts.Log.WithFields(logrus.Fields{
		"path":   path,
		"layout": l.Slug,
	})
	return im, nil
}

func open(f *os.File, l *layout.Layout) (*Image, error) {
	st, err := f.Stat()
	if err != nil {
		return nil, err
	}
	if got, want := st.Size(), l.MediumSize; got != want {
		return nil, errors.Wrapf(ErrInvalidImage, "size is %d bytes, want %d", got, want)
	}
	region := l.BitmapRegion()
	buf := make([]byte, region.Len())
	if n, err := f.ReadAt(buf, region.Start); n < len(buf) {
		if err == nil || err == io.EOF {
			err = io.ErrUnexpectedEOF
		}
		return nil, errors.Wrap(err, "reading bitmap")
	}
	bm, err := bitmap.FromBytes(buf, l.Count())
	if err != nil {
		return nil, errors.Wrap(ErrInvalidImage, err.Error())
	}
	for _, s := range l.ReservedSectors() {
		if used, _ := bm.Used(s); !used {
			return nil, errors.Wrapf(ErrInvalidImage, "reserved sector %d not marked in use", s)
		}
	}
	return &Image{f: f, l: l, bm: bm}, nil
}

// Layout returns the layout the image was opened with.
func (im *Image) Layout() *layout.Layout { return im.l }

// InUse returns the sectors marked in use, in ascending order.
func (im *Image) InUse() []int { return im.bm.InUse() }

// FreeCount returns the number of unallocated sectors.
func (im *Image) FreeCount() int { return im.bm.FreeCount() }

// MarkUsed marks the given free partition sectors in use and rewrites the
// bitmap region. Sectors outside the medium fail with sector.ErrOutOfRange;
// boot partition sectors are rejected. Either all sectors are marked or none.
func (im *Image) MarkUsed(sectors ...int) error {
	if len(sectors) == 0 {
		return nil
	}
	next, err := bitmap.FromBytes(im.bm.Bytes(), im.bm.Len())
	if err != nil {
		return err
	}
	for _, s := range sectors {
		if _, err := im.l.Range(s); err != nil {
			return err
		}
		if !im.l.IsFree(s) {
			return errors.Errorf("sector %d belongs to the boot partition", s)
		}
		if err := next.MarkUsed(s); err != nil {
			return err
		}
	}
	if err := im.writeBitmap(next); err != nil {
		return err
	}
	im.bm = next
	im.log.WithField("sectors", sectors).Debug("marked sectors in use")
	return nil
}

// Allocate marks the first run of count contiguous unallocated sectors in the
// free partition in use and returns the index of its first sector.
func (im *Image) Allocate(count int) (int, error) {
	first, err := im.bm.FindFree(im.l.FirstFreeSector(), count)
	if err != nil {
		return 0, err
	}
	run := make([]int, count)
	for i := range run {
		run[i] = first + i
	}
	if err := im.MarkUsed(run...); err != nil {
		return 0, err
	}
	return first, nil
}

// writeBitmap rewrites only the bitmap region, leaving the boot code and the
// free partition untouched.
func (im *Image) writeBitmap(bm *bitmap.Bitmap) error {
	if _, err := im.f.WriteAt(bm.Bytes(), im.l.BitmapOffset()); err != nil {
		return err
	}
	return im.f.Sync()
}

// Close releases the image.
func (im *Image) Close() error {
	return im.f.Close()
}

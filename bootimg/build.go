package bootimg

import (
	"bytes"
	"io"
	"os"
	"path/filepath"

	"github.com/google/renameio/v2"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/blake2b"

	"github.com/tpu-emu/bootdrive/bitmap"
	"github.com/tpu-emu/bootdrive/layout"
)

// Ext is appended to image names which do not carry an extension.
const Ext = ".dsk"

// Options configures image creation and access.
type Options struct {
	Layout *layout.Layout     // defaults to layout.Default()
	Log    logrus.FieldLogger // defaults to logrus.StandardLogger()
	Perm   os.FileMode        // defaults to 0644 (before umask)
}

// DefaultOptions returns the options used when nil is passed.
func DefaultOptions() *Options {
	return &Options{
		Layout: layout.Default(),
		Log:    logrus.StandardLogger(),
		Perm:   0644,
	}
}

func (o *Options) withDefaults() *Options {
	def := DefaultOptions()
	if o == nil {
		return def
	}
	res := *o
	if res.Layout == nil {
		res.Layout = def.Layout
	}
	if res.Log == nil {
		res.Log = def.Log
	}
	if res.Perm == 0 {
		res.Perm = def.Perm
	}
	return &res
}

// Build returns the contents of a freshly initialized image for l: a zero
// buffer of the medium size with the reserved sectors marked in the bitmap.
// l is validated again, so a hand-constructed Layout fails with
// layout.ErrInconsistent rather than producing a corrupt image.
func Build(l *layout.Layout) ([]byte, error) {
	if l == nil {
		l = layout.Default()
	}
	l, err := layout.New(*l)
	if err != nil {
		return nil, err
	}
	buf := make([]byte, l.MediumSize)
	enc, err := bitmap.EncodeSpan(l.ReservedSectors(), l.Count())
	if err != nil {
		return nil, err
	}
	copy(buf[l.BitmapOffset():], enc)
	return buf, nil
}

// Destination returns the path of the image called name inside dir. Names
// without an extension get Ext appended.
func Destination(dir, name string) (string, error) {
	if name == "" {
		return "", errors.New("empty image name")
	}
	if filepath.Base(name) != name {
		return "", errors.Errorf("image name %q must not contain a path separator", name)
	}
	if filepath.Ext(name) == "" {
		name += Ext
	}
	return filepath.Join(dir, name), nil
}

// Create writes a fresh image called name into dir and returns its path.
func Create(dir, name string, opts *Options) (string, error) {
	path, err := Destination(dir, name)
	if err != nil {
		return "", err
	}
	if err := WriteFile(path, opts); err != nil {
		return "", err
	}
	return path, nil
}

// WriteFile writes a fresh image to path, replacing any existing file.
//
// The image is assembled in memory and written to a temporary file next to
// path. The temporary file is read back and compared with the in-memory image
// before it is renamed into place, so a failed verification leaves an existing
// file at path untouched. Errors creating the file are reported as
// *DestinationError and leave no file behind.
func WriteFile(path string, opts *Options) error {
	opts = opts.withDefaults()
	l := opts.Layout
	log := opts.Log.WithFields(logrus.Fields{
		"path":   path,
		"layout": l.Slug,
	})

	dir := filepath.Dir(path)
	if err := checkWritable(dir); err != nil {
		return &DestinationError{Path: path, Err: err}
	}

	buf, err := Build(l)
	if err != nil {
		return err
	}
	log.WithField("reserved", l.ReservedSectors()).Debug("built image")

	t, err := renameio.NewPendingFile(path, renameio.WithTempDir(dir), renameio.WithPermissions(opts.Perm))
	if err != nil {
		return &DestinationError{Path: path, Err: err}
	}
	defer t.Cleanup()
	if _, err := t.Write(buf); err != nil {
		return &DestinationError{Path: path, Err: err}
	}
	if err := verifyImage(t.File, buf, l); err != nil {
		return errors.Wrapf(err, "verifying %s", path)
	}
	if err := t.CloseAtomicallyReplace(); err != nil {
		return &DestinationError{Path: path, Err: err}
	}
	log.Debug("persisted image")
	return nil
}

var verifyImage = verify

// verify reads back the image from f and compares it against want.
func verify(f *os.File, want []byte, l *layout.Layout) error {
	st, err := f.Stat()
	if err != nil {
		return err
	}
	got := make([]byte, st.Size())
	if _, err := f.ReadAt(got, 0); err != nil && err != io.EOF {
		return err
	}
	if blake2b.Sum256(got) != blake2b.Sum256(want) {
		return errors.Errorf("contents differ from the built image (%d bytes on disk, want %d)", len(got), len(want))
	}
	if r := Check(bytes.NewReader(got), int64(len(got)), l); !r.OK() {
		return r.Problems[0]
	}
	return nil
}

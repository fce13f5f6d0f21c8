package bootimg_test

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"

	"github.com/tpu-emu/bootdrive/bootimg"
	"github.com/tpu-emu/bootdrive/layout"
)

func mustLayout(t *testing.T, slug string) *layout.Layout {
	t.Helper()
	l, err := layout.ForSlug(slug)
	if err != nil {
		t.Fatal(err)
	}
	return l
}

func quietOptions(t *testing.T, slug string) *bootimg.Options {
	t.Helper()
	logger, _ := test.NewNullLogger()
	return &bootimg.Options{
		Layout: mustLayout(t, slug),
		Log:    logger,
	}
}

func allZero(b []byte) bool {
	return len(bytes.Trim(b, "\x00")) == 0
}

func TestBuild(t *testing.T) {
	buf, err := bootimg.Build(nil)
	if err != nil {
		t.Fatal(err)
	}
	if got, want := len(buf), 65536; got != want {
		t.Fatalf("len(Build()) = %d, want %d", got, want)
	}
	if !allZero(buf[0x0000:0x0200]) {
		t.Errorf("boot code sector is not zero")
	}
	if got, want := buf[0x0200], byte(0x03); got != want {
		t.Errorf("bitmap byte 0 = %#02x, want %#02x", got, want)
	}
	if !allZero(buf[0x0201:0x0400]) {
		t.Errorf("remainder of the bitmap sector is not zero")
	}
	if !allZero(buf[0x0400:0x10000]) {
		t.Errorf("free partition is not zero")
	}
}

func TestBuildLegacy(t *testing.T) {
	buf, err := bootimg.Build(mustLayout(t, "legacy"))
	if err != nil {
		t.Fatal(err)
	}
	if got, want := buf[0x0000], byte(0x03); got != want {
		t.Errorf("byte 0 = %#02x, want %#02x", got, want)
	}
	if !allZero(buf[1:]) {
		t.Errorf("image contains data besides the bitmap")
	}
}

func TestBuildInconsistentLayout(t *testing.T) {
	l := *mustLayout(t, layout.DefaultSlug)
	l.BootSize = 1000
	l.FreeSize = l.MediumSize - l.BootSize
	if _, err := bootimg.Build(&l); !errors.Is(err, layout.ErrInconsistent) {
		t.Fatalf("Build() = %v, want ErrInconsistent", err)
	}
}

func TestDestination(t *testing.T) {
	for _, tt := range []struct {
		dir, name string
		want      string
	}{
		{"/tmp/drives", "alpha", "/tmp/drives/alpha.dsk"},
		{"/tmp/drives", "alpha.img", "/tmp/drives/alpha.img"},
		{"drives", "beta", "drives/beta.dsk"},
	} {
		got, err := bootimg.Destination(tt.dir, tt.name)
		if err != nil {
			t.Fatalf("Destination(%q, %q): %v", tt.dir, tt.name, err)
		}
		if got != tt.want {
			t.Errorf("Destination(%q, %q) = %q, want %q", tt.dir, tt.name, got, tt.want)
		}
	}
	for _, name := range []string{"", "a/b", "../alpha"} {
		if _, err := bootimg.Destination("/tmp", name); err == nil {
			t.Errorf("Destination(%q) unexpectedly succeeded", name)
		}
	}
}

func TestCreate(t *testing.T) {
	for _, tt := range []struct {
		slug         string
		bitmapOffset int
	}{
		{"tpu", 0x0200},
		{"legacy", 0x0000},
	} {
		t.Run(tt.slug, func(t *testing.T) {
			dir := t.TempDir()
			path, err := bootimg.Create(dir, "alpha", quietOptions(t, tt.slug))
			if err != nil {
				t.Fatal(err)
			}
			if got, want := path, filepath.Join(dir, "alpha.dsk"); got != want {
				t.Errorf("Create() = %q, want %q", got, want)
			}
			b, err := os.ReadFile(path)
			if err != nil {
				t.Fatal(err)
			}
			if got, want := len(b), 64*1024; got != want {
				t.Fatalf("image is %d bytes, want %d", got, want)
			}
			if got, want := b[tt.bitmapOffset], byte(0x03); got != want {
				t.Errorf("bitmap byte 0 = %#02x, want %#02x", got, want)
			}
			if got, want := b[0xFFFF], byte(0x00); got != want {
				t.Errorf("last byte = %#02x, want %#02x", got, want)
			}
			entries, err := os.ReadDir(dir)
			if err != nil {
				t.Fatal(err)
			}
			if len(entries) != 1 {
				t.Errorf("destination directory contains %d entries, want 1 (no temporary files)", len(entries))
			}
		})
	}
}

func TestCreateReplacesExisting(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "alpha.dsk")
	if err := os.WriteFile(path, bytes.Repeat([]byte{0xE5}, 100), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := bootimg.Create(dir, "alpha", quietOptions(t, layout.DefaultSlug)); err != nil {
		t.Fatal(err)
	}
	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	want, err := bootimg.Build(nil)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, want) {
		t.Errorf("existing file was not replaced by a fresh image")
	}
}

func TestCreateUnwritable(t *testing.T) {
	parent := t.TempDir()
	dir := filepath.Join(parent, "does", "not", "exist")
	_, err := bootimg.Create(dir, "alpha", quietOptions(t, layout.DefaultSlug))
	if !errors.Is(err, bootimg.ErrDestinationUnwritable) {
		t.Fatalf("Create() = %v, want ErrDestinationUnwritable", err)
	}
	var de *bootimg.DestinationError
	if !errors.As(err, &de) {
		t.Fatalf("error %T is not a *DestinationError", err)
	}
	if got, want := de.Path, filepath.Join(dir, "alpha.dsk"); got != want {
		t.Errorf("Path = %q, want %q", got, want)
	}
	if _, err := os.Stat(de.Path); !os.IsNotExist(err) {
		t.Errorf("Stat(%s) = %v, want not exist", de.Path, err)
	}
}

func TestCreatePermissionDenied(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("permission checks do not apply to root")
	}
	dir := filepath.Join(t.TempDir(), "ro")
	if err := os.Mkdir(dir, 0555); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.Chmod(dir, 0755) })

	_, err := bootimg.Create(dir, "alpha", quietOptions(t, layout.DefaultSlug))
	if !errors.Is(err, bootimg.ErrDestinationUnwritable) {
		t.Fatalf("Create() = %v, want ErrDestinationUnwritable", err)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Errorf("read-only directory contains %d entries, want 0", len(entries))
	}
}

func TestWriteFileLogs(t *testing.T) {
	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)
	path := filepath.Join(t.TempDir(), "gamma.dsk")
	err := bootimg.WriteFile(path, &bootimg.Options{
		Log: logger,
	})
	if err != nil {
		t.Fatal(err)
	}
	var got []string
	for _, e := range hook.AllEntries() {
		got = append(got, e.Message)
		if p := e.Data["path"]; p != path {
			t.Errorf("log entry %q has path %v, want %q", e.Message, p, path)
		}
	}
	want := []string{"built image", "persisted image"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("unexpected log messages: diff (-want +got):\n%s", diff)
	}
}

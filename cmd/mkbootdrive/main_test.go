package main

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"

	"github.com/tpu-emu/bootdrive/driveflag"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Cleanup(driveflag.Reset)
	logrus.SetOutput(io.Discard)
	t.Cleanup(func() { logrus.SetOutput(os.Stderr) })

	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestMissingName(t *testing.T) {
	out, err := run(t)
	if err == nil {
		t.Fatalf("mkbootdrive without arguments unexpectedly succeeded")
	}
	if !strings.Contains(out, "invalid usage") || !strings.Contains(out, "Usage:") {
		t.Errorf("output does not contain a usage message:\n%s", out)
	}
}

func TestCreateAndInspect(t *testing.T) {
	dir := t.TempDir()
	out, err := run(t, "-C", dir, "alpha")
	if err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(dir, "alpha.dsk")
	if got, want := out, "Disk created: "+path+"\n"; got != want {
		t.Errorf("output = %q, want %q", got, want)
	}
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if got, want := len(b), 65536; got != want {
		t.Fatalf("image is %d bytes, want %d", got, want)
	}

	out, err = run(t, "alloc", path, "3")
	if err != nil {
		t.Fatal(err)
	}
	if got, want := out, "Allocated sectors 2-4\n"; got != want {
		t.Errorf("alloc output = %q, want %q", got, want)
	}

	out, err = run(t, "mark", path, "10")
	if err != nil {
		t.Fatal(err)
	}
	if got, want := out, "In use: [0 1 2 3 4 10]\n"; got != want {
		t.Errorf("mark output = %q, want %q", got, want)
	}

	out, err = run(t, "inspect", path)
	if err != nil {
		t.Fatalf("inspect: %v\n%s", err, out)
	}
	for _, want := range []string{
		"Size:    64 KiB",
		"In use:  [0 1 2 3 4 10]",
		"Free:    122 sectors (61 KiB)",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("inspect output does not contain %q:\n%s", want, out)
		}
	}
}

func TestLegacyLayout(t *testing.T) {
	dir := t.TempDir()
	if _, err := run(t, "-C", dir, "--layout", "legacy", "beta"); err != nil {
		t.Fatal(err)
	}
	b, err := os.ReadFile(filepath.Join(dir, "beta.dsk"))
	if err != nil {
		t.Fatal(err)
	}
	if got, want := b[0], byte(0x03); got != want {
		t.Errorf("first byte = %#x, want %#x", got, want)
	}
}

func TestUnwritableDestination(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "missing")
	out, err := run(t, "-C", dir, "alpha")
	if err == nil {
		t.Fatalf("mkbootdrive into missing directory unexpectedly succeeded")
	}
	if strings.Contains(out, "Usage:") {
		t.Errorf("runtime error printed usage:\n%s", out)
	}
	if _, err := os.Stat(filepath.Join(dir, "alpha.dsk")); !os.IsNotExist(err) {
		t.Errorf("Stat = %v, want not exist", err)
	}
}

func TestMarkReserved(t *testing.T) {
	dir := t.TempDir()
	if _, err := run(t, "-C", dir, "gamma"); err != nil {
		t.Fatal(err)
	}
	if _, err := run(t, "mark", filepath.Join(dir, "gamma.dsk"), "1"); err == nil {
		t.Errorf("marking a boot partition sector unexpectedly succeeded")
	}
	if _, err := run(t, "mark", filepath.Join(dir, "gamma.dsk"), "x"); err == nil {
		t.Errorf("marking sector x unexpectedly succeeded")
	}
}

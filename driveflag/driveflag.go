// Package driveflag provides the command line flags shared by bootdrive
// tools. Defaults come from the environment, then from the per-user
// configuration directory, then from built-in values.
package driveflag

import (
	"os"
	"strings"

	"github.com/spf13/pflag"

	"github.com/tpu-emu/bootdrive/config"
	"github.com/tpu-emu/bootdrive/layout"
)

var (
	outputDir  string
	layoutSlug string
)

func init() { Reset() }

func defaultFrom(env, configBaseName, def string) string {
	if v := os.Getenv(env); v != "" {
		return v
	}
	v, err := config.Lookup(configBaseName, def)
	if err != nil {
		return def
	}
	return v
}

// Reset re-reads the defaults, discarding values set by flags or setters.
func Reset() {
	outputDir = defaultFrom("BOOTDRIVE_DIR", "output-dir.txt", ".")
	layoutSlug = defaultFrom("BOOTDRIVE_LAYOUT", "layout.txt", layout.DefaultSlug)
}

func RegisterPflags(fs *pflag.FlagSet) {
	fs.StringVarP(&outputDir,
		"dir",
		"C",
		outputDir,
		`directory in which drive images are created`)

	fs.StringVar(&layoutSlug,
		"layout",
		layoutSlug,
		`drive layout, one of `+strings.Join(layout.Slugs(), ", "))
}

func SetOutputDir(dir string) { outputDir = dir }

func OutputDir() string { return outputDir }

func SetLayoutSlug(slug string) { layoutSlug = slug }

func LayoutSlug() string { return layoutSlug }

// Layout returns the validated layout selected by the -layout flag.
func Layout() (*layout.Layout, error) {
	return layout.ForSlug(layoutSlug)
}

package layout

import (
	"fmt"
	"sort"

	"github.com/tpu-emu/bootdrive/sector"
)

// DefaultSlug names the layout used when none is specified.
const DefaultSlug = "tpu"

var (
	// Presets contains a mapping from slug to a known layout.
	Presets = map[string]Layout{
		// 64 KiB boot drive: boot code in sector 0, bitmap in sector 1,
		// free partition from 0x0400 to the end.
		"tpu": {
			Slug:         "tpu",
			Geometry:     sector.Default,
			BootSize:     2 * sector.Size,
			FreeSize:     sector.MediumSize - 2*sector.Size,
			BitmapSector: 1,
		},
		// Same partitioning, but the bitmap is stored at offset 0 as the
		// first drive images were written.
		"legacy": {
			Slug:         "legacy",
			Geometry:     sector.Default,
			BootSize:     2 * sector.Size,
			FreeSize:     sector.MediumSize - 2*sector.Size,
			BitmapSector: 0,
		},
	}
)

// ForSlug returns the validated preset layout named slug.
func ForSlug(slug string) (*Layout, error) {
	l, ok := Presets[slug]
	if !ok {
		return nil, fmt.Errorf("unknown layout %q (known: %v)", slug, Slugs())
	}
	return New(l)
}

// Default returns the default layout. It panics if the preset is invalid,
// which TestPresets guards against.
func Default() *Layout {
	l, err := ForSlug(DefaultSlug)
	if err != nil {
		panic(err)
	}
	return l
}

// Slugs returns the slugs of all presets in sorted order.
func Slugs() []string {
	slugs := make([]string, 0, len(Presets))
	for slug := range Presets {
		slugs = append(slugs, slug)
	}
	sort.Strings(slugs)
	return slugs
}

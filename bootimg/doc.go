// Package bootimg creates boot drive images and maintains their sector
// allocation bitmap.
//
// A freshly created image has the size of the medium, holds zero boot code,
// marks the sectors of the boot partition in use and leaves the free
// partition zero-filled and unallocated. With the default layout:
//
//	0x0000-0x01FF  boot code (zero)
//	0x0200-0x03FF  allocation bitmap, first byte 0x03
//	0x0400-0xFFFF  free partition (zero)
//
// Images are built in memory and persisted with a single atomic rename, so
// readers never observe a partially written image. Tools that later place
// data in the free partition use Open and Image.MarkUsed or Image.Allocate,
// which rewrite only the bitmap region.
package bootimg

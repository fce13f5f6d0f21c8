package humanize

import "fmt"

func Bytes(bytes uint64) string {
	switch {
	case bytes >= (1024 * 1024):
		return fmt.Sprintf("%.f MiB", float64(bytes)/1024/1024)
	case bytes >= 1024:
		return fmt.Sprintf("%.f KiB", float64(bytes)/1024)
	default:
		return fmt.Sprintf("%d B", bytes)
	}
}

// Sectors formats n sectors of sectorSize bytes, e.g. "126 sectors (63 KiB)".
func Sectors(n int, sectorSize int64) string {
	unit := "sectors"
	if n == 1 {
		unit = "sector"
	}
	return fmt.Sprintf("%d %s (%s)", n, unit, Bytes(uint64(n)*uint64(sectorSize)))
}

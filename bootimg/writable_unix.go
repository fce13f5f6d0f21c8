//go:build unix

package bootimg

import "golang.org/x/sys/unix"

// checkWritable returns an error unless files can be created in dir.
func checkWritable(dir string) error {
	return unix.Access(dir, unix.W_OK|unix.X_OK)
}

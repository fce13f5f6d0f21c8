// Package config allows bootdrive tools to read per-user defaults, such as
// the directory new drive images are written to.
package config

import (
	"os"
	"path/filepath"
	"strings"
)

// dirOverride replaces the per-user directory, see SetDir.
var dirOverride string

// SetDir makes Dir return dir instead of the per-user directory. An empty dir
// restores the default.
func SetDir(dir string) { dirOverride = dir }

// Dir returns the bootdrive configuration directory, typically
// ~/.config/bootdrive on Linux.
func Dir() (string, error) {
	if dirOverride != "" {
		return dirOverride, nil
	}
	userConfigDir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(userConfigDir, "bootdrive"), nil
}

// ReadFile returns the whitespace-trimmed contents of the configuration file
// configBaseName.
func ReadFile(configBaseName string) (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	b, err := os.ReadFile(filepath.Join(dir, configBaseName))
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(b)), nil
}

// Lookup is like ReadFile, but returns def if the file does not exist or is
// empty.
func Lookup(configBaseName, def string) (string, error) {
	v, err := ReadFile(configBaseName)
	if err != nil {
		if os.IsNotExist(err) {
			return def, nil
		}
		return "", err
	}
	if v == "" {
		return def, nil
	}
	return v, nil
}

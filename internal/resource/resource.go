// Package resource locates image assets shipped in the lnbanner bundle.
package resource

import (
	"os"
	"path/filepath"
)

// BundleDirEnv overrides the bundle directory when set.
const BundleDirEnv = "LNBANNER_BUNDLE_DIR"

// DefaultIcon is the bundled icon used when neither the notification nor its
// application provides one.
const DefaultIcon = "default-icon.png"

// BundleDir returns the directory holding bundled assets.
// Uses $LNBANNER_BUNDLE_DIR, else $XDG_DATA_HOME/lnbanner/bundle,
// else ~/.local/share/lnbanner/bundle.
func BundleDir() string {
	if dir := os.Getenv(BundleDirEnv); dir != "" {
		return dir
	}

	dataHome := os.Getenv("XDG_DATA_HOME")
	if dataHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			home = "."
		}
		dataHome = filepath.Join(home, ".local", "share")
	}
	return filepath.Join(dataHome, "lnbanner", "bundle")
}

// ImagePath returns the path a bundled image named filename would have.
// It does not check that the file exists; callers use Exists for that.
// Absolute paths are returned unchanged.
func ImagePath(filename string) string {
	if filename == "" {
		return ""
	}
	if filepath.IsAbs(filename) {
		return filename
	}
	return filepath.Join(BundleDir(), "images", filepath.Clean("/" + filename)[1:])
}

// Exists reports whether path names an existing regular file.
func Exists(path string) bool {
	if path == "" {
		return false
	}
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

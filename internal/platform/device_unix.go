//go:build unix

package platform

import (
	"golang.org/x/sys/unix"
)

// SameDevice reports whether a and b live on the same filesystem, which is
// the precondition for hardlinking between them. Any stat failure counts as
// a different device.
func SameDevice(a, b string) bool {
	var sa, sb unix.Stat_t
	if err := unix.Stat(a, &sa); err != nil {
		return false
	}
	if err := unix.Stat(b, &sb); err != nil {
		return false
	}
	return sa.Dev == sb.Dev
}

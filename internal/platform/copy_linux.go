//go:build linux

package platform

import (
	"errors"
	"os"

	"golang.org/x/sys/unix"
)

var strategies = []strategy{
	{method: CopyFileRange, copy: copyFileRange},
	{method: Sendfile, copy: sendfile},
}

func copyFileRange(dst, src *os.File, size int64) (int64, error) {
	var roff, woff int64
	return copyLoop(size, func(remaining int64) (int, error) {
		return unix.CopyFileRange(int(src.Fd()), &roff, int(dst.Fd()), &woff, int(remaining), 0)
	})
}

func sendfile(dst, src *os.File, size int64) (int64, error) {
	var off int64
	return copyLoop(size, func(remaining int64) (int, error) {
		return unix.Sendfile(int(dst.Fd()), int(src.Fd()), &off, int(remaining))
	})
}

// copyLoop calls step until size bytes are moved or step reports EOF.
func copyLoop(size int64, step func(remaining int64) (int, error)) (int64, error) {
	var total int64
	for total < size {
		n, err := step(size - total)
		if err != nil {
			return total, err
		}
		if n == 0 {
			break
		}
		total += int64(n)
	}
	return total, nil
}

// isFallbackErr reports whether a strategy is unsupported for this pair of
// files, as opposed to a real I/O failure.
func isFallbackErr(err error) bool {
	return errors.Is(err, unix.ENOSYS) ||
		errors.Is(err, unix.EXDEV) ||
		errors.Is(err, unix.EINVAL) ||
		errors.Is(err, unix.ENOTSUP)
}

// preallocate reserves size bytes for f. fallocate is advisory.
func preallocate(f *os.File, size int64) {
	_ = unix.Fallocate(int(f.Fd()), 0, 0, size)
}

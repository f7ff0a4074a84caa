package platform

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
)

const bufferSize = 1 << 20 // 1 MiB

var bufPool = sync.Pool{
	New: func() any {
		b := make([]byte, bufferSize)
		return &b
	},
}

// strategy is a kernel-assisted copy. It writes size bytes of src into dst
// at offset 0 and returns how many it wrote.
type strategy struct {
	method CopyMethod
	copy   func(dst, src *os.File, size int64) (int64, error)
}

// CopyFile copies size bytes of the file at src into dst, which must be a
// freshly created file open for writing. The per-OS strategies are tried in
// order; an unsupported one that wrote nothing falls through to the next,
// and read/write is the last resort.
func CopyFile(src string, dst *os.File, size int64) (CopyResult, error) {
	in, err := os.Open(src)
	if err != nil {
		return CopyResult{}, err
	}
	defer in.Close()

	if size <= 0 {
		return CopyResult{Method: ReadWrite}, nil
	}
	preallocate(dst, size)

	for _, s := range strategies {
		n, err := s.copy(dst, in, size)
		if err == nil {
			return CopyResult{BytesWritten: n, Method: s.method}, nil
		}
		if n > 0 || !isFallbackErr(err) {
			return CopyResult{BytesWritten: n, Method: s.method}, fmt.Errorf("%s: %w", s.method, err)
		}
	}

	n, err := readWrite(dst, in, size)
	return CopyResult{BytesWritten: n, Method: ReadWrite}, err
}

// readWrite copies with positional reads and writes through a pooled buffer,
// so neither file offset matters.
func readWrite(dst, src *os.File, size int64) (int64, error) {
	bufp := bufPool.Get().(*[]byte)
	defer bufPool.Put(bufp)
	buf := *bufp

	var off int64
	for off < size {
		chunk := buf[:min(size-off, bufferSize)]
		n, err := src.ReadAt(chunk, off)
		if n > 0 {
			if _, werr := dst.WriteAt(chunk[:n], off); werr != nil {
				return off, werr
			}
			off += int64(n)
		}
		if errors.Is(err, io.EOF) {
			break // source shorter than announced
		}
		if err != nil {
			return off, err
		}
	}
	return off, nil
}

// Package scramble implements the engine's XOR-obfuscated asset container:
// a fixed 16-byte header, the first 16 bytes of the asset XORed with a key,
// then the rest of the asset verbatim.
package scramble

import (
	"bytes"
	"crypto/md5" //nolint:gosec // the runtime derives its key with MD5
	"encoding/hex"
	"errors"
	"fmt"
	"io"
)

// KeySize is the length of both the header and the scrambled block.
const KeySize = 16

var (
	ErrTooShort   = errors.New("input shorter than 16 bytes")
	ErrBadHeader  = errors.New("missing scramble header")
	ErrInvalidKey = errors.New("invalid encryption key")
)

// Header precedes every scrambled asset.
var Header = [KeySize]byte{0x52, 0x50, 0x47, 0x4D, 0x56, 0x00, 0x00, 0x00, 0x00, 0x03, 0x01, 0x00, 0x00, 0x00, 0x00, 0x00}

// Key is the 16-byte XOR key the runtime reads from System.json.
type Key [KeySize]byte

// KeyFromPassphrase derives the key the runtime expects: the MD5 digest of
// the passphrase.
func KeyFromPassphrase(passphrase string) Key {
	return Key(md5.Sum([]byte(passphrase))) //nolint:gosec
}

// ParseKey decodes the hex form stored in System.json's encryptionKey.
func ParseKey(s string) (Key, error) {
	var k Key
	b, err := hex.DecodeString(s)
	if err != nil {
		return k, fmt.Errorf("%w: %v", ErrInvalidKey, err)
	}
	if len(b) != KeySize {
		return k, fmt.Errorf("%w: %d bytes", ErrInvalidKey, len(b))
	}
	copy(k[:], b)
	return k, nil
}

// String returns the lower-case hex form of the key.
func (k Key) String() string {
	return hex.EncodeToString(k[:])
}

func (k Key) xor(block *[KeySize]byte) {
	for i := range block {
		block[i] ^= k[i]
	}
}

// Encode writes the scrambled form of src to dst and returns the number of
// bytes written. Nothing is written when src is shorter than 16 bytes.
func Encode(dst io.Writer, src io.Reader, key Key) (int64, error) {
	var block [KeySize]byte
	if _, err := io.ReadFull(src, block[:]); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return 0, ErrTooShort
		}
		return 0, fmt.Errorf("read block: %w", err)
	}
	key.xor(&block)

	var written int64
	n, err := dst.Write(Header[:])
	written += int64(n)
	if err != nil {
		return written, fmt.Errorf("write header: %w", err)
	}
	n, err = dst.Write(block[:])
	written += int64(n)
	if err != nil {
		return written, fmt.Errorf("write block: %w", err)
	}

	rest, err := io.Copy(dst, src)
	written += rest
	if err != nil {
		return written, fmt.Errorf("copy remainder: %w", err)
	}
	return written, nil
}

// Decode reverses Encode. src must start with Header.
func Decode(dst io.Writer, src io.Reader, key Key) (int64, error) {
	var head, block [KeySize]byte
	if _, err := io.ReadFull(src, head[:]); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return 0, ErrTooShort
		}
		return 0, fmt.Errorf("read header: %w", err)
	}
	if !bytes.Equal(head[:], Header[:]) {
		return 0, ErrBadHeader
	}
	if _, err := io.ReadFull(src, block[:]); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return 0, ErrTooShort
		}
		return 0, fmt.Errorf("read block: %w", err)
	}
	key.xor(&block)

	n, err := dst.Write(block[:])
	written := int64(n)
	if err != nil {
		return written, fmt.Errorf("write block: %w", err)
	}
	rest, err := io.Copy(dst, src)
	written += rest
	if err != nil {
		return written, fmt.Errorf("copy remainder: %w", err)
	}
	return written, nil
}

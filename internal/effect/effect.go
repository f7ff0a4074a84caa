// Package effect reads the resource-name table out of particle effect
// containers (.efkefc). Only the INFO chunk is decoded.
package effect

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"golang.org/x/text/encoding/unicode"
)

const (
	magicEFKE = 0x454B4645 // "EFKE"
	chunkINFO = 0x4F464E49 // "INFO"
)

// Extension is the file extension of effect containers.
const Extension = ".efkefc"

var (
	ErrBadMagic        = errors.New("not an effect container")
	ErrBadVersion      = errors.New("unsupported container version")
	ErrBadChunk        = errors.New("missing INFO chunk")
	ErrOversized       = errors.New("declared length exceeds chunk")
	ErrUnknownResource = errors.New("unknown resource group")
)

// Container is the resource table of one effect file. Names are relative to
// the effects directory and use forward slashes.
type Container struct {
	Version  uint32
	InfoSize uint32
	Textures []string
	Alphas   []string
	Models   []string
}

// Resources returns every resource name in file order.
func (c *Container) Resources() []string {
	out := make([]string, 0, len(c.Textures)+len(c.Alphas)+len(c.Models))
	out = append(out, c.Textures...)
	out = append(out, c.Alphas...)
	return append(out, c.Models...)
}

// ParseFile reads and parses the container at path.
func ParseFile(path string) (*Container, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read effect: %w", err)
	}
	c, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return c, nil
}

// Parse decodes the header, INFO chunk and the texture, alpha and model name
// groups of an effect container.
func Parse(data []byte) (*Container, error) {
	cur := NewCursor(data)

	magic, err := cur.U32("header magic")
	if err != nil {
		return nil, err
	}
	if magic != magicEFKE {
		return nil, &DecodeError{Offset: 0, Op: "header magic", Err: fmt.Errorf("%w: %#08x", ErrBadMagic, magic)}
	}
	version, err := cur.U32("header version")
	if err != nil {
		return nil, err
	}
	if version != 0 {
		return nil, &DecodeError{Offset: 4, Op: "header version", Err: fmt.Errorf("%w: %d", ErrBadVersion, version)}
	}

	name, err := cur.U32("chunk name")
	if err != nil {
		return nil, err
	}
	if name != chunkINFO {
		return nil, &DecodeError{Offset: 8, Op: "chunk name", Err: fmt.Errorf("%w: %#08x", ErrBadChunk, name)}
	}
	size, err := cur.U32("chunk size")
	if err != nil {
		return nil, err
	}
	if uint64(size) >= uint64(len(data)) {
		return nil, &DecodeError{Offset: 12, Op: "chunk size", Err: fmt.Errorf("%w: %d >= file length %d", ErrOversized, size, len(data))}
	}
	infoVersion, err := cur.U32("chunk version")
	if err != nil {
		return nil, err
	}

	c := &Container{Version: infoVersion, InfoSize: size}
	// the declared size counts from just past the size field.
	chunkEnd := 16 + int64(size)

	if c.Textures, err = readNames(cur, chunkEnd, "texture"); err != nil {
		return nil, err
	}

	off := cur.Offset()
	unknown, err := cur.U32("unknown count")
	if err != nil {
		return nil, err
	}
	if unknown != 0 {
		return nil, &DecodeError{Offset: off, Op: "unknown count", Err: fmt.Errorf("%w: %d entries", ErrUnknownResource, unknown)}
	}

	if c.Alphas, err = readNames(cur, chunkEnd, "alpha"); err != nil {
		return nil, err
	}
	if c.Models, err = readNames(cur, chunkEnd, "model"); err != nil {
		return nil, err
	}
	return c, nil
}

func readNames(cur *Cursor, chunkEnd int64, group string) ([]string, error) {
	count, err := cur.U32(group + " count")
	if err != nil {
		return nil, err
	}

	var names []string
	for i := uint32(0); i < count; i++ {
		op := fmt.Sprintf("%s name %d", group, i)
		off := cur.Offset()

		length, err := cur.U32(op)
		if err != nil {
			return nil, err
		}
		// length counts UTF-16 units including the terminator.
		end := int64(cur.Offset()) + int64(length)*2
		if length == 0 || end > chunkEnd || int64(length)*2 > int64(cur.Remaining()) {
			return nil, &DecodeError{Offset: off, Op: op, Err: fmt.Errorf("%w: %d units", ErrOversized, length)}
		}

		raw, err := cur.Bytes(op, int(length)*2)
		if err != nil {
			return nil, err
		}
		name, err := decodeUTF16(raw[:len(raw)-2])
		if err != nil {
			return nil, &DecodeError{Offset: off + 4, Op: op, Err: err}
		}
		names = append(names, name)
	}
	return names, nil
}

func decodeUTF16(b []byte) (string, error) {
	dec := unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM).NewDecoder()
	out, err := dec.Bytes(b)
	if err != nil {
		return "", err
	}
	return strings.ReplaceAll(string(out), `\`, "/"), nil
}

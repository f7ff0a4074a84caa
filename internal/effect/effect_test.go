package effect

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/unicode"
)

type fixture struct {
	magic, version uint32
	chunk, size    uint32
	unknown        uint32
	textures       []string
	alphas, models []string
	overrideLength uint32
}

func defaultFixture() fixture {
	return fixture{
		magic:    magicEFKE,
		chunk:    chunkINFO,
		size:     512,
		textures: []string{`Texture\Fire.png`, "Texture/Ring.png"},
		models:   []string{"Model/Sword.efkmodel"},
	}
}

func (f fixture) bytes(t *testing.T) []byte {
	t.Helper()
	var buf []byte
	u32 := func(v uint32) { buf = binary.LittleEndian.AppendUint32(buf, v) }
	group := func(names []string, override uint32) {
		u32(uint32(len(names)))
		enc := unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM).NewEncoder()
		for _, n := range names {
			raw, err := enc.Bytes([]byte(n))
			require.NoError(t, err)
			length := uint32(len(raw)/2 + 1)
			if override != 0 {
				length = override
			}
			u32(length)
			buf = append(buf, raw...)
			buf = append(buf, 0, 0)
		}
	}

	u32(f.magic)
	u32(f.version)
	u32(f.chunk)
	u32(f.size)
	u32(0)
	group(f.textures, f.overrideLength)
	u32(f.unknown)
	group(f.alphas, 0)
	group(f.models, 0)

	// padding so the declared chunk size fits inside the file.
	for len(buf) <= int(f.size) && f.size < 4096 {
		buf = append(buf, 0)
	}
	return buf
}

func TestParse(t *testing.T) {
	c, err := Parse(defaultFixture().bytes(t))
	require.NoError(t, err)

	assert.Equal(t, []string{"Texture/Fire.png", "Texture/Ring.png"}, c.Textures)
	assert.Empty(t, c.Alphas)
	assert.Equal(t, []string{"Model/Sword.efkmodel"}, c.Models)
	assert.Equal(t, []string{"Texture/Fire.png", "Texture/Ring.png", "Model/Sword.efkmodel"}, c.Resources())
}

func TestParseNonASCIIName(t *testing.T) {
	f := defaultFixture()
	f.textures = []string{"Texture/炎.png"}
	c, err := Parse(f.bytes(t))
	require.NoError(t, err)
	assert.Equal(t, []string{"Texture/炎.png"}, c.Textures)
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*fixture)
		want   error
	}{
		{"bad magic", func(f *fixture) { f.magic = 0x12345678 }, ErrBadMagic},
		{"bad version", func(f *fixture) { f.version = 1 }, ErrBadVersion},
		{"bad chunk", func(f *fixture) { f.chunk = 0x41544144 }, ErrBadChunk},
		{"chunk larger than file", func(f *fixture) { f.size = 1 << 20 }, ErrOversized},
		{"unknown resources", func(f *fixture) { f.unknown = 1 }, ErrUnknownResource},
		{"name longer than chunk", func(f *fixture) { f.overrideLength = 600 }, ErrOversized},
		{"huge length name", func(f *fixture) { f.overrideLength = 0xFFFFFFFF }, ErrOversized},
		{"name overruns chunk but fits in file", func(f *fixture) {
			f.size = 40
			f.textures = []string{"Texture/AVeryLongTextureName.png"}
		}, ErrOversized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := defaultFixture()
			tt.mutate(&f)
			_, err := Parse(f.bytes(t))
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.want)

			var de *DecodeError
			assert.ErrorAs(t, err, &de)
		})
	}
}

func TestParseTruncated(t *testing.T) {
	data := defaultFixture().bytes(t)
	_, err := Parse(data[:6])
	assert.ErrorIs(t, err, ErrTruncated)

	_, err = Parse(nil)
	assert.ErrorIs(t, err, ErrTruncated)
}

func TestParseFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "Fire"+Extension)
	require.NoError(t, os.WriteFile(path, defaultFixture().bytes(t), 0644))

	c, err := ParseFile(path)
	require.NoError(t, err)
	assert.Len(t, c.Resources(), 3)

	_, err = ParseFile(filepath.Join(dir, "missing"+Extension))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestCursorBounds(t *testing.T) {
	c := NewCursor([]byte{1, 0, 0, 0, 2})
	v, err := c.U32("first")
	require.NoError(t, err)
	assert.Equal(t, uint32(1), v)
	assert.Equal(t, 4, c.Offset())
	assert.Equal(t, 1, c.Remaining())

	_, err = c.U32("second")
	var de *DecodeError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, 4, de.Offset)
	assert.Equal(t, "second", de.Op)
	assert.Equal(t, 4, c.Offset(), "failed read must not advance")

	_, err = c.Bytes("neg", -1)
	assert.ErrorIs(t, err, ErrTruncated)
}

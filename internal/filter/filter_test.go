package filter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmptyChainIncludesAll(t *testing.T) {
	c := NewChain()
	assert.True(t, c.Match("img/pictures/Logo.png", false))
	assert.True(t, c.Match("img", true))
	assert.True(t, c.Empty())

	var nilChain *Chain
	assert.True(t, nilChain.Empty())
	assert.True(t, nilChain.Match("anything", false))
}

func TestExcludePattern(t *testing.T) {
	c := NewChain()
	require.NoError(t, c.AddExclude("*.psd"))

	assert.False(t, c.Match("Layers.psd", false))
	assert.False(t, c.Match("img/pictures/Layers.psd", false))
	assert.True(t, c.Match("img/pictures/Layers.png", false))
	assert.False(t, c.Empty())
}

func TestIncludeOverridesExclude(t *testing.T) {
	c := NewChain()
	require.NoError(t, c.AddInclude("Credits.txt"))
	require.NoError(t, c.AddExclude("*.txt"))

	assert.True(t, c.Match("Credits.txt", false))
	assert.False(t, c.Match("notes.txt", false))
}

func TestExcludeIncludeOrder(t *testing.T) {
	c := NewChain()
	require.NoError(t, c.AddExclude("*.txt"))
	require.NoError(t, c.AddInclude("Credits.txt"))

	assert.False(t, c.Match("Credits.txt", false))
}

func TestDirOnlyPattern(t *testing.T) {
	c := NewChain()
	require.NoError(t, c.AddExclude("drafts/"))

	assert.False(t, c.Match("img/drafts", true))
	assert.True(t, c.Match("img/drafts", false))
}

func TestAnchoredPattern(t *testing.T) {
	c := NewChain()
	require.NoError(t, c.AddExclude("/README.txt"))

	assert.False(t, c.Match("README.txt", false))
	assert.True(t, c.Match("img/README.txt", false))
}

func TestDoubleStar(t *testing.T) {
	c := NewChain()
	require.NoError(t, c.AddExclude("img/**/*.psd"))

	assert.False(t, c.Match("img/pictures/Title.psd", false))
	assert.False(t, c.Match("img/a/b/c/Title.psd", false))
	assert.True(t, c.Match("audio/Title.psd", false))
}

func TestWindowsSeparators(t *testing.T) {
	c := NewChain()
	require.NoError(t, c.AddExclude("img/pictures/*.psd"))
	require.NoError(t, c.AddExclude("*.bak"))

	assert.False(t, c.Match(`img\pictures\Title.psd`, false))
	assert.False(t, c.Match(`audio\se\Cursor.bak`, false))
	assert.True(t, c.Match(`img\faces\Title.psd`, false))
}

func TestInvalidPattern(t *testing.T) {
	c := NewChain()
	assert.Error(t, c.AddExclude("img/[abc"))
	assert.Error(t, c.AddInclude("/"))
	assert.True(t, c.Empty())
}

package util

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/ValentinKolb/aKV/lib/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWrapString(t *testing.T) {
	text := strings.Repeat("word ", 30)
	for _, line := range strings.Split(WrapString(text), "\n") {
		assert.LessOrEqual(t, len(line), Wrap)
	}
	assert.Equal(t, "a b", WrapString("  a   b "))
}

func TestOpenStore(t *testing.T) {
	dir := t.TempDir()
	conf := &common.StoreConfig{
		LogPath:  filepath.Join(dir, "akv.log"),
		MetaPath: filepath.Join(dir, "akv.meta"),
		LogLevel: "error",
	}

	s, err := OpenStore(conf)
	require.NoError(t, err)
	require.NoError(t, s.Put(1, "hello"))
	require.NoError(t, s.Close())

	s, err = OpenStore(conf)
	require.NoError(t, err)
	defer s.Close()
	v, err := s.Get(1)
	require.NoError(t, err)
	assert.Equal(t, "hello", v)
}

func TestOpenStoreInvalidConfig(t *testing.T) {
	_, err := OpenStore(&common.StoreConfig{LogPath: "x", MetaPath: "y", LogLevel: "loud"})
	assert.Error(t, err)
}

package common

import (
	"bytes"
	"testing"
	"time"

	"github.com/lni/dragonboat/v4/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLogLevel(t *testing.T) {
	for in, want := range map[string]logger.LogLevel{
		"debug": logger.DEBUG,
		"INFO":  logger.INFO,
		"warn":  logger.WARNING,
		"error": logger.ERROR,
	} {
		got, err := ParseLogLevel(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseLogLevel("loud")
	assert.Error(t, err)
}

func TestLoggerFormatAndLevel(t *testing.T) {
	var buf bytes.Buffer
	prev := output
	output = &buf
	defer func() { output = prev }()

	l := CreateLogger("birch")
	l.SetLevel(logger.WARNING)

	l.Infof("hidden %d", 1)
	l.Warningf("shown %d", 2)

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "WARN  | birch    | shown 2")
}

func TestStoreConfig(t *testing.T) {
	c := StoreConfig{
		LogPath:          "data.log",
		MetaPath:         "data.meta",
		BufferCapacity:   1024,
		SnapshotInterval: time.Minute,
		LogLevel:         "info",
	}
	require.NoError(t, c.Validate())

	opts := c.Options()
	assert.Equal(t, 1024, opts.BufferCapacity)
	assert.Equal(t, time.Minute, opts.SnapshotInterval)

	s := c.String()
	assert.Contains(t, s, "STORAGE")
	assert.Contains(t, s, "data.meta")
	assert.Contains(t, s, "1m0s")
	assert.Contains(t, s, "default") // workers

	c.MetaPath = c.LogPath
	assert.Error(t, c.Validate())

	c.MetaPath = ""
	assert.Error(t, c.Validate())
}

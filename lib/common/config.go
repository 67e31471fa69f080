package common

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/ValentinKolb/aKV/lib/db/engines/birch"
)

// --------------------------------------------------------------------------
// Store configuration struct
// --------------------------------------------------------------------------

// StoreConfig holds all configuration parameters of a local store
type StoreConfig struct {
	// Files
	LogPath  string
	MetaPath string

	// Engine parameters (<= 0 = engine default)
	BufferCapacity   int
	Workers          int
	MaxPendingChunks int
	SnapshotInterval time.Duration

	// Logging configuration
	LogLevel string
}

// Options converts the engine parameters to birch.Options
func (c *StoreConfig) Options() *birch.Options {
	return &birch.Options{
		BufferCapacity:   c.BufferCapacity,
		Workers:          c.Workers,
		MaxPendingChunks: c.MaxPendingChunks,
		SnapshotInterval: c.SnapshotInterval,
	}
}

// Validate checks that all required fields are set
func (c *StoreConfig) Validate() error {
	if c.LogPath == "" {
		return fmt.Errorf("log path must not be empty")
	}
	if c.MetaPath == "" {
		return fmt.Errorf("meta path must not be empty")
	}
	if c.LogPath == c.MetaPath {
		return fmt.Errorf("log path and meta path must differ (both are %s)", c.LogPath)
	}
	_, err := ParseLogLevel(c.LogLevel)
	return err
}

// String returns a formatted string representation of the configuration
func (c *StoreConfig) String() string {
	var sb strings.Builder

	// Create helper functions for consistent formatting
	addSection := func(title string) {
		sb.WriteString("\n")
		sb.WriteString(fmt.Sprintf("%s\n", strings.ToUpper(title)))
	}

	addField := func(name, value string) {
		sb.WriteString(fmt.Sprintf("  %-22s: %s\n", name, value))
	}

	orDefault := func(v int) string {
		if v <= 0 {
			return "default"
		}
		return strconv.Itoa(v)
	}

	// Files
	addSection("Storage")
	addField("Log File", c.LogPath)
	addField("Metadata File", c.MetaPath)

	// Engine
	addSection("Engine")
	addField("Buffer Capacity", orDefault(c.BufferCapacity))
	addField("Workers", orDefault(c.Workers))
	addField("Max Pending Chunks", orDefault(c.MaxPendingChunks))
	if c.SnapshotInterval > 0 {
		addField("Snapshot Interval", c.SnapshotInterval.String())
	} else {
		addField("Snapshot Interval", "on save and close")
	}

	// Logging configuration
	addSection("Logging")
	addField("Log Level", c.LogLevel)

	return sb.String()
}

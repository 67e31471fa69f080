package birch

import (
	"runtime"
	"time"
)

// Constants for the default engine behavior
const (
	defaultBufferCapacity   = 64 * 1024 // bytes buffered before a chunk is sealed
	defaultMaxPendingChunks = 64        // sealed chunks waiting for a worker
)

// Options configures the engine during Open
type Options struct {
	BufferCapacity   int           // Bytes accumulated before the write buffer is sealed (<= 0 = default: 64 KB)
	Workers          int           // Number of background flush workers (<= 0 = runtime.NumCPU())
	MaxPendingChunks int           // Sealed chunks that may wait for a worker before Put blocks (<= 0 = default: 64)
	SnapshotInterval time.Duration // Time between periodic index snapshots (0 = only on Save and Close)
}

// DefaultOptions returns the default engine options
func DefaultOptions() *Options {
	return &Options{
		BufferCapacity:   defaultBufferCapacity,
		Workers:          runtime.NumCPU(),
		MaxPendingChunks: defaultMaxPendingChunks,
		SnapshotInterval: 0,
	}
}

// withDefaults returns a copy of opts where every unset field carries its default
func (opts *Options) withDefaults() Options {
	o := *DefaultOptions()
	if opts == nil {
		return o
	}
	if opts.BufferCapacity > 0 {
		o.BufferCapacity = opts.BufferCapacity
	}
	if opts.Workers > 0 {
		o.Workers = opts.Workers
	}
	if opts.MaxPendingChunks > 0 {
		o.MaxPendingChunks = opts.MaxPendingChunks
	}
	if opts.SnapshotInterval > 0 {
		o.SnapshotInterval = opts.SnapshotInterval
	}
	return o
}

package db

import (
	"errors"
	"fmt"
)

// --------------------------------------------------------------------------
// Helper Types
// --------------------------------------------------------------------------

type Implementation string

const (
	ImplBirch Implementation = "birch"
)

// Feature represents database features as bit flags
type Feature uint64

const (
	FeaturePut        Feature = 1 << iota // Support for Put operations
	FeatureGet                            // Support for Get operations
	FeatureDelete                         // Support for Delete operations
	FeatureHas                            // Support for Has operations
	FeatureFlush                          // Support for Flush operations
	FeatureSnapshot                       // Support for Save operations (index snapshot)
	FeatureCompaction                     // Support for reclaiming orphaned log space
)

func (f Feature) String() string {
	switch f {
	case FeaturePut:
		return "Put"
	case FeatureGet:
		return "Get"
	case FeatureDelete:
		return "Delete"
	case FeatureHas:
		return "Has"
	case FeatureFlush:
		return "Flush"
	case FeatureSnapshot:
		return "Snapshot"
	case FeatureCompaction:
		return "Compaction"
	default:
		return "Unknown"
	}
}

type DatabaseInfo struct {
	SizeBytes         int            `json:"size_bytes"`
	DbType            Implementation `json:"db_type"`
	SupportedFeatures []Feature      `json:"supported_features"`
	Metadata          interface{}    `json:"metadata"`
}

// --------------------------------------------------------------------------
// Errors
// --------------------------------------------------------------------------

var (
	// ErrNotFound is returned by Get and Delete if the key is not in the index.
	ErrNotFound = errors.New("key not found")

	// ErrClosed is returned by every operation after Close.
	ErrClosed = errors.New("database is closed")

	// ErrCorruptMetadata marks a truncated or malformed index snapshot.
	// Loading stops at the first bad record, the database still opens.
	ErrCorruptMetadata = errors.New("corrupt metadata snapshot")

	// ErrSizeMismatch is returned by Put if a codec reports a logical size
	// that differs from the number of bytes it produced.
	ErrSizeMismatch = errors.New("logical size does not match encoded length")

	// ErrCodec marks a value that the codec failed to encode or decode.
	// The codec's own error is wrapped next to it.
	ErrCodec = errors.New("codec error")
)

// IOError wraps a failed file operation. It is fatal for the operation it
// occurred in, and for the database if it happened while writing the log.
type IOError struct {
	Op   string // e.g. "open", "read", "write", "sync"
	Path string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *IOError) Unwrap() error {
	return e.Err
}

// NewIOError returns nil if err is nil, otherwise err wrapped in an *IOError.
// Errors that already are an *IOError are returned unchanged.
func NewIOError(op, path string, err error) error {
	if err == nil {
		return nil
	}
	var ioErr *IOError
	if errors.As(err, &ioErr) {
		return err
	}
	return &IOError{Op: op, Path: path, Err: err}
}

// IsIOError reports whether err (or any error it wraps) is an *IOError.
func IsIOError(err error) bool {
	var ioErr *IOError
	return errors.As(err, &ioErr)
}

// --------------------------------------------------------------------------
// Database Interface
// --------------------------------------------------------------------------

// KVDB defines an interface for persistent key-value database implementations
// with integer keys and typed values. How a value of type V is turned into bytes
// is decided by the codec the implementation was created with.
// Implementations can vary in their feature support, which can be queried with SupportsFeature.
type KVDB[V any] interface {

	// --------------------------------------------------------------------------
	// Write Operations
	// --------------------------------------------------------------------------

	// Put inserts or overwrites the value for key.
	// An overwrite never updates bytes in place, it appends a new copy and repoints the index.
	// The only errors are I/O errors of the write path, codec errors and ErrClosed.
	Put(key int64, value V) (err error)

	// Delete removes key from the index. It returns ErrNotFound if the key is absent.
	// The bytes the key pointed to stay in the log.
	Delete(key int64) (err error)

	// --------------------------------------------------------------------------
	// Query Operations
	// --------------------------------------------------------------------------

	// Get retrieves the value for an exact key. It returns ErrNotFound if the key is absent.
	// A value written by Put is visible to Get immediately, even before it was flushed.
	Get(key int64) (value V, err error)

	// Has checks whether a key exists in the database.
	Has(key int64) (loaded bool)

	// --------------------------------------------------------------------------
	// Persistence Operations
	// --------------------------------------------------------------------------

	// Flush synchronously writes all buffered data to the log.
	Flush() (err error)

	// Save flushes and writes a snapshot of the index to the metadata file.
	Save() (err error)

	// --------------------------------------------------------------------------
	// Feature Support
	// --------------------------------------------------------------------------

	// SupportsFeature checks if the database implementation supports the specified feature.
	// Returns true if the feature is supported, false otherwise.
	// Multiple features can be checked at once using bitwise OR (|) operator.
	SupportsFeature(feature Feature) (ok bool)

	// GetInfo returns information about the database.
	GetInfo() (info DatabaseInfo)

	// Close stops all background work, flushes the buffer, saves the index snapshot
	// and closes all files. Calling Close more than once returns ErrClosed.
	Close() (err error)
}

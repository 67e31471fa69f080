package store

import (
	"errors"
	"fmt"
	"io"

	"github.com/ValentinKolb/aKV/lib/db"
	"github.com/ValentinKolb/aKV/lib/db/codec"
)

// --------------------------------------------------------------------------
// Interface Definition
// --------------------------------------------------------------------------

// DBFactory is a function type that creates a new db used by the store.
// This is used to abstract the creation of the db from the store implementation.
type DBFactory[V any] func() (db.KVDB[V], error)

// IStore is the generic interface for interacting with a key–value store.
// Every error returned by a store is a *Error (nil on success). Errors of the
// database are wrapped, so errors.Is(err, db.ErrNotFound) keeps working.
type IStore[V any] interface {
	// Put inserts or overwrites the value for key.
	Put(key int64, value V) (err error)
	// Get returns the value for key. A missing key is an error with code RetCNotFound.
	Get(key int64) (value V, err error)
	// Delete removes key. A missing key is an error with code RetCNotFound.
	Delete(key int64) (err error)
	// Has returns whether key exists in the store.
	Has(key int64) (loaded bool, err error)
	// Flush synchronously writes all buffered values to disk.
	Flush() (err error)
	// Save flushes and persists the index.
	Save() (err error)
	// GetDBInfo returns metadata about the database underlying the store.
	// It is not guaranteed that all fields are filled in or that the information is up-to-date!
	GetDBInfo() (info db.DatabaseInfo, err error)
	// WriteMetrics writes the metrics of the underlying database in Prometheus text format.
	WriteMetrics(w io.Writer) (err error)
	// Close flushes everything, persists the index and releases all files.
	Close() (err error)
}

// --------------------------------------------------------------------------
// Custom Error Type
// --------------------------------------------------------------------------

// Error is a custom error type that wraps a return code (of type RetCode),
// an error message and the underlying error, if any.
type Error struct {
	Code RetCode // The return code
	Msg  string  // The error message.
	Err  error   // The wrapped error (may be nil)
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("KVStoreError (code %s): %s: %v", e.Code, e.Msg, e.Err)
	}
	return fmt.Sprintf("KVStoreError (code %s): %s", e.Code, e.Msg)
}

// Unwrap returns the wrapped error
func (e *Error) Unwrap() error {
	return e.Err
}

// NewError creates a new KVStoreError with the given code and message.
func NewError(code RetCode, msg string) *Error {
	return &Error{
		Code: code,
		Msg:  msg,
	}
}

// WrapError converts an error of a db.KVDB operation into a *Error.
// The code is derived from the error, msg describes the failed operation.
// A nil err returns nil.
func WrapError(msg string, err error) error {
	if err == nil {
		return nil
	}
	var storeErr *Error
	if errors.As(err, &storeErr) {
		return storeErr
	}
	return &Error{Code: CodeOf(err), Msg: msg, Err: err}
}

// CodeOf returns the return code describing err
func CodeOf(err error) RetCode {
	var storeErr *Error
	switch {
	case err == nil:
		return RetCSuccess
	case errors.As(err, &storeErr):
		return storeErr.Code
	case errors.Is(err, db.ErrNotFound):
		return RetCNotFound
	case errors.Is(err, db.ErrClosed):
		return RetCClosed
	case errors.Is(err, db.ErrSizeMismatch),
		errors.Is(err, db.ErrCodec),
		errors.Is(err, codec.ErrShortBuffer),
		errors.Is(err, codec.ErrInvalidLength):
		return RetCInvalidValue
	case db.IsIOError(err):
		return RetCIOError
	default:
		return RetCInternalError
	}
}

// IsNotFound reports whether err means that a key does not exist
func IsNotFound(err error) bool {
	return CodeOf(err) == RetCNotFound
}

// --------------------------------------------------------------------------
// Return Codes
// --------------------------------------------------------------------------

type RetCode uint64

const (
	RetCSuccess              RetCode = iota // 0: Command executed successfully.
	RetCInternalError                       // 1: Command failed due to an internal error.
	RetCUnsupportedOperation                // 2: Operation is not supported by underlying database.
	RetCInvalidOperation                    // 3: Invalid operation.
	RetCNotFound                            // 4: The key does not exist.
	RetCIOError                             // 5: A file operation failed.
	RetCClosed                              // 6: The store is closed.
	RetCInvalidValue                        // 7: The value could not be encoded or decoded.
)

func (c RetCode) String() string {
	switch c {
	case RetCSuccess:
		return "Success"
	case RetCInternalError:
		return "InternalError"
	case RetCUnsupportedOperation:
		return "UnsupportedOperation"
	case RetCInvalidOperation:
		return "InvalidOperation"
	case RetCNotFound:
		return "NotFound"
	case RetCIOError:
		return "IOError"
	case RetCClosed:
		return "Closed"
	case RetCInvalidValue:
		return "InvalidValue"
	default:
		return "Unknown"
	}
}

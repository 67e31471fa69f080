// Package store provides the public interface of the key-value store: typed
// put/get/delete/flush operations with unified, inspectable error handling.
// It serves as an abstraction layer over the lower-level db.KVDB implementations.
//
// The package focuses on:
//   - A unified interface (IStore) for key-value operations across different backends
//   - Pluggable storage backend architecture through the DBFactory pattern
//
// Key Components:
//
//   - IStore Interface: The core abstraction defining operations for interacting with
//     a key-value store. Applications only talk to this interface, never to an engine.
//
//   - Error System: Every error is a *Error carrying a RetCode. A missing key
//     (RetCNotFound) and a failed file operation (RetCIOError) are distinct codes and are
//     never collapsed into an empty value. The wrapped database error stays available
//     through errors.Is and errors.As.
//
//   - DBFactory: A function type that abstracts the creation of the underlying db.KVDB
//     instance.
//
// Implementations:
//
//	- Local Store (lstore): A single-node implementation directly on top of a db.KVDB
//	  instance, by default the birch engine.
//	  Available in the "github.com/ValentinKolb/aKV/lib/store/lstore" package.
package store

// Package lstore implements a local, single-node key-value store based on the
// store.IStore interface. It is a thin wrapper around any db.KVDB implementation,
// by default the persistent birch engine.
//
// Key Features:
//   - Typed values through a codec.Codec chosen when the store is opened
//   - Direct integration with db.KVDB implementations
//   - Feature detection to handle unsupported operations gracefully
//   - Every error is a *store.Error with a return code
//
// Implementation Details:
//
//   - Feature Detection: Before executing operations, the store checks if the underlying
//     db.KVDB implementation supports the requested feature through the SupportsFeature
//     method. Unsupported operations return RetCUnsupportedOperation rather than failing
//     silently.
//
//   - Error Mapping: Errors of the database are wrapped with store.WrapError. A missing
//     key becomes RetCNotFound, a failed file operation RetCIOError and an operation on a
//     closed store RetCClosed. The original error stays reachable with errors.Is.
//
//   - Composition Architecture: The database is injected through a store.DBFactory,
//     Open and OpenWithOptions build the factory for the birch engine.
//
// Thread Safety:
//
//	All operations are safe for concurrent use if the underlying db.KVDB is.
//
// Usage Example:
//
//	s, err := lstore.Open("data.log", "data.meta", 64*1024, codec.String)
//	if err != nil {
//		return err
//	}
//	defer s.Close()
//
//	_ = s.Put(1, "hello")
//	v, err := s.Get(1)
//	if store.IsNotFound(err) {
//		// ...
//	}
package lstore

package lstore

import (
	"io"
	"sync/atomic"

	"github.com/ValentinKolb/aKV/lib/db"
	"github.com/ValentinKolb/aKV/lib/db/codec"
	"github.com/ValentinKolb/aKV/lib/db/engines/birch"
	"github.com/ValentinKolb/aKV/lib/store"
	"github.com/lni/dragonboat/v4/logger"
)

var Logger = logger.GetLogger("store")

type storeImpl[V any] struct {
	db     db.KVDB[V]
	closed atomic.Bool
}

// metricsWriter is implemented by databases exporting Prometheus metrics
type metricsWriter interface {
	WritePrometheus(w io.Writer)
}

// Open opens (or creates) a store backed by the birch engine.
// bufferCapacity is the number of bytes buffered before a background write
// is started (<= 0 uses the engine default).
func Open[V any](logPath, metaPath string, bufferCapacity int, c codec.Codec[V]) (store.IStore[V], error) {
	opts := birch.DefaultOptions()
	opts.BufferCapacity = bufferCapacity
	return OpenWithOptions(logPath, metaPath, c, opts)
}

// OpenWithOptions is like Open, but all engine options can be set
func OpenWithOptions[V any](logPath, metaPath string, c codec.Codec[V], opts *birch.Options) (store.IStore[V], error) {
	return NewLocalStore(func() (db.KVDB[V], error) {
		return birch.Open(logPath, metaPath, c, opts)
	})
}

// NewLocalStore creates a new local store instance.
// This store implementation is not distributed and only works on a single node.
// The database is created by the factory, a factory error is returned as a *store.Error.
func NewLocalStore[V any](factory store.DBFactory[V]) (store.IStore[V], error) {
	database, err := factory()
	if err != nil {
		return nil, store.WrapError("open database", err)
	}
	Logger.Debugf("opened local store on %s", database.GetInfo().DbType)
	return &storeImpl[V]{db: database}, nil
}

// check returns an error if the store is closed or the db lacks the feature
func (s *storeImpl[V]) check(feature db.Feature, op string) error {
	if s.closed.Load() {
		return store.WrapError(op, db.ErrClosed)
	}
	if !s.db.SupportsFeature(feature) {
		return store.NewError(store.RetCUnsupportedOperation, op+" operation is not supported")
	}
	return nil
}

// --------------------------------------------------------------------------
// Interface Methods (docu see store/interface.go)
// --------------------------------------------------------------------------

func (s *storeImpl[V]) Put(key int64, value V) error {
	if err := s.check(db.FeaturePut, "Put"); err != nil {
		return err
	}
	return store.WrapError("put", s.db.Put(key, value))
}

func (s *storeImpl[V]) Get(key int64) (V, error) {
	var zero V
	if err := s.check(db.FeatureGet, "Get"); err != nil {
		return zero, err
	}
	val, err := s.db.Get(key)
	if err != nil {
		return zero, store.WrapError("get", err)
	}
	return val, nil
}

func (s *storeImpl[V]) Delete(key int64) error {
	if err := s.check(db.FeatureDelete, "Delete"); err != nil {
		return err
	}
	return store.WrapError("delete", s.db.Delete(key))
}

func (s *storeImpl[V]) Has(key int64) (bool, error) {
	if err := s.check(db.FeatureHas, "Has"); err != nil {
		return false, err
	}
	return s.db.Has(key), nil
}

func (s *storeImpl[V]) Flush() error {
	if err := s.check(db.FeatureFlush, "Flush"); err != nil {
		return err
	}
	return store.WrapError("flush", s.db.Flush())
}

func (s *storeImpl[V]) Save() error {
	if err := s.check(db.FeatureSnapshot, "Save"); err != nil {
		return err
	}
	return store.WrapError("save", s.db.Save())
}

func (s *storeImpl[V]) GetDBInfo() (db.DatabaseInfo, error) {
	if s.closed.Load() {
		return db.DatabaseInfo{}, store.WrapError("info", db.ErrClosed)
	}
	return s.db.GetInfo(), nil
}

func (s *storeImpl[V]) WriteMetrics(w io.Writer) error {
	if s.closed.Load() {
		return store.WrapError("metrics", db.ErrClosed)
	}
	mw, ok := s.db.(metricsWriter)
	if !ok {
		return store.NewError(store.RetCUnsupportedOperation, "database does not export metrics")
	}
	mw.WritePrometheus(w)
	return nil
}

func (s *storeImpl[V]) Close() error {
	if !s.closed.CompareAndSwap(false, true) {
		return store.WrapError("close", db.ErrClosed)
	}
	if err := s.db.Close(); err != nil {
		Logger.Errorf("closing the database failed: %v", err)
		return store.WrapError("close", err)
	}
	return nil
}

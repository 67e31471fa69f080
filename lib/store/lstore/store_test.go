package lstore_test

import (
	"bytes"
	"errors"
	"path/filepath"
	"testing"

	"github.com/ValentinKolb/aKV/lib/db"
	"github.com/ValentinKolb/aKV/lib/db/codec"
	"github.com/ValentinKolb/aKV/lib/store"
	"github.com/ValentinKolb/aKV/lib/store/lstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openStore(t *testing.T, dir string) store.IStore[string] {
	t.Helper()
	s, err := lstore.Open(filepath.Join(dir, "data.log"), filepath.Join(dir, "data.meta"), 64, codec.String)
	require.NoError(t, err)
	return s
}

func codeOf(t *testing.T, err error) store.RetCode {
	t.Helper()
	var storeErr *store.Error
	require.True(t, errors.As(err, &storeErr), "expected *store.Error, got %T", err)
	return storeErr.Code
}

func TestHelloWorld(t *testing.T) {
	s := openStore(t, t.TempDir())
	defer s.Close()

	require.NoError(t, s.Put(1, "hello"))
	require.NoError(t, s.Put(2, "world"))

	v, err := s.Get(1)
	require.NoError(t, err)
	assert.Equal(t, "hello", v)

	v, err = s.Get(2)
	require.NoError(t, err)
	assert.Equal(t, "world", v)

	ok, err := s.Has(2)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestNotFound(t *testing.T) {
	s := openStore(t, t.TempDir())
	defer s.Close()

	_, err := s.Get(42)
	require.Error(t, err)
	assert.Equal(t, store.RetCNotFound, codeOf(t, err))
	assert.True(t, errors.Is(err, db.ErrNotFound))
	assert.True(t, store.IsNotFound(err))

	err = s.Delete(42)
	assert.Equal(t, store.RetCNotFound, codeOf(t, err))

	ok, err := s.Has(42)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestDeleteThenGet(t *testing.T) {
	s := openStore(t, t.TempDir())
	defer s.Close()

	require.NoError(t, s.Put(7, "seven"))
	require.NoError(t, s.Delete(7))

	_, err := s.Get(7)
	assert.True(t, store.IsNotFound(err))
}

func TestPersistence(t *testing.T) {
	dir := t.TempDir()

	s := openStore(t, dir)
	for i := int64(0); i < 100; i++ {
		require.NoError(t, s.Put(i, "v"))
	}
	require.NoError(t, s.Put(50, "overwritten"))
	require.NoError(t, s.Close())

	s = openStore(t, dir)
	defer s.Close()

	v, err := s.Get(50)
	require.NoError(t, err)
	assert.Equal(t, "overwritten", v)

	info, err := s.GetDBInfo()
	require.NoError(t, err)
	assert.Equal(t, db.ImplBirch, info.DbType)
}

func TestClosed(t *testing.T) {
	s := openStore(t, t.TempDir())
	require.NoError(t, s.Close())

	err := s.Put(1, "x")
	assert.Equal(t, store.RetCClosed, codeOf(t, err))
	assert.True(t, errors.Is(err, db.ErrClosed))

	_, err = s.Get(1)
	assert.Equal(t, store.RetCClosed, codeOf(t, err))

	assert.Equal(t, store.RetCClosed, codeOf(t, s.Close()))
}

func TestOpenFailure(t *testing.T) {
	dir := t.TempDir()
	_, err := lstore.Open(filepath.Join(dir, "missing", "data.log"), filepath.Join(dir, "data.meta"), 0, codec.String)
	require.Error(t, err)
	assert.Equal(t, store.RetCIOError, codeOf(t, err))
	assert.True(t, db.IsIOError(err))
}

func TestSizeMismatch(t *testing.T) {
	dir := t.TempDir()
	s, err := lstore.Open[string](filepath.Join(dir, "data.log"), filepath.Join(dir, "data.meta"), 0, liesAboutSize{})
	require.NoError(t, err)
	defer s.Close()

	err = s.Put(1, "abc")
	assert.Equal(t, store.RetCInvalidValue, codeOf(t, err))
}

func TestCodecErrorsAreInvalidValue(t *testing.T) {
	dir := t.TempDir()
	logPath, metaPath := filepath.Join(dir, "data.log"), filepath.Join(dir, "data.meta")

	s, err := lstore.Open(logPath, metaPath, 0, codec.String)
	require.NoError(t, err)
	require.NoError(t, s.Put(1, "abc"))
	require.NoError(t, s.Close())

	// three bytes can't be decoded as an int64
	ints, err := lstore.Open(logPath, metaPath, 0, codec.Int64)
	require.NoError(t, err)
	defer ints.Close()

	_, err = ints.Get(1)
	assert.Equal(t, store.RetCInvalidValue, codeOf(t, err))
	assert.True(t, errors.Is(err, codec.ErrShortBuffer))

	failing, err := lstore.Open[string](filepath.Join(dir, "f.log"), filepath.Join(dir, "f.meta"), 0, failsToEncode{})
	require.NoError(t, err)
	defer failing.Close()
	assert.Equal(t, store.RetCInvalidValue, codeOf(t, failing.Put(1, "x")))

	assert.Equal(t, store.RetCInvalidValue, store.CodeOf(codec.ErrInvalidLength))
}

func TestUnsupportedFeature(t *testing.T) {
	s, err := lstore.NewLocalStore(func() (db.KVDB[string], error) {
		return readOnlyDB{}, nil
	})
	require.NoError(t, err)

	err = s.Put(1, "x")
	assert.Equal(t, store.RetCUnsupportedOperation, codeOf(t, err))

	v, err := s.Get(1)
	require.NoError(t, err)
	assert.Equal(t, "fixed", v)

	var buf bytes.Buffer
	assert.Equal(t, store.RetCUnsupportedOperation, codeOf(t, s.WriteMetrics(&buf)))
}

func TestFactoryError(t *testing.T) {
	_, err := lstore.NewLocalStore(func() (db.KVDB[string], error) {
		return nil, errors.New("boom")
	})
	assert.Equal(t, store.RetCInternalError, codeOf(t, err))
}

func TestWriteMetrics(t *testing.T) {
	s := openStore(t, t.TempDir())
	defer s.Close()

	require.NoError(t, s.Put(1, "hello"))
	var buf bytes.Buffer
	require.NoError(t, s.WriteMetrics(&buf))
	assert.Contains(t, buf.String(), "akv_puts_total")
}

func TestRetCodeString(t *testing.T) {
	assert.Equal(t, "NotFound", store.RetCNotFound.String())
	assert.Equal(t, "IOError", store.RetCIOError.String())
	assert.Equal(t, "Unknown", store.RetCode(99).String())
	assert.Equal(t, store.RetCSuccess, store.CodeOf(nil))
	assert.Nil(t, store.WrapError("noop", nil))
}

// readOnlyDB only supports Get
type readOnlyDB struct{}

func (readOnlyDB) Put(int64, string) error           { return nil }
func (readOnlyDB) Delete(int64) error                { return nil }
func (readOnlyDB) Get(int64) (string, error)         { return "fixed", nil }
func (readOnlyDB) Has(int64) bool                    { return true }
func (readOnlyDB) Flush() error                      { return nil }
func (readOnlyDB) Save() error                       { return nil }
func (readOnlyDB) SupportsFeature(f db.Feature) bool { return f == db.FeatureGet }
func (readOnlyDB) GetInfo() db.DatabaseInfo          { return db.DatabaseInfo{} }
func (readOnlyDB) Close() error                      { return nil }

// liesAboutSize reports one byte less than it encodes
type liesAboutSize struct{}

func (liesAboutSize) Append(dst []byte, v string) ([]byte, error) { return append(dst, v...), nil }
func (liesAboutSize) Decode(b []byte) (string, error)              { return string(b), nil }
func (liesAboutSize) Size(v string) int                            { return len(v) - 1 }

// failsToEncode rejects every value
type failsToEncode struct{ liesAboutSize }

func (failsToEncode) Append([]byte, string) ([]byte, error) { return nil, errors.New("cannot encode") }

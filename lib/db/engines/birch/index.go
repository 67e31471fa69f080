package birch

import (
	"github.com/puzpuzpuz/xsync/v3"
)

// Record locates the encoded value of a key in the log
type Record struct {
	Offset uint64 // position of the first byte
	Size   uint64 // logical size of the encoded value
}

// end returns the position directly behind the value
func (r Record) end() uint64 {
	return r.Offset + r.Size
}

// index maps every live key to the record of its latest value.
// It is the single source of truth for Get, Delete and Has.
//
// Thread-safety: All methods are safe for concurrent use. Put installs records while
// holding the buffer mutex, so records of one key are installed in offset order.
type index struct {
	records *xsync.MapOf[int64, Record]
}

func newIndex() *index {
	return &index{records: xsync.NewMapOf[int64, Record]()}
}

func (idx *index) store(key int64, rec Record) {
	idx.records.Store(key, rec)
}

func (idx *index) load(key int64) (Record, bool) {
	return idx.records.Load(key)
}

// remove deletes key and reports whether it was present
func (idx *index) remove(key int64) bool {
	_, loaded := idx.records.LoadAndDelete(key)
	return loaded
}

func (idx *index) len() int {
	return idx.records.Size()
}

// each calls fn for every record until fn returns false. Records installed or
// removed concurrently may or may not be visited.
func (idx *index) each(fn func(key int64, rec Record) bool) {
	idx.records.Range(fn)
}

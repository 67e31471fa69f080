package birch

import (
	"bufio"
	"encoding/binary"
	"io"
	"os"
	"sync"

	"github.com/ValentinKolb/aKV/lib/db"
)

/*
Snapshot file layout, all fields fixed-width in native byte order:

	[count uint64] ([key int64][offset uint64][size uint64]) * count

There is no header and no version. The file is rewritten from offset 0 on every
save and truncated to the written length.
*/

const (
	countWidth  = 8
	recordWidth = 24
)

var ne = binary.NativeEndian

// metaFile persists the index
type metaFile struct {
	mu   sync.Mutex // serializes save
	path string
	f    *os.File
}

// openMetaFile opens or creates the metadata file at path
func openMetaFile(path string) (*metaFile, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return nil, db.NewIOError("open", path, err)
	}
	return &metaFile{path: path, f: f}, nil
}

// save writes a snapshot of idx and returns the number of records written.
// The caller is responsible for flushing the log first; records of values that
// are not yet written are dropped by the next load.
//
// Thread-safety: Concurrent saves are serialized. Puts and deletes may run
// concurrently, the snapshot then contains any consistent mix of old and new records.
func (m *metaFile) save(idx *index) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	// collect first so that count and records agree
	type entry struct {
		key int64
		rec Record
	}
	entries := make([]entry, 0, idx.len())
	idx.each(func(key int64, rec Record) bool {
		entries = append(entries, entry{key, rec})
		return true
	})

	if _, err := m.f.Seek(0, io.SeekStart); err != nil {
		return 0, db.NewIOError("seek", m.path, err)
	}

	bw := bufio.NewWriterSize(m.f, 1024*1024)
	var buf [recordWidth]byte

	ne.PutUint64(buf[:countWidth], uint64(len(entries)))
	if _, err := bw.Write(buf[:countWidth]); err != nil {
		return 0, db.NewIOError("write", m.path, err)
	}

	for _, e := range entries {
		ne.PutUint64(buf[0:8], uint64(e.key))
		ne.PutUint64(buf[8:16], e.rec.Offset)
		ne.PutUint64(buf[16:24], e.rec.Size)
		if _, err := bw.Write(buf[:]); err != nil {
			return 0, db.NewIOError("write", m.path, err)
		}
	}

	if err := bw.Flush(); err != nil {
		return 0, db.NewIOError("write", m.path, err)
	}
	if err := m.f.Truncate(int64(countWidth + recordWidth*len(entries))); err != nil {
		return 0, db.NewIOError("truncate", m.path, err)
	}
	if err := m.f.Sync(); err != nil {
		return 0, db.NewIOError("sync", m.path, err)
	}
	return len(entries), nil
}

// load reads the snapshot into idx. It never fails:
//   - a missing or unreadable count means an empty snapshot
//   - a short or partial record stops loading, the rest counts as absent
//   - records that end behind logLen point at bytes that never reached the log and are dropped
//
// It returns the number of loaded and dropped records.
//
// Thread-safety: This function is not thread-safe and must only be called during Open.
func (m *metaFile) load(idx *index, logLen uint64) (loaded, dropped int) {
	if _, err := m.f.Seek(0, io.SeekStart); err != nil {
		Logger.Warningf("%v: %s: %v, starting with an empty index", db.ErrCorruptMetadata, m.path, err)
		return 0, 0
	}
	br := bufio.NewReaderSize(m.f, 1024*1024)
	var buf [recordWidth]byte

	if _, err := io.ReadFull(br, buf[:countWidth]); err != nil {
		// a fresh file has no count
		return 0, 0
	}
	count := ne.Uint64(buf[:countWidth])

	for i := uint64(0); i < count; i++ {
		if _, err := io.ReadFull(br, buf[:]); err != nil {
			Logger.Warningf("%v: %s: record %d of %d unreadable (%v), ignoring the remaining records",
				db.ErrCorruptMetadata, m.path, i, count, err)
			break
		}

		key := int64(ne.Uint64(buf[0:8]))
		rec := Record{
			Offset: ne.Uint64(buf[8:16]),
			Size:   ne.Uint64(buf[16:24]),
		}

		if rec.Size > logLen || rec.Offset > logLen-rec.Size {
			Logger.Warningf("dropping key %d: record [%d, +%d) lies outside the log (%d bytes)",
				key, rec.Offset, rec.Size, logLen)
			dropped++
			continue
		}

		idx.store(key, rec)
		loaded++
	}
	return loaded, dropped
}

func (m *metaFile) close() error {
	return db.NewIOError("close", m.path, m.f.Close())
}

package birch

import (
	"errors"
	"io"
	"os"

	"github.com/ValentinKolb/aKV/lib/db"
)

// logFile is the append-only value log. Bytes are only ever written at the
// current end of the file (by the commit gate) and read at positions the index points to.
// Every failure is returned as a *db.IOError.
type logFile struct {
	path string
	f    *os.File
}

// openLogFile opens or creates the log file at path
func openLogFile(path string) (*logFile, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return nil, db.NewIOError("open", path, err)
	}
	return &logFile{path: path, f: f}, nil
}

// end returns the current length of the file. It is read once at startup by seeking
// to the end of the file, afterwards the commit gate tracks the length itself.
func (l *logFile) end() (uint64, error) {
	n, err := l.f.Seek(0, io.SeekEnd)
	if err != nil {
		return 0, db.NewIOError("seek", l.path, err)
	}
	return uint64(n), nil
}

func (l *logFile) writeAt(b []byte, off uint64) error {
	_, err := l.f.WriteAt(b, int64(off))
	return db.NewIOError("write", l.path, err)
}

// readAt fills b from position off. Reading fewer than len(b) bytes is an error.
func (l *logFile) readAt(b []byte, off uint64) error {
	n, err := l.f.ReadAt(b, int64(off))
	if n == len(b) {
		return nil
	}
	if err == nil || errors.Is(err, io.EOF) {
		err = io.ErrUnexpectedEOF
	}
	return db.NewIOError("read", l.path, err)
}

func (l *logFile) sync() error {
	return db.NewIOError("sync", l.path, l.f.Sync())
}

func (l *logFile) close() error {
	return db.NewIOError("close", l.path, l.f.Close())
}

package birch

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ValentinKolb/aKV/lib/db/util"
)

// --------------------------------------------------------------------------
// Write Buffer
// --------------------------------------------------------------------------

// chunk is a sealed write buffer. Its bytes belong at [base, base+len(data)) in the log.
type chunk struct {
	seq  uint64 // position in the global write order
	base uint64 // log offset of data[0]
	data []byte
}

// writeBuffer accumulates encoded values until it is sealed.
//
// Thread-safety: None. It is guarded by the buffer mutex of the engine. Offset assignment,
// the append and sealing all happen under that mutex, which is what ties
// offset order, buffer order and sequence order together.
type writeBuffer struct {
	capacity int
	data     []byte
	base     uint64 // offset of data[0]
	cursor   uint64 // next offset to assign, always base+len(data)
	seq      uint64 // sequence number of the next sealed chunk
}

func newWriteBuffer(capacity int, cursor uint64) *writeBuffer {
	return &writeBuffer{
		capacity: capacity,
		data:     make([]byte, 0, capacity),
		base:     cursor,
		cursor:   cursor,
	}
}

// append buffers b and returns the log offset assigned to it
func (w *writeBuffer) append(b []byte) uint64 {
	off := w.cursor
	w.data = append(w.data, b...)
	w.cursor += uint64(len(b))
	return off
}

func (w *writeBuffer) full() bool {
	return len(w.data) >= w.capacity
}

// seal turns the buffered bytes into a chunk and starts a new empty buffer.
// It returns nil if nothing is buffered.
func (w *writeBuffer) seal() *chunk {
	if len(w.data) == 0 {
		return nil
	}
	c := &chunk{seq: w.seq, base: w.base, data: w.data}
	w.seq++
	w.base = w.cursor
	w.data = make([]byte, 0, w.capacity)
	return c
}

// --------------------------------------------------------------------------
// Commit Gate
// --------------------------------------------------------------------------

// commitGate is the only writer of the log. Chunks may be submitted in any order by
// any number of goroutines, the gate writes them strictly by sequence number:
// out-of-order chunks are parked in a reorder heap until all lower sequence
// numbers are written. Before each write it checks that the chunk starts exactly
// at the current end of the log.
//
// A failed write is sticky: the gate drops every later chunk (their offsets would
// be wrong) and reports the error to all current and future waiters.
type commitGate struct {
	mu      sync.Mutex
	written *sync.Cond // broadcast after every write and on failure

	log     *logFile
	next    uint64        // sequence number that has to be written next
	durable atomic.Uint64 // bytes of the log that are written, only changed with mu held
	broken  atomic.Bool   // set together with err
	err     error

	pending *util.MapHeap     // seq -> seq of parked chunks
	parked  map[uint64]*chunk // parked chunks by seq

	onWrite func(c *chunk, took time.Duration)
}

func newCommitGate(log *logFile, durable uint64, onWrite func(c *chunk, took time.Duration)) *commitGate {
	g := &commitGate{
		log:     log,
		pending: util.NewMapHeap(),
		parked:  make(map[uint64]*chunk),
		onWrite: onWrite,
	}
	g.durable.Store(durable)
	g.written = sync.NewCond(&g.mu)
	return g
}

// submit hands a chunk to the gate and writes every chunk that is next in line.
//
// Thread-safety: This method is thread-safe and can be called concurrently.
func (g *commitGate) submit(c *chunk) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.err != nil {
		return
	}

	g.parked[c.seq] = c
	g.pending.AddItem(c.seq, c.seq)

	for {
		seq, _, ok := g.pending.PeekMin()
		if !ok || seq != g.next {
			return
		}
		g.pending.PopMin()
		next := g.parked[seq]
		delete(g.parked, seq)

		if end := g.durable.Load(); next.base != end {
			g.fail(fmt.Errorf("chunk %d starts at offset %d but the log ends at %d", next.seq, next.base, end))
			return
		}

		start := time.Now()
		if err := g.log.writeAt(next.data, next.base); err != nil {
			g.fail(err)
			return
		}
		if g.onWrite != nil {
			g.onWrite(next, time.Since(start))
		}

		g.durable.Add(uint64(len(next.data)))
		g.next++
		g.written.Broadcast()
	}
}

// fail must be called with mu held
func (g *commitGate) fail(err error) {
	g.err = err
	g.broken.Store(true)
	g.parked = make(map[uint64]*chunk)
	g.pending = util.NewMapHeap()
	g.written.Broadcast()
	Logger.Errorf("log writer stopped, all further writes are dropped: %v", err)
}

// waitDurable blocks until the first target bytes of the log are written
// or the gate has failed.
//
// Thread-safety: This method is thread-safe and can be called concurrently.
func (g *commitGate) waitDurable(target uint64) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	for g.durable.Load() < target && g.err == nil {
		g.written.Wait()
	}
	return g.err
}

// durableLen returns the number of bytes of the log that are written
//
// Thread-safety: This method is lock-free.
func (g *commitGate) durableLen() uint64 {
	return g.durable.Load()
}

// failure returns the sticky write error, if any.
// It only takes the lock after a failure happened.
func (g *commitGate) failure() error {
	if !g.broken.Load() {
		return nil
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.err
}

// parkedLen returns the number of chunks waiting for a lower sequence number
func (g *commitGate) parkedLen() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.parked)
}

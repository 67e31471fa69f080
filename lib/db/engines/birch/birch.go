package birch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ValentinKolb/aKV/lib/db"
	"github.com/ValentinKolb/aKV/lib/db/codec"
	"github.com/ValentinKolb/aKV/lib/db/util"
	"github.com/lni/dragonboat/v4/logger"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
)

var Logger = logger.GetLogger("birch")

// --------------------------------------------------------------------------
// Core Birch database structure
// --------------------------------------------------------------------------

// DB is an append-only key-value database for values of type V. It implements db.KVDB[V].
type DB[V any] struct {
	codec codec.Codec[V]
	opts  Options

	// buffer mutex: guards buf and the transition to closed
	mu     sync.Mutex
	buf    *writeBuffer
	closed atomic.Bool

	// held shared by Get, Delete and Save, exclusively by Close before the
	// files are synced, snapshotted and closed
	inFlight sync.RWMutex

	idx  *index
	log  *logFile
	meta *metaFile
	gate *commitGate

	// hand-off between writers and flush workers
	queue   *util.LockFreeMPSC[chunk]
	slots   *semaphore.Weighted
	pending atomic.Int64

	// background work (flush workers and the snapshot loop)
	background errgroup.Group
	stop       context.CancelFunc

	sizes   *util.SizeHistogram
	metrics *engineMetrics
}

// Open opens the database stored in logPath (values) and metaPath (index snapshot).
// Missing files are created. The index is loaded from the snapshot, the write cursor
// starts at the end of the log. Options can be nil to use DefaultOptions.
//
// A failure to open either file is returned as a *db.IOError; files that were
// already opened are closed again. A corrupt snapshot is not an error, see load.
func Open[V any](logPath, metaPath string, c codec.Codec[V], opts *Options) (*DB[V], error) {
	o := opts.withDefaults()

	log, err := openLogFile(logPath)
	if err != nil {
		return nil, err
	}

	meta, err := openMetaFile(metaPath)
	if err != nil {
		_ = log.close()
		return nil, err
	}

	end, err := log.end()
	if err != nil {
		_ = meta.close()
		_ = log.close()
		return nil, err
	}

	idx := newIndex()
	loaded, dropped := meta.load(idx, end)
	Logger.Infof("opened %s (%d bytes): %d keys loaded, %d dropped", logPath, end, loaded, dropped)

	ctx, cancel := context.WithCancel(context.Background())
	d := &DB[V]{
		codec: c,
		opts:  o,
		buf:   newWriteBuffer(o.BufferCapacity, end),
		idx:   idx,
		log:   log,
		meta:  meta,
		queue: util.NewLockFreeMPSC[chunk](),
		slots: semaphore.NewWeighted(int64(o.MaxPendingChunks)),
		stop:  cancel,
		sizes: util.NewSizeHistogram(),
	}
	d.metrics = newEngineMetrics(gauges{
		keys:          func() float64 { return float64(d.idx.len()) },
		pendingChunks: func() float64 { return float64(d.pending.Load()) },
		durableBytes:  func() float64 { return float64(d.gate.durableLen()) },
		cursor:        func() float64 { return float64(d.cursor()) },
	})
	d.gate = newCommitGate(log, end, d.metrics.chunkWritten)

	for i := 0; i < o.Workers; i++ {
		d.background.Go(d.flushWorker)
	}
	if o.SnapshotInterval > 0 {
		d.background.Go(func() error {
			return d.snapshotLoop(ctx)
		})
	}

	return d, nil
}

// --------------------------------------------------------------------------
// KVDB Interface Methods - Write Operations
// --------------------------------------------------------------------------

// Put stores value under key. The value is encoded outside any lock. Assigning its
// offset, installing the index record and appending the bytes to the buffer happen
// under the buffer mutex. If the buffer is full afterward it is sealed and handed
// to the flush workers; Put blocks while MaxPendingChunks chunks are waiting.
//
// Thread-safety: This method is thread-safe and can be called concurrently.
func (d *DB[V]) Put(key int64, value V) error {
	start := time.Now()

	size := d.codec.Size(value)
	if size < 0 {
		return fmt.Errorf("%w: key %d has a negative logical size of %d bytes",
			db.ErrSizeMismatch, key, size)
	}
	encoded, err := d.codec.Append(make([]byte, 0, size), value)
	if err != nil {
		return fmt.Errorf("%w: encode value for key %d: %w", db.ErrCodec, key, err)
	}
	if len(encoded) != size {
		return fmt.Errorf("%w: key %d has a logical size of %d bytes but encodes to %d",
			db.ErrSizeMismatch, key, size, len(encoded))
	}

	if err := d.append(key, encoded); err != nil {
		return err
	}

	d.sizes.AddSample(size)
	d.metrics.puts.Inc()
	d.metrics.putDuration.UpdateDuration(start)
	return nil
}

// append assigns the offset, installs the record and hands off a full buffer
func (d *DB[V]) append(key int64, encoded []byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed.Load() {
		return db.ErrClosed
	}
	if err := d.gate.failure(); err != nil {
		return err
	}

	off := d.buf.append(encoded)
	d.idx.store(key, Record{Offset: off, Size: uint64(len(encoded))})

	if !d.buf.full() {
		return nil
	}

	c := d.buf.seal()
	if err := d.slots.Acquire(context.Background(), 1); err != nil {
		return err
	}
	d.pending.Add(1)
	d.metrics.chunksSealed.Inc()

	// pushed while holding mu: queue order equals sequence order
	d.queue.Push(c)
	return nil
}

// Delete removes key from the index. Its bytes stay in the log.
//
// Thread-safety: This method is thread-safe and can be called concurrently.
func (d *DB[V]) Delete(key int64) error {
	d.inFlight.RLock()
	defer d.inFlight.RUnlock()

	if d.closed.Load() {
		return db.ErrClosed
	}
	if !d.idx.remove(key) {
		return db.ErrNotFound
	}
	d.metrics.deletes.Inc()
	return nil
}

// --------------------------------------------------------------------------
// KVDB Interface Methods - Read Operations
// --------------------------------------------------------------------------

// Get returns the value stored for key. If the value has not reached the log yet,
// Get flushes first, so a Put is always visible to a following Get.
// The positioned read itself holds no engine lock.
//
// Thread-safety: This method is thread-safe and can be called concurrently.
func (d *DB[V]) Get(key int64) (V, error) {
	var zero V

	d.inFlight.RLock()
	defer d.inFlight.RUnlock()

	if d.closed.Load() {
		return zero, db.ErrClosed
	}
	if err := d.gate.failure(); err != nil {
		return zero, err
	}

	d.metrics.gets.Inc()

	rec, ok := d.idx.load(key)
	if !ok {
		d.metrics.getMisses.Inc()
		return zero, db.ErrNotFound
	}

	if rec.end() > d.gate.durableLen() {
		d.metrics.readFlushes.Inc()
		if err := d.Flush(); err != nil {
			return zero, err
		}
	}

	data := make([]byte, rec.Size)
	if err := d.log.readAt(data, rec.Offset); err != nil {
		return zero, err
	}

	v, err := d.codec.Decode(data)
	if err != nil {
		return zero, fmt.Errorf("%w: decode value for key %d: %w", db.ErrCodec, key, err)
	}
	return v, nil
}

// Has reports whether key is in the index
//
// Thread-safety: This method is thread-safe and can be called concurrently.
func (d *DB[V]) Has(key int64) bool {
	if d.closed.Load() {
		return false
	}
	_, ok := d.idx.load(key)
	return ok
}

// --------------------------------------------------------------------------
// Persistence Operations
// --------------------------------------------------------------------------

// Flush seals the current buffer and blocks until every byte buffered so far,
// including chunks already queued for the workers, is written to the log.
//
// Thread-safety: This method is thread-safe and can be called concurrently.
func (d *DB[V]) Flush() error {
	c, target, err := d.sealNow(false)
	if err != nil {
		return err
	}
	d.metrics.flushes.Inc()
	if c != nil {
		d.gate.submit(c)
	}
	return d.gate.waitDurable(target)
}

// sealNow seals the buffer and returns the chunk (nil if the buffer was empty)
// and the cursor at that moment. With closing set the engine is marked closed.
func (d *DB[V]) sealNow(closing bool) (*chunk, uint64, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed.Load() {
		return nil, 0, db.ErrClosed
	}
	if closing {
		d.closed.Store(true)
	}
	return d.buf.seal(), d.buf.cursor, nil
}

// Save flushes and writes a snapshot of the index to the metadata file
//
// Thread-safety: This method is thread-safe and can be called concurrently.
func (d *DB[V]) Save() error {
	d.inFlight.RLock()
	defer d.inFlight.RUnlock()

	if err := d.Flush(); err != nil {
		return err
	}
	n, err := d.meta.save(d.idx)
	if err != nil {
		return err
	}
	Logger.Debugf("saved snapshot with %d keys", n)
	return nil
}

// --------------------------------------------------------------------------
// Background Work
// --------------------------------------------------------------------------

// flushWorker hands queued chunks to the commit gate until the queue is closed and drained
func (d *DB[V]) flushWorker() error {
	for c := range d.queue.Recv() {
		d.gate.submit(c)
		d.pending.Add(-1)
		d.slots.Release(1)
	}
	return nil
}

// snapshotLoop saves the index every SnapshotInterval until ctx is canceled
func (d *DB[V]) snapshotLoop(ctx context.Context) error {
	timer := time.NewTimer(d.opts.SnapshotInterval)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-timer.C:
			if err := d.Save(); err != nil && !errors.Is(err, db.ErrClosed) {
				Logger.Warningf("periodic snapshot failed: %v", err)
			}
			timer.Reset(d.opts.SnapshotInterval)
		}
	}
}

// --------------------------------------------------------------------------
// KVDB Interface Implementation - Features and Metadata
// --------------------------------------------------------------------------

// cursor returns the offset the next Put will be assigned
func (d *DB[V]) cursor() uint64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.buf.cursor
}

// Info is the birch specific part of db.DatabaseInfo
type Info struct {
	Keys           int              `json:"keys"`
	LiveBytes      uint64           `json:"live_bytes"`
	OrphanedBytes  uint64           `json:"orphaned_bytes"`
	Cursor         uint64           `json:"cursor"`
	DurableBytes   uint64           `json:"durable_bytes"`
	PendingChunks  int64            `json:"pending_chunks"`
	ParkedChunks   int              `json:"parked_chunks"`
	Workers        int              `json:"workers"`
	BufferCapacity int              `json:"buffer_capacity"`
	ValueSizes     util.SizeSummary `json:"value_sizes"`
}

// GetInfo returns statistics about the database. SizeBytes is the logical length
// of the log including buffered bytes.
func (d *DB[V]) GetInfo() db.DatabaseInfo {
	cursor := d.cursor()

	var live uint64
	keys := 0
	d.idx.each(func(_ int64, rec Record) bool {
		live += rec.Size
		keys++
		return true
	})

	var orphaned uint64
	if cursor > live {
		orphaned = cursor - live
	}

	return db.DatabaseInfo{
		SizeBytes: int(cursor),
		DbType:    db.ImplBirch,
		SupportedFeatures: []db.Feature{
			db.FeaturePut, db.FeatureGet, db.FeatureDelete, db.FeatureHas,
			db.FeatureFlush, db.FeatureSnapshot,
		},
		Metadata: &Info{
			Keys:           keys,
			LiveBytes:      live,
			OrphanedBytes:  orphaned,
			Cursor:         cursor,
			DurableBytes:   d.gate.durableLen(),
			PendingChunks:  d.pending.Load(),
			ParkedChunks:   d.gate.parkedLen(),
			Workers:        d.opts.Workers,
			BufferCapacity: d.opts.BufferCapacity,
			ValueSizes:     d.sizes.Summary(),
		},
	}
}

// SupportsFeature checks if this implementation supports a specific KVDB feature
func (d *DB[V]) SupportsFeature(feature db.Feature) bool {
	supportedFeatures := db.FeaturePut |
		db.FeatureGet |
		db.FeatureDelete |
		db.FeatureHas |
		db.FeatureFlush |
		db.FeatureSnapshot
	return supportedFeatures&feature == feature
}

// WritePrometheus writes the metrics of this engine in Prometheus text format
func (d *DB[V]) WritePrometheus(w io.Writer) {
	d.metrics.writePrometheus(w)
}

// Close stops accepting writes, lets the workers drain the queue, writes the last
// buffer, saves the snapshot and closes both files. All errors of these steps are
// joined. Calling Close more than once returns db.ErrClosed.
func (d *DB[V]) Close() error {
	last, target, err := d.sealNow(true)
	if err != nil {
		return err
	}

	d.stop()
	d.queue.Close()
	_ = d.background.Wait()

	if last != nil {
		d.gate.submit(last)
	}

	var errs []error
	if err := d.gate.waitDurable(target); err != nil {
		errs = append(errs, fmt.Errorf("write log: %w", err))
	}

	// operations that passed their closed check before it was set finish first
	d.inFlight.Lock()
	defer d.inFlight.Unlock()

	errs = append(errs, d.log.sync())
	if n, err := d.meta.save(d.idx); err != nil {
		errs = append(errs, fmt.Errorf("save snapshot: %w", err))
	} else {
		Logger.Infof("closed %s: %d keys, %d bytes", d.log.path, n, d.gate.durableLen())
	}
	errs = append(errs, d.meta.close(), d.log.close())

	return errors.Join(errs...)
}

// check that DB implements db.KVDB
var _ db.KVDB[string] = (*DB[string])(nil)

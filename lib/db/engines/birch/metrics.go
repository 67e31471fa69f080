package birch

import (
	"io"
	"time"

	"github.com/VictoriaMetrics/metrics"
)

// engineMetrics holds the counters of one engine instance. Every engine owns its
// own metrics.Set, so several engines can live in one process.
type engineMetrics struct {
	set *metrics.Set

	puts          *metrics.Counter
	gets          *metrics.Counter
	getMisses     *metrics.Counter
	readFlushes   *metrics.Counter
	deletes       *metrics.Counter
	flushes       *metrics.Counter
	chunksSealed  *metrics.Counter
	chunksWritten *metrics.Counter
	bytesWritten  *metrics.Counter

	putDuration   *metrics.Histogram
	writeDuration *metrics.Histogram
}

// gauges are evaluated lazily when the metrics are written
type gauges struct {
	keys          func() float64
	pendingChunks func() float64
	durableBytes  func() float64
	cursor        func() float64
}

func newEngineMetrics(g gauges) *engineMetrics {
	set := metrics.NewSet()

	set.NewGauge("akv_keys", g.keys)
	set.NewGauge("akv_pending_chunks", g.pendingChunks)
	set.NewGauge("akv_log_durable_bytes", g.durableBytes)
	set.NewGauge("akv_log_cursor_bytes", g.cursor)

	return &engineMetrics{
		set:           set,
		puts:          set.NewCounter("akv_puts_total"),
		gets:          set.NewCounter("akv_gets_total"),
		getMisses:     set.NewCounter("akv_get_misses_total"),
		readFlushes:   set.NewCounter("akv_read_flushes_total"),
		deletes:       set.NewCounter("akv_deletes_total"),
		flushes:       set.NewCounter("akv_flushes_total"),
		chunksSealed:  set.NewCounter("akv_chunks_sealed_total"),
		chunksWritten: set.NewCounter("akv_chunks_written_total"),
		bytesWritten:  set.NewCounter("akv_log_written_bytes_total"),
		putDuration:   set.NewHistogram("akv_put_duration_seconds"),
		writeDuration: set.NewHistogram("akv_chunk_write_duration_seconds"),
	}
}

// chunkWritten is called by the commit gate after every successful write
func (m *engineMetrics) chunkWritten(c *chunk, took time.Duration) {
	m.chunksWritten.Inc()
	m.bytesWritten.Add(len(c.data))
	m.writeDuration.Update(took.Seconds())
}

func (m *engineMetrics) writePrometheus(w io.Writer) {
	m.set.WritePrometheus(w)
}

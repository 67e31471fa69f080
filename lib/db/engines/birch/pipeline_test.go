package birch

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestGate(t *testing.T) (*commitGate, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "gate.log")
	log, err := openLogFile(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = log.close() })
	return newCommitGate(log, 0, nil), path
}

func TestWriteBufferSeal(t *testing.T) {
	w := newWriteBuffer(4, 100)

	assert.Nil(t, w.seal(), "an empty buffer does not produce a chunk")

	assert.Equal(t, uint64(100), w.append([]byte("ab")))
	assert.False(t, w.full())
	assert.Equal(t, uint64(102), w.append([]byte("cde")))
	assert.True(t, w.full())

	c := w.seal()
	require.NotNil(t, c)
	assert.Equal(t, uint64(0), c.seq)
	assert.Equal(t, uint64(100), c.base)
	assert.Equal(t, []byte("abcde"), c.data)

	assert.Equal(t, uint64(105), w.append([]byte("f")))
	c = w.seal()
	assert.Equal(t, uint64(1), c.seq)
	assert.Equal(t, uint64(105), c.base)
}

func TestGateWritesInSequenceOrder(t *testing.T) {
	g, path := newTestGate(t)

	chunks := []*chunk{
		{seq: 0, base: 0, data: []byte("aa")},
		{seq: 1, base: 2, data: []byte("bbb")},
		{seq: 2, base: 5, data: []byte("c")},
		{seq: 3, base: 6, data: []byte("dddd")},
	}

	// reverse order: nothing can be written until seq 0 arrives
	g.submit(chunks[3])
	g.submit(chunks[2])
	g.submit(chunks[1])
	assert.Equal(t, uint64(0), g.durableLen())
	assert.Equal(t, 3, g.parkedLen())

	g.submit(chunks[0])
	assert.Equal(t, uint64(10), g.durableLen())
	assert.Equal(t, 0, g.parkedLen())
	require.NoError(t, g.failure())

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "aabbbcdddd", string(raw))
}

func TestGateFailureIsSticky(t *testing.T) {
	g, _ := newTestGate(t)

	g.submit(&chunk{seq: 0, base: 0, data: []byte("ok")})
	require.NoError(t, g.failure())

	// wrong base offset: writing it would corrupt every later offset
	g.submit(&chunk{seq: 1, base: 99, data: []byte("bad")})
	require.Error(t, g.failure())

	g.submit(&chunk{seq: 2, base: 2, data: []byte("dropped")})
	assert.Equal(t, uint64(2), g.durableLen())
	assert.Error(t, g.waitDurable(100))
}

func TestWaitDurableWakesUp(t *testing.T) {
	g, _ := newTestGate(t)

	done := make(chan error, 1)
	go func() {
		done <- g.waitDurable(3)
	}()

	select {
	case <-done:
		t.Fatal("waitDurable returned before the bytes were written")
	case <-time.After(20 * time.Millisecond):
	}

	g.submit(&chunk{seq: 0, base: 0, data: []byte("xyz")})

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("waitDurable was not woken up")
	}
}

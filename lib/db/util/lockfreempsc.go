// Package util provides a lock-free Multi-Producer Single-Consumer (MPSC) queue implementation.
//
// Features and Guarantees:
//
//   - Lock-Free: atomic operations for high throughput and low latency even under high contention
//   - Unbounded Size: the queue can grow to any size as needed, limited only by available memory
//   - Small Footprint: minimal memory overhead per item (two pointers per item)
//   - Thread-Safe writes: Allows any number of goroutines to safely Push() concurrently
//   - Single Consumer: One internal goroutine moves values to the Recv() channel. Any number of
//     goroutines may receive from that channel; they see values in queue order.
//   - FIFO per push order: values are delivered in the order in which Push() calls completed.
//     Producers that need a global order (e.g. sequence-numbered chunks) must serialize their
//     Push() calls themselves.
//   - Draining Close: values pushed before Close() are still delivered, then Recv() is closed.
package util

import (
	"runtime"
	"sync"
	"sync/atomic"
)

// node is a link of the queue. The value is cleared once it was delivered.
type node[T any] struct {
	value *T
	next  atomic.Pointer[node[T]]
}

// LockFreeMPSC is an unbounded queue on a singly linked list. Producers append
// with CAS on the tail, the consumer goroutine advances the head and forwards
// values to the Recv channel.
type LockFreeMPSC[T any] struct {
	head     atomic.Pointer[node[T]] // last delivered node (starts as a dummy)
	tail     atomic.Pointer[node[T]] // last appended node, may lag by one
	out      chan *T
	consumer sync.WaitGroup
	closed   atomic.Bool

	// the consumer sleeps on cond while the list is empty
	mu   sync.Mutex
	cond *sync.Cond
}

// NewLockFreeMPSC creates an empty queue and starts its consumer goroutine
func NewLockFreeMPSC[T any]() *LockFreeMPSC[T] {
	q := &LockFreeMPSC[T]{out: make(chan *T)}
	q.cond = sync.NewCond(&q.mu)

	dummy := &node[T]{}
	q.head.Store(dummy)
	q.tail.Store(dummy)

	q.consumer.Add(1)
	go q.consume()

	return q
}

// Push adds an item to the queue.
// Returns true if the item was added, or false if the queue is closed.
//
// Thread-safety: This method is thread-safe and can be called concurrently.
func (q *LockFreeMPSC[T]) Push(value *T) bool {

	if value == nil || q.closed.Load() {
		return false
	}

	n := &node[T]{value: value}
	var retries uint8

	for {
		last := q.tail.Load()
		next := last.next.Load()

		if next != nil {
			// another producer linked a node but did not move the tail yet
			q.tail.CompareAndSwap(last, next)
		} else if last.next.CompareAndSwap(nil, n) {
			// a failed swap here means someone else already moved the tail
			q.tail.CompareAndSwap(last, n)
			q.wake()
			return true
		}

		// lost the race: yield 2^retries times (capped) before the next attempt
		if retries < 10 {
			retries++
			for i := 0; i < 1<<retries; i++ {
				runtime.Gosched()
			}
		}
		runtime.Gosched()
	}
}

// consume forwards values to the out channel until the queue is closed and empty
func (q *LockFreeMPSC[T]) consume() {
	defer q.consumer.Done()
	defer close(q.out)

	for {
		if q.drain() {
			continue
		}
		if q.closed.Load() {
			// closed is set before the final wake, re-check for late pushes
			if !q.drain() {
				return
			}
			continue
		}

		q.mu.Lock()
		if q.head.Load().next.Load() == nil && !q.closed.Load() {
			q.cond.Wait()
		}
		q.mu.Unlock()
	}
}

// drain delivers every linked value and reports whether there was any
func (q *LockFreeMPSC[T]) drain() bool {
	delivered := false
	for {
		next := q.head.Load().next.Load()
		if next == nil {
			return delivered
		}
		v := next.value
		q.head.Store(next)
		q.out <- v
		next.value = nil
		delivered = true
	}
}

// Recv returns the channel values are delivered on. It is closed after Close
// once every pushed value was received.
func (q *LockFreeMPSC[T]) Recv() <-chan *T {
	return q.out
}

// Close rejects further pushes. Values pushed before are still delivered.
func (q *LockFreeMPSC[T]) Close() {
	q.closed.Store(true)
	q.wake()
}

// wake signals the consumer.
// The signal is sent while holding mu: the consumer checks for new items and calls
// Wait under mu, so a signal can't slip in between its check and its Wait.
func (q *LockFreeMPSC[T]) wake() {
	q.mu.Lock()
	q.cond.Signal()
	q.mu.Unlock()
}

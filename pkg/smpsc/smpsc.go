// Package smpsc provides a single-threaded multi-producer, single-consumer
// queue. It exists to carry reference-count events from pool handles to the
// pool that owns them without the handles ever touching the pool itself.
//
// The queue is not safe for concurrent use. Every sender and the receiver are
// expected to live on the goroutine that owns the pool; nothing blocks and
// nothing is polled automatically.
//
// Example:
//
//	tx, rx := smpsc.Unbounded[int]()
//	tx2 := tx.Clone()
//
//	tx.Send(1)
//	tx2.Send(2)
//
//	for v, ok := rx.Recv(); ok; v, ok = rx.Recv() {
//	    fmt.Println(v) // 1, then 2
//	}
package smpsc

import (
	"github.com/eapache/queue"
)

// channel is the storage shared by every endpoint of one queue.
type channel struct {
	buf    *queue.Queue
	sent   uint64
	closed bool
}

// Sender is the producer end. Often referred to as tx.
type Sender[T any] struct {
	ch *channel
}

// Receiver is the consumer end. Often referred to as rx.
type Receiver[T any] struct {
	ch *channel
}

// Unbounded creates a queue and returns both of its ends.
func Unbounded[T any]() (*Sender[T], *Receiver[T]) {
	ch := &channel{buf: queue.New()}
	return &Sender[T]{ch: ch}, &Receiver[T]{ch: ch}
}

// Send appends item to the back of the queue. Sending on a closed queue is a
// no-op, so handles that outlive their pool can still be released safely.
func (s *Sender[T]) Send(item T) {
	if s.ch.closed {
		return
	}
	s.ch.buf.Add(item)
	s.ch.sent++
}

// Clone returns another producer sharing the same queue.
func (s *Sender[T]) Clone() *Sender[T] {
	return &Sender[T]{ch: s.ch}
}

// SameQueue reports whether both senders feed the same queue.
func (s *Sender[T]) SameQueue(other *Sender[T]) bool {
	return other != nil && s.ch == other.ch
}

// Recv pops the oldest item. It returns false when the queue is empty.
func (r *Receiver[T]) Recv() (T, bool) {
	var zero T
	if r.ch.buf.Length() == 0 {
		return zero, false
	}
	return r.ch.buf.Remove().(T), true
}

// Len returns the number of queued items.
func (r *Receiver[T]) Len() int {
	return r.ch.buf.Length()
}

// Sent returns the total number of items ever accepted by the queue.
func (r *Receiver[T]) Sent() uint64 {
	return r.ch.sent
}

// Sender returns a new producer for this receiver's queue.
func (r *Receiver[T]) Sender() *Sender[T] {
	return &Sender[T]{ch: r.ch}
}

// Close discards anything still queued and makes further sends no-ops.
// It returns the number of discarded items.
func (r *Receiver[T]) Close() int {
	if r.ch.closed {
		return 0
	}
	n := r.ch.buf.Length()
	r.ch.closed = true
	r.ch.buf = queue.New()
	return n
}

// Closed reports whether Close has been called.
func (r *Receiver[T]) Closed() bool {
	return r.ch.closed
}

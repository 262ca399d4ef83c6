package importer

import (
	"sync/atomic"
	"time"

	"voyager.com/tracker/hand"
)

type queueItem struct {
	hand     *hand.Hand
	sentinel bool
}

// Queue is the bounded hand-off between extraction producers and the single
// import consumer. Enqueue blocks when the queue is full, which throttles
// extraction to storage speed.
type Queue struct {
	ch    chan queueItem
	acked int64
}

func NewQueue(size int) *Queue {
	if size <= 0 {
		size = 1
	}
	return &Queue{ch: make(chan queueItem, size)}
}

// Enqueue hands one extracted hand to the consumer.
func (q *Queue) Enqueue(h *hand.Hand) {
	q.ch <- queueItem{hand: h}
}

// Finish signals that no more hands are coming. The consumer drains whatever
// is still queued before stopping.
func (q *Queue) Finish() {
	q.ch <- queueItem{sentinel: true}
}

// dequeue waits up to timeout for the next item. ok is false on timeout,
// which the consumer treats as the end of input.
func (q *Queue) dequeue(timeout time.Duration) (queueItem, bool) {
	select {
	case item := <-q.ch:
		return item, true
	case <-time.After(timeout):
		return queueItem{}, false
	}
}

// ack records that one dequeued hand has been fully processed, stored or not.
// Exactly one ack happens per enqueued hand.
func (q *Queue) ack() {
	atomic.AddInt64(&q.acked, 1)
}

// Acked returns the number of hands fully processed so far.
func (q *Queue) Acked() int64 {
	return atomic.LoadInt64(&q.acked)
}

// Depth returns the number of hands currently waiting.
func (q *Queue) Depth() int {
	return len(q.ch)
}

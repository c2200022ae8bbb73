// Package transport implements the consumer-side request/response pipeline:
// a flow-controlled sliding window over outstanding interests, a manifest
// walker that turns a single name prefix into a stream of chunk interests,
// and the UDP socket plumbing that feeds both.
package transport

import (
	"container/heap"
	"context"
	"sync"

	"github.com/parc-ccnx/ccnx-go/ccnx"
)

// Priority values attached to outgoing sends; lower wins when the writer
// drains the queue. Retransmits must leap ahead of fresh interests.
const (
	PriorityRetransmit = 0
	PriorityFresh      = 1
)

// WriteItem is one entry on the network-write queue: an outgoing datagram
// with a priority and, for server-side replies, the peer address it is
// destined for (nil when the underlying connection is already dialed to a
// single peer).
type WriteItem struct {
	Priority int
	Addr     Addr
	Message  *ccnx.Message

	seq int
}

// Addr is a narrow view of net.Addr, kept here so this package does not
// need to import net just to name the type of an optional field.
type Addr interface {
	Network() string
	String() string
}

// PriorityQueue is a blocking, context-aware priority queue of WriteItems,
// replacing the source's Queue.PriorityQueue(priority, message) pairs.
// Lower Priority values are drained first; among equal priorities, FIFO
// order is preserved via an insertion sequence number.
type PriorityQueue struct {
	mu     sync.Mutex
	notify chan struct{}
	items  pqHeap
	seq    int
}

// NewPriorityQueue returns an empty priority queue.
func NewPriorityQueue() *PriorityQueue {
	return &PriorityQueue{notify: make(chan struct{}, 1)}
}

// Push enqueues item for sending.
func (q *PriorityQueue) Push(item WriteItem) {
	q.mu.Lock()
	item.seq = q.seq
	q.seq++
	heap.Push(&q.items, item)
	q.mu.Unlock()

	select {
	case q.notify <- struct{}{}:
	default:
	}
}

// Pop blocks until an item is available or ctx is done.
func (q *PriorityQueue) Pop(ctx context.Context) (WriteItem, bool) {
	for {
		q.mu.Lock()
		if len(q.items) > 0 {
			item := heap.Pop(&q.items).(WriteItem)
			q.mu.Unlock()
			return item, true
		}
		q.mu.Unlock()

		select {
		case <-ctx.Done():
			return WriteItem{}, false
		case <-q.notify:
		}
	}
}

// Len reports the number of items currently queued.
func (q *PriorityQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

type pqHeap []WriteItem

func (h pqHeap) Len() int { return len(h) }
func (h pqHeap) Less(i, j int) bool {
	if h[i].Priority != h[j].Priority {
		return h[i].Priority < h[j].Priority
	}
	return h[i].seq < h[j].seq
}
func (h pqHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }
func (h *pqHeap) Push(x any)   { *h = append(*h, x.(WriteItem)) }
func (h *pqHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

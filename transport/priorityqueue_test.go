package transport

import (
	"context"
	"testing"
	"time"

	"github.com/parc-ccnx/ccnx-go/ccnx"
)

func TestPriorityQueueDrainsRetransmitsBeforeFresh(t *testing.T) {
	q := NewPriorityQueue()
	name, err := ccnx.NameFromURI("lci:/apple")
	if err != nil {
		t.Fatalf("NameFromURI: %v", err)
	}
	fresh := ccnx.NewInterest(name, nil, nil)
	rtx := ccnx.NewInterest(name, nil, nil)

	q.Push(WriteItem{Priority: PriorityFresh, Message: fresh})
	q.Push(WriteItem{Priority: PriorityRetransmit, Message: rtx})

	ctx := context.Background()
	first, ok := q.Pop(ctx)
	if !ok {
		t.Fatalf("Pop failed")
	}
	if first.Message != rtx {
		t.Fatalf("expected retransmit to drain first")
	}

	second, ok := q.Pop(ctx)
	if !ok {
		t.Fatalf("Pop failed")
	}
	if second.Message != fresh {
		t.Fatalf("expected fresh interest second")
	}
}

func TestPriorityQueuePreservesFIFOWithinPriority(t *testing.T) {
	q := NewPriorityQueue()
	name, err := ccnx.NameFromURI("lci:/apple")
	if err != nil {
		t.Fatalf("NameFromURI: %v", err)
	}
	a := ccnx.NewInterest(name, nil, nil)
	b := ccnx.NewInterest(name, nil, nil)

	q.Push(WriteItem{Priority: PriorityFresh, Message: a})
	q.Push(WriteItem{Priority: PriorityFresh, Message: b})

	ctx := context.Background()
	first, _ := q.Pop(ctx)
	second, _ := q.Pop(ctx)
	if first.Message != a || second.Message != b {
		t.Fatalf("expected FIFO order within equal priority")
	}
}

func TestPriorityQueuePopBlocksUntilCancelled(t *testing.T) {
	q := NewPriorityQueue()
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, ok := q.Pop(ctx)
	if ok {
		t.Fatalf("expected Pop to fail on empty, cancelled queue")
	}
}

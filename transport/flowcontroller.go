package transport

import (
	"bytes"
	"context"
	"time"

	"github.com/parc-ccnx/ccnx-go/ccnx"
)

// Default sliding-window parameters, matching FlowControllerThread's class
// constants.
const (
	DefaultWindowSize  = 4
	DefaultMaxWindow   = 128
	DefaultRTTEstimate = 100 * time.Millisecond
)

type txEntry struct {
	interest   *ccnx.Message
	sendTime   time.Time
	expiryTime time.Time
}

// FlowController keeps a bounded number of interests in flight, retransmits
// ones that time out, and matches inbound replies back to the interest that
// solicited them. It is the Go counterpart of FlowControllerThread.
type FlowController struct {
	UserRead  <-chan *ccnx.Message
	UserWrite chan<- *ccnx.Parsed
	NetRead   <-chan *ccnx.Parsed
	NetWrite  *PriorityQueue

	// Clock stands in for the source's injectable clock parameter, so tests
	// can control time without sleeping.
	Clock func() time.Time

	WindowSize  int
	MaxWindow   int
	RTTEstimate time.Duration

	txQueue  []txEntry
	rtxQueue []*ccnx.Message
}

// NewFlowController wires the four queues together with the default window
// and RTT parameters.
func NewFlowController(userRead <-chan *ccnx.Message, userWrite chan<- *ccnx.Parsed, netRead <-chan *ccnx.Parsed, netWrite *PriorityQueue) *FlowController {
	return &FlowController{
		UserRead:    userRead,
		UserWrite:   userWrite,
		NetRead:     netRead,
		NetWrite:    netWrite,
		Clock:       time.Now,
		WindowSize:  DefaultWindowSize,
		MaxWindow:   DefaultMaxWindow,
		RTTEstimate: DefaultRTTEstimate,
	}
}

// TxQueueLen and RtxQueueLen expose queue depths for tests and diagnostics.
func (fc *FlowController) TxQueueLen() int  { return len(fc.txQueue) }
func (fc *FlowController) RtxQueueLen() int { return len(fc.rtxQueue) }

// Run drives the controller: expire overdue interests, top up the window,
// then wait for either an inbound reply or the next interest's expiry.
func (fc *FlowController) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		fc.expireTxQueue()
		fc.enqueueTx()

		waitTime := fc.RTTEstimate
		if len(fc.txQueue) > 0 {
			remaining := fc.txQueue[0].expiryTime.Sub(fc.Clock())
			if remaining < 0 {
				remaining = 0
			}
			if remaining < waitTime {
				waitTime = remaining
			}
		}

		timer := time.NewTimer(waitTime)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case parsed, ok := <-fc.NetRead:
			timer.Stop()
			if !ok {
				return nil
			}
			fc.receive(ctx, parsed)
		case <-timer.C:
		}
	}
}

// expireTxQueue moves interests off the head of txQueue whose expiry has
// passed onto rtxQueue, stopping at the first non-expired entry.
//
// This only inspects the head, a limitation carried over from the source:
// an entry further back could expire sooner if the RTT estimate had since
// decreased, and this scan would not catch it. The source acknowledges the
// gap without resolving it, so this keeps the same behavior rather than
// doing a full scan.
func (fc *FlowController) expireTxQueue() {
	now := fc.Clock()
	for len(fc.txQueue) > 0 && !now.Before(fc.txQueue[0].expiryTime) {
		expired := fc.txQueue[0]
		fc.txQueue = fc.txQueue[1:]
		fc.rtxQueue = append(fc.rtxQueue, expired.interest)
	}
}

// enqueueTx tops up txQueue up to WindowSize, preferring a queued
// retransmit over a fresh interest from UserRead, and enqueues each send on
// the network-write priority queue.
func (fc *FlowController) enqueueTx() {
	for len(fc.txQueue) < fc.WindowSize {
		var interest *ccnx.Message
		priority := PriorityFresh

		if len(fc.rtxQueue) > 0 {
			interest = fc.rtxQueue[0]
			fc.rtxQueue = fc.rtxQueue[1:]
			priority = PriorityRetransmit
		} else {
			select {
			case m, ok := <-fc.UserRead:
				if !ok {
					return
				}
				interest = m
			default:
				return
			}
		}

		fc.NetWrite.Push(WriteItem{Priority: priority, Message: interest})
		fc.appendTxQueue(interest)
	}
}

func (fc *FlowController) appendTxQueue(interest *ccnx.Message) {
	sendTime := fc.Clock()
	fc.txQueue = append(fc.txQueue, txEntry{
		interest:   interest,
		sendTime:   sendTime,
		expiryTime: sendTime.Add(fc.RTTEstimate),
	})
}

// receive matches an inbound reply against txQueue by name, KeyId
// restriction, and hash restriction, scanning from the head. At most one
// entry is removed per reply; unmatched replies are dropped.
func (fc *FlowController) receive(ctx context.Context, parsed *ccnx.Parsed) {
	if parsed.Name == nil {
		return
	}
	for i, entry := range fc.txQueue {
		if entry.interest.Name.Equal(*parsed.Name) && keyIDOk(entry.interest, parsed) && hashOk(entry.interest, parsed) {
			fc.txQueue = append(fc.txQueue[:i:i], fc.txQueue[i+1:]...)
			select {
			case fc.UserWrite <- parsed:
			case <-ctx.Done():
			}
			return
		}
	}
}

// keyIDOk reports whether an interest's KeyId restriction, if any, is
// satisfied by the reply's signer KeyId.
func keyIDOk(interest *ccnx.Message, reply *ccnx.Parsed) bool {
	restr := interestKeyIDRestr(interest)
	if restr == nil {
		return true
	}
	return bytes.Equal(restr, reply.KeyID)
}

// hashOk reports whether an interest's content-hash restriction, if any, is
// satisfied by the reply's content-object hash.
func hashOk(interest *ccnx.Message, reply *ccnx.Parsed) bool {
	restr := interestObjHashRestr(interest)
	if restr == nil {
		return true
	}
	hash := objectHash(reply)
	return bytes.Equal(restr, hash[:])
}

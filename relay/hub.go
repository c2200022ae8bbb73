// Package relay implements the two-peer CCNxz relay: a hub that
// decompresses datagrams inbound from one peer, recompresses them for the
// other peer's compression context, and forwards them, using the same
// reader-goroutine-per-socket shape as transport.SocketReader.
package relay

import (
	"context"
	"fmt"
	"net"

	"github.com/op/go-logging"

	"github.com/parc-ccnx/ccnx-go/ccnxz"
	"github.com/parc-ccnx/ccnx-go/transport"
)

// PeerContext names a peer's UDP endpoint and the fixed compression context
// it uses: the per-peer (HeaderTLVCount, BodyTLVCount) pair ccnxz.Decompress
// needs, negotiated once out of band and held fixed for the life of the
// process rather than rederived per datagram.
type PeerContext struct {
	Addr           *net.UDPAddr
	ContextID      int
	HeaderTLVCount int
	BodyTLVCount   int
}

// Hub forwards compressed datagrams between exactly two peers, recompressing
// each one for the receiving peer's context on the way through.
type Hub struct {
	ConnA, ConnB *net.UDPConn
	PeerA, PeerB PeerContext
	Log          *logging.Logger
}

// NewHub returns a Hub ready to Run. connA/connB must already be bound and
// (optionally) connected to their respective peers.
func NewHub(connA, connB *net.UDPConn, peerA, peerB PeerContext, log *logging.Logger) *Hub {
	return &Hub{ConnA: connA, ConnB: connB, PeerA: peerA, PeerB: peerB, Log: log}
}

// Run forwards in both directions until ctx is cancelled or either
// direction's goroutine returns a non-cancellation error.
func (h *Hub) Run(ctx context.Context) error {
	errs := make(chan error, 2)
	go func() { errs <- h.forward(ctx, h.ConnA, h.ConnB, h.PeerA, h.PeerB) }()
	go func() { errs <- h.forward(ctx, h.ConnB, h.ConnA, h.PeerB, h.PeerA) }()

	var first error
	for i := 0; i < 2; i++ {
		if err := <-errs; err != nil && err != context.Canceled && first == nil {
			first = err
		}
	}
	return first
}

// forward reads compressed datagrams off src (sent under srcPeer's
// compression context) and writes their recompressed form, under dstPeer's
// context, to dst.
func (h *Hub) forward(ctx context.Context, src, dst *net.UDPConn, srcPeer, dstPeer PeerContext) error {
	in := make(chan transport.Datagram, 32)
	reader := transport.NewSocketReader(src, 0)

	readErr := make(chan error, 1)
	go func() { readErr <- reader.Run(ctx, in) }()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err := <-readErr:
			return err
		case dgram := <-in:
			out, err := h.recompress(dgram.Data, srcPeer, dstPeer)
			if err != nil {
				h.logf("dropping malformed datagram from %s: %v", dgram.Addr, err)
				continue
			}
			addr := dstPeer.Addr
			if addr == nil {
				if udpAddr, ok := dgram.Addr.(*net.UDPAddr); ok {
					addr = udpAddr
				}
			}
			if addr == nil {
				h.logf("no destination address for forwarded datagram, dropping")
				continue
			}
			if _, err := dst.WriteToUDP(out, addr); err != nil {
				return fmt.Errorf("relay: write to %s: %w", addr, err)
			}
		}
	}
}

// recompress decompresses b using srcPeer's context, then recompresses the
// result under dstPeer's context id.
func (h *Hub) recompress(b []byte, srcPeer, dstPeer PeerContext) ([]byte, error) {
	plain, err := ccnxz.Decompress(b, srcPeer.HeaderTLVCount, srcPeer.BodyTLVCount)
	if err != nil {
		return nil, fmt.Errorf("relay: decompress: %w", err)
	}
	out, err := ccnxz.Compress(plain, dstPeer.ContextID)
	if err != nil {
		return nil, fmt.Errorf("relay: compress: %w", err)
	}
	return out, nil
}

func (h *Hub) logf(format string, args ...interface{}) {
	if h.Log != nil {
		h.Log.Warningf(format, args...)
	}
}

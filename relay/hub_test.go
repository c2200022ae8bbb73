package relay

import (
	"bytes"
	"context"
	"net"
	"testing"
	"time"

	"github.com/parc-ccnx/ccnx-go/ccnx"
	"github.com/parc-ccnx/ccnx-go/ccnxz"
)

func TestHubRecompressRoundTrip(t *testing.T) {
	name, err := ccnx.NameFromURI("lci:/apple/pie")
	if err != nil {
		t.Fatalf("NameFromURI: %v", err)
	}
	msg := ccnx.NewInterest(name, []byte{1, 2, 3, 4, 5}, []byte{6, 7, 8, 9, 10, 11})
	wf, err := msg.WireFormat()
	if err != nil {
		t.Fatalf("WireFormat: %v", err)
	}

	srcPeer := PeerContext{ContextID: 1, HeaderTLVCount: 0, BodyTLVCount: 1}
	dstPeer := PeerContext{ContextID: 2, HeaderTLVCount: 0, BodyTLVCount: 1}

	compressed, err := ccnxz.Compress(wf, srcPeer.ContextID)
	if err != nil {
		t.Fatalf("Compress: %v", err)
	}

	h := &Hub{}
	out, err := h.recompress(compressed, srcPeer, dstPeer)
	if err != nil {
		t.Fatalf("recompress: %v", err)
	}

	plain, err := ccnxz.Decompress(out, dstPeer.HeaderTLVCount, dstPeer.BodyTLVCount)
	if err != nil {
		t.Fatalf("Decompress: %v", err)
	}
	if !bytes.Equal(plain, wf) {
		t.Fatalf("round-trip mismatch:\noriginal:  % x\nrecovered: % x", wf, plain)
	}
}

func TestHubForwardsBetweenPeers(t *testing.T) {
	connA, err := net.ListenUDP("udp", &net.UDPAddr{IP: net.ParseIP("127.0.0.1")})
	if err != nil {
		t.Fatalf("ListenUDP A: %v", err)
	}
	defer connA.Close()
	connB, err := net.ListenUDP("udp", &net.UDPAddr{IP: net.ParseIP("127.0.0.1")})
	if err != nil {
		t.Fatalf("ListenUDP B: %v", err)
	}
	defer connB.Close()

	peerA := PeerContext{Addr: connA.LocalAddr().(*net.UDPAddr), ContextID: 1, HeaderTLVCount: 0, BodyTLVCount: 1}
	peerB := PeerContext{Addr: connB.LocalAddr().(*net.UDPAddr), ContextID: 2, HeaderTLVCount: 0, BodyTLVCount: 1}

	hub := NewHub(connA, connB, peerA, peerB, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Run(ctx)

	// A third socket plays the role of peer A's remote counterpart: it sends
	// a datagram compressed under peer A's context directly to connA, and
	// expects to receive it back out of connB recompressed under peer B's
	// context.
	sender, err := net.ListenUDP("udp", &net.UDPAddr{IP: net.ParseIP("127.0.0.1")})
	if err != nil {
		t.Fatalf("ListenUDP sender: %v", err)
	}
	defer sender.Close()

	name, err := ccnx.NameFromURI("lci:/apple/pie")
	if err != nil {
		t.Fatalf("NameFromURI: %v", err)
	}
	msg := ccnx.NewInterest(name, nil, nil)
	wf, err := msg.WireFormat()
	if err != nil {
		t.Fatalf("WireFormat: %v", err)
	}
	compressed, err := ccnxz.Compress(wf, peerA.ContextID)
	if err != nil {
		t.Fatalf("Compress: %v", err)
	}

	if _, err := sender.WriteToUDP(compressed, connA.LocalAddr().(*net.UDPAddr)); err != nil {
		t.Fatalf("send: %v", err)
	}

	// peerB.Addr points back at connB itself, so the hub's A-to-B forward
	// delivers the recompressed datagram to connB's own bound address; read
	// it back from there to confirm the forward happened.
	connB.SetReadDeadline(time.Now().Add(2 * time.Second))
	buf := make([]byte, 65535)
	n, _, err := connB.ReadFromUDP(buf)
	if err != nil {
		t.Fatalf("expected forwarded datagram on connB: %v", err)
	}

	plain, err := ccnxz.Decompress(buf[:n], peerB.HeaderTLVCount, peerB.BodyTLVCount)
	if err != nil {
		t.Fatalf("Decompress forwarded datagram: %v", err)
	}
	if !bytes.Equal(plain, wf) {
		t.Fatalf("forwarded datagram mismatch:\noriginal:  % x\nrecovered: % x", wf, plain)
	}
}

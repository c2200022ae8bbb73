package transport_test

import (
	"bytes"
	"context"
	"crypto/rand"
	"crypto/rsa"
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/parc-ccnx/ccnx-go/ccnx"
	"github.com/parc-ccnx/ccnx-go/store"
	"github.com/parc-ccnx/ccnx-go/transport"
)

// TestPublisherConsumerRoundTrip wires a publisher content store (built the
// same way cmd/ccnx-server does, over a manifest tree rather than flat
// signed chunks) against a full consumer pipeline (cmd/ccnx-client's
// verify -> flow-control -> manifest-walk stages) over real loopback UDP
// sockets, and checks that a multi-chunk file comes back byte-exact. This
// is the end-to-end path spec's retrieval scenario describes: the
// publisher never learns about the manifest tree from the consumer, and
// the consumer never sees anything but the prefix and the publisher's
// public key.
func TestPublisherConsumerRoundTrip(t *testing.T) {
	rsaKey, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("GenerateKey: %v", err)
	}
	signer, err := ccnx.NewRSASigner(rsaKey)
	if err != nil {
		t.Fatalf("NewRSASigner: %v", err)
	}

	dir := t.TempDir()
	payload := make([]byte, 10000)
	for i := range payload {
		payload[i] = byte(i)
	}
	if err := os.WriteFile(filepath.Join(dir, "crust"), payload, 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	prefix, err := ccnx.NameFromURI("lci:/apple/pie")
	if err != nil {
		t.Fatalf("NameFromURI: %v", err)
	}
	contentStore, err := store.BuildFromDir(dir, prefix, signer, 800, nil)
	if err != nil {
		t.Fatalf("BuildFromDir: %v", err)
	}

	targetName, err := ccnx.NameFromURI("lci:/apple/pie/crust")
	if err != nil {
		t.Fatalf("NameFromURI: %v", err)
	}

	serverConn, err := net.ListenUDP("udp", &net.UDPAddr{IP: net.ParseIP("127.0.0.1")})
	if err != nil {
		t.Fatalf("ListenUDP server: %v", err)
	}
	defer serverConn.Close()
	clientConn, err := net.ListenUDP("udp", &net.UDPAddr{IP: net.ParseIP("127.0.0.1")})
	if err != nil {
		t.Fatalf("ListenUDP client: %v", err)
	}
	defer clientConn.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	errs := make(chan error, 8)
	go func() { errs <- runPublisher(ctx, serverConn, contentStore) }()

	delivered := make(chan []byte, 1)
	go func() {
		got, err := runConsumer(ctx, clientConn, serverConn.LocalAddr().(*net.UDPAddr), targetName, &rsaKey.PublicKey)
		if err != nil {
			errs <- err
			return
		}
		delivered <- got
	}()

	select {
	case got := <-delivered:
		if !bytes.Equal(got, payload) {
			t.Fatalf("reassembled %d bytes, want %d bytes matching original", len(got), len(payload))
		}
	case err := <-errs:
		t.Fatalf("pipeline error: %v", err)
	case <-ctx.Done():
		t.Fatalf("timed out waiting for end-to-end retrieval")
	}
}

// runPublisher is cmd/ccnx-server's matchLoop, reproduced here rather than
// imported: a command's package main cannot be imported by another
// package's tests, so the publisher side of this round trip is driven
// directly against the shared transport/store packages instead.
func runPublisher(ctx context.Context, conn *net.UDPConn, contentStore *store.ContentStore) error {
	datagrams := make(chan transport.Datagram, 256)
	writeQueue := transport.NewPriorityQueue()

	reader := transport.NewSocketReader(conn, 0)
	writer := transport.NewSocketWriter(conn, nil)

	go func() { _ = reader.Run(ctx, datagrams) }()
	go func() { _ = writer.Run(ctx, writeQueue) }()

	for {
		select {
		case <-ctx.Done():
			return nil
		case dgram := <-datagrams:
			req, err := ccnx.Parse(dgram.Data)
			if err != nil || req.PacketType != ccnx.PacketTypeInterest || req.Name == nil {
				continue
			}
			reply, err := contentStore.Lookup(*req.Name, req.KeyIDRestr, req.ObjHashRestr)
			if err != nil {
				continue
			}
			writeQueue.Push(transport.WriteItem{Priority: transport.PriorityFresh, Addr: dgram.Addr, Message: reply})
		}
	}
}

// runConsumer is cmd/ccnx-client's fetch pipeline, reproduced here for the
// same cross-package reason runPublisher is: verify the signed root
// against pubKey, trust the rest of the tree by hash (the flow
// controller's restriction check), and concatenate delivered payloads.
func runConsumer(ctx context.Context, conn *net.UDPConn, peerAddr *net.UDPAddr, name ccnx.Name, pubKey *rsa.PublicKey) ([]byte, error) {
	datagrams := make(chan transport.Datagram, 256)
	verifiedReplies := make(chan *ccnx.Parsed, 256)
	interests := make(chan *ccnx.Message, 256)
	matchedReplies := make(chan *ccnx.Parsed, 256)
	delivered := make(chan *ccnx.Parsed, 256)
	writeQueue := transport.NewPriorityQueue()

	reader := transport.NewSocketReader(conn, 0)
	writer := transport.NewSocketWriter(conn, peerAddr)
	fc := transport.NewFlowController(interests, matchedReplies, verifiedReplies, writeQueue)

	keyID, err := ccnx.PublicKeyID(pubKey)
	if err != nil {
		return nil, err
	}
	mp := transport.NewManifestProcessor(name, keyID[:], delivered, matchedReplies, interests)

	go func() { _ = reader.Run(ctx, datagrams) }()
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case dgram := <-datagrams:
				parsed, err := ccnx.Parse(dgram.Data)
				if err != nil {
					continue
				}
				if parsed.PacketType == ccnx.PacketTypeObject && parsed.Signature != nil {
					if err := ccnx.Verify(dgram.Data, parsed, pubKey); err != nil {
						continue
					}
				}
				select {
				case verifiedReplies <- parsed:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	go func() { _ = fc.Run(ctx) }()
	go func() { _ = mp.Run(ctx) }()
	go func() { _ = writer.Run(ctx, writeQueue) }()

	var out []byte
	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case reply := <-delivered:
			if reply.Payload != nil {
				out = append(out, reply.Payload...)
			}
			if len(out) >= 10000 {
				return out, nil
			}
		}
	}
}

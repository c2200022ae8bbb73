// Command ccnx-client is the CCNx consumer: it fetches a named object from
// a single publisher peer by walking its manifest tree, verifying the
// signed root manifest against a known public key and trusting the rest of
// the tree by hash, before writing delivered payloads to stdout.
package main

import (
	"context"
	"crypto/rsa"
	"flag"
	"fmt"
	"io"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"

	"github.com/parc-ccnx/ccnx-go/ccnx"
	"github.com/parc-ccnx/ccnx-go/internal/config"
	"github.com/parc-ccnx/ccnx-go/internal/keyio"
	"github.com/parc-ccnx/ccnx-go/internal/log"
	"github.com/parc-ccnx/ccnx-go/transport"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(argv []string) int {
	fs := flag.NewFlagSet("client", flag.ExitOnError)
	port := fs.Uint("port", 0, "local UDP port to bind (0 selects an ephemeral port)")
	name := fs.String("name", "", "lci-uri of the object to fetch")
	peer := fs.String("peer", "", "publisher address, host:port")
	pubKeyPath := fs.String("pubkey", "", "path to the publisher's PEM-encoded RSA public key")
	_ = fs.Parse(argv)

	cfg := config.DefaultClientConfig()
	cfg.Port = uint16(*port)
	cfg.Name = *name
	cfg.Peer = *peer
	cfg.PubKeyPath = *pubKeyPath
	if err := config.ValidateClientConfig(cfg); err != nil {
		fmt.Fprintln(os.Stderr, "client config error:", err)
		return 1
	}

	sessionID := uuid.NewString()
	logger := log.Setup("ccnx-client", cfg.LogLevel)
	logger.Infof("session %s: fetching %s from %s", sessionID, cfg.Name, cfg.Peer)

	pubKey, err := keyio.LoadPublicKey(cfg.PubKeyPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "client error:", err)
		return 1
	}

	targetName, err := ccnx.NameFromURI(cfg.Name)
	if err != nil {
		fmt.Fprintln(os.Stderr, "client config error: invalid --name:", err)
		return 1
	}

	peerAddr, err := net.ResolveUDPAddr("udp", cfg.Peer)
	if err != nil {
		fmt.Fprintln(os.Stderr, "client config error: invalid --peer:", err)
		return 1
	}

	conn, err := net.ListenUDP("udp", &net.UDPAddr{Port: int(cfg.Port)})
	if err != nil {
		fmt.Fprintln(os.Stderr, "client error:", err)
		return 2
	}
	defer conn.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := fetch(ctx, conn, peerAddr, targetName, pubKey, os.Stdout, logger); err != nil && ctx.Err() == nil {
		fmt.Fprintln(os.Stderr, "client error:", err)
		return 2
	}
	return 0
}

type infWarnLogger interface {
	Infof(string, ...interface{})
	Warningf(string, ...interface{})
}

// fetch drives one full retrieval: socket I/O, a verifying parse stage, the
// flow controller's sliding window, and the manifest-walking request
// generator, writing every data chunk's payload to w in delivery order.
func fetch(ctx context.Context, conn *net.UDPConn, peerAddr *net.UDPAddr, name ccnx.Name, pubKey *rsa.PublicKey, w io.Writer, logger infWarnLogger) error {
	datagrams := make(chan transport.Datagram, 256)
	verifiedReplies := make(chan *ccnx.Parsed, 256)
	interests := make(chan *ccnx.Message, 256)
	matchedReplies := make(chan *ccnx.Parsed, 256)
	delivered := make(chan *ccnx.Parsed, 256)
	writeQueue := transport.NewPriorityQueue()

	reader := transport.NewSocketReader(conn, 0)
	writer := transport.NewSocketWriter(conn, peerAddr)
	fc := transport.NewFlowController(interests, matchedReplies, verifiedReplies, writeQueue)
	mp := transport.NewManifestProcessor(name, pubKeyID(pubKey), delivered, matchedReplies, interests)

	errs := make(chan error, 5)
	go func() { errs <- reader.Run(ctx, datagrams) }()
	go func() { errs <- verifyLoop(ctx, datagrams, pubKey, verifiedReplies, logger) }()
	go func() { errs <- fc.Run(ctx) }()
	go func() { errs <- mp.Run(ctx) }()
	go func() { errs <- writer.Run(ctx, writeQueue) }()

	done := make(chan error, 1)
	go func() { done <- writePayloads(ctx, delivered, w) }()

	for i := 0; i < 5; i++ {
		select {
		case err := <-errs:
			if err != nil && err != context.Canceled {
				return err
			}
		case err := <-done:
			return err
		}
	}
	return <-done
}

// pubKeyID derives the publisher's KeyId the same way ccnx.RSASigner.KeyID
// does: SHA-256 of the DER-encoded public key, so the manifest processor's
// first interest carries the right KeyId restriction.
func pubKeyID(pubKey *rsa.PublicKey) []byte {
	id, err := ccnx.PublicKeyID(pubKey)
	if err != nil {
		return nil
	}
	return id[:]
}

// verifyLoop parses raw datagrams and checks the signature on every *signed*
// content object against pubKey before forwarding it to the flow
// controller. Per the "sign only the root" manifest design, only the root
// manifest carries a signature; internal manifests and data chunks are
// referenced purely by hash, so they pass through here unsigned -- their
// integrity is established instead by the flow controller's hash-match
// check (transport/flowcontroller.go's hashOk), which only forwards a reply
// whose body hash equals the hash restriction an already-trusted ancestor
// named. Verifying an unsigned reply's (nonexistent) signature here would
// reject every data chunk, since ccnx.Verify requires parsed.Signature to
// be non-nil.
func verifyLoop(ctx context.Context, in <-chan transport.Datagram, pubKey *rsa.PublicKey, out chan<- *ccnx.Parsed, logger infWarnLogger) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case dgram := <-in:
			parsed, err := ccnx.Parse(dgram.Data)
			if err != nil {
				logger.Warningf("dropping malformed datagram from %s: %v", dgram.Addr, err)
				continue
			}
			if parsed.PacketType == ccnx.PacketTypeObject && parsed.Signature != nil {
				if err := ccnx.Verify(dgram.Data, parsed, pubKey); err != nil {
					logger.Warningf("dropping content object with bad signature from %s: %v", dgram.Addr, err)
					continue
				}
			}
			select {
			case out <- parsed:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
}

// writePayloads drains delivered content objects and writes their payload
// bytes to w in the order they arrive.
func writePayloads(ctx context.Context, in <-chan *ccnx.Parsed, w io.Writer) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case reply := <-in:
			if reply.Payload == nil {
				continue
			}
			if _, err := w.Write(reply.Payload); err != nil {
				return fmt.Errorf("client: write payload: %w", err)
			}
		}
	}
}

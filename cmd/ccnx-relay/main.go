// Command ccnx-relay bridges exactly two CCNx peers over UDP, decompressing
// every inbound datagram under the sender's negotiated context and
// recompressing it under the receiver's before forwarding.
package main

import (
	"context"
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/parc-ccnx/ccnx-go/internal/config"
	"github.com/parc-ccnx/ccnx-go/internal/log"
	"github.com/parc-ccnx/ccnx-go/relay"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(argv []string) int {
	fs := flag.NewFlagSet("ccnx-relay", flag.ExitOnError)
	port := fs.Int("p", 0, "UDP port to listen on")
	_ = fs.Parse(argv)

	peers, err := parsePeers(fs.Args())
	if err != nil {
		fmt.Fprintln(os.Stderr, "missing or malformed --peers: ", err)
		return 1
	}

	cfg := config.DefaultRelayConfig()
	cfg.Port = uint16(*port)
	cfg.Peers = peers
	if err := config.ValidateRelayConfig(cfg); err != nil {
		fmt.Fprintln(os.Stderr, "relay config error:", err)
		return 1
	}

	logger := log.Setup("ccnx-relay", cfg.LogLevel)

	peerAAddr, err := net.ResolveUDPAddr("udp", cfg.Peers[0])
	if err != nil {
		fmt.Fprintln(os.Stderr, "relay config error: invalid peer:", err)
		return 1
	}
	peerBAddr, err := net.ResolveUDPAddr("udp", cfg.Peers[1])
	if err != nil {
		fmt.Fprintln(os.Stderr, "relay config error: invalid peer:", err)
		return 1
	}

	connA, err := net.ListenUDP("udp", &net.UDPAddr{Port: int(cfg.Port)})
	if err != nil {
		fmt.Fprintln(os.Stderr, "relay error:", err)
		return 2
	}
	defer connA.Close()
	connB, err := net.ListenUDP("udp", &net.UDPAddr{Port: 0})
	if err != nil {
		fmt.Fprintln(os.Stderr, "relay error:", err)
		return 2
	}
	defer connB.Close()

	hub := relay.NewHub(connA, connB,
		relay.PeerContext{Addr: peerAAddr, ContextID: 1, HeaderTLVCount: 0, BodyTLVCount: 1},
		relay.PeerContext{Addr: peerBAddr, ContextID: 2, HeaderTLVCount: 0, BodyTLVCount: 1},
		logger,
	)

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	go func() {
		if err := http.ListenAndServe(":9092", mux); err != nil {
			logger.Warningf("metrics server stopped: %v", err)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Infof("relaying between %s and %s", cfg.Peers[0], cfg.Peers[1])
	if err := hub.Run(ctx); err != nil && ctx.Err() == nil {
		fmt.Fprintln(os.Stderr, "relay error:", err)
		return 2
	}
	return 0
}

// parsePeers expects the trailing positional arguments after -p to be
// "--peers host1:port1 host2:port2": exactly three tokens, the literal
// marker followed by the two peer addresses.
func parsePeers(args []string) ([]string, error) {
	if len(args) != 3 || args[0] != "--peers" {
		return nil, fmt.Errorf("expected \"--peers host1:port1 host2:port2\", got %v", args)
	}
	return []string{args[1], args[2]}, nil
}

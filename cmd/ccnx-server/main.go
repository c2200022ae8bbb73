// Command ccnx-server is the CCNx publisher: it serves every regular file
// under a directory as signed, chunked content objects named under a prefix,
// matching interests by name, KeyId restriction, and hash restriction.
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

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/parc-ccnx/ccnx-go/ccnx"
	"github.com/parc-ccnx/ccnx-go/internal/config"
	"github.com/parc-ccnx/ccnx-go/internal/keyio"
	"github.com/parc-ccnx/ccnx-go/internal/log"
	"github.com/parc-ccnx/ccnx-go/store"
	"github.com/parc-ccnx/ccnx-go/transport"
)

var (
	interestsServed = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "ccnx_server_interests_served_total",
		Help: "Interests matched and replied to.",
	})
	interestsMissed = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "ccnx_server_interests_missed_total",
		Help: "Interests with no matching content object.",
	})
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(argv []string) int {
	fs := flag.NewFlagSet("server", flag.ExitOnError)
	port := fs.Uint("port", 0, "UDP port to listen on")
	prefix := fs.String("prefix", "", "lci-uri name prefix to publish content under")
	dir := fs.String("dir", "", "directory of regular files to serve")
	keyPath := fs.String("key", "", "path to a PEM-encoded RSA private key")
	cachePath := fs.String("cache", "", "path to a bbolt directory-scan cache (disabled if empty)")
	chunkSize := fs.Int("chunk-size", config.DefaultChunkSize, "maximum bytes per content object, bounding datagram size")
	_ = fs.Parse(argv)

	cfg := config.DefaultServerConfig()
	cfg.Port = uint16(*port)
	cfg.Prefix = *prefix
	cfg.Dir = *dir
	cfg.KeyPath = *keyPath
	cfg.CachePath = *cachePath
	cfg.ChunkSize = *chunkSize
	if err := config.ValidateServerConfig(cfg); err != nil {
		fmt.Fprintln(os.Stderr, "server config error:", err)
		return 1
	}

	logger := log.Setup("ccnx-server", cfg.LogLevel)

	privKey, err := keyio.LoadPrivateKey(cfg.KeyPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "server error:", err)
		return 1
	}
	signer, err := ccnx.NewRSASigner(privKey)
	if err != nil {
		fmt.Fprintln(os.Stderr, "server error:", err)
		return 1
	}

	prefixName, err := ccnx.NameFromURI(cfg.Prefix)
	if err != nil {
		fmt.Fprintln(os.Stderr, "server config error: invalid --prefix:", err)
		return 1
	}

	var dirCache *store.DirCache
	if cfg.CachePath != "" {
		dirCache, err = store.OpenDirCache(cfg.CachePath)
		if err != nil {
			fmt.Fprintln(os.Stderr, "server error:", err)
			return 1
		}
		defer dirCache.Close()
	}

	contentStore, err := store.BuildFromDir(cfg.Dir, prefixName, signer, cfg.ChunkSize, dirCache)
	if err != nil {
		fmt.Fprintln(os.Stderr, "server error:", err)
		return 1
	}
	logger.Infof("serving %d content objects under %s", contentStore.Len(), cfg.Prefix)

	conn, err := net.ListenUDP("udp", &net.UDPAddr{Port: int(cfg.Port)})
	if err != nil {
		fmt.Fprintln(os.Stderr, "server error:", err)
		return 2
	}
	defer conn.Close()

	if cfg.MetricsOn {
		prometheus.MustRegister(interestsServed, interestsMissed)
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		go func() {
			if err := http.ListenAndServe(":9091", mux); err != nil {
				logger.Warningf("metrics server stopped: %v", err)
			}
		}()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := serve(ctx, conn, contentStore, logger); err != nil && ctx.Err() == nil {
		fmt.Fprintln(os.Stderr, "server error:", err)
		return 2
	}
	return 0
}

// serve runs the publisher's read -> parse -> match -> reply loop. Unlike
// transport.Parser/store.Lookup (built for the consumer side, where the
// peer address is fixed for the life of the process), a publisher must
// route each reply back to whichever client's address the matching
// interest arrived from, so the datagram's source address is carried
// alongside its parse all the way to the write queue instead of being
// dropped at the parser stage.
func serve(ctx context.Context, conn *net.UDPConn, contentStore *store.ContentStore, logger interface {
	Warningf(string, ...interface{})
}) error {
	datagrams := make(chan transport.Datagram, 256)
	writeQueue := transport.NewPriorityQueue()

	reader := transport.NewSocketReader(conn, 0)
	writer := transport.NewSocketWriter(conn, nil)

	errs := make(chan error, 3)
	go func() { errs <- reader.Run(ctx, datagrams) }()
	go func() { errs <- writer.Run(ctx, writeQueue) }()
	go func() {
		errs <- matchLoop(ctx, datagrams, contentStore, writeQueue, logger)
	}()

	for i := 0; i < 3; i++ {
		if err := <-errs; err != nil && err != context.Canceled {
			return err
		}
	}
	return nil
}

func matchLoop(ctx context.Context, in <-chan transport.Datagram, contentStore *store.ContentStore, out *transport.PriorityQueue, logger interface {
	Warningf(string, ...interface{})
}) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case dgram := <-in:
			req, err := ccnx.Parse(dgram.Data)
			if err != nil {
				logger.Warningf("dropping malformed datagram from %s: %v", dgram.Addr, err)
				continue
			}
			if req.PacketType != ccnx.PacketTypeInterest || req.Name == nil {
				continue
			}
			reply, err := contentStore.Lookup(*req.Name, req.KeyIDRestr, req.ObjHashRestr)
			if err != nil {
				interestsMissed.Inc()
				continue
			}
			interestsServed.Inc()
			out.Push(transport.WriteItem{Priority: transport.PriorityFresh, Addr: dgram.Addr, Message: reply})
		}
	}
}

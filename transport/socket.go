package transport

import (
	"context"
	"fmt"
	"net"
)

// Datagram is one received UDP packet: its payload plus the address it came
// from, so a reply can later be routed back to the right peer.
type Datagram struct {
	Addr net.Addr
	Data []byte
}

// SocketReader reads datagrams off a UDP socket and delivers them on a
// channel for a Parser to pick up, mirroring SocketReaderThread's
// handle_request loop.
type SocketReader struct {
	Conn       *net.UDPConn
	BufferSize int
}

// NewSocketReader wraps conn. bufferSize bounds the largest datagram it will
// read in one call; 0 selects a default large enough for any CCNx datagram.
func NewSocketReader(conn *net.UDPConn, bufferSize int) *SocketReader {
	if bufferSize <= 0 {
		bufferSize = 65535
	}
	return &SocketReader{Conn: conn, BufferSize: bufferSize}
}

// Run reads datagrams until ctx is done or the socket errors, pushing each
// one onto out. It closes conn when ctx is cancelled to unblock the
// in-flight read, the same technique node/p2p/peer.go uses for net.Conn.
func (r *SocketReader) Run(ctx context.Context, out chan<- Datagram) error {
	done := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			_ = r.Conn.Close()
		case <-done:
		}
	}()
	defer close(done)

	buf := make([]byte, r.BufferSize)
	for {
		n, addr, err := r.Conn.ReadFromUDP(buf)
		if err != nil {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
				return fmt.Errorf("transport: socket reader: %w", err)
			}
		}
		data := make([]byte, n)
		copy(data, buf[:n])

		select {
		case out <- Datagram{Addr: addr, Data: data}:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// SocketWriter drains a PriorityQueue of outgoing datagrams and writes each
// one to the socket, mirroring SocketWriterThread. DefaultAddr is used when
// a WriteItem carries no explicit Addr (the client case, where every
// outgoing interest goes to the same publisher).
type SocketWriter struct {
	Conn        *net.UDPConn
	DefaultAddr *net.UDPAddr
}

// NewSocketWriter wraps conn. defaultAddr may be nil if every WriteItem
// supplies its own Addr (the server case, replying to whichever peer asked).
func NewSocketWriter(conn *net.UDPConn, defaultAddr *net.UDPAddr) *SocketWriter {
	return &SocketWriter{Conn: conn, DefaultAddr: defaultAddr}
}

// Run drains queue until ctx is done, writing each item's wire-format bytes
// to its destination address. A write error is logged by returning it to
// the caller only when the connection itself is unusable; per-datagram send
// errors are swallowed, matching the source's print-and-continue handling.
func (w *SocketWriter) Run(ctx context.Context, queue *PriorityQueue) error {
	for {
		item, ok := queue.Pop(ctx)
		if !ok {
			return ctx.Err()
		}

		wf, err := item.Message.WireFormat()
		if err != nil {
			continue
		}

		addr := w.DefaultAddr
		if item.Addr != nil {
			udpAddr, ok := item.Addr.(*net.UDPAddr)
			if !ok {
				continue
			}
			addr = udpAddr
		}
		if addr == nil {
			continue
		}

		if _, err := w.Conn.WriteToUDP(wf, addr); err != nil {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}
		}
	}
}

package transport

import (
	"context"

	"github.com/parc-ccnx/ccnx-go/ccnx"
)

// Parser decodes raw datagrams into parsed CCNx messages, the pipeline
// stage between a SocketReader and the FlowController (the source's
// ParserThread).
type Parser struct {
	// Decompress, if set, is applied to a datagram's bytes before parsing
	// (e.g. ccnxz.Decompress bound to a negotiated context). Nil means the
	// wire is carried uncompressed.
	Decompress func([]byte) ([]byte, error)
}

// Run reads datagrams from in and pushes their parsed form to out until ctx
// is done or in is closed. A datagram that fails to parse is dropped rather
// than propagated, matching the source's tolerate-and-continue behavior for
// malformed network input.
func (p *Parser) Run(ctx context.Context, in <-chan Datagram, out chan<- *ccnx.Parsed) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case dg, ok := <-in:
			if !ok {
				return nil
			}
			data := dg.Data
			if p.Decompress != nil {
				decoded, err := p.Decompress(data)
				if err != nil {
					continue
				}
				data = decoded
			}
			parsed, err := ccnx.Parse(data)
			if err != nil {
				continue
			}
			select {
			case out <- parsed:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
}

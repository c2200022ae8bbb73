package transport

import (
	"context"

	"github.com/parc-ccnx/ccnx-go/ccnx"
)

// ManifestProcessor turns a single name prefix into a stream of chunk
// interests: it fetches chunk 0 (expected to be a manifest), then for every
// manifest it receives issues one interest per hash in its manifest-links
// and data-links sections, restricted to that hash. Plain data replies are
// forwarded straight to the caller. This is the Go counterpart of
// ManifestProcessorThread.
type ManifestProcessor struct {
	Name  ccnx.Name
	KeyID []byte

	UserWrite      chan<- *ccnx.Parsed
	TransportRead  <-chan *ccnx.Parsed
	TransportWrite chan<- *ccnx.Message
}

// NewManifestProcessor returns a processor for name, restricting the first
// interest to publisher keyID.
func NewManifestProcessor(name ccnx.Name, keyID []byte, userWrite chan<- *ccnx.Parsed, transportRead <-chan *ccnx.Parsed, transportWrite chan<- *ccnx.Message) *ManifestProcessor {
	return &ManifestProcessor{
		Name:           name,
		KeyID:          keyID,
		UserWrite:      userWrite,
		TransportRead:  transportRead,
		TransportWrite: transportWrite,
	}
}

// Run issues the initial chunk-0 interest, then services transport replies
// until ctx is done or TransportRead is closed.
func (m *ManifestProcessor) Run(ctx context.Context) error {
	if err := m.sendFirstInterest(ctx); err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case reply, ok := <-m.TransportRead:
			if !ok {
				return nil
			}
			if reply.Manifest == nil {
				if err := m.deliver(ctx, reply); err != nil {
					return err
				}
				continue
			}
			if err := m.receiveManifest(ctx, reply.Manifest); err != nil {
				return err
			}
		}
	}
}

func (m *ManifestProcessor) sendFirstInterest(ctx context.Context) error {
	chunkZero := uint64(0)
	name := ccnx.FromName(m.Name, &chunkZero)
	interest := ccnx.NewInterest(name, m.KeyID, nil)
	return m.send(ctx, interest)
}

// receiveManifest issues one hash-restricted interest per entry in the
// manifest's manifest-links section, then its data-links section, each
// named by an incrementing chunk number starting at the section's declared
// start chunk.
func (m *ManifestProcessor) receiveManifest(ctx context.Context, sections *ccnx.ManifestSections) error {
	if sections.HasManifestLinks {
		if err := m.requestHashes(ctx, sections.ManifestStartChunk, sections.ManifestHashList); err != nil {
			return err
		}
	}
	if sections.HasDataLinks {
		if err := m.requestHashes(ctx, sections.DataStartChunk, sections.DataHashList); err != nil {
			return err
		}
	}
	return nil
}

func (m *ManifestProcessor) requestHashes(ctx context.Context, startChunk uint64, hashes [][32]byte) error {
	chunkNumber := startChunk
	for _, hash := range hashes {
		h := hash
		name := ccnx.FromName(m.Name, &chunkNumber)
		interest := ccnx.NewInterest(name, nil, h[:])
		if err := m.send(ctx, interest); err != nil {
			return err
		}
		chunkNumber++
	}
	return nil
}

func (m *ManifestProcessor) send(ctx context.Context, interest *ccnx.Message) error {
	select {
	case m.TransportWrite <- interest:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (m *ManifestProcessor) deliver(ctx context.Context, reply *ccnx.Parsed) error {
	select {
	case m.UserWrite <- reply:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

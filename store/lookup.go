package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/parc-ccnx/ccnx-go/ccnx"
)

// Lookup drives a publisher's matching loop: for every parsed Interest
// arriving on in, it matches the store and emits a reply on out, mirroring
// CCNxzGenServer.py's LookupThread (read request off its queue, match
// keyid_restr/hash_restr/name against objects_by_hash/objects_by_name,
// forward a match, silently drop a miss).
type Lookup struct {
	Store *ContentStore
}

// NewLookup returns a Lookup matching interests against store.
func NewLookup(store *ContentStore) *Lookup {
	return &Lookup{Store: store}
}

// Run reads parsed datagrams off in until ctx is done, ignoring anything
// that isn't an Interest, and writes a matching content object to out. A
// miss is dropped without logging at this layer, the same as the source's
// bare "no match" print -- callers that want visibility wrap this with their
// own logging around Run.
func (l *Lookup) Run(ctx context.Context, in <-chan *ccnx.Parsed, out chan<- *ccnx.Message) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case req, ok := <-in:
			if !ok {
				return nil
			}
			if req.PacketType != ccnx.PacketTypeInterest || req.Name == nil {
				continue
			}
			reply, err := l.Store.Lookup(*req.Name, req.KeyIDRestr, req.ObjHashRestr)
			if err != nil {
				if errors.Is(err, ErrNotFound) {
					continue
				}
				return fmt.Errorf("store: lookup: %w", err)
			}
			select {
			case out <- reply:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
}

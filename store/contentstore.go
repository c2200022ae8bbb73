// Package store implements the publisher-side content store: the
// immutable by-name and by-hash lookup tables an interest is matched
// against, plus an optional bbolt-backed accelerator for the startup
// directory scan.
package store

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/parc-ccnx/ccnx-go/ccnx"
)

// ErrNotFound is returned when a lookup matches no content object.
var ErrNotFound = errors.New("store: not found")

// ContentStore is the publisher's immutable, post-initialization-frozen
// table of signed content objects, indexed by name and by content-object
// hash. Once built it is read-only: concurrent lookups require no
// synchronization, matching the design's "loads once" policy.
type ContentStore struct {
	keyID  [32]byte
	byName map[string]*ccnx.Message
	byHash map[[32]byte]*ccnx.Message
}

// NewContentStore builds an empty store for a publisher identified by keyID.
func NewContentStore(keyID [32]byte) *ContentStore {
	return &ContentStore{
		keyID:  keyID,
		byName: make(map[string]*ccnx.Message),
		byHash: make(map[[32]byte]*ccnx.Message),
	}
}

// Add indexes a signed content object by both its name and its
// content-object hash. Add is only safe before the store is published
// for concurrent lookup.
func (s *ContentStore) Add(co *ccnx.Message) error {
	if len(co.Name.Segments()) == 0 {
		return fmt.Errorf("store: content object has no name")
	}
	hash, err := co.Hash()
	if err != nil {
		return fmt.Errorf("store: hash content object: %w", err)
	}
	s.byName[co.Name.String()] = co
	s.byHash[hash] = co
	return nil
}

// Len reports how many content objects are indexed.
func (s *ContentStore) Len() int {
	return len(s.byName)
}

// Lookup implements the interest-matching rule of the content store: a
// KeyId restriction that disagrees with the publisher's own KeyId never
// matches anything; a hash restriction takes precedence over a name
// lookup; otherwise the name is used.
func (s *ContentStore) Lookup(name ccnx.Name, keyIDRestr, hashRestr []byte) (*ccnx.Message, error) {
	if keyIDRestr != nil && !bytes.Equal(keyIDRestr, s.keyID[:]) {
		return nil, ErrNotFound
	}
	if hashRestr != nil {
		var h [32]byte
		copy(h[:], hashRestr)
		co, ok := s.byHash[h]
		if !ok {
			return nil, ErrNotFound
		}
		return co, nil
	}
	co, ok := s.byName[name.String()]
	if !ok {
		return nil, ErrNotFound
	}
	return co, nil
}

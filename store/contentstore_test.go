package store

import (
	"crypto/rand"
	"crypto/rsa"
	"testing"

	"github.com/parc-ccnx/ccnx-go/ccnx"
)

func newTestSigner(t *testing.T) ccnx.Signer {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("GenerateKey: %v", err)
	}
	signer, err := ccnx.NewRSASigner(key)
	if err != nil {
		t.Fatalf("NewRSASigner: %v", err)
	}
	return signer
}

func TestContentStoreLookupByName(t *testing.T) {
	signer := newTestSigner(t)
	keyID, err := signer.KeyID()
	if err != nil {
		t.Fatalf("KeyID: %v", err)
	}

	name, err := ccnx.NameFromURI("lci:/apple/pie")
	if err != nil {
		t.Fatalf("NameFromURI: %v", err)
	}
	co := ccnx.NewContentObject(name, nil, ccnx.Terminal(ccnx.TPayload, []byte("hello")))
	if err := co.Sign(signer); err != nil {
		t.Fatalf("Sign: %v", err)
	}

	store := NewContentStore(keyID)
	if err := store.Add(co); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if got := store.Len(); got != 1 {
		t.Fatalf("Len() = %d, want 1", got)
	}

	got, err := store.Lookup(name, nil, nil)
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if got != co {
		t.Fatalf("Lookup returned wrong object")
	}
}

func TestContentStoreLookupByHash(t *testing.T) {
	signer := newTestSigner(t)
	keyID, err := signer.KeyID()
	if err != nil {
		t.Fatalf("KeyID: %v", err)
	}

	name, err := ccnx.NameFromURI("lci:/apple/pie")
	if err != nil {
		t.Fatalf("NameFromURI: %v", err)
	}
	co := ccnx.NewContentObject(name, nil, ccnx.Terminal(ccnx.TPayload, []byte("hello")))
	if err := co.Sign(signer); err != nil {
		t.Fatalf("Sign: %v", err)
	}
	hash, err := co.Hash()
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}

	store := NewContentStore(keyID)
	if err := store.Add(co); err != nil {
		t.Fatalf("Add: %v", err)
	}

	got, err := store.Lookup(name, nil, hash[:])
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if got != co {
		t.Fatalf("Lookup by hash returned wrong object")
	}
}

func TestContentStoreKeyIDRestrictionMismatch(t *testing.T) {
	signer := newTestSigner(t)
	keyID, err := signer.KeyID()
	if err != nil {
		t.Fatalf("KeyID: %v", err)
	}

	name, err := ccnx.NameFromURI("lci:/apple/pie")
	if err != nil {
		t.Fatalf("NameFromURI: %v", err)
	}
	co := ccnx.NewContentObject(name, nil)
	if err := co.Sign(signer); err != nil {
		t.Fatalf("Sign: %v", err)
	}

	store := NewContentStore(keyID)
	if err := store.Add(co); err != nil {
		t.Fatalf("Add: %v", err)
	}

	wrongKeyID := keyID
	wrongKeyID[0] ^= 0xFF
	if _, err := store.Lookup(name, wrongKeyID[:], nil); err != ErrNotFound {
		t.Fatalf("Lookup with mismatched KeyId restriction = %v, want ErrNotFound", err)
	}
}

func TestContentStoreLookupNoMatch(t *testing.T) {
	signer := newTestSigner(t)
	keyID, err := signer.KeyID()
	if err != nil {
		t.Fatalf("KeyID: %v", err)
	}
	store := NewContentStore(keyID)

	name, err := ccnx.NameFromURI("lci:/missing")
	if err != nil {
		t.Fatalf("NameFromURI: %v", err)
	}
	if _, err := store.Lookup(name, nil, nil); err != ErrNotFound {
		t.Fatalf("Lookup on empty store = %v, want ErrNotFound", err)
	}
}

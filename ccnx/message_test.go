package ccnx

import (
	"bytes"
	"testing"
)

func TestInterestWithRestrictions(t *testing.T) {
	name, err := NameFromURI("lci:/apple/pie")
	if err != nil {
		t.Fatalf("NameFromURI: %v", err)
	}
	keyID := []byte{1, 2, 3, 4, 5}
	hash := []byte{6, 7, 8, 9, 10, 11}

	msg := NewInterest(name, keyID, hash)
	wf, err := msg.WireFormat()
	if err != nil {
		t.Fatalf("WireFormat: %v", err)
	}

	want := []byte{
		0x01, 0x01, 0x00, 0x33, 0x00, 0x00, 0x00, 0x08,
		0x00, 0x01, 0x00, 0x27,
		0x00, 0x00, 0x00, 0x10,
		0x00, 0x01, 0x00, 0x05, 'a', 'p', 'p', 'l', 'e',
		0x00, 0x01, 0x00, 0x03, 'p', 'i', 'e',
		0x00, 0x02, 0x00, 0x05, 1, 2, 3, 4, 5,
		0x00, 0x03, 0x00, 0x06, 6, 7, 8, 9, 10, 11,
	}
	if !bytes.Equal(wf, want) {
		t.Fatalf("got % x\nwant % x", wf, want)
	}
}

func TestContentObjectWithExpiryAndPayload(t *testing.T) {
	name, err := NameFromURI("lci:/apple/pie")
	if err != nil {
		t.Fatalf("NameFromURI: %v", err)
	}
	expiry := uint64(0x18B1)
	payload := Terminal(TPayload, []byte{1, 2, 3})

	msg := NewContentObject(name, &expiry, payload)
	wf, err := msg.WireFormat()
	if err != nil {
		t.Fatalf("WireFormat: %v", err)
	}

	if len(wf) != 45 {
		t.Fatalf("expected 45-byte packet, got %d", len(wf))
	}

	want := []byte{
		0x01, 0x02, 0x00, 0x2D, 0x00, 0x00, 0x00, 0x08,
		0x00, 0x02, 0x00, 0x21,
		0x00, 0x00, 0x00, 0x10,
		0x00, 0x01, 0x00, 0x05, 'a', 'p', 'p', 'l', 'e',
		0x00, 0x01, 0x00, 0x03, 'p', 'i', 'e',
		0x00, 0x06, 0x00, 0x02, 0x18, 0xB1,
		0x00, 0x01, 0x00, 0x03, 1, 2, 3,
	}
	if !bytes.Equal(wf, want) {
		t.Fatalf("got % x\nwant % x", wf, want)
	}
}

func TestMessageHashExcludesFixedHeader(t *testing.T) {
	name, err := NameFromURI("lci:/apple/pie")
	if err != nil {
		t.Fatalf("NameFromURI: %v", err)
	}
	expiry := uint64(100)
	msg := NewContentObject(name, &expiry, Terminal(TPayload, []byte{9}))
	wf, err := msg.WireFormat()
	if err != nil {
		t.Fatalf("WireFormat: %v", err)
	}
	h, err := msg.Hash()
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}
	want := sha256Sum(wf[FixedHeaderLen:])
	if h != want {
		t.Fatalf("hash mismatch: got %x want %x", h, want)
	}
}

func TestParseRoundTripsInterest(t *testing.T) {
	name, _ := NameFromURI("lci:/apple/pie")
	msg := NewInterest(name, []byte{1, 2, 3, 4, 5}, []byte{6, 7, 8, 9, 10, 11})
	wf, err := msg.WireFormat()
	if err != nil {
		t.Fatalf("WireFormat: %v", err)
	}

	parsed, err := Parse(wf)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if parsed.PacketType != PacketTypeInterest {
		t.Fatalf("got packet type %d want %d", parsed.PacketType, PacketTypeInterest)
	}
	if parsed.Name == nil || !parsed.Name.Equal(name) {
		t.Fatalf("parsed name mismatch")
	}
	if !bytes.Equal(parsed.KeyIDRestr, []byte{1, 2, 3, 4, 5}) {
		t.Fatalf("keyid restriction mismatch: %v", parsed.KeyIDRestr)
	}
	if !bytes.Equal(parsed.ObjHashRestr, []byte{6, 7, 8, 9, 10, 11}) {
		t.Fatalf("hash restriction mismatch: %v", parsed.ObjHashRestr)
	}
}

func TestParseRoundTripsContentObject(t *testing.T) {
	name, _ := NameFromURI("lci:/apple/pie")
	expiry := uint64(0x18B1)
	msg := NewContentObject(name, &expiry, Terminal(TPayload, []byte{1, 2, 3}))
	wf, err := msg.WireFormat()
	if err != nil {
		t.Fatalf("WireFormat: %v", err)
	}

	parsed, err := Parse(wf)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if parsed.PacketType != PacketTypeObject {
		t.Fatalf("got packet type %d want %d", parsed.PacketType, PacketTypeObject)
	}
	if parsed.Expiry == nil || *parsed.Expiry != 0x18B1 {
		t.Fatalf("expiry mismatch: %v", parsed.Expiry)
	}
	if !bytes.Equal(parsed.Payload, []byte{1, 2, 3}) {
		t.Fatalf("payload mismatch: %v", parsed.Payload)
	}
}

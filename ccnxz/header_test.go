package ccnxz

import (
	"testing"

	"github.com/parc-ccnx/ccnx-go/ccnx"
)

func TestCompressFixedHeaderH0L6M8RoundTrip(t *testing.T) {
	fh := ccnx.FixedHeader{
		Version:      1,
		PacketType:   ccnx.PacketTypeInterest,
		PacketLength: 40,
		HopLimit:     5,
		HeaderLength: 8,
	}
	b, err := CompressFixedHeader(fh, 2)
	if err != nil {
		t.Fatalf("CompressFixedHeader: %v", err)
	}

	got, consumed, err := DecompressFixedHeader(b)
	if err != nil {
		t.Fatalf("DecompressFixedHeader: %v", err)
	}
	if consumed != len(b) {
		t.Fatalf("consumed %d, want %d", consumed, len(b))
	}
	if got != fh {
		t.Fatalf("got %+v want %+v", got, fh)
	}
}

func TestCompressFixedHeaderH5L9M0RoundTrip(t *testing.T) {
	fh := ccnx.FixedHeader{
		Version:      1,
		PacketType:   ccnx.PacketTypeObject,
		PacketLength: 300,
		HopLimit:     0,
		HeaderLength: 12,
	}
	b, err := CompressFixedHeader(fh, 1)
	if err != nil {
		t.Fatalf("CompressFixedHeader: %v", err)
	}
	got, _, err := DecompressFixedHeader(b)
	if err != nil {
		t.Fatalf("DecompressFixedHeader: %v", err)
	}
	if got != fh {
		t.Fatalf("got %+v want %+v", got, fh)
	}
}

func TestCompressFixedHeaderFallsBackToUncompressed(t *testing.T) {
	fh := ccnx.FixedHeader{
		Version:      1,
		PacketType:   ccnx.PacketTypeInterest,
		PacketLength: 70000 & 0xFFFF,
		HopLimit:     5,
		HeaderLength: 8,
		Reserved:     1,
	}
	b, err := CompressFixedHeader(fh, 3)
	if err != nil {
		t.Fatalf("CompressFixedHeader: %v", err)
	}
	got, _, err := DecompressFixedHeader(b)
	if err != nil {
		t.Fatalf("DecompressFixedHeader: %v", err)
	}
	if got != fh {
		t.Fatalf("got %+v want %+v", got, fh)
	}
}

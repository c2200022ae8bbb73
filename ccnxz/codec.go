// Package ccnxz implements context-based header compression for CCNx 1.0
// datagrams, following RFC 4995's framing (a per-context CRC selecting
// between a 1-byte and 2-byte context-id header) and a set of fixed-header
// layouts chosen by field-range preference.
//
// Compress/Decompress operate one TLV level at a time: the fixed header,
// then the header TLV list, then the top-level body TLV list (Interest,
// ContentObject, ValidationAlg, ValidationPayload), each value carried as
// opaque bytes. This mirrors how ccnx.Parse itself descends one level at a
// time rather than flattening the full nested tree before compressing it.
package ccnxz

import (
	"fmt"

	"github.com/parc-ccnx/ccnx-go/ccnx"
)

// EncodeTLVListCompressed compresses a linear list of sibling TLVs, trying
// the fixed-length dictionary first (it may consume more than one TLV),
// then a single-TLV variable-length dictionary substitution, and finally a
// dictionary-free compact encoding.
func EncodeTLVListCompressed(tlvs []ccnx.TLV) []byte {
	fixed := NewFixedLengthCompressor()
	var out []byte
	remaining := tlvs

	for len(remaining) > 0 {
		if encoded, consumed, ok := fixed.Compress(remaining); ok && consumed > 0 {
			out = append(out, encoded...)
			remaining = remaining[consumed:]
			continue
		}

		tlv := remaining[0]
		if encoded, ok := CompressVariableLength(tlv); ok {
			out = append(out, encoded...)
			if tlv.Value != nil {
				out = append(out, tlv.Value...)
			}
			remaining = remaining[1:]
			continue
		}

		out = append(out, CompactTLV(tlv)...)
		if tlv.Value != nil {
			out = append(out, tlv.Value...)
		}
		remaining = remaining[1:]
	}
	return out
}

// DecodeTLVListCompressed reverses EncodeTLVListCompressed, expanding a
// compressed byte stream back to its uncompressed linearized TLV wire
// bytes (4-byte type+length header, then value bytes if any).
func DecodeTLVListCompressed(b []byte) ([]byte, error) {
	var out []byte
	for len(b) > 0 {
		if IsFixedLengthToken(b[0]) {
			entry, found := fixedLengthKeys[b[0]]
			if !found {
				return nil, fmt.Errorf("ccnxz: unrecognized fixed-length key 0x%02x", b[0])
			}
			b = b[1:]
			if len(b) < int(entry.valueLength) {
				return nil, fmt.Errorf("ccnxz: truncated fixed-length value, need %d bytes", entry.valueLength)
			}
			out = append(out, entry.tokenString...)
			out = append(out, b[:entry.valueLength]...)
			b = b[entry.valueLength:]
			continue
		}

		typ, length, consumed, ok := DecompressVariableLength(b)
		if !ok {
			return nil, fmt.Errorf("ccnxz: unrecognized TL encoding at byte 0x%02x", b[0])
		}
		out = append(out, byte(typ>>8), byte(typ), byte(length>>8), byte(length))
		b = b[consumed:]
		if length > 0 {
			if len(b) < int(length) {
				return nil, fmt.Errorf("ccnxz: truncated TLV value, need %d bytes", length)
			}
			out = append(out, b[:length]...)
			b = b[length:]
		}
	}
	return out, nil
}

// Compress transcodes a full wire-format datagram (fixed header, header
// TLVs, body TLVs) into its context-compressed form.
func Compress(b []byte, contextID int) ([]byte, error) {
	fh, err := ccnx.DecodeFixedHeader(b)
	if err != nil {
		return nil, err
	}
	headerBytes := b[ccnx.FixedHeaderLen:fh.HeaderLength]
	bodyBytes := b[fh.HeaderLength:fh.PacketLength]

	headerTLVs, err := splitTLVs(headerBytes)
	if err != nil {
		return nil, err
	}
	bodyTLVs, err := splitTLVs(bodyBytes)
	if err != nil {
		return nil, err
	}

	out, err := CompressFixedHeader(fh, contextID)
	if err != nil {
		return nil, err
	}
	out = append(out, EncodeTLVListCompressed(headerTLVs)...)
	out = append(out, EncodeTLVListCompressed(bodyTLVs)...)
	return out, nil
}

// Decompress reverses Compress, reconstructing an ordinary uncompressed
// wire-format datagram that ccnx.Parse can read directly. It does not know
// in advance where the compressed header TLVs end and the compressed body
// begins, so the caller must supply headerTLVCount and bodyTLVCount -- the
// number of top-level TLVs in each section, which a compression context
// negotiates once out of band (RFC 4995's "static" and "dynamic" context
// state) rather than re-deriving per packet.
func Decompress(b []byte, headerTLVCount, bodyTLVCount int) ([]byte, error) {
	fh, consumed, err := DecompressFixedHeader(b)
	if err != nil {
		return nil, err
	}
	rest := b[consumed:]

	headerBytes, rest, err := decodeNTLVs(rest, headerTLVCount)
	if err != nil {
		return nil, fmt.Errorf("ccnxz: decompressing header TLVs: %w", err)
	}
	bodyBytes, _, err := decodeNTLVs(rest, bodyTLVCount)
	if err != nil {
		return nil, fmt.Errorf("ccnxz: decompressing body TLVs: %w", err)
	}

	fh.HeaderLength = byte(ccnx.FixedHeaderLen + len(headerBytes))
	fh.PacketLength = uint16(int(fh.HeaderLength) + len(bodyBytes))

	out := fh.Encode()
	out = append(out, headerBytes...)
	out = append(out, bodyBytes...)
	return out, nil
}

// decodeNTLVs decompresses exactly n top-level TLVs from the front of b,
// returning their uncompressed wire bytes and the unconsumed remainder.
func decodeNTLVs(b []byte, n int) (decoded, remainder []byte, err error) {
	for i := 0; i < n; i++ {
		var one []byte
		one, consumed, err := decodeOneTLV(b)
		if err != nil {
			return nil, nil, err
		}
		decoded = append(decoded, one...)
		b = b[consumed:]
	}
	return decoded, b, nil
}

// decodeOneTLV decompresses a single top-level (type,length[,value]) entry
// and returns both its uncompressed bytes and how many compressed bytes it
// consumed, so a caller can track position across multiple entries.
func decodeOneTLV(b []byte) (decoded []byte, consumed int, err error) {
	if len(b) == 0 {
		return nil, 0, fmt.Errorf("ccnxz: no more bytes to decompress")
	}
	if IsFixedLengthToken(b[0]) {
		entry, found := fixedLengthKeys[b[0]]
		if !found {
			return nil, 0, fmt.Errorf("ccnxz: unrecognized fixed-length key 0x%02x", b[0])
		}
		if len(b) < 1+int(entry.valueLength) {
			return nil, 0, fmt.Errorf("ccnxz: truncated fixed-length value")
		}
		decoded = append(decoded, entry.tokenString...)
		decoded = append(decoded, b[1:1+entry.valueLength]...)
		return decoded, 1 + int(entry.valueLength), nil
	}

	typ, length, n, ok := DecompressVariableLength(b)
	if !ok {
		return nil, 0, fmt.Errorf("ccnxz: unrecognized TL encoding at byte 0x%02x", b[0])
	}
	decoded = append(decoded, byte(typ>>8), byte(typ), byte(length>>8), byte(length))
	if len(b) < n+int(length) {
		return nil, 0, fmt.Errorf("ccnxz: truncated TLV value")
	}
	decoded = append(decoded, b[n:n+int(length)]...)
	return decoded, n + int(length), nil
}

// splitTLVs splits a flat, already-uncompressed TLV byte run into its
// top-level (type,length,value) entries.
func splitTLVs(b []byte) ([]ccnx.TLV, error) {
	var out []ccnx.TLV
	for len(b) > 0 {
		if len(b) < 4 {
			return nil, fmt.Errorf("ccnxz: truncated TLV header")
		}
		typ := uint16(b[0])<<8 | uint16(b[1])
		length := uint16(b[2])<<8 | uint16(b[3])
		b = b[4:]
		if len(b) < int(length) {
			return nil, fmt.Errorf("ccnxz: truncated TLV value")
		}
		value := b[:length]
		b = b[length:]
		out = append(out, ccnx.Terminal(typ, value))
	}
	return out, nil
}

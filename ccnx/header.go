package ccnx

import "fmt"

// FixedHeaderLen is the length in bytes of an uncompressed fixed header.
const FixedHeaderLen = 8

// FixedHeader is the 8-byte prefix of every CCNx packet.
type FixedHeader struct {
	Version      byte
	PacketType   byte
	PacketLength uint16
	HopLimit     byte
	Reserved     uint16
	HeaderLength byte
}

// Encode packs the fixed header in uncompressed, network-order form:
// ver(8) | pkt_type(8) | pkt_len(16) | hop_limit(8) | reserved(16) | hdr_len(8).
func (h FixedHeader) Encode() []byte {
	return []byte{
		h.Version,
		h.PacketType,
		byte(h.PacketLength >> 8), byte(h.PacketLength),
		h.HopLimit,
		byte(h.Reserved >> 8), byte(h.Reserved),
		h.HeaderLength,
	}
}

// DecodeFixedHeader parses an 8-byte uncompressed fixed header and validates
// version and header-length invariants.
func DecodeFixedHeader(b []byte) (FixedHeader, error) {
	if len(b) < FixedHeaderLen {
		return FixedHeader{}, fmt.Errorf("%w: short fixed header", ErrBadFixedHeader)
	}
	h := FixedHeader{
		Version:      b[0],
		PacketType:   b[1],
		PacketLength: uint16(b[2])<<8 | uint16(b[3]),
		HopLimit:     b[4],
		Reserved:     uint16(b[5])<<8 | uint16(b[6]),
		HeaderLength: b[7],
	}
	if h.Version != 1 {
		return FixedHeader{}, fmt.Errorf("%w: version %d", ErrBadFixedHeader, h.Version)
	}
	if h.HeaderLength < FixedHeaderLen {
		return FixedHeader{}, fmt.Errorf("%w: header_length %d < 8", ErrBadFixedHeader, h.HeaderLength)
	}
	if h.PacketLength < uint16(h.HeaderLength) {
		return FixedHeader{}, fmt.Errorf("%w: packet_length %d < header_length %d", ErrBadFixedHeader, h.PacketLength, h.HeaderLength)
	}
	return h, nil
}

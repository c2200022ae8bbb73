package ccnxz

import (
	"fmt"

	"github.com/parc-ccnx/ccnx-go/ccnx"
)

// Fixed-header compressed layouts, chosen by how small packetLength,
// headerLength, and hopLimit are. Version is always truncated to 4 bits.
//
//	uncompressed: 000vvvvr t{8} l{16} m{8} c{8} r{8} h{8}
//	h0_l6_m8:     101vvvvt ttllllll m{8}
//	h5_l9_m0:     110vvvvt tthhhhhl l{8}
//	h5_l9_m8:     111vvvvt tthhhhhl l{8} m{8}
//	h8_l16_m8:    100vvvvr t{8} l{16} m{8} c{8} r{8} h{8}  (compressed bit only)
const (
	bits2  = 0x0003
	bits6  = 0x003F
	bits9  = 0x01FF
	bits16 = 0xFFFF

	compressedMask = 0x80
	compressedBit  = 0x80

	patternMask    = 0xE0
	patternH0L6M8  = 0xA0
	patternH5L9M0  = 0xC0
	patternH5L9M8  = 0xE0
	patternH8L16M8 = 0x80
)

// CompressFixedHeader encodes fh under compression context contextID,
// choosing the narrowest layout the header's field values fit in.
func CompressFixedHeader(fh ccnx.FixedHeader, contextID int) ([]byte, error) {
	cid, err := EncodeContextID(contextID)
	if err != nil {
		return nil, err
	}

	packetType := int(fh.PacketType)
	var body []byte
	if packetType <= bits3 && fh.Reserved == 0 {
		switch {
		case fh.HeaderLength == 8 && fh.PacketLength <= bits6:
			body = compressH0L6M8(fh)
		case int(fh.HeaderLength) <= 0x1F && fh.PacketLength <= bits9 && fh.HopLimit == 0:
			body = compressH5L9M0(fh)
		case int(fh.HeaderLength) <= 0x1F && fh.PacketLength <= bits9:
			body = compressH5L9M8(fh)
		}
	}
	if body == nil {
		body = compressH8L16M8(fh)
	}

	return append(cid, body...), nil
}

func uncompressedFields(fh ccnx.FixedHeader) []byte {
	return []byte{
		fh.Version, fh.PacketType,
		byte(fh.PacketLength >> 8), byte(fh.PacketLength & 0xFF),
		fh.HopLimit,
		byte(fh.Reserved >> 8), byte(fh.Reserved & 0xFF),
		fh.HeaderLength,
	}
}

func compressH8L16M8(fh ccnx.FixedHeader) []byte {
	out := uncompressedFields(fh)
	out[0] |= patternH8L16M8
	return out
}

func compressH0L6M8(fh ccnx.FixedHeader) []byte {
	v := int(fh.Version)
	pt := int(fh.PacketType)
	byte0 := byte(patternH0L6M8 | (v << 1) | (pt >> 2))
	byte1 := byte(((pt & bits2) << 6) | (int(fh.PacketLength) & bits6))
	byte2 := fh.HopLimit
	return []byte{byte0, byte1, byte2}
}

func compressH5L9M0(fh ccnx.FixedHeader) []byte {
	v := int(fh.Version)
	pt := int(fh.PacketType)
	byte0 := byte(patternH5L9M0 | (v << 1) | (pt >> 2))
	byte1 := byte(((pt & bits3) << 6) | (int(fh.HeaderLength) << 1) | (int(fh.PacketLength) >> 8))
	byte2 := byte(fh.PacketLength & 0xFF)
	return []byte{byte0, byte1, byte2}
}

func compressH5L9M8(fh ccnx.FixedHeader) []byte {
	v := int(fh.Version)
	pt := int(fh.PacketType)
	byte0 := byte(patternH5L9M8 | (v << 1) | (pt >> 2))
	byte1 := byte(((pt & bits3) << 6) | (int(fh.HeaderLength) << 1) | (int(fh.PacketLength) >> 8))
	byte2 := byte(fh.PacketLength & 0xFF)
	byte3 := fh.HopLimit
	return []byte{byte0, byte1, byte2, byte3}
}

// DecompressFixedHeader reads a (possibly compressed) fixed header off the
// front of b, returning the reconstructed header and the number of bytes
// consumed.
func DecompressFixedHeader(b []byte) (fh ccnx.FixedHeader, consumed int, err error) {
	if len(b) < 1 {
		return ccnx.FixedHeader{}, 0, fmt.Errorf("ccnxz: empty buffer")
	}

	if b[0]&compressedMask != compressedBit {
		return decompressUncompressed(b)
	}

	_, cidLen, err := DecodeContextID(b)
	if err != nil {
		return ccnx.FixedHeader{}, 0, err
	}
	rest := b[cidLen:]
	if len(rest) < 1 {
		return ccnx.FixedHeader{}, 0, fmt.Errorf("ccnxz: truncated compressed fixed header")
	}

	pattern := rest[0] & patternMask
	var body ccnx.FixedHeader
	var bodyLen int
	switch pattern {
	case patternH0L6M8:
		body, bodyLen, err = decompressH0L6M8(rest)
	case patternH5L9M0:
		body, bodyLen, err = decompressH5L9M0(rest)
	case patternH5L9M8:
		body, bodyLen, err = decompressH5L9M8(rest)
	case patternH8L16M8:
		body, bodyLen, err = decompressH8L16M8(rest)
	default:
		return ccnx.FixedHeader{}, 0, fmt.Errorf("ccnxz: unrecognized fixed header pattern 0x%02x", pattern)
	}
	if err != nil {
		return ccnx.FixedHeader{}, 0, err
	}
	return body, cidLen + bodyLen, nil
}

func decompressUncompressed(b []byte) (ccnx.FixedHeader, int, error) {
	if len(b) < 8 {
		return ccnx.FixedHeader{}, 0, fmt.Errorf("ccnxz: truncated uncompressed fixed header")
	}
	fh := ccnx.FixedHeader{
		Version:      b[0],
		PacketType:   b[1],
		PacketLength: uint16(b[2])<<8 | uint16(b[3]),
		HopLimit:     b[4],
		Reserved:     uint16(b[5])<<8 | uint16(b[6]),
		HeaderLength: b[7],
	}
	return fh, 8, nil
}

func decompressH8L16M8(b []byte) (ccnx.FixedHeader, int, error) {
	fh, n, err := decompressUncompressed(b)
	if err != nil {
		return fh, 0, err
	}
	fh.Version &^= patternH8L16M8
	return fh, n, nil
}

func decompressH0L6M8(b []byte) (ccnx.FixedHeader, int, error) {
	if len(b) < 3 {
		return ccnx.FixedHeader{}, 0, fmt.Errorf("ccnxz: truncated h0_l6_m8 fixed header")
	}
	byte0 := b[0] &^ patternH0L6M8
	byte1 := b[1]
	byte2 := b[2]

	version := byte0 >> 1
	packetType := (byte0&0x01)<<2 | (byte1 >> 6)
	packetLength := uint16(byte1 & 0x3F)
	hopLimit := byte2

	return ccnx.FixedHeader{
		Version:      version,
		PacketType:   packetType,
		PacketLength: packetLength,
		HopLimit:     hopLimit,
		HeaderLength: 8,
	}, 3, nil
}

func decompressH5L9M0(b []byte) (ccnx.FixedHeader, int, error) {
	if len(b) < 3 {
		return ccnx.FixedHeader{}, 0, fmt.Errorf("ccnxz: truncated h5_l9_m0 fixed header")
	}
	byte0 := b[0] &^ patternH5L9M0
	byte1 := b[1]
	byte2 := b[2]

	version := byte0 >> 1
	packetType := (byte0&0x01)<<2 | (byte1 >> 6)
	headerLength := (byte1 & 0x3F) >> 1
	packetLength := uint16(byte1&0x01)<<8 | uint16(byte2)

	return ccnx.FixedHeader{
		Version:      version,
		PacketType:   packetType,
		PacketLength: packetLength,
		HopLimit:     0,
		HeaderLength: headerLength,
	}, 3, nil
}

func decompressH5L9M8(b []byte) (ccnx.FixedHeader, int, error) {
	if len(b) < 4 {
		return ccnx.FixedHeader{}, 0, fmt.Errorf("ccnxz: truncated h5_l9_m8 fixed header")
	}
	byte0 := b[0] &^ patternH5L9M8
	byte1 := b[1]
	byte2 := b[2]
	byte3 := b[3]

	version := (byte0 & 0x1E) >> 1
	packetType := (byte0&0x01)<<2 | (byte1 >> 6)
	headerLength := (byte1 & 0x3F) >> 1
	packetLength := uint16(byte1&0x01)<<8 | uint16(byte2)
	hopLimit := byte3

	return ccnx.FixedHeader{
		Version:      version,
		PacketType:   packetType,
		PacketLength: packetLength,
		HopLimit:     hopLimit,
		HeaderLength: headerLength,
	}, 4, nil
}

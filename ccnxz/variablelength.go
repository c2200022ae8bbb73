package ccnxz

import "github.com/parc-ccnx/ccnx-go/ccnx"

// variableLengthEntry maps one well-known TLV type to a short dictionary
// key under a given bit pattern, so the type needs no bytes of its own in
// the compressed stream -- only the key and the value length.
type variableLengthEntry struct {
	typ     uint16
	pattern byte
	key     byte
}

const (
	pattern34   = 0x00
	pattern49   = 0xC0
	pattern1505 = 0xE0
	pattern1610 = 0xF8
	pattern1616 = 0xFF

	mask34   = 0x80
	mask49   = 0xE0
	mask1505 = 0xF0
	mask1610 = 0xFC
	mask1616 = 0xFF

	length34   = 0x0010
	length49   = 0x0200
	length1505 = 0x0020
	length1610 = 0x0400

	typeBits1505 = 0x8000
)

func variableLengthEntries() []variableLengthEntry {
	return []variableLengthEntry{
		{0x0000, pattern34, 0x00},
		{0x0001, pattern34, 0x10},
		{0x0002, pattern34, 0x20},
		{0x000A, pattern34, 0x30},
		{0x0013, pattern34, 0x40},
		{0x0000, pattern49, 0xC0},
		{0x0001, pattern49, 0xC2},
		{0x0002, pattern49, 0xC4},
		{0x0003, pattern49, 0xC6},
		{0x0004, pattern49, 0xC8},
		{0x0005, pattern49, 0xCA},
		{0x0006, pattern49, 0xCC},
		{0xF000, pattern49, 0xCE},
		{0xF001, pattern49, 0xD0},
	}
}

type vleKey struct {
	typ     uint16
	pattern byte
}

var (
	vleCompress   map[vleKey]variableLengthEntry
	vleDecompress map[byte]variableLengthEntry
)

func init() {
	entries := variableLengthEntries()
	vleCompress = make(map[vleKey]variableLengthEntry, len(entries))
	vleDecompress = make(map[byte]variableLengthEntry, len(entries))
	for _, e := range entries {
		vleCompress[vleKey{e.typ, e.pattern}] = e
		vleDecompress[e.key] = e
	}
}

// CompressVariableLength substitutes tlv's type for its dictionary key and
// packs its length into the narrowest of the 3+4 or 4+9 bit layouts. Returns
// ok=false if tlv's type has no dictionary entry or its length doesn't fit
// either layout.
func CompressVariableLength(tlv ccnx.TLV) (encoded []byte, ok bool) {
	if tlv.Length < length34 {
		if vle, found := vleCompress[vleKey{tlv.Type, pattern34}]; found {
			return []byte{vle.key | byte(tlv.Length)}, true
		}
	}
	if tlv.Length < length49 {
		if vle, found := vleCompress[vleKey{tlv.Type, pattern49}]; found {
			word := uint16(vle.key)<<8 | tlv.Length
			return []byte{byte(word >> 8), byte(word)}, true
		}
	}
	return nil, false
}

// CompactTLV encodes tlv's own type and length with no dictionary
// substitution, using the narrowest of the 15+5, 16+10, or 16+16 bit
// layouts.
func CompactTLV(tlv ccnx.TLV) []byte {
	switch {
	case tlv.Length < length1505 && tlv.Type < typeBits1505:
		byte0 := byte(pattern1505 | (tlv.Type >> 11))
		byte1 := byte((tlv.Type & 0x07FF) >> 3)
		byte2 := byte(((tlv.Type & 0x7) << 5) | tlv.Length)
		return []byte{byte0, byte1, byte2}
	case tlv.Length < length1610:
		byte0 := byte(pattern1610 | (tlv.Type >> 14))
		byte1 := byte((tlv.Type & 0x3FFF) >> 6)
		byte2 := byte(((tlv.Type & 0x3F) << 2) | (tlv.Length >> 8))
		byte3 := byte(tlv.Length)
		return []byte{byte0, byte1, byte2, byte3}
	default:
		return []byte{pattern1616, byte(tlv.Type >> 8), byte(tlv.Type), byte(tlv.Length >> 8), byte(tlv.Length)}
	}
}

// DecompressVariableLength reads one compressed or compact (type,length)
// encoding off the front of b, returning the decoded type/length pair and
// the number of bytes consumed.
func DecompressVariableLength(b []byte) (typ, length uint16, consumed int, ok bool) {
	if len(b) < 1 {
		return 0, 0, 0, false
	}
	byte0 := b[0]

	switch {
	case byte0&mask34 == pattern34:
		vle, found := vleDecompress[byte0&0xF0]
		if !found {
			return 0, 0, 0, false
		}
		return vle.typ, uint16(byte0 & 0x0F), 1, true

	case byte0&mask49 == pattern49:
		if len(b) < 2 {
			return 0, 0, 0, false
		}
		vle, found := vleDecompress[byte0&0xFE]
		if !found {
			return 0, 0, 0, false
		}
		length := uint16(byte0&0x01)<<8 | uint16(b[1])
		return vle.typ, length, 2, true

	case byte0&mask1505 == pattern1505:
		if len(b) < 3 {
			return 0, 0, 0, false
		}
		byte1, byte2 := b[1], b[2]
		typ := uint16(byte0&0x0F)<<11 | uint16(byte1)<<3 | uint16(byte2>>5)
		length := uint16(byte2 & 0x1F)
		return typ, length, 3, true

	case byte0&mask1610 == pattern1610:
		if len(b) < 4 {
			return 0, 0, 0, false
		}
		byte1, byte2, byte3 := b[1], b[2], b[3]
		typ := uint16(byte0&0x03)<<14 | uint16(byte1)<<6 | uint16(byte2>>2)
		length := uint16(byte2&0x03)<<8 | uint16(byte3)
		return typ, length, 4, true

	case byte0&mask1616 == pattern1616:
		if len(b) < 5 {
			return 0, 0, 0, false
		}
		typ := uint16(b[1])<<8 | uint16(b[2])
		length := uint16(b[3])<<8 | uint16(b[4])
		return typ, length, 5, true
	}

	return 0, 0, 0, false
}

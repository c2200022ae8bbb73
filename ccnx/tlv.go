package ccnx

// TLV is one element of a linearized, depth-first pre-order TLV stream.
// A container TLV (Value == nil) is followed in the stream by its nested
// children, whose encoded sizes sum to exactly Length. A terminal TLV
// (Value != nil) carries its Length bytes directly.
type TLV struct {
	Type   uint16
	Length uint16
	Value  []byte
}

// Container returns a container TLV of the given type; Length is filled in
// by the caller once the nested children are known.
func Container(typ uint16, length int) TLV {
	return TLV{Type: typ, Length: uint16(length)}
}

// Terminal returns a terminal TLV carrying value verbatim.
func Terminal(typ uint16, value []byte) TLV {
	return TLV{Type: typ, Length: uint16(len(value)), Value: value}
}

// EncodeTLVs linearizes a pre-order TLV stream into wire bytes: each TLV
// emits its 2-byte type, 2-byte length, then its value bytes if and only if
// it is terminal. This is the "null compressor": the identity codec that
// every uncompressed wire form (names, messages, manifests) is built from.
func EncodeTLVs(tlvs []TLV) []byte {
	size := 0
	for _, t := range tlvs {
		size += 4 + len(t.Value)
	}
	out := make([]byte, 0, size)
	for _, t := range tlvs {
		out = append(out, byte(t.Type>>8), byte(t.Type))
		out = append(out, byte(t.Length>>8), byte(t.Length))
		if t.Value != nil {
			out = append(out, t.Value...)
		}
	}
	return out
}

package ccnxz

import "github.com/parc-ccnx/ccnx-go/ccnx"

// dictEntry is one fixed-length dictionary entry: a token string of packed
// (type,length) byte pairs maps to a single compressed key byte, with
// valueLength stating how many value bytes trail the final TL pair (so a
// decoder knows how many bytes to copy after substituting the key back in).
type dictEntry struct {
	tokenString   []byte
	compressedKey byte
	valueLength   uint16
}

// fixedLengthEntries is the static dictionary of common CCNx (type,length)
// pairs and short TL chains, keyed to a single byte 0x80-0x9F. Most entries
// compress one TLV's TL header; a handful compress short fixed sequences of
// TLVs that tend to appear together (a T_VALALG container followed by its
// algorithm TLV and KeyId TLV).
func fixedLengthEntries() []dictEntry {
	return []dictEntry{
		{[]byte{0x00, 0x02, 0x00, 0x00}, 0x80, 0x0000},
		{[]byte{0x00, 0x02, 0x00, 0x04}, 0x81, 0x0004},
		{[]byte{0x00, 0x02, 0x00, 0x20}, 0x82, 0x0020},
		{[]byte{0x00, 0x03, 0x00, 0x04}, 0x83, 0x0004},
		{[]byte{0x00, 0x03, 0x00, 0x04, 0x00, 0x02, 0x00, 0x00, 0x00, 0x04, 0x00, 0x04}, 0x84, 0x0004},
		{[]byte{0x00, 0x03, 0x00, 0x0C}, 0x85, 0x000C},
		{[]byte{0x00, 0x03, 0x00, 0x0C, 0x00, 0x04, 0x00, 0x08, 0x00, 0x09, 0x00, 0x04}, 0x86, 0x0004},
		{[]byte{0x00, 0x03, 0x00, 0x12}, 0x87, 0x0012},
		{[]byte{0x00, 0x03, 0x00, 0x14, 0x00, 0x04, 0x00, 0x10, 0x00, 0x09, 0x00, 0x04}, 0x88, 0x0004},
		{[]byte{0x00, 0x03, 0x00, 0x20}, 0x89, 0x0020},
		{[]byte{0x00, 0x03, 0x00, 0x34, 0x00, 0x06, 0x00, 0x30, 0x00, 0x09, 0x00, 0x20}, 0x8A, 0x0020},
		{[]byte{0x00, 0x03, 0x00, 0xCE, 0x00, 0x06, 0x00, 0xCA, 0x00, 0x09, 0x00, 0x20}, 0x9C, 0x0020},
		{[]byte{0x00, 0x04, 0x00, 0x04}, 0x8B, 0x0004},
		{[]byte{0x00, 0x04, 0x00, 0x0E}, 0x8C, 0x000E},
		{[]byte{0x00, 0x04, 0x00, 0x10}, 0x8D, 0x0010},
		{[]byte{0x00, 0x04, 0x00, 0x14}, 0x8E, 0x0014},
		{[]byte{0x00, 0x05, 0x00, 0x01}, 0x8F, 0x0001},
		{[]byte{0x00, 0x06, 0x00, 0x08}, 0x90, 0x0008},
		{[]byte{0x00, 0x08, 0x00, 0x11}, 0x91, 0x0011},
		{[]byte{0x00, 0x09, 0x00, 0x04}, 0x92, 0x0004},
		{[]byte{0x00, 0x09, 0x00, 0x10}, 0x93, 0x0010},
		{[]byte{0x00, 0x09, 0x00, 0x20}, 0x94, 0x0020},
		{[]byte{0x00, 0x0B, 0x00, 0xA2}, 0x95, 0x00A2},
		{[]byte{0x00, 0x0B, 0x01, 0x26}, 0x96, 0x0126},
		{[]byte{0x00, 0x0B, 0x02, 0x26}, 0x97, 0x0226},
		{[]byte{0x00, 0x0F, 0x00, 0x08}, 0x98, 0x0008},
		{[]byte{0x00, 0x19, 0x00, 0x01}, 0x99, 0x0001},
		{[]byte{0x00, 0x19, 0x00, 0x02}, 0x9A, 0x0002},
		{[]byte{0x00, 0x19, 0x00, 0x04}, 0x9B, 0x0004},
	}
}

var (
	fixedLengthTrie *Trie
	fixedLengthKeys map[byte]dictEntry
)

func init() {
	entries := fixedLengthEntries()
	fixedLengthTrie = &Trie{}
	fixedLengthKeys = make(map[byte]dictEntry, len(entries))
	for _, e := range entries {
		fixedLengthTrie.Insert(e.tokenString, e.compressedKey)
		fixedLengthKeys[e.compressedKey] = e
	}
}

// IsFixedLengthToken reports whether b is a fixed-length dictionary key
// (the top two bits are '10').
func IsFixedLengthToken(b byte) bool {
	return b&0xC0 == 0x80
}

// FixedLengthCompressor matches the longest run of (type,length) pairs at
// the front of a linearized TLV list against the fixed-length dictionary.
type FixedLengthCompressor struct {
	walker *TrieWalker
}

// NewFixedLengthCompressor returns a compressor bound to the static
// fixed-length dictionary.
func NewFixedLengthCompressor() *FixedLengthCompressor {
	return &FixedLengthCompressor{walker: NewTrieWalker(fixedLengthTrie)}
}

// Compress walks tlvs from the front, matching (type,length) byte pairs
// against the dictionary trie. It returns the encoded bytes for the longest
// dictionary match found (the matched key followed by the final TLV's value
// bytes, if any) and how many leading elements of tlvs it consumed. ok is
// false if no dictionary entry matched.
func (c *FixedLengthCompressor) Compress(tlvs []ccnx.TLV) (encoded []byte, consumed int, ok bool) {
	c.walker.Reset()

	type match struct {
		tlv ccnx.TLV
		key byte
	}
	var best *match

	base := 0
	offset := 0
	for {
		idx := base + offset
		if idx >= len(tlvs) {
			break
		}
		tlv := tlvs[idx]
		packed := [4]byte{byte(tlv.Type >> 8), byte(tlv.Type), byte(tlv.Length >> 8), byte(tlv.Length)}

		noMatch := false
		for _, b := range packed {
			if !c.walker.Next(b) {
				noMatch = true
				break
			}
		}
		if noMatch {
			break
		}

		offset++
		if v := c.walker.Value(); v != nil {
			key := v.(byte)
			base += offset
			offset = 0
			best = &match{tlv: tlv, key: key}
			if tlv.Length > 0 && tlv.Value != nil {
				break
			}
		} else if tlv.Length > 0 && tlv.Value != nil {
			break
		}
	}

	if best == nil {
		return nil, 0, false
	}
	out := []byte{best.key}
	if best.tlv.Value != nil {
		out = append(out, best.tlv.Value...)
	}
	return out, base, true
}

// DecompressFixedLength expands a single fixed-length dictionary key at the
// front of b back into its token string (plus trailing value bytes, which
// the caller is responsible for reading off using the entry's valueLength).
// Returns the expanded TL bytes and 1 (bytes consumed from b), or ok=false
// if b does not begin with a recognized key.
func DecompressFixedLength(b []byte) (expanded []byte, consumed int, ok bool) {
	if len(b) < 1 || !IsFixedLengthToken(b[0]) {
		return nil, 0, false
	}
	entry, found := fixedLengthKeys[b[0]]
	if !found {
		return nil, 0, false
	}
	return entry.tokenString, 1, true
}

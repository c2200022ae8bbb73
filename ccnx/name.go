package ccnx

import (
	"bytes"
	"fmt"
	"strings"
)

// Name is an ordered list of typed segment TLVs. Two names are equal iff
// their wire encodings are byte-equal; hashing a name is defined over that
// same encoding, so equality implies hash equality.
type Name struct {
	segments []TLV
}

// NewName builds a Name from an explicit segment list (TLVs, not including
// the T_NAME wrapper).
func NewName(segments []TLV) Name {
	out := make([]TLV, len(segments))
	copy(out, segments)
	return Name{segments: out}
}

func labelToType(label string) (uint16, error) {
	switch strings.ToUpper(label) {
	case "CHUNK":
		return TChunk, nil
	case "SERIAL":
		return TSerial, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownNameLabel, label)
	}
}

// NameFromURI parses an `lci:/seg1/seg2/...` URI into a Name. A segment is
// either a bare byte sequence (T_NAMESEG) or `LABEL=value` where LABEL is a
// recognised name-segment label.
func NameFromURI(uri string) (Name, error) {
	const scheme = "lci:"
	if !strings.HasPrefix(uri, scheme) {
		idx := strings.Index(uri, ":")
		got := uri
		if idx >= 0 {
			got = uri[:idx]
		}
		return Name{}, fmt.Errorf("ccnx: name schema must be lci, got %q", got)
	}
	path := strings.TrimPrefix(uri[len(scheme):], "/")
	var segments []TLV
	for _, seg := range strings.Split(path, "/") {
		typ := uint16(TNameSeg)
		value := seg
		if idx := strings.IndexByte(seg, '='); idx >= 0 {
			label, v := seg[:idx], seg[idx+1:]
			t, err := labelToType(label)
			if err != nil {
				return Name{}, err
			}
			typ, value = t, v
		}
		segments = append(segments, Terminal(typ, []byte(value)))
	}
	return Name{segments: segments}, nil
}

// FromName copies name's segments into a new Name, optionally appending a
// T_CHUNK segment for chunkNumber.
func FromName(name Name, chunkNumber *uint64) Name {
	out := NewName(name.segments)
	if chunkNumber != nil {
		out.AddSegment(TChunk, NumberToBytes(*chunkNumber))
	}
	return out
}

// AddSegment appends a typed segment to the name.
func (n *Name) AddSegment(typ uint16, value []byte) {
	n.segments = append(n.segments, Terminal(typ, value))
}

// RemoveLast drops the last segment. Fails on an empty name.
func (n *Name) RemoveLast() error {
	if len(n.segments) == 0 {
		return ErrEmptyName
	}
	n.segments = n.segments[:len(n.segments)-1]
	return nil
}

// SegmentCount returns the number of segments (excluding the T_NAME wrapper).
func (n Name) SegmentCount() int {
	return len(n.segments)
}

// Segment returns the segment at index i.
func (n Name) Segment(i int) (TLV, error) {
	if i < 0 || i >= len(n.segments) {
		return TLV{}, fmt.Errorf("ccnx: segment index %d out of range [0,%d)", i, len(n.segments))
	}
	return n.segments[i], nil
}

// Segments returns the segment TLVs in order.
func (n Name) Segments() []TLV {
	out := make([]TLV, len(n.segments))
	copy(out, n.segments)
	return out
}

// TLVList returns the linearized [T_NAME container, segments...] stream.
func (n Name) TLVList() []TLV {
	length := 0
	for _, s := range n.segments {
		length += 4 + len(s.Value)
	}
	out := make([]TLV, 0, len(n.segments)+1)
	out = append(out, Container(TName, length))
	out = append(out, n.segments...)
	return out
}

// Length is the total encoded byte length of the name, including its
// T_NAME wrapper.
func (n Name) Length() int {
	length := 0
	for _, s := range n.segments {
		length += 4 + len(s.Value)
	}
	return 4 + length
}

// Encode returns the wire bytes of the name, including its T_NAME wrapper.
func (n Name) Encode() []byte {
	return EncodeTLVs(n.TLVList())
}

// Equal reports whether two names have byte-identical wire encodings.
func (n Name) Equal(other Name) bool {
	return bytes.Equal(n.Encode(), other.Encode())
}

// ChunkNumber reads the chunk number from the last segment. The second
// return value is false when the last segment is not a T_CHUNK segment
// (the operation is undefined in that case, per the name spec).
func (n Name) ChunkNumber() (uint64, bool) {
	if len(n.segments) == 0 {
		return 0, false
	}
	last := n.segments[len(n.segments)-1]
	if last.Type != TChunk {
		return 0, false
	}
	return BytesToNumber(last.Value), true
}

// SetChunkNumber replaces the last T_CHUNK segment if present, otherwise
// appends a new one.
func (n *Name) SetChunkNumber(chunkNumber uint64) {
	if len(n.segments) > 0 && n.segments[len(n.segments)-1].Type == TChunk {
		n.segments = n.segments[:len(n.segments)-1]
	}
	n.AddSegment(TChunk, NumberToBytes(chunkNumber))
}

// String renders the name in lci:/seg1/seg2 form using raw segment bytes;
// it is a debugging aid only, not used for wire encoding.
func (n Name) String() string {
	var b strings.Builder
	b.WriteString("lci:")
	for _, s := range n.segments {
		b.WriteByte('/')
		b.Write(s.Value)
	}
	return b.String()
}

package ccnx

import "fmt"

// Message is a pair of (header_tlvs, body_tlvs). It assembles into a frozen
// wire form the first time WireFormat is called, or explicitly via
// GenerateWireFormat; thereafter the wire form and packet-length field are
// frozen until Sign appends the validation trailer.
type Message struct {
	HeaderTLVs []TLV
	BodyTLVs   []TLV

	wireFormat   []byte
	headerLength int

	Name     Name
	KeyID    []byte
	Manifest *ManifestSections
	Payload  []byte
}

// NewInterest builds the body TLVs of an Interest: name, optional KeyId
// restriction, optional object-hash restriction.
func NewInterest(name Name, keyIDRestr, hashRestr []byte) *Message {
	length := name.Length()
	var keyIDTLV, hashTLV *TLV
	if keyIDRestr != nil {
		t := Terminal(TKeyIDRestr, keyIDRestr)
		keyIDTLV = &t
		length += 4 + len(keyIDRestr)
	}
	if hashRestr != nil {
		t := Terminal(TObjHashRestr, hashRestr)
		hashTLV = &t
		length += 4 + len(hashRestr)
	}

	body := append([]TLV{Container(TInterest, length)}, name.TLVList()...)
	if keyIDTLV != nil {
		body = append(body, *keyIDTLV)
	}
	if hashTLV != nil {
		body = append(body, *hashTLV)
	}
	return &Message{BodyTLVs: body, Name: name}
}

// NewContentObject builds the body TLVs of a ContentObject: name, optional
// expiry, and any extra body TLVs (e.g. T_PAYLOAD, T_MANIFEST).
func NewContentObject(name Name, expiry *uint64, extra ...TLV) *Message {
	length := name.Length()
	var expiryTLV *TLV
	if expiry != nil {
		t := Terminal(TExpiry, NumberToBytes(*expiry))
		expiryTLV = &t
		length += 4 + len(t.Value)
	}
	for _, e := range extra {
		length += 4 + len(e.Value)
	}

	body := append([]TLV{Container(TObject, length)}, name.TLVList()...)
	if expiryTLV != nil {
		body = append(body, *expiryTLV)
	}
	body = append(body, extra...)
	return &Message{BodyTLVs: body, Name: name}
}

// GenerateWireFormat assembles the frozen wire form: 8-byte fixed header
// followed by encoded header TLVs then encoded body TLVs.
func (m *Message) GenerateWireFormat() error {
	headers := EncodeTLVs(m.HeaderTLVs)
	body := EncodeTLVs(m.BodyTLVs)

	var packetType byte
	switch {
	case len(m.BodyTLVs) > 0 && m.BodyTLVs[0].Type == TInterest:
		packetType = PacketTypeInterest
	case len(m.BodyTLVs) > 0 && m.BodyTLVs[0].Type == TObject:
		packetType = PacketTypeObject
	default:
		return fmt.Errorf("ccnx: unsupported message, first body tlv %+v", m.BodyTLVs)
	}

	m.headerLength = FixedHeaderLen + len(headers)
	packetLen := m.headerLength + len(body)
	fh := FixedHeader{
		Version:      1,
		PacketType:   packetType,
		PacketLength: uint16(packetLen),
		HeaderLength: byte(m.headerLength),
	}

	out := make([]byte, 0, packetLen)
	out = append(out, fh.Encode()...)
	out = append(out, headers...)
	out = append(out, body...)
	m.wireFormat = out
	return nil
}

// WireFormat returns the frozen wire bytes, generating them on first use.
func (m *Message) WireFormat() ([]byte, error) {
	if m.wireFormat == nil {
		if err := m.GenerateWireFormat(); err != nil {
			return nil, err
		}
	}
	return m.wireFormat, nil
}

// Hash computes the content-object hash used for hash restrictions: SHA-256
// over the body bytes only, excluding the fixed header and any optional
// header TLVs, computed on the frozen wire form.
func (m *Message) Hash() ([32]byte, error) {
	wf, err := m.WireFormat()
	if err != nil {
		return [32]byte{}, err
	}
	return sha256Sum(wf[m.headerLength:]), nil
}

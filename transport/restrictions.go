package transport

import (
	"crypto/sha256"

	"github.com/parc-ccnx/ccnx-go/ccnx"
)

// interestKeyIDRestr and interestObjHashRestr recover the restriction
// values an outgoing Interest was built with. ccnx.Message does not keep a
// direct KeyIDRestr/ObjHashRestr field the way the source's CCNxInterest
// does; an Interest's BodyTLVs are flat and only ever carry these two
// types at the Interest level (never nested under a manifest section), so
// scanning the whole list for a terminal TLV of the right type is exact.
func interestKeyIDRestr(interest *ccnx.Message) []byte {
	return findRestriction(interest, ccnx.TKeyIDRestr)
}

func interestObjHashRestr(interest *ccnx.Message) []byte {
	return findRestriction(interest, ccnx.TObjHashRestr)
}

func findRestriction(interest *ccnx.Message, typ uint16) []byte {
	for _, tlv := range interest.BodyTLVs {
		if tlv.Type == typ && tlv.Value != nil {
			return tlv.Value
		}
	}
	return nil
}

// objectHash computes the content-object hash a reply would be matched
// against: SHA-256 over its linearized body TLVs, the same bytes
// ccnx.Message.Hash hashes off the frozen wire form.
func objectHash(reply *ccnx.Parsed) [32]byte {
	return sha256.Sum256(ccnx.EncodeTLVs(reply.BodyTLVs))
}

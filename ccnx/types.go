// Package ccnx implements the CCNx 1.0 wire protocol: the TLV codec, fixed
// header, names, messages, signing, and the manifest tree builder used to
// chunk a file into a signed k-ary tree of content objects.
package ccnx

// Packet types (fixed header byte 1).
const (
	PacketTypeInterest = 1
	PacketTypeObject    = 2
)

// Optional header TLV types.
const (
	TIntLife = 0x0001
	TIntFrag = 0x0003
	TObjFrag = 0x0004
)

// Message body TLV types.
const (
	TInterest = 0x0001
	TObject   = 0x0002
	TValAlg   = 0x0003
	TValPay   = 0x0004
)

// Name segment TLV types.
const (
	TName    = 0x0000
	TNameSeg = 0x0001
	TChunk   = 0x000A
	TIPID    = 0x0008
	TSerial  = 0x0013
)

// Body element TLV types nested under TInterest / TObject.
const (
	TKeyIDRestr  = 0x0002
	TObjHashRestr = 0x0003
	TPldType     = 0x0005
	TPayload     = 0x0001
	TExpiry      = 0x0006
	TEndChunk    = 0x0019
)

// Validation algorithm TLV types, nested under TValAlg.
const (
	TKeyID   = 0x0009
	TPubKey  = 0x000B
	TCert    = 0x000C
	TKeyName = 0x000E
	TSigTime = 0x000F
)

// Validation algorithm identifiers.
const (
	TCRC32C      = 2
	THMACSHA256  = 4
	TRSASHA256   = 6
	TECSECP256K1 = 7
)

// Manifest TLV types.
const (
	TManifest           = 7
	TManifestLinks      = 1
	TDataLinks          = 2
	TStartChunkNumber   = 1
	THashList           = 2
)

// HashSize is the length in bytes of a content-object hash or KeyId.
const HashSize = 32

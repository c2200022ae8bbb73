package ccnx

import (
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"fmt"
)

// Signer is the narrow interface Message.Sign invokes to produce a
// validation algorithm trailer. Adapted from the teacher's CryptoProvider
// shape (a small process-wide interface over one concrete crypto backend),
// re-scoped here to the spec's single supported scheme: RSA-PKCS1v15 over
// SHA-256.
type Signer interface {
	// PublicKeyDER returns the DER encoding of the signer's RSA public key.
	PublicKeyDER() ([]byte, error)
	// KeyID returns SHA-256 of PublicKeyDER.
	KeyID() ([32]byte, error)
	// Sign returns a PKCS#1 v1.5 SHA-256 signature over data.
	Sign(data []byte) ([]byte, error)
}

// RSASigner is the standard RSASigner backed by an *rsa.PrivateKey, the
// spec's only named cryptographic primitive.
type RSASigner struct {
	key *rsa.PrivateKey
	der []byte
}

// NewRSASigner wraps key for use as a Signer.
func NewRSASigner(key *rsa.PrivateKey) (*RSASigner, error) {
	der, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	if err != nil {
		return nil, fmt.Errorf("ccnx: marshal public key: %w", err)
	}
	return &RSASigner{key: key, der: der}, nil
}

func (s *RSASigner) PublicKeyDER() ([]byte, error) {
	return s.der, nil
}

func (s *RSASigner) KeyID() ([32]byte, error) {
	return sha256Sum(s.der), nil
}

func (s *RSASigner) Sign(data []byte) ([]byte, error) {
	digest := sha256Sum(data)
	sig, err := rsa.SignPKCS1v15(rand.Reader, s.key, crypto.SHA256, digest[:])
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSignatureFailed, err)
	}
	return sig, nil
}

func sha256Sum(b []byte) [32]byte {
	return sha256.Sum256(b)
}

// PublicKeyID derives a KeyId from a bare RSA public key -- the same
// SHA-256-of-DER derivation RSASigner.KeyID uses -- so a consumer holding
// only a publisher's public key (never its Signer) can still restrict
// interests to that publisher's KeyId.
func PublicKeyID(pubKey *rsa.PublicKey) ([32]byte, error) {
	der, err := x509.MarshalPKIXPublicKey(pubKey)
	if err != nil {
		return [32]byte{}, fmt.Errorf("ccnx: marshal public key: %w", err)
	}
	return sha256Sum(der), nil
}

// Verify checks a parsed content object's signature against pubKey, over the
// same signed region Sign computed it from: body bytes from the end of the
// fixed header up to (not including) the trailing T_VALPAY TLV.
func Verify(wireFormat []byte, parsed *Parsed, pubKey *rsa.PublicKey) error {
	if parsed.Signature == nil {
		return fmt.Errorf("%w: no signature present", ErrSignatureFailed)
	}
	valPayTLVLen := 4 + len(parsed.Signature)
	signedEnd := len(wireFormat) - valPayTLVLen
	if signedEnd < int(parsed.Header.HeaderLength) {
		return fmt.Errorf("%w: signed region shorter than fixed header", ErrSignatureFailed)
	}
	signed := wireFormat[parsed.Header.HeaderLength:signedEnd]
	digest := sha256Sum(signed)
	if err := rsa.VerifyPKCS1v15(pubKey, crypto.SHA256, digest[:], parsed.Signature); err != nil {
		return fmt.Errorf("%w: %v", ErrSignatureFailed, err)
	}
	return nil
}

// Sign appends T_VALALG{T_RSA_SHA256{T_KEYID T_PUBKEY}} and a trailing
// T_VALPAY TLV to the message body, then updates the packet-length field.
// The signature is computed over the signed region (body bytes from the
// end of the fixed header) plus the just-appended T_VALALG bytes.
func (m *Message) Sign(signer Signer) error {
	wf, err := m.WireFormat()
	if err != nil {
		return err
	}

	der, err := signer.PublicKeyDER()
	if err != nil {
		return err
	}
	keyID, err := signer.KeyID()
	if err != nil {
		return err
	}

	keyIDTLV := Terminal(TKeyID, keyID[:])
	pubKeyTLV := Terminal(TPubKey, der)
	algLength := 4 + len(keyIDTLV.Value) + 4 + len(pubKeyTLV.Value)
	rsaSha256TLV := Container(TRSASHA256, algLength)
	valAlgTLV := Container(TValAlg, algLength+4)

	valAlgList := []TLV{valAlgTLV, rsaSha256TLV, keyIDTLV, pubKeyTLV}
	m.BodyTLVs = append(m.BodyTLVs, valAlgList...)

	wf = append(wf, EncodeTLVs(valAlgList)...)

	sigStart := m.headerLength
	sig, err := signer.Sign(wf[sigStart:])
	if err != nil {
		return err
	}
	sigTLV := Terminal(TValPay, sig)
	m.BodyTLVs = append(m.BodyTLVs, sigTLV)
	wf = append(wf, EncodeTLVs([]TLV{sigTLV})...)

	packetLen := len(wf)
	wf[2] = byte(packetLen >> 8)
	wf[3] = byte(packetLen)

	m.wireFormat = wf
	m.KeyID = keyID[:]
	return nil
}

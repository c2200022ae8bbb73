// Package keyio loads the RSA keys the publisher and consumer CLIs take as
// --key/--pubkey arguments, PEM-encoded the way the teacher's node/main.go
// reads operator-supplied file paths directly via os.ReadFile.
package keyio

import (
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"fmt"
	"os"
)

// LoadPrivateKey reads a PKCS#1 or PKCS#8 RSA private key from a PEM file.
func LoadPrivateKey(path string) (*rsa.PrivateKey, error) {
	b, err := os.ReadFile(path) // #nosec G304 -- path is a user-supplied CLI argument; operator controls the process.
	if err != nil {
		return nil, fmt.Errorf("keyio: read %s: %w", path, err)
	}
	block, _ := pem.Decode(b)
	if block == nil {
		return nil, fmt.Errorf("keyio: %s: no PEM block found", path)
	}
	if key, err := x509.ParsePKCS1PrivateKey(block.Bytes); err == nil {
		return key, nil
	}
	key, err := x509.ParsePKCS8PrivateKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("keyio: %s: parse private key: %w", path, err)
	}
	rsaKey, ok := key.(*rsa.PrivateKey)
	if !ok {
		return nil, fmt.Errorf("keyio: %s: not an RSA private key", path)
	}
	return rsaKey, nil
}

// LoadPublicKey reads a DER or PEM-wrapped RSA public key used to verify
// content objects from a known publisher.
func LoadPublicKey(path string) (*rsa.PublicKey, error) {
	b, err := os.ReadFile(path) // #nosec G304 -- path is a user-supplied CLI argument; operator controls the process.
	if err != nil {
		return nil, fmt.Errorf("keyio: read %s: %w", path, err)
	}
	der := b
	if block, _ := pem.Decode(b); block != nil {
		der = block.Bytes
	}
	pub, err := x509.ParsePKIXPublicKey(der)
	if err != nil {
		return nil, fmt.Errorf("keyio: %s: parse public key: %w", path, err)
	}
	rsaKey, ok := pub.(*rsa.PublicKey)
	if !ok {
		return nil, fmt.Errorf("keyio: %s: not an RSA public key", path)
	}
	return rsaKey, nil
}

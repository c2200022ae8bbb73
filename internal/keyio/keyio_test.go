package keyio

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"os"
	"path/filepath"
	"testing"
)

func writeKeyPair(t *testing.T) (privPath, pubPath string, key *rsa.PrivateKey) {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("GenerateKey: %v", err)
	}

	privPEM := pem.EncodeToMemory(&pem.Block{
		Type:  "RSA PRIVATE KEY",
		Bytes: x509.MarshalPKCS1PrivateKey(key),
	})
	dir := t.TempDir()
	privPath = filepath.Join(dir, "key.pem")
	if err := os.WriteFile(privPath, privPEM, 0o600); err != nil {
		t.Fatalf("WriteFile priv: %v", err)
	}

	pubDER, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	if err != nil {
		t.Fatalf("MarshalPKIXPublicKey: %v", err)
	}
	pubPEM := pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: pubDER})
	pubPath = filepath.Join(dir, "pub.pem")
	if err := os.WriteFile(pubPath, pubPEM, 0o600); err != nil {
		t.Fatalf("WriteFile pub: %v", err)
	}
	return privPath, pubPath, key
}

func TestLoadPrivateKeyPKCS1(t *testing.T) {
	privPath, _, want := writeKeyPair(t)
	got, err := LoadPrivateKey(privPath)
	if err != nil {
		t.Fatalf("LoadPrivateKey: %v", err)
	}
	if got.N.Cmp(want.N) != 0 {
		t.Fatalf("loaded key modulus mismatch")
	}
}

func TestLoadPublicKey(t *testing.T) {
	_, pubPath, want := writeKeyPair(t)
	got, err := LoadPublicKey(pubPath)
	if err != nil {
		t.Fatalf("LoadPublicKey: %v", err)
	}
	if got.N.Cmp(want.PublicKey.N) != 0 {
		t.Fatalf("loaded public key modulus mismatch")
	}
}

func TestLoadPrivateKeyRejectsGarbage(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.pem")
	if err := os.WriteFile(path, []byte("not a pem file"), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if _, err := LoadPrivateKey(path); err == nil {
		t.Fatalf("expected error loading garbage file")
	}
}

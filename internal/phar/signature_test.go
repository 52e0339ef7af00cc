// SPDX-License-Identifier: MPL-2.0

package phar

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"strings"
	"testing"
)

func TestParsePrivateKey(t *testing.T) {
	t.Parallel()

	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatal(err)
	}
	plain := pem.EncodeToMemory(&pem.Block{Type: "RSA PRIVATE KEY", Bytes: x509.MarshalPKCS1PrivateKey(key)})

	//nolint:staticcheck // legacy encrypted PEM is what openssl genrsa -des3 produces
	block, err := x509.EncryptPEMBlock(rand.Reader, "RSA PRIVATE KEY", x509.MarshalPKCS1PrivateKey(key), []byte("secret"), x509.PEMCipherAES256)
	if err != nil {
		t.Fatal(err)
	}
	encrypted := pem.EncodeToMemory(block)

	got, err := ParsePrivateKey(plain, "")
	if err != nil || !got.Equal(key) {
		t.Fatalf("ParsePrivateKey(plain) = %v, %v", got, err)
	}

	got, err = ParsePrivateKey(encrypted, "secret")
	if err != nil || !got.Equal(key) {
		t.Fatalf("ParsePrivateKey(encrypted) = %v, %v", got, err)
	}

	if _, err := ParsePrivateKey(encrypted, ""); err == nil || !strings.Contains(err.Error(), "passphrase") {
		t.Errorf("ParsePrivateKey(encrypted, no passphrase) error = %v", err)
	}
	if _, err := ParsePrivateKey(encrypted, "wrong"); err == nil {
		t.Error("ParsePrivateKey(wrong passphrase) should fail")
	}
	if _, err := ParsePrivateKey([]byte("not a key"), ""); err == nil {
		t.Error("ParsePrivateKey(garbage) should fail")
	}
}

func TestPublicKeyRoundTrip(t *testing.T) {
	t.Parallel()

	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatal(err)
	}
	pemBytes, err := MarshalPublicKey(key)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(string(pemBytes), "-----BEGIN PUBLIC KEY-----") {
		t.Errorf("MarshalPublicKey() = %q", pemBytes)
	}
	pub, err := ParsePublicKey(pemBytes)
	if err != nil || !pub.Equal(&key.PublicKey) {
		t.Errorf("ParsePublicKey() = %v, %v", pub, err)
	}
}

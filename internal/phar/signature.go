// SPDX-License-Identifier: MPL-2.0

package phar

import (
	"crypto"
	"crypto/md5" //nolint:gosec // PHAR signature algorithm, not used for security decisions
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha1" //nolint:gosec // PHAR default signature algorithm
	"crypto/sha256"
	"crypto/sha512"
	"crypto/x509"
	"encoding/hex"
	"encoding/pem"
	"errors"
	"fmt"
	"hash"
	"strings"

	"golang.org/x/crypto/ssh"
)

// Signature describes the signature found at the end of an archive.
type Signature struct {
	Algorithm SignatureAlgorithm
	// HashType is the PHP display name ("SHA-1", "OpenSSL", ...).
	HashType string
	// Hash is the upper-case hexadecimal digest or RSA signature.
	Hash string
}

func newHash(a SignatureAlgorithm) (hash.Hash, error) {
	switch a {
	case MD5:
		return md5.New(), nil //nolint:gosec
	case SHA1, OpenSSL:
		return sha1.New(), nil //nolint:gosec
	case SHA256:
		return sha256.New(), nil
	case SHA512:
		return sha512.New(), nil
	default:
		return nil, fmt.Errorf("unsupported signature algorithm %s", a)
	}
}

func digestSize(a SignatureAlgorithm) int {
	switch a {
	case MD5:
		return md5.Size
	case SHA1:
		return sha1.Size
	case SHA256:
		return sha256.Size
	case SHA512:
		return sha512.Size
	default:
		return 0
	}
}

func digest(a SignatureAlgorithm, data []byte) ([]byte, error) {
	h, err := newHash(a)
	if err != nil {
		return nil, err
	}
	h.Write(data)
	return h.Sum(nil), nil
}

func signRSA(key *rsa.PrivateKey, data []byte) ([]byte, error) {
	sum, err := digest(OpenSSL, data)
	if err != nil {
		return nil, err
	}
	return rsa.SignPKCS1v15(rand.Reader, key, crypto.SHA1, sum)
}

func verifyRSA(pub *rsa.PublicKey, data, sig []byte) error {
	sum, err := digest(OpenSSL, data)
	if err != nil {
		return err
	}
	if err := rsa.VerifyPKCS1v15(pub, crypto.SHA1, sum, sig); err != nil {
		return fmt.Errorf("%w: %w", ErrSignatureMismatch, err)
	}
	return nil
}

func hexUpper(b []byte) string {
	return strings.ToUpper(hex.EncodeToString(b))
}

// ParsePrivateKey decodes a PEM (PKCS#1, PKCS#8, encrypted PEM) or OpenSSH
// RSA private key. passphrase may be empty for unencrypted keys.
func ParsePrivateKey(pemBytes []byte, passphrase string) (*rsa.PrivateKey, error) {
	var (
		raw any
		err error
	)
	if passphrase == "" {
		raw, err = ssh.ParseRawPrivateKey(pemBytes)
	} else {
		raw, err = ssh.ParseRawPrivateKeyWithPassphrase(pemBytes, []byte(passphrase))
	}
	if err != nil {
		var missing *ssh.PassphraseMissingError
		if errors.As(err, &missing) {
			return nil, errors.New("the private key is encrypted and no passphrase was given")
		}
		return nil, err
	}

	key, ok := raw.(*rsa.PrivateKey)
	if !ok {
		return nil, fmt.Errorf("unsupported private key type %T: an RSA key is required", raw)
	}
	return key, nil
}

// MarshalPublicKey encodes the public half of key as a PEM "PUBLIC KEY" block.
func MarshalPublicKey(key *rsa.PrivateKey) ([]byte, error) {
	der, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	if err != nil {
		return nil, err
	}
	return pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: der}), nil
}

// ParsePublicKey decodes a PEM "PUBLIC KEY" block holding an RSA key.
func ParsePublicKey(pemBytes []byte) (*rsa.PublicKey, error) {
	block, _ := pem.Decode(pemBytes)
	if block == nil {
		return nil, errors.New("no PEM block found in public key")
	}
	pub, err := x509.ParsePKIXPublicKey(block.Bytes)
	if err != nil {
		return nil, err
	}
	rsaPub, ok := pub.(*rsa.PublicKey)
	if !ok {
		return nil, fmt.Errorf("unsupported public key type %T", pub)
	}
	return rsaPub, nil
}

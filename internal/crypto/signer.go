package crypto

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"math/big"
	"os"

	"github.com/awnumar/memguard"

	"github.com/and161185/metricspush/internal/errs"
)

var ErrSignerClosed = errors.New("signer is closed")

// Signer signs metrics text with a private key held in locked memory.
type Signer struct {
	pem    *memguard.LockedBuffer
	key    crypto.Signer
	closed bool
}

// NewSigner moves keyPEM into a locked buffer and validates it.
// keyPEM is wiped on return whether or not the key is valid.
func NewSigner(keyPEM []byte) (*Signer, error) {
	return newSigner(memguard.NewBufferFromBytes(keyPEM))
}

// OpenSigner reads the key file straight into locked memory.
func OpenSigner(path string) (*Signer, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open signing key: %w", err)
	}
	defer f.Close()

	buf, err := memguard.NewBufferFromEntireReader(f)
	if err != nil {
		return nil, fmt.Errorf("read signing key: %w", err)
	}
	return newSigner(buf)
}

func newSigner(buf *memguard.LockedBuffer) (*Signer, error) {
	if buf.Size() == 0 {
		buf.Destroy()
		return nil, fmt.Errorf("%w: empty key", errs.ErrInvalidKey)
	}
	key, err := ParsePrivateKey(buf.Bytes())
	if err != nil {
		buf.Destroy()
		return nil, fmt.Errorf("%w: %v", errs.ErrInvalidKey, err)
	}
	return &Signer{pem: buf, key: key}, nil
}

// Algorithm names the key type, for diagnostics.
func (s *Signer) Algorithm() string {
	switch s.key.(type) {
	case *rsa.PrivateKey:
		return "RSA"
	case *ecdsa.PrivateKey:
		return "ECDSA"
	case ed25519.PrivateKey:
		return "Ed25519"
	}
	return "unknown"
}

// Public returns the public half of the key.
func (s *Signer) Public() crypto.PublicKey { return s.key.Public() }

// Sign returns the base64 signature of text.
// RSA keys use PKCS#1 v1.5 over SHA-256, ECDSA keys an ASN.1 signature over SHA-256,
// Ed25519 keys sign text directly.
func (s *Signer) Sign(text []byte) (string, error) {
	if s.closed {
		return "", ErrSignerClosed
	}

	var (
		sig []byte
		err error
	)
	if _, ok := s.key.(ed25519.PrivateKey); ok {
		sig, err = s.key.Sign(rand.Reader, text, crypto.Hash(0))
	} else {
		digest := sha256.Sum256(text)
		sig, err = s.key.Sign(rand.Reader, digest[:], crypto.SHA256)
	}
	if err != nil {
		return "", fmt.Errorf("sign: %w", err)
	}
	return base64.StdEncoding.EncodeToString(sig), nil
}

// Close zeroes the parsed key and destroys the locked PEM buffer. It is safe to call more than once.
func (s *Signer) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true

	switch k := s.key.(type) {
	case *rsa.PrivateKey:
		zero(k.D)
		for _, p := range k.Primes {
			zero(p)
		}
		zero(k.Precomputed.Dp)
		zero(k.Precomputed.Dq)
		zero(k.Precomputed.Qinv)
	case *ecdsa.PrivateKey:
		zero(k.D)
	case ed25519.PrivateKey:
		memguard.WipeBytes(k)
	}
	s.key = nil
	s.pem.Destroy()
	return nil
}

func zero(n *big.Int) {
	if n != nil {
		n.SetInt64(0)
	}
}

// Package crypto loads signing keys and produces detached payload signatures.
package crypto

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"os"
)

var (
	ErrNoPEMBlocks    = errors.New("no PEM blocks found")
	ErrUnsupportedPEM = errors.New("unsupported PEM block type")
	ErrUnsupportedKey = errors.New("unsupported key algorithm")
)

// ParsePrivateKey parse a private key from PEM-bytes.
// Support: "RSA PRIVATE KEY" (PKCS#1), "EC PRIVATE KEY" (SEC 1) and "PRIVATE KEY" (PKCS#8 with RSA, ECDSA or Ed25519).
// Foreign blocks before the key are skipped.
func ParsePrivateKey(pemBytes []byte) (crypto.Signer, error) {
	var found bool
	for {
		var block *pem.Block
		block, pemBytes = pem.Decode(pemBytes)
		if block == nil {
			break
		}
		found = true

		switch block.Type {
		case "RSA PRIVATE KEY":
			priv, err := x509.ParsePKCS1PrivateKey(block.Bytes)
			if err != nil {
				return nil, fmt.Errorf("parse PKCS1 private key: %w", err)
			}
			return priv, nil

		case "EC PRIVATE KEY":
			priv, err := x509.ParseECPrivateKey(block.Bytes)
			if err != nil {
				return nil, fmt.Errorf("parse EC private key: %w", err)
			}
			return priv, nil

		case "PRIVATE KEY":
			key, err := x509.ParsePKCS8PrivateKey(block.Bytes)
			if err != nil {
				return nil, fmt.Errorf("parse PKCS8 private key: %w", err)
			}
			switch k := key.(type) {
			case *rsa.PrivateKey, *ecdsa.PrivateKey, ed25519.PrivateKey:
				return k.(crypto.Signer), nil
			default:
				return nil, ErrUnsupportedKey
			}

		default:
			continue
		}
	}
	if !found {
		return nil, ErrNoPEMBlocks
	}
	return nil, ErrUnsupportedPEM
}

// ParsePublicKey parse a public key from PEM-bytes.
// Support: "PUBLIC KEY" (PKIX) and "RSA PUBLIC KEY" (PKCS#1).
func ParsePublicKey(pemBytes []byte) (crypto.PublicKey, error) {
	var found bool
	for {
		var block *pem.Block
		block, pemBytes = pem.Decode(pemBytes)
		if block == nil {
			break
		}
		found = true

		switch block.Type {
		case "PUBLIC KEY":
			pub, err := x509.ParsePKIXPublicKey(block.Bytes)
			if err != nil {
				return nil, fmt.Errorf("parse PKIX public key: %w", err)
			}
			switch pub.(type) {
			case *rsa.PublicKey, *ecdsa.PublicKey, ed25519.PublicKey:
				return pub, nil
			default:
				return nil, ErrUnsupportedKey
			}

		case "RSA PUBLIC KEY":
			pub, err := x509.ParsePKCS1PublicKey(block.Bytes)
			if err != nil {
				return nil, fmt.Errorf("parse PKCS1 public key: %w", err)
			}
			return pub, nil

		default:
			continue
		}
	}
	if !found {
		return nil, ErrNoPEMBlocks
	}
	return nil, ErrUnsupportedPEM
}

// LoadPublicKey read a public key from PEM-file.
func LoadPublicKey(path string) (crypto.PublicKey, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read public key: %w", err)
	}
	return ParsePublicKey(b)
}

// KeyFileExposed reports whether the file at path is readable by group or others.
func KeyFileExposed(path string) (bool, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return false, fmt.Errorf("stat key file: %w", err)
	}
	return fi.Mode().Perm()&0o077 != 0, nil
}

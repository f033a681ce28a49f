package crypto

import (
	"bytes"
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/and161185/metricspush/internal/errs"
)

// --- helpers ---

func genRSA(t *testing.T) *rsa.PrivateKey {
	t.Helper()
	priv, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("gen key: %v", err)
	}
	return priv
}

func pemPrivPKCS1(t *testing.T, priv *rsa.PrivateKey) []byte {
	t.Helper()
	return pem.EncodeToMemory(&pem.Block{
		Type:  "RSA PRIVATE KEY",
		Bytes: x509.MarshalPKCS1PrivateKey(priv),
	})
}

func pemPrivPKCS8(t *testing.T, priv any) []byte {
	t.Helper()
	b, err := x509.MarshalPKCS8PrivateKey(priv)
	if err != nil {
		t.Fatalf("marshal pkcs8: %v", err)
	}
	return pem.EncodeToMemory(&pem.Block{
		Type:  "PRIVATE KEY",
		Bytes: b,
	})
}

func pemPrivEC(t *testing.T, priv *ecdsa.PrivateKey) []byte {
	t.Helper()
	b, err := x509.MarshalECPrivateKey(priv)
	if err != nil {
		t.Fatalf("marshal ec: %v", err)
	}
	return pem.EncodeToMemory(&pem.Block{
		Type:  "EC PRIVATE KEY",
		Bytes: b,
	})
}

func pemPubPKIX(t *testing.T, pub any) []byte {
	t.Helper()
	b, err := x509.MarshalPKIXPublicKey(pub)
	if err != nil {
		t.Fatalf("marshal pub pkix: %v", err)
	}
	return pem.EncodeToMemory(&pem.Block{
		Type:  "PUBLIC KEY",
		Bytes: b,
	})
}

func pemPubPKCS1(t *testing.T, pub *rsa.PublicKey) []byte {
	t.Helper()
	return pem.EncodeToMemory(&pem.Block{
		Type:  "RSA PUBLIC KEY",
		Bytes: x509.MarshalPKCS1PublicKey(pub),
	})
}

func pemCertificateDummy() []byte {
	return pem.EncodeToMemory(&pem.Block{
		Type:  "CERTIFICATE",
		Bytes: []byte{0x01, 0x02, 0x03},
	})
}

// --- keys ---

func TestParsePrivateKey_Formats(t *testing.T) {
	rsaKey := genRSA(t)
	ecKey, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		t.Fatalf("gen ec: %v", err)
	}
	_, edKey, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("gen ed25519: %v", err)
	}

	cases := map[string][]byte{
		"rsa pkcs1":     pemPrivPKCS1(t, rsaKey),
		"rsa pkcs8":     pemPrivPKCS8(t, rsaKey),
		"ec sec1":       pemPrivEC(t, ecKey),
		"ec pkcs8":      pemPrivPKCS8(t, ecKey),
		"ed25519 pkcs8": pemPrivPKCS8(t, edKey),
	}
	for name, p := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := ParsePrivateKey(p); err != nil {
				t.Fatalf("err: %v", err)
			}
		})
	}
}

func TestParsePrivateKey_Errors(t *testing.T) {
	rsaKey := genRSA(t)

	if _, err := ParsePrivateKey([]byte{}); err != ErrNoPEMBlocks {
		t.Fatalf("want ErrNoPEMBlocks, got %v", err)
	}
	if _, err := ParsePrivateKey(pemCertificateDummy()); err != ErrUnsupportedPEM {
		t.Fatalf("want ErrUnsupportedPEM, got %v", err)
	}
	if _, err := ParsePrivateKey(pemPubPKIX(t, &rsaKey.PublicKey)); err != ErrUnsupportedPEM {
		t.Fatalf("want ErrUnsupportedPEM for public key, got %v", err)
	}
	encrypted := pem.EncodeToMemory(&pem.Block{Type: "ENCRYPTED PRIVATE KEY", Bytes: []byte{0x01, 0x02}})
	if _, err := ParsePrivateKey(encrypted); err != ErrUnsupportedPEM {
		t.Fatalf("want ErrUnsupportedPEM, got %v", err)
	}
	bad := pem.EncodeToMemory(&pem.Block{Type: "RSA PRIVATE KEY", Bytes: []byte{0xca, 0xfe}})
	if _, err := ParsePrivateKey(bad); err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestParsePrivateKey_MultiPEM_IgnoresForeign_TakesValid(t *testing.T) {
	priv := genRSA(t)
	buf := bytes.Join([][]byte{pemCertificateDummy(), pemPrivPKCS1(t, priv)}, nil)
	got, err := ParsePrivateKey(buf)
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if got.(*rsa.PrivateKey).N.Cmp(priv.N) != 0 {
		t.Fatalf("mismatch multi-PEM")
	}
}

func TestParsePublicKey(t *testing.T) {
	priv := genRSA(t)

	for name, p := range map[string][]byte{
		"pkix":  pemPubPKIX(t, &priv.PublicKey),
		"pkcs1": pemPubPKCS1(t, &priv.PublicKey),
	} {
		got, err := ParsePublicKey(p)
		if err != nil {
			t.Fatalf("%s: %v", name, err)
		}
		if got.(*rsa.PublicKey).N.Cmp(priv.N) != 0 {
			t.Fatalf("%s: mismatch", name)
		}
	}

	if _, err := ParsePublicKey([]byte("   \n")); err != ErrNoPEMBlocks {
		t.Fatalf("want ErrNoPEMBlocks, got %v", err)
	}
	bad := pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: []byte{0xde, 0xad, 0xbe, 0xef}})
	if _, err := ParsePublicKey(bad); err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestLoadPublicKey_File(t *testing.T) {
	priv := genRSA(t)
	path := filepath.Join(t.TempDir(), "pub.pem")
	if err := os.WriteFile(path, pemPubPKIX(t, &priv.PublicKey), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := LoadPublicKey(path); err != nil {
		t.Fatalf("err: %v", err)
	}
	if _, err := LoadPublicKey(filepath.Join(t.TempDir(), "nope.pem")); err == nil {
		t.Fatalf("expected read error")
	}
}

func TestKeyFileExposed(t *testing.T) {
	dir := t.TempDir()
	private := filepath.Join(dir, "private.pem")
	shared := filepath.Join(dir, "shared.pem")
	if err := os.WriteFile(private, []byte("x"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := os.WriteFile(shared, []byte("x"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := os.Chmod(shared, 0o644); err != nil {
		t.Fatalf("chmod: %v", err)
	}

	if exposed, err := KeyFileExposed(private); err != nil || exposed {
		t.Fatalf("private: exposed=%v err=%v", exposed, err)
	}
	if exposed, err := KeyFileExposed(shared); err != nil || !exposed {
		t.Fatalf("shared: exposed=%v err=%v", exposed, err)
	}
}

// --- signer ---

func TestSigner_SignVerify(t *testing.T) {
	rsaKey := genRSA(t)
	ecKey, _ := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	_, edKey, _ := ed25519.GenerateKey(rand.Reader)

	text := []byte("# TYPE a_b gauge\na_b 5\n")
	for name, p := range map[string][]byte{
		"RSA":     pemPrivPKCS1(t, rsaKey),
		"ECDSA":   pemPrivEC(t, ecKey),
		"Ed25519": pemPrivPKCS8(t, edKey),
	} {
		t.Run(name, func(t *testing.T) {
			s, err := NewSigner(p)
			if err != nil {
				t.Fatalf("new signer: %v", err)
			}
			defer s.Close()

			if s.Algorithm() != name {
				t.Fatalf("algorithm = %s", s.Algorithm())
			}
			sig, err := s.Sign(text)
			if err != nil {
				t.Fatalf("sign: %v", err)
			}
			if err := Verify(s.Public(), text, sig); err != nil {
				t.Fatalf("verify: %v", err)
			}
			if err := Verify(s.Public(), []byte("tampered"), sig); !errors.Is(err, ErrBadSignature) {
				t.Fatalf("want ErrBadSignature, got %v", err)
			}
		})
	}
}

func TestSigner_RSADeterministic(t *testing.T) {
	key := genRSA(t)
	s1, err := NewSigner(pemPrivPKCS1(t, key))
	if err != nil {
		t.Fatalf("new signer: %v", err)
	}
	defer s1.Close()
	s2, err := NewSigner(pemPrivPKCS8(t, key))
	if err != nil {
		t.Fatalf("new signer: %v", err)
	}
	defer s2.Close()

	a, _ := s1.Sign([]byte("x 1\n"))
	b, _ := s2.Sign([]byte("x 1\n"))
	if a != b {
		t.Fatalf("PKCS#1 v1.5 signatures differ")
	}
}

func TestNewSigner_InvalidKey(t *testing.T) {
	for name, p := range map[string][]byte{
		"empty":   nil,
		"garbage": []byte("not a key"),
		"cert":    pemCertificateDummy(),
	} {
		if _, err := NewSigner(p); !errors.Is(err, errs.ErrInvalidKey) {
			t.Fatalf("%s: want ErrInvalidKey, got %v", name, err)
		}
	}
}

func TestNewSigner_WipesInput(t *testing.T) {
	p := pemPrivPKCS1(t, genRSA(t))
	s, err := NewSigner(p)
	if err != nil {
		t.Fatalf("new signer: %v", err)
	}
	defer s.Close()
	if !bytes.Equal(p, make([]byte, len(p))) {
		t.Fatalf("input PEM was not wiped")
	}
}

func TestSigner_Close(t *testing.T) {
	key := genRSA(t)
	s, err := NewSigner(pemPrivPKCS1(t, key))
	if err != nil {
		t.Fatalf("new signer: %v", err)
	}
	parsed := s.key.(*rsa.PrivateKey)

	if err := s.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("second close: %v", err)
	}
	if parsed.D.Sign() != 0 {
		t.Fatalf("private exponent not zeroed")
	}
	if _, err := s.Sign([]byte("x")); err != ErrSignerClosed {
		t.Fatalf("want ErrSignerClosed, got %v", err)
	}
}

func TestOpenSigner(t *testing.T) {
	path := filepath.Join(t.TempDir(), "key.pem")
	if err := os.WriteFile(path, pemPrivPKCS1(t, genRSA(t)), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	s, err := OpenSigner(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	if _, err := OpenSigner(filepath.Join(t.TempDir(), "nope.pem")); err == nil {
		t.Fatalf("expected open error")
	}
}

func TestVerify_BadBase64(t *testing.T) {
	if err := Verify(&genRSA(t).PublicKey, []byte("x"), "%%%"); err == nil {
		t.Fatalf("expected decode error")
	}
}

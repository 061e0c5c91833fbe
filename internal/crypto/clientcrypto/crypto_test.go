package clientcrypto

import (
	"bytes"
	"crypto/subtle"
	"errors"
	"testing"
)

func TestRand_LengthUniq(t *testing.T) {
	t.Parallel()
	const n = 48
	a, err := Rand(n)
	if err != nil {
		t.Fatalf("Rand: %v", err)
	}
	if len(a) != n {
		t.Fatalf("len=%d, want=%d", len(a), n)
	}
	b, _ := Rand(n)
	if bytes.Equal(a, b) {
		t.Fatalf("Rand produced equal slices")
	}
}

func TestDeriveKey_DeterministicAndSaltDependent(t *testing.T) {
	t.Parallel()
	pw := []byte("secret-pass")
	s1 := []byte("salt-1")
	s2 := []byte("salt-2")
	k1 := DeriveKey(pw, s1)
	k2 := DeriveKey(pw, s1)
	if len(k1) != KeyLen {
		t.Fatalf("key len=%d, want=%d", len(k1), KeyLen)
	}
	if subtle.ConstantTimeCompare(k1, k2) != 1 {
		t.Fatalf("DeriveKey not deterministic")
	}
	if subtle.ConstantTimeCompare(k1, DeriveKey(pw, s2)) != 0 {
		t.Fatalf("DeriveKey must change with salt")
	}
	if subtle.ConstantTimeCompare(k1, DeriveKey([]byte("other"), s1)) != 0 {
		t.Fatalf("DeriveKey must change with passphrase")
	}
}

func TestSealOpen_Roundtrip(t *testing.T) {
	t.Parallel()
	key := DeriveKey([]byte("pw"), []byte("salt"))
	aad := []byte("homeservices.session.v1")
	pt := []byte(`{"access_token":"a","user":{"id":1}}`)

	blob, err := Seal(key, aad, pt)
	if err != nil {
		t.Fatalf("Seal: %v", err)
	}
	if bytes.Contains(blob, []byte("access_token")) {
		t.Fatalf("ciphertext leaks plaintext")
	}

	got, err := Open(key, aad, blob)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if !bytes.Equal(got, pt) {
		t.Fatalf("roundtrip mismatch")
	}

	again, _ := Seal(key, aad, pt)
	if bytes.Equal(again, blob) {
		t.Fatalf("nonce must be random per Seal")
	}
}

func TestOpen_Rejects(t *testing.T) {
	t.Parallel()
	key := DeriveKey([]byte("pw"), []byte("salt"))
	blob, _ := Seal(key, []byte("aad"), []byte("payload"))

	if _, err := Open(key, []byte("other"), blob); !errors.Is(err, ErrSealed) {
		t.Fatalf("want ErrSealed on AAD mismatch, got %v", err)
	}
	wrong := DeriveKey([]byte("pw2"), []byte("salt"))
	if _, err := Open(wrong, []byte("aad"), blob); !errors.Is(err, ErrSealed) {
		t.Fatalf("want ErrSealed on wrong key, got %v", err)
	}
	if _, err := Open(key, []byte("aad"), []byte("short")); err == nil {
		t.Fatalf("want error on short blob")
	}
	if _, err := Seal([]byte("short-key"), nil, []byte("x")); err == nil {
		t.Fatalf("want error on bad key size")
	}
}

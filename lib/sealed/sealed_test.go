// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package sealed

import (
	"bytes"
	"strings"
	"testing"
)

func newKeypair(t *testing.T) *Keypair {
	t.Helper()
	keypair, err := GenerateKeypair()
	if err != nil {
		t.Fatalf("GenerateKeypair: %v", err)
	}
	t.Cleanup(func() { keypair.Close() })
	return keypair
}

func TestGenerateKeypair(t *testing.T) {
	keypair := newKeypair(t)
	if !strings.HasPrefix(keypair.PublicKey, "age1") {
		t.Errorf("PublicKey = %q, want age1 prefix", keypair.PublicKey)
	}
	if !strings.HasPrefix(keypair.PrivateKey.String(), "AGE-SECRET-KEY-1") {
		t.Error("PrivateKey does not look like an age identity")
	}
}

func TestEncryptDecrypt(t *testing.T) {
	keypair := newKeypair(t)
	plaintext := []byte(`[{"name":"refreshToken","value":"opaque"}]`)

	ciphertext, err := Encrypt(plaintext, keypair.PublicKey)
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}
	if bytes.Contains(ciphertext, []byte("opaque")) {
		t.Fatal("ciphertext contains the plaintext")
	}

	decrypted, err := Decrypt(ciphertext, keypair.PrivateKey)
	if err != nil {
		t.Fatalf("Decrypt: %v", err)
	}
	defer decrypted.Close()
	if !decrypted.Equal(plaintext) {
		t.Errorf("Decrypt = %q, want %q", decrypted.String(), plaintext)
	}
}

func TestDecryptWrongIdentity(t *testing.T) {
	sender := newKeypair(t)
	other := newKeypair(t)

	ciphertext, err := Encrypt([]byte("cookie"), sender.PublicKey)
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}
	if _, err := Decrypt(ciphertext, other.PrivateKey); err == nil {
		t.Fatal("Decrypt with the wrong identity should fail")
	}
}

func TestParseKeypair(t *testing.T) {
	original := newKeypair(t)
	parsed, err := ParseKeypair(original.PrivateKey)
	if err != nil {
		t.Fatalf("ParseKeypair: %v", err)
	}
	defer parsed.Close()

	if parsed.PublicKey != original.PublicKey {
		t.Errorf("PublicKey = %q, want %q", parsed.PublicKey, original.PublicKey)
	}

	// The parsed keypair owns its own copy.
	original.Close()
	if parsed.PrivateKey.Len() == 0 {
		t.Error("parsed private key was released with the original")
	}
}

func TestEncryptInvalidRecipient(t *testing.T) {
	if _, err := Encrypt([]byte("x"), "not-a-key"); err == nil {
		t.Fatal("expected error for an invalid recipient")
	}
}

// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package sealed encrypts small secrets at rest with age x25519.
//
// The local store uses it for entries that must not sit in plaintext
// on disk, such as the persisted refresh cookie. Identities are held
// in secret.Buffer memory; decrypted plaintext is returned the same
// way and must be closed by the caller.
package sealed

import (
	"bytes"
	"fmt"
	"io"

	"filippo.io/age"

	"github.com/nagarniti/nagarniti/lib/secret"
)

// Keypair is an age x25519 identity and its recipient string.
type Keypair struct {
	// PrivateKey is the AGE-SECRET-KEY-1... encoding. Never logged.
	PrivateKey *secret.Buffer

	// PublicKey is the age1... recipient.
	PublicKey string
}

// Close releases the private key. Idempotent.
func (k *Keypair) Close() error {
	if k.PrivateKey != nil {
		return k.PrivateKey.Close()
	}
	return nil
}

// GenerateKeypair creates a new x25519 identity.
func GenerateKeypair() (*Keypair, error) {
	identity, err := age.GenerateX25519Identity()
	if err != nil {
		return nil, fmt.Errorf("sealed: generating age identity: %w", err)
	}
	privateKey, err := secret.NewFromString(identity.String())
	if err != nil {
		return nil, fmt.Errorf("sealed: protecting private key: %w", err)
	}
	return &Keypair{
		PrivateKey: privateKey,
		PublicKey:  identity.Recipient().String(),
	}, nil
}

// ParseKeypair rebuilds a Keypair from a stored private key. The
// buffer is borrowed; the returned Keypair owns a fresh copy.
func ParseKeypair(privateKey *secret.Buffer) (*Keypair, error) {
	identity, err := age.ParseX25519Identity(privateKey.String())
	if err != nil {
		return nil, fmt.Errorf("sealed: invalid age private key: %w", err)
	}
	owned, err := secret.NewFromBytes(append([]byte(nil), privateKey.Bytes()...))
	if err != nil {
		return nil, fmt.Errorf("sealed: protecting private key: %w", err)
	}
	return &Keypair{
		PrivateKey: owned,
		PublicKey:  identity.Recipient().String(),
	}, nil
}

// Encrypt seals plaintext to one recipient and returns the binary age
// ciphertext.
func Encrypt(plaintext []byte, recipientKey string) ([]byte, error) {
	recipient, err := age.ParseX25519Recipient(recipientKey)
	if err != nil {
		return nil, fmt.Errorf("sealed: parsing recipient %q: %w", recipientKey, err)
	}

	var ciphertext bytes.Buffer
	writer, err := age.Encrypt(&ciphertext, recipient)
	if err != nil {
		return nil, fmt.Errorf("sealed: creating encryptor: %w", err)
	}
	if _, err := writer.Write(plaintext); err != nil {
		return nil, fmt.Errorf("sealed: writing plaintext: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("sealed: finalizing ciphertext: %w", err)
	}
	return ciphertext.Bytes(), nil
}

// Decrypt opens ciphertext with privateKey (borrowed, not closed).
// Empty plaintext is rejected: nothing the store seals is empty.
func Decrypt(ciphertext []byte, privateKey *secret.Buffer) (*secret.Buffer, error) {
	identity, err := age.ParseX25519Identity(privateKey.String())
	if err != nil {
		return nil, fmt.Errorf("sealed: invalid age private key: %w", err)
	}

	reader, err := age.Decrypt(bytes.NewReader(ciphertext), identity)
	if err != nil {
		return nil, fmt.Errorf("sealed: decrypting: %w", err)
	}
	plaintext, err := io.ReadAll(reader)
	if err != nil {
		secret.Zero(plaintext)
		return nil, fmt.Errorf("sealed: reading plaintext: %w", err)
	}
	if len(plaintext) == 0 {
		return nil, fmt.Errorf("sealed: decrypted plaintext is empty")
	}

	buffer, err := secret.NewFromBytes(plaintext)
	if err != nil {
		secret.Zero(plaintext)
		return nil, fmt.Errorf("sealed: protecting plaintext: %w", err)
	}
	return buffer, nil
}

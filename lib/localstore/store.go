// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package localstore

import (
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/zeebo/blake3"

	"github.com/nagarniti/nagarniti/lib/codec"
	"github.com/nagarniti/nagarniti/lib/sealed"
	"github.com/nagarniti/nagarniti/lib/secret"
)

// fileVersion is written into every store file. Files with a newer
// version are refused rather than partially understood.
const fileVersion = 1

// identityFileName holds the age identity that seals entries for every
// namespace in the directory.
const identityFileName = "identity"

// namespaceDomainKey separates store file names from any other BLAKE3
// use. Changing it orphans every existing store file.
var namespaceDomainKey = [32]byte{
	'n', 'a', 'g', 'a', 'r', 'n', 'i', 't', 'i', '.', 'l', 'o', 'c', 'a', 'l', 's',
	't', 'o', 'r', 'e', '.', 'n', 's', 0, 0, 0, 0, 0, 0, 0, 0, 0,
}

type storeFile struct {
	Version int                         `cbor:"version"`
	Entries map[string]codec.RawMessage `cbor:"entries,omitempty"`
	Sealed  map[string][]byte           `cbor:"sealed,omitempty"`
}

// Store is one namespace's entries, backed by a single file.
type Store struct {
	mu           sync.Mutex
	path         string
	identityPath string
	file         storeFile
	keypair      *sealed.Keypair
}

// FileName returns the store file name used for namespace.
func FileName(namespace string) string {
	hasher, err := blake3.NewKeyed(namespaceDomainKey[:])
	if err != nil {
		panic("localstore: BLAKE3 keyed hash initialization failed: " + err.Error())
	}
	hasher.Write([]byte(namespace))
	sum := hasher.Sum(nil)
	return hex.EncodeToString(sum[:16]) + ".cbor"
}

// Open loads (or starts) the store for namespace under directory. The
// directory is created with mode 0700 if missing.
func Open(directory, namespace string) (*Store, error) {
	if directory == "" {
		return nil, fmt.Errorf("localstore: directory is required")
	}
	if namespace == "" {
		return nil, fmt.Errorf("localstore: namespace is required")
	}
	if err := os.MkdirAll(directory, 0700); err != nil {
		return nil, fmt.Errorf("localstore: creating %s: %w", directory, err)
	}

	store := &Store{
		path:         filepath.Join(directory, FileName(namespace)),
		identityPath: filepath.Join(directory, identityFileName),
		file:         storeFile{Version: fileVersion},
	}

	data, err := os.ReadFile(store.path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		return store, nil
	case err != nil:
		return nil, fmt.Errorf("localstore: reading %s: %w", store.path, err)
	}

	var file storeFile
	if err := codec.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("localstore: parsing %s: %w", store.path, err)
	}
	if file.Version > fileVersion {
		return nil, fmt.Errorf("localstore: %s has version %d, this build understands %d",
			store.path, file.Version, fileVersion)
	}
	file.Version = fileVersion
	store.file = file
	return store, nil
}

// Path returns the backing file path.
func (s *Store) Path() string { return s.path }

// Get decodes the entry for key into v. Returns false when the key is
// absent.
func (s *Store) Get(key string, v any) (bool, error) {
	s.mu.Lock()
	raw, ok := s.file.Entries[key]
	s.mu.Unlock()

	if !ok {
		return false, nil
	}
	if err := codec.Unmarshal(raw, v); err != nil {
		return true, fmt.Errorf("localstore: decoding %q: %w", key, err)
	}
	return true, nil
}

// Set encodes v under key and writes the file.
func (s *Store) Set(key string, v any) error {
	raw, err := codec.Marshal(v)
	if err != nil {
		return fmt.Errorf("localstore: encoding %q: %w", key, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.file.Entries == nil {
		s.file.Entries = make(map[string]codec.RawMessage)
	}
	s.file.Entries[key] = raw
	return s.writeLocked()
}

// Delete removes key (plain or sealed). Deleting an absent key does
// not touch the file.
func (s *Store) Delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, plain := s.file.Entries[key]
	_, sealedEntry := s.file.Sealed[key]
	if !plain && !sealedEntry {
		return nil
	}
	delete(s.file.Entries, key)
	delete(s.file.Sealed, key)
	return s.writeLocked()
}

// SetSealed encrypts plaintext to the directory identity and stores it
// under key. plaintext is not modified.
func (s *Store) SetSealed(key string, plaintext []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	keypair, err := s.keypairLocked()
	if err != nil {
		return err
	}
	ciphertext, err := sealed.Encrypt(plaintext, keypair.PublicKey)
	if err != nil {
		return fmt.Errorf("localstore: sealing %q: %w", key, err)
	}

	if s.file.Sealed == nil {
		s.file.Sealed = make(map[string][]byte)
	}
	s.file.Sealed[key] = ciphertext
	return s.writeLocked()
}

// GetSealed decrypts the sealed entry for key. The caller must close
// the returned buffer.
func (s *Store) GetSealed(key string) (*secret.Buffer, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ciphertext, ok := s.file.Sealed[key]
	if !ok {
		return nil, false, nil
	}
	keypair, err := s.keypairLocked()
	if err != nil {
		return nil, true, err
	}
	plaintext, err := sealed.Decrypt(ciphertext, keypair.PrivateKey)
	if err != nil {
		return nil, true, fmt.Errorf("localstore: opening %q: %w", key, err)
	}
	return plaintext, true, nil
}

// Close releases the cached identity. The store must not be used for
// sealed entries afterwards; plain entries keep working.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.keypair == nil {
		return nil
	}
	err := s.keypair.Close()
	s.keypair = nil
	return err
}

// keypairLocked loads the directory identity, generating it on first
// use. Must be called with s.mu held.
func (s *Store) keypairLocked() (*sealed.Keypair, error) {
	if s.keypair != nil {
		return s.keypair, nil
	}

	stored, err := secret.ReadFile(s.identityPath)
	if err == nil {
		defer stored.Close()
		keypair, err := sealed.ParseKeypair(stored)
		if err != nil {
			return nil, fmt.Errorf("localstore: identity %s: %w", s.identityPath, err)
		}
		s.keypair = keypair
		return keypair, nil
	}
	if _, statErr := os.Stat(s.identityPath); !errors.Is(statErr, os.ErrNotExist) {
		return nil, fmt.Errorf("localstore: loading identity: %w", err)
	}

	keypair, err := sealed.GenerateKeypair()
	if err != nil {
		return nil, fmt.Errorf("localstore: %w", err)
	}
	contents := append([]byte(nil), keypair.PrivateKey.Bytes()...)
	contents = append(contents, '\n')
	writeErr := writeFileAtomic(s.identityPath, contents)
	secret.Zero(contents)
	if writeErr != nil {
		keypair.Close()
		return nil, fmt.Errorf("localstore: writing identity: %w", writeErr)
	}
	s.keypair = keypair
	return keypair, nil
}

// writeLocked persists s.file. Must be called with s.mu held.
func (s *Store) writeLocked() error {
	data, err := codec.Marshal(s.file)
	if err != nil {
		return fmt.Errorf("localstore: encoding store: %w", err)
	}
	if err := writeFileAtomic(s.path, data); err != nil {
		return fmt.Errorf("localstore: writing %s: %w", s.path, err)
	}
	return nil
}

// writeFileAtomic writes data to a temp file in the target directory
// and renames it over path, so readers see either the old or the new
// contents. The file mode is 0600.
func writeFileAtomic(path string, data []byte) error {
	temp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	tempPath := temp.Name()

	if _, err := temp.Write(data); err != nil {
		temp.Close()
		os.Remove(tempPath)
		return err
	}
	if err := temp.Sync(); err != nil {
		temp.Close()
		os.Remove(tempPath)
		return err
	}
	if err := temp.Close(); err != nil {
		os.Remove(tempPath)
		return err
	}
	if err := os.Chmod(tempPath, 0600); err != nil {
		os.Remove(tempPath)
		return err
	}
	return os.Rename(tempPath, path)
}

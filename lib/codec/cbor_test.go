// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package codec

import (
	"bytes"
	"testing"
	"time"
)

// storedEntry uses cbor tags, the convention for storage-only types.
type storedEntry struct {
	Key     string `cbor:"key"`
	Version int    `cbor:"version,omitempty"`
}

// sharedProfile uses json tags, the convention for types that travel
// over the API and are also persisted.
type sharedProfile struct {
	Email      string `json:"email"`
	WardID     string `json:"wardId,omitempty"`
	IsVerified bool   `json:"isVerified"`
}

func TestRoundtrip(t *testing.T) {
	original := storedEntry{Key: "auth-storage", Version: 2}
	data, err := Marshal(original)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	var decoded storedEntry
	if err := Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if decoded != original {
		t.Errorf("roundtrip mismatch: got %+v, want %+v", decoded, original)
	}
}

func TestDeterministicMapOrder(t *testing.T) {
	first, err := Marshal(map[string]int{"b": 2, "a": 1, "c": 3})
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	second, err := Marshal(map[string]int{"c": 3, "a": 1, "b": 2})
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if !bytes.Equal(first, second) {
		t.Errorf("map encoding depends on insertion order: %x vs %x", first, second)
	}
}

func TestJSONTagFallback(t *testing.T) {
	data, err := Marshal(sharedProfile{Email: "voter@example.in", IsVerified: true})
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	var generic map[string]any
	if err := Unmarshal(data, &generic); err != nil {
		t.Fatalf("Unmarshal into map: %v", err)
	}
	if generic["email"] != "voter@example.in" {
		t.Errorf("email key missing or wrong: %v", generic)
	}
	if _, present := generic["wardId"]; present {
		t.Errorf("omitempty json tag ignored: %v", generic)
	}
	if generic["isVerified"] != true {
		t.Errorf("isVerified = %v, want true", generic["isVerified"])
	}
}

func TestRawMessageDefersDecoding(t *testing.T) {
	inner, err := Marshal(sharedProfile{Email: "admin@nagarniti.gov.in"})
	if err != nil {
		t.Fatalf("Marshal inner: %v", err)
	}
	outer, err := Marshal(map[string]RawMessage{"profile": inner})
	if err != nil {
		t.Fatalf("Marshal outer: %v", err)
	}

	var entries map[string]RawMessage
	if err := Unmarshal(outer, &entries); err != nil {
		t.Fatalf("Unmarshal outer: %v", err)
	}
	var profile sharedProfile
	if err := Unmarshal(entries["profile"], &profile); err != nil {
		t.Fatalf("Unmarshal inner: %v", err)
	}
	if profile.Email != "admin@nagarniti.gov.in" {
		t.Errorf("Email = %q", profile.Email)
	}
}

func TestTimeRoundtrip(t *testing.T) {
	type stamped struct {
		SavedAt time.Time `cbor:"savedAt"`
	}
	original := stamped{SavedAt: time.Date(2026, 3, 1, 10, 30, 0, 500, time.UTC)}
	data, err := Marshal(original)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	var decoded stamped
	if err := Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if !decoded.SavedAt.Equal(original.SavedAt) {
		t.Errorf("SavedAt = %v, want %v", decoded.SavedAt, original.SavedAt)
	}
}

func TestUnmarshalInvalid(t *testing.T) {
	var decoded storedEntry
	if err := Unmarshal([]byte{0xff, 0xfe}, &decoded); err == nil {
		t.Fatal("expected error for invalid CBOR")
	}
}

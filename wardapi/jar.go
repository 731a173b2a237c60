// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package wardapi

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"sort"
	"sync"
	"time"

	"golang.org/x/net/publicsuffix"

	"github.com/nagarniti/nagarniti/lib/clock"
	"github.com/nagarniti/nagarniti/lib/localstore"
	"github.com/nagarniti/nagarniti/lib/secret"
)

// CookieRecord is one persisted cookie with the origin that set it.
type CookieRecord struct {
	Origin   string        `json:"origin"`
	Name     string        `json:"name"`
	Value    string        `json:"value"`
	Path     string        `json:"path,omitempty"`
	Domain   string        `json:"domain,omitempty"`
	Expires  time.Time     `json:"expires"`
	Secure   bool          `json:"secure,omitempty"`
	HttpOnly bool          `json:"httpOnly,omitempty"`
	SameSite http.SameSite `json:"sameSite,omitempty"`
}

func (r CookieRecord) key() string {
	return r.Origin + "|" + r.Domain + "|" + r.Path + "|" + r.Name
}

// cookie rebuilds the Set-Cookie form for replay. A persistent cookie
// is replayed with its remaining lifetime as MaxAge, since the inner
// jar measures expiry against the wall clock rather than the jar clock.
func (r CookieRecord) cookie(now time.Time) *http.Cookie {
	cookie := &http.Cookie{
		Name:     r.Name,
		Value:    r.Value,
		Path:     r.Path,
		Domain:   r.Domain,
		Secure:   r.Secure,
		HttpOnly: r.HttpOnly,
		SameSite: r.SameSite,
	}
	if !r.Expires.IsZero() {
		remaining := r.Expires.Sub(now)
		cookie.MaxAge = int((remaining + time.Second - 1) / time.Second)
	}
	return cookie
}

// CookieStore persists cookie records between processes.
type CookieStore interface {
	LoadCookies() ([]CookieRecord, error)
	SaveCookies([]CookieRecord) error
}

// JarConfig configures a PersistentJar.
type JarConfig struct {
	// Store receives every change. Required.
	Store CookieStore
	// Clock decides expiry. If nil, clock.Real() is used.
	Clock clock.Clock
	// Logger reports write-through failures. If nil, slog.Default() is used.
	Logger *slog.Logger
}

// PersistentJar is an http.CookieJar that writes every cookie change
// through to a CookieStore. Matching and scoping are delegated to
// net/http/cookiejar with the public suffix list.
type PersistentJar struct {
	store  CookieStore
	clock  clock.Clock
	logger *slog.Logger

	mu      sync.Mutex
	inner   *cookiejar.Jar
	records map[string]CookieRecord
}

// NewPersistentJar creates an empty jar. Call Load to replay saved
// cookies.
func NewPersistentJar(config JarConfig) (*PersistentJar, error) {
	if config.Store == nil {
		return nil, fmt.Errorf("wardapi: JarConfig.Store is required")
	}
	inner, err := newInnerJar()
	if err != nil {
		return nil, err
	}

	jarClock := config.Clock
	if jarClock == nil {
		jarClock = clock.Real()
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &PersistentJar{
		store:   config.Store,
		clock:   jarClock,
		logger:  logger,
		inner:   inner,
		records: make(map[string]CookieRecord),
	}, nil
}

func newInnerJar() (*cookiejar.Jar, error) {
	inner, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, fmt.Errorf("wardapi: creating cookie jar: %w", err)
	}
	return inner, nil
}

// Load replays stored, unexpired cookies. Expired records are dropped
// from the store.
func (j *PersistentJar) Load() error {
	records, err := j.store.LoadCookies()
	if err != nil {
		return fmt.Errorf("wardapi: loading cookies: %w", err)
	}

	j.mu.Lock()
	defer j.mu.Unlock()

	now := j.clock.Now()
	dropped := 0
	for _, record := range records {
		if !record.Expires.IsZero() && !record.Expires.After(now) {
			dropped++
			continue
		}
		origin, err := url.Parse(record.Origin)
		if err != nil || origin.Host == "" {
			dropped++
			continue
		}
		j.inner.SetCookies(origin, []*http.Cookie{record.cookie(now)})
		j.records[record.key()] = record
	}

	if dropped > 0 {
		return j.saveLocked()
	}
	return nil
}

// SetCookies implements http.CookieJar.
func (j *PersistentJar) SetCookies(u *url.URL, cookies []*http.Cookie) {
	j.mu.Lock()
	defer j.mu.Unlock()

	j.inner.SetCookies(u, cookies)

	origin := u.Scheme + "://" + u.Host
	now := j.clock.Now()
	changed := false
	for _, cookie := range cookies {
		record := CookieRecord{
			Origin:   origin,
			Name:     cookie.Name,
			Value:    cookie.Value,
			Path:     cookie.Path,
			Domain:   cookie.Domain,
			Expires:  cookie.Expires,
			Secure:   cookie.Secure,
			HttpOnly: cookie.HttpOnly,
			SameSite: cookie.SameSite,
		}
		switch {
		case cookie.MaxAge < 0:
			record.Expires = time.Time{}
			changed = j.forget(record) || changed
			continue
		case cookie.MaxAge > 0:
			record.Expires = now.Add(time.Duration(cookie.MaxAge) * time.Second)
		}
		if !record.Expires.IsZero() && !record.Expires.After(now) {
			changed = j.forget(record) || changed
			continue
		}
		j.records[record.key()] = record
		changed = true
	}

	if changed {
		if err := j.saveLocked(); err != nil {
			j.logger.Warn("persisting cookies failed", "origin", origin, "error", err)
		}
	}
}

func (j *PersistentJar) forget(record CookieRecord) bool {
	key := record.key()
	if _, ok := j.records[key]; !ok {
		return false
	}
	delete(j.records, key)
	return true
}

// Cookies implements http.CookieJar.
func (j *PersistentJar) Cookies(u *url.URL) []*http.Cookie {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.inner.Cookies(u)
}

// Clear forgets every cookie, in memory and in the store.
func (j *PersistentJar) Clear() error {
	inner, err := newInnerJar()
	if err != nil {
		return err
	}

	j.mu.Lock()
	defer j.mu.Unlock()
	j.inner = inner
	j.records = make(map[string]CookieRecord)
	return j.saveLocked()
}

// Len returns the number of recorded cookies.
func (j *PersistentJar) Len() int {
	j.mu.Lock()
	defer j.mu.Unlock()
	return len(j.records)
}

func (j *PersistentJar) saveLocked() error {
	records := make([]CookieRecord, 0, len(j.records))
	for _, record := range j.records {
		records = append(records, record)
	}
	sort.Slice(records, func(a, b int) bool { return records[a].key() < records[b].key() })
	return j.store.SaveCookies(records)
}

// LocalCookieStore keeps cookie records under one key of a
// localstore.Store. With Seal set the records are age-encrypted.
type LocalCookieStore struct {
	Store *localstore.Store
	Key   string
	Seal  bool
}

// LoadCookies implements CookieStore.
func (s *LocalCookieStore) LoadCookies() ([]CookieRecord, error) {
	var records []CookieRecord
	if !s.Seal {
		if _, err := s.Store.Get(s.Key, &records); err != nil {
			return nil, err
		}
		return records, nil
	}

	plaintext, found, err := s.Store.GetSealed(s.Key)
	if err != nil || !found {
		return nil, err
	}
	defer plaintext.Close()
	if err := json.Unmarshal(plaintext.Bytes(), &records); err != nil {
		return nil, fmt.Errorf("wardapi: decoding sealed cookies: %w", err)
	}
	return records, nil
}

// SaveCookies implements CookieStore. An empty set deletes the key.
func (s *LocalCookieStore) SaveCookies(records []CookieRecord) error {
	if len(records) == 0 {
		return s.Store.Delete(s.Key)
	}
	if !s.Seal {
		return s.Store.Set(s.Key, records)
	}

	encoded, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("wardapi: encoding cookies: %w", err)
	}
	defer secret.Zero(encoded)
	return s.Store.SetSealed(s.Key, encoded)
}

// MemoryCookieStore is a CookieStore for tests and short-lived
// processes.
type MemoryCookieStore struct {
	mu      sync.Mutex
	records []CookieRecord
	saves   int
}

// LoadCookies implements CookieStore.
func (s *MemoryCookieStore) LoadCookies() ([]CookieRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]CookieRecord(nil), s.records...), nil
}

// SaveCookies implements CookieStore.
func (s *MemoryCookieStore) SaveCookies(records []CookieRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append([]CookieRecord(nil), records...)
	s.saves++
	return nil
}

// Saves reports how many times SaveCookies was called.
func (s *MemoryCookieStore) Saves() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saves
}

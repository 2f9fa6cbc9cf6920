// Package memory is an in-process map tier. A single *Store may be shared by
// several caches; its lifetime is owned by whoever created it.
package memory

import (
	"bytes"
	"context"
	"sync"
	"time"

	pr "github.com/unkn0wn-root/tiercache/provider"
)

type entry struct {
	v   []byte
	exp time.Time // zero => no TTL
}

type Store struct {
	mu  sync.RWMutex
	m   map[string]entry
	now func() time.Time
}

var (
	_ pr.Provider = (*Store)(nil)
	_ pr.Clearer  = (*Store)(nil)
	_ pr.Kinder   = (*Store)(nil)
)

func New() *Store {
	return &Store{m: make(map[string]entry), now: time.Now}
}

func (s *Store) Kind() pr.Kind { return pr.KindMemory }

func (s *Store) Get(_ context.Context, key string) ([]byte, bool, error) {
	s.mu.RLock()
	e, ok := s.m[key]
	s.mu.RUnlock()
	if !ok {
		return nil, false, nil
	}
	if !e.exp.IsZero() && s.now().After(e.exp) {
		s.mu.Lock()
		// re-check: a concurrent Set may have replaced it
		if cur, ok := s.m[key]; ok && cur.exp.Equal(e.exp) {
			delete(s.m, key)
		}
		s.mu.Unlock()
		return nil, false, nil
	}
	return bytes.Clone(e.v), true, nil
}

// Set stores a copy of value. It ignores cost; ttl<=0 means no expiry.
func (s *Store) Set(_ context.Context, key string, value []byte, _ int64, ttl time.Duration) (bool, error) {
	var exp time.Time
	if ttl > 0 {
		exp = s.now().Add(ttl)
	}
	s.mu.Lock()
	s.m[key] = entry{v: bytes.Clone(value), exp: exp}
	s.mu.Unlock()
	return true, nil
}

func (s *Store) Del(_ context.Context, key string) error {
	s.mu.Lock()
	delete(s.m, key)
	s.mu.Unlock()
	return nil
}

func (s *Store) Clear(context.Context) error {
	s.mu.Lock()
	s.m = make(map[string]entry)
	s.mu.Unlock()
	return nil
}

// Len reports the number of stored entries, expired ones included.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.m)
}

func (s *Store) Close(context.Context) error { return nil }

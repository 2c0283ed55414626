// Package memory is an in-process draft store for tests and the CLI wizard.
package memory

import (
	"context"
	"encoding/json"
	"sync"
)

type Store struct {
	mu    sync.Mutex
	raw   []byte
	saves int
	err   error
}

func New() *Store { return &Store{} }

// FailWith makes every later call return err.
func (s *Store) FailWith(err error) {
	s.mu.Lock()
	s.err = err
	s.mu.Unlock()
}

// Saves counts successful Save calls.
func (s *Store) Saves() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saves
}

func (s *Store) Load(_ context.Context, v any) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return false, s.err
	}
	if s.raw == nil {
		return false, nil
	}
	if json.Unmarshal(s.raw, v) != nil {
		return false, nil
	}
	return true, nil
}

func (s *Store) Save(_ context.Context, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.raw = raw
	s.saves++
	return nil
}

func (s *Store) Delete(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.raw = nil
	return nil
}

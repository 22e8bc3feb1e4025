// Package docprompts holds the default prompt text configured per
// (EHR, document type) pair.
package docprompts

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
)

var ErrInvalidKey = errors.New("ehr and document type are required")

// Key identifies a prompt entry.
type Key struct {
	EHR          string `json:"ehr" yaml:"ehr"`
	DocumentType string `json:"documentType" yaml:"documentType"`
}

func (k Key) String() string {
	return k.EHR + "/" + k.DocumentType
}

func (k Key) valid() bool {
	return strings.TrimSpace(k.EHR) != "" && strings.TrimSpace(k.DocumentType) != ""
}

// Entry is a prompt together with its key.
type Entry struct {
	Key    `yaml:",inline"`
	Prompt string `json:"prompt" yaml:"prompt"`
}

// Store is a concurrency-safe prompt map. Readers never observe a partially
// applied Replace.
type Store struct {
	mu      sync.RWMutex
	prompts map[Key]string
}

func NewStore() *Store {
	return &Store{prompts: make(map[Key]string)}
}

// Get returns the prompt for key. Empty prompts are treated as missing.
func (s *Store) Get(key Key) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.prompts[key]
	return p, ok && p != ""
}

// Set stores prompt under key.
func (s *Store) Set(key Key, prompt string) error {
	if !key.valid() {
		return ErrInvalidKey
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prompts[key] = prompt
	return nil
}

// Delete removes key. Missing keys are ignored.
func (s *Store) Delete(key Key) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.prompts, key)
}

// Replace swaps the whole map for entries.
func (s *Store) Replace(entries []Entry) error {
	next := make(map[Key]string, len(entries))
	for _, e := range entries {
		if !e.Key.valid() {
			return fmt.Errorf("%w: %q", ErrInvalidKey, e.Key.String())
		}
		next[e.Key] = e.Prompt
	}
	s.mu.Lock()
	s.prompts = next
	s.mu.Unlock()
	return nil
}

// List returns all entries sorted by EHR then document type.
func (s *Store) List() []Entry {
	s.mu.RLock()
	out := make([]Entry, 0, len(s.prompts))
	for k, p := range s.prompts {
		out = append(out, Entry{Key: k, Prompt: p})
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].EHR != out[j].EHR {
			return out[i].EHR < out[j].EHR
		}
		return out[i].DocumentType < out[j].DocumentType
	})
	return out
}

// Len returns the number of entries.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.prompts)
}

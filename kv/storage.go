// Package kv provides the header storage of responses.
package kv

import (
	"iter"
	"maps"
	"slices"
	"strings"

	"github.com/indigo-web/utils/strcomp"
)

type pair struct {
	key, value string
}

// Storage keeps unique case-insensitive keys in the order they were first set. Keys are
// stored lower-cased. Lookups are linear, as a response rarely carries more than a dozen
// of headers.
type Storage struct {
	pairs []pair
}

func New() *Storage {
	return new(Storage)
}

// NewFromMap seeds the storage with the map entries, ordered by key.
func NewFromMap(m map[string]string) *Storage {
	s := &Storage{
		pairs: make([]pair, 0, len(m)),
	}

	for _, key := range slices.Sorted(maps.Keys(m)) {
		s.Set(key, m[key])
	}

	return s
}

// Set overrides the value in place, if the key is already present. Otherwise, the pair
// is appended.
func (s *Storage) Set(key, value string) *Storage {
	if i := s.index(key); i != -1 {
		s.pairs[i].value = value
		return s
	}

	s.pairs = append(s.pairs, pair{
		key:   strings.ToLower(key),
		value: value,
	})

	return s
}

func (s *Storage) Get(key string) (value string, found bool) {
	if i := s.index(key); i != -1 {
		return s.pairs[i].value, true
	}

	return "", false
}

func (s *Storage) Has(key string) bool {
	return s.index(key) != -1
}

// Pairs iterates over the entries in insertion order.
func (s *Storage) Pairs() iter.Seq2[string, string] {
	return func(yield func(string, string) bool) {
		for _, p := range s.pairs {
			if !yield(p.key, p.value) {
				return
			}
		}
	}
}

func (s *Storage) Len() int {
	return len(s.pairs)
}

func (s *Storage) index(key string) int {
	for i, p := range s.pairs {
		if strcomp.EqualFold(key, p.key) {
			return i
		}
	}

	return -1
}

package testutil

import (
	"fmt"
	"sync"
)

// IDSequence hands out artifact ids in lexical order: a001, a002, ...
//
// Lexical order matching creation order keeps expected pages easy to read
// in tests. Safe for concurrent use.
type IDSequence struct {
	mu     sync.Mutex
	prefix string
	seq    int
}

// NewIDSequence creates a sequence whose first id is prefix+"001".
// An empty prefix means "a".
func NewIDSequence(prefix string) *IDSequence {
	if prefix == "" {
		prefix = "a"
	}
	return &IDSequence{prefix: prefix}
}

// Next returns the next id.
func (s *IDSequence) Next() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	return fmt.Sprintf("%s%03d", s.prefix, s.seq)
}

// Reset restarts the sequence, so the next call to Next returns the first id
// again.
func (s *IDSequence) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq = 0
}

package core

import (
	"fmt"
	"sync"
)

// Filter returns the records whose Category equals category, in table order.
// The result is empty when nothing matches.
func Filter(table []CategoryRecord, category string) []CategoryRecord {
	out := make([]CategoryRecord, 0, 1)
	for _, r := range table {
		if r.Category == category {
			out = append(out, r)
		}
	}
	return out
}

// Selector holds the currently selected category. The selection is always a
// member of the known set and defaults to its first entry.
type Selector struct {
	mu       sync.RWMutex
	known    []string
	selected string
}

// NewSelector creates a selector over the given categories.
func NewSelector(categories []string) (*Selector, error) {
	if len(categories) == 0 {
		return nil, fmt.Errorf("selector: %w", ErrEmptyInput)
	}
	known := append([]string(nil), categories...)
	return &Selector{known: known, selected: known[0]}, nil
}

// Set changes the selection. Unknown categories are rejected and the prior
// selection is retained.
func (s *Selector) Set(category string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.known {
		if c == category {
			s.selected = category
			return nil
		}
	}
	return fmt.Errorf("%w: %q", ErrInvalidCategory, category)
}

// Selected returns the current selection.
func (s *Selector) Selected() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.selected
}

// Options returns the known categories in order.
func (s *Selector) Options() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string(nil), s.known...)
}

package page

import (
	"context"
	"fmt"
	"sync"

	"kpidash/internal/core"
)

// Session owns one display session's selection. Selection change and the
// render pass that follows it are serialised.
type Session struct {
	mu       sync.Mutex
	id       string
	composer *Composer
	selector *core.Selector
}

// NewSession creates a session whose selection defaults to the first category.
func NewSession(ctx context.Context, id string, composer *Composer) (*Session, error) {
	cats, err := composer.Categories(ctx)
	if err != nil {
		return nil, err
	}
	sel, err := core.NewSelector(cats)
	if err != nil {
		return nil, fmt.Errorf("new session: %w", err)
	}
	return &Session{id: id, composer: composer, selector: sel}, nil
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// Selection returns the current category.
func (s *Session) Selection() string { return s.selector.Selected() }

// Render runs one render pass with the current selection.
func (s *Session) Render(ctx context.Context) (Page, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.composer.Compose(ctx, s.selector.Selected())
}

// OnSelectionChanged applies a user choice and re-renders. An unknown
// category returns core.ErrInvalidCategory and leaves the selection as it was.
func (s *Session) OnSelectionChanged(ctx context.Context, category string) (Page, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.selector.Set(category); err != nil {
		return Page{}, err
	}
	return s.composer.Compose(ctx, s.selector.Selected())
}

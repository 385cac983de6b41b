package store

import (
	"time"

	"go.uber.org/zap"
)

// Highlight marks elementID as highlighted for d, or for HighlightTTL when d
// is not positive. Highlighting an element that is already highlighted
// restarts its timer with the new duration.
func (s *Store) Highlight(elementID string, d time.Duration) {
	if elementID == "" {
		return
	}
	if d <= 0 {
		d = s.opts.HighlightTTL
	}

	s.mutate(CollectionHighlights, func() bool {
		s.highlightGen++
		gen := s.highlightGen
		now := s.clock.Now()

		since := now
		if e, ok := s.highlights.get(elementID); ok {
			since = e.value.Since
		}

		timer := s.clock.AfterFunc(d, func() {
			if s.expireHighlight(elementID, gen) {
				s.logger.Debug("highlight expired", zap.String("element_id", elementID))
			}
		})
		s.highlights.put(elementID, highlightEntry{
			Highlight: Highlight{ElementID: elementID, Since: since, ExpiresAt: now.Add(d)},
			gen:       gen,
		}, timer)
		return true
	})
}

// expireHighlight removes elementID only if it still belongs to generation
// gen. A timer that lost a race with a re-highlight finds a newer generation
// and leaves the entry alone.
func (s *Store) expireHighlight(elementID string, gen uint64) bool {
	return s.mutate(CollectionHighlights, func() bool {
		e, ok := s.highlights.get(elementID)
		if !ok || e.value.gen != gen {
			return false
		}
		return s.highlights.remove(elementID)
	})
}

// Unhighlight clears a highlight before it expires.
func (s *Store) Unhighlight(elementID string) bool {
	return s.mutate(CollectionHighlights, func() bool {
		return s.highlights.remove(elementID)
	})
}

func (s *Store) ClearHighlights() {
	s.mutate(CollectionHighlights, func() bool {
		return s.highlights.clear() > 0
	})
}

// IsHighlighted reports whether elementID is currently highlighted.
func (s *Store) IsHighlighted(elementID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.highlights.get(elementID)
	return ok
}

// Highlighted returns the highlighted elements in first-highlight order.
func (s *Store) Highlighted() []Highlight {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.highlightsLocked()
}

func (s *Store) highlightsLocked() []Highlight {
	entries := s.highlights.values()
	out := make([]Highlight, len(entries))
	for i, e := range entries {
		out[i] = e.Highlight
	}
	return out
}

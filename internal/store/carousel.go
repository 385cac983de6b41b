package store

import (
	"github.com/GriffinCanCode/AgentOS/uistream/internal/protocol"
	"github.com/GriffinCanCode/AgentOS/uistream/internal/shared/id"
)

// Carousel transitions:
//
//	Hidden --show--> Expanded --minimize--> Minimized
//	Minimized --expand--> Expanded
//	Expanded|Minimized --hide/close--> Hidden
//
// Transitions not in this table are no-ops.

// AppendCompetitor adds a competitor to the competitors carousel. It does not
// change visibility.
func (s *Store) AppendCompetitor(c protocol.Competitor) id.ItemID {
	return s.appendItem(CarouselCompetitors, CarouselItem{Competitor: &c})
}

// AppendInsight adds an insight to the insights carousel. It does not change
// visibility.
func (s *Store) AppendInsight(in protocol.Insight) id.ItemID {
	return s.appendItem(CarouselInsights, CarouselItem{Insight: &in})
}

func (s *Store) appendItem(name CarouselName, item CarouselItem) id.ItemID {
	var iid id.ItemID
	s.mutate(CollectionCarousels, func() bool {
		c := s.carousels[name]
		iid = s.ids.NewItemID()
		item.ID = iid
		item.AddedAt = s.clock.Now()
		c.items.put(string(iid), item, nil)
		return true
	})
	return iid
}

// RemoveCarouselItem removes one item. Missing items are a no-op.
func (s *Store) RemoveCarouselItem(name CarouselName, iid id.ItemID) bool {
	return s.mutate(CollectionCarousels, func() bool {
		c, ok := s.carousels[name]
		if !ok {
			return false
		}
		return c.items.remove(string(iid))
	})
}

// ShowCarousel makes a hidden carousel visible and expanded. Showing a
// visible carousel leaves its minimized flag alone.
func (s *Store) ShowCarousel(name CarouselName) bool {
	return s.transition(name, func(c *carousel) bool {
		if c.visible {
			return false
		}
		c.visible, c.minimized = true, false
		return true
	})
}

// HideCarousel hides a carousel from either visible sub-state. Items are kept.
func (s *Store) HideCarousel(name CarouselName) bool {
	return s.transition(name, func(c *carousel) bool {
		if !c.visible {
			return false
		}
		c.visible, c.minimized = false, false
		return true
	})
}

// ExpandCarousel moves a minimized carousel back to expanded. Expanding a
// hidden carousel is a no-op.
func (s *Store) ExpandCarousel(name CarouselName) bool {
	return s.transition(name, func(c *carousel) bool {
		if !c.visible || !c.minimized {
			return false
		}
		c.minimized = false
		return true
	})
}

// MinimizeCarousel moves an expanded carousel into the toolbar.
func (s *Store) MinimizeCarousel(name CarouselName) bool {
	return s.transition(name, func(c *carousel) bool {
		if !c.visible || c.minimized {
			return false
		}
		c.minimized = true
		return true
	})
}

// CloseCarousel hides a carousel and drops its items.
func (s *Store) CloseCarousel(name CarouselName) bool {
	return s.transition(name, func(c *carousel) bool {
		changed := c.visible || c.items.len() > 0
		c.visible, c.minimized = false, false
		c.items.clear()
		return changed
	})
}

func (s *Store) transition(name CarouselName, fn func(*carousel) bool) bool {
	return s.mutate(CollectionCarousels, func() bool {
		c, ok := s.carousels[name]
		if !ok {
			return false
		}
		return fn(c)
	})
}

// Carousel returns one carousel's state. ok is false for unknown names.
func (s *Store) Carousel(name CarouselName) (CarouselState, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.carousels[name]
	if !ok {
		return CarouselState{}, false
	}
	return carouselState(name, c), true
}

// Carousels returns every carousel, competitors first.
func (s *Store) Carousels() []CarouselState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.carouselsLocked()
}

func (s *Store) carouselsLocked() []CarouselState {
	names := []CarouselName{CarouselCompetitors, CarouselInsights}
	out := make([]CarouselState, 0, len(names))
	for _, name := range names {
		out = append(out, carouselState(name, s.carousels[name]))
	}
	return out
}

func carouselState(name CarouselName, c *carousel) CarouselState {
	return CarouselState{
		Name:      name,
		Visible:   c.visible,
		Minimized: c.visible && c.minimized,
		Items:     c.items.values(),
	}
}

// ParseCarouselName validates a carousel name from an external caller.
func ParseCarouselName(s string) (CarouselName, bool) {
	switch CarouselName(s) {
	case CarouselCompetitors, CarouselInsights:
		return CarouselName(s), true
	}
	return "", false
}

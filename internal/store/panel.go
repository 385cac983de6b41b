package store

import "github.com/GriffinCanCode/AgentOS/uistream/internal/protocol"

// ReplaceCompetitorPanel swaps the panel contents wholesale.
func (s *Store) ReplaceCompetitorPanel(p protocol.CompetitorPanel) {
	competitors := make([]protocol.Competitor, len(p.Competitors))
	copy(competitors, p.Competitors)

	s.mutate(CollectionCompetitorPanel, func() bool {
		s.panel = CompetitorPanel{
			Competitors: competitors,
			Category:    p.Category,
			UpdatedAt:   s.clock.Now(),
		}
		return true
	})
}

// ClearCompetitorPanel empties the panel.
func (s *Store) ClearCompetitorPanel() {
	s.mutate(CollectionCompetitorPanel, func() bool {
		if len(s.panel.Competitors) == 0 && s.panel.Category == "" {
			return false
		}
		s.panel = CompetitorPanel{UpdatedAt: s.clock.Now()}
		return true
	})
}

// CompetitorPanel returns a copy of the panel.
func (s *Store) CompetitorPanel() CompetitorPanel {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.panelLocked()
}

func (s *Store) panelLocked() CompetitorPanel {
	p := s.panel
	p.Competitors = make([]protocol.Competitor, len(s.panel.Competitors))
	copy(p.Competitors, s.panel.Competitors)
	return p
}

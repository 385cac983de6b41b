package store

import (
	"go.uber.org/zap"

	"github.com/GriffinCanCode/AgentOS/uistream/internal/protocol"
	"github.com/GriffinCanCode/AgentOS/uistream/internal/shared/id"
)

// AddCard shows a competitor card and schedules its removal after CardTTL.
func (s *Store) AddCard(c protocol.Competitor) id.CardID {
	var cid id.CardID
	s.mutate(CollectionCards, func() bool {
		cid = s.ids.NewCardID()
		card := Card{
			ID:         cid,
			CreatedAt:  s.clock.Now(),
			TTL:        s.opts.CardTTL,
			Competitor: c,
		}
		timer := s.clock.AfterFunc(s.opts.CardTTL, func() {
			if s.RemoveCard(cid) {
				s.logger.Debug("card expired", zap.String("id", cid.String()))
			}
		})
		s.cards.put(string(cid), card, timer)
		return true
	})
	return cid
}

// RemoveCard removes a card and cancels its expiry. It reports whether the
// card was present.
func (s *Store) RemoveCard(cid id.CardID) bool {
	return s.mutate(CollectionCards, func() bool {
		return s.cards.remove(string(cid))
	})
}

// ClearCards removes every card.
func (s *Store) ClearCards() {
	s.mutate(CollectionCards, func() bool {
		return s.cards.clear() > 0
	})
}

// Cards returns the live cards in insertion order.
func (s *Store) Cards() []Card {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cards.values()
}

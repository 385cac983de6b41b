package store

import (
	"github.com/GriffinCanCode/AgentOS/uistream/internal/protocol"
	"github.com/GriffinCanCode/AgentOS/uistream/internal/shared/id"
)

// ShowProgress adds or replaces the progress indicator addressed by p.Key.
// A replaced indicator keeps its id and creation time. Progress items have
// no TTL; they stay until CloseProgress or ClearProgress.
func (s *Store) ShowProgress(p protocol.Progress) id.ProgressID {
	p = p.Clamped()

	var pid id.ProgressID
	s.mutate(CollectionProgress, func() bool {
		now := s.clock.Now()
		if existing, ok := s.progressKeys[p.Key]; ok {
			if e, ok := s.progress.get(string(existing)); ok {
				e.value.Message = p.Message
				e.value.Percentage = p.Percentage
				e.value.UpdatedAt = now
				pid = existing
				return true
			}
		}

		pid = s.ids.NewProgressID()
		s.progressKeys[p.Key] = pid
		s.progress.put(string(pid), ProgressItem{
			ID:         pid,
			Key:        p.Key,
			CreatedAt:  now,
			UpdatedAt:  now,
			Message:    p.Message,
			Percentage: p.Percentage,
		}, nil)
		return true
	})
	return pid
}

// CloseProgress removes a progress indicator. Closing twice is a no-op.
func (s *Store) CloseProgress(pid id.ProgressID) bool {
	return s.mutate(CollectionProgress, func() bool {
		e, ok := s.progress.get(string(pid))
		if !ok {
			return false
		}
		if s.progressKeys[e.value.Key] == pid {
			delete(s.progressKeys, e.value.Key)
		}
		return s.progress.remove(string(pid))
	})
}

func (s *Store) ClearProgress() {
	s.mutate(CollectionProgress, func() bool {
		s.progressKeys = make(map[string]id.ProgressID)
		return s.progress.clear() > 0
	})
}

func (s *Store) Progress() []ProgressItem {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.progress.values()
}

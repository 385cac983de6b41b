package store

import (
	"go.uber.org/zap"

	"github.com/GriffinCanCode/AgentOS/uistream/internal/protocol"
	"github.com/GriffinCanCode/AgentOS/uistream/internal/shared/id"
)

// AddNotification shows a toast and schedules its removal after
// NotificationTTL.
func (s *Store) AddNotification(n protocol.Notification) id.NotificationID {
	var nid id.NotificationID
	s.mutate(CollectionNotifications, func() bool {
		nid = s.ids.NewNotificationID()
		timer := s.clock.AfterFunc(s.opts.NotificationTTL, func() {
			if s.RemoveNotification(nid) {
				s.logger.Debug("notification expired", zap.String("id", nid.String()))
			}
		})
		s.notifications.put(string(nid), Notification{
			ID:        nid,
			CreatedAt: s.clock.Now(),
			TTL:       s.opts.NotificationTTL,
			Message:   n.Message,
			Type:      n.Type,
		}, timer)
		return true
	})
	return nid
}

// RemoveNotification dismisses a toast. Dismissing one that already expired
// is a no-op.
func (s *Store) RemoveNotification(nid id.NotificationID) bool {
	return s.mutate(CollectionNotifications, func() bool {
		return s.notifications.remove(string(nid))
	})
}

func (s *Store) ClearNotifications() {
	s.mutate(CollectionNotifications, func() bool {
		return s.notifications.clear() > 0
	})
}

func (s *Store) Notifications() []Notification {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.notifications.values()
}

/*
Package store holds the ephemeral UI state projected from agent events.

The store owns several independent collections: context cards,
notifications, progress indicators, highlighted elements, carousel groups
and the competitor panel. Each insertion into a TTL'd collection schedules
its own expiry on the injected clock.

# Guarantees

  - Every mutation runs under a single lock; readers never see a collection
    mid-update. Snapshots are deep enough copies that callers may keep them.
  - Removal is idempotent. A timer firing after an explicit dismissal, a
    double dismissal, or a dismissal of an unknown id are all no-ops.
  - Each entity's expiry timer is stopped exactly once, on whichever removal
    path reaches it first.
  - Re-highlighting an element restarts its timer with the new duration.
  - Change subscribers are notified after the lock is released, only when
    the mutation actually changed something.

# Carousels

Each carousel is a three-state machine:

	Hidden --show--> Expanded --minimize--> Minimized
	   ^                |  ^                    |
	   |                |  +------expand--------+
	   +------hide------+-----------hide--------+

Expand and minimize are only defined between the two visible states.
A carousel appears in the toolbar exactly when it is visible and minimized.

# Usage

	s := store.New(store.DefaultOptions())
	defer s.Close()

	cancel := s.Subscribe(func(c store.Change) { render(s.Snapshot()) })
	defer cancel()

	id := s.AddNotification(protocol.Notification{Message: "Saved", Type: "success"})
	s.RemoveNotification(id) // user dismissed; the pending expiry becomes a no-op
*/
package store

package store

import (
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/AgentOS/uistream/internal/shared/clock"
	"github.com/GriffinCanCode/AgentOS/uistream/internal/shared/id"
)

// Observer receives collection sizes after each committed mutation.
type Observer interface {
	CollectionSize(collection string, size int)
}

// Options configures a Store.
type Options struct {
	CardTTL         time.Duration
	NotificationTTL time.Duration
	HighlightTTL    time.Duration // used when a highlight carries no duration

	Clock    clock.Clock
	IDs      *id.Generator
	Logger   *zap.Logger
	Observer Observer
}

// DefaultOptions returns the standard TTLs: cards 30s, notifications 5s,
// highlights 2s.
func DefaultOptions() Options {
	return Options{
		CardTTL:         30 * time.Second,
		NotificationTTL: 5 * time.Second,
		HighlightTTL:    2 * time.Second,
	}
}

type highlightEntry struct {
	Highlight
	gen uint64
}

type carousel struct {
	visible   bool
	minimized bool
	items     *collection[CarouselItem]
}

// Store is the UI synchronization store. Construct it once at startup with
// New and tear it down with Close.
type Store struct {
	opts   Options
	clock  clock.Clock
	ids    *id.Generator
	logger *zap.Logger

	mu            sync.RWMutex
	closed        bool
	cards         *collection[Card]
	notifications *collection[Notification]
	progress      *collection[ProgressItem]
	progressKeys  map[string]id.ProgressID
	highlights    *collection[highlightEntry]
	highlightGen  uint64
	carousels     map[CarouselName]*carousel
	panel         CompetitorPanel

	subsMu  sync.RWMutex
	subs    map[uint64]func(Change)
	nextSub uint64
}

// New creates a Store. Zero TTLs fall back to DefaultOptions.
func New(opts Options) *Store {
	defaults := DefaultOptions()
	if opts.CardTTL <= 0 {
		opts.CardTTL = defaults.CardTTL
	}
	if opts.NotificationTTL <= 0 {
		opts.NotificationTTL = defaults.NotificationTTL
	}
	if opts.HighlightTTL <= 0 {
		opts.HighlightTTL = defaults.HighlightTTL
	}
	if opts.IDs == nil {
		opts.IDs = id.Default()
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}

	s := &Store{
		opts:          opts,
		clock:         clock.OrReal(opts.Clock),
		ids:           opts.IDs,
		logger:        opts.Logger,
		cards:         newCollection[Card](),
		notifications: newCollection[Notification](),
		progress:      newCollection[ProgressItem](),
		progressKeys:  make(map[string]id.ProgressID),
		highlights:    newCollection[highlightEntry](),
		carousels:     make(map[CarouselName]*carousel),
		subs:          make(map[uint64]func(Change)),
	}
	for _, name := range []CarouselName{CarouselCompetitors, CarouselInsights} {
		s.carousels[name] = &carousel{items: newCollection[CarouselItem]()}
	}
	return s
}

// Options returns the effective configuration.
func (s *Store) Options() Options {
	return s.opts
}

// Subscribe registers fn for change notifications. The returned function
// unsubscribes and is safe to call more than once.
func (s *Store) Subscribe(fn func(Change)) func() {
	s.subsMu.Lock()
	s.nextSub++
	key := s.nextSub
	s.subs[key] = fn
	s.subsMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.subsMu.Lock()
			delete(s.subs, key)
			s.subsMu.Unlock()
		})
	}
}

// mutate runs fn under the write lock and, if it reports a change, publishes
// the new size and notifies subscribers after the lock is released.
func (s *Store) mutate(c Collection, fn func() bool) bool {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return false
	}
	changed := fn()
	size := s.sizeLocked(c)
	s.mu.Unlock()

	if changed {
		s.publish(c, size)
	}
	return changed
}

func (s *Store) publish(c Collection, size int) {
	if s.opts.Observer != nil {
		s.opts.Observer.CollectionSize(string(c), size)
	}

	s.subsMu.RLock()
	keys := make([]uint64, 0, len(s.subs))
	for k := range s.subs {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	fns := make([]func(Change), 0, len(keys))
	for _, k := range keys {
		fns = append(fns, s.subs[k])
	}
	s.subsMu.RUnlock()

	change := Change{Collection: c, At: s.clock.Now()}
	for _, fn := range fns {
		fn(change)
	}
}

func (s *Store) sizeLocked(c Collection) int {
	switch c {
	case CollectionCards:
		return s.cards.len()
	case CollectionNotifications:
		return s.notifications.len()
	case CollectionProgress:
		return s.progress.len()
	case CollectionHighlights:
		return s.highlights.len()
	case CollectionCarousels:
		n := 0
		for _, c := range s.carousels {
			n += c.items.len()
		}
		return n
	case CollectionCompetitorPanel:
		return len(s.panel.Competitors)
	}
	return 0
}

// Counts returns the size of every collection.
func (s *Store) Counts() Counts {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return Counts{
		Cards:         s.cards.len(),
		Notifications: s.notifications.len(),
		Progress:      s.progress.len(),
		Highlights:    s.highlights.len(),
		CarouselItems: s.sizeLocked(CollectionCarousels),
		Competitors:   len(s.panel.Competitors),
	}
}

// Snapshot returns a consistent copy of every collection.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return Snapshot{
		TakenAt:       s.clock.Now(),
		Cards:         s.cards.values(),
		Notifications: s.notifications.values(),
		Progress:      s.progress.values(),
		Highlights:    s.highlightsLocked(),
		Carousels:     s.carouselsLocked(),
		Panel:         s.panelLocked(),
	}
}

// Reset empties every collection and hides every carousel. Used when the
// user starts a new session.
func (s *Store) Reset() {
	s.ClearCards()
	s.ClearNotifications()
	s.ClearProgress()
	s.ClearHighlights()
	s.mutate(CollectionCarousels, func() bool {
		changed := false
		for _, c := range s.carousels {
			if c.items.clear() > 0 || c.visible {
				changed = true
			}
			c.visible, c.minimized = false, false
		}
		return changed
	})
	s.ClearCompetitorPanel()
}

// Close stops every pending timer and drops subscribers. Mutations after
// Close are no-ops.
func (s *Store) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.cards.clear()
	s.notifications.clear()
	s.progress.clear()
	s.highlights.clear()
	s.progressKeys = make(map[string]id.ProgressID)
	s.panel = CompetitorPanel{UpdatedAt: s.clock.Now()}
	for _, c := range s.carousels {
		c.items.clear()
		c.visible, c.minimized = false, false
	}
	s.mu.Unlock()

	s.subsMu.Lock()
	s.subs = make(map[uint64]func(Change))
	s.subsMu.Unlock()

	s.logger.Debug("store closed")
}

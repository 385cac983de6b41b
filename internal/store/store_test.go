package store

import (
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/AgentOS/uistream/internal/protocol"
	"github.com/GriffinCanCode/AgentOS/uistream/internal/shared/clock"
	"github.com/GriffinCanCode/AgentOS/uistream/internal/shared/id"
)

var epoch = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func newTestStore(t *testing.T) (*Store, *clock.Fake) {
	t.Helper()
	clk := clock.NewFake(epoch)
	s := New(Options{Clock: clk})
	t.Cleanup(s.Close)
	return s, clk
}

type recordingObserver struct {
	mu    sync.Mutex
	sizes map[string]int
}

func (o *recordingObserver) CollectionSize(c string, n int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.sizes == nil {
		o.sizes = make(map[string]int)
	}
	o.sizes[c] = n
}

func TestDefaultOptions(t *testing.T) {
	s := New(Options{})
	defer s.Close()

	opts := s.Options()
	assert.Equal(t, 30*time.Second, opts.CardTTL)
	assert.Equal(t, 5*time.Second, opts.NotificationTTL)
	assert.Equal(t, 2*time.Second, opts.HighlightTTL)
}

func TestNotificationExpires(t *testing.T) {
	s, clk := newTestStore(t)

	nid := s.AddNotification(protocol.Notification{Message: "Saved", Type: protocol.NotificationSuccess})
	require.NotEmpty(t, nid)

	got := s.Notifications()
	require.Len(t, got, 1)
	assert.Equal(t, "Saved", got[0].Message)
	assert.Equal(t, protocol.NotificationSuccess, got[0].Type)
	assert.Equal(t, epoch, got[0].CreatedAt)

	clk.Advance(4999 * time.Millisecond)
	assert.Len(t, s.Notifications(), 1)

	clk.Advance(time.Millisecond)
	assert.Empty(t, s.Notifications())
	assert.Equal(t, 0, clk.Pending())
}

func TestCardExpires(t *testing.T) {
	s, clk := newTestStore(t)

	s.AddCard(protocol.Competitor{CompanyName: "Acme"})
	clk.Advance(29 * time.Second)
	assert.Len(t, s.Cards(), 1)

	clk.Advance(time.Second)
	assert.Empty(t, s.Cards())
}

func TestRemoveIsIdempotent(t *testing.T) {
	s, clk := newTestStore(t)

	cid := s.AddCard(protocol.Competitor{CompanyName: "Acme"})
	assert.True(t, s.RemoveCard(cid))
	assert.False(t, s.RemoveCard(cid))
	assert.Equal(t, 0, clk.Pending(), "explicit removal cancels the expiry timer")

	// Timer firing after explicit removal must not resurrect the entry.
	nid := s.AddNotification(protocol.Notification{Message: "x", Type: protocol.NotificationInfo})
	assert.True(t, s.RemoveNotification(nid))
	clk.Advance(10 * time.Second)
	assert.Empty(t, s.Notifications())

	assert.False(t, s.RemoveCard(id.CardID("card_missing")))
	assert.False(t, s.CloseProgress(id.ProgressID("prg_missing")))
	assert.False(t, s.Unhighlight("missing"))
}

func TestIDsAreNeverReused(t *testing.T) {
	s, _ := newTestStore(t)

	seen := make(map[id.CardID]bool)
	for i := 0; i < 100; i++ {
		cid := s.AddCard(protocol.Competitor{CompanyName: "Acme"})
		require.False(t, seen[cid], "duplicate id %s", cid)
		seen[cid] = true
		s.RemoveCard(cid)
	}
}

// Size after any add/remove/advance sequence equals the ids neither removed
// nor past TTL.
func TestAddRemoveSizeProperty(t *testing.T) {
	for seed := int64(1); seed <= 20; seed++ {
		s, clk := newTestStore(t)
		rng := rand.New(rand.NewSource(seed))

		type live struct {
			id      id.NotificationID
			expires time.Time
		}
		var added []live
		removed := make(map[id.NotificationID]bool)

		for step := 0; step < 200; step++ {
			switch rng.Intn(4) {
			case 0, 1:
				nid := s.AddNotification(protocol.Notification{Message: "m", Type: protocol.NotificationInfo})
				added = append(added, live{id: nid, expires: clk.Now().Add(5 * time.Second)})
			case 2:
				if len(added) > 0 {
					victim := added[rng.Intn(len(added))].id
					s.RemoveNotification(victim)
					s.RemoveNotification(victim)
					removed[victim] = true
				}
			case 3:
				clk.Advance(time.Duration(rng.Intn(1500)) * time.Millisecond)
			}

			want := 0
			for _, a := range added {
				if !removed[a.id] && clk.Now().Before(a.expires) {
					want++
				}
			}
			require.Equal(t, want, len(s.Notifications()), "seed %d step %d", seed, step)
		}
	}
}

func TestRehighlightRestartsTimer(t *testing.T) {
	s, clk := newTestStore(t)

	s.Highlight("X", 2*time.Second)
	clk.Advance(time.Second)
	s.Highlight("X", 2*time.Second)

	assert.Equal(t, 1, clk.Pending(), "re-highlight replaces the timer instead of stacking")

	clk.Advance(1500 * time.Millisecond) // t=2.5s, past the first deadline
	assert.True(t, s.IsHighlighted("X"))

	clk.Advance(499 * time.Millisecond)
	assert.True(t, s.IsHighlighted("X"))

	clk.Advance(time.Millisecond) // t=3s
	assert.False(t, s.IsHighlighted("X"))
}

func TestHighlightDefaultsAndSince(t *testing.T) {
	s, clk := newTestStore(t)

	s.Highlight("btn", 0)
	h := s.Highlighted()
	require.Len(t, h, 1)
	assert.Equal(t, epoch.Add(2*time.Second), h[0].ExpiresAt)

	clk.Advance(time.Second)
	s.Highlight("btn", 5*time.Second)
	h = s.Highlighted()
	require.Len(t, h, 1)
	assert.Equal(t, epoch, h[0].Since)
	assert.Equal(t, epoch.Add(6*time.Second), h[0].ExpiresAt)

	s.Highlight("", time.Second)
	assert.Len(t, s.Highlighted(), 1)
}

func TestStaleHighlightTimerIsIgnored(t *testing.T) {
	s, _ := newTestStore(t)

	s.Highlight("X", time.Second)
	s.mu.RLock()
	e, ok := s.highlights.get("X")
	s.mu.RUnlock()
	require.True(t, ok)
	stale := e.value.gen

	s.Highlight("X", time.Second)
	assert.False(t, s.expireHighlight("X", stale))
	assert.True(t, s.IsHighlighted("X"))
}

func TestProgressUpsertByKey(t *testing.T) {
	s, clk := newTestStore(t)

	pct := func(v int) *int { return &v }

	first := s.ShowProgress(protocol.Progress{Message: "Researching", Percentage: pct(10)})
	clk.Advance(time.Second)
	second := s.ShowProgress(protocol.Progress{Message: "Analyzing", Percentage: pct(150)})
	assert.Equal(t, first, second)

	items := s.Progress()
	require.Len(t, items, 1)
	assert.Equal(t, "Analyzing", items[0].Message)
	assert.Equal(t, 100, *items[0].Percentage)
	assert.Equal(t, epoch, items[0].CreatedAt)
	assert.Equal(t, epoch.Add(time.Second), items[0].UpdatedAt)

	other := s.ShowProgress(protocol.Progress{Key: "upload", Message: "Uploading"})
	assert.NotEqual(t, first, other)
	assert.Len(t, s.Progress(), 2)

	clk.Advance(time.Hour)
	assert.Len(t, s.Progress(), 2, "progress has no TTL")

	assert.True(t, s.CloseProgress(first))
	assert.False(t, s.CloseProgress(first))

	reopened := s.ShowProgress(protocol.Progress{Message: "Again"})
	assert.NotEqual(t, first, reopened)
}

func TestCarouselStateMachine(t *testing.T) {
	s, _ := newTestStore(t)
	name := CarouselCompetitors

	state := func() CarouselState {
		c, ok := s.Carousel(name)
		require.True(t, ok)
		return c
	}

	assert.Equal(t, CarouselHidden, state().Mode())

	assert.False(t, s.ExpandCarousel(name), "cannot expand a hidden carousel")
	assert.False(t, s.MinimizeCarousel(name), "cannot minimize a hidden carousel")
	assert.Equal(t, CarouselHidden, state().Mode())

	assert.True(t, s.ShowCarousel(name))
	assert.Equal(t, CarouselExpanded, state().Mode())

	assert.True(t, s.MinimizeCarousel(name))
	assert.Equal(t, CarouselMinimized, state().Mode())
	assert.True(t, state().InToolbar())

	assert.False(t, s.ShowCarousel(name), "show keeps a minimized carousel minimized")
	assert.Equal(t, CarouselMinimized, state().Mode())

	assert.True(t, s.ExpandCarousel(name))
	assert.Equal(t, CarouselExpanded, state().Mode())

	s.MinimizeCarousel(name)
	assert.True(t, s.HideCarousel(name))
	got := state()
	assert.False(t, got.Visible)
	assert.False(t, got.Minimized)
	assert.False(t, got.InToolbar())

	assert.False(t, s.HideCarousel(name))
}

func TestCarouselItems(t *testing.T) {
	s, _ := newTestStore(t)

	a := s.AppendCompetitor(protocol.Competitor{CompanyName: "Acme"})
	s.AppendCompetitor(protocol.Competitor{CompanyName: "Globex"})
	s.AppendInsight(protocol.Insight{Title: "Gap", Content: "No mobile app"})

	comp, _ := s.Carousel(CarouselCompetitors)
	require.Len(t, comp.Items, 2)
	assert.Equal(t, "Acme", comp.Items[0].Competitor.CompanyName)
	assert.Nil(t, comp.Items[0].Insight)
	assert.False(t, comp.Visible, "appending does not change visibility")

	assert.True(t, s.RemoveCarouselItem(CarouselCompetitors, a))
	assert.False(t, s.RemoveCarouselItem(CarouselCompetitors, a))
	assert.False(t, s.RemoveCarouselItem(CarouselName("bogus"), a))

	s.ShowCarousel(CarouselInsights)
	assert.True(t, s.CloseCarousel(CarouselInsights))
	ins, _ := s.Carousel(CarouselInsights)
	assert.Empty(t, ins.Items)
	assert.Equal(t, CarouselHidden, ins.Mode())
	assert.False(t, s.CloseCarousel(CarouselInsights))

	_, ok := s.Carousel(CarouselName("bogus"))
	assert.False(t, ok)
}

func TestParseCarouselName(t *testing.T) {
	n, ok := ParseCarouselName("insights")
	assert.True(t, ok)
	assert.Equal(t, CarouselInsights, n)

	_, ok = ParseCarouselName("graphs")
	assert.False(t, ok)
}

func TestCompetitorPanelReplace(t *testing.T) {
	s, _ := newTestStore(t)

	s.ReplaceCompetitorPanel(protocol.CompetitorPanel{
		Competitors: []protocol.Competitor{{CompanyName: "A"}, {CompanyName: "B"}},
		Category:    "Direct Competitors",
	})
	p := s.CompetitorPanel()
	assert.Len(t, p.Competitors, 2)
	assert.Equal(t, "Direct Competitors", p.Category)

	p.Competitors[0].CompanyName = "mutated"
	assert.Equal(t, "A", s.CompetitorPanel().Competitors[0].CompanyName, "readers get a copy")

	s.ReplaceCompetitorPanel(protocol.CompetitorPanel{Competitors: []protocol.Competitor{}})
	assert.Empty(t, s.CompetitorPanel().Competitors)
}

func TestSubscribeNotifiesAfterChange(t *testing.T) {
	s, clk := newTestStore(t)

	var changes []Collection
	unsubscribe := s.Subscribe(func(c Change) {
		// Reading inside the callback must not deadlock.
		_ = s.Counts()
		changes = append(changes, c.Collection)
	})

	nid := s.AddNotification(protocol.Notification{Message: "m", Type: protocol.NotificationInfo})
	s.RemoveNotification(nid)
	s.RemoveNotification(nid) // no change, no notification
	s.Highlight("x", time.Second)
	clk.Advance(time.Second)

	assert.Equal(t, []Collection{
		CollectionNotifications,
		CollectionNotifications,
		CollectionHighlights,
		CollectionHighlights,
	}, changes)

	unsubscribe()
	unsubscribe()
	s.AddCard(protocol.Competitor{CompanyName: "A"})
	assert.Len(t, changes, 4)
}

func TestObserverSeesSizes(t *testing.T) {
	obs := &recordingObserver{}
	clk := clock.NewFake(epoch)
	s := New(Options{Clock: clk, Observer: obs})
	defer s.Close()

	s.AddCard(protocol.Competitor{CompanyName: "A"})
	s.AddCard(protocol.Competitor{CompanyName: "B"})
	assert.Equal(t, 2, obs.sizes[string(CollectionCards)])

	clk.Advance(30 * time.Second)
	assert.Equal(t, 0, obs.sizes[string(CollectionCards)])
}

func TestSnapshotAndReset(t *testing.T) {
	s, clk := newTestStore(t)

	s.AddCard(protocol.Competitor{CompanyName: "A"})
	s.AddNotification(protocol.Notification{Message: "m", Type: protocol.NotificationInfo})
	s.ShowProgress(protocol.Progress{Message: "p"})
	s.Highlight("el", 0)
	s.AppendInsight(protocol.Insight{Title: "t", Content: "c"})
	s.ShowCarousel(CarouselInsights)
	s.ReplaceCompetitorPanel(protocol.CompetitorPanel{Competitors: []protocol.Competitor{{CompanyName: "A"}}})

	snap := s.Snapshot()
	assert.Equal(t, epoch, snap.TakenAt)
	assert.Len(t, snap.Cards, 1)
	assert.Len(t, snap.Notifications, 1)
	assert.Len(t, snap.Progress, 1)
	assert.Len(t, snap.Highlights, 1)
	require.Len(t, snap.Carousels, 2)
	assert.True(t, snap.Carousels[1].Visible)
	assert.Len(t, snap.Panel.Competitors, 1)

	assert.Equal(t, Counts{
		Cards: 1, Notifications: 1, Progress: 1, Highlights: 1, CarouselItems: 1, Competitors: 1,
	}, s.Counts())

	s.Reset()
	assert.Equal(t, Counts{}, s.Counts())
	assert.Equal(t, 0, clk.Pending())
	ins, _ := s.Carousel(CarouselInsights)
	assert.False(t, ins.Visible)
}

func TestCloseStopsTimersAndMutations(t *testing.T) {
	clk := clock.NewFake(epoch)
	s := New(Options{Clock: clk})

	s.AddCard(protocol.Competitor{CompanyName: "A"})
	s.Highlight("x", 0)
	s.Close()
	s.Close()

	assert.Equal(t, 0, clk.Pending())
	assert.Empty(t, s.AddCard(protocol.Competitor{CompanyName: "B"}))
	assert.Empty(t, s.Cards())
}

func TestCloseLeavesEmptySnapshot(t *testing.T) {
	clk := clock.NewFake(epoch)
	s := New(Options{Clock: clk})

	s.ReplaceCompetitorPanel(protocol.CompetitorPanel{Competitors: []protocol.Competitor{{CompanyName: "A"}}})
	s.ShowProgress(protocol.Progress{Key: "scan", Message: "Scanning"})
	s.AppendInsight(protocol.Insight{Title: "t", Content: "c", Severity: protocol.SeverityInfo})
	s.ShowCarousel(CarouselInsights)
	s.MinimizeCarousel(CarouselInsights)
	s.ShowCarousel(CarouselCompetitors)
	s.Close()

	snap := s.Snapshot()
	assert.Empty(t, snap.Panel.Competitors)
	assert.Empty(t, snap.Progress)
	for _, c := range snap.Carousels {
		assert.False(t, c.Visible, c.Name)
		assert.False(t, c.Minimized, c.Name)
		assert.Empty(t, c.Items, c.Name)
	}
	assert.Equal(t, Counts{}, s.Counts())
}

func TestConcurrentMutations(t *testing.T) {
	s := New(Options{NotificationTTL: time.Millisecond, HighlightTTL: time.Millisecond})
	defer s.Close()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				nid := s.AddNotification(protocol.Notification{Message: "m", Type: protocol.NotificationInfo})
				s.Highlight("el", 0)
				_ = s.Snapshot()
				s.RemoveNotification(nid)
			}
		}()
	}
	wg.Wait()

	assert.Eventually(t, func() bool {
		c := s.Counts()
		return c.Notifications == 0 && c.Highlights == 0
	}, time.Second, 5*time.Millisecond)
}

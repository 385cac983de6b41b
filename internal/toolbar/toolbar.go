// Package toolbar derives the compact summary surface from store state.
//
// Nothing here is cached: Summarize reads the store every time, and Watch
// recomputes on every change notification.
package toolbar

import (
	"github.com/GriffinCanCode/AgentOS/uistream/internal/store"
)

// Reader is the slice of the store the toolbar reads.
type Reader interface {
	Carousels() []store.CarouselState
	Progress() []store.ProgressItem
	Counts() store.Counts
}

// Subscriber is a Reader that also publishes change notifications.
type Subscriber interface {
	Reader
	Subscribe(fn func(store.Change)) func()
}

// Item is one minimized carousel docked in the toolbar.
type Item struct {
	Carousel store.CarouselName `json:"carousel"`
	Label    string             `json:"label"`
	Count    int                `json:"count"`
}

// Summary is everything the toolbar shows.
type Summary struct {
	Items    []Item               `json:"items"`
	Progress []store.ProgressItem `json:"progress"`
	Counts   store.Counts         `json:"counts"`
	Badge    int                  `json:"badge"`
}

// Empty reports whether the toolbar has nothing to show.
func (s Summary) Empty() bool {
	return len(s.Items) == 0 && len(s.Progress) == 0
}

var labels = map[store.CarouselName]string{
	store.CarouselCompetitors: "Competitors",
	store.CarouselInsights:    "Insights",
}

// Summarize computes the toolbar from the current store state. A carousel
// appears exactly when it is visible and minimized.
func Summarize(r Reader) Summary {
	sum := Summary{
		Items:    []Item{},
		Progress: r.Progress(),
		Counts:   r.Counts(),
	}
	if sum.Progress == nil {
		sum.Progress = []store.ProgressItem{}
	}

	for _, c := range r.Carousels() {
		if !c.InToolbar() {
			continue
		}
		label, ok := labels[c.Name]
		if !ok {
			label = string(c.Name)
		}
		sum.Items = append(sum.Items, Item{Carousel: c.Name, Label: label, Count: len(c.Items)})
		sum.Badge += len(c.Items)
	}
	sum.Badge += len(sum.Progress)
	return sum
}

// Watch calls fn with a fresh Summary now and after every store change that
// can affect it. The returned function stops watching.
func Watch(s Subscriber, fn func(Summary)) func() {
	fn(Summarize(s))
	return s.Subscribe(func(c store.Change) {
		if !Affects(c.Collection) {
			return
		}
		fn(Summarize(s))
	})
}

// Affects reports whether changes to c can alter the summary. Counts cover
// every collection, so every change does.
func Affects(c store.Collection) bool {
	for _, known := range store.Collections() {
		if c == known {
			return true
		}
	}
	return false
}

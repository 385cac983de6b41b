package store

import (
	"time"

	"github.com/GriffinCanCode/AgentOS/uistream/internal/protocol"
	"github.com/GriffinCanCode/AgentOS/uistream/internal/shared/id"
)

// Collection names a store collection in change notifications.
type Collection string

const (
	CollectionCards           Collection = "cards"
	CollectionNotifications   Collection = "notifications"
	CollectionProgress        Collection = "progress"
	CollectionHighlights      Collection = "highlights"
	CollectionCarousels       Collection = "carousels"
	CollectionCompetitorPanel Collection = "competitor_panel"
)

// Collections lists every collection, in snapshot order.
func Collections() []Collection {
	return []Collection{
		CollectionCards,
		CollectionNotifications,
		CollectionProgress,
		CollectionHighlights,
		CollectionCarousels,
		CollectionCompetitorPanel,
	}
}

// Change is delivered to subscribers after a mutation commits.
type Change struct {
	Collection Collection
	At         time.Time
}

// Card is a competitor context card shown for a fixed TTL.
type Card struct {
	ID         id.CardID           `json:"id"`
	CreatedAt  time.Time           `json:"created_at"`
	TTL        time.Duration       `json:"ttl"`
	Competitor protocol.Competitor `json:"competitor"`
}

// Notification is a toast shown for a fixed TTL.
type Notification struct {
	ID        id.NotificationID         `json:"id"`
	CreatedAt time.Time                 `json:"created_at"`
	TTL       time.Duration             `json:"ttl"`
	Message   string                    `json:"message"`
	Type      protocol.NotificationType `json:"type"`
}

// ProgressItem is a progress indicator. It has no TTL and stays until closed.
type ProgressItem struct {
	ID         id.ProgressID `json:"id"`
	Key        string        `json:"key,omitempty"`
	CreatedAt  time.Time     `json:"created_at"`
	UpdatedAt  time.Time     `json:"updated_at"`
	Message    string        `json:"message"`
	Percentage *int          `json:"percentage,omitempty"`
}

// Highlight is an element currently highlighted, with its expiry.
type Highlight struct {
	ElementID string    `json:"element_id"`
	Since     time.Time `json:"since"`
	ExpiresAt time.Time `json:"expires_at"`
}

// CarouselName identifies a carousel group.
type CarouselName string

const (
	CarouselCompetitors CarouselName = "competitors"
	CarouselInsights    CarouselName = "insights"
)

// CarouselMode is the visible/minimized state of a carousel.
type CarouselMode string

const (
	CarouselHidden    CarouselMode = "hidden"
	CarouselExpanded  CarouselMode = "expanded"
	CarouselMinimized CarouselMode = "minimized"
)

// CarouselItem is one entry in a carousel. Exactly one of Competitor or
// Insight is set.
type CarouselItem struct {
	ID         id.ItemID            `json:"id"`
	AddedAt    time.Time            `json:"added_at"`
	Competitor *protocol.Competitor `json:"competitor,omitempty"`
	Insight    *protocol.Insight    `json:"insight,omitempty"`
}

// CarouselState is a snapshot of one carousel.
type CarouselState struct {
	Name      CarouselName   `json:"name"`
	Visible   bool           `json:"visible"`
	Minimized bool           `json:"minimized"`
	Items     []CarouselItem `json:"items"`
}

// Mode collapses the two flags into the three-state view.
func (c CarouselState) Mode() CarouselMode {
	switch {
	case !c.Visible:
		return CarouselHidden
	case c.Minimized:
		return CarouselMinimized
	default:
		return CarouselExpanded
	}
}

// InToolbar reports whether the carousel should appear as a toolbar item.
func (c CarouselState) InToolbar() bool {
	return c.Visible && c.Minimized
}

// CompetitorPanel is the replace-only competitor panel.
type CompetitorPanel struct {
	Competitors []protocol.Competitor `json:"competitors"`
	Category    string                `json:"category,omitempty"`
	UpdatedAt   time.Time             `json:"updated_at"`
}

// Counts is the size of each collection.
type Counts struct {
	Cards         int `json:"cards"`
	Notifications int `json:"notifications"`
	Progress      int `json:"progress"`
	Highlights    int `json:"highlights"`
	CarouselItems int `json:"carousel_items"`
	Competitors   int `json:"panel_competitors"`
}

// Snapshot is a consistent read of every collection.
type Snapshot struct {
	TakenAt       time.Time       `json:"taken_at"`
	Cards         []Card          `json:"cards"`
	Notifications []Notification  `json:"notifications"`
	Progress      []ProgressItem  `json:"progress"`
	Highlights    []Highlight     `json:"highlights"`
	Carousels     []CarouselState `json:"carousels"`
	Panel         CompetitorPanel `json:"competitor_panel"`
}

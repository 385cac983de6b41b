package protocol

import (
	"errors"
	"fmt"
	"math"
	"time"
)

// Payload is the tagged union carried by an Envelope. The concrete type is
// determined by the envelope's kind.
type Payload interface {
	Kind() MessageKind
	Validate() error
}

// Pricing is one price point of a competitor product.
type Pricing struct {
	Pricing      string `json:"pricing,omitempty"`
	PricingModel string `json:"pricing_model,omitempty"`
}

// Product describes a competitor product. Nested research sections are kept
// as loosely typed maps; the core never interprets them.
type Product struct {
	Name                string                 `json:"product_name,omitempty"`
	URL                 string                 `json:"product_url,omitempty"`
	Description         string                 `json:"product_description,omitempty"`
	Pricing             []Pricing              `json:"pricing,omitempty"`
	DistributionChannel map[string]interface{} `json:"distribution_channel,omitempty"`
	TargetAudience      map[string]interface{} `json:"target_audience,omitempty"`
	CustomerSentiment   map[string]interface{} `json:"customer_sentiment,omitempty"`
}

// Competitor is a single researched company.
type Competitor struct {
	CompanyName               string    `json:"company_name"`
	Category                  string    `json:"category,omitempty"`
	Description               string    `json:"description,omitempty"`
	Website                   string    `json:"website,omitempty"`
	WebsiteURL                string    `json:"website_url,omitempty"`
	HeadquartersLocation      string    `json:"company_headquarters_location,omitempty"`
	NumberOfEmployees         *int      `json:"number_of_employees,omitempty"`
	FoundedDate               string    `json:"founding_or_established_date,omitempty"`
	MissionStatement          string    `json:"mission_statement,omitempty"`
	VisionStatement           string    `json:"vision_statement,omitempty"`
	CultureAndValues          string    `json:"company_culture_and_values,omitempty"`
	AdditionalOfficeLocations []string  `json:"additional_office_locations,omitempty"`
	Products                  []Product `json:"products,omitempty"`
	Sources                   []string  `json:"sources,omitempty"`
	Notes                     string    `json:"notes,omitempty"`
}

// Validate checks the fields a competitor cannot be displayed without.
func (c Competitor) Validate() error {
	if c.CompanyName == "" {
		return errors.New("company_name is required")
	}
	return nil
}

// CompetitorContext is the payload of show_competitor_context. The wire form
// is either a single competitor or {"competitors": [...]}; both decode here.
type CompetitorContext struct {
	Competitors []Competitor `json:"competitors"`
}

func (CompetitorContext) Kind() MessageKind { return KindShowCompetitorContext }

func (p CompetitorContext) Validate() error {
	if len(p.Competitors) == 0 {
		return errors.New("at least one competitor is required")
	}
	for i, c := range p.Competitors {
		if err := c.Validate(); err != nil {
			return fmt.Errorf("competitors[%d]: %w", i, err)
		}
	}
	return nil
}

// Insight is a single strategic finding.
type Insight struct {
	Title    string   `json:"title"`
	Content  string   `json:"content"`
	Severity Severity `json:"severity,omitempty"`
	Category string   `json:"category,omitempty"`
}

func (i Insight) Validate() error {
	if i.Title == "" {
		return errors.New("title is required")
	}
	if i.Content == "" {
		return errors.New("content is required")
	}
	if !i.Severity.Valid() {
		return fmt.Errorf("unknown severity %q", i.Severity)
	}
	return nil
}

// InsightBatch is the payload of show_insight, single or batched.
type InsightBatch struct {
	Insights []Insight `json:"insights"`
}

func (InsightBatch) Kind() MessageKind { return KindShowInsight }

func (p InsightBatch) Validate() error {
	if len(p.Insights) == 0 {
		return errors.New("at least one insight is required")
	}
	for i, in := range p.Insights {
		if err := in.Validate(); err != nil {
			return fmt.Errorf("insights[%d]: %w", i, err)
		}
	}
	return nil
}

// Notification is the payload of show_notification.
type Notification struct {
	Message string           `json:"message"`
	Type    NotificationType `json:"type"`
}

func (Notification) Kind() MessageKind { return KindShowNotification }

func (p Notification) Validate() error {
	if p.Message == "" {
		return errors.New("message is required")
	}
	if !p.Type.Valid() {
		return fmt.Errorf("unknown notification type %q", p.Type)
	}
	return nil
}

// CompetitorPanel is the payload of update_competitor_panel.
type CompetitorPanel struct {
	Competitors []Competitor `json:"competitors"`
	Category    string       `json:"category,omitempty"`
}

func (CompetitorPanel) Kind() MessageKind { return KindUpdateCompetitorPanel }

// Validate accepts an empty list: an empty panel is a legitimate replacement.
func (p CompetitorPanel) Validate() error {
	if p.Competitors == nil {
		return errors.New("competitors is required")
	}
	for i, c := range p.Competitors {
		if err := c.Validate(); err != nil {
			return fmt.Errorf("competitors[%d]: %w", i, err)
		}
	}
	return nil
}

// Progress is the payload of show_progress. Key selects which indicator to
// replace; frames without a key all address the default indicator.
type Progress struct {
	Key        string `json:"progress_id,omitempty"`
	Message    string `json:"message"`
	Percentage *int   `json:"percentage,omitempty"`
}

func (Progress) Kind() MessageKind { return KindShowProgress }

func (p Progress) Validate() error {
	if p.Message == "" {
		return errors.New("message is required")
	}
	return nil
}

// Clamped returns a copy with Percentage limited to [0, 100].
func (p Progress) Clamped() Progress {
	if p.Percentage == nil {
		return p
	}
	v := *p.Percentage
	if v < 0 {
		v = 0
	}
	if v > 100 {
		v = 100
	}
	p.Percentage = &v
	return p
}

// MaxHighlightMS is the longest highlight duration that fits a time.Duration.
const MaxHighlightMS = int64(math.MaxInt64 / int64(time.Millisecond))

// Highlight is the payload of highlight_element. DurationMS is in
// milliseconds; nil selects the store default.
type Highlight struct {
	ElementID  string `json:"element_id"`
	DurationMS *int64 `json:"duration,omitempty"`
}

func (Highlight) Kind() MessageKind { return KindHighlightElement }

func (p Highlight) Validate() error {
	if p.ElementID == "" {
		return errors.New("element_id is required")
	}
	if p.DurationMS != nil && *p.DurationMS <= 0 {
		return fmt.Errorf("duration must be positive, got %d", *p.DurationMS)
	}
	if p.DurationMS != nil && *p.DurationMS > MaxHighlightMS {
		return fmt.Errorf("duration %d exceeds %d ms", *p.DurationMS, MaxHighlightMS)
	}
	return nil
}

// Duration converts the wire duration, returning 0 when unset. Values past
// MaxHighlightMS saturate.
func (p Highlight) Duration() time.Duration {
	if p.DurationMS == nil {
		return 0
	}
	if *p.DurationMS > MaxHighlightMS {
		return time.Duration(math.MaxInt64)
	}
	return time.Duration(*p.DurationMS) * time.Millisecond
}

// Graph is the payload of show_graph. Data and Options are chart-library
// shapes that the core forwards without interpretation.
type Graph struct {
	Title       string                 `json:"title"`
	GraphType   GraphType              `json:"graphType"`
	Data        map[string]interface{} `json:"data"`
	Options     map[string]interface{} `json:"options,omitempty"`
	Category    string                 `json:"category,omitempty"`
	Description string                 `json:"description,omitempty"`
}

func (Graph) Kind() MessageKind { return KindShowGraph }

func (p Graph) Validate() error {
	if p.Title == "" {
		return errors.New("title is required")
	}
	if !p.GraphType.Valid() {
		return fmt.Errorf("unknown graphType %q", p.GraphType)
	}
	if p.Data == nil {
		return errors.New("data is required")
	}
	return nil
}

// Unrecognized holds a frame whose kind is outside the closed set. It always
// fails validation, so it can never produce a mutation.
type Unrecognized struct {
	Type string
	Raw  []byte
}

func (p Unrecognized) Kind() MessageKind { return MessageKind(p.Type) }

func (p Unrecognized) Validate() error {
	return fmt.Errorf("%w: %q", ErrUnknownKind, p.Type)
}

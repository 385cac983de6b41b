package protocol

// MessageKind names the payload variant carried by an Envelope.
type MessageKind string

const (
	KindShowCompetitorContext MessageKind = "show_competitor_context"
	KindShowInsight           MessageKind = "show_insight"
	KindShowNotification      MessageKind = "show_notification"
	KindUpdateCompetitorPanel MessageKind = "update_competitor_panel"
	KindShowProgress          MessageKind = "show_progress"
	KindHighlightElement      MessageKind = "highlight_element"
	KindShowGraph             MessageKind = "show_graph"
)

// Control frames exchanged by the transport itself. They never reach the router.
const (
	KindPing MessageKind = "ping"
	KindPong MessageKind = "pong"
)

var knownKinds = map[MessageKind]bool{
	KindShowCompetitorContext: true,
	KindShowInsight:           true,
	KindShowNotification:      true,
	KindUpdateCompetitorPanel: true,
	KindShowProgress:          true,
	KindHighlightElement:      true,
	KindShowGraph:             true,
}

// Kinds returns the closed set of UI message kinds.
func Kinds() []MessageKind {
	return []MessageKind{
		KindShowCompetitorContext,
		KindShowInsight,
		KindShowNotification,
		KindUpdateCompetitorPanel,
		KindShowProgress,
		KindHighlightElement,
		KindShowGraph,
	}
}

// Known reports whether k belongs to the closed set of UI message kinds.
func (k MessageKind) Known() bool {
	return knownKinds[k]
}

// IsControl reports whether k is a transport-level control frame.
func (k MessageKind) IsControl() bool {
	return k == KindPing || k == KindPong
}

func (k MessageKind) String() string { return string(k) }

// NotificationType selects the toast styling.
type NotificationType string

const (
	NotificationInfo    NotificationType = "info"
	NotificationSuccess NotificationType = "success"
	NotificationWarning NotificationType = "warning"
	NotificationError   NotificationType = "error"
)

// Valid reports whether t is one of the four notification types.
func (t NotificationType) Valid() bool {
	switch t {
	case NotificationInfo, NotificationSuccess, NotificationWarning, NotificationError:
		return true
	}
	return false
}

// Severity marks the tone of an insight.
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeveritySuccess Severity = "success"
	SeverityWarning Severity = "warning"
)

// Valid reports whether s is empty or a known severity.
func (s Severity) Valid() bool {
	switch s {
	case "", SeverityInfo, SeveritySuccess, SeverityWarning:
		return true
	}
	return false
}

// GraphType is the chart family of a show_graph payload.
type GraphType string

const (
	GraphBar      GraphType = "bar"
	GraphLine     GraphType = "line"
	GraphScatter  GraphType = "scatter"
	GraphRadar    GraphType = "radar"
	GraphPie      GraphType = "pie"
	GraphDoughnut GraphType = "doughnut"
	GraphBubble   GraphType = "bubble"
)

// Valid reports whether g is a supported chart family.
func (g GraphType) Valid() bool {
	switch g {
	case GraphBar, GraphLine, GraphScatter, GraphRadar, GraphPie, GraphDoughnut, GraphBubble:
		return true
	}
	return false
}

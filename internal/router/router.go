// Package router maps decoded envelopes onto store mutations.
//
// Dispatch is pure: it validates an envelope and returns the Mutation it
// describes without touching any state. Router applies mutations and owns
// the logging and metrics around dropped frames.
package router

import (
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/AgentOS/uistream/internal/protocol"
	"github.com/GriffinCanCode/AgentOS/uistream/internal/shared/id"
	"github.com/GriffinCanCode/AgentOS/uistream/internal/store"
)

// Store is the set of store entry points the router drives.
type Store interface {
	AddCard(c protocol.Competitor) id.CardID
	AppendCompetitor(c protocol.Competitor) id.ItemID
	AppendInsight(in protocol.Insight) id.ItemID
	ShowCarousel(name store.CarouselName) bool
	AddNotification(n protocol.Notification) id.NotificationID
	ReplaceCompetitorPanel(p protocol.CompetitorPanel)
	ShowProgress(p protocol.Progress) id.ProgressID
	Highlight(elementID string, d time.Duration)
}

// GraphSink receives show_graph payloads. Rendering is its concern.
type GraphSink interface {
	ForwardGraph(g protocol.Graph, at time.Time)
}

// Targets are what a Mutation is applied to. Graphs may be nil.
type Targets struct {
	Store  Store
	Graphs GraphSink
}

// Mutation is the effect of one envelope.
type Mutation struct {
	Kind protocol.MessageKind
	// Touches lists the store collections the mutation writes. Empty for
	// show_graph, which never reaches the store.
	Touches []store.Collection

	apply func(Targets)
}

// Apply performs the mutation. The zero Mutation is a no-op.
func (m Mutation) Apply(t Targets) {
	if m.apply != nil {
		m.apply(t)
	}
}

// Dispatch validates env and returns its mutation. Envelopes whose kind is
// outside the closed set fail with protocol.ErrUnknownKind; structurally
// incomplete payloads fail with protocol.ErrInvalidPayload.
func Dispatch(env protocol.Envelope) (Mutation, error) {
	if !env.Kind.Known() {
		return Mutation{}, fmt.Errorf("%w: %q", protocol.ErrUnknownKind, env.Kind)
	}
	if env.Payload == nil {
		return Mutation{}, fmt.Errorf("%w: %s has no payload", protocol.ErrInvalidPayload, env.Kind)
	}
	if env.Payload.Kind() != env.Kind {
		return Mutation{}, fmt.Errorf("%w: %s carries a %s payload", protocol.ErrInvalidPayload, env.Kind, env.Payload.Kind())
	}
	if err := env.Payload.Validate(); err != nil {
		if errors.Is(err, protocol.ErrUnknownKind) {
			return Mutation{}, err
		}
		return Mutation{}, fmt.Errorf("%w: %s: %v", protocol.ErrInvalidPayload, env.Kind, err)
	}

	m := Mutation{Kind: env.Kind}

	switch p := env.Payload.(type) {
	case protocol.CompetitorContext:
		m.Touches = []store.Collection{store.CollectionCards, store.CollectionCarousels}
		m.apply = func(t Targets) {
			for _, c := range p.Competitors {
				t.Store.AddCard(c)
				t.Store.AppendCompetitor(c)
			}
			t.Store.ShowCarousel(store.CarouselCompetitors)
		}

	case protocol.InsightBatch:
		m.Touches = []store.Collection{store.CollectionCarousels}
		m.apply = func(t Targets) {
			for _, in := range p.Insights {
				t.Store.AppendInsight(in)
			}
			t.Store.ShowCarousel(store.CarouselInsights)
		}

	case protocol.Notification:
		m.Touches = []store.Collection{store.CollectionNotifications}
		m.apply = func(t Targets) { t.Store.AddNotification(p) }

	case protocol.CompetitorPanel:
		m.Touches = []store.Collection{store.CollectionCompetitorPanel}
		m.apply = func(t Targets) { t.Store.ReplaceCompetitorPanel(p) }

	case protocol.Progress:
		m.Touches = []store.Collection{store.CollectionProgress}
		m.apply = func(t Targets) { t.Store.ShowProgress(p) }

	case protocol.Highlight:
		m.Touches = []store.Collection{store.CollectionHighlights}
		m.apply = func(t Targets) { t.Store.Highlight(p.ElementID, p.Duration()) }

	case protocol.Graph:
		at := env.Timestamp
		m.apply = func(t Targets) {
			if t.Graphs != nil {
				t.Graphs.ForwardGraph(p, at)
			}
		}

	default:
		return Mutation{}, fmt.Errorf("%w: %s has payload type %T", protocol.ErrInvalidPayload, env.Kind, env.Payload)
	}

	return m, nil
}

// Observer receives routing outcomes.
type Observer interface {
	RecordFrameRouted(kind string)
	RecordFrameDropped(reason string)
}

// Drop reasons reported to the Observer.
const (
	DropUnknownKind    = "unknown_kind"
	DropInvalidPayload = "invalid_payload"
	DropNoGraphSink    = "no_graph_sink"
)

// Router applies envelopes to its targets in arrival order.
type Router struct {
	targets  Targets
	logger   *zap.Logger
	observer Observer
}

// New creates a router. logger and observer may be nil.
func New(targets Targets, logger *zap.Logger, observer Observer) *Router {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Router{targets: targets, logger: logger, observer: observer}
}

// Route dispatches and applies env. It never panics on bad input: rejected
// envelopes are logged and counted, and Route reports false.
func (r *Router) Route(env protocol.Envelope) bool {
	m, err := Dispatch(env)
	if err != nil {
		reason := DropInvalidPayload
		if errors.Is(err, protocol.ErrUnknownKind) {
			reason = DropUnknownKind
		}
		r.logger.Warn("Dropping envelope",
			zap.String("kind", string(env.Kind)),
			zap.String("reason", reason),
			zap.Error(err))
		r.dropped(reason)
		return false
	}

	if env.Kind == protocol.KindShowGraph && r.targets.Graphs == nil {
		r.logger.Debug("No graph sink, dropping show_graph")
		r.dropped(DropNoGraphSink)
		return false
	}

	m.Apply(r.targets)

	r.logger.Debug("Routed envelope", zap.String("kind", string(env.Kind)))
	if r.observer != nil {
		r.observer.RecordFrameRouted(string(env.Kind))
	}
	return true
}

// OnMessage adapts Route to the transport's message callback.
func (r *Router) OnMessage(env protocol.Envelope) {
	r.Route(env)
}

func (r *Router) dropped(reason string) {
	if r.observer != nil {
		r.observer.RecordFrameDropped(reason)
	}
}

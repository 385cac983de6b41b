package ws

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/AgentOS/uistream/internal/protocol"
	"github.com/GriffinCanCode/AgentOS/uistream/internal/shared/clock"
	"github.com/GriffinCanCode/AgentOS/uistream/internal/store"
	"github.com/GriffinCanCode/AgentOS/uistream/internal/toolbar"
)

// Frame kinds pushed to views, alongside the forwarded show_graph.
const (
	KindSnapshot protocol.MessageKind = "ui_snapshot"
)

const graphBuffer = 16

// Source is the store surface the hub renders.
type Source interface {
	toolbar.Subscriber
	Snapshot() store.Snapshot
}

// Observer receives view connection counts and pushed frame kinds.
type Observer interface {
	IncWSConnections()
	DecWSConnections()
	RecordWSMessage(msgType string)
}

// View is the payload of a ui_snapshot frame.
type View struct {
	Changed store.Collection `json:"changed,omitempty"`
	State   store.Snapshot   `json:"state"`
	Toolbar toolbar.Summary  `json:"toolbar"`
}

// Options configures a Hub.
type Options struct {
	WriteTimeout time.Duration
	// CheckOrigin defaults to accepting every origin; the CORS middleware
	// in front of the route is the real gate.
	CheckOrigin func(r *http.Request) bool
	Clock       clock.Clock
	Logger      *zap.Logger
	Observer    Observer
}

// Hub fans store changes and forwarded graphs out to connected views.
// Snapshot pushes are coalesced per view: a burst of changes while a write
// is in flight produces one fresh snapshot, never a stale one.
type Hub struct {
	source   Source
	upgrader websocket.Upgrader
	opts     Options
	clock    clock.Clock
	logger   *zap.Logger

	mu          sync.Mutex
	views       map[string]*view
	closed      bool
	unsubscribe func()

	changedMu sync.Mutex
	changed   store.Collection
}

type view struct {
	id     string
	conn   *websocket.Conn
	notify chan struct{}
	graphs chan []byte
	done   chan struct{}
	once   sync.Once
}

func (v *view) stop() {
	v.once.Do(func() {
		close(v.done)
		v.conn.Close()
	})
}

// NewHub creates a hub and subscribes it to source.
func NewHub(source Source, opts Options) *Hub {
	if opts.WriteTimeout <= 0 {
		opts.WriteTimeout = 5 * time.Second
	}
	if opts.CheckOrigin == nil {
		opts.CheckOrigin = func(r *http.Request) bool { return true }
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	h := &Hub{
		source:   source,
		upgrader: websocket.Upgrader{CheckOrigin: opts.CheckOrigin},
		opts:     opts,
		clock:    clock.OrReal(opts.Clock),
		logger:   logger,
		views:    make(map[string]*view),
	}
	h.unsubscribe = source.Subscribe(h.onChange)
	return h
}

// HandleConnection upgrades the request and streams to it until either
// side closes.
func (h *Hub) HandleConnection(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("View upgrade failed", zap.Error(err))
		return
	}

	v := &view{
		id:     uuid.NewString(),
		conn:   conn,
		notify: make(chan struct{}, 1),
		graphs: make(chan []byte, graphBuffer),
		done:   make(chan struct{}),
	}
	// First frame is the current state. Queued before the view is visible
	// to onChange so a concurrent change cannot fill the slot first.
	v.notify <- struct{}{}

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		conn.Close()
		return
	}
	h.views[v.id] = v
	h.mu.Unlock()

	if h.opts.Observer != nil {
		h.opts.Observer.IncWSConnections()
	}
	h.logger.Debug("View connected", zap.String("view_id", v.id))

	go h.writeLoop(v)
	h.readLoop(v)
}

// readLoop drains inbound frames so close and ping control frames are
// processed. Views have nothing to say to the hub.
func (h *Hub) readLoop(v *view) {
	defer h.remove(v)
	for {
		if _, _, err := v.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Hub) writeLoop(v *view) {
	defer h.remove(v)
	for {
		select {
		case <-v.done:
			return
		case <-v.notify:
			data, err := h.snapshotFrame()
			if err != nil {
				h.logger.Error("Encode snapshot failed", zap.Error(err))
				continue
			}
			if !h.write(v, data, KindSnapshot) {
				return
			}
		case data := <-v.graphs:
			if !h.write(v, data, protocol.KindShowGraph) {
				return
			}
		}
	}
}

func (h *Hub) write(v *view, data []byte, kind protocol.MessageKind) bool {
	_ = v.conn.SetWriteDeadline(h.clock.Now().Add(h.opts.WriteTimeout))
	if err := v.conn.WriteMessage(websocket.TextMessage, data); err != nil {
		h.logger.Debug("View write failed", zap.String("view_id", v.id), zap.Error(err))
		return false
	}
	if h.opts.Observer != nil {
		h.opts.Observer.RecordWSMessage(kind.String())
	}
	return true
}

func (h *Hub) remove(v *view) {
	v.stop()

	h.mu.Lock()
	_, ok := h.views[v.id]
	delete(h.views, v.id)
	h.mu.Unlock()

	if ok {
		if h.opts.Observer != nil {
			h.opts.Observer.DecWSConnections()
		}
		h.logger.Debug("View disconnected", zap.String("view_id", v.id))
	}
}

func (h *Hub) snapshotFrame() ([]byte, error) {
	h.changedMu.Lock()
	changed := h.changed
	h.changedMu.Unlock()

	return protocol.Encode(KindSnapshot, View{
		Changed: changed,
		State:   h.source.Snapshot(),
		Toolbar: toolbar.Summarize(h.source),
	}, h.clock.Now())
}

func (h *Hub) onChange(c store.Change) {
	h.changedMu.Lock()
	h.changed = c.Collection
	h.changedMu.Unlock()

	for _, v := range h.snapshotViews() {
		select {
		case v.notify <- struct{}{}:
		default:
			// A push is already pending and will read fresh state.
		}
	}
}

// ForwardGraph pushes a show_graph payload to every view. A view whose
// graph buffer is full misses the graph.
func (h *Hub) ForwardGraph(g protocol.Graph, at time.Time) {
	data, err := protocol.Encode(protocol.KindShowGraph, g, at)
	if err != nil {
		h.logger.Error("Encode graph failed", zap.Error(err))
		return
	}
	for _, v := range h.snapshotViews() {
		select {
		case v.graphs <- data:
		default:
			h.logger.Warn("View graph buffer full, dropping graph",
				zap.String("view_id", v.id),
				zap.String("title", g.Title))
		}
	}
}

func (h *Hub) snapshotViews() []*view {
	h.mu.Lock()
	defer h.mu.Unlock()

	views := make([]*view, 0, len(h.views))
	for _, v := range h.views {
		views = append(views, v)
	}
	return views
}

// Views returns the number of connected views.
func (h *Hub) Views() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.views)
}

// Close unsubscribes from the store and disconnects every view.
func (h *Hub) Close() {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return
	}
	h.closed = true
	views := make([]*view, 0, len(h.views))
	for id, v := range h.views {
		views = append(views, v)
		delete(h.views, id)
	}
	h.mu.Unlock()

	h.unsubscribe()
	for _, v := range views {
		_ = v.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutting down"),
			h.clock.Now().Add(time.Second))
		v.stop()
		if h.opts.Observer != nil {
			h.opts.Observer.DecWSConnections()
		}
		h.logger.Debug("View disconnected", zap.String("view_id", v.id))
	}
}

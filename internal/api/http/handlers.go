package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/AgentOS/uistream/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/AgentOS/uistream/internal/infrastructure/resilience"
	"github.com/GriffinCanCode/AgentOS/uistream/internal/shared/id"
	"github.com/GriffinCanCode/AgentOS/uistream/internal/store"
	"github.com/GriffinCanCode/AgentOS/uistream/internal/toolbar"
	"github.com/GriffinCanCode/AgentOS/uistream/internal/transport"
)

// Connection reports the transport lifecycle.
type Connection interface {
	State() transport.State
	Attempt() int
}

// Breaker reports the signer circuit state. Static signers have none.
type Breaker interface {
	BreakerState() resilience.State
}

// Handlers contains the view API handlers.
type Handlers struct {
	store   *store.Store
	conn    Connection
	breaker Breaker
	metrics *monitoring.Metrics
	logger  *zap.Logger
}

// NewHandlers creates the handler set. conn, breaker and metrics may be nil.
func NewHandlers(st *store.Store, conn Connection, breaker Breaker, metrics *monitoring.Metrics, logger *zap.Logger) *Handlers {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handlers{
		store:   st,
		conn:    conn,
		breaker: breaker,
		metrics: metrics,
		logger:  logger,
	}
}

// Register mounts every view route on r.
func (h *Handlers) Register(r gin.IRouter) {
	r.GET("/health", h.Health)
	if h.metrics != nil {
		r.GET("/metrics", gin.WrapH(h.metrics.Handler()))
	}

	ui := r.Group("/ui")
	ui.GET("/state", h.State)
	ui.GET("/toolbar", h.Toolbar)
	ui.POST("/reset", h.Reset)
	ui.POST("/cards/:id/dismiss", h.DismissCard)
	ui.POST("/notifications/:id/dismiss", h.DismissNotification)
	ui.POST("/progress/:id/close", h.CloseProgress)
	ui.POST("/highlights/:element/clear", h.ClearHighlight)
	ui.GET("/carousels/:name", h.GetCarousel)
	ui.POST("/carousels/:name/:action", h.CarouselAction)
	ui.DELETE("/carousels/:name/items/:id", h.RemoveCarouselItem)
}

// Health reports transport, signer and store status. It always answers
// 200; a disconnected transport is a state, not a failure of this process.
func (h *Handlers) Health(c *gin.Context) {
	resp := gin.H{
		"status": "healthy",
		"store":  h.store.Counts(),
	}
	if h.conn != nil {
		resp["transport"] = gin.H{
			"state":   h.conn.State().String(),
			"attempt": h.conn.Attempt(),
		}
	}
	if h.breaker != nil {
		resp["signer"] = gin.H{"breaker": h.breaker.BreakerState().String()}
	}
	if h.metrics != nil {
		resp["metrics"] = h.metrics.Snapshot()
	}
	c.JSON(http.StatusOK, resp)
}

// State returns the full store snapshot.
func (h *Handlers) State(c *gin.Context) {
	c.JSON(http.StatusOK, h.store.Snapshot())
}

// Toolbar returns the aggregator view.
func (h *Handlers) Toolbar(c *gin.Context) {
	c.JSON(http.StatusOK, toolbar.Summarize(h.store))
}

// Reset clears every collection.
func (h *Handlers) Reset(c *gin.Context) {
	h.store.Reset()
	h.logger.Info("UI state reset")
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// DismissCard removes a card before its TTL.
func (h *Handlers) DismissCard(c *gin.Context) {
	cardID := c.Param("id")
	removed(c, "card_id", cardID, h.store.RemoveCard(id.CardID(cardID)))
}

// DismissNotification removes a notification before its TTL.
func (h *Handlers) DismissNotification(c *gin.Context) {
	nid := c.Param("id")
	removed(c, "notification_id", nid, h.store.RemoveNotification(id.NotificationID(nid)))
}

// CloseProgress removes a progress item.
func (h *Handlers) CloseProgress(c *gin.Context) {
	pid := c.Param("id")
	removed(c, "progress_id", pid, h.store.CloseProgress(id.ProgressID(pid)))
}

// ClearHighlight removes a highlight before it expires.
func (h *Handlers) ClearHighlight(c *gin.Context) {
	element := c.Param("element")
	removed(c, "element_id", element, h.store.Unhighlight(element))
}

// GetCarousel returns one carousel.
func (h *Handlers) GetCarousel(c *gin.Context) {
	name, ok := h.carouselName(c)
	if !ok {
		return
	}
	state, _ := h.store.Carousel(name)
	c.JSON(http.StatusOK, gin.H{
		"carousel": state,
		"mode":     state.Mode(),
	})
}

// CarouselAction applies show, hide, expand, minimize or close. A
// transition that does not apply in the current mode reports
// changed=false rather than an error.
func (h *Handlers) CarouselAction(c *gin.Context) {
	name, ok := h.carouselName(c)
	if !ok {
		return
	}

	var transition func(store.CarouselName) bool
	switch action := c.Param("action"); action {
	case "show":
		transition = h.store.ShowCarousel
	case "hide":
		transition = h.store.HideCarousel
	case "expand":
		transition = h.store.ExpandCarousel
	case "minimize":
		transition = h.store.MinimizeCarousel
	case "close":
		transition = h.store.CloseCarousel
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown carousel action: " + action})
		return
	}

	changed := transition(name)
	state, _ := h.store.Carousel(name)
	c.JSON(http.StatusOK, gin.H{
		"changed":  changed,
		"carousel": name,
		"mode":     state.Mode(),
	})
}

// RemoveCarouselItem removes one item from a carousel.
func (h *Handlers) RemoveCarouselItem(c *gin.Context) {
	name, ok := h.carouselName(c)
	if !ok {
		return
	}
	iid := c.Param("id")
	removed(c, "item_id", iid, h.store.RemoveCarouselItem(name, id.ItemID(iid)))
}

func (h *Handlers) carouselName(c *gin.Context) (store.CarouselName, bool) {
	name, ok := store.ParseCarouselName(c.Param("name"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown carousel: " + c.Param("name")})
	}
	return name, ok
}

// removed answers a removal. Removing an absent id is a 404 for the
// caller but a no-op for the store.
func removed(c *gin.Context, field, value string, ok bool) {
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found", field: value})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, field: value})
}

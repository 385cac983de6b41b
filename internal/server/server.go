package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	apihttp "github.com/GriffinCanCode/AgentOS/uistream/internal/api/http"
	"github.com/GriffinCanCode/AgentOS/uistream/internal/api/middleware"
	"github.com/GriffinCanCode/AgentOS/uistream/internal/infrastructure/config"
	"github.com/GriffinCanCode/AgentOS/uistream/internal/infrastructure/logging"
	"github.com/GriffinCanCode/AgentOS/uistream/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/AgentOS/uistream/internal/infrastructure/tracing"
	"github.com/GriffinCanCode/AgentOS/uistream/internal/protocol"
	"github.com/GriffinCanCode/AgentOS/uistream/internal/router"
	"github.com/GriffinCanCode/AgentOS/uistream/internal/shared/clock"
	"github.com/GriffinCanCode/AgentOS/uistream/internal/signer"
	"github.com/GriffinCanCode/AgentOS/uistream/internal/store"
	"github.com/GriffinCanCode/AgentOS/uistream/internal/transport"
	"github.com/GriffinCanCode/AgentOS/uistream/internal/ws"
)

const shutdownTimeout = 5 * time.Second

// Server wires the transport, router, store and view API together.
type Server struct {
	config    *config.Config
	logger    *logging.Logger
	metrics   *monitoring.Metrics
	store     *store.Store
	router    *router.Router
	hub       *ws.Hub
	signer    signer.Signer
	transport *transport.Client
	engine    *gin.Engine
	http      *http.Server
	clock     clock.Clock

	stopPing  chan struct{}
	closeOnce sync.Once
	closeErr  error
}

// Option customizes a Server. Used by tests.
type Option func(*options)

type options struct {
	logger *logging.Logger
	signer signer.Signer
	clock  clock.Clock
}

// WithLogger replaces the logger built from config.
func WithLogger(l *logging.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithSigner replaces the signer built from config.
func WithSigner(s signer.Signer) Option {
	return func(o *options) { o.signer = s }
}

// WithClock replaces the wall clock for store TTLs and backoff.
func WithClock(c clock.Clock) Option {
	return func(o *options) { o.clock = c }
}

// New creates a server instance. Nothing connects until Run.
func New(cfg *config.Config, opts ...Option) (*Server, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	logger := o.logger
	if logger == nil {
		l, err := logging.New(logging.Config{Level: cfg.Logging.Level, Development: cfg.Logging.Development})
		if err != nil {
			return nil, fmt.Errorf("failed to build logger: %w", err)
		}
		logger = l
	}

	logger.Info("Initializing UI stream server",
		zap.String("addr", cfg.Server.Addr()),
		zap.Bool("static_url", cfg.Transport.URL != ""),
		zap.String("signer_endpoint", cfg.Transport.SignerEndpoint),
	)

	metrics := monitoring.NewMetrics()
	clk := clock.OrReal(o.clock)

	st := store.New(store.Options{
		CardTTL:         cfg.Store.CardTTL,
		NotificationTTL: cfg.Store.NotificationTTL,
		HighlightTTL:    cfg.Store.HighlightTTL,
		Clock:           clk,
		Logger:          logger.For(logging.ComponentStore),
		Observer:        metrics,
	})

	hub := ws.NewHub(st, ws.Options{
		WriteTimeout: cfg.Transport.WriteTimeout,
		Logger:       logger.For(logging.ComponentViewAPI),
		Observer:     metrics,
	})

	rt := router.New(router.Targets{Store: st, Graphs: hub}, logger.For(logging.ComponentRouter), metrics)

	sgn := o.signer
	if sgn == nil {
		s, err := newSigner(cfg, clk, logger, metrics)
		if err != nil {
			hub.Close()
			st.Close()
			return nil, err
		}
		sgn = s
	}

	tlog := logger.For(logging.ComponentTransport)
	client, err := transport.New(transport.Options{
		Signer: sgn,
		Handlers: transport.Handlers{
			OnConnected: func(connID string) {
				tlog.Info("Event stream open", zap.String("connection_id", connID))
			},
			OnDisconnected: func(d transport.Disconnect) {
				tlog.Info("Event stream closed",
					zap.String("connection_id", d.ConnectionID),
					zap.Bool("terminal", d.Terminal),
					zap.Duration("retry_in", d.Delay))
			},
			OnMessage: rt.OnMessage,
			OnError: func(err error) {
				tlog.Warn("Event stream error", zap.Error(err))
			},
		},
		Backoff: transport.Backoff{
			Base:        cfg.Transport.BackoffBase,
			MaxAttempts: cfg.Transport.MaxAttempts,
		},
		HandshakeTimeout: cfg.Transport.HandshakeTimeout,
		WriteTimeout:     cfg.Transport.WriteTimeout,
		SendRate:         rate.Limit(cfg.Transport.SendRate),
		SendBurst:        cfg.Transport.SendBurst,
		Clock:            clk,
		Logger:           tlog,
		Observer:         metrics,
	})
	if err != nil {
		hub.Close()
		st.Close()
		return nil, fmt.Errorf("failed to create transport: %w", err)
	}

	if !cfg.Logging.Development {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()

	vlog := logger.For(logging.ComponentViewAPI)
	engine.Use(middleware.Recovery(vlog))
	engine.Use(tracing.HTTPMiddleware())
	engine.Use(middleware.Logger(vlog))
	engine.Use(monitoring.Middleware(metrics))
	engine.Use(middleware.CORS(middleware.CORSForOrigins(cfg.Server.AllowedOrigins)))
	if cfg.RateLimit.Enabled {
		logger.Info("Rate limiting enabled",
			zap.Int("rps", cfg.RateLimit.RequestsPerSecond),
			zap.Int("burst", cfg.RateLimit.Burst),
		)
		rl := middleware.DefaultRateLimitConfig()
		rl.RequestsPerSecond = cfg.RateLimit.RequestsPerSecond
		rl.Burst = cfg.RateLimit.Burst
		engine.Use(middleware.RateLimit(rl))
	}
	if cfg.RateLimit.GlobalRPS > 0 {
		gl := middleware.DefaultRateLimitConfig()
		gl.RequestsPerSecond = cfg.RateLimit.GlobalRPS
		gl.Burst = cfg.RateLimit.GlobalBurst
		if gl.Burst <= 0 {
			gl.Burst = gl.RequestsPerSecond
		}
		logger.Info("Global rate limit enabled",
			zap.Int("rps", gl.RequestsPerSecond),
			zap.Int("burst", gl.Burst),
		)
		engine.Use(middleware.GlobalRateLimit(gl))
	}

	var breaker apihttp.Breaker
	if b, ok := sgn.(apihttp.Breaker); ok {
		breaker = b
	}
	apihttp.NewHandlers(st, client, breaker, metrics, vlog).Register(engine)
	engine.GET("/ui/stream", hub.HandleConnection)

	logger.Info("Server initialized successfully")

	return &Server{
		config:    cfg,
		logger:    logger,
		metrics:   metrics,
		store:     st,
		router:    rt,
		hub:       hub,
		signer:    sgn,
		transport: client,
		engine:    engine,
		clock:     clk,
		stopPing:  make(chan struct{}),
	}, nil
}

// newSigner picks the signer from config: a static URL wins over a
// signing endpoint.
func newSigner(cfg *config.Config, clk clock.Clock, logger *logging.Logger, metrics *monitoring.Metrics) (signer.Signer, error) {
	if cfg.Transport.URL != "" {
		return signer.Static(cfg.Transport.URL), nil
	}
	if cfg.Transport.SignerEndpoint == "" {
		return nil, errors.New("one of STREAM_URL or SIGNER_ENDPOINT is required")
	}

	headers := map[string]string{}
	if cfg.Transport.SignerToken != "" {
		headers["Authorization"] = "Bearer " + cfg.Transport.SignerToken
	}
	s, err := signer.NewHTTPSigner(signer.HTTPConfig{
		Endpoint: cfg.Transport.SignerEndpoint,
		Timeout:  cfg.Transport.SignerTimeout,
		Headers:  headers,
		Clock:    clk,
		Logger:   logger.For(logging.ComponentSigner),
		Metrics:  metrics,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create signer: %w", err)
	}
	return s, nil
}

// Handler returns the view API handler.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Store returns the UI store.
func (s *Server) Store() *store.Store {
	return s.store
}

// Transport returns the event stream client.
func (s *Server) Transport() *transport.Client {
	return s.transport
}

// Run connects the event stream and serves the view API until ctx is done,
// then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	s.transport.Connect()
	go s.pingLoop()

	addr := s.config.Server.Addr()
	s.http = &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		return s.Close()
	case err, ok := <-errCh:
		if !ok {
			return s.Close()
		}
		_ = s.Close()
		return fmt.Errorf("http server: %w", err)
	}
}

// pingLoop keeps the stream alive through idle proxies. Pings while the
// socket is down are skipped.
func (s *Server) pingLoop() {
	interval := s.config.Transport.PingInterval
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopPing:
			return
		case <-ticker.C:
			if !s.transport.IsConnected() {
				continue
			}
			if err := s.transport.Send(protocol.KindPing, nil); err != nil {
				s.logger.Debug("Keep-alive ping failed", zap.Error(err))
			}
		}
	}
}

// Close gracefully shuts down the server: the view API first, then the
// event stream, then the store.
func (s *Server) Close() error {
	s.closeOnce.Do(func() { s.closeErr = s.shutdown() })
	return s.closeErr
}

func (s *Server) shutdown() error {
	close(s.stopPing)
	s.logger.Info("Shutting down server...")

	var err error
	if s.http != nil {
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if shutdownErr := s.http.Shutdown(ctx); shutdownErr != nil {
			s.logger.Error("Failed to shut down HTTP server", zap.Error(shutdownErr))
			err = fmt.Errorf("failed to shut down http server: %w", shutdownErr)
		}
	}

	s.hub.Close()
	s.transport.Disconnect()
	s.store.Close()
	s.logger.Info("Closed event stream and store")

	s.logger.Sync()
	return err
}

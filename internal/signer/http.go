package signer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/hashicorp/go-retryablehttp"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/AgentOS/uistream/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/AgentOS/uistream/internal/infrastructure/resilience"
	"github.com/GriffinCanCode/AgentOS/uistream/internal/infrastructure/tracing"
	"github.com/GriffinCanCode/AgentOS/uistream/internal/shared/clock"
)

// HTTPConfig configures an HTTPSigner.
type HTTPConfig struct {
	Endpoint string
	Timeout  time.Duration
	Headers  map[string]string

	// Breaker trips after this many consecutive failures. Zero means 5.
	FailureThreshold uint32
	// BreakerTimeout is how long the breaker stays open. Zero means 30s.
	BreakerTimeout time.Duration

	Clock   clock.Clock
	Logger  *zap.Logger
	Metrics *monitoring.Metrics
}

type signResponse struct {
	URL string `json:"url"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// HTTPSigner asks a signing endpoint for a URL. It never retries: the
// transport's backoff already schedules the next attempt.
type HTTPSigner struct {
	endpoint string
	client   *resty.Client
	breaker  *resilience.Breaker
	logger   *zap.Logger
	metrics  *monitoring.Metrics
}

// NewHTTPSigner creates a signer that POSTs to cfg.Endpoint and expects
// {"url": "..."} back.
func NewHTTPSigner(cfg HTTPConfig) (*HTTPSigner, error) {
	if strings.TrimSpace(cfg.Endpoint) == "" {
		return nil, errors.New("signer endpoint is required")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.FailureThreshold == 0 {
		cfg.FailureThreshold = 5
	}
	if cfg.BreakerTimeout <= 0 {
		cfg.BreakerTimeout = 30 * time.Second
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	// Pooled transport only; retries are the transport's job.
	retryClient := retryablehttp.NewClient()
	retryClient.RetryMax = 0
	retryClient.Logger = nil

	client := resty.New().
		SetTimeout(cfg.Timeout).
		SetRetryCount(0).
		SetHeader("User-Agent", "uistream-signer/1.0").
		SetHeader("Accept", "application/json")
	client.SetTransport(retryClient.HTTPClient.Transport)
	for k, v := range cfg.Headers {
		client.SetHeader(k, v)
	}

	threshold := cfg.FailureThreshold
	breaker := resilience.New("signer", resilience.Settings{
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     cfg.BreakerTimeout,
		Clock:       cfg.Clock,
		ReadyToTrip: func(counts resilience.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		OnStateChange: func(name string, from, to resilience.State) {
			logger.Warn("Signer breaker state changed",
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
	})

	return &HTTPSigner{
		endpoint: cfg.Endpoint,
		client:   client,
		breaker:  breaker,
		logger:   logger,
		metrics:  cfg.Metrics,
	}, nil
}

// SignURL requests a fresh URL.
func (s *HTTPSigner) SignURL(ctx context.Context) (string, error) {
	timer := monitoring.NewTimer(s.metrics)

	url, err := resilience.Call(s.breaker, func() (string, error) {
		return s.request(ctx)
	})
	timer.Stop(err)

	if errors.Is(err, resilience.ErrCircuitOpen) || errors.Is(err, resilience.ErrTooManyRequests) {
		return "", fmt.Errorf("%w: %v", ErrSignerUnavailable, err)
	}
	return url, err
}

// BreakerState exposes the breaker for health reporting.
func (s *HTTPSigner) BreakerState() resilience.State {
	return s.breaker.State()
}

func (s *HTTPSigner) request(ctx context.Context) (string, error) {
	var out signResponse
	var failure errorResponse

	req := s.client.R().
		SetContext(ctx).
		SetResult(&out).
		SetError(&failure)
	if id := tracing.FromContext(ctx); id != "" {
		req.SetHeader(tracing.HeaderTraceID, id.String())
	}

	resp, err := req.Post(s.endpoint)
	if err != nil {
		return "", fmt.Errorf("sign request: %w", err)
	}
	if resp.IsError() {
		if failure.Error != "" {
			return "", fmt.Errorf("sign request: %s: %s", resp.Status(), failure.Error)
		}
		return "", fmt.Errorf("sign request: %s", resp.Status())
	}
	if strings.TrimSpace(out.URL) == "" {
		return "", ErrEmptyURL
	}

	s.logger.Debug("Signed connection url", tracing.Field(ctx), zap.Duration("latency", resp.Time()))
	return out.URL, nil
}

package httpclient

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/bytedance/sonic"
	"github.com/go-resty/resty/v2"
	"github.com/hashicorp/go-retryablehttp"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/GriffinCanCode/bugfinder/internal/infrastructure/resilience"
	"github.com/GriffinCanCode/bugfinder/internal/infrastructure/tracing"
)

// ErrUnavailable is returned while the breaker rejects calls
var ErrUnavailable = errors.New("external service unavailable: circuit breaker open")

// StatusError reports a non-2xx response
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d: %s", e.Code, e.Body)
}

// Config configures an outbound client
type Config struct {
	Name              string
	BaseURL           string
	Timeout           time.Duration
	RetryMax          int
	RetryWaitMin      time.Duration
	RetryWaitMax      time.Duration
	RequestsPerSecond float64
	UserAgent         string
}

// DefaultConfig returns settings for a lenient external API
func DefaultConfig() Config {
	return Config{
		Name:              "http-external",
		Timeout:           30 * time.Second,
		RetryMax:          3,
		RetryWaitMin:      1 * time.Second,
		RetryWaitMax:      30 * time.Second,
		RequestsPerSecond: 0,
		UserAgent:         "BugFinder-HTTP/1.0",
	}
}

// Client wraps resty with rate limiting, retries and a circuit breaker
type Client struct {
	resty   *resty.Client
	limiter *rate.Limiter
	breaker *resilience.Breaker
	logger  *zap.Logger
}

// New creates a client. Retries happen in the retryablehttp transport; resty
// itself does not retry.
func New(cfg Config, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}

	retryClient := retryablehttp.NewClient()
	retryClient.RetryMax = cfg.RetryMax
	retryClient.RetryWaitMin = cfg.RetryWaitMin
	retryClient.RetryWaitMax = cfg.RetryWaitMax
	retryClient.Logger = leveledLogger{logger.Sugar()}
	retryClient.ErrorHandler = retryablehttp.PassthroughErrorHandler

	restyClient := resty.New().
		SetTransport(retryClient.StandardClient().Transport).
		SetTimeout(cfg.Timeout).
		SetBaseURL(cfg.BaseURL).
		SetHeader("User-Agent", cfg.UserAgent).
		SetJSONMarshaler(sonic.Marshal).
		SetJSONUnmarshaler(sonic.Unmarshal)

	breaker := resilience.New(cfg.Name, resilience.Settings{
		MaxRequests: 5,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		// Trip if 10+ consecutive failures OR >70% failure rate with 20+ requests
		ReadyToTrip: func(counts resilience.Counts) bool {
			return counts.ConsecutiveFailures >= 10 ||
				(counts.Requests >= 20 && float64(counts.TotalFailures)/float64(counts.Requests) > 0.7)
		},
		OnStateChange: func(name string, from, to resilience.State) {
			logger.Warn("Circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	})

	return &Client{
		resty:   restyClient,
		limiter: newLimiter(cfg.RequestsPerSecond),
		breaker: breaker,
		logger:  logger,
	}
}

func newLimiter(rps float64) *rate.Limiter {
	if rps <= 0 {
		return rate.NewLimiter(rate.Inf, 0)
	}
	burst := int(rps)
	if burst < 1 {
		burst = 1
	}
	return rate.NewLimiter(rate.Limit(rps), burst)
}

// SetBearerAuth configures bearer token authentication
func (c *Client) SetBearerAuth(token string) {
	c.resty.SetAuthToken(token)
}

// BreakerState returns the current circuit breaker state
func (c *Client) BreakerState() resilience.State {
	return c.breaker.State()
}

// PostJSON posts body to path and decodes a 2xx response into result.
// Only transport errors and 5xx responses count against the breaker.
func (c *Client) PostJSON(ctx context.Context, path string, body, result interface{}) error {
	if c.breaker.Open() {
		return ErrUnavailable
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit error: %w", err)
	}

	headers := map[string]string{}
	tracing.InjectTraceContext(ctx, headers)

	req := c.resty.R().
		SetContext(ctx).
		SetHeaders(headers).
		SetBody(body)
	if result != nil {
		req.SetResult(result)
	}

	resp, err := resilience.Call(c.breaker, func() (*resty.Response, error) {
		resp, err := req.Post(path)
		if err != nil {
			return nil, err
		}
		if resp.StatusCode() >= http.StatusInternalServerError {
			return resp, &StatusError{Code: resp.StatusCode(), Body: resp.String()}
		}
		return resp, nil
	})
	switch {
	case errors.Is(err, resilience.ErrCircuitOpen), errors.Is(err, resilience.ErrTooManyRequests):
		return ErrUnavailable
	case err != nil:
		return err
	}

	if resp.IsError() {
		return &StatusError{Code: resp.StatusCode(), Body: resp.String()}
	}

	c.logger.Debug("External call complete",
		zap.String("path", path),
		zap.Int("status", resp.StatusCode()),
		zap.Duration("duration", resp.Time()),
	)
	return nil
}

// leveledLogger adapts zap to retryablehttp.LeveledLogger
type leveledLogger struct {
	s *zap.SugaredLogger
}

func (l leveledLogger) Error(msg string, kv ...interface{}) { l.s.Errorw(msg, kv...) }
func (l leveledLogger) Info(msg string, kv ...interface{})  { l.s.Debugw(msg, kv...) }
func (l leveledLogger) Debug(msg string, kv ...interface{}) { l.s.Debugw(msg, kv...) }
func (l leveledLogger) Warn(msg string, kv ...interface{})  { l.s.Warnw(msg, kv...) }

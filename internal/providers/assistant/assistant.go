package assistant

import (
	"context"
	"errors"
	"fmt"
	"html"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/microcosm-cc/bluemonday"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/bugfinder/internal/infrastructure/httpclient"
	"github.com/GriffinCanCode/bugfinder/internal/infrastructure/monitoring"
)

// Assistant errors
var (
	ErrEmptyQuestion = errors.New("question is required")
	ErrDisabled      = errors.New("assistant is not configured")
)

const (
	completionsPath = "/chat/completions"
	maxCodeBytes    = 16 * 1024

	systemPrompt = "You are BugFinder Assistant, a concise helper for JavaScript developers. " +
		"Answer questions about errors, languages, code style and debugging. " +
		"When a code snippet is attached, refer to it directly. Reply in plain text."
)

// Config configures the remote completion service
type Config struct {
	Enabled           bool
	BaseURL           string
	APIKey            string
	Model             string
	Timeout           time.Duration
	RequestsPerSecond float64
}

// Ready reports whether requests can be forwarded
func (c Config) Ready() bool {
	return c.Enabled && c.APIKey != "" && c.BaseURL != ""
}

// Request is a question with an optional snippet for context
type Request struct {
	Question string `json:"question"`
	Code     string `json:"code,omitempty"`
}

// Answer is the sanitized reply
type Answer struct {
	Answer string `json:"answer"`
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type completionRequest struct {
	Model    string    `json:"model"`
	Messages []message `json:"messages"`
}

type completionResponse struct {
	Choices []struct {
		Message message `json:"message"`
	} `json:"choices"`
}

// Assistant forwards developer questions to an OpenAI-compatible API
type Assistant struct {
	cfg       Config
	client    *httpclient.Client
	sanitizer *bluemonday.Policy
	logger    *zap.Logger
	metrics   *monitoring.Metrics
}

// New creates an assistant. A config that is not Ready yields an assistant
// whose Ask always returns ErrDisabled.
func New(cfg Config, logger *zap.Logger) *Assistant {
	if logger == nil {
		logger = zap.NewNop()
	}

	a := &Assistant{
		cfg:       cfg,
		sanitizer: bluemonday.StrictPolicy(),
		logger:    logger,
	}

	if cfg.Ready() {
		clientCfg := httpclient.DefaultConfig()
		clientCfg.Name = "assistant"
		clientCfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
		clientCfg.RequestsPerSecond = cfg.RequestsPerSecond
		if cfg.Timeout > 0 {
			clientCfg.Timeout = cfg.Timeout
		}
		a.client = httpclient.New(clientCfg, logger)
		a.client.SetBearerAuth(cfg.APIKey)
	}

	return a
}

// WithMetrics adds metrics tracking to the assistant
func (a *Assistant) WithMetrics(metrics *monitoring.Metrics) *Assistant {
	a.metrics = metrics
	return a
}

// Enabled reports whether Ask can reach the remote service
func (a *Assistant) Enabled() bool {
	return a.client != nil
}

// BreakerState returns the breaker state, or "disabled"
func (a *Assistant) BreakerState() string {
	if a.client == nil {
		return "disabled"
	}
	return a.client.BreakerState().String()
}

// Ask forwards req and returns the first completion with markup removed
func (a *Assistant) Ask(ctx context.Context, req Request) (*Answer, error) {
	question := strings.TrimSpace(req.Question)
	if question == "" {
		return nil, ErrEmptyQuestion
	}
	if a.client == nil {
		a.record("disabled")
		return nil, ErrDisabled
	}

	body := completionRequest{
		Model: a.cfg.Model,
		Messages: []message{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userPrompt(question, req.Code)},
		},
	}

	var resp completionResponse
	if err := a.client.PostJSON(ctx, completionsPath, body, &resp); err != nil {
		a.record("error")
		a.logger.Warn("Assistant request failed", zap.Error(err))
		return nil, fmt.Errorf("assistant request: %w", err)
	}

	if len(resp.Choices) == 0 {
		a.record("empty")
		return nil, errors.New("assistant returned no choices")
	}

	a.record("ok")
	return &Answer{Answer: a.sanitize(resp.Choices[0].Message.Content)}, nil
}

// sanitize strips markup but keeps the text readable
func (a *Assistant) sanitize(s string) string {
	return strings.TrimSpace(html.UnescapeString(a.sanitizer.Sanitize(s)))
}

func (a *Assistant) record(status string) {
	if a.metrics != nil {
		a.metrics.RecordAssistantCall(status)
	}
}

func userPrompt(question, code string) string {
	code = strings.TrimSpace(code)
	if code == "" {
		return question
	}
	code = truncate(code, maxCodeBytes)
	return question + "\n\nCode:\n```javascript\n" + code + "\n```"
}

// truncate cuts s to at most n bytes without splitting a rune.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}

// Package httpclient provides the outbound HTTP client used for external
// APIs.
//
// Built on go-resty/resty with a hashicorp/go-retryablehttp transport:
//   - Retries with exponential backoff on 5xx and 429
//   - Token bucket rate limiting per client
//   - Circuit breaker around every call
//   - JSON encoding through bytedance/sonic
//   - Trace context propagated in X-Trace-ID / X-Span-ID
//
// Example Usage:
//
//	client := httpclient.New(cfg, logger)
//	client.SetBearerAuth(token)
//	err := client.PostJSON(ctx, "/chat/completions", req, &resp)
package httpclient

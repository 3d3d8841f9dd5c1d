// Package assistant answers developer questions through an OpenAI-compatible
// chat completions API.
//
// Requests go through the shared httpclient (retries, rate limit, circuit
// breaker). Answers are returned as plain text with any markup stripped by
// bluemonday.
package assistant

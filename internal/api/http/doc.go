// Package http implements the REST handlers: analysis, assistant, tips,
// health and metrics.
package http

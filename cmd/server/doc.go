// Package main is the entry point for the BugFinder analysis server.
//
// The server checks JavaScript snippets for bugs: it parses them, scans for
// risky patterns, and runs them in an isolated goja sandbox, reporting one
// categorized result per run.
//
// Architecture:
//
//	Frontend (React) → Go Backend → Analysis pipeline → goja sandbox pool
//	                            → Assistant (OpenAI-compatible API)
//
// The server provides:
//   - REST API for one-shot analysis
//   - WebSocket streaming of Checking status and result
//   - Coding tips and an optional assistant
//   - Prometheus metrics, tracing and rate limiting
//
// Configuration:
//   - Environment variables (12-factor)
//   - CLI flags (override env vars)
//   - Defaults for development
//
// Usage:
//
//	# Production mode
//	./server -port 8000
//
//	# Development mode (colored logs, debug level)
//	./server -dev
//
// Signals:
//   - SIGINT, SIGTERM: Graceful shutdown
package main

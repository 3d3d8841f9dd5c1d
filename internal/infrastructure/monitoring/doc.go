/*
Package monitoring provides Prometheus metrics for the analysis service.

# Overview

Each Metrics value owns a private registry. HTTP traffic, analysis runs,
per-stage latency, sandbox availability, assistant calls and WebSocket
traffic are tracked.

# Usage

	metrics := monitoring.NewMetrics()
	router.Use(monitoring.Middleware(metrics))
	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	timer := monitoring.NewTimer(metrics, "validate")
	// ... perform stage ...
	timer.Stop()
*/
package monitoring

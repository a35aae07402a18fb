/*
Package monitoring provides Prometheus metrics for schedctl.

# Overview

Metrics live on a dedicated registry so several collectors can coexist in
one process (tests build one per case).

# Features

  - HTTP request metrics (latency, throughput)
  - Syscall metrics by name and status, ticket transfers by outcome
  - Scheduler gauges sampled on every clock tick (policy, live processes,
    live tickets, uptime)

# Usage

	metrics := monitoring.NewMetrics()
	router.Use(monitoring.Middleware(metrics))
	dispatcher.WithRecorder(metrics)
	router.GET("/metrics", gin.WrapH(metrics.Handler()))
*/
package monitoring

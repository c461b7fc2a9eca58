/*
Package monitoring provides Prometheus metrics for the backend.

# Overview

Metrics tracks HTTP traffic, service tool calls and the optimization
bridge: invocations per backend variant, failures by kind, the active
variant and how often allocations fell back to the classical optimizer.
It satisfies quantum.Recorder so the bridge reports into it directly.

# Usage

	reg := prometheus.NewRegistry()
	metrics := monitoring.NewMetrics(reg)

	router.Use(monitoring.Middleware(metrics))
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))

	bridge := quantum.NewBridge(backend, nil, quantum.Options{Recorder: metrics})

Snapshot returns running totals for the JSON endpoint.
*/
package monitoring

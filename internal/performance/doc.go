// Package performance turns browser metrics into optimization decisions.
//
// A Store keeps the last 100 samples of each (category, metric) series and
// answers windowed averages. A Collector fills it on a schedule and
// periodically runs the NetworkOptimizer, which maps averaged bandwidth,
// latency and connection counts onto three allocation variables:
//
//	prioritizeBandwidth, reduceLowPriorityRequests, limitConcurrentConnections
//
// The PageLoadOptimizer scores page subresources, couples dependent ones
// and turns the resulting allocation into preconnect, preload, prefetch
// and defer tiers.
//
// Both optimizers go through an Allocator, normally the quantum bridge,
// which always answers with a usable allocation.
package performance

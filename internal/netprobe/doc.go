/*
Package netprobe measures network conditions for the optimizers.

A Client issues a HEAD request to time the round trip and a GET to
estimate throughput, over a retrying transport with a request rate
limit. Sampler adapts it to performance.NetworkSampler so the metric
collector can record bandwidth, latency and open connections.
*/
package netprobe

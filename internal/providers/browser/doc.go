// Package browser registers the "browser" service: page-load plans built
// from explicit resources, inline HTML or a fetched page; network toggles
// and real-time strategies from collected metrics; and page timing
// ingestion.
//
//	provider := browser.New(browser.Config{
//		Pages:   performance.NewPageLoadOptimizer(bridge, logger),
//		Network: networkOptimizer,
//		Store:   store,
//		Fetcher: probeClient,
//	})
//	registry.Register(provider)
package browser

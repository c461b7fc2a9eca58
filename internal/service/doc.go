// Package service provides the registry that exposes bridge and browser
// optimizations as discoverable tools.
//
// Providers register a types.Service definition; callers list them by
// category, discover them from a free-text query with keyword relevance
// scoring, and execute tools by "service.tool" ID:
//
//	registry := service.NewRegistry()
//	registry.Register(quantumProvider)
//	services := registry.Discover("allocate tab resources", 5)
//	result, err := registry.Execute(ctx, "quantum.optimize_allocation", params, appCtx)
package service

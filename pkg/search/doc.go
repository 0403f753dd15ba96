// Package search composes the slate result pipeline into a single service.
//
// # Overview
//
// A search runs in fixed stages. The store executes the full-text query and
// assigns each hit a relevance score. The facet evaluator then removes
// results that fail the active filters, the label stage applies the
// free-text attribute match, and the ranker orders what is left by relevance
// with a stable kind tie-break. Scores are assigned exactly once, by the
// store: later stages only remove or reorder results.
//
// # Architecture
//
// The package is built around two components:
//
//   - Service: executes the staged pipeline against a Searcher
//   - Parameter parsing: converts HTTP query strings into structured Params
//
// The same pipeline backs the REST API, the live WebSocket endpoint and the
// CLI, so filter semantics cannot drift between interfaces.
//
// # Usage
//
//	service := search.NewService(store)
//	results, err := service.Search(ctx, search.Params{
//		Query: "interview",
//		Kind:  core.KindAsset,
//		Limit: 30,
//	})
package search

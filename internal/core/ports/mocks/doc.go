// Package mocks provides test doubles for ports interfaces.
//
// These mocks are simple, thread-safe, in-memory implementations suitable
// for unit testing. Each mock provides:
//
//   - Default behavior that mirrors the storage semantics
//   - Callback functions (xxxFn) for injecting failures per test
//   - Inspection helpers for assertions
//
// # Usage Example
//
//	func TestPipeline(t *testing.T) {
//		store := mocks.NewStore()
//		svc := pipeline.New(store, ...)
//		// ... run and inspect store.Articles()
//	}
//
// # Available Mocks
//
//   - Store: implements ports.ArticleRepository and ports.PaperRepository
package mocks

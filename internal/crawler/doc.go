// Package crawler drives the collection of Reddit threads into a corpus.
//
// # Components
//
//   - Flattener: turns a nested comment tree into flat CommentRecords,
//     lazily and without recursion
//   - Orchestrator: walks the search space, filters and classifies
//     candidates, fetches and flattens threads, and stops when the corpus
//     targets are met
//
// # Resumability
//
// The Orchestrator consults the crawl state before filtering and persists
// it after every batch and processed post. A post marked checked is never
// classified or fetched again, by this run or any later one. With a
// relevance gate, candidates are marked while the classified batch is
// walked, so a run that stops mid-batch leaves the unvisited rest of the
// batch for the next run. Without a gate, posts are marked only once their
// thread was written.
//
// # Politeness
//
// The crawl is strictly sequential. Fixed delays follow every search,
// thread fetch and classifier call, on top of the fetcher's backoff.
//
// # Usage
//
//	orch, err := crawler.NewOrchestrator(crawler.Deps{
//	    Searcher: client,
//	    Threads:  client,
//	    Store:    store,
//	    Corpus:   corpus,
//	}, settings, crawler.WithLogger(logger))
//	result, err := orch.Run(ctx, cfg.SearchTargets(), model.RunningTotals{})
package crawler

package crawler

import "errors"

var (
	// ErrPersistence is returned when crawl state could not be loaded or
	// saved. It aborts the run: continuing would re-crawl or lose progress.
	ErrPersistence = errors.New("crawl state persistence failed")

	// ErrSink is returned when an output sink could not be opened or
	// written. It aborts the run.
	ErrSink = errors.New("output sink failed")

	// ErrMissingDependency is returned by NewOrchestrator when a component
	// required by the selected mode is nil.
	ErrMissingDependency = errors.New("missing orchestrator dependency")
)

package state

import (
	"context"

	"github.com/nao1215/redditcorpus/internal/model"
)

// Store loads and persists the crawl state.
// Both JSONStore and SQLiteStore implement it.
type Store interface {
	// Load returns the persisted state. A store that has never been
	// written returns an empty state.
	Load(ctx context.Context) (*model.CrawlState, error)

	// Persist writes the whole state. Ids already stored stay stored.
	Persist(ctx context.Context, state *model.CrawlState) error
}

var (
	_ Store = (*JSONStore)(nil)
	_ Store = (*SQLiteStore)(nil)
)

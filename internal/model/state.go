package model

import "sort"

// IDSet is a set of post ids.
type IDSet map[string]struct{}

// NewIDSet returns a set holding ids.
func NewIDSet(ids ...string) IDSet {
	s := make(IDSet, len(ids))
	for _, id := range ids {
		s.Add(id)
	}
	return s
}

// Add inserts id. Adding an id twice has no further effect.
func (s IDSet) Add(id string) {
	s[id] = struct{}{}
}

// Has reports whether id is in the set.
func (s IDSet) Has(id string) bool {
	_, ok := s[id]
	return ok
}

// Sorted returns the ids in ascending order. Persisted files use this
// order so that re-runs produce stable diffs.
func (s IDSet) Sorted() []string {
	ids := make([]string, 0, len(s))
	for id := range s {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// CrawlState tracks which posts have been looked at and which were
// accepted into the corpus, across runs.
//
// Included is always a subset of Checked: MarkIncluded also marks the id
// as checked. Both sets only grow.
type CrawlState struct {
	Checked  IDSet
	Included IDSet
}

// NewCrawlState returns an empty state.
func NewCrawlState() *CrawlState {
	return &CrawlState{
		Checked:  make(IDSet),
		Included: make(IDSet),
	}
}

// IsChecked reports whether the post was already examined.
func (s *CrawlState) IsChecked(id string) bool {
	return s.Checked.Has(id)
}

// IsIncluded reports whether the post was accepted into the corpus.
func (s *CrawlState) IsIncluded(id string) bool {
	return s.Included.Has(id)
}

// MarkChecked records that the post was examined.
func (s *CrawlState) MarkChecked(id string) {
	s.Checked.Add(id)
}

// MarkIncluded records that the post was accepted.
func (s *CrawlState) MarkIncluded(id string) {
	s.Checked.Add(id)
	s.Included.Add(id)
}

// Len returns the sizes of both sets.
func (s *CrawlState) Len() (checked, included int) {
	return len(s.Checked), len(s.Included)
}

package model

// RunningTotals counts what a run has collected so far.
// The counters only grow; Add ignores negative deltas.
type RunningTotals struct {
	Posts    int `json:"posts"`
	Comments int `json:"comments"`
	Words    int `json:"words"`
}

// Add accumulates one unit of work.
func (t *RunningTotals) Add(posts, comments, words int) {
	if posts > 0 {
		t.Posts += posts
	}
	if comments > 0 {
		t.Comments += comments
	}
	if words > 0 {
		t.Words += words
	}
}

// Targets are the corpus-size goals of a run. A zero field is not a goal.
type Targets struct {
	Posts    int `yaml:"posts" json:"posts"`
	Comments int `yaml:"comments" json:"comments"`
	Words    int `yaml:"words" json:"words"`
}

// IsZero reports whether no target is configured.
func (t Targets) IsZero() bool {
	return t.Posts <= 0 && t.Comments <= 0 && t.Words <= 0
}

// Met reports whether every configured target is reached at the same time.
// With no target configured it never reports true, so the whole search
// space is crawled.
func (t Targets) Met(totals RunningTotals) bool {
	if t.IsZero() {
		return false
	}
	if t.Posts > 0 && totals.Posts < t.Posts {
		return false
	}
	if t.Comments > 0 && totals.Comments < t.Comments {
		return false
	}
	if t.Words > 0 && totals.Words < t.Words {
		return false
	}
	return true
}

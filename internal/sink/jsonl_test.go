package sink

import (
	"bufio"
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/goccy/go-json"

	"github.com/nao1215/redditcorpus/internal/model"
)

func testRecord(id, text string) model.CommentRecord {
	return model.CommentRecord{
		ID:        id,
		Text:      text,
		Timestamp: "2023-11-14T22:13:20Z",
		Source:    model.SourceReddit,
		Metadata: model.RecordMetadata{
			Subreddit: "recruiting",
			PostTitle: "AI screening",
			URL:       "https://www.reddit.com/r/recruiting/comments/p1/ai_screening/",
		},
	}
}

func readLines(t *testing.T, path string) []string {
	t.Helper()

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("failed to open %s: %v", path, err)
	}
	defer f.Close()

	var lines []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		lines = append(lines, sc.Text())
	}
	if err := sc.Err(); err != nil {
		t.Fatalf("failed to read %s: %v", path, err)
	}
	return lines
}

// TestRecordEncoder tests the JSON lines encoding of records.
func TestRecordEncoder(t *testing.T) {
	t.Parallel()

	t.Run("one object per line", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		enc := NewRecordEncoder(&buf)
		for _, id := range []string{"a", "b", "c"} {
			if err := enc.Write(testRecord(id, "text "+id)); err != nil {
				t.Fatalf("Write() error = %v", err)
			}
		}
		if err := enc.Close(); err != nil {
			t.Fatalf("Close() error = %v", err)
		}

		lines := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
		if len(lines) != 3 {
			t.Fatalf("got %d lines, want 3", len(lines))
		}
		var rec model.CommentRecord
		if err := json.Unmarshal([]byte(lines[1]), &rec); err != nil {
			t.Fatalf("line is not JSON: %v", err)
		}
		if rec.ID != "b" || rec.Metadata.Subreddit != "recruiting" {
			t.Errorf("unexpected record %+v", rec)
		}
		if enc.Count() != 3 {
			t.Errorf("Count() = %d, want 3", enc.Count())
		}
	})

	t.Run("keeps non-ASCII and HTML characters", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		enc := NewRecordEncoder(&buf)
		if err := enc.Write(testRecord("x", "café <b>&</b> 日本")); err != nil {
			t.Fatalf("Write() error = %v", err)
		}
		if err := enc.Flush(); err != nil {
			t.Fatalf("Flush() error = %v", err)
		}

		out := buf.String()
		if !strings.Contains(out, "café <b>&</b> 日本") {
			t.Errorf("text was escaped: %s", out)
		}
	})

	t.Run("field names", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		enc := NewRecordEncoder(&buf)
		if err := enc.Write(testRecord("x", "y")); err != nil {
			t.Fatalf("Write() error = %v", err)
		}
		_ = enc.Flush()

		for _, key := range []string{`"id"`, `"text"`, `"timestamp"`, `"source":"reddit"`, `"metadata"`, `"subreddit"`, `"post_title"`, `"url"`} {
			if !strings.Contains(buf.String(), key) {
				t.Errorf("output missing %s: %s", key, buf.String())
			}
		}
	})
}

// TestPostFileName tests the per-post file naming.
func TestPostFileName(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		target model.SearchTarget
		postID string
		want   string
	}{
		{
			name:   "spaces become underscores",
			target: model.SearchTarget{Subreddit: "recruiting", Keyword: "AI recruitment"},
			postID: "1ph6qhq",
			want:   "recruiting_AI_recruitment_1ph6qhq.jsonl",
		},
		{
			name:   "single word",
			target: model.SearchTarget{Subreddit: "jobs", Keyword: "ATS"},
			postID: "abc",
			want:   "jobs_ATS_abc.jsonl",
		},
		{
			name:   "slashes do not create directories",
			target: model.SearchTarget{Subreddit: "jobs", Keyword: "AI/ML hiring"},
			postID: "abc",
			want:   "jobs_AI_ML_hiring_abc.jsonl",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := PostFileName(tt.target, model.PostCandidate{ID: tt.postID})
			if got != tt.want {
				t.Errorf("PostFileName() = %s, want %s", got, tt.want)
			}
		})
	}
}

// TestPerPostSink tests that each post gets its own, truncated file.
func TestPerPostSink(t *testing.T) {
	t.Parallel()

	dir := filepath.Join(t.TempDir(), "out")
	s, err := NewPerPostSink(dir)
	if err != nil {
		t.Fatalf("NewPerPostSink() error = %v", err)
	}

	target := model.SearchTarget{Subreddit: "recruiting", Keyword: "AI hiring"}
	post := model.PostCandidate{ID: "p1"}

	write := func(ids ...string) {
		t.Helper()
		w, err := s.Begin(target, post)
		if err != nil {
			t.Fatalf("Begin() error = %v", err)
		}
		for _, id := range ids {
			if err := w.Write(testRecord(id, "t")); err != nil {
				t.Fatalf("Write() error = %v", err)
			}
		}
		if err := w.Close(); err != nil {
			t.Fatalf("Close() error = %v", err)
		}
	}

	write("a", "b", "c")
	write("d")

	path := s.Path(target, post)
	if filepath.Base(path) != "recruiting_AI_hiring_p1.jsonl" {
		t.Errorf("unexpected path %s", path)
	}
	lines := readLines(t, path)
	if len(lines) != 1 || !strings.Contains(lines[0], `"id":"d"`) {
		t.Errorf("file was not rewritten: %v", lines)
	}
}

// TestFileSink tests that threads are appended to one corpus file.
func TestFileSink(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "corpus", "reddit_crawl_final.jsonl")

	s, err := OpenFileSink(path)
	if err != nil {
		t.Fatalf("OpenFileSink() error = %v", err)
	}
	for i, ids := range [][]string{{"a", "b"}, {"c"}} {
		w, err := s.Begin(model.SearchTarget{}, model.PostCandidate{ID: string(rune('x' + i))})
		if err != nil {
			t.Fatalf("Begin() error = %v", err)
		}
		for _, id := range ids {
			if err := w.Write(testRecord(id, "t")); err != nil {
				t.Fatalf("Write() error = %v", err)
			}
		}
		if err := w.Close(); err != nil {
			t.Fatalf("Close() error = %v", err)
		}
	}

	// Flushed per thread, readable before the sink is closed.
	if got := len(readLines(t, path)); got != 3 {
		t.Errorf("got %d lines before Close, want 3", got)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	// Reopening appends.
	s, err = OpenFileSink(path)
	if err != nil {
		t.Fatalf("OpenFileSink() error = %v", err)
	}
	w, _ := s.Begin(model.SearchTarget{}, model.PostCandidate{ID: "z"})
	if err := w.Write(testRecord("d", "t")); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	_ = w.Close()
	_ = s.Close()

	if got := len(readLines(t, path)); got != 4 {
		t.Errorf("got %d lines after reopen, want 4", got)
	}
	if s.Path() != path {
		t.Errorf("Path() = %s", s.Path())
	}
}

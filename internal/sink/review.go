package sink

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strconv"

	"github.com/nao1215/redditcorpus/internal/crawler"
	"github.com/nao1215/redditcorpus/internal/model"
)

var _ crawler.ReviewSink = (*ReviewCSV)(nil)

// ReviewCSV appends accepted posts to the manual review sheet.
// The header row is written only when the file is new or empty.
type ReviewCSV struct {
	path string
	file *os.File
	w    *csv.Writer
}

// OpenReviewCSV opens path for appending.
func OpenReviewCSV(path string) (*ReviewCSV, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}
	f, err := os.OpenFile(filepath.Clean(path), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("failed to stat %s: %w", path, err)
	}

	r := &ReviewCSV{
		path: path,
		file: f,
		w:    csv.NewWriter(f),
	}
	if info.Size() == 0 {
		if err := r.write(model.ReviewColumns); err != nil {
			_ = f.Close()
			return nil, err
		}
	}
	return r, nil
}

// WriteRow appends one row and flushes it.
func (r *ReviewCSV) WriteRow(row model.ReviewRow) error {
	return r.write([]string{
		row.Keyword,
		row.Subreddit,
		row.PostID,
		row.Title,
		row.Selftext,
		strconv.Itoa(row.NumComments),
		row.URL,
		row.CreatedUTC,
	})
}

func (r *ReviewCSV) write(record []string) error {
	if err := r.w.Write(record); err != nil {
		return fmt.Errorf("failed to write %s: %w", r.path, err)
	}
	r.w.Flush()
	if err := r.w.Error(); err != nil {
		return fmt.Errorf("failed to write %s: %w", r.path, err)
	}
	return nil
}

// Close closes the sheet.
func (r *ReviewCSV) Close() error {
	r.w.Flush()
	if err := r.w.Error(); err != nil {
		_ = r.file.Close()
		return err
	}
	return r.file.Close()
}

// LoadReviewTotals reads an existing review sheet and returns the totals
// it already accounts for: one post per row and the sum of num_comments.
// A missing file yields zero totals.
func LoadReviewTotals(path string) (model.RunningTotals, error) {
	var totals model.RunningTotals

	f, err := os.Open(filepath.Clean(path))
	if errors.Is(err, fs.ErrNotExist) {
		return totals, nil
	}
	if err != nil {
		return totals, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if errors.Is(err, io.EOF) {
		return totals, nil
	}
	if err != nil {
		return totals, fmt.Errorf("%w: %s: %w", ErrMalformedReview, path, err)
	}
	col := slices.Index(header, "num_comments")
	if col < 0 {
		return totals, fmt.Errorf("%w: %s: no num_comments column", ErrMalformedReview, path)
	}

	for row := 1; ; row++ {
		record, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return totals, fmt.Errorf("%w: %s: %w", ErrMalformedReview, path, err)
		}
		if col >= len(record) {
			return totals, fmt.Errorf("%w: %s: row %d has no num_comments", ErrMalformedReview, path, row)
		}
		n, err := strconv.Atoi(record[col])
		if err != nil {
			return totals, fmt.Errorf("%w: %s: row %d: %w", ErrMalformedReview, path, row, err)
		}
		totals.Add(1, n, 0)
	}
	return totals, nil
}

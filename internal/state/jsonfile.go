package state

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/goccy/go-json"

	"github.com/nao1215/redditcorpus/internal/model"
)

// JSONStore keeps the crawl state in two files, each a JSON array of
// post ids sorted in ascending order.
type JSONStore struct {
	checkedPath  string
	includedPath string
}

// NewJSONStore returns a store backed by the two given files.
// The files do not need to exist yet.
func NewJSONStore(checkedPath, includedPath string) *JSONStore {
	return &JSONStore{
		checkedPath:  checkedPath,
		includedPath: includedPath,
	}
}

// Load reads both files. A missing or empty file is an empty set.
func (s *JSONStore) Load(ctx context.Context) (*model.CrawlState, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	checked, err := readIDs(s.checkedPath)
	if err != nil {
		return nil, err
	}
	included, err := readIDs(s.includedPath)
	if err != nil {
		return nil, err
	}

	st := model.NewCrawlState()
	for _, id := range checked {
		st.MarkChecked(id)
	}
	for _, id := range included {
		st.MarkIncluded(id)
	}
	return st, nil
}

// Persist overwrites both files. Each file is replaced atomically, the
// checked file first, so an interrupted write never leaves an included
// id that is not also in the checked file.
//
// Every call rewrites the full sets, so a run costs time quadratic in the
// number of ids. That is fine for a few thousand posts; use the sqlite
// backend, which writes only changed ids, for larger crawls.
func (s *JSONStore) Persist(_ context.Context, st *model.CrawlState) error {
	if err := writeIDs(s.checkedPath, st.Checked.Sorted()); err != nil {
		return err
	}
	return writeIDs(s.includedPath, st.Included.Sorted())
}

func readIDs(path string) ([]string, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}

	var ids []string
	if err := json.Unmarshal(data, &ids); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrCorruptState, path, err)
	}
	return ids, nil
}

// writeIDs writes to a temporary file in the target directory and
// renames it over path.
func writeIDs(path string, ids []string) error {
	if ids == nil {
		ids = []string{}
	}
	data, err := json.Marshal(ids)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", path, err)
	}
	data = append(data, '\n')

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return fmt.Errorf("failed to create state directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temporary file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() {
		_ = os.Remove(tmpName) // no-op after a successful rename
	}()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to sync %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", path, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("failed to replace %s: %w", path, err)
	}
	return nil
}

package sink

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/goccy/go-json"

	"github.com/nao1215/redditcorpus/internal/crawler"
	"github.com/nao1215/redditcorpus/internal/model"
)

var (
	_ crawler.CorpusSink   = (*PerPostSink)(nil)
	_ crawler.CorpusSink   = (*FileSink)(nil)
	_ crawler.RecordWriter = (*RecordEncoder)(nil)
)

// RecordEncoder writes comment records as JSON lines. Non-ASCII text and
// HTML characters are written as is.
type RecordEncoder struct {
	buf    *bufio.Writer
	enc    *json.Encoder
	closer io.Closer
	count  int
}

// NewRecordEncoder returns an encoder writing to w. If w is an
// io.Closer, Close closes it after flushing.
func NewRecordEncoder(w io.Writer) *RecordEncoder {
	buf := bufio.NewWriter(w)
	enc := json.NewEncoder(buf)
	enc.SetEscapeHTML(false)

	e := &RecordEncoder{
		buf: buf,
		enc: enc,
	}
	if c, ok := w.(io.Closer); ok {
		e.closer = c
	}
	return e
}

// Write encodes rec on its own line.
func (e *RecordEncoder) Write(rec model.CommentRecord) error {
	if err := e.enc.Encode(rec); err != nil {
		return fmt.Errorf("failed to encode record %s: %w", rec.ID, err)
	}
	e.count++
	return nil
}

// Count returns the number of records written.
func (e *RecordEncoder) Count() int {
	return e.count
}

// Flush writes buffered lines to the underlying writer.
func (e *RecordEncoder) Flush() error {
	return e.buf.Flush()
}

// Close flushes and closes the underlying writer if it is closable.
func (e *RecordEncoder) Close() error {
	err := e.buf.Flush()
	if e.closer != nil {
		if cerr := e.closer.Close(); err == nil {
			err = cerr
		}
	}
	return err
}

// PostFileName returns the per-post corpus file name:
// "{subreddit}_{keyword with underscores}_{post id}.jsonl".
func PostFileName(target model.SearchTarget, post model.PostCandidate) string {
	keyword := strings.Map(func(r rune) rune {
		switch r {
		case ' ', '/', '\\':
			return '_'
		}
		return r
	}, target.Keyword)
	return fmt.Sprintf("%s_%s_%s.jsonl", target.Subreddit, keyword, post.ID)
}

// PerPostSink writes each thread to its own file in a directory.
// Fetching the same post again rewrites its file.
type PerPostSink struct {
	dir string
}

// NewPerPostSink creates dir if needed and returns a sink writing into it.
func NewPerPostSink(dir string) (*PerPostSink, error) {
	if err := os.MkdirAll(dir, 0750); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}
	return &PerPostSink{dir: dir}, nil
}

// Path returns the file the records of post are written to.
func (s *PerPostSink) Path(target model.SearchTarget, post model.PostCandidate) string {
	return filepath.Join(s.dir, PostFileName(target, post))
}

// Begin truncates the post file and returns a writer for it.
func (s *PerPostSink) Begin(target model.SearchTarget, post model.PostCandidate) (crawler.RecordWriter, error) {
	path := s.Path(target, post)
	f, err := os.OpenFile(filepath.Clean(path), os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	return NewRecordEncoder(f), nil
}

// FileSink appends every thread to one corpus file.
type FileSink struct {
	path string
	file *os.File
	enc  *RecordEncoder
}

// OpenFileSink opens path for appending, creating it and its directory
// if needed.
func OpenFileSink(path string) (*FileSink, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}
	f, err := os.OpenFile(filepath.Clean(path), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	return &FileSink{
		path: path,
		file: f,
		enc:  NewRecordEncoder(f),
	}, nil
}

// Path returns the corpus file path.
func (s *FileSink) Path() string {
	return s.path
}

// Begin returns a writer appending to the corpus file. Closing it
// flushes the thread but keeps the file open.
func (s *FileSink) Begin(model.SearchTarget, model.PostCandidate) (crawler.RecordWriter, error) {
	return threadWriter{enc: s.enc}, nil
}

// Close flushes and closes the corpus file.
func (s *FileSink) Close() error {
	return s.enc.Close()
}

type threadWriter struct {
	enc *RecordEncoder
}

func (w threadWriter) Write(rec model.CommentRecord) error {
	return w.enc.Write(rec)
}

func (w threadWriter) Close() error {
	return w.enc.Flush()
}

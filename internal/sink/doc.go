// Package sink writes what a crawl produces.
//
// Corpus sinks receive comment records one thread at a time and write
// them as JSON lines:
//   - PerPostSink: one file per post, rewritten on every fetch
//   - FileSink: a single append-only corpus file
//
// ReviewCSV appends accepted posts to the manual review sheet in review
// mode. The summary writers render a finished run, or the run history,
// as plain text, JSON or Markdown.
//
// Records are written in the order the flattener produces them and are
// never buffered beyond the current thread.
package sink

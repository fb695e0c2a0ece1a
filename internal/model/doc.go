// Package model defines the core data structures used throughout redditcorpus.
//
// This package contains the following main types:
//   - SearchTarget: One (subreddit, keyword) pair of the search space
//   - PostCandidate: A post returned by a search page
//   - Thread and Node: The decoded comment tree of a post
//   - CommentRecord: One flat, labeled corpus record
//   - CrawlState: The checked/included post ID sets that make runs resumable
//   - RunningTotals and Targets: Corpus-size counters and stop conditions
//
// Models live in their own package so that the reddit client, the crawler,
// the state store and the sinks can share them without import cycles.
package model

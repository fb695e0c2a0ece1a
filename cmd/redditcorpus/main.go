// Package main provides the entry point for the redditcorpus CLI.
//
// redditcorpus builds a corpus of Reddit discussions about AI in
// recruiting. It searches a set of subreddits for a set of keywords,
// optionally asks an LLM which posts are on topic, and writes every
// comment of the accepted threads as one JSON line.
//
// Usage:
//
//	redditcorpus crawl
//	redditcorpus crawl --mode review --relevance
//	redditcorpus convert saved_thread.json
//	redditcorpus history
//
// See --help for all available options.
package main

// main is the entry point for redditcorpus.
func main() {
	Execute()
}

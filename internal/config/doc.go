// Package config provides configuration structures and utilities for redditcorpus.
// It defines the search space (subreddits and keywords), the filters and
// corpus-size targets, the politeness delays and retry policy, and where
// progress and output files live.
//
// Values come from three layers, later layers winning:
//  1. NewConfig defaults, taken from the collection scripts this tool replaces
//  2. the YAML configuration file (.redditcorpus)
//  3. command line flags
package config

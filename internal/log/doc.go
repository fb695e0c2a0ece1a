// Package log provides secure logging built on top of the standard slog
// package.
//
// The SecureHandler masks sensitive information before it reaches the
// underlying handler:
//   - HTTP headers (Authorization, Cookie, X-Api-Key)
//   - classifier API keys, by attribute name or by their sk-ant- prefix,
//     including keys embedded in error messages
//   - bearer and basic credentials detected by pattern
//
// Even in verbose mode, sensitive values are masked so that crawl logs can
// be shared without leaking credentials.
//
// # Usage
//
//	logger := log.NewSecureLogger(os.Stderr, verbose)
//	logger.Warn("classifier failed", "error", err) // keys inside err are masked
//	slog.SetDefault(logger)
package log

// Package logging provides the leveled logger used across the document store.
//
// Levels, from most to least verbose:
//   - DEBUG: cache bookkeeping and decoder dispatch details
//   - INFO: startup, configuration and lifecycle messages
//   - WARN: degraded behavior (eviction shortfalls, unavailable previews)
//   - ERROR: failures surfaced to a caller
//
// The level is read from LOG_LEVEL (or DEBUG=true) on first use and can be
// overridden with SetLevel, e.g. from a command-line flag.
package logging

// Package logtail reads the tail of the client log file for `potluck logs`.
//
// Read extracts the last N lines with a ring buffer, so memory stays
// O(N) regardless of file size. The log is written by the standard library
// logger, which has no levels, so LevelOf derives one: an explicit level
// word after the timestamp if present, otherwise ERROR for lines that
// mention a failure and INFO for everything else. Filter and Colorize build
// on that classification.
//
// Read returns nil, nil for a missing file.
package logtail

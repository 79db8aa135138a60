// Package logtail reads the tail of the console's own log file for the
// diagnostics screen.
//
// # Reading Log Files
//
// The Read function uses a ring buffer to extract the last maxLines from a
// file, regardless of file size:
//
//   - Scans the file sequentially (one pass)
//   - Uses O(maxLines) memory, not O(file size)
//   - Returns lines in chronological order
//
// A missing file is not an error; it simply has no lines yet.
//
// # Parsing
//
// The log file is written by log/slog with either the text or the JSON
// handler, depending on log_format. Parse accepts both and splits a line into
// time, level, message and remaining attributes:
//
//	time=2025-10-08T21:01:05.000+02:00 level=WARN msg="realtime connection error" error="..."
//	{"time":"2025-10-08T21:01:05Z","level":"INFO","msg":"realtime status","status":"connected"}
//
// Lines that are neither (a panic trace, for instance) keep their raw text as
// the message and no level. Tail applies a minimum level but always keeps
// such lines.
package logtail

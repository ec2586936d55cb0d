// Package log provides a structured event trail for value triggers.
//
// Every trigger transition (armed, refreshed, cancelled, fired, restored,
// expired while offline) and every persistence failure is reported as an
// Event to a Logger. It is separate from operational logging (slog): the
// event trail is a complete machine-readable record that can be replayed
// and analysed with the valuefor-log tool.
//
// # Basic Usage
//
//	// For development: log to console via slog
//	events := log.NewSlogAdapter(slog.Default())
//
//	// For production: write to binary file
//	events, _ := log.NewFileLogger("/var/log/valuefor/events.vlog")
//
//	// Both: use MultiLogger
//	events := log.NewMultiLogger(
//	    log.NewSlogAdapter(slog.Default()),
//	    fileLogger,
//	)
//
// # File Format
//
// Log files are a stream of CBOR-encoded events with integer keys, using
// the .vlog extension.
package log

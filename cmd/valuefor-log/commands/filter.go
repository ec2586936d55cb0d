package commands

import (
	"fmt"
	"io"
	"time"

	"github.com/mash-protocol/valuefor/pkg/log"
)

// FilterOptions specifies filtering criteria shared by all commands.
type FilterOptions struct {
	NodeID    string
	Type      string
	TimeStart string
	TimeEnd   string
}

// BuildFilter converts command-line options into a log filter.
func BuildFilter(opts FilterOptions) (log.Filter, error) {
	filter := log.Filter{NodeID: opts.NodeID}

	if opts.Type != "" {
		t, err := ParseTypeFlag(opts.Type)
		if err != nil {
			return log.Filter{}, err
		}
		filter.Type = &t
	}

	if opts.TimeStart != "" {
		t, err := time.Parse(time.RFC3339, opts.TimeStart)
		if err != nil {
			return log.Filter{}, fmt.Errorf("invalid time-start format: %w", err)
		}
		filter.TimeStart = &t
	}

	if opts.TimeEnd != "" {
		t, err := time.Parse(time.RFC3339, opts.TimeEnd)
		if err != nil {
			return log.Filter{}, fmt.Errorf("invalid time-end format: %w", err)
		}
		filter.TimeEnd = &t
	}

	return filter, nil
}

// ParseTypeFlag parses an event type from a command-line flag (case-insensitive).
func ParseTypeFlag(s string) (log.EventType, error) {
	t, ok := log.ParseEventType(s)
	if !ok {
		return 0, fmt.Errorf("invalid type: %s (must be armed, refreshed, cancelled, fired, restored, expired, or persisterror)", s)
	}
	return t, nil
}

// RunFilter filters the log file and writes matching events to output.
func RunFilter(path, output string, opts FilterOptions, w io.Writer) error {
	filter, err := BuildFilter(opts)
	if err != nil {
		return err
	}

	reader, err := log.NewFilteredReader(path, filter)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer reader.Close()

	logger, err := log.NewFileLogger(output)
	if err != nil {
		return fmt.Errorf("failed to create output logger: %w", err)
	}
	defer logger.Close()

	count := 0
	for {
		event, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("failed to read event: %w", err)
		}

		logger.Log(event)
		count++
	}

	fmt.Fprintf(w, "Filtered %d events to %s\n", count, output)
	return nil
}

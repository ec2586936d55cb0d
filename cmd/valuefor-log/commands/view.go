// Package commands implements the valuefor-log CLI commands.
package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/mash-protocol/valuefor/pkg/log"
)

// formatEvent writes a human-readable representation of the event to w.
func formatEvent(w io.Writer, event log.Event) {
	// Header line: timestamp [node:id] TYPE
	ts := event.Timestamp.UTC().Format("2006-01-02T15:04:05.000Z")
	fmt.Fprintf(w, "%s [node:%s] %s\n", ts, shortenNodeID(event.NodeID), event.Type.String())

	if event.Value != nil {
		fmt.Fprintf(w, "  Value: %s\n", strconv.FormatFloat(*event.Value, 'f', -1, 64))
	}
	if event.Expiry != nil {
		fmt.Fprintf(w, "  Expiry: %s\n", event.Expiry.UTC().Format(time.RFC3339))
	}
	if event.Policy != "" {
		fmt.Fprintf(w, "  Policy: %s\n", event.Policy)
	}
	if event.Message != nil {
		if data, err := json.Marshal(event.Message); err == nil {
			fmt.Fprintf(w, "  Message: %s\n", data)
		}
	}
	if event.Error != "" {
		fmt.Fprintf(w, "  Error: %s\n", event.Error)
	}

	fmt.Fprintln(w) // Blank line between events
}

// shortenNodeID returns the first 8 characters of UUID node IDs and
// leaves short IDs unchanged.
func shortenNodeID(id string) string {
	if len(id) == 36 && id[8] == '-' {
		return id[:8]
	}
	return id
}

// RunView executes the view command.
func RunView(path string, opts FilterOptions, output io.Writer) error {
	filter, err := BuildFilter(opts)
	if err != nil {
		return err
	}

	reader, err := log.NewFilteredReader(path, filter)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer reader.Close()

	for {
		event, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("failed to read event: %w", err)
		}
		formatEvent(output, event)
	}

	return nil
}

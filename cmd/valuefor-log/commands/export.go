package commands

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/mash-protocol/valuefor/pkg/log"
)

// jsonEvent is the JSONL form of an event.
type jsonEvent struct {
	Timestamp time.Time      `json:"timestamp"`
	NodeID    string         `json:"node"`
	Type      string         `json:"type"`
	Value     *float64       `json:"value,omitempty"`
	Expiry    *time.Time     `json:"expiry,omitempty"`
	Policy    string         `json:"policy,omitempty"`
	Message   map[string]any `json:"message,omitempty"`
	Error     string         `json:"error,omitempty"`
}

// RunExport exports the log file to the specified format. An empty output
// writes to stdout.
func RunExport(path, format, output string, opts FilterOptions) error {
	var w io.Writer = os.Stdout
	if output != "" {
		f, err := os.Create(output)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close()
		w = f
	}
	return Export(path, format, opts, w)
}

// Export writes the filtered events of the log file to w.
func Export(path, format string, opts FilterOptions, w io.Writer) error {
	filter, err := BuildFilter(opts)
	if err != nil {
		return err
	}

	var write func(*log.Reader, io.Writer) error
	switch format {
	case "jsonl":
		write = exportJSONL
	case "csv":
		write = exportCSV
	default:
		return fmt.Errorf("unknown format: %s (supported: jsonl, csv)", format)
	}

	reader, err := log.NewFilteredReader(path, filter)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer reader.Close()

	return write(reader, w)
}

func exportJSONL(reader *log.Reader, w io.Writer) error {
	encoder := json.NewEncoder(w)
	for {
		event, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("failed to read event: %w", err)
		}
		if err := encoder.Encode(toJSONEvent(event)); err != nil {
			return fmt.Errorf("failed to encode event: %w", err)
		}
	}
	return nil
}

func toJSONEvent(e log.Event) jsonEvent {
	return jsonEvent{
		Timestamp: e.Timestamp,
		NodeID:    e.NodeID,
		Type:      e.Type.String(),
		Value:     e.Value,
		Expiry:    e.Expiry,
		Policy:    e.Policy,
		Message:   e.Message,
		Error:     e.Error,
	}
}

func exportCSV(reader *log.Reader, w io.Writer) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	header := []string{"timestamp", "node", "type", "value", "expiry", "policy", "error"}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for {
		event, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("failed to read event: %w", err)
		}

		var value, expiry string
		if event.Value != nil {
			value = strconv.FormatFloat(*event.Value, 'f', -1, 64)
		}
		if event.Expiry != nil {
			expiry = event.Expiry.UTC().Format(time.RFC3339Nano)
		}

		row := []string{
			event.Timestamp.UTC().Format(time.RFC3339Nano),
			event.NodeID,
			event.Type.String(),
			value,
			expiry,
			event.Policy,
			event.Error,
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("failed to write row: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}

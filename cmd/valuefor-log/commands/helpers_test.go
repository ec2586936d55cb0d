package commands

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/mash-protocol/valuefor/pkg/log"
)

var base = time.Date(2026, 1, 28, 10, 0, 0, 0, time.UTC)

func ptr(v float64) *float64 { return &v }

// createTestLogFile writes events to a temporary log file.
func createTestLogFile(t *testing.T, events []log.Event) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test"+log.FileExt)

	logger, err := log.NewFileLogger(path)
	if err != nil {
		t.Fatalf("failed to create logger: %v", err)
	}
	for _, e := range events {
		logger.Log(e)
	}
	logger.Close()

	return path
}

func sampleEvents() []log.Event {
	expiry := base.Add(10 * time.Second)
	return []log.Event{
		{Timestamp: base, NodeID: "boiler", Type: log.EventArmed, Value: ptr(41.5), Expiry: &expiry},
		{Timestamp: base.Add(2 * time.Second), NodeID: "boiler", Type: log.EventRefreshed, Value: ptr(42), Expiry: &expiry},
		{Timestamp: base.Add(10 * time.Second), NodeID: "boiler", Type: log.EventFired, Value: ptr(42), Message: map[string]any{"payload": 42.0}},
		{Timestamp: base.Add(20 * time.Second), NodeID: "tank", Type: log.EventArmed, Value: ptr(3)},
		{Timestamp: base.Add(25 * time.Second), NodeID: "tank", Type: log.EventCancelled, Value: ptr(9)},
		{Timestamp: base.Add(30 * time.Second), NodeID: "tank", Type: log.EventPersistError, Error: "disk full"},
	}
}

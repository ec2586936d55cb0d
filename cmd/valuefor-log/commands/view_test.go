package commands

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/mash-protocol/valuefor/pkg/log"
)

func TestFormatEvent(t *testing.T) {
	ts := time.Date(2026, 1, 28, 10, 15, 32, 123000000, time.UTC)
	expiry := ts.Add(time.Minute)
	event := log.Event{
		Timestamp: ts,
		NodeID:    "0b6d2a52-3c1e-5f43-9d4e-8a7b6c5d4e3f",
		Type:      log.EventExpired,
		Value:     ptr(12.5),
		Expiry:    &expiry,
		Policy:    "flag",
		Message:   map[string]any{"payload": 12.5},
	}

	var buf bytes.Buffer
	formatEvent(&buf, event)
	output := buf.String()

	for _, want := range []string{
		"2026-01-28T10:15:32.123Z",
		"[node:0b6d2a52]",
		"Expired",
		"Value: 12.5",
		"Expiry: 2026-01-28T10:16:32Z",
		"Policy: flag",
		`Message: {"payload":12.5}`,
	} {
		if !strings.Contains(output, want) {
			t.Errorf("expected %q in output, got: %s", want, output)
		}
	}
}

func TestShortenNodeID(t *testing.T) {
	if got := shortenNodeID("boiler"); got != "boiler" {
		t.Errorf("shortenNodeID(boiler) = %q", got)
	}
	if got := shortenNodeID("0b6d2a52-3c1e-5f43-9d4e-8a7b6c5d4e3f"); got != "0b6d2a52" {
		t.Errorf("shortenNodeID(uuid) = %q", got)
	}
}

func TestRunViewFiltered(t *testing.T) {
	path := createTestLogFile(t, sampleEvents())

	var buf bytes.Buffer
	if err := RunView(path, FilterOptions{Type: "fired"}, &buf); err != nil {
		t.Fatalf("RunView failed: %v", err)
	}

	output := buf.String()
	if strings.Count(output, "[node:") != 1 {
		t.Errorf("expected one event, got: %s", output)
	}
	if !strings.Contains(output, "Fired") {
		t.Errorf("expected Fired event, got: %s", output)
	}
}

func TestRunViewMissingFile(t *testing.T) {
	var buf bytes.Buffer
	if err := RunView("/nonexistent/file.vlog", FilterOptions{}, &buf); err == nil {
		t.Error("expected error for missing file")
	}
}

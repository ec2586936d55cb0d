package commands

import (
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/mash-protocol/valuefor/pkg/log"
)

// Stats holds aggregate statistics about a log file.
type Stats struct {
	TotalEvents  int
	EventsByType map[log.EventType]int
	Nodes        map[string]*NodeStats
	Errors       int
	TimeRange    struct {
		Start time.Time
		End   time.Time
	}
}

// NodeStats holds statistics for a single node.
type NodeStats struct {
	FirstSeen time.Time
	LastSeen  time.Time
	Events    int
	Armed     int
	Fired     int
	Cancelled int
	Expired   int
}

// FireRate returns the share of armed deadlines that fired.
func (n *NodeStats) FireRate() float64 {
	if n.Armed == 0 {
		return 0
	}
	return float64(n.Fired) / float64(n.Armed)
}

// CollectStats reads the filtered events of the log file.
func CollectStats(path string, opts FilterOptions) (*Stats, error) {
	filter, err := BuildFilter(opts)
	if err != nil {
		return nil, err
	}

	reader, err := log.NewFilteredReader(path, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	defer reader.Close()

	stats := &Stats{
		EventsByType: make(map[log.EventType]int),
		Nodes:        make(map[string]*NodeStats),
	}

	for {
		event, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read event: %w", err)
		}
		stats.add(event)
	}
	return stats, nil
}

func (s *Stats) add(event log.Event) {
	s.TotalEvents++
	s.EventsByType[event.Type]++
	if event.Type == log.EventPersistError {
		s.Errors++
	}

	if s.TimeRange.Start.IsZero() || event.Timestamp.Before(s.TimeRange.Start) {
		s.TimeRange.Start = event.Timestamp
	}
	if event.Timestamp.After(s.TimeRange.End) {
		s.TimeRange.End = event.Timestamp
	}

	node, ok := s.Nodes[event.NodeID]
	if !ok {
		node = &NodeStats{FirstSeen: event.Timestamp, LastSeen: event.Timestamp}
		s.Nodes[event.NodeID] = node
	}
	node.Events++
	if event.Timestamp.Before(node.FirstSeen) {
		node.FirstSeen = event.Timestamp
	}
	if event.Timestamp.After(node.LastSeen) {
		node.LastSeen = event.Timestamp
	}

	switch event.Type {
	case log.EventArmed:
		node.Armed++
	case log.EventFired:
		node.Fired++
	case log.EventCancelled:
		node.Cancelled++
	case log.EventExpired:
		node.Expired++
	}
}

// RunStats analyzes the log file and prints statistics.
func RunStats(path string, opts FilterOptions, w io.Writer) error {
	stats, err := CollectStats(path, opts)
	if err != nil {
		return err
	}
	printStats(w, stats)
	return nil
}

func printStats(w io.Writer, stats *Stats) {
	fmt.Fprintf(w, "Total events: %d\n", stats.TotalEvents)
	if stats.TotalEvents == 0 {
		return
	}

	fmt.Fprintf(w, "Time range: %s - %s (%s)\n",
		stats.TimeRange.Start.UTC().Format(time.RFC3339),
		stats.TimeRange.End.UTC().Format(time.RFC3339),
		stats.TimeRange.End.Sub(stats.TimeRange.Start))
	fmt.Fprintf(w, "Errors: %d\n", stats.Errors)

	fmt.Fprintln(w)
	fmt.Fprintln(w, "By type:")
	types := make([]log.EventType, 0, len(stats.EventsByType))
	for t := range stats.EventsByType {
		types = append(types, t)
	}
	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })
	for _, t := range types {
		fmt.Fprintf(w, "  %s: %d\n", t.String(), stats.EventsByType[t])
	}

	fmt.Fprintln(w)
	fmt.Fprintf(w, "Nodes (%d):\n", len(stats.Nodes))
	ids := make([]string, 0, len(stats.Nodes))
	for id := range stats.Nodes {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		n := stats.Nodes[id]
		fmt.Fprintf(w, "  %s: %d events, armed %d, fired %d, cancelled %d, expired %d, fire rate %.0f%%\n",
			id, n.Events, n.Armed, n.Fired, n.Cancelled, n.Expired, n.FireRate()*100)
	}
}

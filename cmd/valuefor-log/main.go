// Command valuefor-log is a tool for viewing and analyzing valuefor event
// log files.
//
// Event logs are created by running valuefor with the -event-log flag or
// the eventLog configuration key.
//
// Usage:
//
//	valuefor-log <command> [flags] <file.vlog>
//
// Commands:
//
//	view     View log file in human-readable format
//	export   Export log file to JSON or CSV format
//	filter   Filter log file and write to new file
//	stats    Show statistics about the log file
//
// Examples:
//
//	# View all events
//	valuefor-log view events.vlog
//
//	# View only fired deadlines of one node
//	valuefor-log view -node boiler -type fired events.vlog
//
//	# Export to CSV
//	valuefor-log export -format csv -o events.csv events.vlog
//
//	# Keep one day of events
//	valuefor-log filter -time-start 2026-01-28T00:00:00Z -time-end 2026-01-29T00:00:00Z -o day.vlog events.vlog
//
//	# Show statistics
//	valuefor-log stats events.vlog
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/mash-protocol/valuefor/cmd/valuefor-log/commands"
)

const usage = `valuefor-log - valuefor Event Log Analyzer

Usage:
  valuefor-log <command> [flags] <file.vlog>

Commands:
  view     View log file in human-readable format
  export   Export log file to JSON or CSV format
  filter   Filter log file and write to new file
  stats    Show statistics about the log file

Use "valuefor-log <command> -help" for more information about a command.
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(1)
	}

	cmd := os.Args[1]
	args := os.Args[2:]

	switch cmd {
	case "view":
		runView(args)
	case "export":
		runExport(args)
	case "filter":
		runFilter(args)
	case "stats":
		runStats(args)
	case "-h", "-help", "--help", "help":
		fmt.Print(usage)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", cmd)
		fmt.Fprint(os.Stderr, usage)
		os.Exit(1)
	}
}

// newFlagSet creates a flag set with the shared filter flags.
func newFlagSet(name, summary string, opts *commands.FilterOptions) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `valuefor-log %s - %s

Usage:
  valuefor-log %s [flags] <file.vlog>

Flags:
`, name, summary, name)
		fs.PrintDefaults()
	}

	fs.StringVar(&opts.NodeID, "node", "", "Filter by node ID")
	fs.StringVar(&opts.Type, "type", "", "Filter by event type (armed, refreshed, cancelled, fired, restored, expired, persisterror)")
	fs.StringVar(&opts.TimeStart, "time-start", "", "Filter by start time (RFC3339)")
	fs.StringVar(&opts.TimeEnd, "time-end", "", "Filter by end time (RFC3339)")
	return fs
}

// logPath parses args and returns the log file argument.
func logPath(fs *flag.FlagSet, args []string) string {
	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}
	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Error: log file path required")
		fs.Usage()
		os.Exit(1)
	}
	return fs.Arg(0)
}

func fail(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}

func runView(args []string) {
	var opts commands.FilterOptions
	fs := newFlagSet("view", "View log file in human-readable format", &opts)
	path := logPath(fs, args)

	if err := commands.RunView(path, opts, os.Stdout); err != nil {
		fail(err)
	}
}

func runExport(args []string) {
	var opts commands.FilterOptions
	fs := newFlagSet("export", "Export log file to JSON or CSV format", &opts)
	format := fs.String("format", "jsonl", "Output format (jsonl, csv)")
	output := fs.String("o", "", "Output file (default: stdout)")
	path := logPath(fs, args)

	if err := commands.RunExport(path, *format, *output, opts); err != nil {
		fail(err)
	}
}

func runFilter(args []string) {
	var opts commands.FilterOptions
	fs := newFlagSet("filter", "Filter log file and write to new file", &opts)
	output := fs.String("o", "", "Output file (required)")
	path := logPath(fs, args)

	if *output == "" {
		fmt.Fprintln(os.Stderr, "Error: output file (-o) required")
		fs.Usage()
		os.Exit(1)
	}

	if err := commands.RunFilter(path, *output, opts, os.Stdout); err != nil {
		fail(err)
	}
}

func runStats(args []string) {
	var opts commands.FilterOptions
	fs := newFlagSet("stats", "Show statistics about the log file", &opts)
	path := logPath(fs, args)

	if err := commands.RunStats(path, opts, os.Stdout); err != nil {
		fail(err)
	}
}

// Package interactive provides the interactive command-line interface
// for valuefor.
package interactive

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/chzyer/readline"

	"github.com/mash-protocol/valuefor/pkg/message"
	"github.com/mash-protocol/valuefor/pkg/service"
)

// Controller is the part of the service the shell drives.
type Controller interface {
	Input(ref string, msg message.Message) error
	Reset(ref string) error
	Node(ref string) (service.NodeInfo, error)
	Nodes() []service.NodeInfo
}

// Shell handles interactive mode for valuefor.
type Shell struct {
	rl   *readline.Instance
	ctrl Controller
	out  io.Writer
}

// New creates a shell bound to the terminal. Call Attach before Run.
func New() (*Shell, error) {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "valuefor> ",
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
		AutoComplete: readline.NewPrefixCompleter(
			readline.PcItem("send"),
			readline.PcItem("msg"),
			readline.PcItem("reset"),
			readline.PcItem("status"),
			readline.PcItem("nodes"),
			readline.PcItem("help"),
			readline.PcItem("quit"),
		),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create readline: %w", err)
	}
	return &Shell{rl: rl, out: rl.Stdout()}, nil
}

// Attach sets the controller commands act on.
func (s *Shell) Attach(ctrl Controller) {
	s.ctrl = ctrl
}

// Stdout returns a writer that coordinates with the readline prompt.
func (s *Shell) Stdout() io.Writer {
	return s.rl.Stdout()
}

// Stderr returns a writer that coordinates with the readline prompt.
func (s *Shell) Stderr() io.Writer {
	return s.rl.Stderr()
}

// Run starts the interactive command loop.
func (s *Shell) Run(ctx context.Context, cancel context.CancelFunc) {
	defer s.rl.Close()

	s.printHelp()

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		line, err := s.rl.Readline()
		if err != nil {
			// EOF or interrupt
			if err == readline.ErrInterrupt {
				continue
			}
			fmt.Fprintln(s.out, "Exiting...")
			cancel()
			return
		}

		if s.Execute(line) {
			fmt.Fprintln(s.out, "Exiting...")
			cancel()
			return
		}
	}
}

// Execute runs one command line. It returns true when the shell should
// exit.
func (s *Shell) Execute(line string) bool {
	input := strings.TrimSpace(line)
	if input == "" {
		return false
	}

	parts := strings.Fields(input)
	cmd := strings.ToLower(parts[0])
	args := parts[1:]

	switch cmd {
	case "help", "?":
		s.printHelp()

	case "send", "s":
		s.cmdSend(args)

	case "msg", "m":
		s.cmdMsg(input)

	case "reset":
		s.cmdReset(args)

	case "status", "st":
		s.cmdStatus(args)

	case "nodes", "n":
		s.cmdNodes()

	case "quit", "exit", "q":
		return true

	default:
		fmt.Fprintf(s.out, "Unknown command: %s (type 'help' for commands)\n", cmd)
	}
	return false
}

func (s *Shell) printHelp() {
	fmt.Fprintln(s.out, `
valuefor Commands:
  Input:
    send <node> <value>  - Send {"payload": value} to a node
    msg <node> <json>    - Send a JSON message to a node
    reset <node>         - Cancel a pending deadline

  Inspection:
    nodes                - List nodes
    status <node>        - Show node details

  Other:
    help                 - Show this help
    quit                 - Exit`)
}

func (s *Shell) cmdSend(args []string) {
	if len(args) < 2 {
		fmt.Fprintln(s.out, "Usage: send <node> <value>")
		return
	}
	msg := message.Message{message.DefaultField: parseValue(strings.Join(args[1:], " "))}
	s.input(args[0], msg)
}

func (s *Shell) cmdMsg(input string) {
	// Keep the JSON text intact, including its spaces.
	rest := strings.TrimSpace(input[len(strings.Fields(input)[0]):])
	node, raw, ok := strings.Cut(rest, " ")
	if !ok || strings.TrimSpace(raw) == "" {
		fmt.Fprintln(s.out, "Usage: msg <node> <json>")
		return
	}

	var msg message.Message
	if err := json.Unmarshal([]byte(raw), &msg); err != nil {
		fmt.Fprintf(s.out, "Invalid JSON: %v\n", err)
		return
	}
	if msg == nil {
		fmt.Fprintln(s.out, "Invalid JSON: message must be an object")
		return
	}
	s.input(node, msg)
}

func (s *Shell) input(node string, msg message.Message) {
	if err := s.ctrl.Input(node, msg); err != nil {
		fmt.Fprintf(s.out, "Error: %v\n", err)
		return
	}
	s.printNode(node)
}

func (s *Shell) cmdReset(args []string) {
	if len(args) != 1 {
		fmt.Fprintln(s.out, "Usage: reset <node>")
		return
	}
	if err := s.ctrl.Reset(args[0]); err != nil {
		fmt.Fprintf(s.out, "Error: %v\n", err)
		return
	}
	s.printNode(args[0])
}

func (s *Shell) cmdStatus(args []string) {
	if len(args) != 1 {
		fmt.Fprintln(s.out, "Usage: status <node>")
		return
	}
	info, err := s.ctrl.Node(args[0])
	if err != nil {
		fmt.Fprintf(s.out, "Error: %v\n", err)
		return
	}

	fmt.Fprintf(s.out, "Node:      %s\n", info.ID)
	fmt.Fprintf(s.out, "Name:      %s\n", info.Name)
	fmt.Fprintf(s.out, "Store:     %s\n", info.Store)
	fmt.Fprintf(s.out, "Range:     %s\n", info.Range)
	fmt.Fprintf(s.out, "Duration:  %s\n", info.Duration)
	fmt.Fprintf(s.out, "Phase:     %s\n", info.Phase)
	if !info.Expiry.IsZero() {
		fmt.Fprintf(s.out, "Expiry:    %s\n", info.Expiry.Format(time.RFC3339))
	}
	if info.LastValue != nil {
		fmt.Fprintf(s.out, "Value:     %s\n", formatValue(*info.LastValue))
	}
	if info.Status.Text != "" {
		fmt.Fprintf(s.out, "Status:    %s (%s %s)\n", info.Status.Text, info.Status.Fill, info.Status.Shape)
	}
}

func (s *Shell) cmdNodes() {
	nodes := s.ctrl.Nodes()
	if len(nodes) == 0 {
		fmt.Fprintln(s.out, "No nodes configured.")
		return
	}

	tw := tabwriter.NewWriter(s.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tRANGE\tFOR\tPHASE\tVALUE")
	for _, n := range nodes {
		value := "-"
		if n.LastValue != nil {
			value = formatValue(*n.LastValue)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n", n.ID, n.Name, n.Range, n.Duration, n.Phase, value)
	}
	tw.Flush()
}

func (s *Shell) printNode(ref string) {
	info, err := s.ctrl.Node(ref)
	if err != nil {
		return
	}
	line := fmt.Sprintf("%s: %s", info.ID, info.Phase)
	if info.Status.Text != "" {
		line += " (" + info.Status.Text + ")"
	}
	fmt.Fprintln(s.out, line)
}

// parseValue turns a typed argument into a payload: numbers become
// float64, everything else stays a string.
func parseValue(s string) any {
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	return s
}

func formatValue(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/mash-protocol/valuefor/pkg/service"
)

// outputLine is the JSON form of a node output.
type outputLine struct {
	Time time.Time      `json:"time"`
	Node string         `json:"node"`
	Name string         `json:"name,omitempty"`
	Port string         `json:"port"`
	Msg  map[string]any `json:"msg"`
}

func formatOutput(out service.Output) ([]byte, error) {
	line := outputLine{
		Time: out.Time,
		Node: out.NodeID,
		Port: out.Port.String(),
		Msg:  out.Message,
	}
	if out.Name != out.NodeID {
		line.Name = out.Name
	}
	data, err := json.Marshal(line)
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

// outputPrinter writes outputs as JSON lines.
type outputPrinter struct {
	mu sync.Mutex
	w  io.Writer
}

func newOutputPrinter(w io.Writer) *outputPrinter {
	return &outputPrinter{w: w}
}

func (p *outputPrinter) print(out service.Output) {
	data, err := formatOutput(out)
	if err != nil {
		data = []byte(fmt.Sprintf("{\"node\":%q,\"error\":%q}\n", out.NodeID, err.Error()))
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.w.Write(data)
}

package service

import (
	"errors"
	"time"

	"github.com/mash-protocol/valuefor/pkg/match"
	"github.com/mash-protocol/valuefor/pkg/message"
	"github.com/mash-protocol/valuefor/pkg/rangefor"
)

// Service errors.
var (
	ErrAlreadyStarted = errors.New("service already started")
	ErrNotStarted     = errors.New("service not started")
	ErrNodeNotFound   = errors.New("node not found")
)

// ServiceState represents the lifecycle state of the service.
type ServiceState uint8

const (
	// StateIdle - service created but not started.
	StateIdle ServiceState = iota

	// StateStarting - persisted state is being restored.
	StateStarting

	// StateRunning - service accepts input.
	StateRunning

	// StateStopped - service has stopped.
	StateStopped
)

// String returns the state name.
func (s ServiceState) String() string {
	switch s {
	case StateIdle:
		return "IDLE"
	case StateStarting:
		return "STARTING"
	case StateRunning:
		return "RUNNING"
	case StateStopped:
		return "STOPPED"
	default:
		return "UNKNOWN"
	}
}

// Output is a message emitted by a node.
type Output struct {
	NodeID  string
	Name    string
	Port    match.Output
	Message message.Message
	Time    time.Time
}

// OutputHandler receives node outputs.
type OutputHandler func(Output)

// StatusHandler receives node status changes.
type StatusHandler func(nodeID string, status rangefor.Status)

// NodeInfo is a point-in-time view of a node.
type NodeInfo struct {
	ID        string
	Name      string
	Store     string
	Range     string
	Duration  time.Duration
	Phase     match.Phase
	Expiry    time.Time
	LastValue *float64
	Status    rangefor.Status
}

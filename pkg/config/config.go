// Package config loads the valuefor YAML configuration.
//
// A configuration names the persistence stores, the event log, the ingest
// listener and the trigger nodes:
//
//	logLevel: info
//	eventLog: /var/lib/valuefor/events.vlog
//	stores:
//	  default: {type: file, dir: /var/lib/valuefor/state, codec: json}
//	  volatile: {type: memory}
//	ingest:
//	  address: ":7420"
//	  tokenHash: "$2a$10$..."
//	  advertise: true
//	nodes:
//	  - name: boiler too cold
//	    field: payload.temperature
//	    below: 45
//	    for: 10
//	    units: min
//	    expired: flag
//
// A node without an id gets a stable UUIDv5 derived from its name, so its
// persisted state is found again after a restart.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gopkg.in/yaml.v3"

	"github.com/mash-protocol/valuefor/pkg/duration"
	"github.com/mash-protocol/valuefor/pkg/persistence"
	"github.com/mash-protocol/valuefor/pkg/rangefor"
)

// Store types.
const (
	StoreFile   = "file"
	StoreMemory = "memory"
)

// Defaults.
const (
	DefaultLogLevel      = "info"
	DefaultStateDir      = "state"
	DefaultIngestAddress = ":7420"
	DefaultInstance      = "valuefor"
	DefaultMaxFrameSize  = 64 * 1024
)

// Configuration errors.
var (
	ErrNoNodes        = errors.New("no nodes configured")
	ErrDuplicateNode  = errors.New("duplicate node id")
	ErrUnnamedNode    = errors.New("node needs an id or a name")
	ErrUnknownStore   = errors.New("unknown store")
	ErrInvalidStore   = errors.New("invalid store")
	ErrInvalidLevel   = errors.New("invalid log level")
	ErrInvalidToken   = errors.New("invalid token hash")
	ErrInvalidNode    = errors.New("invalid node")
	ErrInvalidAddress = errors.New("invalid ingest address")
)

// NodeNamespace is the UUID namespace for IDs derived from node names.
var NodeNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://github.com/mash-protocol/valuefor/node"))

// Config is the top-level configuration.
type Config struct {
	LogLevel string                 `yaml:"logLevel"`
	EventLog string                 `yaml:"eventLog"`
	Stores   map[string]StoreConfig `yaml:"stores"`
	Ingest   IngestConfig           `yaml:"ingest"`
	Nodes    []NodeConfig           `yaml:"nodes"`
}

// StoreConfig describes a persistence namespace.
type StoreConfig struct {
	Type  string `yaml:"type"`
	Dir   string `yaml:"dir"`
	Codec string `yaml:"codec"`
}

// IngestConfig describes the TCP ingest listener.
type IngestConfig struct {
	// Address to listen on. Empty disables the listener.
	Address string `yaml:"address"`

	// TokenHash is a bcrypt hash clients must present a matching token for.
	TokenHash string `yaml:"tokenHash"`

	// Advertise publishes the listener over mDNS.
	Advertise bool `yaml:"advertise"`

	// Instance is the mDNS instance name.
	Instance string `yaml:"instance"`

	// MaxFrameSize bounds a single JSON frame in bytes.
	MaxFrameSize int `yaml:"maxFrameSize"`
}

// NodeConfig describes one range trigger.
type NodeConfig struct {
	ID               string   `yaml:"id"`
	Name             string   `yaml:"name"`
	Field            string   `yaml:"field"`
	Above            *float64 `yaml:"above"`
	Below            *float64 `yaml:"below"`
	For              float64  `yaml:"for"`
	Units            string   `yaml:"units"`
	KeepFirstMessage bool     `yaml:"keepFirstMessage"`
	Continuous       bool     `yaml:"continuous"`
	Expired          string   `yaml:"expired"`
	Store            string   `yaml:"store"`
}

// Default returns a configuration with defaults and no nodes.
func Default() *Config {
	return &Config{
		LogLevel: DefaultLogLevel,
		Stores: map[string]StoreConfig{
			persistence.DefaultStore: {Type: StoreFile, Dir: DefaultStateDir},
		},
		Ingest: IngestConfig{
			Instance:     DefaultInstance,
			MaxFrameSize: DefaultMaxFrameSize,
		},
	}
}

// Load reads and validates the configuration file at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes YAML on top of Default, derives missing node IDs and
// validates the result. Unknown keys are rejected.
func Parse(data []byte) (*Config, error) {
	cfg := Default()

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("YAML parse error: %w", err)
	}

	cfg.resolveIDs()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) resolveIDs() {
	for i := range c.Nodes {
		if c.Nodes[i].ID == "" && c.Nodes[i].Name != "" {
			c.Nodes[i].ID = DeriveID(c.Nodes[i].Name)
		}
	}
}

// DeriveID returns the stable ID for a node name.
func DeriveID(name string) string {
	return uuid.NewSHA1(NodeNamespace, []byte(strings.TrimSpace(name))).String()
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if _, err := c.SlogLevel(); err != nil {
		return err
	}

	for name, sc := range c.Stores {
		if err := sc.validate(); err != nil {
			return fmt.Errorf("store %q: %w", name, err)
		}
	}

	if err := c.Ingest.validate(); err != nil {
		return err
	}

	if len(c.Nodes) == 0 {
		return ErrNoNodes
	}
	seen := make(map[string]bool, len(c.Nodes))
	for i, n := range c.Nodes {
		if n.ID == "" {
			return fmt.Errorf("node %d: %w", i, ErrUnnamedNode)
		}
		if seen[n.ID] {
			return fmt.Errorf("%w: %q", ErrDuplicateNode, n.ID)
		}
		seen[n.ID] = true

		if _, err := n.RangeFor(); err != nil {
			return fmt.Errorf("node %q: %w", n.ID, err)
		}
		if _, ok := c.Stores[n.storeName()]; !ok {
			return fmt.Errorf("node %q: %w: %q", n.ID, ErrUnknownStore, n.storeName())
		}
	}
	return nil
}

// SlogLevel returns the configured log level.
func (c *Config) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidLevel, c.LogLevel)
	}
	return level, nil
}

func (sc StoreConfig) validate() error {
	switch sc.Type {
	case StoreFile:
		if sc.Dir == "" {
			return fmt.Errorf("%w: file store needs a dir", ErrInvalidStore)
		}
		if _, err := persistence.CodecByName(sc.Codec); err != nil {
			return err
		}
	case StoreMemory:
	default:
		return fmt.Errorf("%w: type %q", ErrInvalidStore, sc.Type)
	}
	return nil
}

// Repository builds the repository described by the store config.
func (sc StoreConfig) Repository() (persistence.Repository, error) {
	if err := sc.validate(); err != nil {
		return nil, err
	}
	if sc.Type == StoreMemory {
		return persistence.NewMemoryStore(), nil
	}
	codec, err := persistence.CodecByName(sc.Codec)
	if err != nil {
		return nil, err
	}
	return persistence.NewFileStore(sc.Dir, codec), nil
}

func (ic IngestConfig) validate() error {
	if ic.TokenHash != "" {
		if _, err := bcrypt.Cost([]byte(ic.TokenHash)); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidToken, err)
		}
	}
	if ic.Address != "" && !strings.Contains(ic.Address, ":") {
		return fmt.Errorf("%w: %q", ErrInvalidAddress, ic.Address)
	}
	if ic.MaxFrameSize < 0 {
		return fmt.Errorf("%w: negative maxFrameSize", ErrInvalidAddress)
	}
	return nil
}

func (n NodeConfig) storeName() string {
	if n.Store == "" {
		return persistence.DefaultStore
	}
	return n.Store
}

// StoreName returns the persistence namespace of the node.
func (n NodeConfig) StoreName() string {
	return n.storeName()
}

// DisplayName returns the name, or the ID if the node has no name.
func (n NodeConfig) DisplayName() string {
	if n.Name != "" {
		return n.Name
	}
	return n.ID
}

// RangeFor converts the node config into a trigger configuration.
func (n NodeConfig) RangeFor() (rangefor.Config, error) {
	unit, err := duration.ParseUnit(n.Units)
	if err != nil {
		return rangefor.Config{}, fmt.Errorf("%w: %v", ErrInvalidNode, err)
	}
	d, err := duration.Normalize(n.For, unit)
	if err != nil {
		return rangefor.Config{}, fmt.Errorf("%w: %v", ErrInvalidNode, err)
	}
	policy, err := rangefor.ParseExpiredPolicy(n.Expired)
	if err != nil {
		return rangefor.Config{}, fmt.Errorf("%w: %v", ErrInvalidNode, err)
	}

	cfg := rangefor.Config{
		Duration:         d,
		Field:            n.Field,
		Range:            rangefor.Range{Lower: n.Above, Upper: n.Below},
		KeepFirstMessage: n.KeepFirstMessage,
		Continuous:       n.Continuous,
		Expired:          policy,
	}
	if err := cfg.Validate(); err != nil {
		return rangefor.Config{}, fmt.Errorf("%w: %v", ErrInvalidNode, err)
	}
	return cfg, nil
}

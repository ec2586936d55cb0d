// Command valuefor runs range triggers: it emits a message once a numeric
// field has stayed inside a configured range for a configured time.
//
// Usage:
//
//	valuefor [flags]
//
// Flags:
//
//	-config string      Configuration file path (default "valuefor.yaml")
//	-log-level string   Log level: debug, info, warn, error (overrides config)
//	-event-log string   File path for the trigger event log (CBOR format)
//	-listen string      Ingest listen address (overrides config)
//	-advertise          Advertise the ingest listener over mDNS
//	-interactive        Start the interactive shell
//	-discover           List valuefor instances on the local network and exit
//	-hash-token string  Print the bcrypt hash of a token and exit
//	-version            Print the ingest protocol version and exit
//
// Every output is written to stdout as one JSON object per line.
//
// Examples:
//
//	# Run the configured nodes and accept input on port 7420
//	valuefor -config /etc/valuefor/valuefor.yaml -listen :7420
//
//	# Try a configuration interactively
//	valuefor -config valuefor.yaml -interactive -log-level debug
//
//	# Protect the ingest listener
//	valuefor -hash-token s3cret
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/crypto/bcrypt"

	"github.com/mash-protocol/valuefor/cmd/valuefor/interactive"
	"github.com/mash-protocol/valuefor/pkg/config"
	"github.com/mash-protocol/valuefor/pkg/discovery"
	"github.com/mash-protocol/valuefor/pkg/ingest"
	evlog "github.com/mash-protocol/valuefor/pkg/log"
	"github.com/mash-protocol/valuefor/pkg/service"
	"github.com/mash-protocol/valuefor/pkg/version"
)

// Flags holds the command line flags.
type Flags struct {
	ConfigFile  string
	LogLevel    string
	EventLog    string
	Listen      string
	Advertise   bool
	Interactive bool
	Discover    bool
	HashToken   string
	Version     bool
}

var flags Flags

func init() {
	flag.StringVar(&flags.ConfigFile, "config", "valuefor.yaml", "Configuration file path")
	flag.StringVar(&flags.LogLevel, "log-level", "", "Log level: debug, info, warn, error (overrides config)")
	flag.StringVar(&flags.EventLog, "event-log", "", "File path for the trigger event log (CBOR format)")
	flag.StringVar(&flags.Listen, "listen", "", "Ingest listen address (overrides config)")
	flag.BoolVar(&flags.Advertise, "advertise", false, "Advertise the ingest listener over mDNS")
	flag.BoolVar(&flags.Interactive, "interactive", false, "Start the interactive shell")
	flag.BoolVar(&flags.Discover, "discover", false, "List valuefor instances on the local network and exit")
	flag.StringVar(&flags.HashToken, "hash-token", "", "Print the bcrypt hash of a token and exit")
	flag.BoolVar(&flags.Version, "version", false, "Print the ingest protocol version and exit")
}

func main() {
	flag.Parse()

	switch {
	case flags.Version:
		fmt.Println(version.Current)
		return
	case flags.HashToken != "":
		hash, err := hashToken(flags.HashToken)
		if err != nil {
			log.Fatalf("Failed to hash token: %v", err)
		}
		fmt.Println(hash)
		return
	case flags.Discover:
		if err := discover(context.Background(), os.Stdout); err != nil {
			log.Fatalf("Discovery failed: %v", err)
		}
		return
	}

	cfg, err := config.Load(flags.ConfigFile)
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}
	if err := applyFlags(cfg, flags); err != nil {
		log.Fatalf("Invalid flags: %v", err)
	}

	if err := run(cfg); err != nil {
		log.Fatalf("%v", err)
	}
}

// applyFlags overrides configuration values with the flags that were set.
func applyFlags(cfg *config.Config, f Flags) error {
	if f.LogLevel != "" {
		cfg.LogLevel = f.LogLevel
	}
	if f.EventLog != "" {
		cfg.EventLog = f.EventLog
	}
	if f.Listen != "" {
		cfg.Ingest.Address = f.Listen
	}
	if f.Advertise {
		cfg.Ingest.Advertise = true
	}
	return cfg.Validate()
}

func run(cfg *config.Config) error {
	level, _ := cfg.SlogLevel()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var shell *interactive.Shell
	stdout, stderr := io.Writer(os.Stdout), io.Writer(os.Stderr)
	if flags.Interactive {
		var err error
		shell, err = interactive.New()
		if err != nil {
			return err
		}
		stdout, stderr = shell.Stdout(), shell.Stderr()
		log.SetOutput(stderr)
	}

	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))

	events, err := buildEventLogger(cfg.EventLog, logger)
	if err != nil {
		return err
	}

	svc, err := service.New(cfg,
		service.WithLogger(logger),
		service.WithEventLogger(events),
	)
	if err != nil {
		return fmt.Errorf("failed to create service: %w", err)
	}

	printer := newOutputPrinter(stdout)
	svc.OnOutput(printer.print)

	if err := svc.Start(ctx); err != nil {
		return fmt.Errorf("failed to start service: %w", err)
	}
	log.Printf("Service started (state: %s, nodes: %d)", svc.State(), len(svc.NodeIDs()))

	var srv *ingest.Server
	if cfg.Ingest.Address != "" {
		srv, err = ingest.NewServer(ingest.ServerConfig{
			Address:      cfg.Ingest.Address,
			TokenHash:    cfg.Ingest.TokenHash,
			MaxFrameSize: cfg.Ingest.MaxFrameSize,
			Sink:         svc,
			Logger:       logger,
		})
		if err != nil {
			return fmt.Errorf("failed to create ingest server: %w", err)
		}
		if err := srv.Start(ctx); err != nil {
			return fmt.Errorf("failed to start ingest server: %w", err)
		}
		log.Printf("Ingest listening on %s", srv.Addr())

		if cfg.Ingest.Advertise {
			adv := discovery.NewMDNSAdvertiser(discovery.DefaultAdvertiserConfig())
			info := serviceInfo(cfg, portOf(srv.Addr()))
			if err := startAdvertising(ctx, adv, info); err != nil {
				log.Printf("Warning: %v", err)
			} else {
				defer adv.Stop()
				log.Printf("Advertising %s as %q", discovery.ServiceType, info.Instance)
			}
		}
	}

	if shell != nil {
		shell.Attach(svc)
		shell.Run(ctx, cancel)
	} else {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		select {
		case sig := <-sigCh:
			log.Printf("Received signal: %v", sig)
		case <-ctx.Done():
		}
	}

	log.Println("Shutting down...")
	if srv != nil {
		srv.Stop()
	}
	if err := svc.Stop(); err != nil {
		log.Printf("Error stopping service: %v", err)
	}
	return nil
}

// buildEventLogger combines the console adapter with the optional event
// log file.
func buildEventLogger(path string, logger *slog.Logger) (*evlog.MultiLogger, error) {
	var file evlog.Logger
	if path != "" {
		fl, err := evlog.NewFileLogger(path)
		if err != nil {
			return nil, fmt.Errorf("failed to create event logger: %w", err)
		}
		file = fl
	}
	return evlog.NewMultiLogger(evlog.NewSlogAdapter(logger), file), nil
}

func hashToken(token string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(token), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

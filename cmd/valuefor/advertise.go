package main

import (
	"context"
	"fmt"
	"io"
	"net"
	"strings"
	"text/tabwriter"

	"github.com/mash-protocol/valuefor/pkg/config"
	"github.com/mash-protocol/valuefor/pkg/discovery"
	"github.com/mash-protocol/valuefor/pkg/version"
)

func serviceInfo(cfg *config.Config, port int) *discovery.ServiceInfo {
	return &discovery.ServiceInfo{
		Instance:     cfg.Ingest.Instance,
		Port:         port,
		Version:      version.Current,
		Nodes:        len(cfg.Nodes),
		AuthRequired: cfg.Ingest.TokenHash != "",
	}
}

func portOf(addr net.Addr) int {
	if tcp, ok := addr.(*net.TCPAddr); ok {
		return tcp.Port
	}
	return 0
}

func startAdvertising(ctx context.Context, adv discovery.Advertiser, info *discovery.ServiceInfo) error {
	if err := adv.Advertise(ctx, info); err != nil {
		return fmt.Errorf("failed to advertise: %w", err)
	}
	return nil
}

func discover(ctx context.Context, w io.Writer) error {
	entries, err := discovery.Browse(ctx, "")
	if err != nil {
		return err
	}
	printEntries(w, entries)
	return nil
}

func printEntries(w io.Writer, entries []discovery.ServiceEntry) {
	if len(entries) == 0 {
		fmt.Fprintln(w, "No valuefor instances found.")
		return
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "INSTANCE\tVERSION\tNODES\tAUTH\tADDRESSES")
	for _, e := range entries {
		ver := e.Version
		if !version.CompatibleWith(ver) {
			ver += " (incompatible)"
		}
		auth := "no"
		if e.AuthRequired {
			auth = "yes"
		}
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%s\n", e.Instance, ver, e.Nodes, auth, strings.Join(e.Addrs, ","))
	}
	tw.Flush()
}

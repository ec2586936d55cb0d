package discovery

import (
	"context"
	"net"
	"sort"
	"strconv"
	"strings"

	"github.com/enbility/zeroconf/v3"
)

// Browse collects advertised ingest endpoints until ctx is done. When ctx
// has no deadline, browsing stops after DefaultBrowseTimeout. Entries with
// malformed TXT records are skipped.
func Browse(ctx context.Context, iface string) ([]ServiceEntry, error) {
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, DefaultBrowseTimeout)
		defer cancel()
	}

	var opts []zeroconf.ClientOption
	if ifaces := interfaces(iface); ifaces != nil {
		opts = append(opts, zeroconf.SelectIfaces(ifaces))
	}

	entries := make(chan *zeroconf.ServiceEntry)
	removed := make(chan *zeroconf.ServiceEntry)
	errCh := make(chan error, 1)
	go func() {
		errCh <- zeroconf.Browse(ctx, ServiceType, Domain, entries, removed, opts...)
	}()

	found := make(map[string]ServiceEntry)
	for {
		select {
		case e, ok := <-entries:
			if !ok {
				entries = nil
				continue
			}
			if se, ok := toEntry(e); ok {
				found[se.Instance] = se
			}
		case e, ok := <-removed:
			if !ok {
				removed = nil
				continue
			}
			delete(found, e.Instance)
		case <-ctx.Done():
			return sortedEntries(found), nil
		case err := <-errCh:
			if err != nil {
				return nil, err
			}
			errCh = nil
		}
	}
}

func toEntry(e *zeroconf.ServiceEntry) (ServiceEntry, bool) {
	info, err := DecodeTXT(StringsToTXTRecords(e.Text))
	if err != nil {
		return ServiceEntry{}, false
	}
	info.Instance = e.Instance
	info.Port = e.Port

	se := ServiceEntry{ServiceInfo: *info, Host: strings.TrimSuffix(e.HostName, ".")}
	for _, ip := range e.AddrIPv4 {
		se.Addrs = append(se.Addrs, net.JoinHostPort(ip.String(), strconv.Itoa(e.Port)))
	}
	for _, ip := range e.AddrIPv6 {
		se.Addrs = append(se.Addrs, net.JoinHostPort(ip.String(), strconv.Itoa(e.Port)))
	}
	return se, true
}

func sortedEntries(m map[string]ServiceEntry) []ServiceEntry {
	out := make([]ServiceEntry, 0, len(m))
	for _, e := range m {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Instance < out[j].Instance })
	return out
}

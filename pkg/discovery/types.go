package discovery

import (
	"errors"
	"time"
)

const (
	// ServiceType is the DNS-SD service type of the ingest endpoint.
	ServiceType = "_valuefor._tcp"

	// Domain is the mDNS domain.
	Domain = "local"

	// DefaultInstance is the instance name used when none is configured.
	DefaultInstance = "valuefor"

	// MaxInstanceNameLen is the DNS label limit for instance names.
	MaxInstanceNameLen = 63

	// DefaultTTL is the record TTL.
	DefaultTTL = 120 * time.Second

	// DefaultBrowseTimeout bounds Browse when the context has no deadline.
	DefaultBrowseTimeout = 3 * time.Second
)

// TXT record keys.
const (
	TXTKeyVersion = "ver"
	TXTKeyNodes   = "nodes"
	TXTKeyAuth    = "auth"
)

// Discovery errors.
var (
	ErrNotAdvertising      = errors.New("not advertising")
	ErrInvalidPort         = errors.New("invalid port")
	ErrInstanceNameTooLong = errors.New("instance name too long")
	ErrMissingRequired     = errors.New("missing required TXT record")
	ErrInvalidTXT          = errors.New("invalid TXT record")
)

// ServiceInfo describes an advertised ingest endpoint.
type ServiceInfo struct {
	Instance     string
	Port         int
	Version      string
	Nodes        int
	AuthRequired bool
}

// ServiceEntry is an endpoint found by Browse.
type ServiceEntry struct {
	ServiceInfo
	Host  string
	Addrs []string
}

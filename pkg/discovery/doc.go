// Package discovery advertises the ingest endpoint over mDNS/DNS-SD.
//
// A running valuefor instance with advertising enabled registers one
// service of type _valuefor._tcp in the local domain. The instance name is
// configurable and defaults to "valuefor".
//
// TXT records:
//   - ver: software version
//   - nodes: number of configured trigger nodes
//   - auth: "1" when frames must carry a token, "0" otherwise
//
// Browse finds advertised instances, which lets a client locate the ingest
// port without configuration.
package discovery

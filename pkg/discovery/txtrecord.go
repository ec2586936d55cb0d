package discovery

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// TXTRecordMap is a map of TXT record key-value pairs.
type TXTRecordMap map[string]string

// EncodeTXT creates the TXT records for info.
func EncodeTXT(info *ServiceInfo) TXTRecordMap {
	auth := "0"
	if info.AuthRequired {
		auth = "1"
	}
	return TXTRecordMap{
		TXTKeyVersion: info.Version,
		TXTKeyNodes:   strconv.Itoa(info.Nodes),
		TXTKeyAuth:    auth,
	}
}

// DecodeTXT parses TXT records into info. Instance and Port are left unset.
func DecodeTXT(txt TXTRecordMap) (*ServiceInfo, error) {
	info := &ServiceInfo{}

	var ok bool
	if info.Version, ok = txt[TXTKeyVersion]; !ok {
		return nil, fmt.Errorf("%w: %s", ErrMissingRequired, TXTKeyVersion)
	}

	nodes, ok := txt[TXTKeyNodes]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrMissingRequired, TXTKeyNodes)
	}
	n, err := strconv.Atoi(nodes)
	if err != nil || n < 0 {
		return nil, fmt.Errorf("%w: %s=%q", ErrInvalidTXT, TXTKeyNodes, nodes)
	}
	info.Nodes = n

	switch txt[TXTKeyAuth] {
	case "1":
		info.AuthRequired = true
	case "0", "":
	default:
		return nil, fmt.Errorf("%w: %s=%q", ErrInvalidTXT, TXTKeyAuth, txt[TXTKeyAuth])
	}
	return info, nil
}

// TXTRecordsToStrings converts a TXTRecordMap to "key=value" strings in key
// order.
func TXTRecordsToStrings(txt TXTRecordMap) []string {
	keys := make([]string, 0, len(txt))
	for k := range txt {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	result := make([]string, 0, len(txt))
	for _, k := range keys {
		result = append(result, k+"="+txt[k])
	}
	return result
}

// StringsToTXTRecords parses "key=value" strings into a TXTRecordMap.
func StringsToTXTRecords(strs []string) TXTRecordMap {
	txt := make(TXTRecordMap)
	for _, s := range strs {
		parts := strings.SplitN(s, "=", 2)
		if len(parts) == 2 {
			txt[parts[0]] = parts[1]
		} else if parts[0] != "" {
			// Key without value (boolean flag)
			txt[parts[0]] = ""
		}
	}
	return txt
}

// ValidateInstanceName checks if an instance name is valid for mDNS.
func ValidateInstanceName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: empty name", ErrInstanceNameTooLong)
	}
	if len(name) > MaxInstanceNameLen {
		return ErrInstanceNameTooLong
	}
	return nil
}

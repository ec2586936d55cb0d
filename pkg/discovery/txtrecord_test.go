package discovery

import (
	"errors"
	"reflect"
	"strings"
	"testing"
)

func TestEncodeTXT(t *testing.T) {
	txt := EncodeTXT(&ServiceInfo{Version: "1.2.0", Nodes: 3, AuthRequired: true})

	want := TXTRecordMap{"ver": "1.2.0", "nodes": "3", "auth": "1"}
	if !reflect.DeepEqual(txt, want) {
		t.Errorf("EncodeTXT() = %v, want %v", txt, want)
	}

	txt = EncodeTXT(&ServiceInfo{Version: "dev"})
	if txt[TXTKeyAuth] != "0" {
		t.Errorf("auth = %q, want %q", txt[TXTKeyAuth], "0")
	}
}

func TestDecodeTXT(t *testing.T) {
	tests := []struct {
		name    string
		txt     TXTRecordMap
		want    *ServiceInfo
		wantErr error
	}{
		{
			name: "Valid",
			txt:  TXTRecordMap{"ver": "1.0.0", "nodes": "2", "auth": "1"},
			want: &ServiceInfo{Version: "1.0.0", Nodes: 2, AuthRequired: true},
		},
		{
			name: "NoAuthKey",
			txt:  TXTRecordMap{"ver": "1.0.0", "nodes": "0"},
			want: &ServiceInfo{Version: "1.0.0"},
		},
		{
			name:    "MissingVersion",
			txt:     TXTRecordMap{"nodes": "2"},
			wantErr: ErrMissingRequired,
		},
		{
			name:    "MissingNodes",
			txt:     TXTRecordMap{"ver": "1.0.0"},
			wantErr: ErrMissingRequired,
		},
		{
			name:    "NegativeNodes",
			txt:     TXTRecordMap{"ver": "1.0.0", "nodes": "-1"},
			wantErr: ErrInvalidTXT,
		},
		{
			name:    "BadAuth",
			txt:     TXTRecordMap{"ver": "1.0.0", "nodes": "1", "auth": "yes"},
			wantErr: ErrInvalidTXT,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodeTXT(tt.txt)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("DecodeTXT() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("DecodeTXT() error = %v", err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("DecodeTXT() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestTXTRecordStrings(t *testing.T) {
	strs := TXTRecordsToStrings(TXTRecordMap{"ver": "1", "auth": "0", "nodes": "4"})
	want := []string{"auth=0", "nodes=4", "ver=1"}
	if !reflect.DeepEqual(strs, want) {
		t.Errorf("TXTRecordsToStrings() = %v, want %v", strs, want)
	}

	txt := StringsToTXTRecords([]string{"ver=1=2", "flag", ""})
	if txt["ver"] != "1=2" {
		t.Errorf("ver = %q, want %q", txt["ver"], "1=2")
	}
	if v, ok := txt["flag"]; !ok || v != "" {
		t.Errorf("flag = %q, %v; want empty, true", v, ok)
	}
	if len(txt) != 2 {
		t.Errorf("len = %d, want 2", len(txt))
	}
}

func TestValidateInstanceName(t *testing.T) {
	if err := ValidateInstanceName("valuefor"); err != nil {
		t.Errorf("ValidateInstanceName() error = %v", err)
	}
	if err := ValidateInstanceName(""); !errors.Is(err, ErrInstanceNameTooLong) {
		t.Errorf("empty name error = %v", err)
	}
	if err := ValidateInstanceName(strings.Repeat("a", MaxInstanceNameLen+1)); !errors.Is(err, ErrInstanceNameTooLong) {
		t.Errorf("long name error = %v", err)
	}
}

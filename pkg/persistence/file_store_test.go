package persistence

import (
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/mash-protocol/valuefor/pkg/message"
)

func float(v float64) *float64 { return &v }

func TestFileStore(t *testing.T) {
	codecs := []Codec{JSONCodec{}, CBORCodec{}}

	for _, codec := range codecs {
		t.Run(codec.Ext(), func(t *testing.T) {
			t.Run("SaveAndLoad", func(t *testing.T) {
				store := NewFileStore(filepath.Join(t.TempDir(), "state"), codec)
				expiry := time.Date(2024, 5, 1, 10, 30, 0, 0, time.UTC)

				rec := &Record{
					Expiry:    expiry,
					Message:   message.Message{"payload": 15.5, "topic": "boiler"},
					LastValue: float(15.5),
				}
				if err := store.Save("range-for:abc", rec); err != nil {
					t.Fatalf("Save() error = %v", err)
				}

				got, err := store.Load("range-for:abc")
				if err != nil {
					t.Fatalf("Load() error = %v", err)
				}
				if got == nil {
					t.Fatal("Load() returned nil")
				}
				if got.Version != RecordVersion {
					t.Errorf("Version = %d, want %d", got.Version, RecordVersion)
				}
				if !got.Expiry.Equal(expiry) {
					t.Errorf("Expiry = %v, want %v", got.Expiry, expiry)
				}
				if got.SavedAt.IsZero() {
					t.Error("SavedAt was not set")
				}
				if got.Message["topic"] != "boiler" {
					t.Errorf("Message.topic = %v, want boiler", got.Message["topic"])
				}
				if v, ok := message.Number(got.Message["payload"]); !ok || v != 15.5 {
					t.Errorf("Message.payload = %v, want 15.5", got.Message["payload"])
				}
				if got.LastValue == nil || *got.LastValue != 15.5 {
					t.Errorf("LastValue = %v, want 15.5", got.LastValue)
				}
			})

			t.Run("LoadNonExistent", func(t *testing.T) {
				store := NewFileStore(t.TempDir(), codec)

				got, err := store.Load("missing")
				if err != nil {
					t.Fatalf("Load() error = %v", err)
				}
				if got != nil {
					t.Errorf("Load() = %v, want nil", got)
				}
			})

			t.Run("Delete", func(t *testing.T) {
				store := NewFileStore(t.TempDir(), codec)

				if err := store.Save("k", &Record{Expiry: time.Now(), Message: message.Message{}}); err != nil {
					t.Fatalf("Save() error = %v", err)
				}
				if err := store.Delete("k"); err != nil {
					t.Fatalf("Delete() error = %v", err)
				}
				if _, err := os.Stat(store.Path("k")); !os.IsNotExist(err) {
					t.Error("record file still exists after Delete")
				}
				if err := store.Delete("k"); err != nil {
					t.Errorf("Delete() of missing key error = %v", err)
				}
			})
		})
	}
}

func TestFileStoreNestedMessage(t *testing.T) {
	store := NewFileStore(t.TempDir(), CBORCodec{})

	rec := &Record{
		Expiry: time.Now(),
		Message: message.Message{
			"payload": map[string]any{"temp": 21.0, "tags": []any{"a", "b"}},
		},
	}
	if err := store.Save("nested", rec); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	got, err := store.Load("nested")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	v, ok := message.Get(got.Message, "payload.tags[1]")
	if !ok || v != "b" {
		t.Errorf("payload.tags[1] = %v (ok=%v), want b", v, ok)
	}
}

func TestFileStoreRejectsEmptyKey(t *testing.T) {
	store := NewFileStore(t.TempDir(), nil)

	if err := store.Save("", &Record{}); err != ErrEmptyKey {
		t.Errorf("Save() error = %v, want ErrEmptyKey", err)
	}
	if _, err := store.Load(""); err != ErrEmptyKey {
		t.Errorf("Load() error = %v, want ErrEmptyKey", err)
	}
	if err := store.Save("k", nil); err != ErrNilRecord {
		t.Errorf("Save(nil) error = %v, want ErrNilRecord", err)
	}
}

func TestFileStoreCorruptFile(t *testing.T) {
	dir := t.TempDir()
	store := NewFileStore(dir, JSONCodec{})

	if err := os.WriteFile(store.Path("bad"), []byte("{not json"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := store.Load("bad"); err == nil {
		t.Error("Load() of corrupt file should fail")
	}
}

func TestFileName(t *testing.T) {
	tests := []struct {
		key  string
		want string
	}{
		{"range-for:abc", "range-for%3Aabc"},
		{"range-for:pump/1", "range-for%3Apump%2F1"},
		{"range-for:pump_1", "range-for%3Apump_1"},
		{"a/b/../c", "a%2Fb%2F..%2Fc"},
		{"100%", "100%25"},
		{"plain.key", "plain.key"},
	}

	for _, tt := range tests {
		if got := fileName(tt.key); got != tt.want {
			t.Errorf("fileName(%q) = %q, want %q", tt.key, got, tt.want)
		}
	}
}

func TestFileStoreKeysDoNotCollide(t *testing.T) {
	store := NewFileStore(t.TempDir(), JSONCodec{})

	keys := []string{"range-for:pump/1", "range-for:pump_1", "range-for:pump%2F1", "range-for:pump 1"}
	for i, key := range keys {
		rec := &Record{Expiry: time.Now(), Message: message.Message{"payload": float64(i)}}
		if err := store.Save(key, rec); err != nil {
			t.Fatalf("Save(%q) error = %v", key, err)
		}
	}

	paths := make(map[string]string)
	for _, key := range keys {
		p := store.Path(key)
		if other, ok := paths[p]; ok {
			t.Fatalf("keys %q and %q share %s", other, key, p)
		}
		paths[p] = key
	}

	if err := store.Delete("range-for:pump_1"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	for i, key := range keys {
		got, err := store.Load(key)
		if err != nil {
			t.Fatalf("Load(%q) error = %v", key, err)
		}
		if key == "range-for:pump_1" {
			if got != nil {
				t.Errorf("Load(%q) = %v after Delete, want nil", key, got)
			}
			continue
		}
		if got == nil {
			t.Fatalf("Load(%q) = nil, record was clobbered", key)
		}
		if v, _ := message.Number(got.Message["payload"]); v != float64(i) {
			t.Errorf("Load(%q) payload = %v, want %d", key, got.Message["payload"], i)
		}
	}
}

func TestCodecByName(t *testing.T) {
	for _, name := range []string{"", "json", "JSON"} {
		c, err := CodecByName(name)
		if err != nil || c.Ext() != ".json" {
			t.Errorf("CodecByName(%q) = %v, %v", name, c, err)
		}
	}
	if c, err := CodecByName("cbor"); err != nil || c.Ext() != ".cbor" {
		t.Errorf("CodecByName(cbor) = %v, %v", c, err)
	}
	if _, err := CodecByName("xml"); err == nil {
		t.Error("CodecByName(xml) should fail")
	}
}

func TestJSONCodecInfinity(t *testing.T) {
	store := NewFileStore(t.TempDir(), JSONCodec{})

	tests := []struct {
		name string
		v    float64
	}{
		{"positive", math.Inf(1)},
		{"negative", math.Inf(-1)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := &Record{
				Expiry:    time.Now(),
				Message:   message.Message{"payload": tt.v, "nested": map[string]any{"v": []any{tt.v}}},
				LastValue: float(tt.v),
			}
			if err := store.Save(tt.name, rec); err != nil {
				t.Fatalf("Save() error = %v", err)
			}

			got, err := store.Load(tt.name)
			if err != nil {
				t.Fatalf("Load() error = %v", err)
			}
			if got == nil {
				t.Fatal("Load() returned nil")
			}
			if got.LastValue == nil || *got.LastValue != tt.v {
				t.Errorf("LastValue = %v, want %v", got.LastValue, tt.v)
			}
			if v, ok := message.Number(got.Message["payload"]); !ok || v != tt.v {
				t.Errorf("Message.payload = %v, want %v", got.Message["payload"], tt.v)
			}
			if v, ok := message.Get(got.Message, "nested.v[0]"); !ok {
				t.Error("nested.v[0] missing")
			} else if n, _ := message.Number(v); n != tt.v {
				t.Errorf("nested.v[0] = %v, want %v", v, tt.v)
			}
		})
	}
}

func TestJSONCodecReadsPlainLastValue(t *testing.T) {
	data := []byte(`{"version":1,"expiry":"2024-05-01T10:30:00Z","message":{"payload":3},"last_value":3}`)

	var rec Record
	if err := (JSONCodec{}).Unmarshal(data, &rec); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if rec.LastValue == nil || *rec.LastValue != 3 {
		t.Errorf("LastValue = %v, want 3", rec.LastValue)
	}
	if rec.Message["payload"] != 3.0 {
		t.Errorf("Message.payload = %v, want 3", rec.Message["payload"])
	}
}

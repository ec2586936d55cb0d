package persistence

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// FileStore keeps one file per key in a directory.
type FileStore struct {
	mu    sync.Mutex
	dir   string
	codec Codec
}

// NewFileStore creates a store rooted at dir. A nil codec means JSON.
// The directory is created on the first Save.
func NewFileStore(dir string, codec Codec) *FileStore {
	if codec == nil {
		codec = JSONCodec{}
	}
	return &FileStore{dir: dir, codec: codec}
}

// Dir returns the store directory.
func (s *FileStore) Dir() string {
	return s.dir
}

// Path returns the file used for key.
func (s *FileStore) Path(key string) string {
	return filepath.Join(s.dir, fileName(key)+s.codec.Ext())
}

// Save persists rec under key. The file is replaced atomically.
func (s *FileStore) Save(key string, rec *Record) error {
	if key == "" {
		return ErrEmptyKey
	}
	if rec == nil {
		return ErrNilRecord
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return err
	}

	rec.Version = RecordVersion
	if rec.SavedAt.IsZero() {
		rec.SavedAt = time.Now()
	}

	data, err := s.codec.Marshal(rec)
	if err != nil {
		return err
	}

	path := s.Path(key)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

// Load reads the record for key.
// Returns nil, nil if no record exists.
func (s *FileStore) Load(key string) (*Record, error) {
	if key == "" {
		return nil, ErrEmptyKey
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.Path(key))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	rec := &Record{}
	if err := s.codec.Unmarshal(data, rec); err != nil {
		return nil, err
	}
	return rec, nil
}

// Delete removes the record file for key.
func (s *FileStore) Delete(key string) error {
	if key == "" {
		return ErrEmptyKey
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	err := os.Remove(s.Path(key))
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

// fileName maps a key to a file name. Bytes outside [A-Za-z0-9._-] are
// written as %XX, so distinct keys never share a file.
func fileName(key string) string {
	var b strings.Builder
	b.Grow(len(key))
	for i := 0; i < len(key); i++ {
		c := key[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
			b.WriteByte(c)
		case c == '-', c == '.', c == '_':
			b.WriteByte(c)
		default:
			b.WriteByte('%')
			b.WriteByte(upperHex[c>>4])
			b.WriteByte(upperHex[c&0x0f])
		}
	}
	return b.String()
}

const upperHex = "0123456789ABCDEF"

// Compile-time interface satisfaction check.
var _ Repository = (*FileStore)(nil)

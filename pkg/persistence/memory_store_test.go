package persistence

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mash-protocol/valuefor/pkg/message"
)

func TestMemoryStore(t *testing.T) {
	store := NewMemoryStore()

	got, err := store.Load("k")
	require.NoError(t, err)
	assert.Nil(t, got)

	msg := message.Message{"payload": "a"}
	lv := 3.0
	require.NoError(t, store.Save("k", &Record{Expiry: time.Unix(100, 0), Message: msg, LastValue: &lv}))
	assert.Equal(t, 1, store.Len())

	// Mutating the saved inputs must not affect the stored record.
	msg["payload"] = "b"
	lv = 4

	got, err = store.Load("k")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "a", got.Message["payload"])
	assert.Equal(t, 3.0, *got.LastValue)
	assert.True(t, got.Valid())

	require.NoError(t, store.Delete("k"))
	require.NoError(t, store.Delete("k"))
	assert.Equal(t, 0, store.Len())
}

func TestRecordValid(t *testing.T) {
	var nilRec *Record
	assert.False(t, nilRec.Valid())
	assert.False(t, (&Record{Message: message.Message{}}).Valid())
	assert.False(t, (&Record{Expiry: time.Now()}).Valid())
	assert.True(t, (&Record{Expiry: time.Now(), Message: message.Message{}}).Valid())
}

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	mem := NewMemoryStore()
	files := NewFileStore(t.TempDir(), nil)

	require.NoError(t, r.Register("", mem))
	require.NoError(t, r.Register("disk", files))
	assert.ErrorIs(t, r.Register(DefaultStore, mem), ErrDuplicateStore)

	got, err := r.Get("")
	require.NoError(t, err)
	assert.Same(t, mem, got)

	got, err = r.Get("disk")
	require.NoError(t, err)
	assert.Same(t, files, got)

	_, err = r.Get("missing")
	assert.ErrorIs(t, err, ErrUnknownStore)

	assert.Equal(t, []string{"default", "disk"}, r.Names())
}

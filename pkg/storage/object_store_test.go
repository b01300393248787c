package storage

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T, maxBytes int64) *ObjectStore {
	t.Helper()
	at := time.UnixMilli(1700000000123)
	store, err := NewObjectStore(Options{
		Dir:           t.TempDir(),
		Bucket:        "content",
		PublicBaseURL: "https://cdn.example.com/files/",
		MaxBytes:      maxBytes,
		Now:           func() time.Time { return at },
	})
	require.NoError(t, err)
	return store
}

func TestSanitizeName(t *testing.T) {
	assert.Equal(t, "____-1.pdf", SanitizeName("درس -1.pdf"))
	assert.Equal(t, "my_file_v2_.pdf", SanitizeName("my file(v2).pdf"))
	assert.Equal(t, "plain-name.pdf", SanitizeName("plain-name.pdf"))
}

func TestObjectKey(t *testing.T) {
	key := ObjectKey("solutions", "bac 2024.pdf", time.UnixMilli(42))
	assert.Equal(t, "solutions/42-bac_2024.pdf", key)
}

func TestPutAndOpen(t *testing.T) {
	store := newTestStore(t, 0)

	obj, err := store.Put("lessons", "motion.pdf", strings.NewReader("%PDF-1.4"))
	require.NoError(t, err)
	assert.Equal(t, "lessons/1700000000123-motion.pdf", obj.Key)
	assert.Equal(t, "https://cdn.example.com/files/content/lessons/1700000000123-motion.pdf", obj.URL)
	assert.EqualValues(t, 8, obj.Size)

	file, err := store.Open(obj.Key)
	require.NoError(t, err)
	defer file.Close()
	data, err := io.ReadAll(file)
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.4", string(data))
}

func TestPutRejectsOversizedStream(t *testing.T) {
	store := newTestStore(t, 4)

	_, err := store.Put("exams", "big.pdf", strings.NewReader("0123456789"))
	assert.ErrorIs(t, err, ErrTooLarge)

	_, statErr := os.Stat(filepath.Join(store.Root(), "exams", "1700000000123-big.pdf"))
	assert.True(t, os.IsNotExist(statErr))
}

func TestKeyFromURL(t *testing.T) {
	store := newTestStore(t, 0)

	key, ok := store.KeyFromURL(store.PublicURL("bac/1-a.pdf"))
	assert.True(t, ok)
	assert.Equal(t, "bac/1-a.pdf", key)

	_, ok = store.KeyFromURL("https://elsewhere.example.com/a.pdf")
	assert.False(t, ok)
}

func TestDeleteMissingIsSilent(t *testing.T) {
	store := newTestStore(t, 0)

	assert.NoError(t, store.Delete("lessons/unknown.pdf"))
	assert.ErrorIs(t, store.Delete("../etc/passwd"), ErrInvalidKey)
}

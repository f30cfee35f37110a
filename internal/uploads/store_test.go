package uploads

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/litxplore/litxplore/internal/domain"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(t.TempDir(), zerolog.Nop())
	require.NoError(t, err)
	return store
}

func TestContentHash(t *testing.T) {
	hash := ContentHash([]byte("%PDF-1.4 test document"))
	assert.Len(t, hash, HashLength)

	// Same content hashes the same, different content differs.
	assert.Equal(t, hash, ContentHash([]byte("%PDF-1.4 test document")))
	assert.NotEqual(t, hash, ContentHash([]byte("%PDF-1.4 other document")))
}

func TestStore_SaveAndRead(t *testing.T) {
	store := newTestStore(t)
	content := []byte("%PDF-1.4 hello")

	hash, err := store.Save(content)
	require.NoError(t, err)
	assert.Len(t, hash, HashLength)
	assert.True(t, store.Exists(hash))

	got, err := store.Read(hash)
	require.NoError(t, err)
	assert.Equal(t, content, got)
}

func TestStore_SaveIdempotent(t *testing.T) {
	store := newTestStore(t)
	content := []byte("%PDF-1.4 same bytes")

	first, err := store.Save(content)
	require.NoError(t, err)
	second, err := store.Save(content)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestStore_Open(t *testing.T) {
	store := newTestStore(t)
	content := []byte("%PDF-1.4 stream me")
	hash, err := store.Save(content)
	require.NoError(t, err)

	rc, err := store.Open(hash)
	require.NoError(t, err)
	defer rc.Close()

	got, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, content, got)
}

func TestStore_ReadMissing(t *testing.T) {
	store := newTestStore(t)

	_, err := store.Read("deadbeef00")
	assert.True(t, errors.Is(err, domain.ErrNotFound))

	_, err = store.Open("deadbeef00")
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestStore_Delete(t *testing.T) {
	store := newTestStore(t)
	hash, err := store.Save([]byte("%PDF-1.4 doomed"))
	require.NoError(t, err)

	require.NoError(t, store.Delete(hash))
	assert.False(t, store.Exists(hash))

	// Deleting again is not an error.
	assert.NoError(t, store.Delete(hash))
}

func TestStore_Cleanup(t *testing.T) {
	store := newTestStore(t)
	hash, err := store.Save([]byte("%PDF-1.4 uploaded"))
	require.NoError(t, err)

	ids := []domain.PaperID{
		{Kind: domain.PaperIDArXiv, ArXivID: "2301.12345"},
		{Kind: domain.PaperIDUpload, UploadHash: hash},
		{Kind: domain.PaperIDUpload, UploadHash: "deadbeef00"},
	}
	store.Cleanup(ids)

	assert.False(t, store.Exists(hash))
}

func TestStore_SweepOlderThan(t *testing.T) {
	store := newTestStore(t)

	oldHash, err := store.Save([]byte("%PDF-1.4 old"))
	require.NoError(t, err)
	freshHash, err := store.Save([]byte("%PDF-1.4 fresh"))
	require.NoError(t, err)

	// Age the first file past the cutoff.
	past := time.Now().Add(-48 * time.Hour)
	require.NoError(t, os.Chtimes(filepath.Join(store.dir, oldHash+".pdf"), past, past))

	removed, err := store.SweepOlderThan(24 * time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)
	assert.False(t, store.Exists(oldHash))
	assert.True(t, store.Exists(freshHash))
}

func TestStore_SweepIgnoresNonPDFFiles(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, os.WriteFile(filepath.Join(store.dir, "notes.txt"), []byte("keep"), 0o644))

	past := time.Now().Add(-48 * time.Hour)
	require.NoError(t, os.Chtimes(filepath.Join(store.dir, "notes.txt"), past, past))

	removed, err := store.SweepOlderThan(24 * time.Hour)
	require.NoError(t, err)
	assert.Zero(t, removed)

	_, err = os.Stat(filepath.Join(store.dir, "notes.txt"))
	assert.NoError(t, err)
}

func TestNewStore_RequiresDir(t *testing.T) {
	_, err := NewStore("", zerolog.Nop())
	assert.True(t, errors.Is(err, domain.ErrInvalidInput))
}

// Package uploads implements the content-addressed store for uploaded
// PDF documents. Files are named <hash>.pdf where the hash is the first
// ten hex characters of the content's SHA-256, so re-uploading the same
// document is idempotent.
package uploads

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/litxplore/litxplore/internal/domain"
)

// HashLength is the number of hex characters kept from the SHA-256 sum.
const HashLength = 10

// Store is a directory-backed PDF store addressed by content hash.
// It is safe for concurrent use; the filesystem provides the atomicity
// (writes of the same content land on the same name).
type Store struct {
	dir    string
	logger zerolog.Logger
}

// NewStore creates the store, making the directory if needed.
func NewStore(dir string, logger zerolog.Logger) (*Store, error) {
	if dir == "" {
		return nil, domain.NewValidationError("dir", "uploads directory is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create uploads directory: %w", err)
	}
	return &Store{
		dir:    dir,
		logger: logger.With().Str("component", "uploads").Logger(),
	}, nil
}

// ContentHash returns the truncated SHA-256 hash used to address a
// document.
func ContentHash(content []byte) string {
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:])[:HashLength]
}

// Save writes the document and returns its content hash. Saving content
// that is already stored simply rewrites the same file.
func (s *Store) Save(content []byte) (string, error) {
	hash := ContentHash(content)
	if err := os.WriteFile(s.path(hash), content, 0o644); err != nil {
		return "", fmt.Errorf("failed to store upload: %w", err)
	}
	s.logger.Debug().Str("hash", hash).Int("bytes", len(content)).Msg("stored upload")
	return hash, nil
}

// Open returns a reader for the stored document.
// Returns domain.ErrNotFound if no document with that hash exists.
func (s *Store) Open(hash string) (io.ReadCloser, error) {
	f, err := os.Open(s.path(hash))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, domain.NewNotFoundError("upload", hash)
		}
		return nil, fmt.Errorf("failed to open upload: %w", err)
	}
	return f, nil
}

// Read returns the full content of the stored document.
// Returns domain.ErrNotFound if no document with that hash exists.
func (s *Store) Read(hash string) ([]byte, error) {
	content, err := os.ReadFile(s.path(hash))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, domain.NewNotFoundError("upload", hash)
		}
		return nil, fmt.Errorf("failed to read upload: %w", err)
	}
	return content, nil
}

// Exists reports whether a document with the given hash is stored.
func (s *Store) Exists(hash string) bool {
	_, err := os.Stat(s.path(hash))
	return err == nil
}

// Delete removes the stored document. Deleting a missing document is
// not an error.
func (s *Store) Delete(hash string) error {
	if err := os.Remove(s.path(hash)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete upload: %w", err)
	}
	return nil
}

// Cleanup removes the uploaded files behind the given paper IDs.
// Non-upload IDs are ignored. Cleanup never fails; problems are logged
// and the remaining files are still attempted.
func (s *Store) Cleanup(ids []domain.PaperID) {
	for _, id := range ids {
		if id.Kind != domain.PaperIDUpload {
			continue
		}
		if err := s.Delete(id.UploadHash); err != nil {
			s.logger.Warn().Err(err).Str("hash", id.UploadHash).Msg("failed to clean up upload")
		}
	}
}

// SweepOlderThan removes stored documents whose modification time is
// older than age and returns the number removed.
func (s *Store) SweepOlderThan(age time.Duration) (int, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return 0, fmt.Errorf("failed to list uploads directory: %w", err)
	}

	cutoff := time.Now().Add(-age)
	removed := 0
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".pdf") {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			s.logger.Warn().Err(err).Str("file", entry.Name()).Msg("failed to stat upload during sweep")
			continue
		}
		if info.ModTime().After(cutoff) {
			continue
		}
		if err := os.Remove(filepath.Join(s.dir, entry.Name())); err != nil {
			s.logger.Warn().Err(err).Str("file", entry.Name()).Msg("failed to remove upload during sweep")
			continue
		}
		removed++
	}

	if removed > 0 {
		s.logger.Info().Int("removed", removed).Msg("swept old uploads")
	}
	return removed, nil
}

func (s *Store) path(hash string) string {
	return filepath.Join(s.dir, hash+".pdf")
}

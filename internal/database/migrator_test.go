package database

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestNewMigrator_Validation(t *testing.T) {
	logger := zerolog.Nop()

	t.Run("rejects nil database", func(t *testing.T) {
		migrator, err := NewMigrator(nil, "/some/path", logger)
		assert.Error(t, err)
		assert.Nil(t, migrator)
		assert.Contains(t, err.Error(), "database pool is required")
	})

	t.Run("rejects nil pool", func(t *testing.T) {
		migrator, err := NewMigrator(&DB{pool: nil}, "/some/path", logger)
		assert.Error(t, err)
		assert.Nil(t, migrator)
		assert.Contains(t, err.Error(), "database pool is required")
	})

	t.Run("rejects empty directory", func(t *testing.T) {
		migrator, err := NewMigrator(nil, "", logger)
		assert.Error(t, err)
		assert.Nil(t, migrator)
	})
}

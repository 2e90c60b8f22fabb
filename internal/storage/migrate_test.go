package storage

import (
	"io/fs"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmbeddedMigrationsAreOrderedAndAnnotated(t *testing.T) {
	entries, err := fs.ReadDir(migrationFS, "migrations")
	require.NoError(t, err)
	require.NotEmpty(t, entries)

	for _, entry := range entries {
		raw, err := fs.ReadFile(migrationFS, "migrations/"+entry.Name())
		require.NoError(t, err)

		body := string(raw)
		assert.Contains(t, body, "-- +goose Up", entry.Name())
		assert.Contains(t, body, "-- +goose Down", entry.Name())
	}
}

func TestInitialMigrationStoresRefreshTokensAsArray(t *testing.T) {
	raw, err := fs.ReadFile(migrationFS, "migrations/00001_init.sql")
	require.NoError(t, err)

	schema := strings.ToLower(string(raw))
	assert.Contains(t, schema, "refresh_tokens text[] not null default '{}'")
	assert.Contains(t, schema, "username       text not null unique")
	assert.Contains(t, schema, "on delete cascade")
}

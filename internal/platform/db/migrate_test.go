package db

import (
	"io/fs"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmbeddedMigrationsAreGooseFiles(t *testing.T) {
	files, err := fs.Glob(Migrations(), "*.sql")
	require.NoError(t, err)
	require.Len(t, files, 2)

	for _, name := range files {
		body, err := fs.ReadFile(Migrations(), name)
		require.NoError(t, err)
		text := string(body)
		assert.True(t, strings.HasPrefix(text, "-- +goose Up"), "%s must start with an Up section", name)
		assert.Contains(t, text, "-- +goose Down", "%s must be reversible", name)
	}
}

func TestHistoryMigrationKeepsInsertionSequence(t *testing.T) {
	body, err := fs.ReadFile(Migrations(), "00002_creative_request_history.sql")
	require.NoError(t, err)
	assert.Contains(t, string(body), "seq         BIGSERIAL")
	assert.Contains(t, string(body), "append-only")
}

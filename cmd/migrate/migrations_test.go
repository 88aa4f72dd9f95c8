package main

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/pressly/goose/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func repoMigrationsDir(t *testing.T) string {
	t.Helper()
	_, thisFile, _, ok := runtime.Caller(0)
	require.True(t, ok, "runtime.Caller failed")
	return filepath.Clean(filepath.Join(filepath.Dir(thisFile), "..", "..", "db", "migrations"))
}

func TestCollectMigrations(t *testing.T) {
	migrations, err := goose.CollectMigrations(repoMigrationsDir(t), 0, goose.MaxVersion)
	require.NoError(t, err)
	assert.Len(t, migrations, 2)
}

func TestSQLMigrations(t *testing.T) {
	dir := repoMigrationsDir(t)
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)

	var all strings.Builder
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".sql") {
			continue
		}
		b, err := os.ReadFile(filepath.Join(dir, e.Name()))
		require.NoError(t, err)

		s := string(b)
		assert.Contains(t, s, "-- +goose Up", e.Name())
		assert.Contains(t, s, "-- +goose Down", e.Name())
		all.WriteString(s)
	}

	for _, table := range []string{
		"store_country", "store_author", "store_binding", "store_manufacturer",
		"store_supplier", "store_product_series", "store_product_category",
		"store_customer", "store_product", "store_song", "store_product_picture",
		"store_product_category_ref", "sync_runs", "sync_run_failures",
	} {
		assert.Contains(t, all.String(), "CREATE TABLE "+table+" (", table)
		assert.Contains(t, all.String(), "DROP TABLE IF EXISTS "+table+";", table)
	}
}

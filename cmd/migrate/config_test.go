package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"

	"webshopsync/internal/config"
)

func TestMigrationsDir(t *testing.T) {
	t.Setenv("MIGRATIONS_DIR", "/custom/migrations")
	assert.Equal(t, "/custom/migrations", migrationsDir())

	t.Setenv("MIGRATIONS_DIR", "")
	assert.Equal(t, "db/migrations", migrationsDir())
}

func TestDatabaseDSN(t *testing.T) {
	t.Setenv("DB_DSN", "")
	assert.Equal(t, defaultDSN, databaseDSN())

	t.Setenv("DB_DSN", "postgres://sync@db:5432/webshopsync")
	assert.Equal(t, "postgres://sync@db:5432/webshopsync", databaseDSN())
}

func TestLoadEnvFiles_DoesNotOverrideExistingEnv(t *testing.T) {
	tmp := t.TempDir()
	if err := os.WriteFile(filepath.Join(tmp, ".env"), []byte("DB_DSN=from_file\nMIGRATIONS_DIR=from_file\n"), 0o644); err != nil {
		t.Fatalf("write .env: %v", err)
	}

	t.Setenv("DB_DSN", "from_env")
	t.Setenv("MIGRATIONS_DIR", "")
	os.Unsetenv("MIGRATIONS_DIR")

	cwd, _ := os.Getwd()
	_ = os.Chdir(tmp)
	t.Cleanup(func() {
		_ = os.Chdir(cwd)
		_ = os.Unsetenv("MIGRATIONS_DIR")
	})

	config.LoadEnvFiles()

	assert.Equal(t, "from_env", databaseDSN())
	assert.Equal(t, "from_file", migrationsDir())
}

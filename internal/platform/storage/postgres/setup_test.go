package postgres

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/marcelojr/ronda-kanban/internal/platform/migrations"
)

func setupPostgres(t *testing.T) *gorm.DB {
	t.Helper()
	path := filepath.Join(t.TempDir(), "remoto.db")
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)

	// Aplicar as mesmas migrations do modo direto no banco de teste
	require.NoError(t, migrations.RunRemote(db))

	t.Cleanup(func() {
		sqlDB, _ := db.DB()
		sqlDB.Close()
	})

	return db
}

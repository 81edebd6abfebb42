package repository

import (
	"testing"

	"github.com/nimasrn/classroom-points/pkg/pg"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type testDB struct {
	*pg.DB
	rawDB *gorm.DB
}

func setupTestDB(t *testing.T) *testDB {
	t.Helper()
	db := openTestGorm(t)
	return &testDB{
		DB:    pg.Wrap(db),
		rawDB: db,
	}
}

// openTestGorm opens a fresh migrated in-memory database.
func openTestGorm(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)

	// every pooled connection to :memory: is a separate database
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(Entities()...))
	return db
}

func ptr(i int64) *int64 {
	return &i
}

package migration_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/sergiofdezfernandez/housing-rental-backend/internal/database"
	"github.com/sergiofdezfernandez/housing-rental-backend/internal/migration"
)

func setupTestDB(t *testing.T) *gorm.DB {
	db, err := database.OpenMemory()
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close(db) })
	return db
}

func tableMigration(version, table string) *migration.Migration {
	return &migration.Migration{
		Version:   version,
		Name:      "create_" + table,
		CreatedAt: time.Now(),
		Up: func(db *gorm.DB) error {
			return db.Exec("CREATE TABLE " + table + " (id INTEGER PRIMARY KEY)").Error
		},
		Down: func(db *gorm.DB) error {
			return db.Exec("DROP TABLE " + table).Error
		},
	}
}

func tableCount(t *testing.T, db *gorm.DB, table string) int64 {
	var count int64
	err := db.Raw("SELECT count(*) FROM sqlite_master WHERE type='table' AND name=?", table).Count(&count).Error
	require.NoError(t, err)
	return count
}

func TestMigrator_Up(t *testing.T) {
	db := setupTestDB(t)
	migrator := migration.NewMigrator(db, tableMigration("20240315000001", "test"))

	applied, err := migrator.Up()
	require.NoError(t, err)
	assert.Len(t, applied, 1)

	var record migration.MigrationRecord
	err = db.Where("version = ?", "20240315000001").First(&record).Error
	assert.NoError(t, err)
	assert.Equal(t, "create_test", record.Name)
	assert.Equal(t, int64(1), tableCount(t, db, "test"))

	// a second run has nothing to do
	applied, err = migrator.Up()
	require.NoError(t, err)
	assert.Empty(t, applied)
}

func TestMigrator_UpOrdersByVersion(t *testing.T) {
	db := setupTestDB(t)
	migrator := migration.NewMigrator(db,
		tableMigration("20240315000002", "second"),
		tableMigration("20240315000001", "first"),
	)

	applied, err := migrator.Up()
	require.NoError(t, err)
	require.Len(t, applied, 2)
	assert.Equal(t, "create_first", applied[0].Name)
	assert.Equal(t, "create_second", applied[1].Name)
}

func TestMigrator_UpRollsBackFailedStep(t *testing.T) {
	db := setupTestDB(t)
	broken := &migration.Migration{
		Version: "20240315000002",
		Name:    "broken",
		Up: func(db *gorm.DB) error {
			return db.Exec("CREATE TABLE nope (").Error
		},
		Down: func(db *gorm.DB) error { return nil },
	}
	migrator := migration.NewMigrator(db, tableMigration("20240315000001", "test"), broken)

	applied, err := migrator.Up()
	assert.Error(t, err)
	assert.Len(t, applied, 1)

	versions, err := migrator.GetAppliedVersions()
	require.NoError(t, err)
	assert.True(t, versions["20240315000001"])
	assert.False(t, versions["20240315000002"])
}

func TestMigrator_Down(t *testing.T) {
	db := setupTestDB(t)
	migrator := migration.NewMigrator(db,
		tableMigration("20240315000001", "first"),
		tableMigration("20240315000002", "second"),
	)

	_, err := migrator.Up()
	require.NoError(t, err)

	reverted, err := migrator.Down()
	require.NoError(t, err)
	require.NotNil(t, reverted)
	assert.Equal(t, "create_second", reverted.Name)

	var record migration.MigrationRecord
	err = db.Where("version = ?", "20240315000002").First(&record).Error
	assert.Error(t, err)
	assert.Equal(t, int64(0), tableCount(t, db, "second"))
	assert.Equal(t, int64(1), tableCount(t, db, "first"))
}

func TestMigrator_DownWithNothingApplied(t *testing.T) {
	db := setupTestDB(t)
	migrator := migration.NewMigrator(db, tableMigration("20240315000001", "test"))

	reverted, err := migrator.Down()
	assert.NoError(t, err)
	assert.Nil(t, reverted)
}

func TestMigrator_Status(t *testing.T) {
	db := setupTestDB(t)
	migrator := migration.NewMigrator(db, tableMigration("20240315000001", "first"))
	_, err := migrator.Up()
	require.NoError(t, err)

	migrator.Register(tableMigration("20240315000002", "second"))

	statuses, err := migrator.Status()
	require.NoError(t, err)
	require.Len(t, statuses, 2)
	assert.True(t, statuses[0].Applied)
	assert.False(t, statuses[0].AppliedAt.IsZero())
	assert.False(t, statuses[1].Applied)

	history, err := migrator.History()
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "20240315000001", history[0].Version)
}

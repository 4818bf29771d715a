package database

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/charlesng35/moodtracker/pkg/logger"
)

func TestNormaliseDriver(t *testing.T) {
	cases := map[string]string{
		"":            DriverSQLite,
		"SQLite3":     DriverSQLite,
		" postgresql": DriverPostgres,
		"pg":          DriverPostgres,
		"MariaDB":     DriverMySQL,
		"Oracle":      "oracle",
	}
	for in, want := range cases {
		require.Equal(t, want, NormaliseDriver(in), "driver %q", in)
	}
}

func TestOpenSQLiteMemory(t *testing.T) {
	db := openTestDB(t)
	require.NoError(t, db.Exec("SELECT 1").Error)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	require.Equal(t, 1, sqlDB.Stats().MaxOpenConnections)
}

func TestOpenSQLiteFileCreatesDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "moodtracker.sqlite")

	db, err := Open(Config{Path: path})
	require.NoError(t, err)
	t.Cleanup(func() { _ = Close(db) })

	require.NoError(t, AutoMigrate(db))
	require.FileExists(t, path)
}

func TestOpenStoresTimestampsInUTC(t *testing.T) {
	db := openTestDB(t)
	require.Equal(t, time.UTC, db.NowFunc().Location())
}

func TestOpenRejectsBadConfig(t *testing.T) {
	_, err := Open(Config{Driver: "oracle"})
	require.ErrorContains(t, err, `unsupported database driver "oracle"`)

	_, err = Open(Config{Driver: "postgres"})
	require.ErrorContains(t, err, "requires user and database name")

	_, err = Open(Config{Driver: "mariadb"})
	require.ErrorContains(t, err, "requires user and database name")
}

func TestCloseNilHandle(t *testing.T) {
	require.NoError(t, Close(nil))
}

func TestGormLoggerReportsFailuresAndSlowQueries(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	logger.Replace(zap.New(core))
	t.Cleanup(func() { logger.Replace(nil) })

	l := newGormLogger(10 * time.Millisecond)
	ctx := context.Background()
	query := func() (string, int64) { return "SELECT * FROM mood_events", 3 }

	l.Trace(ctx, time.Now(), query, gormlogger.ErrRecordNotFound)
	require.Zero(t, logs.Len(), "record not found is not an error")

	l.Trace(ctx, time.Now(), query, gorm.ErrInvalidData)
	l.Trace(ctx, time.Now().Add(-time.Second), query, nil)
	l.Trace(ctx, time.Now(), query, nil)

	entries := logs.All()
	require.Len(t, entries, 2)
	require.Equal(t, "query failed", entries[0].Message)
	require.Equal(t, zapcore.ErrorLevel, entries[0].Level)
	require.Equal(t, "slow query", entries[1].Message)
	require.Equal(t, "SELECT * FROM mood_events", entries[1].ContextMap()["sql"])

	l.LogMode(gormlogger.Silent).Trace(ctx, time.Now(), query, gorm.ErrInvalidData)
	require.Equal(t, 2, logs.Len())
}

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_foreign_keys=1", uuid.NewString())
	db, err := Open(Config{DSN: dsn})
	require.NoError(t, err)
	t.Cleanup(func() { _ = Close(db) })
	return db
}

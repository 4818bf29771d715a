// Package database opens the gorm handle that backs subscriptions, moods and
// delivery reports. SQLite is the default; Postgres and MySQL are supported
// for shared deployments.
package database

import (
	"fmt"
	"strings"
	"time"

	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// Supported driver names after normalisation.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverMySQL    = "mysql"
)

// Config contains database connection options.
type Config struct {
	Driver   string
	Path     string // SQLite file; empty or ":memory:" keeps the data in memory
	DSN      string // overrides every other connection field when set
	Host     string
	Port     int
	Name     string
	User     string
	Password string
	Options  map[string]string

	Pool          PoolConfig
	SlowThreshold time.Duration
}

// PoolConfig tunes the connection pool of the network drivers. SQLite always
// runs with a single connection.
type PoolConfig struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// NormaliseDriver maps driver aliases onto the supported driver names.
// Unknown names are returned lower-cased so Open can report them.
func NormaliseDriver(name string) string {
	switch driver := strings.ToLower(strings.TrimSpace(name)); driver {
	case "", "sqlite", "sqlite3":
		return DriverSQLite
	case "postgres", "postgresql", "pg":
		return DriverPostgres
	case "mysql", "mariadb":
		return DriverMySQL
	default:
		return driver
	}
}

// Open initialises a gorm.DB using the provided configuration.
func Open(cfg Config) (*gorm.DB, error) {
	switch driver := NormaliseDriver(cfg.Driver); driver {
	case DriverSQLite:
		return openSQLite(cfg)
	case DriverPostgres:
		dsn, err := postgresDSN(cfg)
		if err != nil {
			return nil, err
		}
		return openNetwork(postgres.Open(dsn), cfg)
	case DriverMySQL:
		dsn, err := mysqlDSN(cfg)
		if err != nil {
			return nil, err
		}
		return openNetwork(mysql.Open(dsn), cfg)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}

func openNetwork(dialector gorm.Dialector, cfg Config) (*gorm.DB, error) {
	db, err := gorm.Open(dialector, gormConfig(cfg))
	if err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}

	pool := cfg.Pool
	if pool.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(pool.MaxOpenConns)
	}
	if pool.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(pool.MaxIdleConns)
	}
	if pool.ConnMaxLifetime > 0 {
		sqlDB.SetConnMaxLifetime(pool.ConnMaxLifetime)
	}
	return db, nil
}

// Close releases the underlying connection pool.
func Close(db *gorm.DB) error {
	if db == nil {
		return nil
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func gormConfig(cfg Config) *gorm.Config {
	return &gorm.Config{
		Logger:  newGormLogger(cfg.SlowThreshold),
		NowFunc: func() time.Time { return time.Now().UTC() },
	}
}

package app

import (
	"strings"

	"github.com/charlesng35/moodtracker/internal/cache"
	"github.com/charlesng35/moodtracker/internal/database"
)

// DatabaseClientConfig resolves the configured driver and picks the matching
// host block. Unknown drivers pass through so database.Open can reject them.
func (c DatabaseConfig) DatabaseClientConfig() database.Config {
	dbCfg := database.Config{
		Driver:        database.NormaliseDriver(c.Driver),
		Path:          strings.TrimSpace(c.Path),
		DSN:           strings.TrimSpace(c.DSN),
		SlowThreshold: c.SlowQueryThreshold,
		Pool: database.PoolConfig{
			MaxOpenConns:    c.Pool.MaxOpenConns,
			MaxIdleConns:    c.Pool.MaxIdleConns,
			ConnMaxLifetime: c.Pool.ConnMaxLifetime,
		},
	}

	var host DBAuthConfig
	switch dbCfg.Driver {
	case database.DriverPostgres:
		host = c.Postgres
	case database.DriverMySQL:
		host = c.MySQL
	default:
		return dbCfg
	}

	dbCfg.Host = strings.TrimSpace(host.Host)
	dbCfg.Port = host.Port
	dbCfg.Name = strings.TrimSpace(host.Database)
	dbCfg.User = strings.TrimSpace(host.Username)
	dbCfg.Password = host.Password
	dbCfg.Options = host.Options
	return dbCfg
}

// RedisClientConfig converts the cache settings for cache.NewRedisClient.
func (c CacheConfig) RedisClientConfig() cache.RedisConfig {
	r := c.Redis
	return cache.RedisConfig{
		Address:  strings.TrimSpace(r.Address),
		Username: strings.TrimSpace(r.Username),
		Password: r.Password,
		DB:       r.DB,
		TLS:      r.TLS,
		Timeout:  r.Timeout,
	}
}

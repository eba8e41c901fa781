package docstore

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"storefront/pkg/database"
)

const (
	DriverMemory = "memory"
	DriverRedis  = "redis"
)

type Config struct {
	// Driver is one of memory, redis, sqlite3, postgres.
	Driver        string
	Database      database.Config
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	RedisPrefix   string
}

// Open builds the configured store. The returned close func releases the
// underlying connection.
func Open(ctx context.Context, cfg Config) (Store, func() error, error) {
	switch cfg.Driver {
	case DriverMemory:
		return NewMemoryStore(), func() error { return nil }, nil

	case DriverRedis:
		if cfg.RedisAddr == "" {
			return nil, nil, fmt.Errorf("redis store: address is required")
		}
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := client.Ping(pingCtx).Err(); err != nil {
			_ = client.Close()
			return nil, nil, fmt.Errorf("redis ping failed: %w", err)
		}
		return NewRedisStore(client, cfg.RedisPrefix), client.Close, nil

	case database.DriverSQLite, database.DriverPostgres:
		dbCfg := cfg.Database
		dbCfg.Driver = cfg.Driver
		if dbCfg.Driver == database.DriverPostgres && dbCfg.DSN == "" {
			return nil, nil, fmt.Errorf("postgres store: dsn is required")
		}
		if dbCfg.Driver == database.DriverSQLite && dbCfg.Path == "" {
			return nil, nil, fmt.Errorf("sqlite store: path is required")
		}
		db, err := database.Open(dbCfg)
		if err != nil {
			return nil, nil, err
		}
		if err := database.Migrate(db); err != nil {
			_ = db.Close()
			return nil, nil, fmt.Errorf("db migrate failed: %w", err)
		}
		return NewSQLStore(db), db.Close, nil

	default:
		return nil, nil, fmt.Errorf("unsupported store driver %q", cfg.Driver)
	}
}

package db

import (
	"context"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// A single scanner process holds few connections: one for the scan loop,
// a couple for the HTTP surface. Lifetime settings are fixed; only the
// connection counts are tunable.
const (
	defaultMaxConns = 5
	defaultMinConns = 1

	connLifetime      = 30 * time.Minute
	connIdleTime      = 5 * time.Minute
	healthCheckPeriod = 30 * time.Second
)

type PoolConfig struct {
	MaxConns int32
	MinConns int32
}

// PoolConfigFromEnv reads DB_MAX_CONNS and DB_MIN_CONNS, clamping
// nonsensical values.
func PoolConfigFromEnv() PoolConfig {
	cfg := PoolConfig{MaxConns: defaultMaxConns, MinConns: defaultMinConns}

	if v := strings.TrimSpace(os.Getenv("DB_MAX_CONNS")); v != "" {
		if n, err := strconv.ParseInt(v, 10, 32); err == nil {
			cfg.MaxConns = int32(n)
		}
	}
	if v := strings.TrimSpace(os.Getenv("DB_MIN_CONNS")); v != "" {
		if n, err := strconv.ParseInt(v, 10, 32); err == nil {
			cfg.MinConns = int32(n)
		}
	}

	if cfg.MaxConns < 1 {
		cfg.MaxConns = 1
	}
	if cfg.MinConns < 0 {
		cfg.MinConns = 0
	}
	if cfg.MinConns > cfg.MaxConns {
		cfg.MinConns = cfg.MaxConns
	}
	return cfg
}

// ensureSSLModeRequire defaults sslmode to require; most hosted Postgres
// providers refuse plain connections.
func ensureSSLModeRequire(dbURL string) string {
	u, err := url.Parse(dbURL)
	if err != nil {
		// Leave it to pgx to surface the connection error.
		return dbURL
	}

	q := u.Query()
	if q.Get("sslmode") == "" {
		q.Set("sslmode", "require")
		u.RawQuery = q.Encode()
	}
	return strings.TrimSpace(u.String())
}

func NewPool(ctx context.Context, databaseURL string, cfg PoolConfig) (*pgxpool.Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(ensureSSLModeRequire(databaseURL))
	if err != nil {
		return nil, err
	}

	poolCfg.MaxConns = cfg.MaxConns
	poolCfg.MinConns = cfg.MinConns
	poolCfg.MaxConnLifetime = connLifetime
	poolCfg.MaxConnIdleTime = connIdleTime
	poolCfg.HealthCheckPeriod = healthCheckPeriod

	return pgxpool.NewWithConfig(ctx, poolCfg)
}

// Package store opens the backing connections the tap can persist through:
// a pgxpool for the Postgres bookmark store and a native ClickHouse
// connection for the analytics sink
package store

import (
	"context"
	"time"

	perr "algoliatap/internal/platform/errors"
	"algoliatap/internal/platform/logger"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PGConfig configures the Postgres pool
type PGConfig struct {
	URL      string
	MaxConns int32
}

// OpenPG opens a pgxpool and verifies connectivity with a short ping retry,
// so a sink that races the database container start does not flake
func OpenPG(ctx context.Context, cfg PGConfig) (*pgxpool.Pool, error) {
	pcfg, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, perr.Wrapf(err, perr.ErrorCodeConfig, "parse postgres url")
	}
	if cfg.MaxConns > 0 {
		pcfg.MaxConns = cfg.MaxConns
	}
	pool, err := pgxpool.NewWithConfig(ctx, pcfg)
	if err != nil {
		return nil, perr.Wrapf(err, perr.ErrorCodeDB, "open postgres pool")
	}

	log := logger.Named("store")
	var last error
	for i := 0; i < 5; i++ {
		if last = pool.Ping(ctx); last == nil {
			return pool, nil
		}
		log.Warn().Err(last).Int("attempt", i).Msg("postgres ping failed")
		select {
		case <-ctx.Done():
			pool.Close()
			return nil, ctx.Err()
		case <-time.After(time.Duration(i+1) * 500 * time.Millisecond):
		}
	}
	pool.Close()
	return nil, perr.Wrapf(last, perr.ErrorCodeDB, "postgres unreachable")
}

// CHConfig configures the ClickHouse connection
type CHConfig struct {
	Addr     string
	Database string
	Username string
	Password string
}

// OpenCH opens a native-protocol ClickHouse connection and pings it
func OpenCH(ctx context.Context, cfg CHConfig) (driver.Conn, error) {
	conn, err := clickhouse.Open(&clickhouse.Options{
		Addr: []string{cfg.Addr},
		Auth: clickhouse.Auth{
			Database: cfg.Database,
			Username: cfg.Username,
			Password: cfg.Password,
		},
		ClientInfo:  BuildClientInfo("sync"),
		DialTimeout: 10 * time.Second,
	})
	if err != nil {
		return nil, perr.Wrapf(err, perr.ErrorCodeDB, "open clickhouse")
	}
	if err := conn.Ping(ctx); err != nil {
		_ = conn.Close()
		return nil, perr.Wrapf(err, perr.ErrorCodeDB, "clickhouse unreachable")
	}
	return conn, nil
}

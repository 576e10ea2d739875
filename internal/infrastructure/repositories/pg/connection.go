package pg

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkg/errors"
)

// NewStoreFromURI creates a Store with its own tuned connection pool.
// Association lookups are small point reads on a hot path (one per
// derivative event), so the pool stays modest but keeps warm connections.
func NewStoreFromURI(ctx context.Context, uri string) (*Store, error) {
	conf, err := pgxpool.ParseConfig(uri)
	if err != nil {
		return nil, errors.WithMessage(err, "parse postgres config")
	}

	conf.MaxConns = 10
	conf.MinConns = 2
	conf.MaxConnLifetime = 2 * time.Hour
	conf.MaxConnIdleTime = 15 * time.Minute
	conf.HealthCheckPeriod = 30 * time.Second
	conf.ConnConfig.ConnectTimeout = 5 * time.Second

	pool, err := pgxpool.NewWithConfig(ctx, conf)
	if err != nil {
		return nil, errors.WithMessage(err, "create postgres pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, errors.WithMessage(err, "ping postgres")
	}

	return NewStore(pool), nil
}

package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Service wraps the shared connection pool to the backing store.
type Service struct {
	Pool *pgxpool.Pool
}

// New opens a pgx connection pool and verifies connectivity.
func New(ctx context.Context, dsn string) (*Service, error) {
	poolConfig, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database config: %w", err)
	}

	poolConfig.MaxConns = 10
	poolConfig.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Service{Pool: pool}, nil
}

// Health reports basic pool statistics for the startup health check.
func (s *Service) Health(ctx context.Context) map[string]string {
	health := map[string]string{"status": "up"}

	if err := s.Pool.Ping(ctx); err != nil {
		health["status"] = "down"
		health["error"] = err.Error()
		return health
	}

	stats := s.Pool.Stat()
	health["total_conns"] = fmt.Sprintf("%d", stats.TotalConns())
	health["idle_conns"] = fmt.Sprintf("%d", stats.IdleConns())

	return health
}

// Close releases the connection pool.
func (s *Service) Close() {
	s.Pool.Close()
}

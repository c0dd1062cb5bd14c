// Package store loads element collections into a relational database and
// reads them back. PostgreSQL (pgx) and SQLite (modernc.org/sqlite) are
// supported.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/wegman-software/osm2sql-go/internal/config"
	"github.com/wegman-software/osm2sql-go/internal/logger"
)

const pingTimeout = 5 * time.Second

// Options tunes a Store.
type Options struct {
	Schema    string // PostgreSQL schema; ignored for SQLite
	MaxParams int    // 0 means the dialect ceiling
	MaxRows   int    // 0 means config.DefaultMaxRows
}

// Store runs loader and fetch statements over one Conn. It is meant to be
// driven by one goroutine at a time.
type Store struct {
	conn      Conn
	dialect   Dialect
	schema    string
	maxParams int
	maxRows   int
	stats     *loadStats
}

// New wraps an open connection.
func New(conn Conn, dialect Dialect, opts Options) *Store {
	maxParams := opts.MaxParams
	if maxParams <= 0 || maxParams > dialect.MaxParams {
		maxParams = dialect.MaxParams
	}
	maxRows := opts.MaxRows
	if maxRows <= 0 {
		maxRows = config.DefaultMaxRows
	}
	schema := ""
	if dialect.numbered {
		schema = opts.Schema
	}
	return &Store{
		conn:      conn,
		dialect:   dialect,
		schema:    schema,
		maxParams: maxParams,
		maxRows:   maxRows,
		stats:     newLoadStats(),
	}
}

// Open connects to the backend selected by cfg and pings it.
func Open(ctx context.Context, cfg *config.Config) (*Store, error) {
	dialect, err := DialectFor(cfg.Backend)
	if err != nil {
		return nil, err
	}

	var conn Conn
	switch cfg.Backend {
	case config.BackendPostgres:
		conn, err = openPostgres(ctx, cfg)
	default:
		conn, err = openSQLite(ctx, cfg.DBPath)
	}
	if err != nil {
		return nil, err
	}

	logger.Get().Debug("Connected to store",
		zap.String("backend", dialect.Name),
		zap.Int("max_params", cfg.EffectiveMaxParams()))

	return New(conn, dialect, Options{
		Schema:    cfg.DBSchema,
		MaxParams: cfg.EffectiveMaxParams(),
		MaxRows:   cfg.MaxRows,
	}), nil
}

func openPostgres(ctx context.Context, cfg *config.Config) (Conn, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.ConnectionString())
	if err != nil {
		return nil, fmt.Errorf("failed to parse connection string: %w", err)
	}
	// Statements are issued strictly one after another.
	poolConfig.MaxConns = 2

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to PostgreSQL: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping PostgreSQL: %w", err)
	}
	return &PoolConn{Pool: pool}, nil
}

func openSQLite(ctx context.Context, path string) (Conn, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("sqlite: path must not be empty")
	}

	db, err := sql.Open("sqlite", sqliteDSN(path))
	if err != nil {
		return nil, fmt.Errorf("sqlite: open: %w", err)
	}
	// One writer; also keeps the per-connection pragmas in effect.
	db.SetMaxOpenConns(1)

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite: ping: %w", err)
	}
	return &DBConn{DB: db}, nil
}

// sqliteDSN appends the pragmas every connection needs.
func sqliteDSN(path string) string {
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + "_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
}

// Close releases the underlying connection.
func (s *Store) Close() {
	s.conn.Close()
}

// Dialect returns the SQL dialect of the store.
func (s *Store) Dialect() Dialect {
	return s.dialect
}

// table returns the schema-qualified name of a table.
func (s *Store) table(name string) string {
	if s.schema == "" {
		return name
	}
	return s.schema + "." + name
}

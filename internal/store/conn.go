package store

import (
	"context"
	"database/sql"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Conn is the part of a database handle the store uses. Both a pgx pool and
// a database/sql handle are adapted to it.
type Conn interface {
	Exec(ctx context.Context, query string, args ...any) error
	Query(ctx context.Context, query string, args ...any) (Rows, error)
	Close()
}

// Rows iterates over a query result.
type Rows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
	Close()
}

// PoolConn adapts a pgx pool.
type PoolConn struct {
	Pool *pgxpool.Pool
}

func (c *PoolConn) Exec(ctx context.Context, query string, args ...any) error {
	_, err := c.Pool.Exec(ctx, query, args...)
	return err
}

func (c *PoolConn) Query(ctx context.Context, query string, args ...any) (Rows, error) {
	rows, err := c.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (c *PoolConn) Close() {
	c.Pool.Close()
}

// DBConn adapts a database/sql handle.
type DBConn struct {
	DB *sql.DB
}

func (c *DBConn) Exec(ctx context.Context, query string, args ...any) error {
	_, err := c.DB.ExecContext(ctx, query, args...)
	return err
}

func (c *DBConn) Query(ctx context.Context, query string, args ...any) (Rows, error) {
	rows, err := c.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return sqlRows{rows}, nil
}

func (c *DBConn) Close() {
	_ = c.DB.Close()
}

type sqlRows struct {
	rows *sql.Rows
}

func (r sqlRows) Next() bool             { return r.rows.Next() }
func (r sqlRows) Scan(dest ...any) error { return r.rows.Scan(dest...) }
func (r sqlRows) Err() error             { return r.rows.Err() }
func (r sqlRows) Close()                 { _ = r.rows.Close() }

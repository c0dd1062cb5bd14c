package store

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/wegman-software/osm2sql-go/internal/logger"
)

// Tables in creation order; parents come before the tables referencing them.
var schemaTables = []struct {
	name string
	ddl  string // %[1]s is the table prefix
}{
	{"node", `
		CREATE TABLE IF NOT EXISTS %[1]snode (
			id BIGINT PRIMARY KEY,
			lat DOUBLE PRECISION,
			lon DOUBLE PRECISION,
			version INTEGER,
			"timestamp" TEXT,
			changeset BIGINT,
			uid BIGINT,
			"user" TEXT
		)`},
	{"way", `
		CREATE TABLE IF NOT EXISTS %[1]sway (
			id BIGINT PRIMARY KEY,
			version INTEGER,
			"timestamp" TEXT,
			changeset BIGINT,
			uid BIGINT,
			"user" TEXT
		)`},
	{"relation", `
		CREATE TABLE IF NOT EXISTS %[1]srelation (
			id BIGINT PRIMARY KEY,
			version INTEGER,
			"timestamp" TEXT,
			changeset BIGINT,
			uid BIGINT,
			"user" TEXT
		)`},
	{"node_tags", `
		CREATE TABLE IF NOT EXISTS %[1]snode_tags (
			node_id BIGINT NOT NULL REFERENCES %[1]snode (id),
			"key" TEXT NOT NULL,
			value TEXT NOT NULL,
			PRIMARY KEY (node_id, "key")
		)`},
	{"way_tags", `
		CREATE TABLE IF NOT EXISTS %[1]sway_tags (
			way_id BIGINT NOT NULL REFERENCES %[1]sway (id),
			"key" TEXT NOT NULL,
			value TEXT NOT NULL,
			PRIMARY KEY (way_id, "key")
		)`},
	{"relation_tags", `
		CREATE TABLE IF NOT EXISTS %[1]srelation_tags (
			relation_id BIGINT NOT NULL REFERENCES %[1]srelation (id),
			"key" TEXT NOT NULL,
			value TEXT NOT NULL,
			PRIMARY KEY (relation_id, "key")
		)`},
	// ref_id has no foreign key: extracts reference nodes they do not contain.
	{"way_nodes", `
		CREATE TABLE IF NOT EXISTS %[1]sway_nodes (
			way_id BIGINT NOT NULL REFERENCES %[1]sway (id),
			seq INTEGER NOT NULL,
			ref_id BIGINT NOT NULL,
			PRIMARY KEY (way_id, seq)
		)`},
	{"member", `
		CREATE TABLE IF NOT EXISTS %[1]smember (
			id BIGINT PRIMARY KEY,
			relation_id BIGINT NOT NULL REFERENCES %[1]srelation (id),
			node_id BIGINT,
			way_id BIGINT,
			relation_ref_id BIGINT,
			member_type TEXT NOT NULL CHECK (member_type IN ('node', 'way', 'relation')),
			role TEXT NOT NULL,
			seq INTEGER NOT NULL,
			CHECK (
				(member_type = 'node' AND node_id IS NOT NULL AND way_id IS NULL AND relation_ref_id IS NULL) OR
				(member_type = 'way' AND way_id IS NOT NULL AND node_id IS NULL AND relation_ref_id IS NULL) OR
				(member_type = 'relation' AND relation_ref_id IS NOT NULL AND node_id IS NULL AND way_id IS NULL)
			)
		)`},
}

var schemaIndexes = []struct {
	name string
	ddl  string
}{
	{"way_nodes_ref_idx", `CREATE INDEX IF NOT EXISTS way_nodes_ref_idx ON %[1]sway_nodes (ref_id)`},
	{"member_relation_idx", `CREATE INDEX IF NOT EXISTS member_relation_idx ON %[1]smember (relation_id, seq)`},
}

// TableNames lists the store tables in creation order.
func TableNames() []string {
	names := make([]string, len(schemaTables))
	for i, t := range schemaTables {
		names[i] = t.name
	}
	return names
}

func (s *Store) prefix() string {
	if s.schema == "" {
		return ""
	}
	return s.schema + "."
}

// CreateSchema creates all tables and indexes if they do not exist.
func (s *Store) CreateSchema(ctx context.Context) error {
	log := logger.Get()

	if s.schema != "" && s.schema != "public" {
		if err := s.conn.Exec(ctx, fmt.Sprintf("CREATE SCHEMA IF NOT EXISTS %s", s.schema)); err != nil {
			return fmt.Errorf("failed to create schema: %w", err)
		}
	}

	for _, t := range schemaTables {
		log.Debug("Creating table", zap.String("table", t.name))
		if err := s.conn.Exec(ctx, fmt.Sprintf(t.ddl, s.prefix())); err != nil {
			return fmt.Errorf("failed to create table %s: %w", t.name, err)
		}
	}

	for _, idx := range schemaIndexes {
		log.Debug("Creating index", zap.String("name", idx.name))
		if err := s.conn.Exec(ctx, fmt.Sprintf(idx.ddl, s.prefix())); err != nil {
			return fmt.Errorf("failed to create index %s: %w", idx.name, err)
		}
	}
	return nil
}

// DropSchema drops all tables, children first.
func (s *Store) DropSchema(ctx context.Context) error {
	log := logger.Get()
	for i := len(schemaTables) - 1; i >= 0; i-- {
		name := schemaTables[i].name
		log.Info("Dropping table", zap.String("table", name))
		if err := s.conn.Exec(ctx, fmt.Sprintf("DROP TABLE IF EXISTS %s", s.table(name))); err != nil {
			return fmt.Errorf("failed to drop table %s: %w", name, err)
		}
	}
	return nil
}

// CountRows returns the row count of every table.
func (s *Store) CountRows(ctx context.Context) (map[string]int64, error) {
	counts := make(map[string]int64, len(schemaTables))
	for _, t := range schemaTables {
		rows, err := s.conn.Query(ctx, fmt.Sprintf("SELECT COUNT(*) FROM %s", s.table(t.name)))
		if err != nil {
			return nil, &StoreError{Op: "count", Table: t.name, Err: err}
		}
		var v any
		if rows.Next() {
			err = rows.Scan(&v)
		}
		if err == nil {
			err = rows.Err()
		}
		rows.Close()
		if err != nil {
			return nil, &StoreError{Op: "count", Table: t.name, Err: err}
		}
		n, err := toInt64(v)
		if err != nil {
			return nil, &StoreError{Op: "count", Table: t.name, Err: err}
		}
		counts[t.name] = n
	}
	return counts, nil
}

package store

import (
	"context"
	"fmt"

	"github.com/wegman-software/osm2sql-go/internal/element"
)

// tagsSubquery aggregates the tags of one parent table, sorted by key.
func (s *Store) tagsSubquery(t table) string {
	parent := t.columns[0]
	return fmt.Sprintf(`SELECT %s AS parent_id, %s AS tags FROM %s GROUP BY %s`,
		parent,
		s.dialect.Aggregate(s.dialect.Join(`"key"`, "value"), `"key"`),
		s.table(t.name),
		parent)
}

func (s *Store) nodesQuery() string {
	return fmt.Sprintf(`SELECT n.id, n.lat, n.lon, n.version, n."timestamp", n.changeset, n.uid, n."user", t.tags
		FROM %s n
		LEFT JOIN (%s) t ON t.parent_id = n.id
		ORDER BY n.id`,
		s.table("node"), s.tagsSubquery(nodeTagsTable))
}

func (s *Store) waysQuery() string {
	refs := fmt.Sprintf(`SELECT way_id, %s AS refs FROM %s GROUP BY way_id`,
		s.dialect.Aggregate("CAST(ref_id AS TEXT)", "seq"),
		s.table("way_nodes"))
	return fmt.Sprintf(`SELECT w.id, w.version, w."timestamp", w.changeset, w.uid, w."user", t.tags, r.refs
		FROM %s w
		LEFT JOIN (%s) t ON t.parent_id = w.id
		LEFT JOIN (%s) r ON r.way_id = w.id
		ORDER BY w.id`,
		s.table("way"), s.tagsSubquery(wayTagsTable), refs)
}

func (s *Store) relationsQuery() string {
	record := s.dialect.Join(
		"CAST(id AS TEXT)",
		"COALESCE(CAST(node_id AS TEXT), '')",
		"COALESCE(CAST(way_id AS TEXT), '')",
		"COALESCE(CAST(relation_ref_id AS TEXT), '')",
		"member_type",
		"role",
	)
	members := fmt.Sprintf(`SELECT relation_id, %s AS members FROM %s GROUP BY relation_id`,
		s.dialect.Aggregate(record, "seq"),
		s.table("member"))
	return fmt.Sprintf(`SELECT r.id, r.version, r."timestamp", r.changeset, r.uid, r."user", t.tags, m.members
		FROM %s r
		LEFT JOIN (%s) t ON t.parent_id = r.id
		LEFT JOIN (%s) m ON m.relation_id = r.id
		ORDER BY r.id`,
		s.table("relation"), s.tagsSubquery(relationTagsTable), members)
}

// scanAll runs query and hands every row to fn through rd. Any conversion
// error aborts the whole scan.
func (s *Store) scanAll(ctx context.Context, tableName, query string, rd *rowReader, fn func() error) error {
	rows, err := s.conn.Query(ctx, query)
	if err != nil {
		return &StoreError{Op: "fetch", Table: tableName, Err: err}
	}
	defer rows.Close()

	for rows.Next() {
		if err := rows.Scan(rd.dest()...); err != nil {
			return &StoreError{Op: "fetch", Table: tableName, Err: err}
		}
		if err := fn(); err != nil {
			return err
		}
	}
	if err := rows.Err(); err != nil {
		return &StoreError{Op: "fetch", Table: tableName, Err: err}
	}
	return nil
}

// FetchNodes reads all nodes with their tags, ordered by id.
func (s *Store) FetchNodes(ctx context.Context) ([]element.Node, error) {
	rd := newRowReader("node", []string{"id", "lat", "lon", "version", "timestamp", "changeset", "uid", "user", "tags"})
	var nodes []element.Node

	err := s.scanAll(ctx, "node", s.nodesQuery(), rd, func() error {
		n := element.Node{
			ID:        rd.readID(0),
			Lat:       rd.getFloat64(1),
			Lon:       rd.getFloat64(2),
			Version:   rd.getInt32(3),
			Timestamp: rd.getString(4),
			Changeset: rd.getInt64(5),
			UID:       rd.getInt64(6),
			User:      rd.getString(7),
			Tags:      decodeTags(rd.cell(8)),
		}
		if rd.err != nil {
			return rd.err
		}
		nodes = append(nodes, n)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return nodes, nil
}

// FetchWays reads all ways with their tags and ordered node refs.
func (s *Store) FetchWays(ctx context.Context) ([]element.Way, error) {
	rd := newRowReader("way", []string{"id", "version", "timestamp", "changeset", "uid", "user", "tags", "node_refs"})
	var ways []element.Way

	err := s.scanAll(ctx, "way", s.waysQuery(), rd, func() error {
		w := element.Way{
			ID:        rd.readID(0),
			Version:   rd.getInt32(1),
			Timestamp: rd.getString(2),
			Changeset: rd.getInt64(3),
			UID:       rd.getInt64(4),
			User:      rd.getString(5),
			Tags:      decodeTags(rd.cell(6)),
		}
		refCell := rd.cell(7)
		if rd.err != nil {
			return rd.err
		}
		refs, err := decodeNodeRefs(w.ID, refCell)
		if err != nil {
			return err
		}
		w.NodeRefs = refs
		ways = append(ways, w)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return ways, nil
}

// FetchRelations reads all relations with their tags and ordered members.
func (s *Store) FetchRelations(ctx context.Context) ([]element.Relation, error) {
	rd := newRowReader("relation", []string{"id", "version", "timestamp", "changeset", "uid", "user", "tags", "members"})
	var relations []element.Relation

	err := s.scanAll(ctx, "relation", s.relationsQuery(), rd, func() error {
		r := element.Relation{
			ID:        rd.readID(0),
			Version:   rd.getInt32(1),
			Timestamp: rd.getString(2),
			Changeset: rd.getInt64(3),
			UID:       rd.getInt64(4),
			User:      rd.getString(5),
			Tags:      decodeTags(rd.cell(6)),
		}
		memberCell := rd.cell(7)
		if rd.err != nil {
			return rd.err
		}
		members, err := decodeMembers(r.ID, memberCell)
		if err != nil {
			return err
		}
		r.Members = members
		relations = append(relations, r)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return relations, nil
}

// FetchAll reads the whole store back into a collection.
func (s *Store) FetchAll(ctx context.Context) (*element.Collection, error) {
	nodes, err := s.FetchNodes(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch nodes: %w", err)
	}
	ways, err := s.FetchWays(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch ways: %w", err)
	}
	relations, err := s.FetchRelations(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch relations: %w", err)
	}
	return &element.Collection{Nodes: nodes, Ways: ways, Relations: relations}, nil
}

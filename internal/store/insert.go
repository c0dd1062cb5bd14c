package store

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/wegman-software/osm2sql-go/internal/element"
	"github.com/wegman-software/osm2sql-go/internal/logger"
)

// table describes the insert shape of one store table.
type table struct {
	name    string
	columns []string
}

func (t table) fields() int { return len(t.columns) }

var (
	nodeTable     = table{"node", []string{"id", "lat", "lon", "version", `"timestamp"`, "changeset", "uid", `"user"`}}
	wayTable      = table{"way", []string{"id", "version", `"timestamp"`, "changeset", "uid", `"user"`}}
	relationTable = table{"relation", []string{"id", "version", `"timestamp"`, "changeset", "uid", `"user"`}}

	nodeTagsTable     = table{"node_tags", []string{"node_id", `"key"`, "value"}}
	wayTagsTable      = table{"way_tags", []string{"way_id", `"key"`, "value"}}
	relationTagsTable = table{"relation_tags", []string{"relation_id", `"key"`, "value"}}

	wayNodesTable = table{"way_nodes", []string{"way_id", "seq", "ref_id"}}
	memberTable   = table{"member", []string{"id", "relation_id", "node_id", "way_id", "relation_ref_id", "member_type", "role", "seq"}}
)

// Child rows, flattened from one parent chunk.
type (
	tagRow struct {
		parent int64
		tag    element.Tag
	}
	refRow struct {
		way int64
		seq int
		ref int64
	}
	memberRow struct {
		relation int64
		seq      int
		member   element.Member
	}
)

// insertSQL builds a multi-row insert of rows rows that ignores rows whose
// primary key already exists.
func (s *Store) insertSQL(t table, rows int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "INSERT INTO %s (%s) VALUES ", s.table(t.name), strings.Join(t.columns, ", "))
	n := 1
	for r := 0; r < rows; r++ {
		if r > 0 {
			b.WriteString(", ")
		}
		b.WriteByte('(')
		for f := 0; f < t.fields(); f++ {
			if f > 0 {
				b.WriteString(", ")
			}
			b.WriteString(s.dialect.Placeholder(n))
			n++
		}
		b.WriteByte(')')
	}
	b.WriteString(" ON CONFLICT DO NOTHING")
	return b.String()
}

// chunkRows returns the rows per statement for t.
func (s *Store) chunkRows(t table) int {
	return ChunkRows(s.maxParams, t.fields(), s.maxRows)
}

// insertRows writes items to t, one statement per chunk, in order. The first
// failing chunk stops the call.
func insertRows[T any](ctx context.Context, s *Store, t table, items []T, bind func(args []any, item T) []any) error {
	size := s.chunkRows(t)
	var fullSQL string

	for i, batch := range chunks(items, size) {
		if err := ctx.Err(); err != nil {
			return err
		}

		args := make([]any, 0, len(batch)*t.fields())
		for _, item := range batch {
			args = bind(args, item)
		}

		var query string
		if len(batch) == size {
			if fullSQL == "" {
				fullSQL = s.insertSQL(t, size)
			}
			query = fullSQL
		} else {
			query = s.insertSQL(t, len(batch))
		}

		if err := s.conn.Exec(ctx, query, args...); err != nil {
			return &StoreError{Op: "insert", Table: t.name, Chunk: i, Rows: len(batch), Err: err}
		}
		s.stats.record(t.name, len(batch))
	}
	return nil
}

func bindTag(args []any, r tagRow) []any {
	return append(args, r.parent, r.tag.Key, r.tag.Value)
}

// InsertNodes writes nodes and then their tags.
func (s *Store) InsertNodes(ctx context.Context, nodes []element.Node) error {
	err := insertRows(ctx, s, nodeTable, nodes, func(args []any, n element.Node) []any {
		return append(args, n.ID, n.Lat, n.Lon, n.Version, n.Timestamp, n.Changeset, n.UID, n.User)
	})
	if err != nil {
		return err
	}

	for _, batch := range chunks(nodes, s.chunkRows(nodeTable)) {
		var tags []tagRow
		for _, n := range batch {
			for _, tag := range n.Tags {
				tags = append(tags, tagRow{n.ID, tag})
			}
		}
		if err := insertRows(ctx, s, nodeTagsTable, tags, bindTag); err != nil {
			return err
		}
	}
	return nil
}

// InsertWays writes ways, then their tags and node references.
func (s *Store) InsertWays(ctx context.Context, ways []element.Way) error {
	err := insertRows(ctx, s, wayTable, ways, func(args []any, w element.Way) []any {
		return append(args, w.ID, w.Version, w.Timestamp, w.Changeset, w.UID, w.User)
	})
	if err != nil {
		return err
	}

	for _, batch := range chunks(ways, s.chunkRows(wayTable)) {
		var tags []tagRow
		var refs []refRow
		for _, w := range batch {
			for _, tag := range w.Tags {
				tags = append(tags, tagRow{w.ID, tag})
			}
			for seq, ref := range w.NodeRefs {
				refs = append(refs, refRow{w.ID, seq, ref})
			}
		}
		if err := insertRows(ctx, s, wayTagsTable, tags, bindTag); err != nil {
			return err
		}
		err := insertRows(ctx, s, wayNodesTable, refs, func(args []any, r refRow) []any {
			return append(args, r.way, r.seq, r.ref)
		})
		if err != nil {
			return err
		}
	}
	return nil
}

// InsertRelations writes relations, then their tags and members.
func (s *Store) InsertRelations(ctx context.Context, relations []element.Relation) error {
	err := insertRows(ctx, s, relationTable, relations, func(args []any, r element.Relation) []any {
		return append(args, r.ID, r.Version, r.Timestamp, r.Changeset, r.UID, r.User)
	})
	if err != nil {
		return err
	}

	for _, batch := range chunks(relations, s.chunkRows(relationTable)) {
		var tags []tagRow
		var members []memberRow
		for _, r := range batch {
			for _, tag := range r.Tags {
				tags = append(tags, tagRow{r.ID, tag})
			}
			for seq, m := range r.Members {
				if !m.Target.Kind.Valid() {
					continue
				}
				members = append(members, memberRow{r.ID, seq, m})
			}
		}
		if err := insertRows(ctx, s, relationTagsTable, tags, bindTag); err != nil {
			return err
		}
		err := insertRows(ctx, s, memberTable, members, func(args []any, r memberRow) []any {
			nodeID, wayID, relID := memberColumns(r.member.Target)
			return append(args, r.member.ID, r.relation, nodeID, wayID, relID,
				r.member.Target.Kind.String(), r.member.Role, r.seq)
		})
		if err != nil {
			return err
		}
	}
	return nil
}

// memberColumns spreads a member target over the node_id, way_id and
// relation_ref_id columns. Exactly one of the three is non-nil.
func memberColumns(t element.MemberTarget) (nodeID, wayID, relationRefID any) {
	switch t.Kind {
	case element.KindNode:
		return t.Ref, nil, nil
	case element.KindWay:
		return nil, t.Ref, nil
	case element.KindRelation:
		return nil, nil, t.Ref
	}
	return nil, nil, nil
}

// Load writes a whole collection: nodes, then ways, then relations.
func (s *Store) Load(ctx context.Context, c *element.Collection) error {
	log := logger.Get()

	if err := s.InsertNodes(ctx, c.Nodes); err != nil {
		return fmt.Errorf("failed to load nodes: %w", err)
	}
	log.Debug("Nodes loaded", zap.Int("count", len(c.Nodes)))

	if err := s.InsertWays(ctx, c.Ways); err != nil {
		return fmt.Errorf("failed to load ways: %w", err)
	}
	log.Debug("Ways loaded", zap.Int("count", len(c.Ways)))

	if err := s.InsertRelations(ctx, c.Relations); err != nil {
		return fmt.Errorf("failed to load relations: %w", err)
	}
	log.Debug("Relations loaded", zap.Int("count", len(c.Relations)))
	return nil
}

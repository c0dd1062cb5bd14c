package store

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/wegman-software/osm2sql-go/internal/element"
)

func TestChunkRows(t *testing.T) {
	tests := []struct {
		maxParams, fields, maxRows int
		want                       int
	}{
		{999, 8, 4000, 124},
		{999, 6, 4000, 166},
		{999, 3, 4000, 333},
		{65535, 3, 4000, 4000},
		{65535, 8, 4000, 4000},
		{65535, 8, 0, 8191},
		{5, 8, 4000, 1},
		{999, 0, 4000, 999},
	}

	for _, tt := range tests {
		if got := ChunkRows(tt.maxParams, tt.fields, tt.maxRows); got != tt.want {
			t.Errorf("ChunkRows(%d, %d, %d) = %d, want %d", tt.maxParams, tt.fields, tt.maxRows, got, tt.want)
		}
	}
}

func makeNodes(n int) []element.Node {
	nodes := make([]element.Node, n)
	for i := range nodes {
		nodes[i] = element.Node{ID: int64(i + 1), Lat: 1, Lon: 2, Version: 1}
	}
	return nodes
}

func TestInsertNodesStatementCount(t *testing.T) {
	conn := &recordingConn{}
	s := New(conn, SQLite, Options{MaxParams: 999})

	if err := s.InsertNodes(context.Background(), makeNodes(1200)); err != nil {
		t.Fatalf("InsertNodes failed: %v", err)
	}

	// 999 / 8 = 124 rows per statement; ceil(1200/124) = 10
	if len(conn.execs) != 10 {
		t.Fatalf("statements = %d, want 10", len(conn.execs))
	}
	for i, call := range conn.execs[:9] {
		if len(call.args) != 124*8 {
			t.Errorf("statement %d binds %d args, want %d", i, len(call.args), 124*8)
		}
	}
	if last := conn.execs[9]; len(last.args) != (1200-9*124)*8 {
		t.Errorf("last statement binds %d args, want %d", len(last.args), (1200-9*124)*8)
	}

	stats := s.Stats()
	if stats[0].Table != "node" || stats[0].Statements != 10 || stats[0].Rows != 1200 {
		t.Errorf("node stats = %+v", stats[0])
	}
}

func TestInsertRespectsParamCeiling(t *testing.T) {
	c := &element.Collection{Nodes: makeNodes(300)}
	for i := range c.Nodes {
		c.Nodes[i].Tags = element.Tags{{Key: "a", Value: "1"}, {Key: "b", Value: "2"}}
	}
	for i := 0; i < 50; i++ {
		way := element.Way{ID: int64(i + 1), Tags: element.Tags{{Key: "highway", Value: "path"}}}
		for j := 0; j < 20; j++ {
			way.NodeRefs = append(way.NodeRefs, int64(j+1))
		}
		c.Ways = append(c.Ways, way)
	}
	for i := 0; i < 20; i++ {
		rel := element.Relation{ID: int64(i + 1)}
		for j := 0; j < 10; j++ {
			rel.Members = append(rel.Members, element.NewMember(rel.ID, element.WayTarget(int64(j+1)), "outer"))
		}
		c.Relations = append(c.Relations, rel)
	}

	for _, maxParams := range []int{24, 100, 999} {
		conn := &recordingConn{}
		s := New(conn, SQLite, Options{MaxParams: maxParams})
		if err := s.Load(context.Background(), c); err != nil {
			t.Fatalf("Load failed: %v", err)
		}
		for _, call := range conn.execs {
			if len(call.args) > maxParams {
				t.Errorf("maxParams=%d: statement binds %d args: %.60s", maxParams, len(call.args), call.query)
			}
		}
	}
}

// tableOf returns the table name of a recorded INSERT.
func tableOf(query string) string {
	rest := strings.TrimPrefix(query, "INSERT INTO ")
	name, _, _ := strings.Cut(rest, " ")
	return name
}

func TestInsertParentsBeforeChildren(t *testing.T) {
	conn := &recordingConn{}
	// 3 way rows per statement, 6 tag or ref rows per statement
	s := New(conn, SQLite, Options{MaxParams: 18})

	var ways []element.Way
	for i := 0; i < 7; i++ {
		ways = append(ways, element.Way{
			ID:       int64(i + 1),
			NodeRefs: []int64{1, 2, 3},
			Tags:     element.Tags{{Key: "k", Value: "v"}},
		})
	}
	if err := s.InsertWays(context.Background(), ways); err != nil {
		t.Fatal(err)
	}

	var order []string
	for _, call := range conn.execs {
		order = append(order, tableOf(call.query))
	}

	// all way chunks first
	for i := 0; i < 3; i++ {
		if order[i] != "way" {
			t.Fatalf("statement %d is %s, want way (order %v)", i, order[i], order)
		}
	}
	for i, name := range order[3:] {
		if name == "way" {
			t.Fatalf("way statement after child rows at %d (order %v)", i+3, order)
		}
	}

	// Child rows of the first parent chunk (3 ways): 3 tags -> 1 statement,
	// 9 refs -> 2 statements.
	want := []string{"way_tags", "way_nodes", "way_nodes"}
	for i, name := range want {
		if order[3+i] != name {
			t.Errorf("statement %d = %s, want %s (order %v)", 3+i, order[3+i], name, order)
		}
	}
}

func TestInsertMemberColumns(t *testing.T) {
	conn := &recordingConn{}
	s := New(conn, SQLite, Options{})

	rel := element.Relation{ID: 1, Members: []element.Member{
		element.NewMember(1, element.NodeTarget(5), "outer"),
		element.NewMember(1, element.WayTarget(9), ""),
		element.NewMember(1, element.RelationTarget(2), "sub"),
	}}
	if err := s.InsertRelations(context.Background(), []element.Relation{rel}); err != nil {
		t.Fatal(err)
	}

	last := conn.execs[len(conn.execs)-1]
	if tableOf(last.query) != "member" {
		t.Fatalf("last statement is %s", tableOf(last.query))
	}

	// columns: id, relation_id, node_id, way_id, relation_ref_id, member_type, role, seq
	type refs struct{ node, way, rel any }
	want := []refs{
		{int64(5), nil, nil},
		{nil, int64(9), nil},
		{nil, nil, int64(2)},
	}
	wantKinds := []string{"node", "way", "relation"}
	for i, w := range want {
		row := last.args[i*8 : (i+1)*8]
		if row[2] != w.node || row[3] != w.way || row[4] != w.rel {
			t.Errorf("member %d refs = %v %v %v, want %v %v %v", i, row[2], row[3], row[4], w.node, w.way, w.rel)
		}
		if row[5] != wantKinds[i] {
			t.Errorf("member %d type = %v", i, row[5])
		}
		if row[7] != i {
			t.Errorf("member %d seq = %v", i, row[7])
		}
	}
}

func TestMemberColumns(t *testing.T) {
	tests := []struct {
		target         element.MemberTarget
		node, way, rel any
	}{
		{element.NodeTarget(1), int64(1), nil, nil},
		{element.WayTarget(2), nil, int64(2), nil},
		{element.RelationTarget(3), nil, nil, int64(3)},
	}
	for _, tt := range tests {
		t.Run(tt.target.String(), func(t *testing.T) {
			node, way, rel := memberColumns(tt.target)
			if node != tt.node || way != tt.way || rel != tt.rel {
				t.Errorf("memberColumns(%v) = %v %v %v", tt.target, node, way, rel)
			}
		})
	}
}

func TestInsertStopsAtFailingChunk(t *testing.T) {
	driverErr := errors.New("disk full")
	conn := &recordingConn{failAt: 3, failErr: driverErr}
	s := New(conn, SQLite, Options{MaxParams: 999})

	err := s.InsertNodes(context.Background(), makeNodes(1200))

	var se *StoreError
	if !errors.As(err, &se) {
		t.Fatalf("error = %v, want *StoreError", err)
	}
	if se.Table != "node" || se.Chunk != 2 || se.Rows != 124 {
		t.Errorf("StoreError = %+v", se)
	}
	if !errors.Is(err, driverErr) {
		t.Errorf("driver error not wrapped: %v", err)
	}
	if len(conn.execs) != 3 {
		t.Errorf("statements issued = %d, want 3", len(conn.execs))
	}
	if stats := s.Stats(); stats[0].Statements != 2 {
		t.Errorf("recorded statements = %d, want 2", stats[0].Statements)
	}
}

func TestInsertCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	conn := &recordingConn{}
	s := New(conn, SQLite, Options{})
	if err := s.InsertNodes(ctx, makeNodes(10)); !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v, want context.Canceled", err)
	}
	if len(conn.execs) != 0 {
		t.Errorf("statements issued after cancel: %d", len(conn.execs))
	}
}

func TestInsertEmpty(t *testing.T) {
	conn := &recordingConn{}
	s := New(conn, SQLite, Options{})
	if err := s.Load(context.Background(), &element.Collection{}); err != nil {
		t.Fatal(err)
	}
	if len(conn.execs) != 0 {
		t.Errorf("statements for empty collection: %d", len(conn.execs))
	}
}

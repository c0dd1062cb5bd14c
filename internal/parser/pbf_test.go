package parser

import (
	"context"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/paulmach/osm"

	"github.com/wegman-software/osm2sql-go/internal/element"
)

func TestRelationFromOSMMatchesXML(t *testing.T) {
	rel := &osm.Relation{
		ID:          100,
		Version:     1,
		ChangesetID: 101,
		UserID:      9,
		User:        "carol",
		Members: osm.Members{
			{Type: osm.TypeNode, Ref: 5, Role: "outer"},
			{Type: osm.Type("area"), Ref: 6, Role: "outer"},
			{Type: osm.TypeWay, Ref: 9, Role: ""},
		},
		Tags: osm.Tags{{Key: "type", Value: "multipolygon"}},
	}
	got := RelationFromOSM(rel)

	doc := `<osm><relation id="100" version="1" changeset="101" uid="9" user="carol">
	  <member type="node" ref="5" role="outer"/>
	  <member type="area" ref="6" role="outer"/>
	  <member type="way" ref="9" role=""/>
	  <tag k="type" v="multipolygon"/>
	</relation></osm>`
	c, err := ParseXML(context.Background(), strings.NewReader(doc))
	if err != nil {
		t.Fatalf("ParseXML failed: %v", err)
	}

	want := &element.Collection{Relations: c.Relations}
	if diffs := element.Compare(want, &element.Collection{Relations: []element.Relation{got}}); len(diffs) != 0 {
		t.Errorf("PBF and XML conversions differ: %v", diffs)
	}
	if len(got.Members) != 2 {
		t.Errorf("members = %v, want 2 entries", got.Members)
	}
}

func TestWayFromOSM(t *testing.T) {
	ts := time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC)
	w := &osm.Way{
		ID:        10,
		Version:   2,
		Timestamp: ts,
		Nodes:     osm.WayNodes{{ID: 7}, {ID: 3}, {ID: 9}, {ID: 7}},
	}
	got := WayFromOSM(w)

	if !slices.Equal(got.NodeRefs, []int64{7, 3, 9, 7}) {
		t.Errorf("NodeRefs = %v", got.NodeRefs)
	}
	if got.Timestamp != "2024-01-15T12:00:00Z" {
		t.Errorf("Timestamp = %q", got.Timestamp)
	}
	if got.Tags != nil {
		t.Errorf("Tags = %v, want nil", got.Tags)
	}
}

func TestNodeFromOSMZeroTimestamp(t *testing.T) {
	got := NodeFromOSM(&osm.Node{ID: 1, Lat: 1.5, Lon: 2.5})
	if got.Timestamp != "" {
		t.Errorf("Timestamp = %q, want empty", got.Timestamp)
	}
	if got.Lat != 1.5 || got.Lon != 2.5 {
		t.Errorf("location = %v,%v", got.Lat, got.Lon)
	}
}

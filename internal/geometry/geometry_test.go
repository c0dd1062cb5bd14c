package geometry

import (
	"testing"

	"github.com/paulmach/orb"

	"github.com/wegman-software/osm2sql-go/internal/element"
)

func TestIsArea(t *testing.T) {
	tests := []struct {
		name string
		tags element.Tags
		want bool
	}{
		{"building", element.Tags{{Key: "building", Value: "yes"}}, true},
		{"explicit no", element.Tags{{Key: "building", Value: "yes"}, {Key: "area", Value: "no"}}, false},
		{"explicit yes on highway", element.Tags{{Key: "highway", Value: "pedestrian"}, {Key: "area", Value: "yes"}}, true},
		{"roundabout", element.Tags{{Key: "highway", Value: "primary"}, {Key: "junction", Value: "roundabout"}}, false},
		{"unknown", element.Tags{{Key: "name", Value: "x"}}, false},
		{"none", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsArea(tt.tags); got != tt.want {
				t.Errorf("IsArea(%v) = %v, want %v", tt.tags, got, tt.want)
			}
		})
	}
}

func TestBuildWays(t *testing.T) {
	idx := NewIndex([]element.Node{
		{ID: 1, Lat: 0, Lon: 0},
		{ID: 2, Lat: 0, Lon: 1},
		{ID: 3, Lat: 1, Lon: 1},
		{ID: 4, Lat: 1, Lon: 0},
	})
	ways := []element.Way{
		{ID: 10, NodeRefs: []int64{1, 2, 3, 4, 1}, Tags: element.Tags{{Key: "building", Value: "yes"}}},
		{ID: 11, NodeRefs: []int64{1, 2, 3, 4, 1}, Tags: element.Tags{{Key: "highway", Value: "primary"}}},
		{ID: 12, NodeRefs: []int64{1, 99, 3}},
		{ID: 13, NodeRefs: []int64{1, 98, 97}},
	}

	features := BuildWays(idx, ways)
	if len(features) != 3 {
		t.Fatalf("features = %d, want 3", len(features))
	}

	poly, ok := features[0].Geometry.(orb.Polygon)
	if !ok || features[0].Kind != Polygon {
		t.Fatalf("way 10 = %T %v, want polygon", features[0].Geometry, features[0].Kind)
	}
	if len(poly[0]) != 5 || !poly[0].Closed() {
		t.Errorf("ring = %v", poly[0])
	}

	if features[1].Kind != Line {
		t.Errorf("closed highway kind = %v, want line", features[1].Kind)
	}

	// missing node 99 is skipped
	ls, ok := features[2].Geometry.(orb.LineString)
	if !ok || len(ls) != 2 || ls[1] != (orb.Point{1, 1}) {
		t.Errorf("way 12 = %v", features[2].Geometry)
	}
}

func TestBuildPoints(t *testing.T) {
	nodes := []element.Node{
		{ID: 1, Lat: 2, Lon: 3, Tags: element.Tags{{Key: "amenity", Value: "cafe"}}},
		{ID: 2, Tags: element.Tags{{Key: "created_by", Value: "JOSM"}}},
		{ID: 3},
	}
	points := BuildPoints(nodes)
	if len(points) != 1 || points[0].ID != 1 {
		t.Fatalf("points = %v", points)
	}
	if p := points[0].Geometry.(orb.Point); p.Lon() != 3 || p.Lat() != 2 {
		t.Errorf("point = %v", p)
	}
}

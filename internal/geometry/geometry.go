// Package geometry turns nodes and ways into renderable orb geometries.
package geometry

import (
	"github.com/paulmach/orb"

	"github.com/wegman-software/osm2sql-go/internal/element"
)

// Kind is the geometry class of a feature.
type Kind int

const (
	Point Kind = iota
	Line
	Polygon
)

func (k Kind) String() string {
	switch k {
	case Point:
		return "point"
	case Line:
		return "line"
	case Polygon:
		return "polygon"
	}
	return "unknown"
}

// Feature is one renderable entity.
type Feature struct {
	Entity   element.MemberKind
	ID       int64
	Kind     Kind
	Geometry orb.Geometry
	Tags     element.Tags
}

// Index maps node ids to their coordinates.
type Index map[int64]orb.Point

// NewIndex indexes the given nodes.
func NewIndex(nodes []element.Node) Index {
	idx := make(Index, len(nodes))
	for _, n := range nodes {
		idx[n.ID] = orb.Point{n.Lon, n.Lat}
	}
	return idx
}

// BuildPoints returns a point feature for every node carrying at least one
// descriptive tag. Untagged nodes are way vertices.
func BuildPoints(nodes []element.Node) []Feature {
	var out []Feature
	for _, n := range nodes {
		if !hasMeaningfulTags(n.Tags) {
			continue
		}
		out = append(out, Feature{
			Entity:   element.KindNode,
			ID:       n.ID,
			Kind:     Point,
			Geometry: orb.Point{n.Lon, n.Lat},
			Tags:     n.Tags,
		})
	}
	return out
}

// BuildWays resolves way node refs through idx. Ways with fewer than two
// known coordinates are skipped. Closed ways whose tags describe an area
// become polygons, everything else a line string.
func BuildWays(idx Index, ways []element.Way) []Feature {
	var out []Feature
	for i := range ways {
		w := &ways[i]

		coords := make([]orb.Point, 0, len(w.NodeRefs))
		for _, ref := range w.NodeRefs {
			if p, ok := idx[ref]; ok {
				coords = append(coords, p)
			}
		}
		if len(coords) < 2 {
			continue
		}

		f := Feature{Entity: element.KindWay, ID: w.ID, Tags: w.Tags}
		if w.IsClosed() && len(coords) >= 4 && IsArea(w.Tags) {
			ring := orb.Ring(coords)
			if !ring.Closed() {
				ring = append(ring, ring[0])
			}
			f.Kind = Polygon
			f.Geometry = orb.Polygon{ring}
		} else {
			f.Kind = Line
			f.Geometry = orb.LineString(coords)
		}
		out = append(out, f)
	}
	return out
}

// hasMeaningfulTags reports whether tags contain more than editing metadata.
func hasMeaningfulTags(tags element.Tags) bool {
	for _, tag := range tags {
		switch tag.Key {
		case "created_by", "source", "note", "fixme", "FIXME":
		default:
			return true
		}
	}
	return false
}

// areaKeys maps keys to whether a closed way carrying them is an area.
var areaKeys = map[string]bool{
	"building": true,
	"landuse":  true,
	"natural":  true,
	"leisure":  true,
	"amenity":  true,
	"shop":     true,
	"tourism":  true,
	"man_made": true,
	"waterway": false, // closed rivers are still lines
	"highway":  false, // roundabouts
	"barrier":  false,
	"railway":  false,
}

// IsArea reports whether a closed way with these tags is a polygon.
// An explicit area tag wins; otherwise the first tag with a known key
// decides.
func IsArea(tags element.Tags) bool {
	if v, ok := tags.Find("area"); ok {
		return v == "yes"
	}
	for _, tag := range tags {
		if area, ok := areaKeys[tag.Key]; ok {
			return area
		}
	}
	return false
}

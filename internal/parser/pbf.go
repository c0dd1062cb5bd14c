package parser

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/paulmach/osm"
	"github.com/paulmach/osm/osmpbf"

	"github.com/wegman-software/osm2sql-go/internal/element"
)

// ParsePBF reads an OSM PBF stream using procs decoder goroutines.
// Members of unknown type are dropped, as in ParseXML.
func ParsePBF(ctx context.Context, r io.Reader, procs int) (*element.Collection, error) {
	scanner := osmpbf.New(ctx, r, procs)
	defer scanner.Close()

	c := &element.Collection{}
	for scanner.Scan() {
		switch o := scanner.Object().(type) {
		case *osm.Node:
			c.Nodes = append(c.Nodes, NodeFromOSM(o))
		case *osm.Way:
			c.Ways = append(c.Ways, WayFromOSM(o))
		case *osm.Relation:
			c.Relations = append(c.Relations, RelationFromOSM(o))
		}
	}

	if err := scanner.Err(); err != nil && err != io.EOF {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("PBF read error: %w", err)
	}
	return c, nil
}

// NodeFromOSM converts a paulmach/osm node.
func NodeFromOSM(n *osm.Node) element.Node {
	return element.Node{
		ID:        int64(n.ID),
		Lat:       n.Lat,
		Lon:       n.Lon,
		Version:   int32(n.Version),
		Timestamp: formatTimestamp(n.Timestamp),
		Changeset: int64(n.ChangesetID),
		UID:       int64(n.UserID),
		User:      n.User,
		Tags:      convertTags(n.Tags),
	}
}

// WayFromOSM converts a paulmach/osm way.
func WayFromOSM(w *osm.Way) element.Way {
	refs := make([]int64, len(w.Nodes))
	for i, wn := range w.Nodes {
		refs[i] = int64(wn.ID)
	}
	return element.Way{
		ID:        int64(w.ID),
		Version:   int32(w.Version),
		Timestamp: formatTimestamp(w.Timestamp),
		Changeset: int64(w.ChangesetID),
		UID:       int64(w.UserID),
		User:      w.User,
		NodeRefs:  refs,
		Tags:      convertTags(w.Tags),
	}
}

// RelationFromOSM converts a paulmach/osm relation.
func RelationFromOSM(r *osm.Relation) element.Relation {
	rel := element.Relation{
		ID:        int64(r.ID),
		Version:   int32(r.Version),
		Timestamp: formatTimestamp(r.Timestamp),
		Changeset: int64(r.ChangesetID),
		UID:       int64(r.UserID),
		User:      r.User,
		Tags:      convertTags(r.Tags),
	}
	for _, m := range r.Members {
		kind, err := element.ParseMemberKind(string(m.Type))
		if err != nil {
			continue
		}
		target := element.MemberTarget{Kind: kind, Ref: m.Ref}
		rel.Members = append(rel.Members, element.NewMember(rel.ID, target, m.Role))
	}
	return rel
}

func convertTags(tags osm.Tags) element.Tags {
	if len(tags) == 0 {
		return nil
	}
	out := make(element.Tags, len(tags))
	for i, tag := range tags {
		out[i] = element.Tag{Key: tag.Key, Value: tag.Value}
	}
	return out
}

func formatTimestamp(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

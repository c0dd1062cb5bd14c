package pipeline

import (
	"time"

	"github.com/paulmach/osm"

	"github.com/wegman-software/osm2sql-go/internal/element"
)

func toOSMTags(tags element.Tags) osm.Tags {
	if len(tags) == 0 {
		return nil
	}
	out := make(osm.Tags, len(tags))
	for i, t := range tags {
		out[i] = osm.Tag{Key: t.Key, Value: t.Value}
	}
	return out
}

// parseTimestamp returns the zero time for empty or unparsable values.
func parseTimestamp(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}
	}
	return t.UTC()
}

func toOSMNode(n *element.Node) *osm.Node {
	return &osm.Node{
		ID:          osm.NodeID(n.ID),
		Lat:         n.Lat,
		Lon:         n.Lon,
		User:        n.User,
		UserID:      osm.UserID(n.UID),
		Visible:     true,
		Version:     int(n.Version),
		ChangesetID: osm.ChangesetID(n.Changeset),
		Timestamp:   parseTimestamp(n.Timestamp),
		Tags:        toOSMTags(n.Tags),
	}
}

func toOSMWay(w *element.Way) *osm.Way {
	nodes := make(osm.WayNodes, len(w.NodeRefs))
	for i, ref := range w.NodeRefs {
		nodes[i] = osm.WayNode{ID: osm.NodeID(ref)}
	}
	return &osm.Way{
		ID:          osm.WayID(w.ID),
		User:        w.User,
		UserID:      osm.UserID(w.UID),
		Visible:     true,
		Version:     int(w.Version),
		ChangesetID: osm.ChangesetID(w.Changeset),
		Timestamp:   parseTimestamp(w.Timestamp),
		Nodes:       nodes,
		Tags:        toOSMTags(w.Tags),
	}
}

func toOSMRelation(r *element.Relation) *osm.Relation {
	members := make(osm.Members, len(r.Members))
	for i, m := range r.Members {
		members[i] = osm.Member{
			Type: osm.Type(m.Target.Kind.String()),
			Ref:  m.Target.Ref,
			Role: m.Role,
		}
	}
	return &osm.Relation{
		ID:          osm.RelationID(r.ID),
		User:        r.User,
		UserID:      osm.UserID(r.UID),
		Visible:     true,
		Version:     int(r.Version),
		ChangesetID: osm.ChangesetID(r.Changeset),
		Timestamp:   parseTimestamp(r.Timestamp),
		Members:     members,
		Tags:        toOSMTags(r.Tags),
	}
}

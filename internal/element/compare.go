package element

import (
	"fmt"
	"slices"
	"strings"
)

// Compare reports the differences between two collections. Entities are
// matched by id. Tags are compared as sets; node refs and members must
// match in order. An empty result means the collections are equivalent.
func Compare(want, got *Collection) []string {
	var diffs []string

	gotNodes := make(map[int64]*Node, len(got.Nodes))
	for i := range got.Nodes {
		gotNodes[got.Nodes[i].ID] = &got.Nodes[i]
	}
	for i := range want.Nodes {
		w := &want.Nodes[i]
		g, ok := gotNodes[w.ID]
		if !ok {
			diffs = append(diffs, fmt.Sprintf("node %d: missing", w.ID))
			continue
		}
		delete(gotNodes, w.ID)
		diffs = append(diffs, compareNode(w, g)...)
	}
	for id := range gotNodes {
		diffs = append(diffs, fmt.Sprintf("node %d: unexpected", id))
	}

	gotWays := make(map[int64]*Way, len(got.Ways))
	for i := range got.Ways {
		gotWays[got.Ways[i].ID] = &got.Ways[i]
	}
	for i := range want.Ways {
		w := &want.Ways[i]
		g, ok := gotWays[w.ID]
		if !ok {
			diffs = append(diffs, fmt.Sprintf("way %d: missing", w.ID))
			continue
		}
		delete(gotWays, w.ID)
		diffs = append(diffs, compareWay(w, g)...)
	}
	for id := range gotWays {
		diffs = append(diffs, fmt.Sprintf("way %d: unexpected", id))
	}

	gotRels := make(map[int64]*Relation, len(got.Relations))
	for i := range got.Relations {
		gotRels[got.Relations[i].ID] = &got.Relations[i]
	}
	for i := range want.Relations {
		w := &want.Relations[i]
		g, ok := gotRels[w.ID]
		if !ok {
			diffs = append(diffs, fmt.Sprintf("relation %d: missing", w.ID))
			continue
		}
		delete(gotRels, w.ID)
		diffs = append(diffs, compareRelation(w, g)...)
	}
	for id := range gotRels {
		diffs = append(diffs, fmt.Sprintf("relation %d: unexpected", id))
	}

	slices.Sort(diffs)
	return diffs
}

type meta struct {
	Version   int32
	Timestamp string
	Changeset int64
	UID       int64
	User      string
}

func compareMeta(prefix string, want, got meta) []string {
	if want == got {
		return nil
	}
	return []string{fmt.Sprintf("%s: metadata %+v != %+v", prefix, want, got)}
}

func compareNode(want, got *Node) []string {
	prefix := fmt.Sprintf("node %d", want.ID)
	diffs := compareMeta(prefix,
		meta{want.Version, want.Timestamp, want.Changeset, want.UID, want.User},
		meta{got.Version, got.Timestamp, got.Changeset, got.UID, got.User})
	if want.Lat != got.Lat || want.Lon != got.Lon {
		diffs = append(diffs, fmt.Sprintf("%s: location (%v, %v) != (%v, %v)",
			prefix, want.Lat, want.Lon, got.Lat, got.Lon))
	}
	return append(diffs, compareTags(prefix, want.Tags, got.Tags)...)
}

func compareWay(want, got *Way) []string {
	prefix := fmt.Sprintf("way %d", want.ID)
	diffs := compareMeta(prefix,
		meta{want.Version, want.Timestamp, want.Changeset, want.UID, want.User},
		meta{got.Version, got.Timestamp, got.Changeset, got.UID, got.User})
	if !slices.Equal(want.NodeRefs, got.NodeRefs) {
		diffs = append(diffs, fmt.Sprintf("%s: node refs %v != %v", prefix, want.NodeRefs, got.NodeRefs))
	}
	return append(diffs, compareTags(prefix, want.Tags, got.Tags)...)
}

func compareRelation(want, got *Relation) []string {
	prefix := fmt.Sprintf("relation %d", want.ID)
	diffs := compareMeta(prefix,
		meta{want.Version, want.Timestamp, want.Changeset, want.UID, want.User},
		meta{got.Version, got.Timestamp, got.Changeset, got.UID, got.User})
	if !slices.Equal(want.Members, got.Members) {
		diffs = append(diffs, fmt.Sprintf("%s: members %s != %s",
			prefix, formatMembers(want.Members), formatMembers(got.Members)))
	}
	return append(diffs, compareTags(prefix, want.Tags, got.Tags)...)
}

func compareTags(prefix string, want, got Tags) []string {
	a := sortedTags(want)
	b := sortedTags(got)
	if slices.Equal(a, b) {
		return nil
	}
	return []string{fmt.Sprintf("%s: tags %v != %v", prefix, a, b)}
}

func sortedTags(t Tags) Tags {
	out := slices.Clone(t)
	slices.SortFunc(out, func(a, b Tag) int {
		if c := strings.Compare(a.Key, b.Key); c != 0 {
			return c
		}
		return strings.Compare(a.Value, b.Value)
	})
	return out
}

func formatMembers(members []Member) string {
	parts := make([]string, len(members))
	for i, m := range members {
		parts[i] = fmt.Sprintf("%s[%s]", m.Target, m.Role)
	}
	return "[" + strings.Join(parts, " ") + "]"
}

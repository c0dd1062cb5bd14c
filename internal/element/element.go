// Package element holds the in-memory OSM entity model shared by the parser,
// the store and the exporters.
package element

// Tag is a key/value annotation attached to a node, way or relation.
type Tag struct {
	Key   string
	Value string
}

// Tags is an ordered list of tags. Duplicate keys are not rejected here;
// the store keeps the first one per parent.
type Tags []Tag

// Map returns the tags as a map. Later duplicates overwrite earlier ones.
func (t Tags) Map() map[string]string {
	m := make(map[string]string, len(t))
	for _, tag := range t {
		m[tag.Key] = tag.Value
	}
	return m
}

// Find returns the value of the first tag with the given key.
func (t Tags) Find(key string) (string, bool) {
	for _, tag := range t {
		if tag.Key == key {
			return tag.Value, true
		}
	}
	return "", false
}

// Node is a point with coordinates.
type Node struct {
	ID        int64
	Lat       float64
	Lon       float64
	Version   int32
	Timestamp string
	Changeset int64
	UID       int64
	User      string
	Tags      Tags
}

// Way is an ordered list of node references. Refs are ids only; the
// referenced nodes may be missing from the extract.
type Way struct {
	ID        int64
	Version   int32
	Timestamp string
	Changeset int64
	UID       int64
	User      string
	NodeRefs  []int64
	Tags      Tags
}

// IsClosed reports whether the way starts and ends on the same node.
func (w *Way) IsClosed() bool {
	n := len(w.NodeRefs)
	return n > 1 && w.NodeRefs[0] == w.NodeRefs[n-1]
}

// Relation groups members of any kind, in order.
type Relation struct {
	ID        int64
	Version   int32
	Timestamp string
	Changeset int64
	UID       int64
	User      string
	Members   []Member
	Tags      Tags
}

// Collection is the result of one parse or one fetch.
type Collection struct {
	Nodes     []Node
	Ways      []Way
	Relations []Relation
}

// Counts returns the number of entities of each kind.
func (c *Collection) Counts() (nodes, ways, relations int) {
	return len(c.Nodes), len(c.Ways), len(c.Relations)
}

// Empty reports whether the collection holds no entities at all.
func (c *Collection) Empty() bool {
	return len(c.Nodes) == 0 && len(c.Ways) == 0 && len(c.Relations) == 0
}

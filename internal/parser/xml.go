package parser

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"strconv"

	"github.com/wegman-software/osm2sql-go/internal/element"
)

// frame is one open entity element: its kind and its index in the
// collection slice of that kind.
type frame struct {
	kind  element.MemberKind
	index int
}

// ParseXML reads an OSM XML document in a single forward pass.
//
// Tags attach to the innermost open entity whatever its kind, nd elements to
// the innermost open way and member elements to the innermost open relation.
// Reaching EOF with entities still open is not an error.
func ParseXML(ctx context.Context, r io.Reader) (*element.Collection, error) {
	decoder := xml.NewDecoder(r)
	c := &element.Collection{}

	// Stack of open entities, innermost last.
	var open []frame

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		// RawToken does not check element nesting, so a truncated document
		// ends in a plain io.EOF.
		token, err := decoder.RawToken()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("XML parse error: %w", err)
		}

		switch t := token.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "node":
				node, err := parseNode(t.Attr)
				if err != nil {
					return nil, err
				}
				c.Nodes = append(c.Nodes, node)
				open = append(open, frame{element.KindNode, len(c.Nodes) - 1})

			case "way":
				way, err := parseWay(t.Attr)
				if err != nil {
					return nil, err
				}
				c.Ways = append(c.Ways, way)
				open = append(open, frame{element.KindWay, len(c.Ways) - 1})

			case "relation":
				rel, err := parseRelation(t.Attr)
				if err != nil {
					return nil, err
				}
				c.Relations = append(c.Relations, rel)
				open = append(open, frame{element.KindRelation, len(c.Relations) - 1})

			case "tag":
				if len(open) == 0 {
					continue
				}
				tag, ok := parseTag(t.Attr)
				if !ok {
					continue
				}
				top := open[len(open)-1]
				switch top.kind {
				case element.KindNode:
					c.Nodes[top.index].Tags = append(c.Nodes[top.index].Tags, tag)
				case element.KindWay:
					c.Ways[top.index].Tags = append(c.Ways[top.index].Tags, tag)
				case element.KindRelation:
					c.Relations[top.index].Tags = append(c.Relations[top.index].Tags, tag)
				}

			case "nd":
				f, ok := innermost(open, element.KindWay)
				if !ok {
					continue
				}
				v, _ := lookupAttr(t.Attr, "ref")
				ref, err := strconv.ParseInt(v, 10, 64)
				if err != nil {
					continue
				}
				c.Ways[f.index].NodeRefs = append(c.Ways[f.index].NodeRefs, ref)

			case "member":
				f, ok := innermost(open, element.KindRelation)
				if !ok {
					continue
				}
				rel := &c.Relations[f.index]
				member, ok, err := parseMember(rel.ID, t.Attr)
				if err != nil {
					return nil, err
				}
				if ok {
					rel.Members = append(rel.Members, member)
				}
			}

		case xml.EndElement:
			kind, err := element.ParseMemberKind(t.Name.Local)
			if err != nil {
				continue
			}
			// Pop up to and including the innermost frame of this kind.
			for i := len(open) - 1; i >= 0; i-- {
				if open[i].kind == kind {
					open = open[:i]
					break
				}
			}
		}
	}

	return c, nil
}

func innermost(open []frame, kind element.MemberKind) (frame, bool) {
	for i := len(open) - 1; i >= 0; i-- {
		if open[i].kind == kind {
			return open[i], true
		}
	}
	return frame{}, false
}

// entityAttrs holds the attributes shared by nodes, ways and relations.
type entityAttrs struct {
	id        int64
	version   int32
	timestamp string
	changeset int64
	uid       int64
	user      string
	lat, lon  float64
}

func parseEntity(entity string, attrs []xml.Attr) (entityAttrs, error) {
	var e entityAttrs
	var err error

	// The id is needed for error messages, so read it first.
	if v, ok := lookupAttr(attrs, "id"); ok {
		if e.id, err = strconv.ParseInt(v, 10, 64); err != nil {
			return e, &element.FormatError{Entity: entity, Field: "id", Value: v, Err: err}
		}
	}

	fail := func(field, value string, err error) error {
		return &element.FormatError{Entity: entity, ID: e.id, Field: field, Value: value, Err: err}
	}

	for _, attr := range attrs {
		v := attr.Value
		switch attr.Name.Local {
		case "lat":
			if e.lat, err = strconv.ParseFloat(v, 64); err != nil {
				return e, fail("lat", v, err)
			}
		case "lon":
			if e.lon, err = strconv.ParseFloat(v, 64); err != nil {
				return e, fail("lon", v, err)
			}
		case "version":
			ver, err := strconv.ParseInt(v, 10, 32)
			if err != nil {
				return e, fail("version", v, err)
			}
			e.version = int32(ver)
		case "changeset":
			if e.changeset, err = strconv.ParseInt(v, 10, 64); err != nil {
				return e, fail("changeset", v, err)
			}
		case "uid":
			if e.uid, err = strconv.ParseInt(v, 10, 64); err != nil {
				return e, fail("uid", v, err)
			}
		case "timestamp":
			e.timestamp = v
		case "user":
			e.user = v
		}
	}
	return e, nil
}

func parseNode(attrs []xml.Attr) (element.Node, error) {
	e, err := parseEntity("node", attrs)
	if err != nil {
		return element.Node{}, err
	}
	return element.Node{
		ID:        e.id,
		Lat:       e.lat,
		Lon:       e.lon,
		Version:   e.version,
		Timestamp: e.timestamp,
		Changeset: e.changeset,
		UID:       e.uid,
		User:      e.user,
	}, nil
}

func parseWay(attrs []xml.Attr) (element.Way, error) {
	e, err := parseEntity("way", attrs)
	if err != nil {
		return element.Way{}, err
	}
	return element.Way{
		ID:        e.id,
		Version:   e.version,
		Timestamp: e.timestamp,
		Changeset: e.changeset,
		UID:       e.uid,
		User:      e.user,
	}, nil
}

func parseRelation(attrs []xml.Attr) (element.Relation, error) {
	e, err := parseEntity("relation", attrs)
	if err != nil {
		return element.Relation{}, err
	}
	return element.Relation{
		ID:        e.id,
		Version:   e.version,
		Timestamp: e.timestamp,
		Changeset: e.changeset,
		UID:       e.uid,
		User:      e.user,
	}, nil
}

func parseTag(attrs []xml.Attr) (element.Tag, bool) {
	var tag element.Tag
	var hasKey bool
	for _, attr := range attrs {
		switch attr.Name.Local {
		case "k":
			tag.Key = attr.Value
			hasKey = true
		case "v":
			tag.Value = attr.Value
		}
	}
	return tag, hasKey
}

// parseMember returns ok=false for members that are skipped: a missing
// type, ref or role attribute, or an unknown type.
func parseMember(relationID int64, attrs []xml.Attr) (element.Member, bool, error) {
	var typ, ref, role string
	var seen int
	for _, attr := range attrs {
		switch attr.Name.Local {
		case "type":
			typ = attr.Value
			seen |= 1
		case "ref":
			ref = attr.Value
			seen |= 2
		case "role":
			role = attr.Value
			seen |= 4
		}
	}
	if seen != 7 {
		return element.Member{}, false, nil
	}

	kind, err := element.ParseMemberKind(typ)
	if err != nil {
		return element.Member{}, false, nil
	}

	id, err := strconv.ParseInt(ref, 10, 64)
	if err != nil {
		return element.Member{}, false, &element.FormatError{
			Entity: "member", ID: relationID, Field: "ref", Value: ref, Err: err,
		}
	}

	target := element.MemberTarget{Kind: kind, Ref: id}
	return element.NewMember(relationID, target, role), true, nil
}

func lookupAttr(attrs []xml.Attr, name string) (string, bool) {
	for _, attr := range attrs {
		if attr.Name.Local == name {
			return attr.Value, true
		}
	}
	return "", false
}

package store

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/wegman-software/osm2sql-go/internal/element"
)

// Aggregated child rows are folded into one cell per parent. Children are
// separated by the record separator and a child's sub-fields by the unit
// separator. Neither character is allowed in XML 1.0, so they never occur
// in OSM keys, values or roles.
const (
	recordSep = "\x1e"
	unitSep   = "\x1f"
)

// memberFields is the number of sub-fields of a member cell:
// id, node_id, way_id, relation_ref_id, member_type, role.
const memberFields = 6

func splitRecords(cell string) []string {
	if cell == "" {
		return nil
	}
	return strings.Split(cell, recordSep)
}

// decodeTags decodes "key␟value" records. The value keeps everything after
// the first unit separator.
func decodeTags(cell string) element.Tags {
	records := splitRecords(cell)
	if len(records) == 0 {
		return nil
	}
	tags := make(element.Tags, 0, len(records))
	for _, rec := range records {
		key, value, _ := strings.Cut(rec, unitSep)
		tags = append(tags, element.Tag{Key: key, Value: value})
	}
	return tags
}

// decodeNodeRefs decodes the ordered node ids of a way.
func decodeNodeRefs(wayID int64, cell string) ([]int64, error) {
	records := splitRecords(cell)
	if len(records) == 0 {
		return nil, nil
	}
	refs := make([]int64, 0, len(records))
	for _, rec := range records {
		ref, err := strconv.ParseInt(rec, 10, 64)
		if err != nil {
			return nil, &element.FormatError{Entity: "way", ID: wayID, Field: "node_refs", Value: rec, Err: err}
		}
		refs = append(refs, ref)
	}
	return refs, nil
}

// decodeMembers decodes "id␟node␟way␟relation␟kind␟role" records. The kind
// selects which reference slot is read; records of an unknown kind are
// skipped.
func decodeMembers(relationID int64, cell string) ([]element.Member, error) {
	records := splitRecords(cell)
	if len(records) == 0 {
		return nil, nil
	}

	fail := func(field, value string, err error) error {
		return &element.FormatError{Entity: "member", ID: relationID, Field: field, Value: value, Err: err}
	}

	members := make([]element.Member, 0, len(records))
	for _, rec := range records {
		parts := strings.SplitN(rec, unitSep, memberFields)
		if len(parts) != memberFields {
			return nil, fail("record", rec, fmt.Errorf("expected %d fields, got %d", memberFields, len(parts)))
		}

		id, err := strconv.ParseInt(parts[0], 10, 64)
		if err != nil {
			return nil, fail("id", parts[0], err)
		}

		kind, err := element.ParseMemberKind(parts[4])
		if err != nil {
			continue
		}

		// KindNode, KindWay and KindRelation are 1, 2 and 3: the slot index.
		slot := parts[int(kind)]
		ref, err := strconv.ParseInt(slot, 10, 64)
		if err != nil {
			return nil, fail(kind.String()+"_ref", slot, err)
		}

		members = append(members, element.Member{
			ID:     id,
			Target: element.MemberTarget{Kind: kind, Ref: ref},
			Role:   parts[5],
		})
	}
	return members, nil
}

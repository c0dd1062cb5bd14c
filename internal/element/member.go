package element

import (
	"crypto/sha256"
	"encoding/binary"
	"fmt"
)

// MemberKind is the kind of entity a relation member points at.
type MemberKind uint8

const (
	KindNode MemberKind = iota + 1
	KindWay
	KindRelation
)

// String returns the OSM name of the kind ("node", "way", "relation").
func (k MemberKind) String() string {
	switch k {
	case KindNode:
		return "node"
	case KindWay:
		return "way"
	case KindRelation:
		return "relation"
	default:
		return fmt.Sprintf("MemberKind(%d)", uint8(k))
	}
}

// Valid reports whether k is one of the three known kinds.
func (k MemberKind) Valid() bool {
	return k >= KindNode && k <= KindRelation
}

// ParseMemberKind maps an OSM type name to a kind. Anything else returns
// ErrUnknownMemberKind and callers drop the member.
func ParseMemberKind(s string) (MemberKind, error) {
	switch s {
	case "node":
		return KindNode, nil
	case "way":
		return KindWay, nil
	case "relation":
		return KindRelation, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownMemberKind, s)
}

// MemberTarget is the entity a member refers to.
type MemberTarget struct {
	Kind MemberKind
	Ref  int64
}

// NodeTarget returns a target pointing at node id.
func NodeTarget(id int64) MemberTarget { return MemberTarget{Kind: KindNode, Ref: id} }

// WayTarget returns a target pointing at way id.
func WayTarget(id int64) MemberTarget { return MemberTarget{Kind: KindWay, Ref: id} }

// RelationTarget returns a target pointing at relation id.
func RelationTarget(id int64) MemberTarget { return MemberTarget{Kind: KindRelation, Ref: id} }

func (t MemberTarget) String() string {
	return fmt.Sprintf("%s/%d", t.Kind, t.Ref)
}

// Member is one entry of a relation's member list.
type Member struct {
	ID     int64
	Target MemberTarget
	Role   string
}

// NewMember builds a member of relationID with its synthetic id filled in.
func NewMember(relationID int64, target MemberTarget, role string) Member {
	return Member{
		ID:     MemberID(relationID, target, role),
		Target: target,
		Role:   role,
	}
}

// MemberID derives the synthetic member id: the first 8 bytes, big endian,
// of sha256(be64(relationID) || be64(ref) || kind || role).
// The same logical member always gets the same id, which keeps reloads
// idempotent.
func MemberID(relationID int64, target MemberTarget, role string) int64 {
	h := sha256.New()
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], uint64(relationID))
	h.Write(buf[:])
	binary.BigEndian.PutUint64(buf[:], uint64(target.Ref))
	h.Write(buf[:])
	h.Write([]byte(target.Kind.String()))
	h.Write([]byte(role))
	sum := h.Sum(nil)
	return int64(binary.BigEndian.Uint64(sum[:8]))
}

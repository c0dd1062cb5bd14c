package element

import (
	"errors"
	"fmt"
)

// ErrUnknownMemberKind is returned by ParseMemberKind for types other than
// node, way and relation.
var ErrUnknownMemberKind = errors.New("unknown member kind")

// FormatError reports a value that could not be converted to the type the
// model expects, either in a source document or in a fetched row.
type FormatError struct {
	Entity string // node, way, relation, member, ...
	ID     int64  // 0 when the id itself is the bad value
	Field  string
	Value  string
	Err    error
}

func (e *FormatError) Error() string {
	if e.ID != 0 {
		return fmt.Sprintf("invalid %s %s %q (id %d): %v", e.Entity, e.Field, e.Value, e.ID, e.Err)
	}
	return fmt.Sprintf("invalid %s %s %q: %v", e.Entity, e.Field, e.Value, e.Err)
}

func (e *FormatError) Unwrap() error { return e.Err }

// NoDataError reports a mandatory column that came back NULL.
type NoDataError struct {
	Entity string
	Column string
}

func (e *NoDataError) Error() string {
	return fmt.Sprintf("no data for %s.%s", e.Entity, e.Column)
}

package store

import (
	"fmt"
	"strconv"

	"github.com/wegman-software/osm2sql-go/internal/config"
)

// Dialect captures the SQL differences between the supported backends.
type Dialect struct {
	Name string

	// MaxParams is the backend's bind parameter ceiling per statement.
	MaxParams int

	numbered bool   // $1, $2, ... instead of ?
	aggFunc  string // ordered string aggregate
	charFunc string // code point to one-character string
}

var (
	SQLite = Dialect{
		Name:      config.BackendSQLite,
		MaxParams: config.SQLiteMaxParams,
		aggFunc:   "group_concat",
		charFunc:  "char",
	}
	Postgres = Dialect{
		Name:      config.BackendPostgres,
		MaxParams: config.PostgresMaxParams,
		numbered:  true,
		aggFunc:   "string_agg",
		charFunc:  "chr",
	}
)

// DialectFor returns the dialect of a backend name.
func DialectFor(backend string) (Dialect, error) {
	switch backend {
	case config.BackendSQLite:
		return SQLite, nil
	case config.BackendPostgres:
		return Postgres, nil
	}
	return Dialect{}, fmt.Errorf("unknown backend %q", backend)
}

// Placeholder returns the n-th (1-based) bind placeholder.
func (d Dialect) Placeholder(n int) string {
	if d.numbered {
		return "$" + strconv.Itoa(n)
	}
	return "?"
}

// Aggregate folds expr over a group into one string, children separated by
// the record separator and sorted by orderBy.
func (d Dialect) Aggregate(expr, orderBy string) string {
	return fmt.Sprintf("%s(%s, %s(%d) ORDER BY %s)", d.aggFunc, expr, d.charFunc, recordSep[0], orderBy)
}

// Join concatenates the expressions separated by the unit separator.
func (d Dialect) Join(exprs ...string) string {
	sep := fmt.Sprintf(" || %s(%d) || ", d.charFunc, unitSep[0])
	out := exprs[0]
	for _, e := range exprs[1:] {
		out += sep + e
	}
	return out
}

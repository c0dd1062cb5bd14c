package store

import "sync/atomic"

// TableStats counts the insert statements issued for one table and the rows
// they bound. Rows ignored on conflict are still counted.
type TableStats struct {
	Table      string
	Statements int64
	Rows       int64
}

type counter struct {
	statements atomic.Int64
	rows       atomic.Int64
}

// loadStats is written by the loader and may be read concurrently by the
// metrics collector.
type loadStats struct {
	tables map[string]*counter
}

func newLoadStats() *loadStats {
	ls := &loadStats{tables: make(map[string]*counter, len(schemaTables))}
	for _, t := range schemaTables {
		ls.tables[t.name] = &counter{}
	}
	return ls
}

func (ls *loadStats) record(table string, rows int) {
	c, ok := ls.tables[table]
	if !ok {
		return
	}
	c.statements.Add(1)
	c.rows.Add(int64(rows))
}

// Stats returns the loader counters of every table, in schema order.
func (s *Store) Stats() []TableStats {
	out := make([]TableStats, 0, len(schemaTables))
	for _, t := range schemaTables {
		c := s.stats.tables[t.name]
		out = append(out, TableStats{
			Table:      t.name,
			Statements: c.statements.Load(),
			Rows:       c.rows.Load(),
		})
	}
	return out
}

// Totals sums statements and rows over all tables.
func (s *Store) Totals() (statements, rows int64) {
	for _, c := range s.stats.tables {
		statements += c.statements.Load()
		rows += c.rows.Load()
	}
	return statements, rows
}

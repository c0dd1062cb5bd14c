package store

import "fmt"

// StoreError reports a failed statement. For inserts Chunk is the index of
// the failed statement within the call and Rows its row count; chunks before
// it remain committed.
type StoreError struct {
	Op    string
	Table string
	Chunk int
	Rows  int
	Err   error
}

func (e *StoreError) Error() string {
	if e.Rows > 0 {
		return fmt.Sprintf("%s %s failed at chunk %d (%d rows): %v", e.Op, e.Table, e.Chunk, e.Rows, e.Err)
	}
	return fmt.Sprintf("%s %s failed: %v", e.Op, e.Table, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

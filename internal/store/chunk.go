package store

// ChunkRows returns how many rows of a table with the given field count fit
// in one statement: max(1, min(maxParams/fields, maxRows)).
func ChunkRows(maxParams, fields, maxRows int) int {
	if fields < 1 {
		fields = 1
	}
	rows := maxParams / fields
	if maxRows > 0 && rows > maxRows {
		rows = maxRows
	}
	if rows < 1 {
		rows = 1
	}
	return rows
}

// chunks splits items into consecutive slices of at most size elements.
func chunks[T any](items []T, size int) [][]T {
	if len(items) == 0 {
		return nil
	}
	out := make([][]T, 0, (len(items)+size-1)/size)
	for start := 0; start < len(items); start += size {
		end := min(start+size, len(items))
		out = append(out, items[start:end])
	}
	return out
}

package storage

// ChunkSize returns how many rows of width cols fit in one statement without
// exceeding maxParams bind parameters, capped at maxRows. It is at least 1.
func ChunkSize(cols, maxParams, maxRows int) int {
	n := maxRows
	if cols > 0 && maxParams > 0 {
		if byParams := maxParams / cols; byParams < n || n <= 0 {
			n = byParams
		}
	}
	if n < 1 {
		n = 1
	}
	return n
}

// Chunks splits rows into consecutive slices of at most size rows.
func Chunks(rows [][]any, size int) [][][]any {
	if size < 1 {
		size = 1
	}
	out := make([][][]any, 0, (len(rows)+size-1)/size)
	for start := 0; start < len(rows); start += size {
		end := min(start+size, len(rows))
		out = append(out, rows[start:end])
	}
	return out
}

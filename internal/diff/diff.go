// Package diff computes row-level changes between two query result sets.
package diff

import "github.com/hostwatch/hostwatch/pkg/types"

// Diff compares an old and a current result set and returns the rows that
// were added and removed between them.
//
// old is treated as a multiset. Every row of current with at least one
// structurally equal row in old is collected into an overlap multiset;
// matching does not consume old's count, so duplicate rows in current all
// land in the overlap as long as one match exists in old. Rows of current
// with no match are added. removed is the per-distinct-row count
// difference of old minus overlap: two identical rows in old matched by
// one instance in current yield exactly one removed row.
//
// Membership tests are linear scans, making the whole comparison quadratic
// in result-set size. Result sets are small query outputs, so this is an
// accepted trade-off for correctness clarity.
func Diff(old, current types.QueryData) types.DiffResults {
	var r types.DiffResults
	var overlap types.QueryData

	for _, row := range current {
		if indexOfRow(old, row) >= 0 {
			overlap = append(overlap, row)
		} else {
			r.Added = append(r.Added, row)
		}
	}

	// removed = old minus overlap, consuming one overlap instance per match.
	remaining := make(types.QueryData, len(overlap))
	copy(remaining, overlap)
	for _, row := range old {
		if i := indexOfRow(remaining, row); i >= 0 {
			remaining = append(remaining[:i], remaining[i+1:]...)
			continue
		}
		r.Removed = append(r.Removed, row)
	}
	return r
}

// AddUniqueRow appends r to q only when no structurally equal row is
// already present. It reports whether an insertion occurred; on a no-op
// the sequence's order and content are unchanged.
func AddUniqueRow(q *types.QueryData, r types.Row) bool {
	if indexOfRow(*q, r) >= 0 {
		return false
	}
	*q = append(*q, r)
	return true
}

func indexOfRow(q types.QueryData, r types.Row) int {
	for i, row := range q {
		if row.Equal(r) {
			return i
		}
	}
	return -1
}

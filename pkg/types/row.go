// Package types provides the core data types shared across hostwatch.
package types

import "maps"

// Row is a single result record produced by a scheduled query: a mapping
// from column name to the column's string-rendered value. Keys are unique
// and carry no ordering guarantee.
type Row map[string]string

// Equal reports whether two rows are structurally equal: the same column
// set with identical values for every column.
func (r Row) Equal(other Row) bool {
	return maps.Equal(r, other)
}

// Clone returns an independent copy of the row.
func (r Row) Clone() Row {
	if r == nil {
		return nil
	}
	return maps.Clone(r)
}

// QueryData is one query result set: an ordered multiset of rows.
// Producer insertion order is preserved and duplicates are permitted;
// order is not semantically significant for comparison.
type QueryData []Row

// Equal reports whether two result sets hold structurally equal rows in
// the same order.
func (q QueryData) Equal(other QueryData) bool {
	if len(q) != len(other) {
		return false
	}
	for i := range q {
		if !q[i].Equal(other[i]) {
			return false
		}
	}
	return true
}

// DiffResults holds the rows added and removed between two result sets
// captured for the same query at different times.
type DiffResults struct {
	Added   QueryData
	Removed QueryData
}

// Empty reports whether the diff carries no changes.
func (d DiffResults) Empty() bool {
	return len(d.Added) == 0 && len(d.Removed) == 0
}

// Equal reports whether two diffs hold the same added and removed sets.
func (d DiffResults) Equal(other DiffResults) bool {
	return d.Added.Equal(other.Added) && d.Removed.Equal(other.Removed)
}

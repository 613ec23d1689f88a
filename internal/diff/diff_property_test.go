package diff

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/hostwatch/hostwatch/pkg/types"
)

// genQueryData produces small result sets over a tiny column/value alphabet
// so that duplicate rows and overlapping sets occur often.
func genQueryData() gopter.Gen {
	genRow := gen.MapOf(
		gen.OneConstOf("name", "pid", "path"),
		gen.OneConstOf("a", "b", "c"),
	).Map(func(m map[string]string) types.Row {
		return types.Row(m)
	})
	return gen.SliceOf(genRow).Map(func(rows []types.Row) types.QueryData {
		return types.QueryData(rows)
	})
}

func countRow(q types.QueryData, r types.Row) int {
	n := 0
	for _, row := range q {
		if row.Equal(r) {
			n++
		}
	}
	return n
}

func TestProperty_DiffIdentity(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("diff(A, A) is empty for any A", prop.ForAll(
		func(q types.QueryData) bool {
			return Diff(q, q).Empty()
		},
		genQueryData(),
	))

	properties.TestingRun(t)
}

func TestProperty_DiffMembership(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("every added row is absent from old", prop.ForAll(
		func(old, current types.QueryData) bool {
			d := Diff(old, current)
			for _, row := range d.Added {
				if countRow(old, row) > 0 {
					return false
				}
			}
			return true
		},
		genQueryData(), genQueryData(),
	))

	properties.Property("every removed row was present in old and has no instance in current", prop.ForAll(
		func(old, current types.QueryData) bool {
			d := Diff(old, current)
			for _, row := range d.Removed {
				if countRow(old, row) == 0 {
					return false
				}
				// A removed row may still appear in current only when old
				// held more instances than current retained.
				if countRow(current, row) > 0 && countRow(old, row) <= countRow(current, row) {
					return false
				}
			}
			return true
		},
		genQueryData(), genQueryData(),
	))

	properties.Property("removed count is old count minus retained overlap", prop.ForAll(
		func(old, current types.QueryData) bool {
			d := Diff(old, current)
			for _, row := range old {
				want := countRow(old, row) - countRow(current, row)
				if countRow(current, row) == 0 {
					want = countRow(old, row)
				}
				if want < 0 {
					want = 0
				}
				if countRow(d.Removed, row) != want {
					return false
				}
			}
			return true
		},
		genQueryData(), genQueryData(),
	))

	properties.TestingRun(t)
}

func TestProperty_AddUniqueRowNoDuplicates(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("inserting every row of a set leaves no duplicates", prop.ForAll(
		func(q types.QueryData) bool {
			var unique types.QueryData
			for _, row := range q {
				AddUniqueRow(&unique, row)
			}
			for _, row := range unique {
				if countRow(unique, row) != 1 {
					return false
				}
			}
			// Every distinct input row made it in.
			for _, row := range q {
				if countRow(unique, row) != 1 {
					return false
				}
			}
			return true
		},
		genQueryData(),
	))

	properties.TestingRun(t)
}

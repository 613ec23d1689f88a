package serialize

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/hostwatch/hostwatch/pkg/types"
)

func genRow() gopter.Gen {
	return gen.MapOf(gen.AlphaString().SuchThat(func(s string) bool {
		return len(s) > 0
	}), gen.AlphaString()).Map(func(m map[string]string) types.Row {
		return types.Row(m)
	})
}

func genQueryData() gopter.Gen {
	return gen.SliceOf(genRow()).Map(func(rows []types.Row) types.QueryData {
		return types.QueryData(rows)
	})
}

func TestProperty_RowRoundTrip(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("serialize-then-deserialize reproduces the row", prop.ForAll(
		func(r types.Row) bool {
			doc, err := SerializeRowJSON(r)
			if err != nil {
				return false
			}
			got, err := DeserializeRowJSON(doc)
			if err != nil {
				return false
			}
			return r.Equal(got)
		},
		genRow(),
	))

	properties.TestingRun(t)
}

func TestProperty_QueryDataAndDiffRoundTrip(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	properties.Property("query data survives the round trip", prop.ForAll(
		func(q types.QueryData) bool {
			doc, err := SerializeQueryDataJSON(q)
			if err != nil {
				return false
			}
			got, err := DeserializeQueryDataJSON(doc)
			if err != nil {
				return false
			}
			return q.Equal(got)
		},
		genQueryData(),
	))

	properties.Property("diff results survive the round trip", prop.ForAll(
		func(added, removed types.QueryData) bool {
			d := types.DiffResults{Added: added, Removed: removed}
			doc, err := SerializeDiffResultsJSON(d)
			if err != nil {
				return false
			}
			got, err := DeserializeDiffResultsJSON(doc)
			if err != nil {
				return false
			}
			return d.Equal(got)
		},
		genQueryData(), genQueryData(),
	))

	properties.TestingRun(t)
}

// Package serialize converts hostwatch entities to and from their JSON
// wire/log representation.
//
// The representation is tree shaped: rows are objects of string leaves,
// result sets are arrays of anonymous row objects, and log items carry the
// legacy top-level field names (name, hostIdentifier, calendarTime,
// unixTime) consumed by downstream log pipelines. Field names are part of
// the wire contract and must not change.
package serialize

import (
	"bytes"
	"encoding/json"
	"strconv"

	hwerrors "github.com/hostwatch/hostwatch/internal/errors"
	"github.com/hostwatch/hostwatch/pkg/types"
)

// Options holds serializer-wide choices. It is passed explicitly into every
// call that needs it; the serializer reads no ambient global state.
type Options struct {
	// DecorationsTopLevel flattens decorations into the top-level document
	// instead of nesting them under a "decorations" child.
	DecorationsTopLevel bool
}

// SerializeRow converts a row into a tree of string leaves.
func SerializeRow(r types.Row) (map[string]interface{}, error) {
	tree := make(map[string]interface{}, len(r))
	for column, value := range r {
		tree[column] = value
	}
	return tree, nil
}

// DeserializeRow converts a tree back into a row. Every child with a
// non-empty key becomes a row entry; children with empty keys are skipped
// as a defense against malformed or array-shaped input.
func DeserializeRow(tree map[string]interface{}) (types.Row, error) {
	r := make(types.Row, len(tree))
	for column, value := range tree {
		if len(column) == 0 {
			continue
		}
		r[column] = scalarString(value)
	}
	return r, nil
}

// SerializeRowJSON renders a row as a JSON document.
func SerializeRowJSON(r types.Row) (string, error) {
	tree, err := SerializeRow(r)
	if err != nil {
		return "", err
	}
	return marshalTree(tree)
}

// DeserializeRowJSON parses a JSON document into a row.
func DeserializeRowJSON(doc string) (types.Row, error) {
	var tree map[string]interface{}
	if err := unmarshalTree(doc, &tree); err != nil {
		return nil, err
	}
	return DeserializeRow(tree)
}

// SerializeQueryData converts a result set into a list of anonymous
// row trees.
func SerializeQueryData(q types.QueryData) ([]interface{}, error) {
	list := make([]interface{}, 0, len(q))
	for _, r := range q {
		tree, err := SerializeRow(r)
		if err != nil {
			return nil, err
		}
		list = append(list, tree)
	}
	return list, nil
}

// DeserializeQueryData converts a list of row trees back into a result set.
func DeserializeQueryData(list []interface{}) (types.QueryData, error) {
	q := make(types.QueryData, 0, len(list))
	for _, element := range list {
		tree, ok := element.(map[string]interface{})
		if !ok {
			// Scalar elements carry no columns; keep the slot so counts
			// survive the round trip.
			q = append(q, types.Row{})
			continue
		}
		r, err := DeserializeRow(tree)
		if err != nil {
			return nil, err
		}
		q = append(q, r)
	}
	return q, nil
}

// SerializeQueryDataJSON renders a result set as a JSON array.
func SerializeQueryDataJSON(q types.QueryData) (string, error) {
	list, err := SerializeQueryData(q)
	if err != nil {
		return "", err
	}
	return marshalTree(list)
}

// DeserializeQueryDataJSON parses a JSON array into a result set.
func DeserializeQueryDataJSON(doc string) (types.QueryData, error) {
	var list []interface{}
	if err := unmarshalTree(doc, &list); err != nil {
		return nil, err
	}
	return DeserializeQueryData(list)
}

// SerializeDiffResults converts a diff into a tree with "added" and
// "removed" children.
func SerializeDiffResults(d types.DiffResults) (map[string]interface{}, error) {
	added, err := SerializeQueryData(d.Added)
	if err != nil {
		return nil, err
	}
	removed, err := SerializeQueryData(d.Removed)
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{
		"added":   added,
		"removed": removed,
	}, nil
}

// DeserializeDiffResults converts a diff tree back into DiffResults.
// A missing "added" or "removed" child is treated as an empty list.
func DeserializeDiffResults(tree map[string]interface{}) (types.DiffResults, error) {
	var d types.DiffResults
	if list, ok := tree["added"].([]interface{}); ok {
		added, err := DeserializeQueryData(list)
		if err != nil {
			return d, err
		}
		d.Added = added
	}
	if list, ok := tree["removed"].([]interface{}); ok {
		removed, err := DeserializeQueryData(list)
		if err != nil {
			return d, err
		}
		d.Removed = removed
	}
	return d, nil
}

// SerializeDiffResultsJSON renders a diff as a JSON document.
func SerializeDiffResultsJSON(d types.DiffResults) (string, error) {
	tree, err := SerializeDiffResults(d)
	if err != nil {
		return "", err
	}
	return marshalTree(tree)
}

// DeserializeDiffResultsJSON parses a JSON document into DiffResults.
func DeserializeDiffResultsJSON(doc string) (types.DiffResults, error) {
	var tree map[string]interface{}
	if err := unmarshalTree(doc, &tree); err != nil {
		return types.DiffResults{}, err
	}
	return DeserializeDiffResults(tree)
}

// marshalTree renders a tree as compact JSON. Failures are reported as
// encoding errors: the entity could not be represented in the wire format.
func marshalTree(tree interface{}) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(tree); err != nil {
		return "", hwerrors.NewSerializeError(hwerrors.CodeEncodingFailed,
			"entity cannot be represented as JSON", err)
	}
	return string(bytes.TrimRight(buf.Bytes(), "\n")), nil
}

// unmarshalTree parses JSON into dst, keeping numbers as json.Number so
// their textual form survives the round trip.
func unmarshalTree(doc string, dst interface{}) error {
	dec := json.NewDecoder(bytes.NewReader([]byte(doc)))
	dec.UseNumber()
	if err := dec.Decode(dst); err != nil {
		return hwerrors.NewSerializeError(hwerrors.CodeParseFailed,
			"malformed JSON input", err)
	}
	return nil
}

// scalarString renders a leaf value as text. Nested trees and arrays have
// no scalar form and collapse to the empty string.
func scalarString(v interface{}) string {
	switch t := v.(type) {
	case string:
		return t
	case json.Number:
		return t.String()
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	default:
		return ""
	}
}

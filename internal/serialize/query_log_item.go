package serialize

import (
	"encoding/json"
	"strconv"

	"github.com/hostwatch/hostwatch/pkg/types"
)

// addLegacyFieldsAndDecorations writes the fixed top-level fields every log
// document carries, plus the decorations in their configured placement.
func addLegacyFieldsAndDecorations(item types.QueryLogItem, tree map[string]interface{}, opts Options) {
	tree["name"] = item.Name
	tree["hostIdentifier"] = item.HostIdentifier
	tree["calendarTime"] = item.CalendarTime
	tree["unixTime"] = item.UnixTime

	if len(item.Decorations) == 0 {
		return
	}
	if opts.DecorationsTopLevel {
		for name, value := range item.Decorations {
			tree[name] = value
		}
		return
	}
	decorations := make(map[string]interface{}, len(item.Decorations))
	for name, value := range item.Decorations {
		decorations[name] = value
	}
	tree["decorations"] = decorations
}

// getLegacyFieldsAndDecorations reads the fixed top-level fields back,
// supplying empty-string/zero defaults when absent. Only nested decorations
// are recoverable; flattened decorations are indistinguishable from other
// top-level fields, so the reverse mapping is deliberately lossy.
func getLegacyFieldsAndDecorations(tree map[string]interface{}, item *types.QueryLogItem) {
	item.Decorations = make(map[string]string)
	if decorations, ok := tree["decorations"].(map[string]interface{}); ok {
		for name, value := range decorations {
			item.Decorations[name] = scalarString(value)
		}
	}

	item.Name = scalarString(tree["name"])
	item.HostIdentifier = scalarString(tree["hostIdentifier"])
	item.CalendarTime = scalarString(tree["calendarTime"])
	item.UnixTime = scalarInt64(tree["unixTime"])
}

// SerializeQueryLogItem converts a log item into its tree form. A non-empty
// diff selects the "diffResults" payload; otherwise the item is written as
// a snapshot, even when the snapshot itself is empty. An item with both an
// empty diff and an empty snapshot therefore serializes as an empty
// snapshot, keeping exactly one payload child in every emitted document.
func SerializeQueryLogItem(item types.QueryLogItem, opts Options) (map[string]interface{}, error) {
	tree := make(map[string]interface{})
	if !item.Results.Empty() {
		results, err := SerializeDiffResults(item.Results)
		if err != nil {
			return nil, err
		}
		tree["diffResults"] = results
	} else {
		snapshot, err := SerializeQueryData(item.Snapshot)
		if err != nil {
			return nil, err
		}
		tree["snapshot"] = snapshot
		tree["action"] = "snapshot"
	}

	addLegacyFieldsAndDecorations(item, tree, opts)
	return tree, nil
}

// DeserializeQueryLogItem converts a tree back into a log item, selecting
// the payload variant from whichever child is present.
func DeserializeQueryLogItem(tree map[string]interface{}) (types.QueryLogItem, error) {
	var item types.QueryLogItem

	if results, ok := tree["diffResults"].(map[string]interface{}); ok {
		d, err := DeserializeDiffResults(results)
		if err != nil {
			return item, err
		}
		item.Results = d
	} else if snapshot, ok := tree["snapshot"].([]interface{}); ok {
		q, err := DeserializeQueryData(snapshot)
		if err != nil {
			return item, err
		}
		item.Snapshot = q
	}

	getLegacyFieldsAndDecorations(tree, &item)
	return item, nil
}

// SerializeQueryLogItemJSON renders a log item as a JSON document.
func SerializeQueryLogItemJSON(item types.QueryLogItem, opts Options) (string, error) {
	tree, err := SerializeQueryLogItem(item, opts)
	if err != nil {
		return "", err
	}
	return marshalTree(tree)
}

// DeserializeQueryLogItemJSON parses a JSON document into a log item.
func DeserializeQueryLogItemJSON(doc string) (types.QueryLogItem, error) {
	var tree map[string]interface{}
	if err := unmarshalTree(doc, &tree); err != nil {
		return types.QueryLogItem{}, err
	}
	return DeserializeQueryLogItem(tree)
}

// SerializeQueryLogItemAsEvents expands a diff-mode log item into one
// document per changed row: the legacy fields and decorations, a "columns"
// child holding the row, and an "action" field naming the change category.
// Added rows precede removed rows, each category in row order.
//
// Snapshot items yield zero events: full snapshots are logged through a
// separate path rather than as row-level events.
func SerializeQueryLogItemAsEvents(item types.QueryLogItem, opts Options) ([]map[string]interface{}, error) {
	categories := []struct {
		action string
		rows   types.QueryData
	}{
		{"added", item.Results.Added},
		{"removed", item.Results.Removed},
	}

	var events []map[string]interface{}
	for _, category := range categories {
		for _, row := range category.rows {
			event := make(map[string]interface{})
			addLegacyFieldsAndDecorations(item, event, opts)

			// Row values live under a "columns" child to avoid colliding
			// with the legacy field namespace.
			columns := make(map[string]interface{}, len(row))
			for column, value := range row {
				columns[column] = value
			}
			event["columns"] = columns
			event["action"] = category.action
			events = append(events, event)
		}
	}
	return events, nil
}

// SerializeQueryLogItemAsEventsJSON renders each expanded event as an
// independent JSON document, preserving event order.
func SerializeQueryLogItemAsEventsJSON(item types.QueryLogItem, opts Options) ([]string, error) {
	events, err := SerializeQueryLogItemAsEvents(item, opts)
	if err != nil {
		return nil, err
	}
	docs := make([]string, 0, len(events))
	for _, event := range events {
		doc, err := marshalTree(event)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

// scalarInt64 renders a leaf value as an integer, defaulting to zero for
// absent or non-numeric values.
func scalarInt64(v interface{}) int64 {
	switch t := v.(type) {
	case json.Number:
		if n, err := t.Int64(); err == nil {
			return n
		}
		if f, err := t.Float64(); err == nil {
			return int64(f)
		}
		return 0
	case string:
		if n, err := strconv.ParseInt(t, 10, 64); err == nil {
			return n
		}
		return 0
	case float64:
		return int64(t)
	case int64:
		return t
	default:
		return 0
	}
}

package serialize

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hostwatch/hostwatch/pkg/types"
)

func diffItem() types.QueryLogItem {
	return types.QueryLogItem{
		Name:           "process_events",
		HostIdentifier: "host-1",
		CalendarTime:   "Tue Aug 30 10:00:00 2026 UTC",
		UnixTime:       1787479200,
		Decorations:    map[string]string{"version": "1.8.2", "site": "eu-1"},
		Results: types.DiffResults{
			Added:   types.QueryData{{"name": "nginx", "pid": "99"}},
			Removed: types.QueryData{{"name": "cron", "pid": "7"}},
		},
	}
}

func TestQueryLogItem_DiffMode(t *testing.T) {
	tree, err := SerializeQueryLogItem(diffItem(), Options{})
	require.NoError(t, err)

	assert.Equal(t, "process_events", tree["name"])
	assert.Equal(t, "host-1", tree["hostIdentifier"])
	assert.Equal(t, "Tue Aug 30 10:00:00 2026 UTC", tree["calendarTime"])
	assert.Equal(t, int64(1787479200), tree["unixTime"])
	assert.Contains(t, tree, "diffResults")
	assert.NotContains(t, tree, "snapshot")
	assert.NotContains(t, tree, "action")
}

func TestQueryLogItem_SnapshotMode(t *testing.T) {
	item := types.QueryLogItem{
		Name:     "mounts",
		Snapshot: types.QueryData{{"device": "/dev/sda1"}},
	}

	tree, err := SerializeQueryLogItem(item, Options{})
	require.NoError(t, err)

	assert.Contains(t, tree, "snapshot")
	assert.Equal(t, "snapshot", tree["action"])
	assert.NotContains(t, tree, "diffResults")
}

func TestQueryLogItem_EmptyPayloadsSerializeAsEmptySnapshot(t *testing.T) {
	// An item with neither diff nor snapshot rows is written as a snapshot
	// with an empty list, so the document still carries a payload child.
	tree, err := SerializeQueryLogItem(types.QueryLogItem{Name: "idle"}, Options{})
	require.NoError(t, err)

	assert.Equal(t, []interface{}{}, tree["snapshot"])
	assert.Equal(t, "snapshot", tree["action"])
}

func TestQueryLogItem_DecorationsNested(t *testing.T) {
	tree, err := SerializeQueryLogItem(diffItem(), Options{DecorationsTopLevel: false})
	require.NoError(t, err)

	decorations, ok := tree["decorations"].(map[string]interface{})
	require.True(t, ok, "decorations should be a nested child")
	assert.Equal(t, "1.8.2", decorations["version"])
	assert.NotContains(t, tree, "version")
}

func TestQueryLogItem_DecorationsTopLevel(t *testing.T) {
	tree, err := SerializeQueryLogItem(diffItem(), Options{DecorationsTopLevel: true})
	require.NoError(t, err)

	assert.NotContains(t, tree, "decorations")
	assert.Equal(t, "1.8.2", tree["version"])
	assert.Equal(t, "eu-1", tree["site"])
}

func TestQueryLogItem_RoundTrip(t *testing.T) {
	item := diffItem()

	doc, err := SerializeQueryLogItemJSON(item, Options{})
	require.NoError(t, err)

	got, err := DeserializeQueryLogItemJSON(doc)
	require.NoError(t, err)

	assert.Equal(t, item.Name, got.Name)
	assert.Equal(t, item.HostIdentifier, got.HostIdentifier)
	assert.Equal(t, item.CalendarTime, got.CalendarTime)
	assert.Equal(t, item.UnixTime, got.UnixTime)
	assert.Equal(t, item.Decorations, got.Decorations)
	assert.True(t, item.Results.Equal(got.Results))
}

func TestQueryLogItem_DeserializeDefaults(t *testing.T) {
	// The reverse mapping is best-effort: absent legacy fields get
	// empty-string/zero defaults and decorations default to empty.
	got, err := DeserializeQueryLogItemJSON(`{}`)
	require.NoError(t, err)

	assert.Equal(t, "", got.Name)
	assert.Equal(t, "", got.HostIdentifier)
	assert.Equal(t, "", got.CalendarTime)
	assert.Equal(t, int64(0), got.UnixTime)
	assert.Equal(t, map[string]string{}, got.Decorations)
}

func TestQueryLogItem_DeserializeUnixTimeString(t *testing.T) {
	got, err := DeserializeQueryLogItemJSON(`{"unixTime": "1787479200"}`)
	require.NoError(t, err)
	assert.Equal(t, int64(1787479200), got.UnixTime)
}

func TestAsEvents_DiffItem(t *testing.T) {
	events, err := SerializeQueryLogItemAsEvents(diffItem(), Options{})
	require.NoError(t, err)
	require.Len(t, events, 2)

	// Category-then-row order: added first, then removed.
	added := events[0]
	assert.Equal(t, "added", added["action"])
	columns, ok := added["columns"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "nginx", columns["name"])
	assert.Equal(t, "process_events", added["name"])

	removed := events[1]
	assert.Equal(t, "removed", removed["action"])
	columns, ok = removed["columns"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "cron", columns["name"])
}

func TestAsEvents_SingleAddedRow(t *testing.T) {
	item := types.QueryLogItem{
		Name: "q",
		Results: types.DiffResults{
			Added: types.QueryData{{"a": "1"}},
		},
	}

	docs, err := SerializeQueryLogItemAsEventsJSON(item, Options{})
	require.NoError(t, err)
	require.Len(t, docs, 1)

	got, err := DeserializeQueryLogItemJSON(docs[0])
	require.NoError(t, err)
	assert.Equal(t, "q", got.Name)
	assert.Contains(t, docs[0], `"action":"added"`)
	assert.Contains(t, docs[0], `"columns":{"a":"1"}`)
}

func TestAsEvents_SnapshotItemYieldsNone(t *testing.T) {
	item := types.QueryLogItem{
		Name:     "mounts",
		Snapshot: types.QueryData{{"device": "/dev/sda1"}},
	}

	events, err := SerializeQueryLogItemAsEvents(item, Options{})
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestAsEvents_DecorationsCarriedPerEvent(t *testing.T) {
	item := diffItem()
	events, err := SerializeQueryLogItemAsEvents(item, Options{})
	require.NoError(t, err)

	for _, event := range events {
		decorations, ok := event["decorations"].(map[string]interface{})
		require.True(t, ok)
		assert.Equal(t, "eu-1", decorations["site"])
	}
}

package types

// QueryLogItem is one logical log record emitted per evaluated scheduled
// query. Exactly one payload variant is meaningful at a time: Results for
// incremental (diff) queries, Snapshot for full-snapshot queries. The item
// is transient; only its serialized form is logged or transmitted.
type QueryLogItem struct {
	// Name identifies the scheduled query that produced this record.
	Name string

	// HostIdentifier identifies the host the record was produced on.
	HostIdentifier string

	// CalendarTime is the human-readable timestamp of the evaluation.
	CalendarTime string

	// UnixTime is the evaluation time as a unix timestamp.
	UnixTime int64

	// Decorations is optional metadata attached to every emitted record.
	Decorations map[string]string

	// Results carries the diff payload for incremental queries.
	Results DiffResults

	// Snapshot carries the full result set for snapshot queries.
	Snapshot QueryData
}

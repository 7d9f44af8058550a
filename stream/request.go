package stream

// Aggregation functions accepted by the feed protocol.
const (
	AggCount   = "count"
	AggSum     = "sum"
	AggAverage = "average"
	AggMin     = "min"
	AggMax     = "max"
)

// Request describes a data subscription for RequestData: which source to
// stream, which fields, and optional server-side filtering and
// aggregation. There is no response correlation; whatever the server
// sends back arrives as ordinary inbound envelopes.
type Request struct {
	// Source names the remote data source to stream.
	Source string `json:"source"`

	// Fields restricts the record fields the server should include.
	// Empty means all fields.
	Fields []string `json:"fields,omitempty"`

	// Filters are server-side row filters, combined conjunctively.
	Filters []Filter `json:"filters,omitempty"`

	// Aggregation asks the server to aggregate instead of streaming raw
	// records.
	Aggregation *Aggregation `json:"aggregation,omitempty"`

	// BatchSize is the record count per delivery. Zero falls back to the
	// client's configured BatchSize; zero there too leaves the count to
	// the server.
	BatchSize int `json:"batch_size,omitempty"`
}

// Filter is one field/operator/value predicate.
type Filter struct {
	Field    string `json:"field"`
	Operator string `json:"operator"`
	Value    any    `json:"value"`
}

// Aggregation is a server-side aggregation spec: one of the Agg*
// functions computed over a fixed interval.
type Aggregation struct {
	Function string `json:"function"`
	// Interval is the aggregation window in milliseconds.
	Interval int64 `json:"interval_ms,omitempty"`
}

// dataRequest is the wire form RequestData sends: the subscription config
// wrapped in a typed message stamped with a send timestamp.
type dataRequest struct {
	Type      string  `json:"type"`
	Request   Request `json:"request"`
	Timestamp int64   `json:"timestamp"`
}

package reporting

import "time"

// RunKind distinguishes ingest and detect run reports.
type RunKind string

const (
	RunKindIngest RunKind = "ingest"
	RunKindDetect RunKind = "detect"
)

// StageSummary records one pipeline stage's outcome.
type StageSummary struct {
	Dataset       string `json:"dataset"`
	Status        string `json:"status"`
	RowsProcessed int    `json:"rows_processed"`
	Error         string `json:"error,omitempty"`
}

// RunReport is the persisted summary of one ingest or detect run.
type RunReport struct {
	RunID     string         `json:"run_id"`
	Kind      RunKind        `json:"kind"`
	StartTime time.Time      `json:"start_time"`
	EndTime   time.Time      `json:"end_time"`
	Duration  string         `json:"duration"`
	Success   bool           `json:"success"`
	Stages    []StageSummary `json:"stages,omitempty"`

	// Detection counters; zero for ingest runs.
	Carriers        int `json:"carriers,omitempty"`
	RawPairs        int `json:"raw_pairs,omitempty"`
	MeaningfulLinks int `json:"meaningful_links,omitempty"`
	Clusters        int `json:"clusters,omitempty"`
	HighRisk        int `json:"high_risk,omitempty"`
}
